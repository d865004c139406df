package aggregate

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"SocialListener/internal/classifier"
	"SocialListener/internal/domain"
)

const (
	deepDiveSnippetRunes = 400
	maxQuestionLines     = 200
)

var concentrationScore = regexp.MustCompile(`(?i)Pain-Point-Concentration-Score:\s*(\d+(?:\.\d+)?)\s*/\s*10`)

// FrequentQuestions clusters the summaries of Question records into themes, most frequent first.
// No question records means no model call and an empty result.
func FrequentQuestions(ctx context.Context, gen Generator, records []domain.ClassificationRecord) ([]domain.QuestionTheme, error) {
	lines := make([]string, 0)
	for _, rec := range records {
		if rec.Category != domain.CategoryQuestion {
			continue
		}
		summary := strings.Join(strings.Fields(rec.Summary), " ")
		if summary == "" {
			continue
		}
		lines = append(lines, "- "+summary)
		if len(lines) == maxQuestionLines {
			break
		}
	}
	if len(lines) == 0 {
		return []domain.QuestionTheme{}, nil
	}

	var answer struct {
		Themes []struct {
			Theme string `json:"theme"`
			Count int    `json:"count"`
		} `json:"themes"`
	}
	if err := gen.GenerateJSON(ctx, classifier.FrequentQuestions, lines, &answer); err != nil {
		return nil, fmt.Errorf("frequent questions: %w", err)
	}

	themes := make([]domain.QuestionTheme, 0, len(answer.Themes))
	for _, t := range answer.Themes {
		theme := strings.TrimSpace(t.Theme)
		if theme == "" || t.Count <= 0 {
			continue
		}
		themes = append(themes, domain.QuestionTheme{Theme: theme, Count: t.Count})
	}
	sort.SliceStable(themes, func(i, j int) bool {
		if themes[i].Count != themes[j].Count {
			return themes[i].Count > themes[j].Count
		}
		return themes[i].Theme < themes[j].Theme
	})
	return themes, nil
}

// TrendShift compares the category shares of the oldest and newest batches.
// Shift is expressed in percentage points (newest minus oldest).
func TrendShift(oldest, newest []domain.ClassificationRecord, categories []domain.Category, overlapping bool) *domain.TrendDelta {
	before := Distribution(oldest, categories)
	after := Distribution(newest, categories)

	shift := make(map[domain.Category]float64, len(before))
	for c := range before {
		shift[c] = roundTo((after[c]-before[c])*100, 1)
	}

	return &domain.TrendDelta{
		Oldest:             before,
		Newest:             after,
		Shift:              shift,
		OverlappingSubsets: overlapping,
	}
}

// StrategyNarrative asks the model how the channel's content strategy evolved between two batches of titles.
func StrategyNarrative(ctx context.Context, gen Generator, oldest, newest []domain.RawItem) (string, error) {
	lines := make([]string, 0, len(oldest)+len(newest)+2)
	lines = append(lines, "Oldest videos:")
	lines = append(lines, datedTitles(oldest)...)
	lines = append(lines, "Newest videos:")
	lines = append(lines, datedTitles(newest)...)

	text, err := gen.Generate(ctx, classifier.StrategyEvolution, lines)
	if err != nil {
		return "", fmt.Errorf("strategy narrative: %w", err)
	}
	return text, nil
}

func datedTitles(items []domain.RawItem) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, fmt.Sprintf("- (%s) %s", item.Timestamp.Format("2006-01-02"), item.Title))
	}
	return out
}

// ProblemDensity is the percentage of classified posts labelled Problem.
func ProblemDensity(report domain.AggregateReport) float64 {
	if report.Total == 0 {
		return 0
	}
	return roundTo(float64(report.CategoryCounts[domain.CategoryProblem])*100/float64(report.Total), 1)
}

// DeepDive asks for a pain-point analysis of the problem posts and extracts the concentration score.
func DeepDive(ctx context.Context, gen Generator, domainContext string, problems []domain.RawItem, density float64) (*domain.PainPointReport, error) {
	report := &domain.PainPointReport{ProblemDensity: density, ConcentrationScore: -1}
	if len(problems) == 0 {
		return report, nil
	}

	lines := make([]string, 0, len(problems))
	for _, p := range problems {
		lines = append(lines, fmt.Sprintf("Title: %s\nBody Snippet: %s", p.Title, snippet(p.Text, deepDiveSnippetRunes)))
	}

	text, err := gen.Generate(ctx, classifier.PainPointDeepDive(domainContext), lines)
	if err != nil {
		return nil, fmt.Errorf("deep dive: %w", err)
	}
	report.Text = text
	report.ConcentrationScore = ParseConcentrationScore(text)
	return report, nil
}

// ParseConcentrationScore reads the last `Pain-Point-Concentration-Score: X/10` marker, clamped to 0..10.
// It returns -1 when the marker is missing.
func ParseConcentrationScore(text string) int {
	matches := concentrationScore.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return -1
	}
	v, err := strconv.ParseFloat(matches[len(matches)-1][1], 64)
	if err != nil {
		return -1
	}
	score := int(math.Round(v))
	if score > 10 {
		score = 10
	}
	return score
}

func snippet(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	r := []rune(text)
	if len(r) <= limit {
		return text
	}
	return string(r[:limit]) + "..."
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
