package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"SocialListener/internal/domain"
)

func TestRenderRedditIncludesCountsAndDeepDive(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	analysis := domain.RedditAnalysis{
		RunID:      "run-1",
		Subreddits: []string{"notion", "obsidian"},
		Posts:      []domain.RawItem{{ID: "p1", Title: "Sync keeps failing"}},
		Records:    []domain.ClassificationRecord{{ItemID: "p1", Category: domain.CategoryProblem, Summary: "sync fails", RawEngagement: 12}},
		Skipped:    1,
		Report: domain.AggregateReport{
			Total:          1,
			CategoryCounts: map[domain.Category]int{domain.CategoryProblem: 1, domain.CategoryNonProblem: 0, domain.Unclassified: 0},
			TopItems: map[domain.Category][]domain.ClassificationRecord{
				domain.CategoryProblem: {{ItemID: "p1", Category: domain.CategoryProblem, Summary: "sync fails", RawEngagement: 12}},
			},
		},
		DeepDive: &domain.PainPointReport{ProblemDensity: 100, ConcentrationScore: -1, Text: "Users struggle with sync."},
	}

	if err := NewConsole(&buf).RenderReddit(analysis); err != nil {
		t.Fatalf("RenderReddit error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"r/notion, r/obsidian",
		"1 skipped",
		"Problem",
		"Sync keeps failing",
		"[12]",
		"100.0%",
		"not reported",
		"Users struggle with sync.",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "Problem ") > strings.Index(out, "Non-Problem") {
		t.Fatalf("categories should be ordered by count:\n%s", out)
	}
}

func TestRenderYouTubeTrend(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	analysis := domain.YouTubeAnalysis{
		RunID:     "run-2",
		ChannelID: "UCxyz",
		Videos:    []domain.RawItem{{ID: "v1", Title: "First video", Timestamp: time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC), Engagement: 99}},
		Report: domain.AggregateReport{
			CategoryCounts:    map[domain.Category]int{},
			FrequentQuestions: []domain.QuestionTheme{{Theme: "camera gear", Count: 4}},
			Trend: &domain.TrendDelta{
				Oldest:             map[domain.Category]float64{domain.CategoryTutorial: 1},
				Newest:             map[domain.Category]float64{domain.CategoryReview: 1},
				Shift:              map[domain.Category]float64{domain.CategoryTutorial: -100, domain.CategoryReview: 100},
				OverlappingSubsets: true,
				Narrative:          "Shifted to reviews.",
			},
		},
	}

	if err := NewConsole(&buf).RenderYouTube(analysis); err != nil {
		t.Fatalf("RenderYouTube error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"UCxyz", "2020-01-02", "First video", "camera gear", "overlap", "-100.0pp", "Shifted to reviews."} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderNiche(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	report := domain.NicheReport{
		Topic:            "sourdough",
		Videos:           4,
		Freshness:        []domain.Bucket{{Label: "< 1 month", Count: 4}},
		Authority:        []domain.Bucket{{Label: "< 10k", Count: 4}},
		DemandScore:      500,
		CompetitionScore: 12.5,
		Opportunity:      domain.OpportunityBlueOcean,
		Assessment:       "Freshness 8/10",
	}

	if err := NewConsole(&buf).RenderNiche(report); err != nil {
		t.Fatalf("RenderNiche error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"sourdough", "500 average views", "12.5 / 100", "Blue Ocean", "Freshness 8/10"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := NewConsole(&buf).RenderNiche(domain.NicheReport{Topic: "void"}); err != nil {
		t.Fatalf("RenderNiche error: %v", err)
	}
	if !strings.Contains(buf.String(), "No videos found") {
		t.Fatalf("expected empty notice:\n%s", buf.String())
	}
}
