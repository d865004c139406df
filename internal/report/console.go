// Package report renders finished analyses to the terminal.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"SocialListener/internal/domain"
	"SocialListener/internal/ports"
)

const (
	barWidth     = 30
	titleMaxRune = 80
)

// Console writes styled reports to w. Colors are dropped automatically when w is not a terminal.
type Console struct {
	w io.Writer

	title   lipgloss.Style
	heading lipgloss.Style
	label   lipgloss.Style
	muted   lipgloss.Style
	warn    lipgloss.Style
	bar     lipgloss.Style
	badge   map[domain.Opportunity]lipgloss.Style
}

var _ ports.Reporter = (*Console)(nil)

// NewConsole builds a renderer bound to w.
func NewConsole(w io.Writer) *Console {
	r := lipgloss.NewRenderer(w)
	return &Console{
		w:       w,
		title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).Border(lipgloss.RoundedBorder()).Padding(0, 1),
		heading: r.NewStyle().Bold(true).Foreground(lipgloss.Color("62")).MarginTop(1),
		label:   r.NewStyle().Bold(true),
		muted:   r.NewStyle().Foreground(lipgloss.Color("241")),
		warn:    r.NewStyle().Foreground(lipgloss.Color("214")),
		bar:     r.NewStyle().Foreground(lipgloss.Color("78")),
		badge: map[domain.Opportunity]lipgloss.Style{
			domain.OpportunityBlueOcean:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
			domain.OpportunityWorthTrying: r.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
			domain.OpportunityRedOcean:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		},
	}
}

// RenderReddit prints the pain-point analysis of one or more subreddits.
func (c *Console) RenderReddit(a domain.RedditAnalysis) error {
	var b strings.Builder

	b.WriteString(c.title.Render("Reddit analysis: r/"+strings.Join(a.Subreddits, ", r/")) + "\n")
	b.WriteString(c.muted.Render(fmt.Sprintf("run %s · %d posts fetched · %d classified · %d skipped",
		a.RunID, len(a.Posts), len(a.Records), a.Skipped)) + "\n")

	titles := titlesByID(a.Posts)
	c.writeCounts(&b, a.Report)
	c.writeTopItems(&b, a.Report, titles)

	if dd := a.DeepDive; dd != nil {
		b.WriteString(c.heading.Render("Deep dive") + "\n")
		fmt.Fprintf(&b, "%s %.1f%%\n", c.label.Render("Problem density:"), dd.ProblemDensity)
		if dd.ConcentrationScore >= 0 {
			fmt.Fprintf(&b, "%s %d/10\n", c.label.Render("Pain-point concentration:"), dd.ConcentrationScore)
		} else {
			b.WriteString(c.warn.Render("Pain-point concentration: not reported") + "\n")
		}
		if dd.Text != "" {
			b.WriteString("\n" + dd.Text + "\n")
		}
	}

	return c.flush(&b)
}

// RenderYouTube prints a channel analysis.
func (c *Console) RenderYouTube(a domain.YouTubeAnalysis) error {
	var b strings.Builder

	b.WriteString(c.title.Render("YouTube channel analysis: "+a.ChannelID) + "\n")
	b.WriteString(c.muted.Render(fmt.Sprintf("run %s · %d videos selected · %d comments · %d classified · %d skipped",
		a.RunID, len(a.Videos), a.Comments, len(a.Records), a.Skipped)) + "\n")

	if len(a.Videos) > 0 {
		b.WriteString(c.heading.Render("Selected videos") + "\n")
		for _, v := range a.Videos {
			fmt.Fprintf(&b, "  %s %s %s\n", c.muted.Render(v.Timestamp.Format("2006-01-02")), clip(v.Title), c.muted.Render(fmt.Sprintf("(%d views)", v.Engagement)))
		}
	}

	if a.ContentPillars != "" {
		b.WriteString(c.heading.Render("Content pillars") + "\n")
		b.WriteString(a.ContentPillars + "\n")
	}

	c.writeCounts(&b, a.Report)
	c.writeTopItems(&b, a.Report, nil)

	if len(a.Report.FrequentQuestions) > 0 {
		b.WriteString(c.heading.Render("Frequent questions") + "\n")
		for _, q := range a.Report.FrequentQuestions {
			fmt.Fprintf(&b, "  %3d  %s\n", q.Count, q.Theme)
		}
	}

	if t := a.Report.Trend; t != nil {
		b.WriteString(c.heading.Render("Content strategy trend") + "\n")
		if t.OverlappingSubsets {
			b.WriteString(c.warn.Render("Oldest and newest batches overlap: the channel has fewer than twice the requested videos.") + "\n")
		}
		fmt.Fprintf(&b, "  %-20s %8s %8s %8s\n", "format", "oldest", "newest", "shift")
		for _, cat := range sortedCategories(t.Shift, nil) {
			fmt.Fprintf(&b, "  %-20s %7.0f%% %7.0f%% %+7.1fpp\n", cat, t.Oldest[cat]*100, t.Newest[cat]*100, t.Shift[cat])
		}
		if t.Narrative != "" {
			b.WriteString("\n" + t.Narrative + "\n")
		}
	}

	return c.flush(&b)
}

// RenderNiche prints a discover-mode opportunity report.
func (c *Console) RenderNiche(r domain.NicheReport) error {
	var b strings.Builder

	b.WriteString(c.title.Render("Niche analysis: "+r.Topic) + "\n")
	b.WriteString(c.muted.Render(fmt.Sprintf("%d videos · %s", r.Videos, r.GeneratedAt.Format("2006-01-02 15:04"))) + "\n")

	if r.Videos == 0 {
		b.WriteString(c.warn.Render("No videos found for this topic.") + "\n")
		return c.flush(&b)
	}

	b.WriteString(c.heading.Render("Video age") + "\n")
	c.writeBuckets(&b, r.Freshness, r.Videos)
	b.WriteString(c.heading.Render("Channel size") + "\n")
	c.writeBuckets(&b, r.Authority, r.Videos)

	b.WriteString(c.heading.Render("Scores") + "\n")
	fmt.Fprintf(&b, "%s %.0f average views\n", c.label.Render("Demand:"), r.DemandScore)
	fmt.Fprintf(&b, "%s %.1f / 100\n", c.label.Render("Competition:"), r.CompetitionScore)
	badge, ok := c.badge[r.Opportunity]
	if !ok {
		badge = c.label
	}
	fmt.Fprintf(&b, "%s %s\n", c.label.Render("Opportunity:"), badge.Render(string(r.Opportunity)))

	if r.Assessment != "" {
		b.WriteString("\n" + r.Assessment + "\n")
	}

	return c.flush(&b)
}

func (c *Console) writeCounts(b *strings.Builder, report domain.AggregateReport) {
	b.WriteString(c.heading.Render("Categories") + "\n")
	if report.Total == 0 {
		b.WriteString(c.muted.Render("  nothing classified") + "\n")
		return
	}
	for _, cat := range sortedCategories(nil, report.CategoryCounts) {
		n := report.CategoryCounts[cat]
		fmt.Fprintf(b, "  %-20s %4d %5.1f%% %s\n", cat, n, float64(n)*100/float64(report.Total), c.bar.Render(bar(n, report.Total)))
	}
}

func (c *Console) writeTopItems(b *strings.Builder, report domain.AggregateReport, titles map[string]string) {
	for _, cat := range sortedCategories(nil, report.CategoryCounts) {
		top := report.TopItems[cat]
		if len(top) == 0 || cat == domain.Unclassified {
			continue
		}
		b.WriteString(c.heading.Render("Top "+string(cat)) + "\n")
		for _, rec := range top {
			line := rec.Summary
			if t := titles[rec.ItemID]; t != "" {
				line = c.label.Render(clip(t)) + " " + c.muted.Render("· "+rec.Summary)
			}
			fmt.Fprintf(b, "  %s %s\n", c.muted.Render(fmt.Sprintf("[%d]", rec.RawEngagement)), line)
		}
	}
}

func (c *Console) writeBuckets(b *strings.Builder, buckets []domain.Bucket, total int) {
	for _, bk := range buckets {
		fmt.Fprintf(b, "  %-12s %4d %s\n", bk.Label, bk.Count, c.bar.Render(bar(bk.Count, total)))
	}
}

func (c *Console) flush(b *strings.Builder) error {
	if _, err := io.WriteString(c.w, b.String()+"\n"); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// sortedCategories orders keys by count desc then name; with shares only, by name.
func sortedCategories(shares map[domain.Category]float64, counts map[domain.Category]int) []domain.Category {
	var cats []domain.Category
	for c := range shares {
		cats = append(cats, c)
	}
	for c := range counts {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool {
		if counts[cats[i]] != counts[cats[j]] {
			return counts[cats[i]] > counts[cats[j]]
		}
		return cats[i] < cats[j]
	})
	return cats
}

func titlesByID(items []domain.RawItem) map[string]string {
	out := make(map[string]string, len(items))
	for _, it := range items {
		out[it.ID] = it.Title
	}
	return out
}

func bar(n, total int) string {
	if total <= 0 || n <= 0 {
		return ""
	}
	width := n * barWidth / total
	if width == 0 {
		width = 1
	}
	return strings.Repeat("█", width)
}

func clip(s string) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= titleMaxRune {
		return string(r)
	}
	return string(r[:titleMaxRune-1]) + "…"
}
