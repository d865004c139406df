package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"SocialListener/internal/classifier"
	"SocialListener/internal/domain"
	"SocialListener/internal/ports"
	"SocialListener/internal/retry"
	"SocialListener/internal/source"
)

type memFetcher struct {
	name  string
	items []domain.RawItem
	err   error
}

func (f *memFetcher) Name() string { return f.name }

func (f *memFetcher) FetchPage(ctx context.Context, cursor string) ([]domain.RawItem, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	return f.items, "", nil
}

type memSources struct {
	mu       sync.Mutex
	data     map[string][]domain.RawItem
	missing  map[string]bool
	requests []source.Request
}

func (m *memSources) factory(kind string) source.Factory {
	return func(req source.Request) (ports.Fetcher, error) {
		m.mu.Lock()
		m.requests = append(m.requests, req)
		m.mu.Unlock()

		f := &memFetcher{name: kind + "/" + req.Target, items: m.data[req.Target]}
		if m.missing[req.Target] {
			f.err = &domain.FetchError{Kind: domain.FetchNotFound, Source: kind, Err: fmt.Errorf("%s gone", req.Target)}
		}
		return f, nil
	}
}

func (m *memSources) registry() *source.Registry {
	reg := source.NewRegistry()
	for _, kind := range []string{source.KindReddit, source.KindYouTubeUploads, source.KindYouTubeComments, source.KindYouTubeSearch} {
		reg.Register(kind, m.factory(kind))
	}
	return reg
}

type scriptedGenerator struct {
	mu    sync.Mutex
	text  map[string]string
	json  map[string]string
	tasks []string
	lines map[string][]string
}

func (g *scriptedGenerator) Generate(ctx context.Context, task classifier.TaskSpec, lines []string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tasks = append(g.tasks, task.Name)
	return g.text[task.Name], nil
}

func (g *scriptedGenerator) GenerateJSON(ctx context.Context, task classifier.TaskSpec, lines []string, v any) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tasks = append(g.tasks, task.Name)
	if g.lines == nil {
		g.lines = map[string][]string{}
	}
	g.lines[task.Name] = lines
	return json.Unmarshal([]byte(g.json[task.Name]), v)
}

type fakeDirectory struct {
	subs map[string]int64
}

func (d fakeDirectory) ResolveChannelID(ctx context.Context, channelURL string) (string, error) {
	return strings.TrimPrefix(channelURL, "https://www.youtube.com/channel/"), nil
}

func (d fakeDirectory) SubscriberCounts(ctx context.Context, ids []string) (map[string]int64, error) {
	return d.subs, nil
}

// labelByContent stands in for the model with keyword rules.
func labelByContent(item domain.RawItem) domain.Category {
	switch {
	case item.Source == "reddit" && strings.Contains(strings.ToLower(item.Title), "bug"):
		return domain.CategoryProblem
	case item.Source == "reddit":
		return domain.CategoryNonProblem
	case item.Title == "" && strings.HasSuffix(item.Text, "?"):
		return domain.CategoryQuestion
	case item.Title == "":
		return domain.CategoryPositiveFeedback
	case strings.Contains(strings.ToLower(item.Title), "review"):
		return domain.CategoryReview
	default:
		return domain.CategoryTutorial
	}
}

func newTestAnalyzer(src *memSources, gen *scriptedGenerator, dir ports.ChannelDirectory, now time.Time) *Analyzer {
	pager := source.NewPager(nil, retry.Policy{MaxAttempts: 1}, nil)
	pipeline := NewPipeline(PipelineDeps{Pager: pager, Classifier: &fakeClassifier{label: labelByContent}})
	return NewAnalyzer(AnalyzerDeps{
		Pipeline:         pipeline,
		Pager:            pager,
		Sources:          src.registry(),
		Generator:        gen,
		Directory:        dir,
		FetchConcurrency: 2,
		Now:              func() time.Time { return now },
	})
}

func post(id, sub, title string, score int64, day int) domain.RawItem {
	return domain.RawItem{
		ID:         id,
		Title:      title,
		Source:     "reddit",
		ParentID:   sub,
		Engagement: score,
		Timestamp:  time.Date(2026, 5, day, 0, 0, 0, 0, time.UTC),
	}
}

func TestAnalyzeRedditSkipsMissingSubredditAndDeepDives(t *testing.T) {
	t.Parallel()

	src := &memSources{
		data: map[string][]domain.RawItem{
			"notion": {
				post("a", "notion", "Export bug again", 50, 1),
				post("b", "notion", "My setup", 10, 2),
				post("c", "notion", "Sync bug on iOS", 30, 3),
			},
		},
		missing: map[string]bool{"private": true},
	}
	gen := &scriptedGenerator{text: map[string]string{
		"reddit-deep-dive": "Users hit sync and export bugs.\nPain-Point-Concentration-Score: 9/10",
	}}
	analyzer := newTestAnalyzer(src, gen, nil, time.Now())

	analysis, err := analyzer.AnalyzeReddit(context.Background(), RedditRequest{
		Subreddits: []string{"r/notion, private", "Notion"},
		Criteria:   domain.SelectionCriteria{Count: 2, Order: domain.OrderPopular},
		TimeFilter: "month",
		DeepDive:   true,
		Context:    "note taking",
	})
	if err != nil {
		t.Fatalf("AnalyzeReddit error: %v", err)
	}

	if len(analysis.Subreddits) != 1 || analysis.Subreddits[0] != "notion" {
		t.Fatalf("unexpected subreddits: %v", analysis.Subreddits)
	}
	if len(analysis.Posts) != 2 || analysis.Posts[0].ID != "a" || analysis.Posts[1].ID != "c" {
		t.Fatalf("expected the two most popular posts, got %+v", analysis.Posts)
	}
	if analysis.Report.CategoryCounts[domain.CategoryProblem] != 2 || analysis.RunID == "" {
		t.Fatalf("unexpected report: %+v", analysis.Report)
	}
	if analysis.DeepDive == nil || analysis.DeepDive.ConcentrationScore != 9 || analysis.DeepDive.ProblemDensity != 100 {
		t.Fatalf("unexpected deep dive: %+v", analysis.DeepDive)
	}
	for _, req := range src.requests {
		if req.Options[source.OptionOrder] != "popular" || req.Options[source.OptionTimeFilter] != "month" {
			t.Fatalf("unexpected source options: %+v", req.Options)
		}
	}
}

func TestAnalyzeRedditAllMissing(t *testing.T) {
	t.Parallel()

	src := &memSources{missing: map[string]bool{"gone": true}}
	analyzer := newTestAnalyzer(src, &scriptedGenerator{}, nil, time.Now())

	_, err := analyzer.AnalyzeReddit(context.Background(), RedditRequest{
		Subreddits: []string{"gone"},
		Criteria:   domain.SelectionCriteria{Count: 5, Order: domain.OrderNewest},
	})
	if err == nil {
		t.Fatalf("expected error when no subreddit can be read")
	}
}

func video(id, title string, day int, views int64) domain.RawItem {
	return domain.RawItem{
		ID:         id,
		Title:      title,
		Source:     "youtube",
		ParentID:   "UCchan",
		Engagement: views,
		Timestamp:  time.Date(2025, 1, day, 0, 0, 0, 0, time.UTC),
	}
}

func comment(id, videoID, text string, likes int64) domain.RawItem {
	return domain.RawItem{ID: id, Text: text, Source: "youtube", ParentID: videoID, Engagement: likes}
}

func TestAnalyzeYouTubeTrendWithSmallChannel(t *testing.T) {
	t.Parallel()

	src := &memSources{
		data: map[string][]domain.RawItem{
			"UCchan": {
				video("v1", "Beginner tutorial", 1, 100),
				video("v2", "Lens review", 2, 900),
				video("v3", "Editing tutorial", 3, 300),
				video("v4", "Camera review", 4, 500),
			},
			"v2": {comment("c1", "v2", "Which lens is this?", 4), comment("c2", "v2", "Great video", 9)},
			"v4": {comment("c3", "v4", "Does it work at night?", 1)},
		},
		missing: map[string]bool{"v3": true},
	}
	gen := &scriptedGenerator{
		text: map[string]string{
			"youtube-content-pillars":    "- Gear reviews",
			"youtube-strategy-evolution": "Moved from tutorials to reviews.",
		},
		json: map[string]string{
			"youtube-frequent-questions": `{"themes":[{"theme":"gear","count":2}]}`,
		},
	}
	analyzer := newTestAnalyzer(src, gen, fakeDirectory{}, time.Now())

	analysis, err := analyzer.AnalyzeYouTube(context.Background(), YouTubeRequest{
		ChannelURL:   "https://www.youtube.com/channel/UCchan",
		Criteria:     domain.SelectionCriteria{Count: 5, Order: domain.OrderPopular, Trend: true},
		CommentLimit: 15,
	})
	if err != nil {
		t.Fatalf("AnalyzeYouTube error: %v", err)
	}

	if analysis.ChannelID != "UCchan" || len(analysis.Videos) != 4 || analysis.Videos[0].ID != "v2" {
		t.Fatalf("unexpected videos: %+v", analysis.Videos)
	}
	if analysis.ContentPillars != "- Gear reviews" {
		t.Fatalf("unexpected pillars: %q", analysis.ContentPillars)
	}
	if analysis.Comments != 3 || len(analysis.Records) != 3 {
		t.Fatalf("expected 3 comments classified (v3 disabled), got %d/%d", analysis.Comments, len(analysis.Records))
	}
	if analysis.Report.CategoryCounts[domain.CategoryQuestion] != 2 {
		t.Fatalf("unexpected counts: %v", analysis.Report.CategoryCounts)
	}
	if len(analysis.Report.FrequentQuestions) != 1 || analysis.Report.FrequentQuestions[0].Theme != "gear" {
		t.Fatalf("unexpected questions: %+v", analysis.Report.FrequentQuestions)
	}
	clustered := gen.lines[classifier.FrequentQuestions.Name]
	if len(clustered) != 2 || clustered[0] != "- summary of c1" || clustered[1] != "- summary of c3" {
		t.Fatalf("questions must be clustered from record summaries, got %q", clustered)
	}

	trend := analysis.Report.Trend
	if trend == nil || !trend.OverlappingSubsets {
		t.Fatalf("population 4 with count 5 must report overlapping subsets: %+v", trend)
	}
	if trend.Oldest[domain.CategoryTutorial] != 0.5 || trend.Shift[domain.CategoryReview] != 0 {
		t.Fatalf("identical batches should show no shift: %+v", trend)
	}
	if trend.Narrative != "Moved from tutorials to reviews." {
		t.Fatalf("unexpected narrative: %q", trend.Narrative)
	}
}

func TestAnalyzeYouTubeNewestWithoutTrend(t *testing.T) {
	t.Parallel()

	src := &memSources{data: map[string][]domain.RawItem{
		"UCchan": {
			video("v1", "Old", 1, 100),
			video("v2", "Mid", 2, 100),
			video("v3", "New", 3, 100),
		},
		"v3": {comment("c1", "v3", "Nice", 1), comment("c2", "v3", "Cool", 1), comment("c3", "v3", "Wow", 1)},
	}}
	gen := &scriptedGenerator{}
	analyzer := newTestAnalyzer(src, gen, fakeDirectory{}, time.Now())

	analysis, err := analyzer.AnalyzeYouTube(context.Background(), YouTubeRequest{
		ChannelURL:   "UCchan",
		Criteria:     domain.SelectionCriteria{Count: 1, Order: domain.OrderNewest},
		CommentLimit: 2,
	})
	if err != nil {
		t.Fatalf("AnalyzeYouTube error: %v", err)
	}
	if len(analysis.Videos) != 1 || analysis.Videos[0].ID != "v3" {
		t.Fatalf("unexpected videos: %+v", analysis.Videos)
	}
	if analysis.Comments != 2 {
		t.Fatalf("comment limit not applied: %d", analysis.Comments)
	}
	if analysis.Report.Trend != nil || len(analysis.Report.FrequentQuestions) != 0 {
		t.Fatalf("unexpected trend/questions: %+v", analysis.Report)
	}
	for _, task := range gen.tasks {
		if task == classifier.FrequentQuestions.Name || task == classifier.StrategyEvolution.Name {
			t.Fatalf("unexpected model task %s", task)
		}
	}
}

func TestDiscover(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	src := &memSources{data: map[string][]domain.RawItem{
		"sourdough": {
			{ID: "s1", ParentID: "UCsmall", Engagement: 100, Timestamp: now.AddDate(-1, -1, 0)},
			{ID: "s2", ParentID: "UCsmall", Engagement: 300, Timestamp: now.AddDate(0, -7, 0)},
			{ID: "s3", ParentID: "UCmid", Engagement: 200, Timestamp: now.AddDate(0, 0, -3)},
		},
	}}
	gen := &scriptedGenerator{text: map[string]string{"youtube-niche-assessment": "Freshness 8/10"}}
	dir := fakeDirectory{subs: map[string]int64{"UCsmall": 2_000, "UCmid": 50_000}}
	analyzer := newTestAnalyzer(src, gen, dir, now)

	report, err := analyzer.Discover(context.Background(), " sourdough ", 2)
	if err != nil {
		t.Fatalf("Discover error: %v", err)
	}
	if report.Videos != 2 || report.DemandScore != 200 {
		t.Fatalf("limit not applied: %+v", report)
	}
	if report.Opportunity != domain.OpportunityBlueOcean || report.Assessment != "Freshness 8/10" {
		t.Fatalf("unexpected opportunity: %+v", report)
	}
	if !report.GeneratedAt.Equal(now) {
		t.Fatalf("clock not used: %v", report.GeneratedAt)
	}

	if _, err := analyzer.Discover(context.Background(), "  ", 5); err == nil {
		t.Fatalf("expected error for empty topic")
	}
}
