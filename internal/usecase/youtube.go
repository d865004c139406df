package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"golang.org/x/sync/errgroup"

	"SocialListener/internal/aggregate"
	"SocialListener/internal/classifier"
	"SocialListener/internal/domain"
	"SocialListener/internal/selection"
	"SocialListener/internal/source"
)

// YouTubeRequest describes one channel run.
type YouTubeRequest struct {
	ChannelURL   string
	Criteria     domain.SelectionCriteria
	CommentLimit int
}

// AnalyzeYouTube selects videos of a channel, summarizes its content pillars, classifies the comments
// of the selected videos and, in trend mode, compares the formats of its oldest and newest uploads.
func (a *Analyzer) AnalyzeYouTube(ctx context.Context, req YouTubeRequest) (domain.YouTubeAnalysis, error) {
	var analysis domain.YouTubeAnalysis

	if a.directory == nil {
		return analysis, errors.New("channel directory is not configured")
	}
	channelID, err := a.directory.ResolveChannelID(ctx, req.ChannelURL)
	if err != nil {
		return analysis, fmt.Errorf("resolve channel: %w", err)
	}
	analysis.ChannelID = channelID

	uploads, err := a.sources.Open(source.KindYouTubeUploads, source.Request{Target: channelID})
	if err != nil {
		return analysis, err
	}
	population, err := a.pipeline.Collect(ctx, uploads, req.Criteria)
	if err != nil {
		return analysis, fmt.Errorf("collect %s: %w", uploads.Name(), err)
	}

	videoCriteria := req.Criteria
	videoCriteria.Trend = false
	analysis.Videos = selection.Select(population, videoCriteria)
	a.logger.Info("videos selected", "channel", channelID, "population", len(population), "selected", len(analysis.Videos), "order", videoCriteria.Order)

	analysis.ContentPillars = a.contentPillars(ctx, analysis.Videos)

	var trend *domain.TrendDelta
	if req.Criteria.Trend {
		trend, err = a.trend(ctx, population, req.Criteria.Count)
		if err != nil {
			return analysis, err
		}
	}

	comments, err := a.fetchComments(ctx, analysis.Videos, req.CommentLimit)
	if err != nil {
		return analysis, err
	}
	analysis.Comments = len(comments)

	res, err := a.pipeline.ClassifyAll(ctx, comments, classifier.CommentCategories)
	analysis.RunID = res.RunID
	analysis.Records = res.Records
	analysis.Skipped = len(res.Skipped)
	analysis.Report = aggregate.Aggregate(res.Records, classifier.CommentCategories.Categories)
	analysis.Report.Trend = trend
	if err != nil {
		return analysis, err
	}

	themes, err := aggregate.FrequentQuestions(ctx, a.generator, res.Records)
	if err != nil {
		a.logger.Warn("frequent questions failed", "run", res.RunID, "error", err)
	}
	analysis.Report.FrequentQuestions = themes

	return analysis, nil
}

func (a *Analyzer) contentPillars(ctx context.Context, videos []domain.RawItem) string {
	if len(videos) == 0 {
		return ""
	}
	lines := make([]string, 0, len(videos))
	for _, v := range videos {
		lines = append(lines, "- "+v.Title)
	}
	text, err := a.generator.Generate(ctx, classifier.ContentPillars, lines)
	if err != nil {
		a.logger.Warn("content pillars failed", "error", err)
		return ""
	}
	return text
}

// trend classifies the titles of the oldest and newest uploads once and compares both batches.
func (a *Analyzer) trend(ctx context.Context, population []domain.RawItem, count int) (*domain.TrendDelta, error) {
	ts := selection.Trend(population, count)

	union := make([]domain.RawItem, 0, len(ts.Oldest)+len(ts.Newest))
	seen := make(map[string]struct{}, cap(union))
	for _, batch := range [][]domain.RawItem{ts.Oldest, ts.Newest} {
		for _, v := range batch {
			if _, ok := seen[v.ID]; ok {
				continue
			}
			seen[v.ID] = struct{}{}
			union = append(union, titleItem(v))
		}
	}

	res, err := a.pipeline.ClassifyAll(ctx, union, classifier.TitleFormat)
	if err != nil {
		return nil, fmt.Errorf("classify titles: %w", err)
	}

	byID := make(map[string]domain.ClassificationRecord, len(res.Records))
	for _, rec := range res.Records {
		byID[rec.ItemID] = rec
	}
	pick := func(batch []domain.RawItem) []domain.ClassificationRecord {
		out := make([]domain.ClassificationRecord, 0, len(batch))
		for _, v := range batch {
			if rec, ok := byID[v.ID]; ok {
				out = append(out, rec)
			}
		}
		return out
	}

	delta := aggregate.TrendShift(pick(ts.Oldest), pick(ts.Newest), classifier.TitleFormat.Categories, ts.Overlapping)
	if ts.Overlapping {
		a.logger.Warn("trend batches overlap", "population", len(population), "count", count)
	}

	narrative, err := aggregate.StrategyNarrative(ctx, a.generator, ts.Oldest, ts.Newest)
	if err != nil {
		a.logger.Warn("strategy narrative failed", "error", err)
	}
	delta.Narrative = narrative

	return delta, nil
}

// titleItem classifies a video by its title alone.
func titleItem(v domain.RawItem) domain.RawItem {
	v.Text = ""
	return v
}

func (a *Analyzer) fetchComments(ctx context.Context, videos []domain.RawItem, limit int) ([]domain.RawItem, error) {
	if limit <= 0 || len(videos) == 0 {
		return []domain.RawItem{}, nil
	}

	slots := make([][]domain.RawItem, len(videos))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.fetchers)
	for i, v := range videos {
		g.Go(func() error {
			f, err := a.sources.Open(source.KindYouTubeComments, source.Request{
				Target:  v.ID,
				Options: map[string]string{source.OptionPageSize: strconv.Itoa(limit)},
			})
			if err != nil {
				return err
			}

			items, err := a.pager.Collect(gctx, f, limit)
			if domain.IsNotFound(err) {
				a.logger.Info("comments unavailable", "video", v.ID, "error", err)
				return nil
			}
			if err != nil {
				return fmt.Errorf("comments of %s: %w", v.ID, err)
			}
			if len(items) > limit {
				items = items[:limit]
			}
			slots[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := []domain.RawItem{}
	for _, s := range slots {
		out = append(out, s...)
	}
	return out, nil
}
