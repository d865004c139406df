package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"SocialListener/internal/aggregate"
	"SocialListener/internal/classifier"
	"SocialListener/internal/domain"
	"SocialListener/internal/selection"
	"SocialListener/internal/source"
)

// RedditRequest describes one pain-point run over a set of subreddits.
// Criteria apply per subreddit.
type RedditRequest struct {
	Subreddits []string
	Criteria   domain.SelectionCriteria
	TimeFilter string
	DeepDive   bool
	// Context names the market domain used by the deep dive prompt.
	Context string
}

// AnalyzeReddit fetches, selects and classifies posts, then aggregates them.
// Unknown or private subreddits are skipped. A cancelled run returns its partial analysis with the error.
func (a *Analyzer) AnalyzeReddit(ctx context.Context, req RedditRequest) (domain.RedditAnalysis, error) {
	subs := normalizeSubreddits(req.Subreddits)
	if len(subs) == 0 {
		return domain.RedditAnalysis{}, errors.New("no subreddit given")
	}

	analysis := domain.RedditAnalysis{Subreddits: subs}

	posts, found, err := a.fetchSubreddits(ctx, subs, req)
	if err != nil {
		return analysis, err
	}
	if len(found) == 0 {
		return analysis, fmt.Errorf("none of the subreddits could be read: %s", strings.Join(subs, ", "))
	}
	analysis.Subreddits = found
	analysis.Posts = posts

	res, err := a.pipeline.ClassifyAll(ctx, posts, classifier.RedditPainPoint)
	analysis.RunID = res.RunID
	analysis.Records = res.Records
	analysis.Skipped = len(res.Skipped)
	analysis.Report = aggregate.Aggregate(res.Records, classifier.RedditPainPoint.Categories)
	if err != nil {
		return analysis, err
	}

	if req.DeepDive {
		analysis.DeepDive = a.deepDive(ctx, req.Context, posts, analysis)
	}

	return analysis, nil
}

func (a *Analyzer) fetchSubreddits(ctx context.Context, subs []string, req RedditRequest) ([]domain.RawItem, []string, error) {
	listingOrder := string(req.Criteria.Order)
	slots := make([][]domain.RawItem, len(subs))
	missing := make([]bool, len(subs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.fetchers)
	for i, sub := range subs {
		g.Go(func() error {
			f, err := a.sources.Open(source.KindReddit, source.Request{
				Target: sub,
				Options: map[string]string{
					source.OptionOrder:      listingOrder,
					source.OptionTimeFilter: req.TimeFilter,
				},
			})
			if err != nil {
				return err
			}

			items, err := a.pipeline.Collect(gctx, f, req.Criteria)
			if domain.IsNotFound(err) {
				a.logger.Warn("subreddit skipped", "subreddit", sub, "error", err)
				missing[i] = true
				return nil
			}
			if err != nil {
				return fmt.Errorf("subreddit %s: %w", sub, err)
			}

			slots[i] = selection.Select(items, req.Criteria)
			a.logger.Info("subreddit fetched", "subreddit", sub, "fetched", len(items), "selected", len(slots[i]))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var (
		posts []domain.RawItem
		found []string
		seen  = map[string]struct{}{}
	)
	for i, sub := range subs {
		if missing[i] {
			continue
		}
		found = append(found, sub)
		for _, p := range slots[i] {
			if _, ok := seen[p.ID]; ok {
				continue
			}
			seen[p.ID] = struct{}{}
			posts = append(posts, p)
		}
	}
	if posts == nil {
		posts = []domain.RawItem{}
	}
	return posts, found, nil
}

func (a *Analyzer) deepDive(ctx context.Context, domainContext string, posts []domain.RawItem, analysis domain.RedditAnalysis) *domain.PainPointReport {
	density := aggregate.ProblemDensity(analysis.Report)
	if strings.TrimSpace(domainContext) == "" {
		domainContext = strings.Join(analysis.Subreddits, ", ")
	}

	problems := aggregate.InCategory(posts, analysis.Records, domain.CategoryProblem)
	report, err := aggregate.DeepDive(ctx, a.generator, domainContext, problems, density)
	if err != nil {
		a.logger.Warn("deep dive failed", "run", analysis.RunID, "error", err)
		return &domain.PainPointReport{ProblemDensity: density, ConcentrationScore: -1}
	}
	return report
}

func normalizeSubreddits(raw []string) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, s := range raw {
		for _, part := range strings.Split(s, ",") {
			name := strings.TrimPrefix(strings.TrimSpace(part), "r/")
			key := strings.ToLower(name)
			if name == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, name)
		}
	}
	return out
}
