package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"SocialListener/internal/classifier"
	"SocialListener/internal/domain"
	"SocialListener/internal/ports"
	"SocialListener/internal/selection"
	"SocialListener/internal/source"
)

const (
	defaultClassifyConcurrency = 5
	defaultDegradedThreshold   = 0.5
)

// ItemClassifier classifies a single item; *classifier.Adapter implements it.
type ItemClassifier interface {
	Classify(ctx context.Context, item domain.RawItem, task classifier.TaskSpec) (domain.ClassificationRecord, error)
}

// PipelineConfig bounds the classification stage.
type PipelineConfig struct {
	ClassifyConcurrency int
	// DegradedThreshold is the skipped/attempted ratio above which a run fails. Values outside (0,1] use 0.5.
	DegradedThreshold float64
}

// PipelineDeps wires all driven adapters into the classification pipeline.
type PipelineDeps struct {
	Pager      *source.Pager
	Classifier ItemClassifier
	Config     PipelineConfig
	Logger     *slog.Logger
}

// Pipeline implements the fetch → select → classify workflow.
type Pipeline struct {
	pager      *source.Pager
	classifier ItemClassifier
	workers    int
	threshold  float64
	logger     *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	workers := deps.Config.ClassifyConcurrency
	if workers <= 0 {
		workers = defaultClassifyConcurrency
	}
	threshold := deps.Config.DegradedThreshold
	if threshold <= 0 || threshold > 1 {
		threshold = defaultDegradedThreshold
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Pipeline{
		pager:      deps.Pager,
		classifier: deps.Classifier,
		workers:    workers,
		threshold:  threshold,
		logger:     logger,
	}
}

// Skip records an item dropped from the output and why.
type Skip struct {
	ItemID string
	Kind   string
	Err    error
}

// Result is the outcome of one classification batch. Records follow the order of Selected.
type Result struct {
	RunID     string
	Selected  []domain.RawItem
	Records   []domain.ClassificationRecord
	Skipped   []Skip
	Attempted int
	Cancelled bool
}

// Run fetches from f, applies the selection criteria and classifies the selection.
func (p *Pipeline) Run(ctx context.Context, f ports.Fetcher, criteria domain.SelectionCriteria, task classifier.TaskSpec) (Result, error) {
	items, err := p.Collect(ctx, f, criteria)
	if err != nil {
		return Result{}, fmt.Errorf("collect %s: %w", f.Name(), err)
	}

	selected := selection.Select(items, criteria)
	p.logger.Debug("selection done", "source", f.Name(), "population", len(items), "selected", len(selected), "order", criteria.Order)

	return p.ClassifyAll(ctx, selected, task)
}

// Collect fetches as many pages as the criteria need: everything for popular, oldest and trend selection,
// only enough pages to cover Count for newest.
func (p *Pipeline) Collect(ctx context.Context, f ports.Fetcher, criteria domain.SelectionCriteria) ([]domain.RawItem, error) {
	if p.pager == nil {
		return nil, errors.New("pipeline has no pager")
	}
	want := criteria.Count
	if selection.RequiresFullPopulation(criteria) {
		want = 0
	}
	return p.pager.Collect(ctx, f, want)
}

type outcome struct {
	issued bool
	record domain.ClassificationRecord
	err    error
}

// ClassifyAll classifies items on a bounded worker pool.
//
// Per-item failures are skipped and counted. If the skipped share of attempted items exceeds the
// degraded threshold a *domain.BatchDegradedError carrying the partial records is returned.
// When ctx is cancelled no new items are issued; results of in-flight calls are kept and the
// partial Result is returned, marked Cancelled, together with the context error. Items whose
// retries were cut short by the cancellation count as not attempted, and a cancelled run is
// never reported as degraded.
func (p *Pipeline) ClassifyAll(ctx context.Context, items []domain.RawItem, task classifier.TaskSpec) (Result, error) {
	res := Result{
		RunID:    uuid.NewString(),
		Selected: items,
		Records:  []domain.ClassificationRecord{},
	}
	if len(items) == 0 {
		p.logger.Info("nothing to classify", "run", res.RunID, "task", task.Name)
		return res, nil
	}
	if p.classifier == nil {
		return res, errors.New("pipeline has no classifier")
	}

	slots := make([]outcome, len(items))
	jobs := make(chan int, p.workers)

	var g errgroup.Group
	g.Go(func() error {
		defer close(jobs)
		for i := range items {
			if ctx.Err() != nil {
				return nil
			}
			select {
			case jobs <- i:
			case <-ctx.Done():
				return nil
			}
		}
		return nil
	})

	for w := 0; w < p.workers; w++ {
		g.Go(func() error {
			for i := range jobs {
				if ctx.Err() != nil {
					continue
				}
				rec, err := p.classifier.Classify(ctx, items[i], task)
				if err != nil && interrupted(ctx, err) {
					p.logger.Debug("item interrupted", "task", task.Name, "item", items[i].ID, "error", err)
					continue
				}
				slots[i] = outcome{issued: true, record: rec, err: err}
			}
			return nil
		})
	}
	_ = g.Wait()

	for i, o := range slots {
		if !o.issued {
			continue
		}
		res.Attempted++
		if o.err != nil {
			skip := Skip{ItemID: items[i].ID, Kind: "unknown", Err: o.err}
			var ce *domain.ClassificationError
			if errors.As(o.err, &ce) {
				skip.Kind = ce.Kind.String()
			}
			res.Skipped = append(res.Skipped, skip)
			p.logger.Warn("item skipped", "run", res.RunID, "task", task.Name, "item", skip.ItemID, "kind", skip.Kind, "error", o.err)
			continue
		}
		res.Records = append(res.Records, o.record)
	}

	p.logger.Info("classification finished",
		"run", res.RunID,
		"task", task.Name,
		"selected", len(items),
		"attempted", res.Attempted,
		"classified", len(res.Records),
		"skipped", len(res.Skipped))

	if err := ctx.Err(); err != nil {
		res.Cancelled = true
		return res, fmt.Errorf("classification stopped after %d of %d items: %w", res.Attempted, len(items), err)
	}

	if res.Attempted > 0 && float64(len(res.Skipped))/float64(res.Attempted) > p.threshold {
		return res, &domain.BatchDegradedError{
			Skipped:   len(res.Skipped),
			Attempted: res.Attempted,
			Threshold: p.threshold,
			Partial:   res.Records,
		}
	}

	return res, nil
}

// interrupted reports whether err was caused by ctx ending rather than by the item itself.
func interrupted(ctx context.Context, err error) bool {
	return ctx.Err() != nil && errors.Is(err, ctx.Err())
}
