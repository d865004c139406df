package usecase

import (
	"log/slog"
	"time"

	"SocialListener/internal/aggregate"
	"SocialListener/internal/ports"
	"SocialListener/internal/source"
)

const defaultFetchConcurrency = 5

// AnalyzerDeps wires the pipeline and the narrative model into the source-specific workflows.
type AnalyzerDeps struct {
	Pipeline         *Pipeline
	Pager            *source.Pager
	Sources          *source.Registry
	Generator        aggregate.Generator
	Directory        ports.ChannelDirectory
	FetchConcurrency int
	Logger           *slog.Logger
	Now              func() time.Time
}

// Analyzer runs the Reddit, YouTube channel and discover workflows.
type Analyzer struct {
	pipeline  *Pipeline
	pager     *source.Pager
	sources   *source.Registry
	generator aggregate.Generator
	directory ports.ChannelDirectory
	fetchers  int
	logger    *slog.Logger
	now       func() time.Time
}

// NewAnalyzer constructs the analyzer use case.
func NewAnalyzer(deps AnalyzerDeps) *Analyzer {
	fetchers := deps.FetchConcurrency
	if fetchers <= 0 {
		fetchers = defaultFetchConcurrency
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	return &Analyzer{
		pipeline:  deps.Pipeline,
		pager:     deps.Pager,
		sources:   deps.Sources,
		generator: deps.Generator,
		directory: deps.Directory,
		fetchers:  fetchers,
		logger:    logger,
		now:       now,
	}
}
