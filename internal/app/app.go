package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"golang.org/x/time/rate"

	"SocialListener/internal/classifier"
	"SocialListener/internal/config"
	"SocialListener/internal/domain"
	"SocialListener/internal/infrastructure/llm"
	"SocialListener/internal/infrastructure/reddit"
	"SocialListener/internal/infrastructure/youtube"
	"SocialListener/internal/logging"
	"SocialListener/internal/ports"
	"SocialListener/internal/report"
	"SocialListener/internal/source"
	"SocialListener/internal/usecase"
)

// Application wires configs to use cases and the console reporter.
type Application struct {
	cfg      config.Config
	analyzer *usecase.Analyzer
	reporter ports.Reporter
	logger   *slog.Logger
}

// New builds the application. Reports go to out (stdout when nil).
func New(cfg config.Config, baseLogger *slog.Logger, out io.Writer) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}
	if out == nil {
		out = os.Stdout
	}

	policy := cfg.Pipeline.RetryPolicy()
	fetchLimiter := newLimiter(cfg.Pipeline.FetchRatePerSecond, cfg.Pipeline.FetchConcurrency)
	modelLimiter := newLimiter(cfg.Pipeline.ModelRatePerSecond, cfg.Pipeline.ClassifyConcurrency)

	redditClient := reddit.NewClient(cfg.Reddit)
	youtubeClient := youtube.NewClient(cfg.YouTube)

	registry := source.NewRegistry()
	registerSources(registry, redditClient, youtubeClient)

	pager := source.NewPager(fetchLimiter, policy, baseLogger.With("component", "source"))

	model := llm.NewGeminiClient(cfg.Gemini, baseLogger.With("component", "llm.gemini"))
	adapter := classifier.NewAdapter(classifier.AdapterDeps{
		Model:    model,
		Limiter:  modelLimiter,
		Policy:   policy,
		Language: cfg.Gemini.Language,
		Logger:   baseLogger.With("component", "classifier"),
	})

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Pager:      pager,
		Classifier: adapter,
		Config: usecase.PipelineConfig{
			ClassifyConcurrency: cfg.Pipeline.ClassifyConcurrency,
			DegradedThreshold:   cfg.Pipeline.DegradedThreshold,
		},
		Logger: baseLogger.With("component", "pipeline"),
	})

	analyzer := usecase.NewAnalyzer(usecase.AnalyzerDeps{
		Pipeline:         pipeline,
		Pager:            pager,
		Sources:          registry,
		Generator:        adapter,
		Directory:        youtubeClient.Directory(),
		FetchConcurrency: cfg.Pipeline.FetchConcurrency,
		Logger:           baseLogger.With("component", "analyzer"),
	})

	return &Application{
		cfg:      cfg,
		analyzer: analyzer,
		reporter: report.NewConsole(out),
		logger:   baseLogger.With("component", "app"),
	}
}

func newLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

func registerSources(registry *source.Registry, rd *reddit.Client, yt *youtube.Client) {
	registry.Register(source.KindReddit, func(req source.Request) (ports.Fetcher, error) {
		listing := reddit.ListingNew
		if req.Options[source.OptionOrder] == string(domain.OrderPopular) {
			listing = reddit.ListingTop
		}
		return rd.Listing(req.Target, listing, req.Options[source.OptionTimeFilter])
	})
	registry.Register(source.KindYouTubeUploads, func(req source.Request) (ports.Fetcher, error) {
		return yt.Uploads(req.Target)
	})
	registry.Register(source.KindYouTubeComments, func(req source.Request) (ports.Fetcher, error) {
		return yt.Comments(req.Target, pageSize(req))
	})
	registry.Register(source.KindYouTubeSearch, func(req source.Request) (ports.Fetcher, error) {
		return yt.Search(req.Target, pageSize(req))
	})
}

func pageSize(req source.Request) int {
	n, err := strconv.Atoi(req.Options[source.OptionPageSize])
	if err != nil {
		return 0
	}
	return n
}

// RunReddit analyzes subreddits and renders the report. Partial results of a cancelled or
// degraded run are rendered before the error is returned.
func (a *Application) RunReddit(ctx context.Context, req usecase.RedditRequest) error {
	analysis, err := a.analyzer.AnalyzeReddit(ctx, req)
	if err != nil {
		if !partial(err) {
			return err
		}
		a.logger.Warn("rendering partial results", "error", err)
	}
	if renderErr := a.reporter.RenderReddit(analysis); renderErr != nil {
		return fmt.Errorf("render reddit report: %w", renderErr)
	}
	return err
}

// RunYouTube analyzes one channel and renders the report.
func (a *Application) RunYouTube(ctx context.Context, req usecase.YouTubeRequest) error {
	analysis, err := a.analyzer.AnalyzeYouTube(ctx, req)
	if err != nil {
		if !partial(err) {
			return err
		}
		a.logger.Warn("rendering partial results", "error", err)
	}
	if renderErr := a.reporter.RenderYouTube(analysis); renderErr != nil {
		return fmt.Errorf("render youtube report: %w", renderErr)
	}
	return err
}

// RunDiscover scores a topic and renders the niche report.
func (a *Application) RunDiscover(ctx context.Context, topic string, limit int) error {
	if limit <= 0 {
		limit = a.cfg.YouTube.SearchLimit
	}
	niche, err := a.analyzer.Discover(ctx, topic, limit)
	if err != nil {
		return err
	}
	return a.reporter.RenderNiche(niche)
}

// partial reports whether err still leaves a renderable analysis behind.
func partial(err error) bool {
	var degraded *domain.BatchDegradedError
	return errors.As(err, &degraded) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
