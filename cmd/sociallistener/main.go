package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"SocialListener/internal/app"
	"SocialListener/internal/config"
	"SocialListener/internal/domain"
	"SocialListener/internal/logging"
	"SocialListener/internal/usecase"
)

const usage = `usage:
  sociallistener reddit   [flags] <subreddit>[,<subreddit>...]
  sociallistener youtube  [flags] <channel-url>
  sociallistener discover [flags] <topic>`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	command, args := os.Args[1], os.Args[2:]

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	run, err := parse(command, args, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n%s\n", err, usage)
		os.Exit(2)
	}

	if err := cfg.Validate(command); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application := app.New(cfg, logger, os.Stdout)
	if err := run(ctx, application); err != nil {
		logger.Error("analysis stopped", "command", command, "error", err)
		stop()
		os.Exit(1)
	}
}

type runFunc func(ctx context.Context, a *app.Application) error

func parse(command string, args []string, stderr io.Writer) (runFunc, error) {
	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	fs.SetOutput(stderr)

	switch command {
	case "reddit":
		limit := fs.Int("limit", 50, "posts to analyze per subreddit")
		order := fs.String("sort", string(domain.OrderPopular), "selection order: popular, newest or oldest")
		timeFilter := fs.String("time", "month", "time window for popular posts: hour, day, week, month, year or all")
		deepDive := fs.Bool("deep-dive", false, "write a pain-point deep dive over the Problem posts")
		domainContext := fs.String("context", "", "market context for the deep dive")
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		criteria, err := buildCriteria(*limit, *order, false)
		if err != nil {
			return nil, err
		}
		if fs.NArg() == 0 {
			return nil, errors.New("reddit: at least one subreddit is required")
		}
		req := usecase.RedditRequest{
			Subreddits: fs.Args(),
			Criteria:   criteria,
			TimeFilter: *timeFilter,
			DeepDive:   *deepDive,
			Context:    *domainContext,
		}
		return func(ctx context.Context, a *app.Application) error { return a.RunReddit(ctx, req) }, nil

	case "youtube":
		limit := fs.Int("limit", 10, "videos to analyze")
		order := fs.String("sort", string(domain.OrderPopular), "selection order: popular, newest or oldest")
		trends := fs.Bool("trends", false, "compare the formats of the oldest and newest videos")
		comments := fs.Int("comments", 15, "comments to classify per selected video")
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		criteria, err := buildCriteria(*limit, *order, *trends)
		if err != nil {
			return nil, err
		}
		if fs.NArg() != 1 {
			return nil, errors.New("youtube: exactly one channel url is required")
		}
		req := usecase.YouTubeRequest{
			ChannelURL:   fs.Arg(0),
			Criteria:     criteria,
			CommentLimit: *comments,
		}
		return func(ctx context.Context, a *app.Application) error { return a.RunYouTube(ctx, req) }, nil

	case "discover":
		limit := fs.Int("limit", 0, "search results to score (configured default when 0)")
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		topic := strings.Join(fs.Args(), " ")
		if strings.TrimSpace(topic) == "" {
			return nil, errors.New("discover: a topic is required")
		}
		n := *limit
		return func(ctx context.Context, a *app.Application) error { return a.RunDiscover(ctx, topic, n) }, nil

	default:
		return nil, fmt.Errorf("unknown command %q", command)
	}
}

func buildCriteria(limit int, order string, trend bool) (domain.SelectionCriteria, error) {
	if limit <= 0 {
		return domain.SelectionCriteria{}, fmt.Errorf("-limit must be positive, got %d", limit)
	}
	o, ok := domain.ParseOrder(order)
	if !ok {
		return domain.SelectionCriteria{}, fmt.Errorf("-sort must be popular, newest or oldest, got %q", order)
	}
	return domain.SelectionCriteria{Count: limit, Order: o, Trend: trend}, nil
}
