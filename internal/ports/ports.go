package ports

import (
	"context"

	"SocialListener/internal/domain"
)

// Fetcher pages through one upstream source (a subreddit, a channel's uploads, a video's comments).
// An empty next cursor marks the last page.
type Fetcher interface {
	Name() string
	FetchPage(ctx context.Context, cursor string) (items []domain.RawItem, next string, err error)
}

// Model sends a prompt to a language model and returns its raw text answer.
// Failures are reported as *domain.ModelCallError.
type Model interface {
	Complete(ctx context.Context, prompt, responseSchema string) (string, error)
}

// ChannelDirectory resolves channels and looks up their audience size.
type ChannelDirectory interface {
	ResolveChannelID(ctx context.Context, channelURL string) (string, error)
	SubscriberCounts(ctx context.Context, channelIDs []string) (map[string]int64, error)
}

// Reporter renders finished analyses.
type Reporter interface {
	RenderReddit(report domain.RedditAnalysis) error
	RenderYouTube(report domain.YouTubeAnalysis) error
	RenderNiche(report domain.NicheReport) error
}
