// Package youtube reads channel uploads, search results and comment threads from the YouTube Data API v3.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"SocialListener/internal/config"
	"SocialListener/internal/domain"
	"SocialListener/internal/infrastructure/webapi"
)

const (
	maxResultsPerPage = 50
	maxIDsPerLookup   = 50
	watchURL          = "https://www.youtube.com/watch?v="
)

// Client is shared by all YouTube fetchers and the channel directory.
type Client struct {
	apiKey  string
	baseURL string
	webURL  string
	api     *webapi.Client
	web     *http.Client
}

// NewClient builds a client from configuration.
func NewClient(cfg config.YouTubeConfig) *Client {
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		webURL:  strings.TrimRight(cfg.WebURL, "/"),
		api:     webapi.NewClient("youtube", nil),
		web:     &http.Client{Timeout: 20 * time.Second},
	}
}

func (c *Client) get(ctx context.Context, resource string, q url.Values, v any) error {
	q.Set("key", c.apiKey)
	err := c.api.Get(ctx, c.baseURL+"/"+resource+"?"+q.Encode(), v)
	return classify(err)
}

// classify turns quota 403s into rate limits; other 403s (disabled comments, private videos) stay not found.
func classify(err error) error {
	var se *webapi.StatusError
	if !errors.As(err, &se) || se.Status != http.StatusForbidden {
		return err
	}
	if strings.Contains(se.Body, "quotaExceeded") || strings.Contains(se.Body, "rateLimitExceeded") {
		return &domain.FetchError{Kind: domain.FetchRateLimited, Source: se.Source, Err: se.Err}
	}
	return err
}

type videoListResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			ChannelID   string `json:"channelId"`
			PublishedAt string `json:"publishedAt"`
		} `json:"snippet"`
		Statistics struct {
			ViewCount    string `json:"viewCount"`
			LikeCount    string `json:"likeCount"`
			CommentCount string `json:"commentCount"`
		} `json:"statistics"`
	} `json:"items"`
}

// videos looks up snippet and statistics for ids, in chunks, preserving the order of ids.
// Ids unknown to the API (deleted or private videos) are dropped.
func (c *Client) videos(ctx context.Context, ids []string) ([]domain.RawItem, error) {
	byID := make(map[string]domain.RawItem, len(ids))
	for start := 0; start < len(ids); start += maxIDsPerLookup {
		end := min(start+maxIDsPerLookup, len(ids))

		q := url.Values{}
		q.Set("part", "snippet,statistics")
		q.Set("id", strings.Join(ids[start:end], ","))

		var resp videoListResponse
		if err := c.get(ctx, "videos", q, &resp); err != nil {
			return nil, fmt.Errorf("video statistics: %w", err)
		}
		for _, v := range resp.Items {
			byID[v.ID] = domain.RawItem{
				ID:         v.ID,
				Title:      v.Snippet.Title,
				Text:       v.Snippet.Description,
				URL:        watchURL + v.ID,
				Source:     "youtube",
				ParentID:   v.Snippet.ChannelID,
				Timestamp:  parseTime(v.Snippet.PublishedAt),
				Engagement: parseCount(v.Statistics.ViewCount),
			}
		}
	}

	out := make([]domain.RawItem, 0, len(byID))
	for _, id := range ids {
		if item, ok := byID[id]; ok {
			out = append(out, item)
		}
	}
	return out, nil
}

func parseCount(v string) int64 {
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func parseTime(v string) time.Time {
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
