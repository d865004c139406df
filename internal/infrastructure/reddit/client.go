package reddit

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"SocialListener/internal/config"
	"SocialListener/internal/domain"
	"SocialListener/internal/infrastructure/webapi"
	"SocialListener/internal/ports"
)

const (
	// Listing endpoints; top honours the time filter, new is ordered by creation.
	ListingTop = "top"
	ListingNew = "new"

	maxPageSize = 100
)

var validTimeFilters = map[string]struct{}{
	"hour": {}, "day": {}, "week": {}, "month": {}, "year": {}, "all": {},
}

// Client reads public subreddit listings.
type Client struct {
	baseURL  string
	pageSize int
	api      *webapi.Client
}

// NewClient builds a client from configuration.
func NewClient(cfg config.RedditConfig) *Client {
	pageSize := cfg.PageSize
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		pageSize: pageSize,
		api:      webapi.NewClient("reddit", map[string]string{"User-Agent": cfg.UserAgent}),
	}
}

// Listing opens a fetcher over one subreddit listing.
func (c *Client) Listing(subreddit, listing, timeFilter string) (*ListingFetcher, error) {
	subreddit = strings.TrimPrefix(strings.TrimSpace(subreddit), "r/")
	if subreddit == "" {
		return nil, fmt.Errorf("subreddit name is empty")
	}
	if listing != ListingTop && listing != ListingNew {
		return nil, fmt.Errorf("unknown listing %q", listing)
	}
	if listing == ListingTop {
		if _, ok := validTimeFilters[timeFilter]; !ok {
			return nil, fmt.Errorf("unknown time filter %q", timeFilter)
		}
	}
	return &ListingFetcher{client: c, subreddit: subreddit, listing: listing, timeFilter: timeFilter}, nil
}

// ListingFetcher pages through a subreddit listing with the `after` cursor.
type ListingFetcher struct {
	client     *Client
	subreddit  string
	listing    string
	timeFilter string
}

var _ ports.Fetcher = (*ListingFetcher)(nil)

// Name identifies the listing in logs.
func (f *ListingFetcher) Name() string {
	return "reddit/r/" + f.subreddit + "/" + f.listing
}

type listingResponse struct {
	Data struct {
		After    string `json:"after"`
		Children []struct {
			Kind string `json:"kind"`
			Data post   `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type post struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	SelfText  string  `json:"selftext"`
	Permalink string  `json:"permalink"`
	Score     int64   `json:"score"`
	Subreddit string  `json:"subreddit"`
	Created   float64 `json:"created_utc"`
	Stickied  bool    `json:"stickied"`
}

// FetchPage returns one listing page.
func (f *ListingFetcher) FetchPage(ctx context.Context, cursor string) ([]domain.RawItem, string, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(f.client.pageSize))
	q.Set("raw_json", "1")
	if f.listing == ListingTop {
		q.Set("t", f.timeFilter)
	}
	if cursor != "" {
		q.Set("after", cursor)
	}
	pageURL := fmt.Sprintf("%s/r/%s/%s.json?%s", f.client.baseURL, url.PathEscape(f.subreddit), f.listing, q.Encode())

	var resp listingResponse
	if err := f.client.api.Get(ctx, pageURL, &resp); err != nil {
		return nil, "", err
	}

	items := make([]domain.RawItem, 0, len(resp.Data.Children))
	for _, child := range resp.Data.Children {
		if child.Kind != "t3" || child.Data.ID == "" || child.Data.Stickied {
			continue
		}
		items = append(items, f.toItem(child.Data))
	}

	return items, resp.Data.After, nil
}

func (f *ListingFetcher) toItem(p post) domain.RawItem {
	score := p.Score
	if score < 0 {
		score = 0
	}
	sec, frac := int64(p.Created), p.Created-float64(int64(p.Created))
	return domain.RawItem{
		ID:         p.ID,
		Title:      p.Title,
		Text:       p.SelfText,
		URL:        f.client.baseURL + p.Permalink,
		Source:     "reddit",
		ParentID:   f.subreddit,
		Timestamp:  time.Unix(sec, int64(frac*1e9)).UTC(),
		Engagement: score,
	}
}
