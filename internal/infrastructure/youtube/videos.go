package youtube

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"SocialListener/internal/domain"
	"SocialListener/internal/ports"
)

// UploadsFetcher pages through a channel's uploads playlist, newest first.
type UploadsFetcher struct {
	client    *Client
	channelID string

	mu       sync.Mutex
	playlist string
}

var _ ports.Fetcher = (*UploadsFetcher)(nil)

// Uploads opens the uploads fetcher of a channel id (UC...).
func (c *Client) Uploads(channelID string) (*UploadsFetcher, error) {
	channelID = strings.TrimSpace(channelID)
	if channelID == "" {
		return nil, fmt.Errorf("channel id is empty")
	}
	return &UploadsFetcher{client: c, channelID: channelID}, nil
}

// Name identifies the channel in logs.
func (f *UploadsFetcher) Name() string {
	return "youtube/channel/" + f.channelID
}

type playlistItemsResponse struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		ContentDetails struct {
			VideoID string `json:"videoId"`
		} `json:"contentDetails"`
	} `json:"items"`
}

// FetchPage returns up to 50 uploads with their statistics.
func (f *UploadsFetcher) FetchPage(ctx context.Context, cursor string) ([]domain.RawItem, string, error) {
	playlist, err := f.uploadsPlaylist(ctx)
	if err != nil {
		return nil, "", err
	}

	q := url.Values{}
	q.Set("part", "contentDetails")
	q.Set("playlistId", playlist)
	q.Set("maxResults", strconv.Itoa(maxResultsPerPage))
	if cursor != "" {
		q.Set("pageToken", cursor)
	}

	var resp playlistItemsResponse
	if err := f.client.get(ctx, "playlistItems", q, &resp); err != nil {
		return nil, "", fmt.Errorf("uploads of %s: %w", f.channelID, err)
	}

	ids := make([]string, 0, len(resp.Items))
	for _, it := range resp.Items {
		if it.ContentDetails.VideoID != "" {
			ids = append(ids, it.ContentDetails.VideoID)
		}
	}

	items, err := f.client.videos(ctx, ids)
	if err != nil {
		return nil, "", err
	}
	return items, resp.NextPageToken, nil
}

type channelListResponse struct {
	Items []struct {
		ID             string `json:"id"`
		ContentDetails struct {
			RelatedPlaylists struct {
				Uploads string `json:"uploads"`
			} `json:"relatedPlaylists"`
		} `json:"contentDetails"`
		Statistics struct {
			SubscriberCount       string `json:"subscriberCount"`
			HiddenSubscriberCount bool   `json:"hiddenSubscriberCount"`
		} `json:"statistics"`
	} `json:"items"`
}

func (f *UploadsFetcher) uploadsPlaylist(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.playlist != "" {
		return f.playlist, nil
	}

	q := url.Values{}
	q.Set("part", "contentDetails")
	q.Set("id", f.channelID)

	var resp channelListResponse
	if err := f.client.get(ctx, "channels", q, &resp); err != nil {
		return "", fmt.Errorf("channel %s: %w", f.channelID, err)
	}
	if len(resp.Items) == 0 || resp.Items[0].ContentDetails.RelatedPlaylists.Uploads == "" {
		return "", &domain.FetchError{Kind: domain.FetchNotFound, Source: "youtube", Err: fmt.Errorf("channel %s has no uploads playlist", f.channelID)}
	}

	f.playlist = resp.Items[0].ContentDetails.RelatedPlaylists.Uploads
	return f.playlist, nil
}

// SearchFetcher pages through video search results for a topic, by relevance.
type SearchFetcher struct {
	client *Client
	topic  string
	limit  int
}

var _ ports.Fetcher = (*SearchFetcher)(nil)

// Search opens a topic search; limit caps the page size (at most 50).
func (c *Client) Search(topic string, limit int) (*SearchFetcher, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("search topic is empty")
	}
	if limit <= 0 || limit > maxResultsPerPage {
		limit = maxResultsPerPage
	}
	return &SearchFetcher{client: c, topic: topic, limit: limit}, nil
}

// Name identifies the search in logs.
func (f *SearchFetcher) Name() string {
	return "youtube/search/" + f.topic
}

type searchResponse struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
	} `json:"items"`
}

// FetchPage returns one page of search hits with their statistics.
func (f *SearchFetcher) FetchPage(ctx context.Context, cursor string) ([]domain.RawItem, string, error) {
	q := url.Values{}
	q.Set("part", "snippet")
	q.Set("q", f.topic)
	q.Set("type", "video")
	q.Set("order", "relevance")
	q.Set("maxResults", strconv.Itoa(f.limit))
	if cursor != "" {
		q.Set("pageToken", cursor)
	}

	var resp searchResponse
	if err := f.client.get(ctx, "search", q, &resp); err != nil {
		return nil, "", fmt.Errorf("search %q: %w", f.topic, err)
	}

	ids := make([]string, 0, len(resp.Items))
	for _, it := range resp.Items {
		if it.ID.VideoID != "" {
			ids = append(ids, it.ID.VideoID)
		}
	}

	items, err := f.client.videos(ctx, ids)
	if err != nil {
		return nil, "", err
	}
	return items, resp.NextPageToken, nil
}
