package youtube

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"SocialListener/internal/domain"
	"SocialListener/internal/ports"
)

const maxCommentsPerPage = 100

// CommentFetcher pages through top-level comment threads of a video, most relevant first.
// Videos with comments disabled fail with a not-found FetchError.
type CommentFetcher struct {
	client   *Client
	videoID  string
	pageSize int
}

var _ ports.Fetcher = (*CommentFetcher)(nil)

// Comments opens the comment stream of a video; pageSize is clamped to 1..100.
func (c *Client) Comments(videoID string, pageSize int) (*CommentFetcher, error) {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return nil, fmt.Errorf("video id is empty")
	}
	if pageSize <= 0 || pageSize > maxCommentsPerPage {
		pageSize = maxCommentsPerPage
	}
	return &CommentFetcher{client: c, videoID: videoID, pageSize: pageSize}, nil
}

// Name identifies the video in logs.
func (f *CommentFetcher) Name() string {
	return "youtube/comments/" + f.videoID
}

type commentThreadsResponse struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		ID      string `json:"id"`
		Snippet struct {
			TopLevelComment struct {
				Snippet struct {
					TextDisplay string `json:"textDisplay"`
					LikeCount   int64  `json:"likeCount"`
					PublishedAt string `json:"publishedAt"`
				} `json:"snippet"`
			} `json:"topLevelComment"`
		} `json:"snippet"`
	} `json:"items"`
}

// FetchPage returns one page of comments.
func (f *CommentFetcher) FetchPage(ctx context.Context, cursor string) ([]domain.RawItem, string, error) {
	q := url.Values{}
	q.Set("part", "snippet")
	q.Set("videoId", f.videoID)
	q.Set("maxResults", strconv.Itoa(f.pageSize))
	q.Set("order", "relevance")
	q.Set("textFormat", "plainText")
	if cursor != "" {
		q.Set("pageToken", cursor)
	}

	var resp commentThreadsResponse
	if err := f.client.get(ctx, "commentThreads", q, &resp); err != nil {
		return nil, "", fmt.Errorf("comments of %s: %w", f.videoID, err)
	}

	items := make([]domain.RawItem, 0, len(resp.Items))
	for _, it := range resp.Items {
		s := it.Snippet.TopLevelComment.Snippet
		text := plainText(s.TextDisplay)
		if text == "" {
			continue
		}
		likes := s.LikeCount
		if likes < 0 {
			likes = 0
		}
		items = append(items, domain.RawItem{
			ID:         it.ID,
			Text:       text,
			URL:        watchURL + f.videoID + "&lc=" + it.ID,
			Source:     "youtube",
			ParentID:   f.videoID,
			Timestamp:  parseTime(s.PublishedAt),
			Engagement: likes,
		})
	}

	return items, resp.NextPageToken, nil
}

// plainText strips markup that survives textFormat=plainText (line breaks, links, entities).
func plainText(raw string) string {
	if !strings.ContainsAny(raw, "<&") {
		return strings.TrimSpace(raw)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return strings.TrimSpace(raw)
	}
	doc.Find("br").ReplaceWithHtml("\n")
	return strings.TrimSpace(doc.Text())
}
