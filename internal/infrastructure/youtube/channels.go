package youtube

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"SocialListener/internal/domain"
	"SocialListener/internal/ports"
)

var channelIDExpr = regexp.MustCompile(`^UC[0-9A-Za-z_-]{22}$`)

// Directory resolves channel URLs and subscriber counts.
type Directory struct {
	client *Client
}

var _ ports.ChannelDirectory = (*Directory)(nil)

// Directory exposes channel lookups backed by this client.
func (c *Client) Directory() *Directory {
	return &Directory{client: c}
}

// ResolveChannelID accepts /channel/UC..., /@handle, /user/name and /c/name URLs (or a bare id or @handle).
// Ids are read from the URL directly; other forms are resolved from the channel page markup,
// falling back to the Data API for handles and legacy user names.
func (d *Directory) ResolveChannelID(ctx context.Context, channelURL string) (string, error) {
	raw := strings.TrimSpace(channelURL)
	if channelIDExpr.MatchString(raw) {
		return raw, nil
	}
	if strings.HasPrefix(raw, "@") {
		raw = "/" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse channel url: %w", err)
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) == 0 || segments[0] == "" {
		return "", fmt.Errorf("channel url %q has no path", channelURL)
	}

	switch {
	case segments[0] == "channel" && len(segments) > 1 && channelIDExpr.MatchString(segments[1]):
		return segments[1], nil
	case strings.HasPrefix(segments[0], "@"):
	case (segments[0] == "user" || segments[0] == "c") && len(segments) > 1:
	default:
		return "", fmt.Errorf("unsupported channel url %q", channelURL)
	}

	path := "/" + strings.Join(segments[:min(len(segments), 2)], "/")
	if strings.HasPrefix(segments[0], "@") {
		path = "/" + segments[0]
	}

	id, scrapeErr := d.scrapeChannelID(ctx, path)
	if scrapeErr == nil {
		return id, nil
	}

	id, apiErr := d.lookupChannelID(ctx, segments)
	if apiErr == nil {
		return id, nil
	}
	return "", fmt.Errorf("resolve %s: %w (page: %v)", channelURL, apiErr, scrapeErr)
}

func (d *Directory) scrapeChannelID(ctx context.Context, path string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.client.webURL+path, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; SocialListener/1.0)")
	req.Header.Set("Accept-Language", "en")

	resp, err := d.client.web.Do(req)
	if err != nil {
		return "", fmt.Errorf("request channel page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("channel page returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse channel page: %w", err)
	}

	return channelIDFromDocument(doc)
}

func channelIDFromDocument(doc *goquery.Document) (string, error) {
	if id, ok := doc.Find(`meta[itemprop="identifier"], meta[itemprop="channelId"]`).First().Attr("content"); ok && channelIDExpr.MatchString(id) {
		return id, nil
	}

	candidates := []string{
		attr(doc, `link[rel="canonical"]`, "href"),
		attr(doc, `meta[property="og:url"]`, "content"),
	}
	for _, href := range candidates {
		if i := strings.Index(href, "/channel/"); i >= 0 {
			id := strings.Trim(href[i+len("/channel/"):], "/")
			if channelIDExpr.MatchString(id) {
				return id, nil
			}
		}
	}
	return "", fmt.Errorf("channel id not found in page markup")
}

func attr(doc *goquery.Document, selector, name string) string {
	v, _ := doc.Find(selector).First().Attr(name)
	return strings.TrimSpace(v)
}

func (d *Directory) lookupChannelID(ctx context.Context, segments []string) (string, error) {
	q := url.Values{}
	q.Set("part", "id")
	switch {
	case strings.HasPrefix(segments[0], "@"):
		q.Set("forHandle", segments[0])
	case segments[0] == "user":
		q.Set("forUsername", segments[1])
	default:
		return "", fmt.Errorf("custom urls cannot be looked up by api")
	}

	var resp channelListResponse
	if err := d.client.get(ctx, "channels", q, &resp); err != nil {
		return "", err
	}
	if len(resp.Items) == 0 {
		return "", &domain.FetchError{Kind: domain.FetchNotFound, Source: "youtube", Err: fmt.Errorf("no channel for %s", strings.Join(segments, "/"))}
	}
	return resp.Items[0].ID, nil
}

// SubscriberCounts looks up subscribers per channel in chunks of 50.
// Channels hiding their count or unknown to the API are absent from the result.
func (d *Directory) SubscriberCounts(ctx context.Context, channelIDs []string) (map[string]int64, error) {
	unique := make([]string, 0, len(channelIDs))
	seen := make(map[string]struct{}, len(channelIDs))
	for _, id := range channelIDs {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	out := make(map[string]int64, len(unique))
	for start := 0; start < len(unique); start += maxIDsPerLookup {
		end := min(start+maxIDsPerLookup, len(unique))

		q := url.Values{}
		q.Set("part", "statistics")
		q.Set("id", strings.Join(unique[start:end], ","))

		var resp channelListResponse
		if err := d.client.get(ctx, "channels", q, &resp); err != nil {
			return nil, fmt.Errorf("channel statistics: %w", err)
		}
		for _, ch := range resp.Items {
			if ch.Statistics.HiddenSubscriberCount {
				continue
			}
			out[ch.ID] = parseCount(ch.Statistics.SubscriberCount)
		}
	}
	return out, nil
}
