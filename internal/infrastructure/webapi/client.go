// Package webapi issues JSON GET requests and maps HTTP failures onto domain.FetchError kinds.
package webapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"SocialListener/internal/domain"
)

// Client talks to a JSON API on behalf of one source label.
type Client struct {
	source  string
	headers map[string]string
	http    *http.Client
}

// NewClient creates a reusable HTTP client. Redirects are not followed: upstreams here
// redirect unknown resources to search pages, which are reported as not found.
func NewClient(source string, headers map[string]string) *Client {
	return &Client{
		source:  source,
		headers: headers,
		http: &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Get fetches rawURL and decodes the JSON body into v.
func (c *Client) Get(ctx context.Context, rawURL string, v any) error {
	resp, err := c.Do(ctx, rawURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return c.fail(domain.FetchTransient, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// Do performs the GET and returns the response only for status 200; the caller closes the body.
func (c *Client) Do(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.fail(domain.FetchTransient, fmt.Errorf("do request: %w", stripURL(err)))
	}

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		_ = resp.Body.Close()
		return nil, &StatusError{
			FetchError: domain.FetchError{
				Kind:   StatusKind(resp.StatusCode),
				Source: c.source,
				Err:    fmt.Errorf("unexpected status %s", resp.Status),
			},
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(payload)),
		}
	}

	return resp, nil
}

// StatusError is a FetchError caused by a non-200 response; Body holds the start of the payload.
type StatusError struct {
	domain.FetchError
	Status int
	Body   string
}

func (e *StatusError) Unwrap() error { return &e.FetchError }

// StatusKind maps an HTTP status onto a fetch error kind.
func StatusKind(status int) domain.FetchErrorKind {
	switch {
	case status == http.StatusTooManyRequests:
		return domain.FetchRateLimited
	case status == http.StatusNotFound, status == http.StatusForbidden, status == http.StatusGone,
		status >= 300 && status < 400:
		return domain.FetchNotFound
	default:
		return domain.FetchTransient
	}
}

func (c *Client) fail(kind domain.FetchErrorKind, err error) error {
	return &domain.FetchError{Kind: kind, Source: c.source, Err: err}
}

// stripURL drops the request URL, which may carry an API key, from transport errors.
func stripURL(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return fmt.Errorf("%s: %w", ue.Op, ue.Err)
	}
	return err
}
