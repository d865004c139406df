package source

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"SocialListener/internal/domain"
	"SocialListener/internal/ports"
	"SocialListener/internal/retry"
)

type pagedFetcher struct {
	pages    [][]domain.RawItem
	failures map[string][]error
	calls    int
}

func (f *pagedFetcher) Name() string { return "fake" }

func (f *pagedFetcher) FetchPage(ctx context.Context, cursor string) ([]domain.RawItem, string, error) {
	f.calls++
	if errs := f.failures[cursor]; len(errs) > 0 {
		f.failures[cursor] = errs[1:]
		return nil, "", errs[0]
	}

	idx := 0
	if cursor != "" {
		fmt.Sscanf(cursor, "page-%d", &idx)
	}
	next := ""
	if idx+1 < len(f.pages) {
		next = fmt.Sprintf("page-%d", idx+1)
	}
	return f.pages[idx], next, nil
}

func makePages(pages, perPage int) [][]domain.RawItem {
	out := make([][]domain.RawItem, pages)
	n := 0
	for p := range out {
		for i := 0; i < perPage; i++ {
			out[p] = append(out[p], domain.RawItem{ID: fmt.Sprintf("id-%03d", n)})
			n++
		}
	}
	return out
}

var fastPolicy = retry.Policy{
	MaxAttempts:      3,
	InitialBackoff:   time.Millisecond,
	MaxBackoff:       2 * time.Millisecond,
	RateLimitBackoff: 3 * time.Millisecond,
	AttemptTimeout:   time.Second,
}

func TestFetchAllExhaustsPages(t *testing.T) {
	t.Parallel()

	f := &pagedFetcher{pages: makePages(4, 5)}
	items, err := NewPager(nil, fastPolicy, nil).FetchAll(context.Background(), f)
	if err != nil {
		t.Fatalf("FetchAll error: %v", err)
	}
	if len(items) != 20 || f.calls != 4 {
		t.Fatalf("expected 20 items in 4 calls, got %d in %d", len(items), f.calls)
	}
}

func TestCollectStopsOnceEnoughBuffered(t *testing.T) {
	t.Parallel()

	f := &pagedFetcher{pages: makePages(10, 5)}
	items, err := NewPager(nil, fastPolicy, nil).Collect(context.Background(), f, 7)
	if err != nil {
		t.Fatalf("Collect error: %v", err)
	}
	if f.calls != 2 || len(items) != 10 {
		t.Fatalf("expected 2 pages / 10 items, got %d / %d", f.calls, len(items))
	}
}

func TestCollectDropsDuplicates(t *testing.T) {
	t.Parallel()

	pages := makePages(2, 3)
	pages[1][0] = pages[0][0]
	f := &pagedFetcher{pages: pages}

	items, err := NewPager(nil, fastPolicy, nil).FetchAll(context.Background(), f)
	if err != nil {
		t.Fatalf("FetchAll error: %v", err)
	}
	if len(items) != 5 {
		t.Fatalf("expected 5 unique items, got %d", len(items))
	}
}

func TestCollectRetriesTransientAndRateLimited(t *testing.T) {
	t.Parallel()

	f := &pagedFetcher{
		pages: makePages(2, 2),
		failures: map[string][]error{
			"page-1": {
				&domain.FetchError{Kind: domain.FetchTransient, Source: "fake", Err: errors.New("502")},
				&domain.FetchError{Kind: domain.FetchRateLimited, Source: "fake", Err: errors.New("429")},
			},
		},
	}

	items, err := NewPager(nil, fastPolicy, nil).FetchAll(context.Background(), f)
	if err != nil {
		t.Fatalf("FetchAll error: %v", err)
	}
	if len(items) != 4 || f.calls != 4 {
		t.Fatalf("expected 4 items after 4 calls, got %d items / %d calls", len(items), f.calls)
	}
}

func TestCollectNotFoundIsNotRetried(t *testing.T) {
	t.Parallel()

	f := &pagedFetcher{
		pages: makePages(1, 1),
		failures: map[string][]error{
			"": {&domain.FetchError{Kind: domain.FetchNotFound, Source: "fake", Err: errors.New("404")}},
		},
	}

	_, err := NewPager(nil, fastPolicy, nil).FetchAll(context.Background(), f)
	if !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if f.calls != 1 {
		t.Fatalf("not found must not be retried, calls=%d", f.calls)
	}
}

func TestRegistryOpen(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register("fake", func(req Request) (ports.Fetcher, error) {
		if req.Target == "" {
			return nil, errors.New("empty target")
		}
		return &pagedFetcher{}, nil
	})

	if _, err := reg.Open("fake", Request{Target: "x"}); err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if _, err := reg.Open("fake", Request{}); err == nil {
		t.Fatalf("expected factory error")
	}
	if _, err := reg.Open("missing", Request{Target: "x"}); err == nil || !strings.Contains(err.Error(), "known: fake") {
		t.Fatalf("expected unknown kind error listing registered kinds, got %v", err)
	}
	if kinds := reg.Kinds(); len(kinds) != 1 || kinds[0] != "fake" {
		t.Fatalf("unexpected kinds: %v", kinds)
	}
}
