// Package source opens upstream fetchers and pages through them under a retry and rate policy.
package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	"SocialListener/internal/domain"
	"SocialListener/internal/ports"
	"SocialListener/internal/retry"
)

// Pager walks fetcher pages. Page calls are paced by the limiter and retried per policy:
// transient errors back off exponentially, rate limits back off longer, not-found is final.
type Pager struct {
	limiter *rate.Limiter
	policy  retry.Policy
	logger  *slog.Logger
}

// NewPager wires a shared fetch limiter and retry policy.
func NewPager(limiter *rate.Limiter, policy retry.Policy, log *slog.Logger) *Pager {
	return &Pager{limiter: limiter, policy: policy, logger: log}
}

// FetchAll exhausts pagination.
func (p *Pager) FetchAll(ctx context.Context, f ports.Fetcher) ([]domain.RawItem, error) {
	return p.Collect(ctx, f, 0)
}

// Collect fetches pages until at least want items are buffered or the source is exhausted.
// want <= 0 means every page. Duplicate ids across pages are dropped.
func (p *Pager) Collect(ctx context.Context, f ports.Fetcher, want int) ([]domain.RawItem, error) {
	if f == nil {
		return nil, errors.New("fetcher is not configured")
	}

	var (
		results = make([]domain.RawItem, 0)
		seen    = map[string]struct{}{}
		cursor  string
		pages   int
	)

	for {
		items, next, err := p.page(ctx, f, cursor)
		if err != nil {
			return results, err
		}
		pages++

		for _, item := range items {
			if _, ok := seen[item.ID]; ok {
				continue
			}
			seen[item.ID] = struct{}{}
			results = append(results, item)
		}

		if next == "" || next == cursor {
			break
		}
		if want > 0 && len(results) >= want {
			break
		}
		cursor = next
	}

	p.debug("source collected", "source", f.Name(), "pages", pages, "items", len(results))
	return results, nil
}

func (p *Pager) page(ctx context.Context, f ports.Fetcher, cursor string) ([]domain.RawItem, string, error) {
	var (
		items []domain.RawItem
		next  string
	)

	err := retry.Do(ctx, p.policy, classifyFetchError, func(callCtx context.Context) error {
		if p.limiter != nil {
			if err := p.limiter.Wait(callCtx); err != nil {
				return fmt.Errorf("fetch limiter: %w", err)
			}
		}
		var err error
		items, next, err = f.FetchPage(callCtx, cursor)
		if err != nil {
			p.debug("page failed", "source", f.Name(), "cursor", cursor, "error", err)
		}
		return err
	})
	if err != nil {
		return nil, "", err
	}
	return items, next, nil
}

func classifyFetchError(err error) retry.Decision {
	var fe *domain.FetchError
	if !errors.As(err, &fe) {
		return retry.Retry
	}
	switch fe.Kind {
	case domain.FetchNotFound:
		return retry.Stop
	case domain.FetchRateLimited:
		return retry.RetryAfterRateLimit
	default:
		return retry.Retry
	}
}

func (p *Pager) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}
