// Package classifier turns single items into classification records with a language model.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/time/rate"

	"SocialListener/internal/domain"
	"SocialListener/internal/ports"
	"SocialListener/internal/retry"
)

// AdapterDeps wires the model and the call policy into the adapter.
type AdapterDeps struct {
	Model    ports.Model
	Limiter  *rate.Limiter
	Policy   retry.Policy
	Language string
	Logger   *slog.Logger
}

// Adapter classifies items one model call at a time. It is safe for concurrent use.
type Adapter struct {
	model    ports.Model
	limiter  *rate.Limiter
	policy   retry.Policy
	language string
	logger   *slog.Logger
}

// NewAdapter constructs the classifier adapter.
func NewAdapter(deps AdapterDeps) *Adapter {
	return &Adapter{
		model:    deps.Model,
		limiter:  deps.Limiter,
		policy:   deps.Policy,
		language: deps.Language,
		logger:   deps.Logger,
	}
}

type parseError struct{ err error }

func (e *parseError) Error() string { return "parse model response: " + e.err.Error() }
func (e *parseError) Unwrap() error { return e.err }

// Classify sends one item to the model and returns its record.
// Labels outside the task enum yield domain.Unclassified; exhausted retries yield *domain.ClassificationError.
func (a *Adapter) Classify(ctx context.Context, item domain.RawItem, task TaskSpec) (domain.ClassificationRecord, error) {
	if a == nil || a.model == nil {
		return domain.ClassificationRecord{}, &domain.ClassificationError{
			Kind: domain.ModelUnavailable, ItemID: item.ID, Err: errors.New("classifier has no model"),
		}
	}

	prompt := BuildPrompt(item, task, a.language)

	var parsed Parsed
	err := retry.Do(ctx, a.policy, classifyFailure, func(callCtx context.Context) error {
		raw, err := a.complete(callCtx, prompt, task.Schema)
		if err != nil {
			return err
		}
		parsed = Parse(raw, task)
		if parsed.Kind == ParseFailure {
			return &parseError{err: parsed.Err}
		}
		return nil
	})
	if err != nil {
		return domain.ClassificationRecord{}, toClassificationError(item.ID, err)
	}

	if parsed.Kind == ParsedUnclassified {
		a.debug("label outside task enum", "task", task.Name, "item", item.ID, "label", parsed.Label)
	}

	return domain.ClassificationRecord{
		ItemID:        item.ID,
		Category:      parsed.Category,
		Summary:       parsed.Summary,
		RawEngagement: item.Engagement,
	}, nil
}

// Generate runs a narrative task over input lines and returns the model's text.
func (a *Adapter) Generate(ctx context.Context, task TaskSpec, lines []string) (string, error) {
	if a == nil || a.model == nil {
		return "", &domain.ClassificationError{
			Kind: domain.ModelUnavailable, ItemID: task.Name, Err: errors.New("classifier has no model"),
		}
	}

	prompt := BuildNarrativePrompt(task, lines, a.language)

	var text string
	err := retry.Do(ctx, a.policy, classifyFailure, func(callCtx context.Context) error {
		raw, err := a.complete(callCtx, prompt, task.Schema)
		if err != nil {
			return err
		}
		if strings.TrimSpace(raw) == "" {
			return &parseError{err: errEmptyResponse}
		}
		text = strings.TrimSpace(raw)
		return nil
	})
	if err != nil {
		return "", toClassificationError(task.Name, err)
	}
	return text, nil
}

// GenerateJSON runs a narrative task whose answer must decode into v; undecodable answers are retried.
func (a *Adapter) GenerateJSON(ctx context.Context, task TaskSpec, lines []string, v any) error {
	if a == nil || a.model == nil {
		return &domain.ClassificationError{
			Kind: domain.ModelUnavailable, ItemID: task.Name, Err: errors.New("classifier has no model"),
		}
	}

	prompt := BuildNarrativePrompt(task, lines, a.language)

	err := retry.Do(ctx, a.policy, classifyFailure, func(callCtx context.Context) error {
		raw, err := a.complete(callCtx, prompt, task.Schema)
		if err != nil {
			return err
		}
		if err := DecodeJSON(raw, v); err != nil {
			return &parseError{err: err}
		}
		return nil
	})
	if err != nil {
		return toClassificationError(task.Name, err)
	}
	return nil
}

func (a *Adapter) complete(ctx context.Context, prompt, schema string) (string, error) {
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return "", &domain.ModelCallError{Kind: domain.ModelTimeout, Err: fmt.Errorf("rate limiter: %w", err)}
		}
	}
	return a.model.Complete(ctx, prompt, schema)
}

func classifyFailure(err error) retry.Decision {
	var mce *domain.ModelCallError
	if errors.As(err, &mce) && mce.Kind == domain.ModelQuota {
		return retry.RetryAfterRateLimit
	}
	return retry.Retry
}

func toClassificationError(id string, err error) error {
	kind := domain.ModelUnavailable

	var pe *parseError
	var mce *domain.ModelCallError
	switch {
	case errors.As(err, &pe):
		kind = domain.MalformedResponse
	case errors.As(err, &mce) && mce.Kind == domain.ModelMalformed:
		kind = domain.MalformedResponse
	}

	return &domain.ClassificationError{Kind: kind, ItemID: id, Err: err}
}

func (a *Adapter) debug(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}
