package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"SocialListener/internal/domain"
)

// ParseKind tags the outcome of reading a model answer.
type ParseKind int

const (
	ParsedClassification ParseKind = iota
	ParsedUnclassified
	ParseFailure
)

// Parsed is the tagged result of Parse. Err is set only for ParseFailure.
type Parsed struct {
	Kind     ParseKind
	Category domain.Category
	Summary  string
	Label    string
	Err      error
}

var errEmptyResponse = errors.New("empty model response")

// Parse reads a classification answer. It is the only place that trusts the model's output format:
// anything that is not a JSON object is a ParseFailure, and a label outside the enum is Unclassified.
func Parse(raw string, task TaskSpec) Parsed {
	var payload struct {
		Category string `json:"category"`
		Summary  string `json:"summary"`
	}
	if err := DecodeJSON(raw, &payload); err != nil {
		return Parsed{Kind: ParseFailure, Category: domain.Unclassified, Err: err}
	}

	summary := strings.TrimSpace(payload.Summary)
	category, ok := task.Match(payload.Category)
	if !ok {
		return Parsed{Kind: ParsedUnclassified, Category: domain.Unclassified, Summary: summary, Label: payload.Category}
	}
	return Parsed{Kind: ParsedClassification, Category: category, Summary: summary, Label: payload.Category}
}

// DecodeJSON strips markdown fences and surrounding prose and decodes the first JSON object into v.
func DecodeJSON(raw string, v any) error {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return errEmptyResponse
	}
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end < start {
		return fmt.Errorf("no JSON object in response: %q", truncate(cleaned, 80))
	}

	if err := json.Unmarshal([]byte(cleaned[start:end+1]), v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
