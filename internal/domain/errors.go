package domain

import (
	"errors"
	"fmt"
)

// FetchErrorKind separates fetch failures by how they should be recovered.
type FetchErrorKind int

const (
	FetchTransient FetchErrorKind = iota
	FetchRateLimited
	FetchNotFound
)

func (k FetchErrorKind) String() string {
	switch k {
	case FetchRateLimited:
		return "rate_limited"
	case FetchNotFound:
		return "not_found"
	default:
		return "transient"
	}
}

// FetchError is returned by fetchers.
type FetchError struct {
	Kind   FetchErrorKind
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s (%s): %v", e.Source, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ModelErrorKind enumerates model call failures.
type ModelErrorKind int

const (
	ModelTimeout ModelErrorKind = iota
	ModelQuota
	ModelMalformed
)

func (k ModelErrorKind) String() string {
	switch k {
	case ModelQuota:
		return "quota"
	case ModelMalformed:
		return "malformed"
	default:
		return "timeout"
	}
}

// ModelCallError is returned by ports.Model implementations.
type ModelCallError struct {
	Kind ModelErrorKind
	Err  error
}

func (e *ModelCallError) Error() string {
	return fmt.Sprintf("model call (%s): %v", e.Kind, e.Err)
}

func (e *ModelCallError) Unwrap() error { return e.Err }

// ClassificationErrorKind enumerates terminal classifier failures.
type ClassificationErrorKind int

const (
	ModelUnavailable ClassificationErrorKind = iota
	MalformedResponse
)

func (k ClassificationErrorKind) String() string {
	if k == MalformedResponse {
		return "malformed_response"
	}
	return "model_unavailable"
}

// ClassificationError means one item could not be classified after retries.
type ClassificationError struct {
	Kind   ClassificationErrorKind
	ItemID string
	Err    error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classify item %s (%s): %v", e.ItemID, e.Kind, e.Err)
}

func (e *ClassificationError) Unwrap() error { return e.Err }

// BatchDegradedError aborts a run whose skip ratio exceeded the threshold.
// Partial holds the records classified before the run was abandoned.
type BatchDegradedError struct {
	Skipped   int
	Attempted int
	Threshold float64
	Partial   []ClassificationRecord
}

func (e *BatchDegradedError) Error() string {
	return fmt.Sprintf("batch degraded: %d of %d items skipped (threshold %.0f%%)",
		e.Skipped, e.Attempted, e.Threshold*100)
}

// IsNotFound reports whether err is a FetchError of kind NotFound.
func IsNotFound(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Kind == FetchNotFound
}
