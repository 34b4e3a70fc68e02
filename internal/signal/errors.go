package signal

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies source and validation failures. The kind decides
// whether the batch orchestrator may retry a work item.
type ErrorKind string

const (
	KindTimeout        ErrorKind = "timeout"
	KindUnavailable    ErrorKind = "unavailable"
	KindInvalidSubject ErrorKind = "invalid_subject"
	KindBudgetExceeded ErrorKind = "budget_exceeded"
)

// SourceError is the typed failure a signal source returns instead of a reading.
type SourceError struct {
	SourceID string
	Kind     ErrorKind
	Err      error
}

func (e *SourceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("source %s: %s", e.SourceID, e.Kind)
	}
	return fmt.Sprintf("source %s: %s: %v", e.SourceID, e.Kind, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// NewSourceError wraps err with a source id and kind.
func NewSourceError(sourceID string, kind ErrorKind, err error) *SourceError {
	return &SourceError{SourceID: sourceID, Kind: kind, Err: err}
}

// KindOf extracts the classification from err. Deadline errors from plain
// context plumbing count as timeouts; anything unclassified is unavailable.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var se *SourceError
	if errors.As(err, &se) {
		return se.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	if errors.Is(err, ErrInvalidSubject) {
		return KindInvalidSubject
	}
	if errors.Is(err, ErrBudgetExceeded) {
		return KindBudgetExceeded
	}
	return KindUnavailable
}

// IsTransient reports whether a failed work item is worth another attempt.
func IsTransient(err error) bool {
	switch KindOf(err) {
	case KindTimeout, KindUnavailable:
		return true
	default:
		return false
	}
}

var (
	// ErrInvalidSubject marks a subject the sources can never resolve.
	ErrInvalidSubject = errors.New("invalid subject")
	// ErrBudgetExceeded marks work abandoned when a batch ran out of wall clock.
	ErrBudgetExceeded = errors.New("batch budget exceeded")
	// ErrAdvisoryTimeout marks an advisory call that missed its hard deadline.
	ErrAdvisoryTimeout = errors.New("advisory timeout")
)
