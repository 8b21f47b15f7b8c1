package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure for run summaries.
type Kind string

const (
	KindFetch   Kind = "fetch"
	KindParse   Kind = "parse"
	KindWrite   Kind = "write"
	KindArchive Kind = "archive"
	KindLock    Kind = "lock"
	KindUnknown Kind = "unknown"
)

// FetchError reports a failed request against an upstream source.
// Endpoint or Brand identifies what was missing; Retryable tells callers whether a
// later attempt could succeed (network failures, rate limits, 5xx).
type FetchError struct {
	Source    string
	Endpoint  string
	Brand     string
	Status    int
	Retryable bool
	Err       error
}

func (e *FetchError) Error() string {
	switch {
	case e.Brand != "":
		return fmt.Sprintf("fetch %s: expected brand %s missing: %v", e.Source, e.Brand, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("fetch %s %s: status %d: %v", e.Source, e.Endpoint, e.Status, e.Err)
	default:
		return fmt.Sprintf("fetch %s %s: %v", e.Source, e.Endpoint, e.Err)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError reports a field that could not be coerced. Index is the record's
// position in the fetched batch, or -1 when not applicable.
type ParseError struct {
	Field string
	Value string
	Index int
	Err   error
}

func (e *ParseError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("parse record %d field %s=%q: %v", e.Index, e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("parse field %s=%q: %v", e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// WriteError reports a store failure. The transaction it belongs to was rolled back.
type WriteError struct {
	Entity string
	Op     string
	Err    error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s (%s): %v", e.Entity, e.Op, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// ArchiveError reports that rows could not be archived. Nothing was deleted.
type ArchiveError struct {
	Entity string
	Path   string
	Err    error
}

func (e *ArchiveError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("archive %s: %v", e.Entity, e.Err)
	}
	return fmt.Sprintf("archive %s to %s: %v", e.Entity, e.Path, e.Err)
}

func (e *ArchiveError) Unwrap() error { return e.Err }

// KindOf returns the failure category of err.
func KindOf(err error) Kind {
	var fe *FetchError
	var pe *ParseError
	var we *WriteError
	var ae *ArchiveError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ae):
		return KindArchive
	case errors.As(err, &we):
		return KindWrite
	case errors.As(err, &pe):
		return KindParse
	case errors.As(err, &fe):
		return KindFetch
	case errors.Is(err, ErrPipelineBusy):
		return KindLock
	default:
		return KindUnknown
	}
}

// IsRetryable reports whether err wraps a retryable FetchError.
func IsRetryable(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Retryable
}
