package policy

import (
	"errors"
	"fmt"
)

var (
	ErrCourseNotFound = errors.New("course not found")
	ErrMissingSource  = errors.New("fact record has no source")
)

type ClassificationErrorKind string

const (
	KindUnavailable     ClassificationErrorKind = "unavailable"
	KindTimeout         ClassificationErrorKind = "timeout"
	KindMalformed       ClassificationErrorKind = "malformed"
	KindMissingField    ClassificationErrorKind = "missing_field"
	KindConfidenceRange ClassificationErrorKind = "confidence_range"
	KindUnknownIntent   ClassificationErrorKind = "unknown_intent"
)

// ClassificationError is any failure to obtain a usable classification.
type ClassificationError struct {
	Kind ClassificationErrorKind
	Err  error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classification %s: %v", e.Kind, e.Err)
}

func (e *ClassificationError) Unwrap() error { return e.Err }

func NewClassificationError(kind ClassificationErrorKind, err error) *ClassificationError {
	return &ClassificationError{Kind: kind, Err: err}
}

// LookupError means the course's facts document cannot be loaded or parsed.
type LookupError struct {
	Course string
	Err    error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("facts for course %q unavailable: %v", e.Course, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

// IndexBuildError means the raw policy document could not be indexed.
type IndexBuildError struct {
	Course string
	Err    error
}

func (e *IndexBuildError) Error() string {
	return fmt.Sprintf("index for course %q unavailable: %v", e.Course, e.Err)
}

func (e *IndexBuildError) Unwrap() error { return e.Err }
