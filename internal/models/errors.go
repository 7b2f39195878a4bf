package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures of the retrieval core so callers can map them
// to protocol-level responses.
type ErrorKind int

const (
	// KindUnknown is any error not produced by the core.
	KindUnknown ErrorKind = iota
	// KindInvalidQuery is an empty query or a non-positive top_k.
	KindInvalidQuery
	// KindLoadFailure means the vector store could not be read or failed validation.
	KindLoadFailure
	// KindNotReady means Retrieve was called before a successful Load.
	KindNotReady
	// KindProviderFailure means the embedding provider failed or returned unusable vectors.
	KindProviderFailure
	// KindBuildInput means the builder was given empty or malformed chunk records.
	KindBuildInput
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidQuery:
		return "invalid_query"
	case KindLoadFailure:
		return "load_failure"
	case KindNotReady:
		return "not_ready"
	case KindProviderFailure:
		return "provider_failure"
	case KindBuildInput:
		return "build_input_error"
	default:
		return "unknown"
	}
}

// Sentinel errors, one per kind. An *Error matches the sentinel of its kind with errors.Is.
var (
	ErrInvalidQuery    = errors.New("invalid query")
	ErrLoadFailure     = errors.New("vector store load failed")
	ErrNotReady        = errors.New("retriever not ready")
	ErrProviderFailure = errors.New("embedding provider failed")
	ErrBuildInput      = errors.New("invalid build input")
)

var sentinels = map[ErrorKind]error{
	KindInvalidQuery:    ErrInvalidQuery,
	KindLoadFailure:     ErrLoadFailure,
	KindNotReady:        ErrNotReady,
	KindProviderFailure: ErrProviderFailure,
	KindBuildInput:      ErrBuildInput,
}

// Error is a core failure tagged with its kind. Err, when set, is the underlying cause.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

// NewError returns an *Error of the given kind with a formatted message.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// WrapError returns an *Error of the given kind wrapping cause.
func WrapError(kind ErrorKind, cause error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg, Err: cause}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	s, ok := sentinels[e.Kind]
	return ok && s == target
}

// KindOf returns the kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
