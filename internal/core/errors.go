package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure so retry policy can dispatch on kind
// instead of string-matching error messages.
type ErrorKind int

const (
	// KindTransient covers infrastructure failures and anything unknown;
	// retried up to the job's attempt budget.
	KindTransient ErrorKind = iota
	// KindInput marks invalid caller input (unsupported MIME, bad
	// configuration). Terminal, never retried.
	KindInput
	// KindRateLimit marks a provider rate-limit rejection; retried locally
	// by the calling component before counting against the job budget.
	KindRateLimit
	// KindFatal marks failures that no retry can fix.
	KindFatal
)

func (k ErrorKind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindRateLimit:
		return "rate_limit"
	case KindFatal:
		return "fatal"
	default:
		return "transient"
	}
}

// Error pairs an underlying error with its kind.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// InputError builds a terminal input error.
func InputError(format string, args ...interface{}) error {
	return &Error{Kind: KindInput, Err: fmt.Errorf(format, args...)}
}

// RateLimitError wraps a provider rate-limit rejection.
func RateLimitError(err error) error {
	return &Error{Kind: KindRateLimit, Err: err}
}

// FatalError builds a non-retryable error.
func FatalError(format string, args ...interface{}) error {
	return &Error{Kind: KindFatal, Err: fmt.Errorf(format, args...)}
}

// KindOf reports the kind of err. Unclassified errors are transient.
func KindOf(err error) ErrorKind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindTransient
}
