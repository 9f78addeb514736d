package models

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidSymbol    = errors.New("invalid symbol")
	ErrInvalidTimestamp = errors.New("invalid timestamp")
	ErrInvalidBar       = errors.New("invalid bar (high < low)")
	ErrInvalidVolume    = errors.New("invalid volume")
	ErrNoPrice          = errors.New("no current price available")
)

// FailureKind classifies recoverable failures of a sub-computation
type FailureKind string

const (
	// FailureProviderUnavailable covers network, auth and rate-limit failures
	// talking to an external source
	FailureProviderUnavailable FailureKind = "provider_unavailable"
	// FailureParse covers upstream responses that could not be interpreted
	FailureParse FailureKind = "parse_failure"
)

// ComputeError is a typed failure from a single unit of work. Callers log it
// and degrade the result; it never aborts the surrounding cycle.
type ComputeError struct {
	Kind FailureKind
	Op   string
	Err  error
}

// Error implements the error interface
func (e *ComputeError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying error
func (e *ComputeError) Unwrap() error {
	return e.Err
}

// NewProviderError wraps err as a provider-unavailable failure
func NewProviderError(op string, err error) *ComputeError {
	return &ComputeError{Kind: FailureProviderUnavailable, Op: op, Err: err}
}

// NewParseError wraps err as a parse failure
func NewParseError(op string, err error) *ComputeError {
	return &ComputeError{Kind: FailureParse, Op: op, Err: err}
}

// FailureKindOf returns the failure kind of err, or "" if err carries none
func FailureKindOf(err error) FailureKind {
	var ce *ComputeError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}
