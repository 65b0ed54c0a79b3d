package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidPrompt       = errors.New("invalid prompt")
	ErrUserNotFound        = errors.New("user not found")
	ErrInsufficientCredits = errors.New("not enough credits")
	ErrInvalidAmount       = errors.New("amount must be at least 1")
	ErrAlreadyClaimed      = errors.New("job already claimed")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrProviderFailure     = errors.New("provider failure")
	ErrDuplicateOperation  = errors.New("duplicate operation")
)

// FailureKind classifies why an external generation call failed.
type FailureKind string

const (
	FailureTimeout         FailureKind = "TIMEOUT"
	FailureInvalidResponse FailureKind = "INVALID_RESPONSE"
	FailureUnauthorized    FailureKind = "UNAUTHORIZED"
	FailureUnavailable     FailureKind = "UNAVAILABLE"
)

// Retryable reports whether another attempt may succeed.
func (k FailureKind) Retryable() bool {
	return k != FailureUnauthorized
}

// ProviderError is returned by generation backends so stages can classify
// failures without parsing messages.
type ProviderError struct {
	Kind     FailureKind
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Provider, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func (e *ProviderError) Is(target error) bool { return target == ErrProviderFailure }

// NewProviderError wraps err with a failure kind.
func NewProviderError(provider string, kind FailureKind, err error) *ProviderError {
	return &ProviderError{Kind: kind, Provider: provider, Err: err}
}
