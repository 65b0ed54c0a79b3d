package domain

import (
	"errors"
	"testing"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from JobStatus
		to   JobStatus
		want bool
	}{
		{JobStatusPending, JobStatusScripting, true},
		{JobStatusScripting, JobStatusRendering, true},
		{JobStatusRendering, JobStatusAssembling, true},
		{JobStatusAssembling, JobStatusComplete, true},
		{JobStatusPending, JobStatusRendering, false},
		{JobStatusRendering, JobStatusScripting, false},
		{JobStatusScripting, JobStatusFailed, true},
		{JobStatusPending, JobStatusFailed, true},
		{JobStatusComplete, JobStatusFailed, false},
		{JobStatusFailed, JobStatusScripting, false},
		{JobStatusFailed, JobStatusFailed, false},
	}
	for _, tc := range tests {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			if got := CanTransition(tc.from, tc.to); got != tc.want {
				t.Fatalf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
			}
		})
	}
}

func TestStateOf(t *testing.T) {
	tests := []struct {
		credits int
		want    CreditState
	}{
		{0, CreditStateEmpty},
		{1, CreditStateLow},
		{5, CreditStateLow},
		{6, CreditStateOK},
	}
	for _, tc := range tests {
		if got := StateOf(tc.credits); got != tc.want {
			t.Fatalf("StateOf(%d) = %q, want %q", tc.credits, got, tc.want)
		}
	}
}

func TestProviderErrorMatchesSentinel(t *testing.T) {
	err := NewProviderError("openai", FailureUnauthorized, errors.New("status 401"))
	if !errors.Is(err, ErrProviderFailure) {
		t.Fatal("expected ProviderError to match ErrProviderFailure")
	}
	if err.Kind.Retryable() {
		t.Fatal("unauthorized must not be retryable")
	}
	if !FailureTimeout.Retryable() {
		t.Fatal("timeout must be retryable")
	}
}
