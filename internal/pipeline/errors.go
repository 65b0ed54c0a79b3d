package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"reelgen/internal/domain"
)

// StageError is the terminal outcome of a stage after its retry policy gave up.
type StageError struct {
	Stage    domain.Stage
	Kind     domain.FailureKind
	Attempts int
	Err      error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed after %d attempt(s): %s: %v", e.Stage, e.Attempts, e.Kind, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Failure converts the error into the fact recorded on the job.
func (e *StageError) Failure() domain.Failure {
	reason := ""
	if e.Err != nil {
		reason = truncateReason(e.Err.Error(), maxReasonBytes)
	}
	return domain.Failure{Stage: e.Stage, Kind: e.Kind, Reason: reason}
}

const maxReasonBytes = 500

// truncateReason caps s at limit bytes without splitting a rune. Provider bodies
// may carry invalid UTF-8 of their own, which the text column would reject.
func truncateReason(s string, limit int) string {
	s = strings.ToValidUTF8(s, "\uFFFD")
	if len(s) <= limit {
		return s
	}
	n := limit
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// Structural problems found in a successful provider response.
var (
	errInvalidScript = errors.New("invalid script")
	errEmptyAsset    = errors.New("empty asset reference")
)

// kindOf maps an attempt error to a failure kind.
func kindOf(err error) domain.FailureKind {
	var perr *domain.ProviderError
	switch {
	case errors.As(err, &perr):
		return perr.Kind
	case errors.Is(err, context.DeadlineExceeded):
		return domain.FailureTimeout
	case errors.Is(err, errInvalidScript):
		return domain.FailureInvalidResponse
	default:
		return domain.FailureUnavailable
	}
}
