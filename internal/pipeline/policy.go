package pipeline

import (
	"strings"
	"time"

	"github.com/rs/zerolog"

	"reelgen/internal/domain"
	"reelgen/internal/metrics"
)

const BackoffExponential = "exponential"

// stagePolicy builds the retry policy shared by the script and asset stages.
func stagePolicy(stage domain.Stage, attempts int, delay time.Duration, mode string, ceiling time.Duration, logger zerolog.Logger) Policy {
	backoff := FixedBackoff(delay)
	if strings.EqualFold(mode, BackoffExponential) {
		backoff = ExponentialBackoff(delay, ceiling)
	}
	return Policy{
		MaxAttempts: attempts,
		Backoff:     backoff,
		Retryable:   RetryableProviderError,
		OnRetry: func(attempt int, err error, wait time.Duration) {
			logger.Warn().
				Err(err).
				Str("stage", string(stage)).
				Int("attempt", attempt).
				Str("kind", string(kindOf(err))).
				Dur("wait", wait).
				Msg("pipeline: attempt failed, retrying")
		},
	}
}

func countAttempt(stage domain.Stage) {
	metrics.StageAttempt(string(stage))
}
