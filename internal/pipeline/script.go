package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"reelgen/internal/domain"
	"reelgen/internal/infra"
)

// ScriptStage asks the text backend for a scene list and validates it.
type ScriptStage struct {
	writer    domain.ScriptWriter
	policy    Policy
	timeout   time.Duration
	minScenes int
	maxScenes int
	logger    zerolog.Logger
}

func NewScriptStage(writer domain.ScriptWriter, cfg infra.PipelineConfig, logger zerolog.Logger) *ScriptStage {
	return &ScriptStage{
		writer:    writer,
		policy:    stagePolicy(domain.StageScripting, cfg.ScriptAttempts, cfg.ScriptRetryDelay, cfg.Backoff, cfg.MaxBackoff, logger),
		timeout:   cfg.ScriptTimeout,
		minScenes: cfg.MinScenes,
		maxScenes: cfg.MaxScenes,
		logger:    logger,
	}
}

// Generate returns a validated script or a *StageError. A scene count outside
// the configured range is an invalid response and is retried, never truncated.
func (s *ScriptStage) Generate(ctx context.Context, prompt, locale string) (*domain.Script, error) {
	req := domain.ScriptRequest{
		Prompt:    prompt,
		Locale:    locale,
		MinScenes: s.minScenes,
		MaxScenes: s.maxScenes,
	}
	var script *domain.Script
	attempts, err := s.policy.Do(ctx, func(ctx context.Context, attempt int) error {
		countAttempt(domain.StageScripting)
		actx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		out, err := s.writer.WriteScript(actx, req)
		if err != nil {
			if actx.Err() == context.DeadlineExceeded && ctx.Err() == nil && !isProviderError(err) {
				return domain.NewProviderError("script", domain.FailureTimeout, err)
			}
			return err
		}
		if err := s.validate(out); err != nil {
			return domain.NewProviderError("script", domain.FailureInvalidResponse, err)
		}
		script = out
		return nil
	})
	if err != nil {
		return nil, &StageError{Stage: domain.StageScripting, Kind: kindOf(err), Attempts: attempts, Err: err}
	}
	s.logger.Debug().Int("scenes", len(script.Scenes)).Int("attempts", attempts).Msg("pipeline: script ready")
	return script, nil
}

func (s *ScriptStage) validate(script *domain.Script) error {
	if script == nil {
		return fmt.Errorf("%w: empty result", errInvalidScript)
	}
	n := len(script.Scenes)
	if n < s.minScenes || n > s.maxScenes {
		return fmt.Errorf("%w: %d scenes, want %d..%d", errInvalidScript, n, s.minScenes, s.maxScenes)
	}
	for i, scene := range script.Scenes {
		if strings.TrimSpace(scene.ImagePrompt) == "" || strings.TrimSpace(scene.ContentText) == "" {
			return fmt.Errorf("%w: scene %d is incomplete", errInvalidScript, i+1)
		}
	}
	return nil
}

func isProviderError(err error) bool {
	var perr *domain.ProviderError
	return errors.As(err, &perr)
}
