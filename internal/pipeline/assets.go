package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"reelgen/internal/domain"
	"reelgen/internal/infra"
)

// AssetStage renders one image per scene. Scenes run concurrently up to the
// configured limit, each with its own retry budget. The first scene that
// exhausts its retries cancels the rest.
type AssetStage struct {
	renderer    domain.ImageRenderer
	policy      Policy
	timeout     time.Duration
	concurrency int
	logger      zerolog.Logger
}

func NewAssetStage(renderer domain.ImageRenderer, cfg infra.PipelineConfig, logger zerolog.Logger) *AssetStage {
	return &AssetStage{
		renderer:    renderer,
		policy:      stagePolicy(domain.StageRendering, cfg.AssetAttempts, cfg.AssetRetryDelay, cfg.Backoff, cfg.MaxBackoff, logger),
		timeout:     cfg.AssetTimeout,
		concurrency: cfg.AssetConcurrency,
		logger:      logger,
	}
}

// Render returns a copy of scenes with AssetRef filled in, or a *StageError.
func (s *AssetStage) Render(ctx context.Context, jobID string, scenes []domain.Scene) ([]domain.Scene, error) {
	out := make([]domain.Scene, len(scenes))
	copy(out, scenes)

	g, gctx := errgroup.WithContext(ctx)
	if s.concurrency > 0 {
		g.SetLimit(s.concurrency)
	}
	for i := range out {
		g.Go(func() error {
			if out[i].AssetRef != "" {
				return nil
			}
			ref, err := s.renderScene(gctx, jobID, i, out[i].ImagePrompt)
			if err != nil {
				return err
			}
			out[i].AssetRef = ref
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *AssetStage) renderScene(ctx context.Context, jobID string, index int, prompt string) (string, error) {
	var ref string
	attempts, err := s.policy.Do(ctx, func(ctx context.Context, attempt int) error {
		countAttempt(domain.StageRendering)
		actx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		got, err := s.renderer.RenderImage(actx, domain.ImageRequest{JobID: jobID, SceneIndex: index, Prompt: prompt})
		if err != nil {
			if actx.Err() == context.DeadlineExceeded && ctx.Err() == nil && !isProviderError(err) {
				return domain.NewProviderError("image", domain.FailureTimeout, err)
			}
			return err
		}
		if got == "" {
			return domain.NewProviderError("image", domain.FailureInvalidResponse, errEmptyAsset)
		}
		ref = got
		return nil
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("job_id", jobID).Int("scene", index+1).Int("attempts", attempts).Msg("pipeline: scene render failed")
		return "", &StageError{Stage: domain.StageRendering, Kind: kindOf(err), Attempts: attempts, Err: err}
	}
	return ref, nil
}
