package image

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"reelgen/internal/domain"
	"reelgen/internal/infra"
	"reelgen/internal/providers/genai"
	"reelgen/internal/storage"
)

// SyntheticRenderer stores a deterministic placeholder frame per scene. It
// keeps the pipeline runnable without an image model.
type SyntheticRenderer struct {
	store storage.ObjectStore
}

func NewSyntheticRenderer(store storage.ObjectStore) *SyntheticRenderer {
	return &SyntheticRenderer{store: store}
}

func (s *SyntheticRenderer) RenderImage(ctx context.Context, req domain.ImageRequest) (string, error) {
	data, err := genai.SyntheticPNG(genai.FrameWidth/4, genai.FrameHeight/4, genai.DeterministicSeed(req.JobID, req.SceneIndex, req.Prompt))
	if err != nil {
		return "", fmt.Errorf("render placeholder: %w", err)
	}
	ref, err := s.store.Put(ctx, storage.SceneKey(req.JobID, req.SceneIndex, ".png"), "image/png", data)
	if err != nil {
		return "", domain.NewProviderError("storage", domain.FailureUnavailable, fmt.Errorf("store scene %d: %w", req.SceneIndex, err))
	}
	return ref, nil
}

var _ domain.ImageRenderer = (*SyntheticRenderer)(nil)

// FromConfig returns the Gemini renderer when a key is configured and the
// synthetic one otherwise.
func FromConfig(cfg *infra.Config, gemini *genai.Client, store storage.ObjectStore, logger zerolog.Logger) (domain.ImageRenderer, error) {
	if gemini == nil || !gemini.HasKey() {
		logger.Warn().Msg("image: GEMINI_API_KEY missing, using synthetic renderer")
		return NewSyntheticRenderer(store), nil
	}
	return NewGeminiRenderer(gemini, cfg.GeminiImageModel, store)
}
