// Package bootstrap builds the generation pipeline from configuration. It is
// shared by the worker binary and the API's embedded worker.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"reelgen/internal/adapter/repo"
	"reelgen/internal/assembly"
	"reelgen/internal/infra"
	"reelgen/internal/infra/credentials"
	"reelgen/internal/pipeline"
	"reelgen/internal/providers/genai"
	"reelgen/internal/providers/image"
	"reelgen/internal/providers/text"
	"reelgen/internal/storage"
)

// Pipeline bundles the orchestrator with the store it writes to.
type Pipeline struct {
	Orchestrator *pipeline.Orchestrator
	Jobs         *repo.JobRepository
	Store        storage.ObjectStore
}

// NewPipeline resolves provider keys (environment first, then the
// integration_tokens table) and assembles the stages.
func NewPipeline(ctx context.Context, cfg *infra.Config, sql infra.SQLExecutor, logger zerolog.Logger) (*Pipeline, error) {
	creds := credentials.NewStore(sql)
	resolved := *cfg
	var err error
	if resolved.GeminiAPIKey, err = creds.Resolve(ctx, credentials.ProviderGemini, cfg.GeminiAPIKey); err != nil {
		logger.Warn().Err(err).Msg("bootstrap: load gemini key from store failed")
	}
	if resolved.OpenAIAPIKey, err = creds.Resolve(ctx, credentials.ProviderOpenAI, cfg.OpenAIAPIKey); err != nil {
		logger.Warn().Err(err).Msg("bootstrap: load openai key from store failed")
	}

	gemini := genai.NewClient(genai.Options{
		APIKey:     resolved.GeminiAPIKey,
		BaseURL:    resolved.GeminiBaseURL,
		HTTPClient: &http.Client{Timeout: 2 * time.Minute},
		Logger:     logger,
	})

	writer, err := text.FromConfig(&resolved, gemini, logger)
	if err != nil {
		return nil, fmt.Errorf("text provider: %w", err)
	}
	store, err := storage.Open(&resolved)
	if err != nil {
		return nil, err
	}
	renderer, err := image.FromConfig(&resolved, gemini, store, logger)
	if err != nil {
		return nil, fmt.Errorf("image provider: %w", err)
	}

	jobs := repo.NewJobRepository(sql)
	orch := pipeline.NewOrchestrator(
		jobs,
		pipeline.NewScriptStage(writer, resolved.Pipeline, logger),
		pipeline.NewAssetStage(renderer, resolved.Pipeline, logger),
		assembly.NewBundler(store, resolved.Pipeline.TargetDuration),
		logger,
	)
	logger.Info().
		Str("text_provider", fmt.Sprintf("%T", writer)).
		Str("image_provider", fmt.Sprintf("%T", renderer)).
		Str("storage", resolved.StorageBackend).
		Msg("bootstrap: pipeline ready")
	return &Pipeline{Orchestrator: orch, Jobs: jobs, Store: store}, nil
}
