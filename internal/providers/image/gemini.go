// Package image renders scene images and stores them through an ObjectStore.
package image

import (
	"context"
	"errors"
	"fmt"

	"reelgen/internal/domain"
	"reelgen/internal/providers"
	"reelgen/internal/providers/genai"
	"reelgen/internal/storage"
)

// GeminiRenderer asks Gemini's image model for one frame per scene.
type GeminiRenderer struct {
	client *genai.Client
	model  string
	store  storage.ObjectStore
}

func NewGeminiRenderer(client *genai.Client, model string, store storage.ObjectStore) (*GeminiRenderer, error) {
	if client == nil || !client.HasKey() {
		return nil, errors.New("gemini api key is required")
	}
	if store == nil {
		return nil, errors.New("object store is required")
	}
	if model == "" {
		model = "gemini-2.5-flash-image"
	}
	return &GeminiRenderer{client: client, model: model, store: store}, nil
}

func (g *GeminiRenderer) RenderImage(ctx context.Context, req domain.ImageRequest) (string, error) {
	resp, err := g.client.GenerateContent(ctx, g.model, genai.Request{
		Contents: []genai.Content{{
			Role:  "user",
			Parts: []genai.Part{{Text: BuildScenePrompt(req.Prompt, req.SceneIndex)}},
		}},
		GenerationConfig: &genai.GenerationConfig{
			CandidateCount:     1,
			ResponseModalities: []string{"IMAGE"},
		},
	})
	if err != nil {
		return "", err
	}
	data, mime, err := g.client.InlineBlob(ctx, resp)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", providers.InvalidResponse(genai.ProviderName, errors.New("empty image"))
	}
	if mime == "" {
		mime = "image/png"
	}
	ref, err := g.store.Put(ctx, storage.SceneKey(req.JobID, req.SceneIndex, extensionFor(mime)), mime, data)
	if err != nil {
		return "", domain.NewProviderError("storage", domain.FailureUnavailable, fmt.Errorf("store scene %d: %w", req.SceneIndex, err))
	}
	return ref, nil
}

var _ domain.ImageRenderer = (*GeminiRenderer)(nil)
