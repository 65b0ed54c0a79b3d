package text

import (
	"context"
	"errors"

	"reelgen/internal/domain"
	"reelgen/internal/providers/genai"
)

// GeminiWriter writes scripts with Gemini's JSON response mode.
type GeminiWriter struct {
	client *genai.Client
	model  string
}

func NewGeminiWriter(client *genai.Client, model string) (*GeminiWriter, error) {
	if client == nil || !client.HasKey() {
		return nil, errors.New("gemini api key is required")
	}
	return &GeminiWriter{client: client, model: coalesce(model, "gemini-1.5-flash")}, nil
}

func (g *GeminiWriter) WriteScript(ctx context.Context, req domain.ScriptRequest) (*domain.Script, error) {
	payload := genai.Request{
		Contents: []genai.Content{{
			Role: "user",
			Parts: []genai.Part{
				{Text: systemInstruction},
				{Text: buildScriptPrompt(req)},
			},
		}},
		GenerationConfig: &genai.GenerationConfig{
			Temperature:      0.7,
			CandidateCount:   1,
			ResponseMimeType: "application/json",
		},
	}
	resp, err := g.client.GenerateContent(ctx, g.model, payload)
	if err != nil {
		return nil, err
	}
	scenes, err := decodeScript(GeminiProviderName, resp.Text())
	if err != nil {
		return nil, err
	}
	script := &domain.Script{Scenes: scenes}
	if usage := resp.UsageMetadata; usage != nil {
		script.Usage = &domain.Usage{
			PromptTokens:     usage.PromptTokenCount,
			CompletionTokens: usage.CandidatesTokenCount,
			TotalTokens:      usage.TotalTokenCount,
		}
	}
	return script, nil
}

var _ domain.ScriptWriter = (*GeminiWriter)(nil)
