package text

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"reelgen/internal/domain"
	"reelgen/internal/providers"
)

type OpenAIOptions struct {
	APIKey       string
	Model        string
	BaseURL      string
	Organization string
	HTTPClient   *http.Client
	Logger       zerolog.Logger
}

// OpenAIWriter writes scripts with the chat completions API in JSON mode.
type OpenAIWriter struct {
	apiKey       string
	model        string
	baseURL      string
	organization string
	client       *http.Client
	logger       zerolog.Logger
}

const defaultOpenAIModel = "gpt-4o-mini"

// openAITimeout backs up the per-attempt context deadline.
const openAITimeout = 45 * time.Second

var openAIModelCanonical = map[string]string{
	"gpt-3.5-turbo": "gpt-3.5-turbo",
	"gpt-4o-mini":   "gpt-4o-mini",
	"gpt-4o":        "gpt-4o",
}

var openAIModelAliases = map[string]string{
	"gpt-3.5":                "gpt-3.5-turbo",
	"gpt3.5":                 "gpt-3.5-turbo",
	"gpt-35-turbo":           "gpt-3.5-turbo",
	"gpt4o-mini":             "gpt-4o-mini",
	"gpt4omini":              "gpt-4o-mini",
	"gpt-4o-mini-2024-07-18": "gpt-4o-mini",
	"gpt4o":                  "gpt-4o",
}

type openAIChatRequest struct {
	Model          string          `json:"model"`
	Messages       []openAIMessage `json:"messages"`
	Temperature    float64         `json:"temperature,omitempty"`
	ResponseFormat *openAIFormat   `json:"response_format,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIFormat struct {
	Type string `json:"type"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

type openAIErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func NewOpenAIWriter(opts OpenAIOptions) (*OpenAIWriter, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("openai api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	modelInput := strings.TrimSpace(opts.Model)
	model, reason := normalizeOpenAIModel(modelInput)
	if reason != "" {
		opts.Logger.Warn().
			Str("requested", coalesce(modelInput, defaultOpenAIModel)).
			Str("resolved", model).
			Str("reason", reason).
			Msg("openai: model normalized")
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: openAITimeout}
	}
	return &OpenAIWriter{
		apiKey:       strings.TrimSpace(opts.APIKey),
		model:        model,
		baseURL:      baseURL,
		organization: strings.TrimSpace(opts.Organization),
		client:       client,
		logger:       opts.Logger,
	}, nil
}

func (o *OpenAIWriter) WriteScript(ctx context.Context, req domain.ScriptRequest) (*domain.Script, error) {
	payload := openAIChatRequest{
		Model:          o.model,
		Temperature:    0.7,
		ResponseFormat: &openAIFormat{Type: "json_object"},
		Messages: []openAIMessage{
			{Role: "system", Content: systemInstruction},
			{Role: "user", Content: buildScriptPrompt(req)},
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return nil, fmt.Errorf("encode openai request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", &buf)
	if err != nil {
		return nil, fmt.Errorf("build openai request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	if o.organization != "" {
		httpReq.Header.Set("OpenAI-Organization", o.organization)
	}

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return nil, providers.TransportError(OpenAIProviderName, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 16<<10))
		detail := strings.TrimSpace(string(data))
		var apiErr openAIErrorResponse
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error.Message != "" {
			detail = apiErr.Error.Message
		}
		return nil, providers.StatusError(OpenAIProviderName, resp.StatusCode, detail)
	}

	var out openAIChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if ctx.Err() != nil {
			return nil, providers.TransportError(OpenAIProviderName, ctx.Err())
		}
		return nil, providers.InvalidResponse(OpenAIProviderName, fmt.Errorf("decode response: %w", err))
	}
	if len(out.Choices) == 0 {
		return nil, providers.InvalidResponse(OpenAIProviderName, errors.New("no choices"))
	}
	scenes, err := decodeScript(OpenAIProviderName, out.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	script := &domain.Script{Scenes: scenes}
	if out.Usage != nil {
		script.Usage = &domain.Usage{
			PromptTokens:     out.Usage.PromptTokens,
			CompletionTokens: out.Usage.CompletionTokens,
			TotalTokens:      out.Usage.TotalTokens,
		}
	}
	return script, nil
}

var _ domain.ScriptWriter = (*OpenAIWriter)(nil)

func normalizeOpenAIModel(name string) (string, string) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return defaultOpenAIModel, ""
	}
	normalized := strings.ToLower(trimmed)
	normalized = strings.ReplaceAll(normalized, "_", "-")
	normalized = strings.ReplaceAll(normalized, " ", "-")
	if canonical, ok := openAIModelCanonical[normalized]; ok {
		return canonical, ""
	}
	if alias, ok := openAIModelAliases[normalized]; ok {
		return alias, "alias"
	}
	return defaultOpenAIModel, "defaulted"
}
