// Package genai is a thin client for the Gemini generateContent API shared by
// the text and image backends.
package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"reelgen/internal/providers"
)

const (
	ProviderName   = "gemini"
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
)

// Options controls how the Gemini client is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts,omitempty"`
}

type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inlineData,omitempty"`
	FileData   *FileData   `json:"fileData,omitempty"`
}

type InlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type FileData struct {
	MimeType string `json:"mimeType,omitempty"`
	FileURI  string `json:"fileUri,omitempty"`
}

type GenerationConfig struct {
	Temperature        float64  `json:"temperature,omitempty"`
	CandidateCount     int      `json:"candidateCount,omitempty"`
	ResponseMimeType   string   `json:"responseMimeType,omitempty"`
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

type Request struct {
	Contents         []Content         `json:"contents"`
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
}

type Candidate struct {
	Content      Content `json:"content"`
	FinishReason string  `json:"finishReason,omitempty"`
}

type UsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

type Response struct {
	Candidates    []Candidate    `json:"candidates"`
	UsageMetadata *UsageMetadata `json:"usageMetadata,omitempty"`
}

// Text concatenates the text parts of the first candidate.
func (r *Response) Text() string {
	if r == nil || len(r.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return strings.TrimSpace(b.String())
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error"`
}

// NewClient constructs a Gemini client. Callers may provide a nil HTTP client;
// per-call deadlines come from the context.
func NewClient(opts Options) *Client {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Minute}
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		httpClient: client,
		logger:     opts.Logger,
	}
}

// HasKey reports whether remote calls are possible.
func (c *Client) HasKey() bool { return c.apiKey != "" }

// GenerateContent calls models/{model}:generateContent. Errors are
// *domain.ProviderError.
func (c *Client) GenerateContent(ctx context.Context, model string, payload Request) (*Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, url.PathEscape(model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, providers.TransportError(ProviderName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		detail := strings.TrimSpace(string(data))
		var apiErr errorResponse
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error.Message != "" {
			detail = apiErr.Error.Message
		}
		return nil, providers.StatusError(ProviderName, resp.StatusCode, detail)
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if ctx.Err() != nil {
			return nil, providers.TransportError(ProviderName, ctx.Err())
		}
		return nil, providers.InvalidResponse(ProviderName, fmt.Errorf("decode gemini response: %w", err))
	}
	c.logger.Debug().
		Str("model", model).
		Dur("elapsed", time.Since(started)).
		Int("candidates", len(out.Candidates)).
		Msg("genai: generateContent ok")
	return &out, nil
}

// InlineBlob returns the first inline or file-backed binary part of the
// response, downloading file references when needed.
func (c *Client) InlineBlob(ctx context.Context, resp *Response) ([]byte, string, error) {
	for _, candidate := range resp.Candidates {
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && part.InlineData.Data != "" {
				data, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
				if err != nil {
					return nil, "", providers.InvalidResponse(ProviderName, fmt.Errorf("decode inline data: %w", err))
				}
				return data, part.InlineData.MimeType, nil
			}
			if part.FileData != nil && part.FileData.FileURI != "" {
				return c.downloadFile(ctx, part.FileData.FileURI, part.FileData.MimeType)
			}
		}
	}
	return nil, "", providers.InvalidResponse(ProviderName, fmt.Errorf("no binary content returned"))
}

func (c *Client) downloadFile(ctx context.Context, uri, mime string) ([]byte, string, error) {
	target := uri
	if !strings.HasPrefix(uri, "http://") && !strings.HasPrefix(uri, "https://") {
		target = c.baseURL + "/" + strings.TrimLeft(uri, "/")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create download request: %w", err)
	}
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", providers.TransportError(ProviderName, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, "", providers.StatusError(ProviderName, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	blob, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", providers.TransportError(ProviderName, err)
	}
	if mime == "" {
		mime = resp.Header.Get("Content-Type")
	}
	return blob, mime, nil
}
