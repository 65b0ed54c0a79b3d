// Package text implements the script-writing backends used by the script
// stage. Every backend returns *domain.ProviderError on failure.
package text

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"reelgen/internal/domain"
)

const (
	StaticProviderName = "static"
	GeminiProviderName = "gemini"
	OpenAIProviderName = "openai"
)

const systemInstruction = "You are a short-form video scriptwriter. You only respond with valid JSON."

type scriptPayload struct {
	Content []scenePayload `json:"content"`
}

type scenePayload struct {
	ImagePrompt string `json:"imagePrompt"`
	ContentText string `json:"contentText"`
}

// buildScriptPrompt renders the instruction sent to remote models.
func buildScriptPrompt(req domain.ScriptRequest) string {
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "Write a script for a 30 second vertical video about the topic below. ")
	fmt.Fprintf(sb, "Split it into between %d and %d scenes. ", req.MinScenes, req.MaxScenes)
	fmt.Fprintf(sb, "For every scene give a detailed imagePrompt for a realistic image and a contentText narration of one or two sentences. ")
	sb.WriteString(`Respond strictly with JSON matching this schema: {"content":[{"imagePrompt":string,"contentText":string}]}. `)
	fmt.Fprintf(sb, "Write the narration in %s. Topic: %q", localeName(req.Locale), req.Prompt)
	return sb.String()
}

// localeName turns a BCP 47 tag into an English language name for the model.
func localeName(locale string) string {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil || tag == language.Und {
		return "English"
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return "English"
}

// decodeScript extracts scenes from raw model output. Structural problems are
// InvalidResponse; scene-count bounds are enforced by the script stage.
func decodeScript(provider, raw string) ([]domain.Scene, error) {
	parsed, err := parseModelPayload[scriptPayload](raw)
	if err != nil {
		return nil, domain.NewProviderError(provider, domain.FailureInvalidResponse, fmt.Errorf("parse script: %w", err))
	}
	if len(parsed.Content) == 0 {
		return nil, domain.NewProviderError(provider, domain.FailureInvalidResponse, errors.New("script has no scenes"))
	}
	scenes := make([]domain.Scene, 0, len(parsed.Content))
	for _, item := range parsed.Content {
		scenes = append(scenes, domain.Scene{
			ImagePrompt: strings.TrimSpace(item.ImagePrompt),
			ContentText: strings.TrimSpace(item.ContentText),
		})
	}
	return scenes, nil
}

func parseModelPayload[T any](raw string) (T, error) {
	var zero T
	cleaned := extractJSONFragment(raw)
	if cleaned == "" {
		return zero, errors.New("empty payload")
	}
	var decoded T
	if err := json.Unmarshal([]byte(cleaned), &decoded); err != nil {
		return zero, err
	}
	return decoded, nil
}

func extractJSONFragment(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}
	text = trimCodeFence(text)
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start >= 0 && end >= start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}

func trimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```JSON")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}

func coalesce(values ...string) string {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			return v
		}
	}
	return ""
}
