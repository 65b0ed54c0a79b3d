package text

import (
	"fmt"

	"github.com/rs/zerolog"

	"reelgen/internal/domain"
	"reelgen/internal/infra"
	"reelgen/internal/providers/genai"
)

// FromConfig picks the script backend named by TEXT_PROVIDER. A remote
// provider without a key degrades to the static writer with a warning.
func FromConfig(cfg *infra.Config, gemini *genai.Client, logger zerolog.Logger) (domain.ScriptWriter, error) {
	switch cfg.TextProvider {
	case OpenAIProviderName:
		if cfg.OpenAIAPIKey == "" {
			logger.Warn().Msg("text: OPENAI_API_KEY missing, using static writer")
			return NewStaticWriter(), nil
		}
		return NewOpenAIWriter(OpenAIOptions{
			APIKey:       cfg.OpenAIAPIKey,
			Model:        cfg.OpenAIModel,
			BaseURL:      cfg.OpenAIBaseURL,
			Organization: cfg.OpenAIOrg,
			Logger:       logger,
		})
	case GeminiProviderName:
		if gemini == nil || !gemini.HasKey() {
			logger.Warn().Msg("text: GEMINI_API_KEY missing, using static writer")
			return NewStaticWriter(), nil
		}
		return NewGeminiWriter(gemini, cfg.GeminiModel)
	case StaticProviderName, "":
		return NewStaticWriter(), nil
	default:
		return nil, fmt.Errorf("unknown text provider %q", cfg.TextProvider)
	}
}
