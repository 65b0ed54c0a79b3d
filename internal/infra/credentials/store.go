package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"reelgen/internal/infra"
	"reelgen/internal/sqlinline"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Store keeps provider API keys in the integration_tokens table so workers can
// run without secrets in their environment.
type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

// Supported reports whether provider names a known integration.
func Supported(provider string) bool {
	switch provider {
	case ProviderGemini, ProviderOpenAI:
		return true
	}
	return false
}

// Token returns the stored key for provider, or "" when none is stored.
func (s *Store) Token(ctx context.Context, provider string) (string, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectIntegrationToken, provider)
	var token string
	if err := row.Scan(&token); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(token), nil
}

// Resolve prefers a non-empty configured value and falls back to the store.
func (s *Store) Resolve(ctx context.Context, provider, configured string) (string, error) {
	if v := strings.TrimSpace(configured); v != "" {
		return v, nil
	}
	return s.Token(ctx, provider)
}

// Set stores key for provider, replacing any previous value.
func (s *Store) Set(ctx context.Context, provider, key string) error {
	if !Supported(provider) {
		return fmt.Errorf("unsupported provider %q", provider)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("%s api key is required", provider)
	}
	raw, err := json.Marshal(map[string]any{"source": "cli"})
	if err != nil {
		return err
	}
	_, err = s.sql.Exec(ctx, sqlinline.QUpsertIntegrationToken, provider, key, raw)
	return err
}

// Clear removes the stored key for provider.
func (s *Store) Clear(ctx context.Context, provider string) error {
	if !Supported(provider) {
		return fmt.Errorf("unsupported provider %q", provider)
	}
	_, err := s.sql.Exec(ctx, sqlinline.QDeleteIntegrationToken, provider)
	return err
}
