package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"reelgen/internal/infra"
	"reelgen/internal/infra/credentials"
)

func main() {
	_ = godotenv.Load()

	var (
		keyFlag      string
		providerFlag string
		clearFlag    bool
	)
	flag.StringVar(&keyFlag, "key", "", "API key for the selected provider (falls back to environment)")
	flag.StringVar(&providerFlag, "provider", credentials.ProviderGemini, "provider to configure (gemini or openai)")
	flag.BoolVar(&clearFlag, "clear", false, "remove the stored key instead of setting it")
	flag.Parse()

	provider := strings.TrimSpace(strings.ToLower(providerFlag))
	if provider == "" {
		provider = credentials.ProviderGemini
	}
	if !credentials.Supported(provider) {
		fmt.Fprintf(os.Stderr, "unsupported provider %q\n", providerFlag)
		os.Exit(1)
	}

	key := strings.TrimSpace(keyFlag)
	if key == "" && !clearFlag {
		switch provider {
		case credentials.ProviderOpenAI:
			key = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
		default:
			key = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
		}
		if key == "" {
			fmt.Fprintf(os.Stderr, "%s API key is required via -key or environment\n", strings.ToUpper(provider))
			os.Exit(1)
		}
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create pool: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "providerkey").Str("provider", provider).Logger()
	store := credentials.NewStore(infra.NewSQLRunner(pool, logger))

	if clearFlag {
		if err := store.Clear(ctx, provider); err != nil {
			fmt.Fprintf(os.Stderr, "failed to clear %s api key: %v\n", provider, err)
			os.Exit(1)
		}
		fmt.Printf("%s API key removed\n", strings.ToUpper(provider))
		return
	}
	if err := store.Set(ctx, provider, key); err != nil {
		fmt.Fprintf(os.Stderr, "failed to persist %s api key: %v\n", provider, err)
		os.Exit(1)
	}
	fmt.Printf("%s API key stored successfully\n", strings.ToUpper(provider))
}
