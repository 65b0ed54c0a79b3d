package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv           string
	Port             string
	DatabaseURL      string
	JWTSecret        string
	JWTIssuer        string
	GeoIPDBPath      string
	DefaultLocale    string
	CORSOrigins      []string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
	MetricsAddr      string

	AutoProvisionUsers bool
	NewUserCredits     int

	StorageBackend     string
	StoragePath        string
	StorageBaseURL     string
	SupabaseURL        string
	SupabaseServiceKey string
	SupabaseBucket     string

	TextProvider     string
	GeminiAPIKey     string
	GeminiModel      string
	GeminiImageModel string
	GeminiBaseURL    string
	OpenAIAPIKey     string
	OpenAIModel      string
	OpenAIBaseURL    string
	OpenAIOrg        string

	QueueBackend  string
	RedisURL      string
	RedisQueueKey string
	NATSURL       string
	NATSStream    string
	NATSSubject   string
	NotifyChannel string

	Pipeline PipelineConfig
}

// PipelineConfig holds the tunables of the generation pipeline. Values may be
// overlaid from a YAML file referenced by PIPELINE_CONFIG_PATH; environment
// variables win over the file.
type PipelineConfig struct {
	ScriptAttempts   int           `yaml:"script_attempts"`
	ScriptRetryDelay time.Duration `yaml:"script_retry_delay"`
	ScriptTimeout    time.Duration `yaml:"script_timeout"`
	MinScenes        int           `yaml:"min_scenes"`
	MaxScenes        int           `yaml:"max_scenes"`
	AssetAttempts    int           `yaml:"asset_attempts"`
	AssetRetryDelay  time.Duration `yaml:"asset_retry_delay"`
	AssetTimeout     time.Duration `yaml:"asset_timeout"`
	AssetConcurrency int           `yaml:"asset_concurrency"`
	Backoff          string        `yaml:"backoff"`
	MaxBackoff       time.Duration `yaml:"max_backoff"`
	TargetDuration   time.Duration `yaml:"target_duration"`
	Workers          int           `yaml:"workers"`
	ClaimWait        time.Duration `yaml:"claim_wait"`
	SweepInterval    time.Duration `yaml:"sweep_interval"`
	StaleAfter       time.Duration `yaml:"stale_after"`
	SweepBatch       int           `yaml:"sweep_batch"`
	ReaperInterval   time.Duration `yaml:"reaper_interval"`
}

// DefaultPipelineConfig returns the built-in pipeline tunables.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		ScriptAttempts:   3,
		ScriptRetryDelay: time.Second,
		ScriptTimeout:    30 * time.Second,
		MinScenes:        3,
		MaxScenes:        8,
		AssetAttempts:    3,
		AssetRetryDelay:  time.Second,
		AssetTimeout:     60 * time.Second,
		AssetConcurrency: 4,
		Backoff:          "fixed",
		MaxBackoff:       10 * time.Second,
		TargetDuration:   30 * time.Second,
		Workers:          4,
		ClaimWait:        5 * time.Second,
		SweepInterval:    time.Minute,
		StaleAfter:       2 * time.Minute,
		SweepBatch:       50,
		ReaperInterval:   5 * time.Minute,
	}
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg, err := loadBaseConfig()
	if err != nil {
		return nil, err
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	return cfg, nil
}

// LoadWorkerConfig is LoadConfig without the HTTP-only requirements.
func LoadWorkerConfig() (*Config, error) {
	return loadBaseConfig()
}

func loadBaseConfig() (*Config, error) {
	port := getEnv("PORT", "8080")
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             port,
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		JWTIssuer:        os.Getenv("JWT_ISSUER"),
		GeoIPDBPath:      os.Getenv("GEOIP_DB_PATH"),
		DefaultLocale:    getEnv("DEFAULT_LOCALE", "en"),
		CORSOrigins:      splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		MetricsAddr:      getEnv("METRICS_ADDR", ":9090"),

		AutoProvisionUsers: getEnvBool("AUTO_PROVISION_USERS", true),
		NewUserCredits:     getEnvInt("NEW_USER_CREDITS", 3),

		StorageBackend:     strings.ToLower(getEnv("STORAGE_BACKEND", "filesystem")),
		StoragePath:        getEnv("STORAGE_PATH", "./storage"),
		StorageBaseURL:     getEnv("STORAGE_BASE_URL", "http://localhost:"+port+"/static"),
		SupabaseURL:        os.Getenv("SUPABASE_URL"),
		SupabaseServiceKey: os.Getenv("SUPABASE_SERVICE_ROLE_KEY"),
		SupabaseBucket:     getEnv("SUPABASE_BUCKET", "videos"),

		TextProvider:     strings.ToLower(getEnv("TEXT_PROVIDER", "openai")),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		GeminiImageModel: getEnv("GEMINI_IMAGE_MODEL", "gemini-2.5-flash-image"),
		GeminiBaseURL:    getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:      getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:    getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIOrg:        os.Getenv("OPENAI_ORG"),

		QueueBackend:  strings.ToLower(getEnv("QUEUE_BACKEND", "postgres")),
		RedisURL:      getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RedisQueueKey: getEnv("REDIS_QUEUE_KEY", "reelgen:video_jobs"),
		NATSURL:       getEnv("NATS_URL", "nats://localhost:4222"),
		NATSStream:    getEnv("NATS_STREAM", "VIDEO_JOBS"),
		NATSSubject:   getEnv("NATS_SUBJECT", "video.jobs.admitted"),
		NotifyChannel: getEnv("NOTIFY_CHANNEL", "video_jobs"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	pipeline, err := loadPipelineConfig(os.Getenv("PIPELINE_CONFIG_PATH"))
	if err != nil {
		return nil, err
	}
	cfg.Pipeline = pipeline
	return cfg, nil
}

func loadPipelineConfig(path string) (PipelineConfig, error) {
	p := DefaultPipelineConfig()
	if path = strings.TrimSpace(path); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return p, fmt.Errorf("read pipeline config: %w", err)
		}
		if err := yaml.Unmarshal(data, &p); err != nil {
			return p, fmt.Errorf("parse pipeline config: %w", err)
		}
	}

	p.ScriptAttempts = getEnvInt("SCRIPT_MAX_ATTEMPTS", p.ScriptAttempts)
	p.ScriptRetryDelay = getEnvDuration("SCRIPT_RETRY_DELAY", p.ScriptRetryDelay)
	p.ScriptTimeout = getEnvDuration("SCRIPT_TIMEOUT", p.ScriptTimeout)
	p.MinScenes = getEnvInt("SCRIPT_MIN_SCENES", p.MinScenes)
	p.MaxScenes = getEnvInt("SCRIPT_MAX_SCENES", p.MaxScenes)
	p.AssetAttempts = getEnvInt("ASSET_MAX_ATTEMPTS", p.AssetAttempts)
	p.AssetRetryDelay = getEnvDuration("ASSET_RETRY_DELAY", p.AssetRetryDelay)
	p.AssetTimeout = getEnvDuration("ASSET_TIMEOUT", p.AssetTimeout)
	p.AssetConcurrency = getEnvInt("ASSET_CONCURRENCY", p.AssetConcurrency)
	p.Backoff = strings.ToLower(getEnv("RETRY_BACKOFF", p.Backoff))
	p.MaxBackoff = getEnvDuration("RETRY_MAX_BACKOFF", p.MaxBackoff)
	p.Workers = getEnvInt("WORKER_COUNT", p.Workers)
	p.ClaimWait = getEnvDuration("WORKER_CLAIM_WAIT", p.ClaimWait)
	p.SweepInterval = getEnvDuration("SWEEP_INTERVAL", p.SweepInterval)
	p.StaleAfter = getEnvDuration("STALE_PENDING_AFTER", p.StaleAfter)
	p.SweepBatch = getEnvInt("SWEEP_BATCH", p.SweepBatch)
	p.ReaperInterval = getEnvDuration("REAPER_INTERVAL", p.ReaperInterval)

	if p.MinScenes < 1 || p.MaxScenes < p.MinScenes {
		return p, fmt.Errorf("invalid scene bounds %d..%d", p.MinScenes, p.MaxScenes)
	}
	if p.ScriptAttempts < 1 || p.AssetAttempts < 1 {
		return p, fmt.Errorf("retry attempts must be at least 1")
	}
	if p.ScriptTimeout <= 0 || p.AssetTimeout <= 0 {
		return p, fmt.Errorf("stage timeouts must be positive (script %s, asset %s)", p.ScriptTimeout, p.AssetTimeout)
	}
	return p, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// getEnvDuration accepts Go duration strings ("90s") or plain seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	v = strings.TrimSpace(v)
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
