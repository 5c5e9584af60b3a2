package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Prefix is prepended to every environment variable name.
const Prefix = "SECGEST"

type Config struct {
	Port     string `envconfig:"PORT" default:"8090"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Auth
	APIKey string `envconfig:"API_KEY"`

	// Embeddings and OpenAI generation
	OpenAIAPIKey   string `envconfig:"OPENAI_API_KEY"`
	ChatModel      string `envconfig:"CHAT_MODEL" default:"gpt-4o"`
	EmbeddingModel string `envconfig:"EMBEDDING_MODEL" default:"text-embedding-3-small"`

	// Anthropic generation
	AnthropicAPIKey string `envconfig:"ANTHROPIC_API_KEY"`
	AnthropicModel  string `envconfig:"ANTHROPIC_MODEL" default:"claude-sonnet-4-5-20250929"`

	// Which generator answers questions: openai or anthropic.
	LLMProvider string `envconfig:"LLM_PROVIDER" default:"openai"`

	// Vector index; empty keeps the index in memory.
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// Filing registry
	EdgarUserAgent string `envconfig:"EDGAR_USER_AGENT" default:"secgest admin@example.com"`
	DownloadDir    string `envconfig:"DOWNLOAD_DIR"`

	// Worker pool
	WorkerCount        int `envconfig:"WORKER_COUNT" default:"4"`
	MaxQueueSize       int `envconfig:"MAX_QUEUE_SIZE" default:"100"`
	MaxConcurrentEmbed int `envconfig:"MAX_CONCURRENT_EMBED" default:"5"`

	// Upload limits
	MaxUploadBytes int64 `envconfig:"MAX_UPLOAD_BYTES" default:"52428800"` // 50MB

	// Job state
	JobTTL time.Duration `envconfig:"JOB_TTL" default:"1h"`

	// Question answering defaults
	TopK                int     `envconfig:"TOP_K" default:"5"`
	ContextWindowTokens int     `envconfig:"CONTEXT_WINDOW_TOKENS" default:"3000"`
	Temperature         float32 `envconfig:"TEMPERATURE" default:"0.2"`
	TopP                float32 `envconfig:"TOP_P" default:"1.0"`
	MaxTokens           int     `envconfig:"MAX_TOKENS" default:"1024"`
}

// Load reads an optional .env file, then the SECGEST_* environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to process config: %w", err)
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxConcurrentEmbed <= 0 {
		cfg.MaxConcurrentEmbed = 5
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	if cfg.ContextWindowTokens <= 0 {
		cfg.ContextWindowTokens = 3000
	}
	cfg.LLMProvider = strings.ToLower(cfg.LLMProvider)

	return cfg, nil
}

// Validate checks the settings the HTTP service cannot run without.
func (c Config) Validate() error {
	var errs []error
	if c.APIKey == "" {
		errs = append(errs, fmt.Errorf("%s_API_KEY is required", Prefix))
	}
	if c.OpenAIAPIKey == "" {
		errs = append(errs, fmt.Errorf("%s_OPENAI_API_KEY is required for embeddings", Prefix))
	}
	switch c.LLMProvider {
	case "openai":
	case "anthropic":
		if c.AnthropicAPIKey == "" {
			errs = append(errs, fmt.Errorf("%s_ANTHROPIC_API_KEY is required when LLM_PROVIDER=anthropic", Prefix))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider))
	}
	return errors.Join(errs...)
}

// HasDatabase reports whether the vector index lives in Postgres.
func (c Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
