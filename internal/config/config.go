package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Completion provider (Groq, OpenAI-compatible)
	CompletionAPIKey  string
	CompletionBaseURL string
	CompletionModel   string

	// Search provider (Serper)
	SearchAPIKey  string
	SearchBaseURL string

	// Provider call limits
	ProviderTimeout time.Duration
	Temperature     float64
	EditMaxTokens   int
	AnswerMaxTokens int

	// Search
	MaxSearchResults int

	// Chat history window sent to the provider
	HistoryMaxTokens int

	// Session state
	SessionTTL time.Duration

	// Document import limits
	MaxUploadBytes int64
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8091"),

		CompletionAPIKey:  os.Getenv("GROQ_API_KEY"),
		CompletionBaseURL: envOr("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		CompletionModel:   envOr("GROQ_MODEL", "llama-3.1-8b-instant"),

		SearchAPIKey:  os.Getenv("SERPER_API_KEY"),
		SearchBaseURL: envOr("SERPER_BASE_URL", "https://google.serper.dev"),

		ProviderTimeout: envDuration("PROVIDER_TIMEOUT", 30*time.Second),
		Temperature:     envFloat("TEMPERATURE", 0.7),
		EditMaxTokens:   envInt("EDIT_MAX_TOKENS", 500),
		AnswerMaxTokens: envInt("ANSWER_MAX_TOKENS", 1000),

		MaxSearchResults: envInt("MAX_SEARCH_RESULTS", 5),

		HistoryMaxTokens: envInt("CHAT_HISTORY_MAX_TOKENS", 6000),

		SessionTTL: envDuration("SESSION_TTL", 1*time.Hour),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 10485760), // 10MB
	}

	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = 30 * time.Second
	}
	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		cfg.Temperature = 0.7
	}
	if cfg.EditMaxTokens <= 0 {
		cfg.EditMaxTokens = 500
	}
	if cfg.AnswerMaxTokens <= 0 {
		cfg.AnswerMaxTokens = 1000
	}
	if cfg.MaxSearchResults <= 0 || cfg.MaxSearchResults > 10 {
		cfg.MaxSearchResults = 5
	}
	if cfg.HistoryMaxTokens <= 0 {
		cfg.HistoryMaxTokens = 6000
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 1 * time.Hour
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10485760
	}

	return cfg
}

// Validate checks process-level configuration. Provider credentials are
// deliberately not checked here: a missing credential disables the endpoints
// that need it with a distinct configuration error, it does not stop the
// process.
func (c Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	if c.CompletionBaseURL == "" {
		return fmt.Errorf("GROQ_BASE_URL must not be empty")
	}
	if c.SearchBaseURL == "" {
		return fmt.Errorf("SERPER_BASE_URL must not be empty")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
