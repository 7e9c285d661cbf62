package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// HTTP API
	ListenAddr string

	// Sources
	SourcesConfigPath string // optional YAML override for the registry

	// Crawl settings
	WindowDays         int // trailing recency window
	FetchTimeout       time.Duration
	FetchDelay         time.Duration // pacing between renders against the same engine
	RetryAttempts      int
	RetryDelay         time.Duration
	ResolveConcurrency int // parallel article fetches
	CandidateCap       int // candidates carried into resolution per run
	ResultCap          int // resolved articles returned per run
	HomepageLinkCap    int // raw links inspected per homepage
	HomepageKeepCap    int // candidates kept per homepage
	PriorityURLPart    string

	// Dedup
	SimilarityThreshold float64

	// Vector store
	ChromaPath        string
	EmbeddingProvider string // "local" or "openai"
	OpenAIAPIKey      string

	// Brief generation
	GeminiAPIKey string
	GeminiModel  string
	BriefTopK    int

	// News API
	NewsAPIKey string

	// Scheduler
	CronSpec string // empty disables scheduled runs

	// App settings
	Debug bool
}

func Load() (*Config, error) {
	cfg := &Config{
		// Default values
		ListenAddr:          ":8080",
		WindowDays:          7,
		FetchTimeout:        20 * time.Second,
		FetchDelay:          500 * time.Millisecond,
		RetryAttempts:       2,
		RetryDelay:          5 * time.Second,
		ResolveConcurrency:  3,
		CandidateCap:        50,
		ResultCap:           20,
		HomepageLinkCap:     50,
		HomepageKeepCap:     10,
		PriorityURLPart:     "broken-promise",
		SimilarityThreshold: 0.9,
		ChromaPath:          "./chroma_data",
		EmbeddingProvider:   "local",
		GeminiModel:         "gemini-1.5-flash",
		BriefTopK:           5,
	}

	// Load from environment
	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.NewsAPIKey = os.Getenv("NEWSAPI_KEY")
	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.CronSpec = os.Getenv("INGEST_CRON")

	cfg.ListenAddr = getEnvOrDefault("LISTEN_ADDR", cfg.ListenAddr)
	cfg.SourcesConfigPath = os.Getenv("SOURCES_CONFIG_PATH")
	cfg.ChromaPath = getEnvOrDefault("CHROMA_DB_PATH", cfg.ChromaPath)
	cfg.GeminiModel = getEnvOrDefault("GEMINI_MODEL", cfg.GeminiModel)
	cfg.PriorityURLPart = getEnvOrDefault("PRIORITY_URL_PART", cfg.PriorityURLPart)

	if p := os.Getenv("EMBEDDING_PROVIDER"); p != "" {
		cfg.EmbeddingProvider = p
	}

	cfg.WindowDays = getEnvIntOrDefault("WINDOW_DAYS", cfg.WindowDays)
	cfg.ResolveConcurrency = getEnvIntOrDefault("RESOLVE_CONCURRENCY", cfg.ResolveConcurrency)
	cfg.CandidateCap = getEnvIntOrDefault("CANDIDATE_CAP", cfg.CandidateCap)
	cfg.ResultCap = getEnvIntOrDefault("RESULT_CAP", cfg.ResultCap)
	cfg.HomepageLinkCap = getEnvIntOrDefault("HOMEPAGE_LINK_CAP", cfg.HomepageLinkCap)
	cfg.HomepageKeepCap = getEnvIntOrDefault("HOMEPAGE_KEEP_CAP", cfg.HomepageKeepCap)
	cfg.RetryAttempts = getEnvIntOrDefault("RETRY_ATTEMPTS", cfg.RetryAttempts)
	cfg.BriefTopK = getEnvIntOrDefault("BRIEF_TOP_K", cfg.BriefTopK)

	if v := os.Getenv("FETCH_TIMEOUT_SEC"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			cfg.FetchTimeout = time.Duration(val) * time.Second
		}
	}
	if v := os.Getenv("FETCH_DELAY_MS"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val >= 0 {
			cfg.FetchDelay = time.Duration(val) * time.Millisecond
		}
	}
	if v := os.Getenv("RETRY_DELAY_SEC"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			cfg.RetryDelay = time.Duration(val) * time.Second
		}
	}
	if v := os.Getenv("SIMILARITY_THRESHOLD"); v != "" {
		if val, err := strconv.ParseFloat(v, 64); err == nil && val > 0 && val <= 1 {
			cfg.SimilarityThreshold = val
		}
	}

	if debug := os.Getenv("DEBUG"); debug == "true" {
		cfg.Debug = true
	}

	return cfg, cfg.Validate()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil && intValue > 0 {
			return intValue
		}
	}
	return defaultValue
}

func (c *Config) Validate() error {
	if c.WindowDays <= 0 {
		return fmt.Errorf("WINDOW_DAYS must be positive")
	}
	if c.ResolveConcurrency <= 0 {
		return fmt.Errorf("RESOLVE_CONCURRENCY must be positive")
	}
	if c.EmbeddingProvider != "local" && c.EmbeddingProvider != "openai" {
		return fmt.Errorf("EMBEDDING_PROVIDER must be 'local' or 'openai'")
	}
	if c.EmbeddingProvider == "openai" && c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required when EMBEDDING_PROVIDER=openai")
	}
	return nil
}
