package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackzampolin/bulletin/internal/cache"
)

// Config holds bulletin configuration.
// Stored at: ~/.bulletin/config.yaml
type Config struct {
	LLMProviders map[string]LLMProviderCfg `mapstructure:"llm_providers" yaml:"llm_providers"`
	OCRProviders map[string]OCRProviderCfg `mapstructure:"ocr_providers" yaml:"ocr_providers"`
	Structuring  StructuringCfg            `mapstructure:"structuring" yaml:"structuring"`
	OCR          OCRCfg                    `mapstructure:"ocr" yaml:"ocr"`
	Cache        CacheCfg                  `mapstructure:"cache" yaml:"cache"`
	Batch        BatchCfg                  `mapstructure:"batch" yaml:"batch"`
	PromptsDir   string                    `mapstructure:"prompts_dir" yaml:"prompts_dir"` // empty: ~/.bulletin/prompts
	CallLog      string                    `mapstructure:"call_log" yaml:"call_log"`       // empty: ~/.bulletin/calls.jsonl
	LogLevel     string                    `mapstructure:"log_level" yaml:"log_level"`
}

// LLMProviderCfg configures a chat provider.
type LLMProviderCfg struct {
	Type           string `mapstructure:"type" yaml:"type"`       // "openrouter", "openai"
	Model          string `mapstructure:"model" yaml:"model"`     // Default model name
	APIKey         string `mapstructure:"api_key" yaml:"api_key"` // API key (supports ${ENV_VAR} syntax)
	BaseURL        string `mapstructure:"base_url" yaml:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	MaxRetries     int    `mapstructure:"max_retries" yaml:"max_retries"`
	Enabled        bool   `mapstructure:"enabled" yaml:"enabled"`
}

// OCRProviderCfg configures a hosted OCR provider.
type OCRProviderCfg struct {
	Type      string  `mapstructure:"type" yaml:"type"`       // "mistral-ocr"
	APIKey    string  `mapstructure:"api_key" yaml:"api_key"` // API key (supports ${ENV_VAR} syntax)
	BaseURL   string  `mapstructure:"base_url" yaml:"base_url"`
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit"` // Requests per second
	Enabled   bool    `mapstructure:"enabled" yaml:"enabled"`
}

// StructuringCfg configures the structuring client.
type StructuringCfg struct {
	Provider          string  `mapstructure:"provider" yaml:"provider"` // key into llm_providers
	Model             string  `mapstructure:"model" yaml:"model"`       // overrides the provider default
	RequestsPerMinute int     `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
	MaxTokens         int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature       float64 `mapstructure:"temperature" yaml:"temperature"`
}

// OCRCfg configures text acquisition.
type OCRCfg struct {
	Engine    string   `mapstructure:"engine" yaml:"engine"` // "tesseract", "none" or a key into ocr_providers
	Languages []string `mapstructure:"languages" yaml:"languages"`
	DPI       int      `mapstructure:"dpi" yaml:"dpi"`
	MaxPages  int      `mapstructure:"max_pages" yaml:"max_pages"`
	MinChars  int      `mapstructure:"min_chars" yaml:"min_chars"`
	Force     bool     `mapstructure:"force" yaml:"force"`
}

// CacheCfg configures the cache backing stores.
type CacheCfg struct {
	Backend       string `mapstructure:"backend" yaml:"backend"`         // "fs", "sqlite" or "redis"
	Dir           string `mapstructure:"dir" yaml:"dir"`                 // empty: ~/.bulletin/cache
	SQLitePath    string `mapstructure:"sqlite_path" yaml:"sqlite_path"` // empty: ~/.bulletin/cache.db
	RedisAddr     string `mapstructure:"redis_addr" yaml:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password" yaml:"redis_password"` // supports ${ENV_VAR} syntax
	RedisDB       int    `mapstructure:"redis_db" yaml:"redis_db"`
	RedisPrefix   string `mapstructure:"redis_prefix" yaml:"redis_prefix"`
}

// BatchCfg configures batch runs.
type BatchCfg struct {
	Workers              int `mapstructure:"workers" yaml:"workers"`
	RetryAttempts        int `mapstructure:"retry_attempts" yaml:"retry_attempts"`
	RetryDelaySeconds    int `mapstructure:"retry_delay_seconds" yaml:"retry_delay_seconds"`
	MaxRetryDelaySeconds int `mapstructure:"max_retry_delay_seconds" yaml:"max_retry_delay_seconds"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LLMProviders: map[string]LLMProviderCfg{
			"openrouter": {
				Type:           "openrouter",
				Model:          "anthropic/claude-3.5-haiku",
				APIKey:         "${OPENROUTER_API_KEY}",
				TimeoutSeconds: 120,
				MaxRetries:     3,
				Enabled:        true,
			},
			"openai": {
				Type:           "openai",
				Model:          "gpt-4o-mini",
				APIKey:         "${OPENAI_API_KEY}",
				TimeoutSeconds: 120,
				MaxRetries:     3,
				Enabled:        true,
			},
		},
		OCRProviders: map[string]OCRProviderCfg{
			"mistral": {
				Type:      "mistral-ocr",
				APIKey:    "${MISTRAL_API_KEY}",
				RateLimit: 6.0,
				Enabled:   true,
			},
		},
		Structuring: StructuringCfg{
			Provider:          "openrouter",
			RequestsPerMinute: 60,
			MaxTokens:         2048,
		},
		OCR: OCRCfg{
			Engine:    "tesseract",
			Languages: []string{"eng"},
			DPI:       300,
			MaxPages:  5,
			MinChars:  200,
		},
		Cache: CacheCfg{
			Backend:     cache.BackendFS,
			RedisAddr:   "localhost:6379",
			RedisPrefix: "bulletin",
		},
		Batch: BatchCfg{
			Workers:              4,
			RetryAttempts:        3,
			RetryDelaySeconds:    2,
			MaxRetryDelaySeconds: 30,
		},
		LogLevel: "info",
	}
}

// GetLLMProvider returns an LLM provider config by name.
func (c *Config) GetLLMProvider(name string) (LLMProviderCfg, bool) {
	cfg, ok := c.LLMProviders[name]
	return cfg, ok
}

// GetOCRProvider returns an OCR provider config by name.
func (c *Config) GetOCRProvider(name string) (OCRProviderCfg, bool) {
	cfg, ok := c.OCRProviders[name]
	return cfg, ok
}

// Validate checks values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	if _, err := c.Level(); err != nil {
		return err
	}
	if _, ok := c.LLMProviders[c.Structuring.Provider]; !ok {
		return fmt.Errorf("structuring.provider %q is not configured under llm_providers", c.Structuring.Provider)
	}
	switch c.OCR.Engine {
	case "", "none", "tesseract":
	default:
		if _, ok := c.OCRProviders[c.OCR.Engine]; !ok {
			return fmt.Errorf("ocr.engine %q is not tesseract, none or a configured ocr provider", c.OCR.Engine)
		}
	}
	switch strings.ToLower(c.Cache.Backend) {
	case "", cache.BackendFS, cache.BackendSQLite, cache.BackendRedis:
	default:
		return fmt.Errorf("unknown cache.backend %q", c.Cache.Backend)
	}
	if c.Batch.Workers < 1 {
		return fmt.Errorf("batch.workers must be at least 1, got %d", c.Batch.Workers)
	}
	if c.Batch.RetryAttempts < 1 {
		return fmt.Errorf("batch.retry_attempts must be at least 1, got %d", c.Batch.RetryAttempts)
	}
	return nil
}

// Level parses LogLevel ("debug", "info", "warn", "error").
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// StoreConfig returns the cache backend settings, filling empty paths with
// the given defaults.
func (c CacheCfg) StoreConfig(defaultDir, defaultSQLitePath string) cache.Config {
	cfg := cache.Config{
		Backend:       c.Backend,
		Dir:           c.Dir,
		SQLitePath:    c.SQLitePath,
		RedisAddr:     c.RedisAddr,
		RedisPassword: ResolveEnvVars(c.RedisPassword),
		RedisDB:       c.RedisDB,
		RedisPrefix:   c.RedisPrefix,
	}
	if cfg.Dir == "" {
		cfg.Dir = defaultDir
	}
	if cfg.SQLitePath == "" {
		cfg.SQLitePath = defaultSQLitePath
	}
	return cfg
}

// RetryDelay returns the base delay between batch retries.
func (b BatchCfg) RetryDelay() time.Duration {
	return time.Duration(b.RetryDelaySeconds) * time.Second
}

// MaxRetryDelay returns the cap on batch retry backoff.
func (b BatchCfg) MaxRetryDelay() time.Duration {
	return time.Duration(b.MaxRetryDelaySeconds) * time.Second
}
