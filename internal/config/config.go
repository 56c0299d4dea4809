// Package config defines service configuration and its layered loading:
// defaults, then an optional YAML file, then CASEPREP_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/dorsta123/Case-Prep/internal/leaderboard"
	"github.com/dorsta123/Case-Prep/internal/llm"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Config contains process configuration.
type Config struct {
	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr" validate:"required"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn error"`
	// LogFormat is json or console.
	LogFormat string `koanf:"log_format" validate:"oneof=json console"`

	// Store selects where sessions live.
	Store string `koanf:"store" validate:"oneof=memory postgres"`
	// RatingStore selects where ratings live; empty means the same as Store.
	RatingStore string `koanf:"rating_store" validate:"omitempty,oneof=memory postgres redis"`

	DatabaseURL   string `koanf:"database_url"`
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db" validate:"gte=0"`
	RedisKey      string `koanf:"redis_key"`

	LLMProvider  string `koanf:"llm_provider" validate:"oneof=gemini openai"`
	GeminiAPIKey string `koanf:"gemini_api_key"`
	OpenAIAPIKey string `koanf:"openai_api_key"`
	// ChatModel and GradingModel override the provider defaults when set.
	ChatModel    string `koanf:"chat_model"`
	GradingModel string `koanf:"grading_model"`

	ChatTemperature float32 `koanf:"chat_temperature" validate:"gte=0,lte=2"`
	MaxOutputTokens int32   `koanf:"max_output_tokens" validate:"gt=0"`
	// GenerationTimeout bounds each HTTP request that calls the model.
	GenerationTimeout time.Duration `koanf:"generation_timeout" validate:"gt=0"`

	// LeaderboardMaxLimit caps GET /api/leaderboard?limit.
	LeaderboardMaxLimit int `koanf:"leaderboard_max_limit" validate:"gt=0"`

	RateLimitEnabled bool `koanf:"rate_limit_enabled"`
}

// Default returns a Config populated with defaults.
func Default() *Config {
	return &Config{
		Addr:                ":8080",
		LogLevel:            "info",
		LogFormat:           "json",
		Store:               StoreMemory,
		RedisAddr:           "localhost:6379",
		RedisKey:            leaderboard.DefaultKey,
		LLMProvider:         string(llm.ProviderGemini),
		ChatTemperature:     llm.DefaultChatTemperature,
		MaxOutputTokens:     llm.DefaultMaxOutputTokens,
		GenerationTimeout:   90 * time.Second,
		LeaderboardMaxLimit: 100,
		RateLimitEnabled:    true,
	}
}

var validate = validator.New()

// Validate checks field ranges and that every selected backend has what it needs.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Store == StorePostgres || c.RatingStore == StorePostgres {
		if c.DatabaseURL == "" {
			return fmt.Errorf("invalid config: database_url is required for the postgres store")
		}
	}
	if c.RatingStore == StoreRedis && c.RedisAddr == "" {
		return fmt.Errorf("invalid config: redis_addr is required for the redis rating store")
	}
	if c.APIKey() == "" {
		return fmt.Errorf("invalid config: an API key is required for llm provider %s", c.LLMProvider)
	}
	return nil
}

// EffectiveRatingStore resolves an empty RatingStore to Store.
func (c *Config) EffectiveRatingStore() string {
	if c.RatingStore == "" {
		return c.Store
	}
	return c.RatingStore
}

// APIKey returns the key for the configured provider.
func (c *Config) APIKey() string {
	if llm.Provider(c.LLMProvider) == llm.ProviderOpenAI {
		return c.OpenAIAPIKey
	}
	return c.GeminiAPIKey
}

// LLMConfig builds the model configuration, applying model overrides.
func (c *Config) LLMConfig() *llm.Config {
	cfg := llm.ConfigFor(llm.Provider(strings.ToLower(c.LLMProvider)))
	if c.ChatModel != "" {
		cfg = cfg.WithModel(llm.TierChat, c.ChatModel)
	}
	if c.GradingModel != "" {
		cfg = cfg.WithModel(llm.TierGrading, c.GradingModel)
	}
	return cfg
}

// ChatOptions returns the interviewer generation options.
func (c *Config) ChatOptions() llm.Options {
	opts := llm.ChatOptions()
	opts.Temperature = c.ChatTemperature
	opts.MaxOutputTokens = c.MaxOutputTokens
	return opts
}
