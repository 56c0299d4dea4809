package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dorsta123/Case-Prep/internal/llm"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		switch {
		case strings.HasPrefix(name, EnvPrefix), name == "DATABASE_URL", name == "GEMINI_API_KEY", name == "OPENAI_API_KEY":
			t.Setenv(name, "")
			require.NoError(t, os.Unsetenv(name))
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "caseprep.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr: ":9090"
store: postgres
database_url: postgres://file/db
chat_temperature: 0.5
generation_timeout: 30s
`), 0o600))

	t.Setenv(EnvFile, path)
	t.Setenv("CASEPREP_ADDR", ":7070")
	t.Setenv("CASEPREP_RATING_STORE", "redis")
	t.Setenv("CASEPREP_LEADERBOARD_MAX_LIMIT", "25")
	t.Setenv("CASEPREP_RATE_LIMIT_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Addr)
	assert.Equal(t, StorePostgres, cfg.Store)
	assert.Equal(t, "postgres://file/db", cfg.DatabaseURL)
	assert.Equal(t, float32(0.5), cfg.ChatTemperature)
	assert.Equal(t, 30*time.Second, cfg.GenerationTimeout)
	assert.Equal(t, StoreRedis, cfg.EffectiveRatingStore())
	assert.Equal(t, 25, cfg.LeaderboardMaxLimit)
	assert.False(t, cfg.RateLimitEnabled)
}

func TestLoad_LegacyFallbacks(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://legacy/db")
	t.Setenv("GEMINI_API_KEY", "gem-key")
	t.Setenv("CASEPREP_OPENAI_API_KEY", "explicit")
	t.Setenv("OPENAI_API_KEY", "ignored")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://legacy/db", cfg.DatabaseURL)
	assert.Equal(t, "gem-key", cfg.GeminiAPIKey)
	assert.Equal(t, "explicit", cfg.OpenAIAPIKey)
}

func TestLoad_BadFile(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvFile, filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := Default()
		c.GeminiAPIKey = "key"
		return c
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults with key", mutate: func(*Config) {}},
		{name: "missing api key", mutate: func(c *Config) { c.GeminiAPIKey = "" }, wantErr: "API key"},
		{name: "openai needs its own key", mutate: func(c *Config) { c.LLMProvider = "openai" }, wantErr: "API key"},
		{name: "unknown store", mutate: func(c *Config) { c.Store = "sqlite" }, wantErr: "Store"},
		{name: "postgres needs url", mutate: func(c *Config) { c.Store = StorePostgres }, wantErr: "database_url"},
		{name: "redis ratings need addr", mutate: func(c *Config) { c.RatingStore = StoreRedis; c.RedisAddr = "" }, wantErr: "redis_addr"},
		{name: "bad level", mutate: func(c *Config) { c.LogLevel = "loud" }, wantErr: "LogLevel"},
		{name: "zero timeout", mutate: func(c *Config) { c.GenerationTimeout = 0 }, wantErr: "GenerationTimeout"},
		{name: "temperature too high", mutate: func(c *Config) { c.ChatTemperature = 3 }, wantErr: "ChatTemperature"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLLMConfig(t *testing.T) {
	c := Default()
	assert.Equal(t, "gemini-2.5-pro", c.LLMConfig().GetModel(llm.TierChat))

	c.LLMProvider = "openai"
	c.GradingModel = "gpt-4.1-mini"
	cfg := c.LLMConfig()
	assert.Equal(t, llm.ProviderOpenAI, cfg.Provider)
	assert.Equal(t, "gpt-4.1-mini", cfg.GetModel(llm.TierGrading))
	assert.Equal(t, "gpt-4o", cfg.GetModel(llm.TierChat))
}

func TestChatOptions(t *testing.T) {
	c := Default()
	c.ChatTemperature = 0.4
	c.MaxOutputTokens = 512

	opts := c.ChatOptions()
	assert.Equal(t, llm.TierChat, opts.Tier)
	assert.Equal(t, float32(0.4), opts.Temperature)
	assert.Equal(t, int32(512), opts.MaxOutputTokens)
}
