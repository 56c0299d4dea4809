package config

import (
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment variables read by Load.
const (
	EnvPrefix = "CASEPREP_"
	EnvFile   = "CASEPREP_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (Default())
//  2. file (YAML) if CASEPREP_CONFIG is set
//  3. env (prefix CASEPREP_)
//
// DATABASE_URL, GEMINI_API_KEY and OPENAI_API_KEY fill their fields when
// nothing else set them. Load does not validate; call Validate.
func Load() (*Config, error) {
	base := Default()

	k := koanf.New(".")

	if path := os.Getenv(EnvFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// CASEPREP_REDIS_ADDR -> redis_addr; underscores are kept to match koanf tags.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}

	fallback(&cfg.DatabaseURL, "DATABASE_URL")
	fallback(&cfg.GeminiAPIKey, "GEMINI_API_KEY")
	fallback(&cfg.OpenAIAPIKey, "OPENAI_API_KEY")
	return &cfg, nil
}

func fallback(field *string, envVar string) {
	if *field == "" {
		*field = os.Getenv(envVar)
	}
}
