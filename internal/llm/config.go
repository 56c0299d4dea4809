// Package llm provides the generation service used by the interviewer and the grader.
// It hides the provider behind a small Client interface so callers only deal with
// transcripts, messages and per-call options.
package llm

// ModelTier selects which configured model serves a call.
type ModelTier string

const (
	// TierChat drives the live interviewer conversation
	TierChat ModelTier = "chat"
	// TierGrading produces the structured evaluation rubric
	TierGrading ModelTier = "grading"
)

// Provider represents an LLM provider
type Provider string

// Provider constants define supported LLM providers
const (
	// ProviderGemini is the Google Gemini provider
	ProviderGemini Provider = "gemini"
	// ProviderOpenAI is the OpenAI chat completions provider
	ProviderOpenAI Provider = "openai"
)

// Generation defaults for the two call types.
const (
	DefaultChatTemperature    float32 = 0.9
	DefaultGradingTemperature float32 = 0.1
	DefaultMaxOutputTokens    int32   = 2048
)

// Config holds the model configuration for the application
type Config struct {
	Provider Provider
	Models   map[ModelTier]string
}

// DefaultConfig returns the default configuration (currently Gemini)
func DefaultConfig() *Config {
	return DefaultGeminiConfig()
}

// DefaultGeminiConfig returns the default Gemini configuration
func DefaultGeminiConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierChat:    "gemini-2.5-pro",
			TierGrading: "gemini-2.5-flash",
		},
	}
}

// DefaultOpenAIConfig returns the default OpenAI configuration
func DefaultOpenAIConfig() *Config {
	return &Config{
		Provider: ProviderOpenAI,
		Models: map[ModelTier]string{
			TierChat:    "gpt-4o",
			TierGrading: "gpt-4o-mini",
		},
	}
}

// ConfigFor returns the default configuration of a provider.
func ConfigFor(p Provider) *Config {
	if p == ProviderOpenAI {
		return DefaultOpenAIConfig()
	}
	return DefaultGeminiConfig()
}

// GetModel returns the model name for a given tier
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok && model != "" {
		return model
	}
	// Fallback chain: chat model serves anything unconfigured
	if model, ok := c.Models[TierChat]; ok {
		return model
	}
	return ""
}

// WithModel returns a new Config with a specific model for a tier
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	newConfig := &Config{
		Provider: c.Provider,
		Models:   make(map[ModelTier]string),
	}
	for k, v := range c.Models {
		newConfig.Models[k] = v
	}
	newConfig.Models[tier] = model
	return newConfig
}

// Options controls a single generation call.
type Options struct {
	Tier            ModelTier
	System          string // persona / standing instruction
	Temperature     float32
	MaxOutputTokens int32
	JSON            bool // ask the provider for a JSON response body
}

// ChatOptions are the defaults for interviewer turns.
func ChatOptions() Options {
	return Options{
		Tier:            TierChat,
		Temperature:     DefaultChatTemperature,
		MaxOutputTokens: DefaultMaxOutputTokens,
	}
}

// GradingOptions are the defaults for the evaluation pass.
func GradingOptions() Options {
	return Options{
		Tier:        TierGrading,
		Temperature: DefaultGradingTemperature,
		JSON:        true,
	}
}
