package ai

import (
	"errors"
	"time"

	"github.com/hrygo/remindme/internal/profile"
)

// LLMConfig represents LLM configuration.
type LLMConfig struct {
	Model       string // gpt-3.5-turbo
	APIKey      string
	BaseURL     string        // any OpenAI-compatible endpoint
	MaxTokens   int           // default: 512
	Temperature float32       // default: 0
	Timeout     time.Duration // default: 30s
}

// NewConfigFromProfile creates LLM config from profile.
func NewConfigFromProfile(p *profile.Profile) *LLMConfig {
	return &LLMConfig{
		Model:       p.AILLMModel,
		APIKey:      p.AIOpenAIAPIKey,
		BaseURL:     p.AIOpenAIBaseURL,
		MaxTokens:   512,
		Temperature: 0,
		Timeout:     30 * time.Second,
	}
}

// Validate validates the configuration.
func (c *LLMConfig) Validate() error {
	if c.Model == "" {
		return errors.New("LLM model is required")
	}
	if c.APIKey == "" {
		return errors.New("LLM API key is required")
	}
	return nil
}
