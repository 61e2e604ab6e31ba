package normalizer

import (
	"fmt"

	"github.com/devclub/formsheets/pkg/config"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// NewModel builds an OpenAI-compatible chat model from cfg. It returns a
// nil model when no API key is configured.
func NewModel(cfg *config.OpenAIConfig) (llms.Model, error) {
	if cfg == nil || !cfg.Configured() {
		return nil, nil
	}
	opts := []openai.Option{
		openai.WithModel(cfg.Model),
		openai.WithToken(cfg.APIKey.Value()),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	model, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai model: %w", err)
	}
	return model, nil
}

// FromConfig builds a Normalizer for cfg, unconfigured when no key is set.
func FromConfig(cfg *config.OpenAIConfig) (*Normalizer, error) {
	model, err := NewModel(cfg)
	if err != nil {
		return nil, err
	}
	var opts Options
	if cfg != nil {
		opts = Options{Timeout: cfg.Timeout, Temperature: cfg.Temperature, MaxTokens: cfg.MaxTokens}
	}
	return New(model, opts), nil
}
