package anthropic

import (
	"github.com/MoonshotAI/kosong/provider"
)

func init() {
	provider.Register(provider.FamilyAnthropic, newFromConfig)
}

func newFromConfig(cfg provider.Config) (provider.Provider, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = AnthropicURL
	}
	opts := []Option{WithModel(cfg.Model), WithGenerationOptions(cfg.Generation)}
	return NewClient(baseURL, cfg.APIKey, cfg.HTTPClient, opts...)
}
