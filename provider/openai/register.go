package openai

import (
	"github.com/MoonshotAI/kosong/provider"
)

func init() {
	provider.Register(provider.FamilyOpenAIChatCompletions, newFromConfig(ChatCompletions))
	provider.Register(provider.FamilyOpenAIResponses, newFromConfig(Responses))
}

func newFromConfig(api API) provider.Constructor {
	return func(cfg provider.Config) (provider.Provider, error) {
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = OpenAIURL
		}
		opts := []Option{WithModel(cfg.Model), WithAPI(api), WithGenerationOptions(cfg.Generation)}
		return NewClient(baseURL, cfg.APIKey, cfg.HTTPClient, opts...)
	}
}
