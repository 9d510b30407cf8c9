// Package gemini adapts Google's Gemini API to the provider.Provider
// interface, grounded on llm/gemini/gemini.go and
// llm/gemini/converter.go for Go-SDK struct-building idiom, and on
// original_source/src/kosong/contrib/chat_provider/gemini.py for the
// canonical-model semantics the teacher's code predates (ThinkPart,
// tool-role-as-function-response). Like provider/openai and
// provider/anthropic, it streams exactly one turn and never calls
// tools itself.
package gemini

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/MoonshotAI/kosong/chat"
	"github.com/MoonshotAI/kosong/internal/logging"
	"github.com/MoonshotAI/kosong/provider"
)

const GeminiURL = "https://generativelanguage.googleapis.com"

// Client adapts the Gemini API to provider.Provider.
type Client struct {
	genaiClient *genai.Client
	modelName   string
	generation  provider.GenerationOptions
}

var _ provider.Provider = (*Client)(nil)

// Option configures NewClient.
type Option func(*Client)

// WithModel sets the model name.
func WithModel(model string) Option {
	return func(c *Client) { c.modelName = strings.TrimSpace(model) }
}

// WithGenerationOptions sets the initial generation options.
func WithGenerationOptions(opts provider.GenerationOptions) Option {
	return func(c *Client) { c.generation = opts }
}

// NewClient builds a Client against apiBase using apiKey.
func NewClient(apiBase, apiKey string, httpClient *http.Client, opts ...Option) (*Client, error) {
	c := &Client{}
	for _, opt := range opts {
		opt(c)
	}
	if c.modelName == "" {
		return nil, fmt.Errorf("gemini: WithModel is required")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: an API key is required")
	}

	cfg := &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI}
	if apiBase != "" && apiBase != GeminiURL {
		cfg.HTTPOptions.BaseURL = apiBase
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}

	genaiClient, err := genai.NewClient(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: building client: %w", err)
	}
	c.genaiClient = genaiClient
	return c, nil
}

func (c *Client) Name() string      { return "gemini" }
func (c *Client) ModelName() string { return c.modelName }

func (c *Client) WithGenerationOptions(opts provider.GenerationOptions) provider.Provider {
	cp := *c
	cp.generation = opts
	return &cp
}

// thinkingConfigFor maps the provider-agnostic effort dial onto
// Gemini's thinking budget/include-thoughts pair, per spec §4.3's
// effort table and original_source's with_thinking: off disables
// thinking outright (budget 0, thoughts excluded); low/medium/high
// raise the budget and turn on thought summaries.
func thinkingConfigFor(effort provider.ThinkingEffort) *genai.ThinkingConfig {
	budget := func(v int32) *int32 { return &v }
	switch effort {
	case provider.ThinkingOff:
		return &genai.ThinkingConfig{ThinkingBudget: budget(0), IncludeThoughts: false}
	case provider.ThinkingLow:
		return &genai.ThinkingConfig{ThinkingBudget: budget(1024), IncludeThoughts: true}
	case provider.ThinkingMedium:
		return &genai.ThinkingConfig{ThinkingBudget: budget(4096), IncludeThoughts: true}
	case provider.ThinkingHigh:
		return &genai.ThinkingConfig{ThinkingBudget: budget(32000), IncludeThoughts: true}
	default:
		return nil
	}
}

// Generate starts one Gemini streaming turn.
func (c *Client) Generate(ctx context.Context, systemPrompt string, tools []chat.Tool, history []chat.Message) (provider.StreamedMessage, error) {
	includeThoughts := c.generation.Thinking != "" && c.generation.Thinking != provider.ThinkingOff
	contents, err := messagesToGemini(history, includeThoughts)
	if err != nil {
		return nil, &provider.ChatProviderError{Provider: "gemini", Message: err.Error()}
	}

	config := &genai.GenerateContentConfig{}
	if systemPrompt != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: systemPrompt}}}
	}

	if len(tools) > 0 {
		geminiTools := make([]*genai.Tool, 0, len(tools))
		for _, t := range tools {
			gt, err := toolToGemini(t)
			if err != nil {
				return nil, &provider.ChatProviderError{Provider: "gemini", Message: err.Error()}
			}
			geminiTools = append(geminiTools, gt)
		}
		config.Tools = geminiTools
	}

	if c.generation.Temperature != nil {
		temp := float32(*c.generation.Temperature)
		config.Temperature = &temp
	}
	if c.generation.TopP != nil {
		topP := float32(*c.generation.TopP)
		config.TopP = &topP
	}
	if c.generation.TopK != nil {
		topK := float32(*c.generation.TopK)
		config.TopK = &topK
	}
	if c.generation.MaxOutputTokens != nil {
		config.MaxOutputTokens = int32(*c.generation.MaxOutputTokens)
	}
	if tc := thinkingConfigFor(c.generation.Thinking); tc != nil {
		config.ThinkingConfig = tc
	}

	logging.Logger().Debug("gemini starting stream", "model", c.modelName, "tools", len(tools), "messages", len(contents))
	seq := c.genaiClient.Models.GenerateContentStream(ctx, c.modelName, contents, config)
	return newGeminiStream(ctx, seq), nil
}
