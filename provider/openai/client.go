// Package openai adapts OpenAI's Chat Completions and Responses APIs
// to the provider.Provider interface, grounded on llm/openai/openai.go
// and llm/openai/converter.go but restructured to only stream: no
// adapter in this module calls tools itself (see SPEC_FULL.md §8's
// "structural departure from the teacher").
//
// Both APIs accept tool definitions and return tool calls to the
// caller to execute; the Responses encoder round-trips function_call
// and function_call_output items per original_source's openai_responses.py.
package openai

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/MoonshotAI/kosong/chat"
	"github.com/MoonshotAI/kosong/provider"
)

const (
	OpenAIURL = "https://api.openai.com/v1"
	OllamaURL = "http://localhost:11434/v1"
)

// API selects which OpenAI wire API a Client targets.
type API int

const (
	ChatCompletions API = iota
	Responses
)

// Client adapts OpenAI to provider.Provider.
type Client struct {
	sdkClient  sdk.Client
	modelName  string
	api        API
	generation provider.GenerationOptions
}

var _ provider.Provider = (*Client)(nil)

// Option configures NewClient.
type Option func(*Client)

// WithModel sets the model name.
func WithModel(model string) Option {
	return func(c *Client) { c.modelName = strings.TrimSpace(model) }
}

// WithAPI selects the Chat Completions or Responses wire API.
func WithAPI(api API) Option {
	return func(c *Client) { c.api = api }
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
		return nil, fmt.Errorf("openai: WithModel is required")
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	sdkOpts := []option.RequestOption{option.WithHTTPClient(httpClient)}
	if apiKey != "" {
		sdkOpts = append(sdkOpts, option.WithAPIKey(apiKey))
	}
	if apiBase != "" {
		sdkOpts = append(sdkOpts, option.WithBaseURL(apiBase))
	}
	c.sdkClient = sdk.NewClient(sdkOpts...)
	return c, nil
}

func (c *Client) Name() string      { return "openai" }
func (c *Client) ModelName() string { return c.modelName }

func (c *Client) WithGenerationOptions(opts provider.GenerationOptions) provider.Provider {
	cp := *c
	cp.generation = opts
	return &cp
}

func isNoTemperatureModel(model string) bool {
	m := strings.ToLower(model)
	return strings.HasPrefix(m, "o1") || strings.HasPrefix(m, "o3") || strings.HasPrefix(m, "gpt-5")
}

// Generate dispatches to the Chat Completions or Responses stream
// decoder depending on how the client was configured.
func (c *Client) Generate(ctx context.Context, systemPrompt string, tools []chat.Tool, history []chat.Message) (provider.StreamedMessage, error) {
	if c.api == Responses {
		return c.generateResponses(ctx, systemPrompt, tools, history)
	}
	return c.generateLegacy(ctx, systemPrompt, tools, history)
}
