// Package kimi adapts Moonshot's Kimi API to provider.Provider. Kimi is
// Chat Completions wire-compatible (spec §4.4.5: "behaves like 4.4.1
// except..."), so this package reuses provider/openai's message
// conversion and stream decoder wholesale and overrides only the three
// documented extensions: a top-level reasoning_effort field (with
// temperature-defaulting side effects), builtin ($-prefixed) tools
// serialized without a schema, and a default max_tokens of 32000. It
// also splices each assistant message's ThinkPart text into the
// outgoing messages as reasoning_content.
package kimi

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"

	"github.com/MoonshotAI/kosong/chat"
	"github.com/MoonshotAI/kosong/provider"
	"github.com/MoonshotAI/kosong/provider/openai"
)

const KimiURL = "https://api.moonshot.ai/v1"

const defaultMaxTokens = 32000

// Client adapts Kimi to provider.Provider.
type Client struct {
	sdkClient  sdk.Client
	modelName  string
	generation provider.GenerationOptions
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
		return nil, fmt.Errorf("kimi: WithModel is required")
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

func (c *Client) Name() string      { return "kimi" }
func (c *Client) ModelName() string { return c.modelName }

func (c *Client) WithGenerationOptions(opts provider.GenerationOptions) provider.Provider {
	cp := *c
	cp.generation = opts
	return &cp
}

// isThinkingModel reports whether model carries the "-thinking" suffix
// that defaults temperature to 1.0, per spec §4.4.5.
func isThinkingModel(model string) bool {
	return strings.Contains(strings.ToLower(model), "-thinking")
}

// isK2Model reports whether model is a kimi-k2* model, which defaults
// temperature to 0.6, per spec §4.4.5.
func isK2Model(model string) bool {
	return strings.HasPrefix(strings.ToLower(model), "kimi-k2")
}

func defaultTemperatureFor(model string) float64 {
	if isThinkingModel(model) {
		return 1.0
	}
	if isK2Model(model) {
		return 0.6
	}
	return 1.0
}

// reasoningEffortFor maps the provider-agnostic effort dial onto
// Kimi's reasoning_effort request field, per spec §4.3's mapping table;
// "off" omits the field entirely.
func reasoningEffortFor(effort provider.ThinkingEffort) string {
	switch effort {
	case provider.ThinkingLow, provider.ThinkingMedium, provider.ThinkingHigh:
		return string(effort)
	default:
		return ""
	}
}

// Generate starts one Chat Completions-compatible streaming turn
// against the Kimi API.
func (c *Client) Generate(ctx context.Context, systemPrompt string, tools []chat.Tool, history []chat.Message) (provider.StreamedMessage, error) {
	var messages []sdk.ChatCompletionMessageParamUnion
	if systemPrompt != "" {
		messages = append(messages, sdk.SystemMessage(systemPrompt))
	}
	converted, err := openai.MessagesToOpenAI(history)
	if err != nil {
		return nil, &provider.ChatProviderError{Provider: "kimi", Message: err.Error()}
	}
	messages = append(messages, converted...)

	params := sdk.ChatCompletionNewParams{
		Messages: messages,
		Model:    c.modelName,
		StreamOptions: sdk.ChatCompletionStreamOptionsParam{
			IncludeUsage: param.NewOpt(true),
		},
		MaxTokens: sdk.Int(defaultMaxTokens),
	}

	var requestOpts []option.RequestOption
	if raw, ok, err := messagesWithReasoningContent(systemPrompt, history, messages); err != nil {
		return nil, &provider.ChatProviderError{Provider: "kimi", Message: err.Error()}
	} else if ok {
		requestOpts = append(requestOpts, option.WithJSONSet("messages", raw))
	}

	temperature := defaultTemperatureFor(c.modelName)
	if reasoningEffortFor(c.generation.Thinking) != "" {
		temperature = 1.0
	}
	if c.generation.Temperature != nil {
		temperature = *c.generation.Temperature
	}
	params.Temperature = sdk.Float(temperature)

	if c.generation.MaxOutputTokens != nil {
		params.MaxTokens = sdk.Int(int64(*c.generation.MaxOutputTokens))
	}

	if len(tools) > 0 {
		requestOpts = append(requestOpts, option.WithJSONSet("tools", toolsToKimi(tools)))
	}
	if effort := reasoningEffortFor(c.generation.Thinking); effort != "" {
		requestOpts = append(requestOpts, option.WithJSONSet("reasoning_effort", effort))
	}

	stream := c.sdkClient.Chat.Completions.NewStreaming(ctx, params, requestOpts...)
	return openai.NewLegacyStream(stream), nil
}
