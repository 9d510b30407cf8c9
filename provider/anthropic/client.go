// Package anthropic adapts Anthropic's Messages API to the
// provider.Provider interface, grounded on llm/claude/client.go and
// llm/claude/claude.go but, like provider/openai, restricted to
// streaming one turn: no adapter in this module calls tools itself
// (see SPEC_FULL.md §8's "structural departure from the teacher").
package anthropic

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/MoonshotAI/kosong/chat"
	"github.com/MoonshotAI/kosong/provider"
)

const AnthropicURL = "https://api.anthropic.com/v1"

// Client adapts Anthropic's Messages API to provider.Provider.
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
		return nil, fmt.Errorf("anthropic: WithModel is required")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic: an API key is required")
	}

	sdkOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if httpClient != nil {
		sdkOpts = append(sdkOpts, option.WithHTTPClient(httpClient))
	}
	if apiBase != "" && apiBase != AnthropicURL {
		sdkOpts = append(sdkOpts, option.WithBaseURL(apiBase))
	}
	c.sdkClient = sdk.NewClient(sdkOpts...)
	return c, nil
}

func (c *Client) Name() string      { return "anthropic" }
func (c *Client) ModelName() string { return c.modelName }

func (c *Client) WithGenerationOptions(opts provider.GenerationOptions) provider.Provider {
	cp := *c
	cp.generation = opts
	return &cp
}

// maxOutputTokensFor returns the output ceiling for a Claude model,
// since Claude's MessageNewParams.MaxTokens is a required field with no
// usable default, mirroring getModelMaxTokens's prefix table.
func maxOutputTokensFor(model string) int64 {
	m := strings.ToLower(model)
	switch {
	case strings.HasPrefix(m, "claude-opus-4"):
		return 32000
	case strings.HasPrefix(m, "claude-sonnet-4"):
		return 64000
	case strings.HasPrefix(m, "claude-3-7-sonnet"):
		return 64000
	case strings.HasPrefix(m, "claude-3-5-haiku"):
		return 8192
	case strings.HasPrefix(m, "claude-3-haiku"):
		return 4096
	default:
		return 8192
	}
}

// thinkingBudgetFor maps the provider-agnostic effort dial onto
// Claude's extended-thinking token budget, per spec §4.3's effort table.
func thinkingBudgetFor(effort provider.ThinkingEffort) int64 {
	switch effort {
	case provider.ThinkingLow:
		return 1024
	case provider.ThinkingMedium:
		return 4096
	case provider.ThinkingHigh:
		return 32000
	default:
		return 0
	}
}

// Generate starts one Messages API streaming turn.
func (c *Client) Generate(ctx context.Context, systemPrompt string, tools []chat.Tool, history []chat.Message) (provider.StreamedMessage, error) {
	msgs, err := messagesToAnthropic(history)
	if err != nil {
		return nil, &provider.ChatProviderError{Provider: "anthropic", Message: err.Error()}
	}

	params := sdk.MessageNewParams{
		Messages:  msgs,
		Model:     sdk.Model(c.modelName),
		MaxTokens: maxOutputTokensFor(c.modelName),
	}

	if systemPrompt != "" {
		params.System = []sdk.TextBlockParam{{
			Text:         systemPrompt,
			CacheControl: sdk.NewCacheControlEphemeralParam(),
		}}
	}

	if len(tools) > 0 {
		toolParams := make([]sdk.ToolUnionParam, len(tools))
		for i, t := range tools {
			tp, err := toolToAnthropic(t)
			if err != nil {
				return nil, &provider.ChatProviderError{Provider: "anthropic", Message: err.Error()}
			}
			toolParams[i] = tp
		}
		// A cache breakpoint on the last tool definition caches the
		// whole tools block, same convention as the system prompt and
		// the last history block.
		if last := toolParams[len(toolParams)-1]; last.OfTool != nil {
			last.OfTool.CacheControl = sdk.NewCacheControlEphemeralParam()
		}
		params.Tools = toolParams
	}

	if c.generation.Temperature != nil {
		params.Temperature = sdk.Float(*c.generation.Temperature)
	}
	if c.generation.MaxOutputTokens != nil {
		params.MaxTokens = int64(*c.generation.MaxOutputTokens)
	}
	if budget := thinkingBudgetFor(c.generation.Thinking); budget > 0 {
		params.Thinking = sdk.ThinkingConfigParamUnion{
			OfEnabled: &sdk.ThinkingConfigEnabledParam{BudgetTokens: budget},
		}
	}

	stream := c.sdkClient.Messages.NewStreaming(ctx, params)
	return &anthropicStream{stream: stream}, nil
}
