package openai

import (
	"context"
	"encoding/json"
	"io"

	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/packages/ssestream"

	"github.com/MoonshotAI/kosong/chat"
	"github.com/MoonshotAI/kosong/internal/logging"
	"github.com/MoonshotAI/kosong/provider"
)

// generateLegacy starts a Chat Completions streaming turn, grounded on
// llm/openai/openai.go's messageStreamChatCompletions, simplified to
// emit chat.StreamedMessagePart fragments directly rather than
// accumulating them into strings.Builders itself — merging fragments
// across chunks is the streaming merge pipeline's job now (package
// kosong, generate.go), not the adapter's.
func (c *Client) generateLegacy(ctx context.Context, systemPrompt string, tools []chat.Tool, history []chat.Message) (provider.StreamedMessage, error) {
	var messages []sdk.ChatCompletionMessageParamUnion
	if systemPrompt != "" {
		messages = append(messages, sdk.SystemMessage(systemPrompt))
	}
	converted, err := MessagesToOpenAI(history)
	if err != nil {
		return nil, &provider.ChatProviderError{Provider: "openai", Message: err.Error()}
	}
	messages = append(messages, converted...)

	params := sdk.ChatCompletionNewParams{
		Messages: messages,
		Model:    c.modelName,
		StreamOptions: sdk.ChatCompletionStreamOptionsParam{
			IncludeUsage: param.NewOpt(true),
		},
	}

	if len(tools) > 0 {
		params.Tools = make([]sdk.ChatCompletionToolParam, len(tools))
		for i, t := range tools {
			params.Tools[i] = ToolToOpenAI(t)
		}
	}

	if c.generation.Temperature != nil && !isNoTemperatureModel(c.modelName) {
		params.Temperature = sdk.Float(*c.generation.Temperature)
	}
	if c.generation.MaxOutputTokens != nil {
		params.MaxCompletionTokens = sdk.Int(int64(*c.generation.MaxOutputTokens))
	}

	stream := c.sdkClient.Chat.Completions.NewStreaming(ctx, params)
	return &LegacyStream{stream: stream}, nil
}

// LegacyStream decodes a Chat Completions SSE stream into
// chat.StreamedMessageParts, one call to Next per emitted fragment. A
// single wire chunk can contain both a content delta and a tool-call
// delta, so Next buffers any extra fragments produced by one chunk and
// drains them before reading the next chunk from the wire.
//
// Exported so provider/kimi, which is Chat Completions-wire-compatible,
// can decode its own stream through the same decoder rather than
// duplicating it.
type LegacyStream struct {
	stream  *ssestream.Stream[sdk.ChatCompletionChunk]
	id      string
	usage   *chat.TokenUsage
	pending []chat.StreamedMessagePart
}

// NewLegacyStream wraps a raw Chat Completions SSE stream as a
// provider.StreamedMessage.
func NewLegacyStream(stream *ssestream.Stream[sdk.ChatCompletionChunk]) *LegacyStream {
	return &LegacyStream{stream: stream}
}

var _ provider.StreamedMessage = (*LegacyStream)(nil)

func (s *LegacyStream) ID() string             { return s.id }
func (s *LegacyStream) Usage() *chat.TokenUsage { return s.usage }

func (s *LegacyStream) Next(ctx context.Context) (chat.StreamedMessagePart, error) {
	for {
		if len(s.pending) > 0 {
			part := s.pending[0]
			s.pending = s.pending[1:]
			return part, nil
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if !s.stream.Next() {
			if err := s.stream.Err(); err != nil {
				return nil, &provider.APIConnectionError{Provider: "openai", Err: err}
			}
			return nil, io.EOF
		}

		chunk := s.stream.Current()
		if s.id == "" && chunk.ID != "" {
			s.id = chunk.ID
		}
		if chunk.JSON.Usage.Valid() {
			s.usage = &chat.TokenUsage{
				Input:  int(chunk.Usage.PromptTokens),
				Output: int(chunk.Usage.CompletionTokens),
			}
		}

		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta

		if reasoning := extractReasoningDelta(delta); reasoning != "" {
			s.pending = append(s.pending, &chat.ThinkPart{Think: reasoning})
		}

		for _, tc := range delta.ToolCalls {
			if tc.ID != "" {
				s.pending = append(s.pending, &chat.ToolCall{
					ID: tc.ID,
					Function: chat.FunctionBody{
						Name:      tc.Function.Name,
						Arguments: tc.Function.Arguments,
					},
				})
				continue
			}
			if tc.Function.Arguments != "" {
				s.pending = append(s.pending, &chat.ToolCallPart{ArgumentsPart: tc.Function.Arguments})
			}
		}

		if delta.Content != "" {
			s.pending = append(s.pending, &chat.TextPart{Text: delta.Content})
		}

		logging.Logger().Debug("openai chat completions chunk", "id", chunk.ID, "choices", len(chunk.Choices))
	}
}

// extractReasoningDelta looks for a reasoning_content-shaped field
// among a delta's extra fields, since different OpenAI-compatible
// backends (and Kimi) use different field names for the same concept,
// mirroring the teacher's reasoningFieldNames probe in openai.go.
func extractReasoningDelta(delta sdk.ChatCompletionChunkChoiceDelta) string {
	for _, name := range []string{"reasoning_content", "reasoning", "thinking_content", "thinking"} {
		field, ok := delta.JSON.ExtraFields[name]
		if !ok || !field.Valid() {
			continue
		}
		var text string
		if err := json.Unmarshal([]byte(field.Raw()), &text); err == nil {
			return text
		}
	}
	return ""
}
