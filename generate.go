// Package kosong unifies chat generation across OpenAI, Anthropic,
// Gemini, and Kimi behind one provider.Provider seam: Generate merges
// one provider's streamed parts into a complete Message, and Step
// layers tool dispatch on top via a convo.Context. Grounded on
// original_source/src/kosong/_generate.py and __init__.py.
package kosong

import (
	"context"
	"errors"
	"io"

	"github.com/MoonshotAI/kosong/chat"
	"github.com/MoonshotAI/kosong/internal/logging"
	"github.com/MoonshotAI/kosong/provider"
)

// messageBuilder accumulates the content parts and tool calls flushed
// out of the merge pipeline, the Go analogue of _generate.py's
// _MessageBuilder.
type messageBuilder struct {
	contentParts []chat.ContentPart
	toolCalls    []chat.ToolCall
}

// append routes a flushed part to its slot, discarding anything that's
// neither a ContentPart nor a *chat.ToolCall (an orphaned ToolCallPart
// with no preceding ToolCall: one that starts the stream or follows a
// content part becomes the pending part and is flushed here like any
// other, and is dropped).
func (b *messageBuilder) append(part chat.StreamedMessagePart) {
	switch p := part.(type) {
	case chat.ContentPart:
		b.contentParts = append(b.contentParts, p)
	case *chat.ToolCall:
		b.toolCalls = append(b.toolCalls, *p)
	}
}

func (b *messageBuilder) isEmpty() bool {
	return len(b.contentParts) == 0 && len(b.toolCalls) == 0
}

func (b *messageBuilder) build() chat.Message {
	return chat.Message{
		Role:      chat.AssistantRole,
		Content:   b.contentParts,
		ToolCalls: b.toolCalls,
	}
}

// GenerateOption configures a Generate call with optional streaming
// callbacks.
type GenerateOption func(*generateConfig)

type generateConfig struct {
	onMessagePart func(chat.StreamedMessagePart)
	onToolCall    func(chat.ToolCall)
}

// WithOnMessagePart registers a callback invoked with a copy of every
// raw part as it arrives off the stream, before merging.
func WithOnMessagePart(fn func(chat.StreamedMessagePart)) GenerateOption {
	return func(c *generateConfig) { c.onMessagePart = fn }
}

// WithOnToolCall registers a callback invoked once per complete tool
// call, exactly when it is flushed out of the merge pipeline.
func WithOnToolCall(fn func(chat.ToolCall)) GenerateOption {
	return func(c *generateConfig) { c.onToolCall = fn }
}

// Generate runs one model turn against p, merging its streamed parts
// into a complete chat.GenerateResult.
//
// The merge keeps a single pending part: each incoming part is first
// offered to pending via MergeInPlace; on success it's absorbed, on
// failure pending is flushed (appended to the result, firing
// onToolCall if it was a tool call) and the new part becomes pending.
// The same flush happens once more at end of stream.
func Generate(ctx context.Context, p provider.Provider, systemPrompt string, tools []chat.Tool, history []chat.Message, opts ...GenerateOption) (chat.GenerateResult, error) {
	cfg := generateConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	var builder messageBuilder
	var pending chat.StreamedMessagePart

	logging.Logger().Debug("generating", "provider", p.Name(), "model", p.ModelName(), "history_len", len(history))

	stream, err := p.Generate(ctx, systemPrompt, tools, history)
	if err != nil {
		return chat.GenerateResult{}, err
	}

	flush := func(part chat.StreamedMessagePart) {
		builder.append(part)
		if tc, ok := part.(*chat.ToolCall); ok && cfg.onToolCall != nil {
			cfg.onToolCall(*tc)
		}
	}

	for {
		part, err := stream.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return chat.GenerateResult{}, err
		}

		logging.Logger().Debug("received part", "type", partType(part))
		if cfg.onMessagePart != nil {
			cfg.onMessagePart(clonePart(part))
		}

		switch {
		case pending == nil:
			pending = part
		case !pending.MergeInPlace(part):
			flush(pending)
			pending = part
		}
	}

	if pending != nil {
		flush(pending)
	}

	if builder.isEmpty() {
		return chat.GenerateResult{}, &provider.APIEmptyResponseError{Provider: p.Name()}
	}

	return chat.GenerateResult{
		ID:      stream.ID(),
		Message: builder.build(),
		Usage:   stream.Usage(),
	}, nil
}

func partType(part chat.StreamedMessagePart) string {
	if cp, ok := part.(chat.ContentPart); ok {
		return cp.Type()
	}
	switch part.(type) {
	case *chat.ToolCall:
		return "tool_call"
	case *chat.ToolCallPart:
		return "tool_call_part"
	default:
		return "unknown"
	}
}

// clonePart returns a shallow value copy of part behind a fresh
// pointer, so a callback can hold onto it safely while the merge
// pipeline keeps mutating the same part in place (the Go analogue of
// the original's part.model_copy(deep=True)). Merging only changes
// string fields, which the copy owns; a ToolCall's Extras map and a
// RawContentPart's Raw bytes are still shared with the original.
func clonePart(part chat.StreamedMessagePart) chat.StreamedMessagePart {
	switch p := part.(type) {
	case *chat.TextPart:
		cp := *p
		return &cp
	case *chat.ThinkPart:
		cp := *p
		return &cp
	case *chat.ImageURLPart:
		cp := *p
		return &cp
	case *chat.AudioURLPart:
		cp := *p
		return &cp
	case *chat.RawContentPart:
		cp := *p
		return &cp
	case *chat.ToolCall:
		cp := *p
		return &cp
	case *chat.ToolCallPart:
		cp := *p
		return &cp
	default:
		return part
	}
}
