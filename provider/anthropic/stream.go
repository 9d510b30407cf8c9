package anthropic

import (
	"context"
	"encoding/json"
	"io"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"

	"github.com/MoonshotAI/kosong/chat"
	"github.com/MoonshotAI/kosong/internal/logging"
	"github.com/MoonshotAI/kosong/provider"
)

// anthropicStream decodes a Messages API SSE stream into
// chat.StreamedMessageParts, grounded on llm/claude/claude.go's event
// switch (message_start/content_block_start/content_block_delta/
// content_block_stop/message_delta/message_stop), simplified to emit
// fragments directly instead of accumulating them into
// strings.Builders itself: merging fragments across events is the
// streaming merge pipeline's job now (package kosong, generate.go).
//
// A tool_use content block's Input arrives in two possible shapes: a
// content_block_start whose ContentBlock.Input is already fully
// populated (seen with some models), or a content_block_start with no
// input followed by one or more input_json_delta fragments. Either way
// the first chat.ToolCall this stream emits carries whatever input was
// present at block-start, and any input_json_delta after it becomes a
// chat.ToolCallPart the merge pipeline appends by concatenation.
type anthropicStream struct {
	stream  *ssestream.Stream[sdk.MessageStreamEventUnion]
	id      string
	usage   *chat.TokenUsage
	pending []chat.StreamedMessagePart

	inThinking bool
	thinking   string
}

var _ provider.StreamedMessage = (*anthropicStream)(nil)

func (s *anthropicStream) ID() string             { return s.id }
func (s *anthropicStream) Usage() *chat.TokenUsage { return s.usage }

func (s *anthropicStream) Next(ctx context.Context) (chat.StreamedMessagePart, error) {
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
				return nil, &provider.APIConnectionError{Provider: "anthropic", Err: err}
			}
			return nil, io.EOF
		}

		event := s.stream.Current()
		logging.Logger().Debug("anthropic stream event", "type", event.Type)

		switch event.Type {
		case "message_start":
			if event.Message.ID != "" {
				s.id = event.Message.ID
			}

		case "content_block_start":
			switch event.ContentBlock.Type {
			case "thinking":
				s.inThinking = true
			case "redacted_thinking":
				s.pending = append(s.pending, &chat.ThinkPart{Encrypted: event.ContentBlock.Data})
			case "tool_use":
				var args json.RawMessage
				if len(event.ContentBlock.Input) > 0 {
					if b, err := json.Marshal(event.ContentBlock.Input); err == nil {
						args = b
					}
				}
				s.pending = append(s.pending, &chat.ToolCall{
					ID: event.ContentBlock.ID,
					Function: chat.FunctionBody{
						Name:      event.ContentBlock.Name,
						Arguments: string(args),
					},
				})
			}

		case "content_block_delta":
			switch event.Delta.Type {
			case "text_delta":
				if event.Delta.Text != "" {
					s.pending = append(s.pending, &chat.TextPart{Text: event.Delta.Text})
				}
			case "thinking_delta":
				if event.Delta.Thinking != "" {
					s.pending = append(s.pending, &chat.ThinkPart{Think: event.Delta.Thinking})
				}
			case "signature_delta":
				if event.Delta.Signature != "" {
					s.pending = append(s.pending, &chat.ThinkPart{Encrypted: event.Delta.Signature})
				}
			case "input_json_delta":
				if event.Delta.PartialJSON != "" {
					s.pending = append(s.pending, &chat.ToolCallPart{ArgumentsPart: event.Delta.PartialJSON})
				}
			}

		case "content_block_stop":
			s.inThinking = false

		case "message_delta":
			if event.Usage.InputTokens > 0 || event.Usage.OutputTokens > 0 {
				usage := chat.TokenUsage{
					Input:  int(event.Usage.InputTokens),
					Output: int(event.Usage.OutputTokens),
				}
				s.usage = &usage
			}

		case "message_stop":
			// nothing further to decode; the next stream.Next() call
			// returns false and Next reports io.EOF.
		}
	}
}
