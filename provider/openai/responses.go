package openai

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/packages/ssestream"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"

	"github.com/MoonshotAI/kosong/chat"
	"github.com/MoonshotAI/kosong/internal/logging"
	"github.com/MoonshotAI/kosong/provider"
)

// generateResponses starts a Responses API streaming turn. Grounded on
// llm/openai/openai.go's messageStreamResponses for the SSE event-type
// switch, and on original_source/.../openai_responses.py's
// message_to_openai for the exact input-item shapes, since the
// teacher's Responses path predates the canonical content-part model
// and only its event *names* are reliable grounding here, not its
// payload shapes. store=false is always set, matching the original's
// generate().
func (c *Client) generateResponses(ctx context.Context, systemPrompt string, tools []chat.Tool, history []chat.Message) (provider.StreamedMessage, error) {
	var input []responses.ResponseInputItemUnionParam
	if systemPrompt != "" {
		input = append(input, responses.ResponseInputItemUnionParam{
			OfMessage: &responses.EasyInputMessageParam{
				Role:    responses.EasyInputMessageRoleSystem,
				Content: responses.EasyInputMessageContentUnionParam{OfString: param.NewOpt(systemPrompt)},
			},
		})
	}
	for i, m := range history {
		items, err := messageToResponsesInput(m)
		if err != nil {
			return nil, &provider.ChatProviderError{Provider: "openai", Message: fmt.Sprintf("converting message %d: %s", i, err)}
		}
		input = append(input, items...)
	}

	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(c.modelName),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: responses.ResponseInputParam(input),
		},
		Store: param.NewOpt(false),
	}
	if len(tools) > 0 {
		params.Tools = make([]responses.ToolUnionParam, len(tools))
		for i, t := range tools {
			params.Tools[i] = toolToResponses(t)
		}
	}
	if c.generation.Temperature != nil {
		params.Temperature = param.NewOpt(*c.generation.Temperature)
	}
	if c.generation.MaxOutputTokens != nil {
		params.MaxOutputTokens = param.NewOpt(int64(*c.generation.MaxOutputTokens))
	}
	switch c.generation.Thinking {
	case provider.ThinkingLow, provider.ThinkingMedium, provider.ThinkingHigh:
		params.Reasoning = shared.ReasoningParam{Effort: shared.ReasoningEffort(c.generation.Thinking)}
	}

	stream := c.sdkClient.Responses.NewStreaming(ctx, params)
	return &responsesStream{stream: stream}, nil
}

// toolToResponses converts a canonical tool definition to the
// Responses API's flat (non-nested) function tool shape, grounded on
// openai_responses.py's tool_to_openai.
func toolToResponses(t chat.Tool) responses.ToolUnionParam {
	params := shared.FunctionParameters(t.Parameters)
	if params == nil {
		params = shared.FunctionParameters{"type": "object", "properties": map[string]any{}}
	}
	return responses.ToolUnionParam{
		OfFunction: &responses.FunctionToolParam{
			Name:       t.Name,
			Parameters: params,
			Strict:     param.NewOpt(false),
		},
	}
}

// messageToResponsesInput converts one canonical message to zero or
// more Responses input items, grounded on openai_responses.py's
// message_to_openai:
//   - a tool-role message becomes one function_call_output item
//   - every other role becomes zero or more message items, split at
//     ThinkPart boundaries, plus one function_call item per tool call
func messageToResponsesInput(m chat.Message) ([]responses.ResponseInputItemUnionParam, error) {
	if m.Role == chat.ToolRole {
		return []responses.ResponseInputItemUnionParam{functionCallOutputItem(m)}, nil
	}

	role := easyInputRole(m.Role)
	var out []responses.ResponseInputItemUnionParam

	var pending []chat.ContentPart
	flush := func() {
		if len(pending) == 0 {
			return
		}
		if m.Role == chat.AssistantRole {
			out = append(out, responses.ResponseInputItemUnionParam{
				OfOutputMessage: &responses.ResponseOutputMessageParam{
					Role:    responses.ResponseOutputMessageRoleAssistant,
					Content: contentPartsToOutputItems(pending),
				},
			})
		} else {
			out = append(out, responses.ResponseInputItemUnionParam{
				OfMessage: &responses.EasyInputMessageParam{
					Role:    role,
					Content: responses.EasyInputMessageContentUnionParam{OfInputItemContentList: contentPartsToInputItems(pending)},
				},
			})
		}
		pending = nil
	}

	for i := 0; i < len(m.Content); {
		think, ok := m.Content[i].(*chat.ThinkPart)
		if !ok {
			pending = append(pending, m.Content[i])
			i++
			continue
		}
		flush()

		encrypted := think.Encrypted
		var summaries []responses.ResponseReasoningItemSummaryParam
		summaries = append(summaries, responses.ResponseReasoningItemSummaryParam{Text: think.Think})
		i++
		for i < len(m.Content) {
			next, ok := m.Content[i].(*chat.ThinkPart)
			if !ok || next.Encrypted != encrypted {
				break
			}
			summaries = append(summaries, responses.ResponseReasoningItemSummaryParam{Text: next.Think})
			i++
		}
		out = append(out, responses.ResponseInputItemUnionParam{
			OfReasoning: &responses.ResponseReasoningItemParam{
				Summary:          summaries,
				EncryptedContent: param.NewOpt(encrypted),
			},
		})
	}
	flush()

	for _, tc := range m.ToolCalls {
		args := tc.Function.Arguments
		if args == "" {
			args = "{}"
		}
		out = append(out, responses.ResponseInputItemUnionParam{
			OfFunctionCall: &responses.ResponseFunctionToolCallParam{
				CallID:    tc.ID,
				Name:      tc.Function.Name,
				Arguments: args,
			},
		})
	}

	return out, nil
}

// easyInputRole maps a canonical role onto the Responses EasyInputMessage
// role enum; system/developer both map straight through since the
// Responses API models them as distinct roles, same as Chat Completions.
func easyInputRole(role chat.Role) responses.EasyInputMessageRole {
	switch role {
	case chat.SystemRole:
		return responses.EasyInputMessageRoleSystem
	case chat.DeveloperRole:
		return responses.EasyInputMessageRoleDeveloper
	case chat.AssistantRole:
		return responses.EasyInputMessageRoleAssistant
	default:
		return responses.EasyInputMessageRoleUser
	}
}

// functionCallOutputItem converts a tool-role message to a
// function_call_output item: a plain string output for the common
// text-only case, or a list of input_text/input_image/input_file items
// once the tool result carries other content, per
// _content_parts_to_function_output_items.
func functionCallOutputItem(m chat.Message) responses.ResponseInputItemUnionParam {
	item := &responses.ResponseFunctionCallOutputParam{CallID: m.ToolCallID}

	if textOnly(m.Content) {
		text := joinText(m.Content)
		if text == "" {
			text = "{}"
		}
		item.Output = responses.ResponseFunctionCallOutputItemOutputUnionParam{OfString: param.NewOpt(text)}
	} else {
		var items []responses.ResponseFunctionCallOutputItemUnionParam
		for _, part := range m.Content {
			switch p := part.(type) {
			case *chat.TextPart:
				if p.Text == "" {
					continue
				}
				items = append(items, responses.ResponseFunctionCallOutputItemUnionParam{
					OfInputText: &responses.ResponseInputTextParam{Text: p.Text},
				})
			case *chat.ImageURLPart:
				items = append(items, responses.ResponseFunctionCallOutputItemUnionParam{
					OfInputImage: &responses.ResponseInputImageParam{ImageURL: param.NewOpt(p.ImageURL.URL)},
				})
			case *chat.AudioURLPart:
				if f := audioURLToFileContent(p.AudioURL.URL); f != nil {
					items = append(items, *f)
				}
			default:
				continue
			}
		}
		item.Output = responses.ResponseFunctionCallOutputItemOutputUnionParam{OfInputItemContentList: items}
	}

	return responses.ResponseInputItemUnionParam{OfFunctionCallOutput: item}
}

// contentPartsToInputItems converts content parts destined for a
// non-assistant message into Responses input_text/input_image/
// input_audio/input_file items, per _content_parts_to_input_items.
func contentPartsToInputItems(parts []chat.ContentPart) []responses.ResponseInputContentUnionParam {
	var out []responses.ResponseInputContentUnionParam
	for _, part := range parts {
		switch p := part.(type) {
		case *chat.TextPart:
			if p.Text == "" {
				continue
			}
			out = append(out, responses.ResponseInputContentUnionParam{
				OfInputText: &responses.ResponseInputTextParam{Text: p.Text},
			})
		case *chat.ImageURLPart:
			out = append(out, responses.ResponseInputContentUnionParam{
				OfInputImage: &responses.ResponseInputImageParam{
					Detail:   responses.ResponseInputImageDetailAuto,
					ImageURL: param.NewOpt(p.ImageURL.URL),
				},
			})
		case *chat.AudioURLPart:
			if item := audioURLToInputItem(p.AudioURL.URL); item != nil {
				out = append(out, *item)
			}
		default:
			continue
		}
	}
	return out
}

// contentPartsToOutputItems converts content parts destined for an
// assistant (output) message into output_text items, per
// _content_parts_to_output_items: everything but text is dropped,
// since Responses only ever generated text or a separate reasoning
// item for what this adapter re-encodes.
func contentPartsToOutputItems(parts []chat.ContentPart) []responses.ResponseOutputMessageContentUnionParam {
	var out []responses.ResponseOutputMessageContentUnionParam
	for _, part := range parts {
		t, ok := part.(*chat.TextPart)
		if !ok || t.Text == "" {
			continue
		}
		out = append(out, responses.ResponseOutputMessageContentUnionParam{
			OfOutputText: &responses.ResponseOutputTextParam{Text: t.Text},
		})
	}
	return out
}

// audioURLToInputItem maps an audio URL/data URI to an input_audio or
// input_file content item, per _map_audio_url_to_input_item: a
// data:audio/{mp3,mpeg,wav} URI becomes input_audio, an http(s) URL
// becomes an input_file reference. Anything else is dropped.
func audioURLToInputItem(url string) *responses.ResponseInputContentUnionParam {
	if rest, ok := strings.CutPrefix(url, "data:audio/"); ok {
		subtype, b64, ok := strings.Cut(rest, ";base64,")
		if !ok {
			return nil
		}
		format := ""
		switch strings.ToLower(subtype) {
		case "mp3", "mpeg":
			format = "mp3"
		case "wav":
			format = "wav"
		}
		if format == "" {
			return nil
		}
		return &responses.ResponseInputContentUnionParam{
			OfInputAudio: &responses.ResponseInputAudioParam{
				InputAudio: responses.ResponseInputAudioInputAudioParam{Data: b64, Format: format},
			},
		}
	}
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return &responses.ResponseInputContentUnionParam{
			OfInputFile: &responses.ResponseInputFileParam{FileURL: param.NewOpt(url)},
		}
	}
	return nil
}

// audioURLToFileContent mirrors audioURLToInputItem for a
// function_call_output item, per _map_audio_url_to_file_content: the
// data: URI case attaches raw file_data instead of input_audio, since
// function_call_output only accepts file/image/text content.
func audioURLToFileContent(url string) *responses.ResponseFunctionCallOutputItemUnionParam {
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return &responses.ResponseFunctionCallOutputItemUnionParam{
			OfInputFile: &responses.ResponseInputFileParam{FileURL: param.NewOpt(url)},
		}
	}
	if rest, ok := strings.CutPrefix(url, "data:audio/"); ok {
		_, b64, ok := strings.Cut(rest, ";base64,")
		if !ok {
			return nil
		}
		return &responses.ResponseFunctionCallOutputItemUnionParam{
			OfInputFile: &responses.ResponseInputFileParam{FileData: param.NewOpt(b64)},
		}
	}
	return nil
}

type responsesStream struct {
	stream  *ssestream.Stream[responses.ResponseStreamEventUnion]
	id      string
	usage   *chat.TokenUsage
	pending []chat.StreamedMessagePart
}

var _ provider.StreamedMessage = (*responsesStream)(nil)

func (s *responsesStream) ID() string             { return s.id }
func (s *responsesStream) Usage() *chat.TokenUsage { return s.usage }

func (s *responsesStream) Next(ctx context.Context) (chat.StreamedMessagePart, error) {
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

		event := s.stream.Current()
		logging.Logger().Debug("openai responses event", "type", event.Type)

		switch event.Type {
		case "response.reasoning_summary_text.delta", "response.reasoning.delta":
			if event.Delta.OfString != "" {
				s.pending = append(s.pending, &chat.ThinkPart{Think: event.Delta.OfString})
			}
		case "response.output_text.delta":
			if event.Delta.OfString != "" {
				s.pending = append(s.pending, &chat.TextPart{Text: event.Delta.OfString})
			}
		case "response.function_call_arguments.delta":
			if event.Delta.OfString != "" {
				s.pending = append(s.pending, &chat.ToolCallPart{ArgumentsPart: event.Delta.OfString})
			}
		case "response.output_item.added":
			if fc := event.Item.AsFunctionCall(); fc.CallID != "" {
				s.pending = append(s.pending, &chat.ToolCall{
					ID:       fc.CallID,
					Function: chat.FunctionBody{Name: fc.Name},
				})
			}
		case "response.output_item.done":
			if r := event.Item.AsReasoning(); r.EncryptedContent != "" {
				s.pending = append(s.pending, &chat.ThinkPart{Encrypted: r.EncryptedContent})
			}
		case "response.completed":
			if event.JSON.Response.Valid() && event.Response.JSON.Usage.Valid() {
				s.usage = &chat.TokenUsage{
					Input:  int(event.Response.Usage.InputTokens),
					Output: int(event.Response.Usage.OutputTokens),
				}
			}
			if event.Response.ID != "" {
				s.id = event.Response.ID
			}
		}
	}
}
