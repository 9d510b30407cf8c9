package openai

import (
	"fmt"
	"strings"

	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/MoonshotAI/kosong/chat"
)

// MessageToOpenAI converts one canonical Message into the OpenAI
// Chat Completions wire shape. Every role converts to exactly one
// ChatCompletionMessageParamUnion; a tool message becomes one "tool"
// message carrying its ToolCallID and all of its content (generalized from
// llm/openai/converter.go's MessageToOpenAI, adapted to the
// []chat.ContentPart canonical form).
func MessageToOpenAI(msg chat.Message) ([]sdk.ChatCompletionMessageParamUnion, error) {
	switch msg.Role {
	case chat.SystemRole, chat.DeveloperRole:
		text := msg.Text()
		if text == "" {
			return nil, fmt.Errorf("openai: system message has no text content")
		}
		return []sdk.ChatCompletionMessageParamUnion{sdk.SystemMessage(text)}, nil

	case chat.UserRole:
		content, err := userContentUnion(msg.Content)
		if err != nil {
			return nil, err
		}
		return []sdk.ChatCompletionMessageParamUnion{{
			OfUser: &sdk.ChatCompletionUserMessageParam{Content: content},
		}}, nil

	case chat.AssistantRole:
		assistant := sdk.ChatCompletionAssistantMessageParam{}
		if text := msg.Text(); text != "" {
			assistant.Content.OfString = param.NewOpt(text)
		}
		if len(msg.ToolCalls) > 0 {
			assistant.ToolCalls = make([]sdk.ChatCompletionMessageToolCallParam, len(msg.ToolCalls))
			for i, tc := range msg.ToolCalls {
				assistant.ToolCalls[i] = sdk.ChatCompletionMessageToolCallParam{
					ID: tc.ID,
					Function: sdk.ChatCompletionMessageToolCallFunctionParam{
						Name:      tc.Function.Name,
						Arguments: tc.Function.Arguments,
					},
				}
			}
		}
		if assistant.Content.OfString.Value == "" && len(assistant.ToolCalls) == 0 {
			return nil, fmt.Errorf("openai: assistant message has no valid content")
		}
		return []sdk.ChatCompletionMessageParamUnion{{OfAssistant: &assistant}}, nil

	case chat.ToolRole:
		if msg.ToolCallID == "" {
			return nil, fmt.Errorf("openai: tool message missing tool_call_id")
		}
		content, err := toolContentUnion(msg.Content)
		if err != nil {
			return nil, err
		}
		return []sdk.ChatCompletionMessageParamUnion{{
			OfTool: &sdk.ChatCompletionToolMessageParam{
				Content:    content,
				ToolCallID: msg.ToolCallID,
			},
		}}, nil

	default:
		return nil, fmt.Errorf("openai: unknown message role: %s", msg.Role)
	}
}

// MessagesToOpenAI converts an entire history, expanding each message
// into zero or more wire messages in order.
func MessagesToOpenAI(history []chat.Message) ([]sdk.ChatCompletionMessageParamUnion, error) {
	var out []sdk.ChatCompletionMessageParamUnion
	for i, m := range history {
		converted, err := MessageToOpenAI(m)
		if err != nil {
			return nil, fmt.Errorf("openai: converting message %d: %w", i, err)
		}
		out = append(out, converted...)
	}
	return out, nil
}

// ReasoningText concatenates every ThinkPart's text in a message's
// content. The Chat Completions wire shape has no reasoning field of
// its own; adapters like Kimi that expose one under a provider-specific
// key (e.g. reasoning_content) use this to fill it in rather than
// letting it silently drop.
func ReasoningText(parts []chat.ContentPart) string {
	var sb strings.Builder
	for _, p := range parts {
		if t, ok := p.(*chat.ThinkPart); ok {
			sb.WriteString(t.Think)
		}
	}
	return sb.String()
}

// userContentUnion builds a user message's content union: a bare
// string when the message carries only text (the common case, and the
// shape every non-multimodal endpoint expects), or a list of typed
// content parts once an image or audio part is present, per spec
// §4.4.1's "raw string or list of {type,...} objects" content rule.
func userContentUnion(parts []chat.ContentPart) (sdk.ChatCompletionUserMessageParamContentUnion, error) {
	if textOnly(parts) {
		text := joinText(parts)
		if text == "" {
			return sdk.ChatCompletionUserMessageParamContentUnion{}, fmt.Errorf("openai: user message has no content")
		}
		return sdk.ChatCompletionUserMessageParamContentUnion{OfString: param.NewOpt(text)}, nil
	}

	items, err := contentPartsToOpenAI(parts)
	if err != nil {
		return sdk.ChatCompletionUserMessageParamContentUnion{}, err
	}
	if len(items) == 0 {
		return sdk.ChatCompletionUserMessageParamContentUnion{}, fmt.Errorf("openai: user message has no content")
	}
	return sdk.ChatCompletionUserMessageParamContentUnion{OfArrayOfContentParts: items}, nil
}

// toolContentUnion mirrors userContentUnion for a tool result: a bare
// string for the common text-only case (empty becomes "{}", since
// OpenAI rejects an empty content string), or a content-parts list once
// the tool attached an image or audio part rather than dropping it.
func toolContentUnion(parts []chat.ContentPart) (sdk.ChatCompletionToolMessageParamContentUnion, error) {
	if textOnly(parts) {
		text := joinText(parts)
		if text == "" {
			text = "{}"
		}
		return sdk.ChatCompletionToolMessageParamContentUnion{OfString: param.NewOpt(text)}, nil
	}

	items, err := contentPartsToOpenAI(parts)
	if err != nil {
		return sdk.ChatCompletionToolMessageParamContentUnion{}, err
	}
	if len(items) == 0 {
		return sdk.ChatCompletionToolMessageParamContentUnion{OfString: param.NewOpt("{}")}, nil
	}
	return sdk.ChatCompletionToolMessageParamContentUnion{OfArrayOfContentParts: items}, nil
}

// textOnly reports whether content holds nothing but TextParts and
// ThinkParts (signed or not; ThinkParts have no wire representation of
// their own here and are dropped either way), letting the common case
// serialize as a plain string instead of a content-parts list.
func textOnly(parts []chat.ContentPart) bool {
	for _, p := range parts {
		switch p.(type) {
		case *chat.TextPart, *chat.ThinkPart:
			continue
		default:
			return false
		}
	}
	return true
}

// joinText concatenates every TextPart's text, the same rule
// chat.Message.Text applies.
func joinText(parts []chat.ContentPart) string {
	var sb strings.Builder
	for _, p := range parts {
		if t, ok := p.(*chat.TextPart); ok {
			sb.WriteString(t.Text)
		}
	}
	return sb.String()
}

// contentPartsToOpenAI converts content parts to the Chat Completions
// content-part wire shapes: TextPart → input text, ImageURLPart → an
// image_url part, AudioURLPart → an input_audio part (decoding its
// data: URI into base64 data plus format, since OpenAI's input_audio
// never takes a bare URL). ThinkParts and anything else are dropped,
// matching the "unsupported variants are dropped" rule.
func contentPartsToOpenAI(parts []chat.ContentPart) ([]sdk.ChatCompletionContentPartUnionParam, error) {
	var out []sdk.ChatCompletionContentPartUnionParam
	for _, part := range parts {
		switch p := part.(type) {
		case *chat.TextPart:
			if p.Text == "" {
				continue
			}
			out = append(out, sdk.TextContentPart(p.Text))
		case *chat.ImageURLPart:
			out = append(out, sdk.ImageContentPart(sdk.ChatCompletionContentPartImageImageURLParam{
				URL: p.ImageURL.URL,
			}))
		case *chat.AudioURLPart:
			format, data, err := decodeDataURIAudio(p.AudioURL.URL)
			if err != nil {
				return nil, err
			}
			out = append(out, sdk.InputAudioContentPart(sdk.ChatCompletionContentPartInputAudioInputAudioParam{
				Data:   data,
				Format: format,
			}))
		default:
			continue
		}
	}
	return out, nil
}

// decodeDataURIAudio splits a "data:audio/<format>;base64,<data>" URI
// into OpenAI's separate format and base64-data fields.
func decodeDataURIAudio(url string) (format, data string, err error) {
	rest, ok := strings.CutPrefix(url, "data:audio/")
	if !ok {
		return "", "", fmt.Errorf("openai: audio_url must be a data: URI, got %q", url)
	}
	mediaType, b64, ok := strings.Cut(rest, ";base64,")
	if !ok {
		return "", "", fmt.Errorf("openai: audio_url must be base64-encoded, got %q", url)
	}
	return mediaType, b64, nil
}

// ToolToOpenAI converts a canonical Tool definition to the Chat
// Completions tool wire shape.
func ToolToOpenAI(tool chat.Tool) sdk.ChatCompletionToolParam {
	params := shared.FunctionParameters(tool.Parameters)
	if params == nil {
		params = shared.FunctionParameters{"type": "object", "properties": map[string]any{}}
	}
	return sdk.ChatCompletionToolParam{
		Function: shared.FunctionDefinitionParam{
			Name:        tool.Name,
			Description: param.NewOpt(tool.Description),
			Parameters:  params,
		},
	}
}
