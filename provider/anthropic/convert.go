package anthropic

import (
	"encoding/json"
	"fmt"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/MoonshotAI/kosong/chat"
)

// messagesToAnthropic converts a canonical history into Anthropic
// message params, grounded on llm/claude/claude.go's messageParam but
// adapted to the canonical model's shape: a tool call lives on
// Message.ToolCalls rather than as a content-block item, and each tool
// result is its own ToolRole message rather than a block embedded in
// the calling turn. Anthropic rejects a tool result sent as its own
// turn, so consecutive ToolRole messages are batched into a single
// user message carrying one tool_result block per call, mirroring how
// the teacher's handleToolCallRounds assembles its follow-up user
// message from every toolResults entry at once.
func messagesToAnthropic(history []chat.Message) ([]sdk.MessageParam, error) {
	var out []sdk.MessageParam
	for i := 0; i < len(history); {
		if history[i].Role == chat.ToolRole {
			var blocks []sdk.ContentBlockParamUnion
			for i < len(history) && history[i].Role == chat.ToolRole {
				blocks = append(blocks, toolResultBlock(history[i]))
				i++
			}
			out = append(out, sdk.NewUserMessage(blocks...))
			continue
		}

		param, err := messageToAnthropic(history[i])
		if err != nil {
			return nil, fmt.Errorf("converting history message to param: %w", err)
		}
		out = append(out, param)
		i++
	}

	// Mark a cache breakpoint on the last block of the last message so
	// a follow-up turn can reuse the cached prefix up through this
	// point. At most 4 cache_control entries may be live on a request,
	// so this is the only block we ever touch here (the system prompt
	// and the last tool definition carry the other two).
	if len(out) > 0 {
		content := out[len(out)-1].Content
		if len(content) > 0 {
			markCacheControl(&content[len(content)-1])
		}
	}

	return out, nil
}

// markCacheControl marks an ephemeral cache breakpoint on a content
// block, for whichever block type it actually holds.
func markCacheControl(block *sdk.ContentBlockParamUnion) {
	switch {
	case block.OfText != nil:
		block.OfText.CacheControl = sdk.NewCacheControlEphemeralParam()
	case block.OfImage != nil:
		block.OfImage.CacheControl = sdk.NewCacheControlEphemeralParam()
	case block.OfToolUse != nil:
		block.OfToolUse.CacheControl = sdk.NewCacheControlEphemeralParam()
	case block.OfToolResult != nil:
		block.OfToolResult.CacheControl = sdk.NewCacheControlEphemeralParam()
	case block.OfThinking != nil:
		// Thinking blocks carry a signature, not a cache_control field.
	}
}

// toolResultBlock converts a ToolRole message (one tool's result) to a
// tool_result content block. An empty result is sent as "{}" since
// Claude rejects an empty text block.
func toolResultBlock(m chat.Message) sdk.ContentBlockParamUnion {
	content := m.Text()
	if content == "" {
		content = "{}"
	}
	return sdk.NewToolResultBlock(m.ToolCallID, content, false)
}

// messageToAnthropic converts one non-tool-role message to a
// MessageParam. A system-role message has no native history equivalent
// in the Messages API, so it is demoted to a user turn wrapping its
// text in a <system> tag. A ThinkPart only round-trips once sealed
// (Encrypted set by a prior signature delta); an unsigned ThinkPart is
// dropped, since Claude only accepts a thinking block back as part of
// the exact assistant turn that produced it.
func messageToAnthropic(m chat.Message) (sdk.MessageParam, error) {
	if m.Role == chat.SystemRole {
		return sdk.NewUserMessage(sdk.NewTextBlock(fmt.Sprintf("<system>%s</system>", m.Text()))), nil
	}

	var blocks []sdk.ContentBlockParamUnion
	for _, part := range m.Content {
		switch p := part.(type) {
		case *chat.TextPart:
			if p.Text == "" {
				continue
			}
			blocks = append(blocks, sdk.NewTextBlock(p.Text))
		case *chat.ImageURLPart:
			blocks = append(blocks, imageBlockFromURL(p.ImageURL.URL))
		case *chat.ThinkPart:
			if p.Encrypted == "" {
				continue
			}
			blocks = append(blocks, sdk.ContentBlockParamUnion{
				OfThinking: &sdk.ThinkingBlockParam{Thinking: p.Think, Signature: p.Encrypted},
			})
		default:
			continue
		}
	}

	for _, tc := range m.ToolCalls {
		args := json.RawMessage(tc.Function.Arguments)
		if len(args) == 0 {
			args = json.RawMessage(`{}`)
		}
		blocks = append(blocks, sdk.NewToolUseBlock(tc.ID, args, tc.Function.Name))
	}

	if len(blocks) == 0 {
		return sdk.MessageParam{}, fmt.Errorf("message has no content blocks")
	}

	if m.Role == chat.AssistantRole {
		return sdk.NewAssistantMessage(blocks...), nil
	}
	// Claude has no separate developer/tool role for input messages;
	// everything that isn't assistant output goes in as a user turn.
	return sdk.NewUserMessage(blocks...), nil
}

// imageBlockFromURL converts a canonical ImageURL into an Anthropic
// image block: a data: URL becomes a base64 source, anything else
// (http(s)://) is passed through as a url source.
func imageBlockFromURL(url string) sdk.ContentBlockParamUnion {
	if rest, ok := strings.CutPrefix(url, "data:"); ok {
		if mediaType, data, ok := strings.Cut(rest, ";base64,"); ok {
			return sdk.ContentBlockParamUnion{
				OfImage: &sdk.ImageBlockParam{
					Source: sdk.ImageBlockParamSourceUnion{
						OfBase64: &sdk.Base64ImageSourceParam{
							MediaType: sdk.Base64ImageSourceMediaType(mediaType),
							Data:      data,
						},
					},
				},
			}
		}
	}
	return sdk.ContentBlockParamUnion{
		OfImage: &sdk.ImageBlockParam{
			Source: sdk.ImageBlockParamSourceUnion{
				OfURL: &sdk.URLImageSourceParam{URL: url},
			},
		},
	}
}

// toolToAnthropic converts a canonical tool definition to Anthropic's
// custom-tool wire shape, grounded on mcpToClaudeTool but taking the
// JSON Schema straight from chat.Tool.Parameters rather than parsing it
// back out of an MCP envelope first.
func toolToAnthropic(t chat.Tool) (sdk.ToolUnionParam, error) {
	schemaJSON, err := json.Marshal(t.Parameters)
	if err != nil {
		return sdk.ToolUnionParam{}, fmt.Errorf("marshaling tool schema for %q: %w", t.Name, err)
	}

	var inputSchema sdk.ToolInputSchemaParam
	if err := json.Unmarshal(schemaJSON, &inputSchema); err != nil {
		return sdk.ToolUnionParam{}, fmt.Errorf("converting tool schema for %q: %w", t.Name, err)
	}

	toolParam := sdk.ToolParam{
		Name:        t.Name,
		InputSchema: inputSchema,
		Type:        sdk.ToolTypeCustom,
	}
	if t.Description != "" {
		toolParam.Description = sdk.String(t.Description)
	}
	return sdk.ToolUnionParam{OfTool: &toolParam}, nil
}
