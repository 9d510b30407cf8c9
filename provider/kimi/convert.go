package kimi

import (
	"encoding/json"
	"fmt"
	"strings"

	sdk "github.com/openai/openai-go"

	"github.com/MoonshotAI/kosong/chat"
	"github.com/MoonshotAI/kosong/provider/openai"
)

// builtinToolPrefix marks a tool as invoked directly by Kimi rather
// than client-side, per spec §4.4.5 / §8 scenario 6.
const builtinToolPrefix = "$"

// toolToKimi converts a canonical Tool to the raw JSON object Kimi's
// tools array expects. A builtin ($-prefixed) tool serializes as
// {"type":"builtin_function","function":{"name":...}} with no schema at
// all; everything else serializes exactly like an OpenAI function tool.
//
// This builds a plain map rather than sdk.ChatCompletionToolParam
// because that type has no "builtin_function" variant — it's a
// Moonshot-only extension — so the whole tools array is injected as raw
// JSON via option.WithJSONSet instead of the typed Tools field.
func toolToKimi(tool chat.Tool) map[string]any {
	if strings.HasPrefix(tool.Name, builtinToolPrefix) {
		return map[string]any{
			"type":     "builtin_function",
			"function": map[string]any{"name": tool.Name},
		}
	}

	params := tool.Parameters
	if params == nil {
		params = map[string]any{"type": "object", "properties": map[string]any{}}
	}
	return map[string]any{
		"type": "function",
		"function": map[string]any{
			"name":        tool.Name,
			"description": tool.Description,
			"parameters":  params,
		},
	}
}

func toolsToKimi(tools []chat.Tool) []map[string]any {
	out := make([]map[string]any, len(tools))
	for i, t := range tools {
		out[i] = toolToKimi(t)
	}
	return out
}

// messagesWithReasoningContent rebuilds messages as raw JSON objects
// with a reasoning_content field spliced into any assistant message
// whose source history entry carried a ThinkPart, per spec §4.4.5
// ("Assistant-message reasoning is serialized under reasoning_content,
// concatenated across multiple ThinkParts"). sdk.ChatCompletionNewParams
// has no typed field for a Moonshot-only per-message extension, so like
// toolToKimi this drops to a raw JSON object — only for messages that
// actually need it, leaving the rest as their typed marshaled form.
// Returns ok=false when no message needs the patch, so the caller can
// keep using the typed Messages field untouched.
func messagesWithReasoningContent(systemPrompt string, history []chat.Message, messages []sdk.ChatCompletionMessageParamUnion) ([]json.RawMessage, bool, error) {
	offset := len(messages) - len(history)
	if offset < 0 {
		return nil, false, fmt.Errorf("kimi: message count mismatch building reasoning_content")
	}

	ok := false
	for _, m := range history {
		if m.Role == chat.AssistantRole && openai.ReasoningText(m.Content) != "" {
			ok = true
			break
		}
	}
	if !ok {
		return nil, false, nil
	}

	raw := make([]json.RawMessage, len(messages))
	for i, wire := range messages {
		body, err := json.Marshal(wire)
		if err != nil {
			return nil, false, fmt.Errorf("kimi: marshaling message %d: %w", i, err)
		}

		hi := i - offset
		if hi < 0 || history[hi].Role != chat.AssistantRole {
			raw[i] = body
			continue
		}
		reasoning := openai.ReasoningText(history[hi].Content)
		if reasoning == "" {
			raw[i] = body
			continue
		}

		var fields map[string]json.RawMessage
		if err := json.Unmarshal(body, &fields); err != nil {
			return nil, false, fmt.Errorf("kimi: decoding message %d: %w", i, err)
		}
		reasoningJSON, err := json.Marshal(reasoning)
		if err != nil {
			return nil, false, fmt.Errorf("kimi: marshaling reasoning_content for message %d: %w", i, err)
		}
		fields["reasoning_content"] = reasoningJSON
		patched, err := json.Marshal(fields)
		if err != nil {
			return nil, false, fmt.Errorf("kimi: re-marshaling message %d: %w", i, err)
		}
		raw[i] = patched
	}
	return raw, true, nil
}
