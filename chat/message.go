package chat

import (
	"encoding/json"
	"fmt"
)

// Role identifies who a message came from.
type Role string

const (
	SystemRole    Role = "system"
	DeveloperRole Role = "developer"
	UserRole      Role = "user"
	AssistantRole Role = "assistant"
	ToolRole      Role = "tool"
)

// FunctionBody is the name and (possibly partial) JSON-encoded arguments
// of a tool invocation requested by the model.
type FunctionBody struct {
	Name string `json:"name"`
	// Arguments is a JSON-encoded string, assembled incrementally as
	// ToolCallParts merge into it. It may be empty while the call is
	// still streaming in.
	Arguments string `json:"arguments,omitempty"`
}

// ToolCall is a tool invocation requested by the assistant. Extras
// carries provider-specific annotations (e.g. Anthropic cache controls)
// that don't fit the canonical shape but should still round-trip.
type ToolCall struct {
	ID       string         `json:"id"`
	Function FunctionBody   `json:"function"`
	Extras   map[string]any `json:"extras,omitempty"`
}

// MergeInPlace absorbs a ToolCallPart's arguments_part by concatenation.
// A second ToolCall never merges into the first; the merger must flush
// and start a new pending part instead.
func (t *ToolCall) MergeInPlace(other StreamedMessagePart) bool {
	part, ok := other.(*ToolCallPart)
	if !ok {
		return false
	}
	t.Function.Arguments += part.ArgumentsPart
	return true
}

func (t *ToolCall) streamedMessagePart() {}

// ToolCallPart is a streaming fragment of a tool call's arguments. It
// merges into the immediately preceding ToolCall or ToolCallPart by
// string concatenation. A ToolCallPart with no preceding ToolCall is
// orphaned and is discarded by the merger.
type ToolCallPart struct {
	ArgumentsPart string `json:"arguments_part,omitempty"`
}

func (p *ToolCallPart) MergeInPlace(other StreamedMessagePart) bool {
	o, ok := other.(*ToolCallPart)
	if !ok {
		return false
	}
	p.ArgumentsPart += o.ArgumentsPart
	return true
}

func (p *ToolCallPart) streamedMessagePart() {}

// Message is a single turn in a conversation.
type Message struct {
	Role Role   `json:"role"`
	Name string `json:"name,omitempty"`

	// Content preserves insertion order of its parts.
	Content []ContentPart `json:"content"`

	// ToolCalls is populated only on assistant messages.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ToolCallID is populated only on tool messages, referencing the id
	// of the originating ToolCall.
	ToolCallID string `json:"tool_call_id,omitempty"`

	// Partial marks a message still being streamed; never set on
	// messages returned from the merge pipeline.
	Partial bool `json:"partial,omitempty"`
}

// TextMessage builds a Message with a single TextPart.
func TextMessage(role Role, text string) Message {
	return Message{Role: role, Content: []ContentPart{&TextPart{Text: text}}}
}

// UserMessage builds a user message with text content.
func UserMessage(text string) Message {
	return TextMessage(UserRole, text)
}

// AssistantMessage builds an assistant message with text content.
func AssistantMessage(text string) Message {
	return TextMessage(AssistantRole, text)
}

// ToolMessage builds a tool-result message replying to toolCallID.
func ToolMessage(toolCallID, text string) Message {
	m := TextMessage(ToolRole, text)
	m.ToolCallID = toolCallID
	return m
}

// Text concatenates all TextPart content, in order. It's a convenience
// accessor; it does not interpret any other part type.
func (m Message) Text() string {
	var out string
	for _, c := range m.Content {
		if t, ok := c.(*TextPart); ok {
			out += t.Text
		}
	}
	return out
}

type messageWire struct {
	Role       Role              `json:"role"`
	Name       string            `json:"name,omitempty"`
	Content    []json.RawMessage `json:"content"`
	ToolCalls  []ToolCall        `json:"tool_calls,omitempty"`
	ToolCallID string            `json:"tool_call_id,omitempty"`
	Partial    bool              `json:"partial,omitempty"`
}

// MarshalJSON emits only non-default fields, per the canonical model's
// serialization rule. Content is always emitted as a list of tagged
// parts; callers that prefer the bare-string shorthand for a single
// TextPart may do so on their own wire encoders (e.g. provider/openai),
// since that shorthand is provider wire format, not the canonical one.
func (m Message) MarshalJSON() ([]byte, error) {
	wire := messageWire{
		Role:       m.Role,
		Name:       m.Name,
		ToolCalls:  m.ToolCalls,
		ToolCallID: m.ToolCallID,
		Partial:    m.Partial,
	}
	for _, part := range m.Content {
		raw, err := marshalContentPart(part)
		if err != nil {
			return nil, fmt.Errorf("chat: marshaling message content: %w", err)
		}
		wire.Content = append(wire.Content, raw)
	}
	return json.Marshal(wire)
}

// UnmarshalJSON accepts content as either a bare string (wrapped as a
// single TextPart) or a list of tagged parts.
func (m *Message) UnmarshalJSON(data []byte) error {
	var rest struct {
		Role       Role            `json:"role"`
		Name       string          `json:"name,omitempty"`
		Content    json.RawMessage `json:"content"`
		ToolCalls  []ToolCall      `json:"tool_calls,omitempty"`
		ToolCallID string          `json:"tool_call_id,omitempty"`
		Partial    bool            `json:"partial,omitempty"`
	}
	if err := json.Unmarshal(data, &rest); err != nil {
		return fmt.Errorf("chat: decoding message: %w", err)
	}
	m.Role = rest.Role
	m.Name = rest.Name
	m.ToolCalls = rest.ToolCalls
	m.ToolCallID = rest.ToolCallID
	m.Partial = rest.Partial
	m.Content = nil

	if len(rest.Content) == 0 {
		return nil
	}
	if rest.Content[0] == '"' {
		var text string
		if err := json.Unmarshal(rest.Content, &text); err != nil {
			return fmt.Errorf("chat: decoding message content string: %w", err)
		}
		m.Content = []ContentPart{&TextPart{Text: text}}
		return nil
	}

	var parts []json.RawMessage
	if err := json.Unmarshal(rest.Content, &parts); err != nil {
		return fmt.Errorf("chat: decoding message content list: %w", err)
	}
	for _, raw := range parts {
		part, err := UnmarshalContentPart(raw)
		if err != nil {
			return err
		}
		m.Content = append(m.Content, part)
	}
	return nil
}
