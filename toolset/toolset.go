// Package toolset registers callable tools, validates their arguments
// against a JSON Schema, and dispatches tool calls concurrently,
// delivering results through futures rather than blocking the caller.
package toolset

import (
	"context"

	"github.com/MoonshotAI/kosong/chat"
)

// ToolReturnType is what a CallableTool may return: either raw text or
// one or more canonical content parts (e.g. a tool that returns an
// image).
type ToolReturnType interface {
	isToolReturnType()
}

// TextResult is a plain-text tool return value.
type TextResult string

func (TextResult) isToolReturnType() {}

// PartsResult is a tool return value expressed as content parts,
// letting a tool return e.g. an image alongside text.
type PartsResult []chat.ContentPart

func (PartsResult) isToolReturnType() {}

// CallableTool is a registered chat.Tool that can actually be invoked.
// Call receives the tool call's schema-validated arguments as raw JSON
// bytes, untouched; how array/object/scalar arguments unpack into
// the callable's own parameters is the callable's concern (see
// FuncTool for the common typed-struct case).
type CallableTool interface {
	Definition() chat.Tool
	Call(ctx context.Context, arguments []byte) (ToolReturnType, error)
}

// ToolResult is the outcome of dispatching a single ToolCall: either a
// successful ToolReturnType or a ToolError. Exactly one of the two is
// meaningful.
type ToolResult struct {
	ToolCallID string
	Value      ToolReturnType
	Err        *ToolError
}

// Toolset abstracts a collection of tools that can be listed and
// dispatched against. Handle must never block and must never panic:
// any failure inside the callable becomes a ToolError resolved on the
// returned future.
type Toolset interface {
	Tools() []chat.Tool
	Handle(ctx context.Context, call chat.ToolCall) *ToolResultFuture
}
