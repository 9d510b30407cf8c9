package toolset

import (
	"context"

	"github.com/MoonshotAI/kosong/chat"
)

// EmptyToolset is a Toolset with no tools registered. Every call
// resolves with NotFound, since there is nothing to dispatch to.
type EmptyToolset struct{}

func (EmptyToolset) Tools() []chat.Tool { return nil }

func (EmptyToolset) Handle(_ context.Context, call chat.ToolCall) *ToolResultFuture {
	return Resolved(ToolResult{ToolCallID: call.ID, Err: NotFoundError(call.Function.Name)})
}
