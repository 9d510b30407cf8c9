package mcp

import (
	"context"

	"github.com/MoonshotAI/kosong/chat"
	"github.com/MoonshotAI/kosong/toolset"
)

type stubTool struct {
	name        string
	description string
	parameters  map[string]any
	result      string
	callErr     error
	calledWith  *string
}

func (s *stubTool) Definition() chat.Tool {
	return chat.Tool{Name: s.name, Description: s.description, Parameters: s.parameters}
}

func (s *stubTool) Call(_ context.Context, arguments []byte) (toolset.ToolReturnType, error) {
	if s.calledWith != nil {
		v := string(arguments)
		*s.calledWith = v
	}
	if s.callErr != nil {
		return nil, s.callErr
	}
	return toolset.TextResult(s.result), nil
}

var _ toolset.CallableTool = (*stubTool)(nil)

// panicTool is a test tool that panics when called
type panicTool struct{}

func (panicTool) Definition() chat.Tool {
	return chat.Tool{
		Name:        "PanicTool",
		Description: "A tool that panics for testing",
		Parameters:  map[string]any{"type": "object", "properties": map[string]any{}},
	}
}

func (panicTool) Call(_ context.Context, _ []byte) (toolset.ToolReturnType, error) {
	panic("intentional panic for testing")
}

var _ toolset.CallableTool = (*panicTool)(nil)
