package toolset

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/MoonshotAI/kosong/chat"
	"github.com/MoonshotAI/kosong/internal/logging"
)

type registeredTool struct {
	tool   CallableTool
	schema *jsonschema.Schema
}

// SimpleToolset is a concurrent, mutex-guarded tool registry: each
// Handle call parses and validates arguments synchronously, then
// launches the callable on its own goroutine, resolving its future
// when the callable returns. Duplicate names replace the prior entry.
type SimpleToolset struct {
	mu    sync.RWMutex
	tools map[string]registeredTool
	order []string
}

// NewSimpleToolset builds a SimpleToolset, registering the given tools
// in order. A registration failure (invalid schema) is returned
// immediately and stops registering further tools.
func NewSimpleToolset(tools ...CallableTool) (*SimpleToolset, error) {
	ts := &SimpleToolset{tools: make(map[string]registeredTool)}
	for _, t := range tools {
		if err := ts.Register(t); err != nil {
			return nil, err
		}
	}
	return ts, nil
}

// Register adds or replaces a tool. The tool's Parameters must be a
// valid JSON Schema (Draft 2020-12); otherwise Register returns a
// *ToolRegistrationError and the toolset is left unchanged.
func (ts *SimpleToolset) Register(tool CallableTool) error {
	def := tool.Definition()
	sch, err := compileToolSchema(def.Name, def.Parameters)
	if err != nil {
		return err
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()
	if _, exists := ts.tools[def.Name]; !exists {
		ts.order = append(ts.order, def.Name)
	}
	ts.tools[def.Name] = registeredTool{tool: tool, schema: sch}
	return nil
}

// Deregister removes a tool by name. Removing an unregistered name is
// a no-op.
func (ts *SimpleToolset) Deregister(name string) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if _, exists := ts.tools[name]; !exists {
		return
	}
	delete(ts.tools, name)
	for i, n := range ts.order {
		if n == name {
			ts.order = append(ts.order[:i], ts.order[i+1:]...)
			break
		}
	}
}

// Tools returns the registered tools' definitions in registration order.
func (ts *SimpleToolset) Tools() []chat.Tool {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	out := make([]chat.Tool, 0, len(ts.order))
	for _, name := range ts.order {
		out = append(out, ts.tools[name].tool.Definition())
	}
	return out
}

// Handle dispatches a tool call. It never blocks past argument parsing
// and schema validation: the callable itself runs on its own goroutine,
// and Handle returns a future immediately.
func (ts *SimpleToolset) Handle(ctx context.Context, call chat.ToolCall) *ToolResultFuture {
	ts.mu.RLock()
	rt, ok := ts.tools[call.Function.Name]
	ts.mu.RUnlock()
	if !ok {
		return Resolved(ToolResult{ToolCallID: call.ID, Err: NotFoundError(call.Function.Name)})
	}

	raw := call.Function.Arguments
	if raw == "" {
		raw = "{}"
	}
	var args any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return Resolved(ToolResult{ToolCallID: call.ID, Err: ParseError(err)})
	}
	if err := rt.schema.Validate(args); err != nil {
		return Resolved(ToolResult{ToolCallID: call.ID, Err: ValidateError(err)})
	}

	future := NewToolResultFuture()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				future.Resolve(ToolResult{ToolCallID: call.ID, Err: RuntimeError(panicError{r})})
			}
		}()

		select {
		case <-ctx.Done():
			future.Resolve(ToolResult{ToolCallID: call.ID, Err: &ToolError{Kind: Runtime, Message: "cancelled"}})
			return
		default:
		}

		value, err := rt.tool.Call(ctx, []byte(raw))
		if err != nil {
			logging.Logger().Debug("tool call failed", "tool", call.Function.Name, "error", err)
			future.Resolve(ToolResult{ToolCallID: call.ID, Err: RuntimeError(err)})
			return
		}
		future.Resolve(ToolResult{ToolCallID: call.ID, Value: value})
	}()
	return future
}

type panicError struct{ v any }

func (p panicError) Error() string {
	if err, ok := p.v.(error); ok {
		return err.Error()
	}
	return "panic: " + jsonStringer(p.v)
}

func jsonStringer(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "<unprintable>"
	}
	return string(b)
}
