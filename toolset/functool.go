package toolset

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/MoonshotAI/kosong/chat"
)

// FuncTool adapts an ordinary typed Go function into a CallableTool.
// Req is typically a struct with json tags describing its parameters,
// in which case arguments arrive as a JSON
// object and unmarshal directly into Req. FuncTool also accepts a bare
// JSON array (unpacked positionally into Req's exported fields, in
// field order) or a bare scalar (assigned to the first exported
// field), mirroring the three argument shapes a model may emit for a
// single-parameter tool call.
type FuncTool[Req, Resp any] struct {
	definition chat.Tool
	fn         func(ctx context.Context, req Req) (Resp, error)
}

// NewFuncTool builds a FuncTool. parameters is the tool's JSON Schema,
// normally produced by the funcschema code generator from Req's
// struct tags (go:generate go run ./cmd/build/funcschema).
func NewFuncTool[Req, Resp any](name, description string, parameters map[string]any, fn func(context.Context, Req) (Resp, error)) *FuncTool[Req, Resp] {
	return &FuncTool[Req, Resp]{
		definition: chat.Tool{Name: name, Description: description, Parameters: parameters},
		fn:         fn,
	}
}

func (t *FuncTool[Req, Resp]) Definition() chat.Tool { return t.definition }

// Call unpacks arguments into a Req value and invokes the wrapped
// function. The result is JSON-encoded and returned as a TextResult;
// wrap fn's own logic to return PartsResult directly if a tool needs
// non-text content.
func (t *FuncTool[Req, Resp]) Call(ctx context.Context, arguments []byte) (ToolReturnType, error) {
	var req Req
	if err := unpackArguments(arguments, &req); err != nil {
		return nil, fmt.Errorf("toolset: unpacking arguments for %q: %w", t.definition.Name, err)
	}

	resp, err := t.fn(ctx, req)
	if err != nil {
		return nil, err
	}

	out, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("toolset: encoding result of %q: %w", t.definition.Name, err)
	}
	return TextResult(out), nil
}

// unpackArguments decodes raw JSON arguments into dst (a pointer to a
// struct), supporting the three shapes a tool call's arguments may
// take: a JSON object (keyword arguments, unmarshaled directly), a
// JSON array (positional arguments, assigned in dst's exported field
// order), or a bare scalar (a single positional argument, assigned to
// dst's first exported field).
func unpackArguments(raw []byte, dst any) error {
	var probe any
	if err := json.Unmarshal(raw, &probe); err != nil {
		return fmt.Errorf("decoding arguments: %w", err)
	}

	switch probe.(type) {
	case map[string]any, nil:
		return json.Unmarshal(raw, dst)
	case []any:
		var positional []json.RawMessage
		if err := json.Unmarshal(raw, &positional); err != nil {
			return fmt.Errorf("decoding positional arguments: %w", err)
		}
		return assignPositional(positional, dst)
	default:
		return assignPositional([]json.RawMessage{raw}, dst)
	}
}

func assignPositional(values []json.RawMessage, dst any) error {
	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("positional arguments require a struct destination, got %T", dst)
	}
	elem := v.Elem()
	typ := elem.Type()

	fieldIdx := 0
	for i := 0; i < typ.NumField() && fieldIdx < len(values); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		fieldPtr := elem.Field(i).Addr().Interface()
		if err := json.Unmarshal(values[fieldIdx], fieldPtr); err != nil {
			return fmt.Errorf("decoding positional argument %d into field %s: %w", fieldIdx, field.Name, err)
		}
		fieldIdx++
	}
	return nil
}
