package toolset

import "fmt"

// ToolErrorKind discriminates why a tool call failed.
type ToolErrorKind string

const (
	// NotFound: the tool name isn't registered.
	NotFound ToolErrorKind = "not_found"
	// Parse: the arguments aren't valid JSON.
	Parse ToolErrorKind = "parse"
	// Validate: the arguments don't satisfy the tool's schema.
	Validate ToolErrorKind = "validate"
	// Runtime: the callable itself failed.
	Runtime ToolErrorKind = "runtime"
)

// ToolError is a tool-layer failure. It is always carried as a value
// inside a ToolResult, never returned as a Go error from Handle/Toolset
// methods, per the dispatcher's "never propagate an exception" contract.
type ToolError struct {
	Kind    ToolErrorKind
	Message string
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NotFoundError reports an unregistered tool name.
func NotFoundError(toolName string) *ToolError {
	return &ToolError{Kind: NotFound, Message: fmt.Sprintf("tool %q not found", toolName)}
}

// ParseError reports arguments that aren't valid JSON.
func ParseError(err error) *ToolError {
	return &ToolError{Kind: Parse, Message: fmt.Sprintf("error parsing JSON arguments: %s", err)}
}

// ValidateError reports arguments that fail the tool's JSON Schema.
func ValidateError(err error) *ToolError {
	return &ToolError{Kind: Validate, Message: fmt.Sprintf("error validating arguments: %s", err)}
}

// RuntimeError reports a failure raised by the callable itself,
// including a cancelled dispatch.
func RuntimeError(err error) *ToolError {
	return &ToolError{Kind: Runtime, Message: fmt.Sprintf("error running tool: %s", err)}
}
