package toolset

import (
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ToolRegistrationError reports that a tool's Parameters is not a valid
// JSON Schema document.
type ToolRegistrationError struct {
	ToolName string
	Err      error
}

func (e *ToolRegistrationError) Error() string {
	return fmt.Sprintf("toolset: registering %q: %s", e.ToolName, e.Err)
}

func (e *ToolRegistrationError) Unwrap() error { return e.Err }

// compileToolSchema validates tool.Parameters against the Draft
// 2020-12 meta-schema and compiles it for later instance validation.
// Both steps are required at registration time, per the registry's
// "reject schemas that fail meta-validation" rule.
func compileToolSchema(toolName string, parameters map[string]any) (*jsonschema.Schema, error) {
	if parameters == nil {
		parameters = map[string]any{}
	}

	c := jsonschema.NewCompiler()
	c.DefaultDraft(jsonschema.Draft2020)

	resourceURL := "tool:" + toolName
	if err := c.AddResource(resourceURL, parameters); err != nil {
		return nil, &ToolRegistrationError{ToolName: toolName, Err: err}
	}

	sch, err := c.Compile(resourceURL)
	if err != nil {
		return nil, &ToolRegistrationError{ToolName: toolName, Err: err}
	}
	return sch, nil
}
