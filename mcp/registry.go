package mcp

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/MoonshotAI/kosong/toolset"
)

// Registry holds a collection of tools that can be exposed via an MCP server.
// It is safe for concurrent use; tools can be registered while the server is running.
type Registry struct {
	mu          sync.Mutex
	tools       map[string]toolset.CallableTool
	definitions map[string]ToolDefinition
	order       []string
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools:       make(map[string]toolset.CallableTool),
		definitions: make(map[string]ToolDefinition),
		order:       make([]string, 0),
	}
}

// Register adds a tool to the registry. The tool's Definition provides
// its name, description, and JSON Schema parameters. If a tool with the
// same name already exists, it is replaced. Returns an error if the
// tool is nil or its definition is invalid.
func (r *Registry) Register(tool toolset.CallableTool) error {
	if tool == nil {
		return fmt.Errorf("register tool: nil tool")
	}

	definition, err := toolDefinition(tool)
	if err != nil {
		return fmt.Errorf("register tool: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[definition.Name]; !exists {
		r.order = append(r.order, definition.Name)
	}

	r.tools[definition.Name] = tool
	r.definitions[definition.Name] = definition
	return nil
}

// Get retrieves a tool by name. Returns the tool and true if found,
// or nil and false if no tool with that name is registered.
func (r *Registry) Get(name string) (toolset.CallableTool, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tool, ok := r.tools[name]
	return tool, ok
}

// Definitions returns the tool definitions for all registered tools
// in the order they were first registered. This is used by tools/list.
func (r *Registry) Definitions() []ToolDefinition {
	r.mu.Lock()
	defer r.mu.Unlock()

	defs := make([]ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		if def, ok := r.definitions[name]; ok {
			defs = append(defs, def)
		}
	}
	return defs
}

// toolDefinition reads name, description, and JSON Schema parameters
// straight off tool.Definition() — unlike the teacher's
// MCPJsonSchema()-returning chat.Tool, a toolset.CallableTool's
// chat.Tool.Parameters is already a map[string]any, so there's no
// JSON-string round trip to parse.
func toolDefinition(tool toolset.CallableTool) (ToolDefinition, error) {
	def := tool.Definition()
	if def.Name == "" {
		return ToolDefinition{}, fmt.Errorf("missing tool name")
	}
	if def.Parameters == nil {
		return ToolDefinition{}, fmt.Errorf("missing input schema for %q", def.Name)
	}

	inputSchema, err := json.Marshal(def.Parameters)
	if err != nil {
		return ToolDefinition{}, fmt.Errorf("encode input schema for %q: %w", def.Name, err)
	}

	return ToolDefinition{
		Name:        def.Name,
		Description: def.Description,
		InputSchema: inputSchema,
	}, nil
}
