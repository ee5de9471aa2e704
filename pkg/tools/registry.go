// Package tools provides a registry system for workflow tools.
//
// Tools are discrete functions that workers invoke during workflow steps.
// Each tool has a name, a schema declaring its inputs, and an execution
// function. Tools may be registered at any time; lookups happen at call
// time, never pre-validated globally.
package tools

import (
	"context"
	"fmt"
	"sync"

	"github.com/foreman-dev/foreman/pkg/errors"
)

// Tool represents an executable tool available to workers.
type Tool interface {
	// Name returns the unique identifier for this tool
	Name() string

	// Description returns a human-readable description of what the tool does
	Description() string

	// Schema returns the schema defining the tool's inputs
	Schema() *Schema

	// Execute runs the tool with the given arguments and returns its result
	Execute(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error)
}

// Schema defines the input schema for a tool using JSON Schema conventions.
type Schema struct {
	// Type is the JSON type (normally "object")
	Type string `json:"type"`

	// Properties defines the expected arguments
	Properties map[string]*Property `json:"properties,omitempty"`

	// Required lists the required argument names
	Required []string `json:"required,omitempty"`

	// Description provides human-readable context
	Description string `json:"description,omitempty"`
}

// Property defines a single argument in a tool schema.
type Property struct {
	// Type is the JSON type of this argument
	Type string `json:"type"`

	// Description explains what this argument represents
	Description string `json:"description,omitempty"`

	// Enum lists allowed values (for validation)
	Enum []interface{} `json:"enum,omitempty"`
}

// Registry maintains a collection of registered tools. Registration is
// dynamic; the registry is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates a new tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register adds a tool to the registry.
// Returns an error if a tool with the same name is already registered.
func (r *Registry) Register(tool Tool) error {
	if tool == nil {
		return fmt.Errorf("cannot register nil tool")
	}

	name := tool.Name()
	if name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool already registered: %s", name)
	}

	r.tools[name] = tool
	return nil
}

// Unregister removes a tool from the registry.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; !exists {
		return &errors.NotFoundError{Resource: "tool", ID: name}
	}

	delete(r.tools, name)
	return nil
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, exists := r.tools[name]
	if !exists {
		return nil, &errors.NotFoundError{Resource: "tool", ID: name}
	}

	return tool, nil
}

// Has checks if a tool is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.tools[name]
	return exists
}

// List returns all registered tool names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}

	return names
}

// Invoke executes a tool by name with the given arguments. An unknown
// tool name surfaces as a ToolError wrapping NotFoundError at call time.
// Execution failures always carry the tool name.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]interface{}) (map[string]interface{}, error) {
	tool, err := r.Get(name)
	if err != nil {
		return nil, &errors.ToolError{Tool: name, Message: "unknown tool", Cause: err}
	}

	if err := validateArgs(tool, args); err != nil {
		return nil, &errors.ToolError{Tool: name, Message: err.Error(), Cause: err}
	}

	result, err := tool.Execute(ctx, args)
	if err != nil {
		return nil, &errors.ToolError{Tool: name, Message: err.Error(), Cause: err}
	}

	return result, nil
}

// validateArgs checks arguments against a tool's schema.
// Only required-field presence is enforced; full JSON Schema validation
// is left to the tool itself.
func validateArgs(tool Tool, args map[string]interface{}) error {
	schema := tool.Schema()
	if schema == nil {
		return nil
	}

	for _, required := range schema.Required {
		if _, exists := args[required]; !exists {
			return fmt.Errorf("required argument missing: %s", required)
		}
	}

	return nil
}

// Descriptor describes a tool for provider function calling.
type Descriptor struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Schema      *Schema `json:"schema"`
}

// Descriptors returns descriptors for all registered tools.
func (r *Registry) Descriptors() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	descriptors := make([]Descriptor, 0, len(r.tools))
	for _, tool := range r.tools {
		descriptors = append(descriptors, Descriptor{
			Name:        tool.Name(),
			Description: tool.Description(),
			Schema:      tool.Schema(),
		})
	}

	return descriptors
}

// FuncTool adapts a plain function into a Tool.
type FuncTool struct {
	name        string
	description string
	schema      *Schema
	fn          func(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error)
}

// NewFuncTool creates a tool backed by the given function.
func NewFuncTool(name, description string, schema *Schema, fn func(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error)) *FuncTool {
	return &FuncTool{name: name, description: description, schema: schema, fn: fn}
}

// Name returns the tool identifier.
func (t *FuncTool) Name() string { return t.name }

// Description returns the tool description.
func (t *FuncTool) Description() string { return t.description }

// Schema returns the tool input schema.
func (t *FuncTool) Schema() *Schema { return t.schema }

// Execute runs the wrapped function.
func (t *FuncTool) Execute(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
	return t.fn(ctx, args)
}
