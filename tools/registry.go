// Package tools provides tool management and registration.
//
// Information Hiding:
// - Tool storage and lookup implementation hidden
// - Catalog order and prompt rendering hidden
// - Registry is immutable after construction

package tools

import (
	"fmt"
	"sort"
	"strings"
)

// Registry is an immutable catalog of tools built once at startup.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry creates a registry from tools in catalog order.
// Returns error if a tool has no name or a name is registered twice.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{
		tools: make(map[string]Tool, len(tools)),
		order: make([]string, 0, len(tools)),
	}
	for _, tool := range tools {
		name := tool.Metadata().Name
		if name == "" {
			return nil, fmt.Errorf("tool has no name")
		}
		if _, exists := r.tools[name]; exists {
			return nil, fmt.Errorf("tool '%s' already registered", name)
		}
		r.tools[name] = tool
		r.order = append(r.order, name)
	}
	return r, nil
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	tool, exists := r.tools[name]
	return tool, exists
}

// Has checks if a tool exists in the registry.
func (r *Registry) Has(name string) bool {
	_, exists := r.tools[name]
	return exists
}

// Len returns the number of tools.
func (r *Registry) Len() int {
	return len(r.order)
}

// Names returns all registered tool names in sorted order.
func (r *Registry) Names() []string {
	names := append([]string(nil), r.order...)
	sort.Strings(names)
	return names
}

// List returns metadata for all registered tools in catalog order.
func (r *Registry) List() []ToolMetadata {
	metadata := make([]ToolMetadata, 0, len(r.order))
	for _, name := range r.order {
		metadata = append(metadata, r.tools[name].Metadata())
	}
	return metadata
}

// Specialist returns the attribution for a tool.
func (r *Registry) Specialist(name string) (Specialist, bool) {
	tool, ok := r.tools[name]
	if !ok {
		return Specialist{}, false
	}
	return tool.Metadata().Specialist, true
}

// UnknownTool builds the failure result returned for a name not in the
// registry. It lists the valid names.
func (r *Registry) UnknownTool(name string) ToolResult {
	return FailureResultf("unknown tool %q; valid tools are: %s", name, strings.Join(r.Names(), ", ")).
		WithDetail("validTools", r.Names())
}

// Description returns a formatted description of all tools for LLM prompts.
func (r *Registry) Description() string {
	descriptions := make([]string, 0, len(r.order))
	for _, name := range r.order {
		meta := r.tools[name].Metadata()
		var params []string
		for _, p := range meta.Parameters {
			required := "optional"
			if p.Required {
				required = "required"
			}
			params = append(params, fmt.Sprintf("  - %s (%s): %s [%s]",
				p.Name, p.ParamType, p.Description, required))
		}

		paramStr := strings.Join(params, "\n")
		if paramStr == "" {
			paramStr = "  (none)"
		}
		descriptions = append(descriptions, fmt.Sprintf(
			"Tool: %s\nDescription: %s\nParameters:\n%s",
			meta.Name, meta.Description, paramStr))
	}

	return strings.Join(descriptions, "\n\n")
}
