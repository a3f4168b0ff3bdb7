// Package tools provides the tool system for the orchestrator.
//
// Information Hiding:
// - Tool execution details hidden behind interface
// - Parameter alias resolution hidden in per-tool normalizers
// - Registry implementation details hidden from consumers
// - Error handling internalized per tool
package tools

import (
	"context"
	"encoding/json"
	"fmt"
)

// ToolParameter defines a parameter schema for a tool.
type ToolParameter struct {
	Name        string `json:"name"`
	ParamType   string `json:"param_type"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// Group is the functional group a tool belongs to.
type Group string

const (
	GroupDiscovery  Group = "discovery"
	GroupValidation Group = "validation"
	GroupCreation   Group = "creation"
	GroupAdaptation Group = "adaptation"
)

// Specialist is the display identity a tool is attributed to.
type Specialist struct {
	Name   string `json:"name"`
	Module string `json:"module"`
}

// String returns "Name (Module)".
func (s Specialist) String() string {
	if s.Module == "" {
		return s.Name
	}
	return fmt.Sprintf("%s (%s)", s.Name, s.Module)
}

// ToolMetadata describes what a tool does and how to use it. Description is
// rendered verbatim into the system prompt.
type ToolMetadata struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ToolParameter `json:"parameters"`
	Group       Group           `json:"group"`
	Specialist  Specialist      `json:"specialist"`
}

// String returns a string representation of the tool metadata.
func (m ToolMetadata) String() string {
	return fmt.Sprintf("%s: %s", m.Name, m.Description)
}

// ToolResult represents the result of a tool execution.
// Success is determined by whether Error is nil.
type ToolResult struct {
	Tool       string         `json:"-"`
	Specialist Specialist     `json:"-"`
	Payload    any            `json:"-"`
	Error      error          `json:"-"`
	Details    map[string]any `json:"-"`
}

// MarshalJSON renders {"success": true, ...payload} on success and
// {"error": "...", ...details} on failure.
func (t ToolResult) MarshalJSON() ([]byte, error) {
	if t.Error != nil {
		out := make(map[string]any, len(t.Details)+1)
		for k, v := range t.Details {
			out[k] = v
		}
		out["error"] = t.Error.Error()
		return json.Marshal(out)
	}

	out := map[string]json.RawMessage{"success": json.RawMessage("true")}
	if t.Payload == nil {
		return json.Marshal(out)
	}
	payload, err := json.Marshal(t.Payload)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if json.Unmarshal(payload, &fields) == nil && fields != nil {
		for k, v := range fields {
			if k != "success" {
				out[k] = v
			}
		}
		return json.Marshal(out)
	}
	out["result"] = payload
	return json.Marshal(out)
}

// Success returns true if the tool execution succeeded.
func (t ToolResult) Success() bool {
	return t.Error == nil
}

// WithDetail returns a copy of a failure result carrying an extra detail field.
func (t ToolResult) WithDetail(key string, value any) ToolResult {
	details := make(map[string]any, len(t.Details)+1)
	for k, v := range t.Details {
		details[k] = v
	}
	details[key] = value
	t.Details = details
	return t
}

// SuccessResult creates a successful tool result.
func SuccessResult(payload any) ToolResult {
	return ToolResult{Payload: payload}
}

// FailureResult creates a failed tool result.
func FailureResult(err error) ToolResult {
	return ToolResult{Error: err}
}

// FailureResultf creates a failed tool result with a formatted error message.
func FailureResultf(format string, args ...interface{}) ToolResult {
	return ToolResult{Error: fmt.Errorf(format, args...)}
}

// Tool is the interface that all tools must implement.
//
// Execute returns a failure ToolResult for input problems. A Go error means
// an upstream failure (gateway, parse) and is converted to a failure result
// by the Executor.
type Tool interface {
	// Metadata returns tool metadata (name, description, parameters, attribution).
	Metadata() ToolMetadata

	// Execute runs the tool with loosely-typed parameters.
	Execute(ctx context.Context, params Params) (ToolResult, error)
}
