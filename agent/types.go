// Package agent provides the conversational orchestrator.
//
// Contains the types produced by a turn: responses, directives, progress
// events and execution metadata.
package agent

import (
	"github.com/richinex/drwin/model"
	"github.com/richinex/drwin/tools"
)

// Directive is a tool invocation request parsed from a model reply.
type Directive struct {
	Tool   string       `json:"tool"`
	Params tools.Params `json:"params"`
}

// Strategy names the parsing strategy that produced a turn's directives.
type Strategy string

const (
	StrategyNone             Strategy = "none"
	StrategyToolFence        Strategy = "tool_fence"
	StrategyJSONFence        Strategy = "json_fence"
	StrategyInlineJSON       Strategy = "inline_json"
	StrategyVerbHeuristic    Strategy = "verb_heuristic"
	StrategyConceptHeuristic Strategy = "concept_heuristic"
)

// ProgressEvent is emitted once per directive before any tool runs.
type ProgressEvent struct {
	Tool       string
	Specialist tools.Specialist
	Index      int // 1-based
	Total      int
}

// ProgressFunc receives progress events. It is called from the goroutine
// running ProcessTurn.
type ProgressFunc func(ProgressEvent)

// TurnState is the phase a turn is in.
type TurnState int

const (
	StateAwaitingToolSelection TurnState = iota
	StateAwaitingSynthesis
	StateDone
)

// String returns the state name.
func (s TurnState) String() string {
	switch s {
	case StateAwaitingToolSelection:
		return "awaiting_tool_selection"
	case StateAwaitingSynthesis:
		return "awaiting_synthesis"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// ToolCall records one executed tool for telemetry.
type ToolCall struct {
	Name       string           `json:"name"`
	Specialist tools.Specialist `json:"specialist"`
	DurationMs uint64           `json:"durationMs"`
	Success    bool             `json:"success"`
}

// Metadata contains metadata about turn execution.
type Metadata struct {
	ExecutionTimeMs uint64
	Strategy        Strategy
	LLMCalls        int
	ToolCalls       []ToolCall
	// FailedState is the state a failed turn stopped in.
	FailedState TurnState
}

// ResponseType indicates the type of turn response.
type ResponseType int

const (
	ResponseSuccess ResponseType = iota
	ResponseFailure
)

// Response is the outcome of one turn. Text is always safe to show to the
// user; Error carries the internal cause of a failure.
type Response struct {
	Type            ResponseType
	Text            string
	Error           string
	ToolInvocations []model.ToolInvocation
	Results         []tools.ToolResult
	Metadata        Metadata
}

// IsSuccess checks if the turn completed.
func (r Response) IsSuccess() bool {
	return r.Type == ResponseSuccess
}

// Message converts the response into the model turn appended to the log.
func (r Response) Message() model.ConversationMessage {
	return model.NewModelMessage(r.Text, r.ToolInvocations)
}
