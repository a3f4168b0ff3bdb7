// Agent builder for fluent configuration.
//
// Information Hiding:
// - Registry and executor construction hidden
// - Default value application hidden

package agent

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/richinex/drwin/llm"
	"github.com/richinex/drwin/tools"
)

// Builder provides fluent configuration for creating agents.
// Usage: agent.NewBuilder(gateway).Tools(list).Build()
type Builder struct {
	config       Config
	gateway      llm.Gateway
	tools        []tools.Tool
	toolTimeout  time.Duration
	logger       *slog.Logger
	observer     Observer
	toolObserver tools.ExecutionObserver
}

// NewBuilder creates a builder over gateway with DefaultConfig.
func NewBuilder(gateway llm.Gateway) *Builder {
	return &Builder{
		config:  DefaultConfig(),
		gateway: gateway,
		tools:   []tools.Tool{},
	}
}

// Config replaces the orchestrator configuration.
func (b *Builder) Config(config Config) *Builder {
	b.config = config
	return b
}

// Tool adds a tool to the catalog.
func (b *Builder) Tool(tool tools.Tool) *Builder {
	b.tools = append(b.tools, tool)
	return b
}

// Tools adds multiple tools at once.
func (b *Builder) Tools(toolList []tools.Tool) *Builder {
	b.tools = append(b.tools, toolList...)
	return b
}

// ToolTimeout bounds each tool execution.
func (b *Builder) ToolTimeout(d time.Duration) *Builder {
	b.toolTimeout = d
	return b
}

// Logger sets the logger for the agent and its executor.
func (b *Builder) Logger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// Observer sets the turn observer.
func (b *Builder) Observer(observer Observer) *Builder {
	b.observer = observer
	return b
}

// ToolObserver sets the tool execution observer.
func (b *Builder) ToolObserver(observer tools.ExecutionObserver) *Builder {
	b.toolObserver = observer
	return b
}

// ToolCount returns the number of tools added.
func (b *Builder) ToolCount() int {
	return len(b.tools)
}

// Build creates the registry, the executor and the agent. Duplicate or
// unnamed tools are an error.
func (b *Builder) Build() (*Agent, error) {
	if b.gateway == nil {
		return nil, fmt.Errorf("agent: a gateway is required")
	}
	registry, err := tools.NewRegistry(b.tools...)
	if err != nil {
		return nil, fmt.Errorf("agent: %w", err)
	}
	executor := tools.NewExecutor(registry, b.toolTimeout).WithLogger(b.logger)
	if b.toolObserver != nil {
		executor = executor.WithObserver(b.toolObserver)
	}
	a := New(b.config, b.gateway, executor).WithLogger(b.logger)
	if b.observer != nil {
		a = a.WithObserver(b.observer)
	}
	return a, nil
}
