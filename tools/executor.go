// Tool Executor with isolation.
//
// Information Hiding:
// - Timeout enforcement hidden
// - Panic recovery and error-to-result conversion hidden
// - Attribution stamping hidden

package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"
)

// DefaultToolTimeout bounds a single tool execution.
const DefaultToolTimeout = 180 * time.Second

// ExecutionObserver receives one notification per tool execution.
type ExecutionObserver interface {
	ObserveToolExecution(tool string, duration time.Duration, success bool)
}

// Executor runs registry tools so that no failure escapes as a Go error:
// unknown names, returned errors, panics and timeouts all become failure
// results.
type Executor struct {
	registry *Registry
	timeout  time.Duration
	logger   *slog.Logger
	observer ExecutionObserver
}

// NewExecutor creates an executor over registry. A non-positive timeout
// selects DefaultToolTimeout.
func NewExecutor(registry *Registry, timeout time.Duration) *Executor {
	if timeout <= 0 {
		timeout = DefaultToolTimeout
	}
	return &Executor{registry: registry, timeout: timeout, logger: slog.Default()}
}

// WithLogger sets the logger.
func (e *Executor) WithLogger(logger *slog.Logger) *Executor {
	if logger != nil {
		e.logger = logger
	}
	return e
}

// WithObserver sets an execution observer.
func (e *Executor) WithObserver(observer ExecutionObserver) *Executor {
	e.observer = observer
	return e
}

// Registry returns the registry the executor dispatches to.
func (e *Executor) Registry() *Registry {
	return e.registry
}

// Execute runs the named tool with params.
func (e *Executor) Execute(ctx context.Context, name string, params Params) ToolResult {
	tool, ok := e.registry.Get(name)
	if !ok {
		e.logger.Warn("unknown tool requested", "tool", name)
		result := e.registry.UnknownTool(name)
		result.Tool = name
		e.observe(name, 0, false)
		return result
	}
	if params == nil {
		params = Params{}
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	result := e.run(ctx, tool, params)
	elapsed := time.Since(start)

	meta := tool.Metadata()
	result.Tool = meta.Name
	result.Specialist = meta.Specialist

	if result.Success() {
		e.logger.Debug("tool completed", "tool", name, "duration", elapsed)
	} else {
		e.logger.Warn("tool failed", "tool", name, "duration", elapsed, "error", result.Error)
	}
	e.observe(name, elapsed, result.Success())
	return result
}

func (e *Executor) run(ctx context.Context, tool Tool, params Params) (result ToolResult) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("tool panicked", "tool", tool.Metadata().Name, "panic", r, "stack", string(debug.Stack()))
			result = FailureResultf("tool '%s' failed unexpectedly: %v", tool.Metadata().Name, r)
		}
	}()

	result, err := tool.Execute(ctx, params)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() != nil {
			return FailureResultf("tool '%s' timed out after %s", tool.Metadata().Name, e.timeout)
		}
		return FailureResult(fmt.Errorf("tool '%s' failed: %w", tool.Metadata().Name, err))
	}
	return result
}

func (e *Executor) observe(name string, d time.Duration, success bool) {
	if e.observer != nil {
		e.observer.ObserveToolExecution(name, d, success)
	}
}
