// Two-phase turn loop.
//
// A turn moves through AwaitingToolSelection, AwaitingSynthesis and Done.
// Each gateway phase runs under its own timeout; tool dispatch happens on
// the transition between them.
//
// Information Hiding:
// - Turn state transitions hidden
// - Concurrent dispatch and attachment forwarding hidden
// - Gateway failure humanization hidden

package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/richinex/drwin/llm"
	"github.com/richinex/drwin/model"
	"github.com/richinex/drwin/tools"
)

// Observer receives per-turn notifications (typically a metrics recorder).
type Observer interface {
	ObserveDirectiveStrategy(strategy string)
	ObserveTurn(duration time.Duration, success bool)
}

// Agent drives conversation turns against a gateway and a tool executor.
// It holds no per-turn state and is safe for concurrent use.
type Agent struct {
	config   Config
	gateway  llm.Gateway
	executor *tools.Executor
	logger   *slog.Logger
	observer Observer
}

// New creates an agent. The executor's registry is the tool catalog shown
// to the model.
func New(config Config, gateway llm.Gateway, executor *tools.Executor) *Agent {
	return &Agent{
		config:   config.withDefaults(),
		gateway:  gateway,
		executor: executor,
		logger:   slog.Default(),
	}
}

// WithLogger sets the logger.
func (a *Agent) WithLogger(logger *slog.Logger) *Agent {
	if logger != nil {
		a.logger = logger
	}
	return a
}

// WithObserver sets a turn observer.
func (a *Agent) WithObserver(observer Observer) *Agent {
	a.observer = observer
	return a
}

// Config returns the effective configuration.
func (a *Agent) Config() Config {
	return a.config
}

// turn is the state of one ProcessTurn call.
type turn struct {
	state       TurnState
	text        string
	attachments []model.Attachment
	history     []model.ConversationMessage
	progress    ProgressFunc

	firstReply string
	directives []Directive
	results    []tools.ToolResult
	resp       Response
}

// ProcessTurn runs one user turn end to end. It never returns a Go error:
// failures yield a ResponseFailure whose Text is a user-facing apology.
// history is the conversation before this turn; only the most recent
// HistoryWindow messages are sent. progress may be nil.
func (a *Agent) ProcessTurn(ctx context.Context, text string, attachments []model.Attachment, history []model.ConversationMessage, progress ProgressFunc) Response {
	start := time.Now()
	t := &turn{
		state:       StateAwaitingToolSelection,
		text:        text,
		attachments: attachments,
		history:     window(history, a.config.HistoryWindow),
		progress:    progress,
	}
	t.resp.Metadata.Strategy = StrategyNone

	for t.state != StateDone {
		switch t.state {
		case StateAwaitingToolSelection:
			a.selectTools(ctx, t)
		case StateAwaitingSynthesis:
			a.synthesize(ctx, t)
		}
	}

	elapsed := time.Since(start)
	t.resp.Metadata.ExecutionTimeMs = uint64(elapsed.Milliseconds())
	if a.observer != nil {
		a.observer.ObserveTurn(elapsed, t.resp.IsSuccess())
	}
	return t.resp
}

// selectTools runs phase one, then dispatches any directives.
func (a *Agent) selectTools(ctx context.Context, t *turn) {
	callCtx, cancel := context.WithTimeout(ctx, a.config.SelectionTimeout)
	defer cancel()

	reply, err := a.gateway.Generate(callCtx, llm.Request{
		System: a.systemInstruction(),
		Parts:  turnParts(t.history, t.text, t.attachments),
		Label:  "agent:selection",
	})
	t.resp.Metadata.LLMCalls++
	if err != nil {
		a.fail(t, err)
		return
	}
	t.firstReply = reply

	directives, strategy := ParseDirectives(reply, a.executor.Registry().Names())
	t.resp.Metadata.Strategy = strategy
	if a.observer != nil {
		a.observer.ObserveDirectiveStrategy(string(strategy))
	}
	if len(directives) == 0 {
		t.resp.Type = ResponseSuccess
		t.resp.Text = reply
		t.state = StateDone
		return
	}
	a.logger.Info("tool directives parsed", "strategy", strategy, "count", len(directives))

	t.directives = directives
	a.dispatch(ctx, t)
	t.state = StateAwaitingSynthesis
}

// dispatch announces every directive, then runs them concurrently. One
// failing tool never cancels its siblings.
func (a *Agent) dispatch(ctx context.Context, t *turn) {
	registry := a.executor.Registry()
	total := len(t.directives)
	for i, d := range t.directives {
		specialist, _ := registry.Specialist(d.Tool)
		if t.progress != nil {
			t.progress(ProgressEvent{Tool: d.Tool, Specialist: specialist, Index: i + 1, Total: total})
		}
	}

	results := make([]tools.ToolResult, total)
	calls := make([]ToolCall, total)
	var g errgroup.Group
	g.SetLimit(a.config.MaxParallelTools)
	for i, d := range t.directives {
		params := withAttachments(d.Params, t.attachments)
		g.Go(func() error {
			start := time.Now()
			results[i] = a.executor.Execute(ctx, d.Tool, params)
			calls[i] = ToolCall{
				Name:       d.Tool,
				Specialist: results[i].Specialist,
				DurationMs: uint64(time.Since(start).Milliseconds()),
				Success:    results[i].Success(),
			}
			return nil
		})
	}
	_ = g.Wait() // goroutines never return errors

	invocations := make([]model.ToolInvocation, total)
	for i, d := range t.directives {
		invocations[i] = model.ToolInvocation{Name: d.Tool, Arguments: d.Params.Map()}
	}
	t.results = results
	t.resp.Results = results
	t.resp.ToolInvocations = invocations
	t.resp.Metadata.ToolCalls = calls
}

// withAttachments forwards the turn's files to a tool that was not given
// any. The directive's own params are not modified.
func withAttachments(params tools.Params, attachments []model.Attachment) tools.Params {
	out := make(tools.Params, len(params)+1)
	for k, v := range params {
		out[k] = v
	}
	if len(attachments) == 0 {
		return out
	}
	if _, ok := out.Lookup("files"); ok {
		return out
	}
	files := make([]any, 0, len(attachments))
	for _, att := range attachments {
		if att.Data == "" {
			continue
		}
		files = append(files, map[string]any{"name": att.Name, "mimeType": att.MIMEType, "data": att.Data})
	}
	if len(files) > 0 {
		out["files"] = files
	}
	return out
}

// synthesize runs phase two over the collected results.
func (a *Agent) synthesize(ctx context.Context, t *turn) {
	callCtx, cancel := context.WithTimeout(ctx, a.config.SynthesisTimeout)
	defer cancel()

	reply, err := a.gateway.Generate(callCtx, a.synthesisRequest(t.firstReply, t.results))
	t.resp.Metadata.LLMCalls++
	if err != nil {
		a.fail(t, err)
		return
	}
	t.resp.Type = ResponseSuccess
	t.resp.Text = reply
	t.state = StateDone
}

// fail ends the turn with a humanized apology. The raw error is logged and
// kept in Response.Error only.
func (a *Agent) fail(t *turn, err error) {
	a.logger.Error("turn failed", "state", t.state, "error", err)
	t.resp.Type = ResponseFailure
	t.resp.Error = fmt.Sprintf("%s: %v", t.state, err)
	t.resp.Text = Apology(err, a.config.spanish())
	t.resp.Metadata.FailedState = t.state
	t.state = StateDone
}
