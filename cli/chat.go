// Interactive and one-shot conversation commands.
//
// Information Hiding:
// - REPL command parsing hidden
// - Progress and response rendering hidden

package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/richinex/drwin/agent"
)

// Ask runs a single turn with the given files attached.
func Ask(ctx context.Context, app *App, w io.Writer, prompt string, files []string, opts Options) error {
	session := NewSession(app.Agent, app.Store, "")
	for _, f := range files {
		att, err := LoadAttachment(f)
		if err != nil {
			return err
		}
		session.Attach(att)
	}

	resp, err := session.Turn(ctx, prompt, progressPrinter(w, app.Settings.Agent.ShowProgress))
	if err != nil {
		return err
	}
	printResponse(w, resp, opts.Verbose)
	if !resp.IsSuccess() {
		return fmt.Errorf("turn failed: %s", resp.Error)
	}
	return nil
}

// Chat runs the REPL until /exit or end of input.
func Chat(ctx context.Context, app *App, r io.Reader, w io.Writer, sessionID string, opts Options) error {
	session := NewSession(app.Agent, app.Store, sessionID)

	if sessionID != "" {
		history, err := app.Store.Load(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("failed to load history: %w", err)
		}
		if len(history) > 0 {
			fmt.Fprintf(w, "Resuming session '%s' (%d messages)\n\n", sessionID, len(history))
		}
	}
	fmt.Fprintf(w, "Chat with Dr. Win (session %s). Commands: /attach <path>, /new, /exit\n\n", session.ID)

	progress := progressPrinter(w, app.Settings.Agent.ShowProgress)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for {
		fmt.Fprint(w, "> ")
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			cmd, arg, _ := strings.Cut(input, " ")
			arg = strings.TrimSpace(arg)
			switch cmd {
			case "/exit", "/quit":
				return nil
			case "/new":
				session.Reset()
				fmt.Fprintf(w, "Started session %s\n\n", session.ID)
			case "/attach":
				if arg == "" {
					fmt.Fprintln(w, "Usage: /attach <path>")
					continue
				}
				att, err := LoadAttachment(arg)
				if err != nil {
					fmt.Fprintf(w, "Error: %v\n", err)
					continue
				}
				session.Attach(att)
				fmt.Fprintf(w, "Attached %s (%s). It will be sent with your next message.\n", att.Name, att.MIMEType)
			default:
				fmt.Fprintf(w, "Unknown command %s\n", cmd)
			}
			continue
		}

		resp, err := session.Turn(ctx, input, progress)
		if err != nil {
			fmt.Fprintf(w, "Warning: %v\n", err)
		}
		printResponse(w, resp, opts.Verbose)
	}
	return scanner.Err()
}

func progressPrinter(w io.Writer, enabled bool) agent.ProgressFunc {
	if !enabled {
		return nil
	}
	return func(e agent.ProgressEvent) {
		fmt.Fprintf(w, "  [%d/%d] Consulting %s: %s\n", e.Index, e.Total, e.Specialist, e.Tool)
	}
}

func printResponse(w io.Writer, resp agent.Response, verbose bool) {
	fmt.Fprintf(w, "\n%s\n\n", resp.Text)
	if !verbose {
		return
	}
	meta := resp.Metadata
	fmt.Fprintf(w, "(strategy: %s, llm calls: %d, %d ms)\n", meta.Strategy, meta.LLMCalls, meta.ExecutionTimeMs)
	for _, call := range meta.ToolCalls {
		status := "ok"
		if !call.Success {
			status = "failed"
		}
		fmt.Fprintf(w, "  - %s by %s: %s in %d ms\n", call.Name, call.Specialist, status, call.DurationMs)
	}
	fmt.Fprintln(w)
}
