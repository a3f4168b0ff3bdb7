// Catalog and history commands.
//
// Information Hiding:
// - Listing layout hidden

package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/richinex/drwin/storage"
	"github.com/richinex/drwin/tools"
)

// ListTools prints the catalog grouped as registered, with specialists.
func ListTools(w io.Writer, registry *tools.Registry, verbose bool) {
	fmt.Fprintln(w, "Available tools:")
	fmt.Fprintln(w)
	var group tools.Group
	for _, meta := range registry.List() {
		if meta.Group != group {
			group = meta.Group
			fmt.Fprintf(w, "[%s]\n", group)
		}
		fmt.Fprintf(w, "  %-32s %s\n", meta.Name, meta.Specialist)
		if !verbose {
			continue
		}
		fmt.Fprintf(w, "      %s\n", meta.Description)
		for _, p := range meta.Parameters {
			required := ""
			if p.Required {
				required = " (required)"
			}
			fmt.Fprintf(w, "      - %s: %s%s\n", p.Name, p.ParamType, required)
		}
	}
}

// ListSessions prints stored session IDs, most recent first.
func ListSessions(ctx context.Context, w io.Writer, store storage.ConversationStorage) error {
	sessions, err := store.ListSessions(ctx)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No stored sessions.")
		return nil
	}
	for _, id := range sessions {
		fmt.Fprintln(w, id)
	}
	return nil
}

// History prints one session as markdown.
func History(ctx context.Context, w io.Writer, store storage.ConversationStorage, sessionID string) error {
	return Export(ctx, w, store, sessionID, string(storage.FormatMarkdown))
}

// Export writes a stored session in the named format.
func Export(ctx context.Context, w io.Writer, store storage.ConversationStorage, sessionID, format string) error {
	f, err := storage.ParseExportFormat(format)
	if err != nil {
		return err
	}
	exists, err := store.Exists(ctx, sessionID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("session %q not found", sessionID)
	}
	messages, err := store.Load(ctx, sessionID)
	if err != nil {
		return err
	}
	return storage.Export(w, f, sessionID, messages)
}
