// Conversation export.
//
// Information Hiding:
// - Markdown layout hidden
// - JSON document shape hidden

package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/richinex/drwin/model"
)

// ExportFormat selects the export encoding.
type ExportFormat string

const (
	FormatMarkdown ExportFormat = "md"
	FormatJSON     ExportFormat = "json"
)

// ParseExportFormat maps "md", "markdown" or "json" to a format.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "md", "markdown":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown export format %q (use md or json)", s)
	}
}

// Export writes a session's log in the given format.
func Export(w io.Writer, format ExportFormat, sessionID string, messages []model.ConversationMessage) error {
	switch format {
	case FormatMarkdown:
		return ExportMarkdown(w, sessionID, messages)
	case FormatJSON:
		return ExportJSON(w, sessionID, messages)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

// ExportMarkdown writes the log as a markdown document, one heading per turn.
func ExportMarkdown(w io.Writer, sessionID string, messages []model.ConversationMessage) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# Conversation %s\n", sessionID)
	for _, m := range messages {
		who := "User"
		if m.Role == model.RoleModel {
			who = "Dr. Win"
		}
		fmt.Fprintf(&b, "\n## %s · %s", who, m.Timestamp)
		if m.Priority != model.PriorityNone {
			fmt.Fprintf(&b, " · Priority: %s", m.Priority)
		}
		b.WriteString("\n\n")
		b.WriteString(strings.TrimSpace(m.Text))
		b.WriteString("\n")
		if len(m.Attachments) > 0 {
			names := make([]string, len(m.Attachments))
			for i, a := range m.Attachments {
				names[i] = a.Name
			}
			fmt.Fprintf(&b, "\n_Attachments: %s_\n", strings.Join(names, ", "))
		}
		if len(m.ToolInvocations) > 0 {
			names := make([]string, len(m.ToolInvocations))
			for i, t := range m.ToolInvocations {
				names[i] = t.Name
			}
			fmt.Fprintf(&b, "\n_Tools: %s_\n", strings.Join(names, ", "))
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

type exportedMessage struct {
	Role      model.Role     `json:"role"`
	Text      string         `json:"text"`
	Timestamp string         `json:"timestamp"`
	Priority  model.Priority `json:"priority,omitempty"`
}

type exportedConversation struct {
	SessionID string            `json:"sessionId"`
	Messages  []exportedMessage `json:"messages"`
}

// ExportJSON writes the log as an indented JSON document carrying role,
// text, timestamp and priority.
func ExportJSON(w io.Writer, sessionID string, messages []model.ConversationMessage) error {
	doc := exportedConversation{SessionID: sessionID, Messages: make([]exportedMessage, len(messages))}
	for i, m := range messages {
		doc.Messages[i] = exportedMessage{Role: m.Role, Text: m.Text, Timestamp: m.Timestamp, Priority: m.Priority}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
