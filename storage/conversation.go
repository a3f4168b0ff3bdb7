// Package storage provides conversation log storage.
//
// Information Hiding:
// - Storage backend implementation details hidden behind interface
// - Allows swapping between memory and SQLite without API changes
// - Attachment and tool invocation encoding encapsulated per backend

package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/richinex/drwin/model"
)

// ConversationStorage is an append-only conversation log keyed by session.
// Messages are returned in insertion order and are never rewritten.
type ConversationStorage interface {
	// Append adds messages to the end of a session's log, creating the
	// session if needed.
	Append(ctx context.Context, sessionID string, messages ...model.ConversationMessage) error

	// Load returns the whole log for a session.
	// Returns empty slice (not nil) if session doesn't exist.
	// Returns error only for storage failures (I/O errors, etc.), not missing sessions.
	Load(ctx context.Context, sessionID string) ([]model.ConversationMessage, error)

	// Recent returns the last n messages in insertion order.
	Recent(ctx context.Context, sessionID string, n int) ([]model.ConversationMessage, error)

	// Clear removes a session and its log.
	Clear(ctx context.Context, sessionID string) error

	// ListSessions lists session IDs, most recently updated first.
	ListSessions(ctx context.Context) ([]string, error)

	// Exists checks if a session exists.
	Exists(ctx context.Context, sessionID string) (bool, error)
}

// NewSessionID returns a fresh random session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// cloneMessages copies messages and their slices so stored logs never alias
// caller memory.
func cloneMessages(in []model.ConversationMessage) []model.ConversationMessage {
	out := make([]model.ConversationMessage, len(in))
	for i, m := range in {
		if m.Attachments != nil {
			m.Attachments = append([]model.Attachment(nil), m.Attachments...)
		}
		if m.ToolInvocations != nil {
			m.ToolInvocations = append([]model.ToolInvocation(nil), m.ToolInvocations...)
		}
		out[i] = m
	}
	return out
}
