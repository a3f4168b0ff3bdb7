// Conversation sessions over the orchestrator.
//
// Information Hiding:
// - History window loading and turn persistence hidden
// - Attachment file reading and MIME detection hidden

package cli

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/richinex/drwin/agent"
	"github.com/richinex/drwin/model"
	"github.com/richinex/drwin/storage"
)

// Session runs turns for one conversation and persists successful ones.
type Session struct {
	ID      string
	agent   *agent.Agent
	store   storage.ConversationStorage
	pending []model.Attachment
}

// NewSession opens a session. An empty id starts a new conversation.
func NewSession(a *agent.Agent, store storage.ConversationStorage, id string) *Session {
	if id == "" {
		id = storage.NewSessionID()
	}
	return &Session{ID: id, agent: a, store: store}
}

// Attach queues a file for the next turn.
func (s *Session) Attach(att model.Attachment) {
	s.pending = append(s.pending, att)
}

// Pending returns the names of files queued for the next turn.
func (s *Session) Pending() []string {
	names := make([]string, len(s.pending))
	for i, a := range s.pending {
		names[i] = a.Name
	}
	return names
}

// Reset starts a new conversation and drops queued files.
func (s *Session) Reset() {
	s.ID = storage.NewSessionID()
	s.pending = nil
}

// Turn sends text with any queued files. Failed turns are not persisted so
// apologies never enter the history the model sees.
func (s *Session) Turn(ctx context.Context, text string, progress agent.ProgressFunc) (agent.Response, error) {
	history, err := s.store.Recent(ctx, s.ID, s.agent.Config().HistoryWindow)
	if err != nil {
		return agent.Response{}, fmt.Errorf("failed to load history: %w", err)
	}

	attachments := s.pending
	s.pending = nil
	resp := s.agent.ProcessTurn(ctx, text, attachments, history, progress)
	if !resp.IsSuccess() {
		return resp, nil
	}

	if err := s.store.Append(ctx, s.ID,
		model.NewUserMessage(text, attachments...),
		model.NewModelMessage(resp.Text, resp.ToolInvocations),
	); err != nil {
		return resp, fmt.Errorf("failed to save history: %w", err)
	}
	return resp, nil
}

// LoadAttachment reads a file into a base64 attachment. The MIME type comes
// from the extension, falling back to content sniffing.
func LoadAttachment(path string) (model.Attachment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Attachment{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	return model.Attachment{
		Name:     filepath.Base(path),
		MIMEType: mimeType,
		Data:     base64.StdEncoding.EncodeToString(data),
	}, nil
}
