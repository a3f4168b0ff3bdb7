// Package storage provides in-memory conversation storage.
//
// Information Hiding:
// - Map storage structure hidden from users
// - Thread-safe access via RWMutex hidden behind interface
// - Suitable for testing and ephemeral sessions

package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/richinex/drwin/model"
)

type memorySession struct {
	messages []model.ConversationMessage
	updated  uint64
}

// InMemoryStorage implements ConversationStorage using an in-memory map.
// Data is lost when process terminates.
type InMemoryStorage struct {
	mu       sync.RWMutex
	sessions map[string]*memorySession
	clock    uint64
}

// NewInMemoryStorage creates a new in-memory storage.
func NewInMemoryStorage() *InMemoryStorage {
	return &InMemoryStorage{
		sessions: make(map[string]*memorySession),
	}
}

// Append adds messages to a session's log.
func (s *InMemoryStorage) Append(ctx context.Context, sessionID string, messages ...model.ConversationMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = &memorySession{}
		s.sessions[sessionID] = sess
	}
	// Copy to avoid external mutations
	sess.messages = append(sess.messages, cloneMessages(messages)...)
	s.clock++
	sess.updated = s.clock
	return nil
}

// Load loads the log for a session.
// Returns empty slice if session doesn't exist.
func (s *InMemoryStorage) Load(ctx context.Context, sessionID string) ([]model.ConversationMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return []model.ConversationMessage{}, nil
	}
	return cloneMessages(sess.messages), nil
}

// Recent returns the last n messages of a session.
func (s *InMemoryStorage) Recent(ctx context.Context, sessionID string, n int) ([]model.ConversationMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok || n <= 0 {
		return []model.ConversationMessage{}, nil
	}
	msgs := sess.messages
	if len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	return cloneMessages(msgs), nil
}

// Clear deletes a session.
func (s *InMemoryStorage) Clear(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	return nil
}

// ListSessions lists all session IDs, most recently updated first.
func (s *InMemoryStorage) ListSessions(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]string, 0, len(s.sessions))
	for sessionID := range s.sessions {
		sessions = append(sessions, sessionID)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return s.sessions[sessions[i]].updated > s.sessions[sessions[j]].updated
	})
	return sessions, nil
}

// Exists checks if a session exists.
func (s *InMemoryStorage) Exists(ctx context.Context, sessionID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.sessions[sessionID]
	return ok, nil
}

// Verify InMemoryStorage implements ConversationStorage
var _ ConversationStorage = (*InMemoryStorage)(nil)
