// Package storage provides SQLite conversation storage.
//
// Information Hiding:
// - SQLite connection management hidden behind interface
// - Schema and JSON column encoding encapsulated
// - Thread-safe via sql.DB's built-in connection pooling

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/richinex/drwin/model"
)

// SqliteStorage implements ConversationStorage using SQLite.
// Attachments and tool invocations are stored as JSON columns; timestamps
// are kept as the original strings.
type SqliteStorage struct {
	db *sql.DB
}

// OpenSqlite opens or creates a SQLite database at the given path.
// Creates parent directories if they don't exist.
func OpenSqlite(path string) (*SqliteStorage, error) {
	// Create parent directory if needed
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	return newSqlite(db)
}

// NewSqliteInMemory creates an in-memory database (useful for testing).
func NewSqliteInMemory() (*SqliteStorage, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite: %w", err)
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)
	return newSqlite(db)
}

func newSqlite(db *sql.DB) (*SqliteStorage, error) {
	storage := &SqliteStorage{db: db}
	if err := storage.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return storage, nil
}

// Close closes the database connection.
func (s *SqliteStorage) Close() error {
	return s.db.Close()
}

func (s *SqliteStorage) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%d %H:%M:%f', 'now')),
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%d %H:%M:%f', 'now'))
		);

		CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			message_index INTEGER NOT NULL,
			role TEXT NOT NULL,
			text TEXT NOT NULL,
			timestamp TEXT NOT NULL,
			priority TEXT NOT NULL DEFAULT '',
			attachments TEXT,
			tool_invocations TEXT,
			FOREIGN KEY (session_id) REFERENCES sessions(session_id) ON DELETE CASCADE,
			UNIQUE(session_id, message_index)
		);

		CREATE INDEX IF NOT EXISTS idx_messages_session
		ON messages(session_id, message_index);
	`

	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Append adds messages to the end of a session's log in one transaction.
func (s *SqliteStorage) Append(ctx context.Context, sessionID string, messages ...model.ConversationMessage) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	// defer tx.Rollback() is safe even after Commit() - it becomes a no-op
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO sessions (session_id) VALUES (?)", sessionID); err != nil {
		return fmt.Errorf("failed to ensure session: %w", err)
	}

	var next int
	if err := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(message_index) + 1, 0) FROM messages WHERE session_id = ?",
		sessionID).Scan(&next); err != nil {
		return fmt.Errorf("failed to read message index: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO messages
		(session_id, message_index, role, text, timestamp, priority, attachments, tool_invocations)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	for i, msg := range messages {
		attachments, err := jsonColumn(msg.Attachments, len(msg.Attachments))
		if err != nil {
			return fmt.Errorf("failed to encode attachments: %w", err)
		}
		invocations, err := jsonColumn(msg.ToolInvocations, len(msg.ToolInvocations))
		if err != nil {
			return fmt.Errorf("failed to encode tool invocations: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, sessionID, next+i, string(msg.Role), msg.Text,
			msg.Timestamp, string(msg.Priority), attachments, invocations); err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE sessions SET updated_at = strftime('%Y-%m-%d %H:%M:%f', 'now') WHERE session_id = ?",
		sessionID); err != nil {
		return fmt.Errorf("failed to update session timestamp: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// jsonColumn encodes v, or returns NULL when it is empty.
func jsonColumn(v any, n int) (any, error) {
	if n == 0 {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Load loads the log for a session.
// Returns empty slice if session doesn't exist.
func (s *SqliteStorage) Load(ctx context.Context, sessionID string) ([]model.ConversationMessage, error) {
	return s.query(ctx, `
		SELECT role, text, timestamp, priority, attachments, tool_invocations
		FROM messages WHERE session_id = ? ORDER BY message_index ASC`,
		sessionID)
}

// Recent returns the last n messages of a session in insertion order.
func (s *SqliteStorage) Recent(ctx context.Context, sessionID string, n int) ([]model.ConversationMessage, error) {
	if n <= 0 {
		return []model.ConversationMessage{}, nil
	}
	return s.query(ctx, `
		SELECT role, text, timestamp, priority, attachments, tool_invocations FROM (
			SELECT * FROM messages WHERE session_id = ?
			ORDER BY message_index DESC LIMIT ?
		) ORDER BY message_index ASC`,
		sessionID, n)
}

func (s *SqliteStorage) query(ctx context.Context, q string, args ...any) ([]model.ConversationMessage, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	messages := []model.ConversationMessage{} // Start with empty slice, not nil
	for rows.Next() {
		var (
			msg                      model.ConversationMessage
			role, priority           string
			attachments, invocations sql.NullString
		)
		if err := rows.Scan(&role, &msg.Text, &msg.Timestamp, &priority, &attachments, &invocations); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msg.Role = model.Role(role)
		msg.Priority = model.Priority(priority)
		if attachments.Valid {
			if err := json.Unmarshal([]byte(attachments.String), &msg.Attachments); err != nil {
				return nil, fmt.Errorf("failed to decode attachments: %w", err)
			}
		}
		if invocations.Valid {
			if err := json.Unmarshal([]byte(invocations.String), &msg.ToolInvocations); err != nil {
				return nil, fmt.Errorf("failed to decode tool invocations: %w", err)
			}
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}
	return messages, nil
}

// Clear deletes a session and its messages.
func (s *SqliteStorage) Clear(ctx context.Context, sessionID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM messages WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM sessions WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListSessions lists all session IDs, most recently updated first.
func (s *SqliteStorage) ListSessions(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT session_id FROM sessions ORDER BY updated_at DESC, rowid DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []string{} // Start with empty slice, not nil
	for rows.Next() {
		var sessionID string
		if err := rows.Scan(&sessionID); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, sessionID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}
	return sessions, nil
}

// Exists checks if a session exists.
func (s *SqliteStorage) Exists(ctx context.Context, sessionID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sessions WHERE session_id = ?",
		sessionID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check session existence: %w", err)
	}
	return count > 0, nil
}

// Verify SqliteStorage implements ConversationStorage
var _ ConversationStorage = (*SqliteStorage)(nil)
