package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"
)

// ErrSessionNotFound indicates the requested session does not exist.
var ErrSessionNotFound = errors.New("session not found")

// Session is one persisted conversation.
type Session struct {
	ID           uuid.UUID
	Title        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	MessageCount int
}

// Store persists sessions and their messages in SQLite.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStore creates a Store over an opened, migrated database.
func NewStore(db *sql.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}
}

// CreateSession creates a new session and returns its id.
func (s *Store) CreateSession(ctx context.Context, title string) (uuid.UUID, error) {
	id := uuid.New()
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, title, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		id.String(), title, now, now)
	if err != nil {
		return uuid.Nil, fmt.Errorf("creating session: %w", err)
	}

	s.logger.Debug("session created", "session_id", id, "title", title)
	return id, nil
}

// AppendExchange persists one question-answer pair in a single
// transaction and bumps the session's updated timestamp.
func (s *Store) AppendExchange(ctx context.Context, sessionID uuid.UUID, userInput, assistantResponse string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, m := range []struct {
		role, content string
	}{
		{RoleUser, userInput},
		{RoleAssistant, assistantResponse},
	} {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO messages (session_id, role, content, created_at) VALUES (?, ?, ?, ?)`,
			sessionID.String(), m.role, m.content, now); err != nil {
			return fmt.Errorf("inserting %s message: %w", m.role, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE sessions SET updated_at = ? WHERE id = ?`,
		now, sessionID.String()); err != nil {
		return fmt.Errorf("updating session timestamp: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing exchange: %w", err)
	}
	return nil
}

// LoadHistory loads a session's messages in insertion order.
func (s *Store) LoadHistory(ctx context.Context, sessionID uuid.UUID) (*History, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sessions WHERE id = ?`, sessionID.String()).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("looking up session: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT role, content FROM messages WHERE session_id = ? ORDER BY id`,
		sessionID.String())
	if err != nil {
		return nil, fmt.Errorf("loading messages: %w", err)
	}
	defer rows.Close()

	var messages []*ai.Message
	for rows.Next() {
		var role, content string
		if err := rows.Scan(&role, &content); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		switch role {
		case RoleAssistant:
			messages = append(messages, ai.NewModelMessage(ai.NewTextPart(content)))
		default:
			messages = append(messages, ai.NewUserMessage(ai.NewTextPart(content)))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating messages: %w", err)
	}

	history := NewHistory()
	history.SetMessages(messages)
	return history, nil
}

// ListSessions returns the most recently updated sessions, newest first.
func (s *Store) ListSessions(ctx context.Context, limit int) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT s.id, s.title, s.created_at, s.updated_at,
		        (SELECT COUNT(*) FROM messages m WHERE m.session_id = s.id)
		 FROM sessions s
		 ORDER BY s.updated_at DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var (
			sess  Session
			rawID string
		)
		if err := rows.Scan(&rawID, &sess.Title, &sess.CreatedAt, &sess.UpdatedAt, &sess.MessageCount); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sess.ID, err = uuid.Parse(rawID)
		if err != nil {
			return nil, fmt.Errorf("parsing session id %q: %w", rawID, err)
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// DeleteSession removes a session and, via the foreign key cascade, its
// messages.
func (s *Store) DeleteSession(ctx context.Context, sessionID uuid.UUID) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE id = ?`, sessionID.String())
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return nil
}
