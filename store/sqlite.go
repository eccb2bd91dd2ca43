package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/iblflow/orchestrator/domain"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			thread_id TEXT PRIMARY KEY,
			active_domain TEXT,
			last_decision TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			message_id TEXT NOT NULL UNIQUE,
			thread_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			tool_call_id TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (thread_id) REFERENCES sessions(thread_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_thread ON messages(thread_id, seq)`,
		`CREATE TABLE IF NOT EXISTS agent_state (
			thread_id TEXT PRIMARY KEY,
			domain TEXT NOT NULL,
			record TEXT NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (thread_id) REFERENCES sessions(thread_id)
		)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetSession retrieves a session by thread id. Returns nil when absent.
func (s *SQLiteStore) GetSession(ctx context.Context, threadID string) (*domain.Session, error) {
	var session domain.Session
	var activeDomain, lastDecision sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT thread_id, active_domain, last_decision, created_at FROM sessions WHERE thread_id = ?`,
		threadID).Scan(&session.ThreadID, &activeDomain, &lastDecision, &session.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if activeDomain.Valid {
		session.ActiveDomain = domain.Domain(activeDomain.String)
	}
	if lastDecision.Valid {
		session.LastDecision = json.RawMessage(lastDecision.String)
	}
	return &session, nil
}

// GetOrCreateSession gets an existing session or creates a new one.
func (s *SQLiteStore) GetOrCreateSession(ctx context.Context, threadID string) (*domain.Session, error) {
	session, err := s.GetSession(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if session != nil {
		return session, nil
	}

	session = &domain.Session{
		ThreadID:  threadID,
		CreatedAt: time.Now(),
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (thread_id, created_at) VALUES (?, ?)`,
		session.ThreadID, session.CreatedAt)
	if err != nil {
		return nil, err
	}
	return session, nil
}

// UpdateSessionDecision stores the supervisor's last routing decision.
func (s *SQLiteStore) UpdateSessionDecision(ctx context.Context, threadID string, decision json.RawMessage) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET last_decision = ? WHERE thread_id = ?`,
		string(decision), threadID)
	return err
}

// UpdateSessionDomain stores the thread's active sub-agent domain.
func (s *SQLiteStore) UpdateSessionDomain(ctx context.Context, threadID string, d domain.Domain) error {
	var val sql.NullString
	if d != "" {
		val = sql.NullString{String: string(d), Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET active_domain = ? WHERE thread_id = ?`,
		val, threadID)
	return err
}

// AppendMessages inserts messages in one transaction, preserving input order.
func (s *SQLiteStore) AppendMessages(ctx context.Context, messages []domain.Message) error {
	if len(messages) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, msg := range messages {
		var toolCallID sql.NullString
		if msg.ToolCallID != "" {
			toolCallID = sql.NullString{String: msg.ToolCallID, Valid: true}
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO messages (message_id, thread_id, role, content, tool_call_id, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			msg.MessageID, msg.ThreadID, msg.Role, msg.Content, toolCallID, msg.CreatedAt)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListMessages retrieves a thread's messages in append order.
func (s *SQLiteStore) ListMessages(ctx context.Context, threadID string, limit int) ([]domain.Message, error) {
	query := `SELECT message_id, thread_id, role, content, tool_call_id, created_at FROM messages WHERE thread_id = ? ORDER BY seq ASC`
	args := []interface{}{threadID}
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		var toolCallID sql.NullString
		if err := rows.Scan(&msg.MessageID, &msg.ThreadID, &msg.Role, &msg.Content, &toolCallID, &msg.CreatedAt); err != nil {
			return nil, err
		}
		if toolCallID.Valid {
			msg.ToolCallID = toolCallID.String
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// GetAgentState retrieves the in-flight record for a thread. Returns nil when
// the thread has no pending workflow.
func (s *SQLiteStore) GetAgentState(ctx context.Context, threadID string) (*domain.AgentState, error) {
	var state domain.AgentState
	var record string
	err := s.db.QueryRowContext(ctx,
		`SELECT thread_id, domain, record, updated_at FROM agent_state WHERE thread_id = ?`,
		threadID).Scan(&state.ThreadID, &state.Domain, &record, &state.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(record), &state.Record); err != nil {
		return nil, fmt.Errorf("failed to decode stored record: %w", err)
	}
	return &state, nil
}

// PutAgentState upserts the in-flight record for a thread.
func (s *SQLiteStore) PutAgentState(ctx context.Context, state *domain.AgentState) error {
	record, err := json.Marshal(state.Record)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO agent_state (thread_id, domain, record, updated_at) VALUES (?, ?, ?, ?)`,
		state.ThreadID, state.Domain, string(record), state.UpdatedAt)
	return err
}

// ClearAgentState removes the in-flight record after a successful commit.
func (s *SQLiteStore) ClearAgentState(ctx context.Context, threadID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM agent_state WHERE thread_id = ?`, threadID)
	return err
}
