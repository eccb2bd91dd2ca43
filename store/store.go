// Package store defines the session storage interface and implementations.
package store

import (
	"context"
	"encoding/json"

	"github.com/iblflow/orchestrator/domain"
)

// Store persists conversation sessions, their ordered message history, and
// the in-flight record of the thread's pending workflow. Message order is a
// single total order per thread matching turn-completion order.
type Store interface {
	// Session operations
	GetSession(ctx context.Context, threadID string) (*domain.Session, error)
	GetOrCreateSession(ctx context.Context, threadID string) (*domain.Session, error)
	UpdateSessionDecision(ctx context.Context, threadID string, decision json.RawMessage) error
	UpdateSessionDomain(ctx context.Context, threadID string, d domain.Domain) error

	// Message operations
	AppendMessages(ctx context.Context, messages []domain.Message) error
	ListMessages(ctx context.Context, threadID string, limit int) ([]domain.Message, error)

	// In-flight record operations
	GetAgentState(ctx context.Context, threadID string) (*domain.AgentState, error)
	PutAgentState(ctx context.Context, state *domain.AgentState) error
	ClearAgentState(ctx context.Context, threadID string) error

	// Lifecycle
	Close() error
}
