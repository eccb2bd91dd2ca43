// Package gateway talks to the system of record that durably stores
// finalized domain records.
package gateway

import (
	"context"

	"github.com/iblflow/orchestrator/domain"
)

// Gateway persists a finalized record. Commits are idempotent by record key:
// the same payload yields the same reference id, so a retried confirmation
// after a failure cannot double-insert.
type Gateway interface {
	Commit(ctx context.Context, d domain.Domain, record domain.CommitRecord) (*domain.CommitResult, error)
}
