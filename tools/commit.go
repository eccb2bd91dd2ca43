package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/iblflow/orchestrator/domain"
	"github.com/iblflow/orchestrator/gateway"
)

// CommitToolName is the registry name of the database update tool. It mirrors
// the UpdateDB tool exposed by the db server so the oracle layer can call the
// commit gateway directly.
const CommitToolName = "db.update"

type commitArgs struct {
	Domain string              `json:"domain"`
	Record domain.CommitRecord `json:"record"`
}

// NewCommitExecutor adapts the commit gateway into a registry executor with
// the multiplexed parameter shape {record: object, domain: enum}.
func NewCommitExecutor(gw gateway.Gateway) ExecutorFunc {
	return func(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
		var parsed commitArgs
		if err := json.Unmarshal(args, &parsed); err != nil {
			return nil, fmt.Errorf("invalid db.update args: %w", err)
		}
		d := domain.Domain(parsed.Domain)
		if !d.Valid() {
			return nil, fmt.Errorf("invalid db.update domain %q", parsed.Domain)
		}

		result, err := gw.Commit(ctx, d, parsed.Record)
		if err != nil {
			return nil, err
		}
		return json.Marshal(result)
	}
}
