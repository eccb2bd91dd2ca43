package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/iblflow/orchestrator/domain"
)

// GuardFunc decides whether a tool call may run. A veto becomes an error
// observation for the oracle, not a turn failure.
type GuardFunc func(ctx context.Context, call domain.ToolRequest) (allowed bool, reason string)

// Bridge dispatches tool calls from the supervisor or a sub-agent and turns
// the results into tool-role observation messages.
type Bridge struct {
	registry *Registry
	guard    GuardFunc
}

// NewBridge creates a bridge over the given registry.
func NewBridge(registry *Registry) *Bridge {
	return &Bridge{registry: registry}
}

// SetGuard installs a policy guard consulted before each execution.
func (b *Bridge) SetGuard(guard GuardFunc) {
	b.guard = guard
}

// Execute runs every call in input order and returns one result message per
// call. An unknown tool fails the whole batch with UnknownToolError: a
// dangling call would desynchronize the oracle's expectation of a reply.
func (b *Bridge) Execute(ctx context.Context, threadID string, calls []domain.ToolRequest) ([]domain.Message, error) {
	// Validate the whole batch up front so a failure cannot leave a
	// partially answered batch behind.
	for _, call := range calls {
		if !b.registry.Has(call.Name) {
			return nil, &domain.UnknownToolError{Tool: call.Name, CallID: call.CallID}
		}
	}

	results := make([]domain.Message, 0, len(calls))
	for _, call := range calls {
		if b.guard != nil {
			if allowed, reason := b.guard(ctx, call); !allowed {
				observation, _ := json.Marshal(map[string]string{
					"error": fmt.Sprintf("tool %s blocked by policy: %s", call.Name, reason),
				})
				msg := domain.NewMessage(threadID, domain.RoleTool, string(observation))
				msg.ToolCallID = call.CallID
				results = append(results, msg)
				continue
			}
		}
		observation, err := b.registry.Execute(ctx, call.Name, call.Args)
		if err != nil {
			// Executor failures are observations, not turn failures;
			// the oracle sees them and can react.
			observation, _ = json.Marshal(map[string]string{
				"error": fmt.Sprintf("tool %s failed: %v", call.Name, err),
			})
		}
		msg := domain.NewMessage(threadID, domain.RoleTool, string(observation))
		msg.ToolCallID = call.CallID
		results = append(results, msg)
	}
	return results, nil
}
