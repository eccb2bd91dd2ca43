// Package supervisor implements the top-level router that classifies each
// user turn and hands off to a sub-agent, a clarifying question, or tools.
package supervisor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/iblflow/orchestrator/domain"
	"github.com/iblflow/orchestrator/oracle"
	"github.com/iblflow/orchestrator/schema"
)

// Router asks the decision oracle to classify the conversation and produce a
// routing decision. It holds no per-thread state; the session history is its
// only input.
type Router struct {
	oracle   oracle.Oracle
	registry *schema.Registry
	tools    []oracle.ToolDefinition
}

// NewRouter creates a supervisor router.
func NewRouter(o oracle.Oracle, registry *schema.Registry, tools []oracle.ToolDefinition) *Router {
	return &Router{
		oracle:   o,
		registry: registry,
		tools:    tools,
	}
}

// Route classifies the current conversation. Called at most once per incoming
// user message and once per tool-loop re-entry. When the oracle emits tool
// calls instead of a decision, the decision is execute_tools and the calls
// are returned for the bridge. A validation failure mutates no state.
func (r *Router) Route(ctx context.Context, history []domain.Message) (*domain.RoutingDecision, []domain.ToolRequest, error) {
	prompt := fmt.Sprintf(routingPrompt,
		SerializeHistory(history),
		todayStr(),
		strings.Join(r.fieldSummary(domain.DomainLogistics), "; "),
		strings.Join(r.fieldSummary(domain.DomainForwarder), "; "),
	)

	res, err := r.oracle.Infer(ctx, oracle.InferRequest{
		Prompt:     prompt,
		SchemaName: "routing_decision",
		Schema:     json.RawMessage(routingSchema),
		Tools:      r.tools,
	})
	if err != nil {
		return nil, nil, err
	}

	if len(res.ToolCalls) > 0 {
		return &domain.RoutingDecision{DelegateTo: domain.DelegateExecuteTools}, res.ToolCalls, nil
	}

	var decision domain.RoutingDecision
	if err := oracle.Decode(res, "routing_decision", &decision); err != nil {
		return nil, nil, err
	}
	if err := decision.Validate(); err != nil {
		return nil, nil, err
	}
	return &decision, nil, nil
}

// fieldSummary renders "name (synonyms)" entries for the routing criteria.
func (r *Router) fieldSummary(d domain.Domain) []string {
	var out []string
	for _, fd := range r.registry.Fields(d) {
		entry := fd.Field
		if len(fd.Synonyms) > 0 {
			entry += " (also: " + strings.Join(fd.Synonyms, ", ") + ")"
		}
		out = append(out, entry)
	}
	return out
}

// SerializeHistory renders the message history for the oracle prompt, one
// line per message in append order.
func SerializeHistory(history []domain.Message) string {
	var b strings.Builder
	for _, msg := range history {
		switch msg.Role {
		case domain.RoleUser:
			b.WriteString("User: ")
		case domain.RoleAssistant:
			b.WriteString("Assistant: ")
		case domain.RoleTool:
			b.WriteString("Tool[" + msg.ToolCallID + "]: ")
		default:
			b.WriteString(msg.Role + ": ")
		}
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}
	return b.String()
}

// todayStr returns the current date in a human-readable format.
func todayStr() string {
	return time.Now().Format("Mon Jan 2, 2006")
}
