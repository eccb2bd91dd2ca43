// Package policy gates tool execution and record commits through OPA.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/rego"
)

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.ibl_policy.decision"),
		rego.Module("ibl_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Evaluate checks the policy for one action. Input carries keys such as
// action (tool|commit), tool_name, domain, record, args.
// Returns: decision (allow or block), reason, error.
func (e *Engine) Evaluate(ctx context.Context, input interface{}) (string, string, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return "", "", fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		// The policy defines a default, so an empty result means the
		// module itself is broken.
		return "", "", fmt.Errorf("policy returned no decision")
	}

	val := results[0].Expressions[0].Value
	if s, ok := val.(string); ok {
		return s, "", nil
	}
	if m, ok := val.(map[string]interface{}); ok {
		decision, _ := m["decision"].(string)
		reason, _ := m["reason"].(string)
		return decision, reason, nil
	}

	return "", "", fmt.Errorf("policy returned unexpected type %T", val)
}

// DefaultPolicy is the default policy content. Commits to an undeclared
// domain or with an empty record are blocked before they reach the gateway.
const DefaultPolicy = `
package ibl_policy

import rego.v1

default decision := "allow"

valid_domains := {"logistics_agent", "forwarder_agent"}

decision := "block" if {
	input.action == "commit"
	not valid_domains[input.domain]
}

decision := "block" if {
	input.action == "commit"
	count(input.record) == 0
}

decision := "block" if {
	input.action == "tool"
	input.tool_name == "db.update"
	not valid_domains[input.args.domain]
}
`
