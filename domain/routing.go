package domain

// RoutingDecision is the supervisor's structured output for one turn.
type RoutingDecision struct {
	Question   string     `json:"question"`
	DelegateTo Delegation `json:"delegate_to"`
	AgentBrief string     `json:"agent_brief"`
}

// Validate enforces the routing invariants: the question is non-empty exactly
// when the decision is to clarify, and the brief is non-empty exactly when a
// domain agent is the target.
func (d *RoutingDecision) Validate() error {
	if !d.DelegateTo.Valid() {
		return &DecisionValidationError{
			Schema: "routing_decision",
			Detail: "unknown delegate_to value " + string(d.DelegateTo),
		}
	}
	if d.DelegateTo == DelegateClarifyUser && d.Question == "" {
		return &DecisionValidationError{
			Schema: "routing_decision",
			Detail: "clarify_user requires a non-empty question",
		}
	}
	if d.DelegateTo != DelegateClarifyUser && d.Question != "" {
		return &DecisionValidationError{
			Schema: "routing_decision",
			Detail: "question must be empty unless delegating to clarify_user",
		}
	}
	if _, isAgent := d.DelegateTo.Domain(); isAgent && d.AgentBrief == "" {
		return &DecisionValidationError{
			Schema: "routing_decision",
			Detail: "delegation to " + string(d.DelegateTo) + " requires a non-empty agent_brief",
		}
	}
	return nil
}
