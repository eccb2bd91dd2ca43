// Package domain defines the core domain models for the orchestrator.
package domain

// Domain identifies one sub-agent workflow.
type Domain string

const (
	DomainLogistics Domain = "logistics_agent"
	DomainForwarder Domain = "forwarder_agent"
)

// Domains lists every routable domain in a stable order.
var Domains = []Domain{DomainLogistics, DomainForwarder}

// Valid reports whether d is a declared domain.
func (d Domain) Valid() bool {
	for _, known := range Domains {
		if d == known {
			return true
		}
	}
	return false
}

// Delegation is the supervisor's routing target for one turn.
type Delegation string

const (
	DelegateClarifyUser  Delegation = "clarify_user"
	DelegateLogistics    Delegation = "logistics_agent"
	DelegateForwarder    Delegation = "forwarder_agent"
	DelegateExecuteTools Delegation = "execute_tools"
	DelegateTerminate    Delegation = "terminate"
)

// Valid reports whether del is a declared delegation target.
func (del Delegation) Valid() bool {
	switch del {
	case DelegateClarifyUser, DelegateLogistics, DelegateForwarder, DelegateExecuteTools, DelegateTerminate:
		return true
	}
	return false
}

// Domain returns the sub-agent domain a delegation targets, if any.
func (del Delegation) Domain() (Domain, bool) {
	switch del {
	case DelegateLogistics:
		return DomainLogistics, true
	case DelegateForwarder:
		return DomainForwarder, true
	}
	return "", false
}

// Step is the sub-agent transition outcome for one turn, evaluated in
// priority order by the workflow.
type Step string

const (
	StepMissingMandatory  Step = "missing_mandatory"
	StepMissingOptional   Step = "missing_optional"
	StepAwaitConfirmation Step = "await_confirmation"
	StepCommit            Step = "commit"
)
