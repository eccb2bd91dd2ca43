package domain

import "fmt"

// ConfigurationError reports a missing or malformed startup artifact
// (field schema file, tool server declarations). Fatal at startup.
type ConfigurationError struct {
	Source string
	Err    error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error in %s: %v", e.Source, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// DecisionValidationError reports oracle output that does not conform to the
// expected structured schema. Fails the current turn only.
type DecisionValidationError struct {
	Schema string
	Detail string
	Err    error
}

func (e *DecisionValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("oracle output failed %s validation: %s: %v", e.Schema, e.Detail, e.Err)
	}
	return fmt.Sprintf("oracle output failed %s validation: %s", e.Schema, e.Detail)
}

func (e *DecisionValidationError) Unwrap() error { return e.Err }

// UnknownToolError reports a tool call naming an undeclared tool. A dangling
// call would desynchronize the oracle's expectation of a reply, so this fails
// the turn instead of skipping.
type UnknownToolError struct {
	Tool   string
	CallID string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool %q referenced by call %s", e.Tool, e.CallID)
}

// CommitGatewayError reports a failed or non-success commit call. The record
// is preserved; there is no automatic retry.
type CommitGatewayError struct {
	Domain Domain
	Detail string
	Err    error
}

func (e *CommitGatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("commit to %s failed: %s: %v", e.Domain, e.Detail, e.Err)
	}
	return fmt.Sprintf("commit to %s failed: %s", e.Domain, e.Detail)
}

func (e *CommitGatewayError) Unwrap() error { return e.Err }

// LoopBoundExceededError reports a supervisor tool loop that ran past its
// configured bound without reaching a terminal decision.
type LoopBoundExceededError struct {
	ThreadID string
	Bound    int
}

func (e *LoopBoundExceededError) Error() string {
	return fmt.Sprintf("supervisor tool loop for thread %s exceeded bound of %d rounds", e.ThreadID, e.Bound)
}
