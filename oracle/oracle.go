// Package oracle wraps the external reasoning component consulted for
// structured classification and extraction decisions.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/iblflow/orchestrator/domain"
)

// ToolDefinition declares a tool the oracle may call during inference.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// InferRequest asks the oracle for a structured object conforming to Schema.
type InferRequest struct {
	Prompt     string
	SchemaName string
	Schema     json.RawMessage // JSON Schema for the expected output
	Tools      []ToolDefinition
}

// InferResult carries either a structured output or a batch of tool calls
// the oracle wants executed before it can decide.
type InferResult struct {
	Output    json.RawMessage
	ToolCalls []domain.ToolRequest
}

// Oracle is the decision oracle interface. Implementations block until the
// external call completes; the state machine is never re-entered for the same
// thread while a call is outstanding.
type Oracle interface {
	Infer(ctx context.Context, req InferRequest) (*InferResult, error)
}

// Decode strictly unmarshals the oracle's structured output into target.
// Non-conforming output is a DecisionValidationError; the caller mutates no
// state in that case.
func Decode(res *InferResult, schemaName string, target any) error {
	if res == nil || len(res.Output) == 0 {
		return &domain.DecisionValidationError{
			Schema: schemaName,
			Detail: "oracle returned no structured output",
		}
	}
	dec := json.NewDecoder(bytes.NewReader(res.Output))
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		return &domain.DecisionValidationError{
			Schema: schemaName,
			Detail: "output does not conform to schema",
			Err:    err,
		}
	}
	return nil
}
