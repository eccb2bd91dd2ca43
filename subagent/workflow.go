// Package subagent implements the generic per-domain workflow that collects
// a structured record across turns, asks for missing fields, obtains
// confirmation, and commits the finalized record exactly once.
package subagent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iblflow/orchestrator/domain"
	"github.com/iblflow/orchestrator/gateway"
	"github.com/iblflow/orchestrator/oracle"
	"github.com/iblflow/orchestrator/policy"
	"github.com/iblflow/orchestrator/schema"
	"github.com/iblflow/orchestrator/tools"
)

// Workflow is one domain's sub-agent. It is stateless between turns; the
// in-flight record lives in the session store and is passed in per turn.
type Workflow struct {
	domain        domain.Domain
	label         string
	registry      *schema.Registry
	oracle        oracle.Oracle
	gateway       gateway.Gateway
	policy        *policy.Engine
	bridge        *tools.Bridge
	maxToolRounds int
}

// New creates the sub-agent workflow for a domain.
func New(d domain.Domain, registry *schema.Registry, o oracle.Oracle, gw gateway.Gateway, pol *policy.Engine, bridge *tools.Bridge, maxToolRounds int) *Workflow {
	label := "Logistics Agent"
	if d == domain.DomainForwarder {
		label = "Forwarder Agent"
	}
	return &Workflow{
		domain:        d,
		label:         label,
		registry:      registry,
		oracle:        o,
		gateway:       gw,
		policy:        pol,
		bridge:        bridge,
		maxToolRounds: maxToolRounds,
	}
}

// Domain returns the workflow's domain.
func (w *Workflow) Domain() domain.Domain { return w.domain }

// TurnResult is the outcome of one sub-agent turn.
type TurnResult struct {
	Step      domain.Step
	Messages  []domain.Message
	Record    domain.Record
	Committed bool
}

// RunTurn re-enters the workflow at extraction with the supervisor's brief
// and the record carried over from prior turns, then applies the transition
// rule. All returned messages belong to this turn; persistence is the
// caller's concern so a failed turn can leave the session untouched.
func (w *Workflow) RunTurn(ctx context.Context, threadID, brief string, prior domain.Record, lastUserMsg string) (*TurnResult, error) {
	ext, toolMsgs, err := w.Extract(ctx, threadID, brief, prior, lastUserMsg)
	if err != nil {
		return nil, err
	}

	step := Decide(ext)
	result := &TurnResult{
		Step:     step,
		Messages: toolMsgs,
		Record:   ext.Record,
	}

	switch step {
	case domain.StepMissingMandatory:
		content := fmt.Sprintf(missingMandatoryTemplate, w.label,
			w.describeFields(ext.MissingMandatory))
		result.Messages = append(result.Messages, domain.NewMessage(threadID, domain.RoleAssistant, content))

	case domain.StepMissingOptional:
		content := fmt.Sprintf(missingOptionalTemplate, w.label,
			w.describeFields(ext.MissingOptional))
		result.Messages = append(result.Messages, domain.NewMessage(threadID, domain.RoleAssistant, content))

	case domain.StepAwaitConfirmation:
		content := fmt.Sprintf(confirmationTemplate, w.label, w.formatSummary(ext.Record))
		result.Messages = append(result.Messages, domain.NewMessage(threadID, domain.RoleAssistant, content))

	case domain.StepCommit:
		msg, committed := w.commit(ctx, threadID, ext.Record)
		result.Messages = append(result.Messages, msg)
		result.Committed = committed
	}

	return result, nil
}

// Extract runs the oracle over the brief, merges the result onto the prior
// record, and normalizes. The oracle may call tools first; that loop is
// bounded the same way the supervisor's is.
func (w *Workflow) Extract(ctx context.Context, threadID, brief string, prior domain.Record, lastUserMsg string) (*domain.Extraction, []domain.Message, error) {
	prompt := w.buildPrompt(brief, prior, lastUserMsg)
	schemaJSON := w.extractionSchema()

	var toolMsgs []domain.Message
	for round := 0; ; round++ {
		res, err := w.oracle.Infer(ctx, oracle.InferRequest{
			Prompt:     prompt,
			SchemaName: string(w.domain) + "_extraction",
			Schema:     schemaJSON,
		})
		if err != nil {
			return nil, nil, err
		}

		if len(res.ToolCalls) > 0 {
			if round >= w.maxToolRounds {
				return nil, nil, &domain.LoopBoundExceededError{ThreadID: threadID, Bound: w.maxToolRounds}
			}
			observations, err := w.bridge.Execute(ctx, threadID, res.ToolCalls)
			if err != nil {
				return nil, nil, err
			}
			toolMsgs = append(toolMsgs, observations...)
			prompt += "\n\nTool observations:\n" + serializeObservations(observations)
			continue
		}

		var raw rawExtraction
		if err := oracle.Decode(res, string(w.domain)+"_extraction", &raw); err != nil {
			return nil, nil, err
		}

		merged := prior.Merge(raw.Record)
		return Normalize(w.registry, w.domain, merged, prior, raw), toolMsgs, nil
	}
}

// commit strips control fields, checks policy, and calls the gateway exactly
// once. On any failure the record is untouched and the failure detail is
// surfaced to the user; the workflow never retries on its own.
func (w *Workflow) commit(ctx context.Context, threadID string, record domain.Record) (domain.Message, bool) {
	payload := record.CommitPayload()

	decision, reason, err := w.policy.Evaluate(ctx, map[string]interface{}{
		"action": "commit",
		"domain": string(w.domain),
		"record": map[string]any(payload),
	})
	if err == nil && decision != "allow" {
		detail := "blocked by policy"
		if reason != "" {
			detail += ": " + reason
		}
		err = &domain.CommitGatewayError{Domain: w.domain, Detail: detail}
	}

	var result *domain.CommitResult
	if err == nil {
		result, err = w.gateway.Commit(ctx, w.domain, payload)
	}
	if err != nil {
		detail := err.Error()
		var gwErr *domain.CommitGatewayError
		if errors.As(err, &gwErr) {
			detail = gwErr.Detail
		}
		content := fmt.Sprintf(commitFailureTemplate, w.label, detail)
		return domain.NewMessage(threadID, domain.RoleAssistant, content), false
	}

	content := fmt.Sprintf(commitSuccessTemplate, w.label, result.ReferenceID, result.Detail)
	return domain.NewMessage(threadID, domain.RoleAssistant, content), true
}

func (w *Workflow) buildPrompt(brief string, prior domain.Record, lastUserMsg string) string {
	priorJSON := "{}"
	if len(prior) > 0 {
		if b, err := json.Marshal(prior); err == nil {
			priorJSON = string(b)
		}
	}
	fieldsJSON, _ := json.Marshal(w.registry.Fields(w.domain))

	return fmt.Sprintf(extractionPrompt,
		w.label,
		time.Now().Format("Mon Jan 2, 2006"),
		brief,
		priorJSON,
		lastUserMsg,
		string(fieldsJSON),
		strings.Join(w.registry.MandatoryFields(w.domain), ", "),
		strings.Join(w.registry.OptionalFields(w.domain), ", "),
	)
}

// extractionSchema builds the JSON Schema for the oracle's structured output
// from the domain's field descriptors.
func (w *Workflow) extractionSchema() json.RawMessage {
	recordProps := map[string]any{}
	var recordRequired []string
	for _, fd := range w.registry.Fields(w.domain) {
		recordProps[fd.Field] = map[string]any{
			"type":        []string{jsonType(fd.DataType), "null"},
			"description": fd.Description,
		}
		recordRequired = append(recordRequired, fd.Field)
	}

	doc := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"missing_mandatory_fields": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"missing_optional_fields":  map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"ask_for_optional_fields":  map[string]any{"type": "boolean"},
			"needs_user_confirmation":  map[string]any{"type": "boolean"},
			"record": map[string]any{
				"type":                 "object",
				"properties":           recordProps,
				"required":             recordRequired,
				"additionalProperties": false,
			},
		},
		"required": []string{
			"missing_mandatory_fields", "missing_optional_fields",
			"ask_for_optional_fields", "needs_user_confirmation", "record",
		},
		"additionalProperties": false,
	}

	raw, _ := json.Marshal(doc)
	return raw
}

func jsonType(dataType string) string {
	switch dataType {
	case "number", "integer":
		return "number"
	default:
		return "string"
	}
}

// describeFields renders a bullet list of field names with descriptions.
func (w *Workflow) describeFields(names []string) string {
	var b strings.Builder
	for _, fd := range w.registry.FieldDetails(w.domain, names) {
		b.WriteString("- " + fd.Field)
		if fd.Description != "" {
			b.WriteString(": " + fd.Description)
		}
		if len(fd.SeededValues) > 0 {
			b.WriteString(" (e.g. " + strings.Join(fd.SeededValues, ", ") + ")")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// formatSummary renders the accumulated record in schema order. This is a
// deterministic render, not a second oracle call.
func (w *Workflow) formatSummary(record domain.Record) string {
	var b strings.Builder
	for _, fd := range w.registry.Fields(w.domain) {
		if !record.Populated(fd.Field) {
			continue
		}
		b.WriteString(fmt.Sprintf("- %s: %v\n", fd.Field, record[fd.Field]))
	}
	return b.String()
}

func serializeObservations(msgs []domain.Message) string {
	var b strings.Builder
	for _, m := range msgs {
		b.WriteString(m.ToolCallID + ": " + m.Content + "\n")
	}
	return b.String()
}
