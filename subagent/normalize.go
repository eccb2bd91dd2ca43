package subagent

import "github.com/iblflow/orchestrator/domain"

// rawExtraction is the oracle's structured output shape. Its missing-field
// lists are advisory only; Normalize recomputes them from the record.
type rawExtraction struct {
	MissingMandatory  []string      `json:"missing_mandatory_fields"`
	MissingOptional   []string      `json:"missing_optional_fields"`
	AskForOptional    bool          `json:"ask_for_optional_fields"`
	NeedsConfirmation bool          `json:"needs_user_confirmation"`
	Record            domain.Record `json:"record"`
}

// missingSets recomputes missing fields from the record against the schema.
type missingSets interface {
	Missing(d domain.Domain, rec domain.Record) (mandatory, optional []string)
}

// Normalize turns the oracle's raw output into the extraction the workflow
// transitions on. It is pure and enforces the contract around the oracle:
//
//   - missing sets are set differences of (record, schema), never the
//     oracle's self-report;
//   - ask_for_optional_fields is false when nothing optional is missing, and
//     forced true when an existing field value changed this turn;
//   - needs_user_confirmation is forced true while mandatory fields are
//     missing, whatever the oracle claimed.
func Normalize(sets missingSets, d domain.Domain, merged, prior domain.Record, raw rawExtraction) *domain.Extraction {
	missingMandatory, missingOptional := sets.Missing(d, merged)

	ask := raw.AskForOptional
	if len(missingOptional) == 0 {
		ask = false
	}
	if len(merged.ChangedFields(prior)) > 0 {
		ask = true
	}

	needs := raw.NeedsConfirmation
	if len(missingMandatory) > 0 {
		needs = true
	}

	return &domain.Extraction{
		Record:            merged,
		MissingMandatory:  missingMandatory,
		MissingOptional:   missingOptional,
		AskForOptional:    ask,
		NeedsConfirmation: needs,
	}
}

// Decide evaluates the deterministic transition rule, in priority order.
func Decide(ext *domain.Extraction) domain.Step {
	switch {
	case len(ext.MissingMandatory) > 0:
		return domain.StepMissingMandatory
	case len(ext.MissingOptional) > 0 && ext.AskForOptional:
		return domain.StepMissingOptional
	case ext.NeedsConfirmation:
		return domain.StepAwaitConfirmation
	default:
		return domain.StepCommit
	}
}
