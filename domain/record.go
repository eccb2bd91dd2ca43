package domain

import (
	"reflect"
	"sort"
)

// Control fields reported by the oracle alongside the record. They steer the
// workflow and are stripped before commit.
var ControlFields = []string{
	"missing_mandatory_fields",
	"missing_optional_fields",
	"ask_for_optional_fields",
	"needs_user_confirmation",
}

// Record maps canonical field names to extracted values. A field the user has
// not supplied is either absent or nil; it is never guessed.
type Record map[string]any

// Populated reports whether the named field carries a real value.
func (r Record) Populated(name string) bool {
	v, ok := r[name]
	if !ok || v == nil {
		return false
	}
	if s, isStr := v.(string); isStr && s == "" {
		return false
	}
	return true
}

// Clone returns a shallow copy. Values are scalars from JSON decoding, so a
// shallow copy is sufficient for snapshot/rollback.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Merge overlays populated fields from src onto a copy of r. Fields absent
// from src keep their prior value; they are never reset.
func (r Record) Merge(src Record) Record {
	out := r.Clone()
	if out == nil {
		out = make(Record, len(src))
	}
	for k := range src {
		if src.Populated(k) {
			out[k] = src[k]
		}
	}
	return out
}

// ChangedFields returns the names of fields that already carried a value in
// prior and now carry a different one, sorted for stable output. Newly filled
// fields are not changes. Values come from JSON decoding and may be maps or
// slices, so comparison is structural, never ==.
func (r Record) ChangedFields(prior Record) []string {
	var changed []string
	for k := range r {
		if !r.Populated(k) || !prior.Populated(k) {
			continue
		}
		if !reflect.DeepEqual(prior[k], r[k]) {
			changed = append(changed, k)
		}
	}
	sort.Strings(changed)
	return changed
}

// CommitRecord is the finalized payload handed to the commit gateway.
type CommitRecord map[string]any

// CommitPayload strips control fields and unpopulated slots, producing the
// payload submitted exactly once per confirmed extraction.
func (r Record) CommitPayload() CommitRecord {
	out := make(CommitRecord)
	for k := range r {
		if !r.Populated(k) {
			continue
		}
		if isControlField(k) {
			continue
		}
		out[k] = r[k]
	}
	return out
}

func isControlField(name string) bool {
	for _, c := range ControlFields {
		if name == c {
			return true
		}
	}
	return false
}

// Extraction is the normalized per-turn sub-agent result. MissingMandatory
// and MissingOptional are always recomputed from (Record, schema), never
// taken from the oracle's self-report.
type Extraction struct {
	Record            Record   `json:"record"`
	MissingMandatory  []string `json:"missing_mandatory"`
	MissingOptional   []string `json:"missing_optional"`
	AskForOptional    bool     `json:"ask_for_optional_fields"`
	NeedsConfirmation bool     `json:"needs_user_confirmation"`
}

// CommitResult is the gateway's answer to a commit call.
type CommitResult struct {
	Success     bool   `json:"success"`
	ReferenceID string `json:"reference_id,omitempty"`
	Detail      string `json:"detail"`
}
