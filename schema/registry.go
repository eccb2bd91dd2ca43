// Package schema loads the per-domain field descriptors that drive
// extraction, missing-field computation, and commit payload shape.
package schema

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/iblflow/orchestrator/domain"
)

// FieldDescriptor describes one schema slot for a domain record. Descriptors
// are immutable after load. Synonyms and seeded values travel with the
// descriptor so prompt construction never duplicates them elsewhere.
type FieldDescriptor struct {
	Field        string   `json:"field"`
	Required     bool     `json:"required"`
	DataType     string   `json:"dataType"`
	Description  string   `json:"description"`
	SeededValues []string `json:"seededValues,omitempty"`
	Synonyms     []string `json:"synonyms,omitempty"`
}

// Registry exposes the loaded field lists per domain.
type Registry struct {
	fields map[domain.Domain][]FieldDescriptor
}

// Load reads the schema document keyed by domain name. A missing or malformed
// file, or a declared domain with no fields, is a ConfigurationError; an
// incomplete schema makes every downstream extraction meaningless, so callers
// treat this as fatal.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.ConfigurationError{Source: path, Err: err}
	}
	return Parse(path, data)
}

// Parse builds a registry from raw schema JSON. Split from Load for tests.
func Parse(source string, data []byte) (*Registry, error) {
	var doc map[string][]FieldDescriptor
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &domain.ConfigurationError{Source: source, Err: err}
	}

	fields := make(map[domain.Domain][]FieldDescriptor, len(domain.Domains))
	for _, d := range domain.Domains {
		list, ok := doc[string(d)]
		if !ok || len(list) == 0 {
			return nil, &domain.ConfigurationError{
				Source: source,
				Err:    fmt.Errorf("no fields declared for domain %s", d),
			}
		}
		for _, fd := range list {
			if fd.Field == "" {
				return nil, &domain.ConfigurationError{
					Source: source,
					Err:    fmt.Errorf("domain %s declares a field with an empty name", d),
				}
			}
		}
		fields[d] = list
	}

	return &Registry{fields: fields}, nil
}

// Fields returns the ordered descriptors for a domain.
func (r *Registry) Fields(d domain.Domain) []FieldDescriptor {
	return r.fields[d]
}

// MandatoryFields returns the names of required fields, in schema order.
func (r *Registry) MandatoryFields(d domain.Domain) []string {
	var names []string
	for _, fd := range r.fields[d] {
		if fd.Required {
			names = append(names, fd.Field)
		}
	}
	return names
}

// OptionalFields returns the names of non-required fields, in schema order.
func (r *Registry) OptionalFields(d domain.Domain) []string {
	var names []string
	for _, fd := range r.fields[d] {
		if !fd.Required {
			names = append(names, fd.Field)
		}
	}
	return names
}

// FieldDetails returns the descriptors for the named fields, in schema order.
func (r *Registry) FieldDetails(d domain.Domain, names []string) []FieldDescriptor {
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}
	var out []FieldDescriptor
	for _, fd := range r.fields[d] {
		if wanted[fd.Field] {
			out = append(out, fd)
		}
	}
	return out
}

// Missing recomputes the missing mandatory and optional field sets from the
// record's actual populated values. These derived sets are the only ones the
// workflow transitions on.
func (r *Registry) Missing(d domain.Domain, rec domain.Record) (mandatory, optional []string) {
	for _, fd := range r.fields[d] {
		if rec.Populated(fd.Field) {
			continue
		}
		if fd.Required {
			mandatory = append(mandatory, fd.Field)
		} else {
			optional = append(optional, fd.Field)
		}
	}
	return mandatory, optional
}
