package tools

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/iblflow/orchestrator/domain"
)

// ToolDeclaration describes one tool reachable through a declared server.
type ToolDeclaration struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// ServerDeclaration describes one tool server endpoint.
type ServerDeclaration struct {
	Name      string            `json:"name"`
	Transport string            `json:"transport"`
	Endpoint  string            `json:"endpoint,omitempty"`
	Tools     []ToolDeclaration `json:"tools"`
}

// Declarations is the tool-server document loaded once at startup.
type Declarations struct {
	Servers []ServerDeclaration `json:"servers"`
}

// LoadDeclarations reads the tool-server document. Its absence is a
// ConfigurationError; main treats it as fatal.
func LoadDeclarations(path string) (*Declarations, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.ConfigurationError{Source: path, Err: err}
	}

	var decls Declarations
	if err := json.Unmarshal(data, &decls); err != nil {
		return nil, &domain.ConfigurationError{Source: path, Err: err}
	}
	if len(decls.Servers) == 0 {
		return nil, &domain.ConfigurationError{
			Source: path,
			Err:    fmt.Errorf("no tool servers declared"),
		}
	}
	return &decls, nil
}

// AllTools flattens the declared tools across servers, in document order.
func (d *Declarations) AllTools() []ToolDeclaration {
	var out []ToolDeclaration
	for _, srv := range d.Servers {
		out = append(out, srv.Tools...)
	}
	return out
}

// Declared reports whether a tool name appears in the document.
func (d *Declarations) Declared(name string) bool {
	for _, srv := range d.Servers {
		for _, t := range srv.Tools {
			if t.Name == name {
				return true
			}
		}
	}
	return false
}
