// Package factsheet holds the shared project record threaded through a pipeline run.
//
// A FactSheet has exactly one writer at a time: the agent currently executing. It carries
// no locks and enforces no policy; agents are responsible for the write-once and
// shrink-only rules on the fields they own.
package factsheet

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"gopkg.in/yaml.v3"
)

// ProjectScope is the architect's scoping decision.
type ProjectScope struct {
	IsCRUDRequired         bool `json:"is_crud_required" yaml:"is_crud_required"`
	IsUserLoginAndLogout   bool `json:"is_user_login_and_logout" yaml:"is_user_login_and_logout"`
	IsExternalURLsRequired bool `json:"is_external_urls_required" yaml:"is_external_urls_required"`
}

// RouteObject describes one API endpoint produced by a downstream agent.
type RouteObject struct {
	IsRouteDynamic string         `json:"is_route_dynamic" yaml:"is_route_dynamic"`
	Method         string         `json:"method" yaml:"method"`
	RequestBody    map[string]any `json:"request_body" yaml:"request_body"`
	Response       map[string]any `json:"response" yaml:"response"`
	Route          string         `json:"route" yaml:"route"`
}

// FactSheet is the single mutable record for one pipeline run.
// Nil fields are absent; fields only ever move from absent to present.
type FactSheet struct {
	ProjectDescription string        `json:"project_description" yaml:"project_description"`
	ProjectScope       *ProjectScope `json:"project_scope,omitempty" yaml:"project_scope,omitempty"`
	ExternalURLs       []string      `json:"external_urls,omitempty" yaml:"external_urls,omitempty"`

	// Reserved for downstream agents.
	BackendCode       *string       `json:"backend_code,omitempty" yaml:"backend_code,omitempty"`
	APIEndpointSchema []RouteObject `json:"api_endpoint_schema,omitempty" yaml:"api_endpoint_schema,omitempty"`
}

// New creates a fact sheet with only the project description populated.
func New(description string) *FactSheet {
	return &FactSheet{ProjectDescription: description}
}

// HasExternalURLs reports whether the URL list has been written, even if empty.
func (f *FactSheet) HasExternalURLs() bool {
	return f.ExternalURLs != nil
}

// Clone returns a deep copy, used to snapshot a sheet before handing it to another agent.
func (f *FactSheet) Clone() *FactSheet {
	out := &FactSheet{
		ProjectDescription: f.ProjectDescription,
		ExternalURLs:       slices.Clone(f.ExternalURLs),
	}
	if f.ProjectScope != nil {
		scope := *f.ProjectScope
		out.ProjectScope = &scope
	}
	if f.BackendCode != nil {
		code := *f.BackendCode
		out.BackendCode = &code
	}
	if f.APIEndpointSchema != nil {
		out.APIEndpointSchema = make([]RouteObject, len(f.APIEndpointSchema))
		copy(out.APIEndpointSchema, f.APIEndpointSchema)
	}
	return out
}

// WriteJSON writes the sheet as indented JSON.
func (f *FactSheet) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("failed to encode fact sheet as JSON: %w", err)
	}
	return nil
}

// WriteYAML writes the sheet as YAML.
func (f *FactSheet) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("failed to encode fact sheet as YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to flush YAML encoder: %w", err)
	}
	return nil
}
