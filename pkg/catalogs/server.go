// Package catalogs defines the core data model for the servermap system:
// MCP server records as reported by individual registries, the enumerated
// category/operation/registry vocabularies, registry snapshots, and an
// in-memory catalog container.
//
// A Server value is used in two roles. Crawlers produce candidate records
// carrying a registry-local ID; the deduplication engine merges candidates
// and the identity generator rewrites IDs, producing canonical records. The
// shape is identical in both roles, only the meaning of ID changes.
package catalogs

import (
	"github.com/agentstation/utc"

	"github.com/servermap/servermap/pkg/errors"
)

// Server represents one MCP server record.
type Server struct {
	// Core identity
	ID          string `json:"id" yaml:"id"`                                       // Registry-local ID for candidates, global ID for canonical records
	Name        string `json:"name" yaml:"name"`                                   // Display name (must not be empty)
	Description string `json:"description,omitempty" yaml:"description,omitempty"` // What the server does
	Version     string `json:"version,omitempty" yaml:"version,omitempty"`
	Author      string `json:"author,omitempty" yaml:"author,omitempty"` // Author or owning organization
	License     string `json:"license,omitempty" yaml:"license,omitempty"`
	Homepage    string `json:"homepage,omitempty" yaml:"homepage,omitempty"`
	Repository  string `json:"repository,omitempty" yaml:"repository,omitempty"` // Source repository URL

	// Technical details
	ImplementationLanguage string   `json:"implementation_language,omitempty" yaml:"implementation_language,omitempty"`
	RuntimeRequirements    []string `json:"runtime_requirements,omitempty" yaml:"runtime_requirements,omitempty"`
	InstallationCommand    string   `json:"installation_command,omitempty" yaml:"installation_command,omitempty"`

	// Capabilities
	Tools     []Tool     `json:"tools,omitempty" yaml:"tools,omitempty"`
	Resources []Resource `json:"resources,omitempty" yaml:"resources,omitempty"`
	Prompts   []Prompt   `json:"prompts,omitempty" yaml:"prompts,omitempty"`

	// Categorization
	Categories []Category  `json:"categories,omitempty" yaml:"categories,omitempty"`
	Operations []Operation `json:"operations,omitempty" yaml:"operations,omitempty"`
	DataTypes  []string    `json:"data_types,omitempty" yaml:"data_types,omitempty"`

	// Provenance
	RegistrySource Registry `json:"registry_source" yaml:"registry_source"` // Which registry produced this record
	SourceURL      string   `json:"source_url,omitempty" yaml:"source_url,omitempty"`

	// Popularity and freshness. Pointers distinguish "unknown" from zero.
	LastUpdated     *utc.Time `json:"last_updated,omitempty" yaml:"last_updated,omitempty"`
	PopularityScore *int      `json:"popularity_score,omitempty" yaml:"popularity_score,omitempty"`
	DownloadCount   *int      `json:"download_count,omitempty" yaml:"download_count,omitempty"`

	// Raw registry payload, kept for reference. Canonical records additionally
	// carry one "<registry>_id" entry per constituent registry record.
	RawMetadata map[string]any `json:"raw_metadata,omitempty" yaml:"raw_metadata,omitempty"`
}

// Tool describes a tool exposed by an MCP server.
type Tool struct {
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

// Resource describes a resource exposed by an MCP server.
type Resource struct {
	URI         string `json:"uri" yaml:"uri"`
	Name        string `json:"name,omitempty" yaml:"name,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	MIMEType    string `json:"mime_type,omitempty" yaml:"mime_type,omitempty"`
}

// Prompt describes a prompt template exposed by an MCP server.
type Prompt struct {
	Name        string           `json:"name" yaml:"name"`
	Description string           `json:"description,omitempty" yaml:"description,omitempty"`
	Arguments   []map[string]any `json:"arguments,omitempty" yaml:"arguments,omitempty"`
}

// Validate checks that the record carries the minimum required fields.
func (s *Server) Validate() error {
	if s.Name == "" {
		return &errors.ValidationError{Field: "name", Message: "server name must not be empty"}
	}
	if !s.RegistrySource.IsValid() {
		return &errors.ValidationError{
			Field:   "registry_source",
			Value:   string(s.RegistrySource),
			Message: "unknown registry",
		}
	}
	return nil
}

// Copy returns a deep copy of the server record. Slices, maps, and the
// optional pointer fields are duplicated so mutations of the copy never
// reach the original.
func (s *Server) Copy() *Server {
	if s == nil {
		return nil
	}
	out := *s

	out.RuntimeRequirements = copySlice(s.RuntimeRequirements)
	out.DataTypes = copySlice(s.DataTypes)
	out.Categories = copySlice(s.Categories)
	out.Operations = copySlice(s.Operations)

	if s.Tools != nil {
		out.Tools = make([]Tool, len(s.Tools))
		for i, t := range s.Tools {
			out.Tools[i] = t
			out.Tools[i].Parameters = copyMap(t.Parameters)
		}
	}
	if s.Resources != nil {
		out.Resources = make([]Resource, len(s.Resources))
		copy(out.Resources, s.Resources)
	}
	if s.Prompts != nil {
		out.Prompts = make([]Prompt, len(s.Prompts))
		for i, p := range s.Prompts {
			out.Prompts[i] = p
			if p.Arguments != nil {
				out.Prompts[i].Arguments = make([]map[string]any, len(p.Arguments))
				for j, arg := range p.Arguments {
					out.Prompts[i].Arguments[j] = copyMap(arg)
				}
			}
		}
	}

	if s.LastUpdated != nil {
		t := *s.LastUpdated
		out.LastUpdated = &t
	}
	out.PopularityScore = copyInt(s.PopularityScore)
	out.DownloadCount = copyInt(s.DownloadCount)
	out.RawMetadata = copyMap(s.RawMetadata)

	return &out
}

func copySlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

func copyMap[K comparable, V any](in map[K]V) map[K]V {
	if in == nil {
		return nil
	}
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func copyInt(in *int) *int {
	if in == nil {
		return nil
	}
	v := *in
	return &v
}
