package adapter

import (
	"strings"

	"github.com/gork-labs/gorka-sub004/core"
	"github.com/gork-labs/gorka-sub004/model"
)

// Adapter is a named, stateless strategy keyed by model identifier pattern.
// ParseToolCalls must only be consulted when a response carries no structured
// tool calls; Overrides feed into request construction for the matched model.
type Adapter interface {
	// Name identifies the adapter in logs.
	Name() string

	// Match reports whether this adapter applies to the model identifier.
	Match(modelID string) bool

	// ParseToolCalls extracts tool invocations embedded in free text.
	// Returned calls carry no IDs; the loop assigns synthetic ones.
	ParseToolCalls(text string) ([]core.ToolCall, error)

	// Overrides returns request-shaping recommendations for matched models.
	Overrides() model.RequestOverrides
}

// Registry resolves the adapter for a model identifier. Absence of a match is
// not an error; the loop then relies on structured tool calls only.
type Registry struct {
	adapters []Adapter
}

// NewRegistry builds a registry with the given adapters; lookup order follows
// registration order, first match wins.
func NewRegistry(adapters ...Adapter) *Registry {
	return &Registry{adapters: adapters}
}

// NewDefaultRegistry returns a registry with the built-in adapters for model
// families known to emit textual tool calls.
func NewDefaultRegistry() *Registry {
	return NewRegistry(
		NewTagAdapter("hermes", "hermes", "qwen", "nous"),
		NewFencedJSONAdapter("fenced-json", "mistral", "mixtral"),
	)
}

// Lookup returns the first adapter matching the model identifier, or nil.
func (r *Registry) Lookup(modelID string) Adapter {
	for _, a := range r.adapters {
		if a.Match(modelID) {
			return a
		}
	}
	return nil
}

// matchesAny reports whether the lowercased model id contains any pattern.
func matchesAny(modelID string, patterns []string) bool {
	id := strings.ToLower(modelID)
	for _, p := range patterns {
		if strings.Contains(id, p) {
			return true
		}
	}
	return false
}
