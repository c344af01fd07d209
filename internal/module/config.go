package module

import (
	"triage/internal/element"
)

// StageConfig is the immutable mapping a stage receives at construction.
// ElementsIn names the stage's input queries; Options carries the opaque
// module-specific settings recorded verbatim in the completion metadata.
type StageConfig struct {
	ElementsIn []element.Query
	Options    map[string]any
}

// Option returns a module-specific setting by key.
func (c StageConfig) Option(key string) (any, bool) {
	v, ok := c.Options[key]
	return v, ok
}

// StringOption returns a module-specific string setting, or empty.
func (c StageConfig) StringOption(key string) string {
	if v, ok := c.Options[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Record renders the full configuration for the metadata completion record.
func (c StageConfig) Record() map[string]any {
	out := make(map[string]any, len(c.Options)+1)
	for k, v := range c.Options {
		out[k] = v
	}
	if len(c.ElementsIn) > 0 {
		queries := make([]string, 0, len(c.ElementsIn))
		for _, q := range c.ElementsIn {
			queries = append(queries, q.String())
		}
		out["elements_in"] = queries
	}
	return out
}
