package types

import "time"

// SourceDescriptor describes one external feed: its identity, whether it is
// active, its merge priority, and its rolling health. Lower priority rank
// wins enrichment merge conflicts.
type SourceDescriptor struct {
	Name        string     `json:"name" yaml:"name"`
	Active      bool       `json:"active" yaml:"active"`
	Priority    int        `json:"priority" yaml:"priority"`
	SuccessRate float64    `json:"success_rate" yaml:"-"`
	LastSuccess *time.Time `json:"last_success,omitempty" yaml:"-"`
}

// Enrichment is the typed union of descriptive data one source can
// contribute. Every field is optional; absent fields never overwrite data
// already merged from a higher-priority source.
type Enrichment struct {
	Description    string            `json:"description,omitempty"`
	Features       []string          `json:"features,omitempty"`
	Specifications map[string]string `json:"specifications,omitempty"`
	Images         []string          `json:"images,omitempty"`
}

// IsEmpty reports whether the enrichment contributes nothing.
func (e Enrichment) IsEmpty() bool {
	return e.Description == "" && len(e.Features) == 0 &&
		len(e.Specifications) == 0 && len(e.Images) == 0
}
