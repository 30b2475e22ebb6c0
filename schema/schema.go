// Package schema profiles a dataset's columns (kind, role, samples,
// cardinality, hierarchies) so the instruction source can be told what data
// exists without being sent the rows.
package schema

import (
	"strings"
)

// ============================================================================
// SCHEMA — Describes the shape of a dataset for the AI translator
// ============================================================================
// Discovered from a loaded dataset. The translator uses the profile to build
// prompts; column names are kept verbatim because instructions must name
// them exactly.
// ============================================================================

// Role is how a column is best used in a chart.
type Role string

const (
	RoleDimension Role = "dimension" // grouping / category axis
	RoleMeasure   Role = "measure"   // numeric value axis
	RoleSkipped   Role = "skipped"   // identifiers, free text, empty columns
)

// Profile describes the complete shape of a dataset.
type Profile struct {
	Name         string   `json:"name"`
	Rows         int      `json:"rows"`
	Columns      []Column `json:"columns"`
	DiscoveredAt string   `json:"discoveredAt,omitempty"`
}

// Column describes one dataset column.
type Column struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"displayName"`
	Kind        string   `json:"kind"` // numeric | date | categorical
	Role        Role     `json:"role"`
	Samples     []string `json:"samples,omitempty"`
	Unique      int      `json:"unique"`
	Nulls       int      `json:"nulls"`
	Cardinality string   `json:"cardinality,omitempty"` // "low", "medium", "high"
	Min         *float64 `json:"min,omitempty"`
	Max         *float64 `json:"max,omitempty"`

	Temporal       bool   `json:"temporal,omitempty"`
	TemporalFormat string `json:"temporalFormat,omitempty"`
	Parent         string `json:"parent,omitempty"` // parent dimension for hierarchies
	SkipReason     string `json:"skipReason,omitempty"`
}

// Column returns the named column profile.
func (p *Profile) Column(name string) (Column, bool) {
	for _, c := range p.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ColumnNames returns every column name in dataset order.
func (p *Profile) ColumnNames() []string {
	names := make([]string, len(p.Columns))
	for i, c := range p.Columns {
		names[i] = c.Name
	}
	return names
}

// Dimensions returns the names of dimension columns.
func (p *Profile) Dimensions() []string { return p.namesWithRole(RoleDimension) }

// Measures returns the names of measure columns.
func (p *Profile) Measures() []string { return p.namesWithRole(RoleMeasure) }

// DefaultMeasure returns the first measure, or "" when there is none.
func (p *Profile) DefaultMeasure() string {
	if m := p.Measures(); len(m) > 0 {
		return m[0]
	}
	return ""
}

func (p *Profile) namesWithRole(r Role) []string {
	var out []string
	for _, c := range p.Columns {
		if c.Role == r {
			out = append(out, c.Name)
		}
	}
	return out
}

// DisplayName cleans a column name for human display.
// "story_points" → "Story Points", "assignee" → "Assignee"
func DisplayName(s string) string {
	// If already has spaces, just trim
	if strings.Contains(s, " ") {
		return strings.TrimSpace(s)
	}

	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
