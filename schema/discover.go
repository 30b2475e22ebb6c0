package schema

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/spektr-org/charta/dataset"
)

// ============================================================================
// AUTO-DISCOVERY — Heuristic Column Classification
// ============================================================================
// Inspects a loaded dataset and profiles every column. No AI needed.
//
// Classification pipeline per column:
//   1. Sample values → kind comes from the dataset's own detection
//   2. Kind + cardinality → classify role (dimension, measure, skip)
//   3. Pattern matching → temporal categoricals ("Jan-2026", "Q1 2026")
//   4. Dimension pairs → parent/child hierarchies
// ============================================================================

// Options controls discovery behavior.
type Options struct {
	SampleSize int    // Max rows to inspect (0 = all). Default: 1000
	MaxSamples int    // Sample values kept per column. Default: 10
	Name       string // Dataset name override
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		SampleSize: 1000,
		MaxSamples: 10,
	}
}

// Discover profiles every column of d.
func Discover(d *dataset.Dataset, opts ...Options) *Profile {
	opt := DefaultOptions()
	if len(opts) > 0 {
		opt = opts[0]
		if opt.MaxSamples <= 0 {
			opt.MaxSamples = DefaultOptions().MaxSamples
		}
	}

	sample := d
	if opt.SampleSize > 0 {
		sample = d.Head(opt.SampleSize)
	}

	p := &Profile{
		Name:         opt.Name,
		Rows:         d.Len(),
		DiscoveredAt: time.Now().Format(time.RFC3339),
	}
	if p.Name == "" {
		p.Name = "Auto-discovered Dataset"
	}

	analyses := make([]*columnAnalysis, 0, len(d.Columns()))
	for _, col := range d.Columns() {
		a := analyzeColumn(sample, col, opt.MaxSamples)
		analyses = append(analyses, a)
		p.Columns = append(p.Columns, a.Column)
	}

	detectHierarchies(p.Columns, analyses)
	return p
}

// ============================================================================
// COLUMN ANALYSIS
// ============================================================================

type columnAnalysis struct {
	Column
	values      []string // formatted non-null values, row-aligned with present
	present     []int    // row index of each value
	hasDecimals bool
}

// nullTokens are text values treated as empty, like blank cells.
var nullTokens = map[string]bool{"": true, "null": true, "NULL": true, "N/A": true, "n/a": true}

// analyzeColumn inspects all values in a column and classifies it.
func analyzeColumn(d *dataset.Dataset, col string, maxSamples int) *columnAnalysis {
	a := &columnAnalysis{Column: Column{
		Name:        col,
		DisplayName: DisplayName(col),
		Kind:        d.Kind(col).String(),
	}}

	uniqueSet := make(map[string]bool)
	for i := 0; i < d.Len(); i++ {
		v := d.Value(i, col)
		s := strings.TrimSpace(dataset.Format(v))
		if dataset.IsMissing(v) || nullTokens[s] {
			a.Nulls++
			continue
		}
		a.values = append(a.values, s)
		a.present = append(a.present, i)
		uniqueSet[s] = true

		if f, ok := v.(float64); ok {
			if f != math.Trunc(f) {
				a.hasDecimals = true
			}
			if a.Min == nil || f < *a.Min {
				a.Min = ptr(f)
			}
			if a.Max == nil || f > *a.Max {
				a.Max = ptr(f)
			}
		}
	}
	a.Unique = len(uniqueSet)

	if len(a.values) == 0 {
		a.Role = RoleSkipped
		a.SkipReason = "All values are empty/null"
		return a
	}

	// Collect sample values (sorted for deterministic output)
	a.Samples = collectSamples(uniqueSet, maxSamples)

	switch d.Kind(col) {
	case dataset.KindDate:
		a.Temporal = true
	case dataset.KindCategorical:
		a.Temporal, a.TemporalFormat = detectTemporalPattern(a.Samples)
	}

	a.classifyRole(d.Len())

	switch {
	case a.Unique <= 10:
		a.Cardinality = "low"
	case a.Unique <= 100:
		a.Cardinality = "medium"
	default:
		a.Cardinality = "high"
	}
	return a
}

// classifyRole determines dimension vs measure vs skip.
func (a *columnAnalysis) classifyRole(totalRows int) {
	switch a.Kind {
	case dataset.KindNumeric.String():
		if a.Unique == totalRows && totalRows > 10 && !a.hasDecimals {
			// Every value unique → likely an ID
			a.Role = RoleSkipped
			a.SkipReason = "Unique per row — likely an ID column"
			return
		}
		// Continuous data → always a measure
		if a.hasDecimals {
			a.Role = RoleMeasure
			return
		}
		// Few unique values at a low ratio → coded dimension (e.g. priority 1-5).
		// An absolute count alone fails on small datasets where 6/12 looks low.
		uniqueRatio := float64(a.Unique) / float64(totalRows)
		if a.Unique < 20 && uniqueRatio < 0.3 {
			a.Role = RoleDimension
			return
		}
		a.Role = RoleMeasure

	case dataset.KindDate.String():
		a.Role = RoleDimension

	default:
		if a.Unique == totalRows && totalRows > 10 {
			// Every value unique → likely an ID or free text
			a.Role = RoleSkipped
			a.SkipReason = "Unique per row — likely an identifier"
			return
		}
		if a.Unique > totalRows/2 && a.Unique > 50 {
			a.Role = RoleSkipped
			a.SkipReason = fmt.Sprintf("High cardinality (%d unique values) — not useful for grouping", a.Unique)
			return
		}
		a.Role = RoleDimension
	}
}

// ============================================================================
// SPECIAL PATTERN DETECTION
// ============================================================================

var monthPatterns = []struct {
	re     *regexp.Regexp
	format string
}{
	{regexp.MustCompile(`^[A-Z][a-z]{2}-\d{4}$`), "MMM-yyyy"}, // Jan-2026
	{regexp.MustCompile(`^\d{4}-\d{2}$`), "yyyy-MM"},          // 2026-01
	{regexp.MustCompile(`^Q[1-4]-\d{4}$`), "QN-yyyy"},         // Q1-2026
	{regexp.MustCompile(`^Q[1-4]\s+\d{4}$`), "QN yyyy"},       // Q1 2026
	{regexp.MustCompile(`^[A-Z][a-z]+ \d{4}$`), "MMMM yyyy"},  // January 2026
}

// detectTemporalPattern checks if values match known month/quarter patterns.
func detectTemporalPattern(samples []string) (bool, string) {
	if len(samples) == 0 {
		return false, ""
	}
	for _, pattern := range monthPatterns {
		matches := 0
		for _, s := range samples {
			if pattern.re.MatchString(s) {
				matches++
			}
		}
		if float64(matches)/float64(len(samples)) >= 0.8 {
			return true, pattern.format
		}
	}
	return false, ""
}

// ============================================================================
// HIERARCHY DETECTION
// ============================================================================

// detectHierarchies finds parent/child relationships between dimensions.
// If every value of dimension B maps to exactly one value of dimension A,
// and A has fewer unique values, then A is parent of B.
// When multiple valid parents exist, picks the closest (highest cardinality).
func detectHierarchies(columns []Column, analyses []*columnAnalysis) {
	for i := range columns {
		child := analyses[i]
		if child.Role != RoleDimension {
			continue
		}

		bestParent := ""
		bestParentUniques := 0
		for j, parent := range analyses {
			if i == j || parent.Role != RoleDimension || parent.Unique >= child.Unique {
				continue
			}
			if maps, n := mapsInto(child, parent); maps && n > 1 && parent.Unique > bestParentUniques {
				bestParent = parent.Name
				bestParentUniques = parent.Unique
			}
		}
		if bestParent != "" {
			columns[i].Parent = bestParent
		}
	}
}

// mapsInto reports whether each child value co-occurs with exactly one
// parent value, and how many distinct child values were seen.
func mapsInto(child, parent *columnAnalysis) (bool, int) {
	parentAt := make(map[int]string, len(parent.present))
	for k, row := range parent.present {
		parentAt[row] = parent.values[k]
	}

	childToParent := make(map[string]string)
	for k, row := range child.present {
		p, ok := parentAt[row]
		if !ok {
			continue
		}
		c := child.values[k]
		if existing, seen := childToParent[c]; seen {
			if existing != p {
				return false, 0
			}
			continue
		}
		childToParent[c] = p
	}
	return true, len(childToParent)
}

// ============================================================================
// HELPERS
// ============================================================================

// collectSamples picks up to maxSamples representative values.
func collectSamples(uniqueSet map[string]bool, maxSamples int) []string {
	samples := make([]string, 0, len(uniqueSet))
	for v := range uniqueSet {
		samples = append(samples, v)
	}
	sort.Strings(samples)
	if len(samples) > maxSamples {
		samples = samples[:maxSamples]
	}
	return samples
}

func ptr(f float64) *float64 { return &f }
