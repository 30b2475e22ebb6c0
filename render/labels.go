package render

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/spektr-org/charta/instruction"
	"github.com/spektr-org/charta/schema"
)

// ============================================================================
// LABELS & COLORS
// ============================================================================

// palette is the default series color cycle.
var palette = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

func assignColors(count int) []string {
	colors := make([]string, count)
	for i := range colors {
		colors[i] = palette[i%len(palette)]
	}
	return colors
}

func defaultTitle(spec *Spec) string {
	f := spec.Fields
	switch spec.Kind {
	case instruction.Bar, instruction.Line, instruction.Scatter:
		return fmt.Sprintf("%s by %s", schema.DisplayName(f["y"]), schema.DisplayName(f["x"]))
	case instruction.Pie:
		return fmt.Sprintf("%s by %s", schema.DisplayName(f["values"]), schema.DisplayName(f["names"]))
	case instruction.Histogram:
		return "Distribution of " + schema.DisplayName(f["value"])
	case instruction.Map:
		return "Locations"
	}
	return "Overview"
}

// summarize is a one-line description of what the spec shows.
func summarize(spec *Spec) string {
	rows := humanize.Comma(int64(len(spec.Rows)))
	switch {
	case spec.Map != nil:
		return fmt.Sprintf("%s points plotted", humanize.Comma(int64(len(spec.Map.Points))))
	case len(spec.Bins) > 0:
		return fmt.Sprintf("%s values in %d bins", rows, len(spec.Bins))
	case len(spec.Series) > 0:
		return fmt.Sprintf("%s chart of %s points", spec.Kind, humanize.Comma(int64(len(spec.Series[0].Points))))
	}
	return fmt.Sprintf("%s chart over %s rows", spec.Kind, rows)
}
