package instruction

import "strings"

// Aggregation functions.
const (
	AggCount  = "count"
	AggSum    = "sum"
	AggMean   = "mean"
	AggMedian = "median"
	AggMin    = "min"
	AggMax    = "max"
)

// NormalizeAgg maps aggregation names and their common spellings onto the
// canonical set. Unknown names return "".
func NormalizeAgg(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "count", "size", "len":
		return AggCount
	case "sum", "total":
		return AggSum
	case "mean", "avg", "average":
		return AggMean
	case "median":
		return AggMedian
	case "min", "minimum":
		return AggMin
	case "max", "maximum":
		return AggMax
	}
	return ""
}

// canonicalAgg is NormalizeAgg that keeps unknown names (lowercased) so the
// stage that runs them can report what was asked for.
func canonicalAgg(name string) string {
	if fn := NormalizeAgg(name); fn != "" {
		return fn
	}
	return strings.ToLower(strings.TrimSpace(name))
}
