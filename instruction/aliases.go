package instruction

// ============================================================================
// FIELD ALIASES — legacy names across instruction variants
// ============================================================================
// alias → canonical. When both spellings are present the canonical one wins.
// ============================================================================

var topLevelAliases = map[string]string{
	"visualization_type": "chart_type",
	"chartType":          "chart_type",
	"chart":              "chart_type",
	"x":                  "x_column",
	"x_axis":             "x_column",
	"xColumn":            "x_column",
	"y":                  "y_column",
	"y_axis":             "y_column",
	"yColumn":            "y_column",
	"values":             "value_column",
	"value":              "value_column",
	"kinerja_column":     "value_column",
	"valueColumn":        "value_column",
	"names":              "names_column",
	"labels":             "names_column",
	"namesColumn":        "names_column",
	"lat":                "latitude_column",
	"lat_column":         "latitude_column",
	"latitude":           "latitude_column",
	"lon":                "longitude_column",
	"lng":                "longitude_column",
	"lon_column":         "longitude_column",
	"longitude":          "longitude_column",
	"filters":            "filter",
	"agg":                "aggregation",
	"nbins":              "bins",
}

var conditionAliases = map[string]string{
	"col":      "column",
	"field":    "column",
	"op":       "operation",
	"operator": "operation",
}

var limitAliases = map[string]string{
	"n":       "value",
	"count":   "value",
	"sort_by": "sort_column",
	"column":  "sort_column",
}

var transformAliases = map[string]string{
	"group_by":  "by",
	"groupby":   "by",
	"agg_func":  "agg_function",
	"aggfunc":   "agg_function",
	"agg":       "agg_function",
	"value":     "values",
	"id":        "id_vars",
	"value_var": "value_vars",
}

// canonicalize returns a copy of m with aliased keys renamed.
func canonicalize(m map[string]any, aliases map[string]string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if _, isAlias := aliases[k]; !isAlias {
			out[k] = v
		}
	}
	for k, v := range m {
		canon, isAlias := aliases[k]
		if !isAlias {
			continue
		}
		if _, taken := out[canon]; !taken {
			out[canon] = v
		}
	}
	return out
}
