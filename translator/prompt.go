package translator

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spektr-org/charta/dataset"
	"github.com/spektr-org/charta/schema"
)

// ============================================================================
// PROMPT BUILDER — Profile-Driven Instruction Prompt
// ============================================================================
// The system prompt is generated from the dataset profile:
//   - Columns → listed with kind, role and sample values
//   - Hierarchies → parent/child relationships explained
//   - Temporal → identified for trend queries
//   - Examples → built from the dataset's own column names
//
// Visualization prompts carry metadata only, never rows. The question
// assistant (BuildQuestionPrompt) is the one place rows are sent.
// ============================================================================

// MaxQuestionRows caps the rows embedded by BuildQuestionPrompt.
const MaxQuestionRows = 500

// BuildInstructionPrompt generates the complete system prompt that asks the
// instruction source for a visualization instruction.
func BuildInstructionPrompt(p *schema.Profile, now time.Time) string {
	var b strings.Builder

	// ── Header ────────────────────────────────────────────────────────────
	fmt.Fprintf(&b, `You are a visualization planner for the dataset "%s".

CURRENT DATE: %s

YOUR ROLE:
Translate the user's request into ONE visualization instruction that a local engine will execute.
You do NOT compute values and you do NOT see the data. Only name columns listed below.

`, p.Name, now.Format("2006-01-02"))

	// ── Columns ───────────────────────────────────────────────────────────
	fmt.Fprintf(&b, "DATASET: %d rows\n", p.Rows)
	b.WriteString(buildColumnDescription(p))
	b.WriteString("\n")

	// ── Hierarchy Relationships ───────────────────────────────────────────
	if hierarchies := buildHierarchyDescription(p); hierarchies != "" {
		b.WriteString("COLUMN HIERARCHIES:\n")
		b.WriteString(hierarchies)
		b.WriteString("\n")
	}

	// ── Response Format ───────────────────────────────────────────────────
	b.WriteString(responseFormat)

	// ── Rules ─────────────────────────────────────────────────────────────
	b.WriteString(buildRules(p))

	// ── Examples ──────────────────────────────────────────────────────────
	b.WriteString(buildExampleInstructions(p))

	// ── Footer ────────────────────────────────────────────────────────────
	b.WriteString("\nRemember: answer with ONE JSON object and nothing else. Column names must match exactly.\n")

	return b.String()
}

// BuildUserMessage wraps the user's request for the instruction prompt.
func BuildUserMessage(p *schema.Profile, query string) string {
	return fmt.Sprintf("The data has columns: %s.\n\nUSER REQUEST: %s\n\nRespond with valid JSON only:",
		strings.Join(quotedValues(p.ColumnNames()), ", "), query)
}

// BuildQuestionPrompt builds the question assistant's system prompt: the
// dataset as JSON lines plus its column names. The user message is the
// question itself.
func BuildQuestionPrompt(d *dataset.Dataset) string {
	var b strings.Builder
	b.WriteString("You are a data analysis assistant who answers questions about a dataset and general questions.\n\n")

	rows := d
	if d.Len() > MaxQuestionRows {
		rows = d.Head(MaxQuestionRows)
		fmt.Fprintf(&b, "AVAILABLE DATA (first %d of %d rows, one JSON object per line):\n", MaxQuestionRows, d.Len())
	} else {
		b.WriteString("AVAILABLE DATA (one JSON object per line):\n")
	}
	for _, rec := range rows.Records() {
		line, err := json.Marshal(rec)
		if err != nil {
			continue
		}
		b.Write(line)
		b.WriteByte('\n')
	}

	fmt.Fprintf(&b, "\nAVAILABLE COLUMNS: %s\n\n", strings.Join(d.Columns(), ", "))
	b.WriteString("Answer from the data when the question is about it, otherwise from general knowledge. Be accurate, relevant and concise.\n")
	return b.String()
}

// ============================================================================
// SECTION BUILDERS
// ============================================================================

func buildColumnDescription(p *schema.Profile) string {
	var b strings.Builder

	b.WriteString("COLUMNS:\n")
	for _, c := range p.Columns {
		fmt.Fprintf(&b, "- \"%s\" [%s, %s]", c.Name, c.Kind, c.Role)
		if c.DisplayName != "" && c.DisplayName != c.Name {
			fmt.Fprintf(&b, " (%s)", c.DisplayName)
		}
		switch {
		case c.Min != nil && c.Max != nil:
			fmt.Fprintf(&b, " range: %g..%g", *c.Min, *c.Max)
		case len(c.Samples) > 0:
			fmt.Fprintf(&b, " values: [%s]", strings.Join(quotedValues(c.Samples), ", "))
		}
		if c.Temporal {
			b.WriteString(" [TEMPORAL]")
		}
		if c.SkipReason != "" {
			fmt.Fprintf(&b, " (not useful for charts: %s)", c.SkipReason)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func buildHierarchyDescription(p *schema.Profile) string {
	var b strings.Builder
	for _, c := range p.Columns {
		if c.Parent != "" {
			fmt.Fprintf(&b, "- \"%s\" is a child of \"%s\" (filter on the parent, then chart the child for a breakdown)\n", c.Name, c.Parent)
		}
	}
	return b.String()
}

const responseFormat = `RESPONSE FORMAT (ALWAYS valid JSON, no markdown):
{
  "type": "visualization",
  "chart_type": "bar|line|scatter|pie|histogram|map",
  "title": "Descriptive title",
  "description": "One or two sentences on what the chart shows",

  "x_column": "for bar/line/scatter: category or x axis",
  "y_column": "for bar/line/scatter: numeric y axis",
  "value_column": "for pie and histogram: numeric values; optional point weight for map",
  "names_column": "for pie: slice labels",
  "bins": 30,
  "latitude_column": "for map",
  "longitude_column": "for map",

  "filter": {
    "conditions": [
      {"column": "name", "operation": ">|>=|<|<=|==|contains", "value": 0}
    ],
    "limit": {"type": "top|bottom", "value": 5, "sort_column": "name"}
  },
  "transform": {
    "type": "group|pivot|melt",
    "by": ["group: key columns"],
    "agg_function": "count|sum|mean|median|min|max",
    "column": "group: column to aggregate",
    "index": ["pivot: row keys"],
    "columns": "pivot: column whose values become columns",
    "values": "pivot: numeric column",
    "id_vars": ["melt: kept columns"],
    "value_vars": ["melt: columns folded into variable/value"]
  },
  "aggregation": {"type": "count|sum|mean|median", "column": "name"}
}

Only include the keys the chart needs. For questions that need a written answer instead of a chart:
{"type": "analysis", "answer": "..."}
If the request cannot be served from these columns:
{"type": "error", "message": "why"}

`

func buildRules(p *schema.Profile) string {
	var temporal []string
	for _, c := range p.Columns {
		if c.Temporal {
			temporal = append(temporal, fmt.Sprintf("\"%s\"", c.Name))
		}
	}
	temporalNote := ""
	if len(temporal) > 0 {
		temporalNote = fmt.Sprintf("   - Temporal columns for trends: %s\n", strings.Join(temporal, ", "))
	}

	return fmt.Sprintf(`RULES:

1. "chart_type":
   - "bar" → compare a number across categories
   - "pie" → share of a whole (few categories)
   - "histogram" → distribution of one numeric column
   - "line" → change over time or an ordered axis
%s   - "scatter" → relationship between two numeric columns
   - "map" → rows with latitude and longitude

2. "filter.conditions" are ALL applied (AND). There is no OR or NOT.
   - Numeric operations (> >= < <=) need numeric columns.
   - "==" with text compares case-insensitively; "contains" matches substrings.

3. "filter.limit" → highest/lowest N rows by "sort_column" ("top" or "bottom").

4. Order of execution: filter → transform → aggregation → chart.
   - A "group" transform with agg_function "count" produces a column named "count".
   - A "melt" produces the columns "variable" and "value".
   - The chart's columns may name columns produced by the transform.

5. "aggregation" groups by the chart's category column (x_column, or names_column for pie).

6. Column names must be copied exactly from COLUMNS, including case and spaces.

`, temporalNote)
}

func buildExampleInstructions(p *schema.Profile) string {
	dims := p.Dimensions()
	measure := p.DefaultMeasure()
	if len(dims) == 0 || measure == "" {
		return ""
	}
	dim := dims[0]

	var b strings.Builder
	b.WriteString("EXAMPLES:\n")

	fmt.Fprintf(&b, "- \"total %s per %s\" → ", measure, dim)
	b.WriteString(mustJSON(map[string]any{
		"type": "visualization", "chart_type": "bar",
		"x_column": dim, "y_column": measure,
		"aggregation": map[string]any{"type": "sum", "column": measure},
	}))
	fmt.Fprintf(&b, "\n- \"top 5 by %s\" → ", measure)
	b.WriteString(mustJSON(map[string]any{
		"type": "visualization", "chart_type": "bar",
		"x_column": dim, "y_column": measure,
		"filter": map[string]any{"limit": map[string]any{"type": "top", "value": 5, "sort_column": measure}},
	}))
	fmt.Fprintf(&b, "\n- \"how many rows per %s\" → ", dim)
	b.WriteString(mustJSON(map[string]any{
		"type": "visualization", "chart_type": "pie",
		"transform":    map[string]any{"type": "group", "by": []string{dim}, "agg_function": "count"},
		"names_column": dim, "value_column": "count",
	}))
	fmt.Fprintf(&b, "\n- \"distribution of %s\" → ", measure)
	b.WriteString(mustJSON(map[string]any{
		"type": "visualization", "chart_type": "histogram", "value_column": measure, "bins": 20,
	}))
	b.WriteString("\n\n")
	return b.String()
}

// ============================================================================
// HELPERS
// ============================================================================

func quotedValues(vals []string) []string {
	quoted := make([]string, len(vals))
	for i, v := range vals {
		quoted[i] = fmt.Sprintf("\"%s\"", v)
	}
	return quoted
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
