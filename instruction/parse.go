package instruction

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/google/uuid"

	"github.com/spektr-org/charta/errs"
)

// ============================================================================
// RESPONSE PARSER — raw instruction text → Response
// ============================================================================
// Tolerates prose around the JSON object, markdown fences, legacy field
// names and malformed sections. Never returns an error and never panics:
// text that cannot be read becomes a TypeError response.
// ============================================================================

// Parse turns raw instruction-source text into a typed Response.
func Parse(text string) *Response {
	raw, err := extractObject(text)
	if err != nil {
		return errorResponse(err)
	}
	doc := canonicalize(raw, topLevelAliases)

	var hdr header
	if err := decode(doc, &hdr); err != nil {
		return errorResponse(&errs.SchemaError{Reason: err.Error()})
	}

	switch ResponseType(strings.ToLower(strings.TrimSpace(hdr.Type))) {
	case TypeError:
		msg := hdr.Message
		if msg == "" {
			msg = "instruction source reported an error"
		}
		return &Response{Type: TypeError, Message: msg}
	case TypeAnalysis:
		return &Response{Type: TypeAnalysis, Answer: hdr.Answer}
	case TypeVisualization, "":
	default:
		return errorResponse(&errs.SchemaError{Field: "type", Reason: fmt.Sprintf("unsupported response type %q", hdr.Type)})
	}

	resp := &Response{Type: TypeVisualization}
	inst := &Instruction{
		ID:          uuid.New(),
		Title:       hdr.Title,
		Description: hdr.Description,
	}
	inst.Chart = buildChart(hdr, doc, resp)
	inst.Filter = decodeFilter(doc["filter"], resp)
	inst.Transform = decodeTransform(doc["transform"], resp)
	inst.Aggregation = decodeAggregation(doc["aggregation"], resp)
	resp.Instruction = inst
	return resp
}

func errorResponse(err error) *Response {
	return &Response{Type: TypeError, Message: err.Error()}
}

// ── extraction ──

// extractObject strips markdown fences and decodes the outermost {...} span.
func extractObject(text string) (map[string]any, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, &errs.SchemaError{Reason: fmt.Sprintf("no JSON object in response: %.120q", text)}
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(text[start:end+1]), &doc); err != nil {
		return nil, &errs.SchemaError{Reason: fmt.Sprintf("malformed JSON object: %v", err)}
	}
	return doc, nil
}

// ── header & chart ──

type header struct {
	Type            string `mapstructure:"type"`
	ChartType       string `mapstructure:"chart_type"`
	Title           string `mapstructure:"title"`
	Description     string `mapstructure:"description"`
	XColumn         string `mapstructure:"x_column"`
	YColumn         string `mapstructure:"y_column"`
	ValueColumn     string `mapstructure:"value_column"`
	NamesColumn     string `mapstructure:"names_column"`
	LatitudeColumn  string `mapstructure:"latitude_column"`
	LongitudeColumn string `mapstructure:"longitude_column"`
	Answer          string `mapstructure:"answer"`
	Message         string `mapstructure:"message"`
}

func buildChart(h header, doc map[string]any, resp *Response) Chart {
	kind := NormalizeChartKind(h.ChartType)
	switch kind {
	case Bar, Line, Scatter:
		return XYChart{ChartKind: kind, X: h.XColumn, Y: h.YColumn}
	case Pie:
		return PieChart{Values: h.ValueColumn, Names: h.NamesColumn}
	case Histogram:
		return HistogramChart{Value: h.ValueColumn, Bins: decodeBins(doc["bins"], resp)}
	case Map:
		return MapChart{Latitude: h.LatitudeColumn, Longitude: h.LongitudeColumn, Value: h.ValueColumn}
	}
	return UnknownChart{Declared: h.ChartType}
}

// NormalizeChartKind maps legacy chart names ("bar_chart", "Scatter Plot")
// onto the canonical kinds. Unknown names come back lowercased.
func NormalizeChartKind(s string) ChartKind {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	for _, suffix := range []string{"_chart", "_plot", "_graph"} {
		s = strings.TrimSuffix(s, suffix)
	}
	switch s {
	case "scatterplot":
		return Scatter
	case "barchart", "column":
		return Bar
	case "linechart":
		return Line
	case "piechart", "donut":
		return Pie
	case "hist":
		return Histogram
	}
	return ChartKind(s)
}

// MaxBins caps the histogram bin count an instruction may ask for.
const MaxBins = 1000

func decodeBins(raw any, resp *Response) int {
	if raw == nil {
		return 0
	}
	var bins float64
	if err := decode(raw, &bins); err != nil || math.IsNaN(bins) || bins < 1 {
		resp.Warnings = append(resp.Warnings, &errs.CoercionError{Column: "bins", Value: raw, Target: "integer"})
		return 0
	}
	if bins > MaxBins {
		resp.Warnings = append(resp.Warnings, &errs.CoercionError{Column: "bins", Value: raw, Target: fmt.Sprintf("integer at most %d", MaxBins)})
		return MaxBins
	}
	return int(bins)
}

// ── sections ──
// Each section decodes on its own; a malformed one is dropped with a warning.

func decodeFilter(raw any, resp *Response) *Filter {
	m, ok := section(raw, "filter", resp)
	if !ok {
		return nil
	}
	if conds, ok := m["conditions"].([]any); ok {
		for i, c := range conds {
			if cm, ok := c.(map[string]any); ok {
				conds[i] = canonicalize(cm, conditionAliases)
			}
		}
	} else if cm, ok := m["conditions"].(map[string]any); ok {
		// a single condition object instead of a list
		m["conditions"] = []any{canonicalize(cm, conditionAliases)}
	}
	if lm, ok := m["limit"].(map[string]any); ok {
		m["limit"] = canonicalize(lm, limitAliases)
	}

	var f Filter
	if err := decode(m, &f); err != nil {
		resp.Warnings = append(resp.Warnings, &errs.SchemaError{Field: "filter", Reason: err.Error()})
		return nil
	}
	for i := range f.Conditions {
		f.Conditions[i].Operation = Operation(strings.ToLower(strings.TrimSpace(string(f.Conditions[i].Operation))))
	}
	if len(f.Conditions) == 0 && f.Limit == nil {
		return nil
	}
	return &f
}

func decodeTransform(raw any, resp *Response) Transform {
	m, ok := section(raw, "transform", resp)
	if !ok {
		return nil
	}
	m = canonicalize(m, transformAliases)

	var kind struct {
		Type string `mapstructure:"type"`
	}
	if err := decode(m, &kind); err != nil || kind.Type == "" {
		resp.Warnings = append(resp.Warnings, &errs.SchemaError{Field: "transform.type", Reason: "missing or invalid"})
		return nil
	}

	var (
		t   Transform
		err error
	)
	switch strings.ToLower(strings.TrimSpace(kind.Type)) {
	case "group", "groupby", "group_by":
		var g GroupTransform
		err = decode(m, &g)
		g.AggFunction = canonicalAgg(g.AggFunction)
		t = g
	case "pivot", "pivot_table":
		var p PivotTransform
		err = decode(m, &p)
		p.AggFunction = canonicalAgg(p.AggFunction)
		t = p
	case "melt", "unpivot":
		var mt MeltTransform
		err = decode(m, &mt)
		t = mt
	default:
		return UnknownTransform{Declared: kind.Type}
	}
	if err != nil {
		resp.Warnings = append(resp.Warnings, &errs.SchemaError{Field: "transform", Reason: err.Error()})
		return nil
	}
	return t
}

func decodeAggregation(raw any, resp *Response) *Aggregation {
	m, ok := section(raw, "aggregation", resp)
	if !ok {
		return nil
	}
	var a Aggregation
	if err := decode(m, &a); err != nil {
		resp.Warnings = append(resp.Warnings, &errs.SchemaError{Field: "aggregation", Reason: err.Error()})
		return nil
	}
	a.Type = canonicalAgg(a.Type)
	return &a
}

func section(raw any, name string, resp *Response) (map[string]any, bool) {
	if raw == nil {
		return nil, false
	}
	m, ok := raw.(map[string]any)
	if !ok {
		resp.Warnings = append(resp.Warnings, &errs.SchemaError{Field: name, Reason: fmt.Sprintf("expected an object, got %T", raw)})
		return nil, false
	}
	return m, true
}

// decode is a weakly typed mapstructure decode: "5" → 5, "dept" → ["dept"].
func decode(input, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}
