package dataset

import (
	"strings"
	"time"

	"github.com/spektr-org/charta/errs"
)

// ============================================================================
// TYPE COERCER — numeric / date detection and coercion
// ============================================================================
// Load runs detection once per snapshot. The resulting kinds live on the
// snapshot, so loading a new dataset is the only invalidation there is.
//
// Load-time numeric detection is strict (every sampled value must look like
// a number); CoerceNumeric is permissive (any value that fails becomes
// missing, and the column qualifies if at least one value survives).
// ============================================================================

// numericSample is how many non-null values the load-time check inspects.
const numericSample = 100

// DateLayouts are the layouts tried during date detection, in order.
var DateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"Jan-2006",
	"January 2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// Load builds a snapshot and runs numeric and date detection over its string
// columns. A column that fails detection is left exactly as loaded.
func Load(columns []string, rows []Row) *Dataset {
	d := New(columns, rows)
	for _, col := range d.columns {
		if d.kinds[col] != KindCategorical {
			continue
		}
		if next, ok := d.detectNumeric(col); ok {
			d = next
			continue
		}
		if next, ok := d.detectDate(col); ok {
			d = next
		}
	}
	return d
}

// CoerceNumeric returns a snapshot in which col is numeric. Values that do
// not clean to a number become missing. If no value survives, d is returned
// unchanged with a CoercionError.
func (d *Dataset) CoerceNumeric(col string) (*Dataset, error) {
	if !d.Has(col) {
		return d, &errs.MissingColumnError{Column: col}
	}
	if d.kinds[col] == KindNumeric {
		return d, nil
	}

	values := make([]any, len(d.rows))
	survivors := 0
	var sample any
	for i, r := range d.rows {
		v := r[col]
		if IsMissing(v) {
			continue
		}
		if sample == nil {
			sample = v
		}
		if f, ok := ToFloat(v); ok {
			values[i] = f
			survivors++
		}
	}
	if survivors == 0 {
		return d, &errs.CoercionError{Column: col, Value: sample, Target: KindNumeric.String()}
	}
	return d.withColumn(col, values, KindNumeric), nil
}

// Numbers returns col's values as floats; ok[i] is false where the value is
// missing or not numeric. Nothing is cached.
func (d *Dataset) Numbers(col string) (vals []float64, ok []bool) {
	vals = make([]float64, len(d.rows))
	ok = make([]bool, len(d.rows))
	for i, r := range d.rows {
		vals[i], ok[i] = ToFloat(r[col])
	}
	return vals, ok
}

// ── detection ──

func (d *Dataset) detectNumeric(col string) (*Dataset, bool) {
	seen := 0
	for _, r := range d.rows {
		v := r[col]
		if IsMissing(v) {
			continue
		}
		switch x := v.(type) {
		case float64:
		case string:
			if strings.TrimSpace(x) == "" {
				continue
			}
			if !looksNumeric(x) {
				return nil, false
			}
		default:
			return nil, false
		}
		seen++
		if seen >= numericSample {
			break
		}
	}
	if seen == 0 {
		return nil, false
	}
	next, err := d.CoerceNumeric(col)
	if err != nil {
		return nil, false
	}
	return next, true
}

func (d *Dataset) detectDate(col string) (*Dataset, bool) {
	values := make([]any, len(d.rows))
	seen := 0
	layout := ""
	for i, r := range d.rows {
		v := r[col]
		if IsMissing(v) {
			continue
		}
		s, isStr := v.(string)
		if !isStr {
			return nil, false
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		t, l, ok := parseDate(s, layout)
		if !ok {
			return nil, false
		}
		layout = l
		values[i] = t
		seen++
	}
	if seen == 0 {
		return nil, false
	}
	return d.withColumn(col, values, KindDate), true
}

// parseDate tries the last successful layout first, then all of them.
func parseDate(s, hint string) (time.Time, string, bool) {
	if hint != "" {
		if t, err := time.Parse(hint, s); err == nil {
			return t, hint, true
		}
	}
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, layout, true
		}
	}
	return time.Time{}, "", false
}

// withColumn copies every row with col replaced by values[i] (nil removes it).
func (d *Dataset) withColumn(col string, values []any, kind Kind) *Dataset {
	rows := make([]Row, len(d.rows))
	for i, r := range d.rows {
		nr := make(Row, len(r))
		for k, v := range r {
			nr[k] = v
		}
		if values[i] == nil {
			delete(nr, col)
		} else {
			nr[col] = values[i]
		}
		rows[i] = nr
	}
	kinds := make(map[string]Kind, len(d.kinds))
	for k, v := range d.kinds {
		kinds[k] = v
	}
	kinds[col] = kind
	return &Dataset{columns: d.columns, index: d.index, rows: rows, kinds: kinds}
}

// inferKinds classifies columns from Go types alone: a column is numeric when
// every present value is a float64, date when every present value is a
// time.Time.
func inferKinds(columns []string, rows []Row) map[string]Kind {
	kinds := make(map[string]Kind, len(columns))
	for _, c := range columns {
		nums, dates, other := 0, 0, 0
		for _, r := range rows {
			switch r[c].(type) {
			case nil:
			case float64:
				nums++
			case time.Time:
				dates++
			default:
				other++
			}
		}
		switch {
		case other == 0 && dates == 0 && nums > 0:
			kinds[c] = KindNumeric
		case other == 0 && nums == 0 && dates > 0:
			kinds[c] = KindDate
		default:
			kinds[c] = KindCategorical
		}
	}
	return kinds
}
