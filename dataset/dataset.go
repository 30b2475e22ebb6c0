// Package dataset holds the immutable tabular snapshot the interpreter runs
// instructions against, plus its column type detection.
package dataset

import (
	"sort"

	"github.com/spektr-org/charta/errs"
)

// ============================================================================
// DATASET — Immutable Row-of-Maps Snapshot
// ============================================================================
// Every derivation (Select, Take, CoerceNumeric, Head) returns a new
// *Dataset. Row maps are shared between snapshots but never written after
// construction; callers only ever see copies (Row, Records).
// ============================================================================

// Row is one record: column name → cell value.
type Row map[string]any

// Kind is the detected type of a column.
type Kind int

const (
	KindCategorical Kind = iota
	KindNumeric
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindDate:
		return "date"
	default:
		return "categorical"
	}
}

// Dataset is an ordered, immutable collection of rows.
type Dataset struct {
	columns []string
	index   map[string]int
	rows    []Row
	kinds   map[string]Kind
}

// New builds a snapshot from rows, normalizing every cell. Columns are kept in
// the given order; when columns is nil they are taken from the rows, sorted.
// Column kinds are inferred from the normalized Go types only (no string
// parsing); use Load for full detection.
func New(columns []string, rows []Row) *Dataset {
	if columns == nil {
		columns = columnsOf(rows)
	}
	d := &Dataset{
		columns: dedupe(columns),
		rows:    make([]Row, len(rows)),
	}
	d.buildIndex()
	for i, r := range rows {
		nr := make(Row, len(d.columns))
		for _, c := range d.columns {
			if v := Normalize(r[c]); v != nil {
				nr[c] = v
			}
		}
		d.rows[i] = nr
	}
	d.kinds = inferKinds(d.columns, d.rows)
	return d
}

// FromRecords is New over plain maps.
func FromRecords(columns []string, records []map[string]any) *Dataset {
	rows := make([]Row, len(records))
	for i, r := range records {
		rows[i] = Row(r)
	}
	return New(columns, rows)
}

func (d *Dataset) buildIndex() {
	d.index = make(map[string]int, len(d.columns))
	for i, c := range d.columns {
		d.index[c] = i
	}
}

// derive returns a snapshot sharing d's columns and kinds over other rows.
func (d *Dataset) derive(rows []Row) *Dataset {
	return &Dataset{columns: d.columns, index: d.index, rows: rows, kinds: d.kinds}
}

// ── accessors ──

// Len is the row count.
func (d *Dataset) Len() int { return len(d.rows) }

// Columns returns the column names in order.
func (d *Dataset) Columns() []string {
	out := make([]string, len(d.columns))
	copy(out, d.columns)
	return out
}

// Has reports whether the dataset has the named column.
func (d *Dataset) Has(col string) bool {
	_, ok := d.index[col]
	return ok
}

// Value returns the cell at row i, column col (nil when missing).
func (d *Dataset) Value(i int, col string) any {
	if i < 0 || i >= len(d.rows) {
		return nil
	}
	return d.rows[i][col]
}

// Row returns a copy of row i.
func (d *Dataset) Row(i int) Row {
	out := make(Row, len(d.columns))
	for k, v := range d.rows[i] {
		out[k] = v
	}
	return out
}

// Records returns a deep copy of all rows.
func (d *Dataset) Records() []map[string]any {
	out := make([]map[string]any, len(d.rows))
	for i := range d.rows {
		out[i] = d.Row(i)
	}
	return out
}

// Kind returns the detected kind of col.
func (d *Dataset) Kind(col string) Kind { return d.kinds[col] }

// IsNumeric reports whether col was detected or coerced as numeric.
func (d *Dataset) IsNumeric(col string) bool { return d.kinds[col] == KindNumeric }

// NumericColumns lists numeric columns in column order.
func (d *Dataset) NumericColumns() []string { return d.columnsOfKind(KindNumeric) }

// DateColumns lists date columns in column order.
func (d *Dataset) DateColumns() []string { return d.columnsOfKind(KindDate) }

// CategoricalColumns lists non-numeric, non-date columns in column order.
func (d *Dataset) CategoricalColumns() []string { return d.columnsOfKind(KindCategorical) }

func (d *Dataset) columnsOfKind(k Kind) []string {
	var out []string
	for _, c := range d.columns {
		if d.kinds[c] == k {
			out = append(out, c)
		}
	}
	return out
}

// Require returns a MissingColumnError when col is absent.
func (d *Dataset) Require(field, col string) error {
	if !d.Has(col) {
		return &errs.MissingColumnError{Field: field, Column: col}
	}
	return nil
}

// ── derivations ──

// Select returns the rows selected by m, in original order.
func (d *Dataset) Select(m *Mask) *Dataset {
	if m.IsAll() && m.Len() == d.Len() {
		return d
	}
	return d.Take(m.Indices())
}

// Take returns the rows at the given positions, in the given order.
// Out-of-range positions are skipped.
func (d *Dataset) Take(indices []int) *Dataset {
	rows := make([]Row, 0, len(indices))
	for _, i := range indices {
		if i >= 0 && i < len(d.rows) {
			rows = append(rows, d.rows[i])
		}
	}
	return d.derive(rows)
}

// Head returns the first n rows.
func (d *Dataset) Head(n int) *Dataset {
	if n < 0 || n >= len(d.rows) {
		return d
	}
	return d.derive(d.rows[:n:n])
}

// ============================================================================
// HELPERS
// ============================================================================

func columnsOf(rows []Row) []string {
	seen := make(map[string]bool)
	var cols []string
	for _, r := range rows {
		for k := range r {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	sort.Strings(cols)
	return cols
}

func dedupe(cols []string) []string {
	seen := make(map[string]bool, len(cols))
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}
