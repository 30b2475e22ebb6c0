package render

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/spektr-org/charta/dataset"
)

// ============================================================================
// ENCODING — chart specs for the rendering layer
// ============================================================================

// Format is an output encoding.
type Format string

const (
	FormatJSON    Format = "json"
	FormatPretty  Format = "pretty"
	FormatMsgpack Format = "msgpack"
	FormatCSV     Format = "csv"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatPretty, FormatMsgpack, FormatCSV:
		return f, nil
	}
	return "", fmt.Errorf("unknown format %q (json, pretty, msgpack, csv)", s)
}

// Table is anything with a tabular body, for CSV output.
type Table interface {
	Table() (columns []string, rows []map[string]any)
}

// Table returns the resolved rows the chart was drawn from.
func (s *Spec) Table() ([]string, []map[string]any) { return s.Columns, s.Rows }

// Encode writes v in the given format. msgpack uses the json field names so
// both encodings share one schema. CSV requires a Table.
func Encode(w io.Writer, v any, f Format) error {
	switch f {
	case FormatJSON, "":
		return json.NewEncoder(w).Encode(v)
	case FormatPretty:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatMsgpack:
		enc := msgpack.NewEncoder(w)
		enc.SetCustomStructTag("json")
		enc.SetOmitEmpty(true)
		return enc.Encode(v)
	case FormatCSV:
		t, ok := v.(Table)
		if !ok {
			return fmt.Errorf("csv output needs tabular data, got %T", v)
		}
		return writeCSV(w, t)
	}
	return fmt.Errorf("unknown format %q", f)
}

func writeCSV(w io.Writer, t Table) error {
	columns, rows := t.Table()
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return err
	}
	rec := make([]string, len(columns))
	for _, row := range rows {
		for i, c := range columns {
			rec[i] = dataset.Format(row[c])
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
