package loader

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/spektr-org/charta/dataset"
)

// ============================================================================
// JSON LOADER — top-level array of objects, or one object per line
// ============================================================================
// Nested objects are flattened into dotted column names:
//   {"user": {"name": "a"}} → column "user.name"
// Arrays are kept as their JSON text.
// ============================================================================

// ReadJSON parses a JSON array of objects or NDJSON.
func ReadJSON(r io.Reader) (*dataset.Dataset, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return dataset.Load(nil, nil), nil
		}
		return nil, err
	}

	dec := json.NewDecoder(br)
	dec.UseNumber()

	var records []map[string]any
	if first == '[' {
		if err := dec.Decode(&records); err != nil {
			return nil, fmt.Errorf("decode JSON array: %w", err)
		}
	} else {
		for line := 1; ; line++ {
			var rec map[string]any
			err := dec.Decode(&rec)
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("decode NDJSON record %d: %w", line, err)
			}
			records = append(records, rec)
		}
	}
	return fromRecords(records), nil
}

// fromRecords flattens decoded objects and loads them. Columns keep the
// order in which they are first seen.
func fromRecords(records []map[string]any) *dataset.Dataset {
	var columns []string
	seen := make(map[string]bool)
	rows := make([]dataset.Row, 0, len(records))
	for _, rec := range records {
		row := make(dataset.Row, len(rec))
		flatten("", rec, row)
		for _, k := range sortedKeys(row) {
			if !seen[k] {
				seen[k] = true
				columns = append(columns, k)
			}
		}
		rows = append(rows, row)
	}
	return dataset.Load(columns, rows)
}

// flatten writes obj into row, joining nested keys with dots.
func flatten(prefix string, obj map[string]any, row dataset.Row) {
	for k, v := range obj {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch x := v.(type) {
		case map[string]any:
			flatten(key, x, row)
		case []any:
			b, _ := json.Marshal(x)
			row[key] = string(b)
		default:
			row[key] = x
		}
	}
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}

func sortedKeys(row dataset.Row) []string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
