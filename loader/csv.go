package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spektr-org/charta/dataset"
)

// ============================================================================
// CSV LOADER — Parses CSV data into a Dataset
// ============================================================================
// Header names are kept verbatim (trimmed, BOM stripped). Empty cells are
// missing values. Every other cell stays a string until dataset.Load detects
// numeric and date columns.
// ============================================================================

const utf8BOM = "\uFEFF"

// ReadCSV parses CSV text with a header row.
func ReadCSV(r io.Reader) (*dataset.Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}
	for i, h := range headers {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(h, utf8BOM))
	}

	var rows []dataset.Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				continue // skip malformed rows
			}
			return nil, err
		}

		row := make(dataset.Row, len(headers))
		for i, val := range record {
			if i >= len(headers) {
				break
			}
			if val = strings.TrimSpace(val); val != "" {
				row[headers[i]] = val
			}
		}
		rows = append(rows, row)
	}

	return dataset.Load(headers, rows), nil
}
