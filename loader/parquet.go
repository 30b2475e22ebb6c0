package loader

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/spektr-org/charta/dataset"
)

// ReadParquet reads every row of a parquet file. Columns follow the file
// schema's top-level field order; a group field expands in place into its
// dotted sub-columns, sorted.
func ReadParquet(r io.ReaderAt, size int64) (*dataset.Dataset, error) {
	file, err := parquet.OpenFile(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}

	reader := parquet.NewReader(file)
	defer reader.Close()

	rows := make([]dataset.Row, 0, file.NumRows())
	for {
		rowData := make(map[string]any)
		if err := reader.Read(&rowData); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read parquet row %d: %w", len(rows), err)
		}
		row := make(dataset.Row, len(rowData))
		flatten("", rowData, row)
		rows = append(rows, row)
	}

	var columns []string
	for _, f := range file.Schema().Fields() {
		if f.Leaf() || f.Repeated() {
			columns = append(columns, f.Name())
			continue
		}
		columns = append(columns, nestedColumns(f.Name()+".", rows)...)
	}
	return dataset.Load(columns, rows), nil
}

// nestedColumns returns the sorted keys under prefix seen in any row.
func nestedColumns(prefix string, rows []dataset.Row) []string {
	seen := make(dataset.Row)
	for _, row := range rows {
		for k := range row {
			if strings.HasPrefix(k, prefix) {
				seen[k] = true
			}
		}
	}
	return sortedKeys(seen)
}
