// Package loader materializes datasets from files, remote JSON APIs and SQL
// queries. Every source ends in dataset.Load, so numeric and date detection
// run exactly once per snapshot.
package loader

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spektr-org/charta/dataset"
)

// ============================================================================
// FILE LOADER — path → Dataset
// ============================================================================
// Format comes from the extension, after any compression suffix is peeled:
//   data.csv, data.csv.gz, data.ndjson.zst, data.json.sz, data.parquet
// ============================================================================

// Format is a dataset file format.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatJSON    Format = "json" // array of objects, or NDJSON
	FormatParquet Format = "parquet"
)

// Option configures a loader call.
type Option func(*config)

type config struct {
	Logger *slog.Logger
	Format Format
}

// WithLogger sets the logger for load events.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.Logger = l
	}
}

// WithFormat overrides extension-based format detection.
func WithFormat(f Format) Option {
	return func(c *config) {
		c.Format = f
	}
}

func applyOptions(opts []Option) *config {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return cfg
}

// OpenFile loads the dataset at path.
func OpenFile(path string, opts ...Option) (*dataset.Dataset, error) {
	cfg := applyOptions(opts)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	name := strings.ToLower(filepath.Base(path))
	r, inner, closeFn, err := decompress(f, name)
	if err != nil {
		return nil, fmt.Errorf("open dataset %s: %w", path, err)
	}
	defer closeFn()

	format := cfg.Format
	if format == "" {
		if format, err = DetectFormat(inner); err != nil {
			return nil, err
		}
	}

	d, err := Read(r, format)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	cfg.Logger.Info("charta: dataset loaded", "path", path, "format", format,
		"rows", d.Len(), "columns", len(d.Columns()), "numeric", d.NumericColumns())
	return d, nil
}

// Read decodes a dataset from r in the given format.
func Read(r io.Reader, format Format) (*dataset.Dataset, error) {
	switch format {
	case FormatCSV:
		return ReadCSV(r)
	case FormatJSON:
		return ReadJSON(r)
	case FormatParquet:
		// parquet needs random access; compressed inputs are buffered
		if ra, ok := r.(interface {
			io.ReaderAt
			Stat() (os.FileInfo, error)
		}); ok {
			st, err := ra.Stat()
			if err != nil {
				return nil, err
			}
			return ReadParquet(ra, st.Size())
		}
		buf, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		return ReadParquet(bytes.NewReader(buf), int64(len(buf)))
	}
	return nil, fmt.Errorf("unknown dataset format %q", format)
}

// DetectFormat maps a (decompressed) file name to a format.
func DetectFormat(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".json", ".ndjson", ".jsonl":
		return FormatJSON, nil
	case ".parquet", ".pq":
		return FormatParquet, nil
	}
	return "", fmt.Errorf("cannot detect dataset format of %q (csv, json, ndjson, parquet)", name)
}
