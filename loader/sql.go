package loader

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"  // driver "mysql"
	_ "github.com/jackc/pgx/v5/stdlib"  // driver "pgx"
	_ "github.com/microsoft/go-mssqldb" // driver "sqlserver"
	_ "modernc.org/sqlite"              // driver "sqlite"

	"github.com/spektr-org/charta/dataset"
	"github.com/spektr-org/charta/errs"
)

// ============================================================================
// SQL LOADER — materializes one query result into a Dataset
// ============================================================================
// The query is the caller's; charta never generates SQL. Driver names:
//   pgx (postgres), mysql, sqlserver, sqlite
// ============================================================================

// SQLConfig names a database and the query whose result becomes the dataset.
type SQLConfig struct {
	Driver  string
	DSN     string
	Query   string
	Args    []any
	Timeout time.Duration // default 60s
}

// driverAliases maps common backend names onto registered driver names.
var driverAliases = map[string]string{
	"postgres":   "pgx",
	"postgresql": "pgx",
	"mssql":      "sqlserver",
	"sqlite3":    "sqlite",
}

// OpenSQL connects with cfg, runs the query and closes the connection.
func OpenSQL(ctx context.Context, cfg SQLConfig, opts ...Option) (*dataset.Dataset, error) {
	driver := cfg.Driver
	if alias, ok := driverAliases[driver]; ok {
		driver = alias
	}
	db, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	defer db.Close()

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	d, err := FromSQL(ctx, db, cfg.Query, cfg.Args...)
	if err != nil {
		return nil, errs.Upstream(driver, err)
	}
	applyOptions(opts).Logger.Info("charta: dataset queried", "driver", driver, "rows", d.Len(), "columns", len(d.Columns()))
	return d, nil
}

// FromSQL runs query on db and loads every result row.
func FromSQL(ctx context.Context, db *sql.DB, query string, args ...any) (*dataset.Dataset, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}

	var out []dataset.Row
	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row %d: %w", len(out), err)
		}
		row := make(dataset.Row, len(columns))
		for i, c := range columns {
			row[c] = dataset.Normalize(values[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return dataset.Load(columns, out), nil
}
