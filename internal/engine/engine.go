// Package engine manages the DuckDB connection used by the load pipeline.
package engine

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"

	"lakeflow/internal/ddl"
	"lakeflow/internal/domain"
)

// DB is the subset of database/sql the pipeline issues statements
// through. *sql.DB satisfies it.
type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open opens (or creates) the DuckDB database at path. An empty path
// opens an in-memory database.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	return db, nil
}

// InstallExtensions installs and loads the DuckDB extensions the pipeline
// relies on. Safe to call repeatedly.
func InstallExtensions(ctx context.Context, db DB) error {
	extensions := []string{
		"INSTALL json; LOAD json;",
	}
	for _, ext := range extensions {
		if _, err := db.ExecContext(ctx, ext); err != nil {
			return fmt.Errorf("extension setup (%s): %w", ext, err)
		}
	}
	return nil
}

// QueryCount runs a single-value COUNT query and returns the result.
func QueryCount(ctx context.Context, db DB, query string) (int64, error) {
	var n int64
	if err := db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count query: %w", err)
	}
	return n, nil
}

// TableExists reports whether a table with the given name exists in the
// main schema.
func TableExists(ctx context.Context, db DB, table string) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM information_schema.tables WHERE table_name = ?", table).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("table lookup: %w", err)
	}
	return n > 0, nil
}

// TableColumns returns the column names of an existing table, in ordinal
// order.
func TableColumns(ctx context.Context, db DB, table string) ([]string, error) {
	schema, err := TableSchema(ctx, db, table)
	if err != nil {
		return nil, err
	}
	return schema.Names(), nil
}

// TableSchema reads an existing table's columns back into a schema,
// mapping DuckDB storage types to their semantic types.
func TableSchema(ctx context.Context, db DB, table string) (*domain.ColumnSchema, error) {
	stmt, err := ddl.DescribeTable(table)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("describe %q: %w", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	// DESCRIBE returns column_name, column_type, null, key, default, extra.
	scan := make([]any, len(cols))
	var name, sqlType string
	scan[0] = &name
	scan[1] = &sqlType
	for i := 2; i < len(scan); i++ {
		scan[i] = new(sql.RawBytes)
	}

	schema := domain.NewColumnSchema()
	for rows.Next() {
		if err := rows.Scan(scan...); err != nil {
			return nil, err
		}
		schema.Add(name, columnTypeFor(sqlType))
	}
	return schema, rows.Err()
}

func columnTypeFor(sqlType string) domain.ColumnType {
	switch strings.ToUpper(sqlType) {
	case "INTEGER", "BIGINT", "SMALLINT", "TINYINT", "HUGEINT":
		return domain.TypeInteger
	case "DOUBLE", "FLOAT", "REAL", "DECIMAL":
		return domain.TypeFloat
	case "DATE":
		return domain.TypeDate
	case "JSON":
		return domain.TypeVariant
	default:
		return domain.TypeString
	}
}
