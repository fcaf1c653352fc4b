// Package ddl builds the DuckDB statements used by the load pipeline:
// table creation, CSV staging loads, keyed merges, and reporting views.
// Every builder validates identifiers and returns the statement text, so
// the generated SQL can be unit tested without a database.
package ddl

import (
	"fmt"
	"strings"

	"lakeflow/internal/domain"
)

// SQLType maps an inferred column type to its DuckDB storage type.
func SQLType(t domain.ColumnType) string {
	switch t {
	case domain.TypeInteger:
		return "INTEGER"
	case domain.TypeFloat:
		return "DOUBLE"
	case domain.TypeDate:
		return "DATE"
	case domain.TypeVariant:
		return "JSON"
	default:
		return "VARCHAR"
	}
}

// coerceExpr returns the expression that converts a staged VARCHAR column
// to its target type. Numeric casts fail loudly on garbage; dates and
// JSON coerce leniently to NULL so one bad cell does not sink the merge.
func coerceExpr(col domain.Column) string {
	q := QuoteIdentifier(col.Name)
	switch col.Type {
	case domain.TypeInteger:
		return fmt.Sprintf("CAST(%s AS INTEGER)", q)
	case domain.TypeFloat:
		return fmt.Sprintf("CAST(%s AS DOUBLE)", q)
	case domain.TypeDate:
		return fmt.Sprintf("TRY_CAST(%s AS DATE)", q)
	case domain.TypeVariant:
		return fmt.Sprintf("TRY_CAST(%s AS JSON)", q)
	default:
		return q
	}
}

func validateColumns(schema *domain.ColumnSchema) error {
	if schema == nil || schema.Len() == 0 {
		return fmt.Errorf("at least one column is required")
	}
	for _, c := range schema.Columns() {
		if err := ValidateIdentifier(c.Name); err != nil {
			return fmt.Errorf("invalid column name %q: %w", c.Name, err)
		}
	}
	return nil
}

// CreateTable returns a typed CREATE TABLE statement for the parent table.
func CreateTable(table string, schema *domain.ColumnSchema, ifNotExists bool) (string, error) {
	if err := ValidateIdentifier(table); err != nil {
		return "", fmt.Errorf("invalid table name: %w", err)
	}
	if err := validateColumns(schema); err != nil {
		return "", err
	}

	var colDefs []string
	for _, c := range schema.Columns() {
		colDefs = append(colDefs, fmt.Sprintf("%s %s", QuoteIdentifier(c.Name), SQLType(c.Type)))
	}

	stmt := "CREATE TABLE "
	if ifNotExists {
		stmt = "CREATE TABLE IF NOT EXISTS "
	}
	return stmt + fmt.Sprintf("%s (%s)", QuoteIdentifier(table), strings.Join(colDefs, ", ")), nil
}

// CreateStagingTable returns a CREATE OR REPLACE TABLE statement where
// every column is VARCHAR. Staging always holds raw text; typing happens
// at merge time.
func CreateStagingTable(table string, schema *domain.ColumnSchema) (string, error) {
	if err := ValidateIdentifier(table); err != nil {
		return "", fmt.Errorf("invalid table name: %w", err)
	}
	if err := validateColumns(schema); err != nil {
		return "", err
	}

	var colDefs []string
	for _, c := range schema.Columns() {
		colDefs = append(colDefs, QuoteIdentifier(c.Name)+" VARCHAR")
	}
	return fmt.Sprintf("CREATE OR REPLACE TABLE %s (%s)",
		QuoteIdentifier(table), strings.Join(colDefs, ", ")), nil
}

// DropTable returns a DROP TABLE [IF EXISTS] statement.
func DropTable(table string, ifExists bool) (string, error) {
	if err := ValidateIdentifier(table); err != nil {
		return "", fmt.Errorf("invalid table name: %w", err)
	}
	stmt := "DROP TABLE "
	if ifExists {
		stmt = "DROP TABLE IF EXISTS "
	}
	return stmt + QuoteIdentifier(table), nil
}

// LoadCSV returns an INSERT ... SELECT FROM read_csv statement that loads
// a CSV file into the staging table. all_varchar keeps every cell as raw
// text, ignore_errors skips unparseable rows instead of aborting the load,
// and the nullstr list folds the recognised null markers to SQL NULL.
func LoadCSV(staging, path string) (string, error) {
	if err := ValidateIdentifier(staging); err != nil {
		return "", fmt.Errorf("invalid table name: %w", err)
	}
	if path == "" {
		return "", fmt.Errorf("csv path is required")
	}
	return fmt.Sprintf(
		"INSERT INTO %s SELECT * FROM read_csv(%s, header = true, all_varchar = true, ignore_errors = true, nullstr = ['', 'NULL', 'null'])",
		QuoteIdentifier(staging), QuoteLiteral(path)), nil
}

// Merge returns a MERGE statement that upserts staged rows into the
// parent table, coercing each column to its target type on the way in.
// Rows whose key already exists are updated in place; new keys insert.
func Merge(parent, staging, keyColumn string, schema *domain.ColumnSchema) (string, error) {
	if err := ValidateIdentifier(parent); err != nil {
		return "", fmt.Errorf("invalid table name: %w", err)
	}
	if err := ValidateIdentifier(staging); err != nil {
		return "", fmt.Errorf("invalid table name: %w", err)
	}
	if err := validateColumns(schema); err != nil {
		return "", err
	}
	keyColumn = domain.NormalizeColumnName(keyColumn)
	if _, ok := schema.TypeOf(keyColumn); !ok {
		return "", fmt.Errorf("key column %q is not in the schema", keyColumn)
	}

	var selectCols, updateSets, insertCols, insertVals []string
	for _, c := range schema.Columns() {
		q := QuoteIdentifier(c.Name)
		selectCols = append(selectCols, fmt.Sprintf("%s AS %s", coerceExpr(c), q))
		insertCols = append(insertCols, q)
		insertVals = append(insertVals, "src."+q)
		if c.Name != keyColumn {
			updateSets = append(updateSets, fmt.Sprintf("%s = src.%s", q, q))
		}
	}

	qKey := QuoteIdentifier(keyColumn)
	return fmt.Sprintf(`MERGE INTO %s AS tgt
USING (SELECT %s FROM %s) AS src
ON tgt.%s = src.%s
WHEN MATCHED THEN UPDATE SET %s
WHEN NOT MATCHED THEN INSERT (%s) VALUES (%s)`,
		QuoteIdentifier(parent),
		strings.Join(selectCols, ", "),
		QuoteIdentifier(staging),
		qKey, qKey,
		strings.Join(updateSets, ", "),
		strings.Join(insertCols, ", "),
		strings.Join(insertVals, ", "),
	), nil
}

// CountRows returns a SELECT COUNT(*) statement for the table.
func CountRows(table string) (string, error) {
	if err := ValidateIdentifier(table); err != nil {
		return "", fmt.Errorf("invalid table name: %w", err)
	}
	return "SELECT COUNT(*) FROM " + QuoteIdentifier(table), nil
}

// CountMatchedKeys returns a statement counting the distinct staged keys
// that already exist in the parent table. The staged key is coerced with
// the same expression the merge uses so both statements agree on matches.
func CountMatchedKeys(parent, staging, keyColumn string, keyType domain.ColumnType) (string, error) {
	if err := ValidateIdentifier(parent); err != nil {
		return "", fmt.Errorf("invalid table name: %w", err)
	}
	if err := ValidateIdentifier(staging); err != nil {
		return "", fmt.Errorf("invalid table name: %w", err)
	}
	keyColumn = domain.NormalizeColumnName(keyColumn)
	if err := ValidateIdentifier(keyColumn); err != nil {
		return "", fmt.Errorf("invalid column name: %w", err)
	}
	expr := coerceExpr(domain.Column{Name: keyColumn, Type: keyType})
	return fmt.Sprintf(
		"SELECT COUNT(DISTINCT %s) FROM %s WHERE %s IN (SELECT %s FROM %s)",
		expr, QuoteIdentifier(staging), expr,
		QuoteIdentifier(keyColumn), QuoteIdentifier(parent)), nil
}

// CountStagedKeys returns a statement counting the distinct keys in the
// staging table.
func CountStagedKeys(staging, keyColumn string, keyType domain.ColumnType) (string, error) {
	if err := ValidateIdentifier(staging); err != nil {
		return "", fmt.Errorf("invalid table name: %w", err)
	}
	keyColumn = domain.NormalizeColumnName(keyColumn)
	if err := ValidateIdentifier(keyColumn); err != nil {
		return "", fmt.Errorf("invalid column name: %w", err)
	}
	expr := coerceExpr(domain.Column{Name: keyColumn, Type: keyType})
	return fmt.Sprintf("SELECT COUNT(DISTINCT %s) FROM %s",
		expr, QuoteIdentifier(staging)), nil
}

// DescribeTable returns a DESCRIBE statement for the table.
func DescribeTable(table string) (string, error) {
	if err := ValidateIdentifier(table); err != nil {
		return "", fmt.Errorf("invalid table name: %w", err)
	}
	return "DESCRIBE " + QuoteIdentifier(table), nil
}

// SampleRows returns a SELECT * ... LIMIT statement for the table.
func SampleRows(table string, limit int) (string, error) {
	if err := ValidateIdentifier(table); err != nil {
		return "", fmt.Errorf("invalid table name: %w", err)
	}
	if limit <= 0 {
		return "", fmt.Errorf("limit must be positive")
	}
	return fmt.Sprintf("SELECT * FROM %s LIMIT %d", QuoteIdentifier(table), limit), nil
}
