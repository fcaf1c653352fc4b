package pipeline

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"lakeflow/internal/ddl"
	"lakeflow/internal/domain"
	"lakeflow/internal/engine"
)

// sampleLimit is how many rows the validation report prints.
const sampleLimit = 5

// probeField is the JSON attribute used to spot-check VARIANT columns.
const probeField = "user_id"

// Check is one validation outcome.
type Check struct {
	Name   string `json:"name"`
	Ok     bool   `json:"ok"`
	Detail string `json:"detail"`
}

// Report collects validation checks for one loaded table. A failed check
// does not abort the run; callers decide how to treat a failing report.
type Report struct {
	Table  string   `json:"table"`
	Checks []Check  `json:"checks"`
	Sample []string `json:"sample,omitempty"`
}

// Passed reports whether every check succeeded.
func (r *Report) Passed() bool {
	for _, c := range r.Checks {
		if !c.Ok {
			return false
		}
	}
	return true
}

// Render formats the report as a human-readable text block.
func (r *Report) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Validation report for %s\n", r.Table)
	for _, c := range r.Checks {
		status := "PASS"
		if !c.Ok {
			status = "FAIL"
		}
		fmt.Fprintf(&b, "  [%s] %s: %s\n", status, c.Name, c.Detail)
	}
	if len(r.Sample) > 0 {
		fmt.Fprintf(&b, "  Sample rows (%d):\n", len(r.Sample))
		for _, row := range r.Sample {
			fmt.Fprintf(&b, "    %s\n", row)
		}
	}
	return b.String()
}

func (p *Pipeline) validate(ctx context.Context, schema *domain.ColumnSchema) (*Report, error) {
	return Validate(ctx, p.db, p.opts.ParentTable, schema, p.opts.MinRows)
}

// Validate runs the post-load checks against the table: a minimum row
// count, a sample of rows, and a probe of each JSON column for the
// expected payload attribute.
func Validate(ctx context.Context, db engine.DB, table string, schema *domain.ColumnSchema, minRows int64) (*Report, error) {
	report := &Report{Table: table}

	countQ, err := ddl.CountRows(table)
	if err != nil {
		return nil, err
	}
	total, err := engine.QueryCount(ctx, db, countQ)
	if err != nil {
		return nil, err
	}
	report.Checks = append(report.Checks, Check{
		Name:   "row_count",
		Ok:     total >= minRows,
		Detail: fmt.Sprintf("%d rows (minimum %d)", total, minRows),
	})

	sample, err := sampleRows(ctx, db, table)
	if err != nil {
		return nil, err
	}
	report.Sample = sample

	for _, c := range schema.Columns() {
		if c.Type != domain.TypeVariant {
			continue
		}
		probed, err := probeVariant(ctx, db, table, c.Name)
		if err != nil {
			return nil, err
		}
		report.Checks = append(report.Checks, Check{
			Name:   "variant_probe_" + strings.ToLower(c.Name),
			Ok:     total == 0 || probed > 0,
			Detail: fmt.Sprintf("%d of %d rows carry %s.%s", probed, total, c.Name, probeField),
		})
	}
	return report, nil
}

func sampleRows(ctx context.Context, db engine.DB, table string) ([]string, error) {
	stmt, err := ddl.SampleRows(table, sampleLimit)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("sample rows: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []string
	for rows.Next() {
		vals := make([]any, len(cols))
		for i := range vals {
			vals[i] = new(sql.NullString)
		}
		if err := rows.Scan(vals...); err != nil {
			return nil, err
		}
		parts := make([]string, len(cols))
		for i, v := range vals {
			ns := v.(*sql.NullString)
			if ns.Valid {
				parts[i] = ns.String
			} else {
				parts[i] = "NULL"
			}
		}
		out = append(out, strings.Join(parts, " | "))
	}
	return out, rows.Err()
}

// probeVariant counts rows whose JSON column carries the probe attribute.
func probeVariant(ctx context.Context, db engine.DB, table, column string) (int64, error) {
	if err := ddl.ValidateIdentifier(column); err != nil {
		return 0, err
	}
	if err := ddl.ValidateIdentifier(table); err != nil {
		return 0, err
	}
	query := fmt.Sprintf(
		"SELECT COUNT(*) FROM %s WHERE json_extract_string(%s, %s) IS NOT NULL",
		ddl.QuoteIdentifier(table),
		ddl.QuoteIdentifier(column),
		ddl.QuoteLiteral("$."+probeField))
	return engine.QueryCount(ctx, db, query)
}
