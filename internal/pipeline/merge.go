package pipeline

import (
	"context"
	"fmt"
	"strings"

	"lakeflow/internal/ddl"
	"lakeflow/internal/domain"
	"lakeflow/internal/engine"
)

// provision creates the parent table if needed. When the table already
// exists, the incoming columns must match it exactly; a drifted file is
// rejected rather than silently reconciled.
func (p *Pipeline) provision(ctx context.Context, schema *domain.ColumnSchema) error {
	exists, err := engine.TableExists(ctx, p.db, p.opts.ParentTable)
	if err != nil {
		return err
	}
	if !exists {
		create, err := ddl.CreateTable(p.opts.ParentTable, schema, true)
		if err != nil {
			return err
		}
		if _, err := p.db.ExecContext(ctx, create); err != nil {
			return fmt.Errorf("create parent table: %w", err)
		}
		return nil
	}

	existing, err := engine.TableColumns(ctx, p.db, p.opts.ParentTable)
	if err != nil {
		return err
	}
	incoming := schema.Names()
	if !equalColumns(existing, incoming) {
		return domain.ErrSchemaMismatch(
			"table %q has columns [%s] but incoming file has [%s]",
			p.opts.ParentTable,
			strings.Join(existing, ", "),
			strings.Join(incoming, ", "))
	}
	return nil
}

func equalColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !strings.EqualFold(a[i], b[i]) {
			return false
		}
	}
	return true
}

// merge upserts the staged rows into the parent table and returns the
// insert/update split. The split is derived from distinct-key overlap
// counts taken before the merge, so reloading the same file reports all
// updates and no inserts.
func (p *Pipeline) merge(ctx context.Context, schema *domain.ColumnSchema) (*domain.MergeStats, error) {
	keyType, ok := schema.TypeOf(p.opts.KeyColumn)
	if !ok {
		return nil, domain.ErrValidation("key column %q not in schema", p.opts.KeyColumn)
	}

	stagedQ, err := ddl.CountStagedKeys(p.opts.StagingTable, p.opts.KeyColumn, keyType)
	if err != nil {
		return nil, err
	}
	stagedKeys, err := engine.QueryCount(ctx, p.db, stagedQ)
	if err != nil {
		return nil, err
	}

	matchedQ, err := ddl.CountMatchedKeys(p.opts.ParentTable, p.opts.StagingTable, p.opts.KeyColumn, keyType)
	if err != nil {
		return nil, err
	}
	matched, err := engine.QueryCount(ctx, p.db, matchedQ)
	if err != nil {
		return nil, err
	}

	mergeStmt, err := ddl.Merge(p.opts.ParentTable, p.opts.StagingTable, p.opts.KeyColumn, schema)
	if err != nil {
		return nil, err
	}
	if _, err := p.db.ExecContext(ctx, mergeStmt); err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}

	totalQ, err := ddl.CountRows(p.opts.ParentTable)
	if err != nil {
		return nil, err
	}
	total, err := engine.QueryCount(ctx, p.db, totalQ)
	if err != nil {
		return nil, err
	}

	return &domain.MergeStats{
		Inserted:  stagedKeys - matched,
		Updated:   matched,
		TotalRows: total,
	}, nil
}
