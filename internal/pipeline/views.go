package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"lakeflow/internal/ddl"
	"lakeflow/internal/domain"
	"lakeflow/internal/engine"
)

// ViewSpec describes one derived view over the parent table.
type ViewSpec struct {
	Name      string
	Filters   []ddl.Filter
	NoFlatten bool
}

// DefaultViews are published after every successful merge. A view whose
// filter column is absent from the loaded schema is skipped.
func DefaultViews() []ViewSpec {
	return []ViewSpec{
		{Name: "GERMANY_EVENTS", Filters: []ddl.Filter{{Column: "COUNTRY", Value: "DE"}}},
		{Name: "RECENT_SIGNUPS", Filters: []ddl.Filter{{Column: "EVENT_TYPE", Value: "signup"}}},
	}
}

func (p *Pipeline) publishDefaultViews(ctx context.Context, schema *domain.ColumnSchema, log *slog.Logger) ([]string, error) {
	var published []string
	for _, spec := range DefaultViews() {
		if col, ok := missingFilterColumn(schema, spec.Filters); !ok {
			log.Warn("skipping view", "view", spec.Name, "missing_column", col)
			continue
		}
		if err := PublishView(ctx, p.db, p.opts.ParentTable, schema, spec); err != nil {
			return nil, err
		}
		published = append(published, spec.Name)
		log.Info("view published", "view", spec.Name)
	}
	return published, nil
}

func missingFilterColumn(schema *domain.ColumnSchema, filters []ddl.Filter) (string, bool) {
	for _, f := range filters {
		if _, ok := schema.TypeOf(f.Column); !ok {
			return f.Column, false
		}
	}
	return "", true
}

// PublishView creates or replaces one view over the table. Unless
// NoFlatten is set, JSON columns are flattened with the default field
// list.
func PublishView(ctx context.Context, db engine.DB, table string, schema *domain.ColumnSchema, spec ViewSpec) error {
	fields := ddl.DefaultFlattenFields()
	if spec.NoFlatten {
		fields = nil
	}
	stmt, err := ddl.CreateView(spec.Name, table, schema, fields, spec.Filters)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("create view %q: %w", spec.Name, err)
	}
	return nil
}

// DropView removes a view if it exists.
func DropView(ctx context.Context, db engine.DB, name string) error {
	stmt, err := ddl.DropView(name)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("drop view %q: %w", name, err)
	}
	return nil
}

// ListViews returns the names of the user-defined views in the database.
func ListViews(ctx context.Context, db engine.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, ddl.ListViews())
	if err != nil {
		return nil, fmt.Errorf("list views: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
