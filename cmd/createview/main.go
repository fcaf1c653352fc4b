// Package main is the entry point for the view management binary.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lakeflow/internal/cli"
	"lakeflow/internal/ddl"
	"lakeflow/internal/engine"
	"lakeflow/internal/pipeline"
)

const examplesText = `Examples:
  # Create a view of German events with flattened payload fields
  createview --name GERMANY_EVENTS --filter COUNTRY=DE

  # Create a view of signups without payload flattening
  createview --name SIGNUPS --filter EVENT_TYPE=signup --no-flatten

  # Combine filters (AND semantics)
  createview --name DE_SIGNUPS --filter COUNTRY=DE --filter EVENT_TYPE=signup

  # Compare against a value
  createview --name BIG_SPENDERS --filter "AMOUNT > 100"

  # Filter on an attribute inside a JSON payload column
  createview --name LONG_SESSIONS --filter "PAYLOAD:session_duration >= 60"

  # List existing views
  createview --list

  # Drop a view
  createview --drop GERMANY_EVENTS
`

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		name      string
		table     string
		filters   []string
		noFlatten bool
		list      bool
		drop      string
		examples  bool
	)

	cmd := &cobra.Command{
		Use:           "createview",
		Short:         "Create, list, or drop derived views",
		Long:          "Manages filtered views over the loaded parent table, with optional flattening of JSON payload columns.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if examples {
				fmt.Print(examplesText)
				return nil
			}

			ctx := cmd.Context()
			app, err := cli.Bootstrap(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			if list {
				views, err := pipeline.ListViews(ctx, app.DB)
				if err != nil {
					return err
				}
				if len(views) == 0 {
					fmt.Println("No views defined")
					return nil
				}
				for _, v := range views {
					fmt.Println(v)
				}
				return nil
			}

			if drop != "" {
				if err := pipeline.DropView(ctx, app.DB, drop); err != nil {
					return err
				}
				fmt.Printf("Dropped view %s\n", drop)
				return nil
			}

			if name == "" {
				return fmt.Errorf("--name is required (see --examples)")
			}
			if table == "" {
				table = app.Cfg.ParentTable
			}

			parsed, err := parseFilters(filters)
			if err != nil {
				return err
			}

			schema, err := engine.TableSchema(ctx, app.DB, table)
			if err != nil {
				return err
			}
			if schema.Len() == 0 {
				return fmt.Errorf("table %q does not exist or has no columns", table)
			}

			spec := pipeline.ViewSpec{Name: name, Filters: parsed, NoFlatten: noFlatten}
			if err := pipeline.PublishView(ctx, app.DB, table, schema, spec); err != nil {
				return err
			}
			fmt.Printf("Created view %s over %s\n", name, table)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Name of the view to create")
	cmd.Flags().StringVar(&table, "table", "", "Table the view selects from (default from config)")
	cmd.Flags().StringArrayVar(&filters, "filter", nil, "Filter as COLUMN OP VALUE, e.g. COUNTRY=DE or \"PAYLOAD:amount > 100\" (repeatable)")
	cmd.Flags().BoolVar(&noFlatten, "no-flatten", false, "Do not flatten JSON payload columns")
	cmd.Flags().BoolVar(&list, "list", false, "List existing views")
	cmd.Flags().StringVar(&drop, "drop", "", "Drop the named view")
	cmd.Flags().BoolVar(&examples, "examples", false, "Show usage examples")

	cmd.SetContext(context.Background())
	return cmd
}

func parseFilters(raw []string) ([]ddl.Filter, error) {
	var out []ddl.Filter
	for _, r := range raw {
		f, err := ddl.ParseFilter(r)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}
