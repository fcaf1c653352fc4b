// Package main is the entry point for the one-shot loader binary.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lakeflow/internal/cli"
	"lakeflow/internal/pipeline"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		source       string
		table        string
		staging      string
		keyColumn    string
		skipTransfer bool
		validate     bool
		minRows      int64
	)

	cmd := &cobra.Command{
		Use:           "etl",
		Short:         "Load one CSV file from the object store into DuckDB",
		Long:          "Loads a CSV file through staging into the keyed parent table, publishes the derived views, and optionally validates the result.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			app, err := cli.Bootstrap(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			if table == "" {
				table = app.Cfg.ParentTable
			}
			if staging == "" {
				staging = app.Cfg.StagingTable
			}
			p := pipeline.New(app.DB, app.Store, app.Log, pipeline.Options{
				ParentTable:  table,
				StagingTable: staging,
				StagePrefix:  app.Cfg.StagePrefix,
				KeyColumn:    keyColumn,
				SkipTransfer: skipTransfer,
				Validate:     validate,
				MinRows:      minRows,
			})

			res, err := p.Run(ctx, source)
			if err != nil {
				return err
			}

			fmt.Printf("Loaded %s: %d rows staged, %d inserted, %d updated, %d total\n",
				res.SourceKey, res.RowsStaged,
				res.Merge.Inserted, res.Merge.Updated, res.Merge.TotalRows)
			for _, v := range res.Views {
				fmt.Printf("View published: %s\n", v)
			}
			if res.Validation != nil {
				fmt.Print(res.Validation.Render())
				if !res.Validation.Passed() {
					return fmt.Errorf("validation failed for %s", res.SourceKey)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "Object key of the CSV file to load (required)")
	cmd.Flags().StringVar(&table, "table", "", "Parent table name (default from config)")
	cmd.Flags().StringVar(&staging, "staging", "", "Staging table name (default from config)")
	cmd.Flags().StringVar(&keyColumn, "key", "ID", "Key column for the upsert")
	cmd.Flags().BoolVar(&skipTransfer, "skip-transfer", false, "Load directly without copying into the stage prefix")
	cmd.Flags().BoolVar(&validate, "validate", false, "Run the validation report after the load")
	cmd.Flags().Int64Var(&minRows, "min-rows", 1, "Minimum row count the validation expects")
	_ = cmd.MarkFlagRequired("source")

	cmd.SetContext(context.Background())
	return cmd
}
