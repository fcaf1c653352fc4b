// Package main is the entry point for the bucket watcher binary.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"lakeflow/internal/cli"
	"lakeflow/internal/pipeline"
	"lakeflow/internal/watcher"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		interval time.Duration
		once     bool
		validate bool
	)

	cmd := &cobra.Command{
		Use:           "watcher",
		Short:         "Watch the bucket and load new CSV files",
		Long:          "Polls the object store for CSV files that have not been processed yet and runs the load pipeline on each, one at a time.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(),
				os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := cli.Bootstrap(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			if interval <= 0 {
				interval = app.Cfg.PollInterval
			}

			p := pipeline.New(app.DB, app.Store, app.Log, pipeline.Options{
				ParentTable:  app.Cfg.ParentTable,
				StagingTable: app.Cfg.StagingTable,
				StagePrefix:  app.Cfg.StagePrefix,
				Validate:     validate,
			})
			w := watcher.New(app.Store, p, app.Log, watcher.Options{
				Interval:    interval,
				StagePrefix: app.Cfg.StagePrefix,
			})

			if once {
				n, err := w.RunOnce(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("Processed %d file(s)\n", n)
				return nil
			}
			return w.Start(ctx)
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "Poll interval (default from config)")
	cmd.Flags().BoolVar(&once, "once", false, "Run a single poll cycle and exit")
	cmd.Flags().BoolVar(&validate, "validate", false, "Validate after every load")

	cmd.SetContext(context.Background())
	return cmd
}
