package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"lakeflow/internal/domain"
	"lakeflow/internal/pipeline"
)

// Runner executes the load pipeline for one source key.
type Runner interface {
	Run(ctx context.Context, sourceKey string) (*pipeline.Result, error)
}

// Options controls polling.
type Options struct {
	Interval    time.Duration // poll interval, default 60s
	StagePrefix string        // staged copies are never picked up again
}

// Watcher polls the bucket for unprocessed CSV files and runs the
// pipeline on each, strictly one file at a time.
type Watcher struct {
	store  domain.ObjectStore
	runner Runner
	ledger *Ledger
	log    *slog.Logger
	opts   Options
	cron   *cron.Cron
}

// New creates a watcher. The ledger is loaded on Start or RunOnce.
func New(store domain.ObjectStore, runner Runner, log *slog.Logger, opts Options) *Watcher {
	if opts.Interval <= 0 {
		opts.Interval = 60 * time.Second
	}
	if opts.StagePrefix == "" {
		opts.StagePrefix = "stage/"
	}
	return &Watcher{
		store:  store,
		runner: runner,
		ledger: NewLedger(store),
		log:    log,
		opts:   opts,
	}
}

// eligible reports whether a bucket key is a candidate CSV file. The
// watcher's own bookkeeping prefixes and staged copies are excluded.
func (w *Watcher) eligible(key string) bool {
	if !strings.HasSuffix(key, ".csv") {
		return false
	}
	for _, prefix := range []string{"metadata/", RunLogPrefix, w.opts.StagePrefix} {
		if strings.HasPrefix(key, prefix) {
			return false
		}
	}
	return !w.ledger.Contains(key)
}

// RunOnce performs a single poll cycle: list the bucket, process every
// eligible file in lexical order, and return how many files were
// attempted. A failing file is recorded and skipped; it does not stop
// the rest of the batch.
func (w *Watcher) RunOnce(ctx context.Context) (int, error) {
	if err := w.ledger.Load(ctx); err != nil {
		return 0, err
	}

	keys, err := w.store.List(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("list bucket: %w", err)
	}

	attempted := 0
	for _, key := range keys {
		if !w.eligible(key) {
			continue
		}
		attempted++
		w.process(ctx, key)
	}
	return attempted, nil
}

// process runs the pipeline for one file and records the outcome. The
// ledger is marked only after a successful run, so a crash mid-run
// redelivers the file on the next cycle.
func (w *Watcher) process(ctx context.Context, key string) {
	log := w.log.With("file", key)
	log.Info("processing file")

	rec := &domain.RunRecord{
		RunID:     uuid.NewString(),
		File:      key,
		StartedAt: now(),
		Status:    domain.RunStatusPending,
	}

	res, err := w.runner.Run(ctx, key)
	rec.CompletedAt = now()
	if err != nil {
		rec.Status = domain.RunStatusError
		rec.Error = err.Error()
		log.Error("pipeline run failed", "error", err)
	} else {
		rec.Status = domain.RunStatusSuccess
		rec.RunID = res.RunID
		rec.RowsStaged = res.RowsStaged
		rec.Merge = &res.Merge
		rec.Views = res.Views
	}

	if logErr := writeRunLog(ctx, w.store, rec); logErr != nil {
		log.Warn("run log write failed", "error", logErr)
	}

	if err != nil {
		return
	}
	if markErr := w.ledger.Mark(ctx, key); markErr != nil {
		log.Warn("ledger update failed, file may be reprocessed", "error", markErr)
	}
	log.Info("file processed",
		"inserted", res.Merge.Inserted, "updated", res.Merge.Updated)
}

// Start polls on the configured interval until ctx is cancelled. A tick
// that fires while the previous cycle is still running is skipped, so
// cycles never overlap.
func (w *Watcher) Start(ctx context.Context) error {
	w.cron = cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	spec := fmt.Sprintf("@every %s", w.opts.Interval)
	_, err := w.cron.AddFunc(spec, func() {
		n, err := w.RunOnce(ctx)
		if err != nil {
			w.log.Warn("poll cycle failed", "error", err)
			return
		}
		if n > 0 {
			w.log.Info("poll cycle complete", "files", n)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule poll: %w", err)
	}

	w.log.Info("watcher started", "interval", w.opts.Interval)
	w.cron.Start()
	<-ctx.Done()
	<-w.cron.Stop().Done()
	w.log.Info("watcher stopped")
	return nil
}
