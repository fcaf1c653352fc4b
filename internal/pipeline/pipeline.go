// Package pipeline implements the CSV load flow: fetch the source file,
// infer its schema, stage it, and merge it into the typed parent table
// keyed for idempotent re-runs. Derived views and a validation report
// round out a run.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"lakeflow/internal/ddl"
	"lakeflow/internal/domain"
	"lakeflow/internal/engine"
	"lakeflow/internal/inference"
)

// Options controls a pipeline run. Zero values fall back to the
// defaults below.
type Options struct {
	ParentTable  string
	StagingTable string
	StagePrefix  string // object-store prefix the source is copied into
	KeyColumn    string
	SkipTransfer bool // load directly without the stage copy
	Validate     bool // run the validation report after the merge
	MinRows      int64
	SampleLimit  int // rows sampled for inference
}

func (o *Options) applyDefaults() {
	if o.ParentTable == "" {
		o.ParentTable = "PARENT_EVENTS"
	}
	if o.StagingTable == "" {
		o.StagingTable = "STAGING_EVENTS"
	}
	if o.StagePrefix == "" {
		o.StagePrefix = "stage/"
	}
	if o.KeyColumn == "" {
		o.KeyColumn = "ID"
	}
	if o.MinRows <= 0 {
		o.MinRows = 1
	}
	if o.SampleLimit <= 0 {
		o.SampleLimit = inference.DefaultSampleRows
	}
}

// Result is the outcome of one pipeline run.
type Result struct {
	RunID      string
	SourceKey  string
	StagedKey  string
	Schema     *domain.ColumnSchema
	RowsStaged int64
	Merge      domain.MergeStats
	Views      []string
	Validation *Report
}

// Pipeline loads CSV files from the object store into DuckDB.
type Pipeline struct {
	db    engine.DB
	store domain.ObjectStore
	log   *slog.Logger
	opts  Options
}

// New creates a pipeline. The logger must not be nil.
func New(db engine.DB, store domain.ObjectStore, log *slog.Logger, opts Options) *Pipeline {
	opts.applyDefaults()
	return &Pipeline{db: db, store: store, log: log, opts: opts}
}

// Run executes the full load flow for one source object key.
func (p *Pipeline) Run(ctx context.Context, sourceKey string) (*Result, error) {
	runID := uuid.NewString()
	log := p.log.With("run_id", runID, "source", sourceKey)
	start := time.Now()
	log.Info("pipeline run started")

	res := &Result{RunID: runID, SourceKey: sourceKey}

	tmpDir, err := os.MkdirTemp("", "lakeflow-")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	localPath := filepath.Join(tmpDir, path.Base(sourceKey))
	if err := p.store.Download(ctx, sourceKey, localPath); err != nil {
		return nil, fmt.Errorf("download source: %w", err)
	}

	schema, err := p.inferSchema(localPath)
	if err != nil {
		return nil, err
	}
	res.Schema = schema
	if _, ok := schema.TypeOf(p.opts.KeyColumn); !ok {
		return nil, domain.ErrValidation("key column %q not present in %q", p.opts.KeyColumn, sourceKey)
	}
	log.Info("schema inferred", "columns", schema.Len())

	if !p.opts.SkipTransfer {
		stagedKey := p.opts.StagePrefix + path.Base(sourceKey)
		if err := p.store.Upload(ctx, stagedKey, localPath); err != nil {
			return nil, fmt.Errorf("transfer to stage: %w", err)
		}
		res.StagedKey = stagedKey
		log.Info("transferred to stage", "key", stagedKey)
	}

	rowsStaged, err := p.stage(ctx, schema, localPath)
	if err != nil {
		return nil, err
	}
	res.RowsStaged = rowsStaged
	log.Info("staging load complete", "rows", rowsStaged)

	defer p.dropStaging(ctx, log)

	if err := p.provision(ctx, schema); err != nil {
		return nil, err
	}

	stats, err := p.merge(ctx, schema)
	if err != nil {
		return nil, err
	}
	res.Merge = *stats
	log.Info("merge complete",
		"inserted", stats.Inserted, "updated", stats.Updated, "total_rows", stats.TotalRows)

	views, err := p.publishDefaultViews(ctx, schema, log)
	if err != nil {
		return nil, err
	}
	res.Views = views

	if p.opts.Validate {
		report, err := p.validate(ctx, schema)
		if err != nil {
			return nil, err
		}
		res.Validation = report
		log.Info("validation complete", "passed", report.Passed())
	}

	log.Info("pipeline run finished", "duration", time.Since(start))
	return res, nil
}

func (p *Pipeline) inferSchema(localPath string) (*domain.ColumnSchema, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	defer f.Close()
	return inference.InferFromCSV(f, p.opts.SampleLimit)
}

// stage recreates the staging table and loads the CSV into it as raw
// text. Returns the number of rows staged.
func (p *Pipeline) stage(ctx context.Context, schema *domain.ColumnSchema, localPath string) (int64, error) {
	create, err := ddl.CreateStagingTable(p.opts.StagingTable, schema)
	if err != nil {
		return 0, err
	}
	if _, err := p.db.ExecContext(ctx, create); err != nil {
		return 0, fmt.Errorf("create staging table: %w", err)
	}

	load, err := ddl.LoadCSV(p.opts.StagingTable, localPath)
	if err != nil {
		return 0, err
	}
	if _, err := p.db.ExecContext(ctx, load); err != nil {
		return 0, fmt.Errorf("load csv: %w", err)
	}

	count, err := ddl.CountRows(p.opts.StagingTable)
	if err != nil {
		return 0, err
	}
	return engine.QueryCount(ctx, p.db, count)
}

// dropStaging removes the staging table. Failures are logged, not fatal;
// the next run recreates the table anyway.
func (p *Pipeline) dropStaging(ctx context.Context, log *slog.Logger) {
	drop, err := ddl.DropTable(p.opts.StagingTable, true)
	if err == nil {
		_, err = p.db.ExecContext(ctx, drop)
	}
	if err != nil {
		log.Warn("staging cleanup failed", "error", err)
	}
}
