package watcher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"lakeflow/internal/domain"
)

// RunLogPrefix is where per-run records are written in the bucket.
const RunLogPrefix = "logs/"

// writeRunLog persists the record as logs/run_<timestamp>.json. The
// timestamp carries the run ID suffix so two runs in the same second do
// not clobber each other.
func writeRunLog(ctx context.Context, store domain.ObjectStore, rec *domain.RunRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode run record: %w", err)
	}
	key := fmt.Sprintf("%srun_%s_%s.json",
		RunLogPrefix, rec.StartedAt.UTC().Format("20060102T150405"), rec.RunID)
	if err := store.Put(ctx, key, data); err != nil {
		return fmt.Errorf("write run log: %w", err)
	}
	return nil
}

func now() time.Time { return time.Now().UTC() }
