package domain

import "time"

// Run statuses recorded in the run log.
const (
	RunStatusPending = "pending"
	RunStatusSuccess = "success"
	RunStatusError   = "error"
)

// MergeStats reports the outcome of one upsert reconciliation.
type MergeStats struct {
	Inserted  int64 `json:"inserted"`
	Updated   int64 `json:"updated"`
	TotalRows int64 `json:"total_rows"`
}

// RunRecord is the append-only audit record for one watcher-driven
// pipeline run. It is written to the object store and never read back.
type RunRecord struct {
	RunID       string      `json:"run_id"`
	File        string      `json:"file"`
	StartedAt   time.Time   `json:"started_at"`
	CompletedAt time.Time   `json:"completed_at,omitzero"`
	Status      string      `json:"status"`
	Error       string      `json:"error,omitempty"`
	RowsStaged  int64       `json:"rows_staged,omitempty"`
	Merge       *MergeStats `json:"merge,omitempty"`
	Views       []string    `json:"views,omitempty"`
}
