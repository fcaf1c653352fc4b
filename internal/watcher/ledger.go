// Package watcher polls the object store for new CSV files and feeds
// them to the load pipeline. Processed files are tracked in a ledger
// object so a file is loaded once even across watcher restarts; because
// the ledger is written only after a successful run, delivery is
// at-least-once and the keyed merge absorbs the occasional replay.
package watcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"lakeflow/internal/domain"
)

// LedgerKey is where the processed-file ledger lives in the bucket.
const LedgerKey = "metadata/processed_files.json"

// Ledger tracks which object keys have been successfully processed.
// The backing object is a JSON array of keys.
type Ledger struct {
	store domain.ObjectStore

	mu   sync.Mutex
	keys map[string]bool
}

// NewLedger creates a ledger backed by the store. Call Load before use.
func NewLedger(store domain.ObjectStore) *Ledger {
	return &Ledger{store: store, keys: make(map[string]bool)}
}

// Load reads the ledger object. A missing ledger means nothing has been
// processed yet.
func (l *Ledger) Load(ctx context.Context) error {
	data, err := l.store.Get(ctx, LedgerKey)
	if err != nil {
		var notFound *domain.NotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("load ledger: %w", err)
	}

	var keys []string
	if err := json.Unmarshal(data, &keys); err != nil {
		return fmt.Errorf("parse ledger: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, k := range keys {
		l.keys[k] = true
	}
	return nil
}

// Contains reports whether key has already been processed.
func (l *Ledger) Contains(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.keys[key]
}

// Mark records key as processed and persists the ledger. The in-memory
// set is updated even when the write fails, so the current process will
// not reprocess the file; a restart may, and the merge tolerates that.
func (l *Ledger) Mark(ctx context.Context, key string) error {
	l.mu.Lock()
	l.keys[key] = true
	keys := make([]string, 0, len(l.keys))
	for k := range l.keys {
		keys = append(keys, k)
	}
	l.mu.Unlock()
	sort.Strings(keys)

	data, err := json.MarshalIndent(keys, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	if err := l.store.Put(ctx, LedgerKey, data); err != nil {
		return fmt.Errorf("persist ledger: %w", err)
	}
	return nil
}
