package state

import (
	"fmt"
	"time"
)

// Standard bucket names
const (
	BucketRuns = "runs" // Convergence run reports
)

// KeyLastRun is the well-known key holding the most recent run report.
// It aliases the newest per-ID entry so `status` can read it without
// knowing run IDs.
const KeyLastRun = "last"

// DefaultRunRetention is how long per-ID run reports are kept.
// The last-run entry never expires.
const DefaultRunRetention = 30 * 24 * time.Hour

// RunsBucket provides typed access to stored run reports.
type RunsBucket struct {
	store     Store
	retention time.Duration
}

// NewRunsBucket creates a runs bucket accessor, creating the bucket
// if needed.
func NewRunsBucket(store Store) (*RunsBucket, error) {
	if err := store.CreateBucket(BucketRuns); err != nil && err != ErrBucketExists {
		return nil, err
	}
	return &RunsBucket{store: store, retention: DefaultRunRetention}, nil
}

// SaveReport stores a report under its run ID and updates the last-run key.
func (b *RunsBucket) SaveReport(id string, report interface{}) error {
	if id == "" {
		return fmt.Errorf("run report has no ID")
	}
	if err := b.store.SetJSONWithTTL(BucketRuns, id, report, b.retention); err != nil {
		return err
	}
	return b.store.SetJSON(BucketRuns, KeyLastRun, report)
}

// LoadLast reads the most recent run report into v.
// Returns ErrNotFound when no run has been recorded yet.
func (b *RunsBucket) LoadLast(v interface{}) error {
	return b.store.GetJSON(BucketRuns, KeyLastRun, v)
}

// LoadReport reads the report stored under a specific run ID into v.
func (b *RunsBucket) LoadReport(id string, v interface{}) error {
	return b.store.GetJSON(BucketRuns, id, v)
}

// ListRunIDs returns the stored run IDs, excluding the last-run alias.
func (b *RunsBucket) ListRunIDs() ([]string, error) {
	keys, err := b.store.ListKeys(BucketRuns)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, k := range keys {
		if k != KeyLastRun {
			ids = append(ids, k)
		}
	}
	return ids, nil
}
