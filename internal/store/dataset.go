package store

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/snowcastio/snowcast/internal/forecast"
)

var (
	// ErrNotReady is returned before the first update cycle has completed,
	// so callers can tell cold start apart from a resort-less dataset.
	ErrNotReady = errors.New("forecast dataset not ready")

	// ErrNotFound is returned when no record exists for a resort id.
	ErrNotFound = errors.New("no forecast for resort")
)

// Dataset is the published in-memory forecast dataset. It has a single
// writer (the update pipeline) and any number of readers. Merges build a new
// map and swap it under the write lock, so readers always observe a complete
// pre- or post-merge view.
type Dataset struct {
	mu          sync.RWMutex
	records     map[string]forecast.ResortRecord
	lastUpdated time.Time
	ready       bool
}

func NewDataset() *Dataset {
	return &Dataset{
		records: make(map[string]forecast.ResortRecord),
	}
}

// Merge overlays a cycle's records onto the dataset. An empty delta leaves
// the records untouched: a failed or empty run never destroys good data.
// Either way the completion time is recorded and the dataset counts as ready,
// because an empty cycle is still a completed cycle.
func (d *Dataset) Merge(delta map[string]forecast.ResortRecord, completedAt time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(delta) > 0 {
		merged := make(map[string]forecast.ResortRecord, len(d.records)+len(delta))
		for id, rec := range d.records {
			merged[id] = rec
		}
		for id, rec := range delta {
			merged[id] = rec
		}
		d.records = merged
	}

	d.lastUpdated = completedAt
	d.ready = true
}

// Ready reports whether at least one update cycle has completed.
func (d *Dataset) Ready() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.ready
}

// Get returns the record for one resort id.
func (d *Dataset) Get(id string) (forecast.ResortRecord, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.ready {
		return forecast.ResortRecord{}, ErrNotReady
	}
	rec, ok := d.records[id]
	if !ok {
		return forecast.ResortRecord{}, ErrNotFound
	}
	return rec, nil
}

// List returns all records sorted by id, with the last update time.
func (d *Dataset) List() ([]forecast.ResortRecord, time.Time, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.ready {
		return nil, time.Time{}, ErrNotReady
	}

	out := make([]forecast.ResortRecord, 0, len(d.records))
	for _, rec := range d.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, d.lastUpdated, nil
}

// GetMany returns the records for the requested ids, keeping request order
// and silently skipping unknown ids.
func (d *Dataset) GetMany(ids []string) ([]forecast.ResortRecord, time.Time, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.ready {
		return nil, time.Time{}, ErrNotReady
	}

	out := make([]forecast.ResortRecord, 0, len(ids))
	for _, id := range ids {
		if rec, ok := d.records[id]; ok {
			out = append(out, rec)
		}
	}
	return out, d.lastUpdated, nil
}

// Size returns the number of published records.
func (d *Dataset) Size() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.records)
}
