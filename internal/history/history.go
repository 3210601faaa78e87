// Package history keeps a small journal of backend launches for the
// diagnostics surface.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// Record describes one backend launch.
type Record struct {
	LaunchID  string     `json:"launch_id"`
	Strategy  string     `json:"strategy"`
	PID       int        `json:"pid"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	ExitCode  *int       `json:"exit_code,omitempty"`
}

// Journal is a bounded, file-backed list of launch records.
type Journal struct {
	path    string
	limit   int
	records map[string]*Record
	mu      sync.RWMutex
}

// Open loads (or creates) a journal at path keeping at most limit records.
func Open(path string, limit int) (*Journal, error) {
	if limit <= 0 {
		limit = 20
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	j := &Journal{
		path:    path,
		limit:   limit,
		records: make(map[string]*Record),
	}

	if err := j.load(); err != nil {
		return nil, err
	}

	return j, nil
}

func (j *Journal) load() error {
	data, err := os.ReadFile(j.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read journal file: %w", err)
	}

	if len(data) == 0 {
		return nil
	}

	var records map[string]*Record
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("failed to parse journal file: %w", err)
	}

	j.records = records
	return nil
}

// save writes the journal atomically. Caller must hold at least a read lock.
func (j *Journal) save() error {
	data, err := json.MarshalIndent(j.records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal journal: %w", err)
	}

	tmpPath := j.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, j.path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// Started records a new launch.
func (j *Journal) Started(rec Record) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.records[rec.LaunchID] = &rec
	j.prune()

	return j.save()
}

// Ended marks a launch as exited. Unknown launch IDs are ignored: the
// record may have been pruned while the process ran.
func (j *Journal) Ended(launchID string, exitCode int) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	rec, exists := j.records[launchID]
	if !exists {
		return nil
	}

	now := time.Now()
	rec.EndedAt = &now
	rec.ExitCode = &exitCode

	return j.save()
}

// List returns all records, newest first.
func (j *Journal) List() []Record {
	j.mu.RLock()
	defer j.mu.RUnlock()

	out := make([]Record, 0, len(j.records))
	for _, rec := range j.records {
		out = append(out, *rec)
	}

	sort.Slice(out, func(i, k int) bool {
		return out[i].StartedAt.After(out[k].StartedAt)
	})

	return out
}

// Latest returns the most recent record, or false if the journal is empty.
func (j *Journal) Latest() (Record, bool) {
	recs := j.List()
	if len(recs) == 0 {
		return Record{}, false
	}
	return recs[0], true
}

// prune drops the oldest records beyond the limit. Caller must hold the
// write lock.
func (j *Journal) prune() {
	if len(j.records) <= j.limit {
		return
	}

	recs := make([]*Record, 0, len(j.records))
	for _, rec := range j.records {
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, k int) bool {
		return recs[i].StartedAt.Before(recs[k].StartedAt)
	})

	for _, rec := range recs[:len(recs)-j.limit] {
		delete(j.records, rec.LaunchID)
	}
}
