package database

import (
	"context"
	"sort"
	"sync"
	"time"

	"installment-tracker/internal/models"
)

// Memory is an in-memory record store. It is safe for concurrent use;
// data is lost when the process exits.
type Memory struct {
	mu        sync.RWMutex
	records   map[string]models.Record
	watermark *time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{records: make(map[string]models.Record)}
}

// Close is a no-op.
func (m *Memory) Close(ctx context.Context) error {
	return nil
}

// Put upserts a copy of r.
func (m *Memory) Put(ctx context.Context, r models.Record) error {
	if err := checkPut(r); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[r.RecordID()] = models.Clone(r)
	return nil
}

// GetAll returns copies of all records ordered by id.
func (m *Memory) GetAll(ctx context.Context) ([]models.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make([]models.Record, 0, len(m.records))
	for _, r := range m.records {
		records = append(records, models.Clone(r))
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].RecordID() < records[j].RecordID()
	})
	return records, nil
}

// Delete removes a record by id. Deleting a missing id is not an error.
func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
	return nil
}

// GetWatermark returns the last scheduled processing time, if one was saved.
func (m *Memory) GetWatermark(ctx context.Context) (time.Time, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.watermark == nil {
		return time.Time{}, false, nil
	}
	return *m.watermark, true, nil
}

// SetWatermark stores the last scheduled processing time.
func (m *Memory) SetWatermark(ctx context.Context, t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.watermark = &t
	return nil
}
