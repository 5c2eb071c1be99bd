package installments

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"installment-tracker/internal/models"
)

// memStore is a record and watermark store with failure injection.
type memStore struct {
	mu        sync.Mutex
	records   map[string]models.Record
	watermark *time.Time

	failPut       func(r models.Record) error
	failGetAll    error
	failDelete    error
	failWatermark error
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]models.Record)}
}

func (m *memStore) GetAll(ctx context.Context) ([]models.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGetAll != nil {
		return nil, m.failGetAll
	}
	out := make([]models.Record, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, models.Clone(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordID() < out[j].RecordID() })
	return out, nil
}

func (m *memStore) Put(ctx context.Context, r models.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPut != nil {
		if err := m.failPut(r); err != nil {
			return err
		}
	}
	m.records[r.RecordID()] = models.Clone(r)
	return nil
}

func (m *memStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDelete != nil {
		return m.failDelete
	}
	delete(m.records, id)
	return nil
}

func (m *memStore) GetWatermark(ctx context.Context) (time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWatermark != nil {
		return time.Time{}, false, m.failWatermark
	}
	if m.watermark == nil {
		return time.Time{}, false, nil
	}
	return *m.watermark, true, nil
}

func (m *memStore) SetWatermark(ctx context.Context, t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWatermark != nil {
		return m.failWatermark
	}
	m.watermark = &t
	return nil
}

func (m *memStore) group(t *testing.T, id string) models.InstallmentGroup {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.records[id].(*models.InstallmentGroup)
	if !ok {
		t.Fatalf("group %s not found", id)
	}
	return *g
}

func (m *memStore) transaction(id string) (models.Transaction, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.records[id].(*models.Transaction)
	if !ok {
		return models.Transaction{}, false
	}
	return *tx, true
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type recordingNotifier struct {
	mu    sync.Mutex
	notes []Notification
}

func (r *recordingNotifier) Notify(ctx context.Context, n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
}

func (r *recordingNotifier) kinds() []NotificationKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kinds []NotificationKind
	for _, n := range r.notes {
		kinds = append(kinds, n.Kind)
	}
	return kinds
}

type fixture struct {
	scheduler *Scheduler
	store     *memStore
	clock     *testClock
	notifier  *recordingNotifier
}

func newFixture(now time.Time) *fixture {
	f := &fixture{
		store:    newMemStore(),
		clock:    &testClock{now: now},
		notifier: &recordingNotifier{},
	}
	seq := 0
	f.scheduler = New(f.store, f.store,
		WithClock(f.clock),
		WithNotifier(f.notifier),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("installment_%d", seq)
		}),
	)
	return f
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 9, 0, 0, 0, time.UTC)
}

func sofa() Template {
	return Template{
		Type:         models.Expense,
		Amount:       "1200",
		Category:     "Moradia",
		Description:  "Sofá",
		Date:         "2024-01-10",
		Installments: "3",
	}
}

var errBoom = errors.New("boom")
