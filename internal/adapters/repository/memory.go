package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/salaryd/internal/domain/history"
	"github.com/okian/salaryd/pkg/metrics"
)

// MemoryStore keeps history in process memory. Records are returned as deep
// copies so callers never alias stored slices.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[int64]history.Record
	nextID  int64
	closed  bool
	cfg     settings
}

// NewMemoryStore returns an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	cfg := defaultSettings()
	for _, o := range opts {
		o(&cfg)
	}
	return &MemoryStore{records: make(map[int64]history.Record), cfg: cfg}
}

// Create implements history.Store.
func (s *MemoryStore) Create(ctx context.Context, r history.Record) (history.Record, error) {
	start := time.Now()
	defer func() { metrics.RecordStoreOperation(storeMemory, "create", time.Since(start).Seconds()) }()

	if err := ctx.Err(); err != nil {
		return history.Record{}, err
	}
	if err := checkShape(r); err != nil {
		return history.Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return history.Record{}, ErrClosed
	}
	s.nextID++
	r = r.Clone()
	r.ID = s.nextID
	r.CreatedAt = s.cfg.now()
	r.ActualSalary = nil
	s.records[r.ID] = r
	metrics.UpdateHistoryRecordsTotal(len(s.records))
	return r.Clone(), nil
}

// Get implements history.Store.
func (s *MemoryStore) Get(ctx context.Context, id int64) (history.Record, error) {
	if err := ctx.Err(); err != nil {
		return history.Record{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return history.Record{}, fmt.Errorf("%w: id %d", history.ErrNotFound, id)
	}
	return r.Clone(), nil
}

// Query implements history.Store.
func (s *MemoryStore) Query(ctx context.Context, q history.Query) (history.Page, error) {
	start := time.Now()
	defer func() { metrics.RecordStoreOperation(storeMemory, "query", time.Since(start).Seconds()) }()

	if err := ctx.Err(); err != nil {
		return history.Page{}, err
	}
	if err := history.ValidatePage(q.Page, q.Size); err != nil {
		return history.Page{}, err
	}

	s.mu.RLock()
	matched := make([]history.Record, 0, len(s.records))
	for _, r := range s.records {
		if matches(r, q) {
			matched = append(matched, r)
		}
	}
	s.mu.RUnlock()

	newestFirst(matched)
	lo, hi := window(len(matched), q.Page, q.Size)
	items := make([]history.Record, 0, hi-lo)
	for _, r := range matched[lo:hi] {
		items = append(items, r.Clone())
	}
	return history.Page{Items: items, Total: len(matched)}, nil
}

// UpdateActualSalary implements history.Store.
func (s *MemoryStore) UpdateActualSalary(ctx context.Context, id int64, actual []float64) (history.Record, error) {
	if err := ctx.Err(); err != nil {
		return history.Record{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return history.Record{}, ErrClosed
	}
	r, ok := s.records[id]
	if !ok {
		return history.Record{}, fmt.Errorf("%w: id %d", history.ErrNotFound, id)
	}
	if r.HasFeedback() {
		return history.Record{}, fmt.Errorf("%w: id %d", history.ErrFeedbackExists, id)
	}
	r.ActualSalary = make([]float64, len(actual))
	copy(r.ActualSalary, actual)
	s.records[id] = r
	return r.Clone(), nil
}

// Count returns the number of stored records.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Close rejects further writes.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func checkShape(r history.Record) error {
	n := r.DataCount
	if n <= 0 || len(r.InputYears) != n || len(r.ConvertedYears) != n || len(r.PredictedSalary) != n {
		return fmt.Errorf("%w: arrays do not match data_count %d", ErrInvalidRecord, n)
	}
	if (r.City != nil && len(r.City) != n) || (r.JobLevel != nil && len(r.JobLevel) != n) {
		return fmt.Errorf("%w: categorical arrays do not match data_count %d", ErrInvalidRecord, n)
	}
	return nil
}
