// Package memory keeps net worth calculations in process memory. Nothing
// survives a restart.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"networth/internal/core"
	ports "networth/internal/sheets"
)

var (
	_ ports.CalculationStore = (*Store)(nil)
	_ ports.RowAppender      = (*Store)(nil)
)

type Store struct {
	mu     sync.RWMutex
	byID   map[string]core.NetWorthCalculation
	order  []string
	rows   []ports.CalculationRow
	now    func() time.Time
	nextID func() string
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

// WithIDs overrides the id generator.
func WithIDs(next func() string) Option { return func(s *Store) { s.nextID = next } }

func New(opts ...Option) *Store {
	s := &Store{
		byID:   make(map[string]core.NetWorthCalculation),
		now:    time.Now,
		nextID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save validates in and stores it as a new record with createdAt equal to
// updatedAt.
func (s *Store) Save(_ context.Context, in core.NewCalculation) (core.NetWorthCalculation, error) {
	if err := in.Validate(); err != nil {
		return core.NetWorthCalculation{}, err
	}
	rec := in.Stamp(s.nextID(), s.now().UTC())

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.byID[rec.ID]; dup {
		return core.NetWorthCalculation{}, fmt.Errorf("duplicate calculation id %q", rec.ID)
	}
	s.byID[rec.ID] = rec
	s.order = append(s.order, rec.ID)
	return rec, nil
}

func (s *Store) Get(_ context.Context, id string) (core.NetWorthCalculation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byID[id]
	if !ok {
		return core.NetWorthCalculation{}, core.ErrNotFound
	}
	return rec, nil
}

// ListByUser never returns nil so handlers encode an empty array.
func (s *Store) ListByUser(_ context.Context, userID string) ([]core.NetWorthCalculation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.NetWorthCalculation, 0)
	for _, id := range s.order {
		if rec := s.byID[id]; rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Len reports the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// AppendCalculation records the row and returns a synthetic row reference.
// The sync worker appends here when no spreadsheet is configured.
func (s *Store) AppendCalculation(_ context.Context, row ports.CalculationRow) (string, error) {
	if row.ID == "" {
		return "", fmt.Errorf("row without calculation id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, row)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Rows returns a copy of the appended rows.
func (s *Store) Rows() []ports.CalculationRow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ports.CalculationRow(nil), s.rows...)
}
