package services

import (
	"context"

	"networth/internal/cache"
	"networth/internal/core"
	"networth/internal/sheets"
)

var _ sheets.CalculationStore = (*CachedStore)(nil)

// CachedStore fronts Get with an LRU cache. Records are immutable, so
// entries only leave the cache by TTL or eviction.
type CachedStore struct {
	next  sheets.CalculationStore
	cache cache.Cache[core.NetWorthCalculation]
}

func NewCachedStore(next sheets.CalculationStore, c cache.Cache[core.NetWorthCalculation]) *CachedStore {
	return &CachedStore{next: next, cache: c}
}

// Save stores in and primes the cache with the new record.
func (s *CachedStore) Save(ctx context.Context, in core.NewCalculation) (core.NetWorthCalculation, error) {
	rec, err := s.next.Save(ctx, in)
	if err != nil {
		return rec, err
	}
	s.cache.Set(rec.ID, rec)
	return rec, nil
}

func (s *CachedStore) Get(ctx context.Context, id string) (core.NetWorthCalculation, error) {
	if rec, ok := s.cache.Get(id); ok {
		return rec, nil
	}
	rec, err := s.next.Get(ctx, id)
	if err != nil {
		return rec, err
	}
	s.cache.Set(id, rec)
	return rec, nil
}

// ListByUser is not cached; a user's list grows with every save.
func (s *CachedStore) ListByUser(ctx context.Context, userID string) ([]core.NetWorthCalculation, error) {
	return s.next.ListByUser(ctx, userID)
}
