// Package session holds the in-progress calculator state for one user,
// recomputes the derived totals on every change and persists snapshots to
// a local durable store with a debounced auto-save.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"networth/internal/core"
	"networth/internal/export"
	"networth/internal/log"
)

const (
	// StorageKey is the durable store key the session is saved under.
	StorageKey = "netWorthData"
	// DefaultDelay is the auto-save debounce window.
	DefaultDelay = time.Second

	ioTimeout = 5 * time.Second
)

// State is a consistent copy of the session: Calculations always match
// the three records.
type State struct {
	Assets       core.Assets
	Liabilities  core.Liabilities
	Monthly      core.MonthlyFinancials
	Currency     core.Currency
	Calculations core.Calculations
}

// Snapshot returns the exporter view of the state.
func (s State) Snapshot() export.Snapshot {
	return export.Snapshot{
		Assets:       s.Assets,
		Liabilities:  s.Liabilities,
		Monthly:      s.Monthly,
		Calculations: s.Calculations,
		Currency:     s.Currency,
	}
}

// NewCalculation is the payload that saves this state to the server.
func (s State) NewCalculation(userID string) core.NewCalculation {
	return core.NewCalculation{
		UserID:           userID,
		Currency:         s.Currency,
		Assets:           s.Assets,
		Liabilities:      s.Liabilities,
		TotalAssets:      s.Calculations.TotalAssets,
		TotalLiabilities: s.Calculations.TotalLiabilities,
		NetWorth:         s.Calculations.NetWorth,
	}
}

func defaultState() State {
	return State{
		Assets:      core.DefaultAssets(),
		Liabilities: core.DefaultLiabilities(),
		Monthly:     core.DefaultMonthly(),
		Currency:    core.DefaultCurrency,
	}
}

// persisted is the on-disk document. Totals are written for readers of the
// file but ignored on load.
type persisted struct {
	Assets            core.Assets            `json:"assets"`
	Liabilities       core.Liabilities       `json:"liabilities"`
	MonthlyFinancials core.MonthlyFinancials `json:"monthlyFinancials"`
	Currency          string                 `json:"currency"`
	core.Calculations
	Timestamp time.Time `json:"timestamp"`
}

// Store owns the session state. All methods are safe for concurrent use;
// the auto-save task runs on the scheduler's goroutine.
type Store struct {
	mu     sync.Mutex
	state  State
	gen    uint64
	cancel CancelFunc
	closed bool

	// saveMu serialises writes so the last write always carries the
	// latest state.
	saveMu sync.Mutex

	durable DurableStore
	sched   Scheduler
	delay   time.Duration
	logger  *log.Logger
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

func WithScheduler(s Scheduler) Option { return func(st *Store) { st.sched = s } }

// WithDelay sets the debounce window; non-positive values keep the default.
func WithDelay(d time.Duration) Option {
	return func(st *Store) {
		if d > 0 {
			st.delay = d
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(st *Store) { st.logger = l.WithComponent(log.ComponentSession) }
}

func WithClock(now func() time.Time) Option { return func(st *Store) { st.now = now } }

// New returns a store holding the default state. Call Load to restore a
// previous session.
func New(durable DurableStore, opts ...Option) *Store {
	s := &Store{
		state:   defaultState(),
		durable: durable,
		sched:   TimerScheduler{},
		delay:   DefaultDelay,
		now:     time.Now,
		logger: log.New(log.Config{
			Handler:   slog.Default().Handler(),
			Component: log.ComponentSession,
		}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// UpdateAssets merges p into the assets. Invalid values are stored as 0
// and unknown keys are ignored.
func (s *Store) UpdateAssets(p core.Patch) State {
	return s.mutate(func(st *State) { st.Assets = st.Assets.Apply(p.Sanitized()) })
}

// UpdateLiabilities merges p into the liabilities.
func (s *Store) UpdateLiabilities(p core.Patch) State {
	return s.mutate(func(st *State) { st.Liabilities = st.Liabilities.Apply(p.Sanitized()) })
}

// UpdateMonthlyFinancials merges p into the monthly income and expenses.
func (s *Store) UpdateMonthlyFinancials(p core.Patch) State {
	return s.mutate(func(st *State) { st.Monthly = st.Monthly.Apply(p.Sanitized()) })
}

// UpdateCurrency switches the display currency.
func (s *Store) UpdateCurrency(c core.Currency) (State, error) {
	if !c.IsValid() {
		return s.State(), fmt.Errorf("%w: %q", core.ErrUnknownCurrency, string(c))
	}
	return s.mutate(func(st *State) { st.Currency = c }), nil
}

// Reset restores the defaults. The durable entry is left alone until the
// scheduled auto-save overwrites it.
func (s *Store) Reset() State {
	return s.mutate(func(st *State) { *st = defaultState() })
}

// Save persists the current state now, superseding any pending auto-save.
func (s *Store) Save() bool {
	s.mu.Lock()
	s.stopPendingLocked()
	s.mu.Unlock()
	return s.persist()
}

// Flush runs a pending auto-save immediately. It reports true when nothing
// was pending.
func (s *Store) Flush() bool {
	s.mu.Lock()
	pending := s.cancel != nil
	s.stopPendingLocked()
	s.mu.Unlock()
	if !pending {
		return true
	}
	return s.persist()
}

// Close flushes and stops scheduling further auto-saves.
func (s *Store) Close() bool {
	ok := s.Flush()
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return ok
}

// Clear deletes the saved session and restores the defaults without
// scheduling a save. The durable store must implement Inventory.
func (s *Store) Clear(ctx context.Context) error {
	inv, ok := s.durable.(Inventory)
	if !ok {
		return fmt.Errorf("session store %T cannot delete entries", s.durable)
	}
	s.replace(defaultState())
	if err := inv.Delete(ctx, StorageKey); err != nil && !errors.Is(err, ErrNotFound) {
		s.logger.Warn("Failed to clear saved session",
			log.FieldStoreKey, StorageKey,
			log.FieldError, err)
		return err
	}
	s.logger.Debug("Saved session cleared", log.FieldStoreKey, StorageKey)
	return nil
}

// Pending reports whether an auto-save is scheduled.
func (s *Store) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// Load restores the saved session, recomputing every total from the
// restored records. On a missing, unreadable or invalid entry the state
// falls back to the defaults and Load reports false.
func (s *Store) Load() bool {
	ctx, cancel := context.WithTimeout(context.Background(), ioTimeout)
	defer cancel()

	st, err := s.read(ctx)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.logger.Debug("No saved session", log.FieldStoreKey, StorageKey)
		} else {
			s.logger.Warn("Discarding saved session",
				log.FieldStoreKey, StorageKey,
				log.FieldError, err)
		}
		s.replace(defaultState())
		return false
	}

	s.replace(st)
	s.logger.Debug("Session loaded",
		log.FieldStoreKey, StorageKey,
		log.FieldCurrency, string(st.Currency),
		log.FieldNetWorth, st.Calculations.NetWorth)
	return true
}

func (s *Store) read(ctx context.Context) (State, error) {
	b, err := s.durable.Get(ctx, StorageKey)
	if err != nil {
		return State{}, err
	}
	var p persisted
	if err := json.Unmarshal(b, &p); err != nil {
		return State{}, fmt.Errorf("malformed session: %w", err)
	}
	cur := core.DefaultCurrency
	if p.Currency != "" {
		if cur, err = core.ParseCurrency(p.Currency); err != nil {
			return State{}, fmt.Errorf("session currency %q: %w", p.Currency, err)
		}
	}
	st := State{
		Assets:      p.Assets.Sanitized(),
		Liabilities: p.Liabilities.Sanitized(),
		Monthly:     p.MonthlyFinancials.Sanitized(),
		Currency:    cur,
	}
	st.Calculations = core.Calculate(st.Assets, st.Liabilities, st.Monthly)
	return st, nil
}

func (s *Store) mutate(fn func(*State)) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.state
	fn(&next)
	next.Calculations = core.Calculate(next.Assets, next.Liabilities, next.Monthly)
	s.state = next
	s.scheduleLocked()
	return next
}

func (s *Store) replace(st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopPendingLocked()
	s.state = st
}

func (s *Store) scheduleLocked() {
	if s.closed {
		return
	}
	s.stopPendingLocked()
	gen := s.gen
	s.cancel = s.sched.Schedule(s.delay, func() { s.autoSave(gen) })
}

// stopPendingLocked cancels the pending task and invalidates its token, so
// a task that already started waiting on the lock becomes a no-op.
func (s *Store) stopPendingLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
}

func (s *Store) autoSave(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || s.cancel == nil {
		s.mu.Unlock()
		return
	}
	s.cancel = nil
	s.mu.Unlock()
	s.persist()
}

func (s *Store) persist() bool {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	st := s.State()
	doc := persisted{
		Assets:            st.Assets,
		Liabilities:       st.Liabilities,
		MonthlyFinancials: st.Monthly,
		Currency:          string(st.Currency),
		Calculations:      st.Calculations,
		Timestamp:         s.now().UTC(),
	}
	b, err := json.Marshal(doc)
	if err != nil {
		s.logger.Error("Failed to encode session", log.FieldError, err)
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), ioTimeout)
	defer cancel()
	if err := s.durable.Put(ctx, StorageKey, b); err != nil {
		s.logger.Error("Failed to save session",
			log.FieldStoreKey, StorageKey,
			log.FieldError, err)
		return false
	}
	s.logger.Debug("Session saved",
		log.FieldStoreKey, StorageKey,
		log.FieldNetWorth, st.Calculations.NetWorth)
	return true
}
