package session

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"networth/internal/core"
	"networth/internal/log"
)

type manualTask struct {
	fn        func()
	cancelled bool
	ran       bool
}

// manualScheduler runs tasks only when Fire is called.
type manualScheduler struct {
	mu    sync.Mutex
	tasks []*manualTask
}

func (m *manualScheduler) Schedule(_ time.Duration, fn func()) CancelFunc {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTask{fn: fn}
	m.tasks = append(m.tasks, t)
	return func() {
		m.mu.Lock()
		t.cancelled = true
		m.mu.Unlock()
	}
}

// Live returns the number of scheduled tasks that are neither cancelled nor run.
func (m *manualScheduler) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.tasks {
		if !t.cancelled && !t.ran {
			n++
		}
	}
	return n
}

// Fire runs every live task and returns how many ran.
func (m *manualScheduler) Fire() int {
	m.mu.Lock()
	var due []*manualTask
	for _, t := range m.tasks {
		if !t.cancelled && !t.ran {
			t.ran = true
			due = append(due, t)
		}
	}
	m.mu.Unlock()
	for _, t := range due {
		t.fn()
	}
	return len(due)
}

// countingStore records every Put and can be made to fail.
type countingStore struct {
	*MemoryStore
	mu   sync.Mutex
	puts int
	fail error
}

func newCountingStore() *countingStore {
	return &countingStore{MemoryStore: NewMemoryStore()}
}

func (c *countingStore) Put(ctx context.Context, key string, data []byte) error {
	c.mu.Lock()
	c.puts++
	fail := c.fail
	c.mu.Unlock()
	if fail != nil {
		return fail
	}
	return c.MemoryStore.Put(ctx, key, data)
}

func (c *countingStore) Puts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.puts
}

func newTestStore(durable DurableStore) (*Store, *manualScheduler) {
	sched := &manualScheduler{}
	fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	s := New(durable,
		WithScheduler(sched),
		WithLogger(log.Discard()),
		WithClock(func() time.Time { return fixed }),
	)
	return s, sched
}

func TestScenarioTotals(t *testing.T) {
	s, _ := newTestStore(NewMemoryStore())
	s.UpdateAssets(core.Patch{"checking": 500, "savings": 1500})
	st := s.UpdateLiabilities(core.Patch{"creditCard1": 400})

	c := st.Calculations
	if c.TotalAssets != 2000 || c.TotalLiabilities != 400 || c.NetWorth != 1600 || c.DebtToAssetRatio != 20 {
		t.Fatalf("unexpected calculations %+v", c)
	}
	if s.State() != st {
		t.Fatalf("State() does not match the returned state")
	}
}

func TestUpdatesAreLenient(t *testing.T) {
	s, _ := newTestStore(NewMemoryStore())
	st := s.UpdateAssets(core.Patch{"checking": -10, "cash": math.NaN(), "stocks": 50, "unknown": 5})
	if st.Assets.Checking != 0 || st.Assets.Cash != 0 || st.Assets.Stocks != 50 {
		t.Fatalf("unexpected assets %+v", st.Assets)
	}
	st = s.UpdateMonthlyFinancials(core.Patch{"salary": 3000, "groceries": 400})
	if st.Calculations.MonthlyCashFlow != 2600 {
		t.Fatalf("unexpected cash flow %v", st.Calculations.MonthlyCashFlow)
	}
	// earlier fields survive a later partial update
	st = s.UpdateAssets(core.Patch{"cash": 25})
	if st.Assets.Stocks != 50 || st.Calculations.TotalAssets != 75 {
		t.Fatalf("merge lost fields: %+v", st.Assets)
	}
}

func TestUpdateCurrency(t *testing.T) {
	s, _ := newTestStore(NewMemoryStore())
	st, err := s.UpdateCurrency(core.JPY)
	if err != nil || st.Currency != core.JPY {
		t.Fatalf("UpdateCurrency = %q, %v", st.Currency, err)
	}
	if _, err := s.UpdateCurrency(core.Currency("XXX")); !errors.Is(err, core.ErrUnknownCurrency) {
		t.Fatalf("expected ErrUnknownCurrency, got %v", err)
	}
	if s.State().Currency != core.JPY {
		t.Fatalf("invalid currency changed the state")
	}
}

func TestSaveLoadIdempotent(t *testing.T) {
	durable := NewMemoryStore()
	s, _ := newTestStore(durable)
	s.UpdateAssets(core.Patch{"primaryHome": 350000, "retirement": 120000.55})
	s.UpdateLiabilities(core.Patch{"primaryMortgage": 280000})
	s.UpdateMonthlyFinancials(core.Patch{"salary": 8000, "housing": 2100})
	s.UpdateCurrency(core.GBP)
	want := s.State()

	if !s.Save() {
		t.Fatalf("Save failed")
	}

	other, _ := newTestStore(durable)
	if !other.Load() {
		t.Fatalf("Load failed")
	}
	if got := other.State(); got != want {
		t.Fatalf("loaded state differs:\n got %+v\nwant %+v", got, want)
	}
}

func TestLoadRecomputesTotals(t *testing.T) {
	durable := NewMemoryStore()
	doc := map[string]any{
		"assets":           map[string]any{"checking": 10},
		"liabilities":      map[string]any{"otherDebt": 5},
		"currency":         "EUR",
		"totalAssets":      999999,
		"netWorth":         -1,
		"debtToAssetRatio": 77,
	}
	b, _ := json.Marshal(doc)
	durable.Put(context.Background(), StorageKey, b)

	s, _ := newTestStore(durable)
	if !s.Load() {
		t.Fatalf("Load failed")
	}
	c := s.State().Calculations
	if c.TotalAssets != 10 || c.NetWorth != 5 || c.DebtToAssetRatio != 50 {
		t.Fatalf("persisted totals were trusted: %+v", c)
	}
	if s.State().Currency != core.EUR {
		t.Fatalf("currency not restored")
	}
}

func TestLoadFallsBackToDefaults(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{"absent", ""},
		{"malformed", "{not json"},
		{"wrong types", `{"assets":{"checking":"lots"}}`},
		{"unknown currency", `{"assets":{"checking":1},"liabilities":{},"currency":"DOGE"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			durable := NewMemoryStore()
			if tc.payload != "" {
				durable.Put(context.Background(), StorageKey, []byte(tc.payload))
			}
			s, _ := newTestStore(durable)
			s.UpdateAssets(core.Patch{"cash": 10})
			if s.Load() {
				t.Fatalf("Load should report false")
			}
			if got := s.State(); got != defaultState() {
				t.Fatalf("expected defaults, got %+v", got)
			}
		})
	}
}

func TestLoadNegativeValuesSanitized(t *testing.T) {
	durable := NewMemoryStore()
	durable.Put(context.Background(), StorageKey, []byte(`{"assets":{"cash":-50,"bonds":20},"liabilities":{},"currency":""}`))
	s, _ := newTestStore(durable)
	if !s.Load() {
		t.Fatalf("Load failed")
	}
	st := s.State()
	if st.Assets.Cash != 0 || st.Calculations.TotalAssets != 20 || st.Currency != core.USD {
		t.Fatalf("unexpected state %+v", st)
	}
}

func TestReset(t *testing.T) {
	s, sched := newTestStore(NewMemoryStore())
	s.UpdateAssets(core.Patch{"checking": 100})
	s.UpdateCurrency(core.AUD)
	st := s.Reset()
	if st != defaultState() || st.Calculations != (core.Calculations{}) {
		t.Fatalf("Reset left state %+v", st)
	}
	if sched.Live() != 1 {
		t.Fatalf("Reset should schedule an auto-save, live tasks = %d", sched.Live())
	}
}

func TestAutoSaveDebounces(t *testing.T) {
	durable := newCountingStore()
	s, sched := newTestStore(durable)

	s.UpdateAssets(core.Patch{"checking": 1})
	s.UpdateAssets(core.Patch{"checking": 2})
	s.UpdateAssets(core.Patch{"checking": 3})

	if sched.Live() != 1 {
		t.Fatalf("expected exactly one pending task, got %d", sched.Live())
	}
	if durable.Puts() != 0 {
		t.Fatalf("nothing should be written before the window elapses")
	}
	if !s.Pending() {
		t.Fatalf("expected pending auto-save")
	}

	sched.Fire()
	if durable.Puts() != 1 {
		t.Fatalf("expected one write, got %d", durable.Puts())
	}
	if s.Pending() {
		t.Fatalf("auto-save should clear the pending flag")
	}

	other, _ := newTestStore(durable)
	other.Load()
	if other.State().Assets.Checking != 3 {
		t.Fatalf("auto-save did not write the latest state")
	}
}

func TestSupersededTaskIsNoOp(t *testing.T) {
	durable := newCountingStore()
	s, sched := newTestStore(durable)

	var stale func()
	s.sched = schedulerFunc(func(d time.Duration, fn func()) CancelFunc {
		stale = fn
		return sched.Schedule(d, fn)
	})
	s.UpdateAssets(core.Patch{"cash": 1})
	if !s.Save() {
		t.Fatalf("Save failed")
	}
	// The task already left the timer queue when Save cancelled it.
	stale()
	if durable.Puts() != 1 {
		t.Fatalf("stale task wrote again: %d writes", durable.Puts())
	}
}

type schedulerFunc func(time.Duration, func()) CancelFunc

func (f schedulerFunc) Schedule(d time.Duration, fn func()) CancelFunc { return f(d, fn) }

func TestFlushAndClose(t *testing.T) {
	durable := newCountingStore()
	s, sched := newTestStore(durable)

	if !s.Flush() || durable.Puts() != 0 {
		t.Fatalf("Flush with nothing pending should be a no-op")
	}
	s.UpdateLiabilities(core.Patch{"carLoan1": 9000})
	if !s.Flush() || durable.Puts() != 1 {
		t.Fatalf("Flush should write the pending state")
	}
	if sched.Fire() != 0 {
		t.Fatalf("flushed task should have been cancelled")
	}

	s.UpdateLiabilities(core.Patch{"carLoan2": 1})
	if !s.Close() || durable.Puts() != 2 {
		t.Fatalf("Close should flush, writes = %d", durable.Puts())
	}
	s.UpdateLiabilities(core.Patch{"carLoan2": 2})
	if s.Pending() || sched.Live() != 0 {
		t.Fatalf("no auto-save should be scheduled after Close")
	}
}

func TestSaveFailureReportsFalse(t *testing.T) {
	durable := newCountingStore()
	durable.fail = errors.New("disk full")
	s, _ := newTestStore(durable)
	s.UpdateAssets(core.Patch{"cash": 1})
	if s.Save() {
		t.Fatalf("Save should report false on a write error")
	}
	if s.State().Assets.Cash != 1 {
		t.Fatalf("a failed save must not change the state")
	}
}

func TestPersistedDocument(t *testing.T) {
	durable := NewMemoryStore()
	s, _ := newTestStore(durable)
	s.UpdateAssets(core.Patch{"checking": 500, "savings": 1500})
	s.UpdateLiabilities(core.Patch{"creditCard1": 400})
	s.Save()

	b, err := durable.Get(context.Background(), StorageKey)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		t.Fatalf("saved payload is not JSON: %v", err)
	}
	for _, key := range []string{
		"assets", "liabilities", "monthlyFinancials", "currency", "totalAssets",
		"totalLiabilities", "netWorth", "debtToAssetRatio", "monthlyIncome",
		"monthlyExpenses", "monthlyCashFlow", "timestamp",
	} {
		if _, ok := doc[key]; !ok {
			t.Fatalf("saved payload missing %q", key)
		}
	}
	if doc["netWorth"] != 1600.0 || doc["currency"] != "USD" || doc["timestamp"] != "2025-01-02T03:04:05Z" {
		t.Fatalf("unexpected payload %s", b)
	}
}

func TestTimerSchedulerAutoSave(t *testing.T) {
	durable := newCountingStore()
	s := New(durable, WithDelay(10*time.Millisecond), WithLogger(log.Discard()))
	s.UpdateAssets(core.Patch{"bonds": 7})

	deadline := time.Now().Add(2 * time.Second)
	for durable.Puts() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("auto-save did not run")
		}
		time.Sleep(5 * time.Millisecond)
	}
	s.Close()
}

func TestSnapshotView(t *testing.T) {
	s, _ := newTestStore(NewMemoryStore())
	st := s.UpdateAssets(core.Patch{"jewelry": 42})
	snap := st.Snapshot()
	if snap.Assets.Jewelry != 42 || snap.Calculations.TotalAssets != 42 || snap.Currency != core.USD {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}
