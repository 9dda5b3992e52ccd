package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"networth/internal/amqp"
	"networth/internal/log"
	"networth/internal/sheets"
	"networth/internal/sheets/memory"
)

var (
	errTransient = errors.New("503 backend unavailable")
	errPermanent = errors.New("403 forbidden")
)

// flakyAppender fails while failing is set and records successful rows.
type flakyAppender struct {
	mu      sync.Mutex
	err     error
	rows    []sheets.CalculationRow
	attempt int
}

func (f *flakyAppender) AppendCalculation(_ context.Context, row sheets.CalculationRow) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempt++
	if f.err != nil {
		return "", f.err
	}
	f.rows = append(f.rows, row)
	return "NetWorth!A2:H2", nil
}

func (f *flakyAppender) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *flakyAppender) appended() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

func retryable(err error) bool { return !errors.Is(err, errPermanent) }

func message(id string) *amqp.CalculationSavedMessage {
	return &amqp.CalculationSavedMessage{
		ID:               id,
		Currency:         "USD",
		TotalAssets:      2000,
		TotalLiabilities: 400,
		NetWorth:         1600,
		DebtToAssetRatio: 20,
		CreatedAt:        time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
	}
}

func TestRowFromMessage(t *testing.T) {
	row := RowFromMessage(message("calc-1"))
	if row.ID != "calc-1" || row.NetWorth != 1600 || row.DebtToAssetRatio != 20 || row.Currency != "USD" {
		t.Errorf("RowFromMessage() = %+v", row)
	}
}

func TestHandleAppendsRow(t *testing.T) {
	app := &flakyAppender{}
	w := NewSyncWorker(app, Config{Retryable: retryable}, log.Discard())

	if err := w.HandleCalculationSaved(context.Background(), message("calc-1")); err != nil {
		t.Fatal(err)
	}
	if app.appended() != 1 || w.Pending() != 0 {
		t.Errorf("appended %d, pending %d", app.appended(), w.Pending())
	}
}

func TestHandleWithMemorySink(t *testing.T) {
	rows := memory.New()
	w := NewSyncWorker(rows, Config{Retryable: func(error) bool { return false }}, nil)
	ctx := context.Background()

	if err := w.HandleCalculationSaved(ctx, message("calc-1")); err != nil {
		t.Fatal(err)
	}
	if err := w.HandleCalculationSaved(ctx, message("")); err != nil {
		t.Fatal(err)
	}

	got := rows.Rows()
	if len(got) != 1 || got[0].ID != "calc-1" || got[0].NetWorth != 1600 {
		t.Errorf("Rows() = %+v", got)
	}
	if w.Pending() != 0 {
		t.Errorf("rejected row should not be queued, pending = %d", w.Pending())
	}
}

func TestHandleSkipsRedelivery(t *testing.T) {
	app := &flakyAppender{}
	w := NewSyncWorker(app, Config{}, nil)
	ctx := context.Background()

	_ = w.HandleCalculationSaved(ctx, message("calc-1"))
	_ = w.HandleCalculationSaved(ctx, message("calc-1"))
	if app.appended() != 1 {
		t.Errorf("appended %d rows for one calculation", app.appended())
	}
}

func TestHandleQueuesTransientFailure(t *testing.T) {
	app := &flakyAppender{err: errTransient}
	w := NewSyncWorker(app, Config{Retryable: retryable}, log.Discard())
	ctx := context.Background()

	if err := w.HandleCalculationSaved(ctx, message("calc-1")); err != nil {
		t.Fatalf("transient failure should be acknowledged, got %v", err)
	}
	if w.Pending() != 1 {
		t.Fatalf("Pending() = %d, want 1", w.Pending())
	}

	app.setErr(nil)
	synced, dropped := w.ProcessPending(ctx)
	if synced != 1 || dropped != 0 {
		t.Errorf("ProcessPending() = %d, %d", synced, dropped)
	}
	if w.Pending() != 0 || app.appended() != 1 {
		t.Errorf("pending %d, appended %d", w.Pending(), app.appended())
	}
}

func TestHandleDropsPermanentFailure(t *testing.T) {
	app := &flakyAppender{err: errPermanent}
	w := NewSyncWorker(app, Config{Retryable: retryable}, log.Discard())

	if err := w.HandleCalculationSaved(context.Background(), message("calc-1")); err != nil {
		t.Fatal(err)
	}
	if w.Pending() != 0 {
		t.Errorf("permanent failure should not be queued, pending = %d", w.Pending())
	}
}

func TestHandleFullPendingListRequeues(t *testing.T) {
	app := &flakyAppender{err: errTransient}
	w := NewSyncWorker(app, Config{MaxPending: 2}, log.Discard())
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		if err := w.HandleCalculationSaved(ctx, message(id)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.HandleCalculationSaved(ctx, message("c")); err == nil {
		t.Error("expected error when the pending list is full")
	}
}

func TestProcessPendingBatchesAndGivesUp(t *testing.T) {
	app := &flakyAppender{err: errTransient}
	w := NewSyncWorker(app, Config{BatchSize: 2, MaxAttempts: 3}, log.Discard())
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		_ = w.HandleCalculationSaved(ctx, message(id))
	}
	if w.Pending() != 3 {
		t.Fatalf("Pending() = %d", w.Pending())
	}

	// First sweep retries a and b (attempt 2), c stays untouched.
	w.ProcessPending(ctx)
	if w.Pending() != 3 {
		t.Errorf("after first sweep Pending() = %d, want 3", w.Pending())
	}

	// c then a: c reaches attempt 2, a hits the limit.
	_, dropped := w.ProcessPending(ctx)
	if dropped != 1 {
		t.Errorf("dropped = %d, want 1", dropped)
	}
	if w.Pending() != 2 {
		t.Errorf("Pending() = %d, want 2", w.Pending())
	}
}

func TestProcessPendingEmpty(t *testing.T) {
	w := NewSyncWorker(&flakyAppender{}, Config{}, log.Discard())
	if s, d := w.ProcessPending(context.Background()); s != 0 || d != 0 {
		t.Errorf("ProcessPending() = %d, %d", s, d)
	}
}

func TestRunSweepsStopsWithContext(t *testing.T) {
	w := NewSyncWorker(&flakyAppender{}, Config{}, log.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.RunSweeps(ctx, time.Second) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("RunSweeps() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("RunSweeps did not return after cancel")
	}
}
