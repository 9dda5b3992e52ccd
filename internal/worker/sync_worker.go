// Package worker mirrors saved calculations into the spreadsheet. Rows that
// fail with a transient error wait in a pending list that a periodic sweep
// retries in batches.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"networth/internal/amqp"
	"networth/internal/cache"
	"networth/internal/log"
	"networth/internal/sheets"
)

const (
	defaultMaxPending  = 1000
	defaultMaxAttempts = 5
	syncedTTL          = 24 * time.Hour
)

// Config tunes the retry behaviour. Zero values pick the defaults.
type Config struct {
	BatchSize   int
	MaxPending  int
	MaxAttempts int
	// Retryable classifies append errors; nil treats every error as
	// transient.
	Retryable func(error) bool
}

type pendingRow struct {
	row      sheets.CalculationRow
	attempts int
	lastErr  error
}

// SyncWorker handles synchronization of saved calculations to Google Sheets
type SyncWorker struct {
	sheets sheets.RowAppender
	cfg    Config
	logger *log.Logger

	mu      sync.Mutex
	pending []pendingRow
	// synced remembers recently appended ids so a redelivered message does
	// not produce a second row.
	synced *cache.LRUCache[struct{}]
}

func NewSyncWorker(appender sheets.RowAppender, cfg Config, logger *log.Logger) *SyncWorker {
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 10
	}
	if cfg.MaxPending < 1 {
		cfg.MaxPending = defaultMaxPending
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.Retryable == nil {
		cfg.Retryable = func(error) bool { return true }
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &SyncWorker{
		sheets: appender,
		cfg:    cfg,
		logger: logger.WithComponent(log.ComponentWorker),
		synced: cache.NewLRUCache[struct{}](cfg.MaxPending, syncedTTL),
	}
}

// RowFromMessage flattens a saved event into a sheet row.
func RowFromMessage(msg *amqp.CalculationSavedMessage) sheets.CalculationRow {
	return sheets.CalculationRow{
		ID:               msg.ID,
		UserID:           msg.UserID,
		Currency:         msg.Currency,
		TotalAssets:      msg.TotalAssets,
		TotalLiabilities: msg.TotalLiabilities,
		NetWorth:         msg.NetWorth,
		DebtToAssetRatio: msg.DebtToAssetRatio,
		CreatedAt:        msg.CreatedAt,
	}
}

// HandleCalculationSaved appends the row for msg. A transient failure parks
// the row in the pending list and the message is still acknowledged; only a
// full pending list returns an error so the broker redelivers.
func (w *SyncWorker) HandleCalculationSaved(ctx context.Context, msg *amqp.CalculationSavedMessage) error {
	row := RowFromMessage(msg)
	if _, done := w.synced.Get(row.ID); done {
		w.logger.DebugContext(ctx, "Calculation already synced", log.FieldCalculationID, row.ID)
		return nil
	}

	err := w.appendRow(ctx, row)
	if err == nil {
		return nil
	}
	if !w.cfg.Retryable(err) {
		w.logger.ErrorContext(ctx, "Dropping calculation row",
			log.FieldCalculationID, row.ID,
			log.FieldError, err)
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.pending) >= w.cfg.MaxPending {
		return fmt.Errorf("pending list full (%d rows): %w", len(w.pending), err)
	}
	w.pending = append(w.pending, pendingRow{row: row, attempts: 1, lastErr: err})
	w.logger.WarnContext(ctx, "Calculation row queued for retry",
		log.FieldCalculationID, row.ID,
		log.FieldError, err,
		"pending", len(w.pending))
	return nil
}

func (w *SyncWorker) appendRow(ctx context.Context, row sheets.CalculationRow) error {
	ref, err := w.sheets.AppendCalculation(ctx, row)
	if err != nil {
		return err
	}
	w.synced.Set(row.ID, struct{}{})
	w.logger.InfoContext(ctx, "Successfully synced calculation",
		log.FieldCalculationID, row.ID,
		log.FieldSheetsRef, ref,
		log.FieldNetWorth, row.NetWorth)
	return nil
}

// ProcessPending retries up to BatchSize pending rows, oldest first. Rows
// that keep failing are dropped after MaxAttempts.
func (w *SyncWorker) ProcessPending(ctx context.Context) (synced, dropped int) {
	w.mu.Lock()
	n := min(w.cfg.BatchSize, len(w.pending))
	batch := append([]pendingRow(nil), w.pending[:n]...)
	w.pending = w.pending[n:]
	w.mu.Unlock()

	if n == 0 {
		return 0, 0
	}

	var retry []pendingRow
	for _, p := range batch {
		if ctx.Err() != nil {
			retry = append(retry, p)
			continue
		}
		if _, done := w.synced.Get(p.row.ID); done {
			continue
		}
		err := w.appendRow(ctx, p.row)
		switch {
		case err == nil:
			synced++
		case !w.cfg.Retryable(err) || p.attempts+1 >= w.cfg.MaxAttempts:
			dropped++
			w.logger.ErrorContext(ctx, "Giving up on calculation row",
				log.FieldCalculationID, p.row.ID,
				log.FieldError, err,
				"attempts", p.attempts+1)
		default:
			p.attempts++
			p.lastErr = err
			retry = append(retry, p)
		}
	}

	w.mu.Lock()
	w.pending = append(w.pending, retry...)
	remaining := len(w.pending)
	w.mu.Unlock()

	w.logger.InfoContext(ctx, "Pending sweep finished",
		"batch", n,
		"synced", synced,
		"dropped", dropped,
		"pending", remaining)
	return synced, dropped
}

// Pending reports the number of rows waiting for a retry.
func (w *SyncWorker) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

// RunSweeps retries pending rows on a cron schedule every interval until ctx
// is done, then waits for a running sweep to finish.
func (w *SyncWorker) RunSweeps(ctx context.Context, interval time.Duration) error {
	c := cron.New()
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", interval), func() {
		w.ProcessPending(ctx)
	}); err != nil {
		return fmt.Errorf("schedule pending sweep: %w", err)
	}
	c.Start()
	w.logger.InfoContext(ctx, "Pending sweep scheduled", "interval", interval.String())

	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
