package services

import (
	"context"
	"fmt"

	"networth/internal/amqp"
	"networth/internal/core"
	"networth/internal/log"
	"networth/internal/sheets"
)

// Publisher announces stored calculations. *amqp.Client implements it.
type Publisher interface {
	PublishCalculationSaved(ctx context.Context, msg *amqp.CalculationSavedMessage) error
}

var _ sheets.CalculationStore = (*CalculationService)(nil)

// CalculationService stores calculations and publishes a saved event for
// each new record. Publishing is best effort.
type CalculationService struct {
	store     sheets.CalculationStore
	publisher Publisher
	logger    *log.StructuredLogger
}

// NewCalculationService wires store and publisher. A nil publisher
// disables events.
func NewCalculationService(store sheets.CalculationStore, publisher Publisher, logger *log.Logger) *CalculationService {
	if logger == nil {
		logger = log.Discard()
	}
	return &CalculationService{
		store:     store,
		publisher: publisher,
		logger:    log.NewStructuredLogger(logger.WithComponent(log.ComponentHTTP)),
	}
}

// Save stores in and publishes the saved event. A publish failure is
// logged and does not fail the save.
func (s *CalculationService) Save(ctx context.Context, in core.NewCalculation) (core.NetWorthCalculation, error) {
	rec, err := s.store.Save(ctx, in)
	if err != nil {
		return core.NetWorthCalculation{}, fmt.Errorf("save calculation: %w", err)
	}
	s.logger.LogCalculationSaved(ctx, rec.ID, rec.UserID, string(rec.Currency), rec.NetWorth)

	if s.publisher != nil {
		if err := s.publisher.PublishCalculationSaved(ctx, amqp.NewCalculationSavedMessage(rec)); err != nil {
			s.logger.LogError(ctx, "Failed to publish calculation saved message", err,
				log.ComponentAMQP, log.OpPublish,
				log.NewFields().WithCalculation(rec.ID, rec.UserID, string(rec.Currency), rec.NetWorth).
					WithErrorType(log.ErrorTypeNetwork))
		}
	}
	return rec, nil
}

func (s *CalculationService) Get(ctx context.Context, id string) (core.NetWorthCalculation, error) {
	return s.store.Get(ctx, id)
}

func (s *CalculationService) ListByUser(ctx context.Context, userID string) ([]core.NetWorthCalculation, error) {
	return s.store.ListByUser(ctx, userID)
}
