package sheets

import (
	"context"

	"networth/internal/core"
)

// Ports for outbound adapters.
type (
	// CalculationStore persists immutable net worth snapshots. Get returns
	// core.ErrNotFound for an unknown id.
	CalculationStore interface {
		Save(ctx context.Context, in core.NewCalculation) (core.NetWorthCalculation, error)
		Get(ctx context.Context, id string) (core.NetWorthCalculation, error)
		// ListByUser returns the user's records in creation order.
		ListByUser(ctx context.Context, userID string) ([]core.NetWorthCalculation, error)
	}

	// RowAppender mirrors a saved calculation into a spreadsheet.
	RowAppender interface {
		AppendCalculation(ctx context.Context, row CalculationRow) (rowRef string, err error)
	}
)
