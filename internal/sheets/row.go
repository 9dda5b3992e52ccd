package sheets

import "time"

// Header is the column layout written by RowAppender implementations.
var Header = []string{
	"ID", "User", "Currency", "Total Assets", "Total Liabilities",
	"Net Worth", "Debt-to-Asset %", "Created At",
}

// CalculationRow is the flattened view of a stored calculation.
type CalculationRow struct {
	ID               string
	UserID           string
	Currency         string
	TotalAssets      float64
	TotalLiabilities float64
	NetWorth         float64
	DebtToAssetRatio int
	CreatedAt        time.Time
}

// Values returns the cells in Header order.
func (r CalculationRow) Values() []any {
	return []any{
		r.ID,
		r.UserID,
		r.Currency,
		r.TotalAssets,
		r.TotalLiabilities,
		r.NetWorth,
		r.DebtToAssetRatio,
		r.CreatedAt.UTC().Format(time.RFC3339),
	}
}
