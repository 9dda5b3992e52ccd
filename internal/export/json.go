package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"networth/internal/core"
)

// Report is the JSON export document.
type Report struct {
	Timestamp         time.Time              `json:"timestamp"`
	Currency          core.Currency          `json:"currency"`
	NetWorth          float64                `json:"netWorth"`
	TotalAssets       float64                `json:"totalAssets"`
	TotalLiabilities  float64                `json:"totalLiabilities"`
	DebtToAssetRatio  int                    `json:"debtToAssetRatio"`
	Assets            core.Assets            `json:"assets"`
	Liabilities       core.Liabilities       `json:"liabilities"`
	MonthlyFinancials core.MonthlyFinancials `json:"monthlyFinancials"`
	MonthlyIncome     float64                `json:"monthlyIncome"`
	MonthlyExpenses   float64                `json:"monthlyExpenses"`
	MonthlyCashFlow   float64                `json:"monthlyCashFlow"`
}

// NewReport builds the export document. The ratio is derived from the
// snapshot totals rather than copied.
func NewReport(snap Snapshot, now time.Time) Report {
	c := snap.Calculations
	return Report{
		Timestamp:         now.UTC(),
		Currency:          snap.Currency,
		NetWorth:          c.NetWorth,
		TotalAssets:       c.TotalAssets,
		TotalLiabilities:  c.TotalLiabilities,
		DebtToAssetRatio:  core.DebtToAssetRatio(c.TotalAssets, c.TotalLiabilities),
		Assets:            snap.Assets,
		Liabilities:       snap.Liabilities,
		MonthlyFinancials: snap.Monthly,
		MonthlyIncome:     c.MonthlyIncome,
		MonthlyExpenses:   c.MonthlyExpenses,
		MonthlyCashFlow:   c.MonthlyCashFlow,
	}
}

// Snapshot rebuilds a snapshot from the report records.
func (r Report) Snapshot() Snapshot {
	return NewSnapshot(r.Assets, r.Liabilities, r.MonthlyFinancials, r.Currency)
}

// WriteJSON writes the indented report.
func WriteJSON(w io.Writer, snap Snapshot, now time.Time) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewReport(snap, now)); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// ParseJSON reads a report written by WriteJSON.
func ParseJSON(r io.Reader) (Report, error) {
	var rep Report
	if err := json.NewDecoder(r).Decode(&rep); err != nil {
		return Report{}, fmt.Errorf("decode report: %w", err)
	}
	if rep.Currency == "" {
		rep.Currency = core.DefaultCurrency
	}
	return rep, nil
}
