package core

import "math"

// Calculations are the totals derived from the three records. They are
// never mutated independently of their inputs.
type Calculations struct {
	TotalAssets      float64 `json:"totalAssets"`
	TotalLiabilities float64 `json:"totalLiabilities"`
	NetWorth         float64 `json:"netWorth"`
	DebtToAssetRatio int     `json:"debtToAssetRatio"`
	MonthlyIncome    float64 `json:"monthlyIncome"`
	MonthlyExpenses  float64 `json:"monthlyExpenses"`
	MonthlyCashFlow  float64 `json:"monthlyCashFlow"`
}

// CategoryItem is a single labelled field value inside a category.
type CategoryItem struct {
	Key   string
	Label string
	Value float64
}

// CategoryTotal is the subtotal of one category group.
type CategoryTotal struct {
	Name  string
	Total float64
	Items []CategoryItem
}

// Calculate computes every derived total. Invalid field values count as 0.
func Calculate(a Assets, l Liabilities, m MonthlyFinancials) Calculations {
	totalAssets := sum(a, AssetFields)
	totalLiabilities := sum(l, LiabilityFields)
	income := sum(m, IncomeFields)
	expenses := sum(m, ExpenseFields)

	return Calculations{
		TotalAssets:      totalAssets,
		TotalLiabilities: totalLiabilities,
		NetWorth:         totalAssets - totalLiabilities,
		DebtToAssetRatio: DebtToAssetRatio(totalAssets, totalLiabilities),
		MonthlyIncome:    income,
		MonthlyExpenses:  expenses,
		MonthlyCashFlow:  income - expenses,
	}
}

// DebtToAssetRatio returns liabilities as a rounded percentage of assets,
// or 0 when there are no assets. The result saturates at the int32 range.
func DebtToAssetRatio(totalAssets, totalLiabilities float64) int {
	if !(totalAssets > 0) {
		return 0
	}
	ratio := math.Round(totalLiabilities / totalAssets * 100)
	switch {
	case math.IsNaN(ratio):
		return 0
	case ratio > math.MaxInt32:
		return math.MaxInt32
	case ratio < math.MinInt32:
		return math.MinInt32
	}
	return int(ratio)
}

// Total sums every asset field.
func (a Assets) Total() float64 { return sum(a, AssetFields) }

// Total sums every liability field.
func (l Liabilities) Total() float64 { return sum(l, LiabilityFields) }

// Income sums the income fields.
func (m MonthlyFinancials) Income() float64 { return sum(m, IncomeFields) }

// Expenses sums the expense fields.
func (m MonthlyFinancials) Expenses() float64 { return sum(m, ExpenseFields) }

// AssetBreakdown returns per-category subtotals in display order.
func AssetBreakdown(a Assets) []CategoryTotal { return breakdown(a, AssetFields) }

// LiabilityBreakdown returns per-category subtotals in display order.
func LiabilityBreakdown(l Liabilities) []CategoryTotal { return breakdown(l, LiabilityFields) }

// MonthlyBreakdown returns the income and expense subtotals.
func MonthlyBreakdown(m MonthlyFinancials) []CategoryTotal { return breakdown(m, MonthlyFields) }

// NonZero drops categories whose total is zero and items whose value is
// zero.
func NonZero(cats []CategoryTotal) []CategoryTotal {
	out := make([]CategoryTotal, 0, len(cats))
	for _, c := range cats {
		if c.Total <= 0 {
			continue
		}
		items := make([]CategoryItem, 0, len(c.Items))
		for _, it := range c.Items {
			if it.Value > 0 {
				items = append(items, it)
			}
		}
		out = append(out, CategoryTotal{Name: c.Name, Total: c.Total, Items: items})
	}
	return out
}

func sum[T any](rec T, fields []Field[T]) float64 {
	var total float64
	for _, f := range fields {
		total += Sanitize(f.Get(rec))
	}
	return total
}

func breakdown[T any](rec T, fields []Field[T]) []CategoryTotal {
	var out []CategoryTotal
	for _, f := range fields {
		v := Sanitize(f.Get(rec))
		if len(out) == 0 || out[len(out)-1].Name != f.Group {
			out = append(out, CategoryTotal{Name: f.Group})
		}
		cur := &out[len(out)-1]
		cur.Total += v
		cur.Items = append(cur.Items, CategoryItem{Key: f.Key, Label: f.Label, Value: v})
	}
	return out
}
