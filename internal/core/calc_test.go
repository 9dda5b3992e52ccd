package core

import (
	"math"
	"testing"
)

func TestCalculateEmpty(t *testing.T) {
	got := Calculate(DefaultAssets(), DefaultLiabilities(), DefaultMonthly())
	if got != (Calculations{}) {
		t.Fatalf("expected zero calculations, got %+v", got)
	}
}

func TestCalculate(t *testing.T) {
	cases := []struct {
		name string
		a    Assets
		l    Liabilities
		m    MonthlyFinancials
		want Calculations
	}{
		{
			name: "checking and savings against a card",
			a:    Assets{Checking: 500, Savings: 1500},
			l:    Liabilities{CreditCard1: 400},
			want: Calculations{TotalAssets: 2000, TotalLiabilities: 400, NetWorth: 1600, DebtToAssetRatio: 20},
		},
		{
			name: "ratio thirty",
			a:    Assets{Stocks: 1000},
			l:    Liabilities{StudentLoan: 300},
			want: Calculations{TotalAssets: 1000, TotalLiabilities: 300, NetWorth: 700, DebtToAssetRatio: 30},
		},
		{
			name: "debt only",
			l:    Liabilities{CarLoan1: 250},
			want: Calculations{TotalLiabilities: 250, NetWorth: -250},
		},
		{
			name: "negative cash flow",
			m:    MonthlyFinancials{Salary: 3000, Housing: 2000, Dining: 1500},
			want: Calculations{MonthlyIncome: 3000, MonthlyExpenses: 3500, MonthlyCashFlow: -500},
		},
		{
			name: "non-finite values count as zero",
			a:    Assets{Checking: math.NaN(), Cash: 100},
			l:    Liabilities{OtherDebt: math.Inf(1)},
			want: Calculations{TotalAssets: 100, NetWorth: 100},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Calculate(tc.a, tc.l, tc.m)
			if got != tc.want {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
			if got.NetWorth != got.TotalAssets-got.TotalLiabilities {
				t.Fatalf("net worth does not equal assets minus liabilities")
			}
		})
	}
}

func TestDebtToAssetRatio(t *testing.T) {
	cases := []struct {
		assets, liabilities float64
		want                int
	}{
		{0, 0, 0},
		{0, 500, 0},
		{1000, 300, 30},
		{3, 1, 33},
		{8, 1, 13}, // 12.5 rounds away from zero
		{100, 250, 250},
		{1e-10, 1e200, math.MaxInt32},
		{1e-300, math.MaxFloat64, math.MaxInt32},
		{1e-10, -1e200, math.MinInt32},
	}
	for _, tc := range cases {
		if got := DebtToAssetRatio(tc.assets, tc.liabilities); got != tc.want {
			t.Fatalf("DebtToAssetRatio(%v, %v) = %d, want %d", tc.assets, tc.liabilities, got, tc.want)
		}
	}
}

func TestAssetBreakdown(t *testing.T) {
	cats := AssetBreakdown(Assets{Checking: 100, Savings: 50, Stocks: 1000})
	if len(cats) != 4 {
		t.Fatalf("expected 4 categories, got %d", len(cats))
	}
	wantNames := []string{GroupCashBank, GroupRealEstate, GroupInvestments, GroupPersonalProperty}
	for i, c := range cats {
		if c.Name != wantNames[i] {
			t.Fatalf("category %d = %q, want %q", i, c.Name, wantNames[i])
		}
	}
	if cats[0].Total != 150 || len(cats[0].Items) != 3 {
		t.Fatalf("unexpected cash category %+v", cats[0])
	}

	nz := NonZero(cats)
	if len(nz) != 2 {
		t.Fatalf("expected 2 non-zero categories, got %d", len(nz))
	}
	if len(nz[0].Items) != 2 || nz[1].Items[0].Label != "Stocks & ETFs" {
		t.Fatalf("unexpected non-zero breakdown %+v", nz)
	}
}

func TestMonthlyBreakdown(t *testing.T) {
	cats := MonthlyBreakdown(MonthlyFinancials{Salary: 4000, Groceries: 300})
	if len(cats) != 2 || cats[0].Name != GroupIncome || cats[1].Name != GroupExpenses {
		t.Fatalf("unexpected groups %+v", cats)
	}
	if cats[0].Total != 4000 || cats[1].Total != 300 {
		t.Fatalf("unexpected totals %+v", cats)
	}
}

func TestLiabilityBreakdownEmpty(t *testing.T) {
	if nz := NonZero(LiabilityBreakdown(DefaultLiabilities())); len(nz) != 0 {
		t.Fatalf("expected no categories, got %+v", nz)
	}
}
