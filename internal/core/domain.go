package core

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

const (
	GroupCashBank         = "Cash & Bank Accounts"
	GroupRealEstate       = "Real Estate"
	GroupInvestments      = "Investments"
	GroupPersonalProperty = "Personal Property"

	GroupMortgages     = "Mortgages & Home Loans"
	GroupCreditCards   = "Credit Card Debt"
	GroupPersonalLoans = "Personal & Student Loans"
	GroupVehicleLoans  = "Vehicle Loans"

	GroupIncome   = "Income"
	GroupExpenses = "Expenses"
)

type (
	// Assets holds what the user owns, per category field.
	Assets struct {
		Checking        float64 `json:"checking"`
		Savings         float64 `json:"savings"`
		Cash            float64 `json:"cash"`
		PrimaryHome     float64 `json:"primaryHome"`
		RentalProperty  float64 `json:"rentalProperty"`
		OtherRealEstate float64 `json:"otherRealEstate"`
		Stocks          float64 `json:"stocks"`
		Retirement      float64 `json:"retirement"`
		Bonds           float64 `json:"bonds"`
		Vehicles        float64 `json:"vehicles"`
		Jewelry         float64 `json:"jewelry"`
		Business        float64 `json:"business"`
	}

	// Liabilities holds what the user owes, per category field.
	Liabilities struct {
		PrimaryMortgage    float64 `json:"primaryMortgage"`
		HomeEquityLoan     float64 `json:"homeEquityLoan"`
		InvestmentMortgage float64 `json:"investmentMortgage"`
		CreditCard1        float64 `json:"creditCard1"`
		CreditCard2        float64 `json:"creditCard2"`
		CreditCard3        float64 `json:"creditCard3"`
		StudentLoan        float64 `json:"studentLoan"`
		PersonalLoan       float64 `json:"personalLoan"`
		OtherDebt          float64 `json:"otherDebt"`
		CarLoan1           float64 `json:"carLoan1"`
		CarLoan2           float64 `json:"carLoan2"`
	}

	// MonthlyFinancials holds recurring monthly income and expenses.
	MonthlyFinancials struct {
		Salary       float64 `json:"salary"`
		Bonuses      float64 `json:"bonuses"`
		Freelance    float64 `json:"freelance"`
		RentalIncome float64 `json:"rentalIncome"`
		Investments  float64 `json:"investments"`
		OtherIncome  float64 `json:"otherIncome"`

		Housing        float64 `json:"housing"`
		Utilities      float64 `json:"utilities"`
		Groceries      float64 `json:"groceries"`
		Transportation float64 `json:"transportation"`
		Insurance      float64 `json:"insurance"`
		Healthcare     float64 `json:"healthcare"`
		Entertainment  float64 `json:"entertainment"`
		Dining         float64 `json:"dining"`
		Shopping       float64 `json:"shopping"`
		Subscriptions  float64 `json:"subscriptions"`
		OtherExpenses  float64 `json:"otherExpenses"`
	}

	// Field describes one numeric field of a record: its JSON key, display
	// label and category group.
	Field[T any] struct {
		Key   string
		Label string
		Group string
		ref   func(*T) *float64
	}

	// Patch is a partial update keyed by JSON field name.
	Patch map[string]float64
)

var ErrUnknownField = errors.New("unknown field")

// Get returns the field value of r.
func (f Field[T]) Get(r T) float64 { return *f.ref(&r) }

// Set stores v into the field of r.
func (f Field[T]) Set(r *T, v float64) { *f.ref(r) = v }

var AssetFields = []Field[Assets]{
	{"checking", "Checking Account", GroupCashBank, func(a *Assets) *float64 { return &a.Checking }},
	{"savings", "Savings Account", GroupCashBank, func(a *Assets) *float64 { return &a.Savings }},
	{"cash", "Cash on Hand", GroupCashBank, func(a *Assets) *float64 { return &a.Cash }},
	{"primaryHome", "Primary Residence", GroupRealEstate, func(a *Assets) *float64 { return &a.PrimaryHome }},
	{"rentalProperty", "Rental Properties", GroupRealEstate, func(a *Assets) *float64 { return &a.RentalProperty }},
	{"otherRealEstate", "Other Real Estate", GroupRealEstate, func(a *Assets) *float64 { return &a.OtherRealEstate }},
	{"stocks", "Stocks & ETFs", GroupInvestments, func(a *Assets) *float64 { return &a.Stocks }},
	{"retirement", "Retirement Accounts", GroupInvestments, func(a *Assets) *float64 { return &a.Retirement }},
	{"bonds", "Bonds & Fixed Income", GroupInvestments, func(a *Assets) *float64 { return &a.Bonds }},
	{"vehicles", "Vehicles", GroupPersonalProperty, func(a *Assets) *float64 { return &a.Vehicles }},
	{"jewelry", "Jewelry & Valuables", GroupPersonalProperty, func(a *Assets) *float64 { return &a.Jewelry }},
	{"business", "Business Ownership", GroupPersonalProperty, func(a *Assets) *float64 { return &a.Business }},
}

var LiabilityFields = []Field[Liabilities]{
	{"primaryMortgage", "Primary Mortgage", GroupMortgages, func(l *Liabilities) *float64 { return &l.PrimaryMortgage }},
	{"homeEquityLoan", "Home Equity Loan", GroupMortgages, func(l *Liabilities) *float64 { return &l.HomeEquityLoan }},
	{"investmentMortgage", "Investment Property Mortgage", GroupMortgages, func(l *Liabilities) *float64 { return &l.InvestmentMortgage }},
	{"creditCard1", "Credit Card 1", GroupCreditCards, func(l *Liabilities) *float64 { return &l.CreditCard1 }},
	{"creditCard2", "Credit Card 2", GroupCreditCards, func(l *Liabilities) *float64 { return &l.CreditCard2 }},
	{"creditCard3", "Credit Card 3", GroupCreditCards, func(l *Liabilities) *float64 { return &l.CreditCard3 }},
	{"studentLoan", "Student Loans", GroupPersonalLoans, func(l *Liabilities) *float64 { return &l.StudentLoan }},
	{"personalLoan", "Personal Loans", GroupPersonalLoans, func(l *Liabilities) *float64 { return &l.PersonalLoan }},
	{"otherDebt", "Other Debt", GroupPersonalLoans, func(l *Liabilities) *float64 { return &l.OtherDebt }},
	{"carLoan1", "Car Loan 1", GroupVehicleLoans, func(l *Liabilities) *float64 { return &l.CarLoan1 }},
	{"carLoan2", "Car Loan 2", GroupVehicleLoans, func(l *Liabilities) *float64 { return &l.CarLoan2 }},
}

var IncomeFields = []Field[MonthlyFinancials]{
	{"salary", "Salary/Wages", GroupIncome, func(m *MonthlyFinancials) *float64 { return &m.Salary }},
	{"bonuses", "Bonuses/Commission", GroupIncome, func(m *MonthlyFinancials) *float64 { return &m.Bonuses }},
	{"freelance", "Freelance/Side Gigs", GroupIncome, func(m *MonthlyFinancials) *float64 { return &m.Freelance }},
	{"rentalIncome", "Rental Income", GroupIncome, func(m *MonthlyFinancials) *float64 { return &m.RentalIncome }},
	{"investments", "Investment Income", GroupIncome, func(m *MonthlyFinancials) *float64 { return &m.Investments }},
	{"otherIncome", "Other Income", GroupIncome, func(m *MonthlyFinancials) *float64 { return &m.OtherIncome }},
}

var ExpenseFields = []Field[MonthlyFinancials]{
	{"housing", "Housing (Rent/Mortgage)", GroupExpenses, func(m *MonthlyFinancials) *float64 { return &m.Housing }},
	{"utilities", "Utilities", GroupExpenses, func(m *MonthlyFinancials) *float64 { return &m.Utilities }},
	{"groceries", "Groceries", GroupExpenses, func(m *MonthlyFinancials) *float64 { return &m.Groceries }},
	{"transportation", "Transportation", GroupExpenses, func(m *MonthlyFinancials) *float64 { return &m.Transportation }},
	{"insurance", "Insurance", GroupExpenses, func(m *MonthlyFinancials) *float64 { return &m.Insurance }},
	{"healthcare", "Healthcare", GroupExpenses, func(m *MonthlyFinancials) *float64 { return &m.Healthcare }},
	{"entertainment", "Entertainment", GroupExpenses, func(m *MonthlyFinancials) *float64 { return &m.Entertainment }},
	{"dining", "Dining Out", GroupExpenses, func(m *MonthlyFinancials) *float64 { return &m.Dining }},
	{"shopping", "Shopping", GroupExpenses, func(m *MonthlyFinancials) *float64 { return &m.Shopping }},
	{"subscriptions", "Subscriptions", GroupExpenses, func(m *MonthlyFinancials) *float64 { return &m.Subscriptions }},
	{"otherExpenses", "Other Expenses", GroupExpenses, func(m *MonthlyFinancials) *float64 { return &m.OtherExpenses }},
}

// MonthlyFields lists income fields followed by expense fields.
var MonthlyFields = append(append([]Field[MonthlyFinancials](nil), IncomeFields...), ExpenseFields...)

func DefaultAssets() Assets { return Assets{} }
func DefaultLiabilities() Liabilities { return Liabilities{} }
func DefaultMonthly() MonthlyFinancials { return MonthlyFinancials{} }

// Sanitize applies the lenient input policy: NaN, infinities and negative
// values become 0.
func Sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// Sanitized returns a copy of p with every value passed through Sanitize.
func (p Patch) Sanitized() Patch {
	out := make(Patch, len(p))
	for k, v := range p {
		out[k] = Sanitize(v)
	}
	return out
}

// Apply overwrites the fields named in p; other fields are retained.
func (a Assets) Apply(p Patch) Assets { return applyPatch(a, AssetFields, p) }

// Apply overwrites the fields named in p; other fields are retained.
func (l Liabilities) Apply(p Patch) Liabilities { return applyPatch(l, LiabilityFields, p) }

// Apply overwrites the fields named in p; other fields are retained.
func (m MonthlyFinancials) Apply(p Patch) MonthlyFinancials {
	return applyPatch(m, MonthlyFields, p)
}

// Sanitized returns a copy with every field passed through Sanitize.
func (a Assets) Sanitized() Assets { return sanitizeRecord(a, AssetFields) }

// Sanitized returns a copy with every field passed through Sanitize.
func (l Liabilities) Sanitized() Liabilities { return sanitizeRecord(l, LiabilityFields) }

// Sanitized returns a copy with every field passed through Sanitize.
func (m MonthlyFinancials) Sanitized() MonthlyFinancials {
	return sanitizeRecord(m, MonthlyFields)
}

// Keys returns the JSON keys of fields in display order.
func Keys[T any](fields []Field[T]) []string {
	keys := make([]string, len(fields))
	for i, f := range fields {
		keys[i] = f.Key
	}
	return keys
}

// CheckPatch returns ErrUnknownField if p names a key not in fields.
func CheckPatch[T any](fields []Field[T], p Patch) error {
	known := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		known[f.Key] = struct{}{}
	}
	var unknown []string
	for k := range p {
		if _, ok := known[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return fmt.Errorf("%w: %s", ErrUnknownField, strings.Join(unknown, ", "))
}

// ParsePatch parses "key=value" arguments into a Patch for the given field
// table. Unknown keys and malformed numbers are errors.
func ParsePatch[T any](fields []Field[T], args []string) (Patch, error) {
	p := make(Patch, len(args))
	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("expected key=value, got %q", arg)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", key, err)
		}
		p[strings.TrimSpace(key)] = v
	}
	if err := CheckPatch(fields, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate reports every negative or non-finite field.
func (a Assets) Validate() error { return asError(validateRecord(a, AssetFields, "assets")) }

// Validate reports every negative or non-finite field.
func (l Liabilities) Validate() error {
	return asError(validateRecord(l, LiabilityFields, "liabilities"))
}

// Validate reports every negative or non-finite field.
func (m MonthlyFinancials) Validate() error {
	return asError(validateRecord(m, MonthlyFields, "monthlyFinancials"))
}

func asError(errs ValidationErrors) error {
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func applyPatch[T any](rec T, fields []Field[T], p Patch) T {
	for _, f := range fields {
		if v, ok := p[f.Key]; ok {
			f.Set(&rec, v)
		}
	}
	return rec
}

func sanitizeRecord[T any](rec T, fields []Field[T]) T {
	for _, f := range fields {
		f.Set(&rec, Sanitize(f.Get(rec)))
	}
	return rec
}
