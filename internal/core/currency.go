// Package core provides the net worth domain: currencies, the asset,
// liability and monthly records, and the aggregation engine.
//
// This file contains the currency enumeration and display formatting.
package core

import (
	"errors"
	"math"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Currency is one of the supported display currencies.
type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	JPY Currency = "JPY"
	CAD Currency = "CAD"
	AUD Currency = "AUD"
	INR Currency = "INR"

	DefaultCurrency = USD
)

var ErrUnknownCurrency = errors.New("unknown currency")

// Currencies returns the supported currencies in selector order.
func Currencies() []Currency {
	return []Currency{USD, EUR, GBP, JPY, CAD, AUD, INR}
}

// ParseCurrency converts a user supplied code into a Currency.
// Codes are matched case-insensitively after trimming spaces.
func ParseCurrency(code string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(code)))
	if !c.IsValid() {
		return "", ErrUnknownCurrency
	}
	return c, nil
}

// IsValid reports whether c is one of the supported currencies.
func (c Currency) IsValid() bool {
	switch c {
	case USD, EUR, GBP, JPY, CAD, AUD, INR:
		return true
	default:
		return false
	}
}

// Symbol returns the display symbol for the currency.
func (c Currency) Symbol() string {
	switch c {
	case USD:
		return "$"
	case EUR:
		return "€"
	case GBP:
		return "£"
	case JPY:
		return "¥"
	case CAD:
		return "C$"
	case AUD:
		return "A$"
	case INR:
		return "₹"
	default:
		return ""
	}
}

// Label returns the selector label, e.g. "USD ($)".
func (c Currency) Label() string {
	return string(c) + " (" + c.Symbol() + ")"
}

func (c Currency) String() string { return string(c) }

// MarshalText implements encoding.TextMarshaler.
func (c Currency) MarshalText() ([]byte, error) {
	return []byte(c), nil
}

// UnmarshalText implements encoding.TextUnmarshaler and rejects unknown codes.
func (c *Currency) UnmarshalText(b []byte) error {
	parsed, err := ParseCurrency(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Format renders amount with the currency symbol, thousands separators and
// exactly two decimals: 1234.5 in USD is "$1,234.50". Non-finite amounts
// render as zero.
func (c Currency) Format(amount float64) string {
	return format(amount, c.Symbol())
}

// FormatNumber renders amount with thousands separators and two decimals.
func FormatNumber(amount float64) string {
	return format(amount, "")
}

// maxMinorUnits bounds the amounts go-money can hold as int64 cents.
var maxMinorUnits = decimal.NewFromInt(math.MaxInt64)

func format(amount float64, symbol string) string {
	d := rounded(amount)
	if minor := d.Shift(2); minor.Abs().LessThanOrEqual(maxMinorUnits) {
		tmpl := "1"
		if symbol != "" {
			tmpl = "$1"
		}
		return money.NewFormatter(2, ".", ",", symbol, tmpl).Format(minor.IntPart())
	}
	return formatDecimal(d, symbol)
}

// rounded rounds amount half away from zero to hundredths.
func rounded(amount float64) decimal.Decimal {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(amount).Round(2)
}

// formatDecimal groups d's digits itself for amounts past int64 cents.
func formatDecimal(d decimal.Decimal, symbol string) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	whole, frac, _ := strings.Cut(d.StringFixed(2), ".")

	var b strings.Builder
	b.WriteString(sign)
	b.WriteString(symbol)
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}
