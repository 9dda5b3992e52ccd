package core

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// Validation error codes.
const (
	CodeInvalidType = "invalid_type"
	CodeTooSmall    = "too_small"
	CodeInvalidEnum = "invalid_enum_value"
	CodeNotFinite   = "not_finite"
)

type (
	// NetWorthCalculation is an immutable server-side snapshot.
	NetWorthCalculation struct {
		ID               string      `json:"id"`
		UserID           string      `json:"userId,omitempty"`
		Currency         Currency    `json:"currency"`
		Assets           Assets      `json:"assets"`
		Liabilities      Liabilities `json:"liabilities"`
		TotalAssets      float64     `json:"totalAssets"`
		TotalLiabilities float64     `json:"totalLiabilities"`
		NetWorth         float64     `json:"netWorth"`
		CreatedAt        time.Time   `json:"createdAt"`
		UpdatedAt        time.Time   `json:"updatedAt"`
	}

	// NewCalculation is the payload accepted by the save endpoint.
	NewCalculation struct {
		UserID           string      `json:"userId,omitempty"`
		Currency         Currency    `json:"currency"`
		Assets           Assets      `json:"assets"`
		Liabilities      Liabilities `json:"liabilities"`
		TotalAssets      float64     `json:"totalAssets"`
		TotalLiabilities float64     `json:"totalLiabilities"`
		NetWorth         float64     `json:"netWorth"`
	}

	// FieldError describes one schema violation.
	FieldError struct {
		Path    []string `json:"path"`
		Message string   `json:"message"`
		Code    string   `json:"code"`
	}

	// ValidationErrors collects every violation found in a payload.
	ValidationErrors []FieldError
)

var ErrNotFound = errors.New("net worth calculation not found")

func (v ValidationErrors) Error() string {
	parts := make([]string, len(v))
	for i, e := range v {
		parts[i] = strings.Join(e.Path, ".") + ": " + e.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// DebtToAssetRatio derives the ratio from the stored totals.
func (c NetWorthCalculation) DebtToAssetRatio() int {
	return DebtToAssetRatio(c.TotalAssets, c.TotalLiabilities)
}

// Stamp turns a validated payload into a stored record.
func (n NewCalculation) Stamp(id string, now time.Time) NetWorthCalculation {
	return NetWorthCalculation{
		ID:               id,
		UserID:           n.UserID,
		Currency:         n.Currency,
		Assets:           n.Assets,
		Liabilities:      n.Liabilities,
		TotalAssets:      n.TotalAssets,
		TotalLiabilities: n.TotalLiabilities,
		NetWorth:         n.NetWorth,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// Validate applies the strict server policy: known currency, every record
// field finite and non-negative, totals finite.
func (n NewCalculation) Validate() error {
	var errs ValidationErrors
	if !n.Currency.IsValid() {
		errs = append(errs, currencyError(string(n.Currency)))
	}
	errs = append(errs, validateRecord(n.Assets, AssetFields, "assets")...)
	errs = append(errs, validateRecord(n.Liabilities, LiabilityFields, "liabilities")...)
	for _, t := range []struct {
		key string
		v   float64
	}{
		{"totalAssets", n.TotalAssets},
		{"totalLiabilities", n.TotalLiabilities},
		{"netWorth", n.NetWorth},
	} {
		if math.IsNaN(t.v) || math.IsInf(t.v, 0) {
			errs = append(errs, FieldError{Path: []string{t.key}, Message: "Number must be finite", Code: CodeNotFinite})
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ParseNewCalculation builds a NewCalculation from a decoded JSON object,
// reporting type errors and range errors together. Missing record fields
// and totals default to 0, a missing currency to USD. Unknown keys are
// ignored.
func ParseNewCalculation(doc map[string]any) (NewCalculation, error) {
	n := NewCalculation{Currency: DefaultCurrency}
	var errs ValidationErrors

	switch v := doc["userId"].(type) {
	case nil:
	case string:
		n.UserID = strings.TrimSpace(v)
	default:
		errs = append(errs, typeError([]string{"userId"}, "string", v))
	}

	switch v := doc["currency"].(type) {
	case nil:
	case string:
		c, err := ParseCurrency(v)
		if err != nil {
			errs = append(errs, currencyError(v))
		} else {
			n.Currency = c
		}
	default:
		errs = append(errs, typeError([]string{"currency"}, "string", v))
	}

	var recErrs ValidationErrors
	n.Assets, recErrs = parseRecord(doc, "assets", AssetFields)
	errs = append(errs, recErrs...)
	n.Liabilities, recErrs = parseRecord(doc, "liabilities", LiabilityFields)
	errs = append(errs, recErrs...)

	for _, t := range []struct {
		key string
		dst *float64
	}{
		{"totalAssets", &n.TotalAssets},
		{"totalLiabilities", &n.TotalLiabilities},
		{"netWorth", &n.NetWorth},
	} {
		switch v := doc[t.key].(type) {
		case nil:
		case float64:
			*t.dst = v
		default:
			errs = append(errs, typeError([]string{t.key}, "number", v))
		}
	}

	if err := n.Validate(); err != nil {
		var ve ValidationErrors
		if errors.As(err, &ve) {
			errs = append(errs, dropDuplicates(ve, errs)...)
		}
	}
	if len(errs) > 0 {
		return n, errs
	}
	return n, nil
}

func parseRecord[T any](doc map[string]any, key string, fields []Field[T]) (T, ValidationErrors) {
	var rec T
	raw, present := doc[key]
	if !present || raw == nil {
		return rec, ValidationErrors{{Path: []string{key}, Message: "Required", Code: CodeInvalidType}}
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return rec, ValidationErrors{typeError([]string{key}, "object", raw)}
	}
	var errs ValidationErrors
	for _, f := range fields {
		switch v := obj[f.Key].(type) {
		case nil:
		case float64:
			f.Set(&rec, v)
		default:
			errs = append(errs, typeError([]string{key, f.Key}, "number", v))
		}
	}
	return rec, errs
}

func validateRecord[T any](rec T, fields []Field[T], key string) ValidationErrors {
	var errs ValidationErrors
	for _, f := range fields {
		v := f.Get(rec)
		switch {
		case math.IsNaN(v) || math.IsInf(v, 0):
			errs = append(errs, FieldError{Path: []string{key, f.Key}, Message: "Number must be finite", Code: CodeNotFinite})
		case v < 0:
			errs = append(errs, FieldError{Path: []string{key, f.Key}, Message: "Number must be greater than or equal to 0", Code: CodeTooSmall})
		}
	}
	return errs
}

func currencyError(got string) FieldError {
	codes := make([]string, 0, len(Currencies()))
	for _, c := range Currencies() {
		codes = append(codes, string(c))
	}
	return FieldError{
		Path:    []string{"currency"},
		Message: fmt.Sprintf("Invalid currency '%s', expected one of %s", got, strings.Join(codes, ", ")),
		Code:    CodeInvalidEnum,
	}
}

func typeError(path []string, expected string, got any) FieldError {
	return FieldError{
		Path:    path,
		Message: fmt.Sprintf("Expected %s, received %s", expected, jsonTypeName(got)),
		Code:    CodeInvalidType,
	}
}

func jsonTypeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// dropDuplicates removes entries of add whose path already appears in have.
func dropDuplicates(add, have ValidationErrors) ValidationErrors {
	seen := make(map[string]struct{}, len(have))
	for _, e := range have {
		seen[strings.Join(e.Path, ".")] = struct{}{}
	}
	out := make(ValidationErrors, 0, len(add))
	for _, e := range add {
		if _, ok := seen[strings.Join(e.Path, ".")]; ok {
			continue
		}
		out = append(out, e)
	}
	return out
}
