// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts typed into the
// entry form and for rendering them back with two decimals.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts user input to a positive decimal amount.
//
// Both dot (12.34) and comma (12,34) decimal separators are accepted. Input
// that is not a plain decimal number (letters, signs, exponents, NaN, Inf) is
// rejected with ErrNonNumericAmount; zero yields ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("abc")   -> 0, ErrNonNumericAmount
//	ParseAmount("0")     -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "+") {
		return decimal.Zero, ErrNonNumericAmount
	}
	// decimal.NewFromString also accepts exponents; a form field should not.
	if strings.Count(s, ".") > 1 || strings.IndexFunc(s, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.'
	}) >= 0 {
		return decimal.Zero, ErrNonNumericAmount
	}
	if s == "." {
		return decimal.Zero, ErrNonNumericAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrNonNumericAmount
	}
	if err := ValidateAmount(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// FormatAmount renders an amount with exactly two decimals ("150.00").
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
