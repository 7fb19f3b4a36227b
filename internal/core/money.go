// Package core provides money parsing and handling utilities.
//
// This file contains the Money type and the parser for amounts typed
// at the prompt.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a currency-agnostic decimal amount.
// On disk it is a plain JSON number (12.5), never a quoted string.
type Money struct {
	decimal.Decimal
}

// NewMoney parses a decimal literal, panicking on bad input. Meant for
// constants and tests.
func NewMoney(s string) Money {
	return Money{Decimal: decimal.RequireFromString(s)}
}

// ParseAmount converts user input to a positive Money value.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and keeps
// every fractional digit the user typed. Returns ErrAmountFormat for text
// that is not a number and ErrInvalidAmount for zero or negative values.
//
// Examples:
//   ParseAmount("12.50") -> 12.5, nil
//   ParseAmount("12,34") -> 12.34, nil
//   ParseAmount("-5")    -> ErrInvalidAmount
//   ParseAmount("ten")   -> ErrAmountFormat
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrAmountFormat
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrAmountFormat
	}
	if !d.IsPositive() {
		return Money{}, ErrInvalidAmount
	}
	return Money{Decimal: d}, nil
}

func (m Money) Validate() error {
	if !m.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) Add(o Money) Money {
	return Money{Decimal: m.Decimal.Add(o.Decimal)}
}

// Equal reports whether both amounts have the same numeric value.
func (m Money) Equal(o Money) bool {
	return m.Decimal.Equal(o.Decimal)
}

// Format renders the amount with two decimals for display.
func (m Money) Format() string {
	return m.StringFixed(2)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal.String()), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	return m.Decimal.UnmarshalJSON(data)
}
