// Package core holds the expense domain types shared by storage, the
// classifier and the HTTP layer.
//
// Amounts are kept as integer cents. Parsing goes through shopspring/decimal
// so that no binary floating point value ever reaches the store.
package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a non-negative amount expressed in cents.
type Money struct {
	Cents int64
}

var (
	maxMoney = decimal.New(1<<63-1, -2)

	// Plain decimal notation: no sign, no exponent.
	moneyPattern = regexp.MustCompile(`^\d{1,17}(\.\d{1,20})?$`)
)

// maxScale bounds the exponent accepted by MoneyFromDecimal.
const maxScale = 20

// MoneyFromDecimal rounds d half-up to two decimal places.
//
// Examples:
//
//	MoneyFromDecimal(4.5)    -> 450
//	MoneyFromDecimal(12.345) -> 1235
//	MoneyFromDecimal(12.344) -> 1234
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	if d.IsNegative() || d.Exponent() < -maxScale || d.Exponent() > maxScale {
		return Money{}, ErrInvalidAmount
	}
	// Round is half away from zero, which equals half-up for non-negative values.
	d = d.Round(2)
	if d.GreaterThan(maxMoney) {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: d.Shift(2).IntPart()}, nil
}

// ParseMoney parses a decimal string such as "12.34" or "12,34". Signs and
// exponents are rejected.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if !moneyPattern.MatchString(s) {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return MoneyFromDecimal(d)
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Decimal returns the amount as an exact decimal.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// String renders the amount with exactly two fractional digits.
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// MarshalJSON encodes the amount as a JSON number with two decimals (4.50).
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts either a JSON number or a numeric string.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return fmt.Errorf("amount: %w", ErrInvalidAmount)
	}
	var s string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	} else {
		s = string(data)
	}
	parsed, err := ParseMoney(s)
	if err != nil {
		return fmt.Errorf("amount %q: %w", s, err)
	}
	*m = parsed
	return nil
}
