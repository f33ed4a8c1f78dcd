package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseMoney(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"0", 0, true},
		{"4.5", 450, true},
		{"12.345", 1235, true}, // half-up
		{"12.344", 1234, true},
		{"1.005", 101, true},
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"99999999999999999999999", 0, false},
		{"1e2", 0, false},
		{"1E2", 0, false},
		{".5", 0, false},
		{"1.000000000000000000001", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseMoney(tc.in)
		if tc.ok {
			if err != nil || got.Cents != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Cents, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestParseMoney_RejectsExponentsWithoutExpanding(t *testing.T) {
	for _, in := range []string{"1e-100000000", "1e10000000", "1E-100000000"} {
		start := time.Now()
		_, err := ParseMoney(in)
		if !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("%q: expected ErrInvalidAmount, got %v", in, err)
		}
		if took := time.Since(start); took > time.Second {
			t.Fatalf("%q: took %s", in, took)
		}
	}

	var m Money
	if err := json.Unmarshal([]byte(`1e-100000000`), &m); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("json exponent: expected ErrInvalidAmount, got %v", err)
	}
	if _, err := MoneyFromDecimal(decimal.New(1, -100000000)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("tiny exponent: expected ErrInvalidAmount, got %v", err)
	}
	if _, err := MoneyFromDecimal(decimal.New(1, 10000000)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("huge exponent: expected ErrInvalidAmount, got %v", err)
	}
}

func TestMoneyFromDecimal(t *testing.T) {
	m, err := MoneyFromDecimal(decimal.RequireFromString("12.345"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Cents != 1235 || m.String() != "12.35" {
		t.Fatalf("expected 12.35, got %s", m)
	}
	if _, err := MoneyFromDecimal(decimal.RequireFromString("-0.01")); err == nil {
		t.Fatalf("expected error for negative amount")
	}
}

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		Amount Money `json:"amount"`
	}{Money{Cents: 450}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"amount":4.50}` {
		t.Fatalf("unexpected json %s", b)
	}

	for _, in := range []string{`4.5`, `"4.5"`, `"4,50"`} {
		var m Money
		if err := json.Unmarshal([]byte(in), &m); err != nil {
			t.Fatalf("%s: %v", in, err)
		}
		if m.Cents != 450 {
			t.Fatalf("%s: expected 450, got %d", in, m.Cents)
		}
	}

	var m Money
	if err := json.Unmarshal([]byte(`null`), &m); err == nil {
		t.Fatalf("expected error for null amount")
	}
}
