package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNewExpenseValidate(t *testing.T) {
	good := NewExpense{UserID: 1, Description: "coffee", Amount: Money{Cents: 450}, Category: "Food"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name string
		mut  func(*NewExpense)
		want error
	}{
		{"user", func(e *NewExpense) { e.UserID = 0 }, ErrInvalidUserID},
		{"description", func(e *NewExpense) { e.Description = "  " }, ErrEmptyDescription},
		{"amount", func(e *NewExpense) { e.Amount = Money{Cents: -1} }, ErrInvalidAmount},
		{"category", func(e *NewExpense) { e.Category = "" }, ErrEmptyCategory},
	}
	for _, tc := range cases {
		e := good
		tc.mut(&e)
		if err := e.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}

	long := good
	long.Description = strings.Repeat("x", 501)
	if err := long.Validate(); err == nil {
		t.Fatalf("expected error for long description")
	}
}

func TestCategoriesCSV(t *testing.T) {
	cats := []ExpenseCategory{{1, "Housing"}, {2, "Food"}, {3, "Other"}}
	if got := CategoriesCSV(cats); got != "Housing, Food, Other" {
		t.Fatalf("unexpected csv %q", got)
	}
	if got := CategoriesCSV(nil); got != "" {
		t.Fatalf("expected empty csv, got %q", got)
	}
}

func TestCanonicalCategory(t *testing.T) {
	vocab := []string{"Food", "Medical/Healthcare", "Other"}
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"Food", "Food", true},
		{"food", "Food", true},
		{" medical/healthcare ", "Medical/Healthcare", true},
		{"Groceries", "Groceries", false},
		{"unknown", "unknown", false},
	}
	for _, tc := range cases {
		got, ok := CanonicalCategory(tc.in, vocab)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("%q: expected (%q,%v), got (%q,%v)", tc.in, tc.want, tc.ok, got, ok)
		}
	}
}

func TestExpenseFilter(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2025, 3, d, 12, 0, 0, 0, time.UTC) }
	start, end := day(2), day(5)
	lo, hi := Money{Cents: 100}, Money{Cents: 1000}

	f := ExpenseFilter{StartDate: &start, EndDate: &end, Category: "Food", MinAmount: &lo, MaxAmount: &hi}
	if err := f.Validate(); err != nil {
		t.Fatalf("expected valid filter, got %v", err)
	}

	cases := []struct {
		e    Expense
		want bool
	}{
		{Expense{AddedAt: day(3), Category: "Food", Amount: Money{Cents: 500}}, true},
		{Expense{AddedAt: day(2), Category: "Food", Amount: Money{Cents: 100}}, true}, // inclusive bounds
		{Expense{AddedAt: day(5), Category: "Food", Amount: Money{Cents: 1000}}, true},
		{Expense{AddedAt: day(1), Category: "Food", Amount: Money{Cents: 500}}, false},
		{Expense{AddedAt: day(3), Category: "Debt", Amount: Money{Cents: 500}}, false},
		{Expense{AddedAt: day(3), Category: "Food", Amount: Money{Cents: 1001}}, false},
	}
	for i, tc := range cases {
		if got := f.Matches(tc.e); got != tc.want {
			t.Fatalf("case %d expected %v, got %v", i, tc.want, got)
		}
	}

	bad := ExpenseFilter{StartDate: &end, EndDate: &start}
	if err := bad.Validate(); !errors.Is(err, ErrInvalidDateRange) {
		t.Fatalf("expected date range error, got %v", err)
	}
	bad = ExpenseFilter{MinAmount: &hi, MaxAmount: &lo}
	if err := bad.Validate(); !errors.Is(err, ErrInvalidAmountRange) {
		t.Fatalf("expected amount range error, got %v", err)
	}
	if !(ExpenseFilter{}).IsEmpty() {
		t.Fatalf("zero filter should be empty")
	}
}

func TestParseFilterDate(t *testing.T) {
	start, err := ParseFilterDate("2025-06-15", false)
	if err != nil || !start.Equal(time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("start: got %v (err=%v)", start, err)
	}
	end, err := ParseFilterDate("2025-06-15", true)
	if err != nil || !end.Equal(time.Date(2025, 6, 15, 23, 59, 59, 999999999, time.UTC)) {
		t.Fatalf("end: got %v (err=%v)", end, err)
	}
	exact, err := ParseFilterDate("2025-06-15T10:30:00+02:00", true)
	if err != nil || !exact.Equal(time.Date(2025, 6, 15, 8, 30, 0, 0, time.UTC)) {
		t.Fatalf("rfc3339: got %v (err=%v)", exact, err)
	}
	if _, err := ParseFilterDate("15/06/2025", false); err == nil {
		t.Fatalf("expected error for non ISO date")
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(ExpenseFilter{}, []Expense{{Amount: Money{Cents: 450}}, {Amount: Money{Cents: 1235}}})
	if s.Count != 2 || s.Total.Cents != 1685 {
		t.Fatalf("unexpected summary %+v", s)
	}
	empty := Summarize(ExpenseFilter{}, nil)
	if empty.Expenses == nil || empty.Count != 0 {
		t.Fatalf("expected empty non-nil expenses")
	}
}

func TestClassificationErrorIs(t *testing.T) {
	cause := errors.New("boom")
	err := error(NewClassificationError("Could not parse AI response", cause))
	if !errors.Is(err, ErrClassification) || !errors.Is(err, cause) {
		t.Fatalf("expected error to match sentinel and cause")
	}
	var ce *ClassificationError
	if !errors.As(err, &ce) || ce.Message != "Could not parse AI response" {
		t.Fatalf("unexpected classification error %v", err)
	}
}
