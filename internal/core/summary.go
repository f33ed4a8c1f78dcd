package core

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar date format used by filters and prompts.
const DateLayout = "2006-01-02"

// ParseFilterDate accepts YYYY-MM-DD or RFC 3339. A bare date used as an
// upper bound covers the whole day.
func ParseFilterDate(s string, endOfDay bool) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("want YYYY-MM-DD, got %q", s)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

// ExpenseFilter is a declarative expense query. Every set field narrows the
// result; unset fields are ignored.
type ExpenseFilter struct {
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	Category  string     `json:"category,omitempty"`
	MinAmount *Money     `json:"min_amount,omitempty"`
	MaxAmount *Money     `json:"max_amount,omitempty"`
}

func (f ExpenseFilter) Validate() error {
	if f.StartDate != nil && f.EndDate != nil && f.StartDate.After(*f.EndDate) {
		return ErrInvalidDateRange
	}
	if f.MinAmount != nil {
		if err := f.MinAmount.Validate(); err != nil {
			return err
		}
	}
	if f.MaxAmount != nil {
		if err := f.MaxAmount.Validate(); err != nil {
			return err
		}
	}
	if f.MinAmount != nil && f.MaxAmount != nil && f.MinAmount.Cents > f.MaxAmount.Cents {
		return ErrInvalidAmountRange
	}
	return nil
}

// IsEmpty reports whether the filter matches every expense.
func (f ExpenseFilter) IsEmpty() bool {
	return f.StartDate == nil && f.EndDate == nil && strings.TrimSpace(f.Category) == "" &&
		f.MinAmount == nil && f.MaxAmount == nil
}

// Matches applies the filter to a single expense. Bounds are inclusive.
func (f ExpenseFilter) Matches(e Expense) bool {
	if f.StartDate != nil && e.AddedAt.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && e.AddedAt.After(*f.EndDate) {
		return false
	}
	if f.Category != "" && e.Category != f.Category {
		return false
	}
	if f.MinAmount != nil && e.Amount.Cents < f.MinAmount.Cents {
		return false
	}
	if f.MaxAmount != nil && e.Amount.Cents > f.MaxAmount.Cents {
		return false
	}
	return true
}

// ExpenseSummary is the result of a summary query.
type ExpenseSummary struct {
	Filter   ExpenseFilter `json:"filter"`
	Total    Money         `json:"total"`
	Count    int           `json:"count"`
	Expenses []Expense     `json:"expenses"`
}

// Summarize totals expenses that were already selected by filter.
func Summarize(filter ExpenseFilter, expenses []Expense) ExpenseSummary {
	if expenses == nil {
		expenses = []Expense{}
	}
	var total Money
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return ExpenseSummary{
		Filter:   filter,
		Total:    total,
		Count:    len(expenses),
		Expenses: expenses,
	}
}
