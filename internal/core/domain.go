package core

import (
	"errors"
	"strings"
	"time"
)

const (
	// UnknownCategory is the sentinel the model may return when it cannot
	// pick a category. It is persisted as-is.
	UnknownCategory = "unknown"

	// DefaultFallbackCategory replaces any category outside the vocabulary.
	DefaultFallbackCategory = "Other"

	maxDescriptionLength = 500
)

type (
	ExpenseCategory struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}

	Expense struct {
		ID          int64     `json:"id"`
		UserID      int64     `json:"user_id"`
		Description string    `json:"description"`
		Amount      Money     `json:"amount"`
		Category    string    `json:"category"`
		AddedAt     time.Time `json:"added_at"`
	}

	// NewExpense is the input to an expense insert. ID and AddedAt are
	// assigned by the store.
	NewExpense struct {
		UserID      int64
		Description string
		Amount      Money
		Category    string
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidUserID      = errors.New("invalid user id")
	ErrEmptyDescription   = errors.New("empty description")
	ErrEmptyCategory      = errors.New("empty category")
	ErrInvalidDateRange   = errors.New("start date after end date")
	ErrInvalidAmountRange = errors.New("min amount greater than max amount")
)

func (e NewExpense) Validate() error {
	if e.UserID <= 0 {
		return ErrInvalidUserID
	}
	if strings.TrimSpace(e.Description) == "" {
		return ErrEmptyDescription
	}
	if len(e.Description) > maxDescriptionLength {
		return errors.New("description too long (max 500 characters)")
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

// CategoryNames returns the names of cats, preserving order.
func CategoryNames(cats []ExpenseCategory) []string {
	names := make([]string, 0, len(cats))
	for _, c := range cats {
		names = append(names, c.Name)
	}
	return names
}

// CategoriesCSV joins category names with ", " in the given order.
func CategoriesCSV(cats []ExpenseCategory) string {
	return strings.Join(CategoryNames(cats), ", ")
}

// CanonicalCategory maps name onto the vocabulary. Exact matches win, then
// case-insensitive ones. The second return value is false when name is not
// part of the vocabulary.
func CanonicalCategory(name string, vocabulary []string) (string, bool) {
	name = strings.TrimSpace(name)
	for _, v := range vocabulary {
		if v == name {
			return v, true
		}
	}
	for _, v := range vocabulary {
		if strings.EqualFold(v, name) {
			return v, true
		}
	}
	return name, false
}
