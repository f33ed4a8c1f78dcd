// Package sheets defines the spreadsheet mirror of recorded expenses.
package sheets

import (
	"context"

	"expensebot/internal/core"
)

// Ports for outbound adapters.
type (
	// ExpenseWriter appends one row per expense.
	ExpenseWriter interface {
		Append(ctx context.Context, e core.Expense) (rowRef string, err error)
	}

	// ExpenseIndex reports whether an expense was already mirrored, so
	// redelivered events do not produce duplicate rows.
	ExpenseIndex interface {
		HasExpense(ctx context.Context, id int64) (bool, error)
	}

	Mirror interface {
		ExpenseWriter
		ExpenseIndex
	}
)

// Header is the first row of a mirror sheet.
var Header = []string{"ID", "Added at", "User", "Description", "Amount", "Category"}

// Row renders e in Header order.
func Row(e core.Expense) []any {
	return []any{
		e.ID,
		e.AddedAt.UTC().Format("2006-01-02 15:04:05"),
		e.UserID,
		e.Description,
		e.Amount.String(),
		e.Category,
	}
}
