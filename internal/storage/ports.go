package storage

import (
	"context"

	"expensebot/internal/core"
)

// Ports implemented by the sqlite repository and the in-memory store.
type (
	// CategoryStore exposes the read-only category vocabulary.
	CategoryStore interface {
		// ListCategories returns categories in insertion order.
		ListCategories(ctx context.Context) ([]core.ExpenseCategory, error)
	}

	// ExpenseStore persists and queries expenses. Errors wrap core.ErrPersistence.
	ExpenseStore interface {
		CreateExpense(ctx context.Context, e core.NewExpense) (core.Expense, error)
		QueryExpenses(ctx context.Context, userID int64, f core.ExpenseFilter) ([]core.Expense, error)
		GetExpense(ctx context.Context, id int64) (core.Expense, error)
	}

	// HealthChecker is implemented by stores that can verify connectivity.
	HealthChecker interface {
		Ping(ctx context.Context) error
	}
)
