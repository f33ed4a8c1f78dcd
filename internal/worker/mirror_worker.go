// Package worker consumes expense events and mirrors each recorded expense
// into a spreadsheet.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"expensebot/internal/amqp"
	"expensebot/internal/core"
	"expensebot/internal/log"
	"expensebot/internal/sheets"
	"expensebot/internal/storage"
)

type MirrorWorker struct {
	expenses storage.ExpenseStore
	mirror   sheets.Mirror
	logger   *log.Logger
}

func NewMirrorWorker(expenses storage.ExpenseStore, mirror sheets.Mirror, logger *log.Logger) *MirrorWorker {
	if logger == nil {
		logger = log.FromContext(context.Background())
	}
	return &MirrorWorker{
		expenses: expenses,
		mirror:   mirror,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// HandleExpenseCreated re-reads the expense and appends it to the mirror.
// An error makes the broker redeliver the event; rows already mirrored are
// skipped, and events for expenses that no longer exist are dropped.
func (w *MirrorWorker) HandleExpenseCreated(ctx context.Context, msg *amqp.ExpenseCreatedMessage) error {
	start := time.Now()
	logger := w.logger.With(log.FieldExpenseID, msg.ExpenseID, "event_id", msg.EventID)

	expense, err := w.expenses.GetExpense(ctx, msg.ExpenseID)
	if errors.Is(err, core.ErrNotFound) {
		logger.WarnContext(ctx, "Expense not found, dropping event")
		return nil
	}
	if err != nil {
		return fmt.Errorf("get expense from storage: %w", err)
	}

	mirrored, err := w.mirror.HasExpense(ctx, expense.ID)
	if err != nil {
		return fmt.Errorf("check mirror: %w", err)
	}
	if mirrored {
		logger.InfoContext(ctx, "Expense already mirrored, skipping")
		return nil
	}

	ref, err := w.mirror.Append(ctx, expense)
	if err != nil {
		return fmt.Errorf("append to sheets: %w", err)
	}

	logger.InfoContext(ctx, "Successfully mirrored expense",
		"sheets_ref", ref,
		log.FieldOperation, log.OpSync,
		log.FieldAmountCents, expense.Amount.Cents,
		log.FieldDuration, time.Since(start).Milliseconds())
	return nil
}

// Backfill mirrors every expense of userID matching filter that is not yet
// in the sheet. It returns the number of rows appended.
func (w *MirrorWorker) Backfill(ctx context.Context, userID int64, filter core.ExpenseFilter) (int, error) {
	rows, err := w.expenses.QueryExpenses(ctx, userID, filter)
	if err != nil {
		return 0, fmt.Errorf("query expenses: %w", err)
	}

	appended := 0
	for _, e := range rows {
		if err := ctx.Err(); err != nil {
			return appended, err
		}
		mirrored, err := w.mirror.HasExpense(ctx, e.ID)
		if err != nil {
			return appended, fmt.Errorf("check mirror: %w", err)
		}
		if mirrored {
			continue
		}
		if _, err := w.mirror.Append(ctx, e); err != nil {
			return appended, fmt.Errorf("append expense %d: %w", e.ID, err)
		}
		appended++
	}

	w.logger.InfoContext(ctx, "Backfill completed",
		log.FieldUserID, userID,
		log.FieldResultCount, len(rows),
		"appended", appended)
	return appended, nil
}
