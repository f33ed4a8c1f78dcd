package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"expensebot/internal/core"

	_ "modernc.org/sqlite"
)

// timeLayout is fixed width so that added_at compares correctly as TEXT.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const expenseColumns = "id, user_id, description, amount_cents, category, added_at"

var (
	_ CategoryStore = (*SQLiteRepository)(nil)
	_ ExpenseStore  = (*SQLiteRepository)(nil)
	_ HealthChecker = (*SQLiteRepository)(nil)
)

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// Migrations first, on their own connection.
	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer; one connection avoids SQLITE_BUSY under load.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func dsn(dbPath string) string {
	return "file:" + dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ListCategories implements CategoryStore
func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.ExpenseCategory, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM expense_categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%w: list categories: %w", core.ErrPersistence, err)
	}
	defer rows.Close()

	var cats []core.ExpenseCategory
	for rows.Next() {
		var c core.ExpenseCategory
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("%w: scan category: %w", core.ErrPersistence, err)
		}
		cats = append(cats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list categories: %w", core.ErrPersistence, err)
	}
	return cats, nil
}

// CreateExpense inserts one expense and returns the row as stored.
func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.NewExpense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, fmt.Errorf("%w: %w", core.ErrPersistence, err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Expense{}, fmt.Errorf("%w: begin transaction: %w", core.ErrPersistence, err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO expenses (user_id, description, amount_cents, category, added_at) VALUES (?, ?, ?, ?, ?)`,
		e.UserID, e.Description, e.Amount.Cents, e.Category, formatTime(r.now()))
	if err != nil {
		return core.Expense{}, fmt.Errorf("%w: insert expense: %w", core.ErrPersistence, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Expense{}, fmt.Errorf("%w: last insert id: %w", core.ErrPersistence, err)
	}

	saved, err := scanExpense(tx.QueryRowContext(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id))
	if err != nil {
		return core.Expense{}, fmt.Errorf("%w: read back expense %d: %w", core.ErrPersistence, id, err)
	}

	if err := tx.Commit(); err != nil {
		return core.Expense{}, fmt.Errorf("%w: commit: %w", core.ErrPersistence, err)
	}

	slog.DebugContext(ctx, "Expense saved to SQLite",
		"id", saved.ID,
		"user_id", saved.UserID,
		"amount_cents", saved.Amount.Cents,
		"category", saved.Category)

	return saved, nil
}

// GetExpense returns a single expense by id.
func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	e, err := scanExpense(r.db.QueryRowContext(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, fmt.Errorf("expense %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("%w: get expense %d: %w", core.ErrPersistence, id, err)
	}
	return e, nil
}

// QueryExpenses returns the user's expenses matching f, oldest first. Every
// filter value is bound as a parameter.
func (r *SQLiteRepository) QueryExpenses(ctx context.Context, userID int64, f core.ExpenseFilter) ([]core.Expense, error) {
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrPersistence, err)
	}

	query, args := buildExpenseQuery(userID, f)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query expenses: %w", core.ErrPersistence, err)
	}
	defer rows.Close()

	expenses := []core.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan expense: %w", core.ErrPersistence, err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: query expenses: %w", core.ErrPersistence, err)
	}
	return expenses, nil
}

func buildExpenseQuery(userID int64, f core.ExpenseFilter) (string, []any) {
	conds := []string{"user_id = ?"}
	args := []any{userID}

	if f.StartDate != nil {
		conds = append(conds, "added_at >= ?")
		args = append(args, formatTime(*f.StartDate))
	}
	if f.EndDate != nil {
		conds = append(conds, "added_at <= ?")
		args = append(args, formatTime(*f.EndDate))
	}
	if f.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, f.Category)
	}
	if f.MinAmount != nil {
		conds = append(conds, "amount_cents >= ?")
		args = append(args, f.MinAmount.Cents)
	}
	if f.MaxAmount != nil {
		conds = append(conds, "amount_cents <= ?")
		args = append(args, f.MaxAmount.Cents)
	}

	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE ` +
		strings.Join(conds, " AND ") + ` ORDER BY added_at ASC, id ASC`
	return query, args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (core.Expense, error) {
	var (
		e       core.Expense
		addedAt string
	)
	if err := row.Scan(&e.ID, &e.UserID, &e.Description, &e.Amount.Cents, &e.Category, &addedAt); err != nil {
		return core.Expense{}, err
	}
	t, err := time.Parse(timeLayout, addedAt)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse added_at %q: %w", addedAt, err)
	}
	e.AddedAt = t
	return e, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
