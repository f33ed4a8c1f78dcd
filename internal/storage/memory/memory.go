// Package memory is a process-local expense store used for local runs and
// tests. It follows the same contracts as the sqlite repository.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"expensebot/internal/core"
	"expensebot/internal/storage"
)

var (
	_ storage.CategoryStore = (*Store)(nil)
	_ storage.ExpenseStore  = (*Store)(nil)
	_ storage.HealthChecker = (*Store)(nil)
)

type Store struct {
	mu     sync.Mutex
	cats   []core.ExpenseCategory
	items  []core.Expense
	nextID int64
	now    func() time.Time
}

// New creates a store with the given vocabulary. Duplicates and blanks are
// dropped, order is preserved.
func New(categories []string) *Store {
	names := dedupe(categories)
	cats := make([]core.ExpenseCategory, 0, len(names))
	for i, n := range names {
		cats = append(cats, core.ExpenseCategory{ID: int64(i + 1), Name: n})
	}
	return &Store{cats: cats, nextID: 1, now: time.Now}
}

// NewSeeded creates a store holding the same categories the sqlite
// migrations seed.
func NewSeeded() (*Store, error) {
	names, err := storage.SeedCategories()
	if err != nil {
		return nil, err
	}
	return New(names), nil
}

// WithClock replaces the time source used for added_at.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	return s
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) ListCategories(_ context.Context) ([]core.ExpenseCategory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.ExpenseCategory(nil), s.cats...), nil
}

func (s *Store) CreateExpense(_ context.Context, e core.NewExpense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, fmt.Errorf("%w: %w", core.ErrPersistence, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := core.Expense{
		ID:          s.nextID,
		UserID:      e.UserID,
		Description: e.Description,
		Amount:      e.Amount,
		Category:    e.Category,
		AddedAt:     s.now().UTC(),
	}
	s.nextID++
	s.items = append(s.items, saved)
	return saved, nil
}

func (s *Store) GetExpense(_ context.Context, id int64) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.items {
		if e.ID == id {
			return e, nil
		}
	}
	return core.Expense{}, fmt.Errorf("expense %d: %w", id, core.ErrNotFound)
}

func (s *Store) QueryExpenses(_ context.Context, userID int64, f core.ExpenseFilter) ([]core.Expense, error) {
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrPersistence, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []core.Expense{}
	for _, e := range s.items {
		if e.UserID == userID && f.Matches(e) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].AddedAt.Equal(out[j].AddedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].AddedAt.Before(out[j].AddedAt)
	})
	return out, nil
}

func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
