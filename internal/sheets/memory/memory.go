// Package memory is an in-process sheet mirror for local runs and tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"expensebot/internal/core"
	ports "expensebot/internal/sheets"
)

var _ ports.Mirror = (*Store)(nil)

type Store struct {
	mu   sync.Mutex
	rows [][]any
	ids  map[int64]struct{}
}

func New() *Store {
	return &Store{ids: map[int64]struct{}{}}
}

// Append stores the expense row and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, e core.Expense) (string, error) {
	if e.ID <= 0 {
		return "", fmt.Errorf("invalid expense id %d", e.ID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, ports.Row(e))
	s.ids[e.ID] = struct{}{}
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

func (s *Store) HasExpense(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok, nil
}

// Rows returns a copy of everything appended so far.
func (s *Store) Rows() [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]any, len(s.rows))
	for i, r := range s.rows {
		out[i] = append([]any(nil), r...)
	}
	return out
}
