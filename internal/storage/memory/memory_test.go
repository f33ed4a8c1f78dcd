package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"expensebot/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDedupesAndKeepsOrder(t *testing.T) {
	s := New([]string{"Food", " ", "Housing", "Food", "Other"})
	cats, err := s.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Food", "Housing", "Other"}, core.CategoryNames(cats))
	assert.Equal(t, int64(1), cats[0].ID)
}

func TestNewSeeded(t *testing.T) {
	s, err := NewSeeded()
	require.NoError(t, err)
	cats, err := s.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, 11)
	assert.Equal(t, "Housing", cats[0].Name)
	assert.Equal(t, "Other", cats[10].Name)
}

func TestCreateAndQuery(t *testing.T) {
	base := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)
	tick := 0
	s := New([]string{"Food"}).WithClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Hour)
	})
	ctx := context.Background()

	first, err := s.CreateExpense(ctx, core.NewExpense{UserID: 1, Description: "a", Amount: core.Money{Cents: 100}, Category: "Food"})
	require.NoError(t, err)
	_, err = s.CreateExpense(ctx, core.NewExpense{UserID: 2, Description: "b", Amount: core.Money{Cents: 200}, Category: "Food"})
	require.NoError(t, err)
	_, err = s.CreateExpense(ctx, core.NewExpense{UserID: 1, Description: "c", Amount: core.Money{Cents: 300}, Category: "Food"})
	require.NoError(t, err)

	got, err := s.GetExpense(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first, got)

	floor := core.Money{Cents: 150}
	rows, err := s.QueryExpenses(ctx, 1, core.ExpenseFilter{MinAmount: &floor})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "c", rows[0].Description)

	all, err := s.QueryExpenses(ctx, 1, core.ExpenseFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.True(t, all[0].AddedAt.Before(all[1].AddedAt))
}

func TestCreateInvalid(t *testing.T) {
	s := New([]string{"Food"})
	_, err := s.CreateExpense(context.Background(), core.NewExpense{UserID: 0, Description: "a", Category: "Food"})
	assert.ErrorIs(t, err, core.ErrPersistence)

	_, err = s.GetExpense(context.Background(), 1)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestConcurrentCreatesGetDistinctIDs(t *testing.T) {
	s := New([]string{"Food"})
	var wg sync.WaitGroup
	ids := make(chan int64, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e, err := s.CreateExpense(context.Background(), core.NewExpense{UserID: 1, Description: "x", Amount: core.Money{Cents: 1}, Category: "Food"})
			if err == nil {
				ids <- e.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[int64]bool{}
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, 50)
}
