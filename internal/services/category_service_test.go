package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"expensebot/internal/core"
	"expensebot/internal/log"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingCategoryStore struct {
	calls atomic.Int32
	delay time.Duration
	err   error
}

func (s *countingCategoryStore) ListCategories(context.Context) ([]core.ExpenseCategory, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.err != nil {
		return nil, s.err
	}
	return []core.ExpenseCategory{{ID: 1, Name: "Housing"}, {ID: 2, Name: "Food"}, {ID: 3, Name: "Other"}}, nil
}

func TestCategoryService_Caches(t *testing.T) {
	store := &countingCategoryStore{}
	svc := NewCategoryService(store, time.Minute, log.Discard())
	ctx := context.Background()

	csv, err := svc.CategoriesCSV(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Housing, Food, Other", csv)

	names, err := svc.CategoryNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Housing", "Food", "Other"}, names)
	assert.Equal(t, int32(1), store.calls.Load())

	svc.Invalidate()
	_, err = svc.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), store.calls.Load())
}

func TestCategoryService_ReturnsCopies(t *testing.T) {
	svc := NewCategoryService(&countingCategoryStore{}, time.Minute, log.Discard())

	cats, err := svc.ListCategories(context.Background())
	require.NoError(t, err)
	cats[0].Name = "Mutated"

	again, err := svc.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Housing", again[0].Name)
}

func TestCategoryService_NoCache(t *testing.T) {
	store := &countingCategoryStore{}
	svc := NewCategoryService(store, 0, log.Discard())

	for i := 0; i < 3; i++ {
		_, err := svc.ListCategories(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), store.calls.Load())
}

func TestCategoryService_ConcurrentMissesShareLoad(t *testing.T) {
	store := &countingCategoryStore{delay: 50 * time.Millisecond}
	svc := NewCategoryService(store, time.Minute, log.Discard())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cats, err := svc.ListCategories(context.Background())
			assert.NoError(t, err)
			assert.Len(t, cats, 3)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), store.calls.Load())
}

func TestCategoryService_Error(t *testing.T) {
	store := &countingCategoryStore{err: errors.New("no such table")}
	svc := NewCategoryService(store, time.Minute, log.Discard())

	_, err := svc.CategoriesCSV(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list categories")

	store.err = nil
	csv, err := svc.CategoriesCSV(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, csv)
}
