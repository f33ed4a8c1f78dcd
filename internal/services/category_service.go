package services

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"expensebot/internal/core"
	"expensebot/internal/log"
	"expensebot/internal/storage"
)

const categoriesCacheKey = "categories"

// CategoryService serves the category vocabulary, cached for a short TTL.
// Concurrent misses share a single store read.
type CategoryService struct {
	store  storage.CategoryStore
	cache  *cache.Cache
	group  singleflight.Group
	logger *log.Logger
}

// NewCategoryService creates a cached view over store. A non-positive ttl
// disables caching.
func NewCategoryService(store storage.CategoryStore, ttl time.Duration, logger *log.Logger) *CategoryService {
	if logger == nil {
		logger = log.FromContext(context.Background())
	}
	s := &CategoryService{
		store:  store,
		logger: logger.WithComponent(log.ComponentCategories),
	}
	if ttl > 0 {
		s.cache = cache.New(ttl, 2*ttl)
	}
	return s
}

// ListCategories returns every category in id order.
func (s *CategoryService) ListCategories(ctx context.Context) ([]core.ExpenseCategory, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(categoriesCacheKey); ok {
			return cloneCategories(cached.([]core.ExpenseCategory)), nil
		}
	}

	v, err, shared := s.group.Do(categoriesCacheKey, func() (any, error) {
		// A flight that finished since our miss may have filled the cache.
		if s.cache != nil {
			if cached, ok := s.cache.Get(categoriesCacheKey); ok {
				return cached, nil
			}
		}
		start := time.Now()
		cats, err := s.store.ListCategories(ctx)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			s.cache.SetDefault(categoriesCacheKey, cats)
		}
		s.logger.DebugContext(ctx, "Categories loaded",
			log.FieldResultCount, len(cats),
			log.FieldDuration, time.Since(start).Milliseconds())
		return cats, nil
	})
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if shared {
		s.logger.DebugContext(ctx, "Category load shared with concurrent caller")
	}
	return cloneCategories(v.([]core.ExpenseCategory)), nil
}

// CategoryNames returns the vocabulary names in id order.
func (s *CategoryService) CategoryNames(ctx context.Context) ([]string, error) {
	cats, err := s.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	return core.CategoryNames(cats), nil
}

// CategoriesCSV returns the names joined with ", ".
func (s *CategoryService) CategoriesCSV(ctx context.Context) (string, error) {
	cats, err := s.ListCategories(ctx)
	if err != nil {
		return "", err
	}
	return core.CategoriesCSV(cats), nil
}

// Invalidate drops the cached vocabulary.
func (s *CategoryService) Invalidate() {
	if s.cache != nil {
		s.cache.Delete(categoriesCacheKey)
	}
}

func cloneCategories(cats []core.ExpenseCategory) []core.ExpenseCategory {
	out := make([]core.ExpenseCategory, len(cats))
	copy(out, cats)
	return out
}
