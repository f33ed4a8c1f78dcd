package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensebot/internal/config"
	"expensebot/internal/core"
	"expensebot/internal/log"
)

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	require.Error(t, err)

	_, err = FromAppConfig(&config.Config{DataBackend: "sheets"})
	require.Error(t, err)

	cfg, err := FromAppConfig(&config.Config{DataBackend: "sqlite", SQLiteDBPath: "/tmp/x.db"})
	require.NoError(t, err)
	assert.Equal(t, SQLiteBackend, cfg.Type)
	assert.Equal(t, "/tmp/x.db", cfg.SQLiteDBPath)

	cfg, err = FromAppConfig(&config.Config{DataBackend: " Memory "})
	require.NoError(t, err)
	assert.Equal(t, MemoryBackend, cfg.Type)
}

func TestConfig_Validate(t *testing.T) {
	assert.Error(t, Config{Type: "postgres"}.Validate())
	assert.Error(t, Config{Type: SQLiteBackend}.Validate())
	assert.NoError(t, Config{Type: MemoryBackend}.Validate())
	assert.Equal(t, []string{"sqlite", "memory"}, GetBackendTypeStrings())
}

func TestCreateBackend(t *testing.T) {
	factory := NewFactory(log.Discard())

	for _, cfg := range []Config{
		{Type: MemoryBackend},
		{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "nested", "expenses.db")},
	} {
		t.Run(cfg.Type.String(), func(t *testing.T) {
			ctx := context.Background()
			result, err := factory.CreateBackend(ctx, cfg)
			require.NoError(t, err)
			defer func() { assert.NoError(t, result.Close()) }()

			require.NoError(t, result.Store.Ping(ctx))

			cats, err := result.Store.ListCategories(ctx)
			require.NoError(t, err)
			assert.Equal(t, "Housing, Transportation, Food, Utilities, Insurance, Medical/Healthcare, Savings, Debt, Education, Entertainment, Other",
				core.CategoriesCSV(cats))

			saved, err := result.Store.CreateExpense(ctx, core.NewExpense{
				UserID: 1, Description: "Bought coffee", Amount: core.Money{Cents: 450}, Category: "Food",
			})
			require.NoError(t, err)
			got, err := result.Store.GetExpense(ctx, saved.ID)
			require.NoError(t, err)
			assert.Equal(t, saved.Amount, got.Amount)
		})
	}
}
