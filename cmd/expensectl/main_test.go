package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensebot/internal/core"
)

// fakeOpenAI answers every chat completion with content.
func fakeOpenAI(t *testing.T, content string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": content}}},
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func setupEnv(t *testing.T, llmURL string) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "data", "expenses.db")
	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv("SQLITE_DB_PATH", "")
	t.Setenv("AMQP_URL", "")
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("LLM_BASE_URL", llmURL)
	t.Setenv("LOG_LEVEL", "error")
	return dbPath
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestMigrateAndListCategories(t *testing.T) {
	dbPath := setupEnv(t, "")

	out, err := run(t, "migrate", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Schema version: 2 (clean)")

	out, err = run(t, "migrate", "--status", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Schema version: 2")

	out, err = run(t, "categories", "list", "--csv", "--db", dbPath)
	require.NoError(t, err)
	assert.Equal(t, "Housing, Transportation, Food, Utilities, Insurance, Medical/Healthcare, Savings, Debt, Education, Entertainment, Other\n", out)

	out, err = run(t, "categories", "list", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Medical/Healthcare")
}

func TestMigrateRejectsMemoryBackend(t *testing.T) {
	setupEnv(t, "")
	_, err := run(t, "migrate", "--backend", "memory")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlite")
}

func TestAnalyzeThenList(t *testing.T) {
	server := fakeOpenAI(t, "```json\n{\"type\":\"expense\",\"amount\":4.5,\"category\":\"food\",\"description\":\"Bought coffee\"}\n```")
	dbPath := setupEnv(t, server.URL)

	out, err := run(t, "analyze", "--db", dbPath, "--user", "7", "Bought", "coffee", "for", "4.50")
	require.NoError(t, err)
	assert.Equal(t, "Recorded expense #1 4.50 Bought coffee (Food)\n", out)

	out, err = run(t, "expenses", "list", "--db", dbPath, "--user", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "Bought coffee")
	assert.Contains(t, out, "Total: 4.50 across 1 expenses")

	out, err = run(t, "expenses", "list", "--db", dbPath, "--user", "7", "--category", "Food", "--json")
	require.NoError(t, err)
	var summary core.ExpenseSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, 1, summary.Count)
	assert.Equal(t, int64(450), summary.Total.Cents)

	out, err = run(t, "expenses", "list", "--db", dbPath, "--user", "8")
	require.NoError(t, err)
	assert.Contains(t, out, "No expenses recorded.")

	out, err = run(t, "expenses", "list", "--db", dbPath, "--user", "7", "--category", "Debt")
	require.NoError(t, err)
	assert.Contains(t, out, "No expenses match.")
}

func TestAnalyzeReportsClassifierFailure(t *testing.T) {
	server := fakeOpenAI(t, "sorry, no idea")
	dbPath := setupEnv(t, server.URL)

	out, err := run(t, "analyze", "--db", dbPath, "--user", "7", "hello")
	require.NoError(t, err)
	assert.Contains(t, out, "Could not parse AI response")
}

func TestAnalyzeRequiresAPIKey(t *testing.T) {
	dbPath := setupEnv(t, "")
	t.Setenv("OPENAI_API_KEY", "")

	_, err := run(t, "analyze", "--db", dbPath, "--user", "7", "coffee 3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}

func TestExpensesListFlagErrors(t *testing.T) {
	dbPath := setupEnv(t, "")

	_, err := run(t, "expenses", "list", "--db", dbPath)
	assert.ErrorContains(t, err, "required flag")

	_, err = run(t, "expenses", "list", "--db", dbPath, "--user", "1", "--from", "2025-01-01", "--last-days", "3")
	assert.Error(t, err)

	_, err = run(t, "expenses", "list", "--db", dbPath, "--user", "1", "--min", "abc")
	assert.ErrorContains(t, err, "--min")
}

func TestFilterFlagsBuild(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

	f := filterFlags{userID: 7, to: "2025-06-14", category: " Food ", min: "1.5", lastDays: 7}
	filter, err := f.build(now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 8, 10, 0, 0, 0, time.UTC), *filter.StartDate)
	assert.Equal(t, time.Date(2025, 6, 14, 23, 59, 59, 999999999, time.UTC), *filter.EndDate)
	assert.Equal(t, "Food", filter.Category)
	assert.Equal(t, int64(150), filter.MinAmount.Cents)
	assert.Nil(t, filter.MaxAmount)

	_, err = (&filterFlags{userID: 0}).build(now)
	assert.Error(t, err)

	_, err = (&filterFlags{userID: 1, min: "9", max: "3"}).build(now)
	assert.ErrorIs(t, err, core.ErrInvalidAmountRange)
}
