package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"expensebot/internal/core"
	"expensebot/internal/log"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClassifier(client Client, opts ...Option) *Classifier {
	opts = append([]Option{
		WithClock(func() time.Time { return testNow }),
		WithLogger(log.Discard()),
	}, opts...)
	return NewClassifier(client, opts...)
}

func TestClassifier_Expense(t *testing.T) {
	stub := &stubClient{content: `{"type":"expense","amount":4.50,"category":"Food","description":"Bought coffee"}`}
	c := newTestClassifier(stub)

	got, err := c.Classify(context.Background(), "I bought coffee for 4.50", testVocabulary)
	require.NoError(t, err)
	require.Equal(t, core.MessageTypeExpense, got.Type)
	assert.Equal(t, int64(450), got.Expense.Amount.Cents)
	assert.Equal(t, "Food", got.Expense.Category)
	assert.Equal(t, "Bought coffee", got.Expense.Description)

	assert.Equal(t, 1, stub.calls)
	assert.Equal(t, "I bought coffee for 4.50", stub.message)
	assert.Contains(t, stub.prompt, "Housing, Transportation, Food")
	assert.Contains(t, stub.prompt, "2025-06-15")
}

func TestClassifier_Summary(t *testing.T) {
	stub := &stubClient{content: `{"type":"summary","filter":{"last_days":7}}`}
	c := newTestClassifier(stub)

	got, err := c.Classify(context.Background(), "How much did I spend last week?", testVocabulary)
	require.NoError(t, err)
	require.Equal(t, core.MessageTypeSummary, got.Type)
	require.NotNil(t, got.Filter.StartDate)
	assert.Equal(t, testNow.AddDate(0, 0, -7), *got.Filter.StartDate)
}

func TestClassifier_FallbackCategory(t *testing.T) {
	stub := &stubClient{content: `{"type":"expense","amount":10,"category":"Pets","description":"Dog food"}`}

	got, err := newTestClassifier(stub).Classify(context.Background(), "dog food 10", testVocabulary)
	require.NoError(t, err)
	assert.Equal(t, "Other", got.Expense.Category)

	got, err = newTestClassifier(stub, WithFallbackCategory("Savings")).Classify(context.Background(), "dog food 10", testVocabulary)
	require.NoError(t, err)
	assert.Equal(t, "Savings", got.Expense.Category)

	got, err = newTestClassifier(stub, WithFallbackCategory("  ")).Classify(context.Background(), "dog food 10", testVocabulary)
	require.NoError(t, err)
	assert.Equal(t, "Other", got.Expense.Category)
}

func TestClassifier_Failures(t *testing.T) {
	transportErr := errors.New("OpenAI API error (status 500): boom")

	tests := []struct {
		name    string
		stub    *stubClient
		wantMsg string
		wantErr error
	}{
		{
			name:    "transport error surfaces its message",
			stub:    &stubClient{err: transportErr},
			wantMsg: transportErr.Error(),
			wantErr: transportErr,
		},
		{
			name:    "malformed answer",
			stub:    &stubClient{content: "blah"},
			wantMsg: MsgUnparsable,
		},
		{
			name:    "incomplete expense",
			stub:    &stubClient{content: `{"type":"expense","amount":3}`},
			wantMsg: MsgInvalidExpense,
		},
		{
			name:    "bad summary filter",
			stub:    &stubClient{content: `{"type":"summary","filter":{"end_date":"yesterday-ish"}}`},
			wantMsg: MsgInvalidSummary,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestClassifier(tt.stub).Classify(context.Background(), "msg", testVocabulary)
			require.Error(t, err)
			assert.ErrorIs(t, err, core.ErrClassification)
			assert.Equal(t, tt.wantMsg, classificationMessage(t, err))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Equal(t, 1, tt.stub.calls)
		})
	}
}

func TestErrorCause(t *testing.T) {
	cause := errors.New("unexpected end of JSON input")
	assert.Equal(t, cause.Error(), errorCause(core.NewClassificationError(MsgUnparsable, cause)))
	assert.Empty(t, errorCause(errors.New("plain")))
}
