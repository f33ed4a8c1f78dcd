package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"expensebot/internal/core"
)

// EventExpenseCreated is the AMQP message type of ExpenseCreatedMessage.
const EventExpenseCreated = "expense.created"

// ExpenseCreatedMessage announces a committed expense. It carries enough to
// log and route the event; consumers re-read the row by ExpenseID.
type ExpenseCreatedMessage struct {
	EventID     string    `json:"event_id"`
	ExpenseID   int64     `json:"expense_id"`
	UserID      int64     `json:"user_id"`
	AmountCents int64     `json:"amount_cents"`
	Category    string    `json:"category"`
	AddedAt     time.Time `json:"added_at"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewExpenseCreatedMessage(e core.Expense) *ExpenseCreatedMessage {
	return &ExpenseCreatedMessage{
		EventID:     uuid.NewString(),
		ExpenseID:   e.ID,
		UserID:      e.UserID,
		AmountCents: e.Amount.Cents,
		Category:    e.Category,
		AddedAt:     e.AddedAt,
		Timestamp:   time.Now().UTC(),
	}
}

func (m *ExpenseCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseCreatedMessageFromJSON decodes and sanity-checks a message body.
func ExpenseCreatedMessageFromJSON(data []byte) (*ExpenseCreatedMessage, error) {
	var msg ExpenseCreatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ExpenseID <= 0 {
		return nil, fmt.Errorf("invalid expense_id %d", msg.ExpenseID)
	}
	return &msg, nil
}
