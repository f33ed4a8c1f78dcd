package core

import "time"

type MessageType string

const (
	MessageTypeExpense MessageType = "expense"
	MessageTypeSummary MessageType = "summary"
	MessageTypeError   MessageType = "error"
)

// Classification is the validated answer of the classifier. Exactly one of
// Expense and Filter is set, according to Type.
type Classification struct {
	Type    MessageType
	Expense *ExpenseDraft
	Filter  *ExpenseFilter
}

// ExpenseDraft is an expense extracted from a message, not yet persisted.
type ExpenseDraft struct {
	Amount      Money
	Category    string
	Description string
}

// MessageResponse is the outcome of analyzing one message.
type MessageResponse struct {
	Type  MessageType `json:"type"`
	Data  any         `json:"data"`
	Error string      `json:"error,omitempty"`
}

// ExpenseData is the data payload of an expense response.
type ExpenseData struct {
	ID          int64     `json:"id"`
	Amount      Money     `json:"amount"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	AddedAt     time.Time `json:"added_at"`
}

func NewExpenseResponse(e Expense) MessageResponse {
	return MessageResponse{
		Type: MessageTypeExpense,
		Data: ExpenseData{
			ID:          e.ID,
			Amount:      e.Amount,
			Category:    e.Category,
			Description: e.Description,
			AddedAt:     e.AddedAt,
		},
	}
}

func NewSummaryResponse(s ExpenseSummary) MessageResponse {
	return MessageResponse{Type: MessageTypeSummary, Data: s}
}

func NewErrorResponse(msg string) MessageResponse {
	return MessageResponse{Type: MessageTypeError, Error: msg}
}
