package ai

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"expensebot/internal/core"
)

// Messages returned to the caller when the model answer is unusable.
const (
	MsgUnparsable     = "Could not parse AI response"
	MsgInvalidExpense = "Could not analyze message as expense"
	MsgInvalidSummary = "Could not analyze message as summary request"
)

const maxLastDays = 3660

var errMissingField = errors.New("missing field")

type rawAnswer struct {
	Type        string          `json:"type"`
	Amount      json.RawMessage `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Filter      *rawFilter      `json:"filter"`
}

type rawFilter struct {
	StartDate string          `json:"start_date"`
	EndDate   string          `json:"end_date"`
	Category  string          `json:"category"`
	MinAmount json.RawMessage `json:"min_amount"`
	MaxAmount json.RawMessage `json:"max_amount"`
	LastDays  *int            `json:"last_days"`
}

// parser validates and repairs model answers.
type parser struct {
	vocabulary []string
	fallback   string
	now        time.Time
}

func (p parser) parse(content string) (core.Classification, error) {
	content = cleanMarkdownWrapper(content)

	var value json.RawMessage
	if err := json.NewDecoder(strings.NewReader(content)).Decode(&value); err != nil {
		return core.Classification{}, core.NewClassificationError(MsgUnparsable, err)
	}
	if value[0] != '{' {
		return core.Classification{}, core.NewClassificationError(MsgInvalidExpense,
			fmt.Errorf("answer is not a JSON object: %.40s", value))
	}
	var raw rawAnswer
	if err := json.Unmarshal(value, &raw); err != nil {
		return core.Classification{}, core.NewClassificationError(shapeMessage(value), err)
	}

	kind := strings.ToLower(strings.TrimSpace(raw.Type))
	if kind == string(core.MessageTypeSummary) || (kind == "" && raw.Filter != nil) {
		filter, err := p.parseFilter(raw.Filter)
		if err != nil {
			return core.Classification{}, core.NewClassificationError(MsgInvalidSummary, err)
		}
		return core.Classification{Type: core.MessageTypeSummary, Filter: &filter}, nil
	}

	draft, err := p.parseExpense(raw)
	if err != nil {
		return core.Classification{}, core.NewClassificationError(MsgInvalidExpense, err)
	}
	return core.Classification{Type: core.MessageTypeExpense, Expense: &draft}, nil
}

// shapeMessage picks the failure message for an object whose fields have
// the wrong types.
func shapeMessage(value json.RawMessage) string {
	var head struct {
		Type   any             `json:"type"`
		Filter json.RawMessage `json:"filter"`
	}
	_ = json.Unmarshal(value, &head)
	if kind, _ := head.Type.(string); strings.EqualFold(strings.TrimSpace(kind), string(core.MessageTypeSummary)) || len(head.Filter) > 0 {
		return MsgInvalidSummary
	}
	return MsgInvalidExpense
}

func (p parser) parseExpense(raw rawAnswer) (core.ExpenseDraft, error) {
	if len(raw.Amount) == 0 {
		return core.ExpenseDraft{}, fmt.Errorf("amount: %w", errMissingField)
	}
	var amount core.Money
	if err := json.Unmarshal(raw.Amount, &amount); err != nil {
		return core.ExpenseDraft{}, err
	}

	description := strings.TrimSpace(raw.Description)
	if description == "" {
		return core.ExpenseDraft{}, fmt.Errorf("description: %w", errMissingField)
	}
	category := strings.TrimSpace(raw.Category)
	if category == "" {
		return core.ExpenseDraft{}, fmt.Errorf("category: %w", errMissingField)
	}

	return core.ExpenseDraft{
		Amount:      amount,
		Category:    p.normalizeCategory(category),
		Description: description,
	}, nil
}

// normalizeCategory keeps vocabulary names and the unknown sentinel, and
// replaces anything else with the fallback category.
func (p parser) normalizeCategory(category string) string {
	if strings.EqualFold(category, core.UnknownCategory) {
		return core.UnknownCategory
	}
	if canonical, ok := core.CanonicalCategory(category, p.vocabulary); ok {
		return canonical
	}
	return p.fallback
}

func (p parser) parseFilter(raw *rawFilter) (core.ExpenseFilter, error) {
	var f core.ExpenseFilter
	if raw == nil {
		return f, nil
	}

	if s := strings.TrimSpace(raw.StartDate); s != "" {
		t, err := core.ParseFilterDate(s, false)
		if err != nil {
			return f, fmt.Errorf("start_date: %w", err)
		}
		f.StartDate = &t
	}
	if s := strings.TrimSpace(raw.EndDate); s != "" {
		t, err := core.ParseFilterDate(s, true)
		if err != nil {
			return f, fmt.Errorf("end_date: %w", err)
		}
		f.EndDate = &t
	}
	if raw.LastDays != nil && f.StartDate == nil {
		days := *raw.LastDays
		if days <= 0 || days > maxLastDays {
			return f, fmt.Errorf("last_days %d out of range", days)
		}
		start := p.now.UTC().AddDate(0, 0, -days)
		f.StartDate = &start
	}

	if c := strings.TrimSpace(raw.Category); c != "" {
		if strings.EqualFold(c, core.UnknownCategory) {
			f.Category = core.UnknownCategory
		} else {
			// Out-of-vocabulary names are kept so the query matches nothing
			// rather than silently widening to the fallback category.
			f.Category, _ = core.CanonicalCategory(c, p.vocabulary)
		}
	}

	var err error
	if f.MinAmount, err = optionalMoney(raw.MinAmount); err != nil {
		return f, fmt.Errorf("min_amount: %w", err)
	}
	if f.MaxAmount, err = optionalMoney(raw.MaxAmount); err != nil {
		return f, fmt.Errorf("max_amount: %w", err)
	}

	return f, f.Validate()
}

func optionalMoney(raw json.RawMessage) (*core.Money, error) {
	if len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, nil
	}
	var m core.Money
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// cleanMarkdownWrapper strips ```json fences and any prose around the JSON
// object.
func cleanMarkdownWrapper(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```JSON")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
		content = strings.TrimSpace(content)
	}
	if !strings.HasPrefix(content, "{") {
		start := strings.Index(content, "{")
		end := strings.LastIndex(content, "}")
		if start >= 0 && end > start {
			content = content[start : end+1]
		}
	}
	return content
}
