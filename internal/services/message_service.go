package services

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"

	"expensebot/internal/core"
	"expensebot/internal/log"
	"expensebot/internal/storage"
)

// User-facing messages for failures after classification.
const (
	MsgLoadCategoriesFailed = "Failed to load categories"
	MsgSaveFailed           = "Failed to save expense"
	MsgQueryFailed          = "Failed to execute query"
)

// CategoryProvider supplies the current category vocabulary.
type CategoryProvider interface {
	CategoryNames(ctx context.Context) ([]string, error)
}

// MessageClassifier turns a message into an expense draft or a summary filter.
type MessageClassifier interface {
	Classify(ctx context.Context, message string, categories []string) (core.Classification, error)
}

// EventPublisher announces persisted expenses to other processes.
type EventPublisher interface {
	PublishExpenseCreated(ctx context.Context, e core.Expense) error
}

// MessageService analyzes one chat message per call: it classifies the
// message, then either records an expense or answers a summary query.
type MessageService struct {
	categories CategoryProvider
	classifier MessageClassifier
	expenses   storage.ExpenseStore
	publisher  EventPublisher
	logger     *log.Logger
	events     *log.StructuredLogger
}

// NewMessageService wires the orchestrator. publisher may be nil.
func NewMessageService(categories CategoryProvider, classifier MessageClassifier, expenses storage.ExpenseStore, publisher EventPublisher, logger *log.Logger) *MessageService {
	if logger == nil {
		logger = log.FromContext(context.Background())
	}
	logger = logger.WithComponent(log.ComponentOrchestrator)
	return &MessageService{
		categories: categories,
		classifier: classifier,
		expenses:   expenses,
		publisher:  publisher,
		logger:     logger,
		events:     log.NewStructuredLogger(logger),
	}
}

// AnalyzeMessage returns core.ErrInvalidInput for an empty message or a
// non-positive user id. Every other outcome, failures included, is reported
// through the returned MessageResponse.
func (s *MessageService) AnalyzeMessage(ctx context.Context, userID int64, message string) (resp core.MessageResponse, err error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return core.MessageResponse{}, fmt.Errorf("%w: message must not be empty", core.ErrInvalidInput)
	}
	if userID <= 0 {
		return core.MessageResponse{}, fmt.Errorf("%w: user_id must be positive", core.ErrInvalidInput)
	}

	defer func() {
		if r := recover(); r != nil {
			s.events.LogError(ctx, "Recovered from panic while analyzing message",
				fmt.Errorf("%w: %v", core.ErrUnexpected, r), log.ErrorTypePanic, log.OpClassify,
				log.NewFields().WithUser(userID))
			s.logger.DebugContext(ctx, "Panic stack", "stack", string(debug.Stack()))
			resp, err = core.NewErrorResponse(fmt.Sprint(r)), nil
		}
	}()

	names, err := s.categories.CategoryNames(ctx)
	if err != nil {
		s.events.LogError(ctx, "Failed to load categories", err, log.ErrorTypeDatabase, log.OpList, nil)
		return core.NewErrorResponse(MsgLoadCategoriesFailed), nil
	}

	result, err := s.classifier.Classify(ctx, message, names)
	if err != nil {
		return core.NewErrorResponse(classificationMessage(err)), nil
	}

	switch result.Type {
	case core.MessageTypeExpense:
		return s.recordExpense(ctx, userID, *result.Expense), nil
	case core.MessageTypeSummary:
		return s.summarize(ctx, userID, *result.Filter), nil
	default:
		return core.NewErrorResponse(fmt.Sprintf("unexpected classification %q", result.Type)), nil
	}
}

func (s *MessageService) recordExpense(ctx context.Context, userID int64, draft core.ExpenseDraft) core.MessageResponse {
	saved, err := s.expenses.CreateExpense(ctx, core.NewExpense{
		UserID:      userID,
		Description: draft.Description,
		Amount:      draft.Amount,
		Category:    draft.Category,
	})
	if err != nil {
		s.events.LogError(ctx, "Failed to save expense", err, log.ErrorTypeDatabase, log.OpCreate,
			log.NewFields().WithUser(userID))
		return core.NewErrorResponse(MsgSaveFailed)
	}

	s.events.LogExpenseCreated(ctx, userID, saved.ID, saved.Description, saved.Amount.Cents, saved.Category)
	s.publish(ctx, saved)
	return core.NewExpenseResponse(saved)
}

func (s *MessageService) summarize(ctx context.Context, userID int64, filter core.ExpenseFilter) core.MessageResponse {
	rows, err := s.expenses.QueryExpenses(ctx, userID, filter)
	if err != nil {
		s.events.LogError(ctx, "Failed to execute query", err, log.ErrorTypeDatabase, log.OpQuery,
			log.NewFields().WithUser(userID))
		return core.NewErrorResponse(MsgQueryFailed)
	}

	summary := core.Summarize(filter, rows)
	s.events.LogSummaryQueried(ctx, userID, summary.Count, summary.Total.Cents)
	return core.NewSummaryResponse(summary)
}

// publish is best effort: the expense is already committed.
func (s *MessageService) publish(ctx context.Context, e core.Expense) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishExpenseCreated(ctx, e); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish expense created event",
			log.FieldExpenseID, e.ID,
			log.FieldError, err)
	}
}

func classificationMessage(err error) string {
	var ce *core.ClassificationError
	if errors.As(err, &ce) {
		return ce.Message
	}
	return err.Error()
}
