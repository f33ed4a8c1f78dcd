package ai

import (
	"context"
	"errors"
	"strings"
	"time"

	"expensebot/internal/core"
	"expensebot/internal/log"
)

// Classifier asks the model to classify a message and validates the answer.
type Classifier struct {
	client   Client
	fallback string
	now      func() time.Time
	logger   *log.Logger
}

type Option func(*Classifier)

// WithFallbackCategory sets the category used for out-of-vocabulary answers.
func WithFallbackCategory(name string) Option {
	return func(c *Classifier) {
		if name = strings.TrimSpace(name); name != "" {
			c.fallback = name
		}
	}
}

// WithClock sets the time used to resolve relative periods.
func WithClock(now func() time.Time) Option {
	return func(c *Classifier) { c.now = now }
}

func WithLogger(logger *log.Logger) Option {
	return func(c *Classifier) { c.logger = logger.WithComponent(log.ComponentClassifier) }
}

func NewClassifier(client Client, opts ...Option) *Classifier {
	c := &Classifier{
		client:   client,
		fallback: core.DefaultFallbackCategory,
		now:      time.Now,
		logger:   log.FromContext(context.Background()).WithComponent(log.ComponentClassifier),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify sends message together with the category vocabulary to the model.
// Every failure is returned as a *core.ClassificationError whose Message is
// safe to show to the user. Nothing is retried.
func (c *Classifier) Classify(ctx context.Context, message string, categories []string) (core.Classification, error) {
	now := c.now()
	prompt := BuildSystemPrompt(strings.Join(categories, ", "), now)

	start := time.Now()
	content, err := c.client.Complete(ctx, prompt, message)
	if err != nil {
		c.logger.WarnContext(ctx, "Model request failed",
			log.FieldErrorType, log.ErrorTypeNetwork,
			log.FieldProvider, c.client.Name(),
			log.FieldError, err,
			log.FieldDuration, time.Since(start).Milliseconds())
		return core.Classification{}, core.NewClassificationError(err.Error(), err)
	}

	p := parser{vocabulary: categories, fallback: c.fallback, now: now}
	result, err := p.parse(content)
	if err != nil {
		c.logger.WarnContext(ctx, "Model answer rejected",
			log.FieldErrorType, log.ErrorTypeClassification,
			log.FieldProvider, c.client.Name(),
			log.FieldError, err,
			"cause", errorCause(err))
		return core.Classification{}, err
	}

	c.logger.DebugContext(ctx, "Message classified",
		log.FieldProvider, c.client.Name(),
		log.FieldMessageType, result.Type,
		log.FieldDuration, time.Since(start).Milliseconds())
	return result, nil
}

func errorCause(err error) string {
	var ce *core.ClassificationError
	if errors.As(err, &ce) && ce.Err != nil {
		return ce.Err.Error()
	}
	return ""
}
