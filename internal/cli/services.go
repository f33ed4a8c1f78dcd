package cli

import (
	"fmt"

	"expensebot/internal/ai"
	"expensebot/internal/backend"
	"expensebot/internal/config"
	"expensebot/internal/log"
	"expensebot/internal/services"
)

// NewLLMClient builds the provider client selected by LLM_PROVIDER.
func NewLLMClient(cfg *config.Config) (ai.Client, error) {
	ac := ai.Config{
		Provider:          cfg.LLMProvider,
		BaseURL:           cfg.LLMBaseURL,
		Temperature:       cfg.LLMTemperature,
		MaxTokens:         cfg.LLMMaxTokens,
		Timeout:           cfg.LLMTimeout,
		RequestsPerMinute: cfg.LLMRequestsPerMinute,
	}
	switch cfg.LLMProvider {
	case ai.ProviderAnthropic:
		ac.APIKey, ac.Model = cfg.AnthropicAPIKey, cfg.AnthropicModel
	default:
		ac.APIKey, ac.Model = cfg.OpenAIAPIKey, cfg.OpenAIModel
	}

	client, err := ai.NewClient(ac)
	if err != nil {
		return nil, fmt.Errorf("create LLM client: %w", err)
	}
	return client, nil
}

// Services are the request-scoped collaborators built once per process.
type Services struct {
	Categories *services.CategoryService
	Messages   *services.MessageService
}

// NewServices wires the category cache, the classifier and the message
// orchestrator on top of store. publisher may be nil.
func NewServices(cfg *config.Config, store backend.Store, publisher services.EventPublisher, logger *log.Logger) (*Services, error) {
	client, err := NewLLMClient(cfg)
	if err != nil {
		return nil, err
	}

	categories := services.NewCategoryService(store, cfg.CategoryCacheTTL, logger)
	classifier := ai.NewClassifier(client,
		ai.WithFallbackCategory(cfg.FallbackCategory),
		ai.WithLogger(logger))

	logger.Info("Initialized classifier",
		log.FieldProvider, client.Name(),
		log.FieldModel, modelName(cfg))

	return &Services{
		Categories: categories,
		Messages:   services.NewMessageService(categories, classifier, store, publisher, logger),
	}, nil
}

func modelName(cfg *config.Config) string {
	if cfg.LLMProvider == ai.ProviderAnthropic {
		return cfg.AnthropicModel
	}
	return cfg.OpenAIModel
}
