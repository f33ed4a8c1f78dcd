package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// HTTP Server
	Port        string
	APIPrefix   string
	ProjectName string
	Version     string
	CORSOrigins []string

	// Rate limiting of inbound requests, per client IP
	RateLimitPerMinute int

	// Backend selection
	DataBackend  string
	SQLiteDBPath string

	// LLM
	LLMProvider          string
	OpenAIAPIKey         string
	OpenAIModel          string
	AnthropicAPIKey      string
	AnthropicModel       string
	LLMBaseURL           string
	LLMTemperature       float64
	LLMMaxTokens         int
	LLMTimeout           time.Duration
	LLMRequestsPerMinute int

	// Classification
	FallbackCategory string
	CategoryCacheTTL time.Duration

	// AMQP (optional for the API server, required by the worker)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets mirror
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string

	// Logging
	LogLevel  string
	LogFormat string
}

var (
	validBackends  = []string{"memory", "sqlite"}
	validProviders = []string{"openai", "anthropic"}
	validLogLevels = []string{"debug", "info", "warn", "error"}
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8000")
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("PROJECT_NAME", "OpenAI Analysis API")
	v.SetDefault("VERSION", "1.0.0")
	v.SetDefault("BACKEND_CORS_ORIGINS", "*")
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 60)

	v.SetDefault("DATA_BACKEND", "sqlite")
	v.SetDefault("SQLITE_DB_PATH", "./data/expensebot.db")

	v.SetDefault("LLM_PROVIDER", "openai")
	v.SetDefault("OPENAI_MODEL_NAME", "gpt-4o-mini")
	v.SetDefault("ANTHROPIC_MODEL_NAME", "claude-3-5-haiku-latest")
	v.SetDefault("OPENAI_TEMPERATURE", 0.7)
	v.SetDefault("LLM_MAX_TOKENS", 300)
	v.SetDefault("LLM_TIMEOUT", 30*time.Second)
	v.SetDefault("LLM_RATE_LIMIT", 60)

	v.SetDefault("FALLBACK_CATEGORY", "Other")
	v.SetDefault("CATEGORY_CACHE_TTL", 10*time.Minute)

	v.SetDefault("AMQP_EXCHANGE", "expensebot")
	v.SetDefault("AMQP_QUEUE", "expense_created")

	v.SetDefault("GOOGLE_SHEET_NAME", "Expenses")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
}

// Load reads the configuration from the environment. Values that fail to
// parse fall back to their defaults; Validate reports semantic problems.
func Load() *Config {
	return LoadFrom(viper.New())
}

// LoadFrom reads the configuration through v, so callers can bind command
// line flags to the same keys (PORT, SQLITE_DB_PATH, ...). Bound flags that
// were set win over the environment.
func LoadFrom(v *viper.Viper) *Config {
	setDefaults(v)
	v.AutomaticEnv()

	return &Config{
		Port:               v.GetString("PORT"),
		APIPrefix:          normalizePrefix(v.GetString("API_PREFIX")),
		ProjectName:        v.GetString("PROJECT_NAME"),
		Version:            v.GetString("VERSION"),
		CORSOrigins:        splitList(v.GetString("BACKEND_CORS_ORIGINS")),
		RateLimitPerMinute: v.GetInt("RATE_LIMIT_PER_MINUTE"),

		DataBackend:  strings.ToLower(v.GetString("DATA_BACKEND")),
		SQLiteDBPath: v.GetString("SQLITE_DB_PATH"),

		LLMProvider:          strings.ToLower(v.GetString("LLM_PROVIDER")),
		OpenAIAPIKey:         v.GetString("OPENAI_API_KEY"),
		OpenAIModel:          v.GetString("OPENAI_MODEL_NAME"),
		AnthropicAPIKey:      v.GetString("ANTHROPIC_API_KEY"),
		AnthropicModel:       v.GetString("ANTHROPIC_MODEL_NAME"),
		LLMBaseURL:           strings.TrimRight(v.GetString("LLM_BASE_URL"), "/"),
		LLMTemperature:       v.GetFloat64("OPENAI_TEMPERATURE"),
		LLMMaxTokens:         v.GetInt("LLM_MAX_TOKENS"),
		LLMTimeout:           v.GetDuration("LLM_TIMEOUT"),
		LLMRequestsPerMinute: v.GetInt("LLM_RATE_LIMIT"),

		FallbackCategory: strings.TrimSpace(v.GetString("FALLBACK_CATEGORY")),
		CategoryCacheTTL: v.GetDuration("CATEGORY_CACHE_TTL"),

		AMQPURL:      v.GetString("AMQP_URL"),
		AMQPExchange: v.GetString("AMQP_EXCHANGE"),
		AMQPQueue:    v.GetString("AMQP_QUEUE"),

		GoogleSpreadsheetID:      v.GetString("GOOGLE_SPREADSHEET_ID"),
		GoogleSheetName:          v.GetString("GOOGLE_SHEET_NAME"),
		GoogleServiceAccountFile: v.GetString("GOOGLE_SERVICE_ACCOUNT_FILE"),
		GoogleServiceAccountJSON: v.GetString("GOOGLE_SERVICE_ACCOUNT_JSON"),

		LogLevel:  strings.ToLower(v.GetString("LOG_LEVEL")),
		LogFormat: strings.ToLower(v.GetString("LOG_FORMAT")),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.APIPrefix == "" || c.APIPrefix == "/" {
		errors = append(errors, "API prefix cannot be empty")
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	// Validate data backend
	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	// Validate SQLite configuration if backend is sqlite
	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	// Validate LLM provider and its credentials
	switch c.LLMProvider {
	case "openai":
		if c.OpenAIAPIKey == "" {
			errors = append(errors, "OPENAI_API_KEY is required when LLM_PROVIDER is 'openai'")
		}
	case "anthropic":
		if c.AnthropicAPIKey == "" {
			errors = append(errors, "ANTHROPIC_API_KEY is required when LLM_PROVIDER is 'anthropic'")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid LLM provider '%s': must be one of %v", c.LLMProvider, validProviders))
	}

	if c.LLMBaseURL != "" {
		if u, err := url.Parse(c.LLMBaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			errors = append(errors, fmt.Sprintf("invalid LLM base URL '%s': must be an http(s) URL", c.LLMBaseURL))
		}
	}
	if c.LLMTemperature < 0 || c.LLMTemperature > 2 {
		errors = append(errors, fmt.Sprintf("invalid LLM temperature %v: must be between 0 and 2", c.LLMTemperature))
	}
	if c.LLMMaxTokens < 1 {
		errors = append(errors, fmt.Sprintf("invalid LLM max tokens %d: must be at least 1", c.LLMMaxTokens))
	}
	if c.LLMTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid LLM timeout %v: must be at least 1 second", c.LLMTimeout))
	}
	if c.LLMRequestsPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid LLM rate limit %d: must be at least 1 request per minute", c.LLMRequestsPerMinute))
	}

	if c.FallbackCategory == "" {
		errors = append(errors, "fallback category cannot be empty")
	}
	if c.CategoryCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid category cache TTL %v: must not be negative", c.CategoryCacheTTL))
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if !slices.Contains(validLogLevels, c.LogLevel) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLogLevels))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ValidateWorker checks the extra settings the sheets mirror worker needs.
func (c *Config) ValidateWorker() error {
	var errors []string

	if c.DataBackend != "sqlite" {
		errors = append(errors, "worker requires DATA_BACKEND=sqlite")
	}
	if c.AMQPURL == "" {
		errors = append(errors, "AMQP_URL is required by the worker")
	}
	if c.GoogleSpreadsheetID == "" {
		errors = append(errors, "GOOGLE_SPREADSHEET_ID is required by the worker")
	}
	if c.GoogleSheetName == "" {
		errors = append(errors, "GOOGLE_SHEET_NAME cannot be empty")
	}
	if c.GoogleServiceAccountFile == "" && c.GoogleServiceAccountJSON == "" {
		errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON must be provided")
	}
	if c.GoogleServiceAccountFile != "" {
		if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("worker configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func normalizePrefix(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return strings.TrimRight(p, "/")
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
