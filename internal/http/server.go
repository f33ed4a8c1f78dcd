// Package http exposes the message analysis API over JSON.
package http

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"expensebot/internal/core"
	"expensebot/internal/log"
	"expensebot/internal/middleware/ratelimit"
	"expensebot/internal/middleware/security"
	"expensebot/internal/middleware/trace"
	"expensebot/internal/storage"
)

const defaultMaxBodyBytes = 64 << 10

// MessageAnalyzer classifies a message and records or summarizes expenses.
type MessageAnalyzer interface {
	AnalyzeMessage(ctx context.Context, userID int64, message string) (core.MessageResponse, error)
}

// CategoryLister returns the category vocabulary.
type CategoryLister interface {
	ListCategories(ctx context.Context) ([]core.ExpenseCategory, error)
}

// Deps are the services behind the routes. Health may be nil when the store
// cannot be pinged.
type Deps struct {
	Messages   MessageAnalyzer
	Categories CategoryLister
	Expenses   storage.ExpenseStore
	Health     storage.HealthChecker
}

// Config holds the HTTP surface settings.
type Config struct {
	Addr               string
	APIPrefix          string
	ProjectName        string
	Version            string
	CORSOrigins        []string
	RateLimitPerMinute int
	MaxBodyBytes       int64
}

type Server struct {
	http.Server
	deps         Deps
	config       Config
	logger       *log.Logger
	rateLimiter  *ratelimit.Limiter
	detector     *security.Detector
	startedAt    time.Time
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(cfg Config, deps Deps, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.FromContext(context.Background())
	}
	cfg.APIPrefix = "/" + strings.Trim(cfg.APIPrefix, "/")
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}

	s := &Server{
		deps:      deps,
		config:    cfg,
		logger:    logger.WithComponent(log.ComponentHTTP),
		detector:  security.NewDetector(),
		startedAt: time.Now(),
	}
	s.rateLimiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute})

	limited := s.rateLimiter.Middleware(s.detector.ExtractClientIP, handleRateLimited)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.Handle(cfg.APIPrefix+"/", limited(http.HandlerFunc(s.handleRoot)))
	mux.Handle(cfg.APIPrefix+"/messages/analyze", limited(http.HandlerFunc(s.handleAnalyze)))
	mux.Handle(cfg.APIPrefix+"/categories", limited(http.HandlerFunc(s.handleCategories)))
	mux.Handle(cfg.APIPrefix+"/expenses", limited(http.HandlerFunc(s.handleExpenses)))

	// Outermost first.
	var handler http.Handler = mux
	handler = s.detector.Middleware(handler)
	handler = security.NewCORS(security.DefaultCORSConfig(cfg.CORSOrigins)).Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = recoverer(handler)
	handler = trace.NewMiddleware(s.logger, s.detector.ExtractClientIP).Middleware(handler)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// The analyze route waits on the model.
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// Shutdown stops the rate limiter and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// recoverer turns a panic that escapes a handler into a 500 JSON error.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			log.FromContext(r.Context()).ErrorContext(r.Context(), "Recovered from handler panic",
				log.FieldErrorType, log.ErrorTypePanic,
				log.FieldError, rec,
				log.FieldPath, r.URL.Path)
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}()
		next.ServeHTTP(w, r)
	})
}

func handleRateLimited(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
}
