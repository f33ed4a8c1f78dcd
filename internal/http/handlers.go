package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"expensebot/internal/core"
	"expensebot/internal/log"
)

// handleRoot reports that the API is up.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if strings.TrimSuffix(r.URL.Path, "/") != s.config.APIPrefix {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": s.config.ProjectName + " is running",
		"version": s.config.Version,
	})
}

// handleAnalyze maps structural problems to 400 and every business outcome,
// failures included, to 200 with a typed payload.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req AnalyzeRequest
	if err := decodeJSONBody(w, r, s.config.MaxBodyBytes, &req); err != nil {
		if errors.Is(err, errBodyTooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := log.NewContext(r.Context(), log.FromContext(r.Context()).With(log.FieldUserID, req.UserID))
	resp, err := s.deps.Messages.AnalyzeMessage(ctx, req.UserID, req.Message)
	if err != nil {
		if errors.Is(err, core.ErrInvalidInput) {
			log.FromContext(ctx).InfoContext(ctx, "Rejected analyze request",
				log.FieldErrorType, log.ErrorTypeValidation, log.FieldError, err)
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.FromContext(ctx).ErrorContext(ctx, "Message analysis failed", log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	cats, err := s.deps.Categories.ListCategories(r.Context())
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to list categories",
			log.FieldErrorType, log.ErrorTypeDatabase, log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "Failed to load categories")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": cats})
}

// handleExpenses runs the declarative filter straight against the store
// and answers with the same summary payload as a summary message.
func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	userID, filter, err := parseExpenseQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows, err := s.deps.Expenses.QueryExpenses(r.Context(), userID, filter)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to query expenses",
			log.FieldErrorType, log.ErrorTypeDatabase, log.FieldUserID, userID, log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "Failed to execute query")
		return
	}
	writeJSON(w, http.StatusOK, core.NewSummaryResponse(core.Summarize(filter, rows)))
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
	})
}

// handleReady checks that the store answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]string{"database": "not_configured"}
	status, code := "ready", http.StatusOK
	if s.deps.Health != nil {
		if err := s.deps.Health.Ping(ctx); err != nil {
			log.FromContext(ctx).WarnContext(ctx, "Readiness check failed", log.FieldError, err)
			checks["database"] = "failed: " + err.Error()
			status, code = "not_ready", http.StatusServiceUnavailable
		} else {
			checks["database"] = "ok"
		}
	}
	writeJSON(w, code, map[string]any{"status": status, "checks": checks})
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError answers with the same shape as a failed analysis.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, core.NewErrorResponse(msg))
}
