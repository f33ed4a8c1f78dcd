package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"expensebot/internal/core"
)

// AnalyzeRequest is the body of POST /messages/analyze.
type AnalyzeRequest struct {
	Message string `json:"message"`
	UserID  int64  `json:"user_id"`
}

var errBodyTooLarge = errors.New("request body too large")

// decodeJSONBody reads exactly one JSON value from a size-limited body.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, limit int64, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return errBodyTooLarge
		case errors.Is(err, io.EOF):
			return errors.New("request body is empty")
		default:
			return fmt.Errorf("invalid JSON body: %w", err)
		}
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

// parseExpenseQuery reads user_id and the declarative filter from a query
// string. Dates are YYYY-MM-DD or RFC 3339; a date-only end_date covers the
// whole day.
func parseExpenseQuery(q url.Values) (int64, core.ExpenseFilter, error) {
	var filter core.ExpenseFilter

	raw := strings.TrimSpace(q.Get("user_id"))
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userID <= 0 {
		return 0, filter, fmt.Errorf("%w: user_id must be a positive integer", core.ErrInvalidInput)
	}

	if v := strings.TrimSpace(q.Get("start_date")); v != "" {
		t, err := core.ParseFilterDate(v, false)
		if err != nil {
			return 0, filter, fmt.Errorf("%w: start_date: %v", core.ErrInvalidInput, err)
		}
		filter.StartDate = &t
	}
	if v := strings.TrimSpace(q.Get("end_date")); v != "" {
		t, err := core.ParseFilterDate(v, true)
		if err != nil {
			return 0, filter, fmt.Errorf("%w: end_date: %v", core.ErrInvalidInput, err)
		}
		filter.EndDate = &t
	}
	filter.Category = strings.TrimSpace(q.Get("category"))

	for _, bound := range []struct {
		key string
		dst **core.Money
	}{
		{"min_amount", &filter.MinAmount},
		{"max_amount", &filter.MaxAmount},
	} {
		v := strings.TrimSpace(q.Get(bound.key))
		if v == "" {
			continue
		}
		m, err := core.ParseMoney(v)
		if err != nil {
			return 0, filter, fmt.Errorf("%w: %s: %v", core.ErrInvalidInput, bound.key, err)
		}
		*bound.dst = &m
	}

	if err := filter.Validate(); err != nil {
		return 0, filter, fmt.Errorf("%w: %v", core.ErrInvalidInput, err)
	}
	return userID, filter, nil
}
