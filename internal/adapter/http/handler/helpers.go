package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/iho/reconledger/internal/adapter/http/dto"
	"github.com/iho/reconledger/internal/domain"
	applog "github.com/iho/reconledger/internal/infrastructure/logger"
)

// retryAfterSeconds is suggested to clients that hit a run in flight.
const retryAfterSeconds = "5"

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// writeDomainError maps err to a status and writes it. Server-side failures
// are logged and their details withheld.
func writeDomainError(w http.ResponseWriter, r *http.Request, message string, err error) {
	var verr *dto.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
			Error:   message,
			Message: "validation failed",
			Fields:  verr.Fields,
		})
		return
	}

	status := mapDomainError(err)
	if status >= http.StatusInternalServerError {
		l := applog.FromContext(r.Context(), log.Logger)
		l.Error().Err(err).Str("path", r.URL.Path).Msg(message)
		writeError(w, status, message, "")
		return
	}
	if domain.IsRetryable(err) {
		w.Header().Set("Retry-After", retryAfterSeconds)
	}
	writeError(w, status, message, err.Error())
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrInstrumentNotFound),
		errors.Is(err, domain.ErrTransactionNotFound),
		errors.Is(err, domain.ErrReportNotFound),
		errors.Is(err, domain.ErrMatchNotFound),
		errors.Is(err, domain.ErrSnapshotNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidScope),
		errors.Is(err, domain.ErrMalformedRecord),
		errors.Is(err, domain.ErrInvalidName),
		errors.Is(err, domain.ErrInvalidCurrency),
		errors.Is(err, domain.ErrInvalidKind),
		errors.Is(err, domain.ErrInvalidLabel),
		errors.Is(err, domain.ErrAmountTooLarge),
		errors.Is(err, domain.ErrZeroAmount),
		errors.Is(err, domain.ErrInvalidTrigger):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrConcurrentRunConflict),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrMatchAlreadyResolved),
		errors.Is(err, domain.ErrMatchStale),
		errors.Is(err, domain.ErrMatchNotTentative):
		return http.StatusConflict
	case errors.Is(err, domain.ErrExtractionFailed),
		errors.Is(err, domain.ErrCurrencyMismatch):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}

// parseDateQuery parses an optional YYYY-MM-DD query parameter.
func parseDateQuery(r *http.Request, key string) (*time.Time, error) {
	val := r.URL.Query().Get(key)
	if val == "" {
		return nil, nil
	}
	t, err := time.Parse(dto.DateLayout, val)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be formatted %s", domain.ErrInvalidScope, key, dto.DateLayout)
	}
	return &t, nil
}
