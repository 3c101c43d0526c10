package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/tinywideclouds/go-notification-relay/pkg/notification"
)

// ErrorResponse is the envelope of every failed request.
type ErrorResponse struct {
	Success bool     `json:"success"`
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// ResultResponse is the envelope of a successful notify call.
type ResultResponse struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeJSONError(w http.ResponseWriter, status int, message string, details ...string) {
	writeJSON(w, status, ErrorResponse{Success: false, Error: message, Details: details})
}

// writeDomainError maps the error taxonomy onto HTTP. Only validation messages
// reach the caller verbatim; everything else is a fixed string and the full
// error goes to the log.
func writeDomainError(w http.ResponseWriter, logger *slog.Logger, err error, notFoundMsg, failureMsg string) {
	var verr *notification.ValidationError
	switch {
	case errors.As(err, &verr):
		logger.Warn("Request rejected", "reason", "validation", "err", err)
		writeJSONError(w, http.StatusBadRequest, verr.Message, verr.Fields...)
	case errors.Is(err, notification.ErrNotFound):
		logger.Warn("Request rejected", "reason", "not_found", "err", err)
		writeJSONError(w, http.StatusNotFound, notFoundMsg)
	default:
		logger.Error(failureMsg, "err", err)
		writeJSONError(w, http.StatusInternalServerError, failureMsg)
	}
}

// decodeJSON reads a request body, keeping numbers exact so identifiers pass
// through unchanged.
func decodeJSON(r *http.Request, dest any) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(dest); err != nil {
		return notification.NewValidationError("Invalid JSON body")
	}
	return nil
}
