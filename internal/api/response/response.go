// Package response writes JSON bodies and the error envelope shared by every route.
package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// ErrorResponse is the body of every non-2xx answer. Details is only set for
// client errors; server errors carry the message alone.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// fieldErrors is implemented by validation errors that know which fields failed.
type fieldErrors interface {
	FieldErrors() map[string]string
}

// RespondJSON writes data as JSON with the given status. A nil data writes the
// status only. Encoding failures are logged; the status is already sent by then.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode JSON response", zap.Int("status", status), zap.Error(err))
	}
}

// RespondError writes an ErrorResponse.
//
// Example:
//
//	response.RespondError(w, http.StatusNotFound, "pipeline run not found", nil)
func RespondError(w http.ResponseWriter, status int, message string, details any) {
	RespondJSON(w, status, ErrorResponse{Error: message, Details: details})
}

// RespondBadRequest answers 400. Field level errors become a field to message
// map in details; any other error contributes its text.
func RespondBadRequest(w http.ResponseWriter, message string, err error) {
	var fe fieldErrors
	switch {
	case err == nil:
		RespondError(w, http.StatusBadRequest, message, nil)
	case errors.As(err, &fe):
		RespondError(w, http.StatusBadRequest, message, fe.FieldErrors())
	default:
		RespondError(w, http.StatusBadRequest, message, err.Error())
	}
}
