package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/egannguyen/tica-shop/internal/service"
)

type errorResponse struct {
	Error   string               `json:"error"`
	Message string               `json:"message"`
	Details []service.FieldError `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "err", err)
	}
}

func writeInvalid(w http.ResponseWriter, msg string, details []service.FieldError) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: "INVALID_INPUT", Message: msg, Details: details})
}

// writeError maps service errors to status codes. Anything unrecognised is
// logged and reported as a bare 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeInvalid(w, "Invalid input", verr.Fields)
	case errors.Is(err, service.ErrValidation):
		writeInvalid(w, err.Error(), nil)
	case errors.Is(err, service.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "NOT_FOUND", Message: "Not found"})
	case errors.Is(err, service.ErrInvalidTransition):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "INVALID_TRANSITION", Message: err.Error()})
	default:
		slog.Error("Request failed", "path", r.URL.Path, "request_id", RequestIDFrom(r.Context()), "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "INTERNAL_SERVER_ERROR", Message: "internal server error"})
	}
}

const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeInvalid(w, "invalid request body: "+err.Error(), nil)
		return false
	}
	return true
}
