package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"soundprint-mockup/logger"
	"soundprint-mockup/models"
)

// errorResponse is the JSON body of every non-2xx API response.
type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

func writeJSON(w http.ResponseWriter, log *logger.Logger, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("❌ Failed to encode response", "error", err)
	}
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrDesignDecode), errors.Is(err, models.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrTemplateNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrTemplateAsset), errors.Is(err, models.ErrInvalidPrintArea):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, log *logger.Logger, err error) {
	writeJSON(w, log, statusFor(err), errorResponse{Error: err.Error(), Reason: models.ReasonFor(err)})
}

func methodNotAllowed(w http.ResponseWriter) {
	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
}
