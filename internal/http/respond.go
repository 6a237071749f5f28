package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pusit-hanp/capstone-image-store/internal/catalog"
	"github.com/pusit-hanp/capstone-image-store/internal/service"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Details string            `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleServiceError converts session and catalog errors into HTTP responses.
func handleServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrNoSession):
		respondError(w, http.StatusUnauthorized, "no_session", "sign in to continue")
	case errors.Is(err, catalog.ErrItemNotFound):
		respondError(w, http.StatusNotFound, "not_found", "image not found")
	default:
		logger.Error("request failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
