package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/order"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// requestLogger tags l with the request id and the trace of the request.
func requestLogger(r *http.Request, l *zap.Logger) *zap.Logger {
	return logger.WithTrace(r.Context(), l).With(zap.String("request_id", getRequestID(r.Context())))
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

// decodeJSON rejects bodies that are not a single JSON object of the expected shape.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "request_too_large", "request body too large")
			return false
		}
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}

// handleSessionStoreError maps failures of the per-session cart and history records.
func handleSessionStoreError(w http.ResponseWriter, err error) {
	var decodeErr *cart.DecodeError
	switch {
	case errors.As(err, &decodeErr):
		respondJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "cart data is corrupt",
			Code:    "corrupt_cart",
			Details: "clear the cart to start over",
		})
	case errors.Is(err, order.ErrCorruptHistory):
		respondError(w, http.StatusInternalServerError, "corrupt_history", "order history is corrupt")
	default:
		respondError(w, http.StatusServiceUnavailable, "storage_unavailable", "session storage unavailable")
	}
}
