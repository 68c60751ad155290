package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/order"
	"go.uber.org/zap"
)

const paymentIntentFailure = "Payment intent creation failed"

// PaymentIntentHandler serves the payment intent endpoint used by the payment
// widget. Every failure produces the same body so nothing internal leaks.
type PaymentIntentHandler struct {
	intents checkout.IntentCreator
	timeout time.Duration
	logger  *zap.Logger
}

func NewPaymentIntentHandler(intents checkout.IntentCreator, timeout time.Duration, logger *zap.Logger) *PaymentIntentHandler {
	return &PaymentIntentHandler{
		intents: intents,
		timeout: timeout,
		logger:  logger,
	}
}

// POST /api/create-payment-intent
func (h *PaymentIntentHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	log := requestLogger(r, h.logger)

	var sub domain.OrderSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		log.Error("payment intent creation failed", zap.Error(err))
		h.fail(w)
		return
	}
	if err := order.ValidateSubmission(sub); err != nil {
		log.Error("payment intent creation failed", zap.Error(err))
		h.fail(w)
		return
	}

	resp, err := h.intents.CreatePaymentIntent(ctx, sub)
	if err != nil {
		log.Error("payment intent creation failed", zap.Error(err))
		h.fail(w)
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

func (h *PaymentIntentHandler) fail(w http.ResponseWriter) {
	respondJSON(w, http.StatusInternalServerError, map[string]string{"error": paymentIntentFailure})
}
