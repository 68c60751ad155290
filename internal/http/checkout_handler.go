package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/order"
	"github.com/fjod/go_cart/storefront/internal/storage"
	"go.uber.org/zap"
)

// CheckoutFlow drives checkout attempts for a session.
type CheckoutFlow interface {
	Submit(ctx context.Context, s checkout.Session, info domain.CustomerInfo) (checkout.Attempt, error)
	Confirm(ctx context.Context, s checkout.Session, report checkout.PaymentReport) (checkout.Attempt, error)
	Status(sessionID string) (checkout.Attempt, error)
}

type CheckoutHandler struct {
	flow    CheckoutFlow
	kv      storage.KeyValueStore
	timeout time.Duration
	logger  *zap.Logger
}

func NewCheckoutHandler(flow CheckoutFlow, kv storage.KeyValueStore, timeout time.Duration, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		flow:    flow,
		kv:      kv,
		timeout: timeout,
		logger:  logger,
	}
}

type SubmitCheckoutRequestDTO struct {
	CustomerInfo domain.CustomerInfo `json:"customerInfo"`
}

type ConfirmCheckoutRequestDTO struct {
	Error string `json:"error,omitempty"`
}

type CheckoutResponseDTO struct {
	State        string `json:"state"`
	OrderID      string `json:"orderId,omitempty"`
	ClientSecret string `json:"clientSecret,omitempty"`
	TotalAmount  int64  `json:"totalAmount"`
	Message      string `json:"message,omitempty"`
}

func toCheckoutResponse(a checkout.Attempt) CheckoutResponseDTO {
	return CheckoutResponseDTO{
		State:       a.State.String(),
		OrderID:     a.OrderID,
		TotalAmount: a.Submission.TotalAmount,
		Message:     checkout.UserMessage(a.Err),
	}
}

func (h *CheckoutHandler) session(r *http.Request) checkout.Session {
	sessionID := getSessionID(r.Context())
	return checkout.Session{
		ID:      sessionID,
		Cart:    cart.NewStore(h.kv, sessionID),
		History: order.NewHistory(h.kv, sessionID),
	}
}

// POST /api/v1/checkout
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req SubmitCheckoutRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	attempt, err := h.flow.Submit(ctx, h.session(r), req.CustomerInfo)
	if err != nil {
		h.handleError(w, r, attempt, err)
		return
	}

	resp := toCheckoutResponse(attempt)
	resp.ClientSecret = attempt.ClientSecret
	respondJSON(w, http.StatusCreated, resp)
}

// GET /api/v1/checkout
func (h *CheckoutHandler) Status(w http.ResponseWriter, r *http.Request) {
	attempt, err := h.flow.Status(getSessionID(r.Context()))
	if errors.Is(err, checkout.ErrNoCheckout) {
		respondJSON(w, http.StatusOK, CheckoutResponseDTO{State: domain.CheckoutStateIdle.String()})
		return
	}
	if err != nil {
		h.handleError(w, r, attempt, err)
		return
	}

	resp := toCheckoutResponse(attempt)
	if attempt.State == domain.CheckoutStateAwaitingPayment {
		resp.ClientSecret = attempt.ClientSecret
	}
	respondJSON(w, http.StatusOK, resp)
}

// POST /api/v1/checkout/confirm
func (h *CheckoutHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req ConfirmCheckoutRequestDTO
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}

	attempt, err := h.flow.Confirm(ctx, h.session(r), checkout.PaymentReport{Error: req.Error})
	if err != nil {
		h.handleError(w, r, attempt, err)
		return
	}

	respondJSON(w, http.StatusOK, toCheckoutResponse(attempt))
}

func (h *CheckoutHandler) handleError(w http.ResponseWriter, r *http.Request, attempt checkout.Attempt, err error) {
	var vErr *order.ValidationError
	var confirmErr *checkout.PaymentConfirmationError
	var decodeErr *cart.DecodeError

	message := checkout.UserMessage(err)
	switch {
	case errors.As(err, &vErr):
		respondJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   message,
			Code:    "validation_failed",
			Details: vErr.Field,
		})
	case errors.Is(err, checkout.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, "empty_cart", message)
	case errors.Is(err, checkout.ErrCheckoutInProgress):
		respondError(w, http.StatusConflict, "checkout_in_progress", message)
	case errors.Is(err, checkout.ErrNoCheckout):
		respondError(w, http.StatusNotFound, "no_checkout", "no checkout to confirm")
	case errors.Is(err, checkout.ErrIllegalTransition):
		respondError(w, http.StatusConflict, "illegal_transition", "checkout is not awaiting payment")
	case errors.As(err, &decodeErr):
		handleSessionStoreError(w, err)
	case errors.As(err, &confirmErr):
		respondError(w, http.StatusPaymentRequired, "payment_failed", message)
	default:
		requestLogger(r, h.logger).Error("checkout failed",
			zap.String("session_id", getSessionID(r.Context())),
			zap.String("state", attempt.State.String()),
			zap.Error(err))
		if attempt.State == domain.CheckoutStateAwaitingPayment {
			respondError(w, http.StatusServiceUnavailable, "payment_unavailable", "payment could not be verified, try again")
			return
		}
		respondError(w, http.StatusBadGateway, "checkout_failed", message)
	}
}
