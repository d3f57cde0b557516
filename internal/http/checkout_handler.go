package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Dasieloski/habaluna-storefront/internal/backend"
	"github.com/Dasieloski/habaluna-storefront/internal/checkout"
	"github.com/Dasieloski/habaluna-storefront/internal/domain"
	"github.com/Dasieloski/habaluna-storefront/internal/logging"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type CheckoutHandler struct {
	sessions *Sessions
	timeout  time.Duration
}

func NewCheckoutHandler(sessions *Sessions, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{sessions: sessions, timeout: timeout}
}

type submitShippingRequest struct {
	ShippingAddress domain.Address `json:"shippingAddress"`
	BillingAddress  domain.Address `json:"billingAddress"`
}

// paymentCallbackRequest is what the external payment widget yields:
// a transaction reference on success, an error string on failure.
type paymentCallbackRequest struct {
	TransactionID string          `json:"transactionId,omitempty"`
	Amount        decimal.Decimal `json:"amount,omitempty"`
	Currency      string          `json:"currency,omitempty"`
	Error         string          `json:"error,omitempty"`
}

type checkoutStateResponse struct {
	Status checkout.Status `json:"status"`
	Order  *domain.Order   `json:"order,omitempty"`
}

type paymentCompletedResponse struct {
	Order    *domain.Order        `json:"order"`
	Payment  domain.PaymentResult `json:"payment"`
	Redirect string               `json:"redirect"`
}

// widgetCollector adapts the widget's posted callback to the checkout
// Collector.
type widgetCollector struct {
	result  domain.PaymentResult
	failure string
}

func (c widgetCollector) Collect(_ context.Context, _ *domain.Order) (*domain.PaymentResult, error) {
	if c.failure != "" {
		return nil, errors.New(c.failure)
	}
	res := c.result
	return &res, nil
}

// State reports the session's checkout progress.
func (h *CheckoutHandler) State(w http.ResponseWriter, r *http.Request) {
	key, userID := principal(r.Context())
	if key == "" {
		respondError(w, r, http.StatusBadRequest, "missing_session", "falta el identificador de sesión")
		return
	}
	session := h.sessions.Checkout(key, userID)
	respondJSON(w, r, http.StatusOK, checkoutStateResponse{
		Status: session.Status(),
		Order:  session.Order(),
	})
}

// SubmitShipping runs the validation gate and creates the order. Each
// failure class gets its own status and message so "stock problem" is
// never confused with "order creation failed".
func (h *CheckoutHandler) SubmitShipping(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	key, userID := principal(r.Context())
	if key == "" {
		respondError(w, r, http.StatusBadRequest, "missing_session", "falta el identificador de sesión")
		return
	}

	var req submitShippingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", "cuerpo JSON inválido")
		return
	}

	session := h.sessions.Checkout(key, userID)
	order, err := session.SubmitShipping(ctx, req.ShippingAddress, req.BillingAddress)
	if err != nil {
		h.submitError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusCreated, checkoutStateResponse{
		Status: session.Status(),
		Order:  order,
	})
}

func (h *CheckoutHandler) submitError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		stockErr    *checkout.StockError
		shippingErr *checkout.ShippingError
		orderErr    *checkout.OrderError
	)
	switch {
	case errors.As(err, &stockErr):
		respondJSON(w, r, http.StatusConflict, ErrorResponse{
			Error:   "hay productos no disponibles en tu carrito",
			Code:    "stock_issues",
			Details: stockErr.Result.Messages(),
		})
	case errors.As(err, &shippingErr):
		respondError(w, r, http.StatusUnprocessableEntity, "invalid_address", shippingErr.Error())
	case errors.Is(err, checkout.ErrEmptyCart):
		respondError(w, r, http.StatusUnprocessableEntity, "empty_cart", "tu carrito está vacío")
	case errors.Is(err, backend.ErrNotAuthenticated):
		// Local terminal condition, no order request was attempted; the
		// client should redirect to login.
		respondError(w, r, http.StatusUnauthorized, "login_required", "inicia sesión para continuar")
	case errors.As(err, &orderErr):
		respondError(w, r, http.StatusBadGateway, "order_failed", orderErr.Error())
	case errors.Is(err, checkout.ErrIllegalTransition):
		respondError(w, r, http.StatusConflict, "invalid_state", "el pago ya está en curso para este pedido")
	default:
		handleBackendError(w, r, err)
	}
}

// PaymentCallback receives the payment widget outcome. On success the
// flow completes even when the payment-reference patch fails; on failure
// the session stays retryable.
func (h *CheckoutHandler) PaymentCallback(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	key, userID := principal(r.Context())
	if key == "" {
		respondError(w, r, http.StatusBadRequest, "missing_session", "falta el identificador de sesión")
		return
	}

	var req paymentCallbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", "cuerpo JSON inválido")
		return
	}
	if req.Error == "" && req.TransactionID == "" {
		respondError(w, r, http.StatusBadRequest, "invalid_request", "falta el resultado del pago")
		return
	}

	session := h.sessions.Checkout(key, userID)
	collector := widgetCollector{
		result: domain.PaymentResult{
			TransactionID: req.TransactionID,
			Amount:        req.Amount,
			Currency:      req.Currency,
		},
		failure: req.Error,
	}

	payment, err := session.CompletePayment(ctx, collector)
	if err != nil {
		var payErr *checkout.PaymentError
		switch {
		case errors.As(err, &payErr):
			// Retryable: the order exists, shipping data survives.
			respondError(w, r, http.StatusPaymentRequired, "payment_failed", payErr.Error())
		case errors.Is(err, checkout.ErrIllegalTransition), errors.Is(err, checkout.ErrNoOrder):
			respondError(w, r, http.StatusConflict, "invalid_state", "no hay un pedido pendiente de pago")
		default:
			handleBackendError(w, r, err)
		}
		return
	}

	order := session.Order()
	h.sessions.FinishCheckout(key)

	logging.FromContext(r.Context()).Info("checkout finished",
		zap.String("order_id", order.ID))
	respondJSON(w, r, http.StatusOK, paymentCompletedResponse{
		Order:    order,
		Payment:  *payment,
		Redirect: "/pedido/" + order.ID + "/confirmacion",
	})
}
