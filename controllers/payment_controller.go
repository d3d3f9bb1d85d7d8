package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/tailorly-api/config"
	"github.com/kendall-kelly/tailorly-api/events"
	"github.com/kendall-kelly/tailorly-api/logger"
	"github.com/kendall-kelly/tailorly-api/models"
	"github.com/kendall-kelly/tailorly-api/services"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// maxWebhookBytes bounds the webhook body read into memory.
const maxWebhookBytes = 64 << 10

// StripeSignatureHeader carries the webhook signature.
const StripeSignatureHeader = "Stripe-Signature"

// CreatePaymentRequest represents the request body for paying towards an order.
type CreatePaymentRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	PaymentType   string          `json:"payment_type" binding:"required,payment_type"`
	PaymentMethod *string         `json:"payment_method"`
}

// CapturePaymentRequest carries the provider's payment id returned by the checkout widget.
type CapturePaymentRequest struct {
	ProviderPaymentID *string `json:"provider_payment_id"`
}

// UpdatePaymentStatusRequest is the admin override of a payment's status.
type UpdatePaymentStatusRequest struct {
	Status            string  `json:"status" binding:"required,payment_status"`
	ProviderPaymentID *string `json:"provider_payment_id"`
}

func paymentService() *services.PaymentService {
	var currency string
	if cfg := config.GetConfig(); cfg != nil {
		currency = cfg.PaymentCurrency
	}
	return services.NewPaymentService(config.GetDB(), services.GetPaymentProvider(), events.GetPublisher(), currency)
}

// CreatePayment handles POST /api/v1/orders/:id/payments - the order's customer
// starts a payment and receives the checkout client secret.
func CreatePayment(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	order, ok := loadOrder(c, sess)
	if !ok {
		return
	}
	if sess.Role == models.RoleTailor {
		respondErrorCode(c, http.StatusForbidden, "FORBIDDEN", "Only the customer can pay for this order")
		return
	}

	result, err := paymentService().CreatePayment(c.Request.Context(), services.CreatePaymentInput{
		OrderID:       order.ID,
		Amount:        req.Amount,
		PaymentType:   models.PaymentType(req.PaymentType),
		CustomerID:    order.CustomerID,
		TailorID:      order.TailorID,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		respondError(c, err, "payment")
		return
	}
	respondOK(c, http.StatusCreated, result)
}

// ListOrderPayments handles GET /api/v1/orders/:id/payments.
func ListOrderPayments(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	order, ok := loadOrder(c, sess)
	if !ok {
		return
	}

	payments, err := paymentService().GetOrderPayments(c.Request.Context(), order.ID)
	if err != nil {
		respondError(c, err, "payment")
		return
	}
	respondOK(c, http.StatusOK, payments)
}

// ListPayments handles GET /api/v1/payments. Customers get their payments,
// tailors their captured earnings and admins pass customer_id.
func ListPayments(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	svc := paymentService()
	var (
		payments []models.Payment
		err      error
	)
	switch sess.Role {
	case models.RoleCustomer:
		payments, err = svc.GetPayments(ctx, sess.ProfileID())
	case models.RoleTailor:
		payments, err = svc.GetTailorEarnings(ctx, sess.ProfileID())
	default:
		var q struct {
			CustomerID uint `form:"customer_id" binding:"required"`
		}
		if err := c.ShouldBindQuery(&q); err != nil {
			respondValidation(c, err)
			return
		}
		payments, err = svc.GetPayments(ctx, q.CustomerID)
	}
	if err != nil {
		respondError(c, err, "payment")
		return
	}
	respondOK(c, http.StatusOK, payments)
}

// loadPayment fetches the :id payment and checks the session is a party to it.
func loadPayment(c *gin.Context, sess *services.Session) (*models.Payment, bool) {
	id, ok := parseID(c, "id")
	if !ok {
		return nil, false
	}
	payment, err := paymentService().GetPayment(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "payment")
		return nil, false
	}
	if !requireParty(c, sess, payment.CustomerID, payment.TailorID, "You do not have access to this payment") {
		return nil, false
	}
	return payment, true
}

// GetPayment handles GET /api/v1/payments/:id.
func GetPayment(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	payment, ok := loadPayment(c, sess)
	if !ok {
		return
	}
	respondOK(c, http.StatusOK, payment)
}

// CapturePayment handles POST /api/v1/payments/:id/capture - called once the
// checkout widget reports success. Repeating it is harmless.
func CapturePayment(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	var req CapturePaymentRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidation(c, err)
			return
		}
	}

	payment, ok := loadPayment(c, sess)
	if !ok {
		return
	}
	if sess.Role == models.RoleTailor {
		respondErrorCode(c, http.StatusForbidden, "FORBIDDEN", "Only the customer can confirm a payment")
		return
	}

	captured, err := paymentService().CapturePayment(c.Request.Context(), payment.ID, req.ProviderPaymentID)
	if err != nil {
		respondError(c, err, "payment")
		return
	}
	respondOK(c, http.StatusOK, captured)
}

// UpdatePaymentStatus handles PATCH /api/v1/payments/:id/status (admins only).
func UpdatePaymentStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req UpdatePaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	svc := paymentService()
	ctx := c.Request.Context()
	status := models.PaymentStatus(req.Status)

	var (
		payment *models.Payment
		err     error
	)
	if status == models.PaymentStatusCaptured {
		payment, err = svc.CapturePayment(ctx, id, req.ProviderPaymentID)
	} else {
		payment, err = svc.UpdatePaymentStatus(ctx, id, status, req.ProviderPaymentID)
	}
	if err != nil {
		respondError(c, err, "payment")
		return
	}
	respondOK(c, http.StatusOK, payment)
}

// PaymentWebhook handles POST /api/v1/payments/webhook. The body is verified
// against the Stripe-Signature header before anything is applied.
func PaymentWebhook(c *gin.Context) {
	provider := services.GetPaymentProvider()
	if provider == nil {
		respondErrorCode(c, http.StatusServiceUnavailable, "PAYMENTS_UNAVAILABLE", "Payment provider is not configured")
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBytes))
	if err != nil {
		respondErrorCode(c, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Webhook payload is too large")
		return
	}

	ctx := c.Request.Context()
	evt, err := provider.ParseWebhook(payload, c.GetHeader(StripeSignatureHeader))
	if err != nil {
		logger.Warn(ctx, "Rejected payment webhook", zap.Error(err))
		respondErrorCode(c, http.StatusBadRequest, "INVALID_SIGNATURE", "Webhook signature verification failed")
		return
	}

	handled, err := paymentService().HandleProviderEvent(ctx, evt)
	switch {
	case err == nil:
	case errors.Is(err, services.ErrNotFound), errors.Is(err, services.ErrInvalidInput):
		// Nothing to retry; acknowledge so the provider stops redelivering
		logger.Warn(ctx, "Payment webhook not applied", zap.String("event_id", evt.ID), zap.Error(err))
	default:
		logger.Error(ctx, "Payment webhook failed", err, zap.String("event_id", evt.ID))
		respondErrorCode(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to apply payment event")
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"received": true,
		"handled":  handled,
	})
}
