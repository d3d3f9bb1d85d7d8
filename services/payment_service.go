package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/kendall-kelly/tailorly-api/events"
	"github.com/kendall-kelly/tailorly-api/logger"
	"github.com/kendall-kelly/tailorly-api/metrics"
	"github.com/kendall-kelly/tailorly-api/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CreatePaymentInput describes a payment to be collected for an order.
type CreatePaymentInput struct {
	OrderID       uint
	Amount        decimal.Decimal
	PaymentType   models.PaymentType
	CustomerID    uint
	TailorID      uint
	PaymentMethod *string
}

// CreatePaymentResult is the stored payment plus the secret the checkout widget needs.
type CreatePaymentResult struct {
	Payment      *models.Payment `json:"payment"`
	ClientSecret string          `json:"client_secret,omitempty"`
}

// PaymentService records payments and their captures.
type PaymentService struct {
	db        *gorm.DB
	provider  PaymentProvider
	publisher events.Publisher
	currency  string
	now       func() time.Time
}

// NewPaymentService builds the service. provider may be nil, in which case
// payments are recorded without a checkout intent.
func NewPaymentService(db *gorm.DB, provider PaymentProvider, publisher events.Publisher, currency string) *PaymentService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if currency == "" {
		currency = "INR"
	}
	return &PaymentService{db: db, provider: provider, publisher: publisher, currency: currency, now: time.Now}
}

func (s *PaymentService) CreatePayment(ctx context.Context, in CreatePaymentInput) (*CreatePaymentResult, error) {
	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	if !in.PaymentType.Valid() {
		return nil, fmt.Errorf("%w: payment type %q", ErrInvalidInput, in.PaymentType)
	}

	var order models.Order
	if err := s.db.WithContext(ctx).First(&order, in.OrderID).Error; err != nil {
		return nil, fmt.Errorf("order %d: %w", in.OrderID, notFound(err))
	}
	if in.CustomerID == 0 {
		in.CustomerID = order.CustomerID
	}
	if in.TailorID == 0 {
		in.TailorID = order.TailorID
	}
	if in.CustomerID != order.CustomerID || in.TailorID != order.TailorID {
		return nil, fmt.Errorf("%w: payment parties do not match order %d", ErrForbidden, order.ID)
	}

	payment := models.Payment{
		OrderID:       order.ID,
		CustomerID:    in.CustomerID,
		TailorID:      in.TailorID,
		Amount:        in.Amount,
		Currency:      s.currency,
		Status:        models.PaymentStatusPending,
		PaymentType:   in.PaymentType,
		PaymentMethod: in.PaymentMethod,
	}

	result := &CreatePaymentResult{Payment: &payment}
	if s.provider != nil {
		intent, err := s.provider.CreateIntent(ctx, in.Amount, s.currency, map[string]string{
			"order_id":     strconv.FormatUint(uint64(order.ID), 10),
			"order_number": order.OrderNumber,
			"payment_type": string(in.PaymentType),
		})
		if err != nil {
			return nil, err
		}
		payment.ProviderOrderID = &intent.ID
		result.ClientSecret = intent.ClientSecret
	}

	if err := s.db.WithContext(ctx).Create(&payment).Error; err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}

	logger.Info(ctx, "Payment created",
		zap.Uint("payment_id", payment.ID), zap.Uint("order_id", order.ID), zap.String("type", string(in.PaymentType)))
	return result, nil
}

// UpdatePaymentStatus sets the status. captured_at is stamped for captured and cleared otherwise.
func (s *PaymentService) UpdatePaymentStatus(ctx context.Context, id uint, status models.PaymentStatus, providerPaymentID *string) (*models.Payment, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	var payment models.Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&payment, id).Error; err != nil {
			return fmt.Errorf("payment %d: %w", id, notFound(err))
		}
		if err := s.setStatus(tx, &payment, status, providerPaymentID); err != nil {
			return err
		}
		return tx.First(&payment, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (s *PaymentService) setStatus(tx *gorm.DB, payment *models.Payment, status models.PaymentStatus, providerPaymentID *string) error {
	updates := map[string]interface{}{
		"status":      status,
		"captured_at": nil,
	}
	if status == models.PaymentStatusCaptured {
		updates["captured_at"] = s.now()
	}
	if providerPaymentID != nil && *providerPaymentID != "" {
		updates["provider_payment_id"] = *providerPaymentID
	}
	return tx.Model(&models.Payment{}).Where("id = ?", payment.ID).Updates(updates).Error
}

// CapturePayment marks the payment captured and credits the order's advance or
// final paid amount. Only pending or failed payments can be captured;
// capturing an already captured payment changes nothing.
func (s *PaymentService) CapturePayment(ctx context.Context, id uint, providerPaymentID *string) (*models.Payment, error) {
	var (
		payment  models.Payment
		captured bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&payment, id).Error; err != nil {
			return fmt.Errorf("payment %d: %w", id, notFound(err))
		}
		switch payment.Status {
		case models.PaymentStatusCaptured:
			return nil
		case models.PaymentStatusPending, models.PaymentStatusFailed:
		default:
			return fmt.Errorf("%w: payment %d is %s", ErrInvalidStatus, payment.ID, payment.Status)
		}

		if err := s.setStatus(tx, &payment, models.PaymentStatusCaptured, providerPaymentID); err != nil {
			return err
		}

		column := "final_paid"
		if payment.PaymentType == models.PaymentTypeAdvance {
			column = "advance_paid"
		}
		res := tx.Model(&models.Order{}).
			Where("id = ?", payment.OrderID).
			UpdateColumn(column, gorm.Expr(column+" + ?", payment.Amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("order %d: %w", payment.OrderID, ErrNotFound)
		}
		captured = true
		return tx.First(&payment, id).Error
	})
	if err != nil {
		return nil, fmt.Errorf("capture payment: %w", err)
	}

	if captured {
		metrics.PaymentsCaptured.Inc()
		evt := events.OrderEvent{
			Type:       events.PaymentCaptured,
			OrderID:    payment.OrderID,
			Status:     string(payment.Status),
			CustomerID: payment.CustomerID,
			TailorID:   payment.TailorID,
			Amount:     payment.Amount.StringFixed(2),
			OccurredAt: s.now().UTC(),
		}
		if err := s.publisher.PublishOrderEvent(ctx, evt); err != nil {
			logger.Warn(ctx, "Payment event not published", zap.Uint("payment_id", payment.ID), zap.Error(err))
		}
		logger.Info(ctx, "Payment captured", zap.Uint("payment_id", payment.ID), zap.Uint("order_id", payment.OrderID))
	}
	return &payment, nil
}

// HandleProviderEvent applies a verified webhook event. It reports whether
// the event changed a payment.
func (s *PaymentService) HandleProviderEvent(ctx context.Context, evt *ProviderEvent) (bool, error) {
	switch evt.Type {
	case ProviderEventSucceeded, ProviderEventFailed, ProviderEventRefunded:
	default:
		logger.Info(ctx, "Unhandled payment provider event", zap.String("event_type", evt.Type))
		return false, nil
	}
	if evt.IntentID == "" {
		return false, fmt.Errorf("%w: event %s has no payment intent", ErrInvalidInput, evt.ID)
	}

	var payment models.Payment
	if err := s.db.WithContext(ctx).Where("provider_order_id = ?", evt.IntentID).First(&payment).Error; err != nil {
		return false, fmt.Errorf("payment for intent %s: %w", evt.IntentID, notFound(err))
	}

	var providerPaymentID *string
	if evt.ProviderPaymentID != "" {
		providerPaymentID = &evt.ProviderPaymentID
	}

	switch evt.Type {
	case ProviderEventSucceeded:
		if payment.Status == models.PaymentStatusCaptured || payment.Status == models.PaymentStatusRefunded {
			logger.Info(ctx, "Skipping duplicate payment webhook", zap.Uint("payment_id", payment.ID))
			return false, nil
		}
		_, err := s.CapturePayment(ctx, payment.ID, providerPaymentID)
		return err == nil, err
	case ProviderEventFailed:
		if payment.Status != models.PaymentStatusPending {
			return false, nil
		}
		_, err := s.UpdatePaymentStatus(ctx, payment.ID, models.PaymentStatusFailed, providerPaymentID)
		return err == nil, err
	default:
		if payment.Status == models.PaymentStatusRefunded {
			return false, nil
		}
		_, err := s.UpdatePaymentStatus(ctx, payment.ID, models.PaymentStatusRefunded, providerPaymentID)
		return err == nil, err
	}
}

func (s *PaymentService) GetPayment(ctx context.Context, id uint) (*models.Payment, error) {
	var payment models.Payment
	if err := s.db.WithContext(ctx).First(&payment, id).Error; err != nil {
		return nil, fmt.Errorf("payment %d: %w", id, notFound(err))
	}
	return &payment, nil
}

// GetPayments lists a customer's payments newest first.
func (s *PaymentService) GetPayments(ctx context.Context, customerID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := s.db.WithContext(ctx).Where("customer_id = ?", customerID).Order("created_at DESC, id DESC").Find(&payments).Error
	return payments, err
}

func (s *PaymentService) GetOrderPayments(ctx context.Context, orderID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := s.db.WithContext(ctx).Where("order_id = ?", orderID).Order("created_at DESC, id DESC").Find(&payments).Error
	return payments, err
}

// GetTailorEarnings lists a tailor's captured payments, latest capture first.
func (s *PaymentService) GetTailorEarnings(ctx context.Context, tailorID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := s.db.WithContext(ctx).
		Where("tailor_id = ? AND status = ?", tailorID, models.PaymentStatusCaptured).
		Order("captured_at DESC, id DESC").
		Find(&payments).Error
	return payments, err
}
