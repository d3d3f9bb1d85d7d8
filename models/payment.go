package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the state of a payment record.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusCaptured PaymentStatus = "captured"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCaptured, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// PaymentType says which part of the order total a payment covers.
type PaymentType string

const (
	PaymentTypeAdvance PaymentType = "advance"
	PaymentTypeFinal   PaymentType = "final"
	PaymentTypeFull    PaymentType = "full"
)

// Valid reports whether t is a known payment type.
func (t PaymentType) Valid() bool {
	switch t {
	case PaymentTypeAdvance, PaymentTypeFinal, PaymentTypeFull:
		return true
	}
	return false
}

// Payment records a payment intent and its capture for an order.
type Payment struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	OrderID           uint            `gorm:"not null;index" json:"order_id"`
	CustomerID        uint            `gorm:"not null;index" json:"customer_id"`
	TailorID          uint            `gorm:"not null;index" json:"tailor_id"`
	Amount            decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Currency          string          `gorm:"type:varchar(10);not null" json:"currency"`
	Status            PaymentStatus   `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	PaymentType       PaymentType     `gorm:"type:varchar(20);not null" json:"payment_type"`
	PaymentMethod     *string         `json:"payment_method,omitempty"`
	ProviderOrderID   *string         `gorm:"index" json:"provider_order_id,omitempty"`   // checkout provider intent id
	ProviderPaymentID *string         `gorm:"index" json:"provider_payment_id,omitempty"` // returned by the checkout widget
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	CapturedAt        *time.Time      `json:"captured_at,omitempty"` // set only when status is captured
}

// TableName specifies the table name for the Payment model.
func (Payment) TableName() string {
	return "payments"
}
