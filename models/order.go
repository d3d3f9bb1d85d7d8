package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderStatus is a step in the order lifecycle.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusAccepted   OrderStatus = "accepted"
	OrderStatusRejected   OrderStatus = "rejected"
	OrderStatusInProgress OrderStatus = "in_progress"
	OrderStatusReady      OrderStatus = "ready"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// OrderStatuses lists every status an order may hold.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusAccepted,
	OrderStatusRejected,
	OrderStatusInProgress,
	OrderStatusReady,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Order represents a tailoring order placed by a customer with a tailor.
type Order struct {
	ID                   uint            `gorm:"primaryKey" json:"id"`
	OrderNumber          string          `gorm:"uniqueIndex;not null" json:"order_number"`
	CustomerID           uint            `gorm:"not null;index" json:"customer_id"` // customer_profiles.id
	TailorID             uint            `gorm:"not null;index" json:"tailor_id"`   // tailor_profiles.id
	Status               OrderStatus     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	TotalAmount          decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"total_amount"`
	AdvancePaid          decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"advance_paid"`
	FinalPaid            decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"final_paid"`
	DeliveryAddress      *string         `json:"delivery_address,omitempty"`
	DeliveryDateEstimate *time.Time      `json:"delivery_date_estimate,omitempty"`
	ActualDeliveryDate   *time.Time      `json:"actual_delivery_date,omitempty"`
	Notes                *string         `gorm:"type:text" json:"notes,omitempty"`
	DesignReferences     []string        `gorm:"type:text;serializer:json" json:"design_references"`
	MeasurementID        *uint           `gorm:"index" json:"measurement_id,omitempty"`
	RejectedReason       *string         `json:"rejected_reason,omitempty"`
	Items                []OrderItem     `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	CreatedAt            time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
	DeletedAt            gorm.DeletedAt  `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Order model.
func (Order) TableName() string {
	return "orders"
}

// OrderItem is one garment line on an order.
type OrderItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	OrderID     uint            `gorm:"not null;index" json:"order_id"`
	GarmentType string          `gorm:"not null" json:"garment_type"`
	FabricType  *string         `json:"fabric_type,omitempty"`
	Color       *string         `json:"color,omitempty"`
	Quantity    int             `gorm:"not null;check:quantity > 0" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	Notes       *string         `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// TableName specifies the table name for the OrderItem model.
func (OrderItem) TableName() string {
	return "order_items"
}

// LineTotal is quantity times unit price.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// OrderStatusHistory is one entry in an order's append-only transition log.
type OrderStatusHistory struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	OrderID   uint        `gorm:"not null;index" json:"order_id"`
	Status    OrderStatus `gorm:"type:varchar(20);not null" json:"status"`
	ChangedBy *uint       `json:"changed_by,omitempty"` // users.id of the actor, if known
	Notes     *string     `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt time.Time   `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for the OrderStatusHistory model.
func (OrderStatusHistory) TableName() string {
	return "order_status_history"
}
