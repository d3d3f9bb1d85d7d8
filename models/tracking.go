package models

import (
	"time"
)

// TrackingStatus is the delivery state reported with a location update.
type TrackingStatus string

const (
	TrackingStatusPending        TrackingStatus = "pending"
	TrackingStatusInTransit      TrackingStatus = "in_transit"
	TrackingStatusOutForDelivery TrackingStatus = "out_for_delivery"
	TrackingStatusDelivered      TrackingStatus = "delivered"
)

// Valid reports whether s is a known tracking status.
func (s TrackingStatus) Valid() bool {
	switch s {
	case TrackingStatusPending, TrackingStatusInTransit, TrackingStatusOutForDelivery, TrackingStatusDelivered:
		return true
	}
	return false
}

// DeliveryTracking is one append-only location report for an order.
type DeliveryTracking struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	OrderID   uint           `gorm:"not null;index" json:"order_id"`
	Latitude  float64        `gorm:"not null" json:"latitude"`
	Longitude float64        `gorm:"not null" json:"longitude"`
	Address   *string        `json:"address,omitempty"`
	Status    TrackingStatus `gorm:"type:varchar(20);not null" json:"status"`
	UpdatedBy uint           `gorm:"not null" json:"updated_by"` // users.id
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for the DeliveryTracking model.
func (DeliveryTracking) TableName() string {
	return "delivery_tracking"
}

// Measurement is a set of body measurements kept by a customer.
type Measurement struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CustomerID  uint      `gorm:"not null;index" json:"customer_id"`
	HeightCm    *float64  `json:"height_cm,omitempty"`
	BustCm      *float64  `json:"bust_cm,omitempty"`
	WaistCm     *float64  `json:"waist_cm,omitempty"`
	HipCm       *float64  `json:"hip_cm,omitempty"`
	ShoulderCm  *float64  `json:"shoulder_cm,omitempty"`
	ArmLengthCm *float64  `json:"arm_length_cm,omitempty"`
	InseamCm    *float64  `json:"inseam_cm,omitempty"`
	ChestCm     *float64  `json:"chest_cm,omitempty"`
	NeckCm      *float64  `json:"neck_cm,omitempty"`
	Notes       *string   `gorm:"type:text" json:"notes,omitempty"`
	IsPrimary   bool      `gorm:"not null;default:false" json:"is_primary"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Measurement model.
func (Measurement) TableName() string {
	return "measurements"
}
