package models

import (
	"time"
)

// DisputeStatus is the state of a dispute.
type DisputeStatus string

const (
	DisputeStatusOpen       DisputeStatus = "open"
	DisputeStatusInProgress DisputeStatus = "in_progress"
	DisputeStatusResolved   DisputeStatus = "resolved"
	DisputeStatusClosed     DisputeStatus = "closed"
)

// Valid reports whether s is a known dispute status.
func (s DisputeStatus) Valid() bool {
	switch s {
	case DisputeStatusOpen, DisputeStatusInProgress, DisputeStatusResolved, DisputeStatusClosed:
		return true
	}
	return false
}

// Dispute is a complaint raised on an order by its customer or tailor.
type Dispute struct {
	ID              uint          `gorm:"primaryKey" json:"id"`
	OrderID         uint          `gorm:"not null;index" json:"order_id"`
	CustomerID      uint          `gorm:"not null;index" json:"customer_id"`
	TailorID        uint          `gorm:"not null;index" json:"tailor_id"`
	Subject         string        `gorm:"not null" json:"subject"`
	Description     string        `gorm:"type:text;not null" json:"description"`
	Status          DisputeStatus `gorm:"type:varchar(20);not null;default:'open';index" json:"status"`
	Priority        string        `gorm:"type:varchar(20);not null;default:'medium'" json:"priority"`
	RaisedBy        SenderType    `gorm:"type:varchar(20);not null" json:"raised_by"`
	ResolutionNotes *string       `gorm:"type:text" json:"resolution_notes,omitempty"`
	ResolvedBy      *uint         `json:"resolved_by,omitempty"`
	CreatedAt       time.Time     `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
	ResolvedAt      *time.Time    `json:"resolved_at,omitempty"` // set only when resolved
}

// TableName specifies the table name for the Dispute model.
func (Dispute) TableName() string {
	return "disputes"
}

// DisputeMessage is one entry in a dispute thread.
type DisputeMessage struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	DisputeID  uint       `gorm:"not null;index" json:"dispute_id"`
	SenderID   uint       `gorm:"not null" json:"sender_id"` // users.id
	SenderType SenderType `gorm:"type:varchar(20);not null" json:"sender_type"`
	Content    string     `gorm:"type:text;not null" json:"content"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for the DisputeMessage model.
func (DisputeMessage) TableName() string {
	return "dispute_messages"
}
