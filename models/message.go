package models

import (
	"time"
)

// SenderType identifies which side of a thread wrote a message.
type SenderType string

const (
	SenderCustomer SenderType = "customer"
	SenderTailor   SenderType = "tailor"
	SenderAdmin    SenderType = "admin"
)

// Conversation is the single chat thread between one customer and one tailor.
type Conversation struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	CustomerID    uint      `gorm:"not null;uniqueIndex:idx_conversation_pair" json:"customer_id"`
	TailorID      uint      `gorm:"not null;uniqueIndex:idx_conversation_pair" json:"tailor_id"`
	OrderID       *uint     `gorm:"index" json:"order_id,omitempty"`
	LastMessageAt time.Time `gorm:"index" json:"last_message_at"`
	IsActive      bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName specifies the table name for the Conversation model.
func (Conversation) TableName() string {
	return "conversations"
}

// Message represents a message in a conversation.
type Message struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	ConversationID uint       `gorm:"not null;index" json:"conversation_id"`
	SenderID       uint       `gorm:"not null;index" json:"sender_id"` // users.id
	SenderType     SenderType `gorm:"type:varchar(20);not null" json:"sender_type"`
	Content        string     `gorm:"type:text;not null" json:"content"`
	AttachmentKey  *string    `json:"attachment_key,omitempty"`
	AttachmentURL  *string    `gorm:"-" json:"attachment_url,omitempty"` // computed, presigned URL
	IsRead         bool       `gorm:"not null;default:false;index" json:"is_read"`
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for the Message model.
func (Message) TableName() string {
	return "messages"
}
