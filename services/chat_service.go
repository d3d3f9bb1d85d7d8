package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kendall-kelly/tailorly-api/logger"
	"github.com/kendall-kelly/tailorly-api/models"
	"github.com/kendall-kelly/tailorly-api/realtime"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SendMessageInput is a chat message to append to a conversation.
type SendMessageInput struct {
	ConversationID uint
	SenderID       uint // users.id
	SenderType     models.SenderType
	Content        string
	AttachmentKey  *string
}

// ChatService manages customer/tailor conversations.
type ChatService struct {
	db     *gorm.DB
	broker realtime.Broker
	now    func() time.Time
}

func NewChatService(db *gorm.DB, broker realtime.Broker) *ChatService {
	return &ChatService{db: db, broker: broker, now: time.Now}
}

// GetOrCreateConversation returns the single conversation for the pair,
// creating it when absent. The unique (customer_id, tailor_id) index makes
// concurrent first contact converge on one row.
func (s *ChatService) GetOrCreateConversation(ctx context.Context, customerID, tailorID uint, orderID *uint) (*models.Conversation, error) {
	if customerID == 0 || tailorID == 0 {
		return nil, fmt.Errorf("%w: customer and tailor are required", ErrInvalidInput)
	}

	db := s.db.WithContext(ctx)
	for _, party := range []struct {
		model interface{}
		id    uint
		name  string
	}{
		{&models.CustomerProfile{}, customerID, "customer"},
		{&models.TailorProfile{}, tailorID, "tailor"},
	} {
		var n int64
		if err := db.Model(party.model).Where("id = ?", party.id).Count(&n).Error; err != nil {
			return nil, fmt.Errorf("check %s: %w", party.name, err)
		}
		if n == 0 {
			return nil, fmt.Errorf("%w: %s %d does not exist", ErrInvalidInput, party.name, party.id)
		}
	}

	candidate := models.Conversation{
		CustomerID:    customerID,
		TailorID:      tailorID,
		OrderID:       orderID,
		LastMessageAt: s.now(),
		IsActive:      true,
	}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "customer_id"}, {Name: "tailor_id"}},
		DoNothing: true,
	}).Create(&candidate).Error
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}

	var conv models.Conversation
	if err := db.Where("customer_id = ? AND tailor_id = ?", customerID, tailorID).First(&conv).Error; err != nil {
		return nil, fmt.Errorf("load conversation: %w", notFound(err))
	}
	return &conv, nil
}

// GetConversations lists a participant's active conversations, most recent message first.
func (s *ChatService) GetConversations(ctx context.Context, profileID uint, role models.Role) ([]models.Conversation, error) {
	q := s.db.WithContext(ctx).Where("is_active = ?", true)
	switch role {
	case models.RoleCustomer:
		q = q.Where("customer_id = ?", profileID)
	case models.RoleTailor:
		q = q.Where("tailor_id = ?", profileID)
	case models.RoleAdmin:
	default:
		return nil, fmt.Errorf("%w: role %q", ErrInvalidInput, role)
	}

	var convs []models.Conversation
	err := q.Order("last_message_at DESC, id DESC").Find(&convs).Error
	return convs, err
}

func (s *ChatService) GetConversation(ctx context.Context, id uint) (*models.Conversation, error) {
	var conv models.Conversation
	if err := s.db.WithContext(ctx).First(&conv, id).Error; err != nil {
		return nil, fmt.Errorf("conversation %d: %w", id, notFound(err))
	}
	return &conv, nil
}

// GetMessages returns a conversation's messages oldest first.
func (s *ChatService) GetMessages(ctx context.Context, conversationID uint) ([]models.Message, error) {
	var msgs []models.Message
	err := s.db.WithContext(ctx).Where("conversation_id = ?", conversationID).Order("created_at ASC, id ASC").Find(&msgs).Error
	return msgs, err
}

// SendMessage stores an unread message, bumps last_message_at and publishes
// the row on messages:<conversation id>.
func (s *ChatService) SendMessage(ctx context.Context, in SendMessageInput) (*models.Message, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" && in.AttachmentKey == nil {
		return nil, fmt.Errorf("%w: message is empty", ErrInvalidInput)
	}

	msg := models.Message{
		ConversationID: in.ConversationID,
		SenderID:       in.SenderID,
		SenderType:     in.SenderType,
		Content:        content,
		AttachmentKey:  in.AttachmentKey,
		IsRead:         false,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var conv models.Conversation
		if err := tx.First(&conv, in.ConversationID).Error; err != nil {
			return fmt.Errorf("conversation %d: %w", in.ConversationID, notFound(err))
		}
		if !conv.IsActive {
			return fmt.Errorf("%w: conversation %d is closed", ErrForbidden, conv.ID)
		}
		if err := tx.Create(&msg).Error; err != nil {
			return err
		}
		return tx.Model(&models.Conversation{}).Where("id = ?", conv.ID).
			Update("last_message_at", msg.CreatedAt).Error
	})
	if err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}

	if s.broker != nil {
		if err := s.broker.Publish(ctx, realtime.MessagesTopic(in.ConversationID), msg); err != nil {
			logger.Warn(ctx, "Message not pushed", zap.Uint("conversation_id", in.ConversationID), zap.Error(err))
		}
	}
	return &msg, nil
}

// MarkMessagesAsRead flags every unread message the reader did not send.
// It returns the number of messages changed.
func (s *ChatService) MarkMessagesAsRead(ctx context.Context, conversationID, readerID uint) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND is_read = ?", conversationID, readerID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

func (s *ChatService) CloseConversation(ctx context.Context, id uint) (*models.Conversation, error) {
	res := s.db.WithContext(ctx).Model(&models.Conversation{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("conversation %d: %w", id, ErrNotFound)
	}
	return s.GetConversation(ctx, id)
}

// SubscribeToMessages streams messages inserted into conversationID.
func (s *ChatService) SubscribeToMessages(ctx context.Context, conversationID uint) (*realtime.Subscription, error) {
	return s.broker.Subscribe(ctx, realtime.MessagesTopic(conversationID))
}
