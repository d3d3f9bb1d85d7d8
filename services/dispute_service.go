package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kendall-kelly/tailorly-api/logger"
	"github.com/kendall-kelly/tailorly-api/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultDisputePriority is assigned when a dispute is raised without one.
const DefaultDisputePriority = "medium"

// CreateDisputeInput describes a new dispute on an order.
type CreateDisputeInput struct {
	OrderID     uint
	Subject     string
	Description string
	Priority    string
	RaisedBy    models.SenderType
}

type DisputeService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewDisputeService(db *gorm.DB) *DisputeService {
	return &DisputeService{db: db, now: time.Now}
}

// CreateDispute opens a dispute. Customer and tailor are taken from the order.
func (s *DisputeService) CreateDispute(ctx context.Context, in CreateDisputeInput) (*models.Dispute, error) {
	if strings.TrimSpace(in.Subject) == "" || strings.TrimSpace(in.Description) == "" {
		return nil, fmt.Errorf("%w: subject and description are required", ErrInvalidInput)
	}
	priority := in.Priority
	if priority == "" {
		priority = DefaultDisputePriority
	}

	var order models.Order
	if err := s.db.WithContext(ctx).First(&order, in.OrderID).Error; err != nil {
		return nil, fmt.Errorf("order %d: %w", in.OrderID, notFound(err))
	}

	dispute := models.Dispute{
		OrderID:     order.ID,
		CustomerID:  order.CustomerID,
		TailorID:    order.TailorID,
		Subject:     strings.TrimSpace(in.Subject),
		Description: strings.TrimSpace(in.Description),
		Status:      models.DisputeStatusOpen,
		Priority:    priority,
		RaisedBy:    in.RaisedBy,
	}
	if err := s.db.WithContext(ctx).Create(&dispute).Error; err != nil {
		return nil, fmt.Errorf("create dispute: %w", err)
	}
	logger.Info(ctx, "Dispute opened", zap.Uint("dispute_id", dispute.ID), zap.Uint("order_id", order.ID))
	return &dispute, nil
}

// GetDisputes scopes the list by role: customers and tailors see their own, admins see all.
func (s *DisputeService) GetDisputes(ctx context.Context, profileID uint, role models.Role) ([]models.Dispute, error) {
	q := s.db.WithContext(ctx)
	switch role {
	case models.RoleCustomer:
		q = q.Where("customer_id = ?", profileID)
	case models.RoleTailor:
		q = q.Where("tailor_id = ?", profileID)
	case models.RoleAdmin:
	default:
		return nil, fmt.Errorf("%w: role %q", ErrInvalidInput, role)
	}

	var disputes []models.Dispute
	err := q.Order("created_at DESC, id DESC").Find(&disputes).Error
	return disputes, err
}

func (s *DisputeService) GetDispute(ctx context.Context, id uint) (*models.Dispute, error) {
	var dispute models.Dispute
	if err := s.db.WithContext(ctx).First(&dispute, id).Error; err != nil {
		return nil, fmt.Errorf("dispute %d: %w", id, notFound(err))
	}
	return &dispute, nil
}

// UpdateDisputeStatus changes the status. resolved_at and resolved_by are
// set when the new status is resolved and cleared for every other status.
func (s *DisputeService) UpdateDisputeStatus(ctx context.Context, id uint, status models.DisputeStatus, notes *string, resolverID *uint) (*models.Dispute, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	updates := map[string]interface{}{
		"status":      status,
		"updated_at":  s.now(),
		"resolved_at": nil,
		"resolved_by": nil,
	}
	if notes != nil {
		updates["resolution_notes"] = *notes
	}
	if status == models.DisputeStatusResolved {
		updates["resolved_at"] = s.now()
		if resolverID != nil {
			updates["resolved_by"] = *resolverID
		}
	}

	res := s.db.WithContext(ctx).Model(&models.Dispute{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("update dispute: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("dispute %d: %w", id, ErrNotFound)
	}
	logger.Info(ctx, "Dispute status updated", zap.Uint("dispute_id", id), zap.String("status", string(status)))
	return s.GetDispute(ctx, id)
}

func (s *DisputeService) AddDisputeMessage(ctx context.Context, disputeID, senderID uint, senderType models.SenderType, content string) (*models.DisputeMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: message is empty", ErrInvalidInput)
	}
	if _, err := s.GetDispute(ctx, disputeID); err != nil {
		return nil, err
	}

	msg := models.DisputeMessage{
		DisputeID:  disputeID,
		SenderID:   senderID,
		SenderType: senderType,
		Content:    content,
	}
	if err := s.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return nil, fmt.Errorf("add dispute message: %w", err)
	}
	return &msg, nil
}

// GetDisputeMessages returns the thread oldest first.
func (s *DisputeService) GetDisputeMessages(ctx context.Context, disputeID uint) ([]models.DisputeMessage, error) {
	var msgs []models.DisputeMessage
	err := s.db.WithContext(ctx).Where("dispute_id = ?", disputeID).Order("created_at ASC, id ASC").Find(&msgs).Error
	return msgs, err
}
