package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kendall-kelly/tailorly-api/events"
	"github.com/kendall-kelly/tailorly-api/logger"
	"github.com/kendall-kelly/tailorly-api/metrics"
	"github.com/kendall-kelly/tailorly-api/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OrderItemInput is one garment line of a new order.
type OrderItemInput struct {
	GarmentType string
	FabricType  *string
	Color       *string
	Quantity    int
	UnitPrice   decimal.Decimal
	Notes       *string
}

// CreateOrderInput carries everything needed to place an order.
type CreateOrderInput struct {
	CustomerID           uint
	TailorID             uint
	Items                []OrderItemInput
	TotalAmount          decimal.Decimal // computed from items when zero
	DeliveryAddress      *string
	DeliveryDateEstimate *time.Time
	Notes                *string
	DesignReferences     []string
	MeasurementID        *uint
	ActorID              *uint // users.id of whoever placed the order
}

// OrderService owns the order lifecycle.
type OrderService struct {
	db        *gorm.DB
	publisher events.Publisher
	now       func() time.Time
}

func NewOrderService(db *gorm.DB, publisher events.Publisher) *OrderService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &OrderService{db: db, publisher: publisher, now: time.Now}
}

// NewOrderNumber returns an identifier of the form ORD-<unix millis>-<8 hex>.
func NewOrderNumber(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("ORD-%d-%s", now.UnixMilli(), strings.ToUpper(suffix))
}

// CreateOrder stores the order, its items and the initial pending history entry.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	if in.CustomerID == 0 || in.TailorID == 0 {
		return nil, fmt.Errorf("%w: customer and tailor are required", ErrInvalidInput)
	}
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("%w: at least one item is required", ErrInvalidInput)
	}

	total := decimal.Zero
	items := make([]models.OrderItem, 0, len(in.Items))
	for i, it := range in.Items {
		if strings.TrimSpace(it.GarmentType) == "" {
			return nil, fmt.Errorf("%w: item %d has no garment type", ErrInvalidInput, i)
		}
		if it.Quantity <= 0 {
			return nil, fmt.Errorf("%w: item %d quantity must be positive", ErrInvalidInput, i)
		}
		if it.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("%w: item %d unit price is negative", ErrInvalidInput, i)
		}
		item := models.OrderItem{
			GarmentType: it.GarmentType,
			FabricType:  it.FabricType,
			Color:       it.Color,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Notes:       it.Notes,
		}
		total = total.Add(item.LineTotal())
		items = append(items, item)
	}
	if !in.TotalAmount.IsZero() {
		total = in.TotalAmount
	}

	refs := in.DesignReferences
	if refs == nil {
		refs = []string{}
	}

	order := models.Order{
		OrderNumber:          NewOrderNumber(s.now()),
		CustomerID:           in.CustomerID,
		TailorID:             in.TailorID,
		Status:               models.OrderStatusPending,
		TotalAmount:          total,
		AdvancePaid:          decimal.Zero,
		FinalPaid:            decimal.Zero,
		DeliveryAddress:      in.DeliveryAddress,
		DeliveryDateEstimate: in.DeliveryDateEstimate,
		Notes:                in.Notes,
		DesignReferences:     refs,
		MeasurementID:        in.MeasurementID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tailor models.TailorProfile
		if err := tx.Select("id").First(&tailor, in.TailorID).Error; err != nil {
			return fmt.Errorf("tailor %d: %w", in.TailorID, notFound(err))
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
		return tx.Create(&models.OrderStatusHistory{
			OrderID:   order.ID,
			Status:    models.OrderStatusPending,
			ChangedBy: in.ActorID,
			Notes:     ptr("Order placed"),
		}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	order.Items = items

	metrics.OrderTransitions.WithLabelValues(string(models.OrderStatusPending)).Inc()
	s.publish(ctx, events.OrderCreated, &order, in.ActorID, "Order placed")
	logger.Info(ctx, "Order created",
		zap.Uint("order_id", order.ID), zap.String("order_number", order.OrderNumber), zap.Int("items", len(items)))

	return &order, nil
}

// GetOrder returns an order with its items.
func (s *OrderService) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).Preload("Items").First(&order, id).Error; err != nil {
		return nil, fmt.Errorf("order %d: %w", id, notFound(err))
	}
	return &order, nil
}

func (s *OrderService) GetOrderItems(ctx context.Context, orderID uint) ([]models.OrderItem, error) {
	var items []models.OrderItem
	if err := s.db.WithContext(ctx).Where("order_id = ?", orderID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// GetOrderHistory returns the transition log oldest first.
func (s *OrderService) GetOrderHistory(ctx context.Context, orderID uint) ([]models.OrderStatusHistory, error) {
	var history []models.OrderStatusHistory
	if err := s.db.WithContext(ctx).Where("order_id = ?", orderID).Order("created_at ASC, id ASC").Find(&history).Error; err != nil {
		return nil, err
	}
	return history, nil
}

func (s *OrderService) GetCustomerOrders(ctx context.Context, customerID uint) ([]models.Order, error) {
	return s.listOrders(ctx, "customer_id = ?", customerID)
}

func (s *OrderService) GetTailorOrders(ctx context.Context, tailorID uint) ([]models.Order, error) {
	return s.listOrders(ctx, "tailor_id = ?", tailorID)
}

func (s *OrderService) listOrders(ctx context.Context, where string, id uint) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).
		Preload("Items").
		Where(where, id).
		Order("created_at DESC, id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateOrderStatus moves an order to any known status and records the change.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id uint, status models.OrderStatus, actorID *uint, note *string) (*models.Order, error) {
	return s.transition(ctx, id, status, actorID, note, nil)
}

func (s *OrderService) AcceptOrder(ctx context.Context, id uint, actorID *uint) (*models.Order, error) {
	return s.transition(ctx, id, models.OrderStatusAccepted, actorID, ptr("Order accepted by tailor"), nil)
}

// RejectOrder stores the reason on the order and as the history note. A
// blank reason rejects the order without one.
func (s *OrderService) RejectOrder(ctx context.Context, id uint, actorID *uint, reason string) (*models.Order, error) {
	var note *string
	if r := strings.TrimSpace(reason); r != "" {
		note = &r
	}
	return s.transition(ctx, id, models.OrderStatusRejected, actorID, note, map[string]interface{}{
		"rejected_reason": note,
	})
}

// CompleteOrder marks the order delivered and stamps the actual delivery date.
func (s *OrderService) CompleteOrder(ctx context.Context, id uint, actorID *uint) (*models.Order, error) {
	return s.transition(ctx, id, models.OrderStatusDelivered, actorID, ptr("Order delivered"), map[string]interface{}{
		"actual_delivery_date": s.now(),
	})
}

func (s *OrderService) CancelOrder(ctx context.Context, id uint, actorID *uint, reason string) (*models.Order, error) {
	var note *string
	if r := strings.TrimSpace(reason); r != "" {
		note = &r
	}
	return s.transition(ctx, id, models.OrderStatusCancelled, actorID, note, nil)
}

func (s *OrderService) transition(ctx context.Context, id uint, status models.OrderStatus, actorID *uint, note *string, extra map[string]interface{}) (*models.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	var order models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, id).Error; err != nil {
			return fmt.Errorf("order %d: %w", id, notFound(err))
		}

		updates := map[string]interface{}{
			"status":     status,
			"updated_at": s.now(),
		}
		for k, v := range extra {
			updates[k] = v
		}
		if err := tx.Model(&models.Order{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}
		if err := tx.Create(&models.OrderStatusHistory{
			OrderID:   id,
			Status:    status,
			ChangedBy: actorID,
			Notes:     note,
		}).Error; err != nil {
			return err
		}
		return tx.Preload("Items").First(&order, id).Error
	})
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}

	metrics.OrderTransitions.WithLabelValues(string(status)).Inc()
	var noteText string
	if note != nil {
		noteText = *note
	}
	s.publish(ctx, events.OrderStatusChanged, &order, actorID, noteText)
	logger.Info(ctx, "Order status updated", zap.Uint("order_id", id), zap.String("status", string(status)))

	return &order, nil
}

// AttachDesignReference appends an uploaded object key to the order's design references.
func (s *OrderService) AttachDesignReference(ctx context.Context, id uint, key string) (*models.Order, error) {
	if strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("%w: empty design reference", ErrInvalidInput)
	}

	var order models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, id).Error; err != nil {
			return fmt.Errorf("order %d: %w", id, notFound(err))
		}
		order.DesignReferences = append(order.DesignReferences, key)
		return tx.Model(&order).Select("design_references", "updated_at").Updates(&order).Error
	})
	if err != nil {
		return nil, fmt.Errorf("attach design reference: %w", err)
	}
	return &order, nil
}

// publish logs publisher failures instead of returning them.
func (s *OrderService) publish(ctx context.Context, eventType string, order *models.Order, actorID *uint, note string) {
	evt := events.OrderEvent{
		Type:        eventType,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Status:      string(order.Status),
		CustomerID:  order.CustomerID,
		TailorID:    order.TailorID,
		ActorID:     actorID,
		Note:        note,
		Amount:      order.TotalAmount.StringFixed(2),
		OccurredAt:  s.now().UTC(),
	}
	if err := s.publisher.PublishOrderEvent(ctx, evt); err != nil {
		logger.Warn(ctx, "Order event not published", zap.Uint("order_id", order.ID), zap.Error(err))
	}
}
