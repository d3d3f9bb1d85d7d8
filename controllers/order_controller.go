package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/tailorly-api/config"
	"github.com/kendall-kelly/tailorly-api/events"
	"github.com/kendall-kelly/tailorly-api/models"
	"github.com/kendall-kelly/tailorly-api/services"
	"github.com/shopspring/decimal"
)

// OrderItemRequest is one garment line in CreateOrderRequest.
type OrderItemRequest struct {
	GarmentType string          `json:"garment_type" binding:"required"`
	FabricType  *string         `json:"fabric_type"`
	Color       *string         `json:"color"`
	Quantity    int             `json:"quantity" binding:"required,gt=0"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Notes       *string         `json:"notes"`
}

// CreateOrderRequest represents the request body for creating an order.
type CreateOrderRequest struct {
	TailorID             uint               `json:"tailor_id" binding:"required"`
	Items                []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
	TotalAmount          decimal.Decimal    `json:"total_amount"`
	DeliveryAddress      *string            `json:"delivery_address"`
	DeliveryDateEstimate *time.Time         `json:"delivery_date_estimate"`
	Notes                *string            `json:"notes"`
	DesignReferences     []string           `json:"design_references"`
	MeasurementID        *uint              `json:"measurement_id"`
}

// UpdateOrderStatusRequest moves an order to any known status.
type UpdateOrderStatusRequest struct {
	Status string  `json:"status" binding:"required,order_status"`
	Notes  *string `json:"notes"`
}

// ReasonRequest carries the reason for a rejection or cancellation.
type ReasonRequest struct {
	Reason string `json:"reason"`
}

func orderService() *services.OrderService {
	return services.NewOrderService(config.GetDB(), events.GetPublisher())
}

// CreateOrder handles POST /api/v1/orders - places an order (customers only).
func CreateOrder(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	ctx := c.Request.Context()
	if req.MeasurementID != nil {
		if _, err := services.NewMeasurementService(config.GetDB()).Get(ctx, sess.ProfileID(), *req.MeasurementID); err != nil {
			respondError(c, err, "measurement")
			return
		}
	}

	items := make([]services.OrderItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, services.OrderItemInput{
			GarmentType: it.GarmentType,
			FabricType:  it.FabricType,
			Color:       it.Color,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Notes:       it.Notes,
		})
	}

	userID := sess.UserID()
	order, err := orderService().CreateOrder(ctx, services.CreateOrderInput{
		CustomerID:           sess.ProfileID(),
		TailorID:             req.TailorID,
		Items:                items,
		TotalAmount:          req.TotalAmount,
		DeliveryAddress:      req.DeliveryAddress,
		DeliveryDateEstimate: req.DeliveryDateEstimate,
		Notes:                req.Notes,
		DesignReferences:     req.DesignReferences,
		MeasurementID:        req.MeasurementID,
		ActorID:              &userID,
	})
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			respondError(c, err, "tailor")
			return
		}
		respondError(c, err, "order")
		return
	}

	respondOK(c, http.StatusCreated, order)
}

// ListOrders handles GET /api/v1/orders. Customers see the orders they placed,
// tailors the orders placed with them, admins pass customer_id or tailor_id.
// An optional status query parameter filters the result.
func ListOrders(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	status := models.OrderStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		respondErrorCode(c, http.StatusBadRequest, "INVALID_STATUS", "Unknown order status")
		return
	}

	ctx := c.Request.Context()
	svc := orderService()
	var (
		orders []models.Order
		err    error
	)
	switch sess.Role {
	case models.RoleCustomer:
		orders, err = svc.GetCustomerOrders(ctx, sess.ProfileID())
	case models.RoleTailor:
		orders, err = svc.GetTailorOrders(ctx, sess.ProfileID())
	default:
		var q struct {
			CustomerID uint `form:"customer_id"`
			TailorID   uint `form:"tailor_id"`
		}
		if err := c.ShouldBindQuery(&q); err != nil {
			respondValidation(c, err)
			return
		}
		switch {
		case q.CustomerID != 0:
			orders, err = svc.GetCustomerOrders(ctx, q.CustomerID)
		case q.TailorID != 0:
			orders, err = svc.GetTailorOrders(ctx, q.TailorID)
		default:
			respondErrorCode(c, http.StatusBadRequest, "VALIDATION_ERROR", "customer_id or tailor_id is required")
			return
		}
	}
	if err != nil {
		respondError(c, err, "order")
		return
	}

	if status != "" {
		filtered := orders[:0]
		for _, o := range orders {
			if o.Status == status {
				filtered = append(filtered, o)
			}
		}
		orders = filtered
	}

	respondOK(c, http.StatusOK, orders)
}

// loadOrder fetches the :id order and checks the session is a party to it.
func loadOrder(c *gin.Context, sess *services.Session) (*models.Order, bool) {
	id, ok := parseID(c, "id")
	if !ok {
		return nil, false
	}
	order, err := orderService().GetOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "order")
		return nil, false
	}
	if !requireParty(c, sess, order.CustomerID, order.TailorID, "You do not have access to this order") {
		return nil, false
	}
	return order, true
}

// GetOrder handles GET /api/v1/orders/:id.
func GetOrder(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	order, ok := loadOrder(c, sess)
	if !ok {
		return
	}
	respondOK(c, http.StatusOK, order)
}

// GetOrderHistory handles GET /api/v1/orders/:id/history - oldest transition first.
func GetOrderHistory(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	order, ok := loadOrder(c, sess)
	if !ok {
		return
	}

	history, err := orderService().GetOrderHistory(c.Request.Context(), order.ID)
	if err != nil {
		respondError(c, err, "order")
		return
	}
	respondOK(c, http.StatusOK, history)
}

// GetOrderItems handles GET /api/v1/orders/:id/items.
func GetOrderItems(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	order, ok := loadOrder(c, sess)
	if !ok {
		return
	}

	items, err := orderService().GetOrderItems(c.Request.Context(), order.ID)
	if err != nil {
		respondError(c, err, "order")
		return
	}
	respondOK(c, http.StatusOK, items)
}

// UpdateOrderStatus handles PATCH /api/v1/orders/:id/status (the order's tailor or an admin).
func UpdateOrderStatus(c *gin.Context) {
	var req UpdateOrderStatusRequest
	transitionAsTailor(c, func(svc *services.OrderService, order *models.Order, actorID *uint) (*models.Order, error) {
		return svc.UpdateOrderStatus(c.Request.Context(), order.ID, models.OrderStatus(req.Status), actorID, req.Notes)
	}, &req)
}

// AcceptOrder handles POST /api/v1/orders/:id/accept.
func AcceptOrder(c *gin.Context) {
	transitionAsTailor(c, func(svc *services.OrderService, order *models.Order, actorID *uint) (*models.Order, error) {
		return svc.AcceptOrder(c.Request.Context(), order.ID, actorID)
	}, nil)
}

// RejectOrder handles POST /api/v1/orders/:id/reject with an optional reason.
func RejectOrder(c *gin.Context) {
	var req ReasonRequest
	transitionAsTailor(c, func(svc *services.OrderService, order *models.Order, actorID *uint) (*models.Order, error) {
		return svc.RejectOrder(c.Request.Context(), order.ID, actorID, req.Reason)
	}, &req)
}

// CompleteOrder handles POST /api/v1/orders/:id/complete - marks the order delivered.
func CompleteOrder(c *gin.Context) {
	transitionAsTailor(c, func(svc *services.OrderService, order *models.Order, actorID *uint) (*models.Order, error) {
		return svc.CompleteOrder(c.Request.Context(), order.ID, actorID)
	}, nil)
}

// CancelOrder handles POST /api/v1/orders/:id/cancel (the order's customer or an admin).
func CancelOrder(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	var req ReasonRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidation(c, err)
			return
		}
	}
	order, ok := loadOrder(c, sess)
	if !ok {
		return
	}
	if sess.Role == models.RoleTailor {
		respondErrorCode(c, http.StatusForbidden, "FORBIDDEN", "Tailors reject orders instead of cancelling them")
		return
	}

	userID := sess.UserID()
	updated, err := orderService().CancelOrder(c.Request.Context(), order.ID, &userID, req.Reason)
	if err != nil {
		respondError(c, err, "order")
		return
	}
	respondOK(c, http.StatusOK, updated)
}

type transitionFunc func(svc *services.OrderService, order *models.Order, actorID *uint) (*models.Order, error)

// transitionAsTailor binds req when given, loads the order and runs fn when the
// caller is the order's tailor or an admin.
func transitionAsTailor(c *gin.Context, fn transitionFunc, req interface{}) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	if req != nil {
		if err := c.ShouldBindJSON(req); err != nil {
			respondValidation(c, err)
			return
		}
	}
	order, ok := loadOrder(c, sess)
	if !ok {
		return
	}
	if sess.Role == models.RoleCustomer {
		respondErrorCode(c, http.StatusForbidden, "FORBIDDEN", "Only the tailor can update this order")
		return
	}

	userID := sess.UserID()
	updated, err := fn(orderService(), order, &userID)
	if err != nil {
		respondError(c, err, "order")
		return
	}
	respondOK(c, http.StatusOK, updated)
}

// UploadDesignReference handles POST /api/v1/orders/:id/designs - multipart "file".
func UploadDesignReference(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	order, ok := loadOrder(c, sess)
	if !ok {
		return
	}

	attachments, ok := attachmentService(c)
	if !ok {
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondErrorCode(c, http.StatusBadRequest, "MISSING_FILE", "A file is required in form field \"file\"")
		return
	}

	ctx := c.Request.Context()
	key, err := attachments.Upload(ctx, fileHeader, services.DesignReferencePrefix)
	if err != nil {
		respondError(c, err, "attachment")
		return
	}

	updated, err := orderService().AttachDesignReference(ctx, order.ID, key)
	if err != nil {
		_ = attachments.Delete(ctx, key)
		respondError(c, err, "order")
		return
	}
	respondOK(c, http.StatusCreated, updated)
}
