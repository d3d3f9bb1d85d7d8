package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/tailorly-api/config"
	"github.com/kendall-kelly/tailorly-api/models"
	"github.com/kendall-kelly/tailorly-api/services"
)

// CreateDisputeRequest represents the request body for raising a dispute.
type CreateDisputeRequest struct {
	OrderID     uint   `json:"order_id" binding:"required"`
	Subject     string `json:"subject" binding:"required"`
	Description string `json:"description" binding:"required"`
	Priority    string `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
}

// UpdateDisputeStatusRequest is an admin's status change with optional resolution notes.
type UpdateDisputeStatusRequest struct {
	Status          string  `json:"status" binding:"required,dispute_status"`
	ResolutionNotes *string `json:"resolution_notes"`
}

// DisputeMessageRequest is one entry added to a dispute thread.
type DisputeMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

func disputeService() *services.DisputeService {
	return services.NewDisputeService(config.GetDB())
}

// CreateDispute handles POST /api/v1/disputes - raised by the order's customer or tailor.
func CreateDispute(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	var req CreateDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	ctx := c.Request.Context()
	order, err := orderService().GetOrder(ctx, req.OrderID)
	if err != nil {
		respondError(c, err, "order")
		return
	}
	if !requireParty(c, sess, order.CustomerID, order.TailorID, "You can only raise disputes on your own orders") {
		return
	}

	dispute, err := disputeService().CreateDispute(ctx, services.CreateDisputeInput{
		OrderID:     order.ID,
		Subject:     req.Subject,
		Description: req.Description,
		Priority:    req.Priority,
		RaisedBy:    sess.SenderType(),
	})
	if err != nil {
		respondError(c, err, "dispute")
		return
	}
	respondOK(c, http.StatusCreated, dispute)
}

// ListDisputes handles GET /api/v1/disputes - scoped to the caller's role.
func ListDisputes(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	disputes, err := disputeService().GetDisputes(c.Request.Context(), sess.ProfileID(), sess.Role)
	if err != nil {
		respondError(c, err, "dispute")
		return
	}
	respondOK(c, http.StatusOK, disputes)
}

func loadDispute(c *gin.Context, sess *services.Session) (*models.Dispute, bool) {
	id, ok := parseID(c, "id")
	if !ok {
		return nil, false
	}
	dispute, err := disputeService().GetDispute(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "dispute")
		return nil, false
	}
	if !requireParty(c, sess, dispute.CustomerID, dispute.TailorID, "You do not have access to this dispute") {
		return nil, false
	}
	return dispute, true
}

// GetDispute handles GET /api/v1/disputes/:id.
func GetDispute(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	dispute, ok := loadDispute(c, sess)
	if !ok {
		return
	}
	respondOK(c, http.StatusOK, dispute)
}

// UpdateDisputeStatus handles PATCH /api/v1/disputes/:id/status (admins only).
func UpdateDisputeStatus(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req UpdateDisputeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	resolver := sess.UserID()
	dispute, err := disputeService().UpdateDisputeStatus(c.Request.Context(), id, models.DisputeStatus(req.Status), req.ResolutionNotes, &resolver)
	if err != nil {
		respondError(c, err, "dispute")
		return
	}
	respondOK(c, http.StatusOK, dispute)
}

// ListDisputeMessages handles GET /api/v1/disputes/:id/messages - oldest first.
func ListDisputeMessages(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	dispute, ok := loadDispute(c, sess)
	if !ok {
		return
	}

	msgs, err := disputeService().GetDisputeMessages(c.Request.Context(), dispute.ID)
	if err != nil {
		respondError(c, err, "dispute")
		return
	}
	respondOK(c, http.StatusOK, msgs)
}

// AddDisputeMessage handles POST /api/v1/disputes/:id/messages.
func AddDisputeMessage(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	var req DisputeMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	dispute, ok := loadDispute(c, sess)
	if !ok {
		return
	}

	msg, err := disputeService().AddDisputeMessage(c.Request.Context(), dispute.ID, sess.UserID(), sess.SenderType(), req.Content)
	if err != nil {
		respondError(c, err, "dispute")
		return
	}
	respondOK(c, http.StatusCreated, msg)
}
