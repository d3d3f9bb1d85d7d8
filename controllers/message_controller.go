package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/tailorly-api/config"
	"github.com/kendall-kelly/tailorly-api/logger"
	"github.com/kendall-kelly/tailorly-api/models"
	"github.com/kendall-kelly/tailorly-api/realtime"
	"github.com/kendall-kelly/tailorly-api/services"
	"go.uber.org/zap"
)

// StartConversationRequest names the other party. Customers pass tailor_id,
// tailors pass customer_id and admins pass both.
type StartConversationRequest struct {
	TailorID   uint  `json:"tailor_id"`
	CustomerID uint  `json:"customer_id"`
	OrderID    *uint `json:"order_id"`
}

// SendMessageRequest represents the JSON body for sending a message.
type SendMessageRequest struct {
	Content       string  `json:"content" form:"content"`
	AttachmentKey *string `json:"attachment_key"`
}

func chatService() *services.ChatService {
	return services.NewChatService(config.GetDB(), realtime.GetBroker())
}

// StartConversation handles POST /api/v1/conversations - returns the pair's
// conversation, creating it on first contact.
func StartConversation(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	var req StartConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	customerID, tailorID := req.CustomerID, req.TailorID
	switch sess.Role {
	case models.RoleCustomer:
		customerID = sess.ProfileID()
	case models.RoleTailor:
		tailorID = sess.ProfileID()
	}

	conv, err := chatService().GetOrCreateConversation(c.Request.Context(), customerID, tailorID, req.OrderID)
	if err != nil {
		respondError(c, err, "conversation")
		return
	}
	respondOK(c, http.StatusOK, conv)
}

// ListConversations handles GET /api/v1/conversations - the caller's active
// conversations, most recent first.
func ListConversations(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	convs, err := chatService().GetConversations(c.Request.Context(), sess.ProfileID(), sess.Role)
	if err != nil {
		respondError(c, err, "conversation")
		return
	}
	respondOK(c, http.StatusOK, convs)
}

// loadConversation fetches the :id conversation and checks the session takes part in it.
func loadConversation(c *gin.Context, sess *services.Session) (*models.Conversation, bool) {
	id, ok := parseID(c, "id")
	if !ok {
		return nil, false
	}
	conv, err := chatService().GetConversation(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "conversation")
		return nil, false
	}
	if !requireParty(c, sess, conv.CustomerID, conv.TailorID, "You are not part of this conversation") {
		return nil, false
	}
	return conv, true
}

// ListMessages handles GET /api/v1/conversations/:id/messages - oldest first,
// attachments carry a presigned URL.
func ListMessages(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	conv, ok := loadConversation(c, sess)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	msgs, err := chatService().GetMessages(ctx, conv.ID)
	if err != nil {
		respondError(c, err, "message")
		return
	}

	if attachments := services.GetAttachmentService(); attachments != nil {
		for i := range msgs {
			if msgs[i].AttachmentKey == nil {
				continue
			}
			url, err := attachments.URL(ctx, *msgs[i].AttachmentKey)
			if err != nil {
				logger.Warn(ctx, "Attachment URL unavailable", zap.Uint("message_id", msgs[i].ID), zap.Error(err))
				continue
			}
			msgs[i].AttachmentURL = &url
		}
	}

	respondOK(c, http.StatusOK, msgs)
}

// SendMessage handles POST /api/v1/conversations/:id/messages. A JSON body
// carries content and an optional attachment_key; a multipart body carries
// content and an optional file which is uploaded first.
func SendMessage(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	conv, ok := loadConversation(c, sess)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	var (
		req      SendMessageRequest
		uploaded string
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		req.Content = c.PostForm("content")
		if fileHeader, err := c.FormFile("file"); err == nil {
			attachments, ok := attachmentService(c)
			if !ok {
				return
			}
			key, err := attachments.Upload(ctx, fileHeader, services.ChatAttachmentPrefix)
			if err != nil {
				respondError(c, err, "attachment")
				return
			}
			uploaded = key
			req.AttachmentKey = &key
		}
	} else if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	msg, err := chatService().SendMessage(ctx, services.SendMessageInput{
		ConversationID: conv.ID,
		SenderID:       sess.UserID(),
		SenderType:     sess.SenderType(),
		Content:        req.Content,
		AttachmentKey:  req.AttachmentKey,
	})
	if err != nil {
		if uploaded != "" {
			_ = services.GetAttachmentService().Delete(ctx, uploaded)
		}
		respondError(c, err, "message")
		return
	}

	if msg.AttachmentKey != nil {
		if attachments := services.GetAttachmentService(); attachments != nil {
			if url, err := attachments.URL(ctx, *msg.AttachmentKey); err == nil {
				msg.AttachmentURL = &url
			}
		}
	}

	respondOK(c, http.StatusCreated, msg)
}

// MarkConversationRead handles POST /api/v1/conversations/:id/read - marks
// the other party's messages read.
func MarkConversationRead(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	conv, ok := loadConversation(c, sess)
	if !ok {
		return
	}

	n, err := chatService().MarkMessagesAsRead(c.Request.Context(), conv.ID, sess.UserID())
	if err != nil {
		respondError(c, err, "message")
		return
	}
	respondOK(c, http.StatusOK, gin.H{"updated": n})
}

// CloseConversation handles POST /api/v1/conversations/:id/close.
func CloseConversation(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	conv, ok := loadConversation(c, sess)
	if !ok {
		return
	}

	closed, err := chatService().CloseConversation(c.Request.Context(), conv.ID)
	if err != nil {
		respondError(c, err, "conversation")
		return
	}
	respondOK(c, http.StatusOK, closed)
}

// StreamMessages handles GET /api/v1/conversations/:id/stream - pushes each
// new message as a server-sent event.
func StreamMessages(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	conv, ok := loadConversation(c, sess)
	if !ok {
		return
	}

	sub, err := chatService().SubscribeToMessages(c.Request.Context(), conv.ID)
	if err != nil {
		respondError(c, err, "conversation")
		return
	}
	streamSubscription(c, sub, "messages")
}
