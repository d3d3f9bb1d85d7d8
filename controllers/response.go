package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/tailorly-api/logger"
	"github.com/kendall-kelly/tailorly-api/middleware"
	"github.com/kendall-kelly/tailorly-api/services"
	"github.com/kendall-kelly/tailorly-api/utils"
	"go.uber.org/zap"
)

func respondOK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

func respondErrorCode(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func respondValidation(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "VALIDATION_ERROR",
			"message": "Invalid request data",
			"details": err.Error(),
		},
	})
}

// respondError maps a service error to a status and envelope code. resource
// names the entity for not-found codes, e.g. "order" gives ORDER_NOT_FOUND.
func respondError(c *gin.Context, err error, resource string) {
	var uploadErr *utils.FileUploadError
	switch {
	case errors.As(err, &uploadErr):
		respondErrorCode(c, http.StatusBadRequest, uploadErr.Code, uploadErr.Message)
	case errors.Is(err, services.ErrNotFound):
		respondErrorCode(c, http.StatusNotFound, strings.ToUpper(resource)+"_NOT_FOUND", capitalize(resource)+" not found")
	case errors.Is(err, services.ErrInvalidStatus):
		respondErrorCode(c, http.StatusBadRequest, "INVALID_STATUS", err.Error())
	case errors.Is(err, services.ErrInvalidInput):
		respondErrorCode(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, services.ErrConflict):
		respondErrorCode(c, http.StatusConflict, strings.ToUpper(resource)+"_EXISTS", err.Error())
	case errors.Is(err, services.ErrForbidden):
		respondErrorCode(c, http.StatusForbidden, "FORBIDDEN", err.Error())
	default:
		logger.Error(c.Request.Context(), "Request failed", err, zap.String("resource", resource))
		respondErrorCode(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to process "+strings.ReplaceAll(resource, "_", " "))
	}
}

func capitalize(s string) string {
	s = strings.ReplaceAll(s, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// parseID reads a positive numeric path parameter, responding 400 when it is not one.
func parseID(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 64)
	if err != nil || id == 0 {
		respondErrorCode(c, http.StatusBadRequest, "INVALID_ID", "Invalid "+param+" parameter")
		return 0, false
	}
	return uint(id), true
}

// currentSession returns the request's session, responding 401 when absent.
func currentSession(c *gin.Context) (*services.Session, bool) {
	sess, err := middleware.GetSession(c)
	if err != nil {
		respondErrorCode(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return nil, false
	}
	return sess, true
}

// requireParty responds 403 unless the session is the customer, the tailor or an admin.
func requireParty(c *gin.Context, sess *services.Session, customerID, tailorID uint, message string) bool {
	if sess.IsParty(customerID, tailorID) {
		return true
	}
	respondErrorCode(c, http.StatusForbidden, "FORBIDDEN", message)
	return false
}
