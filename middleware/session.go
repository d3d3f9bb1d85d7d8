package middleware

import (
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/tailorly-api/config"
	"github.com/kendall-kelly/tailorly-api/logger"
	"github.com/kendall-kelly/tailorly-api/models"
	"github.com/kendall-kelly/tailorly-api/services"
	"go.uber.org/zap"
)

const sessionKey = "session"

// SessionStore builds a store over the current database and session cache.
func SessionStore() *services.SessionStore {
	var ttl time.Duration
	if cfg := config.GetConfig(); cfg != nil {
		ttl = cfg.SessionTTL
	}
	return services.NewSessionStore(config.GetDB(), services.GetSessionCache(), ttl)
}

// LoadSession resolves the token subject to a Session. It must run after
// EnsureValidToken. Identities that have not signed up get 404 USER_NOT_FOUND.
func LoadSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := GetUserID(c)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
			return
		}

		sess, err := SessionStore().Initialize(c.Request.Context(), identity)
		switch {
		case err == nil:
		case errors.Is(err, services.ErrNotFound):
			abortWithError(c, http.StatusNotFound, "USER_NOT_FOUND", "User profile not found. Please create a profile first.")
			return
		default:
			logger.Error(c.Request.Context(), "Failed to load session", err, zap.String("identity", identity))
			abortWithError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load user session")
			return
		}

		c.Set(sessionKey, sess)
		c.Next()
	}
}

// GetSession returns the session stored by LoadSession.
func GetSession(c *gin.Context) (*services.Session, error) {
	v, exists := c.Get(sessionKey)
	if !exists {
		return nil, &AuthError{Code: "MISSING_SESSION", Message: "Session not found in context"}
	}
	sess, ok := v.(*services.Session)
	if !ok {
		return nil, &AuthError{Code: "INVALID_SESSION", Message: "Session is not in the expected format"}
	}
	return sess, nil
}

// SetSession stores sess on the context the way LoadSession does.
func SetSession(c *gin.Context, sess *services.Session) {
	c.Set(sessionKey, sess)
}

// RequireRole aborts with 403 unless the session holds one of roles.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := GetSession(c)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
			return
		}
		if !slices.Contains(roles, sess.Role) {
			abortWithError(c, http.StatusForbidden, "FORBIDDEN", "Your role cannot access this resource")
			return
		}
		c.Next()
	}
}
