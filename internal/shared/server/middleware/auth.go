package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"cv-builder/internal/shared/server/respond"
)

const (
	userIDKey  = "userId"
	isGuestKey = "isGuest"

	maxIdentityLen = 128
)

// Auth resolves the caller from the X-User-Id header, set by the fronting
// gateway, or from an X-Guest-Id chosen by the browser client.
func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		if userID := strings.TrimSpace(c.GetHeader("X-User-Id")); userID != "" {
			if !validIdentity(userID) {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "Invalid identity", nil)
				return
			}
			c.Set(userIDKey, "user:"+userID)
			c.Set(isGuestKey, false)
			c.Next()
			return
		}

		guestID := strings.TrimSpace(c.GetHeader("X-Guest-Id"))
		if guestID == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
			return
		}
		if !validIdentity(guestID) {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "Invalid identity", nil)
			return
		}

		c.Set(userIDKey, "guest:"+guestID)
		c.Set(isGuestKey, true)
		c.Next()
	}
}

func validIdentity(id string) bool {
	if len(id) > maxIdentityLen {
		return false
	}
	for _, r := range id {
		if r < 0x21 || r == 0x7f {
			return false
		}
	}
	return true
}

// UserIDFromContext fetches the owner ID set by the auth middleware.
func UserIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}

// IsGuest reports whether the caller identified with a guest ID.
func IsGuest(c *gin.Context) bool {
	if c == nil {
		return false
	}
	val, _ := c.Get(isGuestKey)
	guest, _ := val.(bool)
	return guest
}
