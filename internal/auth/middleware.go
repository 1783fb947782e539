package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequireAuth is the Gin middleware protecting the ambient HTTP surface
// (SPEC_FULL.md §6.1: POST /api/meetings, GET /api/meetings/:id). It
// extracts a Bearer token, resolves it via Bridge, and stores the director's
// user ID in the request context.
//
// Grounded on the teacher's internal/auth/middleware.go Bearer-extraction
// shape, trimmed of role/group claims this domain has no use for.
func RequireAuth(bridge *Bridge) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required: Bearer <token>"})
			c.Abort()
			return
		}

		userID, err := bridge.ResolveSession(c.Request.Context(), parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired session token"})
			c.Abort()
			return
		}

		c.Set("userID", userID)
		c.Next()
	}
}

// GetUserID extracts the authenticated director's user ID from context.
func GetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get("userID")
	if !exists {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}
