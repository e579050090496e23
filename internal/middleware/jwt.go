package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/prizewheel/backend/internal/auth"
	"github.com/prizewheel/backend/pkg/response"
)

const (
	// ContextUserID is the key for the caller's ID in gin context.
	ContextUserID = "user_id"
	// ContextUserRole is the key for the caller's role in gin context.
	ContextUserRole = "user_role"
	// ContextSessionID is the key for a participant's session scope.
	// Absent for admin tokens.
	ContextSessionID = "session_id"
)

// JWT returns a middleware that validates JWT and sets caller claims in context.
func JWT(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		claims, err := jwtService.Validate(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUserRole, claims.Role)
		if claims.Role == "participant" {
			c.Set(ContextSessionID, claims.SessionID)
		}
		c.Next()
	}
}
