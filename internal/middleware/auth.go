package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"tours/internal/service"
)

const (
	ContextAdminID    = "adminId"
	ContextAdminEmail = "adminEmail"
)

// TokenValidator verifies admin bearer tokens.
type TokenValidator interface {
	ValidateToken(token string) (*service.AdminClaims, error)
}

// AdminAuth rejects requests without a valid admin bearer token: 401 for a
// missing or invalid token, 403 for a valid token without the admin role.
func AdminAuth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header missing", "code": "unauthorized"})
			return
		}

		parts := strings.SplitN(auth, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid Authorization header", "code": "unauthorized"})
			return
		}

		claims, err := validator.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token", "code": "unauthorized"})
			return
		}

		if claims.Role != service.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admins only", "code": "forbidden"})
			return
		}

		c.Set(ContextAdminID, claims.AdminID)
		c.Set(ContextAdminEmail, claims.Email)
		c.Next()
	}
}
