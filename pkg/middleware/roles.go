package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/donr-app/go-services/internal/apperr"
	"github.com/donr-app/go-services/internal/models"
	"github.com/gin-gonic/gin"
)

// RoleResolver yields the role of a verified identity. Implemented by the
// users service.
type RoleResolver interface {
	RoleOf(ctx context.Context, id string) (models.Role, error)
}

// RequireRole returns a middleware that loads the caller's profile and
// rejects the request unless its role is one of the allowed ones. Must run
// after AuthMiddleware. The resolved role is stored under "role".
func RequireRole(res RoleResolver, allowed ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := UID(c)
		if uid == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "No authorization token provided"})
			return
		}
		role, err := res.RoleOf(c.Request.Context(), uid)
		if err != nil {
			c.AbortWithStatusJSON(apperr.Status(err), gin.H{"success": false, "error": err.Error()})
			return
		}
		for _, a := range allowed {
			if role == a {
				c.Set("role", string(role))
				c.Next()
				return
			}
		}
		names := make([]string, 0, len(allowed))
		for _, a := range allowed {
			names = append(names, string(a))
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "error": "Access denied. Required role: " + strings.Join(names, " or ")})
	}
}

// Role returns the role resolved by RequireRole, empty when the route is not
// role-gated.
func Role(c *gin.Context) models.Role {
	return models.Role(c.GetString("role"))
}
