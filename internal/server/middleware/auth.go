package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rahul-biziquick/BiziQuick/internal/security"
	"github.com/rahul-biziquick/BiziQuick/internal/tenantaccess"
)

const actorKey = "actor"

// RequireAuth validates the Bearer access token and attaches the resolved
// actor to the request context.
func RequireAuth(tokens *security.TokenProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "bearer token required"})
			return
		}
		claims, err := tokens.Validate(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid access token"})
			return
		}
		c.Set(actorKey, tenantaccess.Actor{
			ID:       claims.Subject,
			Role:     claims.Role,
			TenantID: claims.TenantID,
		})
		c.Next()
	}
}

// GetActor returns the authenticated actor attached by RequireAuth.
func GetActor(c *gin.Context) (tenantaccess.Actor, bool) {
	value, ok := c.Get(actorKey)
	if !ok {
		return tenantaccess.Actor{}, false
	}
	actor, ok := value.(tenantaccess.Actor)
	return actor, ok
}
