package middleware

import (
	"net/http"

	"reserva/models"

	"github.com/gin-gonic/gin"
)

// RequireRoles gates a route group on the actor's role. It is the single
// authorization gate; handlers never re-implement role checks beyond
// ownership rules the services enforce.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := CurrentActor(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "No authenticated actor"})
			return
		}
		for _, r := range roles {
			if actor.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": "Insufficient role for this operation",
		})
	}
}

// RequireAdmin gates a route on the admin roles (partner, employee, master).
func RequireAdmin() gin.HandlerFunc {
	return RequireRoles(models.RolePartner, models.RoleEmployee, models.RoleMaster)
}
