package middleware

import (
	"net/http"
	"strings"

	"reserva/models"
	"reserva/utils"

	"github.com/gin-gonic/gin"
)

const actorKey = "actor"

// ActorMiddleware resolves the authenticated actor from the bearer token and
// stores it on the request context. Role policy lives in the token issuer;
// the core only reads {id, role}.
func ActorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := utils.ValidateToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		sub, _ := claims["sub"].(string)
		role, _ := claims["role"].(string)
		if sub == "" || role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token missing subject or role"})
			return
		}

		c.Set(actorKey, models.Actor{ID: sub, Role: models.Role(role)})
		c.Next()
	}
}

// CurrentActor reads the resolved actor from the request context.
func CurrentActor(c *gin.Context) (models.Actor, bool) {
	v, exists := c.Get(actorKey)
	if !exists {
		return models.Actor{}, false
	}
	actor, ok := v.(models.Actor)
	return actor, ok
}
