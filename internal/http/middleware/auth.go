package middleware

import (
	"net/http"
	"strings"

	"github.com/MarcMahler/gamehub-backend/internal/service"

	"github.com/gin-gonic/gin"
)

// JWT requires a valid Bearer token and stores the authenticated participant
// id under "participant_id".
func JWT() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}

		id, err := service.ParseJWT(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set("participant_id", id.String())
		c.Next()
	}
}
