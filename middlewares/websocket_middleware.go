package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// WebSocketOnly rejects plain HTTP requests on upgrade-only endpoints.
func WebSocketOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"status":  false,
				"message": "websocket upgrade required",
			})
			return
		}
		c.Next()
	}
}
