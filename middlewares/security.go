package middlewares

import (
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-booking/storage"
)

func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		if c.Request.TLS != nil {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}

// ImagesOnly guards the uploads directory: only image files are served.
func ImagesOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		name := path.Clean("/" + c.Param("filepath"))
		if strings.Contains(name, "..") || !storage.IsImagePath(name) {
			c.AbortWithStatus(http.StatusNotFound)
			return
		}
		c.Next()
	}
}
