package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/restaurant-booking/utils"
)

func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}
		status := c.Writer.Status()
		entry := utils.InfoLogger.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"status":  status,
			"latency": time.Since(start),
			"ip":      c.ClientIP(),
		})
		if uid, ok := CurrentUserID(c); ok {
			entry = entry.WithField("user_id", uid)
		}
		if len(c.Errors) > 0 {
			utils.ErrorLogger.WithField("path", path).Error(c.Errors.String())
		}
		entry.Info(path)
	}
}
