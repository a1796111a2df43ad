package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-booking/models"
	"github.com/yeremiapane/restaurant-booking/utils"
)

const MsgAdminOnly = "You don't have permission to access the admin area."

// RequireCapability must run after AuthRequired. A role lacking the
// capability is flashed and sent back to the login page.
func RequireCapability(capability models.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !CurrentRole(c).Can(capability) {
			uid, _ := CurrentUserID(c)
			utils.InfoLogger.Printf("User %d denied %s on %s", uid, capability, c.Request.URL.Path)
			utils.RedirectWithFlash(c, "/login", utils.FlashError, MsgAdminOnly)
			c.Abort()
			return
		}
		c.Next()
	}
}

func CurrentRole(c *gin.Context) models.Role {
	if v, ok := c.Get(ctxRole); ok {
		if role, ok := v.(string); ok {
			return models.Role(role)
		}
	}
	return ""
}
