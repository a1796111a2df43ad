package middlewares

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-booking/utils"
)

// SessionCookie carries the signed session token set at login.
const SessionCookie = "session_token"

const (
	ctxUserID = "userID"
	ctxRole   = "role"
	ctxClaims = "claims"
)

// AuthRequired lets the request through only with a valid, unrevoked session
// token. Anyone else is sent to the login page with the path to come back to.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := authenticate(c)
		if !ok {
			c.Redirect(http.StatusFound, "/login?next="+url.QueryEscape(c.Request.URL.RequestURI()))
			c.Abort()
			return
		}
		setIdentity(c, claims)
		c.Next()
	}
}

// OptionalAuth records the identity when a valid token is present and never
// blocks the request.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, ok := authenticate(c); ok {
			setIdentity(c, claims)
		}
		c.Next()
	}
}

// TokenFromRequest reads the session cookie, falling back to a Bearer header.
func TokenFromRequest(c *gin.Context) string {
	if token, err := c.Cookie(SessionCookie); err == nil && token != "" {
		return token
	}
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

func CurrentUserID(c *gin.Context) (uint, bool) {
	id, ok := c.Get(ctxUserID)
	if !ok {
		return 0, false
	}
	uid, ok := id.(uint)
	return uid, ok && uid != 0
}

func CurrentClaims(c *gin.Context) (*utils.CustomClaims, bool) {
	v, ok := c.Get(ctxClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*utils.CustomClaims)
	return claims, ok
}

func authenticate(c *gin.Context) (*utils.CustomClaims, bool) {
	token := TokenFromRequest(c)
	if token == "" {
		return nil, false
	}
	claims, err := utils.ValidateToken(c.Request.Context(), token)
	if err != nil {
		utils.InfoLogger.Debugf("Rejected session token: %v", err)
		return nil, false
	}
	return claims, true
}

func setIdentity(c *gin.Context, claims *utils.CustomClaims) {
	c.Set(ctxUserID, claims.UserID)
	c.Set(ctxRole, claims.Role)
	c.Set(ctxClaims, claims)
}
