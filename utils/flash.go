package utils

import (
	"encoding/base64"
	"encoding/json"

	"github.com/gin-gonic/gin"
)

type FlashLevel string

const (
	FlashSuccess FlashLevel = "success"
	FlashInfo    FlashLevel = "info"
	FlashWarning FlashLevel = "warning"
	FlashError   FlashLevel = "error"
)

type Flash struct {
	Level   FlashLevel `json:"level"`
	Message string     `json:"message"`
}

const (
	flashCookie = "flash"
	flashKey    = "flash.pending"
)

// FlashCookieSecure marks the flash cookie Secure; set from config at startup.
var FlashCookieSecure bool

func AddFlash(c *gin.Context, level FlashLevel, message string) {
	list := append(pendingFlashes(c), Flash{Level: level, Message: message})
	c.Set(flashKey, list)
	c.SetCookie(flashCookie, encodeFlashes(list), 0, "/", "", FlashCookieSecure, true)
}

// ConsumeFlashes returns every queued flash (from an earlier redirect or the
// current request) and clears them.
func ConsumeFlashes(c *gin.Context) []Flash {
	list := pendingFlashes(c)
	c.Set(flashKey, []Flash{})
	if _, err := c.Cookie(flashCookie); err == nil || len(list) > 0 {
		c.SetCookie(flashCookie, "", -1, "/", "", FlashCookieSecure, true)
	}
	return list
}

func pendingFlashes(c *gin.Context) []Flash {
	if v, ok := c.Get(flashKey); ok {
		if list, ok := v.([]Flash); ok {
			return list
		}
	}
	var list []Flash
	if raw, err := c.Cookie(flashCookie); err == nil && raw != "" {
		list = decodeFlashes(raw)
	}
	c.Set(flashKey, list)
	return list
}

func encodeFlashes(list []Flash) string {
	b, err := json.Marshal(list)
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

func decodeFlashes(raw string) []Flash {
	b, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil
	}
	var list []Flash
	if err := json.Unmarshal(b, &list); err != nil {
		return nil
	}
	return list
}
