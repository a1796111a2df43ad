package middlewares

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const msgTooManyRequests = "Too many requests, please wait a moment and try again."

// RateLimiter hands every client IP its own token bucket.
type RateLimiter struct {
	limit rate.Limit
	burst int
	ips   map[string]*visitor
	mu    sync.Mutex
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows perInterval requests per interval for each IP.
func NewRateLimiter(perInterval int, interval time.Duration) *RateLimiter {
	if perInterval < 1 {
		perInterval = 1
	}
	return &RateLimiter{
		limit: rate.Every(interval / time.Duration(perInterval)),
		burst: perInterval,
		ips:   make(map[string]*visitor),
	}
}

// NewStrictRateLimiter guards login and registration.
func NewStrictRateLimiter(perMinute int) gin.HandlerFunc {
	return NewRateLimiter(perMinute, time.Minute).RateLimit()
}

func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"status":  false,
				"message": msgTooManyRequests,
			})
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	v, ok := rl.ips[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.ips[ip] = v
	}
	v.lastSeen = now

	// forget idle visitors so the map does not grow without bound
	if len(rl.ips) > 1024 {
		for k, other := range rl.ips {
			if now.Sub(other.lastSeen) > 10*time.Minute {
				delete(rl.ips, k)
			}
		}
	}
	return v.limiter.AllowN(now, 1)
}
