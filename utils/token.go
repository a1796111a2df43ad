package utils

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/yeremiapane/restaurant-booking/cache"
)

const blacklistPrefix = "auth:blacklist:"

var ErrTokenRevoked = errors.New("token has been revoked")

// TokenStore remembers logged-out token IDs until they expire. Entries are
// kept in memory and mirrored to redis when it is configured, so a restart
// or a second instance still rejects them.
type TokenStore struct {
	redis *cache.Client

	mu      sync.RWMutex
	revoked map[string]time.Time
}

var tokenStore = NewTokenStore(nil)

func NewTokenStore(redis *cache.Client) *TokenStore {
	return &TokenStore{redis: redis, revoked: make(map[string]time.Time)}
}

// InitTokenStore replaces the package blacklist, typically with a redis-backed one.
func InitTokenStore(redis *cache.Client) {
	tokenStore = NewTokenStore(redis)
}

func (s *TokenStore) Revoke(ctx context.Context, jti string, expiresAt time.Time) {
	ttl := time.Until(expiresAt)
	if jti == "" || ttl <= 0 {
		return
	}
	s.mu.Lock()
	s.revoked[jti] = expiresAt
	s.sweepLocked(time.Now())
	s.mu.Unlock()

	s.redis.Set(ctx, blacklistPrefix+jti, []byte("1"), ttl)
}

func (s *TokenStore) IsRevoked(ctx context.Context, jti string) bool {
	s.mu.RLock()
	expiry, ok := s.revoked[jti]
	s.mu.RUnlock()
	if ok && time.Now().Before(expiry) {
		return true
	}
	return s.redis.Exists(ctx, blacklistPrefix+jti)
}

func (s *TokenStore) sweepLocked(now time.Time) {
	for id, expiry := range s.revoked {
		if now.After(expiry) {
			delete(s.revoked, id)
		}
	}
}

func BlacklistToken(ctx context.Context, claims *CustomClaims) {
	if claims == nil || claims.ExpiresAt == nil {
		return
	}
	tokenStore.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

func IsTokenBlacklisted(ctx context.Context, claims *CustomClaims) bool {
	return tokenStore.IsRevoked(ctx, claims.ID)
}

// ValidateToken parses the token and rejects it if it was logged out.
func ValidateToken(ctx context.Context, tokenString string) (*CustomClaims, error) {
	claims, err := ParseToken(tokenString)
	if err != nil {
		return nil, err
	}
	if IsTokenBlacklisted(ctx, claims) {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}
