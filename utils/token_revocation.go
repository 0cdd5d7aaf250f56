package utils

import (
	"context"
	"sync"
	"time"
)

const revokedKeyPrefix = "jwt:revoked:"

// Logout works by revoking the presented token until its natural expiry.
// Revocations live in Redis so they survive restarts and are shared across
// replicas; a process-local map backs them when Redis is unreachable.
var (
	revokedLocal   = map[string]time.Time{}
	revokedLocalMu sync.RWMutex
)

// RevokeToken marks a token as unusable until expiresAt.
func RevokeToken(token string, expiresAt time.Time) {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return
	}
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if rc.Set(ctx, revokedKeyPrefix+token, "1", ttl).Err() == nil {
			return
		}
	}
	revokedLocalMu.Lock()
	revokedLocal[token] = expiresAt
	revokedLocalMu.Unlock()
}

// IsTokenRevoked reports whether a token was revoked before its expiry.
// A Redis failure counts as not revoked rather than locking everyone out.
func IsTokenRevoked(token string) bool {
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if n, err := rc.Exists(ctx, revokedKeyPrefix+token).Result(); err == nil && n > 0 {
			return true
		}
	}

	revokedLocalMu.RLock()
	expiresAt, ok := revokedLocal[token]
	revokedLocalMu.RUnlock()
	if !ok {
		return false
	}
	if time.Now().After(expiresAt) {
		revokedLocalMu.Lock()
		delete(revokedLocal, token)
		revokedLocalMu.Unlock()
		return false
	}
	return true
}
