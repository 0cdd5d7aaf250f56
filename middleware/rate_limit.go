package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/Kirill-Khudyakov/shotline/config"
	"github.com/Kirill-Khudyakov/shotline/utils"
)

// Buckets for clients idle this long are dropped on the next lookup.
const limiterIdleTTL = 10 * time.Minute

type clientLimiter struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

var (
	clients   = map[string]*clientLimiter{}
	clientsMu sync.Mutex
)

// RateLimitMiddleware throttles requests per client IP with a token bucket
// refilled at the configured per-minute rate. The burst is half the rate so
// a quiet client cannot bank a full minute of requests.
func RateLimitMiddleware() gin.HandlerFunc {
	perMinute := config.Get().RateLimitPerMinute
	if perMinute < 1 {
		perMinute = 1
	}
	refill := rate.Every(time.Minute / time.Duration(perMinute))
	burst := perMinute / 2
	if burst < 1 {
		burst = 1
	}

	return func(ctx *gin.Context) {
		if !allowClient(ctx.ClientIP(), refill, burst) {
			utils.Error(ctx, http.StatusTooManyRequests, 42901, "rate limit exceeded")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

func allowClient(ip string, refill rate.Limit, burst int) bool {
	clientsMu.Lock()
	defer clientsMu.Unlock()

	now := time.Now()
	for key, cl := range clients {
		if now.Sub(cl.lastSeen) > limiterIdleTTL {
			delete(clients, key)
		}
	}

	cl, ok := clients[ip]
	if !ok {
		cl = &clientLimiter{bucket: rate.NewLimiter(refill, burst)}
		clients[ip] = cl
	}
	cl.lastSeen = now
	return cl.bucket.Allow()
}
