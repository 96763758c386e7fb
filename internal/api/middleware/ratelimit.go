// Package middleware provides HTTP middleware for the Gin router.
//
// Go Learning Note — Middleware Pattern (Gin):
// In Gin, middleware is any function with the signature `gin.HandlerFunc`, which
// is `func(*gin.Context)`. Middleware functions form a chain: each one runs,
// optionally calls c.Next() to pass control to the next handler, and can call
// c.Abort() to stop the chain. Here that covers throttling, cache headers and
// request logging.
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
	"tiernow/internal/config"
)

type visitor struct {
	limiter *rate.Limiter
	seenAt  time.Time
}

// RateLimiter keeps one token bucket per client IP.
//
// Go Learning Note — "golang.org/x/time/rate":
// rate.Limiter is a token bucket: it refills at Limit tokens per second up to
// Burst, and Allow() spends one token if available. A burst of 5 at 1/s lets a
// visitor open a few tabs at once but stops a crawler from creating thousands
// of tierlists.
type RateLimiter struct {
	mu         sync.Mutex
	visitors   map[string]*visitor
	limit      rate.Limit
	burst      int
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RateLimiter{
		visitors:   make(map[string]*visitor),
		limit:      rate.Limit(cfg.RequestsPerSecond),
		burst:      cfg.Burst,
		ttl:        ttl,
		maxEntries: 50_000,
		now:        time.Now,
	}
}

// Allow spends one token for key.
func (l *RateLimiter) Allow(key string) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.visitors) >= l.maxEntries {
		l.pruneLocked(now)
	}

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.seenAt = now
	return v.limiter.AllowN(now, 1)
}

func (l *RateLimiter) pruneLocked(now time.Time) {
	for key, v := range l.visitors {
		if now.Sub(v.seenAt) > l.ttl {
			delete(l.visitors, key)
		}
	}
}

// RateLimit rejects requests over the per-IP budget with 429. The key is
// gin's ClientIP, which only trusts forwarding headers from the engine's
// configured trusted proxies.
func RateLimit(l *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			c.Header("Retry-After", "1")
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests, please retry shortly"})
			c.Abort()
			return
		}
		c.Next()
	}
}
