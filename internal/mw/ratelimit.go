package mw

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// visitorLimiters hands out one token bucket per client IP. Buckets live for
// the process lifetime, which is fine for a single-instance deployment.
type visitorLimiters struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	limit   rate.Limit
	burst   int
}

func (v *visitorLimiters) get(ip string) *rate.Limiter {
	v.mu.Lock()
	defer v.mu.Unlock()

	bucket, ok := v.buckets[ip]
	if !ok {
		bucket = rate.NewLimiter(v.limit, v.burst)
		v.buckets[ip] = bucket
	}
	return bucket
}

// RateLimiter rejects requests over the per-IP budget with 429.
func RateLimiter(limit rate.Limit, burst int) gin.HandlerFunc {
	limiters := &visitorLimiters{
		buckets: make(map[string]*rate.Limiter),
		limit:   limit,
		burst:   burst,
	}
	return func(c *gin.Context) {
		if !limiters.get(c.ClientIP()).Allow() {
			c.AbortWithStatus(http.StatusTooManyRequests)
			return
		}
		c.Next()
	}
}
