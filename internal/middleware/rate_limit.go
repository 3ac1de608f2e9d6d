package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/Payphone-Digital/accounts/internal/constants"
	"github.com/Payphone-Digital/accounts/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimiter is a sliding window limiter keyed by client IP.
type RateLimiter struct {
	hits       map[string][]time.Time
	maxRequest int
	duration   time.Duration
	now        func() time.Time
	mu         sync.Mutex
}

func NewRateLimiter(maxRequest int, duration time.Duration) *RateLimiter {
	return &RateLimiter{
		hits:       make(map[string][]time.Time),
		maxRequest: maxRequest,
		duration:   duration,
		now:        time.Now,
	}
}

func (rl *RateLimiter) cleanup(now time.Time) {
	for key, hits := range rl.hits {
		var valid []time.Time
		for _, t := range hits {
			if now.Sub(t) < rl.duration {
				valid = append(valid, t)
			}
		}
		if len(valid) > 0 {
			rl.hits[key] = valid
		} else {
			delete(rl.hits, key)
		}
	}
}

// Allow records a hit for key. When the window is full it returns false and
// how long until the oldest hit leaves it.
func (rl *RateLimiter) Allow(key string) (allowed bool, remaining int, retryAfter time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.cleanup(now)

	hits := rl.hits[key]
	if len(hits) >= rl.maxRequest {
		return false, 0, rl.duration - now.Sub(hits[0])
	}
	rl.hits[key] = append(hits, now)
	return true, rl.maxRequest - len(hits) - 1, 0
}

// RateLimit throttles the wrapped routes per client IP. A non-positive limit disables it.
func RateLimit(maxRequest int, duration time.Duration) gin.HandlerFunc {
	if maxRequest <= 0 || duration <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return rateLimitWith(NewRateLimiter(maxRequest, duration))
}

func rateLimitWith(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		allowed, remaining, retryAfter := limiter.Allow(ip)
		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.maxRequest))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			seconds := int(retryAfter.Round(time.Second) / time.Second)
			if seconds < 1 {
				seconds = 1
			}
			logger.GetLogger().Warn("Rate limit exceeded",
				zap.String("client_ip", ip),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Int("max_requests", limiter.maxRequest),
				zap.Duration("duration", limiter.duration),
				zap.Int("retry_after", seconds),
			)

			c.Header("Retry-After", fmt.Sprintf("%d", seconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, constants.BuildErrorResponse(constants.MsgTooManyRequests))
			return
		}

		c.Next()
	}
}
