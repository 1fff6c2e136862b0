package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nimeshabuddhika/payment-key-validator/pkg"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RejectFunc writes the response for a request refused by a RateLimiter.
type RejectFunc func(c *gin.Context, resp pkg.ErrorResponse)

// RateLimiter is a process-wide token bucket shared by every route it guards.
// A nil bucket means limiting is disabled.
type RateLimiter struct {
	logger  *zap.Logger
	limiter *rate.Limiter
}

// NewRateLimiter allows perMinute requests per minute with the given burst. perMinute <= 0 disables it.
func NewRateLimiter(logger *zap.Logger, perMinute, burst int) *RateLimiter {
	rl := &RateLimiter{logger: logger}
	if perMinute <= 0 {
		return rl
	}
	if burst < 1 {
		burst = 1
	}
	rl.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), burst)
	return rl
}

func (rl *RateLimiter) Enabled() bool {
	return rl.limiter != nil
}

// Middleware guards a route. reject renders the refusal; nil writes the JSON error envelope.
func (rl *RateLimiter) Middleware(reject RejectFunc) gin.HandlerFunc {
	if !rl.Enabled() {
		return func(c *gin.Context) { c.Next() }
	}
	if reject == nil {
		reject = func(c *gin.Context, resp pkg.ErrorResponse) {
			c.AbortWithStatusJSON(resp.Status, resp)
		}
	}

	return func(c *gin.Context) {
		if rl.limiter.Allow() {
			c.Next()
			return
		}
		traceID := c.GetString(pkg.TraceId)
		resp := pkg.ToErrorResponse(rl.logger, traceID, pkg.NewAppError(pkg.ErrRateLimitedCode, "validation trigger rate limit exceeded", nil))
		c.Header("Retry-After", "60")
		reject(c, resp)
		c.Abort()
	}
}

// RateLimit caps how often a route may be hit across all callers. perMinute <= 0 disables it.
func RateLimit(logger *zap.Logger, perMinute, burst int) gin.HandlerFunc {
	return NewRateLimiter(logger, perMinute, burst).Middleware(nil)
}
