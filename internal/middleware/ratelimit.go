package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/user/moovie/internal/utils"
	"golang.org/x/time/rate"
)

// RateLimit 全局令牌桶限流，超限返回 429
// /health 与 /metrics 不限流
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	if rps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return func(c *gin.Context) {
		switch c.Request.URL.Path {
		case "/health", "/api/health", "/metrics":
			c.Next()
			return
		}
		if !limiter.Allow() {
			utils.TooManyRequests(c)
			c.Abort()
			return
		}
		c.Next()
	}
}
