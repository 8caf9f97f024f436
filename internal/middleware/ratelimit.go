package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/linkpage/internal/logger"
	"golang.org/x/time/rate"
)

// IPRateLimiter 为每个客户端 IP 维护独立的令牌桶。
type IPRateLimiter struct {
	mu    sync.Mutex
	ips   map[string]*rateLimiterEntry
	r     rate.Limit
	burst int
	ttl   time.Duration
	now   func() time.Time
}

type rateLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewIPRateLimiter 创建限流器，r 为每秒补充的令牌数，burst 为桶容量。
func NewIPRateLimiter(r rate.Limit, burst int) *IPRateLimiter {
	return &IPRateLimiter{
		ips:   make(map[string]*rateLimiterEntry),
		r:     r,
		burst: burst,
		ttl:   3 * time.Minute,
		now:   time.Now,
	}
}

// NewLoginLimiter 返回后台登录使用的限流器：每分钟 10 次，突发 5 次。
func NewLoginLimiter() *IPRateLimiter {
	return NewIPRateLimiter(rate.Limit(10.0/60.0), 5)
}

// Allow 判断该 IP 是否还有可用令牌，同时顺带清理长时间未出现的条目。
func (rl *IPRateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, entry := range rl.ips {
		if now.Sub(entry.lastSeen) > rl.ttl {
			delete(rl.ips, key)
		}
	}

	entry, ok := rl.ips[ip]
	if !ok {
		entry = &rateLimiterEntry{limiter: rate.NewLimiter(rl.r, rl.burst)}
		rl.ips[ip] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

// RateLimit 超出配额时返回 429。
func RateLimit(limiter *IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !limiter.Allow(ip) {
			logger.Warn().
				Str("ip", ip).
				Str("path", c.Request.URL.Path).
				Msg("rate limit exceeded")

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "too many requests, please slow down",
			})
			return
		}
		c.Next()
	}
}
