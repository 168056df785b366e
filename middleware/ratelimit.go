package middleware

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"fintrack/service"

	"github.com/gin-gonic/gin"
)

// LoginLimiter 按客户端 IP 的滑动窗口计数器
type LoginLimiter struct {
	maxAttempts int
	window      time.Duration
	now         func() time.Time

	mu    sync.Mutex
	hits  map[string][]time.Time
	calls int
}

// NewLoginLimiter 创建限流器，window 内最多 maxAttempts 次
func NewLoginLimiter(maxAttempts int, window time.Duration) *LoginLimiter {
	return &LoginLimiter{
		maxAttempts: maxAttempts,
		window:      window,
		now:         time.Now,
		hits:        make(map[string][]time.Time),
	}
}

// Allow 记录一次尝试，超过上限返回 false
func (l *LoginLimiter) Allow(key string) bool {
	now := l.now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	l.calls++
	if l.calls%256 == 0 {
		l.pruneLocked(cutoff)
	}

	hits := within(l.hits[key], cutoff)
	if len(hits) >= l.maxAttempts {
		l.hits[key] = hits
		return false
	}
	l.hits[key] = append(hits, now)
	return true
}

// Tracked 当前仍在窗口内的客户端数
func (l *LoginLimiter) Tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pruneLocked(l.now().Add(-l.window))
	return len(l.hits)
}

func (l *LoginLimiter) pruneLocked(cutoff time.Time) {
	for key, hits := range l.hits {
		if rest := within(hits, cutoff); len(rest) == 0 {
			delete(l.hits, key)
		} else {
			l.hits[key] = rest
		}
	}
}

// within 原地过滤掉窗口外的时间戳
func within(hits []time.Time, cutoff time.Time) []time.Time {
	kept := hits[:0]
	for _, t := range hits {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}

// Middleware 超过上限时返回 429 和 too-many-requests 提示
func (l *LoginLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !l.Allow(ip) {
			slog.Warn("login rate limited", "component", "ratelimit", "path", c.Request.URL.Path, "client_ip", ip)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code":    http.StatusTooManyRequests,
				"message": service.AuthMessage(service.ReasonTooManyRequests),
			})
			return
		}
		c.Next()
	}
}

// LoginRateLimit 登录类接口共用一个限流器
func LoginRateLimit(maxAttempts int, window time.Duration) gin.HandlerFunc {
	return NewLoginLimiter(maxAttempts, window).Middleware()
}
