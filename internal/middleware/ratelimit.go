package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/akshardoc/akshardoc/internal/pkg/logutil"
	"github.com/akshardoc/akshardoc/internal/pkg/response"
)

const ratelimitSweepSize = 4096

type rateLimiter struct {
	mu     sync.Mutex
	window time.Duration
	last   map[string]time.Time
	now    func() time.Time
}

// RateLimit allows one request per window per client IP and path. On routes
// behind the auth middleware the caller's email joins the key, so shared IPs
// do not starve each other; public routes key on the IP alone.
func RateLimit(window time.Duration) gin.HandlerFunc {
	limiter := &rateLimiter{
		window: window,
		last:   make(map[string]time.Time),
		now:    time.Now,
	}
	return limiter.handle
}

func (l *rateLimiter) handle(c *gin.Context) {
	if l.window <= 0 {
		c.Next()
		return
	}
	ip := c.ClientIP()
	email := c.GetString(ContextEmailKey)
	path := c.FullPath()
	if path == "" {
		path = c.Request.URL.Path
	}
	key := strings.Join([]string{ip, email, path}, "|")

	now := l.now()
	l.mu.Lock()
	last, exists := l.last[key]
	if exists && now.Sub(last) < l.window {
		l.mu.Unlock()
		logutil.GetLogger(c.Request.Context()).Warn("rate limit hit",
			zap.String("ip", ip),
			zap.String("email", email),
			zap.String("path", path),
		)
		response.Error(c, http.StatusTooManyRequests, "TOO_MANY_REQUESTS", http.StatusText(http.StatusTooManyRequests))
		c.Abort()
		return
	}
	if len(l.last) >= ratelimitSweepSize {
		l.sweep(now)
	}
	l.last[key] = now
	l.mu.Unlock()
	c.Next()
}

func (l *rateLimiter) sweep(now time.Time) {
	for key, at := range l.last {
		if now.Sub(at) >= l.window {
			delete(l.last, key)
		}
	}
}
