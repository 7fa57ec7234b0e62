package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/yeisme/certvault/pkg/configs"
)

const (
	limiterCleanupInterval = 10 * time.Minute
	maxLimiterEntries      = 10000
)

// limiterSet 按 key 懒创建令牌桶. 每隔 limiterCleanupInterval 在访问时顺带清理，超过上限时整体重置.
type limiterSet struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	limiters  map[string]*rate.Limiter
	lastPrune time.Time
}

func newLimiterSet(rps float64, burst int) *limiterSet {
	return &limiterSet{limit: rate.Limit(rps), burst: burst, limiters: map[string]*rate.Limiter{}, lastPrune: time.Now()}
}

func (s *limiterSet) get(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	if now := time.Now(); now.Sub(s.lastPrune) >= limiterCleanupInterval {
		s.prune(now)
		s.lastPrune = now
	}

	l, ok := s.limiters[key]
	if !ok {
		if len(s.limiters) >= maxLimiterEntries {
			s.limiters = map[string]*rate.Limiter{}
		}

		l = rate.NewLimiter(s.limit, s.burst)
		s.limiters[key] = l
	}

	return l
}

// prune 丢弃已回满的桶，它们与新建的桶等价. 调用方持有锁.
func (s *limiterSet) prune(now time.Time) {
	for k, l := range s.limiters {
		if l.TokensAt(now) >= float64(s.burst) {
			delete(s.limiters, k)
		}
	}
}

// RateLimitMiddleware 返回一个基于配置的限流中间件，Exempt 中的路径前缀不限流.
func RateLimitMiddleware(cfg configs.RateLimitConfig) gin.HandlerFunc {
	if !cfg.Enabled || cfg.RPS <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	keyMode := strings.ToLower(strings.TrimSpace(cfg.Key))
	header := ""

	if strings.HasPrefix(keyMode, "header:") {
		header = strings.TrimSpace(cfg.Key)[len("header:"):]
	}

	set := newLimiterSet(cfg.RPS, cfg.Burst)

	retryAfter := strconv.Itoa(int(math.Ceil(1 / cfg.RPS)))

	return func(c *gin.Context) {
		for _, p := range cfg.Exempt {
			if p != "" && strings.HasPrefix(c.Request.URL.Path, p) {
				c.Next()

				return
			}
		}

		var key string

		switch {
		case keyMode == "global" || keyMode == "":
			key = "global"
		case header != "":
			if key = c.GetHeader(header); key == "" {
				key = clientIP(c)
			}
		default:
			key = clientIP(c)
		}

		if key == "" {
			key = "unknown"
		}

		if !set.get(key).Allow() {
			c.Header("Retry-After", retryAfter)
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				gin.H{"message": "rate limit exceeded, please try again later"})

			return
		}

		c.Next()
	}
}

func clientIP(c *gin.Context) string {
	ip := c.ClientIP()
	if ip == "" {
		host, _, err := net.SplitHostPort(c.Request.RemoteAddr)
		if err == nil {
			ip = host
		} else {
			ip = c.Request.RemoteAddr
		}
	}

	return ip
}
