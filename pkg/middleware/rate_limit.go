package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/yeisme/filedeck/pkg/configs"
	"github.com/yeisme/filedeck/pkg/internal/types"
)

const (
	limiterIdleTTL   = 10 * time.Minute
	limiterSweepTick = time.Minute
)

// RateLimitMiddleware 令牌桶限流，key 为 global、ip 或 header:<Name>，按请求头取不到值时退回客户端 IP.
func RateLimitMiddleware(cfg configs.RateLimitConfig) gin.HandlerFunc {
	if !cfg.Enabled || cfg.RPS <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	mode := strings.ToLower(strings.TrimSpace(cfg.Key))
	if mode == "" || mode == "global" {
		limiter := rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst)

		return limitWith(func(*gin.Context) *rate.Limiter { return limiter })
	}

	header, byHeader := strings.CutPrefix(mode, "header:")
	set := newLimiterSet(rate.Limit(cfg.RPS), cfg.Burst)

	go set.sweepLoop(limiterSweepTick, limiterIdleTTL)

	return limitWith(func(c *gin.Context) *rate.Limiter {
		key := ""
		if byHeader {
			key = c.GetHeader(header)
		}

		if key == "" {
			key = c.ClientIP()
		}

		return set.get(key)
	})
}

func limitWith(pick func(*gin.Context) *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !pick(c).Allow() {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, types.ErrorResponse{Error: "Too many requests"})

			return
		}

		c.Next()
	}
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterSet 每个 key 一个令牌桶，闲置超过 TTL 的桶被回收.
type limiterSet struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry
	limit   rate.Limit
	burst   int
}

func newLimiterSet(limit rate.Limit, burst int) *limiterSet {
	return &limiterSet{entries: make(map[string]*limiterEntry), limit: limit, burst: burst}
}

func (s *limiterSet) get(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.entries[key] = e
	}

	e.lastSeen = time.Now()

	return e.limiter
}

func (s *limiterSet) sweep(idle time.Duration) {
	cutoff := time.Now().Add(-idle)

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, e := range s.entries {
		if e.lastSeen.Before(cutoff) {
			delete(s.entries, k)
		}
	}
}

func (s *limiterSet) sweepLoop(every, idle time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for range ticker.C {
		s.sweep(idle)
	}
}
