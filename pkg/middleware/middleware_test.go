package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/filedeck/pkg/configs"
	"github.com/yeisme/filedeck/pkg/middleware"
)

func newEngine(mw gin.HandlerFunc, status int) *gin.Engine {
	gin.SetMode(gin.TestMode)

	e := gin.New()
	e.Use(mw)
	e.GET("/ping", func(c *gin.Context) { c.Status(status) })

	return e
}

func get(e *gin.Engine, header string) int {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if header != "" {
		req.Header.Set("X-Client", header)
	}

	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)

	return w.Code
}

// 测试全局限流：桶容量用完后返回 429.
func TestRateLimitGlobal(t *testing.T) {
	e := newEngine(middleware.RateLimitMiddleware(configs.RateLimitConfig{Enabled: true, RPS: 0.001, Burst: 1, Key: "global"}), http.StatusOK)

	if code := get(e, ""); code != http.StatusOK {
		t.Fatalf("first request = %d", code)
	}

	if code := get(e, ""); code != http.StatusTooManyRequests {
		t.Fatalf("second request = %d, want 429", code)
	}
}

// 测试按请求头限流：不同 key 互不影响.
func TestRateLimitByHeader(t *testing.T) {
	e := newEngine(middleware.RateLimitMiddleware(configs.RateLimitConfig{Enabled: true, RPS: 0.001, Burst: 1, Key: "header:X-Client"}), http.StatusOK)

	if code := get(e, "a"); code != http.StatusOK {
		t.Fatalf("a first = %d", code)
	}

	if code := get(e, "b"); code != http.StatusOK {
		t.Fatalf("b first = %d", code)
	}

	if code := get(e, "a"); code != http.StatusTooManyRequests {
		t.Fatalf("a second = %d, want 429", code)
	}
}

// 测试熔断：5xx 比例达到阈值后直接返回 503.
func TestCircuitBreakerOpens(t *testing.T) {
	cfg := configs.CircuitBreakerConfig{
		Enabled:           true,
		FailureRate:       0.5,
		MinRequests:       2,
		IntervalSeconds:   60,
		TimeoutSeconds:    60,
		MaxRequestsInHalf: 1,
	}
	e := newEngine(middleware.CircuitBreakerMiddleware(cfg), http.StatusInternalServerError)

	for i := range 2 {
		if code := get(e, ""); code != http.StatusInternalServerError {
			t.Fatalf("request %d = %d", i, code)
		}
	}

	if code := get(e, ""); code != http.StatusServiceUnavailable {
		t.Fatalf("after trip = %d, want 503", code)
	}
}

// 测试关闭时中间件透传.
func TestDisabledPassThrough(t *testing.T) {
	e := newEngine(middleware.CircuitBreakerMiddleware(configs.CircuitBreakerConfig{}), http.StatusTeapot)

	if code := get(e, ""); code != http.StatusTeapot {
		t.Fatalf("code = %d", code)
	}

	e = newEngine(middleware.RateLimitMiddleware(configs.RateLimitConfig{}), http.StatusTeapot)

	if code := get(e, ""); code != http.StatusTeapot {
		t.Fatalf("code = %d", code)
	}
}
