// Package middleware 提供 HTTP 中间件：日志、追踪、指标、跨域、压缩、限流、熔断与依赖注入.
package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/filedeck/pkg/configs"
)

// Default 按固定顺序返回全局中间件：恢复 → 追踪 → 日志 → 指标 → 跨域 → 压缩 → 限流 → 熔断.
func Default(cfg *configs.AppConfig) []gin.HandlerFunc {
	chain := []gin.HandlerFunc{
		gin.Recovery(),
		TracingMiddleware(),
		GinLoggerMiddleware(),
	}

	if cfg.Metrics.Enabled {
		chain = append(chain, PrometheusMiddleware())
	}

	chain = append(chain, CORSMiddleware(cfg.Server))

	if cfg.Server.Gzip {
		chain = append(chain, GzipMiddleware())
	}

	return append(chain,
		RateLimitMiddleware(cfg.RateLimit),
		CircuitBreakerMiddleware(cfg.CircuitBreaker),
	)
}
