package compress

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"

	"github.com/yeisme/filedeck/pkg/configs"
	nlog "github.com/yeisme/filedeck/pkg/log"
)

// Breaker 为压缩器加上熔断，服务持续失败时直接返回错误而不再发起请求.
type Breaker struct {
	next Compressor
	cb   *gobreaker.CircuitBreaker
}

// NewBreaker 按熔断配置包装压缩器.
func NewBreaker(next Compressor, cfg configs.CircuitBreakerConfig) *Breaker {
	settings := gobreaker.Settings{
		Name:        "compressor",
		MaxRequests: cfg.MaxRequestsInHalf,
		Interval:    time.Duration(cfg.IntervalSeconds) * time.Second,
		Timeout:     time.Duration(cfg.TimeoutSeconds) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}

			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRate
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			nlog.Logger().Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	}

	return &Breaker{next: next, cb: gobreaker.NewCircuitBreaker(settings)}
}

// Compress 在熔断器保护下调用下游压缩器.
func (b *Breaker) Compress(ctx context.Context, data []byte) ([]byte, error) {
	out, err := b.cb.Execute(func() (any, error) {
		return b.next.Compress(ctx, data)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, &TransformError{Op: "breaker", Err: err}
	}

	if err != nil {
		return nil, err
	}

	return out.([]byte), nil //nolint:forcetypeassert
}

// State 返回熔断器当前状态.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}
