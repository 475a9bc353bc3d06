// Package compress 提供可选的图片压缩：压缩失败永远不会中断上传，只会回落到原始内容.
package compress

import (
	"context"
	"errors"
	"fmt"

	"github.com/yeisme/filedeck/pkg/configs"
)

// Compressor 对完整内容进行压缩.
type Compressor interface {
	Compress(ctx context.Context, data []byte) ([]byte, error)
}

// Outcome 压缩结果的两种形态.
type Outcome string

const (
	OutcomeCompressed Outcome = "compressed"
	OutcomeUnchanged  Outcome = "unchanged"
)

var (
	// ErrDisabled 未启用压缩.
	ErrDisabled = errors.New("compression disabled")
	// ErrNotSmaller 压缩结果不比原始内容小.
	ErrNotSmaller = errors.New("compressed output is not smaller")
)

// TransformError 压缩服务调用失败，只在本地记录，不会返回给调用方.
type TransformError struct {
	Op  string
	Err error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("compress %s: %v", e.Op, e.Err)
}

func (e *TransformError) Unwrap() error {
	return e.Err
}

// Result 压缩步骤的结果：Compressed 时 Data 为压缩后的内容，Unchanged 时 Data 为原始内容.
type Result struct {
	Data    []byte
	Outcome Outcome
	// Reason Unchanged 的原因，Compressed 时为 nil
	Reason error
}

// Compressed 是否使用了压缩后的内容.
func (r Result) Compressed() bool {
	return r.Outcome == OutcomeCompressed
}

// Apply 执行压缩，任何失败都返回 Unchanged 和原始内容.
func Apply(ctx context.Context, c Compressor, data []byte) Result {
	if c == nil {
		return unchanged(data, ErrDisabled)
	}

	out, err := c.Compress(ctx, data)
	if errors.Is(err, ErrDisabled) {
		return unchanged(data, ErrDisabled)
	}

	if err != nil {
		var te *TransformError
		if !errors.As(err, &te) {
			err = &TransformError{Op: "call", Err: err}
		}

		return unchanged(data, err)
	}

	if len(out) == 0 || len(out) >= len(data) {
		return unchanged(data, ErrNotSmaller)
	}

	return Result{Data: out, Outcome: OutcomeCompressed}
}

func unchanged(data []byte, reason error) Result {
	return Result{Data: data, Outcome: OutcomeUnchanged, Reason: reason}
}

// Disabled 不做任何压缩.
type Disabled struct{}

// Compress 总是返回 ErrDisabled.
func (Disabled) Compress(context.Context, []byte) ([]byte, error) {
	return nil, ErrDisabled
}

// New 根据配置构建压缩器：未启用时返回 Disabled，否则返回带熔断的 TinyPNG 客户端.
func New(cfg configs.CompressConfig, cb configs.CircuitBreakerConfig) (Compressor, error) { //nolint:ireturn
	if !cfg.Enabled {
		return Disabled{}, nil
	}

	if cfg.APIKey == "" {
		return nil, configs.ErrCompressKeyMissing
	}

	return NewBreaker(NewTinify(cfg), cb), nil
}
