package configs

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultCompressEndpoint = "https://api.tinify.com" // TinyPNG API 地址
	DefaultCompressTimeout  = 30                       // 单次压缩超时（秒）
	DefaultCompressMaxOut   = 64                       // 压缩结果最大尺寸（MB）
)

// ErrCompressKeyMissing 启用压缩但未提供 API Key.
var ErrCompressKeyMissing = errors.New("compress.api_key is required when compress.enabled is true (set FILEDECK_COMPRESS_API_KEY)")

// CompressConfig 图片压缩服务配置.
//
// API Key 没有内置默认值，只能来自配置文件或环境变量 FILEDECK_COMPRESS_API_KEY.
type CompressConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	APIKey         string `mapstructure:"api_key"`
	Endpoint       string `mapstructure:"endpoint"        rule:"required,url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" rule:"min=1,max=300"`
	MaxOutputMB    int    `mapstructure:"max_output_mb"   rule:"min=1"`
}

// GetTimeout 返回单次压缩的超时时间.
func (c *CompressConfig) GetTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// MaxOutputBytes 返回压缩结果允许的最大字节数.
func (c *CompressConfig) MaxOutputBytes() int64 {
	return int64(c.MaxOutputMB) << 20
}

func (c *CompressConfig) check() error {
	if c.Enabled && c.APIKey == "" {
		return ErrCompressKeyMissing
	}

	return nil
}

func (c *CompressConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("compress.enabled", false)
	v.SetDefault("compress.api_key", "")
	v.SetDefault("compress.endpoint", DefaultCompressEndpoint)
	v.SetDefault("compress.timeout_seconds", DefaultCompressTimeout)
	v.SetDefault("compress.max_output_mb", DefaultCompressMaxOut)
}
