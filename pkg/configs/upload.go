package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultUploadMaxMB  = 50 // 单个上传文件最大尺寸（MB）
	DefaultListCacheTTL = 30 // 列表缓存过期时间（秒）
)

// UploadConfig 上传限制与列表缓存配置.
type UploadConfig struct {
	MaxSizeMB int `mapstructure:"max_size_mb" rule:"min=1"`
	// ListCache 列表查询结果缓存
	ListCache ListCacheConfig `mapstructure:"list_cache"`
}

// ListCacheConfig 列表缓存配置.
//
// 进程内 KV（memory、groupcache 的本地写入）下，一个实例上的上传或删除无法让其他实例的缓存失效，
// 多副本部署会在 TTL 内返回过期列表. 因此只有 KV 为共享后端，或显式设置 allow_local 时才启用.
type ListCacheConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	AllowLocal bool `mapstructure:"allow_local"`
	TTLSeconds int  `mapstructure:"ttl_seconds" rule:"min=1"`
}

// Active 按 KV 类型判断列表缓存是否实际启用.
func (c *ListCacheConfig) Active(kv KVType) bool {
	return c.Enabled && (kv.Shared() || c.AllowLocal)
}

// MaxBytes 返回上传允许的最大字节数.
func (c *UploadConfig) MaxBytes() int64 {
	return int64(c.MaxSizeMB) << 20
}

// TTL 返回列表缓存的过期时间.
func (c *ListCacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

func (c *UploadConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("upload.max_size_mb", DefaultUploadMaxMB)
	v.SetDefault("upload.list_cache.enabled", true)
	v.SetDefault("upload.list_cache.allow_local", false)
	v.SetDefault("upload.list_cache.ttl_seconds", DefaultListCacheTTL)
}
