package configs

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// S3Config MinIO / S3 对象存储配置.
type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"          rule:"required"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"       rule:"required"`
	Region          string `mapstructure:"region"`
	// KeyPrefix 对象键前缀，例如 "uploads/"
	KeyPrefix string `mapstructure:"key_prefix"`
	// PublicRead 为 true 时为存储桶设置匿名只读策略
	PublicRead bool `mapstructure:"public_read"`
	// PublicBaseURL 对外访问地址，留空时使用 <scheme>://<endpoint>/<bucket>
	PublicBaseURL string `mapstructure:"public_base_url"`
}

const (
	DefaultS3Endpoint        = "localhost:9000" // 默认S3端点
	DefaultS3AccessKeyID     = ""               // 访问密钥必须由环境变量或配置文件提供
	DefaultS3SecretAccessKey = ""               // 同上
	DefaultS3UseSSL          = false            // 默认是否使用SSL
	DefaultS3BucketName      = "filedeck"       // 默认存储桶名称
	DefaultS3Region          = "us-east-1"      // 默认区域
	DefaultS3KeyPrefix       = "uploads/"       // 默认对象键前缀
)

// GetEndpointURL 获取完整的端点URL.
func (c *S3Config) GetEndpointURL() string {
	scheme := "http"
	if c.UseSSL {
		scheme = "https"
	}

	return fmt.Sprintf("%s://%s", scheme, c.Endpoint)
}

// GetPublicBaseURL 返回对象公开访问的基础地址，不带结尾斜杠.
func (c *S3Config) GetPublicBaseURL() string {
	if c.PublicBaseURL != "" {
		return strings.TrimRight(c.PublicBaseURL, "/")
	}

	return c.GetEndpointURL() + "/" + c.BucketName
}

// setDefaults 设置 S3 配置的默认值.
func (c *S3Config) setDefaults(v *viper.Viper) {
	v.SetDefault("s3.endpoint", DefaultS3Endpoint)
	v.SetDefault("s3.access_key_id", DefaultS3AccessKeyID)
	v.SetDefault("s3.secret_access_key", DefaultS3SecretAccessKey)
	v.SetDefault("s3.use_ssl", DefaultS3UseSSL)
	v.SetDefault("s3.bucket_name", DefaultS3BucketName)
	v.SetDefault("s3.region", DefaultS3Region)
	v.SetDefault("s3.key_prefix", DefaultS3KeyPrefix)
	v.SetDefault("s3.public_read", true)
	v.SetDefault("s3.public_base_url", "")
}
