// Package s3 处理对象存储操作，基于 MinIO 客户端，兼容 S3.
package s3

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/bytedance/sonic"
	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/yeisme/filedeck/pkg/configs"
	nlog "github.com/yeisme/filedeck/pkg/log"
)

// Client 包装 MinIO 客户端，固定使用一个存储桶.
type Client struct {
	*minio.Client

	cfg     configs.S3Config
	baseURL string
}

// New 初始化 MinIO 客户端，若 bucket 不存在则创建，并按需设置匿名只读策略.
func New(ctx context.Context, cfg *configs.S3Config) (*Client, error) {
	c := *cfg

	endpoint := c.Endpoint
	// 允许用户传完整 schema endpoint（http:// 或 https://）
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		endpoint = u.Host
		c.Endpoint = u.Host

		if u.Scheme == "https" {
			c.UseSSL = true
		}
	}

	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(c.AccessKeyID, c.SecretAccessKey, ""),
		Secure: c.UseSSL,
		Region: c.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	cli.SetAppInfo("filedeck", configs.AppVersion)

	exists, err := cli.BucketExists(ctx, c.BucketName)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", c.BucketName, err)
	}

	if !exists {
		if err := cli.MakeBucket(ctx, c.BucketName, minio.MakeBucketOptions{Region: c.Region}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", c.BucketName, err)
		}

		nlog.Logger().Info().Str("bucket", c.BucketName).Msg("bucket created")
	}

	if c.PublicRead {
		policy, err := PublicReadPolicy(c.BucketName, c.KeyPrefix)
		if err != nil {
			return nil, err
		}

		if err := cli.SetBucketPolicy(ctx, c.BucketName, policy); err != nil {
			return nil, fmt.Errorf("set public read policy on %s: %w", c.BucketName, err)
		}
	}

	nlog.Logger().Info().
		Str("endpoint", c.Endpoint).
		Str("bucket", c.BucketName).
		Bool("public_read", c.PublicRead).
		Msg("s3 connected")

	return &Client{Client: cli, cfg: c, baseURL: c.GetPublicBaseURL()}, nil
}

// HealthCheck 检查存储桶是否可访问.
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.BucketExists(ctx, c.cfg.BucketName)
	return err
}

// Close 关闭 S3 客户端连接（无实际操作，接口兼容）.
func (c *Client) Close() error {
	return nil
}

// GetConfig 返回客户端使用的配置副本.
func (c *Client) GetConfig() configs.S3Config {
	return c.cfg
}

type policyStatement struct {
	Effect    string              `json:"Effect"`
	Principal map[string][]string `json:"Principal"`
	Action    []string            `json:"Action"`
	Resource  []string            `json:"Resource"`
}

type bucketPolicy struct {
	Version   string            `json:"Version"`
	Statement []policyStatement `json:"Statement"`
}

// PublicReadPolicy 生成允许匿名 GetObject 的存储桶策略，作用范围限制在 prefix 下.
func PublicReadPolicy(bucket, prefix string) (string, error) {
	p := bucketPolicy{
		Version: "2012-10-17",
		Statement: []policyStatement{{
			Effect:    "Allow",
			Principal: map[string][]string{"AWS": {"*"}},
			Action:    []string{"s3:GetObject"},
			Resource:  []string{"arn:aws:s3:::" + bucket + "/" + strings.TrimLeft(prefix, "/") + "*"},
		}},
	}

	b, err := sonic.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode bucket policy: %w", err)
	}

	return string(b), nil
}
