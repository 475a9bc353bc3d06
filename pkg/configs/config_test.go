package configs_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/yeisme/filedeck/pkg/configs"
)

// TestDefaultsValidate 默认配置必须能通过校验.
func TestDefaultsValidate(t *testing.T) {
	cfg := configs.Defaults()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Expected defaults to validate, got %v", err)
	}

	if cfg.DB.Type != configs.SQLite {
		t.Errorf("Expected default db type sqlite, got %s", cfg.DB.Type)
	}

	if cfg.MQ.Type != configs.MQTypeMemory {
		t.Errorf("Expected default mq type memory, got %s", cfg.MQ.Type)
	}

	if cfg.Compress.APIKey != "" {
		t.Error("Expected no built-in compression API key")
	}
}

// TestCompressKeyRequired 启用压缩但没有 API Key 时应报错.
func TestCompressKeyRequired(t *testing.T) {
	cfg := configs.Defaults()
	cfg.Compress.Enabled = true

	err := cfg.Validate()
	if !errors.Is(err, configs.ErrCompressKeyMissing) {
		t.Fatalf("Expected ErrCompressKeyMissing, got %v", err)
	}

	cfg.Compress.APIKey = "k"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected no error with api key, got %v", err)
	}
}

// TestInitConfigEnv 环境变量覆盖默认值，且缺少配置文件不是错误.
func TestInitConfigEnv(t *testing.T) {
	t.Setenv("FILEDECK_COMPRESS_ENABLED", "true")
	t.Setenv("FILEDECK_COMPRESS_API_KEY", "secret-from-env")
	t.Setenv("FILEDECK_SERVER_PORT", "9191")

	if err := configs.InitConfig(t.TempDir()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	cfg := configs.GetConfig()
	if cfg.Compress.APIKey != "secret-from-env" {
		t.Errorf("Expected api key from env, got %q", cfg.Compress.APIKey)
	}

	if cfg.Server.Port != 9191 {
		t.Errorf("Expected port 9191, got %d", cfg.Server.Port)
	}
}

// TestInitConfigFile 从 yaml 文件读取配置.
func TestInitConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte("db:\n  type: postgres\n  host: db.internal\nupload:\n  max_size_mb: 5\n")

	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o600); err != nil {
		t.Fatal(err)
	}

	if err := configs.InitConfig(dir); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	cfg := configs.GetConfig()
	if cfg.DB.Type != configs.Postgres || cfg.DB.Host != "db.internal" {
		t.Errorf("Unexpected db config: %+v", cfg.DB)
	}

	if cfg.Upload.MaxBytes() != 5<<20 {
		t.Errorf("Expected 5MB limit, got %d", cfg.Upload.MaxBytes())
	}

	if got := cfg.DB.GetDSN(); got == "" {
		t.Error("Expected non-empty DSN")
	}
}

// TestEnvRejectsInvalid 非法配置应被拒绝.
func TestEnvRejectsInvalid(t *testing.T) {
	t.Setenv("FILEDECK_DB_TYPE", "oracle")

	if err := configs.InitConfig(t.TempDir()); err == nil {
		t.Error("Expected validation error for unknown db type, got nil")
	}
}

// TestPublicBaseURL 默认的公开访问地址由端点和存储桶拼接.
func TestPublicBaseURL(t *testing.T) {
	c := configs.S3Config{Endpoint: "minio:9000", BucketName: "b"}
	if got := c.GetPublicBaseURL(); got != "http://minio:9000/b" {
		t.Errorf("Expected http://minio:9000/b, got %s", got)
	}

	c.PublicBaseURL = "https://cdn.example.com/files/"
	if got := c.GetPublicBaseURL(); got != "https://cdn.example.com/files" {
		t.Errorf("Expected trimmed base url, got %s", got)
	}
}

// TestListCacheActive 进程内 KV 默认不启用列表缓存，共享 KV 或显式 allow_local 时启用.
func TestListCacheActive(t *testing.T) {
	cfg := configs.Defaults()
	lc := cfg.Upload.ListCache

	if !lc.Enabled || lc.AllowLocal {
		t.Fatalf("unexpected defaults %+v", lc)
	}

	cases := []struct {
		kv         configs.KVType
		allowLocal bool
		want       bool
	}{
		{configs.KVTypeMemory, false, false},
		{configs.KVTypeGroupcache, false, false},
		{configs.KVTypeRedis, false, true},
		{configs.KVTypeNATS, false, true},
		{configs.KVTypeMemory, true, true},
	}

	for _, tc := range cases {
		c := lc
		c.AllowLocal = tc.allowLocal

		if got := c.Active(tc.kv); got != tc.want {
			t.Errorf("Active(%s, allow_local=%v) = %v, want %v", tc.kv, tc.allowLocal, got, tc.want)
		}
	}

	lc.Enabled = false
	if lc.Active(configs.KVTypeRedis) {
		t.Error("disabled cache must stay off")
	}
}
