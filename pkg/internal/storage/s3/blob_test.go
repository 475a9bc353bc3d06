package s3_test

import (
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"

	"github.com/yeisme/filedeck/pkg/internal/storage/s3"
)

var keyPattern = regexp.MustCompile(`^uploads/report-[0-9a-z]{26}\.txt$`)

// TestBuildObjectKey 对象键保留原始名称并附加随机后缀.
func TestBuildObjectKey(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	k1, err := s3.BuildObjectKey("uploads/", "report.txt", now)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !keyPattern.MatchString(k1) {
		t.Errorf("Unexpected key format: %s", k1)
	}

	k2, _ := s3.BuildObjectKey("uploads/", "report.txt", now)
	if k1 == k2 {
		t.Errorf("Expected distinct keys for the same name, got %s twice", k1)
	}
}

// TestBuildObjectKeySanitize 路径与特殊字符被清理.
func TestBuildObjectKeySanitize(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		prefix string
	}{
		{"path traversal", "../../etc/passwd", "passwd-"},
		{"windows path", `C:\Users\me\My Photo.PNG`, "My-Photo-"},
		{"no stem", ".env", "file-"},
		{"unicode", "照片.jpg", "--"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := s3.BuildObjectKey("", tt.input, time.Now())
			if err != nil {
				t.Fatal(err)
			}

			if !strings.HasPrefix(key, tt.prefix) {
				t.Errorf("Expected prefix %q, got %s", tt.prefix, key)
			}

			if strings.Contains(key, "/") || strings.Contains(key, " ") {
				t.Errorf("Key must not contain separators or spaces: %s", key)
			}
		})
	}
}

// TestObjectURLRoundTrip 地址与对象键可以互相转换.
func TestObjectURLRoundTrip(t *testing.T) {
	base := "http://localhost:9000/filedeck/"
	key := "uploads/a-01hx.png"

	u := s3.ObjectURL(base, key)
	if u != "http://localhost:9000/filedeck/uploads/a-01hx.png" {
		t.Errorf("Unexpected url %s", u)
	}

	got, err := s3.KeyFromURL(base, u)
	if err != nil || got != key {
		t.Errorf("Expected %s, got %s (%v)", key, got, err)
	}

	got, err = s3.KeyFromURL(base, u+"?versionId=1")
	if err != nil || got != key {
		t.Errorf("Expected query to be ignored, got %s (%v)", got, err)
	}
}

// TestKeyFromURLForeign 其他主机或存储桶的地址会被拒绝.
func TestKeyFromURLForeign(t *testing.T) {
	for _, u := range []string{
		"http://evil.example.com/filedeck/uploads/a.png",
		"http://localhost:9000/other/uploads/a.png",
		"http://localhost:9000/filedeck/",
	} {
		if _, err := s3.KeyFromURL("http://localhost:9000/filedeck", u); !errors.Is(err, s3.ErrForeignURL) {
			t.Errorf("Expected ErrForeignURL for %s, got %v", u, err)
		}
	}
}

// TestPublicReadPolicy 策略只授予前缀下的 GetObject.
func TestPublicReadPolicy(t *testing.T) {
	p, err := s3.PublicReadPolicy("filedeck", "uploads/")
	if err != nil {
		t.Fatal(err)
	}

	var doc struct {
		Statement []struct {
			Action   []string
			Resource []string
		}
	}

	if err := sonic.UnmarshalString(p, &doc); err != nil {
		t.Fatalf("Policy is not valid JSON: %v", err)
	}

	if len(doc.Statement) != 1 || doc.Statement[0].Action[0] != "s3:GetObject" {
		t.Errorf("Unexpected statements: %+v", doc.Statement)
	}

	if doc.Statement[0].Resource[0] != "arn:aws:s3:::filedeck/uploads/*" {
		t.Errorf("Unexpected resource: %s", doc.Statement[0].Resource[0])
	}
}
