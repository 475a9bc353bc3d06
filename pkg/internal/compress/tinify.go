package compress

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/yeisme/filedeck/pkg/configs"
)

// ErrOutputTooLarge 压缩结果超过配置的上限.
var ErrOutputTooLarge = errors.New("compressed output exceeds limit")

// TinifyClient TinyPNG HTTP API 客户端.
//
// 先 POST /shrink 上传原图，再 GET 响应中 output.url 下载结果，两次请求都使用 api:<key> 的 Basic 认证.
type TinifyClient struct {
	endpoint string
	apiKey   string
	maxOut   int64
	http     *http.Client
}

type shrinkResponse struct {
	Input struct {
		Size int64  `json:"size"`
		Type string `json:"type"`
	} `json:"input"`
	Output struct {
		Size int64  `json:"size"`
		Type string `json:"type"`
		URL  string `json:"url"`
	} `json:"output"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// NewTinify 创建 TinyPNG 客户端.
func NewTinify(cfg configs.CompressConfig) *TinifyClient {
	return &TinifyClient{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:   cfg.APIKey,
		maxOut:   cfg.MaxOutputBytes(),
		http:     &http.Client{Timeout: cfg.GetTimeout()},
	}
}

// WithHTTPClient 替换底层 HTTP 客户端.
func (t *TinifyClient) WithHTTPClient(c *http.Client) *TinifyClient {
	t.http = c
	return t
}

// Compress 调用 TinyPNG 压缩图片.
func (t *TinifyClient) Compress(ctx context.Context, data []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint+"/shrink", bytes.NewReader(data))
	if err != nil {
		return nil, &TransformError{Op: "shrink", Err: err}
	}

	req.SetBasicAuth("api", t.apiKey)

	resp, err := t.http.Do(req)
	if err != nil {
		return nil, &TransformError{Op: "shrink", Err: err}
	}
	defer resp.Body.Close()

	const maxMetaBytes = 64 << 10

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxMetaBytes))
	if err != nil {
		return nil, &TransformError{Op: "shrink", Err: err}
	}

	var sr shrinkResponse
	if err := sonic.Unmarshal(body, &sr); err != nil {
		return nil, &TransformError{Op: "shrink", Err: fmt.Errorf("status %d: decode response: %w", resp.StatusCode, err)}
	}

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, &TransformError{Op: "shrink", Err: fmt.Errorf("status %d: %s: %s", resp.StatusCode, sr.Error, sr.Message)}
	}

	location := sr.Output.URL
	if location == "" {
		location = resp.Header.Get("Location")
	}

	if location == "" {
		return nil, &TransformError{Op: "shrink", Err: errors.New("response has no output url")}
	}

	return t.download(ctx, location)
}

func (t *TinifyClient) download(ctx context.Context, location string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, &TransformError{Op: "download", Err: err}
	}

	req.SetBasicAuth("api", t.apiKey)

	resp, err := t.http.Do(req)
	if err != nil {
		return nil, &TransformError{Op: "download", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &TransformError{Op: "download", Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	out, err := io.ReadAll(io.LimitReader(resp.Body, t.maxOut+1))
	if err != nil {
		return nil, &TransformError{Op: "download", Err: err}
	}

	if int64(len(out)) > t.maxOut {
		return nil, &TransformError{Op: "download", Err: ErrOutputTooLarge}
	}

	return out, nil
}
