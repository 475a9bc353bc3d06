package s3

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	minio "github.com/minio/minio-go/v7"
	"github.com/oklog/ulid"

	"github.com/yeisme/filedeck/pkg/internal/types"
)

// ErrForeignURL 地址不属于当前存储桶.
var ErrForeignURL = errors.New("url does not belong to this blob store")

const maxStemLen = 96

// Put 上传内容并返回公开地址，对象键为 <prefix><stem>-<ulid><ext>.
func (c *Client) Put(ctx context.Context, filename string, data []byte, contentType string) (string, error) {
	key, err := BuildObjectKey(c.cfg.KeyPrefix, filename, time.Now())
	if err != nil {
		return "", err
	}

	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err = c.PutObject(ctx, c.cfg.BucketName, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}

	return ObjectURL(c.baseURL, key), nil
}

// Delete 按公开地址删除对象，对象不存在视为成功.
func (c *Client) Delete(ctx context.Context, blobURL string) error {
	key, err := KeyFromURL(c.baseURL, blobURL)
	if err != nil {
		return err
	}

	if err := c.RemoveObject(ctx, c.cfg.BucketName, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s: %w", key, err)
	}

	return nil
}

// ObjectKey 将记录中保存的地址还原为对象键，地址不在当前公开地址之下时返回 ErrForeignURL.
func (c *Client) ObjectKey(blobURL string) (string, error) {
	return KeyFromURL(c.baseURL, blobURL)
}

// ListBlobs 列出键前缀下最后修改时间早于 before 的对象.
func (c *Client) ListBlobs(ctx context.Context, before time.Time) ([]types.BlobObject, error) {
	ch := c.ListObjects(ctx, c.cfg.BucketName, minio.ListObjectsOptions{
		Prefix:    c.cfg.KeyPrefix,
		Recursive: true,
	})

	out := make([]types.BlobObject, 0)

	for obj := range ch {
		if obj.Err != nil {
			return nil, fmt.Errorf("list objects: %w", obj.Err)
		}

		if strings.HasSuffix(obj.Key, "/") || !obj.LastModified.Before(before) {
			continue
		}

		out = append(out, types.BlobObject{
			Key:          obj.Key,
			URL:          ObjectURL(c.baseURL, obj.Key),
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
	}

	return out, nil
}

// BuildObjectKey 根据原始文件名生成不易冲突的对象键.
func BuildObjectKey(prefix, filename string, now time.Time) (string, error) {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))

	ext := path.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	stem = sanitize(stem)
	if len(stem) > maxStemLen {
		stem = stem[:maxStemLen]
	}

	if stem == "" {
		stem = "file"
	}

	id, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		return "", fmt.Errorf("generate object key suffix: %w", err)
	}

	return prefix + stem + "-" + strings.ToLower(id.String()) + strings.ToLower(sanitize(ext)), nil
}

// ObjectURL 拼接对象的公开地址.
func ObjectURL(baseURL, key string) string {
	segs := strings.Split(key, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}

	return strings.TrimRight(baseURL, "/") + "/" + strings.Join(segs, "/")
}

// KeyFromURL 从公开地址还原对象键，地址必须位于 baseURL 之下.
func KeyFromURL(baseURL, blobURL string) (string, error) {
	prefix := strings.TrimRight(baseURL, "/") + "/"
	if !strings.HasPrefix(blobURL, prefix) {
		return "", fmt.Errorf("%w: %s", ErrForeignURL, blobURL)
	}

	raw := strings.TrimPrefix(blobURL, prefix)
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		raw = raw[:i]
	}

	key, err := url.PathUnescape(raw)
	if err != nil || key == "" {
		return "", fmt.Errorf("%w: %s", ErrForeignURL, blobURL)
	}

	return key, nil
}

// sanitize 只保留字母数字以及 . _ -，其余替换为 -.
func sanitize(s string) string {
	var b strings.Builder

	b.Grow(len(s))

	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}

	return b.String()
}
