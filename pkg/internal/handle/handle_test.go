package handle_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"

	"github.com/yeisme/filedeck/pkg/api"
	"github.com/yeisme/filedeck/pkg/configs"
	"github.com/yeisme/filedeck/pkg/internal/handle"
	"github.com/yeisme/filedeck/pkg/internal/model"
	"github.com/yeisme/filedeck/pkg/internal/service"
	"github.com/yeisme/filedeck/pkg/internal/storage"
	"github.com/yeisme/filedeck/pkg/internal/storage/db"
	"github.com/yeisme/filedeck/pkg/internal/storage/kv"
	"github.com/yeisme/filedeck/pkg/internal/types"
)

type memBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
	delErr  error
}

func (m *memBlobs) Put(_ context.Context, filename string, data []byte, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.putErr != nil {
		return "", m.putErr
	}

	url := fmt.Sprintf("mem://bucket/%d-%s", len(m.objects), filename)
	m.objects[url] = data

	return url, nil
}

func (m *memBlobs) Delete(_ context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.delErr != nil {
		return m.delErr
	}

	delete(m.objects, url)

	return nil
}

func (m *memBlobs) ListBlobs(context.Context, time.Time) ([]types.BlobObject, error) {
	return nil, nil
}

func (m *memBlobs) ObjectKey(url string) (string, error) {
	return strings.TrimPrefix(url, "mem://bucket/"), nil
}

type server struct {
	engine *gin.Engine
	blobs  *memBlobs
}

func newServer(t *testing.T, maxMB int) *server {
	t.Helper()

	gin.SetMode(gin.TestMode)

	client, err := db.Open(context.Background(), sqlite.Open(":memory:"),
		&configs.DBConfig{MaxOpenConns: 1, MaxIdleConns: 1, AutoMigrate: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	t.Cleanup(func() { _ = client.Close() })

	blobs := &memBlobs{objects: map[string][]byte{}}
	svc := service.New(service.Options{
		Blobs:      blobs,
		Meta:       client.Files(),
		IsNotFound: func(err error) bool { return errors.Is(err, db.ErrNotFound) },
	})

	cfg := testConfig(maxMB)

	return &server{engine: api.NewEngine(&cfg, api.Deps{Service: svc}), blobs: blobs}
}

func testConfig(maxMB int) configs.AppConfig {
	cfg := configs.Defaults()
	cfg.RateLimit.Enabled = false
	cfg.CircuitBreaker.Enabled = false
	cfg.Metrics.Enabled = false
	cfg.Upload.MaxSizeMB = maxMB

	return cfg
}

func (s *server) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	return w
}

func uploadRequest(t *testing.T, filename, contentType string, data []byte, folder *string) *http.Request {
	t.Helper()

	var body bytes.Buffer

	mw := multipart.NewWriter(&body)

	if filename != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))

		if contentType != "" {
			h.Set("Content-Type", contentType)
		}

		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}

		_, _ = part.Write(data)
	}

	if folder != nil {
		_ = mw.WriteField("folder", *folder)
	}

	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return req
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	var resp types.ErrorResponse
	if err := sonic.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}

	return resp.Error
}

func upload(t *testing.T, s *server, filename, contentType string, data []byte) model.File {
	t.Helper()

	w := s.do(uploadRequest(t, filename, contentType, data, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("upload %s: status %d body %s", filename, w.Code, w.Body.String())
	}

	var f model.File
	if err := sonic.Unmarshal(w.Body.Bytes(), &f); err != nil {
		t.Fatalf("decode record: %v", err)
	}

	return f
}

// 测试上传成功返回完整记录，名称去掉扩展名，tags 为空数组.
func TestUploadOK(t *testing.T) {
	s := newServer(t, 1)

	folder := "docs"
	w := s.do(uploadRequest(t, "report.final.pdf", "application/pdf", []byte("%PDF-1.4 hello"), &folder))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var f model.File
	if err := sonic.Unmarshal(w.Body.Bytes(), &f); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if f.Name != "report.final" || f.OriginalName != "report.final.pdf" {
		t.Errorf("names = %q / %q", f.Name, f.OriginalName)
	}

	if f.Type != "application" || f.MimeType != "application/pdf" || f.Size != 14 {
		t.Errorf("unexpected record %+v", f)
	}

	if f.Folder == nil || *f.Folder != "docs" {
		t.Errorf("folder = %v", f.Folder)
	}

	if !strings.Contains(w.Body.String(), `"tags":[]`) {
		t.Errorf("tags should serialize as empty array: %s", w.Body.String())
	}
}

// 测试缺少 file 字段返回 400 与通用信息.
func TestUploadMissingFile(t *testing.T) {
	s := newServer(t, 1)

	folder := "x"
	w := s.do(uploadRequest(t, "", "", nil, &folder))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}

	if got := decodeError(t, w); got != handle.MsgNoFile {
		t.Errorf("error = %q", got)
	}
}

// 测试 0 字节文件可以上传，记录 size 为 0.
func TestUploadEmptyFile(t *testing.T) {
	s := newServer(t, 1)

	f := upload(t, s, "empty.txt", "text/plain", []byte{})
	if f.Size != 0 || f.Name != "empty" || f.MimeType != "text/plain" {
		t.Fatalf("record = %+v", f)
	}

	if _, ok := s.blobs.objects[f.BlobURL]; !ok {
		t.Fatal("empty blob was not stored")
	}
}

// 测试超过上传上限返回 413.
func TestUploadTooLarge(t *testing.T) {
	s := newServer(t, 1)

	data := bytes.Repeat([]byte("a"), 1<<20+1)
	w := s.do(uploadRequest(t, "big.txt", "text/plain", data, nil))

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d", w.Code)
	}
}

// 测试对象存储失败返回 500，响应不泄露内部错误.
func TestUploadStorageFailure(t *testing.T) {
	s := newServer(t, 1)
	s.blobs.putErr = errors.New("s3: access denied for key secret-bucket")

	w := s.do(uploadRequest(t, "a.txt", "text/plain", []byte("hi"), nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}

	if got := decodeError(t, w); got != handle.MsgUploadFailed {
		t.Errorf("error = %q", got)
	}

	if strings.Contains(w.Body.String(), "secret-bucket") {
		t.Errorf("internal detail leaked: %s", w.Body.String())
	}
}

// 测试空列表返回 [] 而不是 null，搜索与排序参数生效.
func TestListFiles(t *testing.T) {
	s := newServer(t, 1)

	w := s.do(httptest.NewRequest(http.MethodGet, "/files", nil))
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != "[]" {
		t.Fatalf("empty list: %d %s", w.Code, w.Body.String())
	}

	upload(t, s, "Holiday.png", "image/png", []byte("png-bytes"))
	upload(t, s, "notes.txt", "text/plain", []byte("some notes here"))

	w = s.do(httptest.NewRequest(http.MethodGet, "/files?search=HOLI", nil))

	var files []model.File
	if err := sonic.Unmarshal(w.Body.Bytes(), &files); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if len(files) != 1 || files[0].OriginalName != "Holiday.png" {
		t.Fatalf("search result = %+v", files)
	}

	w = s.do(httptest.NewRequest(http.MethodGet, "/files?sortBy=size&sortOrder=asc&type=TEXT", nil))
	files = nil

	if err := sonic.Unmarshal(w.Body.Bytes(), &files); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if len(files) != 1 || files[0].Type != "text" {
		t.Fatalf("type filter result = %+v", files)
	}
}

// 测试删除的三种结果：缺少 id、记录不存在、删除成功（对象删除失败也算成功）.
func TestDeleteFile(t *testing.T) {
	s := newServer(t, 1)

	w := s.do(httptest.NewRequest(http.MethodDelete, "/files?id=", nil))
	if w.Code != http.StatusBadRequest || decodeError(t, w) != handle.MsgIDRequired {
		t.Fatalf("missing id: %d %s", w.Code, w.Body.String())
	}

	w = s.do(httptest.NewRequest(http.MethodDelete, "/files?id=nope", nil))
	if w.Code != http.StatusNotFound || decodeError(t, w) != handle.MsgNotFound {
		t.Fatalf("unknown id: %d %s", w.Code, w.Body.String())
	}

	f := upload(t, s, "a.txt", "text/plain", []byte("hello"))
	s.blobs.delErr = errors.New("timeout")

	w = s.do(httptest.NewRequest(http.MethodDelete, "/files?id="+f.ID, nil))
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != `{"success":true}` {
		t.Fatalf("delete: %d %s", w.Code, w.Body.String())
	}

	w = s.do(httptest.NewRequest(http.MethodDelete, "/files?id="+f.ID, nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("second delete: %d", w.Code)
	}
}

// 测试按 id 获取单条记录.
func TestGetFile(t *testing.T) {
	s := newServer(t, 1)

	f := upload(t, s, "a.txt", "text/plain", []byte("hello"))

	w := s.do(httptest.NewRequest(http.MethodGet, "/files/"+f.ID, nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), f.ID) {
		t.Fatalf("get: %d %s", w.Code, w.Body.String())
	}

	w = s.do(httptest.NewRequest(http.MethodGet, "/files/missing", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("get missing: %d", w.Code)
	}
}

// 测试未注入存储管理器时健康检查返回 503.
func TestHealthWithoutManager(t *testing.T) {
	s := newServer(t, 1)

	for _, path := range []string{"/health/db", "/health/s3", "/health/mq", "/health/kv"} {
		w := s.do(httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("%s: status = %d", path, w.Code)
		}
	}
}

// 测试 KV 健康检查：写入探测键后返回 ok 和后端类型，其他未初始化的组件仍为 503.
func TestHealthKV(t *testing.T) {
	gin.SetMode(gin.TestMode)

	client, err := kv.New(context.Background(), &configs.KVConfig{Type: configs.KVTypeMemory})
	if err != nil {
		t.Fatalf("kv.New: %v", err)
	}

	cfg := testConfig(1)
	engine := api.NewEngine(&cfg, api.Deps{Manager: &storage.Manager{KV: client}})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/kv", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var st handle.HealthStatus
	if err := sonic.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if st.Component != "kv" || st.Status != "ok" || st.Type != string(configs.KVTypeMemory) {
		t.Errorf("status = %+v", st)
	}

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/db", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("/health/db status = %d", w.Code)
	}
}
