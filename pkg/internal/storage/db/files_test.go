package db_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/datatypes"

	"github.com/yeisme/filedeck/pkg/configs"
	"github.com/yeisme/filedeck/pkg/internal/model"
	"github.com/yeisme/filedeck/pkg/internal/storage/db"
	"github.com/yeisme/filedeck/pkg/internal/types"
)

// newStore 在内存 SQLite 上创建 FileStore，单连接保证所有语句落在同一个内存库.
func newStore(t *testing.T) *db.FileStore {
	t.Helper()

	cfg := &configs.DBConfig{MaxOpenConns: 1, MaxIdleConns: 1, AutoMigrate: true}

	client, err := db.Open(context.Background(), sqlite.Open(":memory:"), cfg)
	if err != nil {
		t.Fatalf("Failed to open sqlite: %v", err)
	}

	t.Cleanup(func() { _ = client.Close() })

	return client.Files()
}

func seed(t *testing.T, s *db.FileStore, id, original, mime string, size int64, at time.Time) {
	t.Helper()

	f := &model.File{
		ID:           id,
		Name:         original,
		OriginalName: original,
		Size:         size,
		Type:         mime[:indexSlash(mime)],
		MimeType:     mime,
		BlobURL:      "http://blob/" + id,
		UploadedAt:   at,
		Tags:         datatypes.JSONSlice[string]{},
	}
	if err := s.Create(context.Background(), f); err != nil {
		t.Fatalf("Failed to seed %s: %v", id, err)
	}
}

func indexSlash(s string) int {
	for i := range s {
		if s[i] == '/' {
			return i
		}
	}

	return len(s)
}

func ids(files []model.File) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.ID)
	}

	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

// TestFindManyDefaultOrder 空条件返回全部记录，按上传时间倒序.
func TestFindManyDefaultOrder(t *testing.T) {
	s := newStore(t)
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	seed(t, s, "a", "a.txt", "text/plain", 1, base)
	seed(t, s, "b", "b.txt", "text/plain", 2, base.Add(time.Minute))
	seed(t, s, "c", "c.txt", "text/plain", 3, base.Add(2*time.Minute))

	got, err := s.FindMany(context.Background(), types.ListFilter{})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !equal(ids(got), []string{"c", "b", "a"}) {
		t.Errorf("Expected [c b a], got %v", ids(got))
	}
}

// TestFindManySearch 搜索对 name 与 originalName 的子串匹配不区分大小写.
func TestFindManySearch(t *testing.T) {
	s := newStore(t)
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	seed(t, s, "inv", "Invoice2024.pdf", "application/pdf", 10, now)
	seed(t, s, "pic", "holiday.png", "image/png", 20, now.Add(time.Second))

	for _, term := range []string{"invoice", "2024", "INVOICE", "e2024.P"} {
		got, err := s.FindMany(context.Background(), types.ListFilter{Search: term})
		if err != nil {
			t.Fatalf("search %q: %v", term, err)
		}

		if !equal(ids(got), []string{"inv"}) {
			t.Errorf("search %q: expected [inv], got %v", term, ids(got))
		}
	}
}

// TestFindManySearchUnicode 非 ASCII 字符同样不区分大小写，不依赖方言的 LOWER.
func TestFindManySearchUnicode(t *testing.T) {
	s := newStore(t)
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	seed(t, s, "de", "ÄRGER.pdf", "application/pdf", 10, now)
	seed(t, s, "ru", "Привет.txt", "text/plain", 20, now.Add(time.Second))
	seed(t, s, "en", "anger.txt", "text/plain", 30, now.Add(2*time.Second))

	cases := map[string][]string{
		"ärger":  {"de"},
		"ÄrGeR":  {"de"},
		"привет": {"ru"},
		"ПРИВЕТ": {"ru"},
	}

	for term, want := range cases {
		got, err := s.FindMany(context.Background(), types.ListFilter{Search: term})
		if err != nil {
			t.Fatalf("search %q: %v", term, err)
		}

		if !equal(ids(got), want) {
			t.Errorf("search %q: expected %v, got %v", term, want, ids(got))
		}
	}
}

// TestMigrateBackfillsFolds 迁移为缺少折叠值的旧记录补齐，旧记录随后可以被搜索到.
func TestMigrateBackfillsFolds(t *testing.T) {
	ctx := context.Background()

	client, err := db.Open(ctx, sqlite.Open(":memory:"), &configs.DBConfig{MaxOpenConns: 1, MaxIdleConns: 1, AutoMigrate: true})
	if err != nil {
		t.Fatalf("Failed to open sqlite: %v", err)
	}

	t.Cleanup(func() { _ = client.Close() })

	s := client.Files()
	seed(t, s, "old", "ÜBER.txt", "text/plain", 1, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))

	err = client.DB.Model(&model.File{}).Where("id = ?", "old").UpdateColumns(map[string]any{
		"name_fold": "", "original_name_fold": "", "type_fold": "",
	}).Error
	if err != nil {
		t.Fatalf("Failed to clear folds: %v", err)
	}

	if got, _ := s.FindMany(ctx, types.ListFilter{Search: "über"}); len(got) != 0 {
		t.Fatalf("Expected no match before backfill, got %v", ids(got))
	}

	if err := client.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	got, err := s.FindMany(ctx, types.ListFilter{Search: "über", Type: "TEXT"})
	if err != nil {
		t.Fatalf("search after backfill: %v", err)
	}

	if !equal(ids(got), []string{"old"}) {
		t.Errorf("Expected [old], got %v", ids(got))
	}
}

// TestFindManyWildcardLiteral 用户输入的 % 和 _ 不作为通配符.
func TestFindManyWildcardLiteral(t *testing.T) {
	s := newStore(t)
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	seed(t, s, "plain", "report.txt", "text/plain", 1, now)
	seed(t, s, "under", "my_report.txt", "text/plain", 1, now.Add(time.Second))
	seed(t, s, "pct", "100%.txt", "text/plain", 1, now.Add(2*time.Second))

	got, err := s.FindMany(context.Background(), types.ListFilter{Search: "_"})
	if err != nil {
		t.Fatal(err)
	}

	if !equal(ids(got), []string{"under"}) {
		t.Errorf("Expected only [under] for '_', got %v", ids(got))
	}

	got, err = s.FindMany(context.Background(), types.ListFilter{Search: "%"})
	if err != nil {
		t.Fatal(err)
	}

	if !equal(ids(got), []string{"pct"}) {
		t.Errorf("Expected only [pct] for '%%', got %v", ids(got))
	}
}

// TestFindManyTypeAndSort 类型过滤为子串匹配，并与搜索条件取交集.
func TestFindManyTypeAndSort(t *testing.T) {
	s := newStore(t)
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	seed(t, s, "s300", "big.png", "image/png", 300, now)
	seed(t, s, "s100", "small.png", "image/png", 100, now.Add(time.Second))
	seed(t, s, "s200", "mid.jpg", "image/jpeg", 200, now.Add(2*time.Second))
	seed(t, s, "doc", "notes.txt", "text/plain", 50, now.Add(3*time.Second))

	got, err := s.FindMany(context.Background(), types.ListFilter{Type: "IMA", SortBy: types.SortSize, Order: types.SortAsc})
	if err != nil {
		t.Fatal(err)
	}

	if !equal(ids(got), []string{"s100", "s200", "s300"}) {
		t.Errorf("Expected [s100 s200 s300], got %v", ids(got))
	}

	got, err = s.FindMany(context.Background(), types.ListFilter{Type: "image", Search: "png"})
	if err != nil {
		t.Fatal(err)
	}

	if !equal(ids(got), []string{"s100", "s300"}) {
		t.Errorf("Expected [s100 s300], got %v", ids(got))
	}

	got, err = s.FindMany(context.Background(), types.ListFilter{Search: "nothing-matches"})
	if err != nil {
		t.Fatal(err)
	}

	if got == nil || len(got) != 0 {
		t.Errorf("Expected empty non-nil slice, got %#v", got)
	}
}

// TestFindUniqueAndDelete 查找与删除不存在的 ID 返回 ErrNotFound.
func TestFindUniqueAndDelete(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	seed(t, s, "x", "x.bin", "application/octet-stream", 5, time.Now().UTC())

	f, err := s.FindUnique(ctx, "x")
	if err != nil {
		t.Fatalf("Expected record, got %v", err)
	}

	if f.Tags == nil || len(f.Tags) != 0 {
		t.Errorf("Expected empty tags, got %#v", f.Tags)
	}

	if err := s.Delete(ctx, "x"); err != nil {
		t.Fatalf("Expected delete to succeed, got %v", err)
	}

	if _, err := s.FindUnique(ctx, "x"); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}

	if err := s.Delete(ctx, "x"); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
}

// TestBlobReferences BlobURLs 与 ReferencesBlob 反映当前记录.
func TestBlobReferences(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	seed(t, s, "k", "k.txt", "text/plain", 1, time.Now().UTC())

	urls, err := s.BlobURLs(ctx)
	if err != nil || !equal(urls, []string{"http://blob/k"}) {
		t.Fatalf("Unexpected urls %v err %v", urls, err)
	}

	ok, err := s.ReferencesBlob(ctx, "http://blob/k")
	if err != nil || !ok {
		t.Errorf("Expected reference, got %v %v", ok, err)
	}

	ok, err = s.ReferencesBlob(ctx, "http://blob/none")
	if err != nil || ok {
		t.Errorf("Expected no reference, got %v %v", ok, err)
	}
}

// TestSortColumnFallback 未知排序字段回落到 uploaded_at.
func TestSortColumnFallback(t *testing.T) {
	if got := db.SortColumn("name; DROP TABLE files"); got != "uploaded_at" {
		t.Errorf("Expected uploaded_at, got %s", got)
	}

	if got := db.SortColumn(types.SortOriginalName); got != "original_name" {
		t.Errorf("Expected original_name, got %s", got)
	}
}
