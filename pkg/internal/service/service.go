// Package service 实现文件的上传、查询与删除流程.
//
// 对象存储与元数据存储之间没有事务，可接受的不一致只有一种：孤儿对象.
//   - 上传成功但写入元数据失败（或在此期间被取消）会留下孤儿对象
//   - 删除元数据成功但删除对象失败会留下孤儿对象
//
// 元数据行永远不会指向一个尚未写入成功的对象. 两类孤儿对象都会发布 blob.orphaned 事件，
// 并由 SweepOrphans 定期清理.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yeisme/filedeck/pkg/internal/compress"
	"github.com/yeisme/filedeck/pkg/internal/model"
	"github.com/yeisme/filedeck/pkg/internal/types"
)

// BlobStore 对象存储.
type BlobStore interface {
	// Put 写入对象并返回可公开访问的 URL.
	Put(ctx context.Context, filename string, data []byte, contentType string) (string, error)
	// Delete 按 URL 删除对象.
	Delete(ctx context.Context, url string) error
	// ListBlobs 列出最后修改时间早于 before 的对象.
	ListBlobs(ctx context.Context, before time.Time) ([]types.BlobObject, error)
	// ObjectKey 将 Put 返回的 URL 还原为对象键.
	ObjectKey(url string) (string, error)
}

// MetadataStore 文件元数据存储.
type MetadataStore interface {
	Create(ctx context.Context, f *model.File) error
	FindMany(ctx context.Context, filter types.ListFilter) ([]model.File, error)
	FindUnique(ctx context.Context, id string) (*model.File, error)
	Delete(ctx context.Context, id string) error
	// BlobURLs 返回所有记录引用的对象 URL
	BlobURLs(ctx context.Context) ([]string, error)
	ReferencesBlob(ctx context.Context, url string) (bool, error)
}

// FileService 文件服务.
type FileService struct {
	blobs      BlobStore
	meta       MetadataStore
	compressor compress.Compressor
	events     EventPublisher
	cache      ListCache
	isNotFound func(error) bool

	now   func() time.Time
	newID func() string
}

// Options 构建 FileService 所需的依赖，Events、Cache、Now、NewID 可以为空.
type Options struct {
	Blobs      BlobStore
	Meta       MetadataStore
	Compressor compress.Compressor
	Events     EventPublisher
	Cache      ListCache
	// IsNotFound 判断 MetadataStore 返回的错误是否表示记录不存在
	IsNotFound func(error) bool
	Now        func() time.Time
	NewID      func() string
}

// New 创建文件服务.
func New(opts Options) *FileService {
	s := &FileService{
		blobs:      opts.Blobs,
		meta:       opts.Meta,
		compressor: opts.Compressor,
		events:     opts.Events,
		cache:      opts.Cache,
		isNotFound: opts.IsNotFound,
		now:        opts.Now,
		newID:      opts.NewID,
	}

	if s.compressor == nil {
		s.compressor = compress.Disabled{}
	}

	if s.events == nil {
		s.events = NoopPublisher{}
	}

	if s.cache == nil {
		s.cache = noCache{}
	}

	if s.isNotFound == nil {
		s.isNotFound = func(error) bool { return false }
	}

	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}

	if s.newID == nil {
		s.newID = uuid.NewString
	}

	return s
}
