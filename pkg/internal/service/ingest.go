package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/datatypes"

	"github.com/yeisme/filedeck/pkg/internal/compress"
	"github.com/yeisme/filedeck/pkg/internal/model"
	"github.com/yeisme/filedeck/pkg/internal/types"
	nlog "github.com/yeisme/filedeck/pkg/log"
	"github.com/yeisme/filedeck/pkg/metrics"
	"github.com/yeisme/filedeck/pkg/queue"
	"github.com/yeisme/filedeck/pkg/tracing"
)

// Ingest 上传一个文件：压缩（仅图片，失败不影响上传）→ 写入对象存储 → 写入元数据.
//
// 对象存储写入失败返回 ErrStorage 且不会写入元数据；元数据写入失败返回 ErrPersistence，
// 已写入的对象成为孤儿对象. 上传与写入都只尝试一次.
// 空文件（0 字节）是合法输入，"没有文件"由调用方在读取请求时判断.
func (s *FileService) Ingest(ctx context.Context, in types.IngestInput) (*model.File, error) {
	ctx, span := tracing.StartSpan(ctx, "service.Ingest")
	defer span.End()

	l := nlog.Ctx(ctx).With().Str("filename", in.Filename).Logger()

	mimeType := in.DeclaredMIME
	if strings.TrimSpace(mimeType) == "" {
		mimeType = mimetype.Detect(in.Data).String()
	}

	originalSize := int64(len(in.Data))
	span.SetAttributes(
		attribute.String("file.mime_type", mimeType),
		attribute.Int64("file.size", originalSize),
	)

	payload := in.Data
	compressed := false

	if IsImage(mimeType) {
		res := s.compress(ctx, in.Data)
		payload = res.Data
		compressed = res.Compressed()
	}

	blobURL, err := s.putBlob(ctx, in.Filename, payload, mimeType)
	if err != nil {
		metrics.IngestTotal.WithLabelValues(metrics.ResultStorageError).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "blob put failed")
		l.Error().Err(err).Msg("blob upload failed")

		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	record := &model.File{
		ID:           s.newID(),
		Name:         DisplayName(in.Filename),
		OriginalName: in.Filename,
		Size:         originalSize,
		Type:         CoarseType(mimeType),
		MimeType:     mimeType,
		BlobURL:      blobURL,
		UploadedAt:   s.now(),
		Folder:       normalizeFolder(in.Folder),
		Tags:         datatypes.JSONSlice[string]{},
	}

	if err := s.persist(ctx, record); err != nil {
		metrics.IngestTotal.WithLabelValues(metrics.ResultPersistenceError).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		l.Error().Err(err).Str("blob_url", blobURL).Msg("metadata persist failed, blob orphaned")

		s.publishOrphan(ctx, queue.BlobOrphanedPayload{
			BlobURL: blobURL,
			Cause:   queue.OrphanCausePersistFailed,
			FileID:  record.ID,
			Error:   err.Error(),
		})

		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	metrics.IngestTotal.WithLabelValues(metrics.ResultOK).Inc()
	metrics.IngestBytes.Add(float64(originalSize))
	s.cache.Invalidate(ctx)

	if err := s.events.FileStored(ctx, queue.FileStoredPayload{
		File:       fileRef(record),
		StoredSize: int64(len(payload)),
		Compressed: compressed,
	}); err != nil {
		l.Warn().Err(err).Msg("publish file.stored failed")
	}

	l.Info().
		Str("id", record.ID).
		Int64("size", record.Size).
		Int("stored_size", len(payload)).
		Bool("compressed", compressed).
		Msg("file ingested")

	return record, nil
}

// compress 压缩图片，失败只记录日志.
func (s *FileService) compress(ctx context.Context, data []byte) compress.Result {
	ctx, span := tracing.StartSpan(ctx, "service.Ingest.compress")
	defer span.End()

	res := compress.Apply(ctx, s.compressor, data)
	metrics.CompressionTotal.WithLabelValues(string(res.Outcome)).Inc()

	if res.Compressed() {
		metrics.CompressionSavedBytes.Add(float64(len(data) - len(res.Data)))
		span.SetAttributes(attribute.Int("compress.output_size", len(res.Data)))

		return res
	}

	if res.Reason != nil && !errors.Is(res.Reason, compress.ErrDisabled) {
		span.RecordError(res.Reason)
		nlog.Ctx(ctx).Warn().Err(res.Reason).Msg("compression skipped, storing original")
	}

	return res
}

func (s *FileService) putBlob(ctx context.Context, filename string, data []byte, contentType string) (string, error) {
	ctx, span := tracing.StartSpan(ctx, "service.Ingest.put")
	defer span.End()

	return s.blobs.Put(ctx, filename, data, contentType)
}

func (s *FileService) persist(ctx context.Context, f *model.File) error {
	ctx, span := tracing.StartSpan(ctx, "service.Ingest.persist")
	defer span.End()

	return s.meta.Create(ctx, f)
}

// IsImage MIME 类型是否以 image/ 开头（大小写不敏感）.
func IsImage(mimeType string) bool {
	return strings.HasPrefix(strings.ToLower(mimeType), "image/")
}

// CoarseType 返回 MIME 类型第一个 "/" 之前的部分，没有 "/" 时返回整个值.
func CoarseType(mimeType string) string {
	mt, _, _ := strings.Cut(mimeType, ";")
	coarse, _, _ := strings.Cut(strings.TrimSpace(mt), "/")

	return coarse
}

// DisplayName 去掉文件名最后一个扩展名.
// 没有扩展名或以点开头且只有一个点（.env）时原样返回.
func DisplayName(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	ext := path.Ext(base)

	if ext == "" || ext == base || ext == "." {
		return filename
	}

	return strings.TrimSuffix(filename, ext)
}

func normalizeFolder(folder *string) *string {
	if folder == nil {
		return nil
	}

	f := strings.TrimSpace(*folder)
	if f == "" {
		return nil
	}

	return &f
}

func fileRef(f *model.File) queue.FileRef {
	return queue.FileRef{
		ID:           f.ID,
		OriginalName: f.OriginalName,
		MimeType:     f.MimeType,
		Size:         f.Size,
		BlobURL:      f.BlobURL,
		Folder:       f.Folder,
	}
}
