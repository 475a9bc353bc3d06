package service

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	nlog "github.com/yeisme/filedeck/pkg/log"
	"github.com/yeisme/filedeck/pkg/metrics"
	"github.com/yeisme/filedeck/pkg/queue"
	"github.com/yeisme/filedeck/pkg/tracing"
)

// Delete 删除文件：查找 → 删除元数据 → 尽力删除对象.
//
// 不存在时返回 ErrNotFound 且没有任何副作用. 元数据删除后对象删除失败只记录日志并发布
// blob.orphaned，整体仍然成功.
func (s *FileService) Delete(ctx context.Context, id string) error {
	ctx, span := tracing.StartSpan(ctx, "service.Delete")
	defer span.End()

	span.SetAttributes(attribute.String("file.id", id))

	if id == "" {
		return fmt.Errorf("%w: file id is required", ErrValidation)
	}

	l := nlog.Ctx(ctx).With().Str("id", id).Logger()

	f, err := s.meta.FindUnique(ctx, id)
	if err != nil {
		if s.isNotFound(err) {
			return ErrNotFound
		}

		span.RecordError(err)

		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	if err := s.meta.Delete(ctx, id); err != nil {
		// 另一个删除先完成
		if s.isNotFound(err) {
			return ErrNotFound
		}

		span.RecordError(err)
		l.Error().Err(err).Msg("metadata delete failed")

		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	s.cache.Invalidate(ctx)

	blobDeleted := true

	if err := s.deleteBlob(ctx, f.BlobURL); err != nil {
		blobDeleted = false

		metrics.BlobDeleteFailures.Inc()
		l.Warn().Err(err).Str("blob_url", f.BlobURL).Msg("blob delete failed, blob orphaned")

		s.publishOrphan(ctx, queue.BlobOrphanedPayload{
			BlobURL: f.BlobURL,
			Cause:   queue.OrphanCauseDeleteFailed,
			FileID:  f.ID,
			Error:   err.Error(),
		})
	}

	if err := s.events.FileDeleted(ctx, queue.FileDeletedPayload{File: fileRef(f), BlobDeleted: blobDeleted}); err != nil {
		l.Warn().Err(err).Msg("publish file.deleted failed")
	}

	l.Info().Bool("blob_deleted", blobDeleted).Msg("file deleted")

	return nil
}

func (s *FileService) deleteBlob(ctx context.Context, url string) error {
	ctx, span := tracing.StartSpan(ctx, "service.Delete.blob")
	defer span.End()

	if err := s.blobs.Delete(ctx, url); err != nil {
		span.RecordError(err)
		return err
	}

	return nil
}
