package service

import (
	"context"
	"fmt"
	"time"

	"github.com/yeisme/filedeck/pkg/internal/types"
	nlog "github.com/yeisme/filedeck/pkg/log"
	"github.com/yeisme/filedeck/pkg/metrics"
	"github.com/yeisme/filedeck/pkg/tracing"
)

// 孤儿对象清理来源标签.
const (
	OrphanSourceSweep = "sweep"
	OrphanSourceEvent = "event"

	maxSweepSamples = 20
)

// SweepOrphans 删除早于 grace 且没有任何记录引用的对象.
// 宽限期用于跳过正在上传、元数据尚未写入的对象.
//
// 引用关系按对象键比较. 只要有一条记录的地址无法还原为对象键，就无法判断哪些对象仍被引用，
// 此时不删除任何对象并返回 ErrSweepUnsafe.
func (s *FileService) SweepOrphans(ctx context.Context, grace time.Duration, dryRun bool) (types.SweepResult, error) {
	ctx, span := tracing.StartSpan(ctx, "service.SweepOrphans")
	defer span.End()

	start := s.now()
	res := types.SweepResult{DryRun: dryRun, Samples: []string{}}
	l := nlog.Ctx(ctx).With().Str("op", "sweep").Logger()

	blobs, err := s.blobs.ListBlobs(ctx, start.Add(-grace))
	if err != nil {
		return res, fmt.Errorf("%w: list blobs: %w", ErrStorage, err)
	}

	res.Scanned = len(blobs)

	referenced, err := s.referencedKeys(ctx, &res)
	if err != nil {
		return res, err
	}

	candidates := make([]types.BlobObject, 0)

	for _, b := range blobs {
		if _, ok := referenced[b.Key]; ok {
			continue
		}

		res.Orphans++

		if len(res.Samples) < maxSweepSamples {
			res.Samples = append(res.Samples, b.Key)
		}

		candidates = append(candidates, b)
	}

	if !dryRun && len(candidates) > 0 {
		// 列出之后可能刚被引用，删除前再取一次引用集合
		again, err := s.referencedKeys(ctx, &res)
		if err != nil {
			return res, err
		}

		for _, b := range candidates {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}

			if _, ok := again[b.Key]; ok {
				continue
			}

			if err := s.blobs.Delete(ctx, b.URL); err != nil {
				res.Failed++

				l.Warn().Err(err).Str("key", b.Key).Msg("orphan delete failed")

				continue
			}

			res.Removed++

			metrics.OrphansRemoved.WithLabelValues(OrphanSourceSweep).Inc()
		}
	}

	res.Duration = s.now().Sub(start).String()

	l.Info().
		Int("scanned", res.Scanned).
		Int("orphans", res.Orphans).
		Int("removed", res.Removed).
		Int("failed", res.Failed).
		Bool("dry_run", dryRun).
		Msg("orphan sweep finished")

	return res, nil
}

// referencedKeys 返回所有记录引用的对象键，有无法还原的地址时返回 ErrSweepUnsafe.
func (s *FileService) referencedKeys(ctx context.Context, res *types.SweepResult) (map[string]struct{}, error) {
	urls, err := s.meta.BlobURLs(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list referenced blobs: %w", ErrPersistence, err)
	}

	keys := make(map[string]struct{}, len(urls))
	unresolved := 0

	var sample string

	for _, u := range urls {
		key, err := s.blobs.ObjectKey(u)
		if err != nil {
			unresolved++

			if sample == "" {
				sample = u
			}

			continue
		}

		keys[key] = struct{}{}
	}

	if unresolved > 0 {
		res.Unresolved = unresolved

		nlog.Ctx(ctx).Error().
			Int("unresolved", unresolved).
			Str("sample_url", sample).
			Msg("record blob urls do not resolve to object keys, sweep aborted")

		return nil, fmt.Errorf("%w: %d record(s), e.g. %s", ErrSweepUnsafe, unresolved, sample)
	}

	return keys, nil
}

// RetryOrphan 重试删除一个孤儿对象，对象仍被引用时不做任何事.
func (s *FileService) RetryOrphan(ctx context.Context, url string) error {
	ctx, span := tracing.StartSpan(ctx, "service.RetryOrphan")
	defer span.End()

	if url == "" {
		return fmt.Errorf("%w: blob url is required", ErrValidation)
	}

	ref, err := s.meta.ReferencesBlob(ctx, url)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	if ref {
		nlog.Ctx(ctx).Debug().Str("blob_url", url).Msg("blob still referenced, skip")
		return nil
	}

	if err := s.blobs.Delete(ctx, url); err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}

	metrics.OrphansRemoved.WithLabelValues(OrphanSourceEvent).Inc()
	nlog.Ctx(ctx).Info().Str("blob_url", url).Msg("orphan blob removed")

	return nil
}
