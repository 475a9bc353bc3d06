package service

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/trace"

	"github.com/yeisme/filedeck/pkg/configs"
	nlog "github.com/yeisme/filedeck/pkg/log"
	"github.com/yeisme/filedeck/pkg/queue"
)

// EventPublisher 发布文件领域事件，发布失败不影响主流程.
type EventPublisher interface {
	FileStored(ctx context.Context, p queue.FileStoredPayload) error
	FileDeleted(ctx context.Context, p queue.FileDeletedPayload) error
	BlobOrphaned(ctx context.Context, p queue.BlobOrphanedPayload) error
}

// NoopPublisher 不发布任何事件.
type NoopPublisher struct{}

func (NoopPublisher) FileStored(context.Context, queue.FileStoredPayload) error     { return nil }
func (NoopPublisher) FileDeleted(context.Context, queue.FileDeletedPayload) error   { return nil }
func (NoopPublisher) BlobOrphaned(context.Context, queue.BlobOrphanedPayload) error { return nil }

// MQPublisher 通过 watermill Publisher 发布事件，按配置开关过滤主题.
type MQPublisher struct {
	pub message.Publisher
	cfg configs.FileEventsConfig
}

// NewEventPublisher 事件总开关关闭或没有 Publisher 时返回 NoopPublisher.
func NewEventPublisher(pub message.Publisher, cfg configs.EventsConfig) EventPublisher { //nolint:ireturn
	if !cfg.Enabled || pub == nil {
		return NoopPublisher{}
	}

	return &MQPublisher{pub: pub, cfg: cfg.File}
}

// FileStored 发布 fd.file.stored.
func (p *MQPublisher) FileStored(ctx context.Context, payload queue.FileStoredPayload) error {
	if !p.cfg.Stored {
		return nil
	}

	return queue.PublishFileStored(p.pub, payload, headerOpts(ctx)...)
}

// FileDeleted 发布 fd.file.deleted.
func (p *MQPublisher) FileDeleted(ctx context.Context, payload queue.FileDeletedPayload) error {
	if !p.cfg.Deleted {
		return nil
	}

	return queue.PublishFileDeleted(p.pub, payload, headerOpts(ctx)...)
}

// BlobOrphaned 发布 fd.blob.orphaned.
func (p *MQPublisher) BlobOrphaned(ctx context.Context, payload queue.BlobOrphanedPayload) error {
	if !p.cfg.Orphaned {
		return nil
	}

	return queue.PublishBlobOrphaned(p.pub, payload, headerOpts(ctx)...)
}

func headerOpts(ctx context.Context) []queue.HeaderOption {
	opts := []queue.HeaderOption{queue.WithProducer("filedeck")}

	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		opts = append(opts, queue.WithTraceID(sc.TraceID().String()))
	}

	return opts
}

func (s *FileService) publishOrphan(ctx context.Context, p queue.BlobOrphanedPayload) {
	if err := s.events.BlobOrphaned(ctx, p); err != nil {
		nlog.Ctx(ctx).Warn().Err(err).Str("blob_url", p.BlobURL).Msg("publish blob.orphaned failed")
	}
}
