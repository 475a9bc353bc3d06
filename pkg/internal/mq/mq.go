// Package mq 注册本进程内的事件消费者.
//
// 目前只有一个处理器：消费 fd.blob.orphaned，重试删除失去引用的对象. 失败返回错误交由
// 路由的重试中间件处理，无法恢复的错误（URL 不属于本存储、缺少 URL、消息格式错误）直接确认丢弃.
package mq

import (
	"context"
	"errors"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/yeisme/filedeck/pkg/configs"
	"github.com/yeisme/filedeck/pkg/internal/service"
	s3c "github.com/yeisme/filedeck/pkg/internal/storage/s3"
	nlog "github.com/yeisme/filedeck/pkg/log"
	"github.com/yeisme/filedeck/pkg/queue"
)

// HandlerOrphanRetry 处理器名称.
const HandlerOrphanRetry = "blob.orphan_retry"

// OrphanRetrier 重试删除孤儿对象.
type OrphanRetrier interface {
	RetryOrphan(ctx context.Context, url string) error
}

// Router 可以注册只消费的处理器.
type Router interface {
	AddHandler(name, topic string, fn message.NoPublishHandlerFunc)
}

// RegisterConsumers 按配置注册消费者，返回注册的处理器数量.
func RegisterConsumers(r Router, svc OrphanRetrier, cfg configs.EventsConfig) int {
	if !cfg.Enabled || !cfg.File.Orphaned || !cfg.ConsumeOrphans {
		return 0
	}

	r.AddHandler(HandlerOrphanRetry, queue.TopicBlobOrphaned, OrphanHandler(svc))

	return 1
}

// OrphanHandler 返回 fd.blob.orphaned 的处理函数.
func OrphanHandler(svc OrphanRetrier) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		ctx := msg.Context()
		l := nlog.Ctx(ctx).With().Str("handler", HandlerOrphanRetry).Str("uuid", msg.UUID).Logger()

		env, err := queue.ParseBlobOrphaned(msg)
		if err != nil {
			l.Warn().Err(err).Msg("drop malformed message")
			return nil
		}

		p := env.Payload

		err = svc.RetryOrphan(ctx, p.BlobURL)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, service.ErrValidation), errors.Is(err, s3c.ErrForeignURL):
			l.Warn().Err(err).Str("blob_url", p.BlobURL).Msg("drop unrecoverable orphan")
			return nil
		default:
			l.Warn().Err(err).Str("blob_url", p.BlobURL).Str("cause", p.Cause).Msg("orphan retry failed")
			return err
		}
	}
}
