// Package mq 提供基于 Watermill 的消息队列封装，通过工厂注册表支持不同实现：
//   - memory：进程内 gochannel（默认）
//   - nats：NATS / JetStream
//   - redis：Redis Pub/Sub
//
// Client 同时持有 Publisher、Subscriber 与一个 message.Router，消费者通过 AddHandler 注册后调用 Run.
package mq

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	watermill "github.com/ThreeDotsLabs/watermill"
	wmetrics "github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/yeisme/filedeck/pkg/configs"
	nlog "github.com/yeisme/filedeck/pkg/log"
	"github.com/yeisme/filedeck/pkg/metrics"
)

// Factory 定义创建 Publisher + Subscriber 的工厂函数.
type Factory func(ctx context.Context, cfg *configs.MQConfig, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error)

var factories = map[configs.MQType]Factory{}

// RegisterFactory 注册指定 MQType 的工厂.
func RegisterFactory(t configs.MQType, f Factory) {
	factories[t] = f
}

// GetRegisteredTypes 返回已注册的 MQ 类型（按名称排序）.
func GetRegisteredTypes() []configs.MQType {
	out := make([]configs.MQType, 0, len(factories))
	for t := range factories {
		out = append(out, t)
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}

// Client 封装 watermill Publisher、Subscriber 与 Router.
type Client struct {
	typ        configs.MQType
	publisher  message.Publisher
	subscriber message.Subscriber
	router     *message.Router
	logger     watermill.LoggerAdapter

	mu       sync.Mutex
	handlers int
	running  bool
}

// New 按配置初始化消息队列.
func New(ctx context.Context, cfg *configs.MQConfig, metricsCfg *configs.MetricsConfig) (*Client, error) {
	factory, ok := factories[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported mq type: %s", cfg.Type)
	}

	logger := NewLogger(nlog.Logger())

	pub, sub, err := factory(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init mq (%s): %w", cfg.Type, err)
	}

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: 10 * time.Second}, logger)
	if err != nil {
		return nil, fmt.Errorf("create router: %w", err)
	}

	router.AddMiddleware(
		middleware.Recoverer,
		middleware.Retry{
			MaxRetries:      cfg.Common.MaxRetries,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     30 * time.Second,
			Multiplier:      2,
			Logger:          logger,
		}.Middleware,
	)

	if metricsCfg != nil && metricsCfg.Enabled {
		builder := wmetrics.NewPrometheusMetricsBuilder(metrics.GetRegistry(), "filedeck", "mq")
		builder.AddPrometheusRouterMetrics(router)

		if pub, err = builder.DecoratePublisher(pub); err != nil {
			return nil, fmt.Errorf("decorate publisher with metrics: %w", err)
		}

		if sub, err = builder.DecorateSubscriber(sub); err != nil {
			return nil, fmt.Errorf("decorate subscriber with metrics: %w", err)
		}
	}

	nlog.Logger().Info().Str("type", string(cfg.Type)).Msg("mq initialized")

	return &Client{typ: cfg.Type, publisher: pub, subscriber: sub, router: router, logger: logger}, nil
}

// Type 返回 MQ 类型.
func (c *Client) Type() configs.MQType {
	return c.typ
}

// Publisher 返回底层 Publisher.
func (c *Client) Publisher() message.Publisher { //nolint:ireturn
	return c.publisher
}

// Publish 便捷发布.
func (c *Client) Publish(_ context.Context, topic string, msgs ...*message.Message) error {
	if c == nil || c.publisher == nil {
		return errors.New("mq publisher not initialized")
	}

	return c.publisher.Publish(topic, msgs...)
}

// Subscribe 便捷订阅.
func (c *Client) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	if c == nil || c.subscriber == nil {
		return nil, errors.New("mq subscriber not initialized")
	}

	return c.subscriber.Subscribe(ctx, topic)
}

// AddHandler 在路由上注册一个只消费不转发的处理器，必须在 Run 之前调用.
func (c *Client) AddHandler(name, topic string, fn message.NoPublishHandlerFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.router.AddNoPublisherHandler(name, topic, c.subscriber, fn)
	c.handlers++
}

// Run 在后台启动路由，没有处理器时不启动.
func (c *Client) Run(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running || c.handlers == 0 {
		return
	}

	c.running = true

	go func() {
		if err := c.router.Run(ctx); err != nil {
			nlog.Logger().Error().Err(err).Msg("mq router stopped")
		}
	}()
}

// Running 等待路由启动完成.
func (c *Client) Running() <-chan struct{} {
	return c.router.Running()
}

// Close 关闭资源.
func (c *Client) Close() error {
	var errs []error

	if c.router != nil {
		if err := c.router.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if c.publisher != nil {
		if err := c.publisher.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if c.subscriber != nil && any(c.subscriber) != any(c.publisher) {
		if err := c.subscriber.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
