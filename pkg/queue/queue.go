// Package queue 定义文件事件的消息封装，基于 watermill 发布与订阅.
//
// 消息信封 JSON 结构：
//
//	{
//	  "header": {
//	    "topic": "fd.file.stored",
//	    "trace_id": "optional-trace-id",
//	    "producer": "filedeck",
//	    "occurred_at": "2025-01-02T03:04:05.123456Z",
//	    "version": "v1"
//	  },
//	  "payload": { ... 取决于具体主题 ... }
//	}
//
// 发布示例：
//
//	err := queue.PublishBlobOrphaned(pub, queue.BlobOrphanedPayload{
//	  BlobURL: url,
//	  Cause:   queue.OrphanCauseDeleteFailed,
//	}, queue.WithProducer("filedeck"))
//
// 主题见 topics.go，负载结构体见 payloads.go.
package queue

import (
	"errors"
	"fmt"
	"time"

	watermill "github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bytedance/sonic"
)

// PayloadVersionV1 当前负载版本.
const PayloadVersionV1 = "v1"

// watermill 消息元数据键，与信封头部字段一一对应.
const (
	MetaTopic      = "topic"
	MetaTraceID    = "trace_id"
	MetaProducer   = "producer"
	MetaOccurredAt = "occurred_at"
	MetaVersion    = "version"
)

// ErrUnsupportedVersion 信封版本无法识别.
var ErrUnsupportedVersion = errors.New("unsupported payload version")

// HeaderOption 修改事件头.
type HeaderOption func(*EventHeader)

// WithTraceID 设置 TraceID.
func WithTraceID(id string) HeaderOption { return func(h *EventHeader) { h.TraceID = id } }

// WithProducer 设置 Producer.
func WithProducer(p string) HeaderOption { return func(h *EventHeader) { h.Producer = p } }

// NewEventHeader 创建事件头，时间取 UTC.
func NewEventHeader(topic string, opts ...HeaderOption) EventHeader {
	h := EventHeader{Topic: topic, OccurredAt: time.Now().UTC(), Version: PayloadVersionV1}
	for _, opt := range opts {
		opt(&h)
	}

	return h
}

// Encode 序列化信封.
func Encode[T any](msg Message[T]) ([]byte, error) { return sonic.Marshal(msg) }

// Decode 反序列化信封，空版本按 v1 处理，其他版本报错.
func Decode[T any](b []byte) (Message[T], error) {
	var m Message[T]
	if err := sonic.Unmarshal(b, &m); err != nil {
		return m, fmt.Errorf("decode envelope: %w", err)
	}

	if v := m.Header.Version; v != "" && v != PayloadVersionV1 {
		return m, fmt.Errorf("%w: %s", ErrUnsupportedVersion, v)
	}

	return m, nil
}

// NewWatermillMessage 构造 watermill 消息，头部字段同时写入元数据，便于不解包就能路由或过滤.
func NewWatermillMessage[T any](topic string, payload T, opts ...HeaderOption) (*message.Message, error) {
	h := NewEventHeader(topic, opts...)

	data, err := Encode(Message[T]{Header: h, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", topic, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set(MetaTopic, h.Topic)
	msg.Metadata.Set(MetaOccurredAt, h.OccurredAt.Format(time.RFC3339Nano))
	msg.Metadata.Set(MetaVersion, h.Version)

	for k, v := range map[string]string{MetaTraceID: h.TraceID, MetaProducer: h.Producer} {
		if v != "" {
			msg.Metadata.Set(k, v)
		}
	}

	return msg, nil
}

// ParseWatermillMessage 解出泛型信封.
func ParseWatermillMessage[T any](msg *message.Message) (Message[T], error) {
	return Decode[T](msg.Payload)
}
