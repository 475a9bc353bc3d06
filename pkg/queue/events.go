package queue

import "github.com/ThreeDotsLabs/watermill/message"

// PublishFileStored 发布 fd.file.stored 事件.
func PublishFileStored(pub message.Publisher, payload FileStoredPayload, opts ...HeaderOption) error {
	return publish(pub, TopicFileStored, payload, opts...)
}

// PublishFileDeleted 发布 fd.file.deleted 事件.
func PublishFileDeleted(pub message.Publisher, payload FileDeletedPayload, opts ...HeaderOption) error {
	return publish(pub, TopicFileDeleted, payload, opts...)
}

// PublishBlobOrphaned 发布 fd.blob.orphaned 事件.
func PublishBlobOrphaned(pub message.Publisher, payload BlobOrphanedPayload, opts ...HeaderOption) error {
	return publish(pub, TopicBlobOrphaned, payload, opts...)
}

// ParseBlobOrphaned 将 Watermill 消息解析为强类型 Envelope.
func ParseBlobOrphaned(msg *message.Message) (Message[BlobOrphanedPayload], error) {
	return ParseWatermillMessage[BlobOrphanedPayload](msg)
}

func publish[T any](pub message.Publisher, topic string, payload T, opts ...HeaderOption) error {
	msg, err := NewWatermillMessage(topic, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(topic, msg)
}
