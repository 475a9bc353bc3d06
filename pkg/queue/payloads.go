package queue

import "time"

// EventHeader 定义所有事件的通用头部元数据.
type EventHeader struct {
	// Topic 冗余记录消息主题，便于离线处理或转储后定位来源主题.
	Topic string `json:"topic"`
	// TraceID 分布式追踪/关联 ID.
	TraceID string `json:"trace_id,omitempty"`
	// Producer 生产者服务名或节点标识.
	Producer string `json:"producer,omitempty"`
	// OccurredAt 事件发生时间（UTC）.
	OccurredAt time.Time `json:"occurred_at"`
	// Version 事件负载版本.
	Version string `json:"version,omitempty"`
}

// Message 是统一的消息封装，Header + Payload.
type Message[T any] struct {
	Header  EventHeader `json:"header"`
	Payload T           `json:"payload"`
}

// FileRef 事件中引用的文件记录.
type FileRef struct {
	ID           string  `json:"id"`
	OriginalName string  `json:"original_name"`
	MimeType     string  `json:"mime_type"`
	Size         int64   `json:"size"`
	BlobURL      string  `json:"blob_url"`
	Folder       *string `json:"folder,omitempty"`
}

// FileStoredPayload 上传完成.
type FileStoredPayload struct {
	File FileRef `json:"file"`
	// StoredSize 实际写入对象存储的字节数，压缩后可能小于 File.Size
	StoredSize int64 `json:"stored_size"`
	Compressed bool  `json:"compressed"`
}

// FileDeletedPayload 文件元数据被删除.
type FileDeletedPayload struct {
	File FileRef `json:"file"`
	// BlobDeleted 对象是否同步删除成功
	BlobDeleted bool `json:"blob_deleted"`
}

// 孤儿对象产生的原因.
const (
	OrphanCauseDeleteFailed  = "blob_delete_failed"
	OrphanCausePersistFailed = "persist_failed"
	OrphanCauseSweep         = "sweep"
)

// BlobOrphanedPayload 对象失去了元数据引用.
type BlobOrphanedPayload struct {
	BlobURL string `json:"blob_url"`
	Cause   string `json:"cause"`
	FileID  string `json:"file_id,omitempty"`
	Error   string `json:"error,omitempty"`
}
