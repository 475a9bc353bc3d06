// Package queue 定义消息主题常量，供发布/订阅使用.
package queue

// 主题命名规范：fd.<域>.<动作>，尽量稳定且向后兼容.
const (
	// TopicFileStored 上传完成：对象已写入且元数据已提交.
	TopicFileStored = "fd.file.stored"
	// TopicFileDeleted 元数据已删除（对象删除为尽力而为）.
	TopicFileDeleted = "fd.file.deleted"
	// TopicBlobOrphaned 出现没有元数据引用的对象，需要异步清理.
	TopicBlobOrphaned = "fd.blob.orphaned"
)

// FileTopics 全部主题，用于 CLI 列表与批量订阅.
var FileTopics = []string{TopicFileStored, TopicFileDeleted, TopicBlobOrphaned}
