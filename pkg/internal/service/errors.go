package service

import "errors"

// 服务层错误分类，调用方用 errors.Is 判断；压缩失败不在此列，它在 compress 包内被吸收.
var (
	// ErrValidation 缺少必需的输入（没有 id、没有对象地址）.
	ErrValidation = errors.New("validation error")
	// ErrNotFound 记录不存在.
	ErrNotFound = errors.New("file not found")
	// ErrStorage 对象存储写入失败，没有写入元数据.
	ErrStorage = errors.New("blob storage error")
	// ErrPersistence 元数据存储失败.
	ErrPersistence = errors.New("metadata persistence error")
	// ErrSweepUnsafe 存在无法还原为对象键的记录地址（例如公开地址配置已变更），清理中止.
	ErrSweepUnsafe = errors.New("orphan sweep aborted: unresolved blob urls")
)
