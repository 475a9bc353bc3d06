package types

import "time"

// IngestInput 一次上传的输入.
//
// Data 为完整的原始内容；DeclaredMIME 是客户端声明的 MIME 类型，可能为空.
type IngestInput struct {
	Data         []byte
	Filename     string
	DeclaredMIME string
	Folder       *string
}

// UploadForm POST /upload 的表单字段，file 由 multipart 单独读取.
type UploadForm struct {
	Folder string `form:"folder" json:"folder" rule:"max=512"`
}

// BlobObject 对象存储中的一个对象.
type BlobObject struct {
	Key          string    `json:"key"`
	URL          string    `json:"url"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
}
