// Package model 定义持久化模型.
package model

import (
	"time"

	"golang.org/x/text/cases"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// File 一条上传文件的元数据记录.
//
// 记录只在上传成功后创建一次，之后只读，删除时整行移除；BlobURL 指向对象存储中的对象，
// 对象本身由对象存储负责，两边不在同一事务中.
type File struct {
	// ID 由服务端生成的 UUID，创建后不可变
	ID string `gorm:"primaryKey;size:36" json:"id"`
	// Name 去掉最后一个扩展名的显示名称，.env 这类点文件保持原名
	Name string `gorm:"size:512;not null;index" json:"name"`
	// OriginalName 客户端上传时的原始文件名
	OriginalName string `gorm:"size:512;not null;index" json:"originalName"`
	// Size 原始上传内容的字节数（压缩前）
	Size int64 `gorm:"not null;index" json:"size"`
	// Type MIME 类型第一个 "/" 之前的部分，例如 image
	Type     string `gorm:"size:128;not null;index" json:"type"`
	MimeType string `gorm:"size:255;not null"       json:"mimeType"`
	BlobURL  string `gorm:"size:2048;not null"      json:"blobUrl"`
	// UploadedAt 创建时写入一次
	UploadedAt time.Time `gorm:"not null;index" json:"uploadedAt"`
	Folder     *string   `gorm:"size:512;index" json:"folder"`
	// Tags 保持插入顺序，默认空数组
	Tags datatypes.JSONSlice[string] `json:"tags"`

	// 以下列保存 Unicode 大小写折叠后的文本，供大小写不敏感的子串匹配使用，
	// 各方言的 LOWER 对非 ASCII 字符的处理不一致（SQLite 只处理 ASCII）.
	NameFold         string `gorm:"size:1024;not null;default:'';index" json:"-"`
	OriginalNameFold string `gorm:"size:1024;not null;default:'';index" json:"-"`
	TypeFold         string `gorm:"size:256;not null;default:''"        json:"-"`
}

// Fold 返回用于大小写不敏感比较的折叠文本.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// RefreshFolds 按当前字段重新计算折叠列.
func (f *File) RefreshFolds() {
	f.NameFold = Fold(f.Name)
	f.OriginalNameFold = Fold(f.OriginalName)
	f.TypeFold = Fold(f.Type)
}

// BeforeSave 写入前同步折叠列.
func (f *File) BeforeSave(*gorm.DB) error {
	f.RefreshFolds()
	return nil
}

// TableName 固定表名.
func (File) TableName() string {
	return "files"
}

// Models 返回需要自动迁移的模型.
func Models() []any {
	return []any{&File{}}
}
