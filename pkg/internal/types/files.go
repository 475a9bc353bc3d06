// Package types 定义 HTTP 请求、响应以及服务层之间传递的数据结构.
package types

// SortField 可排序字段，取值固定，未知字段回落到 SortUploadedAt.
type SortField string

const (
	SortUploadedAt   SortField = "uploadedAt"
	SortName         SortField = "name"
	SortOriginalName SortField = "originalName"
	SortSize         SortField = "size"
	SortType         SortField = "type"
	SortMimeType     SortField = "mimeType"
	SortFolder       SortField = "folder"
)

// SortOrder 排序方向.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ListFilesQuery GET /files 的查询参数，原样来自客户端.
type ListFilesQuery struct {
	Search    string `form:"search"    json:"search"    rule:"max=256"`
	Type      string `form:"type"      json:"type"      rule:"max=128"`
	SortBy    string `form:"sortBy"    json:"sortBy"`
	SortOrder string `form:"sortOrder" json:"sortOrder"`
}

// ListFilter 经过规范化后的列表查询条件，Search/Type 为空表示不限制.
type ListFilter struct {
	Search string
	Type   string
	SortBy SortField
	Order  SortOrder
}

// DeleteFileQuery DELETE /files 的查询参数.
type DeleteFileQuery struct {
	ID string `form:"id" json:"id"`
}

// DeleteFileResponse 删除成功响应.
type DeleteFileResponse struct {
	Success bool `json:"success"`
}

// ErrorResponse 统一的错误响应，只包含面向调用方的通用信息.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SweepResult 孤儿对象清理结果.
type SweepResult struct {
	Scanned int `json:"scanned"`
	Orphans int `json:"orphans"`
	Removed int `json:"removed"`
	Failed  int `json:"failed"`
	// Unresolved 无法还原为对象键的记录地址数，大于 0 时清理中止
	Unresolved int      `json:"unresolved"`
	DryRun     bool     `json:"dryRun"`
	Samples    []string `json:"samples,omitempty"`
	Duration   string   `json:"duration"`
}
