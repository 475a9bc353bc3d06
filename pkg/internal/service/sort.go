package service

import (
	"strings"

	"github.com/yeisme/filedeck/pkg/internal/types"
)

var sortFields = map[string]types.SortField{
	"uploadedat":   types.SortUploadedAt,
	"name":         types.SortName,
	"originalname": types.SortOriginalName,
	"size":         types.SortSize,
	"type":         types.SortType,
	"mimetype":     types.SortMimeType,
	"folder":       types.SortFolder,
}

// ParseSortField 将调用方字符串映射为可排序字段，大小写不敏感，未知值返回 uploadedAt.
func ParseSortField(s string) types.SortField {
	if f, ok := sortFields[strings.ToLower(strings.TrimSpace(s))]; ok {
		return f
	}

	return types.SortUploadedAt
}

// ParseSortOrder asc 以外的值都按 desc 处理.
func ParseSortOrder(s string) types.SortOrder {
	if strings.EqualFold(strings.TrimSpace(s), string(types.SortAsc)) {
		return types.SortAsc
	}

	return types.SortDesc
}

// NewListFilter 规范化查询参数.
func NewListFilter(q types.ListFilesQuery) types.ListFilter {
	return types.ListFilter{
		Search: strings.TrimSpace(q.Search),
		Type:   strings.TrimSpace(q.Type),
		SortBy: ParseSortField(q.SortBy),
		Order:  ParseSortOrder(q.SortOrder),
	}
}
