// Package handle 提供 HTTP 请求处理器：文件列表、上传、删除、健康检查与调度任务.
//
// 处理器只向调用方返回通用错误信息，具体错误写入日志.
package handle

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	ctxPkg "github.com/yeisme/filedeck/pkg/context"
	"github.com/yeisme/filedeck/pkg/internal/service"
	"github.com/yeisme/filedeck/pkg/internal/types"
	"github.com/yeisme/filedeck/pkg/log"
)

// 返回给调用方的通用错误信息.
const (
	MsgNoFile        = "No file provided"
	MsgFileTooLarge  = "File too large"
	MsgUploadFailed  = "Failed to upload file"
	MsgListFailed    = "Failed to fetch files"
	MsgIDRequired    = "File ID is required"
	MsgNotFound      = "File not found"
	MsgDeleteFailed  = "Failed to delete file"
	MsgFetchFailed   = "Failed to fetch file"
	MsgInvalidParams = "Invalid query parameters"
	MsgUnavailable   = "Service unavailable"
)

// failure 描述一个操作失败时的日志动作名与返回信息.
type failure struct {
	action string
	// invalid 校验失败（400）时返回的信息
	invalid string
	// fallback 其他内部错误时返回的信息
	fallback string
}

var (
	failList   = failure{action: "list", invalid: MsgInvalidParams, fallback: MsgListFailed}
	failGet    = failure{action: "get", invalid: MsgIDRequired, fallback: MsgFetchFailed}
	failDelete = failure{action: "delete", invalid: MsgIDRequired, fallback: MsgDeleteFailed}
	failUpload = failure{action: "upload", invalid: MsgNoFile, fallback: MsgUploadFailed}
)

// fileService 取出注入的文件服务，缺失时直接返回 503.
func fileService(c *gin.Context) (*service.FileService, bool) {
	svc := ctxPkg.GetFileService(c.Request.Context())
	if svc == nil {
		l := log.Ctx(c.Request.Context())
		l.Error().Msg("file service not initialized")
		c.JSON(http.StatusServiceUnavailable, types.ErrorResponse{Error: MsgUnavailable})

		return nil, false
	}

	return svc, true
}

// fail 记录内部错误并按错误类别返回状态码与通用信息.
func fail(c *gin.Context, err error, f failure) {
	status, msg := http.StatusInternalServerError, f.fallback

	switch {
	case errors.Is(err, service.ErrNotFound):
		status, msg = http.StatusNotFound, MsgNotFound
	case errors.Is(err, service.ErrValidation):
		status, msg = http.StatusBadRequest, f.invalid
	}

	level := zerolog.ErrorLevel
	if status < http.StatusInternalServerError {
		level = zerolog.WarnLevel
	}

	log.Ctx(c.Request.Context()).WithLevel(level).Err(err).Str("action", f.action).Int("status", status).Msg("request failed")
	_ = c.Error(err)
	c.JSON(status, types.ErrorResponse{Error: msg})
}
