package handle

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/filedeck/pkg/internal/types"
	"github.com/yeisme/filedeck/pkg/log"
)

// ListFiles GET /files，按 search/type 过滤并排序，结果总是 JSON 数组.
func ListFiles(c *gin.Context) {
	svc, ok := fileService(c)
	if !ok {
		return
	}

	var q types.ListFilesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		l := log.Ctx(c.Request.Context())
		l.Warn().Err(err).Msg("invalid list query")
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: MsgInvalidParams})

		return
	}

	files, err := svc.List(c.Request.Context(), q)
	if err != nil {
		fail(c, err, failList)
		return
	}

	c.JSON(http.StatusOK, files)
}

// GetFile GET /files/:id.
func GetFile(c *gin.Context) {
	svc, ok := fileService(c)
	if !ok {
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: MsgIDRequired})
		return
	}

	f, err := svc.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err, failGet)
		return
	}

	c.JSON(http.StatusOK, f)
}

// DeleteFile DELETE /files?id=，对象删除失败不影响成功响应.
func DeleteFile(c *gin.Context) {
	svc, ok := fileService(c)
	if !ok {
		return
	}

	var q types.DeleteFileQuery
	_ = c.ShouldBindQuery(&q)

	id := strings.TrimSpace(q.ID)
	if id == "" {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: MsgIDRequired})
		return
	}

	if err := svc.Delete(c.Request.Context(), id); err != nil {
		fail(c, err, failDelete)
		return
	}

	c.JSON(http.StatusOK, types.DeleteFileResponse{Success: true})
}
