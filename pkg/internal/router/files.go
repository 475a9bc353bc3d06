package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/filedeck/pkg/internal/handle"
)

// RegisterFilesRoutes 注册文件操作相关路由.
func RegisterFilesRoutes(g *gin.RouterGroup, maxUploadBytes int64) {
	filesRoutes := g.Group("/files")
	{
		filesRoutes.GET("", handle.ListFiles)
		filesRoutes.DELETE("", handle.DeleteFile)
		filesRoutes.GET("/:id", handle.GetFile)
	}

	g.POST("/upload", handle.UploadFile(maxUploadBytes))
}
