package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/filedeck/pkg/context"
	"github.com/yeisme/filedeck/pkg/internal/service"
	"github.com/yeisme/filedeck/pkg/internal/storage"
)

// StorageMiddleware 把存储管理器与文件服务注入请求上下文，manager 可以为 nil（测试场景）.
func StorageMiddleware(manager *storage.Manager, svc *service.FileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if manager != nil {
			ctx = context.WithStorageManager(ctx, manager)
		}

		ctx = context.WithFileService(ctx, svc)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
