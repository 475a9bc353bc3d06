// Package router 管理路由配置，将路径与 handle 包中的处理器绑定到 gin 引擎.
package router

import (
	"github.com/gin-gonic/gin"
)

// Options 路由注册参数.
type Options struct {
	// MaxUploadBytes 单个上传文件的最大字节数，0 表示不限制
	MaxUploadBytes int64
	// Scheduler 是否注册调度任务路由
	Scheduler bool
}

// Register 注册全部业务路由：
//
//	GET    /files         -> 列表/搜索
//	GET    /files/:id     -> 单条记录
//	DELETE /files?id=     -> 删除
//	POST   /upload        -> 上传
//	GET    /health/*      -> 健康检查
//	GET    /scheduler/... -> 调度任务
func Register(g *gin.RouterGroup, opts Options) {
	RegisterFilesRoutes(g, opts.MaxUploadBytes)
	RegisterHealthCheckRoute(g)

	if opts.Scheduler {
		RegisterSchedulerRoutes(g)
	}
}
