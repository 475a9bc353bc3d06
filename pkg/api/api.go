// Package api 组装 HTTP 引擎：全局中间件、依赖注入、指标端点与业务路由.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/filedeck/pkg/configs"
	"github.com/yeisme/filedeck/pkg/internal/router"
	"github.com/yeisme/filedeck/pkg/internal/service"
	"github.com/yeisme/filedeck/pkg/internal/storage"
	"github.com/yeisme/filedeck/pkg/metrics"
	"github.com/yeisme/filedeck/pkg/middleware"
	"github.com/yeisme/filedeck/pkg/scheduler"
)

// Deps 引擎依赖，Manager 与 Scheduler 可以为空.
type Deps struct {
	Manager   *storage.Manager
	Service   *service.FileService
	Scheduler *scheduler.Scheduler
}

// NewEngine 按配置创建 gin 引擎并注册全部路由.
func NewEngine(cfg *configs.AppConfig, deps Deps) *gin.Engine {
	e := gin.New()
	e.MaxMultipartMemory = cfg.Upload.MaxBytes()

	e.Use(middleware.Default(cfg)...)
	e.Use(middleware.StorageMiddleware(deps.Manager, deps.Service))

	if deps.Scheduler != nil {
		e.Use(middleware.SchedulerMiddleware(deps.Scheduler))
	}

	metrics.Mount(cfg.Metrics, cfg.Server.Pprof, e)

	RegisterGroup(e, cfg, deps.Scheduler != nil)

	return e
}

// RegisterGroup 注册文件处理相关的路由组到传入的 gin 引擎.
func RegisterGroup(e *gin.Engine, cfg *configs.AppConfig, withScheduler bool) *gin.Engine {
	router.Register(e.Group(""), router.Options{
		MaxUploadBytes: cfg.Upload.MaxBytes(),
		Scheduler:      withScheduler,
	})

	return e
}
