// Package app 提供应用程序的初始化、运行与优雅退出.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yeisme/filedeck/pkg/api"
	"github.com/yeisme/filedeck/pkg/configs"
	"github.com/yeisme/filedeck/pkg/internal/jobs"
	"github.com/yeisme/filedeck/pkg/internal/mq"
	"github.com/yeisme/filedeck/pkg/internal/service"
	"github.com/yeisme/filedeck/pkg/internal/storage"
	"github.com/yeisme/filedeck/pkg/log"
	"github.com/yeisme/filedeck/pkg/metrics"
	"github.com/yeisme/filedeck/pkg/scheduler"
	"github.com/yeisme/filedeck/pkg/tracing"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	Engine *gin.Engine

	config    *configs.AppConfig
	manager   *storage.Manager
	service   *service.FileService
	scheduler *scheduler.Scheduler
}

// Bootstrap 加载配置并初始化日志、追踪与监控，serve 与 sweep 命令共用.
func Bootstrap(configPath string) (*configs.AppConfig, error) {
	if err := configs.InitConfig(configPath); err != nil {
		return nil, fmt.Errorf("init config: %w", err)
	}

	log.Init()

	cfg := configs.GetConfig()
	if err := tracing.InitTracer(cfg.Tracing); err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	if err := metrics.InitMetrics(cfg.Metrics); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	l := log.Logger()
	gin.DefaultWriter = log.NewGinWriter(l, zerolog.InfoLevel)
	gin.DefaultErrorWriter = log.NewGinWriter(l, zerolog.ErrorLevel)

	return cfg, nil
}

// NewServices 打开存储并构建文件服务，调用方负责关闭 manager.
func NewServices(ctx context.Context, cfg *configs.AppConfig) (*storage.Manager, *service.FileService, error) {
	manager, err := storage.New(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	svc, err := service.NewFromManager(manager, cfg)
	if err != nil {
		_ = manager.Close()
		return nil, nil, err
	}

	return manager, svc, nil
}

// NewApp 初始化全部组件.
func NewApp(ctx context.Context, configPath string) (*App, error) {
	cfg, err := Bootstrap(configPath)
	if err != nil {
		return nil, err
	}

	manager, svc, err := NewServices(ctx, cfg)
	if err != nil {
		return nil, err
	}

	sched, err := scheduler.NewScheduler()
	if err != nil {
		_ = manager.Close()
		return nil, fmt.Errorf("init scheduler: %w", err)
	}

	if err := jobs.RegisterCronJobs(sched, svc, cfg.Sweep); err != nil {
		_ = sched.Stop()
		_ = manager.Close()

		return nil, fmt.Errorf("register jobs: %w", err)
	}

	mq.RegisterConsumers(manager.MQ, svc, cfg.Events)

	engine := api.NewEngine(cfg, api.Deps{
		Manager:   manager,
		Service:   svc,
		Scheduler: sched,
	})

	return &App{
		Engine:    engine,
		config:    cfg,
		manager:   manager,
		service:   svc,
		scheduler: sched,
	}, nil
}

// Run 启动 HTTP 服务、调度器与消费者，ctx 取消后优雅退出.
func (a *App) Run(ctx context.Context) error {
	l := log.Logger()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.config.Server.Host, a.config.Server.Port),
		Handler:           a.Engine,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      a.config.Server.GetTimeoutDuration(),
	}

	a.manager.MQ.Run(ctx)
	a.scheduler.Start()

	errCh := make(chan error, 1)

	go func() {
		l.Info().Str("addr", srv.Addr).Msg("HTTP server listening")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}

		close(errCh)
	}()

	var runErr error

	select {
	case <-ctx.Done():
		l.Info().Msg("shutting down")
	case runErr = <-errCh:
		l.Error().Err(runErr).Msg("HTTP server stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return errors.Join(runErr, a.shutdown(shutdownCtx, srv))
}

func (a *App) shutdown(ctx context.Context, srv *http.Server) error {
	var errs []error

	if err := srv.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}

	if err := a.scheduler.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("scheduler stop: %w", err))
	}

	if err := a.manager.Close(); err != nil {
		errs = append(errs, fmt.Errorf("storage close: %w", err))
	}

	if err := tracing.ShutdownTracer(ctx); err != nil {
		errs = append(errs, fmt.Errorf("tracing shutdown: %w", err))
	}

	return errors.Join(errs...)
}
