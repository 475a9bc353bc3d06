// Package metrics 提供 Prometheus 监控指标：HTTP 请求指标以及上传、压缩、对象删除等业务指标.
//
// Example:
//
//	err := metrics.InitMetrics(config.Metrics)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	metrics.IngestTotal.WithLabelValues(metrics.ResultOK).Inc()
package metrics

import (
	"net/http"
	"net/http/pprof"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yeisme/filedeck/pkg/configs"
)

// 上传结果标签.
const (
	ResultOK               = "ok"
	ResultStorageError     = "storage_error"
	ResultPersistenceError = "persistence_error"
)

// 全局指标变量.
var (
	// RequestCounter HTTP请求计数器.
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration HTTP请求持续时间.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// IngestTotal 上传结果计数.
	IngestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filedeck_ingest_total",
			Help: "File ingestions by result",
		},
		[]string{"result"},
	)

	// IngestBytes 上传原始字节数.
	IngestBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "filedeck_ingest_bytes_total",
			Help: "Original bytes received by successful ingestions",
		},
	)

	// CompressionTotal 压缩结果计数.
	CompressionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filedeck_compression_total",
			Help: "Image compression attempts by outcome",
		},
		[]string{"outcome"},
	)

	// CompressionSavedBytes 压缩节省的字节数.
	CompressionSavedBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "filedeck_compression_saved_bytes_total",
			Help: "Bytes saved by image compression",
		},
	)

	// BlobDeleteFailures 对象删除失败次数（产生孤儿对象）.
	BlobDeleteFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "filedeck_blob_delete_failures_total",
			Help: "Blob deletions that failed after the metadata row was removed",
		},
	)

	// OrphansRemoved 清理任务或重试删除掉的孤儿对象.
	OrphansRemoved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filedeck_orphans_removed_total",
			Help: "Orphaned blobs removed by source",
		},
		[]string{"source"},
	)

	// registry Prometheus注册表.
	registry = prometheus.NewRegistry()
	initOnce sync.Once
)

// InitMetrics 初始化Metrics，重复调用只注册一次.
func InitMetrics(config configs.MetricsConfig) error {
	if !config.Enabled {
		return nil
	}

	initOnce.Do(func() {
		if config.RuntimeMetrics {
			registry.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
		}

		registry.MustRegister(
			RequestCounter, RequestDuration,
			IngestTotal, IngestBytes,
			CompressionTotal, CompressionSavedBytes,
			BlobDeleteFailures, OrphansRemoved,
		)
	})

	return nil
}

// Mount 在引擎上注册指标端点，按需注册 pprof.
func Mount(config configs.MetricsConfig, pprofEnabled bool, engine *gin.Engine) {
	if config.Enabled {
		path := config.Path
		if path == "" {
			path = "/metrics"
		}

		engine.GET(path, gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	if pprofEnabled {
		g := engine.Group("/debug/pprof")
		g.GET("/", gin.WrapF(pprof.Index))
		g.GET("/cmdline", gin.WrapF(pprof.Cmdline))
		g.GET("/profile", gin.WrapF(pprof.Profile))
		g.GET("/symbol", gin.WrapF(pprof.Symbol))
		g.GET("/trace", gin.WrapF(pprof.Trace))
		g.GET("/:name", func(c *gin.Context) {
			pprof.Handler(c.Param("name")).ServeHTTP(c.Writer, c.Request)
		})
	}
}

// GetRegistry 获取Prometheus注册表.
func GetRegistry() *prometheus.Registry {
	return registry
}

// Handler 返回指标的 HTTP 处理器.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
