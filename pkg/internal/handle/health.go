package handle

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	ctxPkg "github.com/yeisme/filedeck/pkg/context"
	"github.com/yeisme/filedeck/pkg/log"
)

const (
	timeout = 2 * time.Second

	kvHealthKey = "filedeck.health.check"
	kvHealthTTL = 10 * time.Second
)

var errNotInitialized = errors.New("client not initialized")

// HealthStatus 单个组件的健康状态.
type HealthStatus struct {
	Component string `json:"component"`
	Status    string `json:"status"`
	Type      string `json:"type,omitempty"`
}

func unhealthy(c *gin.Context, component string, err error) {
	l := log.Ctx(c.Request.Context())
	l.Warn().Err(err).Str("component", component).Msg("health check failed")
	c.JSON(http.StatusServiceUnavailable, HealthStatus{Component: component, Status: "unhealthy"})
}

// HealthDB 数据库健康检查.
func HealthDB(c *gin.Context) {
	dbc := ctxPkg.GetDBClient(c.Request.Context())
	if dbc == nil || dbc.DB == nil {
		unhealthy(c, "db", errNotInitialized)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	if err := dbc.Ping(ctx); err != nil {
		unhealthy(c, "db", err)
		return
	}

	c.JSON(http.StatusOK, HealthStatus{Component: "db", Status: "ok"})
}

// HealthS3 S3/对象存储健康检查.
func HealthS3(c *gin.Context) {
	s3c := ctxPkg.GetS3Client(c.Request.Context())
	if s3c == nil || s3c.Client == nil {
		unhealthy(c, "s3", errNotInitialized)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	if err := s3c.HealthCheck(ctx); err != nil {
		unhealthy(c, "s3", err)
		return
	}

	c.JSON(http.StatusOK, HealthStatus{Component: "s3", Status: "ok"})
}

// HealthMQ 消息队列健康检查，publisher 与 subscriber 在创建客户端时已初始化，判空即可.
func HealthMQ(c *gin.Context) {
	mqc := ctxPkg.GetMQClient(c.Request.Context())
	if mqc == nil {
		unhealthy(c, "mq", errNotInitialized)
		return
	}

	c.JSON(http.StatusOK, HealthStatus{Component: "mq", Status: "ok", Type: string(mqc.Type())})
}

// HealthKV KV 健康检查，写入一个短 TTL 的探测键再读回.
func HealthKV(c *gin.Context) {
	kvc := ctxPkg.GetKVClient(c.Request.Context())
	if kvc == nil || kvc.KVStore == nil {
		unhealthy(c, "kv", errNotInitialized)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	if err := kvc.Set(ctx, kvHealthKey, []byte("ok"), kvHealthTTL); err != nil {
		unhealthy(c, "kv", err)
		return
	}

	if ok, err := kvc.Exists(ctx, kvHealthKey); err != nil || !ok {
		if err == nil {
			err = errors.New("health key missing after write")
		}

		unhealthy(c, "kv", err)

		return
	}

	c.JSON(http.StatusOK, HealthStatus{Component: "kv", Status: "ok", Type: string(kvc.Type())})
}
