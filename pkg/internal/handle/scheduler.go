package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/filedeck/pkg/internal/types"
	"github.com/yeisme/filedeck/pkg/log"
	"github.com/yeisme/filedeck/pkg/middleware"
)

// SchedulerJobs 返回所有调度器任务信息.
func SchedulerJobs(c *gin.Context) {
	sched := middleware.GetScheduler(c)
	if sched == nil {
		c.JSON(http.StatusServiceUnavailable, types.ErrorResponse{Error: MsgUnavailable})
		return
	}

	c.JSON(http.StatusOK, gin.H{"jobs": sched.GetJobInfos()})
}

// SchedulerRunJob 立即触发一次指定名称的任务.
func SchedulerRunJob(c *gin.Context) {
	sched := middleware.GetScheduler(c)
	if sched == nil {
		c.JSON(http.StatusServiceUnavailable, types.ErrorResponse{Error: MsgUnavailable})
		return
	}

	name := c.Param("name")
	if err := sched.RunNow(name); err != nil {
		l := log.Ctx(c.Request.Context())
		l.Warn().Err(err).Str("job", name).Msg("run job")
		c.JSON(http.StatusNotFound, types.ErrorResponse{Error: "Job not found"})

		return
	}

	c.JSON(http.StatusAccepted, gin.H{"job": name, "status": "triggered"})
}
