// Package jobs 注册业务定时任务.
package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/yeisme/filedeck/pkg/configs"
	"github.com/yeisme/filedeck/pkg/internal/types"
	"github.com/yeisme/filedeck/pkg/log"
	"github.com/yeisme/filedeck/pkg/scheduler"
)

// Sweeper 孤儿对象清理.
type Sweeper interface {
	SweepOrphans(ctx context.Context, grace time.Duration, dryRun bool) (types.SweepResult, error)
}

// CronRegistrar 可以注册 cron 任务.
type CronRegistrar interface {
	AddCron(name, cronExpr string, job scheduler.JobFunc) error
}

// RegisterCronJobs 按配置注册任务，清理任务未启用时不做任何事.
func RegisterCronJobs(sched CronRegistrar, sweeper Sweeper, cfg configs.SweepConfig) error {
	if sched == nil {
		return errors.New("scheduler is nil")
	}

	if !cfg.Enabled {
		return nil
	}

	if sweeper == nil {
		return errors.New("sweeper is nil")
	}

	return sched.AddCron(JobOrphanSweep, cfg.Cron, OrphanSweep(sweeper, cfg))
}

// OrphanSweep 返回孤儿对象清理任务.
func OrphanSweep(sweeper Sweeper, cfg configs.SweepConfig) scheduler.JobFunc {
	return func(ctx context.Context) error {
		l := log.Logger().With().Str("job", JobOrphanSweep).Logger()

		res, err := sweeper.SweepOrphans(ctx, cfg.Grace(), cfg.DryRun)
		if err != nil {
			return err
		}

		if res.Orphans > 0 {
			l.Info().Int("orphans", res.Orphans).Int("removed", res.Removed).Strs("samples", res.Samples).Msg("orphans swept")
		}

		return nil
	}
}
