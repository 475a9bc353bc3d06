package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultSweepCron  = "30 3 * * *" // 每天 03:30
	DefaultSweepGrace = 24           // 只清理早于该时长（小时）的对象
)

// SweepConfig 孤儿对象清理任务配置.
type SweepConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Cron       string `mapstructure:"cron"        rule:"required"`
	GraceHours int    `mapstructure:"grace_hours" rule:"min=1"`
	// DryRun 只记录日志不删除
	DryRun bool `mapstructure:"dry_run"`
}

// Grace 返回宽限期.
func (c *SweepConfig) Grace() time.Duration {
	return time.Duration(c.GraceHours) * time.Hour
}

func (c *SweepConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("sweep.enabled", false)
	v.SetDefault("sweep.cron", DefaultSweepCron)
	v.SetDefault("sweep.grace_hours", DefaultSweepGrace)
	v.SetDefault("sweep.dry_run", false)
}
