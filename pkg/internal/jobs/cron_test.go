package jobs_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yeisme/filedeck/pkg/configs"
	"github.com/yeisme/filedeck/pkg/internal/jobs"
	"github.com/yeisme/filedeck/pkg/internal/types"
	"github.com/yeisme/filedeck/pkg/scheduler"
)

type fakeSweeper struct {
	grace  time.Duration
	dryRun bool
	err    error
}

func (f *fakeSweeper) SweepOrphans(_ context.Context, grace time.Duration, dryRun bool) (types.SweepResult, error) {
	f.grace, f.dryRun = grace, dryRun
	return types.SweepResult{Orphans: 1}, f.err
}

type registrar struct {
	names []string
	exprs []string
}

func (r *registrar) AddCron(name, expr string, _ scheduler.JobFunc) error {
	r.names = append(r.names, name)
	r.exprs = append(r.exprs, expr)

	return nil
}

// 测试清理任务只在启用时注册.
func TestRegisterCronJobs(t *testing.T) {
	r := &registrar{}

	if err := jobs.RegisterCronJobs(r, &fakeSweeper{}, configs.SweepConfig{Enabled: false}); err != nil || len(r.names) != 0 {
		t.Fatalf("disabled: err=%v names=%v", err, r.names)
	}

	cfg := configs.SweepConfig{Enabled: true, Cron: "30 3 * * *", GraceHours: 24}
	if err := jobs.RegisterCronJobs(r, &fakeSweeper{}, cfg); err != nil {
		t.Fatalf("RegisterCronJobs: %v", err)
	}

	if len(r.names) != 1 || r.names[0] != jobs.JobOrphanSweep || r.exprs[0] != "30 3 * * *" {
		t.Fatalf("registered %v %v", r.names, r.exprs)
	}
}

// 测试任务把宽限期与 dry run 传给清理器并返回其错误.
func TestOrphanSweepJob(t *testing.T) {
	s := &fakeSweeper{}
	job := jobs.OrphanSweep(s, configs.SweepConfig{GraceHours: 2, DryRun: true})

	if err := job(context.Background()); err != nil {
		t.Fatalf("job: %v", err)
	}

	if s.grace != 2*time.Hour || !s.dryRun {
		t.Fatalf("grace=%v dryRun=%v", s.grace, s.dryRun)
	}

	s.err = errors.New("s3 down")
	if err := job(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
