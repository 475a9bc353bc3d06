package jobs

// 任务名称.
const (
	JobOrphanSweep = "blob.orphan_sweep"
)
