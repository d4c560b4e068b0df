package model

// TaskStatus 下载任务状态枚举（用于 API/DB/前端筛选）。
// 约定：
// - queued: 已入库，等待分配 worker 进程
// - running: worker 进程已启动并在处理
// - completed: 全部成功
// - completed_with_errors: 部分曲目失败
// - failed: 整体失败（包括 worker 崩溃被回收）
type TaskStatus string

const (
	TaskStatusQueued              TaskStatus = "queued"
	TaskStatusRunning             TaskStatus = "running"
	TaskStatusCompleted           TaskStatus = "completed"
	TaskStatusCompletedWithErrors TaskStatus = "completed_with_errors"
	TaskStatusFailed              TaskStatus = "failed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusQueued, TaskStatusRunning, TaskStatusCompleted, TaskStatusCompletedWithErrors, TaskStatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal 终态之后不再发生自动状态迁移
func (s TaskStatus) IsTerminal() bool {
	switch s {
	case TaskStatusCompleted, TaskStatusCompletedWithErrors, TaskStatusFailed:
		return true
	default:
		return false
	}
}

// TerminalStatuses 返回全部终态
func TerminalStatuses() []TaskStatus {
	return []TaskStatus{TaskStatusCompleted, TaskStatusCompletedWithErrors, TaskStatusFailed}
}

// PendingPID 表示"已认领但进程尚未启动"的保留 PID
const PendingPID = -1
