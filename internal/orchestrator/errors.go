package orchestrator

import (
	"errors"
	"fmt"
)

// ValidationError 请求参数不合法（不会创建任何记录）
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NotFoundError 资源不存在或不属于调用者
type NotFoundError struct {
	Resource string
	ID       int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

// ConflictError 选择有歧义，或对非终态任务发起重试
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// SpawnError worker 进程启动失败；仅在内部记录，不返回给提交者
type SpawnError struct {
	TaskID int64
	Err    error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn worker for task %d: %v", e.TaskID, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// RecoverError 回收阶段出错，但 drain 已正常完成
type RecoverError struct {
	Err error
}

func (e *RecoverError) Error() string { return "recover stale tasks: " + e.Err.Error() }

func (e *RecoverError) Unwrap() error { return e.Err }

// Causes 展开 errors.Join 合并的各项错误
func (e *RecoverError) Causes() []error {
	if joined, ok := e.Err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{e.Err}
}

// IsValidation 判断是否为参数错误
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsNotFound 判断是否为资源不存在
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsConflict 判断是否为冲突
func IsConflict(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}
