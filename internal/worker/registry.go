package workers

import (
	"errors"
	"sort"
	"sync"
	"time"
)

// Process 当前编排进程启动且尚未退出的 worker 子进程
type Process struct {
	TaskID    int64     `json:"task_id"`
	PID       int       `json:"pid"`
	Command   string    `json:"command"`
	StartedAt time.Time `json:"started_at"`
}

// Registry 本地子进程登记表（仅用于运维查看，不参与调度决策）
type Registry struct {
	mu    sync.RWMutex
	items map[int64]Process // key: task_id
}

func NewRegistry() *Registry {
	return &Registry{
		items: map[int64]Process{},
	}
}

// Add 登记子进程
func (r *Registry) Add(p Process) error {
	if p.TaskID <= 0 {
		return errors.New("task_id 不能为空")
	}
	if p.PID <= 0 {
		return errors.New("pid 不合法")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[p.TaskID] = p
	return nil
}

// Remove 移除子进程记录
func (r *Registry) Remove(taskID int64) (Process, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[taskID]
	delete(r.items, taskID)
	return p, ok
}

// Get 获取指定任务的子进程
func (r *Registry) Get(taskID int64) (Process, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.items[taskID]
	return p, ok
}

// List 返回所有子进程（按 task_id 排序）
func (r *Registry) List() []Process {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Process, 0, len(r.items))
	for _, v := range r.items {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].TaskID < out[j].TaskID
	})
	return out
}

// Len 子进程数量
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}
