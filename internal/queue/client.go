package asynqx

import (
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
)

// Client asynq 客户端封装（运维接口异步触发回收、查看维护队列时使用）
type Client struct {
	*asynq.Client
	inspector *asynq.Inspector
}

func NewClient(redisAddr string) (*Client, error) {
	opt, err := NewRedisConnOpt(redisAddr)
	if err != nil {
		return nil, fmt.Errorf("redis conn opt: %w", err)
	}
	return &Client{Client: asynq.NewClient(opt), inspector: asynq.NewInspector(opt)}, nil
}

// EnqueueRecover 入队一次回收任务；同一窗口内重复入队会被去重
func (c *Client) EnqueueRecover(p RecoverParams) (*asynq.TaskInfo, error) {
	return c.Enqueue(NewRecoverStaleTask(), RecoverOptions(p)...)
}

// QueueStats 维护队列的统计信息；队列尚未创建时返回零值
func (c *Client) QueueStats() (*asynq.QueueInfo, error) {
	info, err := c.inspector.GetQueueInfo(QueueMaintenance)
	if errors.Is(err, asynq.ErrQueueNotFound) {
		return &asynq.QueueInfo{Queue: QueueMaintenance}, nil
	}
	return info, err
}

// Close 关闭客户端与 inspector
func (c *Client) Close() error {
	return errors.Join(c.Client.Close(), c.inspector.Close())
}
