package asynqx

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/azhengyongqin/fetchhub/internal/logger"
)

// FinishedChannel worker 写入终态后发布的频道
const FinishedChannel = "fetchhub:task-finished"

// PublishFinished 通知编排进程有名额释放
func PublishFinished(ctx context.Context, client *redis.Client, taskID int64) error {
	return client.Publish(ctx, FinishedChannel, strconv.FormatInt(taskID, 10)).Err()
}

// SubscribeFinished 阻塞订阅，直到 ctx 取消
func SubscribeFinished(ctx context.Context, client *redis.Client, onFinished func(taskID int64)) error {
	sub := client.Subscribe(ctx, FinishedChannel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			id, err := strconv.ParseInt(msg.Payload, 10, 64)
			if err != nil {
				logger.Warn().Str("payload", msg.Payload).Msg("忽略无法解析的完成通知")
				continue
			}
			onFinished(id)
		}
	}
}

// FinishedPublisher worker 侧的完成通知
type FinishedPublisher struct {
	Client *redis.Client
}

func (p FinishedPublisher) PublishFinished(ctx context.Context, taskID int64) error {
	return PublishFinished(ctx, p.Client, taskID)
}
