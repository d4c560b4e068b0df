package asynqx

import (
	"errors"
	"strings"

	"github.com/hibiken/asynq"
)

// NewRedisConnOpt 接受 URI（例如 redis://localhost:6379/6）或 host:port。
func NewRedisConnOpt(addr string) (asynq.RedisConnOpt, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("empty redis addr")
	}
	if strings.Contains(addr, "://") {
		return asynq.ParseRedisURI(addr)
	}
	return asynq.RedisClientOpt{Addr: addr}, nil
}
