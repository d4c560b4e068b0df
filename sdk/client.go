package sdk

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"resty.dev/v3"

	"github.com/azhengyongqin/fetchhub/internal/repository"
)

// SubmitRequest 提交下载任务参数
type SubmitRequest struct {
	Source          string `json:"source,omitempty"`
	URL             string `json:"url"`
	Format          string `json:"format,omitempty"`
	Quality         string `json:"quality,omitempty"`
	CodecPreference string `json:"codec_preference,omitempty"`
	CollectionID    *int64 `json:"collection_id,omitempty"`
	CollectionName  string `json:"collection_name,omitempty"`
}

// TaskDetail 任务详情
type TaskDetail struct {
	Task   *repository.Task       `json:"task"`
	Events []repository.TaskEvent `json:"events"`
}

// TaskItem 列表中的任务，附带最新事件
type TaskItem struct {
	repository.Task
	LatestEvent *repository.TaskEvent `json:"latest_event,omitempty"`
}

// TaskList 任务分页
type TaskList struct {
	Items  []TaskItem `json:"items"`
	Total  int        `json:"total"`
	Limit  int        `json:"limit"`
	Offset int        `json:"offset"`
}

// ListOptions 列表筛选
type ListOptions struct {
	Status string
	Source string
	Limit  int
	Offset int
}

// APIError 服务端返回的错误
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"error"`
	Field      string `json:"field,omitempty"`
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("fetchhub: %d %s (%s)", e.StatusCode, e.Message, e.Field)
	}
	return fmt.Sprintf("fetchhub: %d %s", e.StatusCode, e.Message)
}

// Client fetchhub HTTP API 客户端
type Client struct {
	client *resty.Client
}

// New 创建客户端；token 为空时依赖服务端单用户模式
func New(baseURL, token string) *Client {
	client := resty.New()
	client.SetBaseURL(baseURL + "/api/v1")
	client.SetTimeout(15 * time.Second)
	if token != "" {
		client.SetAuthToken(token)
	}
	return &Client{client: client}
}

// Close 释放底层连接
func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) check(resp *resty.Response, apiErr *APIError, want int) error {
	if resp.StatusCode() == want {
		return nil
	}
	apiErr.StatusCode = resp.StatusCode()
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode())
	}
	return apiErr
}

// SubmitTask 提交下载任务
func (c *Client) SubmitTask(ctx context.Context, req SubmitRequest) (*repository.Task, error) {
	var task repository.Task
	var apiErr APIError
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&task).
		SetError(&apiErr).
		Post("/tasks")
	if err != nil {
		return nil, fmt.Errorf("提交任务失败: %w", err)
	}
	if err := c.check(resp, &apiErr, http.StatusCreated); err != nil {
		return nil, err
	}
	return &task, nil
}

// GetTask 查询任务详情
func (c *Client) GetTask(ctx context.Context, id int64) (*TaskDetail, error) {
	var detail TaskDetail
	var apiErr APIError
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("task_id", strconv.FormatInt(id, 10)).
		SetResult(&detail).
		SetError(&apiErr).
		Get("/tasks/{task_id}")
	if err != nil {
		return nil, fmt.Errorf("查询任务失败: %w", err)
	}
	if err := c.check(resp, &apiErr, http.StatusOK); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListTasks 查询任务列表
func (c *Client) ListTasks(ctx context.Context, opts ListOptions) (*TaskList, error) {
	params := map[string]string{}
	if opts.Status != "" {
		params["status"] = opts.Status
	}
	if opts.Source != "" {
		params["source"] = opts.Source
	}
	if opts.Limit > 0 {
		params["limit"] = strconv.Itoa(opts.Limit)
	}
	if opts.Offset > 0 {
		params["offset"] = strconv.Itoa(opts.Offset)
	}

	var list TaskList
	var apiErr APIError
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&list).
		SetError(&apiErr).
		Get("/tasks")
	if err != nil {
		return nil, fmt.Errorf("查询任务列表失败: %w", err)
	}
	if err := c.check(resp, &apiErr, http.StatusOK); err != nil {
		return nil, err
	}
	return &list, nil
}

// RetryTask 基于已结束的任务创建新任务
func (c *Client) RetryTask(ctx context.Context, id int64) (*repository.Task, error) {
	var task repository.Task
	var apiErr APIError
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("task_id", strconv.FormatInt(id, 10)).
		SetResult(&task).
		SetError(&apiErr).
		Post("/tasks/{task_id}/retry")
	if err != nil {
		return nil, fmt.Errorf("重试任务失败: %w", err)
	}
	if err := c.check(resp, &apiErr, http.StatusCreated); err != nil {
		return nil, err
	}
	return &task, nil
}

// WaitForTerminal 轮询直到任务进入终态
func (c *Client) WaitForTerminal(ctx context.Context, id int64, interval time.Duration) (*repository.Task, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		detail, err := c.GetTask(ctx, id)
		if err != nil {
			return nil, err
		}
		if detail.Task != nil && detail.Task.Status.IsTerminal() {
			return detail.Task, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
