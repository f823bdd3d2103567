package queue

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/ikkim/campus-backend/config"
)

var (
	ErrQueueDisabled = errors.New("task queue is disabled")
	ErrTaskNotFound  = errors.New("task not found")
)

// Retry policy per task type.
const (
	WelcomeEmailMaxRetry = 5
	MassEmailMaxRetry    = 3
	CleanupMaxRetry      = 3
	EmailTimeout         = 30 * time.Second
)

// TaskStatus mirrors what the status endpoints expose for a task id.
type TaskStatus struct {
	ID       string `json:"task_id"`
	Type     string `json:"type"`
	State    string `json:"state"`
	Retried  int    `json:"retried"`
	MaxRetry int    `json:"max_retry"`
	LastErr  string `json:"last_error,omitempty"`
	Result   []byte `json:"-"`
}

func (s *TaskStatus) Ready() bool {
	return s.State == asynq.TaskStateCompleted.String()
}

// Enqueuer is the producer side used by services; *Client implements it.
type Enqueuer interface {
	EnqueueWelcomeEmail(p WelcomeEmailPayload) (string, error)
	EnqueueMassEmailBatch(p MassEmailBatchPayload) (string, error)
	EnqueueShortLinkClick(p ShortLinkClickPayload) (string, error)
	EnqueueAvgOrderValue() (string, error)
	EnqueueHighSpenderExport(p HighSpenderExportPayload) (string, error)
	EnqueueDeleteInactiveRooms() (string, error)
	TaskStatus(taskID string) (*TaskStatus, error)
}

type Client struct {
	client    *asynq.Client
	inspector *asynq.Inspector
	enabled   bool
	retention time.Duration
	queues    []string
}

// NewClient returns a disabled client when cfg is nil, disabled, or Redis is off.
func NewClient(cfg *config.QueueConfig, redisCfg *config.RedisConfig) *Client {
	if cfg == nil || !cfg.Enabled || redisCfg == nil || !redisCfg.Enabled {
		return &Client{enabled: false}
	}
	opt := RedisOpt(redisCfg)
	queues := make([]string, 0, len(cfg.Queues))
	for q := range cfg.Queues {
		queues = append(queues, q)
	}
	return &Client{
		client:    asynq.NewClient(opt),
		inspector: asynq.NewInspector(opt),
		enabled:   true,
		retention: cfg.ResultRetention,
		queues:    queues,
	}
}

func RedisOpt(cfg *config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// BuildServerConfig derives the worker server options from config.
func BuildServerConfig(cfg *config.QueueConfig) asynq.Config {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 10
	}
	queues := cfg.Queues
	if len(queues) == 0 {
		queues = map[string]int{QueueCritical: 6, QueueDefault: 3, QueueLow: 1}
	}
	return asynq.Config{
		Concurrency:    concurrency,
		Queues:         queues,
		RetryDelayFunc: RetryDelay,
	}
}

// RetryDelay is fixed for mail and cleanup tasks and exponential otherwise.
func RetryDelay(n int, err error, task *asynq.Task) time.Duration {
	switch task.Type() {
	case TypeWelcomeEmail, TypeMassEmailBatch:
		return 10 * time.Second
	case TypeDeleteInactiveRooms:
		return 30 * time.Second
	}
	return asynq.DefaultRetryDelayFunc(n, err, task)
}

func (c *Client) Enabled() bool {
	return c != nil && c.enabled && c.client != nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	if c.inspector != nil {
		c.inspector.Close()
	}
	return c.client.Close()
}

func (c *Client) enqueue(task *asynq.Task, err error, opts ...asynq.Option) (string, error) {
	if err != nil {
		return "", err
	}
	if !c.Enabled() {
		return "", ErrQueueDisabled
	}
	options := append([]asynq.Option{asynq.Queue(QueueDefault), asynq.TaskID(uuid.NewString())}, opts...)
	info, err := c.client.Enqueue(task, options...)
	if err != nil {
		return "", fmt.Errorf("enqueue %s: %w", task.Type(), err)
	}
	return info.ID, nil
}

func (c *Client) EnqueueWelcomeEmail(p WelcomeEmailPayload) (string, error) {
	task, err := NewWelcomeEmailTask(p)
	return c.enqueue(task, err, asynq.MaxRetry(WelcomeEmailMaxRetry), asynq.Timeout(EmailTimeout))
}

func (c *Client) EnqueueMassEmailBatch(p MassEmailBatchPayload) (string, error) {
	task, err := NewMassEmailBatchTask(p)
	return c.enqueue(task, err, asynq.MaxRetry(MassEmailMaxRetry), asynq.Timeout(2*EmailTimeout), asynq.Retention(c.retention))
}

func (c *Client) EnqueueTaskError(p TaskErrorPayload) (string, error) {
	task, err := NewTaskErrorTask(p)
	return c.enqueue(task, err, asynq.Queue(QueueCritical), asynq.MaxRetry(0))
}

func (c *Client) EnqueueShortLinkClick(p ShortLinkClickPayload) (string, error) {
	task, err := NewShortLinkClickTask(p)
	return c.enqueue(task, err, asynq.Queue(QueueLow), asynq.MaxRetry(3))
}

func (c *Client) EnqueueAvgOrderValue() (string, error) {
	task, err := NewAvgOrderValueTask()
	return c.enqueue(task, err, asynq.Retention(c.retention))
}

func (c *Client) EnqueueHighSpenderExport(p HighSpenderExportPayload) (string, error) {
	task, err := NewHighSpenderExportTask(p)
	return c.enqueue(task, err, asynq.Retention(c.retention), asynq.Timeout(5*time.Minute))
}

func (c *Client) EnqueueDeleteInactiveRooms() (string, error) {
	task, err := NewDeleteInactiveRoomsTask()
	return c.enqueue(task, err, asynq.MaxRetry(CleanupMaxRetry))
}

// TaskStatus looks a task up in every configured queue.
func (c *Client) TaskStatus(taskID string) (*TaskStatus, error) {
	if !c.Enabled() || c.inspector == nil {
		return nil, ErrQueueDisabled
	}
	for _, q := range c.queues {
		info, err := c.inspector.GetTaskInfo(q, taskID)
		if err != nil {
			if errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
				continue
			}
			return nil, err
		}
		return &TaskStatus{
			ID:       info.ID,
			Type:     info.Type,
			State:    info.State.String(),
			Retried:  info.Retried,
			MaxRetry: info.MaxRetry,
			LastErr:  info.LastErr,
			Result:   info.Result,
		}, nil
	}
	return nil, ErrTaskNotFound
}
