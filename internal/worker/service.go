package worker

import (
	"context"
	"errors"

	"github.com/hibiken/asynq"
	"github.com/ikkim/campus-backend/config"
	"github.com/ikkim/campus-backend/internal/queue"
	"github.com/ikkim/campus-backend/pkg/logger"
)

// DeadLetter receives tasks that failed for the last time.
type DeadLetter interface {
	EnqueueTaskError(p queue.TaskErrorPayload) (string, error)
}

type Service struct {
	server *asynq.Server
	mux    *asynq.ServeMux
}

func NewService(cfg *config.QueueConfig, redisCfg *config.RedisConfig, consumer *Consumer, deadLetter DeadLetter) (*Service, error) {
	if cfg == nil || !cfg.Enabled || redisCfg == nil || !redisCfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}

	serverCfg := queue.BuildServerConfig(cfg)
	serverCfg.Logger = logger.NewAsynqAdapter()
	serverCfg.ErrorHandler = NewErrorHandler(deadLetter)

	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		server: asynq.NewServer(queue.RedisOpt(redisCfg), serverCfg),
		mux:    mux,
	}, nil
}

// Start blocks until the server stops.
func (s *Service) Start() error {
	if s == nil || s.server == nil {
		return errors.New("worker not initialized")
	}
	return s.server.Run(s.mux)
}

func (s *Service) Stop() {
	if s == nil || s.server == nil {
		return
	}
	s.server.Shutdown()
}

// NewErrorHandler logs every failure and, on the last retry, forwards the
// task to the task:error handler.
func NewErrorHandler(deadLetter DeadLetter) asynq.ErrorHandler {
	return asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
		taskID, _ := asynq.GetTaskID(ctx)
		retried, _ := asynq.GetRetryCount(ctx)
		maxRetry, _ := asynq.GetMaxRetry(ctx)

		fields := map[string]interface{}{
			"task_id":   taskID,
			"task_type": task.Type(),
			"retried":   retried,
			"max_retry": maxRetry,
		}
		logger.Error("Task failed", err, fields)

		final := retried >= maxRetry || errors.Is(err, asynq.SkipRetry)
		if !final || deadLetter == nil || task.Type() == queue.TypeTaskError {
			return
		}
		if _, dlErr := deadLetter.EnqueueTaskError(queue.TaskErrorPayload{
			TaskID:   taskID,
			TaskType: task.Type(),
			Payload:  string(task.Payload()),
			Error:    err.Error(),
		}); dlErr != nil {
			logger.Error("Failed to enqueue task error", dlErr, fields)
		}
	})
}
