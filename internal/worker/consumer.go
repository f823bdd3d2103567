package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/ikkim/campus-backend/internal/app/service"
	"github.com/ikkim/campus-backend/internal/cache"
	"github.com/ikkim/campus-backend/internal/metrics"
	"github.com/ikkim/campus-backend/internal/queue"
	"github.com/ikkim/campus-backend/internal/storage"
	"github.com/ikkim/campus-backend/pkg/logger"
	"github.com/ikkim/campus-backend/pkg/mailer"
)

const exportContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Consumer holds what the task handlers need. Objects may be nil, in which
// case exports are stored inline in the task result.
type Consumer struct {
	Mailer      mailer.Sender
	Links       service.ShortLinkService
	Reports     service.ReportService
	Chat        service.ChatService
	Objects     storage.ObjectStore
	Invalidator *cache.Invalidator
	Metrics     *metrics.JobMetrics
}

func (c *Consumer) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(queue.TypeWelcomeEmail, c.track(queue.TypeWelcomeEmail, c.handleWelcomeEmail))
	mux.HandleFunc(queue.TypeMassEmailBatch, c.track(queue.TypeMassEmailBatch, c.handleMassEmailBatch))
	mux.HandleFunc(queue.TypeTaskError, c.track(queue.TypeTaskError, c.handleTaskError))
	mux.HandleFunc(queue.TypeShortLinkClick, c.track(queue.TypeShortLinkClick, c.handleShortLinkClick))
	mux.HandleFunc(queue.TypeAvgOrderValue, c.track(queue.TypeAvgOrderValue, c.handleAvgOrderValue))
	mux.HandleFunc(queue.TypeHighSpenderExport, c.track(queue.TypeHighSpenderExport, c.handleHighSpenderExport))
	mux.HandleFunc(queue.TypeDeleteInactiveRooms, c.track(queue.TypeDeleteInactiveRooms, c.handleDeleteInactiveRooms))
}

func (c *Consumer) track(job string, h asynq.HandlerFunc) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		return c.Metrics.Track(job, func() error { return h(ctx, task) })
	}
}

func decode(task *asynq.Task, dest interface{}) error {
	if err := json.Unmarshal(task.Payload(), dest); err != nil {
		logger.Warn("Task payload rejected", map[string]interface{}{
			"type":  task.Type(),
			"error": err.Error(),
		})
		return fmt.Errorf("decode %s payload: %v: %w", task.Type(), err, asynq.SkipRetry)
	}
	return nil
}

func writeResult(task *asynq.Task, v interface{}) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w := task.ResultWriter()
	if w == nil {
		return nil
	}
	_, err = w.Write(body)
	return err
}

func (c *Consumer) handleWelcomeEmail(_ context.Context, task *asynq.Task) error {
	var p queue.WelcomeEmailPayload
	if err := decode(task, &p); err != nil {
		return err
	}
	subject, body := mailer.WelcomeMessage(p.Username)
	if err := c.Mailer.Send([]string{p.Email}, subject, body); err != nil {
		logger.Warn("Welcome email failed", map[string]interface{}{
			"user_id": p.UserID,
			"error":   err.Error(),
		})
		return err
	}
	logger.Info("Welcome email sent", map[string]interface{}{
		"user_id": p.UserID,
	})
	return nil
}

func (c *Consumer) handleMassEmailBatch(_ context.Context, task *asynq.Task) error {
	var p queue.MassEmailBatchPayload
	if err := decode(task, &p); err != nil {
		return err
	}
	if err := c.Mailer.SendBCC(p.Recipients, p.Subject, p.Body); err != nil {
		logger.Warn("Mass email batch failed", map[string]interface{}{
			"batch":      p.Batch,
			"recipients": len(p.Recipients),
			"error":      err.Error(),
		})
		return err
	}
	logger.Info("Mass email batch sent", map[string]interface{}{
		"batch":      p.Batch,
		"recipients": len(p.Recipients),
	})
	return nil
}

// handleTaskError is the dead-letter sink; it only records the failure.
func (c *Consumer) handleTaskError(_ context.Context, task *asynq.Task) error {
	var p queue.TaskErrorPayload
	if err := decode(task, &p); err != nil {
		return err
	}
	logger.Error("Task failed permanently", fmt.Errorf("%s", p.Error), map[string]interface{}{
		"task_id":   p.TaskID,
		"task_type": p.TaskType,
		"payload":   p.Payload,
	})
	return nil
}

func (c *Consumer) handleShortLinkClick(ctx context.Context, task *asynq.Task) error {
	var p queue.ShortLinkClickPayload
	if err := decode(task, &p); err != nil {
		return err
	}
	if err := c.Links.RecordClick(p.LinkID); err != nil {
		return err
	}
	c.Invalidator.Apply(ctx, cache.Mutation{Kind: cache.ShortLinkChanged, Code: p.Code})
	return nil
}

func (c *Consumer) handleAvgOrderValue(_ context.Context, task *asynq.Task) error {
	result, err := c.Reports.ComputeAvgOrderValue()
	if err != nil {
		return err
	}
	return writeResult(task, result)
}

func (c *Consumer) handleHighSpenderExport(ctx context.Context, task *asynq.Task) error {
	var p queue.HighSpenderExportPayload
	if err := decode(task, &p); err != nil {
		return err
	}
	if p.Threshold <= 0 {
		p.Threshold = service.DefaultHighSpenderThreshold
	}

	content, rows, err := c.Reports.BuildHighSpenderWorkbook(p.Threshold)
	if err != nil {
		return err
	}

	taskID, _ := asynq.GetTaskID(ctx)
	result := service.ExportResult{
		Filename: fmt.Sprintf("high-spenders-%s.xlsx", time.Now().Format("20060102-150405")),
		Rows:     rows,
	}
	if c.Objects != nil {
		key := fmt.Sprintf("exports/high-spenders/%s.xlsx", taskID)
		if err := c.Objects.Put(ctx, key, exportContentType, content); err != nil {
			return err
		}
		result.Key = key
	} else {
		result.Content = content
	}

	logger.Info("High spender export ready", map[string]interface{}{
		"task_id":      taskID,
		"rows":         rows,
		"requested_by": p.RequestedBy,
		"stored":       result.Key != "",
	})
	return writeResult(task, result)
}

func (c *Consumer) handleDeleteInactiveRooms(ctx context.Context, _ *asynq.Task) error {
	_, err := c.Chat.DeleteInactiveRooms(ctx)
	return err
}
