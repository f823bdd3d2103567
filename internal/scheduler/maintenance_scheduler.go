package scheduler

import (
	"context"
	"errors"

	"github.com/ikkim/campus-backend/internal/queue"
	"github.com/ikkim/campus-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// DefaultWarmUpSchedule runs just after the report caches roll over at midnight.
const DefaultWarmUpSchedule = "5 0 * * *"

// RoomCleaner enqueues the inactive-room cleanup task.
type RoomCleaner interface {
	EnqueueDeleteInactiveRooms() (string, error)
}

// InlineRoomCleaner deletes inactive rooms in process when no queue is available.
type InlineRoomCleaner interface {
	DeleteInactiveRooms(ctx context.Context) (int64, error)
}

type ReportWarmer interface {
	WarmUp(ctx context.Context)
}

// MaintenanceScheduler runs the nightly chat cleanup and report warm-up.
type MaintenanceScheduler struct {
	cron    *cron.Cron
	queue   RoomCleaner
	chat    InlineRoomCleaner
	reports ReportWarmer

	cleanupSchedule string
	warmUpSchedule  string
}

func NewMaintenanceScheduler(q RoomCleaner, chat InlineRoomCleaner, reports ReportWarmer, cleanupSchedule string) *MaintenanceScheduler {
	if cleanupSchedule == "" {
		cleanupSchedule = "0 0 * * *"
	}
	return &MaintenanceScheduler{
		cron:            cron.New(),
		queue:           q,
		chat:            chat,
		reports:         reports,
		cleanupSchedule: cleanupSchedule,
		warmUpSchedule:  DefaultWarmUpSchedule,
	}
}

func (s *MaintenanceScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cleanupSchedule, s.CleanupRooms); err != nil {
		logger.Error("Failed to add cron job for chat room cleanup", err, map[string]interface{}{
			"schedule": s.cleanupSchedule,
		})
		return err
	}

	if s.reports != nil {
		if _, err := s.cron.AddFunc(s.warmUpSchedule, s.WarmReports); err != nil {
			logger.Error("Failed to add cron job for report warm-up", err, map[string]interface{}{
				"schedule": s.warmUpSchedule,
			})
			return err
		}
	}

	s.cron.Start()
	logger.Info("Maintenance scheduler started", map[string]interface{}{
		"cleanup_schedule": s.cleanupSchedule,
		"warmup_schedule":  s.warmUpSchedule,
	})
	return nil
}

// CleanupRooms hands the cleanup to the worker, or runs it here when the
// queue is disabled.
func (s *MaintenanceScheduler) CleanupRooms() {
	taskID, err := s.queue.EnqueueDeleteInactiveRooms()
	if err == nil {
		logger.Info("Inactive room cleanup queued", map[string]interface{}{
			"task_id": taskID,
		})
		return
	}
	if !errors.Is(err, queue.ErrQueueDisabled) {
		logger.Error("Failed to queue inactive room cleanup", err)
		return
	}

	deleted, err := s.chat.DeleteInactiveRooms(context.Background())
	if err != nil {
		logger.Error("Inline room cleanup failed", err)
		return
	}
	logger.Info("Inactive rooms deleted inline", map[string]interface{}{
		"deleted": deleted,
	})
}

func (s *MaintenanceScheduler) WarmReports() {
	logger.Info("Warming report caches")
	s.reports.WarmUp(context.Background())
}

// Stop waits for running jobs to finish.
func (s *MaintenanceScheduler) Stop() {
	logger.Info("Stopping maintenance scheduler...")
	<-s.cron.Stop().Done()
	logger.Info("Maintenance scheduler stopped")
}
