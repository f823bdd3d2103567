package service

import (
	"errors"
	"strings"

	"github.com/ikkim/campus-backend/internal/app/repository"
	"github.com/ikkim/campus-backend/internal/queue"
	"github.com/ikkim/campus-backend/pkg/logger"
)

var (
	ErrEmptyEmail   = errors.New("subject and body are required")
	ErrNoRecipients = errors.New("no recipients")
)

type MassEmailResult struct {
	TaskIDs    []string `json:"task_ids"`
	Recipients int      `json:"recipients"`
	Batches    int      `json:"batches"`
}

type EmailService interface {
	SendToAll(subject, body string) (*MassEmailResult, error)
	Status(taskID string) (*TaskView, error)
}

type emailService struct {
	userRepo repository.UserRepository
	queue    queue.Enqueuer
}

func NewEmailService(userRepo repository.UserRepository, enqueuer queue.Enqueuer) EmailService {
	return &emailService{userRepo: userRepo, queue: enqueuer}
}

// SendToAll enqueues one BCC batch task per queue.MassEmailBatchSize users.
// Batches enqueued before a failure stay queued.
func (s *emailService) SendToAll(subject, body string) (*MassEmailResult, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" || strings.TrimSpace(body) == "" {
		return nil, ErrEmptyEmail
	}

	emails, err := s.userRepo.ListEmails()
	if err != nil {
		return nil, err
	}
	if len(emails) == 0 {
		return nil, ErrNoRecipients
	}

	batches := queue.ChunkRecipients(emails)
	result := &MassEmailResult{Recipients: len(emails), Batches: len(batches)}
	for i, recipients := range batches {
		id, err := s.queue.EnqueueMassEmailBatch(queue.MassEmailBatchPayload{
			Subject:    subject,
			Body:       body,
			Recipients: recipients,
			Batch:      i + 1,
		})
		if err != nil {
			logger.Error("Failed to enqueue mass email batch", err, map[string]interface{}{
				"batch":    i + 1,
				"enqueued": len(result.TaskIDs),
			})
			return result, err
		}
		result.TaskIDs = append(result.TaskIDs, id)
	}

	logger.Info("Mass email enqueued", map[string]interface{}{
		"recipients": result.Recipients,
		"batches":    result.Batches,
	})
	return result, nil
}

func (s *emailService) Status(taskID string) (*TaskView, error) {
	status, err := s.queue.TaskStatus(taskID)
	if err != nil {
		if errors.Is(err, queue.ErrTaskNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	if status.Type != queue.TypeMassEmailBatch {
		return nil, ErrTaskNotFound
	}
	return &TaskView{
		TaskID: status.ID,
		State:  status.State,
		Ready:  status.Ready(),
		Error:  status.LastErr,
	}, nil
}
