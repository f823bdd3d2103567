package queue

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	TypeWelcomeEmail        = "email:welcome"
	TypeMassEmailBatch      = "email:mass_batch"
	TypeTaskError           = "task:error"
	TypeShortLinkClick      = "shortlink:click"
	TypeAvgOrderValue       = "report:avg_order_value"
	TypeHighSpenderExport   = "report:high_spender_export"
	TypeDeleteInactiveRooms = "chat:delete_inactive_rooms"
)

const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// MassEmailBatchSize caps the BCC list of a single outgoing message.
const MassEmailBatchSize = 500

type WelcomeEmailPayload struct {
	UserID   uint   `json:"user_id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

type MassEmailBatchPayload struct {
	Subject    string   `json:"subject"`
	Body       string   `json:"body"`
	Recipients []string `json:"recipients"`
	Batch      int      `json:"batch"`
}

// TaskErrorPayload is enqueued once a task exhausts its retries.
type TaskErrorPayload struct {
	TaskID   string `json:"task_id"`
	TaskType string `json:"task_type"`
	Payload  string `json:"payload"`
	Error    string `json:"error"`
}

type ShortLinkClickPayload struct {
	LinkID uint   `json:"link_id"`
	Code   string `json:"code"`
}

type AvgOrderValuePayload struct{}

type HighSpenderExportPayload struct {
	Threshold   int64 `json:"threshold"`
	RequestedBy uint  `json:"requested_by"`
}

type DeleteInactiveRoomsPayload struct{}

func newTask(taskType string, payload interface{}) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, body), nil
}

func NewWelcomeEmailTask(p WelcomeEmailPayload) (*asynq.Task, error) {
	return newTask(TypeWelcomeEmail, p)
}

func NewMassEmailBatchTask(p MassEmailBatchPayload) (*asynq.Task, error) {
	return newTask(TypeMassEmailBatch, p)
}

func NewTaskErrorTask(p TaskErrorPayload) (*asynq.Task, error) {
	return newTask(TypeTaskError, p)
}

func NewShortLinkClickTask(p ShortLinkClickPayload) (*asynq.Task, error) {
	return newTask(TypeShortLinkClick, p)
}

func NewAvgOrderValueTask() (*asynq.Task, error) {
	return newTask(TypeAvgOrderValue, AvgOrderValuePayload{})
}

func NewHighSpenderExportTask(p HighSpenderExportPayload) (*asynq.Task, error) {
	return newTask(TypeHighSpenderExport, p)
}

func NewDeleteInactiveRoomsTask() (*asynq.Task, error) {
	return newTask(TypeDeleteInactiveRooms, DeleteInactiveRoomsPayload{})
}

// ChunkRecipients splits addresses into MassEmailBatchSize groups.
func ChunkRecipients(addresses []string) [][]string {
	var batches [][]string
	for start := 0; start < len(addresses); start += MassEmailBatchSize {
		end := start + MassEmailBatchSize
		if end > len(addresses) {
			end = len(addresses)
		}
		batches = append(batches, addresses[start:end])
	}
	return batches
}
