package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/campus-backend/internal/app/service"
	apperrors "github.com/ikkim/campus-backend/internal/errors"
	"github.com/ikkim/campus-backend/internal/middleware"
)

type EmailController struct {
	emailService service.EmailService
}

func NewEmailController(emailService service.EmailService) *EmailController {
	return &EmailController{
		emailService: emailService,
	}
}

type MassEmailRequest struct {
	Subject string `json:"subject" binding:"required,max=255"`
	Message string `json:"message" binding:"required"`
}

// SendToAll queues one BCC batch task per 500 users
// POST /api/v1/management/email/send
func (ctrl *EmailController) SendToAll(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req MassEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindingError(c, err)
		return
	}

	result, err := ctrl.emailService.SendToAll(req.Subject, req.Message)
	if err != nil {
		respondError(c, err, "Mass email", map[string]interface{}{
			"subject": req.Subject,
		})
		return
	}

	log.Info("Mass email queued", map[string]interface{}{
		"recipients": result.Recipients,
		"batches":    result.Batches,
	})

	c.JSON(http.StatusAccepted, result)
}

// Status reports the state of one batch task
// GET /api/v1/management/email/status/:task_id
func (ctrl *EmailController) Status(c *gin.Context) {
	taskID := c.Param("task_id")

	view, err := ctrl.emailService.Status(taskID)
	if err != nil {
		respondError(c, err, "Mass email status", map[string]interface{}{
			"task_id": taskID,
		})
		return
	}

	c.JSON(http.StatusOK, view)
}
