package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/campus-backend/internal/app/service"
	apperrors "github.com/ikkim/campus-backend/internal/errors"
	"github.com/ikkim/campus-backend/internal/middleware"
)

type EnrollmentController struct {
	enrollmentService service.EnrollmentService
}

func NewEnrollmentController(enrollmentService service.EnrollmentService) *EnrollmentController {
	return &EnrollmentController{
		enrollmentService: enrollmentService,
	}
}

type EnrollRequest struct {
	CourseID uint `json:"course_id" binding:"required"`
}

type GrantEnrollmentRequest struct {
	UserID   uint `json:"user_id" binding:"required"`
	CourseID uint `json:"course_id" binding:"required"`
}

// Enroll joins the caller to a free course
// POST /api/v1/user/enrollments
func (ctrl *EnrollmentController) Enroll(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindingError(c, err)
		return
	}

	enrollment, err := ctrl.enrollmentService.Enroll(c.Request.Context(), actor, req.CourseID)
	if err != nil {
		respondError(c, err, "Enroll", map[string]interface{}{
			"user_id":   actor.UserID,
			"course_id": req.CourseID,
		})
		return
	}

	log.Info("User enrolled", map[string]interface{}{
		"user_id":   actor.UserID,
		"course_id": req.CourseID,
	})

	c.JSON(http.StatusCreated, gin.H{
		"enrollment": enrollment,
	})
}

// ListMyEnrollments
// GET /api/v1/user/enrollments
func (ctrl *EnrollmentController) ListMyEnrollments(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	enrollments, err := ctrl.enrollmentService.ListMine(c.Request.Context(), actor.UserID)
	if err != nil {
		respondError(c, err, "List enrollments", map[string]interface{}{
			"user_id": actor.UserID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"enrollments": enrollments,
		"count":       len(enrollments),
	})
}

// ListAllEnrollments
// GET /api/v1/management/enrollments
func (ctrl *EnrollmentController) ListAllEnrollments(c *gin.Context) {
	enrollments, err := ctrl.enrollmentService.ListAll()
	if err != nil {
		respondError(c, err, "List all enrollments", nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"enrollments": enrollments,
		"count":       len(enrollments),
	})
}

// GrantEnrollment enrolls any user in any course, paid or not
// POST /api/v1/management/enrollments
func (ctrl *EnrollmentController) GrantEnrollment(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req GrantEnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindingError(c, err)
		return
	}

	enrollment, err := ctrl.enrollmentService.Grant(c.Request.Context(), actor, req.UserID, req.CourseID)
	if err != nil {
		respondError(c, err, "Grant enrollment", map[string]interface{}{
			"user_id":   req.UserID,
			"course_id": req.CourseID,
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"enrollment": enrollment,
	})
}

// DeleteEnrollment removes the caller's enrollment (or any, for staff)
// DELETE /api/v1/user/enrollments/:id
func (ctrl *EnrollmentController) DeleteEnrollment(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := ctrl.enrollmentService.Delete(c.Request.Context(), actor, id); err != nil {
		respondError(c, err, "Delete enrollment", map[string]interface{}{
			"enrollment_id": id,
		})
		return
	}

	c.Status(http.StatusNoContent)
}
