package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/campus-backend/internal/app/repository"
	"github.com/ikkim/campus-backend/internal/app/service"
	apperrors "github.com/ikkim/campus-backend/internal/errors"
	"github.com/ikkim/campus-backend/internal/middleware"
)

// ManagementController is the staff surface over profiles and reference data.
type ManagementController struct {
	managementService service.ManagementService
}

func NewManagementController(managementService service.ManagementService) *ManagementController {
	return &ManagementController{
		managementService: managementService,
	}
}

type UpdateStudentRequest struct {
	UniversityID     *uint `json:"university"`
	EducationStudyID *uint `json:"education_study"`
}

type TeacherUniversitiesRequest struct {
	Universities []uint `json:"universities" binding:"required,min=1"`
}

type UniversityRequest struct {
	Name string `json:"name" binding:"required,max=255"`
	City string `json:"city" binding:"max=100"`
}

type EducationStudyRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

// queryUint reads an optional numeric query parameter.
func queryUint(c *gin.Context, name string) (*uint, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		apperrors.RespondWithValidationError(c, map[string]string{name: "must be a positive integer"})
		return nil, false
	}
	id := uint(v)
	return &id, true
}

// ListStudents filters by ?university= and ?education_study=
// GET /api/v1/management/uni/students
func (ctrl *ManagementController) ListStudents(c *gin.Context) {
	universityID, ok := queryUint(c, "university")
	if !ok {
		return
	}
	studyID, ok := queryUint(c, "education_study")
	if !ok {
		return
	}

	students, err := ctrl.managementService.ListStudents(repository.StudentFilter{
		UniversityID:     universityID,
		EducationStudyID: studyID,
	})
	if err != nil {
		respondError(c, err, "List students", nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"students": students,
		"count":    len(students),
	})
}

// GetStudent
// GET /api/v1/management/uni/students/:id
func (ctrl *ManagementController) GetStudent(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	student, err := ctrl.managementService.GetStudent(id)
	if err != nil {
		respondError(c, err, "Fetch student", map[string]interface{}{
			"user_id": id,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"student": student,
	})
}

// UpdateStudent moves a student to another university or education study
// PATCH /api/v1/management/uni/students/:id
func (ctrl *ManagementController) UpdateStudent(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req UpdateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindingError(c, err)
		return
	}

	student, err := ctrl.managementService.UpdateStudent(c.Request.Context(), actor, id, service.StudentUpdate{
		UniversityID:     req.UniversityID,
		EducationStudyID: req.EducationStudyID,
	})
	if err != nil {
		respondError(c, err, "Update student", map[string]interface{}{
			"user_id": id,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"student": student,
	})
}

// DeleteStudent removes the student and its user account
// DELETE /api/v1/management/uni/students/:id
func (ctrl *ManagementController) DeleteStudent(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := ctrl.managementService.DeleteStudent(c.Request.Context(), actor, id); err != nil {
		respondError(c, err, "Delete student", map[string]interface{}{
			"user_id": id,
		})
		return
	}

	log.Info("Student deleted", map[string]interface{}{
		"user_id":  id,
		"staff_id": actor.UserID,
	})

	c.Status(http.StatusNoContent)
}

// ListTeachers filters by ?name=
// GET /api/v1/management/uni/teachers
func (ctrl *ManagementController) ListTeachers(c *gin.Context) {
	teachers, err := ctrl.managementService.ListTeachers(c.Query("name"))
	if err != nil {
		respondError(c, err, "List teachers", nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"teachers": teachers,
		"count":    len(teachers),
	})
}

// GetTeacher
// GET /api/v1/management/uni/teachers/:id
func (ctrl *ManagementController) GetTeacher(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	teacher, err := ctrl.managementService.GetTeacher(id)
	if err != nil {
		respondError(c, err, "Fetch teacher", map[string]interface{}{
			"user_id": id,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"teacher": teacher,
	})
}

// SetTeacherUniversities replaces the teacher's university set
// PUT /api/v1/management/uni/teachers/:id/universities
func (ctrl *ManagementController) SetTeacherUniversities(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req TeacherUniversitiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindingError(c, err)
		return
	}

	teacher, err := ctrl.managementService.SetTeacherUniversities(c.Request.Context(), actor, id, req.Universities)
	if err != nil {
		respondError(c, err, "Set teacher universities", map[string]interface{}{
			"user_id": id,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"teacher": teacher,
	})
}

// DeleteTeacher
// DELETE /api/v1/management/uni/teachers/:id
func (ctrl *ManagementController) DeleteTeacher(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := ctrl.managementService.DeleteTeacher(c.Request.Context(), actor, id); err != nil {
		respondError(c, err, "Delete teacher", map[string]interface{}{
			"user_id": id,
		})
		return
	}

	c.Status(http.StatusNoContent)
}

// ListUniversities
// GET /api/v1/management/universities
func (ctrl *ManagementController) ListUniversities(c *gin.Context) {
	universities, err := ctrl.managementService.ListUniversities()
	if err != nil {
		respondError(c, err, "List universities", nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"universities": universities,
		"count":        len(universities),
	})
}

// CreateUniversity
// POST /api/v1/management/universities
func (ctrl *ManagementController) CreateUniversity(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req UniversityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindingError(c, err)
		return
	}

	university, err := ctrl.managementService.CreateUniversity(actor, service.UniversityInput{Name: req.Name, City: req.City})
	if err != nil {
		respondError(c, err, "Create university", map[string]interface{}{
			"name": req.Name,
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"university": university,
	})
}

// UpdateUniversity
// PUT /api/v1/management/universities/:id
func (ctrl *ManagementController) UpdateUniversity(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req UniversityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindingError(c, err)
		return
	}

	university, err := ctrl.managementService.UpdateUniversity(actor, id, service.UniversityInput{Name: req.Name, City: req.City})
	if err != nil {
		respondError(c, err, "Update university", map[string]interface{}{
			"university_id": id,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"university": university,
	})
}

// DeleteUniversity
// DELETE /api/v1/management/universities/:id
func (ctrl *ManagementController) DeleteUniversity(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := ctrl.managementService.DeleteUniversity(actor, id); err != nil {
		respondError(c, err, "Delete university", map[string]interface{}{
			"university_id": id,
		})
		return
	}

	c.Status(http.StatusNoContent)
}

// ListEducationStudies
// GET /api/v1/management/education-studies
func (ctrl *ManagementController) ListEducationStudies(c *gin.Context) {
	studies, err := ctrl.managementService.ListEducationStudies()
	if err != nil {
		respondError(c, err, "List education studies", nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"education_studies": studies,
		"count":             len(studies),
	})
}

// CreateEducationStudy
// POST /api/v1/management/education-studies
func (ctrl *ManagementController) CreateEducationStudy(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req EducationStudyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindingError(c, err)
		return
	}

	study, err := ctrl.managementService.CreateEducationStudy(actor, req.Name)
	if err != nil {
		respondError(c, err, "Create education study", map[string]interface{}{
			"name": req.Name,
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"education_study": study,
	})
}

// UpdateEducationStudy
// PUT /api/v1/management/education-studies/:id
func (ctrl *ManagementController) UpdateEducationStudy(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req EducationStudyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindingError(c, err)
		return
	}

	study, err := ctrl.managementService.UpdateEducationStudy(actor, id, req.Name)
	if err != nil {
		respondError(c, err, "Update education study", map[string]interface{}{
			"education_study_id": id,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"education_study": study,
	})
}

// DeleteEducationStudy
// DELETE /api/v1/management/education-studies/:id
func (ctrl *ManagementController) DeleteEducationStudy(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := ctrl.managementService.DeleteEducationStudy(actor, id); err != nil {
		respondError(c, err, "Delete education study", map[string]interface{}{
			"education_study_id": id,
		})
		return
	}

	c.Status(http.StatusNoContent)
}
