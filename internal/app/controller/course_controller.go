package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/campus-backend/internal/app/service"
	apperrors "github.com/ikkim/campus-backend/internal/errors"
	"github.com/ikkim/campus-backend/internal/middleware"
)

// CourseController serves the store, student, teacher and management views
// of courses. Ownership is decided by the service from the caller.
type CourseController struct {
	courseService service.CourseService
}

func NewCourseController(courseService service.CourseService) *CourseController {
	return &CourseController{
		courseService: courseService,
	}
}

type CourseRequest struct {
	Name        string `json:"name" binding:"required,max=200"`
	Description string `json:"description"`
	IsFree      bool   `json:"is_free"`
	Price       int64  `json:"price" binding:"min=0"`
	TeacherID   uint   `json:"teacher_id"`
}

func (r CourseRequest) input() service.CourseInput {
	return service.CourseInput{
		Name:        r.Name,
		Description: r.Description,
		IsFree:      r.IsFree,
		Price:       r.Price,
		TeacherID:   r.TeacherID,
	}
}

type VideoRequest struct {
	Description string `json:"description"`
	VideoURL    string `json:"video_url" binding:"required,max=500"`
	IsFree      bool   `json:"is_free"`
}

type UploadURLRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
	Size        int64  `json:"file_size" binding:"required,min=1"`
}

func (r UploadURLRequest) request() service.VideoUploadRequest {
	return service.VideoUploadRequest{Filename: r.Filename, ContentType: r.ContentType, Size: r.Size}
}

// ListStoreCourses lists every course
// GET /api/v1/store/courses
func (ctrl *CourseController) ListStoreCourses(c *gin.Context) {
	courses, err := ctrl.courseService.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, err, "List courses", nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"courses": courses,
		"count":   len(courses),
	})
}

// ListMyEnrolledCourses lists the courses the caller is enrolled in
// GET /api/v1/user/courses
func (ctrl *CourseController) ListMyEnrolledCourses(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	courses, err := ctrl.courseService.ListForStudent(c.Request.Context(), actor.UserID)
	if err != nil {
		respondError(c, err, "List enrolled courses", map[string]interface{}{
			"user_id": actor.UserID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"courses": courses,
		"count":   len(courses),
	})
}

// ListTeacherCourses lists the caller's own courses
// GET /api/v1/teachers/me/courses
func (ctrl *CourseController) ListTeacherCourses(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	courses, err := ctrl.courseService.ListForTeacher(actor.UserID)
	if err != nil {
		respondError(c, err, "List teacher courses", map[string]interface{}{
			"user_id": actor.UserID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"courses": courses,
		"count":   len(courses),
	})
}

// ListManagedCourses lists every course with its student count
// GET /api/v1/management/uni/courses
func (ctrl *CourseController) ListManagedCourses(c *gin.Context) {
	courses, err := ctrl.courseService.ListWithStudentCount()
	if err != nil {
		respondError(c, err, "List managed courses", nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"courses": courses,
		"count":   len(courses),
	})
}

// GetCourse returns one course the caller owns (or any, for staff)
// GET /api/v1/teachers/me/courses/:id
func (ctrl *CourseController) GetCourse(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	course, err := ctrl.courseService.Get(actor, id)
	if err != nil {
		respondError(c, err, "Fetch course", map[string]interface{}{
			"course_id": id,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"course": course,
	})
}

// CreateCourse creates a course; staff may name the teacher
// POST /api/v1/teachers/me/courses
func (ctrl *CourseController) CreateCourse(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req CourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid course request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.RespondWithBindingError(c, err)
		return
	}

	course, err := ctrl.courseService.Create(c.Request.Context(), actor, req.input())
	if err != nil {
		respondError(c, err, "Create course", map[string]interface{}{
			"user_id": actor.UserID,
			"name":    req.Name,
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"course": course,
	})
}

// UpdateCourse replaces a course's fields
// PUT /api/v1/teachers/me/courses/:id
func (ctrl *CourseController) UpdateCourse(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req CourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindingError(c, err)
		return
	}

	course, err := ctrl.courseService.Update(c.Request.Context(), actor, id, req.input())
	if err != nil {
		respondError(c, err, "Update course", map[string]interface{}{
			"course_id": id,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"course": course,
	})
}

// DeleteCourse removes a course with its videos and enrollments
// DELETE /api/v1/teachers/me/courses/:id
func (ctrl *CourseController) DeleteCourse(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := ctrl.courseService.Delete(c.Request.Context(), actor, id); err != nil {
		respondError(c, err, "Delete course", map[string]interface{}{
			"course_id": id,
		})
		return
	}

	c.Status(http.StatusNoContent)
}

// ListCourseVideos lists videos; locked ones are hidden unless the caller
// owns the course or is enrolled
// GET /api/v1/store/courses/:id/videos
func (ctrl *CourseController) ListCourseVideos(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	videos, err := ctrl.courseService.ListVideos(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err, "List course videos", map[string]interface{}{
			"course_id": id,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"videos": videos,
		"count":  len(videos),
	})
}

// ListAllVideos
// GET /api/v1/management/uni/videos
func (ctrl *CourseController) ListAllVideos(c *gin.Context) {
	videos, err := ctrl.courseService.ListAllVideos()
	if err != nil {
		respondError(c, err, "List videos", nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"videos": videos,
		"count":  len(videos),
	})
}

// CreateVideo adds a video to a course the caller owns
// POST /api/v1/teachers/me/courses/:id/videos
func (ctrl *CourseController) CreateVideo(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req VideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindingError(c, err)
		return
	}

	video, err := ctrl.courseService.CreateVideo(c.Request.Context(), actor, id, service.VideoInput{
		Description: req.Description,
		VideoURL:    req.VideoURL,
		IsFree:      req.IsFree,
	})
	if err != nil {
		respondError(c, err, "Create video", map[string]interface{}{
			"course_id": id,
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"video": video,
	})
}

// UpdateVideo
// PUT /api/v1/teachers/me/videos/:video_id
func (ctrl *CourseController) UpdateVideo(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "video_id")
	if !ok {
		return
	}

	var req VideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindingError(c, err)
		return
	}

	video, err := ctrl.courseService.UpdateVideo(c.Request.Context(), actor, id, service.VideoInput{
		Description: req.Description,
		VideoURL:    req.VideoURL,
		IsFree:      req.IsFree,
	})
	if err != nil {
		respondError(c, err, "Update video", map[string]interface{}{
			"video_id": id,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"video": video,
	})
}

// DeleteVideo
// DELETE /api/v1/teachers/me/videos/:video_id
func (ctrl *CourseController) DeleteVideo(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "video_id")
	if !ok {
		return
	}

	if err := ctrl.courseService.DeleteVideo(c.Request.Context(), actor, id); err != nil {
		respondError(c, err, "Delete video", map[string]interface{}{
			"video_id": id,
		})
		return
	}

	c.Status(http.StatusNoContent)
}

// PresignVideoUpload returns a presigned PUT URL for an .mp4 upload
// POST /api/v1/teachers/me/courses/:id/videos/upload-url
func (ctrl *CourseController) PresignVideoUpload(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindingError(c, err)
		return
	}

	resp, err := ctrl.courseService.PresignVideoUpload(c.Request.Context(), actor, id, req.request())
	if err != nil {
		respondError(c, err, "Presign video upload", map[string]interface{}{
			"course_id": id,
			"filename":  req.Filename,
		})
		return
	}

	log.Info("Video upload URL issued", map[string]interface{}{
		"course_id": id,
		"key":       resp.Key,
	})

	c.JSON(http.StatusOK, resp)
}
