package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/campus-backend/internal/app/service"
	apperrors "github.com/ikkim/campus-backend/internal/errors"
	"github.com/ikkim/campus-backend/internal/middleware"
)

type AuthController struct {
	authService service.AuthService
}

func NewAuthController(authService service.AuthService) *AuthController {
	return &AuthController{
		authService: authService,
	}
}

type RegisterRequest struct {
	Username  string `json:"username" binding:"required,max=150"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"first_name" binding:"max=150"`
	LastName  string `json:"last_name" binding:"max=150"`
	Phone     string `json:"phone" binding:"required,ir_mobile"`
}

func (r RegisterRequest) registration() service.Registration {
	return service.Registration{
		Username:  r.Username,
		Email:     r.Email,
		Password:  r.Password,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Phone:     r.Phone,
	}
}

type RegisterStudentRequest struct {
	RegisterRequest
	UniversityID     *uint `json:"university"`
	EducationStudyID *uint `json:"education_study"`
}

type RegisterTeacherRequest struct {
	RegisterRequest
	Universities []uint `json:"universities" binding:"required,min=1"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

type VerifyRequest struct {
	Token string `json:"token" binding:"required"`
}

type LogoutRequest struct {
	Refresh string `json:"refresh"`
}

// RegisterStudent creates a student account with its profile
// POST /api/v1/account/register/student
func (ctrl *AuthController) RegisterStudent(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req RegisterStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid student registration request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.RespondWithBindingError(c, err)
		return
	}

	user, err := ctrl.authService.RegisterStudent(c.Request.Context(), service.StudentRegistration{
		Registration:     req.registration(),
		UniversityID:     req.UniversityID,
		EducationStudyID: req.EducationStudyID,
	})
	if err != nil {
		respondError(c, err, "Student registration", map[string]interface{}{
			"username": req.Username,
		})
		return
	}

	log.Info("Student registered", map[string]interface{}{
		"user_id": user.ID,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message": "Student registered successfully",
		"user":    user,
	})
}

// RegisterTeacher creates a teacher account linked to its universities
// POST /api/v1/account/register/teacher
func (ctrl *AuthController) RegisterTeacher(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req RegisterTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid teacher registration request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.RespondWithBindingError(c, err)
		return
	}

	user, err := ctrl.authService.RegisterTeacher(c.Request.Context(), service.TeacherRegistration{
		Registration:  req.registration(),
		UniversityIDs: req.Universities,
	})
	if err != nil {
		respondError(c, err, "Teacher registration", map[string]interface{}{
			"username": req.Username,
		})
		return
	}

	log.Info("Teacher registered", map[string]interface{}{
		"user_id": user.ID,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message": "Teacher registered successfully",
		"user":    user,
	})
}

// Login exchanges credentials for a token pair
// POST /api/v1/auth/login
func (ctrl *AuthController) Login(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid login request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.RespondWithBindingError(c, err)
		return
	}

	user, tokens, err := ctrl.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err, "Login", map[string]interface{}{
			"username": req.Username,
		})
		return
	}

	log.Info("User logged in", map[string]interface{}{
		"user_id": user.ID,
	})

	c.JSON(http.StatusOK, gin.H{
		"user":    user,
		"access":  tokens.AccessToken,
		"refresh": tokens.RefreshToken,
	})
}

// Refresh rotates a refresh token
// POST /api/v1/auth/token/refresh
func (ctrl *AuthController) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindingError(c, err)
		return
	}

	tokens, err := ctrl.authService.Refresh(c.Request.Context(), req.Refresh)
	if err != nil {
		respondError(c, err, "Token refresh", nil)
		return
	}

	c.JSON(http.StatusOK, tokens)
}

// Verify checks a token's signature, expiry and revocation
// POST /api/v1/auth/token/verify
func (ctrl *AuthController) Verify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindingError(c, err)
		return
	}

	claims, err := ctrl.authService.Verify(c.Request.Context(), req.Token)
	if err != nil {
		respondError(c, err, "Token verify", nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid":      true,
		"user_id":    claims.UserID,
		"token_type": claims.TokenType,
	})
}

// Blacklist revokes a refresh token
// POST /api/v1/auth/token/blacklist
func (ctrl *AuthController) Blacklist(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindingError(c, err)
		return
	}

	if err := ctrl.authService.Blacklist(c.Request.Context(), req.Refresh); err != nil {
		respondError(c, err, "Token blacklist", nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Token blacklisted",
	})
}

// Logout revokes the current access token and, when given, the refresh token
// POST /api/v1/auth/logout
func (ctrl *AuthController) Logout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req LogoutRequest
	// The body is optional.
	_ = c.ShouldBindJSON(&req)

	if err := ctrl.authService.Logout(c.Request.Context(), middleware.GetToken(c), req.Refresh); err != nil {
		respondError(c, err, "Logout", nil)
		return
	}

	userID, _ := middleware.GetUserID(c)
	log.Info("User logged out", map[string]interface{}{
		"user_id": userID,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out",
	})
}

// Me returns the authenticated user
// GET /api/v1/auth/me
func (ctrl *AuthController) Me(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	user, err := ctrl.authService.GetUserByID(actor.UserID)
	if err != nil {
		respondError(c, err, "Fetch current user", map[string]interface{}{
			"user_id": actor.UserID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": user,
	})
}
