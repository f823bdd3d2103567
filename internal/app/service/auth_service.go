package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ikkim/campus-backend/internal/app/model"
	"github.com/ikkim/campus-backend/internal/app/repository"
	"github.com/ikkim/campus-backend/internal/cache"
	"github.com/ikkim/campus-backend/internal/events"
	"github.com/ikkim/campus-backend/internal/queue"
	"github.com/ikkim/campus-backend/pkg/logger"
	"github.com/ikkim/campus-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials     = errors.New("invalid username or password")
	ErrUserNotFound           = errors.New("user not found")
	ErrUserInactive           = errors.New("user account is disabled")
	ErrInvalidPhone           = errors.New("phone number is not a valid mobile number")
	ErrInvalidUniversity      = errors.New("university does not exist")
	ErrInvalidEducationStudy  = errors.New("education study does not exist")
	ErrTokenRevoked           = errors.New("token has been revoked")
	ErrTeacherNeedsUniversity = errors.New("teacher must belong to at least one university")
)

type Registration struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

type StudentRegistration struct {
	Registration
	UniversityID     *uint
	EducationStudyID *uint
}

type TeacherRegistration struct {
	Registration
	UniversityIDs []uint
}

type AuthService interface {
	RegisterStudent(ctx context.Context, req StudentRegistration) (*model.User, error)
	RegisterTeacher(ctx context.Context, req TeacherRegistration) (*model.User, error)
	Login(ctx context.Context, username, password string) (*model.User, *util.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*util.TokenPair, error)
	Verify(ctx context.Context, token string) (*util.Claims, error)
	Blacklist(ctx context.Context, refreshToken string) error
	Logout(ctx context.Context, accessToken, refreshToken string) error
	GetUserByID(id uint) (*model.User, error)
}

type authService struct {
	db            *gorm.DB
	userRepo      repository.UserRepository
	refRepo       repository.ReferenceRepository
	blacklist     *cache.TokenBlacklist
	invalidator   *cache.Invalidator
	queue         queue.Enqueuer
	publisher     events.Publisher
	jwtSecret     string
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

func NewAuthService(
	db *gorm.DB,
	userRepo repository.UserRepository,
	refRepo repository.ReferenceRepository,
	blacklist *cache.TokenBlacklist,
	invalidator *cache.Invalidator,
	enqueuer queue.Enqueuer,
	publisher events.Publisher,
	jwtSecret string,
	accessExpiry, refreshExpiry time.Duration,
) AuthService {
	return &authService{
		db:            db,
		userRepo:      userRepo,
		refRepo:       refRepo,
		blacklist:     blacklist,
		invalidator:   invalidator,
		queue:         enqueuer,
		publisher:     publisher,
		jwtSecret:     jwtSecret,
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
	}
}

// validateRegistration runs the checks shared by both roles before any write.
func (s *authService) validateRegistration(req *Registration) error {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Phone = strings.TrimSpace(req.Phone)

	if !model.PhonePattern.MatchString(req.Phone) {
		return ErrInvalidPhone
	}
	if err := util.ValidatePassword(req.Password, req.Username); err != nil {
		return err
	}

	taken, err := s.userRepo.TakenFields(req.Username, req.Email, req.Phone, 0)
	if err != nil {
		return err
	}
	if len(taken) > 0 {
		logger.Warn("Registration rejected: fields already taken", map[string]interface{}{
			"fields": taken,
		})
		return &FieldConflictError{Fields: taken}
	}
	return nil
}

func (s *authService) newUser(req Registration, role model.UserRole) (*model.User, error) {
	hashed, err := util.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	return &model.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hashed,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		Role:         role,
		IsActive:     true,
	}, nil
}

func (s *authService) RegisterStudent(ctx context.Context, req StudentRegistration) (*model.User, error) {
	logger.Info("Attempting student registration", map[string]interface{}{
		"username": req.Username,
	})

	if err := s.validateRegistration(&req.Registration); err != nil {
		return nil, err
	}
	if req.UniversityID != nil {
		if _, err := s.refRepo.FindUniversity(*req.UniversityID); err != nil {
			return nil, notFoundOr(err, ErrInvalidUniversity)
		}
	}
	if req.EducationStudyID != nil {
		if _, err := s.refRepo.FindEducationStudy(*req.EducationStudyID); err != nil {
			return nil, notFoundOr(err, ErrInvalidEducationStudy)
		}
	}

	user, err := s.newUser(req.Registration, model.RoleStudent)
	if err != nil {
		logger.Error("Failed to hash password", err)
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := repository.NewUserRepository(tx).Create(user); err != nil {
			return err
		}
		return repository.NewStudentRepository(tx).Create(&model.Student{
			UserID:           user.ID,
			UniversityID:     req.UniversityID,
			EducationStudyID: req.EducationStudyID,
		})
	})
	if err != nil {
		logger.Error("Student registration failed", err, map[string]interface{}{
			"username": req.Username,
		})
		return nil, err
	}

	s.afterRegistration(ctx, user)
	return user, nil
}

func (s *authService) RegisterTeacher(ctx context.Context, req TeacherRegistration) (*model.User, error) {
	logger.Info("Attempting teacher registration", map[string]interface{}{
		"username": req.Username,
	})

	if len(req.UniversityIDs) == 0 {
		return nil, ErrTeacherNeedsUniversity
	}
	if err := s.validateRegistration(&req.Registration); err != nil {
		return nil, err
	}
	count, err := s.refRepo.CountUniversities(req.UniversityIDs)
	if err != nil {
		return nil, err
	}
	if count != int64(len(uniqueIDs(req.UniversityIDs))) {
		return nil, ErrInvalidUniversity
	}

	user, err := s.newUser(req.Registration, model.RoleTeacher)
	if err != nil {
		logger.Error("Failed to hash password", err)
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := repository.NewUserRepository(tx).Create(user); err != nil {
			return err
		}
		return repository.NewTeacherRepository(tx).Create(&model.Teacher{UserID: user.ID}, req.UniversityIDs)
	})
	if err != nil {
		logger.Error("Teacher registration failed", err, map[string]interface{}{
			"username": req.Username,
		})
		return nil, err
	}

	s.afterRegistration(ctx, user)
	return user, nil
}

func (s *authService) afterRegistration(ctx context.Context, user *model.User) {
	taskID, err := s.queue.EnqueueWelcomeEmail(queue.WelcomeEmailPayload{
		UserID:   user.ID,
		Email:    user.Email,
		Username: user.Username,
	})
	if err != nil {
		logger.Warn("Welcome email not enqueued", map[string]interface{}{
			"user_id": user.ID,
			"error":   err.Error(),
		})
	}

	s.invalidator.Apply(ctx, cache.Mutation{Kind: cache.UserChanged})
	events.Emit(ctx, s.publisher, events.New(events.TypeUserRegistered, fmt.Sprint(user.ID), map[string]interface{}{
		"user_id": user.ID,
		"role":    user.Role,
	}))

	logger.Info("User registered successfully", map[string]interface{}{
		"user_id":  user.ID,
		"role":     user.Role,
		"email_id": taskID,
	})
}

func (s *authService) Login(ctx context.Context, username, password string) (*model.User, *util.TokenPair, error) {
	logger.Info("Login attempt", map[string]interface{}{
		"username": username,
	})

	user, err := s.userRepo.FindByUsername(strings.TrimSpace(username))
	if err != nil {
		if isNotFound(err) {
			logger.Warn("Login failed: user not found", map[string]interface{}{
				"username": username,
			})
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if !util.VerifyPassword(user.PasswordHash, password) {
		logger.Warn("Login failed: invalid password", map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, nil, ErrUserInactive
	}

	tokens, err := s.issue(user)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	if err := s.userRepo.UpdateLastLogin(user.ID, now); err != nil {
		logger.Warn("Failed to record last login", map[string]interface{}{
			"user_id": user.ID,
			"error":   err.Error(),
		})
	} else {
		user.LastLogin = &now
		s.invalidator.Apply(ctx, cache.Mutation{Kind: cache.UserChanged})
	}

	logger.Info("User logged in successfully", map[string]interface{}{
		"user_id": user.ID,
	})
	return user, tokens, nil
}

func (s *authService) issue(user *model.User) (*util.TokenPair, error) {
	tokens, err := util.GenerateTokenPair(
		user.ID,
		user.Email,
		string(user.Role),
		user.IsStaff,
		s.jwtSecret,
		s.accessExpiry,
		s.refreshExpiry,
	)
	if err != nil {
		logger.Error("Failed to generate tokens", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, err
	}
	return tokens, nil
}

// Refresh rotates the pair; the presented refresh token is revoked.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*util.TokenPair, error) {
	claims, err := s.validate(ctx, refreshToken, util.TokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		return nil, notFoundOr(err, ErrUserNotFound)
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	tokens, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	if err := s.blacklist.Revoke(ctx, refreshToken, claims.RemainingTTL()); err != nil {
		logger.Warn("Failed to revoke rotated refresh token", map[string]interface{}{
			"user_id": user.ID,
			"error":   err.Error(),
		})
	}
	return tokens, nil
}

func (s *authService) Verify(ctx context.Context, token string) (*util.Claims, error) {
	return s.validate(ctx, token, "")
}

func (s *authService) Blacklist(ctx context.Context, refreshToken string) error {
	claims, err := s.validate(ctx, refreshToken, util.TokenTypeRefresh)
	if err != nil {
		return err
	}
	return s.blacklist.Revoke(ctx, refreshToken, claims.RemainingTTL())
}

func (s *authService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	claims, err := util.ValidateToken(accessToken, s.jwtSecret)
	if err != nil {
		return err
	}
	if err := s.blacklist.Revoke(ctx, accessToken, claims.RemainingTTL()); err != nil {
		return err
	}
	if refreshToken != "" {
		if err := s.Blacklist(ctx, refreshToken); err != nil && !errors.Is(err, ErrTokenRevoked) {
			return err
		}
	}

	logger.Info("User logged out", map[string]interface{}{
		"user_id": claims.UserID,
	})
	return nil
}

func (s *authService) validate(ctx context.Context, token, tokenType string) (*util.Claims, error) {
	var (
		claims *util.Claims
		err    error
	)
	if tokenType == "" {
		claims, err = util.ValidateToken(token, s.jwtSecret)
	} else {
		claims, err = util.ValidateTokenType(token, s.jwtSecret, tokenType)
	}
	if err != nil {
		return nil, err
	}

	revoked, err := s.blacklist.IsRevoked(ctx, token)
	if err != nil {
		logger.Warn("Blacklist lookup failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
	if revoked {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

func (s *authService) GetUserByID(id uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		return nil, notFoundOr(err, ErrUserNotFound)
	}
	return user, nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
