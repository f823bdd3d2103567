package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/ikkim/campus-backend/internal/app/model"
	"github.com/ikkim/campus-backend/internal/app/repository"
	"github.com/ikkim/campus-backend/internal/cache"
	"github.com/ikkim/campus-backend/internal/queue"
	"github.com/ikkim/campus-backend/pkg/logger"
)

var (
	ErrShortLinkNotFound  = errors.New("short link not found")
	ErrInvalidProductType = errors.New("invalid product type")
	ErrProductNotFound    = errors.New("product not found")
)

type ShortLinkStats struct {
	Code     string            `json:"code"`
	Clicks   int64             `json:"clicks"`
	Model    model.ProductType `json:"model"`
	ObjectID uint              `json:"object_id"`
}

type ShortLinkService interface {
	Create(ctx context.Context, targetType model.ProductType, targetID uint) (*model.ShortLink, error)
	// EnsureFor runs after a course or book is created; failures are logged only.
	EnsureFor(ctx context.Context, targetType model.ProductType, targetID uint)
	// Forget drops the link of a deleted target.
	Forget(ctx context.Context, targetType model.ProductType, targetID uint)
	// Resolve returns the frontend URL and counts the click without waiting for it.
	Resolve(ctx context.Context, code string) (string, error)
	Stats(ctx context.Context, code string) (*ShortLinkStats, error)
	RecordClick(linkID uint) error
}

type shortLinkService struct {
	linkRepo    repository.ShortLinkRepository
	courseRepo  repository.CourseRepository
	bookRepo    repository.BookRepository
	cache       cache.Store
	queue       queue.Enqueuer
	frontendURL string
}

func NewShortLinkService(
	linkRepo repository.ShortLinkRepository,
	courseRepo repository.CourseRepository,
	bookRepo repository.BookRepository,
	store cache.Store,
	enqueuer queue.Enqueuer,
	frontendURL string,
) ShortLinkService {
	return &shortLinkService{
		linkRepo:    linkRepo,
		courseRepo:  courseRepo,
		bookRepo:    bookRepo,
		cache:       store,
		queue:       enqueuer,
		frontendURL: frontendURL,
	}
}

func (s *shortLinkService) Create(ctx context.Context, targetType model.ProductType, targetID uint) (*model.ShortLink, error) {
	if !targetType.Valid() {
		return nil, ErrInvalidProductType
	}

	var err error
	switch targetType {
	case model.ProductCourse:
		_, err = s.courseRepo.FindByID(targetID)
	case model.ProductBook:
		_, err = s.bookRepo.FindByID(targetID)
	}
	if err != nil {
		return nil, notFoundOr(err, ErrProductNotFound)
	}

	return s.linkRepo.GetOrCreate(targetType, targetID)
}

func (s *shortLinkService) EnsureFor(ctx context.Context, targetType model.ProductType, targetID uint) {
	link, err := s.linkRepo.GetOrCreate(targetType, targetID)
	if err != nil {
		logger.Error("Failed to create short link", err, map[string]interface{}{
			"target_type": targetType,
			"target_id":   targetID,
		})
		return
	}
	logger.Debug("Short link ready", map[string]interface{}{
		"code":      link.Code,
		"target_id": targetID,
	})
}

func (s *shortLinkService) Forget(ctx context.Context, targetType model.ProductType, targetID uint) {
	if err := s.linkRepo.DeleteByTarget(targetType, targetID); err != nil {
		logger.Warn("Failed to delete short link", map[string]interface{}{
			"target_type": targetType,
			"target_id":   targetID,
			"error":       err.Error(),
		})
	}
}

// TargetURL is where a short link lands on the frontend.
func TargetURL(frontendURL string, targetType model.ProductType, targetID uint) string {
	switch targetType {
	case model.ProductBook:
		return fmt.Sprintf("%s/books/%d", frontendURL, targetID)
	default:
		return fmt.Sprintf("%s/courses/%d", frontendURL, targetID)
	}
}

func (s *shortLinkService) Resolve(ctx context.Context, code string) (string, error) {
	link, err := s.linkRepo.FindByCode(code)
	if err != nil {
		return "", notFoundOr(err, ErrShortLinkNotFound)
	}

	if _, err := s.queue.EnqueueShortLinkClick(queue.ShortLinkClickPayload{LinkID: link.ID, Code: link.Code}); err != nil {
		logger.Warn("Click task not enqueued, counting in process", map[string]interface{}{
			"code":  link.Code,
			"error": err.Error(),
		})
		go func(id uint) {
			if err := s.RecordClick(id); err != nil {
				logger.Error("Failed to record short link click", err, map[string]interface{}{
					"link_id": id,
				})
			}
		}(link.ID)
	}

	return TargetURL(s.frontendURL, link.TargetType, link.TargetID), nil
}

func (s *shortLinkService) RecordClick(linkID uint) error {
	return s.linkRepo.IncrementClicks(linkID)
}

func (s *shortLinkService) Stats(ctx context.Context, code string) (*ShortLinkStats, error) {
	return cache.Remember(ctx, s.cache, cache.KeyShortLinkStats(code), cache.TTLShortLink, func() (*ShortLinkStats, error) {
		link, err := s.linkRepo.FindByCode(code)
		if err != nil {
			return nil, notFoundOr(err, ErrShortLinkNotFound)
		}
		return &ShortLinkStats{
			Code:     link.Code,
			Clicks:   link.Clicks,
			Model:    link.TargetType,
			ObjectID: link.TargetID,
		}, nil
	})
}
