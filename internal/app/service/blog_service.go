package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ikkim/campus-backend/internal/app/model"
	"github.com/ikkim/campus-backend/internal/app/repository"
	"github.com/ikkim/campus-backend/internal/cache"
	"github.com/ikkim/campus-backend/internal/storage"
)

var (
	ErrArticleNotFound = errors.New("article not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrCommentTooLong  = fmt.Errorf("comment exceeds %d characters", model.MaxCommentLength)
	ErrEmptyComment    = errors.New("comment text is required")
)

type ArticleInput struct {
	Title       string
	Content     string
	VideoURL    string
	IsPublished bool
}

type CommentInput struct {
	ArticleID uint
	Text      string
	IsPublic  bool
}

type BlogService interface {
	ListPublished(ctx context.Context) ([]model.Article, error)
	ListMyArticles(ctx context.Context, ownerID uint) ([]model.Article, error)
	ListAllArticles() ([]model.Article, error)
	GetArticle(actor Actor, id uint) (*model.Article, error)
	CreateArticle(ctx context.Context, actor Actor, input ArticleInput) (*model.Article, error)
	UpdateArticle(ctx context.Context, actor Actor, id uint, input ArticleInput) (*model.Article, error)
	DeleteArticle(ctx context.Context, actor Actor, id uint) error
	PresignArticleVideo(ctx context.Context, actor Actor, req VideoUploadRequest) (*storage.PresignedURLResponse, error)

	ListPublicComments(ctx context.Context) ([]model.Comment, error)
	ListMyComments(ctx context.Context, authorID uint) ([]model.Comment, error)
	ListAllComments() ([]model.Comment, error)
	CreateComment(ctx context.Context, actor Actor, input CommentInput) (*model.Comment, error)
	UpdateComment(ctx context.Context, actor Actor, id uint, input CommentInput) (*model.Comment, error)
	DeleteComment(ctx context.Context, actor Actor, id uint) error
}

type blogService struct {
	articleRepo repository.ArticleRepository
	commentRepo repository.CommentRepository
	audit       AuditService
	cache       cache.Store
	invalidator *cache.Invalidator
	objects     storage.ObjectStore
	maxVideoMB  int64
}

func NewBlogService(
	articleRepo repository.ArticleRepository,
	commentRepo repository.CommentRepository,
	audit AuditService,
	invalidator *cache.Invalidator,
	objects storage.ObjectStore,
	maxVideoMB int64,
) BlogService {
	return &blogService{
		articleRepo: articleRepo,
		commentRepo: commentRepo,
		audit:       audit,
		cache:       invalidator.Store(),
		invalidator: invalidator,
		objects:     objects,
		maxVideoMB:  maxVideoMB,
	}
}

func (s *blogService) ListPublished(ctx context.Context) ([]model.Article, error) {
	return cache.Remember(ctx, s.cache, cache.KeyArticlesPublished, cache.TTLCatalog, s.articleRepo.FindPublished)
}

func (s *blogService) ListMyArticles(ctx context.Context, ownerID uint) ([]model.Article, error) {
	return cache.Remember(ctx, s.cache, cache.KeyUserArticles(ownerID), cache.TTLCatalog, func() ([]model.Article, error) {
		return s.articleRepo.FindByOwner(ownerID)
	})
}

func (s *blogService) ListAllArticles() ([]model.Article, error) {
	return s.articleRepo.FindAll()
}

func (s *blogService) ownedArticle(actor Actor, id uint) (*model.Article, error) {
	var (
		article *model.Article
		err     error
	)
	if actor.IsStaff {
		article, err = s.articleRepo.FindByID(id)
	} else {
		article, err = s.articleRepo.FindByIDAndOwner(id, actor.UserID)
	}
	if err != nil {
		return nil, notFoundOr(err, ErrArticleNotFound)
	}
	return article, nil
}

func (s *blogService) GetArticle(actor Actor, id uint) (*model.Article, error) {
	return s.ownedArticle(actor, id)
}

func (s *blogService) checkTitle(ownerID uint, title string, excludeID uint) error {
	exists, err := s.articleRepo.ExistsByOwnerAndTitle(ownerID, title, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return &FieldConflictError{Fields: []string{"title"}}
	}
	return nil
}

func (s *blogService) CreateArticle(ctx context.Context, actor Actor, input ArticleInput) (*model.Article, error) {
	input.Title = strings.TrimSpace(input.Title)
	if err := s.checkTitle(actor.UserID, input.Title, 0); err != nil {
		return nil, err
	}

	article := &model.Article{
		Title:       input.Title,
		Content:     input.Content,
		VideoURL:    input.VideoURL,
		IsPublished: input.IsPublished,
		OwnerID:     actor.UserID,
	}
	if err := s.articleRepo.Create(article); err != nil {
		return nil, err
	}

	s.invalidator.Apply(ctx, cache.Mutation{Kind: cache.ArticleChanged, UserIDs: []uint{article.OwnerID}})
	s.audit.Record(actor, model.AuditCreate, "article", article.ID, []string{"title", "content", "video_url", "is_published"})
	return article, nil
}

func (s *blogService) UpdateArticle(ctx context.Context, actor Actor, id uint, input ArticleInput) (*model.Article, error) {
	article, err := s.ownedArticle(actor, id)
	if err != nil {
		return nil, err
	}
	input.Title = strings.TrimSpace(input.Title)
	if err := s.checkTitle(article.OwnerID, input.Title, article.ID); err != nil {
		return nil, err
	}

	article.Title = input.Title
	article.Content = input.Content
	article.VideoURL = input.VideoURL
	article.IsPublished = input.IsPublished
	if err := s.articleRepo.Update(article); err != nil {
		return nil, err
	}

	s.invalidator.Apply(ctx, cache.Mutation{Kind: cache.ArticleChanged, UserIDs: []uint{article.OwnerID}})
	s.audit.Record(actor, model.AuditUpdate, "article", article.ID, []string{"title", "content", "video_url", "is_published"})
	return article, nil
}

func (s *blogService) DeleteArticle(ctx context.Context, actor Actor, id uint) error {
	article, err := s.ownedArticle(actor, id)
	if err != nil {
		return err
	}
	commenters, err := s.articleRepo.Delete(article.ID)
	if err != nil {
		return err
	}

	// comments went with the article
	s.invalidator.Apply(ctx,
		cache.Mutation{Kind: cache.ArticleChanged, UserIDs: []uint{article.OwnerID}},
		cache.Mutation{Kind: cache.CommentChanged, UserIDs: commenters},
	)
	s.audit.Record(actor, model.AuditDelete, "article", article.ID, nil)
	return nil
}

func (s *blogService) PresignArticleVideo(ctx context.Context, actor Actor, req VideoUploadRequest) (*storage.PresignedURLResponse, error) {
	if s.objects == nil {
		return nil, ErrUploadsDisabled
	}
	if err := storage.ValidateExtension(req.Filename, videoExtensions); err != nil {
		return nil, err
	}
	if err := storage.ValidateContentType(req.ContentType, videoContentTypes); err != nil {
		return nil, err
	}
	if err := storage.ValidateFileSize(req.Size, s.maxVideoMB); err != nil {
		return nil, err
	}
	return s.objects.PresignUpload(ctx, req.Filename, req.ContentType, fmt.Sprintf("articles/%d", actor.UserID))
}

func (s *blogService) ListPublicComments(ctx context.Context) ([]model.Comment, error) {
	return cache.Remember(ctx, s.cache, cache.KeyCommentsPublic, cache.TTLCatalog, s.commentRepo.FindPublic)
}

func (s *blogService) ListMyComments(ctx context.Context, authorID uint) ([]model.Comment, error) {
	return cache.Remember(ctx, s.cache, cache.KeyUserComments(authorID), cache.TTLCatalog, func() ([]model.Comment, error) {
		return s.commentRepo.FindByAuthor(authorID)
	})
}

func (s *blogService) ListAllComments() ([]model.Comment, error) {
	return s.commentRepo.FindAll()
}

func validateCommentText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyComment
	}
	if utf8.RuneCountInString(text) > model.MaxCommentLength {
		return "", ErrCommentTooLong
	}
	return text, nil
}

func (s *blogService) CreateComment(ctx context.Context, actor Actor, input CommentInput) (*model.Comment, error) {
	text, err := validateCommentText(input.Text)
	if err != nil {
		return nil, err
	}
	if _, err := s.articleRepo.FindByID(input.ArticleID); err != nil {
		return nil, notFoundOr(err, ErrArticleNotFound)
	}

	comment := &model.Comment{
		AuthorID:  actor.UserID,
		ArticleID: input.ArticleID,
		Text:      text,
		IsPublic:  input.IsPublic,
	}
	if err := s.commentRepo.Create(comment); err != nil {
		return nil, err
	}

	s.invalidator.Apply(ctx, cache.Mutation{Kind: cache.CommentChanged, UserIDs: []uint{comment.AuthorID}})
	s.audit.Record(actor, model.AuditCreate, "comment", comment.ID, []string{"article_id", "text", "is_public"})
	return comment, nil
}

func (s *blogService) ownedComment(actor Actor, id uint) (*model.Comment, error) {
	var (
		comment *model.Comment
		err     error
	)
	if actor.IsStaff {
		comment, err = s.commentRepo.FindByID(id)
	} else {
		comment, err = s.commentRepo.FindByIDAndAuthor(id, actor.UserID)
	}
	if err != nil {
		return nil, notFoundOr(err, ErrCommentNotFound)
	}
	return comment, nil
}

func (s *blogService) UpdateComment(ctx context.Context, actor Actor, id uint, input CommentInput) (*model.Comment, error) {
	comment, err := s.ownedComment(actor, id)
	if err != nil {
		return nil, err
	}
	text, err := validateCommentText(input.Text)
	if err != nil {
		return nil, err
	}

	comment.Text = text
	comment.IsPublic = input.IsPublic
	if err := s.commentRepo.Update(comment); err != nil {
		return nil, err
	}

	s.invalidator.Apply(ctx, cache.Mutation{Kind: cache.CommentChanged, UserIDs: []uint{comment.AuthorID}})
	s.audit.Record(actor, model.AuditUpdate, "comment", comment.ID, []string{"text", "is_public"})
	return comment, nil
}

func (s *blogService) DeleteComment(ctx context.Context, actor Actor, id uint) error {
	comment, err := s.ownedComment(actor, id)
	if err != nil {
		return err
	}
	if err := s.commentRepo.Delete(comment.ID); err != nil {
		return err
	}

	s.invalidator.Apply(ctx, cache.Mutation{Kind: cache.CommentChanged, UserIDs: []uint{comment.AuthorID}})
	s.audit.Record(actor, model.AuditDelete, "comment", comment.ID, nil)
	return nil
}
