package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/campus-backend/internal/app/service"
	apperrors "github.com/ikkim/campus-backend/internal/errors"
	"github.com/ikkim/campus-backend/internal/middleware"
)

type BlogController struct {
	blogService service.BlogService
}

func NewBlogController(blogService service.BlogService) *BlogController {
	return &BlogController{
		blogService: blogService,
	}
}

type ArticleRequest struct {
	Title       string `json:"title" binding:"required,max=255"`
	Content     string `json:"content" binding:"required"`
	VideoURL    string `json:"video_url" binding:"max=500"`
	IsPublished bool   `json:"is_published"`
}

func (r ArticleRequest) input() service.ArticleInput {
	return service.ArticleInput{
		Title:       r.Title,
		Content:     r.Content,
		VideoURL:    r.VideoURL,
		IsPublished: r.IsPublished,
	}
}

type CommentRequest struct {
	ArticleID uint   `json:"article_id" binding:"required"`
	Text      string `json:"text" binding:"required"`
	IsPublic  bool   `json:"is_public"`
}

func (r CommentRequest) input() service.CommentInput {
	return service.CommentInput{ArticleID: r.ArticleID, Text: r.Text, IsPublic: r.IsPublic}
}

// ListPublishedArticles
// GET /api/v1/blog/articles
func (ctrl *BlogController) ListPublishedArticles(c *gin.Context) {
	articles, err := ctrl.blogService.ListPublished(c.Request.Context())
	if err != nil {
		respondError(c, err, "List published articles", nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"articles": articles,
		"count":    len(articles),
	})
}

// ListMyArticles
// GET /api/v1/user/articles
func (ctrl *BlogController) ListMyArticles(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	articles, err := ctrl.blogService.ListMyArticles(c.Request.Context(), actor.UserID)
	if err != nil {
		respondError(c, err, "List my articles", map[string]interface{}{
			"user_id": actor.UserID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"articles": articles,
		"count":    len(articles),
	})
}

// ListAllArticles
// GET /api/v1/management/articles
func (ctrl *BlogController) ListAllArticles(c *gin.Context) {
	articles, err := ctrl.blogService.ListAllArticles()
	if err != nil {
		respondError(c, err, "List all articles", nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"articles": articles,
		"count":    len(articles),
	})
}

// GetArticle returns an article the caller can see
// GET /api/v1/user/articles/:id
func (ctrl *BlogController) GetArticle(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	article, err := ctrl.blogService.GetArticle(actor, id)
	if err != nil {
		respondError(c, err, "Fetch article", map[string]interface{}{
			"article_id": id,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"article": article,
	})
}

// CreateArticle
// POST /api/v1/user/articles
func (ctrl *BlogController) CreateArticle(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req ArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid article request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.RespondWithBindingError(c, err)
		return
	}

	article, err := ctrl.blogService.CreateArticle(c.Request.Context(), actor, req.input())
	if err != nil {
		respondError(c, err, "Create article", map[string]interface{}{
			"user_id": actor.UserID,
			"title":   req.Title,
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"article": article,
	})
}

// UpdateArticle
// PUT /api/v1/user/articles/:id
func (ctrl *BlogController) UpdateArticle(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req ArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindingError(c, err)
		return
	}

	article, err := ctrl.blogService.UpdateArticle(c.Request.Context(), actor, id, req.input())
	if err != nil {
		respondError(c, err, "Update article", map[string]interface{}{
			"article_id": id,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"article": article,
	})
}

// DeleteArticle
// DELETE /api/v1/user/articles/:id
func (ctrl *BlogController) DeleteArticle(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := ctrl.blogService.DeleteArticle(c.Request.Context(), actor, id); err != nil {
		respondError(c, err, "Delete article", map[string]interface{}{
			"article_id": id,
		})
		return
	}

	c.Status(http.StatusNoContent)
}

// PresignArticleVideo
// POST /api/v1/user/articles/video-upload-url
func (ctrl *BlogController) PresignArticleVideo(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindingError(c, err)
		return
	}

	resp, err := ctrl.blogService.PresignArticleVideo(c.Request.Context(), actor, req.request())
	if err != nil {
		respondError(c, err, "Presign article video", map[string]interface{}{
			"filename": req.Filename,
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListPublicComments
// GET /api/v1/blog/comments/public
func (ctrl *BlogController) ListPublicComments(c *gin.Context) {
	comments, err := ctrl.blogService.ListPublicComments(c.Request.Context())
	if err != nil {
		respondError(c, err, "List public comments", nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"comments": comments,
		"count":    len(comments),
	})
}

// ListMyComments
// GET /api/v1/blog/comments
func (ctrl *BlogController) ListMyComments(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	comments, err := ctrl.blogService.ListMyComments(c.Request.Context(), actor.UserID)
	if err != nil {
		respondError(c, err, "List my comments", map[string]interface{}{
			"user_id": actor.UserID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"comments": comments,
		"count":    len(comments),
	})
}

// ListAllComments
// GET /api/v1/management/comments
func (ctrl *BlogController) ListAllComments(c *gin.Context) {
	comments, err := ctrl.blogService.ListAllComments()
	if err != nil {
		respondError(c, err, "List all comments", nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"comments": comments,
		"count":    len(comments),
	})
}

// CreateComment
// POST /api/v1/blog/comments
func (ctrl *BlogController) CreateComment(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindingError(c, err)
		return
	}

	comment, err := ctrl.blogService.CreateComment(c.Request.Context(), actor, req.input())
	if err != nil {
		respondError(c, err, "Create comment", map[string]interface{}{
			"user_id":    actor.UserID,
			"article_id": req.ArticleID,
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"comment": comment,
	})
}

// UpdateComment
// PUT /api/v1/blog/comments/:id
func (ctrl *BlogController) UpdateComment(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindingError(c, err)
		return
	}

	comment, err := ctrl.blogService.UpdateComment(c.Request.Context(), actor, id, req.input())
	if err != nil {
		respondError(c, err, "Update comment", map[string]interface{}{
			"comment_id": id,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"comment": comment,
	})
}

// DeleteComment
// DELETE /api/v1/blog/comments/:id
func (ctrl *BlogController) DeleteComment(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := ctrl.blogService.DeleteComment(c.Request.Context(), actor, id); err != nil {
		respondError(c, err, "Delete comment", map[string]interface{}{
			"comment_id": id,
		})
		return
	}

	c.Status(http.StatusNoContent)
}
