package controller

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/ikkim/campus-backend/internal/app/model"
	apperrors "github.com/ikkim/campus-backend/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupBlogControllerTest(t *testing.T) *testApp {
	app := setupTestApp(t)
	ctrl := NewBlogController(app.svc.blog)

	app.router.GET("/blog/articles", ctrl.ListPublishedArticles)
	app.router.GET("/blog/comments/public", ctrl.ListPublicComments)

	authed := app.router.Group("/", app.auth.Authenticate())
	authed.GET("/user/articles", ctrl.ListMyArticles)
	authed.POST("/user/articles", ctrl.CreateArticle)
	authed.GET("/user/articles/:id", ctrl.GetArticle)
	authed.PUT("/user/articles/:id", ctrl.UpdateArticle)
	authed.DELETE("/user/articles/:id", ctrl.DeleteArticle)
	authed.GET("/blog/comments", ctrl.ListMyComments)
	authed.POST("/blog/comments", ctrl.CreateComment)
	authed.DELETE("/blog/comments/:id", ctrl.DeleteComment)
	authed.GET("/management/comments", app.auth.RequireStaff(), ctrl.ListAllComments)
	return app
}

func TestBlogController_ArticleLifecycle(t *testing.T) {
	app := setupBlogControllerTest(t)
	author := app.createUser("author", model.RoleStudent, false)
	token := app.tokenFor(author)

	w := app.do("POST", "/user/articles", ArticleRequest{Title: "Hello", Content: "First post", IsPublished: true}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := uint(decodeBody(t, w)["article"].(map[string]interface{})["id"].(float64))

	require.Equal(t, http.StatusCreated, app.do("POST", "/user/articles", ArticleRequest{Title: "Draft", Content: "wip"}, token).Code)

	w = app.do("POST", "/user/articles", ArticleRequest{Title: "Hello", Content: "again"}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeBody(t, w)["fields"], "title")

	w = app.do("GET", "/blog/articles", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decodeBody(t, w)["count"])

	w = app.do("GET", "/user/articles", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), decodeBody(t, w)["count"])

	stranger := app.createUser("stranger", model.RoleStudent, false)
	w = app.do("GET", fmt.Sprintf("/user/articles/%d", id), nil, app.tokenFor(stranger))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = app.do("PUT", fmt.Sprintf("/user/articles/%d", id), ArticleRequest{Title: "Hello", Content: "edited", IsPublished: false}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = app.do("GET", "/blog/articles", nil, "")
	assert.Equal(t, float64(0), decodeBody(t, w)["count"])

	assert.Equal(t, http.StatusNoContent, app.do("DELETE", fmt.Sprintf("/user/articles/%d", id), nil, token).Code)
}

func TestBlogController_Comments(t *testing.T) {
	app := setupBlogControllerTest(t)
	author := app.createUser("author", model.RoleStudent, false)
	reader := app.createUser("reader", model.RoleStudent, false)
	staff := app.createUser("staff", model.RoleTeacher, true)

	w := app.do("POST", "/user/articles", ArticleRequest{Title: "Post", Content: "body", IsPublished: true}, app.tokenFor(author))
	require.Equal(t, http.StatusCreated, w.Code)
	articleID := uint(decodeBody(t, w)["article"].(map[string]interface{})["id"].(float64))

	readerToken := app.tokenFor(reader)
	w = app.do("POST", "/blog/comments", CommentRequest{ArticleID: articleID, Text: "Nice!", IsPublic: true}, readerToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	commentID := uint(decodeBody(t, w)["comment"].(map[string]interface{})["id"].(float64))

	require.Equal(t, http.StatusCreated, app.do("POST", "/blog/comments", CommentRequest{ArticleID: articleID, Text: "private"}, readerToken).Code)

	w = app.do("POST", "/blog/comments", CommentRequest{ArticleID: articleID, Text: strings.Repeat("x", model.MaxCommentLength+1)}, readerToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.ValidationInvalidRange, errorCode(t, w))

	w = app.do("POST", "/blog/comments", CommentRequest{ArticleID: 9999, Text: "lost"}, readerToken)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = app.do("GET", "/blog/comments/public", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decodeBody(t, w)["count"])

	w = app.do("GET", "/blog/comments", nil, readerToken)
	assert.Equal(t, float64(2), decodeBody(t, w)["count"])

	w = app.do("DELETE", fmt.Sprintf("/blog/comments/%d", commentID), nil, app.tokenFor(author))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = app.do("GET", "/management/comments", nil, app.tokenFor(staff))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), decodeBody(t, w)["count"])

	assert.Equal(t, http.StatusNoContent, app.do("DELETE", fmt.Sprintf("/blog/comments/%d", commentID), nil, app.tokenFor(staff)).Code)
}
