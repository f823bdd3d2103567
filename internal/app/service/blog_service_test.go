package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ikkim/campus-backend/internal/app/model"
	"github.com/ikkim/campus-backend/internal/app/repository"
	"github.com/ikkim/campus-backend/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlogService_ArticlesAndComments(t *testing.T) {
	testDB, store := setupServiceTest(t)
	svc := NewBlogService(
		repository.NewArticleRepository(testDB),
		repository.NewCommentRepository(testDB),
		NewAuditService(repository.NewAuditLogRepository(testDB)),
		cache.NewInvalidator(store),
		nil,
		50,
	)
	ctx := context.Background()

	author := createUser(t, testDB, "writer", model.RoleTeacher, false)
	reader := createUser(t, testDB, "reader", model.RoleStudent, false)
	authorActor := Actor{UserID: author.ID}
	readerActor := Actor{UserID: reader.ID}

	published, err := svc.ListPublished(ctx)
	require.NoError(t, err)
	assert.Empty(t, published)

	article, err := svc.CreateArticle(ctx, authorActor, ArticleInput{Title: " Hello ", Content: "...", IsPublished: true})
	require.NoError(t, err)
	assert.Equal(t, "Hello", article.Title)

	published, err = svc.ListPublished(ctx)
	require.NoError(t, err)
	assert.Len(t, published, 1)

	_, err = svc.CreateArticle(ctx, authorActor, ArticleInput{Title: "Hello"})
	var conflict *FieldConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, []string{"title"}, conflict.Fields)

	_, err = svc.CreateArticle(ctx, readerActor, ArticleInput{Title: "Hello"})
	assert.NoError(t, err, "titles are unique per owner only")

	_, err = svc.UpdateArticle(ctx, readerActor, article.ID, ArticleInput{Title: "Hijacked"})
	assert.ErrorIs(t, err, ErrArticleNotFound)

	_, err = svc.CreateComment(ctx, readerActor, CommentInput{ArticleID: article.ID, Text: strings.Repeat("x", model.MaxCommentLength+1)})
	assert.ErrorIs(t, err, ErrCommentTooLong)

	_, err = svc.CreateComment(ctx, readerActor, CommentInput{ArticleID: 999, Text: "hi"})
	assert.ErrorIs(t, err, ErrArticleNotFound)

	comment, err := svc.CreateComment(ctx, readerActor, CommentInput{ArticleID: article.ID, Text: "nice", IsPublic: true})
	require.NoError(t, err)

	public, err := svc.ListPublicComments(ctx)
	require.NoError(t, err)
	assert.Len(t, public, 1)

	assert.ErrorIs(t, svc.DeleteComment(ctx, authorActor, comment.ID), ErrCommentNotFound)

	mine, err := svc.ListMyComments(ctx, reader.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
	assert.True(t, store.Has(cache.KeyUserComments(reader.ID)))

	require.NoError(t, svc.DeleteArticle(ctx, authorActor, article.ID))
	assert.False(t, store.Has(cache.KeyUserComments(reader.ID)))

	public, err = svc.ListPublicComments(ctx)
	require.NoError(t, err)
	assert.Empty(t, public)

	mine, err = svc.ListMyComments(ctx, reader.ID)
	require.NoError(t, err)
	assert.Empty(t, mine)
}
