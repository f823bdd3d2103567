package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ikkim/campus-backend/internal/app/model"
	"github.com/ikkim/campus-backend/internal/app/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShortLinkService_ResolveAndStats(t *testing.T) {
	testDB, store := setupServiceTest(t)
	ctx := context.Background()
	q := &fakeQueue{}
	linkRepo := repository.NewShortLinkRepository(testDB)
	svc := NewShortLinkService(linkRepo, repository.NewCourseRepository(testDB), repository.NewBookRepository(testDB), store, q, "http://front")

	book := createBook(t, testDB, "TAOCP", "99.00", 1)

	_, err := svc.Create(ctx, "video", book.ID)
	assert.ErrorIs(t, err, ErrInvalidProductType)
	_, err = svc.Create(ctx, model.ProductCourse, 999)
	assert.ErrorIs(t, err, ErrProductNotFound)

	link, err := svc.Create(ctx, model.ProductBook, book.ID)
	require.NoError(t, err)
	again, err := svc.Create(ctx, model.ProductBook, book.ID)
	require.NoError(t, err)
	assert.Equal(t, link.Code, again.Code)
	assert.Len(t, link.Code, 8)

	target, err := svc.Resolve(ctx, link.Code)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("http://front/books/%d", book.ID), target)
	require.Len(t, q.clicks, 1)
	assert.Equal(t, link.ID, q.clicks[0].LinkID)

	_, err = svc.Resolve(ctx, "missing0")
	assert.ErrorIs(t, err, ErrShortLinkNotFound)

	stats, err := svc.Stats(ctx, link.Code)
	require.NoError(t, err)
	assert.Equal(t, model.ProductBook, stats.Model)
	assert.Equal(t, book.ID, stats.ObjectID)
}

func TestShortLinkService_ResolveFallsBackWhenQueueFails(t *testing.T) {
	testDB, store := setupServiceTest(t)
	ctx := context.Background()
	linkRepo := repository.NewShortLinkRepository(testDB)
	svc := NewShortLinkService(linkRepo, repository.NewCourseRepository(testDB), repository.NewBookRepository(testDB), store, &fakeQueue{err: errors.New("redis down")}, "http://front")

	book := createBook(t, testDB, "Dragon", "10.00", 1)
	link, err := linkRepo.GetOrCreate(model.ProductBook, book.ID)
	require.NoError(t, err)

	_, err = svc.Resolve(ctx, link.Code)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		current, err := linkRepo.FindByCode(link.Code)
		return err == nil && current.Clicks == 1
	}, 2*time.Second, 20*time.Millisecond)
}
