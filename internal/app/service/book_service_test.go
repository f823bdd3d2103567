package service

import (
	"context"
	"testing"

	"github.com/ikkim/campus-backend/internal/app/model"
	"github.com/ikkim/campus-backend/internal/app/repository"
	"github.com/ikkim/campus-backend/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookService_Lifecycle(t *testing.T) {
	testDB, store := setupServiceTest(t)
	ctx := context.Background()
	courseRepo := repository.NewCourseRepository(testDB)
	bookRepo := repository.NewBookRepository(testDB)
	links := NewShortLinkService(repository.NewShortLinkRepository(testDB), courseRepo, bookRepo, store, &fakeQueue{}, "http://front")
	svc := NewBookService(testDB, bookRepo, links, NewAuditService(repository.NewAuditLogRepository(testDB)), cache.NewInvalidator(store))

	staff := createUser(t, testDB, "admin", model.RoleTeacher, true)
	actor := Actor{UserID: staff.ID, IsStaff: true}

	_, err := svc.Create(ctx, actor, BookInput{Name: "Free", Price: model.NewMoneyFromInt(0)})
	assert.ErrorIs(t, err, ErrInvalidBookPrice)
	_, err = svc.Create(ctx, actor, BookInput{Name: "Neg", Price: model.MustMoney("1.00"), Stock: -1})
	assert.ErrorIs(t, err, ErrInvalidStock)

	book, err := svc.Create(ctx, actor, BookInput{Name: "  SICP ", Price: model.MustMoney("42.10"), Stock: 0})
	require.NoError(t, err)
	assert.Equal(t, "SICP", book.Name)

	var linkCount int64
	require.NoError(t, testDB.Model(&model.ShortLink{}).Where("target_type = ? AND target_id = ?", model.ProductBook, book.ID).Count(&linkCount).Error)
	assert.Equal(t, int64(1), linkCount)

	inStock, err := svc.ListInStock(ctx)
	require.NoError(t, err)
	assert.Empty(t, inStock)
	assert.True(t, store.Has(cache.KeyBooksInStock))

	_, err = svc.Update(ctx, actor, book.ID, BookInput{Name: "SICP", Price: model.MustMoney("40.00"), Stock: 2})
	require.NoError(t, err)
	assert.False(t, store.Has(cache.KeyBooksInStock))

	inStock, err = svc.ListInStock(ctx)
	require.NoError(t, err)
	require.Len(t, inStock, 1)
	assert.Equal(t, "40.00", inStock[0].Price.String())

	var audit model.AuditLog
	require.NoError(t, testDB.Where("object_type = ? AND action = ?", "book", model.AuditUpdate).First(&audit).Error)
	assert.ElementsMatch(t, []string{"price", "stock"}, []string(audit.ChangedFields))

	require.NoError(t, svc.Delete(ctx, actor, book.ID))
	_, err = svc.Get(book.ID)
	assert.ErrorIs(t, err, ErrBookNotFound)
	require.NoError(t, testDB.Model(&model.ShortLink{}).Where("target_id = ?", book.ID).Count(&linkCount).Error)
	assert.Zero(t, linkCount)
}

func TestBookService_DeleteRecomputesOrderTotals(t *testing.T) {
	f := setupOrderServiceTest(t)
	ctx := context.Background()
	bookRepo := repository.NewBookRepository(f.db)
	links := NewShortLinkService(repository.NewShortLinkRepository(f.db), repository.NewCourseRepository(f.db), bookRepo, f.store, &fakeQueue{}, "http://front")
	books := NewBookService(f.db, bookRepo, links, NewAuditService(repository.NewAuditLogRepository(f.db)), cache.NewInvalidator(f.store))

	kept := createBook(t, f.db, "Kept", "10.00", 5)
	removed := createBook(t, f.db, "Removed", "3.00", 5)

	_, err := f.carts.AddToCart(f.buyer.ID, kept.ID, 1)
	require.NoError(t, err)
	_, err = f.carts.AddToCart(f.buyer.ID, removed.ID, 1)
	require.NoError(t, err)
	order, err := f.orders.Checkout(ctx, f.buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, "13.00", order.TotalPrice.String())

	other := createUser(t, f.db, "other-buyer", model.RoleStudent, false)
	_, err = f.carts.AddToCart(other.ID, removed.ID, 2)
	require.NoError(t, err)
	otherOrder, err := f.orders.Checkout(ctx, other.ID)
	require.NoError(t, err)

	_, err = f.orders.ListMine(ctx, f.buyer.ID)
	require.NoError(t, err)
	_, err = f.orders.ListMine(ctx, other.ID)
	require.NoError(t, err)
	require.True(t, f.store.Has(cache.KeyUserOrders(f.buyer.ID)))

	staff := createUser(t, f.db, "admin", model.RoleTeacher, true)
	require.NoError(t, books.Delete(ctx, Actor{UserID: staff.ID, IsStaff: true}, removed.ID))

	reloaded, err := f.orders.GetOrder(f.buyer.ID, order.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Items, 1)
	assert.Equal(t, kept.ID, reloaded.Items[0].BookID)
	assert.Equal(t, "10.00", reloaded.TotalPrice.String())

	emptied, err := f.orders.GetOrder(other.ID, otherOrder.ID)
	require.NoError(t, err)
	assert.Empty(t, emptied.Items)
	assert.True(t, emptied.TotalPrice.IsZero())

	assert.False(t, f.store.Has(cache.KeyUserOrders(f.buyer.ID)))
	assert.False(t, f.store.Has(cache.KeyUserOrders(other.ID)))
}
