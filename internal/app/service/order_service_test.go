package service

import (
	"context"
	"testing"

	"github.com/ikkim/campus-backend/internal/app/model"
	"github.com/ikkim/campus-backend/internal/app/repository"
	"github.com/ikkim/campus-backend/internal/cache"
	"github.com/ikkim/campus-backend/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type orderFixture struct {
	orders OrderService
	carts  CartService
	db     *gorm.DB
	store  *cache.MemoryStore
	pub    *recordingPublisher
	buyer  *model.User
}

func setupOrderServiceTest(t *testing.T) orderFixture {
	testDB, store := setupServiceTest(t)
	pub := &recordingPublisher{}
	orders := NewOrderService(
		testDB,
		repository.NewOrderRepository(testDB),
		NewAuditService(repository.NewAuditLogRepository(testDB)),
		cache.NewInvalidator(store),
		pub,
	)
	return orderFixture{
		orders: orders,
		carts:  NewCartService(repository.NewCartRepository(testDB), repository.NewBookRepository(testDB)),
		db:     testDB,
		store:  store,
		pub:    pub,
		buyer:  createUser(t, testDB, "buyer", model.RoleStudent, false),
	}
}

func TestOrderService_CheckoutSnapshotsPrices(t *testing.T) {
	f := setupOrderServiceTest(t)
	ctx := context.Background()

	first := createBook(t, f.db, "First", "19.99", 10)
	second := createBook(t, f.db, "Second", "5.50", 10)

	_, err := f.carts.AddToCart(f.buyer.ID, first.ID, 2)
	require.NoError(t, err)
	_, err = f.carts.AddToCart(f.buyer.ID, second.ID, 3)
	require.NoError(t, err)

	order, err := f.orders.Checkout(ctx, f.buyer.ID)
	require.NoError(t, err)
	require.Len(t, order.Items, 2)
	assert.Equal(t, model.OrderStatusPending, order.Status)

	// 2 x 19.99 + 3 x 5.50
	assert.Equal(t, "56.48", order.TotalPrice.String())

	sum := model.NewMoneyFromInt(0)
	for _, item := range order.Items {
		sum = sum.Add(item.Subtotal())
	}
	assert.True(t, sum.Equal(order.TotalPrice.Decimal))

	require.NoError(t, f.db.Model(&model.Book{}).Where("id = ?", first.ID).Update("price", model.MustMoney("99.00")).Error)

	reloaded, err := f.orders.GetOrder(f.buyer.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "56.48", reloaded.TotalPrice.String())
	for _, item := range reloaded.Items {
		if item.BookID == first.ID {
			assert.Equal(t, "19.99", item.Price.String())
		}
	}

	assert.Contains(t, f.pub.types(), events.TypeOrderCheckedOut)
}

func TestOrderService_CheckoutDrainsCartButKeepsIt(t *testing.T) {
	f := setupOrderServiceTest(t)
	ctx := context.Background()

	book := createBook(t, f.db, "Book", "10.00", 3)
	before, err := f.carts.AddToCart(f.buyer.ID, book.ID, 1)
	require.NoError(t, err)

	_, err = f.orders.Checkout(ctx, f.buyer.ID)
	require.NoError(t, err)

	var carts []model.Cart
	require.NoError(t, f.db.Where("user_id = ?", f.buyer.ID).Find(&carts).Error)
	require.Len(t, carts, 1)
	assert.Equal(t, before.CartID, carts[0].ID)

	var items int64
	require.NoError(t, f.db.Model(&model.CartItem{}).Where("cart_id = ?", carts[0].ID).Count(&items).Error)
	assert.Zero(t, items)

	var stock int
	require.NoError(t, f.db.Model(&model.Book{}).Select("stock").Where("id = ?", book.ID).Scan(&stock).Error)
	assert.Equal(t, 3, stock, "stock is only taken at payment verification")
}

func TestOrderService_CheckoutWithoutCart(t *testing.T) {
	f := setupOrderServiceTest(t)

	order, err := f.orders.Checkout(context.Background(), f.buyer.ID)
	require.NoError(t, err)
	assert.Empty(t, order.Items)
	assert.True(t, order.TotalPrice.IsZero())

	var carts int64
	require.NoError(t, f.db.Model(&model.Cart{}).Where("user_id = ?", f.buyer.ID).Count(&carts).Error)
	assert.Equal(t, int64(1), carts)
}

func TestOrderService_ListMineAndStatus(t *testing.T) {
	f := setupOrderServiceTest(t)
	ctx := context.Background()

	mine, err := f.orders.ListMine(ctx, f.buyer.ID)
	require.NoError(t, err)
	assert.Empty(t, mine)

	order, err := f.orders.Checkout(ctx, f.buyer.ID)
	require.NoError(t, err)
	assert.False(t, f.store.Has(cache.KeyUserOrders(f.buyer.ID)))

	mine, err = f.orders.ListMine(ctx, f.buyer.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	other := createUser(t, f.db, "other", model.RoleStudent, false)
	_, err = f.orders.GetOrder(other.ID, order.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	staff := Actor{UserID: other.ID, IsStaff: true}
	_, err = f.orders.UpdateStatus(ctx, staff, order.ID, "lost")
	assert.ErrorIs(t, err, ErrInvalidOrderStatus)

	updated, err := f.orders.UpdateStatus(ctx, staff, order.ID, model.OrderStatusShipped)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusShipped, updated.Status)

	_, err = f.orders.UpdateStatus(ctx, staff, 9999, model.OrderStatusShipped)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}
