package service

import (
	"context"
	"sync"
	"testing"

	"github.com/ikkim/campus-backend/internal/app/model"
	"github.com/ikkim/campus-backend/internal/app/repository"
	"github.com/ikkim/campus-backend/internal/cache"
	"github.com/ikkim/campus-backend/internal/events"
	"github.com/ikkim/campus-backend/pkg/payment/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type paymentFixture struct {
	payments PaymentService
	orders   OrderService
	carts    CartService
	db       *gorm.DB
	pub      *recordingPublisher
	buyer    *model.User
	teacher  *model.User
}

func setupPaymentServiceTest(t *testing.T) paymentFixture {
	testDB, store := setupServiceTest(t)
	invalidator := cache.NewInvalidator(store)
	pub := &recordingPublisher{}

	client, err := gateway.NewClient(gateway.Config{BaseURL: "https://pay.example/start/", MerchantID: "campus"})
	require.NoError(t, err)

	payments := NewPaymentService(
		testDB,
		repository.NewPaymentRepository(testDB),
		repository.NewCourseRepository(testDB),
		repository.NewBookRepository(testDB),
		repository.NewOrderRepository(testDB),
		repository.NewEnrollmentRepository(testDB),
		client,
		invalidator,
		pub,
	)
	orders := NewOrderService(testDB, repository.NewOrderRepository(testDB), NewAuditService(repository.NewAuditLogRepository(testDB)), invalidator, pub)

	return paymentFixture{
		payments: payments,
		orders:   orders,
		carts:    NewCartService(repository.NewCartRepository(testDB), repository.NewBookRepository(testDB)),
		db:       testDB,
		pub:      pub,
		buyer:    createUser(t, testDB, "buyer", model.RoleStudent, false),
		teacher:  createUser(t, testDB, "teacher", model.RoleTeacher, false),
	}
}

func TestPaymentService_RequestValidation(t *testing.T) {
	f := setupPaymentServiceTest(t)
	ctx := context.Background()

	free := createCourse(t, f.db, f.teacher.ID, "Free", 0)
	paid := createCourse(t, f.db, f.teacher.ID, "Paid", 2500)

	tests := []struct {
		name    string
		userID  uint
		req     PaymentRequest
		wantErr error
	}{
		{name: "Unknown type", userID: f.buyer.ID, req: PaymentRequest{ProductType: "ticket", ProductID: 1}, wantErr: ErrInvalidProductType},
		{name: "Missing course", userID: f.buyer.ID, req: PaymentRequest{ProductType: model.ProductCourse, ProductID: 999}, wantErr: ErrProductNotFound},
		{name: "Free course", userID: f.buyer.ID, req: PaymentRequest{ProductType: model.ProductCourse, ProductID: free.ID}, wantErr: ErrInvalidPaymentAmount},
		{name: "Own course", userID: f.teacher.ID, req: PaymentRequest{ProductType: model.ProductCourse, ProductID: paid.ID}, wantErr: ErrOwnCourseEnrollment},
		{name: "Foreign order", userID: f.buyer.ID, req: PaymentRequest{ProductType: model.ProductBook, ProductID: createBook(t, f.db, "B", "1.00", 1).ID, OrderID: new(uint)}, wantErr: ErrOrderNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, err := f.payments.Request(ctx, tt.userID, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, session)
		})
	}

	session, err := f.payments.Request(ctx, f.buyer.ID, PaymentRequest{ProductType: model.ProductCourse, ProductID: paid.ID})
	require.NoError(t, err)
	assert.Len(t, session.Authority, gateway.AuthorityLength)
	assert.Equal(t, "https://pay.example/start/"+session.Authority, session.PaymentURL)
	assert.Equal(t, "2500.00", session.Amount.String())
}

func TestPaymentService_VerifyOtherUsersAuthority(t *testing.T) {
	f := setupPaymentServiceTest(t)
	ctx := context.Background()

	course := createCourse(t, f.db, f.teacher.ID, "Paid", 1000)
	session, err := f.payments.Request(ctx, f.buyer.ID, PaymentRequest{ProductType: model.ProductCourse, ProductID: course.ID})
	require.NoError(t, err)

	stranger := createUser(t, f.db, "stranger", model.RoleStudent, false)
	_, err = f.payments.Verify(ctx, stranger.ID, session.Authority)
	assert.ErrorIs(t, err, ErrPaymentNotFound)

	_, err = f.payments.Verify(ctx, f.buyer.ID, "does-not-exist")
	assert.ErrorIs(t, err, ErrPaymentNotFound)

	var payment model.Payment
	require.NoError(t, f.db.Where("authority = ?", session.Authority).First(&payment).Error)
	assert.Equal(t, model.PaymentPending, payment.Status)
}

func TestPaymentService_VerifyCourseEnrolls(t *testing.T) {
	f := setupPaymentServiceTest(t)
	ctx := context.Background()

	course := createCourse(t, f.db, f.teacher.ID, "Paid", 1000)
	session, err := f.payments.Request(ctx, f.buyer.ID, PaymentRequest{ProductType: model.ProductCourse, ProductID: course.ID})
	require.NoError(t, err)

	payment, err := f.payments.Verify(ctx, f.buyer.ID, session.Authority)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentSuccess, payment.Status)
	assert.NotNil(t, payment.VerifiedAt)

	var enrollments int64
	require.NoError(t, f.db.Model(&model.Enrollment{}).Where("user_id = ? AND course_id = ?", f.buyer.ID, course.ID).Count(&enrollments).Error)
	assert.Equal(t, int64(1), enrollments)

	_, err = f.payments.Verify(ctx, f.buyer.ID, session.Authority)
	assert.ErrorIs(t, err, ErrPaymentAlreadyProcessed)
	assert.Contains(t, f.pub.types(), events.TypePaymentVerified)
}

func TestPaymentService_ConcurrentVerifyAppliesOnce(t *testing.T) {
	f := setupPaymentServiceTest(t)
	ctx := context.Background()

	book := createBook(t, f.db, "Scarce", "40.00", 5)
	_, err := f.carts.AddToCart(f.buyer.ID, book.ID, 1)
	require.NoError(t, err)
	order, err := f.orders.Checkout(ctx, f.buyer.ID)
	require.NoError(t, err)

	session, err := f.payments.Request(ctx, f.buyer.ID, PaymentRequest{ProductType: model.ProductBook, ProductID: book.ID})
	require.NoError(t, err)
	require.NotNil(t, session.OrderID)
	assert.Equal(t, order.ID, *session.OrderID)

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		processed int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.payments.Verify(ctx, f.buyer.ID, session.Authority)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case assert.ErrorIs(t, err, ErrPaymentAlreadyProcessed):
				processed++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, processed)

	var reloaded model.Book
	require.NoError(t, f.db.First(&reloaded, book.ID).Error)
	assert.Equal(t, 4, reloaded.Stock)

	paid, err := f.orders.GetOrder(f.buyer.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPaid, paid.Status)
}

func TestPaymentService_VerifyOutOfStockKeepsPending(t *testing.T) {
	f := setupPaymentServiceTest(t)
	ctx := context.Background()

	book := createBook(t, f.db, "Last copy", "12.00", 1)
	first, err := f.payments.Request(ctx, f.buyer.ID, PaymentRequest{ProductType: model.ProductBook, ProductID: book.ID})
	require.NoError(t, err)
	second, err := f.payments.Request(ctx, f.buyer.ID, PaymentRequest{ProductType: model.ProductBook, ProductID: book.ID})
	require.NoError(t, err)

	_, err = f.payments.Verify(ctx, f.buyer.ID, first.Authority)
	require.NoError(t, err)

	_, err = f.payments.Verify(ctx, f.buyer.ID, second.Authority)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	var payment model.Payment
	require.NoError(t, f.db.Where("authority = ?", second.Authority).First(&payment).Error)
	assert.Equal(t, model.PaymentPending, payment.Status)

	var failed int64
	require.NoError(t, f.db.Model(&model.Payment{}).Where("status = ?", model.PaymentFailed).Count(&failed).Error)
	assert.Zero(t, failed)
}
