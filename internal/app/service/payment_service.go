package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ikkim/campus-backend/internal/app/model"
	"github.com/ikkim/campus-backend/internal/app/repository"
	"github.com/ikkim/campus-backend/internal/cache"
	"github.com/ikkim/campus-backend/internal/events"
	"github.com/ikkim/campus-backend/pkg/logger"
	"github.com/ikkim/campus-backend/pkg/payment/gateway"
	"github.com/ikkim/campus-backend/pkg/util"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrPaymentAlreadyProcessed = errors.New("payment already processed")
	ErrInvalidPaymentAmount    = errors.New("invalid payment amount")
	ErrPaymentNotFound         = errors.New("payment not found")
	ErrInsufficientStock       = errors.New("insufficient stock")
)

type PaymentRequest struct {
	ProductType model.ProductType
	ProductID   uint
	// OrderID optionally binds a book payment to one of the buyer's orders.
	OrderID *uint
}

type PaymentSession struct {
	Authority  string      `json:"authority"`
	PaymentURL string      `json:"payment_url"`
	Amount     model.Money `json:"amount"`
	OrderID    *uint       `json:"order_id,omitempty"`
}

type PaymentService interface {
	Request(ctx context.Context, userID uint, req PaymentRequest) (*PaymentSession, error)
	// Verify moves a pending payment to success exactly once and applies its effects.
	Verify(ctx context.Context, userID uint, authority string) (*model.Payment, error)
}

type paymentService struct {
	db          *gorm.DB
	paymentRepo repository.PaymentRepository
	courseRepo  repository.CourseRepository
	bookRepo    repository.BookRepository
	orderRepo   repository.OrderRepository
	enrollRepo  repository.EnrollmentRepository
	gateway     *gateway.Client
	invalidator *cache.Invalidator
	publisher   events.Publisher
}

func NewPaymentService(
	db *gorm.DB,
	paymentRepo repository.PaymentRepository,
	courseRepo repository.CourseRepository,
	bookRepo repository.BookRepository,
	orderRepo repository.OrderRepository,
	enrollRepo repository.EnrollmentRepository,
	gatewayClient *gateway.Client,
	invalidator *cache.Invalidator,
	publisher events.Publisher,
) PaymentService {
	return &paymentService{
		db:          db,
		paymentRepo: paymentRepo,
		courseRepo:  courseRepo,
		bookRepo:    bookRepo,
		orderRepo:   orderRepo,
		enrollRepo:  enrollRepo,
		gateway:     gatewayClient,
		invalidator: invalidator,
		publisher:   publisher,
	}
}

func (s *paymentService) Request(ctx context.Context, userID uint, req PaymentRequest) (*PaymentSession, error) {
	logger.Info("Payment requested", map[string]interface{}{
		"user_id":      userID,
		"product_type": req.ProductType,
		"product_id":   req.ProductID,
	})

	if !req.ProductType.Valid() {
		return nil, ErrInvalidProductType
	}

	var (
		amount      decimal.Decimal
		description string
		orderID     *uint
	)
	switch req.ProductType {
	case model.ProductCourse:
		course, err := s.courseRepo.FindByID(req.ProductID)
		if err != nil {
			return nil, notFoundOr(err, ErrProductNotFound)
		}
		if course.IsFree || course.Price <= 0 {
			return nil, ErrInvalidPaymentAmount
		}
		if course.TeacherID == userID {
			return nil, ErrOwnCourseEnrollment
		}
		enrolled, err := s.enrollRepo.Exists(userID, course.ID)
		if err != nil {
			return nil, err
		}
		if enrolled {
			return nil, ErrAlreadyEnrolled
		}
		amount = decimal.NewFromInt(course.Price)
		description = course.Name

	case model.ProductBook:
		book, err := s.bookRepo.FindByID(req.ProductID)
		if err != nil {
			return nil, notFoundOr(err, ErrProductNotFound)
		}
		if !book.Price.IsPositive() {
			return nil, ErrInvalidPaymentAmount
		}
		amount = book.Price.Decimal
		description = book.Name

		id, err := s.bindOrder(userID, book.ID, req.OrderID)
		if err != nil {
			return nil, err
		}
		orderID = id
	}

	payment := &model.Payment{
		UserID:      userID,
		Amount:      model.NewMoney(amount),
		ProductType: req.ProductType,
		ProductID:   req.ProductID,
		OrderID:     orderID,
		Authority:   util.NewAuthority(),
		Status:      model.PaymentPending,
	}

	ready, err := s.gateway.Ready(ctx, gateway.ReadyRequest{
		Authority:   payment.Authority,
		Amount:      payment.Amount.Decimal,
		Description: description,
		UserID:      userID,
	})
	if err != nil {
		logger.Error("Gateway rejected payment session", err, map[string]interface{}{
			"user_id": userID,
		})
		if errors.Is(err, gateway.ErrInvalidAmount) {
			return nil, ErrInvalidPaymentAmount
		}
		return nil, err
	}

	if err := s.paymentRepo.Create(payment); err != nil {
		return nil, err
	}

	events.Emit(ctx, s.publisher, events.New(events.TypePaymentRequested, payment.Authority, map[string]interface{}{
		"payment_id":   payment.ID,
		"user_id":      userID,
		"product_type": payment.ProductType,
		"product_id":   payment.ProductID,
		"amount":       payment.Amount.String(),
	}))

	return &PaymentSession{
		Authority:  ready.Authority,
		PaymentURL: ready.PaymentURL,
		Amount:     payment.Amount,
		OrderID:    orderID,
	}, nil
}

// bindOrder resolves the order a book payment settles: the requested one when it
// belongs to the buyer, otherwise the newest pending order holding the book.
func (s *paymentService) bindOrder(userID, bookID uint, requested *uint) (*uint, error) {
	if requested != nil {
		order, err := s.orderRepo.FindByIDAndBuyer(*requested, userID)
		if err != nil {
			return nil, notFoundOr(err, ErrOrderNotFound)
		}
		return &order.ID, nil
	}

	order, err := s.orderRepo.FindLatestPendingWithBook(userID, bookID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &order.ID, nil
}

func (s *paymentService) Verify(ctx context.Context, userID uint, authority string) (*model.Payment, error) {
	payment, err := s.paymentRepo.FindByAuthorityAndUser(authority, userID)
	if err != nil {
		if isNotFound(err) {
			logger.Warn("Payment not found for verification", map[string]interface{}{
				"user_id": userID,
			})
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}

	now := time.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		won, err := repository.NewPaymentRepository(tx).MarkSuccess(payment.ID, now)
		if err != nil {
			return err
		}
		if !won {
			return ErrPaymentAlreadyProcessed
		}

		switch payment.ProductType {
		case model.ProductCourse:
			if _, err := repository.NewEnrollmentRepository(tx).FirstOrCreate(payment.UserID, payment.ProductID); err != nil {
				return fmt.Errorf("enroll: %w", err)
			}
		case model.ProductBook:
			ok, err := repository.NewBookRepository(tx).DecrementStock(payment.ProductID)
			if err != nil {
				return fmt.Errorf("decrement stock: %w", err)
			}
			if !ok {
				return ErrInsufficientStock
			}
			if err := repository.NewCartRepository(tx).DeleteItemForUserBook(payment.UserID, payment.ProductID); err != nil {
				return fmt.Errorf("clear cart item: %w", err)
			}
			if payment.OrderID != nil {
				if err := repository.NewOrderRepository(tx).UpdateStatus(*payment.OrderID, model.OrderStatusPaid); err != nil && !isNotFound(err) {
					return fmt.Errorf("mark order paid: %w", err)
				}
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrPaymentAlreadyProcessed) || errors.Is(err, ErrInsufficientStock) {
			logger.Warn("Payment verification rejected", map[string]interface{}{
				"payment_id": payment.ID,
				"reason":     err.Error(),
			})
		} else {
			logger.Error("Payment verification failed", err, map[string]interface{}{
				"payment_id": payment.ID,
			})
		}
		return nil, err
	}

	payment.Status = model.PaymentSuccess
	payment.VerifiedAt = &now

	mutations := []cache.Mutation{{Kind: cache.PaymentVerified}}
	switch payment.ProductType {
	case model.ProductCourse:
		mutations = append(mutations, cache.Mutation{Kind: cache.EnrollmentChanged, CourseID: payment.ProductID, UserIDs: []uint{payment.UserID}})
	case model.ProductBook:
		mutations = append(mutations,
			cache.Mutation{Kind: cache.BookChanged},
			cache.Mutation{Kind: cache.OrderChanged, UserIDs: []uint{payment.UserID}},
		)
	}
	s.invalidator.Apply(ctx, mutations...)

	events.Emit(ctx, s.publisher, events.New(events.TypePaymentVerified, payment.Authority, map[string]interface{}{
		"payment_id":   payment.ID,
		"user_id":      payment.UserID,
		"product_type": payment.ProductType,
		"product_id":   payment.ProductID,
		"order_id":     payment.OrderID,
		"amount":       payment.Amount.String(),
	}))

	logger.Info("Payment verified", map[string]interface{}{
		"payment_id": payment.ID,
		"user_id":    payment.UserID,
	})
	return payment, nil
}
