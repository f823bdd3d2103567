package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/ikkim/campus-backend/internal/app/model"
	"github.com/ikkim/campus-backend/internal/app/repository"
	"github.com/ikkim/campus-backend/internal/cache"
	"github.com/ikkim/campus-backend/internal/events"
	"github.com/ikkim/campus-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrInvalidOrderStatus = errors.New("invalid order status")
)

type OrderService interface {
	// Checkout turns the cart into a pending order and drains the cart.
	Checkout(ctx context.Context, userID uint) (*model.Order, error)
	ListMine(ctx context.Context, userID uint) ([]model.Order, error)
	GetOrder(userID, orderID uint) (*model.Order, error)
	ListAll(status string) ([]model.Order, error)
	UpdateStatus(ctx context.Context, actor Actor, orderID uint, status model.OrderStatus) (*model.Order, error)
}

type orderService struct {
	db          *gorm.DB
	orderRepo   repository.OrderRepository
	audit       AuditService
	cache       cache.Store
	invalidator *cache.Invalidator
	publisher   events.Publisher
}

func NewOrderService(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	audit AuditService,
	invalidator *cache.Invalidator,
	publisher events.Publisher,
) OrderService {
	return &orderService{
		db:          db,
		orderRepo:   orderRepo,
		audit:       audit,
		cache:       invalidator.Store(),
		invalidator: invalidator,
		publisher:   publisher,
	}
}

func (s *orderService) Checkout(ctx context.Context, userID uint) (*model.Order, error) {
	logger.Info("Creating order from cart", map[string]interface{}{
		"user_id": userID,
	})

	var order *model.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		cartRepo := repository.NewCartRepository(tx)
		orderRepo := repository.NewOrderRepository(tx)

		cart, err := cartRepo.LockForCheckout(userID)
		if err != nil {
			return fmt.Errorf("lock cart: %w", err)
		}
		items, err := cartRepo.FindItems(cart.ID)
		if err != nil {
			return fmt.Errorf("load cart items: %w", err)
		}

		order = &model.Order{BuyerID: userID, Status: model.OrderStatusPending}
		if err := orderRepo.Create(order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		if len(items) > 0 {
			orderItems := make([]model.OrderItem, 0, len(items))
			for _, item := range items {
				orderItems = append(orderItems, model.OrderItem{
					OrderID:  order.ID,
					BookID:   item.BookID,
					Quantity: item.Quantity,
					Price:    item.Book.Price,
				})
			}
			if err := orderRepo.CreateItems(orderItems); err != nil {
				return fmt.Errorf("create order items: %w", err)
			}
		}

		if _, err := orderRepo.RecalculateTotal(order.ID); err != nil {
			return fmt.Errorf("recalculate total: %w", err)
		}
		if _, err := cartRepo.ClearItems(cart.ID); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}

		order, err = orderRepo.FindByID(order.ID)
		return err
	})
	if err != nil {
		logger.Error("Checkout failed, rolled back", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	s.invalidator.Apply(ctx, cache.Mutation{Kind: cache.OrderChanged, UserIDs: []uint{userID}})
	events.Emit(ctx, s.publisher, events.New(events.TypeOrderCheckedOut, fmt.Sprint(order.ID), map[string]interface{}{
		"order_id":    order.ID,
		"buyer_id":    userID,
		"total_price": order.TotalPrice.String(),
		"items":       len(order.Items),
	}))

	logger.Info("Order created successfully", map[string]interface{}{
		"order_id":    order.ID,
		"user_id":     userID,
		"total_price": order.TotalPrice.String(),
	})
	return order, nil
}

func (s *orderService) ListMine(ctx context.Context, userID uint) ([]model.Order, error) {
	return cache.Remember(ctx, s.cache, cache.KeyUserOrders(userID), cache.TTLCatalog, func() ([]model.Order, error) {
		return s.orderRepo.FindByBuyer(userID)
	})
}

func (s *orderService) GetOrder(userID, orderID uint) (*model.Order, error) {
	order, err := s.orderRepo.FindByIDAndBuyer(orderID, userID)
	if err != nil {
		if isNotFound(err) {
			logger.Warn("Order not found", map[string]interface{}{
				"order_id": orderID,
				"user_id":  userID,
			})
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

func (s *orderService) ListAll(status string) ([]model.Order, error) {
	if status != "" && !model.OrderStatus(status).Valid() {
		return nil, ErrInvalidOrderStatus
	}
	return s.orderRepo.FindAll(status)
}

func (s *orderService) UpdateStatus(ctx context.Context, actor Actor, orderID uint, status model.OrderStatus) (*model.Order, error) {
	if !status.Valid() {
		return nil, ErrInvalidOrderStatus
	}
	if err := s.orderRepo.UpdateStatus(orderID, status); err != nil {
		return nil, notFoundOr(err, ErrOrderNotFound)
	}

	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		return nil, notFoundOr(err, ErrOrderNotFound)
	}

	s.invalidator.Apply(ctx, cache.Mutation{Kind: cache.OrderChanged, UserIDs: []uint{order.BuyerID}})
	s.audit.Record(actor, model.AuditUpdate, "order", order.ID, []string{"status"})

	logger.Info("Order status updated", map[string]interface{}{
		"order_id": orderID,
		"status":   status,
	})
	return order, nil
}
