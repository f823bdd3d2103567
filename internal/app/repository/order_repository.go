package repository

import (
	"github.com/ikkim/campus-backend/internal/app/model"
	"github.com/ikkim/campus-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderRepository interface {
	Create(order *model.Order) error
	CreateItems(items []model.OrderItem) error
	// RecalculateTotal sets total_price to the sum of the persisted items.
	RecalculateTotal(orderID uint) (model.Money, error)
	FindByID(id uint) (*model.Order, error)
	FindByIDAndBuyer(id, buyerID uint) (*model.Order, error)
	FindByBuyer(buyerID uint) ([]model.Order, error)
	FindAll(status string) ([]model.Order, error)
	FindLatestPendingWithBook(buyerID, bookID uint) (*model.Order, error)
	FindContainingBook(bookID uint) ([]model.Order, error)
	DeleteItemsForBook(bookID uint) error
	UpdateStatus(id uint, status model.OrderStatus) error
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) preloadOrder() *gorm.DB {
	return r.db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("id").Preload("Book")
	})
}

func (r *orderRepository) Create(order *model.Order) error {
	logger.Debug("Creating order in database", map[string]interface{}{
		"buyer_id": order.BuyerID,
		"status":   order.Status,
	})

	if err := r.db.Omit("Buyer", "Items").Create(order).Error; err != nil {
		logger.Error("Failed to create order in database", err, map[string]interface{}{
			"buyer_id": order.BuyerID,
		})
		return err
	}

	logger.Debug("Order created in database", map[string]interface{}{
		"order_id": order.ID,
		"buyer_id": order.BuyerID,
	})
	return nil
}

func (r *orderRepository) CreateItems(items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	if err := r.db.Omit("Book").Create(&items).Error; err != nil {
		logger.Error("Failed to create order items", err, map[string]interface{}{
			"order_id": items[0].OrderID,
			"count":    len(items),
		})
		return err
	}
	return nil
}

func (r *orderRepository) RecalculateTotal(orderID uint) (model.Money, error) {
	var items []model.OrderItem
	if err := r.db.Where("order_id = ?", orderID).Find(&items).Error; err != nil {
		logger.Error("Failed to load order items for total", err, map[string]interface{}{
			"order_id": orderID,
		})
		return model.Money{}, err
	}

	total := model.NewMoney(decimal.Zero)
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}

	if err := r.db.Model(&model.Order{}).Where("id = ?", orderID).Update("total_price", total).Error; err != nil {
		logger.Error("Failed to update order total", err, map[string]interface{}{
			"order_id": orderID,
		})
		return model.Money{}, err
	}

	logger.Debug("Order total recalculated", map[string]interface{}{
		"order_id": orderID,
		"total":    total.String(),
		"items":    len(items),
	})
	return total, nil
}

func (r *orderRepository) FindByID(id uint) (*model.Order, error) {
	logger.Debug("Finding order by ID in database", map[string]interface{}{
		"order_id": id,
	})

	var order model.Order
	if err := r.preloadOrder().First(&order, id).Error; err != nil {
		logger.Error("Failed to find order by ID in database", err, map[string]interface{}{
			"order_id": id,
		})
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) FindByIDAndBuyer(id, buyerID uint) (*model.Order, error) {
	var order model.Order
	if err := r.preloadOrder().Where("id = ? AND buyer_id = ?", id, buyerID).First(&order).Error; err != nil {
		logger.Error("Failed to find buyer order", err, map[string]interface{}{
			"order_id": id,
			"buyer_id": buyerID,
		})
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) FindByBuyer(buyerID uint) ([]model.Order, error) {
	logger.Debug("Finding orders by buyer", map[string]interface{}{
		"buyer_id": buyerID,
	})

	var orders []model.Order
	if err := r.preloadOrder().Where("buyer_id = ?", buyerID).Order("created_at DESC, id DESC").Find(&orders).Error; err != nil {
		logger.Error("Failed to find orders by buyer", err, map[string]interface{}{
			"buyer_id": buyerID,
		})
		return nil, err
	}

	logger.Debug("Orders found by buyer", map[string]interface{}{
		"buyer_id": buyerID,
		"count":    len(orders),
	})
	return orders, nil
}

func (r *orderRepository) FindAll(status string) ([]model.Order, error) {
	q := r.preloadOrder()
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var orders []model.Order
	err := q.Order("id DESC").Find(&orders).Error
	return orders, err
}

func (r *orderRepository) FindLatestPendingWithBook(buyerID, bookID uint) (*model.Order, error) {
	var order model.Order
	err := r.db.Joins("JOIN order_items ON order_items.order_id = orders.id").
		Where("orders.buyer_id = ? AND orders.status = ? AND order_items.book_id = ?", buyerID, model.OrderStatusPending, bookID).
		Order("orders.created_at DESC, orders.id DESC").
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindContainingBook returns id and buyer of every order with an item for the book.
func (r *orderRepository) FindContainingBook(bookID uint) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.Select("DISTINCT orders.id, orders.buyer_id").
		Joins("JOIN order_items ON order_items.order_id = orders.id").
		Where("order_items.book_id = ?", bookID).
		Find(&orders).Error
	if err != nil {
		logger.Error("Failed to find orders containing book", err, map[string]interface{}{
			"book_id": bookID,
		})
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) DeleteItemsForBook(bookID uint) error {
	result := r.db.Where("book_id = ?", bookID).Delete(&model.OrderItem{})
	if result.Error != nil {
		logger.Error("Failed to delete order items for book", result.Error, map[string]interface{}{
			"book_id": bookID,
		})
		return result.Error
	}
	logger.Debug("Order items deleted for book", map[string]interface{}{
		"book_id": bookID,
		"deleted": result.RowsAffected,
	})
	return nil
}

func (r *orderRepository) UpdateStatus(id uint, status model.OrderStatus) error {
	logger.Debug("Updating order status", map[string]interface{}{
		"order_id": id,
		"status":   status,
	})

	result := r.db.Model(&model.Order{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		logger.Error("Failed to update order status", result.Error, map[string]interface{}{
			"order_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
