package repository

import (
	"errors"

	"github.com/ikkim/campus-backend/internal/app/model"
	"github.com/ikkim/campus-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartRepository interface {
	// GetOrCreate returns the user's cart, creating an empty one on first use.
	GetOrCreate(userID uint) (*model.Cart, error)
	// LockForCheckout is GetOrCreate plus a row lock; call it inside a transaction.
	LockForCheckout(userID uint) (*model.Cart, error)
	FindItems(cartID uint) ([]model.CartItem, error)
	AddItem(cartID, bookID uint, quantity int) (*model.CartItem, error)
	RemoveItem(cartID, itemID uint) error
	ClearItems(cartID uint) (int64, error)
	DeleteItemForUserBook(userID, bookID uint) error
}

type cartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) GetOrCreate(userID uint) (*model.Cart, error) {
	return r.getOrCreate(r.db, userID)
}

func (r *cartRepository) LockForCheckout(userID uint) (*model.Cart, error) {
	return r.getOrCreate(r.db.Clauses(clause.Locking{Strength: "UPDATE"}), userID)
}

func (r *cartRepository) getOrCreate(q *gorm.DB, userID uint) (*model.Cart, error) {
	logger.Debug("Loading cart for user", map[string]interface{}{
		"user_id": userID,
	})

	var cart model.Cart
	err := q.Where("user_id = ?", userID).First(&cart).Error
	if err == nil {
		return &cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to load cart", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	// A concurrent request may create the cart first; keep whichever row won.
	cart = model.Cart{UserID: userID}
	err = r.db.Omit("User", "Items").
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(&cart).Error
	if err != nil {
		logger.Error("Failed to create cart", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	if cart.ID == 0 {
		if err := r.db.Where("user_id = ?", userID).First(&cart).Error; err != nil {
			logger.Error("Failed to reload cart", err, map[string]interface{}{
				"user_id": userID,
			})
			return nil, err
		}
	}

	logger.Debug("Cart created for user", map[string]interface{}{
		"user_id": userID,
		"cart_id": cart.ID,
	})
	return &cart, nil
}

func (r *cartRepository) FindItems(cartID uint) ([]model.CartItem, error) {
	var items []model.CartItem
	if err := r.db.Preload("Book").Where("cart_id = ?", cartID).Order("id").Find(&items).Error; err != nil {
		logger.Error("Failed to load cart items", err, map[string]interface{}{
			"cart_id": cartID,
		})
		return nil, err
	}
	return items, nil
}

// AddItem increments the quantity when the book is already in the cart.
func (r *cartRepository) AddItem(cartID, bookID uint, quantity int) (*model.CartItem, error) {
	logger.Debug("Adding item to cart", map[string]interface{}{
		"cart_id":  cartID,
		"book_id":  bookID,
		"quantity": quantity,
	})

	var item model.CartItem
	err := r.db.Where("cart_id = ? AND book_id = ?", cartID, bookID).First(&item).Error
	switch {
	case err == nil:
		if err := r.db.Model(&item).Update("quantity", gorm.Expr("quantity + ?", quantity)).Error; err != nil {
			logger.Error("Failed to increment cart item", err, map[string]interface{}{
				"cart_item_id": item.ID,
			})
			return nil, err
		}
		item.Quantity += quantity
	case errors.Is(err, gorm.ErrRecordNotFound):
		item = model.CartItem{CartID: cartID, BookID: bookID, Quantity: quantity}
		if err := r.db.Omit("Book").Create(&item).Error; err != nil {
			logger.Error("Failed to create cart item", err, map[string]interface{}{
				"cart_id": cartID,
				"book_id": bookID,
			})
			return nil, err
		}
	default:
		return nil, err
	}

	logger.Debug("Cart item saved", map[string]interface{}{
		"cart_item_id": item.ID,
		"quantity":     item.Quantity,
	})
	return &item, nil
}

func (r *cartRepository) RemoveItem(cartID, itemID uint) error {
	result := r.db.Where("id = ? AND cart_id = ?", itemID, cartID).Delete(&model.CartItem{})
	if result.Error != nil {
		logger.Error("Failed to remove cart item", result.Error, map[string]interface{}{
			"cart_item_id": itemID,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *cartRepository) ClearItems(cartID uint) (int64, error) {
	result := r.db.Where("cart_id = ?", cartID).Delete(&model.CartItem{})
	if result.Error != nil {
		logger.Error("Failed to clear cart", result.Error, map[string]interface{}{
			"cart_id": cartID,
		})
		return 0, result.Error
	}
	logger.Debug("Cart cleared", map[string]interface{}{
		"cart_id": cartID,
		"removed": result.RowsAffected,
	})
	return result.RowsAffected, nil
}

func (r *cartRepository) DeleteItemForUserBook(userID, bookID uint) error {
	sub := r.db.Model(&model.Cart{}).Select("id").Where("user_id = ?", userID)
	if err := r.db.Where("cart_id IN (?) AND book_id = ?", sub, bookID).Delete(&model.CartItem{}).Error; err != nil {
		logger.Error("Failed to delete purchased cart item", err, map[string]interface{}{
			"user_id": userID,
			"book_id": bookID,
		})
		return err
	}
	return nil
}
