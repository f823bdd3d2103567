package service

import (
	"errors"

	"github.com/ikkim/campus-backend/internal/app/model"
	"github.com/ikkim/campus-backend/internal/app/repository"
	"github.com/ikkim/campus-backend/pkg/logger"
)

var (
	ErrCartItemNotFound = errors.New("cart item not found")
	ErrInvalidQuantity  = errors.New("quantity must be at least 1")
	ErrOutOfStock       = errors.New("book is out of stock")
)

// CartView is the cart with its items and their current prices.
type CartView struct {
	ID       uint             `json:"id"`
	UserID   uint             `json:"user_id"`
	Items    []model.CartItem `json:"items"`
	Subtotal model.Money      `json:"subtotal"`
}

type CartService interface {
	GetUserCart(userID uint) (*CartView, error)
	AddToCart(userID, bookID uint, quantity int) (*model.CartItem, error)
	RemoveFromCart(userID, cartItemID uint) error
}

type cartService struct {
	cartRepo repository.CartRepository
	bookRepo repository.BookRepository
}

func NewCartService(cartRepo repository.CartRepository, bookRepo repository.BookRepository) CartService {
	return &cartService{
		cartRepo: cartRepo,
		bookRepo: bookRepo,
	}
}

func (s *cartService) GetUserCart(userID uint) (*CartView, error) {
	logger.Debug("Fetching user cart", map[string]interface{}{
		"user_id": userID,
	})

	cart, err := s.cartRepo.GetOrCreate(userID)
	if err != nil {
		logger.Error("Failed to fetch user cart", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	items, err := s.cartRepo.FindItems(cart.ID)
	if err != nil {
		return nil, err
	}

	subtotal := model.NewMoneyFromInt(0)
	for _, item := range items {
		subtotal = subtotal.Add(item.Book.Price.Mul(item.Quantity))
	}

	logger.Debug("User cart fetched", map[string]interface{}{
		"user_id": userID,
		"count":   len(items),
	})
	return &CartView{ID: cart.ID, UserID: userID, Items: items, Subtotal: subtotal}, nil
}

// AddToCart increments the quantity when the book is already in the cart.
func (s *cartService) AddToCart(userID, bookID uint, quantity int) (*model.CartItem, error) {
	logger.Info("Adding book to cart", map[string]interface{}{
		"user_id":  userID,
		"book_id":  bookID,
		"quantity": quantity,
	})

	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	book, err := s.bookRepo.FindByID(bookID)
	if err != nil {
		if isNotFound(err) {
			logger.Warn("Book not found for cart", map[string]interface{}{
				"book_id": bookID,
			})
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	if !book.InStock() {
		logger.Warn("Book out of stock", map[string]interface{}{
			"book_id": bookID,
		})
		return nil, ErrOutOfStock
	}

	cart, err := s.cartRepo.GetOrCreate(userID)
	if err != nil {
		return nil, err
	}

	item, err := s.cartRepo.AddItem(cart.ID, book.ID, quantity)
	if err != nil {
		logger.Error("Failed to add book to cart", err, map[string]interface{}{
			"user_id": userID,
			"book_id": bookID,
		})
		return nil, err
	}

	logger.Info("Book added to cart", map[string]interface{}{
		"user_id":      userID,
		"cart_item_id": item.ID,
		"quantity":     item.Quantity,
	})
	return item, nil
}

func (s *cartService) RemoveFromCart(userID, cartItemID uint) error {
	logger.Info("Removing item from cart", map[string]interface{}{
		"user_id":      userID,
		"cart_item_id": cartItemID,
	})

	cart, err := s.cartRepo.GetOrCreate(userID)
	if err != nil {
		return err
	}

	if err := s.cartRepo.RemoveItem(cart.ID, cartItemID); err != nil {
		if isNotFound(err) {
			return ErrCartItemNotFound
		}
		logger.Error("Failed to remove item from cart", err, map[string]interface{}{
			"cart_item_id": cartItemID,
		})
		return err
	}
	return nil
}
