package service

import (
	"context"
	"errors"
	"strings"

	"github.com/ikkim/campus-backend/internal/app/model"
	"github.com/ikkim/campus-backend/internal/app/repository"
	"github.com/ikkim/campus-backend/internal/cache"
	"gorm.io/gorm"
)

var (
	ErrBookNotFound     = errors.New("book not found")
	ErrInvalidBookPrice = errors.New("book price must be positive")
	ErrInvalidStock     = errors.New("stock cannot be negative")
)

type BookInput struct {
	Name        string
	Description string
	Price       model.Money
	Stock       int
}

type BookService interface {
	ListInStock(ctx context.Context) ([]model.Book, error)
	ListAll() ([]model.Book, error)
	Get(id uint) (*model.Book, error)
	Create(ctx context.Context, actor Actor, input BookInput) (*model.Book, error)
	Update(ctx context.Context, actor Actor, id uint, input BookInput) (*model.Book, error)
	Delete(ctx context.Context, actor Actor, id uint) error
}

type bookService struct {
	db          *gorm.DB
	bookRepo    repository.BookRepository
	links       ShortLinkService
	audit       AuditService
	cache       cache.Store
	invalidator *cache.Invalidator
}

func NewBookService(
	db *gorm.DB,
	bookRepo repository.BookRepository,
	links ShortLinkService,
	audit AuditService,
	invalidator *cache.Invalidator,
) BookService {
	return &bookService{
		db:          db,
		bookRepo:    bookRepo,
		links:       links,
		audit:       audit,
		cache:       invalidator.Store(),
		invalidator: invalidator,
	}
}

func (s *bookService) ListInStock(ctx context.Context) ([]model.Book, error) {
	return cache.Remember(ctx, s.cache, cache.KeyBooksInStock, cache.TTLCatalog, s.bookRepo.FindInStock)
}

func (s *bookService) ListAll() ([]model.Book, error) {
	return s.bookRepo.FindAll()
}

func (s *bookService) Get(id uint) (*model.Book, error) {
	book, err := s.bookRepo.FindByID(id)
	if err != nil {
		return nil, notFoundOr(err, ErrBookNotFound)
	}
	return book, nil
}

func validateBook(input *BookInput) error {
	input.Name = strings.TrimSpace(input.Name)
	if !input.Price.IsPositive() {
		return ErrInvalidBookPrice
	}
	if input.Stock < 0 {
		return ErrInvalidStock
	}
	return nil
}

func (s *bookService) Create(ctx context.Context, actor Actor, input BookInput) (*model.Book, error) {
	if err := validateBook(&input); err != nil {
		return nil, err
	}

	book := &model.Book{
		Name:        input.Name,
		Description: input.Description,
		Price:       model.NewMoney(input.Price.Decimal),
		Stock:       input.Stock,
	}
	if err := s.bookRepo.Create(book); err != nil {
		return nil, err
	}

	s.links.EnsureFor(ctx, model.ProductBook, book.ID)
	s.invalidator.Apply(ctx, cache.Mutation{Kind: cache.BookChanged})
	s.audit.Record(actor, model.AuditCreate, "book", book.ID, []string{"name", "description", "price", "stock"})
	return book, nil
}

func (s *bookService) Update(ctx context.Context, actor Actor, id uint, input BookInput) (*model.Book, error) {
	book, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := validateBook(&input); err != nil {
		return nil, err
	}

	var changed []string
	if book.Name != input.Name {
		changed = append(changed, "name")
	}
	if book.Description != input.Description {
		changed = append(changed, "description")
	}
	if !book.Price.Equal(input.Price.Decimal) {
		changed = append(changed, "price")
	}
	if book.Stock != input.Stock {
		changed = append(changed, "stock")
	}

	book.Name = input.Name
	book.Description = input.Description
	book.Price = model.NewMoney(input.Price.Decimal)
	book.Stock = input.Stock
	if err := s.bookRepo.Update(book); err != nil {
		return nil, err
	}

	s.invalidator.Apply(ctx, cache.Mutation{Kind: cache.BookChanged})
	s.audit.Record(actor, model.AuditUpdate, "book", book.ID, changed)
	return book, nil
}

// Delete removes the book together with its order items and recomputes the
// total of every order that held it.
func (s *bookService) Delete(ctx context.Context, actor Actor, id uint) error {
	book, err := s.Get(id)
	if err != nil {
		return err
	}

	var buyers []uint
	err = s.db.Transaction(func(tx *gorm.DB) error {
		orderRepo := repository.NewOrderRepository(tx)
		orders, err := orderRepo.FindContainingBook(book.ID)
		if err != nil {
			return err
		}
		if err := orderRepo.DeleteItemsForBook(book.ID); err != nil {
			return err
		}
		if err := repository.NewBookRepository(tx).Delete(book.ID); err != nil {
			return err
		}

		seen := make(map[uint]bool)
		for _, order := range orders {
			if _, err := orderRepo.RecalculateTotal(order.ID); err != nil {
				return err
			}
			if !seen[order.BuyerID] {
				seen[order.BuyerID] = true
				buyers = append(buyers, order.BuyerID)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.links.Forget(ctx, model.ProductBook, book.ID)
	mutations := []cache.Mutation{{Kind: cache.BookChanged}}
	if len(buyers) > 0 {
		mutations = append(mutations, cache.Mutation{Kind: cache.OrderChanged, UserIDs: buyers})
	}
	s.invalidator.Apply(ctx, mutations...)
	s.audit.Record(actor, model.AuditDelete, "book", book.ID, nil)
	return nil
}
