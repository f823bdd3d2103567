package repository

import (
	"github.com/ikkim/campus-backend/internal/app/model"
	"github.com/ikkim/campus-backend/pkg/logger"
	"gorm.io/gorm"
)

type BookRepository interface {
	Create(book *model.Book) error
	CreateInBatches(books []model.Book, batchSize int) error
	FindByID(id uint) (*model.Book, error)
	FindInStock() ([]model.Book, error)
	FindAll() ([]model.Book, error)
	Update(book *model.Book) error
	Delete(id uint) error
	// DecrementStock reports false when the book is out of stock.
	DecrementStock(id uint) (bool, error)
}

type bookRepository struct {
	db *gorm.DB
}

func NewBookRepository(db *gorm.DB) BookRepository {
	return &bookRepository{db: db}
}

func (r *bookRepository) Create(book *model.Book) error {
	logger.Debug("Creating book in database", map[string]interface{}{
		"name": book.Name,
	})

	if err := r.db.Create(book).Error; err != nil {
		logger.Error("Failed to create book in database", err, map[string]interface{}{
			"name": book.Name,
		})
		return err
	}

	logger.Debug("Book created in database", map[string]interface{}{
		"book_id": book.ID,
	})
	return nil
}

func (r *bookRepository) CreateInBatches(books []model.Book, batchSize int) error {
	logger.Debug("Creating books in batches", map[string]interface{}{
		"count":      len(books),
		"batch_size": batchSize,
	})

	if err := r.db.CreateInBatches(&books, batchSize).Error; err != nil {
		logger.Error("Failed to create books in batches", err)
		return err
	}
	return nil
}

func (r *bookRepository) FindByID(id uint) (*model.Book, error) {
	logger.Debug("Finding book by ID in database", map[string]interface{}{
		"book_id": id,
	})

	var book model.Book
	if err := r.db.First(&book, id).Error; err != nil {
		logger.Error("Failed to find book by ID in database", err, map[string]interface{}{
			"book_id": id,
		})
		return nil, err
	}
	return &book, nil
}

func (r *bookRepository) FindInStock() ([]model.Book, error) {
	var books []model.Book
	if err := r.db.Where("stock > 0").Order("id").Find(&books).Error; err != nil {
		logger.Error("Failed to list books in stock", err)
		return nil, err
	}
	logger.Debug("Books in stock listed", map[string]interface{}{
		"count": len(books),
	})
	return books, nil
}

func (r *bookRepository) FindAll() ([]model.Book, error) {
	var books []model.Book
	err := r.db.Order("id").Find(&books).Error
	return books, err
}

func (r *bookRepository) Update(book *model.Book) error {
	if err := r.db.Save(book).Error; err != nil {
		logger.Error("Failed to update book", err, map[string]interface{}{
			"book_id": book.ID,
		})
		return err
	}
	return nil
}

func (r *bookRepository) Delete(id uint) error {
	if err := r.db.Delete(&model.Book{}, id).Error; err != nil {
		logger.Error("Failed to delete book", err, map[string]interface{}{
			"book_id": id,
		})
		return err
	}
	return nil
}

func (r *bookRepository) DecrementStock(id uint) (bool, error) {
	logger.Debug("Decrementing book stock", map[string]interface{}{
		"book_id": id,
	})

	result := r.db.Model(&model.Book{}).
		Where("id = ? AND stock > 0", id).
		Update("stock", gorm.Expr("stock - ?", 1))
	if result.Error != nil {
		logger.Error("Failed to decrement book stock", result.Error, map[string]interface{}{
			"book_id": id,
		})
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
