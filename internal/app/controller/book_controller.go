package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/campus-backend/internal/app/model"
	"github.com/ikkim/campus-backend/internal/app/service"
	apperrors "github.com/ikkim/campus-backend/internal/errors"
)

type BookController struct {
	bookService service.BookService
}

func NewBookController(bookService service.BookService) *BookController {
	return &BookController{
		bookService: bookService,
	}
}

type BookRequest struct {
	Name        string      `json:"name" binding:"required,max=100"`
	Description string      `json:"description"`
	Price       model.Money `json:"price"`
	Stock       int         `json:"stock"`
}

func (r BookRequest) input() service.BookInput {
	return service.BookInput{
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Stock:       r.Stock,
	}
}

// ListStoreBooks lists books with stock left
// GET /api/v1/store/books
func (ctrl *BookController) ListStoreBooks(c *gin.Context) {
	books, err := ctrl.bookService.ListInStock(c.Request.Context())
	if err != nil {
		respondError(c, err, "List books", nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"books": books,
		"count": len(books),
	})
}

// GetBook
// GET /api/v1/store/books/:id
func (ctrl *BookController) GetBook(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	book, err := ctrl.bookService.Get(id)
	if err != nil {
		respondError(c, err, "Fetch book", map[string]interface{}{
			"book_id": id,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"book": book,
	})
}

// ListAllBooks includes books that are out of stock
// GET /api/v1/management/books
func (ctrl *BookController) ListAllBooks(c *gin.Context) {
	books, err := ctrl.bookService.ListAll()
	if err != nil {
		respondError(c, err, "List all books", nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"books": books,
		"count": len(books),
	})
}

// CreateBook
// POST /api/v1/management/books
func (ctrl *BookController) CreateBook(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindingError(c, err)
		return
	}

	book, err := ctrl.bookService.Create(c.Request.Context(), actor, req.input())
	if err != nil {
		respondError(c, err, "Create book", map[string]interface{}{
			"name": req.Name,
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"book": book,
	})
}

// UpdateBook
// PUT /api/v1/management/books/:id
func (ctrl *BookController) UpdateBook(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindingError(c, err)
		return
	}

	book, err := ctrl.bookService.Update(c.Request.Context(), actor, id, req.input())
	if err != nil {
		respondError(c, err, "Update book", map[string]interface{}{
			"book_id": id,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"book": book,
	})
}

// DeleteBook
// DELETE /api/v1/management/books/:id
func (ctrl *BookController) DeleteBook(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := ctrl.bookService.Delete(c.Request.Context(), actor, id); err != nil {
		respondError(c, err, "Delete book", map[string]interface{}{
			"book_id": id,
		})
		return
	}

	c.Status(http.StatusNoContent)
}
