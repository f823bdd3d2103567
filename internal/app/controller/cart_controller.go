package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/campus-backend/internal/app/service"
	apperrors "github.com/ikkim/campus-backend/internal/errors"
	"github.com/ikkim/campus-backend/internal/middleware"
)

type CartController struct {
	cartService service.CartService
}

func NewCartController(cartService service.CartService) *CartController {
	return &CartController{
		cartService: cartService,
	}
}

type AddToCartRequest struct {
	BookID   uint `json:"book_id" binding:"required"`
	Quantity int  `json:"quantity" binding:"required,min=1"`
}

// GetCart returns the caller's cart, creating it on first access
// GET /api/v1/buy/cart
func (ctrl *CartController) GetCart(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	cart, err := ctrl.cartService.GetUserCart(actor.UserID)
	if err != nil {
		respondError(c, err, "Fetch cart", map[string]interface{}{
			"user_id": actor.UserID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cart": cart,
	})
}

// AddToCart adds a book or raises the quantity of the existing line
// POST /api/v1/buy/cart/items
func (ctrl *CartController) AddToCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid add to cart request", map[string]interface{}{
			"user_id": actor.UserID,
			"error":   err.Error(),
		})
		apperrors.RespondWithBindingError(c, err)
		return
	}

	item, err := ctrl.cartService.AddToCart(actor.UserID, req.BookID, req.Quantity)
	if err != nil {
		respondError(c, err, "Add to cart", map[string]interface{}{
			"user_id": actor.UserID,
			"book_id": req.BookID,
		})
		return
	}

	log.Info("Book added to cart", map[string]interface{}{
		"user_id":  actor.UserID,
		"book_id":  req.BookID,
		"quantity": item.Quantity,
	})

	c.JSON(http.StatusOK, gin.H{
		"item": item,
	})
}

// RemoveFromCart
// DELETE /api/v1/buy/cart/items/:id
func (ctrl *CartController) RemoveFromCart(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := ctrl.cartService.RemoveFromCart(actor.UserID, id); err != nil {
		respondError(c, err, "Remove from cart", map[string]interface{}{
			"user_id":      actor.UserID,
			"cart_item_id": id,
		})
		return
	}

	c.Status(http.StatusNoContent)
}
