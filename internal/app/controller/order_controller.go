package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/campus-backend/internal/app/model"
	"github.com/ikkim/campus-backend/internal/app/service"
	apperrors "github.com/ikkim/campus-backend/internal/errors"
	"github.com/ikkim/campus-backend/internal/middleware"
)

type OrderController struct {
	orderService service.OrderService
}

func NewOrderController(orderService service.OrderService) *OrderController {
	return &OrderController{
		orderService: orderService,
	}
}

type UpdateOrderStatusRequest struct {
	Status model.OrderStatus `json:"status" binding:"required"`
}

// Checkout turns the cart into a pending order
// POST /api/v1/buy/checkout
func (ctrl *OrderController) Checkout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	actor, ok := currentActor(c)
	if !ok {
		return
	}

	order, err := ctrl.orderService.Checkout(c.Request.Context(), actor.UserID)
	if err != nil {
		respondError(c, err, "Checkout", map[string]interface{}{
			"user_id": actor.UserID,
		})
		return
	}

	log.Info("Cart checked out", map[string]interface{}{
		"user_id":  actor.UserID,
		"order_id": order.ID,
		"total":    order.TotalPrice.String(),
	})

	c.JSON(http.StatusCreated, gin.H{
		"order": order,
	})
}

// GetOrders returns the caller's orders
// GET /api/v1/buy/orders
func (ctrl *OrderController) GetOrders(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	orders, err := ctrl.orderService.ListMine(c.Request.Context(), actor.UserID)
	if err != nil {
		respondError(c, err, "List orders", map[string]interface{}{
			"user_id": actor.UserID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"count":  len(orders),
	})
}

// GetOrderByID returns one of the caller's orders
// GET /api/v1/buy/orders/:id
func (ctrl *OrderController) GetOrderByID(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	order, err := ctrl.orderService.GetOrder(actor.UserID, id)
	if err != nil {
		respondError(c, err, "Fetch order", map[string]interface{}{
			"user_id":  actor.UserID,
			"order_id": id,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order": order,
	})
}

// ListAllOrders optionally filtered by ?status=
// GET /api/v1/management/orders
func (ctrl *OrderController) ListAllOrders(c *gin.Context) {
	orders, err := ctrl.orderService.ListAll(c.Query("status"))
	if err != nil {
		respondError(c, err, "List all orders", map[string]interface{}{
			"status": c.Query("status"),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"count":  len(orders),
	})
}

// UpdateOrderStatus
// PATCH /api/v1/management/orders/:id/status
func (ctrl *OrderController) UpdateOrderStatus(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindingError(c, err)
		return
	}

	order, err := ctrl.orderService.UpdateStatus(c.Request.Context(), actor, id, req.Status)
	if err != nil {
		respondError(c, err, "Update order status", map[string]interface{}{
			"order_id": id,
			"status":   req.Status,
		})
		return
	}

	log.Info("Order status updated", map[string]interface{}{
		"order_id": id,
		"status":   order.Status,
	})

	c.JSON(http.StatusOK, gin.H{
		"order": order,
	})
}
