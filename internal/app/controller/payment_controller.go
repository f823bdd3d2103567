package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/campus-backend/internal/app/model"
	"github.com/ikkim/campus-backend/internal/app/service"
	apperrors "github.com/ikkim/campus-backend/internal/errors"
	"github.com/ikkim/campus-backend/internal/middleware"
)

type PaymentController struct {
	paymentService service.PaymentService
}

func NewPaymentController(paymentService service.PaymentService) *PaymentController {
	return &PaymentController{
		paymentService: paymentService,
	}
}

type PaymentRequestBody struct {
	ProductType model.ProductType `json:"product_type" binding:"required,oneof=course book"`
	ProductID   uint              `json:"product_id" binding:"required"`
	OrderID     *uint             `json:"order_id"`
}

type VerifyPaymentRequest struct {
	Authority string `json:"authority" binding:"required"`
}

// RequestPayment opens a pending payment and returns the gateway redirect
// POST /api/v1/buy/payments/request
func (ctrl *PaymentController) RequestPayment(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req PaymentRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid payment request", map[string]interface{}{
			"user_id": actor.UserID,
			"error":   err.Error(),
		})
		apperrors.RespondWithBindingError(c, err)
		return
	}

	session, err := ctrl.paymentService.Request(c.Request.Context(), actor.UserID, service.PaymentRequest{
		ProductType: req.ProductType,
		ProductID:   req.ProductID,
		OrderID:     req.OrderID,
	})
	if err != nil {
		respondError(c, err, "Payment request", map[string]interface{}{
			"user_id":      actor.UserID,
			"product_type": req.ProductType,
			"product_id":   req.ProductID,
		})
		return
	}

	log.Info("Payment requested", map[string]interface{}{
		"user_id":   actor.UserID,
		"authority": session.Authority,
		"amount":    session.Amount.String(),
	})

	c.JSON(http.StatusCreated, session)
}

// VerifyPayment settles a pending payment exactly once
// POST /api/v1/buy/payments/verify
func (ctrl *PaymentController) VerifyPayment(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindingError(c, err)
		return
	}

	payment, err := ctrl.paymentService.Verify(c.Request.Context(), actor.UserID, req.Authority)
	if err != nil {
		respondError(c, err, "Payment verify", map[string]interface{}{
			"user_id":   actor.UserID,
			"authority": req.Authority,
		})
		return
	}

	log.Info("Payment verified", map[string]interface{}{
		"user_id":    actor.UserID,
		"payment_id": payment.ID,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Payment verified",
		"payment": payment,
	})
}
