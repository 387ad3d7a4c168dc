package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/iilkane/Legerity/common/errors"
	"github.com/iilkane/Legerity/middleware"
	"github.com/iilkane/Legerity/models"
	"github.com/iilkane/Legerity/services"
)

const IdempotencyKeyHeader = "Idempotency-Key"

type CheckoutController struct {
	checkoutService services.CheckoutServiceAPI
}

func NewCheckoutController(checkoutService services.CheckoutServiceAPI) *CheckoutController {
	return &CheckoutController{checkoutService: checkoutService}
}

// Checkout converts the caller's cart into an order.
func (cc *CheckoutController) Checkout(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var req models.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.InvalidInput("", "Invalid request body"))
		return
	}

	key := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
	if len(key) > 255 {
		_ = c.Error(apperrors.InvalidInput(IdempotencyKeyHeader, "Idempotency key is too long"))
		return
	}

	order, err := cc.checkoutService.Checkout(c.Request.Context(), userID, req, key)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  services.OrderPlacedMessage,
		"order_id": order.ID,
	})
}
