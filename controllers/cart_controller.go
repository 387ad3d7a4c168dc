package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/iilkane/Legerity/common/errors"
	"github.com/iilkane/Legerity/middleware"
	"github.com/iilkane/Legerity/models"
	"github.com/iilkane/Legerity/services"
)

type CartController struct {
	cartService services.CartServiceAPI
}

func NewCartController(cartService services.CartServiceAPI) *CartController {
	return &CartController{cartService: cartService}
}

// ListItems returns the caller's cart with live prices.
func (cc *CartController) ListItems(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	view, err := cc.cartService.ListCart(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (cc *CartController) AddItem(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var req models.AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.InvalidInput("", "Invalid request body"))
		return
	}

	item, err := cc.cartService.AddItem(c.Request.Context(), userID, req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (cc *CartController) UpdateItem(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		_ = c.Error(apperrors.NotFound("Cart item not found"))
		return
	}

	var req models.UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.InvalidInput("quantity", "Quantity must be an integer"))
		return
	}

	item, err := cc.cartService.UpdateItemQuantity(c.Request.Context(), userID, itemID, req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (cc *CartController) RemoveItem(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		_ = c.Error(apperrors.NotFound("Cart item not found"))
		return
	}

	if err := cc.cartService.RemoveItem(c.Request.Context(), userID, itemID); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
