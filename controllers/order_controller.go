package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/iilkane/Legerity/common/errors"
	"github.com/iilkane/Legerity/middleware"
	"github.com/iilkane/Legerity/services"
)

type OrderController struct {
	orderService services.OrderServiceAPI
}

func NewOrderController(orderService services.OrderServiceAPI) *OrderController {
	return &OrderController{
		orderService: orderService,
	}
}

// GetOrders returns the caller's orders, newest first.
func (oc *OrderController) GetOrders(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	page, limit := parsePaginationParams(c)

	result, err := oc.orderService.GetUserOrders(c.Request.Context(), userID, page, limit)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (oc *OrderController) GetOrderByID(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		_ = c.Error(apperrors.InvalidInput("id", "Invalid order ID format"))
		return
	}

	order, err := oc.orderService.GetOrderByID(c.Request.Context(), userID, orderID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

const (
	defaultPageSize = 10
	maxPageSize     = 100
	maxPage         = 10000
)

// parsePaginationParams reads ?page and ?limit. Bad or non-positive values
// fall back to the defaults. page is capped at maxPage and limit at maxPageSize.
func parsePaginationParams(c *gin.Context) (page, limit int) {
	return min(positiveQuery(c, "page", 1), maxPage), min(positiveQuery(c, "limit", defaultPageSize), maxPageSize)
}

func positiveQuery(c *gin.Context, key string, fallback int) int {
	if v, err := strconv.Atoi(c.Query(key)); err == nil && v > 0 {
		return v
	}
	return fallback
}
