package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	apperrors "github.com/iilkane/Legerity/common/errors"
	"github.com/iilkane/Legerity/common/logger"
	"github.com/iilkane/Legerity/models"
	"github.com/iilkane/Legerity/repository"
)

type OrderServiceAPI interface {
	GetUserOrders(ctx context.Context, userID uuid.UUID, page, limit int) (*models.OrderResponse, error)
	GetOrderByID(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
}

// OrderService serves a user's order history.
type OrderService struct {
	orderRepo repository.OrderRepository
}

func NewOrderService(orderRepo repository.OrderRepository) *OrderService {
	return &OrderService{orderRepo: orderRepo}
}

// GetUserOrders retrieves paginated orders for a specific user
func (s *OrderService) GetUserOrders(ctx context.Context, userID uuid.UUID, page, limit int) (*models.OrderResponse, error) {
	orders, total, err := s.orderRepo.FindByUserID(ctx, userID, page, limit)
	if err != nil {
		logger.Error(ctx, "Failed to fetch orders", err, zap.String("user_id", userID.String()))
		return nil, storageError(err)
	}

	return &models.OrderResponse{
		Orders: orders,
		Meta:   newMetaData(page, limit, total),
	}, nil
}

// GetOrderByID returns one of the user's orders. Orders of other users are not found.
func (s *OrderService) GetOrderByID(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.orderRepo.FindByIDAndUserID(ctx, orderID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("Order not found")
	}
	if err != nil {
		logger.Error(ctx, "Failed to fetch order", err, zap.String("order_id", orderID.String()))
		return nil, storageError(err)
	}
	return order, nil
}

func newMetaData(page, limit int, total int64) models.MetaData {
	totalPages := int64(0)
	if limit > 0 {
		totalPages = (total + int64(limit) - 1) / int64(limit)
	}
	return models.MetaData{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasMore:    int64(page) < totalPages,
	}
}
