package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	apperrors "github.com/iilkane/Legerity/common/errors"
	"github.com/iilkane/Legerity/common/logger"
	"github.com/iilkane/Legerity/database"
	"github.com/iilkane/Legerity/models"
	awspkg "github.com/iilkane/Legerity/pkg/aws"
	"github.com/iilkane/Legerity/repository"
)

// CartServiceAPI is what the cart controller depends on.
type CartServiceAPI interface {
	GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	ListCart(ctx context.Context, userID uuid.UUID) (*models.CartView, error)
	AddItem(ctx context.Context, userID uuid.UUID, req models.AddCartItemRequest) (*models.CartItem, error)
	UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, req models.UpdateCartItemRequest) (*models.CartItem, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error
}

// CartService applies the cart mutation rules. Every mutation locks the
// user's cart row before any product row, the same order checkout uses.
type CartService struct {
	db      *gorm.DB
	carts   repository.CartRepository
	stock   repository.StockGuard
	retry   database.RetryPolicy
	metrics awspkg.MetricsRecorder
}

func NewCartService(db *gorm.DB, carts repository.CartRepository, stock repository.StockGuard, retry database.RetryPolicy, metrics awspkg.MetricsRecorder) *CartService {
	return &CartService{
		db:      db,
		carts:   carts,
		stock:   stock,
		retry:   retry,
		metrics: metrics,
	}
}

func (s *CartService) GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := s.carts.GetOrCreateCart(ctx, userID)
	if err != nil {
		logger.Error(ctx, "Failed to get or create cart", err, zap.String("user_id", userID.String()))
		return nil, storageError(err)
	}
	return cart, nil
}

// ListCart returns the user's items priced at current product prices.
func (s *CartService) ListCart(ctx context.Context, userID uuid.UUID) (*models.CartView, error) {
	if _, err := s.GetOrCreateCart(ctx, userID); err != nil {
		return nil, err
	}
	cart, err := s.carts.FindCartWithItems(ctx, userID)
	if err != nil {
		logger.Error(ctx, "Failed to load cart", err, zap.String("user_id", userID.String()))
		return nil, storageError(err)
	}
	view := models.NewCartView(cart)
	return &view, nil
}

func (s *CartService) AddItem(ctx context.Context, userID uuid.UUID, req models.AddCartItemRequest) (*models.CartItem, error) {
	if req.Product == nil || *req.Product == uuid.Nil {
		return nil, apperrors.InvalidInput("product", "This field is required")
	}
	if req.Quantity == nil || *req.Quantity == 0 {
		return nil, apperrors.InvalidInput("quantity", "This field is required")
	}
	if *req.Quantity < 1 {
		return nil, apperrors.InvalidInput("quantity", "Quantity must be at least 1.")
	}
	productID, quantity := *req.Product, *req.Quantity

	var item *models.CartItem
	err := database.Transact(ctx, s.db, s.retry, func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)

		cart, err := carts.GetOrCreateCart(ctx, userID)
		if err != nil {
			return err
		}
		if cart, err = carts.LockCart(ctx, userID); err != nil {
			return err
		}

		product, err := s.stock.WithTx(tx).LockProduct(ctx, productID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("Product not found")
		}
		if err != nil {
			return err
		}

		exists, err := carts.HasItem(ctx, cart.ID, productID)
		if err != nil {
			return err
		}
		if exists {
			return apperrors.Conflict("Product already in cart. Use PATCH to update quantity")
		}

		if quantity > product.Stock {
			return apperrors.OutOfStock(productID.String())
		}

		item = &models.CartItem{CartID: cart.ID, ProductID: productID, Quantity: quantity}
		if err := carts.CreateItem(ctx, item); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperrors.Conflict("Product already in cart. Use PATCH to update quantity")
			}
			return err
		}
		item.Product = product
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, "add cart item", err)
	}

	s.count(ctx, awspkg.MetricCartItemsAdded)
	logger.Info(ctx, "Cart item added",
		zap.String("user_id", userID.String()),
		zap.String("product_id", productID.String()),
		zap.Int("quantity", quantity),
	)
	return item, nil
}

// UpdateItemQuantity replaces the quantity of one of the user's items.
func (s *CartService) UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, req models.UpdateCartItemRequest) (*models.CartItem, error) {
	var item *models.CartItem
	err := database.Transact(ctx, s.db, s.retry, func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)

		if _, err := carts.LockCart(ctx, userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("Cart item not found")
			}
			return err
		}

		found, err := carts.FindItemForUser(ctx, itemID, userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("Cart item not found")
		}
		if err != nil {
			return err
		}

		if req.Quantity == nil {
			return apperrors.InvalidInput("quantity", "Quantity is required")
		}
		quantity := *req.Quantity
		if quantity < 1 {
			return apperrors.InvalidInput("quantity", "Quantity must be at least 1.")
		}

		product, err := s.stock.WithTx(tx).LockProduct(ctx, found.ProductID)
		if err != nil {
			return err
		}
		if quantity > product.Stock {
			return apperrors.OutOfStock(product.ID.String())
		}

		if err := carts.UpdateItemQuantity(ctx, found.ID, quantity); err != nil {
			return err
		}
		found.Quantity = quantity
		found.Product = product
		item = found
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, "update cart item", err)
	}
	return item, nil
}

func (s *CartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	err := database.Transact(ctx, s.db, s.retry, func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)

		if _, err := carts.LockCart(ctx, userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("Cart item not found")
			}
			return err
		}
		found, err := carts.FindItemForUser(ctx, itemID, userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("Cart item not found")
		}
		if err != nil {
			return err
		}
		return carts.DeleteItem(ctx, found.ID)
	})
	if err != nil {
		return s.fail(ctx, "remove cart item", err)
	}
	return nil
}

// fail logs storage faults and converts err for the caller. Rejections the
// client caused are returned as they are.
func (s *CartService) fail(ctx context.Context, op string, err error) error {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		if appErr.Kind == apperrors.KindOutOfStock {
			s.count(ctx, awspkg.MetricOutOfStock)
		}
		return appErr
	}
	logger.Error(ctx, "Failed to "+op, err)
	return storageError(err)
}

func (s *CartService) count(ctx context.Context, metric string) {
	if s.metrics == nil || !s.metrics.IsEnabled() {
		return
	}
	if err := s.metrics.RecordCount(ctx, metric, nil); err != nil {
		logger.Warn(ctx, "Failed to record metric", zap.String("metric", metric), zap.Error(err))
	}
}
