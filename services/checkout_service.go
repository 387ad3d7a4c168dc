package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	apperrors "github.com/iilkane/Legerity/common/errors"
	"github.com/iilkane/Legerity/common/logger"
	"github.com/iilkane/Legerity/database"
	"github.com/iilkane/Legerity/kafka"
	"github.com/iilkane/Legerity/models"
	awspkg "github.com/iilkane/Legerity/pkg/aws"
	"github.com/iilkane/Legerity/repository"
)

const (
	EventOrderPlaced    = "order.placed"
	OrderPlacedMessage  = "Order placed successfully."
	eventPublishTimeout = 5 * time.Second
)

// CheckoutServiceAPI is what the checkout controller depends on.
type CheckoutServiceAPI interface {
	Checkout(ctx context.Context, userID uuid.UUID, req models.CheckoutRequest, idempotencyKey string) (*models.Order, error)
}

// CheckoutOptions carries the optional collaborators of CheckoutService. Nil
// collaborators are skipped.
type CheckoutOptions struct {
	MaxRetries     int
	RetryBackoff   time.Duration
	IdempotencyTTL time.Duration
	Idempotency    repository.IdempotencyStore
	Producer       kafka.ProducerAPI
	SNS            awspkg.SNSPublisher
	SNSTopicArn    string
	Metrics        awspkg.MetricsRecorder
	ProductCache   ProductCache
}

// ProductCache drops cached product detail whose stock a checkout changed.
type ProductCache interface {
	Invalidate(ctx context.Context, ids ...uuid.UUID) error
}

// CheckoutService turns a cart into an order. Everything between reading the
// cart and emptying it happens in one transaction.
type CheckoutService struct {
	db       *gorm.DB
	carts    repository.CartRepository
	orders   repository.OrderRepository
	stock    repository.StockGuard
	validate *validator.Validate
	opts     CheckoutOptions
}

func NewCheckoutService(db *gorm.DB, carts repository.CartRepository, orders repository.OrderRepository, stock repository.StockGuard, opts CheckoutOptions) *CheckoutService {
	return &CheckoutService{
		db:       db,
		carts:    carts,
		orders:   orders,
		stock:    stock,
		validate: NewValidator(),
		opts:     opts,
	}
}

// Checkout places an order for everything in the user's cart. A non-empty
// idempotencyKey that already produced an order returns that order again.
func (s *CheckoutService) Checkout(ctx context.Context, userID uuid.UUID, req models.CheckoutRequest, idempotencyKey string) (*models.Order, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}

	if idempotencyKey != "" {
		previous, err := s.replay(ctx, userID, idempotencyKey)
		if err != nil {
			return nil, err
		}
		if previous != nil {
			logger.Info(ctx, "Returning order for repeated checkout",
				zap.String("order_id", previous.ID.String()),
				zap.String("idempotency_key", idempotencyKey),
			)
			return previous, nil
		}
	}

	start := time.Now()
	policy := database.RetryPolicy{
		MaxRetries: s.opts.MaxRetries,
		Backoff:    s.opts.RetryBackoff,
		OnRetry: func(attempt int, err error) {
			logger.Warn(ctx, "Retrying checkout after transient storage fault",
				zap.Int("attempt", attempt),
				zap.String("user_id", userID.String()),
				zap.Error(err),
			)
			s.count(ctx, awspkg.MetricCheckoutRetried)
		},
	}

	var (
		order    *models.Order
		replayed bool
	)
	err := database.Transact(ctx, s.db, policy, func(tx *gorm.DB) error {
		var err error
		order, replayed, err = s.commit(ctx, tx, userID, req, idempotencyKey)
		return err
	})
	if err != nil {
		if idempotencyKey != "" && errors.Is(err, gorm.ErrDuplicatedKey) {
			// A concurrent request with the same key committed first.
			if previous, replayErr := s.replay(ctx, userID, idempotencyKey); replayErr == nil && previous != nil {
				return previous, nil
			}
		}
		return nil, s.fail(ctx, userID, err)
	}
	if replayed {
		logger.Info(ctx, "Returning order for concurrent repeated checkout",
			zap.String("order_id", order.ID.String()),
			zap.String("idempotency_key", idempotencyKey),
		)
		return order, nil
	}

	s.afterCommit(ctx, order, idempotencyKey, time.Since(start))
	return order, nil
}

// commit runs inside the checkout transaction. It reports replayed when an
// order for idempotencyKey was committed by a request that held the cart lock
// first.
func (s *CheckoutService) commit(ctx context.Context, tx *gorm.DB, userID uuid.UUID, req models.CheckoutRequest, idempotencyKey string) (*models.Order, bool, error) {
	carts := s.carts.WithTx(tx)
	stock := s.stock.WithTx(tx)

	cart, err := carts.LockCart(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, apperrors.EmptyCart()
	}
	if err != nil {
		return nil, false, err
	}

	if idempotencyKey != "" {
		previous, err := s.orders.WithTx(tx).FindByIdempotencyKey(ctx, userID, idempotencyKey)
		if err == nil {
			return previous, true, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, err
		}
	}

	items, err := carts.ListItems(ctx, cart.ID)
	if err != nil {
		return nil, false, err
	}
	if len(items) == 0 {
		return nil, false, apperrors.EmptyCart()
	}

	productIDs := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		productIDs = append(productIDs, item.ProductID)
	}
	products, err := stock.LockProducts(ctx, productIDs)
	if err != nil {
		return nil, false, err
	}

	total := decimal.Zero
	lines := make([]models.OrderProduct, 0, len(items))
	for _, item := range items {
		product, ok := products[item.ProductID]
		if !ok {
			return nil, false, apperrors.NotFound("Product not found")
		}
		if item.Quantity > product.Stock {
			return nil, false, apperrors.OutOfStock(product.ID.String())
		}
		total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))

		productID := product.ID
		lines = append(lines, models.OrderProduct{
			ProductID: &productID,
			Quantity:  item.Quantity,
			UnitPrice: product.Price,
		})
	}

	order := &models.Order{
		UserID:      userID,
		TotalPrice:  total,
		Address:     req.Address,
		ZipCode:     req.ZipCode,
		PhoneNumber: req.PhoneNumber,
		Status:      models.OrderStatusPrepared,
		Products:    lines,
	}
	if idempotencyKey != "" {
		key := idempotencyKey
		order.IdempotencyKey = &key
	}
	if err := s.orders.WithTx(tx).Create(ctx, order); err != nil {
		return nil, false, err
	}

	// Decrement in lock order.
	for _, id := range repository.SortIDs(productIDs) {
		var quantity int
		for _, item := range items {
			if item.ProductID == id {
				quantity = item.Quantity
				break
			}
		}
		if err := stock.Decrement(ctx, id, quantity); err != nil {
			if errors.Is(err, repository.ErrInsufficientStock) {
				return nil, false, apperrors.OutOfStock(id.String())
			}
			return nil, false, err
		}
	}

	if _, err := carts.ClearItems(ctx, cart.ID); err != nil {
		return nil, false, err
	}
	return order, false, nil
}

// replay finds the order an earlier checkout with the same key produced.
func (s *CheckoutService) replay(ctx context.Context, userID uuid.UUID, key string) (*models.Order, error) {
	if s.opts.Idempotency != nil {
		orderID, ok, err := s.opts.Idempotency.Get(ctx, userID, key)
		if err != nil {
			logger.Warn(ctx, "Idempotency cache lookup failed", zap.Error(err))
		} else if ok {
			order, err := s.orders.FindByIDAndUserID(ctx, orderID, userID)
			if err == nil {
				return order, nil
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, storageError(err)
			}
		}
	}

	order, err := s.orders.FindByIdempotencyKey(ctx, userID, key)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		logger.Error(ctx, "Failed to look up idempotency key", err)
		return nil, storageError(err)
	}
	return order, nil
}

func (s *CheckoutService) fail(ctx context.Context, userID uuid.UUID, err error) error {
	s.count(ctx, awspkg.MetricCheckoutFailed)

	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		if appErr.Kind == apperrors.KindOutOfStock {
			s.count(ctx, awspkg.MetricOutOfStock)
		}
		logger.Info(ctx, "Checkout rejected",
			zap.String("user_id", userID.String()),
			zap.String("kind", string(appErr.Kind)),
			zap.String("product_id", appErr.ProductID),
		)
		return appErr
	}

	logger.Error(ctx, "Checkout failed", err, zap.String("user_id", userID.String()))
	return storageError(err)
}

// afterCommit does the best-effort work that follows a committed order. None
// of it can fail the checkout.
func (s *CheckoutService) afterCommit(ctx context.Context, order *models.Order, idempotencyKey string, elapsed time.Duration) {
	bgCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), eventPublishTimeout)
	defer cancel()

	if idempotencyKey != "" && s.opts.Idempotency != nil {
		if err := s.opts.Idempotency.Set(bgCtx, order.UserID, idempotencyKey, order.ID, s.opts.IdempotencyTTL); err != nil {
			logger.Warn(ctx, "Failed to cache idempotency key", zap.Error(err))
		}
	}

	if s.opts.ProductCache != nil {
		ids := make([]uuid.UUID, 0, len(order.Products))
		for _, line := range order.Products {
			if line.ProductID != nil {
				ids = append(ids, *line.ProductID)
			}
		}
		if err := s.opts.ProductCache.Invalidate(bgCtx, ids...); err != nil {
			logger.Warn(ctx, "Failed to invalidate cached products", zap.Error(err))
		}
	}

	s.count(bgCtx, awspkg.MetricOrdersCreated)
	if s.opts.Metrics != nil && s.opts.Metrics.IsEnabled() {
		if err := s.opts.Metrics.RecordLatency(bgCtx, awspkg.MetricCheckoutLatency, elapsed, nil); err != nil {
			logger.Warn(ctx, "Failed to record metric", zap.String("metric", awspkg.MetricCheckoutLatency), zap.Error(err))
		}
	}

	logger.Info(ctx, "Order placed",
		zap.String("order_id", order.ID.String()),
		zap.String("user_id", order.UserID.String()),
		zap.String("total_price", order.TotalPrice.StringFixed(2)),
		zap.Int("lines", len(order.Products)),
	)

	evt := NewOrderPlacedEvent(order)
	if s.opts.Producer != nil {
		if err := s.opts.Producer.PublishOrderPlaced(bgCtx, evt); err != nil {
			logger.Warn(ctx, "Kafka publish failed", zap.String("order_id", evt.OrderID), zap.Error(err))
		}
	}
	if s.opts.SNS != nil && s.opts.SNSTopicArn != "" {
		payload, err := json.Marshal(evt)
		if err == nil {
			err = s.opts.SNS.Publish(bgCtx, s.opts.SNSTopicArn, awspkg.Message{
				Type:    EventOrderPlaced,
				GroupID: evt.UserID,
				DedupID: evt.OrderID,
				Body:    payload,
			})
		}
		if err != nil {
			logger.Warn(ctx, "SNS publish failed", zap.String("order_id", evt.OrderID), zap.Error(err))
		}
	}
}

func (s *CheckoutService) count(ctx context.Context, metric string) {
	if s.opts.Metrics == nil || !s.opts.Metrics.IsEnabled() {
		return
	}
	if err := s.opts.Metrics.RecordCount(ctx, metric, nil); err != nil {
		logger.Warn(ctx, "Failed to record metric", zap.String("metric", metric), zap.Error(err))
	}
}

func NewOrderPlacedEvent(order *models.Order) models.OrderPlacedEvent {
	items := make([]models.OrderEventItem, 0, len(order.Products))
	for _, line := range order.Products {
		item := models.OrderEventItem{Quantity: line.Quantity, UnitPrice: line.UnitPrice}
		if line.ProductID != nil {
			item.ProductID = line.ProductID.String()
		}
		items = append(items, item)
	}
	return models.OrderPlacedEvent{
		Event:      EventOrderPlaced,
		OrderID:    order.ID.String(),
		UserID:     order.UserID.String(),
		TotalPrice: order.TotalPrice,
		Items:      items,
		Timestamp:  time.Now().UTC(),
	}
}
