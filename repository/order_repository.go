package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/iilkane/Legerity/models"
)

type OrderRepository interface {
	WithTx(tx *gorm.DB) OrderRepository
	Create(ctx context.Context, order *models.Order) error
	FindByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]models.Order, int64, error)
	FindByIDAndUserID(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error)
	FindByIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (*models.Order, error)
}

type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) OrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) WithTx(tx *gorm.DB) OrderRepository {
	return &GormOrderRepository{db: tx}
}

// Create inserts the order and then its lines. A repeated idempotency key for
// the same user fails with gorm.ErrDuplicatedKey.
func (r *GormOrderRepository) Create(ctx context.Context, order *models.Order) error {
	db := r.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Create(order).Error; err != nil {
		return err
	}
	if len(order.Products) == 0 {
		return nil
	}
	for i := range order.Products {
		order.Products[i].OrderID = order.ID
	}
	return db.Omit(clause.Associations).Create(&order.Products).Error
}

// FindByUserID returns one page of the user's orders, newest first.
func (r *GormOrderRepository) FindByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]models.Order, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []models.Order{}, 0, nil
	}

	orders := make([]models.Order, 0, limit)
	err := base.Scopes(withLines).
		Order("created_at DESC").
		Order("id").
		Offset(pageOffset(page, limit)).
		Limit(limit).
		Find(&orders).Error
	return orders, total, err
}

func (r *GormOrderRepository) FindByIDAndUserID(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	return r.first(ctx, "id = ? AND user_id = ?", orderID, userID)
}

// FindByIdempotencyKey finds the order a previous checkout with key created.
func (r *GormOrderRepository) FindByIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (*models.Order, error) {
	return r.first(ctx, "user_id = ? AND idempotency_key = ?", userID, key)
}

func (r *GormOrderRepository) first(ctx context.Context, cond string, args ...any) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Scopes(withLines).Where(cond, args...).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// withLines preloads order lines in a stable order.
func withLines(db *gorm.DB) *gorm.DB {
	return db.Preload("Products", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("order_products.id")
	})
}
