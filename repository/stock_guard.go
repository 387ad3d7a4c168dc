package repository

import (
	"bytes"
	"context"
	"errors"
	"slices"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/iilkane/Legerity/models"
)

// ErrInsufficientStock is returned when a decrement would take stock below zero.
var ErrInsufficientStock = errors.New("insufficient stock")

// StockGuard is the only writer of product stock. Callers run it inside the
// transaction that also records what the stock was taken for.
type StockGuard interface {
	WithTx(tx *gorm.DB) StockGuard
	LockProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	LockProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error)
	Decrement(ctx context.Context, id uuid.UUID, quantity int) error
}

type GormStockGuard struct {
	db *gorm.DB
}

func NewGormStockGuard(db *gorm.DB) StockGuard {
	return &GormStockGuard{db: db}
}

func (g *GormStockGuard) WithTx(tx *gorm.DB) StockGuard {
	return &GormStockGuard{db: tx}
}

// LockProduct reads one product FOR UPDATE.
func (g *GormStockGuard) LockProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := g.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// LockProducts reads the given products FOR UPDATE in ascending id order, so
// two transactions locking overlapping sets cannot deadlock on each other.
// Ids that do not exist are absent from the result.
func (g *GormStockGuard) LockProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error) {
	result := make(map[uuid.UUID]*models.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	sorted := SortIDs(ids)

	var products []models.Product
	if err := g.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", sorted).
		Order("id").
		Find(&products).Error; err != nil {
		return nil, err
	}

	for i := range products {
		result[products[i].ID] = &products[i]
	}
	return result, nil
}

// Decrement takes quantity units of stock and counts them as sold. The WHERE
// clause keeps stock non-negative even for a caller that skipped the lock.
func (g *GormStockGuard) Decrement(ctx context.Context, id uuid.UUID, quantity int) error {
	result := g.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock >= ?", id, quantity).
		UpdateColumns(map[string]interface{}{
			"stock":        gorm.Expr("stock - ?", quantity),
			"sales_number": gorm.Expr("sales_number + ?", quantity),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrInsufficientStock
	}
	return nil
}

// SortIDs returns a deduplicated copy of ids in the byte order Postgres uses for uuid.
func SortIDs(ids []uuid.UUID) []uuid.UUID {
	sorted := slices.Clone(ids)
	slices.SortFunc(sorted, func(a, b uuid.UUID) int {
		return bytes.Compare(a[:], b[:])
	})
	return slices.Compact(sorted)
}
