package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/iilkane/Legerity/models"
)

// ProductFilter narrows ListProducts. A nil CategoryID lists everything.
type ProductFilter struct {
	CategoryID *uuid.UUID
}

// CatalogRepository is the read side of the catalog. Lookups of a missing row
// return gorm.ErrRecordNotFound.
type CatalogRepository interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error)
	ListProducts(ctx context.Context, filter ProductFilter, page, limit int) ([]models.Product, int64, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	ListReviews(ctx context.Context) ([]models.Review, error)
}

type GormCatalogRepository struct {
	db *gorm.DB
}

func NewGormCatalogRepository(db *gorm.DB) CatalogRepository {
	return &GormCatalogRepository{db: db}
}

func (r *GormCatalogRepository) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).
		Preload("Category").
		Where("id = ?", id).
		First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *GormCatalogRepository) GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// ListProducts returns one page of products, best sellers first.
func (r *GormCatalogRepository) ListProducts(ctx context.Context, filter ProductFilter, page, limit int) ([]models.Product, int64, error) {
	var products []models.Product
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Product{})
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Preload("Category").
		Offset(pageOffset(page, limit)).
		Limit(limit).
		Order("sales_number DESC").
		Order("id").
		Find(&products).Error; err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

func (r *GormCatalogRepository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := r.db.WithContext(ctx).Order("title").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// ListReviews returns every review, newest first.
func (r *GormCatalogRepository) ListReviews(ctx context.Context) ([]models.Review, error) {
	reviews := []models.Review{}
	if err := r.db.WithContext(ctx).Order("created_at DESC").Order("id").Find(&reviews).Error; err != nil {
		return nil, err
	}
	return reviews, nil
}
