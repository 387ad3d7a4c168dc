package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "github.com/iilkane/Legerity/common/errors"
	"github.com/iilkane/Legerity/common/logger"
	"github.com/iilkane/Legerity/models"
	"github.com/iilkane/Legerity/repository"
)

type CatalogServiceAPI interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*models.ProductView, error)
	ListProducts(ctx context.Context, categoryID *uuid.UUID, page, limit int) (*models.ProductListResponse, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	ListReviews(ctx context.Context) ([]models.Review, error)
}

type CatalogService struct {
	catalog repository.CatalogRepository
}

func NewCatalogService(catalog repository.CatalogRepository) *CatalogService {
	return &CatalogService{catalog: catalog}
}

func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*models.ProductView, error) {
	product, err := s.catalog.GetProduct(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("Product not found")
	}
	if err != nil {
		logger.Error(ctx, "Failed to fetch product", err)
		return nil, storageError(err)
	}
	view := models.NewProductView(product)
	return &view, nil
}

// ListProducts pages through the catalog, optionally within one category.
func (s *CatalogService) ListProducts(ctx context.Context, categoryID *uuid.UUID, page, limit int) (*models.ProductListResponse, error) {
	if categoryID != nil {
		if _, err := s.catalog.GetCategory(ctx, *categoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.NotFound("Category not found")
			}
			return nil, storageError(err)
		}
	}

	products, total, err := s.catalog.ListProducts(ctx, repository.ProductFilter{CategoryID: categoryID}, page, limit)
	if err != nil {
		logger.Error(ctx, "Failed to list products", err)
		return nil, storageError(err)
	}

	views := make([]models.ProductView, 0, len(products))
	for i := range products {
		views = append(views, models.NewProductView(&products[i]))
	}
	return &models.ProductListResponse{
		Products: views,
		Meta:     newMetaData(page, limit, total),
	}, nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.catalog.ListCategories(ctx)
	if err != nil {
		logger.Error(ctx, "Failed to list categories", err)
		return nil, storageError(err)
	}
	return categories, nil
}

func (s *CatalogService) ListReviews(ctx context.Context) ([]models.Review, error) {
	reviews, err := s.catalog.ListReviews(ctx)
	if err != nil {
		logger.Error(ctx, "Failed to list reviews", err)
		return nil, storageError(err)
	}
	return reviews, nil
}
