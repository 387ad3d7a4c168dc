package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/iilkane/Legerity/common/errors"
	"github.com/iilkane/Legerity/services"
)

// CatalogController serves the public product, category and review listings.
type CatalogController struct {
	catalogService services.CatalogServiceAPI
}

func NewCatalogController(catalogService services.CatalogServiceAPI) *CatalogController {
	return &CatalogController{catalogService: catalogService}
}

func (cc *CatalogController) ListProducts(c *gin.Context) {
	var categoryID *uuid.UUID
	if raw := c.Query("category"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			_ = c.Error(apperrors.InvalidInput("category", "Invalid category ID format"))
			return
		}
		categoryID = &id
	}
	page, limit := parsePaginationParams(c)

	result, err := cc.catalogService.ListProducts(c.Request.Context(), categoryID, page, limit)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (cc *CatalogController) GetProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		_ = c.Error(apperrors.NotFound("Product not found"))
		return
	}

	product, err := cc.catalogService.GetProduct(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (cc *CatalogController) ListCategories(c *gin.Context) {
	categories, err := cc.catalogService.ListCategories(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (cc *CatalogController) ListReviews(c *gin.Context) {
	reviews, err := cc.catalogService.ListReviews(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, reviews)
}
