package handlers

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/authz"
	"github.com/Skotchmaster/storefront/internal/cache"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/logging"
	mwauth "github.com/Skotchmaster/storefront/internal/middleware/auth"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/search"
	"github.com/Skotchmaster/storefront/internal/util"
)

type ProductHandler struct {
	DB     *gorm.DB
	Events events.Publisher
	Search *search.Indexer
	Cache  *cache.ProductCache
}

type productRequest struct {
	StoreID     uint             `json:"store_id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *uint            `json:"stock"`
	ImageURL    string           `json:"image_url"`
}

func (h *ProductHandler) GetProducts(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	var total int64
	if err := h.DB.Model(&models.Product{}).Count(&total).Error; err != nil {
		return httpError(err)
	}

	var items []models.Product
	if err := h.DB.Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": map[string]any{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
			"has_prev":    page > 1,
			"has_next":    int64(offset+limit) < total,
		},
	})
}

func (h *ProductHandler) GetProduct(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return httpError(err)
	}

	ctx := c.Request().Context()
	if p, ok := h.Cache.Get(ctx, id); ok {
		return c.JSON(http.StatusOK, p)
	}

	var product models.Product
	if err := h.DB.First(&product, id).Error; err != nil {
		return httpError(err)
	}

	h.Cache.Set(ctx, product)
	return c.JSON(http.StatusOK, product)
}

// CreateProduct requires the vendor role; the target store must belong
// to the caller.
func (h *ProductHandler) CreateProduct(c echo.Context) error {
	var req productRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Name == "" || req.StoreID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "name and store_id are required")
	}
	if req.Price == nil || req.Price.IsNegative() {
		return echo.NewHTTPError(http.StatusBadRequest, "price must be >= 0")
	}

	var store models.Store
	if err := h.DB.First(&store, req.StoreID).Error; err != nil {
		return httpError(err)
	}
	if err := authz.RequireOwner(mwauth.UserID(c), store); err != nil {
		return httpError(err)
	}

	product := models.Product{
		StoreID:     store.ID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price.Round(2),
		ImageURL:    req.ImageURL,
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}
	if err := h.DB.Create(&product).Error; err != nil {
		return httpError(err)
	}

	publish(c, h.Events, events.TopicCatalog, fmt.Sprint(product.ID), map[string]any{
		"type":        events.TypeProductCreated,
		"product_id":  product.ID,
		"name":        product.Name,
		"description": product.Description,
		"store_name":  store.Name,
		"image_url":   product.ImageURL,
	})
	h.indexProduct(c, product)

	return c.JSON(http.StatusCreated, product)
}

func (h *ProductHandler) PatchProduct(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return httpError(err)
	}

	var product models.Product
	if err := h.DB.Preload("Store").First(&product, id).Error; err != nil {
		return httpError(err)
	}
	if err := authz.RequireOwner(mwauth.UserID(c), product); err != nil {
		return httpError(err)
	}

	var req productRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Name != "" {
		product.Name = req.Name
	}
	if req.Description != "" {
		product.Description = req.Description
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return echo.NewHTTPError(http.StatusBadRequest, "price must be >= 0")
		}
		product.Price = req.Price.Round(2)
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}
	if req.ImageURL != "" {
		product.ImageURL = req.ImageURL
	}

	if err := h.DB.Save(&product).Error; err != nil {
		return httpError(err)
	}

	h.Cache.Invalidate(c.Request().Context(), product.ID)
	h.indexProduct(c, product)

	return c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return httpError(err)
	}

	var product models.Product
	if err := h.DB.Preload("Store").First(&product, id).Error; err != nil {
		return httpError(err)
	}
	if err := authz.RequireOwner(mwauth.UserID(c), product); err != nil {
		return httpError(err)
	}

	if err := h.DB.Select("Reviews").Delete(&product).Error; err != nil {
		return httpError(err)
	}

	ctx := c.Request().Context()
	h.Cache.Invalidate(ctx, id)
	if err := h.Search.DeleteProduct(ctx, id); err != nil {
		logging.FromContext(ctx).Error("search: delete product", logging.Err(err))
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *ProductHandler) indexProduct(c echo.Context, product models.Product) {
	ctx := c.Request().Context()
	if err := h.Search.IndexProduct(ctx, product); err != nil {
		logging.FromContext(ctx).Error("search: index product", logging.Err(err))
	}
}
