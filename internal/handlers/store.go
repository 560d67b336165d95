package handlers

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/authz"
	"github.com/Skotchmaster/storefront/internal/events"
	mwauth "github.com/Skotchmaster/storefront/internal/middleware/auth"
	"github.com/Skotchmaster/storefront/internal/models"
)

type StoreHandler struct {
	DB     *gorm.DB
	Events events.Publisher
}

type storeRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	LogoURL     string `json:"logo_url"`
}

func (h *StoreHandler) ListStores(c echo.Context) error {
	var stores []models.Store
	if err := h.DB.Order("id ASC").Find(&stores).Error; err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, stores)
}

func (h *StoreHandler) GetStore(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return httpError(err)
	}

	var store models.Store
	if err := h.DB.Preload("Products").First(&store, id).Error; err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, store)
}

// CreateStore requires the vendor role (enforced on the route group) and
// announces the new store on the side-channel.
func (h *StoreHandler) CreateStore(c echo.Context) error {
	var req storeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}

	store := models.Store{
		Name:        req.Name,
		Description: req.Description,
		LogoURL:     req.LogoURL,
		VendorID:    mwauth.UserID(c),
	}
	if err := h.DB.Create(&store).Error; err != nil {
		return httpError(err)
	}

	publish(c, h.Events, events.TopicCatalog, fmt.Sprint(store.ID), map[string]any{
		"type":        events.TypeStoreCreated,
		"store_id":    store.ID,
		"name":        store.Name,
		"description": store.Description,
		"image_url":   store.LogoURL,
	})

	return c.JSON(http.StatusCreated, store)
}

func (h *StoreHandler) UpdateStore(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return httpError(err)
	}

	var store models.Store
	if err := h.DB.First(&store, id).Error; err != nil {
		return httpError(err)
	}
	if err := authz.RequireOwner(mwauth.UserID(c), store); err != nil {
		return httpError(err)
	}

	var req storeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Name != "" {
		store.Name = req.Name
	}
	store.Description = req.Description
	if req.LogoURL != "" {
		store.LogoURL = req.LogoURL
	}

	if err := h.DB.Save(&store).Error; err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, store)
}

// DeleteStore cascades to the store's products.
func (h *StoreHandler) DeleteStore(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return httpError(err)
	}

	var store models.Store
	if err := h.DB.First(&store, id).Error; err != nil {
		return httpError(err)
	}
	if err := authz.RequireOwner(mwauth.UserID(c), store); err != nil {
		return httpError(err)
	}

	if err := h.DB.Select("Products").Delete(&store).Error; err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
