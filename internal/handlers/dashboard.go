package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	mwauth "github.com/Skotchmaster/storefront/internal/middleware/auth"
	"github.com/Skotchmaster/storefront/internal/models"
)

type DashboardHandler struct {
	DB *gorm.DB
}

// VendorDashboard lists the caller's stores and every product in them.
func (h *DashboardHandler) VendorDashboard(c echo.Context) error {
	vendorID := mwauth.UserID(c)

	var stores []models.Store
	if err := h.DB.Where("vendor_id = ?", vendorID).Order("id ASC").Find(&stores).Error; err != nil {
		return httpError(err)
	}

	var products []models.Product
	if err := h.DB.
		Joins("JOIN stores ON stores.id = products.store_id").
		Where("stores.vendor_id = ?", vendorID).
		Order("products.id ASC").
		Find(&products).Error; err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"stores": stores, "products": products})
}

// BuyerDashboard lists the caller's purchase history.
func (h *DashboardHandler) BuyerDashboard(c echo.Context) error {
	var purchases []models.Purchase
	if err := h.DB.
		Where("user_id = ?", mwauth.UserID(c)).
		Order("purchased_at DESC").
		Find(&purchases).Error; err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"purchases": purchases})
}
