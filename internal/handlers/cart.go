package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/checkout"
	mwauth "github.com/Skotchmaster/storefront/internal/middleware/auth"
	"github.com/Skotchmaster/storefront/internal/models"
)

type CartHandler struct {
	DB       *gorm.DB
	Checkout *checkout.Service
}

type cartAddRequest struct {
	ProductID uint `json:"product_id"`
	Quantity  uint `json:"quantity"`
}

type cartLine struct {
	Product  models.Product  `json:"product"`
	Quantity uint            `json:"quantity"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// AddToCart is additive: repeated adds for one product accumulate.
// Stock is not validated here, only at checkout.
func (h *CartHandler) AddToCart(c echo.Context) error {
	userID := mwauth.UserID(c)

	var req cartAddRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}

	var product models.Product
	if err := h.DB.First(&product, req.ProductID).Error; err != nil {
		return httpError(err)
	}

	var item models.CartItem
	err := h.DB.Where("user_id = ? AND product_id = ?", userID, req.ProductID).First(&item).Error
	switch {
	case err == nil:
		item.Quantity += req.Quantity
		if err := h.DB.Save(&item).Error; err != nil {
			return httpError(err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		item = models.CartItem{UserID: userID, ProductID: req.ProductID, Quantity: req.Quantity}
		if err := h.DB.Create(&item).Error; err != nil {
			return httpError(err)
		}
	default:
		return httpError(err)
	}

	return c.JSON(http.StatusOK, item)
}

// GetCart returns the lines with subtotals and the running total. Lines
// whose product has been deleted are dropped from the cart silently.
func (h *CartHandler) GetCart(c echo.Context) error {
	userID := mwauth.UserID(c)

	var items []models.CartItem
	if err := h.DB.Where("user_id = ?", userID).Order("product_id ASC").Find(&items).Error; err != nil {
		return httpError(err)
	}

	lines := make([]cartLine, 0, len(items))
	total := decimal.Zero
	for _, item := range items {
		var product models.Product
		if err := h.DB.First(&product, item.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				h.DB.Delete(&models.CartItem{}, item.ID)
				continue
			}
			return httpError(err)
		}
		subtotal := product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		lines = append(lines, cartLine{Product: product, Quantity: item.Quantity, Subtotal: subtotal})
		total = total.Add(subtotal)
	}

	return c.JSON(http.StatusOK, echo.Map{"items": lines, "total": total})
}

func (h *CartHandler) RemoveFromCart(c echo.Context) error {
	userID := mwauth.UserID(c)

	productID, err := parseID(c, "product_id")
	if err != nil {
		return httpError(err)
	}

	if err := h.DB.
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.CartItem{}).Error; err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// MakeOrder runs the checkout engine for the calling buyer.
func (h *CartHandler) MakeOrder(c echo.Context) error {
	var user models.User
	if err := h.DB.First(&user, mwauth.UserID(c)).Error; err != nil {
		return httpError(err)
	}

	receipt, err := h.Checkout.Checkout(c.Request().Context(), user)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, receipt)
}
