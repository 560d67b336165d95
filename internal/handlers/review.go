package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/authz"
	mwauth "github.com/Skotchmaster/storefront/internal/middleware/auth"
	"github.com/Skotchmaster/storefront/internal/models"
)

type ReviewHandler struct {
	DB *gorm.DB
}

type reviewRequest struct {
	Text string `json:"text"`
}

func (h *ReviewHandler) ListReviews(c echo.Context) error {
	productID, err := parseID(c, "id")
	if err != nil {
		return httpError(err)
	}

	var product models.Product
	if err := h.DB.First(&product, productID).Error; err != nil {
		return httpError(err)
	}

	var reviews []models.Review
	if err := h.DB.Where("product_id = ?", productID).Order("created_at DESC").Find(&reviews).Error; err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, reviews)
}

// CreateReview computes the verified flag exactly once, at submission:
// true iff the author has a purchase of the product on record. It is
// never recomputed, even if the purchase goes away later.
func (h *ReviewHandler) CreateReview(c echo.Context) error {
	productID, err := parseID(c, "id")
	if err != nil {
		return httpError(err)
	}

	var req reviewRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Text == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "text is required")
	}

	var product models.Product
	if err := h.DB.First(&product, productID).Error; err != nil {
		return httpError(err)
	}

	userID := mwauth.UserID(c)

	var purchases int64
	if err := h.DB.Model(&models.Purchase{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&purchases).Error; err != nil {
		return httpError(err)
	}

	review := models.Review{
		ProductID: productID,
		UserID:    userID,
		Text:      req.Text,
		Verified:  purchases > 0,
	}
	if err := h.DB.Create(&review).Error; err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, review)
}

// UpdateReview lets the author edit the text; the verified flag is
// immutable after submission.
func (h *ReviewHandler) UpdateReview(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return httpError(err)
	}

	var review models.Review
	if err := h.DB.First(&review, id).Error; err != nil {
		return httpError(err)
	}
	if err := authz.RequireOwner(mwauth.UserID(c), review); err != nil {
		return httpError(err)
	}

	var req reviewRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Text == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "text is required")
	}

	review.Text = req.Text
	if err := h.DB.Save(&review).Error; err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, review)
}

func (h *ReviewHandler) DeleteReview(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return httpError(err)
	}

	var review models.Review
	if err := h.DB.First(&review, id).Error; err != nil {
		return httpError(err)
	}
	if err := authz.RequireOwner(mwauth.UserID(c), review); err != nil {
		return httpError(err)
	}

	if err := h.DB.Delete(&review).Error; err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
