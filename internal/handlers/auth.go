package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/hash"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/reset"
	"github.com/Skotchmaster/storefront/internal/token"
)

type AuthHandler struct {
	DB     *gorm.DB
	Tokens *token.Service
	Reset  *reset.Service
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Register creates a user with a role that is assigned exactly once and
// never changed afterwards.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	req.Role = strings.ToLower(req.Role)
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username, email and password are required")
	}
	if req.Role != models.RoleVendor && req.Role != models.RoleBuyer {
		return echo.NewHTTPError(http.StatusBadRequest, "role must be vendor or buyer")
	}

	var existing models.User
	err := h.DB.Where("username = ? OR email = ?", req.Username, req.Email).First(&existing).Error
	if err == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "user already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return httpError(err)
	}

	passwordHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return httpError(err)
	}

	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Role:         req.Role,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, user)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login is the bearer-token exchange: credentials in, short-lived
// access + rotating refresh pair out.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	var user models.User
	if err := h.DB.Where("username = ?", req.Username).First(&user).Error; err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid username or password")
	}
	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid username or password")
	}

	pair, err := h.Tokens.IssuePair(c.Request().Context(), user.ID, user.Role)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"role":          user.Role,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "refresh_token is required")
	}

	pair, err := h.Tokens.Rotate(c.Request().Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, token.ErrInvalidToken) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
		}
		return httpError(err)
	}

	return c.JSON(http.StatusOK, pair)
}

func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "refresh_token is required")
	}

	if err := h.Tokens.Revoke(c.Request().Context(), req.RefreshToken); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

type resetRequestBody struct {
	Email string `json:"email"`
}

// RequestPasswordReset always answers 202 so the caller cannot probe
// which addresses exist.
func (h *AuthHandler) RequestPasswordReset(c echo.Context) error {
	var req resetRequestBody
	if err := c.Bind(&req); err != nil || req.Email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email is required")
	}

	if err := h.Reset.Issue(c.Request().Context(), req.Email); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusAccepted, echo.Map{"message": "Check your email for a password reset link."})
}

type resetPasswordBody struct {
	Password string `json:"password"`
}

func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordBody
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if err := h.Reset.Redeem(c.Request().Context(), c.Param("token"), req.Password); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Password reset successfully"})
}
