// Package token issues and rotates the access/refresh JWT pair used by
// the API surface. Refresh tokens are persisted so they can be revoked.
package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
)

const (
	AccessTTL  = 15 * time.Minute
	RefreshTTL = 7 * 24 * time.Hour
)

var ErrInvalidToken = errors.New("invalid token")

type Pair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type Service struct {
	DB            *gorm.DB
	JWTSecret     []byte
	RefreshSecret []byte
}

// IssuePair signs a fresh access/refresh pair and persists the refresh token.
func (s *Service) IssuePair(ctx context.Context, userID uint, role string) (*Pair, error) {
	access, err := signAccessToken(userID, role, s.JWTSecret)
	if err != nil {
		return nil, err
	}

	refresh, err := signRefreshToken(userID, role, s.RefreshSecret)
	if err != nil {
		return nil, err
	}

	stored := models.RefreshToken{
		Token:     refresh,
		UserID:    userID,
		ExpiresAt: time.Now().Add(RefreshTTL),
	}
	if err := s.DB.WithContext(ctx).Create(&stored).Error; err != nil {
		return nil, fmt.Errorf("save refresh token: %w", err)
	}

	return &Pair{AccessToken: access, RefreshToken: refresh}, nil
}

// Rotate revokes the presented refresh token and issues a new pair.
func (s *Service) Rotate(ctx context.Context, rawToken string) (*Pair, error) {
	claims, err := s.validateRefresh(ctx, rawToken)
	if err != nil {
		return nil, err
	}

	userID := uint(claims["sub"].(float64))
	role, _ := claims["role"].(string)

	if err := s.Revoke(ctx, rawToken); err != nil {
		return nil, err
	}
	return s.IssuePair(ctx, userID, role)
}

func (s *Service) Revoke(ctx context.Context, rawToken string) error {
	return s.DB.WithContext(ctx).
		Model(&models.RefreshToken{}).
		Where("token = ?", rawToken).
		Update("revoked", true).Error
}

// RevokeAll invalidates every refresh token of a user, e.g. after a
// password reset.
func (s *Service) RevokeAll(ctx context.Context, userID uint) error {
	return s.DB.WithContext(ctx).
		Model(&models.RefreshToken{}).
		Where("user_id = ?", userID).
		Update("revoked", true).Error
}

// ParseAccess validates an access token and returns the subject and role.
func (s *Service) ParseAccess(rawToken string) (uint, string, error) {
	t, err := jwt.Parse(rawToken, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signature method: %v", t.Header["alg"])
		}
		return s.JWTSecret, nil
	})
	if err != nil || !t.Valid {
		return 0, "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", ErrInvalidToken
	}
	if typ, ok := claims["typ"]; ok && typ == "refresh" {
		return 0, "", fmt.Errorf("%w: refresh token used as access token", ErrInvalidToken)
	}

	sub, ok := claims["sub"].(float64)
	if !ok {
		return 0, "", ErrInvalidToken
	}
	role, ok := claims["role"].(string)
	if !ok {
		return 0, "", ErrInvalidToken
	}
	return uint(sub), role, nil
}

func (s *Service) validateRefresh(ctx context.Context, rawToken string) (jwt.MapClaims, error) {
	t, err := jwt.Parse(rawToken, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signature method: %v", t.Header["alg"])
		}
		return s.RefreshSecret, nil
	})
	if err != nil || !t.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	if typ, ok := claims["typ"]; !ok || typ != "refresh" {
		return nil, fmt.Errorf("%w: not a refresh token", ErrInvalidToken)
	}
	if _, ok := claims["sub"].(float64); !ok {
		return nil, ErrInvalidToken
	}

	var stored models.RefreshToken
	if err := s.DB.WithContext(ctx).Where("token = ?", rawToken).First(&stored).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: refresh token unknown", ErrInvalidToken)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if stored.Revoked {
		return nil, fmt.Errorf("%w: refresh token revoked", ErrInvalidToken)
	}
	if time.Now().After(stored.ExpiresAt) {
		return nil, fmt.Errorf("%w: refresh token expired", ErrInvalidToken)
	}

	return claims, nil
}

func signAccessToken(userID uint, role string, secret []byte) (string, error) {
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"exp":  time.Now().Add(AccessTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func signRefreshToken(userID uint, role string, secret []byte) (string, error) {
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"exp":  time.Now().Add(RefreshTTL).Unix(),
		"typ":  "refresh",
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
