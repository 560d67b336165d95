// Package reset implements the password-reset flow: opaque single-use
// tokens with a one hour lifetime, persisted so redemption survives a
// restart and can be made atomic.
package reset

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/apperr"
	"github.com/Skotchmaster/storefront/internal/hash"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/mail"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/token"
)

const TokenTTL = time.Hour

type Service struct {
	DB      *gorm.DB
	Mailer  mail.Mailer
	Tokens  *token.Service
	BaseURL string
}

// Issue creates a reset token for the address and mails the link. An
// unknown email is not an error: the caller always reports success so
// accounts cannot be enumerated.
func (s *Service) Issue(ctx context.Context, email string) error {
	if email == "" {
		return apperr.Validation("email is required")
	}

	var user models.User
	if err := s.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	raw, err := generateToken()
	if err != nil {
		return err
	}

	record := models.ResetToken{
		Token:     raw,
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(TokenTTL),
	}
	if err := s.DB.WithContext(ctx).Create(&record).Error; err != nil {
		return err
	}

	if s.Mailer != nil {
		link := fmt.Sprintf("%s/reset-password/%s", s.BaseURL, raw)
		body := fmt.Sprintf(
			"Hello %s,\n\nClick the link to reset your password:\n%s\n\nThis link expires in 1 hour.",
			user.Username, link,
		)
		if err := s.Mailer.Send(user.Email, "Password Reset Request", body, ""); err != nil {
			logging.FromContext(ctx).Error("reset: email failed", logging.Err(err))
		}
	}
	return nil
}

// Redeem consumes the token and updates the password. The consume is a
// conditional update on (unused, unexpired), so a token cannot be
// redeemed twice even under concurrent requests. All refresh tokens of
// the user are revoked afterwards.
func (s *Service) Redeem(ctx context.Context, rawToken, newPassword string) error {
	if newPassword == "" {
		return apperr.Validation("password is required")
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.ResetToken{}).
			Where("token = ? AND used = ? AND expires_at > ?", rawToken, false, time.Now()).
			Update("used", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.ErrInvalidOrExpiredToken
		}

		var record models.ResetToken
		if err := tx.Where("token = ?", rawToken).First(&record).Error; err != nil {
			return err
		}

		passwordHash, err := hash.HashPassword(newPassword)
		if err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).
			Where("id = ?", record.UserID).
			Update("password_hash", passwordHash).Error; err != nil {
			return err
		}

		return tx.Model(&models.RefreshToken{}).
			Where("user_id = ?", record.UserID).
			Update("revoked", true).Error
	})
}

// Sweep removes used and expired tokens so the table does not grow
// without bound.
func (s *Service) Sweep(ctx context.Context) error {
	return s.DB.WithContext(ctx).
		Where("used = ? OR expires_at <= ?", true, time.Now()).
		Delete(&models.ResetToken{}).Error
}

// RunSweeper sweeps on an interval until ctx is cancelled.
func (s *Service) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				logging.FromContext(ctx).Error("reset: sweep failed", logging.Err(err))
			}
		}
	}
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
