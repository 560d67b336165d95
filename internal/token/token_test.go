package token

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
)

func newService(t *testing.T) *Service {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.RefreshToken{}))

	return &Service{
		DB:            db,
		JWTSecret:     []byte("access-secret"),
		RefreshSecret: []byte("refresh-secret"),
	}
}

func TestIssuePairAndParseAccess(t *testing.T) {
	svc := newService(t)

	pair, err := svc.IssuePair(t.Context(), 42, "vendor")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	userID, role, err := svc.ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, uint(42), userID)
	require.Equal(t, "vendor", role)
}

func TestParseAccessRejectsRefreshToken(t *testing.T) {
	svc := newService(t)

	pair, err := svc.IssuePair(t.Context(), 42, "buyer")
	require.NoError(t, err)

	_, _, err = svc.ParseAccess(pair.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseAccessRejectsWrongSecret(t *testing.T) {
	svc := newService(t)

	claims := jwt.MapClaims{
		"sub":  float64(42),
		"role": "buyer",
		"exp":  time.Now().Add(AccessTTL).Unix(),
	}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("attacker-secret"))
	require.NoError(t, err)

	_, _, err = svc.ParseAccess(forged)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseAccessRejectsExpired(t *testing.T) {
	svc := newService(t)

	claims := jwt.MapClaims{
		"sub":  float64(42),
		"role": "buyer",
		"exp":  time.Now().Add(-time.Minute).Unix(),
	}
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(svc.JWTSecret)
	require.NoError(t, err)

	_, _, err = svc.ParseAccess(expired)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestRotateRevokesOldRefreshToken(t *testing.T) {
	svc := newService(t)

	pair, err := svc.IssuePair(t.Context(), 7, "buyer")
	require.NoError(t, err)

	next, err := svc.Rotate(t.Context(), pair.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	_, err = svc.Rotate(t.Context(), pair.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidToken)

	userID, role, err := svc.ParseAccess(next.AccessToken)
	require.NoError(t, err)
	require.Equal(t, uint(7), userID)
	require.Equal(t, "buyer", role)
}

func TestRotateRejectsAccessToken(t *testing.T) {
	svc := newService(t)

	pair, err := svc.IssuePair(t.Context(), 7, "buyer")
	require.NoError(t, err)

	_, err = svc.Rotate(t.Context(), pair.AccessToken)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestRotateRejectsExpiredStoredToken(t *testing.T) {
	svc := newService(t)

	pair, err := svc.IssuePair(t.Context(), 7, "buyer")
	require.NoError(t, err)

	require.NoError(t, svc.DB.Model(&models.RefreshToken{}).
		Where("token = ?", pair.RefreshToken).
		Update("expires_at", time.Now().Add(-time.Minute)).Error)

	_, err = svc.Rotate(t.Context(), pair.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestRevokeAll(t *testing.T) {
	svc := newService(t)

	first, err := svc.IssuePair(t.Context(), 7, "buyer")
	require.NoError(t, err)
	second, err := svc.IssuePair(t.Context(), 7, "buyer")
	require.NoError(t, err)

	require.NoError(t, svc.RevokeAll(t.Context(), 7))

	_, err = svc.Rotate(t.Context(), first.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidToken)
	_, err = svc.Rotate(t.Context(), second.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidToken)
}
