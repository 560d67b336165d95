package handlers

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/hash"
	"github.com/Skotchmaster/storefront/internal/models"
)

// issueResetToken drives the request-reset endpoint and pulls the raw
// token out of the email the service sent.
func (env *testEnv) issueResetToken(t *testing.T, email string) string {
	t.Helper()

	rec, c := env.doJSONRequest(t, http.MethodPost, "/api/v1/auth/password-reset", map[string]string{"email": email}, nil)
	require.NoError(t, env.Auth.RequestPasswordReset(c))
	require.Equal(t, http.StatusAccepted, rec.Code)

	env.Mailer.mu.Lock()
	defer env.Mailer.mu.Unlock()
	require.NotEmpty(t, env.Mailer.sent)

	body := env.Mailer.sent[len(env.Mailer.sent)-1].Body
	idx := strings.LastIndex(body, "/reset-password/")
	require.NotEqual(t, -1, idx, "mail body should contain the reset link")
	token := body[idx+len("/reset-password/"):]
	return strings.Fields(token)[0]
}

func (env *testEnv) redeemResetToken(t *testing.T, token, password string) error {
	t.Helper()

	_, c := env.doJSONRequest(t, http.MethodPost, "/api/v1/auth/password-reset/"+token, map[string]string{"password": password}, nil)
	c.SetParamNames("token")
	c.SetParamValues(token)
	return env.Auth.ResetPassword(c)
}

func TestPasswordResetFlow(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "forgetful", models.RoleBuyer)

	token := env.issueResetToken(t, user.Email)
	require.NoError(t, env.redeemResetToken(t, token, "new-password"))

	var updated models.User
	require.NoError(t, env.DB.First(&updated, user.ID).Error)
	require.True(t, hash.CheckPassword(updated.PasswordHash, "new-password"))
	require.False(t, hash.CheckPassword(updated.PasswordHash, "password"))
}

func TestPasswordResetTokenSingleUse(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "forgetful", models.RoleBuyer)

	token := env.issueResetToken(t, user.Email)
	require.NoError(t, env.redeemResetToken(t, token, "new-password"))
	requireHTTPError(t, env.redeemResetToken(t, token, "another-password"), http.StatusBadRequest)

	var updated models.User
	require.NoError(t, env.DB.First(&updated, user.ID).Error)
	require.True(t, hash.CheckPassword(updated.PasswordHash, "new-password"))
}

func TestPasswordResetTokenExpires(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "forgetful", models.RoleBuyer)

	token := env.issueResetToken(t, user.Email)
	require.NoError(t, env.DB.Model(&models.ResetToken{}).
		Where("token = ?", token).
		Update("expires_at", time.Now().Add(-time.Minute)).Error)

	requireHTTPError(t, env.redeemResetToken(t, token, "new-password"), http.StatusBadRequest)

	var updated models.User
	require.NoError(t, env.DB.First(&updated, user.ID).Error)
	require.True(t, hash.CheckPassword(updated.PasswordHash, "password"))
}

func TestPasswordResetUnknownEmailStillAccepted(t *testing.T) {
	env := newTestEnv(t)

	rec, c := env.doJSONRequest(t, http.MethodPost, "/api/v1/auth/password-reset", map[string]string{"email": "nobody@example.com"}, nil)
	require.NoError(t, env.Auth.RequestPasswordReset(c))
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Empty(t, env.Mailer.sent)
}

func TestPasswordResetRevokesRefreshTokens(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "forgetful", models.RoleBuyer)

	pair, err := env.Tokens.IssuePair(t.Context(), user.ID, user.Role)
	require.NoError(t, err)

	token := env.issueResetToken(t, user.Email)
	require.NoError(t, env.redeemResetToken(t, token, "new-password"))

	_, err = env.Tokens.Rotate(t.Context(), pair.RefreshToken)
	require.Error(t, err)
}

func TestSweepRemovesUsedAndExpiredTokens(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "forgetful", models.RoleBuyer)

	used := env.issueResetToken(t, user.Email)
	require.NoError(t, env.redeemResetToken(t, used, "new-password"))

	expired := env.issueResetToken(t, user.Email)
	require.NoError(t, env.DB.Model(&models.ResetToken{}).
		Where("token = ?", expired).
		Update("expires_at", time.Now().Add(-time.Minute)).Error)

	live := env.issueResetToken(t, user.Email)

	require.NoError(t, env.Reset.Sweep(t.Context()))

	var remaining []models.ResetToken
	require.NoError(t, env.DB.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	require.Equal(t, live, remaining[0].Token)
}
