package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/bukcare/bukcare-api/internal/config"
	"github.com/bukcare/bukcare-api/internal/domain"
	"github.com/bukcare/bukcare-api/pkg/auth"
)

func testJWTManager() *auth.JWTManager {
	return auth.NewJWTManager(config.JWTConfig{
		Secret:          "test-secret-test-secret-test-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
		Issuer:          "bukcare-test",
	})
}

func newAuthFixture(t *testing.T) (*AuthService, *fakeUserRepo) {
	users := newFakeUserRepo()
	svc := NewAuthService(users, testJWTManager(), testRecorder(t, &fakeActivityRepo{}), zap.NewNop())
	return svc, users
}

func addLoginUser(t *testing.T, users *fakeUserRepo, email, password string) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    "Juan",
		LastName:     "Dela Cruz",
		UserType:     domain.UserTypePatient,
		IsActive:     true,
	}
	users.add(u)
	return u
}

func TestLoginSuccess(t *testing.T) {
	svc, users := newAuthFixture(t)
	addLoginUser(t, users, "juan@example.com", "s3cret-password")

	pair, err := svc.Login(context.Background(), "juan@example.com", "s3cret-password", "203.0.113.7")
	require.NoError(t, err)

	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, "Bearer", pair.TokenType)

	require.Equal(t, []bool{true}, users.attempts)
}

func TestLoginMixedCaseEmail(t *testing.T) {
	svc, users := newAuthFixture(t)
	addLoginUser(t, users, "juan@example.com", "s3cret-password")

	// Accounts are stored under the canonical lowercase email; whatever casing
	// the user types at login must still find them.
	pair, err := svc.Login(context.Background(), "  Juan@Example.COM ", "s3cret-password", "203.0.113.7")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, users := newAuthFixture(t)
	addLoginUser(t, users, "juan@example.com", "s3cret-password")

	_, err := svc.Login(context.Background(), "juan@example.com", "wrong", "203.0.113.7")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	require.Equal(t, []bool{false}, users.attempts)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), "nobody@example.com", "whatever", "203.0.113.7")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginInactiveAccount(t *testing.T) {
	svc, users := newAuthFixture(t)
	u := addLoginUser(t, users, "juan@example.com", "s3cret-password")
	u.IsActive = false

	_, err := svc.Login(context.Background(), "juan@example.com", "s3cret-password", "203.0.113.7")
	require.ErrorIs(t, err, ErrAccountInactive)
}

func TestLoginLockedAccount(t *testing.T) {
	svc, users := newAuthFixture(t)
	u := addLoginUser(t, users, "juan@example.com", "s3cret-password")
	until := time.Now().Add(10 * time.Minute)
	u.LockedUntil = &until

	_, err := svc.Login(context.Background(), "juan@example.com", "s3cret-password", "203.0.113.7")
	require.ErrorIs(t, err, ErrAccountLocked)
}

func TestLoginLapsedLock(t *testing.T) {
	svc, users := newAuthFixture(t)
	u := addLoginUser(t, users, "juan@example.com", "s3cret-password")
	until := time.Now().Add(-time.Minute)
	u.LockedUntil = &until

	_, err := svc.Login(context.Background(), "juan@example.com", "s3cret-password", "203.0.113.7")
	require.NoError(t, err)
}

func TestRefreshToken(t *testing.T) {
	svc, users := newAuthFixture(t)
	addLoginUser(t, users, "juan@example.com", "s3cret-password")

	pair, err := svc.Login(context.Background(), "juan@example.com", "s3cret-password", "203.0.113.7")
	require.NoError(t, err)

	fresh, err := svc.RefreshToken(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, fresh.AccessToken)

	// An access token is not accepted where a refresh token belongs.
	_, err = svc.RefreshToken(context.Background(), pair.AccessToken)
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshTokenDeactivatedUser(t *testing.T) {
	svc, users := newAuthFixture(t)
	u := addLoginUser(t, users, "juan@example.com", "s3cret-password")

	pair, err := svc.Login(context.Background(), "juan@example.com", "s3cret-password", "203.0.113.7")
	require.NoError(t, err)

	u.IsActive = false
	_, err = svc.RefreshToken(context.Background(), pair.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidCredentials)
}
