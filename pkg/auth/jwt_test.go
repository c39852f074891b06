package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bukcare/bukcare-api/internal/config"
	"github.com/bukcare/bukcare-api/internal/domain"
)

func testConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:          "test-secret-test-secret-test-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
		Issuer:          "bukcare-test",
	}
}

func testClaims() *domain.Claims {
	return &domain.Claims{
		UserID:   uuid.New(),
		Email:    "juan@example.com",
		UserType: domain.UserTypeDoctor,
	}
}

func TestTokenPairRoundTrip(t *testing.T) {
	m := NewJWTManager(testConfig())
	claims := testClaims()

	pair, err := m.GenerateTokenPair(claims)
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), pair.ExpiresAt, 5*time.Second)

	got, err := m.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, claims.UserID, got.UserID)
	assert.Equal(t, claims.Email, got.Email)
	assert.Equal(t, domain.UserTypeDoctor, got.UserType)

	got, err = m.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, claims.UserID, got.UserID)
}

func TestTokenTypeMismatch(t *testing.T) {
	m := NewJWTManager(testConfig())

	pair, err := m.GenerateTokenPair(testClaims())
	require.NoError(t, err)

	_, err = m.ValidateAccessToken(pair.RefreshToken)
	require.ErrorIs(t, err, ErrTokenTypeMismatch)

	_, err = m.ValidateRefreshToken(pair.AccessToken)
	require.ErrorIs(t, err, ErrTokenTypeMismatch)
}

func TestTokenWrongSecret(t *testing.T) {
	m := NewJWTManager(testConfig())
	pair, err := m.GenerateTokenPair(testClaims())
	require.NoError(t, err)

	cfg := testConfig()
	cfg.Secret = "another-secret-another-secret-another"
	other := NewJWTManager(cfg)

	_, err = other.ValidateAccessToken(pair.AccessToken)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenWrongIssuer(t *testing.T) {
	m := NewJWTManager(testConfig())
	pair, err := m.GenerateTokenPair(testClaims())
	require.NoError(t, err)

	cfg := testConfig()
	cfg.Issuer = "someone-else"
	other := NewJWTManager(cfg)

	_, err = other.ValidateAccessToken(pair.AccessToken)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenExpired(t *testing.T) {
	cfg := testConfig()
	cfg.AccessTokenTTL = -time.Minute
	m := NewJWTManager(cfg)

	pair, err := m.GenerateTokenPair(testClaims())
	require.NoError(t, err)

	_, err = m.ValidateAccessToken(pair.AccessToken)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenGarbage(t *testing.T) {
	m := NewJWTManager(testConfig())

	_, err := m.ValidateAccessToken("not-a-token")
	require.ErrorIs(t, err, ErrTokenInvalid)
}
