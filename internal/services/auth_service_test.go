package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"license-service/internal/config"
)

func authConfig() config.AuthConfig {
	return config.AuthConfig{
		AdminPassword:    "correct-horse-battery",
		JWTSecret:        "test-signing-secret",
		TokenExpiryHours: 1,
	}
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	svc := NewAuthService(authConfig())

	result, err := svc.Login("correct-horse-battery")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), result.ExpiresAt, 5*time.Second)

	assert.NoError(t, svc.VerifyToken(result.Token))
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	svc := NewAuthService(authConfig())

	_, err := svc.Login("wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login("")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginPrefersBcryptHash(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hashed-secret"), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := authConfig()
	cfg.AdminPasswordHash = string(hash)
	svc := NewAuthService(cfg)

	// With a hash configured, the plain password no longer matches
	_, err = svc.Login("correct-horse-battery")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	result, err := svc.Login("hashed-secret")
	require.NoError(t, err)
	assert.NoError(t, svc.VerifyToken(result.Token))
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	cfg := authConfig()
	cfg.TokenExpiryHours = -1
	svc := NewAuthService(cfg)

	result, err := svc.Login("correct-horse-battery")
	require.NoError(t, err)
	assert.Error(t, svc.VerifyToken(result.Token))
}

func TestVerifyTokenRejectsForeignSignature(t *testing.T) {
	svc := NewAuthService(authConfig())

	other := authConfig()
	other.JWTSecret = "a-different-secret"
	result, err := NewAuthService(other).Login("correct-horse-battery")
	require.NoError(t, err)

	assert.Error(t, svc.VerifyToken(result.Token))
	assert.Error(t, svc.VerifyToken("not-a-token"))
}

func TestVerifyAdminPassword(t *testing.T) {
	svc := NewAuthService(authConfig())
	assert.True(t, svc.VerifyAdminPassword("correct-horse-battery"))
	assert.False(t, svc.VerifyAdminPassword("wrong"))
	assert.False(t, svc.VerifyAdminPassword(""))

	// Empty configuration never matches anything
	empty := NewAuthService(config.AuthConfig{TokenExpiryHours: 1})
	assert.False(t, empty.VerifyAdminPassword(""))
	assert.False(t, empty.VerifyAdminPassword("anything"))
}
