package services

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"license-service/internal/config"
)

// ErrInvalidCredentials is returned when the admin password does not match.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService issues and verifies admin session tokens. The admin identity
// is a single operator account; tokens exist to give the shared credential
// an expiry instead of a long-lived static secret.
type AuthService struct {
	cfg config.AuthConfig
}

// NewAuthService creates a new auth service
func NewAuthService(cfg config.AuthConfig) *AuthService {
	return &AuthService{cfg: cfg}
}

// LoginResult carries an issued token and its expiry
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Login verifies the admin password and issues a signed, expiring token.
func (s *AuthService) Login(password string) (*LoginResult, error) {
	if !s.VerifyAdminPassword(password) {
		return nil, ErrInvalidCredentials
	}

	secret := s.signingSecret()
	if secret == "" {
		return nil, fmt.Errorf("JWT secret is not configured")
	}

	expiresAt := time.Now().Add(time.Duration(s.cfg.TokenExpiryHours) * time.Hour)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "admin",
		Issuer:    "license-service",
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})

	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &LoginResult{Token: signed, ExpiresAt: expiresAt}, nil
}

// VerifyToken validates a Bearer token issued by Login.
func (s *AuthService) VerifyToken(tokenString string) error {
	secret := s.signingSecret()
	if secret == "" {
		return fmt.Errorf("JWT secret is not configured")
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return fmt.Errorf("invalid token")
	}
	return nil
}

// VerifyAdminPassword checks a candidate password against the configured
// bcrypt hash, or against the plain password when no hash is set. An empty
// configuration never matches.
func (s *AuthService) VerifyAdminPassword(candidate string) bool {
	if candidate == "" {
		return false
	}
	if s.cfg.AdminPasswordHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(s.cfg.AdminPasswordHash), []byte(candidate)) == nil
	}
	if s.cfg.AdminPassword == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(s.cfg.AdminPassword), []byte(candidate)) == 1
}

func (s *AuthService) signingSecret() string {
	if s.cfg.JWTSecret != "" {
		return s.cfg.JWTSecret
	}
	// Dev fallback: sign with the admin password so login works without
	// extra configuration. Production sets JWT_SECRET.
	return s.cfg.AdminPassword
}
