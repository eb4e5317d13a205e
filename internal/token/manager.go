// Package token issues and verifies the two credential kinds: signed
// short-lived access tokens and opaque rotating refresh tokens.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pranaynookala001/securedocs/internal/models"
)

// Claims is the access-token payload. Subject carries the account id.
type Claims struct {
	Name             string `json:"name"`
	Email            string `json:"email"`
	Role             string `json:"role"`
	EmailVerified    bool   `json:"email_verified"`
	TwoFactorEnabled bool   `json:"two_factor_enabled"`
	jwt.RegisteredClaims
}

// Config holds the signing material and validation identity for access
// tokens.
type Config struct {
	SigningKey []byte
	Issuer     string
	Audience   string
	AccessTTL  time.Duration
}

// Manager signs and parses access tokens with a symmetric HS256 key.
// Parsing never touches a store, so any holder of the key can validate
// tokens independently of database availability.
type Manager struct {
	config Config
	now    func() time.Time
}

// NewManager validates the configuration and returns a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.SigningKey) < 32 {
		return nil, errors.New("signing key must be at least 32 bytes")
	}
	if cfg.Issuer == "" || cfg.Audience == "" {
		return nil, errors.New("issuer and audience are required")
	}
	if cfg.AccessTTL <= 0 {
		return nil, errors.New("invalid access TTL")
	}
	return &Manager{config: cfg, now: time.Now}, nil
}

// Issue signs a fresh access token for the account.
func (m *Manager) Issue(user *models.User) (string, error) {
	now := m.now()
	claims := Claims{
		Name:             user.Username,
		Email:            user.Email,
		Role:             string(user.Role),
		EmailVerified:    user.EmailVerified,
		TwoFactorEnabled: user.TwoFactorEnabled,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Issuer:    m.config.Issuer,
			Audience:  jwt.ClaimStrings{m.config.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.AccessTTL)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.config.SigningKey)
}

// Parse verifies signature, issuer, audience, and expiry with zero
// clock leeway and returns the claims.
func (m *Manager) Parse(tokenStr string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.config.Issuer),
		jwt.WithAudience(m.config.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)

	parsed, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return m.config.SigningKey, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// Validate reports whether tokenStr is a currently acceptable access
// token. It never returns an error; any defect is simply "invalid".
func (m *Manager) Validate(tokenStr string) bool {
	_, err := m.Parse(tokenStr)
	return err == nil
}

// AccessTTL returns the configured access-token lifetime.
func (m *Manager) AccessTTL() time.Duration {
	return m.config.AccessTTL
}
