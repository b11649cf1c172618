package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/deskworks/service-desk/internal/domain"
)

// TokenManager handles issuing and validating JWT tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, ttlMinutes int) *TokenManager {
	if ttlMinutes <= 0 {
		ttlMinutes = 60
	}
	return &TokenManager{secret: []byte(secret), ttl: time.Duration(ttlMinutes) * time.Minute}
}

// Claims describes JWT payload. The viewer id travels in the registered
// "sub" claim.
type Claims struct {
	Name string      `json:"name"`
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Viewer converts the claims into the identity the lifecycle operates on.
func (c *Claims) Viewer() domain.Viewer {
	return domain.Viewer{ID: c.Subject, DisplayName: c.Name, Role: c.Role}
}

// GenerateToken builds and signs a JWT for the viewer.
func (tm *TokenManager) GenerateToken(viewer domain.Viewer) (string, time.Time, error) {
	if viewer.ID == "" {
		return "", time.Time{}, errors.New("viewer id required")
	}
	if !viewer.Role.IsValid() {
		return "", time.Time{}, errors.New("unknown role")
	}
	now := time.Now()
	expiresAt := now.Add(tm.ttl)
	claims := &Claims{
		Name: viewer.DisplayName,
		Role: viewer.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   viewer.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseToken validates and returns claims.
func (tm *TokenManager) ParseToken(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.Subject == "" || !claims.Role.IsValid() {
		return nil, errors.New("incomplete token claims")
	}
	return claims, nil
}
