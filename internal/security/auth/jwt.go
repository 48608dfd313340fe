// Package auth encodes and decodes signed, time-bounded session tokens.
// The token is the sole carrier of authorization state: no server-side
// session record exists, and there is no revocation — a stale token stays
// valid until natural expiry.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yourorg/dataplane/internal/domain"
)

// DefaultTTL is how long issued session tokens remain valid.
const DefaultTTL = 24 * time.Hour

// Claims are the session token contents: identity plus the full set of
// authorization attributes needed to re-derive permissions without a lookup.
type Claims struct {
	Role        domain.Role `json:"role"`
	TenantID    *string     `json:"client_id,omitempty"`
	AccessLevel string      `json:"access_level"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies session tokens with a shared secret.
type TokenManager struct {
	secret []byte
	issuer string
}

func NewTokenManager(secret, issuer string) *TokenManager {
	if secret == "" {
		secret = "change-me-in-production"
	}
	if issuer == "" {
		issuer = "dataplane"
	}
	return &TokenManager{secret: []byte(secret), issuer: issuer}
}

// Issue embeds the principal's role, tenant and access level with an
// absolute expiry and signs the result.
func (tm *TokenManager) Issue(p domain.Principal, ttl time.Duration) (string, error) {
	if p.ID == "" {
		return "", fmt.Errorf("principal id required")
	}
	now := time.Now()
	claims := Claims{
		Role:        p.Role,
		TenantID:    p.TenantID,
		AccessLevel: p.AccessLevel,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    tm.issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tm.secret)
}

// Verify checks signature integrity and expiry and re-derives the principal.
// It fails on a tampered signature, malformed structure, unknown role, or
// expiry in the past.
func (tm *TokenManager) Verify(tokenString string) (*domain.Principal, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return tm.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token failed: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	if !claims.Role.Valid() {
		return nil, errors.New("unknown role in token")
	}
	return &domain.Principal{
		ID:          claims.Subject,
		Role:        claims.Role,
		TenantID:    claims.TenantID,
		AccessLevel: claims.AccessLevel,
	}, nil
}

// ExtractToken pulls the bearer credential out of an Authorization header.
func ExtractToken(authHeader string) (string, error) {
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", fmt.Errorf("invalid authorization header")
	}
	return parts[1], nil
}
