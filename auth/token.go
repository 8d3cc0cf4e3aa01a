// Package auth issues and verifies the bearer tokens required by the dice
// endpoints.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrMissingSecret indicates no signing secret is configured.
var ErrMissingSecret = errors.New("token secret is not configured")

// ErrMissingUser indicates a login without a user id.
var ErrMissingUser = errors.New("user id is required")

// ErrInvalidToken indicates a token that is malformed, badly signed or expired.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims captures a validated token.
type Claims struct {
	UserID    string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Issuer signs and verifies HS256 tokens with a shared secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer creates an Issuer. now may be nil, in which case time.Now is used.
func NewIssuer(secret string, ttl time.Duration, now func() time.Time) *Issuer {
	if now == nil {
		now = time.Now
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: now}
}

// Issue creates a token for userID valid for the configured TTL.
func (i *Issuer) Issue(userID string) (string, error) {
	if len(i.secret) == 0 {
		return "", ErrMissingSecret
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", ErrMissingUser
	}

	now := i.now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// Verify parses token and returns its claims.
func (i *Issuer) Verify(token string) (Claims, error) {
	if len(i.secret) == 0 {
		return Claims{}, ErrMissingSecret
	}

	var parsed jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(strings.TrimSpace(token), &parsed, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if parsed.Subject == "" {
		return Claims{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	claims := Claims{
		UserID:    parsed.Subject,
		TokenID:   parsed.ID,
		ExpiresAt: parsed.ExpiresAt.Time.UTC(),
	}
	if parsed.IssuedAt != nil {
		claims.IssuedAt = parsed.IssuedAt.Time.UTC()
	}
	return claims, nil
}
