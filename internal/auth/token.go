package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"expense-tracker-api/internal/models"
)

// TokenManager issues and verifies signed JWTs for authenticated users.
type TokenManager struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

// NewTokenManager creates a manager with the provided secret, issuer,
// audience, and lifetime. An empty secret is rejected so a misconfigured
// process fails at startup rather than per request.
func NewTokenManager(secret, issuer, audience string, ttl time.Duration) (*TokenManager, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("signing secret must not be empty")
	}
	return &TokenManager{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		ttl:      ttl,
		now:      time.Now,
	}, nil
}

// Issue mints a signed bearer token carrying the user's identity claims and
// returns it together with its expiry instant.
func (t *TokenManager) Issue(user models.User) (string, time.Time, error) {
	now := t.now()
	// exp travels as whole Unix seconds, so the advertised expiry must not
	// carry sub-second precision the token itself cannot honor.
	expiresAt := now.Add(t.ttl).Truncate(time.Second)
	claims := jwt.MapClaims{
		"iss":      t.issuer,
		"aud":      t.audience,
		"sub":      user.ID.String(),
		"email":    user.Email,
		"fullName": user.FullName,
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"exp":      expiresAt.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse verifies the token's signature, method, issuer, audience, and expiry
// and returns its claims. Any failure is reported as ErrUnauthorized.
func (t *TokenManager) Parse(tokenString string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithAudience(t.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return claims, nil
}
