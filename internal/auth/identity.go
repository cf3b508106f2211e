package auth

import (
	"context"
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrUnauthorized indicates a missing, invalid, or expired credential.
var ErrUnauthorized = errors.New("unauthorized")

type contextKey struct{}

var claimsContextKey contextKey

// ContextWithClaims stores verified token claims in the request context.
func ContextWithClaims(ctx context.Context, claims jwt.MapClaims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// ClaimsFromContext returns the verified claims stored by the auth middleware.
func ClaimsFromContext(ctx context.Context) (jwt.MapClaims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(jwt.MapClaims)
	return claims, ok
}

// UserIDFromClaims recovers the caller's identity from already-verified token
// claims. It is pure: it only decodes the subject claim and fails closed when
// the claim is absent or not a valid identifier.
func UserIDFromClaims(claims jwt.MapClaims) (uuid.UUID, error) {
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return uuid.Nil, ErrUnauthorized
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, ErrUnauthorized
	}
	return id, nil
}

// IdentityFromContext recovers the caller's identity from the claims placed
// in the context by the auth middleware.
func IdentityFromContext(ctx context.Context) (uuid.UUID, error) {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return uuid.Nil, ErrUnauthorized
	}
	return UserIDFromClaims(claims)
}
