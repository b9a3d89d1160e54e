// Package auth resolves bearer credentials into principals.
//
// A caller is either a registered user (stable identity-provider subject
// id) or a guest (no credential). Token validity is delegated to a
// TokenVerifier; the two implementations are ProviderClient (remote
// identity provider) and JWTManager (local HS256, dev and tests).
package auth

import (
	"context"
	"errors"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingToken = errors.New("authorization header missing")
)

// Principal is the resolved identity of a registered caller.
// A nil *Principal means the caller is a guest.
type Principal struct {
	UserID   string `json:"user_id"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
}

// TokenVerifier validates a bearer token and resolves the principal
// behind it. Verification is read-only; any provider-side failure
// (rejected token, malformed token, provider unavailable) collapses to
// ErrInvalidToken.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Principal, error)
}

type contextKey string

const principalKey contextKey = "principal"

// WithPrincipal returns a context carrying the given principal.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext extracts the resolved principal from the request
// context. Returns nil for guest callers.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey).(*Principal)
	return p
}
