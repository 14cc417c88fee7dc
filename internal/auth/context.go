package auth

import (
	"context"
	"strings"
)

// Identity is the verified caller of a request, taken from its session token.
type Identity struct {
	AdvisorID string
	Email     string
}

type identityContextKey struct{}

// ContextWithIdentity attaches the verified identity to ctx.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext returns the identity attached by the session guard.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	if !ok || strings.TrimSpace(id.Email) == "" {
		return Identity{}, false
	}
	return id, true
}
