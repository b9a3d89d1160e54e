package auth

import "context"

// SetPrincipalForTest injects a principal into the context for testing purposes.
func SetPrincipalForTest(ctx context.Context, p *Principal) context.Context {
	return WithPrincipal(ctx, p)
}
