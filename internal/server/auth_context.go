package server

import (
	"context"
	"net/http"

	"docindex/internal/auth"
)

type authContextKey struct{}

type authPrincipal struct {
	Role   auth.Role
	Source string
}

func contextWithAuthPrincipal(ctx context.Context, principal authPrincipal) context.Context {
	return context.WithValue(ctx, authContextKey{}, principal)
}

func authPrincipalFromContext(ctx context.Context) (authPrincipal, bool) {
	if ctx == nil {
		return authPrincipal{}, false
	}
	principal, ok := ctx.Value(authContextKey{}).(authPrincipal)
	return principal, ok
}

func authSource(r *http.Request) string {
	principal, ok := authPrincipalFromContext(r.Context())
	if !ok {
		return ""
	}
	return principal.Source
}
