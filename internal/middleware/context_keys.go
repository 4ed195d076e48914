package middleware

import (
	"context"

	"github.com/Abdurahmanit/GroupProject/storefront/internal/domain/entity"
)

// ContextKey keeps request-scoped values from colliding with other packages.
type ContextKey string

// PrincipalCtxKey holds the authenticated entity.Principal set by JWTAuth.
const PrincipalCtxKey = ContextKey("principal")

func WithPrincipal(ctx context.Context, p entity.Principal) context.Context {
	return context.WithValue(ctx, PrincipalCtxKey, p)
}

func PrincipalFromContext(ctx context.Context) (entity.Principal, bool) {
	p, ok := ctx.Value(PrincipalCtxKey).(entity.Principal)
	return p, ok && p.UserID != ""
}
