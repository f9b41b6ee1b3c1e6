package auth

import (
	"context"

	"github.com/google/uuid"
)

type claimsKey struct{}

func ContextWithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*Claims)
	return c, ok
}

func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	c, ok := ctx.Value(claimsKey{}).(*Claims)
	if !ok {
		return uuid.Nil, false
	}
	return c.UserID, true
}
