package identity

import "context"

// Claims are the verified identity attributes handed over by the token
// boundary. They are trusted as-is.
type Claims struct {
	Subject  string
	Email    string
	Username string
}

type claimsCtxKey struct{}

func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsCtxKey{}, claims)
}

func ClaimsFromCtx(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsCtxKey{}).(*Claims)
	return claims, ok && claims != nil
}

// OwnerFromCtx derives the ownership key for the request in ctx.
func OwnerFromCtx(ctx context.Context) (string, *Claims, error) {
	claims, ok := ClaimsFromCtx(ctx)
	if !ok {
		return "", nil, ErrIdentityMissing
	}
	owner, err := DeriveOwnerKey(claims)
	if err != nil {
		return "", nil, err
	}
	return owner, claims, nil
}
