package authsvc

import (
	"context"
	"errors"
)

// Identity is the caller resolved from a bearer token. Every task and tag
// operation is scoped to Identity.UserID.
type Identity struct {
	UserID uint64
	Email  string
}

type contextKey string

const IdentityContextKey contextKey = "Identity"

func NewContext(ctx context.Context, a Identity) context.Context {
	return context.WithValue(ctx, IdentityContextKey, a)
}

func FromContext(ctx context.Context) (Identity, error) {
	a, ok := ctx.Value(IdentityContextKey).(Identity)
	if !ok || a.UserID == 0 {
		return Identity{}, ErrUnauthenticated
	}
	return a, nil
}

var (
	ErrUnauthenticated = errors.New("could not validate credentials")
	ErrTokenInvalid    = errors.New("token is invalid")
	ErrClaimsInvalid   = errors.New("JWT claims was invalid")
)
