package auth

import (
	"context"
)

var userCtxKey = &contextKey{"user"}
var adminCtxKey = &contextKey{"admin"}

type contextKey struct {
	name string
}

// WithContext sets the User in the given context
func WithContext(r context.Context, user *User) context.Context {
	return context.WithValue(r, userCtxKey, user)
}

// FromContext finds the user from the context.
func FromContext(ctx context.Context) (*User, bool) {
	raw, ok := ctx.Value(userCtxKey).(*User)
	return raw, ok
}

// WithAdminContext sets the AdminIdentity in the given context
func WithAdminContext(r context.Context, admin *AdminIdentity) context.Context {
	return context.WithValue(r, adminCtxKey, admin)
}

// AdminFromContext finds the admin identity from the context.
func AdminFromContext(ctx context.Context) (*AdminIdentity, bool) {
	raw, ok := ctx.Value(adminCtxKey).(*AdminIdentity)
	return raw, ok
}
