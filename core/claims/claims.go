// Package claims carries the authenticated identity through the request
// context. The auth middleware sets it from the session; handlers read it
// to scope queries to the caller.
package claims

import (
	"context"
	"errors"
)

const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

// Claims identifies the authenticated caller for the current request.
type Claims struct {
	UserID string
	Role   string
}

type ctxKey int

const claimsKey ctxKey = 1

// Set stores the claims in the context.
func Set(ctx context.Context, claims Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// Get returns the claims or an error when the request is unauthenticated.
func Get(ctx context.Context) (Claims, error) {
	v, ok := ctx.Value(claimsKey).(Claims)
	if !ok {
		return Claims{}, errors.New("claim value missing from context")
	}
	return v, nil
}

// IsAdmin reports whether the caller holds the admin role.
func IsAdmin(ctx context.Context) bool {
	c, err := Get(ctx)
	if err != nil {
		return false
	}

	return c.Role == RoleAdmin
}

// CanAccess reports whether the caller owns the resource or is an admin.
// Orders and payment attempts are visible only under this rule.
func CanAccess(ctx context.Context, ownerID string) bool {
	c, err := Get(ctx)
	if err != nil {
		return false
	}

	return c.UserID == ownerID || c.Role == RoleAdmin
}
