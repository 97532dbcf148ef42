// Package auth holds the role model, bearer token extraction, and the
// authorization middleware gating every protected route.
package auth

import (
	"context"
	"regexp"
)

type Role string

const (
	RolePatient Role = "patient"
	RoleMedic   Role = "medic"
	RoleAdmin   Role = "admin"
)

// Identity is the resolved owner of a session token.
type Identity struct {
	Token     string
	SubjectID string
	Role      Role
}

// TokenResolver looks up a live session token. Implemented by
// session.Registry.
type TokenResolver interface {
	Lookup(token string) (Identity, bool)
}

// Tokens are 64 random bytes, base64url without padding: exactly 86 chars.
var bearerPattern = regexp.MustCompile(`^Bearer ([A-Za-z0-9_-]{86})$`)

// TokenFromHeader extracts the opaque token from an Authorization header
// value. A header that does not match the issued token format is treated the
// same as a missing one.
func TokenFromHeader(header string) (string, bool) {
	m := bearerPattern.FindStringSubmatch(header)
	if m == nil {
		return "", false
	}
	return m[1], true
}

type contextKey string

const identityKey contextKey = "auth_identity"

// WithIdentity returns a context carrying the authenticated identity.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom retrieves the authenticated identity set by the middleware.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}
