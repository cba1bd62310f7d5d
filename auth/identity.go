package auth

import (
	"slices"
	"time"
)

// AuthMethod indicates how authentication was performed.
type AuthMethod string

const (
	AuthMethodJWT         AuthMethod = "jwt"
	AuthMethodAdminSecret AuthMethod = "admin_secret"
	AuthMethodAnonymous   AuthMethod = "anonymous"
)

// Identity represents an authenticated caller.
type Identity struct {
	// Principal is the unique identifier, usually the JWT subject.
	Principal string

	// Roles are the roles carried by the credential.
	Roles []string

	// Method indicates how authentication was performed.
	Method AuthMethod

	// Claims contains the raw token claims.
	Claims map[string]any

	// ExpiresAt is when the credential expires. Zero means never.
	ExpiresAt time.Time

	// IssuedAt is when the credential was issued.
	IssuedAt time.Time
}

// HasRole checks if the identity has a specific role.
func (id *Identity) HasRole(role string) bool {
	return slices.Contains(id.Roles, role)
}

// IsExpired checks if the identity has expired.
func (id *Identity) IsExpired() bool {
	return !id.ExpiresAt.IsZero() && time.Now().After(id.ExpiresAt)
}

// IsAnonymous returns true if this is an anonymous identity.
func (id *Identity) IsAnonymous() bool {
	return id.Method == AuthMethodAnonymous || id.Principal == ""
}

// AnonymousIdentity creates the identity used for unauthenticated reads.
func AnonymousIdentity() *Identity {
	return &Identity{
		Principal: "anonymous",
		Method:    AuthMethodAnonymous,
		Claims:    make(map[string]any),
	}
}
