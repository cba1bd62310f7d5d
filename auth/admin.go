package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"strings"
)

// AdminSecretHeader carries the operator admin secret.
const AdminSecretHeader = "X-Admin-Secret"

// AdminSecretAuthenticator accepts the shared operator secret. Both sides are
// hashed before the constant-time compare so the secret length is not leaked.
type AdminSecretAuthenticator struct {
	digest [sha256.Size]byte
}

// NewAdminSecretAuthenticator creates an authenticator for secret.
func NewAdminSecretAuthenticator(secret string) *AdminSecretAuthenticator {
	return &AdminSecretAuthenticator{digest: sha256.Sum256([]byte(secret))}
}

// Name returns "admin_secret".
func (a *AdminSecretAuthenticator) Name() string {
	return string(AuthMethodAdminSecret)
}

// Supports returns true if the admin secret header is present.
func (a *AdminSecretAuthenticator) Supports(_ context.Context, req *AuthRequest) bool {
	return req.GetHeader(AdminSecretHeader) != ""
}

// Authenticate compares the presented secret.
func (a *AdminSecretAuthenticator) Authenticate(_ context.Context, req *AuthRequest) (*AuthResult, error) {
	presented := strings.TrimSpace(req.GetHeader(AdminSecretHeader))
	if presented == "" {
		return AuthFailure(ErrMissingCredentials, a.Name()), nil
	}

	digest := sha256.Sum256([]byte(presented))
	if subtle.ConstantTimeCompare(digest[:], a.digest[:]) != 1 {
		return AuthFailure(ErrInvalidCredentials, a.Name()), nil
	}

	return AuthSuccess(&Identity{
		Principal: "admin",
		Roles:     []string{"admin"},
		Method:    AuthMethodAdminSecret,
		Claims:    map[string]any{},
	}), nil
}

var _ Authenticator = (*AdminSecretAuthenticator)(nil)
