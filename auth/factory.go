package auth

// Config selects the credentials accepted on write routes.
type Config struct {
	// JWTSecret enables bearer token auth when non-empty.
	JWTSecret string

	// JWTIssuer is the expected iss claim. Empty skips the check.
	JWTIssuer string

	// AdminSecret enables X-Admin-Secret auth when non-empty.
	AdminSecret string
}

// New builds the authenticator for cfg. Bearer tokens are tried before the
// admin secret. ErrNotConfigured is returned when neither is set; callers
// decide whether that leaves write routes open or closed.
func New(cfg Config) (*CompositeAuthenticator, error) {
	var auths []Authenticator
	if cfg.JWTSecret != "" {
		auths = append(auths, NewJWTAuthenticator(JWTConfig{
			Secret: []byte(cfg.JWTSecret),
			Issuer: cfg.JWTIssuer,
		}))
	}
	if cfg.AdminSecret != "" {
		auths = append(auths, NewAdminSecretAuthenticator(cfg.AdminSecret))
	}
	if len(auths) == 0 {
		return nil, ErrNotConfigured
	}
	return NewCompositeAuthenticator(auths...), nil
}
