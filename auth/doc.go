// Package auth authenticates callers of the gateway's write routes.
//
// Two credentials are accepted: an HMAC-signed JWT in the Authorization
// header, or the operator admin secret in X-Admin-Secret. New builds the
// composite authenticator from configuration. The package is transport
// agnostic; the HTTP layer turns an AuthResult into a status code.
package auth
