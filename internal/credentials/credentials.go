// Package credentials provides the identity/secret pair used to log in to the
// vacancy backend, the providers that source it, and the redaction helpers
// applied whenever account data reaches a log.
package credentials

import (
	"context"
	"log/slog"
)

// Credentials is the identity/secret pair submitted to the login endpoint.
type Credentials struct {
	Identity string
	Secret   string
}

// Empty reports whether either half of the pair is missing.
func (c Credentials) Empty() bool {
	return c.Identity == "" || c.Secret == ""
}

// LogValue implements slog.LogValuer. The secret is never logged.
func (c Credentials) LogValue() slog.Value {
	secret := ""
	if c.Secret != "" {
		secret = Redacted
	}
	return slog.GroupValue(
		slog.String("identity", MaskIdentity(c.Identity)),
		slog.String("secret", secret),
	)
}

// String returns the redacted projection so that fmt verbs cannot leak the
// secret either.
func (c Credentials) String() string {
	if c.Secret == "" {
		return MaskIdentity(c.Identity)
	}
	return MaskIdentity(c.Identity) + ":" + Redacted
}

// Provider supplies the current credentials. Implementations are consulted
// on every login attempt, so updated values take effect without a restart.
type Provider interface {
	Credentials(ctx context.Context) (Credentials, error)
}

// Setter is implemented by providers that accept credentials from an
// interactive login form.
type Setter interface {
	Set(identity, secret string)
	Clear()
}
