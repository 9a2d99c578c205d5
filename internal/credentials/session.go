package credentials

import (
	"context"
	"sync"
)

// SessionProvider holds credentials entered through a login form for the
// lifetime of the process. Nothing is written to disk.
type SessionProvider struct {
	mu    sync.RWMutex
	creds Credentials
}

// NewSessionProvider returns an empty session-scoped provider.
func NewSessionProvider() *SessionProvider {
	return &SessionProvider{}
}

var (
	_ Provider = (*SessionProvider)(nil)
	_ Setter   = (*SessionProvider)(nil)
	_ Provider = (*EnvProvider)(nil)
)

// Credentials implements Provider.
func (p *SessionProvider) Credentials(_ context.Context) (Credentials, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.creds, nil
}

// Set implements Setter.
func (p *SessionProvider) Set(identity, secret string) {
	p.mu.Lock()
	p.creds = Credentials{Identity: identity, Secret: secret}
	p.mu.Unlock()
}

// Clear implements Setter.
func (p *SessionProvider) Clear() {
	p.mu.Lock()
	p.creds = Credentials{}
	p.mu.Unlock()
}
