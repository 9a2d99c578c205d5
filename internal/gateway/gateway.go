// Package gateway owns the authentication state for the vacancy backend and
// wraps every outbound call so that it carries a valid cookie session.
//
// The gateway starts Unauthenticated. The first call probes the session with
// a cheap request; if the probe fails it logs in with the configured
// credentials. Once Authenticated, calls go straight through until one of
// them observes a 401 or 403, which drops the gateway back to
// Unauthenticated. The failing call is not retried; the next call
// re-authenticates.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/0x6d61/sofictl/internal/credentials"
	"github.com/0x6d61/sofictl/internal/transport"
)

// Backend paths used by the gateway itself.
const (
	LoginPath = "/auth/login"
	ProbePath = "/positions"
)

const (
	contentTypeJSON = "application/json"
	contentTypeForm = "application/x-www-form-urlencoded"
)

// Options configures a Gateway.
type Options struct {
	// BaseURL is the backend API root, e.g. https://host/api.
	BaseURL string

	// Credentials supplies identity/secret for login.
	Credentials credentials.Provider

	// Logger receives diagnostics. Nil uses slog.Default().
	Logger *slog.Logger

	// Production suppresses diagnostic output entirely.
	Production bool
}

// Gateway is safe for concurrent use. Overlapping callers that all find the
// gateway Unauthenticated share a single probe/login sequence.
type Gateway struct {
	client     transport.Client
	baseURL    string
	creds      credentials.Provider
	logger     *slog.Logger
	production bool

	mu            sync.RWMutex
	authenticated bool

	logins singleflight.Group
}

// New creates a Gateway in the Unauthenticated state.
func New(client transport.Client, opts Options) *Gateway {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		client:     client,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		creds:      opts.Credentials,
		logger:     logger,
		production: opts.Production,
	}
}

// Authenticated reports the current session state.
func (g *Gateway) Authenticated() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.authenticated
}

// Reset drops the gateway back to Unauthenticated.
func (g *Gateway) Reset() {
	g.setAuthenticated(false)
}

func (g *Gateway) setAuthenticated(v bool) {
	g.mu.Lock()
	g.authenticated = v
	g.mu.Unlock()
}

// SetCredentials stores credentials entered through a login form and drops
// the current session state so the next call logs in with them.
func (g *Gateway) SetCredentials(identity, secret string) error {
	s, ok := g.creds.(credentials.Setter)
	if !ok {
		return ErrCredentialsReadOnly
	}
	s.Set(identity, secret)
	g.Reset()
	return nil
}

// ClearCredentials forgets form-entered credentials.
func (g *Gateway) ClearCredentials() error {
	s, ok := g.creds.(credentials.Setter)
	if !ok {
		return ErrCredentialsReadOnly
	}
	s.Clear()
	g.Reset()
	return nil
}

// EnsureAuthenticated returns once the gateway is Authenticated. It is
// idempotent and cheap when a session is already established.
//
// The shared session check and login run detached from any single caller's
// cancellation; a cancelled caller stops waiting without failing the
// others. The transport timeout still bounds the login.
func (g *Gateway) EnsureAuthenticated(ctx context.Context) error {
	if g.Authenticated() {
		return nil
	}
	shared := context.WithoutCancel(ctx)
	ch := g.logins.DoChan("authenticate", func() (any, error) {
		return nil, g.authenticate(shared)
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *Gateway) authenticate(ctx context.Context) error {
	if g.Authenticated() {
		return nil
	}

	resp, err := g.client.Do(ctx, &transport.Request{
		Method:      http.MethodGet,
		URL:         g.URL(ProbePath),
		ContentType: contentTypeJSON,
		DiscardBody: true,
	})
	switch {
	case err != nil:
		if ctx.Err() != nil {
			return ctx.Err()
		}
		g.debug("session probe failed, logging in", "error", err)
	case resp.OK():
		g.setAuthenticated(true)
		g.debug("session probe succeeded, existing cookies are valid")
		return nil
	case IsUnauthorized(resp.StatusCode):
		g.debug("session cookies rejected, logging in", "status", resp.StatusCode)
	default:
		g.debug("session probe returned unexpected status, logging in", "status", resp.StatusCode)
	}

	return g.login(ctx)
}

// login submits the password grant. A successful response body is drained
// unread: it may carry session material that must not reach callers or logs.
func (g *Gateway) login(ctx context.Context) error {
	if g.creds == nil {
		return ErrMissingCredentials
	}
	creds, err := g.creds.Credentials(ctx)
	if err != nil {
		return fmt.Errorf("gateway: read credentials: %w", err)
	}
	if creds.Empty() {
		return ErrMissingCredentials
	}

	form := url.Values{}
	form.Set("username", creds.Identity)
	form.Set("password", creds.Secret)
	form.Set("grant_type", "password")

	resp, err := g.client.Do(ctx, &transport.Request{
		Method:      http.MethodPost,
		URL:         g.URL(LoginPath),
		Body:        form.Encode(),
		ContentType: contentTypeForm,
		DiscardBody: true,
	})
	if err != nil {
		g.Reset()
		return &AuthenticationFailedError{Err: err}
	}
	if !resp.OK() {
		g.Reset()
		g.debug("login rejected", "status", resp.StatusCode, "credentials", creds)
		return &AuthenticationFailedError{StatusCode: resp.StatusCode, Body: resp.BodyString()}
	}

	g.setAuthenticated(true)
	g.debug("login succeeded, session cookies set", "credentials", creds)
	return nil
}

// Do authenticates if needed and sends req. Non-2xx responses become
// *TransportError; a 401 or 403 also resets the session state.
func (g *Gateway) Do(ctx context.Context, op string, req *transport.Request) (*transport.Response, error) {
	if err := g.EnsureAuthenticated(ctx); err != nil {
		return nil, err
	}

	resp, err := g.client.Do(ctx, req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	if IsUnauthorized(resp.StatusCode) {
		g.Reset()
		g.debug("session expired", "op", op, "status", resp.StatusCode)
	}
	if !resp.OK() {
		return nil, &TransportError{Op: op, StatusCode: resp.StatusCode, Body: resp.BodyString()}
	}
	return resp, nil
}

// Call sends a request to path with in encoded as the JSON body (nil for
// no body) and returns the raw response body.
func (g *Gateway) Call(ctx context.Context, op, method, path string, in any) ([]byte, error) {
	req := &transport.Request{
		Method:      method,
		URL:         g.URL(path),
		ContentType: contentTypeJSON,
	}
	if in != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(in); err != nil {
			return nil, fmt.Errorf("%s: encode request: %w", op, err)
		}
		req.Body = buf.String()
	}

	resp, err := g.Do(ctx, op, req)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// URL joins path onto the base URL.
func (g *Gateway) URL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return g.baseURL + path
}

func (g *Gateway) debug(msg string, args ...any) {
	if g.production {
		return
	}
	g.logger.Debug(msg, args...)
}
