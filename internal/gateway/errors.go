package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrMissingCredentials means no identity/secret is available. The host
	// application should collect them through its login form.
	ErrMissingCredentials = errors.New("credentials not found: login required")

	// ErrCredentialsReadOnly is returned by SetCredentials and
	// ClearCredentials when the provider does not accept form input.
	ErrCredentialsReadOnly = errors.New("credential provider is read-only")
)

// AuthenticationFailedError is returned when the login request is rejected
// or cannot be sent. StatusCode is zero when no response was received.
type AuthenticationFailedError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *AuthenticationFailedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed: %v", e.Err)
	}
	return fmt.Sprintf("authentication failed: %d - %s", e.StatusCode, e.Body)
}

func (e *AuthenticationFailedError) Unwrap() error { return e.Err }

// TransportError is returned for any non-2xx response to a data operation,
// and for requests that never produced a response (StatusCode zero).
type TransportError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Body != "":
		return fmt.Sprintf("%s: %d - %s", e.Op, e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("%s: %d", e.Op, e.StatusCode)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// Unauthorized reports whether the error carries a 401 or 403 status.
func (e *TransportError) Unauthorized() bool {
	return IsUnauthorized(e.StatusCode)
}

// IsUnauthorized reports whether status signals an expired or missing session.
func IsUnauthorized(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}
