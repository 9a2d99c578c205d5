// Package transport provides the HTTP transport abstraction layer every
// backend call goes through. The transport owns the session cookies; callers
// never see them.
package transport

import "time"

// Request represents an HTTP request to be sent by the transport client.
type Request struct {
	// Method is the HTTP method (GET, POST, PUT, etc.).
	Method string

	// URL is the target URL.
	URL string

	// Headers contains custom HTTP headers to include.
	Headers map[string]string

	// Body is the request body content.
	Body string

	// ContentType is the Content-Type header value.
	ContentType string

	// DiscardBody drains a 2xx response body without keeping it; the
	// returned Response then has a nil Body. Error bodies are still read.
	DiscardBody bool

	// Timeout overrides the client-level timeout for this specific
	// request. Zero means use the client default.
	Timeout time.Duration
}
