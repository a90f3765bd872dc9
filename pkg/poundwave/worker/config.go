// Package worker implements the per-connection request/response pipeline:
// for each accepted client connection, read one request at a time, pick a
// backend, relay the request and response bodies framing-for-framing, and
// decide whether the connection continues.
package worker

import (
	"regexp"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/poundwave/pkg/poundwave/accesslog"
	"github.com/yourusername/poundwave/pkg/poundwave/backend"
	"github.com/yourusername/poundwave/pkg/poundwave/redirector"
)

// Config configures how a Worker serves accepted client connections.
type Config struct {
	// Backends selects and dials backend servers for each request.
	Backends *backend.Pool

	// Redirector, if non-nil, makes this service a synthetic redirect
	// backend: every request gets a 302 and no backend connection is ever
	// made (Pound's "Redirect" service type).
	Redirector *redirector.Redirector

	// ClientIdleTimeout bounds how long the worker waits for the next
	// request line on a keep-alive connection before closing it.
	ClientIdleTimeout time.Duration

	// BackendConnectTimeout bounds dialing a backend whose Target sets no
	// ConnectTimeout of its own; config.BuildWorkerConfig copies it onto
	// such targets.
	BackendConnectTimeout time.Duration

	// MaxRequestsPerConn caps requests served on one client connection;
	// once reached, the worker closes the connection instead of reading a
	// further request. 0 means unlimited.
	MaxRequestsPerConn int

	// AccessLogLevel selects the access-log verbosity (0-4).
	AccessLogLevel accesslog.Level

	// Logger receives structured diagnostic (not access) logs: parse
	// errors, backend failures, TLS handshake failures.
	Logger *logrus.Logger

	// ClientTuning is applied once per accepted connection (Pound applies
	// the identical tuning to both the client and backend sockets).
	ClientTuning backend.Tuning

	// MaxRequestBytes bounds a length-framed request body; 0 means
	// unbounded. Checked against Content-Length after headers parse,
	// before a backend is dialed (Pound's max_req).
	MaxRequestBytes int64

	// HeaderRemove drops any forwarded request header whose name matches
	// one of these (Pound's head_off).
	HeaderRemove []*regexp.Regexp

	// RewriteDestination rewrites a WebDAV Destination header's host to
	// the selected backend's address (Pound's rewr_dest).
	RewriteDestination bool

	// RewriteLocation rewrites a backend's Location/Content-Location
	// response header to the client's own Host and scheme (Pound's
	// rewr_loc).
	RewriteLocation bool

	// HTTPSHeader, if non-empty, is a full "Name: value" line appended to
	// requests forwarded to a plaintext backend when the client connected
	// over TLS.
	HTTPSHeader string

	// ErrorPages maps a synthetic-reply status to its HTML body. A status
	// with no entry gets a minimal generated page.
	ErrorPages map[int]string
}

// DefaultConfig returns sane defaults matching Pound's own.
func DefaultConfig() Config {
	return Config{
		ClientIdleTimeout:     10 * time.Second,
		BackendConnectTimeout: 5 * time.Second,
		MaxRequestsPerConn:    0,
		AccessLogLevel:        accesslog.LevelBasic,
		ClientTuning:          backend.DefaultTuning(),
	}
}
