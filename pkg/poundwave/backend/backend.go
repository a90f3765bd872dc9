// Package backend manages sessions to the services a listener relays
// requests to: lazy connection, connect-with-timeout, retry against a
// sibling backend on failure, staleness detection before reusing an idle
// connection, and socket tuning.
package backend

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yourusername/poundwave/pkg/poundwave/wire"
)

// ErrAllBackendsDown is returned when every backend in a service's pool
// failed to connect.
var ErrAllBackendsDown = errors.New("backend: no backend in service could be reached")

// Target describes one backend a service can relay to.
type Target struct {
	Name    string
	Address string // host:port
	Weight  int

	// TLS, when non-nil, causes Connect to perform a TLS handshake to
	// this backend (Pound's HTTPS-backend support).
	TLS *tls.Config

	ConnectTimeout time.Duration
	IdleTimeout    time.Duration
}

// Session wraps one live connection to a Target, pooled for reuse across
// keep-alive requests on the same client connection.
type Session struct {
	target *Target
	ch     *wire.Channel

	lastUsed time.Time
	requests atomic.Uint64

	mu     sync.Mutex
	closed bool
}

// Connect dials t, applying ConnectTimeout, socket tuning, and (if t.TLS is
// set) a TLS handshake. It does not retry across targets; callers needing
// fallback-to-a-sibling-backend behavior use Dial on a Pool.
func Connect(ctx context.Context, t *Target) (*Session, error) {
	timeout := t.ConnectTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	dialer := net.Dialer{Timeout: timeout}

	rawConn, err := dialer.DialContext(ctx, "tcp", t.Address)
	if err != nil {
		return nil, fmt.Errorf("backend %s: dial: %w", t.Name, err)
	}

	if tc, ok := rawConn.(*net.TCPConn); ok {
		if err := Tune(tc, DefaultTuning()); err != nil {
			// Non-fatal: proceed without the tuned socket options rather
			// than failing the whole connection over a best-effort knob.
			_ = err
		}
	}

	var conn net.Conn = rawConn
	if t.TLS != nil {
		tlsConn := tls.Client(rawConn, t.TLS)
		tlsConn.SetDeadline(time.Now().Add(timeout))
		if err := tlsConn.Handshake(); err != nil {
			rawConn.Close()
			return nil, fmt.Errorf("backend %s: tls handshake: %w", t.Name, err)
		}
		tlsConn.SetDeadline(time.Time{})
		conn = tlsConn
	}

	return &Session{
		target:   t,
		ch:       wire.NewChannel(conn, 0),
		lastUsed: nowSource(),
	}, nil
}

// Channel returns the underlying wire.Channel for relaying a request/
// response pair over this session.
func (s *Session) Channel() *wire.Channel { return s.ch }

// Target returns the backend this session is connected to.
func (s *Session) Target() *Target { return s.target }

// MarkUsed records that a request was just relayed over this session.
func (s *Session) MarkUsed() {
	s.requests.Add(1)
	s.lastUsed = nowSource()
}

// RequestCount returns how many requests have been relayed over this
// session.
func (s *Session) RequestCount() uint64 { return s.requests.Load() }

// Stale reports whether the peer has silently closed the connection since
// it was last used, checked before handing a pooled session back out for
// reuse.
func (s *Session) Stale() bool {
	return wire.IsStale(s.ch.Conn())
}

// Close closes the session's connection.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.ch.Close()
}

var nowSource = time.Now
