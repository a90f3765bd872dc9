// Package wire wraps a net.Conn with per-operation read/write deadlines and
// an explicit timed-out flag, rather than Pound's bio_callback technique of
// stashing a sentinel pointer (err_to) in a BIO callback argument to detect
// a timeout after the fact: the flag lives on the struct, set by whichever
// Read/Write call actually timed out, and cleared at the start of the next
// operation.
package wire

import (
	"bufio"
	"crypto/tls"
	"net"
	"time"
)

// Channel is a deadline-aware net.Conn wrapper used on both the client-facing
// and backend-facing sides of the worker pipeline.
type Channel struct {
	conn    net.Conn
	br      *bufio.Reader
	timeout time.Duration

	timedOut bool
}

// NewChannel wraps conn with a per-operation timeout. A zero timeout means
// no deadline is applied (operations block indefinitely, same as a bare
// net.Conn).
func NewChannel(conn net.Conn, timeout time.Duration) *Channel {
	return &Channel{conn: conn, br: bufio.NewReader(conn), timeout: timeout}
}

// Conn returns the underlying net.Conn, for callers (socket tuning, TLS
// handshake inspection) that need the concrete connection.
func (c *Channel) Conn() net.Conn { return c.conn }

// Reader returns the buffered reader layered over the connection. Header
// parsing, chunk decoding and the legacy-mode (read-until-EOF) body relay
// all read through this, so bytes it has already buffered are not skipped.
func (c *Channel) Reader() *bufio.Reader { return c.br }

// Raw returns the unbuffered connection beneath the buffered reader: any
// bytes already buffered by br must be drained first so nothing is skipped.
func (c *Channel) Raw() net.Conn { return c.conn }

// TimedOut reports whether the most recent Read or Write call returned
// because the per-operation deadline elapsed.
func (c *Channel) TimedOut() bool { return c.timedOut }

// Read applies the configured deadline, then reads through the buffered
// reader so pipelined bytes already read by header parsing are not lost.
func (c *Channel) Read(p []byte) (int, error) {
	c.timedOut = false
	if c.timeout > 0 {
		c.conn.SetReadDeadline(time.Now().Add(c.timeout))
	}
	n, err := c.br.Read(p)
	if isTimeout(err) {
		c.timedOut = true
	}
	return n, err
}

// Write applies the configured deadline and writes directly to the
// connection (responses are not buffered on the write side: the worker
// flushes explicitly after each logical message).
func (c *Channel) Write(p []byte) (int, error) {
	c.timedOut = false
	if c.timeout > 0 {
		c.conn.SetWriteDeadline(time.Now().Add(c.timeout))
	}
	n, err := c.conn.Write(p)
	if isTimeout(err) {
		c.timedOut = true
	}
	return n, err
}

// Readable reports whether the connection has data available (or is at EOF)
// without blocking, by polling a zero-timeout read on the raw socket. This
// is the Go equivalent of Pound's is_readable, used by the backend package
// to detect a pooled connection the peer has silently closed before
// reusing it.
func (c *Channel) Readable() (bool, error) {
	if tc, ok := c.conn.(*net.TCPConn); ok {
		return pollReadable(tc)
	}
	// Any other connection type (including a *tls.Conn over a TCPConn)
	// is not probed and is reported readable.
	return true, nil
}

// SetDeadline sets both read and write deadlines on the underlying
// connection directly, bypassing the per-operation timeout for callers
// that need a single deadline spanning several reads/writes (e.g. the full
// request/response cycle).
func (c *Channel) SetDeadline(t time.Time) error {
	return c.conn.SetDeadline(t)
}

// Close closes the channel. If the underlying connection is a *tls.Conn,
// Close retries the TLS shutdown up to three times tolerating transient
// would-block conditions before falling back to closing the raw socket,
// matching Pound's triple BIO_ssl_shutdown retry.
func (c *Channel) Close() error {
	if tconn, ok := c.conn.(*tls.Conn); ok {
		var err error
		for attempt := 0; attempt < 3; attempt++ {
			err = tconn.CloseWrite()
			if err == nil {
				break
			}
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			break
		}
	}
	return c.conn.Close()
}

func isTimeout(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}
