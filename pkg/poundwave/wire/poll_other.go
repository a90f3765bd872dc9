//go:build !linux

package wire

import (
	"net"
	"time"
)

// pollReadable falls back to a zero-deadline read probe on platforms
// without poll(2) semantics wired up (see poll_linux.go for the direct
// poll-based implementation).
func pollReadable(tc *net.TCPConn) (bool, error) {
	tc.SetReadDeadline(time.Now())
	var b [1]byte
	_, err := tc.Read(b[:])
	tc.SetReadDeadline(time.Time{})
	if err == nil {
		return true, nil
	}
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return false, nil
	}
	return true, nil // non-timeout error: treat as readable-to-EOF
}

func IsStale(conn net.Conn) bool {
	tc, ok := conn.(*net.TCPConn)
	if !ok {
		return false
	}
	tc.SetReadDeadline(time.Now())
	var b [1]byte
	n, err := tc.Read(b[:])
	tc.SetReadDeadline(time.Time{})
	return n == 0 && err != nil
}
