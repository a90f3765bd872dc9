//go:build linux

package wire

import (
	"net"
	"time"

	"golang.org/x/sys/unix"
)

// pollReadable polls a single fd with a zero timeout, mirroring Pound's
// is_readable (poll() with timeout 0). Data pending, or the peer having
// closed (POLLHUP/POLLERR surfaces as POLLIN-then-EOF on the subsequent
// read), both report true; the caller distinguishes "has data" from "is at
// EOF" by then attempting a zero-length-aware read.
func pollReadable(tc *net.TCPConn) (bool, error) {
	rc, err := tc.SyscallConn()
	if err != nil {
		return false, err
	}

	var ready bool
	var pollErr error
	err = rc.Control(func(fd uintptr) {
		fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
		n, e := unix.Poll(fds, 0)
		if e != nil {
			pollErr = e
			return
		}
		if n > 0 && fds[0].Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0 {
			ready = true
		}
	})
	if err != nil {
		return false, err
	}
	if pollErr != nil {
		return false, pollErr
	}
	return ready, nil
}

// IsStale performs the actual staleness read Pound relies on poll() plus a
// zero-byte recv to detect: if the socket reports readable but a
// non-blocking read returns EOF, the peer has already closed this pooled
// connection.
func IsStale(conn net.Conn) bool {
	tc, ok := conn.(*net.TCPConn)
	if !ok {
		return false
	}
	ready, err := pollReadable(tc)
	if err != nil || !ready {
		return false
	}
	tc.SetReadDeadline(time.Now())
	var b [1]byte
	n, err := tc.Read(b[:])
	tc.SetReadDeadline(time.Time{})
	return n == 0 && err != nil
}
