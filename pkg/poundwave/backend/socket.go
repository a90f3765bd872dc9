package backend

import (
	"net"

	"golang.org/x/sys/unix"
)

// Tuning mirrors the socket options Pound applies to both the accepted
// client socket and the connected backend socket right after connect:
// always-on SO_KEEPALIVE, a 10-second linger, and (Linux) TCP_LINGER2=5 to
// bound the time a half-closed connection stays in FIN_WAIT2.
type Tuning struct {
	KeepAlive  bool
	LingerSecs int
	Linger2    int // Linux TCP_LINGER2, 0 disables
	NoDelay    bool
}

// DefaultTuning matches Pound's fixed socket option values exactly.
func DefaultTuning() Tuning {
	return Tuning{KeepAlive: true, LingerSecs: 10, Linger2: 5, NoDelay: true}
}

// Tune applies t to tc via raw setsockopt calls.
func Tune(tc *net.TCPConn, t Tuning) error {
	rawConn, err := tc.SyscallConn()
	if err != nil {
		return err
	}

	var sockErr error
	err = rawConn.Control(func(fd uintptr) {
		ifd := int(fd)

		if t.NoDelay {
			if e := unix.SetsockoptInt(ifd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1); e != nil {
				sockErr = e
				return
			}
		}

		if t.KeepAlive {
			if e := unix.SetsockoptInt(ifd, unix.SOL_SOCKET, unix.SO_KEEPALIVE, 1); e != nil {
				sockErr = e
				return
			}
		}

		if t.LingerSecs > 0 {
			linger := unix.Linger{Onoff: 1, Linger: int32(t.LingerSecs)}
			if e := unix.SetsockoptLinger(ifd, unix.SOL_SOCKET, unix.SO_LINGER, &linger); e != nil {
				sockErr = e
				return
			}
		}

		if t.Linger2 > 0 {
			setTCPLinger2(ifd, t.Linger2)
		}
	})
	if err != nil {
		return err
	}
	return sockErr
}
