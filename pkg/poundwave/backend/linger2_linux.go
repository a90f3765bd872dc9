//go:build linux

package backend

import "golang.org/x/sys/unix"

// setTCPLinger2 sets TCP_LINGER2, bounding time spent in FIN_WAIT2 after a
// half-close. Linux-only.
func setTCPLinger2(fd int, seconds int) {
	_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_LINGER2, seconds)
}
