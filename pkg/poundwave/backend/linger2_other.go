//go:build !linux

package backend

// setTCPLinger2 is a no-op off Linux: TCP_LINGER2 does not exist on
// BSD-derived TCP stacks.
func setTCPLinger2(fd int, seconds int) {}
