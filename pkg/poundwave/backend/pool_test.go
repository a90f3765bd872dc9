package backend

import (
	"context"
	"net"
	"testing"
	"time"
)

func startEchoListener(t *testing.T) (addr string, stop func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				buf := make([]byte, 4096)
				for {
					n, err := c.Read(buf)
					if n > 0 {
						c.Write(buf[:n])
					}
					if err != nil {
						return
					}
				}
			}(conn)
		}
	}()
	return ln.Addr().String(), func() { ln.Close() }
}

func TestPoolDialConnectsToLiveTarget(t *testing.T) {
	addr, stop := startEchoListener(t)
	defer stop()

	pool := NewPool([]*Target{{Name: "a", Address: addr, ConnectTimeout: time.Second}})
	s, err := pool.Dial(context.Background())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer s.Close()

	if s.Target().Name != "a" {
		t.Errorf("Target = %q, want a", s.Target().Name)
	}
}

func TestPoolDialRetriesNextTargetOnFailure(t *testing.T) {
	addr, stop := startEchoListener(t)
	defer stop()

	// The first target (127.0.0.1:1, reserved, refuses) must be skipped
	// in favor of the live one.
	pool := NewPool([]*Target{
		{Name: "dead", Address: "127.0.0.1:1", ConnectTimeout: 200 * time.Millisecond},
		{Name: "live", Address: addr, ConnectTimeout: time.Second},
	})
	s, err := pool.Dial(context.Background())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer s.Close()

	if s.Target().Name != "live" {
		t.Errorf("Target = %q, want live", s.Target().Name)
	}
}

func TestPoolDialAllDownReturnsError(t *testing.T) {
	pool := NewPool([]*Target{
		{Name: "a", Address: "127.0.0.1:1", ConnectTimeout: 200 * time.Millisecond},
		{Name: "b", Address: "127.0.0.1:2", ConnectTimeout: 200 * time.Millisecond},
	})
	_, err := pool.Dial(context.Background())
	if err != ErrAllBackendsDown {
		t.Fatalf("err = %v, want ErrAllBackendsDown", err)
	}
}
