package worker

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/yourusername/poundwave/pkg/poundwave/backend"
)

// startEchoBackend starts a TCP listener that answers the first request on
// each connection with a fixed HTTP/1.1 200 response and then closes it,
// for exercising the worker's proxied path end-to-end.
func startEchoBackend(t *testing.T) string {
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
			go func() {
				defer conn.Close()
				br := bufio.NewReader(conn)
				for {
					line, err := br.ReadString('\n')
					if err != nil || line == "\r\n" {
						break
					}
				}
				conn.Write([]byte("HTTP/1.1 200 OK\r\nContent-Length: 2\r\n\r\nok"))
			}()
		}
	}()
	t.Cleanup(func() { ln.Close() })
	return ln.Addr().String()
}

// startContinueThenOKBackend answers the first request on each connection
// with a 100-Continue interim response followed by the real final response
// and then closes it, for exercising the worker's 1xx-absorption loop.
func startContinueThenOKBackend(t *testing.T) string {
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
			go func() {
				defer conn.Close()
				br := bufio.NewReader(conn)
				for {
					line, err := br.ReadString('\n')
					if err != nil || line == "\r\n" {
						break
					}
				}
				conn.Write([]byte("HTTP/1.1 100 Continue\r\n\r\n"))
				conn.Write([]byte("HTTP/1.1 200 OK\r\nContent-Length: 2\r\n\r\nok"))
			}()
		}
	}()
	t.Cleanup(func() { ln.Close() })
	return ln.Addr().String()
}

func TestWorkerAbsorbs100Continue(t *testing.T) {
	addr := startContinueThenOKBackend(t)
	pool := backend.NewPool([]*backend.Target{{Name: "b1", Address: addr, Weight: 1}})

	clientConn, workerConn := net.Pipe()
	defer clientConn.Close()

	cfg := DefaultConfig()
	cfg.Backends = pool
	cfg.MaxRequestsPerConn = 1

	w := New(workerConn, cfg)
	go w.Serve(context.Background())

	req := "POST /upload HTTP/1.1\r\nHost: example.com\r\nContent-Length: 0\r\n\r\n"
	if _, err := clientConn.Write([]byte(req)); err != nil {
		t.Fatalf("write request: %v", err)
	}

	clientConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	br := bufio.NewReader(clientConn)
	status, err := br.ReadString('\n')
	if err != nil {
		t.Fatalf("read status: %v", err)
	}
	if !strings.HasPrefix(status, "HTTP/1.1 200") {
		t.Errorf("status line = %q, want the final 200 with the 100-Continue absorbed", status)
	}
}

func TestWorkerProxiesOneRequest(t *testing.T) {
	addr := startEchoBackend(t)
	pool := backend.NewPool([]*backend.Target{{Name: "b1", Address: addr, Weight: 1}})

	clientConn, workerConn := net.Pipe()
	defer clientConn.Close()

	cfg := DefaultConfig()
	cfg.Backends = pool
	cfg.MaxRequestsPerConn = 1

	w := New(workerConn, cfg)
	go w.Serve(context.Background())

	req := "GET /hello HTTP/1.1\r\nHost: example.com\r\n\r\n"
	if _, err := clientConn.Write([]byte(req)); err != nil {
		t.Fatalf("write request: %v", err)
	}

	clientConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	br := bufio.NewReader(clientConn)
	status, err := br.ReadString('\n')
	if err != nil {
		t.Fatalf("read status: %v", err)
	}
	if !strings.HasPrefix(status, "HTTP/1.1 200") {
		t.Errorf("status line = %q", status)
	}
}
