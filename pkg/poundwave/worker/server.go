package worker

import (
	"context"
	"crypto/tls"
	"net"
	"sync"
	"sync/atomic"
)

// Server accepts connections on a listener and hands each one to a Worker,
// bounding concurrency and tracking live connections for graceful shutdown.
type Server struct {
	cfg      Config
	listener net.Listener
	tls      *tls.Config

	shutdown atomic.Bool
	done     chan struct{}
	wg       sync.WaitGroup

	connSem chan struct{}

	mu    sync.Mutex
	conns map[net.Conn]struct{}
}

// NewServer builds a Server that will accept on l (wrapped with tlsConfig
// if non-nil, terminating TLS on the client-facing side) and relay each
// connection per cfg. maxConns bounds concurrent client connections; 0
// means unbounded.
func NewServer(l net.Listener, tlsConfig *tls.Config, cfg Config, maxConns int) *Server {
	s := &Server{
		cfg:      cfg,
		listener: l,
		tls:      tlsConfig,
		done:     make(chan struct{}),
		conns:    make(map[net.Conn]struct{}),
	}
	if maxConns > 0 {
		s.connSem = make(chan struct{}, maxConns)
	}
	return s
}

// Serve accepts connections until the listener closes or Shutdown is
// called.
func (s *Server) Serve(ctx context.Context) error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return nil
			default:
				return err
			}
		}

		if s.tls != nil {
			conn = tls.Server(conn, s.tls)
		}

		if s.connSem != nil {
			select {
			case s.connSem <- struct{}{}:
			case <-s.done:
				conn.Close()
				return nil
			}
		}

		s.track(conn)
		s.wg.Add(1)
		go s.handle(ctx, conn)
	}
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer s.wg.Done()
	defer s.untrack(conn)
	if s.connSem != nil {
		defer func() { <-s.connSem }()
	}

	if tconn, ok := conn.(*tls.Conn); ok {
		if err := tconn.Handshake(); err != nil {
			if s.cfg.Logger != nil {
				s.cfg.Logger.WithError(err).Warn("worker: TLS handshake failed")
			}
			conn.Close()
			return
		}
	}

	w := New(conn, s.cfg)
	w.Serve(ctx)
}

func (s *Server) track(conn net.Conn) {
	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	conn.Close()
}

// Shutdown stops accepting new connections and waits for in-flight workers
// to finish, or until ctx is done (at which point all tracked connections
// are force-closed).
func (s *Server) Shutdown(ctx context.Context) error {
	if !s.shutdown.CompareAndSwap(false, true) {
		return nil
	}
	s.listener.Close()
	close(s.done)

	finished := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		s.closeAll()
		return ctx.Err()
	}
}

func (s *Server) closeAll() {
	s.mu.Lock()
	conns := make([]net.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()
	for _, c := range conns {
		c.Close()
	}
}
