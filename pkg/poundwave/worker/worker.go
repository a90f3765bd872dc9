package worker

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"time"

	"github.com/yourusername/poundwave/pkg/poundwave/accesslog"
	"github.com/yourusername/poundwave/pkg/poundwave/backend"
	"github.com/yourusername/poundwave/pkg/poundwave/header"
	"github.com/yourusername/poundwave/pkg/poundwave/relay"
	"github.com/yourusername/poundwave/pkg/poundwave/request"
	"github.com/yourusername/poundwave/pkg/poundwave/response"
	"github.com/yourusername/poundwave/pkg/poundwave/tlsterm"
	"github.com/yourusername/poundwave/pkg/poundwave/wire"
)

var headerConnection = []byte("Connection")

// Worker serves one accepted client connection for its lifetime, relaying
// requests to backends one at a time.
type Worker struct {
	cfg    Config
	client *wire.Channel
	parser *request.Parser
	log    *accesslog.Logger

	requestCount int
}

// New wraps an accepted client connection, ready to Serve.
func New(conn net.Conn, cfg Config) *Worker {
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = backend.Tune(tc, cfg.ClientTuning)
	}
	return &Worker{
		cfg:    cfg,
		client: wire.NewChannel(conn, cfg.ClientIdleTimeout),
		parser: request.NewParser(),
		log:    accesslog.New(cfg.AccessLogLevel, cfg.Logger),
	}
}

// Serve processes requests on the client connection until the connection
// closes or a non-continuable condition is reached (protocol error, client
// or backend requested close, all backends down).
func (w *Worker) Serve(ctx context.Context) {
	defer w.client.Close()

	for {
		if w.cfg.MaxRequestsPerConn > 0 && w.requestCount >= w.cfg.MaxRequestsPerConn {
			return
		}

		cont, err := w.serveOne(ctx)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, request.ErrNoRequest) {
				w.logError("request", err)
			}
			return
		}
		if !cont {
			return
		}
	}
}

// serveOne parses, relays, and logs a single request/response exchange. The
// returned bool reports whether the client connection can be reused for a
// further request.
func (w *Worker) serveOne(ctx context.Context) (bool, error) {
	start := time.Now()

	req, bodyReader, err := w.parser.Parse(w.client.Reader())
	if err != nil {
		if status, ok := statusForParseError(err); ok {
			w.writeError(status)
		}
		return false, err
	}
	defer request.PutRequest(req)
	w.requestCount++

	if w.cfg.MaxRequestBytes > 0 && req.ContentLength > w.cfg.MaxRequestBytes {
		w.writeError(501)
		w.log.Log(accesslog.Entry{
			ClientAddr: w.client.Conn().RemoteAddr().String(),
			Method:     request.MethodString(req.MethodID),
			URL:        req.Path(),
			Proto:      protoString(req.ProtoMajor, req.ProtoMinor),
			Status:     501,
			Duration:   time.Since(start),
		})
		return false, nil
	}

	if tconn, ok := w.client.Conn().(*tls.Conn); ok {
		tlsterm.InjectSSLHeaders(&req.Header, tconn.ConnectionState())
	}

	if w.cfg.Redirector != nil {
		return w.serveRedirect(req, start)
	}

	return w.serveProxied(ctx, req, bodyReader, start)
}

// serveRedirect answers the request directly with a 302, never touching a
// backend (Pound's Redirect service type).
func (w *Worker) serveRedirect(req *request.Request, start time.Time) (bool, error) {
	path := req.Path()
	if q := req.Query(); len(q) > 0 {
		path = path + "?" + q
	}
	if err := w.cfg.Redirector.Reply(w.client, path); err != nil {
		return false, err
	}

	w.log.Log(accesslog.Entry{
		ClientAddr: w.client.Conn().RemoteAddr().String(),
		Method:     request.MethodString(req.MethodID),
		URL:        path,
		Proto:      protoString(req.ProtoMajor, req.ProtoMinor),
		Status:     302,
		Duration:   time.Since(start),
	})

	return !req.Close, nil
}

// serveProxied selects a backend, relays the request to it, relays the
// response back to the client, and logs the exchange.
func (w *Worker) serveProxied(ctx context.Context, req *request.Request, bodyReader io.Reader, start time.Time) (bool, error) {
	sess, err := w.cfg.Backends.Dial(ctx)
	if err != nil {
		w.writeError(503)
		w.log.Log(accesslog.Entry{
			ClientAddr: w.client.Conn().RemoteAddr().String(),
			Method:     request.MethodString(req.MethodID),
			URL:        req.Path(),
			Proto:      protoString(req.ProtoMajor, req.ProtoMinor),
			Status:     503,
			Duration:   time.Since(start),
		})
		return false, nil
	}

	reusable := false
	defer func() { w.cfg.Backends.Release(sess, reusable) }()

	be := sess.Channel()

	_, viaTLS := w.client.Conn().(*tls.Conn)
	backendTLS := sess.Target().TLS != nil
	clientIP := clientIPOf(w.client.Conn().RemoteAddr())

	if err := w.writeRequestHead(be, req, clientIP, viaTLS, backendTLS, sess.Target().Address); err != nil {
		return false, err
	}
	if err := relayRequestBody(be, req, bodyReader); err != nil {
		return false, err
	}

	respReader := response.NewReader()
	var resp *response.Response
	var respBody io.Reader
	var respSrc io.Reader = be.Reader()
	for {
		resp, respBody, err = respReader.Read(respSrc)
		if err != nil {
			w.writeError(503)
			return false, err
		}
		if resp.StatusCode >= 100 && resp.StatusCode < 200 {
			// 1xx interim responses (notably 100-Continue) are absorbed,
			// never forwarded; the real final response is still to come,
			// starting with any bytes read past the interim head.
			response.PutResponse(resp)
			respSrc = respBody
			continue
		}
		break
	}
	defer response.PutResponse(resp)

	headRequest := req.MethodID == request.MethodHEAD
	w.stripHopByHop(&resp.Header)

	rw := response.NewWriter(w.client)
	rw.WriteHeader(resp.StatusCode)
	resp.Header.VisitAll(func(name, value []byte) bool {
		if w.cfg.RewriteLocation && req.Host != "" {
			switch header.Classify(name) {
			case header.RoleLocation, header.RoleContentLocation:
				value = rewriteLocationHost(value, req.Host, viaTLS)
			}
		}
		rw.Header().Add(name, value)
		return true
	})
	if err := rw.Flush(); err != nil {
		return false, err
	}

	if resp.HasBody(headRequest) {
		if err := relayResponseBody(rw, resp, respBody); err != nil {
			return false, err
		}
	}

	sess.MarkUsed()

	// A body framed only by the backend closing (legacy mode) ends
	// keep-alive on both sides.
	legacyBody := resp.HasBody(headRequest) && !resp.Chunked && resp.ContentLength < 0

	backendIs11 := resp.IsHTTP11()
	reusable = backendIs11 && !resp.Close && !legacyBody

	w.log.Log(accesslog.Entry{
		ClientAddr: w.client.Conn().RemoteAddr().String(),
		Method:     request.MethodString(req.MethodID),
		URL:        req.Path(),
		Proto:      protoString(req.ProtoMajor, req.ProtoMinor),
		Status:     resp.StatusCode,
		BytesSent:  rw.BytesWritten(),
		Duration:   time.Since(start),
		VHost:      req.Host,
		Username:   req.Username,
		Referer:    req.Header.GetString([]byte("Referer")),
		UserAgent:  req.Header.GetString([]byte("User-Agent")),
		BackendStr: sess.Target().Address,
	})

	clientIs11 := req.ProtoMajor == 1 && req.ProtoMinor == 1
	canContinue := clientIs11 && backendIs11 && !req.Close && !resp.Close && !legacyBody
	return canContinue, nil
}

func (w *Worker) stripHopByHop(h interface{ Del([]byte) }) {
	for _, name := range [][]byte{headerConnection, []byte("Keep-Alive"), []byte("Proxy-Authenticate"),
		[]byte("Proxy-Authorization"), []byte("TE"), []byte("Trailer"), []byte("Upgrade")} {
		h.Del(name)
	}
}

// writeRequestHead writes the request line and headers to the backend
// connection, applying the listener's header-removal regexes, the
// Destination-header rewrite, the X-Forwarded-For chain, and the optional
// static HTTPSHeader line.
func (w *Worker) writeRequestHead(dst io.Writer, req *request.Request, clientIP string, viaTLS, backendTLS bool, backendAddr string) error {
	line := fmt.Sprintf("%s %s HTTP/1.1\r\n", req.Method(), req.Path())
	if q := req.Query(); len(q) > 0 {
		line = fmt.Sprintf("%s %s?%s HTTP/1.1\r\n", req.Method(), req.Path(), q)
	}
	if _, err := io.WriteString(dst, line); err != nil {
		return err
	}

	var forwardedFor string
	var werr error
	req.Header.VisitAll(func(name, value []byte) bool {
		if w.headerRemoved(name) {
			return true
		}

		switch header.Classify(name) {
		case header.RoleXForwardedFor:
			forwardedFor = string(value) + ", " + clientIP
			return true
		case header.RoleDestination:
			if w.cfg.RewriteDestination {
				value = rewriteDestinationHost(value, backendAddr)
			}
		}

		if _, werr = dst.Write(name); werr != nil {
			return false
		}
		if _, werr = io.WriteString(dst, ": "); werr != nil {
			return false
		}
		if _, werr = dst.Write(value); werr != nil {
			return false
		}
		if _, werr = io.WriteString(dst, "\r\n"); werr != nil {
			return false
		}
		return true
	})
	if werr != nil {
		return werr
	}

	if forwardedFor == "" {
		forwardedFor = clientIP
	}
	if _, err := fmt.Fprintf(dst, "X-Forwarded-For: %s\r\n", forwardedFor); err != nil {
		return err
	}

	if viaTLS && !backendTLS && w.cfg.HTTPSHeader != "" {
		if _, err := fmt.Fprintf(dst, "%s\r\n", w.cfg.HTTPSHeader); err != nil {
			return err
		}
	}

	_, err := io.WriteString(dst, "\r\n")
	return err
}

// headerRemoved reports whether name matches one of the listener's
// head_off regexes and must be dropped rather than forwarded.
func (w *Worker) headerRemoved(name []byte) bool {
	if len(w.cfg.HeaderRemove) == 0 {
		return false
	}
	s := string(name)
	for _, re := range w.cfg.HeaderRemove {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// rewriteDestinationHost replaces the host component of a WebDAV
// Destination header with the selected backend's address, keeping the
// scheme and path the client sent.
func rewriteDestinationHost(value []byte, backendAddr string) []byte {
	u, err := url.Parse(string(value))
	if err != nil || u.Host == "" {
		return value
	}
	u.Host = backendAddr
	return []byte(u.String())
}

// rewriteLocationHost rewrites a backend's Location/Content-Location to
// point at the client-facing vhost, using https if the client connected
// over TLS and http otherwise. Relative references (no host) are left
// untouched.
func rewriteLocationHost(value []byte, vhost string, viaTLS bool) []byte {
	u, err := url.Parse(string(value))
	if err != nil || u.Host == "" {
		return value
	}
	u.Host = vhost
	if viaTLS {
		u.Scheme = "https"
	} else {
		u.Scheme = "http"
	}
	return []byte(u.String())
}

// clientIPOf returns the host portion of addr, or its full string if it
// carries no separate port (e.g. a unix socket).
func clientIPOf(addr net.Addr) string {
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}

func relayRequestBody(dst io.Writer, req *request.Request, body io.Reader) error {
	switch {
	case req.Chunked:
		_, err := relay.CopyChunked(dst, body)
		return err
	case req.ContentLength > 0:
		_, err := relay.CopyBin(dst, body, req.ContentLength)
		return err
	default:
		return nil
	}
}

func relayResponseBody(dst io.Writer, resp *response.Response, body io.Reader) error {
	switch {
	case resp.Chunked:
		_, err := relay.CopyChunked(dst, body)
		return err
	case resp.ContentLength >= 0:
		_, err := relay.CopyBin(dst, body, resp.ContentLength)
		return err
	default:
		// Legacy mode: no framing declared, read until the backend closes
		// (Pound's fallback for an HTTP/1.0 response with neither
		// Content-Length nor chunked encoding).
		_, err := relay.CopyUntilEOF(dst, body)
		return err
	}
}

func protoString(major, minor int) string {
	return fmt.Sprintf("HTTP/%d.%d", major, minor)
}

// statusForParseError maps a request-parse failure to the synthetic status
// it must produce, or ok=false when the connection should simply be closed
// without a reply (a fresh idle connection going away is not an error).
func statusForParseError(err error) (status int, ok bool) {
	switch {
	case errors.Is(err, request.ErrNoRequest):
		return 0, false
	case errors.Is(err, request.ErrRequestLineTooLarge), errors.Is(err, request.ErrURITooLong):
		return 414, true
	case errors.Is(err, request.ErrUnexpectedEOF), errors.Is(err, request.ErrHeadersTooLarge):
		return 500, true
	case errors.Is(err, request.ErrInvalidRequestLine), errors.Is(err, request.ErrInvalidMethod),
		errors.Is(err, request.ErrInvalidPath), errors.Is(err, request.ErrInvalidProtocol),
		errors.Is(err, request.ErrInvalidHeader), errors.Is(err, request.ErrInvalidContentLength),
		errors.Is(err, request.ErrMissingHost), errors.Is(err, request.ErrDuplicateHost):
		return 501, true
	default:
		return 500, true
	}
}

// writeError answers the client directly with a synthetic reply: the
// listener's configured body for status if one was set, otherwise a
// minimal generated page.
func (w *Worker) writeError(status int) {
	body := w.cfg.ErrorPages[status]
	if err := response.WriteSynthetic(w.client, status, body); err != nil {
		w.logError("synthetic-reply", err)
	}
}

func (w *Worker) logError(stage string, err error) {
	if w.cfg.Logger != nil {
		w.cfg.Logger.WithField("stage", stage).WithError(err).Warn("worker: request failed")
	}
}
