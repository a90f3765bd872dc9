// Package request parses and classifies an HTTP/1.x request line and header
// block read from a client connection, producing the data the worker
// pipeline needs to pick a backend and decide how to relay the body.
package request

import (
	"io"

	"github.com/yourusername/poundwave/pkg/poundwave/header"
)

// Request is a single parsed HTTP/1.x request. It is pooled: callers get one
// from GetRequest and must return it with PutRequest once the body has been
// fully relayed.
type Request struct {
	MethodID uint8

	methodBytes []byte
	pathBytes   []byte
	queryBytes  []byte

	Header header.Header

	// Body is left nil by Parse, and the worker does not set it either: it
	// relays the body straight from the reader Parse returns, using the
	// relay package's length-framed or chunked copy.
	Body io.Reader

	ProtoMajor int
	ProtoMinor int

	ContentLength int64 // -1 if unknown/absent, >=0 if specified
	Chunked       bool

	// Close reports whether this connection must be closed after the
	// response: an explicit "Connection: close", or HTTP/1.0 without
	// "Connection: keep-alive".
	Close bool

	Host string

	// Username is the Basic-auth username, if the Authorization header
	// carried one; empty otherwise. The password is never retained.
	Username string

	RemoteAddr string

	buf []byte
}

// GetRequest returns a zeroed Request from a sync.Pool.
func GetRequest() *Request {
	return requestPool.Get().(*Request)
}

// PutRequest returns req to the pool.
func PutRequest(req *Request) {
	req.Reset()
	requestPool.Put(req)
}

func (r *Request) Method() string { return MethodString(r.MethodID) }

func (r *Request) Path() string { return string(r.pathBytes) }

func (r *Request) PathBytes() []byte { return r.pathBytes }

func (r *Request) Query() string { return string(r.queryBytes) }

// IsHTTP11 reports whether the request line declared HTTP/1.1.
func (r *Request) IsHTTP11() bool { return r.ProtoMajor == 1 && r.ProtoMinor == 1 }

// HasBody reports whether a request body is expected.
func (r *Request) HasBody() bool { return r.ContentLength > 0 || r.Chunked }

// Reset clears the request for reuse from the pool.
func (r *Request) Reset() {
	r.MethodID = 0
	r.methodBytes = nil
	r.pathBytes = nil
	r.queryBytes = nil
	r.Header.Reset()
	r.Body = nil
	r.ProtoMajor = 0
	r.ProtoMinor = 0
	r.ContentLength = -1
	r.Chunked = false
	r.Close = false
	r.Host = ""
	r.Username = ""
	r.RemoteAddr = ""
	r.buf = nil
}
