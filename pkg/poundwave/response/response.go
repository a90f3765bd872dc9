// Package response parses backend status lines/headers and writes status
// lines/headers back to the client.
package response

import (
	"sync"

	"github.com/yourusername/poundwave/pkg/poundwave/header"
)

// Response holds a parsed backend status line and headers. Body is left for
// the worker pipeline to wrap with the appropriate relay reader, mirroring
// request.Request.
type Response struct {
	StatusCode int
	Reason     []byte

	ProtoMajor int
	ProtoMinor int

	Header header.Header

	ContentLength int64 // -1 when unknown (backend closes to signal EOF)
	Chunked       bool
	Close         bool

	buf []byte
}

var responsePool = sync.Pool{
	New: func() interface{} { return &Response{ContentLength: -1} },
}

// GetResponse returns a pooled, zeroed Response.
func GetResponse() *Response {
	return responsePool.Get().(*Response)
}

// PutResponse returns r to the pool after Reset.
func PutResponse(r *Response) {
	r.Reset()
	responsePool.Put(r)
}

// Reset clears r for reuse.
func (r *Response) Reset() {
	r.StatusCode = 0
	r.Reason = nil
	r.ProtoMajor = 0
	r.ProtoMinor = 0
	r.Header.Reset()
	r.ContentLength = -1
	r.Chunked = false
	r.Close = false
	r.buf = r.buf[:0]
}

// IsHTTP11 reports whether the backend replied with HTTP/1.1.
func (r *Response) IsHTTP11() bool {
	return r.ProtoMajor == 1 && r.ProtoMinor == 1
}

// HasBody reports whether this status code/method combination carries an
// entity body per RFC 7230 §3.3.3 (1xx, 204, and 304 never do).
func (r *Response) HasBody(headRequest bool) bool {
	if headRequest {
		return false
	}
	if r.StatusCode >= 100 && r.StatusCode < 200 {
		return false
	}
	return r.StatusCode != 204 && r.StatusCode != 304
}
