package request

import (
	"bytes"
	"encoding/base64"
	"io"
	"sync"
)

var requestPool = sync.Pool{
	New: func() interface{} { return &Request{ContentLength: -1} },
}

var tmpBufPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, 4096)
		return &buf
	},
}

// Parser parses one HTTP/1.x request at a time from a connection, reusing
// its internal buffer across requests on the same (keep-alive) connection.
type Parser struct {
	buf       []byte
	unreadBuf []byte
}

// NewParser returns a Parser ready to read requests from a connection.
func NewParser() *Parser {
	return &Parser{buf: make([]byte, 0, MaxRequestLineSize+MaxHeadersSize)}
}

// Parse reads and parses the request line and headers from r. The returned
// Request's Body is left nil; the worker pipeline wraps the remaining reader
// (returned as the second value) with the appropriate relay reader
// (length-framed, chunked, or none) once it knows which backend a request
// maps to.
func (p *Parser) Parse(r io.Reader) (*Request, io.Reader, error) {
	p.buf = p.buf[:0]

	var reader io.Reader
	if len(p.unreadBuf) > 0 {
		reader = io.MultiReader(bytes.NewReader(p.unreadBuf), r)
		p.unreadBuf = nil
	} else {
		reader = r
	}

	if err := p.readUntilHeadersEnd(reader); err != nil {
		return nil, nil, err
	}

	req := GetRequest()
	req.buf = p.buf

	pos, err := p.parseRequestLine(req, p.buf)
	if err != nil {
		PutRequest(req)
		return nil, nil, err
	}

	if err := p.parseHeaders(req, p.buf[pos:]); err != nil {
		PutRequest(req)
		return nil, nil, err
	}

	bodyReader := r
	if len(p.unreadBuf) > 0 {
		bodyReader = io.MultiReader(bytes.NewReader(p.unreadBuf), r)
		p.unreadBuf = nil
	}

	return req, bodyReader, nil
}

func (p *Parser) readUntilHeadersEnd(r io.Reader) error {
	tmpBufPtr := tmpBufPool.Get().(*[]byte)
	defer tmpBufPool.Put(tmpBufPtr)
	tmpBuf := *tmpBufPtr

	for {
		n, err := r.Read(tmpBuf)
		if err != nil && err != io.EOF {
			return err
		}

		p.buf = append(p.buf, tmpBuf[:n]...)

		if len(p.buf) >= 4 {
			searchStart := len(p.buf) - n - 3
			if searchStart < 0 {
				searchStart = 0
			}
			if idx := bytes.Index(p.buf[searchStart:], []byte("\r\n\r\n")); idx != -1 {
				actualIdx := searchStart + idx + 4
				if actualIdx < len(p.buf) {
					excess := len(p.buf) - actualIdx
					p.unreadBuf = make([]byte, excess)
					copy(p.unreadBuf, p.buf[actualIdx:])
				}
				p.buf = p.buf[:actualIdx]
				return nil
			}
		}

		if len(p.buf) > MaxRequestLineSize+MaxHeadersSize {
			return ErrHeadersTooLarge
		}

		if err == io.EOF {
			// A fresh idle connection closing with nothing read yet is a
			// normal keep-alive teardown; anything read but cut off
			// mid-request is a truncated request.
			if len(p.buf) == 0 {
				return ErrNoRequest
			}
			return ErrUnexpectedEOF
		}
	}
}

// parseRequestLine parses "METHOD SP Request-URI SP HTTP-Version CRLF".
// Both HTTP/1.0 and HTTP/1.1 are accepted: a reverse proxy must bridge both
// client generations onto whichever version the backend speaks.
func (p *Parser) parseRequestLine(req *Request, buf []byte) (int, error) {
	lineEnd := bytes.Index(buf, []byte("\r\n"))
	if lineEnd == -1 {
		return 0, ErrInvalidRequestLine
	}
	line := buf[:lineEnd]
	if len(line) > MaxRequestLineSize {
		return 0, ErrRequestLineTooLarge
	}

	spaceIdx := bytes.IndexByte(line, ' ')
	if spaceIdx == -1 {
		return 0, ErrInvalidRequestLine
	}
	methodBytes := line[:spaceIdx]
	req.MethodID = ParseMethodID(methodBytes)
	if req.MethodID == MethodUnknown {
		return 0, ErrInvalidMethod
	}
	req.methodBytes = methodBytes

	line = line[spaceIdx+1:]
	spaceIdx = bytes.IndexByte(line, ' ')
	if spaceIdx == -1 {
		return 0, ErrInvalidRequestLine
	}
	uriBytes := line[:spaceIdx]
	if len(uriBytes) > MaxURILength {
		return 0, ErrURITooLong
	}

	if queryIdx := bytes.IndexByte(uriBytes, '?'); queryIdx != -1 {
		req.pathBytes = uriBytes[:queryIdx]
		req.queryBytes = uriBytes[queryIdx+1:]
	} else {
		req.pathBytes = uriBytes
		req.queryBytes = nil
	}
	if len(req.pathBytes) == 0 || (req.pathBytes[0] != '/' && req.pathBytes[0] != '*') {
		return 0, ErrInvalidPath
	}

	proto := line[spaceIdx+1:]
	switch {
	case bytes.Equal(proto, http11Bytes):
		req.ProtoMajor, req.ProtoMinor = 1, 1
	case bytes.Equal(proto, http10Bytes):
		req.ProtoMajor, req.ProtoMinor = 1, 0
		req.Close = true // HTTP/1.0 defaults to close unless Connection: keep-alive says otherwise
	default:
		return 0, ErrInvalidProtocol
	}

	return lineEnd + 2, nil
}

// parseHeaders parses the header block. Framing-header conflicts are
// resolved first-wins: whichever of Content-Length/Transfer-Encoding is seen
// first wins, the later one is dropped from the header set rather than
// aborting the request. A repeated Transfer-Encoding:
// chunked after the first is likewise dropped.
func (p *Parser) parseHeaders(req *Request, buf []byte) error {
	pos := 0
	var chunkedSeen, contentLengthSeen, hostSeen bool

	for pos < len(buf) {
		if pos+1 < len(buf) && buf[pos] == '\r' && buf[pos+1] == '\n' {
			break
		}

		lineEnd := bytes.Index(buf[pos:], []byte("\r\n"))
		if lineEnd == -1 {
			return ErrInvalidHeader
		}
		lineEnd += pos
		line := buf[pos:lineEnd]

		colonIdx := bytes.IndexByte(line, ':')
		if colonIdx == -1 {
			return ErrInvalidHeader
		}
		if colonIdx > 0 && (line[colonIdx-1] == ' ' || line[colonIdx-1] == '\t') {
			return ErrInvalidHeader
		}

		name := line[:colonIdx]
		value := trimTrailingSpace(trimLeadingSpace(line[colonIdx+1:]))
		if bytes.IndexByte(name, ' ') != -1 || bytes.IndexByte(name, '\t') != -1 {
			return ErrInvalidHeader
		}

		drop, err := p.processSpecialHeader(req, name, value, &chunkedSeen, &contentLengthSeen, &hostSeen)
		if err != nil {
			return err
		}
		if !drop {
			if err := req.Header.Add(name, value); err != nil {
				return err
			}
		}

		pos = lineEnd + 2
	}

	if hostSeen {
		req.Host = req.Header.GetString(headerHost)
	} else if req.ProtoMajor == 1 && req.ProtoMinor == 1 {
		return ErrMissingHost
	}

	return nil
}

// processSpecialHeader returns drop=true when the header must not be
// forwarded to the backend (duplicate/conflicting framing header).
func (p *Parser) processSpecialHeader(req *Request, name, value []byte, chunkedSeen, contentLengthSeen, hostSeen *bool) (bool, error) {
	switch {
	case equalFold(name, headerTransferEncoding):
		if *contentLengthSeen {
			return true, nil // Content-Length already chose the framing; drop this one
		}
		if equalFold(value, headerChunked) {
			if *chunkedSeen {
				return true, nil // duplicate chunked marker, drop
			}
			*chunkedSeen = true
			req.Chunked = true
		}
		return false, nil

	case equalFold(name, headerContentLength):
		if *chunkedSeen {
			return true, nil // chunked already chose the framing; drop this one
		}
		n, err := parseContentLength(value)
		if err != nil {
			return true, nil // malformed Content-Length: drop rather than reject
		}
		if *contentLengthSeen && req.ContentLength != n {
			return true, nil // conflicting duplicate, drop
		}
		*contentLengthSeen = true
		req.ContentLength = n
		return false, nil

	case equalFold(name, headerConnection):
		if equalFold(value, headerClose) {
			req.Close = true
		} else if equalFold(value, headerKeepAlive) {
			req.Close = false
		}
		return false, nil

	case equalFold(name, headerHost):
		if *hostSeen {
			return true, nil // duplicate Host, drop the repeat
		}
		*hostSeen = true
		return false, nil

	case equalFold(name, headerAuthorization):
		req.Username = basicAuthUsername(value)
		return false, nil

	default:
		return false, nil
	}
}

// basicAuthUsername extracts the username portion of a "Basic" Authorization
// header: base64-decode the payload and keep everything before the first
// colon. The password is discarded; it must never reach the access log.
func basicAuthUsername(value []byte) string {
	if len(value) <= len(basicAuthPrefix) || !equalFold(value[:len(basicAuthPrefix)], basicAuthPrefix) {
		return ""
	}
	decoded, err := base64.StdEncoding.DecodeString(string(value[len(basicAuthPrefix):]))
	if err != nil {
		return ""
	}
	if idx := bytes.IndexByte(decoded, ':'); idx != -1 {
		return string(decoded[:idx])
	}
	return ""
}

func parseContentLength(b []byte) (int64, error) {
	if len(b) == 0 {
		return -1, ErrInvalidContentLength
	}
	var n int64
	for _, c := range b {
		if c < '0' || c > '9' {
			return -1, ErrInvalidContentLength
		}
		n = n*10 + int64(c-'0')
		if n < 0 {
			return -1, ErrInvalidContentLength
		}
	}
	return n, nil
}

func trimLeadingSpace(b []byte) []byte {
	for len(b) > 0 && (b[0] == ' ' || b[0] == '\t') {
		b = b[1:]
	}
	return b
}

func trimTrailingSpace(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == ' ' || b[len(b)-1] == '\t') {
		b = b[:len(b)-1]
	}
	return b
}

func equalFold(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		ca, cb := a[i], b[i]
		if ca >= 'A' && ca <= 'Z' {
			ca += 32
		}
		if cb >= 'A' && cb <= 'Z' {
			cb += 32
		}
		if ca != cb {
			return false
		}
	}
	return true
}
