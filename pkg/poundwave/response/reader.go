package response

import (
	"bytes"
	"io"
	"sync"
)

var tmpBufPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, 4096)
		return &buf
	},
}

var (
	headerContentLength    = []byte("Content-Length")
	headerTransferEncoding = []byte("Transfer-Encoding")
	headerConnection       = []byte("Connection")
	headerChunked          = []byte("chunked")
	headerClose            = []byte("close")
	headerKeepAlive        = []byte("keep-alive")
)

// Reader parses backend status lines and headers, reusing its internal
// buffer across responses on the same backend connection, mirroring
// request.Parser on the other side of the proxy.
type Reader struct {
	buf       []byte
	unreadBuf []byte
}

// NewReader returns a Reader ready to read responses from a backend
// connection.
func NewReader() *Reader {
	return &Reader{buf: make([]byte, 0, MaxStatusLineSize+MaxHeadersSize)}
}

// Read parses the status line and headers from r, returning the parsed
// Response and the remaining reader positioned at the start of the body.
func (p *Reader) Read(r io.Reader) (*Response, io.Reader, error) {
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

	resp := GetResponse()
	resp.buf = p.buf

	pos, err := p.parseStatusLine(resp, p.buf)
	if err != nil {
		PutResponse(resp)
		return nil, nil, err
	}

	if err := p.parseHeaders(resp, p.buf[pos:]); err != nil {
		PutResponse(resp)
		return nil, nil, err
	}

	bodyReader := r
	if len(p.unreadBuf) > 0 {
		bodyReader = io.MultiReader(bytes.NewReader(p.unreadBuf), r)
		p.unreadBuf = nil
	}

	return resp, bodyReader, nil
}

func (p *Reader) readUntilHeadersEnd(r io.Reader) error {
	tmpBufPtr := tmpBufPool.Get().(*[]byte)
	defer tmpBufPool.Put(tmpBufPtr)
	tmpBuf := *tmpBufPtr

	for {
		n, err := r.Read(tmpBuf)
		if err != nil && err != io.EOF {
			return err
		}
		if n == 0 && err == io.EOF {
			return ErrUnexpectedEOF
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

		if len(p.buf) > MaxStatusLineSize+MaxHeadersSize {
			return ErrHeadersTooLarge
		}

		if err == io.EOF {
			return ErrUnexpectedEOF
		}
	}
}

// parseStatusLine parses "HTTP-Version SP Status-Code SP Reason-Phrase CRLF".
func (p *Reader) parseStatusLine(resp *Response, buf []byte) (int, error) {
	lineEnd := bytes.Index(buf, []byte("\r\n"))
	if lineEnd == -1 {
		return 0, ErrInvalidStatusLine
	}
	line := buf[:lineEnd]
	if len(line) > MaxStatusLineSize {
		return 0, ErrInvalidStatusLine
	}

	spaceIdx := bytes.IndexByte(line, ' ')
	if spaceIdx == -1 {
		return 0, ErrInvalidStatusLine
	}
	proto := line[:spaceIdx]
	switch {
	case bytes.Equal(proto, http11Bytes):
		resp.ProtoMajor, resp.ProtoMinor = 1, 1
	case bytes.Equal(proto, http10Bytes):
		resp.ProtoMajor, resp.ProtoMinor = 1, 0
		resp.Close = true
	default:
		return 0, ErrInvalidProtocol
	}

	line = line[spaceIdx+1:]
	spaceIdx = bytes.IndexByte(line, ' ')
	var codeBytes, reason []byte
	if spaceIdx == -1 {
		codeBytes = line
	} else {
		codeBytes = line[:spaceIdx]
		reason = line[spaceIdx+1:]
	}

	code, err := parseStatusCode(codeBytes)
	if err != nil {
		return 0, err
	}
	resp.StatusCode = code
	resp.Reason = reason

	return lineEnd + 2, nil
}

// parseHeaders applies the same first-wins/later-dropped framing-conflict
// resolution as request.Parser, since a smuggling-capable backend is just as
// dangerous as a smuggling-capable client.
func (p *Reader) parseHeaders(resp *Response, buf []byte) error {
	pos := 0
	var chunkedSeen, contentLengthSeen bool

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

		drop, err := p.processSpecialHeader(resp, name, value, &chunkedSeen, &contentLengthSeen)
		if err != nil {
			return err
		}
		if !drop {
			if err := resp.Header.Add(name, value); err != nil {
				return err
			}
		}

		pos = lineEnd + 2
	}

	return nil
}

func (p *Reader) processSpecialHeader(resp *Response, name, value []byte, chunkedSeen, contentLengthSeen *bool) (bool, error) {
	switch {
	case equalFold(name, headerTransferEncoding):
		if *contentLengthSeen {
			return true, nil
		}
		if equalFold(value, headerChunked) {
			if *chunkedSeen {
				return true, nil
			}
			*chunkedSeen = true
			resp.Chunked = true
		}
		return false, nil

	case equalFold(name, headerContentLength):
		if *chunkedSeen {
			return true, nil
		}
		n, err := parseContentLength(value)
		if err != nil {
			return true, nil
		}
		if *contentLengthSeen && resp.ContentLength != n {
			return true, nil
		}
		*contentLengthSeen = true
		resp.ContentLength = n
		return false, nil

	case equalFold(name, headerConnection):
		if equalFold(value, headerClose) {
			resp.Close = true
		} else if equalFold(value, headerKeepAlive) {
			resp.Close = false
		}
		return false, nil

	default:
		return false, nil
	}
}

func parseStatusCode(b []byte) (int, error) {
	if len(b) != 3 {
		return 0, ErrInvalidStatusCode
	}
	n := 0
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, ErrInvalidStatusCode
		}
		n = n*10 + int(c-'0')
	}
	return n, nil
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
