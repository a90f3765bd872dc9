// Package relay moves an HTTP/1.x body between a client and backend
// connection under one of three framings: length-delimited (Pound's
// copy_bin), chunked (copy_chunks), or legacy read-until-EOF for HTTP/1.0
// responses that declare neither.
package relay

import (
	"bufio"
	"errors"
	"io"

	"github.com/valyala/bytebufferpool"
)

// ErrShortWrite is returned by CopyBin when the destination accepted fewer
// bytes than were read from the source, mirroring copy_bin's BIO_write
// short-write check.
var ErrShortWrite = errors.New("relay: short write to destination")

// CopyBin relays exactly n bytes from src to dst, length-framed
// (Content-Length-bounded bodies). It reads in MAXBUF-sized chunks from a
// pooled buffer, matching copy_bin's fixed-size-buffer loop.
func CopyBin(dst io.Writer, src io.Reader, n int64) (int64, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	buf.Set(make([]byte, bufSize(n)))
	raw := buf.B

	var written int64
	for n > 0 {
		chunk := raw
		if int64(len(chunk)) > n {
			chunk = chunk[:n]
		}
		nr, err := src.Read(chunk)
		if nr > 0 {
			nw, werr := dst.Write(chunk[:nr])
			written += int64(nw)
			n -= int64(nr)
			if werr != nil {
				return written, werr
			}
			if nw != nr {
				return written, ErrShortWrite
			}
		}
		if err != nil {
			if err == io.EOF {
				return written, io.ErrUnexpectedEOF
			}
			return written, err
		}
	}
	return written, nil
}

func bufSize(n int64) int {
	const maxBuf = 16 * 1024
	if n <= 0 || n > maxBuf {
		return maxBuf
	}
	return int(n)
}

// CopyChunked decodes a chunked body from src and re-encodes it onto dst
// chunk-by-chunk, preserving the chunk boundaries the sender used (Pound
// re-emits each "%x\r\n"-framed chunk it reads rather than collapsing the
// body into one chunk, so a slow/streaming backend's framing survives the
// hop). Trailers, if any, are forwarded after the zero-length final chunk.
func CopyChunked(dst io.Writer, src io.Reader) (int64, error) {
	br, ok := src.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(src)
	}

	var written int64
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	buf.Set(make([]byte, 16*1024))
	scratch := buf.B

	for {
		size, ext, err := readChunkSizeLine(br)
		if err != nil {
			return written, err
		}
		if _, werr := io.WriteString(dst, formatChunkHeader(size, ext)); werr != nil {
			return written, werr
		}
		if size == 0 {
			break
		}

		remaining := size
		for remaining > 0 {
			chunk := scratch
			if uint64(len(chunk)) > remaining {
				chunk = chunk[:remaining]
			}
			nr, rerr := br.Read(chunk)
			if nr > 0 {
				nw, werr := dst.Write(chunk[:nr])
				written += int64(nw)
				remaining -= uint64(nr)
				if werr != nil {
					return written, werr
				}
			}
			if rerr != nil {
				if rerr == io.EOF {
					return written, io.ErrUnexpectedEOF
				}
				return written, rerr
			}
		}

		if err := expectCRLF(br); err != nil {
			return written, err
		}
		if _, werr := io.WriteString(dst, "\r\n"); werr != nil {
			return written, werr
		}
	}

	for {
		line, err := br.ReadString('\n')
		if err != nil {
			return written, err
		}
		if _, werr := io.WriteString(dst, line); werr != nil {
			return written, werr
		}
		if line == "\r\n" || line == "\n" {
			break
		}
	}

	return written, nil
}

// CopyUntilEOF drains src into dst with no framing at all: the legacy mode
// for an HTTP/1.0 (or otherwise length-less) response, read from src until
// the backend closes. The worker passes the same buffered reader chain the
// response head was parsed from.
func CopyUntilEOF(dst io.Writer, src io.Reader) (int64, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	buf.Set(make([]byte, 16*1024))
	return io.CopyBuffer(dst, src, buf.B)
}
