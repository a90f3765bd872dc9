package response

import (
	"io"

	"github.com/yourusername/poundwave/pkg/poundwave/header"
)

// Writer writes an HTTP status line and headers to a client connection.
// This proxy forwards backend bytes; it doesn't originate application
// responses, so only the status-line/header surface is kept.
type Writer struct {
	w io.Writer

	status        int
	header        header.Header
	statusWritten bool
	headerWritten bool
	bytesWritten  int64
}

// NewWriter creates a Writer for w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, status: 200}
}

// Header returns the header set to populate before WriteHeader/Write.
func (rw *Writer) Header() *header.Header {
	return &rw.header
}

// WriteHeader sets the status code for the eventual status line. Only the
// first call takes effect.
func (rw *Writer) WriteHeader(statusCode int) {
	if rw.statusWritten {
		return
	}
	rw.status = statusCode
	rw.statusWritten = true
}

// Flush writes the status line and headers if not already written.
func (rw *Writer) Flush() error {
	if rw.headerWritten {
		return nil
	}
	rw.headerWritten = true

	if _, err := rw.w.Write(getStatusLine(rw.status)); err != nil {
		return err
	}

	var werr error
	rw.header.VisitAll(func(name, value []byte) bool {
		if _, werr = rw.w.Write(name); werr != nil {
			return false
		}
		if _, werr = rw.w.Write(colonSpace); werr != nil {
			return false
		}
		if _, werr = rw.w.Write(value); werr != nil {
			return false
		}
		if _, werr = rw.w.Write(crlfBytes); werr != nil {
			return false
		}
		return true
	})
	if werr != nil {
		return werr
	}

	_, err := rw.w.Write(crlfBytes)
	return err
}

// Write flushes the header block (implicitly WriteHeader(200) if not yet
// set) and writes body bytes directly to the underlying writer.
func (rw *Writer) Write(p []byte) (int, error) {
	if !rw.headerWritten {
		if err := rw.Flush(); err != nil {
			return 0, err
		}
	}
	n, err := rw.w.Write(p)
	rw.bytesWritten += int64(n)
	return n, err
}

// Status returns the status code set via WriteHeader (200 if unset).
func (rw *Writer) Status() int {
	return rw.status
}

// BytesWritten returns the number of body bytes written so far.
func (rw *Writer) BytesWritten() int64 {
	return rw.bytesWritten
}

// Reset prepares rw for reuse against a new writer.
func (rw *Writer) Reset(w io.Writer) {
	rw.w = w
	rw.status = 200
	rw.header.Reset()
	rw.statusWritten = false
	rw.headerWritten = false
	rw.bytesWritten = 0
}
