package response

import (
	"bytes"
	"strings"
	"testing"
)

func TestReaderParsesStatusLineAndHeaders(t *testing.T) {
	raw := "HTTP/1.1 200 OK\r\nContent-Length: 5\r\nServer: test\r\n\r\nhello"
	r := NewReader()
	resp, body, err := r.Read(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if resp.StatusCode != 200 || string(resp.Reason) != "OK" {
		t.Errorf("status = %d %q", resp.StatusCode, resp.Reason)
	}
	if !resp.IsHTTP11() {
		t.Error("expected HTTP/1.1")
	}
	if resp.ContentLength != 5 {
		t.Errorf("ContentLength = %d, want 5", resp.ContentLength)
	}
	buf := make([]byte, 5)
	if _, err := body.Read(buf); err != nil {
		t.Fatalf("body read: %v", err)
	}
	if string(buf) != "hello" {
		t.Errorf("body = %q", buf)
	}
}

func TestReaderDropsConflictingContentLength(t *testing.T) {
	raw := "HTTP/1.1 200 OK\r\nContent-Length: 5\r\nContent-Length: 10\r\n\r\nhello"
	r := NewReader()
	resp, _, err := r.Read(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if resp.ContentLength != 5 {
		t.Errorf("ContentLength = %d, want 5 (first wins)", resp.ContentLength)
	}
	if resp.Header.Count([]byte("Content-Length")) != 1 {
		t.Errorf("expected conflicting duplicate dropped, Count = %d", resp.Header.Count([]byte("Content-Length")))
	}
}

func TestReaderHTTP10DefaultsClose(t *testing.T) {
	raw := "HTTP/1.0 200 OK\r\n\r\n"
	r := NewReader()
	resp, _, err := r.Read(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !resp.Close {
		t.Error("expected HTTP/1.0 response to default Close=true")
	}
}

func TestWriterWritesStatusLineAndHeaders(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.Header().Set([]byte("Content-Type"), []byte("text/plain"))
	w.WriteHeader(404)
	if _, err := w.Write([]byte("nope")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "HTTP/1.1 404 Not Found\r\n") {
		t.Errorf("missing status line: %q", out)
	}
	if !strings.Contains(out, "Content-Type: text/plain\r\n") {
		t.Errorf("missing header: %q", out)
	}
	if !strings.HasSuffix(out, "nope") {
		t.Errorf("missing body: %q", out)
	}
	if w.BytesWritten() != 4 {
		t.Errorf("BytesWritten = %d, want 4", w.BytesWritten())
	}
}
