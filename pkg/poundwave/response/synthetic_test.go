package response

import (
	"bytes"
	"strconv"
	"strings"
	"testing"
)

func TestWriteSyntheticDefaultBody(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSynthetic(&buf, 503, ""); err != nil {
		t.Fatalf("WriteSynthetic: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "HTTP/1.0 503 Service Unavailable\r\n") {
		t.Errorf("missing HTTP/1.0 status line: %q", out)
	}
	if !strings.Contains(out, "Content-Type: text/html\r\n") {
		t.Errorf("missing Content-Type: %q", out)
	}
	if !strings.Contains(out, "Connection: close\r\n") {
		t.Errorf("missing Connection: close: %q", out)
	}

	idx := strings.Index(out, "\r\n\r\n")
	if idx == -1 {
		t.Fatalf("no header/body separator in %q", out)
	}
	body := out[idx+4:]
	if !strings.Contains(out, "Content-Length: "+strconv.Itoa(len(body))) {
		t.Errorf("Content-Length doesn't match body length %d: %q", len(body), out)
	}
}

func TestWriteSyntheticCustomBody(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSynthetic(&buf, 501, "<html>custom</html>"); err != nil {
		t.Fatalf("WriteSynthetic: %v", err)
	}
	out := buf.String()
	if !strings.HasSuffix(out, "<html>custom</html>") {
		t.Errorf("expected configured body, got %q", out)
	}
	if !strings.Contains(out, "Content-Length: 19\r\n") {
		t.Errorf("unexpected Content-Length: %q", out)
	}
}

