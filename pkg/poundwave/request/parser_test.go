package request

import (
	"strings"
	"testing"
)

func TestParseRequestLineHTTP11(t *testing.T) {
	p := NewParser()
	raw := "GET /hello?x=1 HTTP/1.1\r\nHost: example.com\r\n\r\n"
	req, _, err := p.Parse(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	defer PutRequest(req)

	if req.Method() != "GET" {
		t.Errorf("Method = %q, want GET", req.Method())
	}
	if req.Path() != "/hello" {
		t.Errorf("Path = %q, want /hello", req.Path())
	}
	if req.Query() != "x=1" {
		t.Errorf("Query = %q, want x=1", req.Query())
	}
	if !req.IsHTTP11() {
		t.Errorf("IsHTTP11 = false, want true")
	}
	if req.Host != "example.com" {
		t.Errorf("Host = %q, want example.com", req.Host)
	}
}

func TestParseRequestLineHTTP10DefaultsClose(t *testing.T) {
	p := NewParser()
	raw := "GET / HTTP/1.0\r\nHost: example.com\r\n\r\n"
	req, _, err := p.Parse(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	defer PutRequest(req)

	if !req.Close {
		t.Errorf("Close = false, want true for bare HTTP/1.0")
	}
}

func TestParseRequestLineHTTP10KeepAlive(t *testing.T) {
	p := NewParser()
	raw := "GET / HTTP/1.0\r\nHost: example.com\r\nConnection: keep-alive\r\n\r\n"
	req, _, err := p.Parse(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	defer PutRequest(req)

	if req.Close {
		t.Errorf("Close = true, want false when Connection: keep-alive present")
	}
}

func TestMissingHostRejectedOnHTTP11(t *testing.T) {
	p := NewParser()
	raw := "GET / HTTP/1.1\r\n\r\n"
	_, _, err := p.Parse(strings.NewReader(raw))
	if err != ErrMissingHost {
		t.Fatalf("err = %v, want ErrMissingHost", err)
	}
}

func TestConflictingContentLengthTransferEncodingDropsLoser(t *testing.T) {
	p := NewParser()
	raw := "POST / HTTP/1.1\r\nHost: example.com\r\nContent-Length: 5\r\nTransfer-Encoding: chunked\r\n\r\nhello"
	req, _, err := p.Parse(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	defer PutRequest(req)

	if req.Chunked {
		t.Errorf("Chunked = true, want false: Content-Length arrived first and should win")
	}
	if req.ContentLength != 5 {
		t.Errorf("ContentLength = %d, want 5", req.ContentLength)
	}
	if req.Header.Has([]byte("Transfer-Encoding")) {
		t.Errorf("Transfer-Encoding header should have been dropped, not forwarded")
	}
}

func TestDuplicateConflictingContentLengthDropsLoser(t *testing.T) {
	p := NewParser()
	raw := "POST / HTTP/1.1\r\nHost: example.com\r\nContent-Length: 5\r\nContent-Length: 6\r\n\r\nhello"
	req, _, err := p.Parse(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	defer PutRequest(req)

	if req.ContentLength != 5 {
		t.Errorf("ContentLength = %d, want 5 (first value wins)", req.ContentLength)
	}
	if req.Header.Count([]byte("Content-Length")) != 1 {
		t.Errorf("Content-Length header count = %d, want 1 (conflicting duplicate dropped)", req.Header.Count([]byte("Content-Length")))
	}
}

func TestPathMustStartWithSlashOrStar(t *testing.T) {
	p := NewParser()
	raw := "GET bad HTTP/1.1\r\nHost: example.com\r\n\r\n"
	_, _, err := p.Parse(strings.NewReader(raw))
	if err != ErrInvalidPath {
		t.Fatalf("err = %v, want ErrInvalidPath", err)
	}
}

func TestBasicAuthUsernameExtracted(t *testing.T) {
	p := NewParser()
	// base64("alice:secret") == "YWxpY2U6c2VjcmV0"
	raw := "GET / HTTP/1.1\r\nHost: example.com\r\nAuthorization: Basic YWxpY2U6c2VjcmV0\r\n\r\n"
	req, _, err := p.Parse(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	defer PutRequest(req)

	if req.Username != "alice" {
		t.Errorf("Username = %q, want alice", req.Username)
	}
}

func TestBasicAuthMalformedLeavesUsernameEmpty(t *testing.T) {
	p := NewParser()
	raw := "GET / HTTP/1.1\r\nHost: example.com\r\nAuthorization: Basic not-base64!!\r\n\r\n"
	req, _, err := p.Parse(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	defer PutRequest(req)

	if req.Username != "" {
		t.Errorf("Username = %q, want empty for malformed Authorization", req.Username)
	}
}

func TestFreshIdleEOFReturnsErrNoRequest(t *testing.T) {
	p := NewParser()
	_, _, err := p.Parse(strings.NewReader(""))
	if err != ErrNoRequest {
		t.Fatalf("err = %v, want ErrNoRequest for an immediate EOF", err)
	}
}

func TestTruncatedMidHeaderReturnsErrUnexpectedEOF(t *testing.T) {
	p := NewParser()
	raw := "GET / HTTP/1.1\r\nHost: example.com\r\nX-Partial:"
	_, _, err := p.Parse(strings.NewReader(raw))
	if err != ErrUnexpectedEOF {
		t.Fatalf("err = %v, want ErrUnexpectedEOF for a request cut off mid-header", err)
	}
}
