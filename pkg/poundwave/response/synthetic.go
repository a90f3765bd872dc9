package response

import (
	"fmt"
	"io"
)

// WriteSynthetic writes a proxy-originated reply that never came from a
// backend: always HTTP/1.0, always text/html with a Content-Length, and
// always Connection: close, regardless of whatever framing state the
// request that triggered it was in. Used for the fixed set of statuses the
// worker answers directly (414/500/501/503); body, if empty, falls back to
// a minimal generated page.
func WriteSynthetic(w io.Writer, status int, body string) error {
	if body == "" {
		body = fmt.Sprintf(
			"<html><head><title>%d %s</title></head><body><h1>%s</h1></body></html>",
			status, StatusText(status), StatusText(status),
		)
	}

	head := fmt.Sprintf(
		"HTTP/1.0 %d %s\r\nContent-Type: text/html\r\nContent-Length: %d\r\nConnection: close\r\n\r\n",
		status, StatusText(status), len(body),
	)
	if _, err := io.WriteString(w, head); err != nil {
		return err
	}
	_, err := io.WriteString(w, body)
	return err
}
