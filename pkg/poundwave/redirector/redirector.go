// Package redirector implements Pound's synthetic redirect backend: a
// "backend" that never opens a connection and always answers the client
// directly with a 302.
package redirector

import (
	"fmt"
	"io"
	"strings"
)

// Redirector is a backend that answers every request with a 302 to a
// fixed target, optionally appending the original request path.
type Redirector struct {
	// Target is the base URL to redirect to.
	Target string

	// AppendPath, when true, appends the client's original request path
	// (and query, if present) to Target rather than redirecting to
	// Target verbatim (Pound's need_requri flag).
	AppendPath bool
}

// Reply writes the redirect response for a request with the given path
// (including any "?query") to w.
func (r *Redirector) Reply(w io.Writer, requestPath string) error {
	url := r.Target
	if r.AppendPath {
		url = strings.TrimRight(r.Target, "/") + "/" + strings.TrimLeft(requestPath, "/")
	}

	body := fmt.Sprintf(
		"<html><head><title>Redirect</title></head><body><h1>Redirect</h1><p>You should go to <a href=\"%s\">%s</a></p></body></html>",
		url, url,
	)
	// HTTP/1.0 status line: a 302 (not the more semantically correct 307)
	// because some HTTP/1.0 clients never learned what 307 means.
	head := fmt.Sprintf(
		"HTTP/1.0 302 Found\r\nLocation: %s\r\nContent-Type: text/html\r\nContent-Length: %d\r\n\r\n",
		url, len(body),
	)

	if _, err := io.WriteString(w, head); err != nil {
		return err
	}
	_, err := io.WriteString(w, body)
	return err
}
