package relay

import "errors"

var ErrChunkedEncoding = errors.New("relay: malformed chunked transfer encoding")
