package response

import "errors"

var (
	ErrInvalidStatusLine    = errors.New("response: invalid status line")
	ErrInvalidProtocol      = errors.New("response: invalid protocol version")
	ErrInvalidStatusCode    = errors.New("response: invalid status code")
	ErrInvalidHeader        = errors.New("response: invalid header")
	ErrHeadersTooLarge      = errors.New("response: headers too large")
	ErrUnexpectedEOF        = errors.New("response: unexpected EOF reading status line or headers")
	ErrInvalidContentLength = errors.New("response: invalid Content-Length")
)
