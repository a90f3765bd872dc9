package request

import "errors"

var (
	ErrInvalidRequestLine   = errors.New("request: malformed request line")
	ErrInvalidMethod        = errors.New("request: unsupported method")
	ErrInvalidPath          = errors.New("request: path must start with / or be *")
	ErrInvalidProtocol      = errors.New("request: unsupported HTTP version")
	ErrInvalidHeader        = errors.New("request: malformed header line")
	ErrRequestLineTooLarge  = errors.New("request: request line exceeds limit")
	ErrURITooLong           = errors.New("request: URI exceeds limit")
	ErrHeadersTooLarge      = errors.New("request: headers exceed limit")
	ErrInvalidContentLength = errors.New("request: malformed Content-Length")
	ErrUnexpectedEOF        = errors.New("request: connection closed before headers completed")
	ErrNoRequest            = errors.New("request: connection closed on an idle read")
	ErrMissingHost          = errors.New("request: missing Host header")
	ErrDuplicateHost        = errors.New("request: more than one Host header")
)
