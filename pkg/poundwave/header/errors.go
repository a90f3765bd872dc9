package header

import "errors"

var (
	ErrHeaderTooLarge = errors.New("header: name or value exceeds size limit")
	ErrInvalidHeader  = errors.New("header: name or value contains CR or LF")
)
