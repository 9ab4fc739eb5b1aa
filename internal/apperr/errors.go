package apperr

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrPathEscape   = errors.New("path escapes vault root")
	ErrUnreachable  = errors.New("remote store unreachable")
	ErrTooManyCards = errors.New("card count exceeds configured limit")
)
