package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrMalformed     = errors.New("malformed record")
	ErrNotFound      = errors.New("not found")
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrUnknownSite   = errors.New("unknown site")
)
