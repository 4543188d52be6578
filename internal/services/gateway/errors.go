package gateway

import "errors"

// Strategy errors
var (
	ErrUnsupportedMethod = errors.New("unsupported settlement method")
	ErrInvalidReference  = errors.New("invalid transfer reference")
)
