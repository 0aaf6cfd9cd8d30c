package schema

import "errors"

// Sentinel kinds for schema errors.
var (
	ErrInvalidSchema   = errors.New("invalid schema")
	ErrUnsupportedType = errors.New("unsupported schema type")
	ErrMissingField    = errors.New("missing field")
	ErrInvalidValue    = errors.New("invalid field value")
	ErrInvalidData     = errors.New("invalid encoded data")
)
