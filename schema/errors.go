package schema

import "errors"

var (
	// ErrUnavailable reports that a schema document could not be fetched.
	ErrUnavailable = errors.New("schema unavailable")
	// ErrInvalid reports that a fetched schema document is malformed.
	ErrInvalid = errors.New("schema invalid")
)
