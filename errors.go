package manifestnorm

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a normalization failure.
type Kind string

const (
	KindMalformedInput    Kind = "malformed_input"
	KindSchemaUnavailable Kind = "schema_unavailable"
	KindSchemaTimeout     Kind = "schema_timeout"
	KindSchemaInvalid     Kind = "schema_invalid"
	KindNormalization     Kind = "normalization"
	KindCanceled          Kind = "canceled"
)

// Sentinels for errors.Is. An *Error matches the sentinel of its Kind.
var (
	ErrMalformedInput    = &Error{Kind: KindMalformedInput}
	ErrSchemaUnavailable = &Error{Kind: KindSchemaUnavailable}
	ErrSchemaTimeout     = &Error{Kind: KindSchemaTimeout}
	ErrSchemaInvalid     = &Error{Kind: KindSchemaInvalid}
	ErrNormalization     = &Error{Kind: KindNormalization}
	ErrCanceled          = &Error{Kind: KindCanceled}
)

// Error is returned by every normalizer in this module.
type Error struct {
	Kind       Kind
	Normalizer string // Which normalizer failed, e.g. "schema" or "property(bin)".
	Path       string // JSON Pointer of the offending value ("" when not applicable).
	Message    string
	Cause      error
}

// NewError builds an *Error. Message is formatted with fmt.Sprintf.
func NewError(kind Kind, normalizer, path string, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Normalizer: normalizer, Path: path, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func (e *Error) Error() string {
	b := &strings.Builder{}
	b.WriteString(string(e.Kind))
	if e.Normalizer != "" {
		fmt.Fprintf(b, " in %s", e.Normalizer)
	}
	if e.Path != "" {
		fmt.Fprintf(b, " at %s", e.Path)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is an *Error of the same Kind. Sentinels carry
// only a Kind, so errors.Is(err, ErrSchemaTimeout) matches any timeout.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Normalizer == "" || t.Normalizer == e.Normalizer)
}

// AsError extracts *Error from an error using errors.As internally.
func AsError(err error) (*Error, bool) {
	if err == nil {
		return nil, false
	}
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
