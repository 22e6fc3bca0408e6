package manifestnorm

import (
	"context"
	"fmt"
	"strings"

	"github.com/reoring/manifestnorm/internal/engine"
)

// Format describes the textual layout of a JSON document.
type Format = engine.Format

// DetectFormat reports the indent, newline, final newline and escaping
// style of JSON text.
func DetectFormat(json string) Format { return engine.DetectFormat(json) }

// Indent builds one indentation unit from a size and a style ("space" or
// "tab").
func Indent(size int, style string) (string, error) {
	if size < 1 {
		return "", fmt.Errorf("indent size must be at least 1, got %d", size)
	}
	switch style {
	case "space":
		return strings.Repeat(" ", size), nil
	case "tab":
		return strings.Repeat("\t", size), nil
	default:
		return "", fmt.Errorf("indent style must be space or tab, got %q", style)
	}
}

// AutoFormat prints the output of the wrapped normalizer in the format of
// its input.
type AutoFormat struct {
	normalizer Normalizer
	indent     string
}

// FormatOption configures an AutoFormat.
type FormatOption func(*AutoFormat)

// WithIndent overrides the detected indentation unit.
func WithIndent(indent string) FormatOption {
	return func(a *AutoFormat) { a.indent = indent }
}

// NewAutoFormat wraps n so that its output is printed in the layout of
// the input document.
func NewAutoFormat(n Normalizer, opts ...FormatOption) *AutoFormat {
	a := &AutoFormat{normalizer: n}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *AutoFormat) Wrapped() Normalizer { return a.normalizer }

func (a *AutoFormat) Normalize(ctx context.Context, json string) (string, error) {
	if _, err := engine.Decode(json); err != nil {
		return "", malformed("format", err)
	}
	f := engine.DetectFormat(json)
	if a.indent != "" {
		f.Indent = a.indent
	}

	out, err := a.normalizer.Normalize(ctx, json)
	if err != nil {
		return "", err
	}
	doc, err := engine.Decode(out)
	if err != nil {
		return "", &Error{Kind: KindNormalization, Normalizer: "format", Message: "wrapped normalizer returned invalid JSON", Cause: err}
	}
	text, err := engine.Print(doc, f)
	if err != nil {
		return "", &Error{Kind: KindNormalization, Normalizer: "format", Message: "print", Cause: err}
	}
	return text, nil
}
