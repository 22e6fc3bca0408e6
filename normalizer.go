package manifestnorm

import "context"

// Normalizer maps JSON text to JSON text. Implementations hold no mutable
// state and are safe for concurrent use.
type Normalizer interface {
	Normalize(ctx context.Context, json string) (string, error)
}

// NormalizerFunc adapts a function to Normalizer.
type NormalizerFunc func(ctx context.Context, json string) (string, error)

func (f NormalizerFunc) Normalize(ctx context.Context, json string) (string, error) {
	return f(ctx, json)
}

// Wrapper is implemented by normalizers that decorate a single inner one.
type Wrapper interface {
	Wrapped() Normalizer
}

// Composite is implemented by normalizers built from an ordered list.
type Composite interface {
	Normalizers() []Normalizer
}
