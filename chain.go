package manifestnorm

import (
	"context"
	"fmt"

	"github.com/reoring/manifestnorm/internal/logger"
)

// Chain applies normalizers in order, each receiving the output of the
// previous one. The first failure aborts the chain and is returned as is.
type Chain struct {
	normalizers []Normalizer
}

// NewChain requires at least one normalizer.
func NewChain(first Normalizer, rest ...Normalizer) *Chain {
	ns := make([]Normalizer, 0, 1+len(rest))
	ns = append(ns, first)
	ns = append(ns, rest...)
	return &Chain{normalizers: ns}
}

// Normalizers returns a copy of the members in application order.
func (c *Chain) Normalizers() []Normalizer {
	return append([]Normalizer(nil), c.normalizers...)
}

func (c *Chain) Normalize(ctx context.Context, json string) (string, error) {
	log := logger.FromContext(ctx)
	out := json
	for i, n := range c.normalizers {
		if err := ctx.Err(); err != nil {
			return "", &Error{Kind: KindCanceled, Normalizer: "chain", Message: fmt.Sprintf("before stage %d", i), Cause: err}
		}
		next, err := n.Normalize(ctx, out)
		if err != nil {
			log.Debug("normalizer failed", "stage", i, "normalizer", describe(n), "error", err)
			return "", err
		}
		log.Debug("normalizer applied", "stage", i, "normalizer", describe(n), "changed", next != out)
		out = next
	}
	return out, nil
}

// describe names a normalizer for log output.
func describe(n Normalizer) string {
	switch t := n.(type) {
	case *SchemaNormalizer:
		return "schema(" + t.SchemaURI() + ")"
	case *PropertyNormalizer:
		return "property(" + t.Property() + ")"
	case *Chain:
		return fmt.Sprintf("chain(%d)", len(t.normalizers))
	case *AutoFormat:
		return "format"
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprintf("%T", n)
	}
}
