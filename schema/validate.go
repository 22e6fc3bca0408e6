package schema

import (
	"context"
	"fmt"

	"github.com/reoring/manifestnorm/internal/engine"
)

// Validate checks a JSON document against the schema at uri. A violation
// is returned as *jsonschema.ValidationError wrapped with the URI.
func Validate(ctx context.Context, r Resolver, uri, document string) error {
	s, err := Load(ctx, r, uri)
	if err != nil {
		return err
	}
	return s.Validate(document)
}

// Validate checks a JSON document against the whole schema.
func (s *Schema) Validate(document string) error {
	doc, err := engine.Decode(document)
	if err != nil {
		return fmt.Errorf("document: %w", err)
	}
	sch, err := s.compile("")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := sch.Validate(engine.Plain(doc)); err != nil {
		return fmt.Errorf("document does not match %s: %w", s.URI, err)
	}
	return nil
}
