package manifestnorm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/reoring/manifestnorm/internal/engine"
	"github.com/reoring/manifestnorm/internal/logger"
	"github.com/reoring/manifestnorm/schema"
)

// DefaultSchemaTimeout bounds schema resolution when no timeout is set.
const DefaultSchemaTimeout = 30 * time.Second

const inlineSchemaURI = "urn:manifestnorm:inline-schema"

// SchemaNormalizer orders object keys as a JSON schema declares them.
// Declared keys come first in declaration order, followed by keys the
// schema does not know in their original relative order. Array elements
// keep their order. Values that violate the schema are left alone.
type SchemaNormalizer struct {
	uri      string
	resolver schema.Resolver
	timeout  time.Duration
}

// SchemaOption configures a SchemaNormalizer.
type SchemaOption func(*SchemaNormalizer)

// WithTimeout bounds how long fetching the schema may take.
func WithTimeout(d time.Duration) SchemaOption {
	return func(s *SchemaNormalizer) { s.timeout = d }
}

// NewSchemaNormalizer reorders documents by the schema at uri, fetched
// through resolver within DefaultSchemaTimeout unless WithTimeout is given.
func NewSchemaNormalizer(uri string, resolver schema.Resolver, opts ...SchemaOption) *SchemaNormalizer {
	s := &SchemaNormalizer{uri: uri, resolver: resolver, timeout: DefaultSchemaTimeout}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewInlineSchemaNormalizer uses doc as the schema; nothing is fetched.
func NewInlineSchemaNormalizer(doc []byte, opts ...SchemaOption) *SchemaNormalizer {
	return NewSchemaNormalizer(inlineSchemaURI, schema.Inline(doc), opts...)
}

// SchemaURI returns the URI of the schema this normalizer follows.
func (s *SchemaNormalizer) SchemaURI() string { return s.uri }

func (s *SchemaNormalizer) Normalize(ctx context.Context, json string) (string, error) {
	doc, err := engine.Decode(json)
	if err != nil {
		return "", malformed("schema", err)
	}
	sch, err := s.load(ctx)
	if err != nil {
		return "", err
	}
	for _, w := range sch.Warnings() {
		logger.FromContext(ctx).Warn("schema keyword ignored", "uri", s.uri, "detail", w)
	}
	return encode("schema", s.reorder(sch, sch.Root, doc))
}

func (s *SchemaNormalizer) load(ctx context.Context) (*schema.Schema, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	sch, err := schema.Load(ctx, s.resolver, s.uri)
	if err == nil {
		return sch, nil
	}
	e := &Error{Normalizer: "schema", Message: s.uri, Cause: err}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		e.Kind = KindSchemaTimeout
		e.Message = fmt.Sprintf("%s: no response within %s", s.uri, s.timeout)
	case errors.Is(err, context.Canceled):
		e.Kind = KindSchemaTimeout
	case errors.Is(err, schema.ErrInvalid):
		e.Kind = KindSchemaInvalid
	default:
		e.Kind = KindSchemaUnavailable
	}
	return nil, e
}

// reorder rebuilds objects described by n. Containers are rebuilt rather
// than mutated so the decoded input is never shared with the result.
func (s *SchemaNormalizer) reorder(sch *schema.Schema, n *schema.Node, v any) any {
	eff := sch.Effective(n, v)
	switch t := v.(type) {
	case *engine.Object:
		out := engine.NewObject()
		for _, key := range eff.PropertyOrder() {
			if val, ok := t.Get(key); ok {
				out.Set(key, s.reorder(sch, eff.Property(key), val))
			}
		}
		for p := t.Oldest(); p != nil; p = p.Next() {
			if _, done := out.Get(p.Key); done {
				continue
			}
			out.Set(p.Key, s.reorder(sch, eff.Property(p.Key), p.Value))
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = s.reorder(sch, eff.Item(i), e)
		}
		return out
	default:
		return v
	}
}
