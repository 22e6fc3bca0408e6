package composer

import (
	"context"
	"time"

	"github.com/reoring/manifestnorm"
	"github.com/reoring/manifestnorm/schema"
)

// SchemaURI is the published composer.json schema.
const SchemaURI = "https://getcomposer.org/schema.json"

// Normalizer normalizes composer.json documents.
type Normalizer struct {
	normalizer *manifestnorm.AutoFormat
}

type options struct {
	schemaURI string
	resolver  schema.Resolver
	indent    string
	timeout   time.Duration
}

// Option configures a Normalizer.
type Option func(*options)

// WithSchemaURI replaces the composer schema, e.g. with a local snapshot.
func WithSchemaURI(uri string) Option {
	return func(o *options) { o.schemaURI = uri }
}

// WithResolver sets how the schema is fetched.
func WithResolver(r schema.Resolver) Option {
	return func(o *options) { o.resolver = r }
}

// WithIndent overrides the indentation detected from the input.
func WithIndent(indent string) Option {
	return func(o *options) { o.indent = indent }
}

// WithSchemaTimeout bounds schema resolution.
func WithSchemaTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// DefaultResolver reads file URIs and paths from disk and fetches http(s)
// URIs over the network.
func DefaultResolver() schema.Resolver {
	h := schema.NewHTTPResolver()
	return schema.SchemeResolver{
		"file":  schema.FileResolver{},
		"http":  h,
		"https": h,
	}
}

// NewNormalizer returns the composer.json normalizer. Without options it
// follows the published composer schema, fetched with DefaultResolver.
func NewNormalizer(opts ...Option) *Normalizer {
	o := options{schemaURI: SchemaURI, timeout: manifestnorm.DefaultSchemaTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	if o.resolver == nil {
		o.resolver = DefaultResolver()
	}

	var fopts []manifestnorm.FormatOption
	if o.indent != "" {
		fopts = append(fopts, manifestnorm.WithIndent(o.indent))
	}
	chain := manifestnorm.NewChain(
		manifestnorm.NewSchemaNormalizer(o.schemaURI, o.resolver, manifestnorm.WithTimeout(o.timeout)),
		NewBinNormalizer(),
		NewConfigHashNormalizer(),
		NewPackageHashNormalizer(),
	)
	return &Normalizer{normalizer: manifestnorm.NewAutoFormat(chain, fopts...)}
}

func (n *Normalizer) Wrapped() manifestnorm.Normalizer { return n.normalizer }

func (n *Normalizer) Normalize(ctx context.Context, json string) (string, error) {
	return n.normalizer.Normalize(ctx, json)
}
