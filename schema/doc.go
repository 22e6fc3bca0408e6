// Package schema loads JSON-schema documents and exposes what the
// normalizers need from them: the declared property order of every object
// shape and how shapes nest through properties, items, combinators and
// local references.
//
// Fetching is delegated to a Resolver so that callers decide how schema
// documents are obtained:
//
//	r := schema.SchemeResolver{
//		"file":  schema.FileResolver{Fs: afero.NewOsFs()},
//		"https": schema.NewHTTPResolver(schema.WithRetries(2)),
//	}
//	s, err := schema.Load(ctx, r, "https://getcomposer.org/schema.json")
//
// The package does not validate documents while normalizing. Validate is a
// separate entry point for callers that want to check a manifest first.
package schema
