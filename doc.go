// Package manifestnorm rewrites package manifests (composer.json style JSON
// documents) into a canonical, deterministically ordered form.
//
// The work is split into small normalizers, each mapping JSON text to JSON
// text:
//
// - SchemaNormalizer orders object keys the way a JSON schema declares them
// - PropertyNormalizer sorts one top-level property (keys, strings, records)
// - Chain runs normalizers in sequence
// - AutoFormat detects the input's indent, newlines and escaping and prints
//   the result of the wrapped normalizer the same way
//
// Design policy:
// - Normalizers only reorder and reformat. Values are never added, removed
//   or altered, and normalizing twice yields the same text as once.
// - Failures are *Error values carrying a Kind; match them with errors.Is
//   against ErrMalformedInput, ErrSchemaUnavailable and friends.
// - Fetching schemas is delegated to a schema.Resolver supplied by the caller.
//
// Typical usage:
//
//	n := manifestnorm.NewAutoFormat(manifestnorm.NewChain(
//		manifestnorm.NewSchemaNormalizer(uri, resolver),
//		manifestnorm.NewPropertyNormalizer("bin", manifestnorm.SortArrayElements, manifestnorm.AcceptScalar()),
//	))
//	out, err := n.Normalize(ctx, string(data))
//
// The composer package assembles the normalizer used for composer.json.
package manifestnorm
