// Package composer assembles the normalizers for composer.json manifests.
//
// NewNormalizer returns the full pipeline: keys are ordered by the composer
// schema, bin entries and config keys are sorted, and package links list
// platform requirements before regular packages. The output keeps the
// layout of the input.
package composer
