package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/reoring/manifestnorm"
	"github.com/reoring/manifestnorm/internal/engine"
	"github.com/reoring/manifestnorm/internal/logger"
	"github.com/reoring/manifestnorm/schema"
)

// errNotNormalized is returned in dry-run mode when a file would change.
var errNotNormalized = errors.New("not normalized")

type runOptions struct {
	dryRun   bool
	diff     bool
	validate bool
}

type runner struct {
	fs         afero.Fs
	out        io.Writer
	normalizer manifestnorm.Normalizer
	resolver   schema.Resolver
	schemaURI  string
	timeout    time.Duration
	unordered  []string
	jobs       int
	opts       runOptions
}

type outcome struct {
	changed bool
	diff    string
	err     error
}

// run normalizes files concurrently. Every file is attempted; failures are
// reported together once all files are done. Diffs are printed in argument
// order.
func (r *runner) run(ctx context.Context, files []string) error {
	results := make([]outcome, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(r.jobs, 1))
	for i, file := range files {
		g.Go(func() error {
			results[i] = r.file(ctx, file)
			if errors.Is(results[i].err, context.Canceled) {
				return results[i].err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var (
		errs    []error
		pending []string
	)
	for i, res := range results {
		if res.diff != "" {
			fmt.Fprint(r.out, res.diff)
		}
		if res.err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", files[i], res.err))
			continue
		}
		if res.changed && r.opts.dryRun {
			pending = append(pending, files[i])
		}
	}
	if len(pending) > 0 {
		errs = append(errs, fmt.Errorf("%w: %v", errNotNormalized, pending))
	}
	return errors.Join(errs...)
}

func (r *runner) file(ctx context.Context, file string) outcome {
	log := logger.FromContext(ctx).With("file", file)

	info, err := r.fs.Stat(file)
	if err != nil {
		log.Error("cannot read file", "error", err)
		return outcome{err: err}
	}
	data, err := afero.ReadFile(r.fs, file)
	if err != nil {
		log.Error("cannot read file", "error", err)
		return outcome{err: err}
	}
	original := string(data)

	if r.opts.validate {
		if err := r.validate(ctx, original); err != nil {
			log.Error("validation failed", "schema", r.schemaURI, "error", err)
			return outcome{err: err}
		}
	}

	normalized, err := r.normalizer.Normalize(ctx, original)
	if err != nil {
		log.Error("normalization failed", "error", err)
		return outcome{err: err}
	}
	if normalized == original {
		log.Info("already normalized")
		return outcome{}
	}

	switch same, err := engine.EquivalentUnordered(original, normalized, r.unordered...); {
	case err != nil:
		log.Debug("cannot compare documents", "error", err)
	case same:
		log.Debug("order/format only")
	default:
		log.Warn("normalized document differs in content")
	}

	res := outcome{changed: true}
	if r.opts.diff {
		res.diff, err = unifiedDiff(file, original, normalized)
		if err != nil {
			return outcome{err: err}
		}
	}
	if r.opts.dryRun {
		log.Warn("not normalized")
		return res
	}
	if err := afero.WriteFile(r.fs, file, []byte(normalized), info.Mode().Perm()); err != nil {
		log.Error("cannot write file", "error", err)
		return outcome{err: err}
	}
	log.Info("normalized")
	return res
}

// validate checks document against the configured schema within the
// schema timeout.
func (r *runner) validate(ctx context.Context, document string) error {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	err := schema.Validate(ctx, r.resolver, r.schemaURI, document)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return manifestnorm.NewError(manifestnorm.KindSchemaTimeout, "validate", "", err,
			"%s: no response within %s", r.schemaURI, r.timeout)
	case errors.Is(err, schema.ErrUnavailable):
		return manifestnorm.NewError(manifestnorm.KindSchemaUnavailable, "validate", "", err, "%s", r.schemaURI)
	case errors.Is(err, schema.ErrInvalid):
		return manifestnorm.NewError(manifestnorm.KindSchemaInvalid, "validate", "", err, "%s", r.schemaURI)
	}
	return err
}

func unifiedDiff(file, a, b string) (string, error) {
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(a),
		B:        difflib.SplitLines(b),
		FromFile: file + " (original)",
		ToFile:   file + " (normalized)",
		Context:  3,
	})
}
