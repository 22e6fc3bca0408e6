package schema

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/afero"
)

// Resolver fetches the raw bytes of a schema document. Implementations own
// their retry and caching policy.
type Resolver interface {
	Resolve(ctx context.Context, uri string) ([]byte, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, uri string) ([]byte, error)

func (f ResolverFunc) Resolve(ctx context.Context, uri string) ([]byte, error) { return f(ctx, uri) }

// Inline returns a Resolver that serves doc for every URI.
func Inline(doc []byte) Resolver {
	return ResolverFunc(func(ctx context.Context, _ string) ([]byte, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return doc, nil
	})
}

// StaticResolver serves documents from memory keyed by URI.
type StaticResolver map[string][]byte

func (s StaticResolver) Resolve(ctx context.Context, uri string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, ok := s[uri]
	if !ok {
		return nil, fmt.Errorf("%w: %s: not found", ErrUnavailable, uri)
	}
	return doc, nil
}

// SchemeResolver dispatches on the URI scheme. URIs without a scheme are
// treated as file paths.
type SchemeResolver map[string]Resolver

func (s SchemeResolver) Resolve(ctx context.Context, uri string) ([]byte, error) {
	scheme := "file"
	if u, err := url.Parse(uri); err == nil && len(u.Scheme) > 1 {
		scheme = strings.ToLower(u.Scheme)
	}
	r, ok := s[scheme]
	if !ok || r == nil {
		return nil, fmt.Errorf("%w: %s: unsupported scheme %q", ErrUnavailable, uri, scheme)
	}
	return r.Resolve(ctx, uri)
}

// FileResolver reads file:// URIs and plain paths from Fs, or from the OS
// file system when Fs is nil.
type FileResolver struct {
	Fs afero.Fs
}

func (r FileResolver) Resolve(ctx context.Context, uri string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := filePath(uri)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, uri, err)
	}
	fs := r.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, uri, err)
	}
	return data, nil
}

func filePath(uri string) (string, error) {
	if !strings.HasPrefix(uri, "file:") {
		return uri, nil
	}
	u, err := url.Parse(uri)
	if err != nil {
		return "", err
	}
	if u.Host != "" && u.Host != "localhost" {
		return "", fmt.Errorf("remote file host %q", u.Host)
	}
	if u.Path == "" {
		return u.Opaque, nil
	}
	return u.Path, nil
}
