package schema

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileResolver(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/schemas/a.json", []byte(`{"type":"object"}`), 0o644))
	r := FileResolver{Fs: fs}

	tests := []struct {
		name string
		uri  string
	}{
		{"plain path", "/schemas/a.json"},
		{"file uri", "file:///schemas/a.json"},
		{"localhost", "file://localhost/schemas/a.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(context.Background(), tt.uri)
			require.NoError(t, err)
			assert.JSONEq(t, `{"type":"object"}`, string(got))
		})
	}
}

func TestFileResolver_Errors(t *testing.T) {
	r := FileResolver{Fs: afero.NewMemMapFs()}

	_, err := r.Resolve(context.Background(), "/missing.json")
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = r.Resolve(context.Background(), "file://example.com/a.json")
	assert.ErrorIs(t, err, ErrUnavailable)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Resolve(ctx, "/missing.json")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSchemeResolver(t *testing.T) {
	var got []string
	record := func(name string) Resolver {
		return ResolverFunc(func(_ context.Context, uri string) ([]byte, error) {
			got = append(got, name+" "+uri)
			return []byte(`{}`), nil
		})
	}
	r := SchemeResolver{"file": record("file"), "https": record("https")}

	for _, uri := range []string{"https://example.com/s.json", "HTTPS://example.com/s.json", "/tmp/s.json", `C:\schemas\s.json`} {
		_, err := r.Resolve(context.Background(), uri)
		require.NoError(t, err, uri)
	}
	assert.Equal(t, []string{
		"https https://example.com/s.json",
		"https HTTPS://example.com/s.json",
		"file /tmp/s.json",
		`file C:\schemas\s.json`,
	}, got)

	_, err := r.Resolve(context.Background(), "ftp://example.com/s.json")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestStaticResolverAndInline(t *testing.T) {
	s := StaticResolver{"mem://a": []byte(`{"a":1}`)}
	got, err := s.Resolve(context.Background(), "mem://a")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(got))

	_, err = s.Resolve(context.Background(), "mem://b")
	assert.ErrorIs(t, err, ErrUnavailable)

	got, err = Inline([]byte(`{}`)).Resolve(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(got))
}

func TestCachingResolver(t *testing.T) {
	calls := 0
	fail := true
	next := ResolverFunc(func(_ context.Context, uri string) ([]byte, error) {
		calls++
		if fail {
			return nil, errors.New("boom")
		}
		return []byte(uri), nil
	})
	c, err := NewCachingResolver(next, 8)
	require.NoError(t, err)

	_, err = c.Resolve(context.Background(), "a")
	require.Error(t, err)

	fail = false
	for i := 0; i < 3; i++ {
		got, err := c.Resolve(context.Background(), "a")
		require.NoError(t, err)
		assert.Equal(t, "a", string(got))
	}
	assert.Equal(t, 2, calls, "failures are retried, successes are cached")

	_, err = NewCachingResolver(next, 0)
	assert.Error(t, err)
}
