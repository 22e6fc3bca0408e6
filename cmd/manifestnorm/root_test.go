package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/manifestnorm"
)

const testSchema = `{
	"type": "object",
	"properties": {
		"name": {"type": "string"},
		"description": {"type": "string"},
		"require": {"type": "object", "additionalProperties": {"type": "string"}},
		"bin": {"type": ["string", "array"], "items": {"type": "string"}}
	},
	"required": ["name"]
}`

func newFs(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/schema.json", []byte(testSchema), 0o644))
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
	}
	return fs
}

func execute(t *testing.T, fs afero.Fs, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(fs)
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--schema", "/schema.json", "--log-level", "error"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func readFile(t *testing.T, fs afero.Fs, name string) string {
	t.Helper()
	data, err := afero.ReadFile(fs, name)
	require.NoError(t, err)
	return string(data)
}

const unsorted = "{\n  \"require\": {\"vendor/pkg\": \"^1.0\", \"php\": \"^8.1\"},\n  \"bin\": [\"z\", \"a\"],\n  \"name\": \"foo/bar\"\n}\n"

const sorted = "{\n  \"name\": \"foo/bar\",\n  \"require\": {\n    \"php\": \"^8.1\",\n    \"vendor/pkg\": \"^1.0\"\n  },\n  \"bin\": [\n    \"a\",\n    \"z\"\n  ]\n}\n"

func TestRoot_NormalizesInPlace(t *testing.T) {
	fs := newFs(t, map[string]string{"/p/composer.json": unsorted})
	_, err := execute(t, fs, "/p/composer.json")
	require.NoError(t, err)
	assert.Equal(t, sorted, readFile(t, fs, "/p/composer.json"))

	_, err = execute(t, fs, "--dry-run", "/p/composer.json")
	assert.NoError(t, err, "second run finds nothing to do")
}

func TestRoot_DryRunWithDiff(t *testing.T) {
	fs := newFs(t, map[string]string{"/p/composer.json": unsorted})
	out, err := execute(t, fs, "--dry-run", "--diff", "/p/composer.json")
	assert.ErrorIs(t, err, errNotNormalized)
	assert.Contains(t, out, "--- /p/composer.json (original)")
	assert.Contains(t, out, "+++ /p/composer.json (normalized)")
	assert.Contains(t, out, "+  \"name\": \"foo/bar\",")
	assert.Equal(t, unsorted, readFile(t, fs, "/p/composer.json"), "dry run leaves the file alone")
}

func TestRoot_IndentOverride(t *testing.T) {
	fs := newFs(t, map[string]string{"/composer.json": `{"bin":["b","a"],"name":"x/y"}`})
	_, err := execute(t, fs, "--indent-size", "1", "--indent-style", "tab", "/composer.json")
	require.NoError(t, err)
	assert.Equal(t, "{\n\t\"name\": \"x/y\",\n\t\"bin\": [\n\t\t\"a\",\n\t\t\"b\"\n\t]\n}", readFile(t, fs, "/composer.json"))
}

func TestRoot_ReportsEveryFailure(t *testing.T) {
	fs := newFs(t, map[string]string{
		"/a/composer.json": `{"name":`,
		"/b/composer.json": unsorted,
	})
	_, err := execute(t, fs, "--jobs", "2", "/a/composer.json", "/b/composer.json", "/c/composer.json")
	require.Error(t, err)
	assert.ErrorIs(t, err, manifestnorm.ErrMalformedInput)
	assert.Contains(t, err.Error(), "/a/composer.json")
	assert.Contains(t, err.Error(), "/c/composer.json")
	assert.Equal(t, sorted, readFile(t, fs, "/b/composer.json"), "healthy files are still written")
}

func TestRoot_Validate(t *testing.T) {
	fs := newFs(t, map[string]string{"/composer.json": `{"description":"no name"}`})
	_, err := execute(t, fs, "--validate", "/composer.json")
	assert.ErrorContains(t, err, "does not match")

	_, err = execute(t, fs, "/composer.json")
	assert.NoError(t, err, "normalizing alone does not validate")
}

func TestRoot_ValidateTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(3 * time.Second):
		}
	}))
	defer srv.Close()

	fs := newFs(t, map[string]string{"/composer.json": `{"name":"x/y"}`})
	start := time.Now()
	_, err := execute(t, fs, "--schema", srv.URL+"/schema.json", "--timeout", "100ms", "--validate", "/composer.json")
	assert.ErrorIs(t, err, manifestnorm.ErrSchemaTimeout)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestRoot_ValidateSchemaUnavailable(t *testing.T) {
	fs := newFs(t, map[string]string{"/composer.json": `{"name":"x/y"}`})
	_, err := execute(t, fs, "--schema", "/missing.json", "--validate", "/composer.json")
	assert.ErrorIs(t, err, manifestnorm.ErrSchemaUnavailable)
}

func TestRoot_ReorderedBinIsNotAContentChange(t *testing.T) {
	fs := newFs(t, map[string]string{"/composer.json": unsorted})
	cmd := newRootCmd(fs)
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"--schema", "/schema.json", "--log-level", "warn", "/composer.json"})
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Equal(t, sorted, readFile(t, fs, "/composer.json"))
	assert.NotContains(t, errOut.String(), "differs in content")
}

func TestRoot_SchemaUnavailable(t *testing.T) {
	fs := newFs(t, map[string]string{"/composer.json": `{}`})
	_, err := execute(t, fs, "--schema", "/missing.json", "/composer.json")
	assert.ErrorIs(t, err, manifestnorm.ErrSchemaUnavailable)
}

func TestRoot_InvalidFlags(t *testing.T) {
	fs := newFs(t, nil)
	_, err := execute(t, fs, "--indent-style", "dots", "/composer.json")
	assert.ErrorContains(t, err, "configuration validation failed")
}

func TestOverrides(t *testing.T) {
	cmd := newRootCmd(afero.NewMemMapFs())
	require.NoError(t, cmd.Flags().Parse([]string{"--jobs", "3", "--log-json", "--dry-run"}))
	assert.Equal(t, map[string]any{"jobs": "3", "log.json": "true"}, overrides(cmd.Flags()))
}
