package manifestnorm_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/reoring/manifestnorm"
	"github.com/reoring/manifestnorm/internal/engine"
	"github.com/reoring/manifestnorm/schema"
)

const packageSchema = `{
	"type": "object",
	"properties": {
		"name": {"type": "string"},
		"type": {"type": "string"},
		"authors": {"type": "array", "items": {"$ref": "#/definitions/author"}},
		"support": {"type": "object", "properties": {"issues": {}, "source": {}}},
		"extra": {"type": "object", "additionalProperties": {"$ref": "#/definitions/author"}}
	},
	"definitions": {
		"author": {"type": "object", "properties": {"name": {}, "email": {}, "role": {}}}
	}
}`

func TestSchemaNormalizer_OrdersDeclaredKeysFirst(t *testing.T) {
	n := manifestnorm.NewInlineSchemaNormalizer([]byte(packageSchema))
	in := `{
		"zzz": 1,
		"authors": [
			{"role": "dev", "x-custom": true, "name": "b"},
			{"email": "a@example.org", "name": "a"}
		],
		"aaa": 2,
		"support": {"source": "s", "chat": "c", "issues": "i"},
		"extra": {"lead": {"role": "r", "name": "n"}},
		"type": "library",
		"name": "foo/bar"
	}`
	want := `{
    "name": "foo/bar",
    "type": "library",
    "authors": [
        {
            "name": "b",
            "role": "dev",
            "x-custom": true
        },
        {
            "name": "a",
            "email": "a@example.org"
        }
    ],
    "support": {
        "issues": "i",
        "source": "s",
        "chat": "c"
    },
    "extra": {
        "lead": {
            "name": "n",
            "role": "r"
        }
    },
    "zzz": 1,
    "aaa": 2
}`
	got, err := n.Normalize(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	same, err := engine.Equivalent(in, got)
	require.NoError(t, err)
	assert.True(t, same, "values are preserved")

	again, err := n.Normalize(context.Background(), got)
	require.NoError(t, err)
	assert.Equal(t, got, again, "idempotent")
}

func TestSchemaNormalizer_IgnoresTypeViolations(t *testing.T) {
	n := manifestnorm.NewInlineSchemaNormalizer([]byte(packageSchema))
	got, err := n.Normalize(context.Background(), `{"support":"none","authors":{"name":"x"},"name":5}`)
	require.NoError(t, err)
	assert.Equal(t, "{\n    \"name\": 5,\n    \"authors\": {\n        \"name\": \"x\"\n    },\n    \"support\": \"none\"\n}", got)
}

func TestSchemaNormalizer_NonObjectRoot(t *testing.T) {
	n := manifestnorm.NewInlineSchemaNormalizer([]byte(packageSchema))
	got, err := n.Normalize(context.Background(), `[{"b":1,"a":2}]`)
	require.NoError(t, err)
	assert.Equal(t, "[\n    {\n        \"b\": 1,\n        \"a\": 2\n    }\n]", got)
}

func TestSchemaNormalizer_Errors(t *testing.T) {
	ctx := context.Background()
	blocking := schema.ResolverFunc(func(ctx context.Context, _ string) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	tests := []struct {
		name string
		n    *manifestnorm.SchemaNormalizer
		in   string
		want error
	}{
		{"malformed input", manifestnorm.NewInlineSchemaNormalizer([]byte(packageSchema)), `{"name":}`, manifestnorm.ErrMalformedInput},
		{"unavailable", manifestnorm.NewSchemaNormalizer("mem://missing.json", schema.StaticResolver{}), `{}`, manifestnorm.ErrSchemaUnavailable},
		{"no resolver", manifestnorm.NewSchemaNormalizer("mem://x.json", nil), `{}`, manifestnorm.ErrSchemaUnavailable},
		{"invalid", manifestnorm.NewInlineSchemaNormalizer([]byte(`{"properties":`)), `{}`, manifestnorm.ErrSchemaInvalid},
		{"dangling ref", manifestnorm.NewInlineSchemaNormalizer([]byte(`{"$ref":"#/nope"}`)), `{}`, manifestnorm.ErrSchemaInvalid},
		{"timeout", manifestnorm.NewSchemaNormalizer("mem://slow.json", blocking, manifestnorm.WithTimeout(20*time.Millisecond)), `{}`, manifestnorm.ErrSchemaTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.n.Normalize(ctx, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSchemaNormalizer_SchemaURI(t *testing.T) {
	n := manifestnorm.NewSchemaNormalizer("https://getcomposer.org/schema.json", schema.StaticResolver{})
	assert.Equal(t, "https://getcomposer.org/schema.json", n.SchemaURI())
}

func TestSchemaNormalizer_ConcurrentUse(t *testing.T) {
	n := manifestnorm.NewAutoFormat(manifestnorm.NewChain(
		manifestnorm.NewInlineSchemaNormalizer([]byte(packageSchema)),
		manifestnorm.NewPropertyNormalizer("keywords", manifestnorm.SortArrayElements),
	))

	var g errgroup.Group
	results := make([]string, 32)
	for i := range results {
		g.Go(func() error {
			in := fmt.Sprintf("{\n  \"keywords\": [\"z\", \"a%d\"],\n  \"type\": \"t\",\n  \"name\": \"n\"\n}", i%4)
			out, err := n.Normalize(context.Background(), in)
			results[i] = out
			return err
		})
	}
	require.NoError(t, g.Wait())
	for i, out := range results {
		// keywords is unknown to the schema and follows the declared keys.
		want := fmt.Sprintf("{\n  \"name\": \"n\",\n  \"type\": \"t\",\n  \"keywords\": [\n    \"a%d\",\n    \"z\"\n  ]\n}", i%4)
		assert.Equal(t, want, out)
	}
}
