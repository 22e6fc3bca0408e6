package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/manifestnorm/internal/engine"
)

func mustDecode(t *testing.T, text string) any {
	t.Helper()
	v, err := engine.Decode(text)
	require.NoError(t, err)
	return v
}

func TestEffective_AllOfMergesInOrder(t *testing.T) {
	s, err := Parse("mem://allof.json", []byte(`{
		"properties": {"id": {}},
		"allOf": [
			{"properties": {"name": {}, "id": {"type": "string"}}},
			{"$ref": "#/definitions/extra"}
		],
		"definitions": {"extra": {"properties": {"extra": {}}}}
	}`))
	require.NoError(t, err)

	eff := s.Effective(s.Root, mustDecode(t, `{}`))
	assert.Equal(t, []string{"id", "name", "extra"}, eff.PropertyOrder())
	assert.Empty(t, eff.Property("id").Types, "first declaration wins")
}

func TestEffective_SelectsFirstSatisfiedBranch(t *testing.T) {
	s, err := Parse("mem://oneof.json", []byte(`{
		"type": "object",
		"oneOf": [
			{"properties": {"kind": {"const": "path"}, "url": {}, "options": {}}, "required": ["kind"]},
			{"properties": {"kind": {"const": "vcs"}, "branch": {}, "url": {}}, "required": ["kind"]}
		]
	}`))
	require.NoError(t, err)

	path := s.Effective(s.Root, mustDecode(t, `{"kind":"path"}`))
	assert.Equal(t, []string{"kind", "url", "options"}, path.PropertyOrder())

	vcs := s.Effective(s.Root, mustDecode(t, `{"kind":"vcs"}`))
	assert.Equal(t, []string{"kind", "branch", "url"}, vcs.PropertyOrder())

	none := s.Effective(s.Root, mustDecode(t, `{"kind":"other"}`))
	assert.Empty(t, none.PropertyOrder())
}

func TestEffective_TypeFallback(t *testing.T) {
	// The metaschema cannot be loaded, so the validator never compiles and
	// branches are chosen by declared type.
	s, err := Parse("mem://anyof.json", []byte(`{
		"$schema": "https://example.com/unreachable-meta.json",
		"properties": {
			"bin": {
				"anyOf": [
					{"type": "string"},
					{"type": "array", "items": {"type": "string"}}
				]
			}
		}
	}`))
	require.NoError(t, err)

	bin := s.Root.Property("bin")
	arr := s.Effective(bin, mustDecode(t, `["a"]`))
	require.NotNil(t, arr.Items)
	assert.Equal(t, []string{"string"}, arr.Items.Types)

	str := s.Effective(bin, "a")
	assert.Nil(t, str.Items)
}

func TestTypeMatches(t *testing.T) {
	n := &Node{Types: []string{"number"}}
	assert.True(t, typeMatches(n, mustDecode(t, `3`)))
	assert.True(t, typeMatches(n, mustDecode(t, `3.5`)))
	assert.False(t, typeMatches(n, "3"))

	i := &Node{Types: []string{"integer"}}
	assert.True(t, typeMatches(i, mustDecode(t, `3`)))
	assert.False(t, typeMatches(i, mustDecode(t, `3.5`)))
}

func TestFragment(t *testing.T) {
	assert.Equal(t, "/properties/a%20b", fragment("/properties/a b"))
	assert.Equal(t, "/patternProperties/%5Ex-", fragment("/patternProperties/^x-"))
	assert.Equal(t, "/definitions/plain-name", fragment("/definitions/plain-name"))
	assert.Equal(t, "/properties/100%25", fragment("/properties/100%"))
	assert.Equal(t, "/properties/a~1b", fragment("/properties/a~1b"))
}
