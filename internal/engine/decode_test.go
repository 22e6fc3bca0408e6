package engine

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_KeepsMemberOrder(t *testing.T) {
	v, err := Decode(`{"z":1,"a":{"y":true,"b":null},"m":["x",2.50]}`)
	require.NoError(t, err)

	obj, ok := v.(*Object)
	require.True(t, ok, "expected *Object, got %T", v)

	var keys []string
	for p := obj.Oldest(); p != nil; p = p.Next() {
		keys = append(keys, p.Key)
	}
	assert.Equal(t, []string{"z", "a", "m"}, keys)

	nested, _ := obj.Get("a")
	inner := nested.(*Object)
	assert.Equal(t, "y", inner.Oldest().Key)

	list, _ := obj.Get("m")
	assert.Equal(t, []any{"x", json.Number("2.50")}, list)
}

func TestDecode_Scalars(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{`"s"`, "s"},
		{`12`, json.Number("12")},
		{`-1.5e3`, json.Number("-1.5e3")},
		{`true`, true},
		{`null`, nil},
		{`[]`, []any{}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v, err := Decode(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		code string
		path string
	}{
		{name: "empty", in: ``, code: CodeParseError},
		{name: "truncated", in: `{"a":`, code: CodeParseError},
		{name: "trailing garbage", in: `{"a":1} x`, code: CodeParseError},
		{name: "single quotes", in: `{'a':1}`, code: CodeParseError},
		{name: "duplicate key", in: `{"a":{"b":1,"b":2}}`, code: CodeDuplicateKey, path: "/a/b"},
		{name: "lone high surrogate", in: `["\ud800"]`, code: CodeParseError},
		{name: "lone low surrogate", in: `"\udc00"`, code: CodeParseError},
		{name: "high surrogate then text", in: `"\ud800x"`, code: CodeParseError},
		{name: "reversed pair", in: `"\udc00\ud800"`, code: CodeParseError},
		{name: "invalid utf-8", in: "\"\xff\"", code: CodeParseError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.in)
			require.Error(t, err)
			var ie *IssueError
			require.ErrorAs(t, err, &ie)
			assert.Equal(t, tt.code, ie.Code)
			if tt.path != "" {
				assert.Equal(t, tt.path, ie.Path)
			}
		})
	}
}

func TestDecode_SurrogatePairs(t *testing.T) {
	v, err := Decode(`"\ud83d\ude00"`)
	require.NoError(t, err)
	assert.Equal(t, "\U0001F600", v)

	v, err = Decode(`"\\ud800"`)
	require.NoError(t, err)
	assert.Equal(t, `\ud800`, v)
}

func TestDecode_MaxDepth(t *testing.T) {
	in := strings.Repeat("[", 5) + strings.Repeat("]", 5)
	_, err := DecodeWith(in, DecodeOptions{MaxDepth: 4})
	var ie *IssueError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, CodeTooDeep, ie.Code)
	assert.Equal(t, "/0/0/0/0", ie.Path)

	_, err = DecodeWith(in, DecodeOptions{MaxDepth: 5})
	assert.NoError(t, err)
}

func TestPlain(t *testing.T) {
	v, err := Decode(`{"b":[{"c":1}],"a":"x"}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"b": []any{map[string]any{"c": json.Number("1")}},
		"a": "x",
	}, Plain(v))
}

func TestPointer(t *testing.T) {
	assert.Equal(t, "/a~1b/c~0d", JoinPointer(JoinPointer("", "a/b"), "c~d"))
	assert.Equal(t, "/items/3", JoinIndex("/items", 3))

	parts, err := SplitPointer("/definitions/a~1b/~01")
	require.NoError(t, err)
	assert.Equal(t, []string{"definitions", "a/b", "~1"}, parts)

	_, err = SplitPointer("definitions")
	assert.Error(t, err)

	assert.Equal(t, "/", DisplayPointer(""))
}
