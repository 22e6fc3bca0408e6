package manifestnorm

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/reoring/manifestnorm/internal/engine"
)

// Rule selects what a PropertyNormalizer does with its property.
type Rule int

const (
	// SortObjectKeys orders the members of an object by key.
	SortObjectKeys Rule = iota + 1
	// SortArrayElements orders a list of strings.
	SortArrayElements
	// SortArrayOfObjectsByKey orders a list of objects by the string value
	// of a key field (see WithKeyField).
	SortArrayOfObjectsByKey
)

func (r Rule) String() string {
	switch r {
	case SortObjectKeys:
		return "sort-object-keys"
	case SortArrayElements:
		return "sort-array-elements"
	case SortArrayOfObjectsByKey:
		return "sort-array-of-objects-by-key"
	default:
		return fmt.Sprintf("rule(%d)", int(r))
	}
}

// PropertyNormalizer sorts the value of one top-level property. Documents
// without the property, or whose root is not an object, are returned
// unchanged. Sorting is stable and compares bytes; duplicates are kept.
type PropertyNormalizer struct {
	property     string
	rule         Rule
	keyField     string
	acceptScalar bool
	compare      func(a, b string) int
}

// PropertyOption configures a PropertyNormalizer.
type PropertyOption func(*PropertyNormalizer)

// WithKeyField names the field SortArrayOfObjectsByKey sorts by.
func WithKeyField(name string) PropertyOption {
	return func(p *PropertyNormalizer) { p.keyField = name }
}

// AcceptScalar leaves a string value untouched instead of reporting it as
// wrong-shaped, for properties that allow a single value in place of a
// list.
func AcceptScalar() PropertyOption {
	return func(p *PropertyNormalizer) { p.acceptScalar = true }
}

// WithCompare replaces the ordinal comparison of keys or strings.
func WithCompare(cmp func(a, b string) int) PropertyOption {
	return func(p *PropertyNormalizer) { p.compare = cmp }
}

// NewPropertyNormalizer applies rule to the top-level property. Keys and
// strings compare ordinally unless WithCompare is given.
func NewPropertyNormalizer(property string, rule Rule, opts ...PropertyOption) *PropertyNormalizer {
	p := &PropertyNormalizer{property: property, rule: rule, compare: strings.Compare}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Property returns the name of the normalized property.
func (p *PropertyNormalizer) Property() string { return p.property }

// Rule returns the configured rule.
func (p *PropertyNormalizer) Rule() Rule { return p.rule }

func (p *PropertyNormalizer) name() string { return "property(" + p.property + ")" }

func (p *PropertyNormalizer) Normalize(_ context.Context, json string) (string, error) {
	doc, err := engine.Decode(json)
	if err != nil {
		return "", malformed(p.name(), err)
	}
	root, ok := doc.(*engine.Object)
	if !ok {
		return json, nil
	}
	v, ok := root.Get(p.property)
	if !ok {
		return json, nil
	}
	path := engine.JoinPointer("", p.property)
	if _, isString := v.(string); isString && p.acceptScalar {
		return json, nil
	}

	var sorted any
	switch p.rule {
	case SortObjectKeys:
		sorted, err = p.sortKeys(v, path)
	case SortArrayElements:
		sorted, err = p.sortStrings(v, path)
	case SortArrayOfObjectsByKey:
		sorted, err = p.sortRecords(v, path)
	default:
		err = p.fail(path, "unknown rule %s", p.rule)
	}
	if err != nil {
		return "", err
	}
	root.Set(p.property, sorted)
	return encode(p.name(), doc)
}

func (p *PropertyNormalizer) fail(path, format string, args ...any) *Error {
	return &Error{Kind: KindNormalization, Normalizer: p.name(), Path: path, Message: fmt.Sprintf(format, args...)}
}

func (p *PropertyNormalizer) sortKeys(v any, path string) (any, error) {
	obj, ok := v.(*engine.Object)
	if !ok {
		return nil, p.fail(path, "expected an object, got %s", jsonKind(v))
	}
	keys := make([]string, 0, obj.Len())
	for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	slices.SortStableFunc(keys, p.compare)

	out := engine.NewObject()
	for _, k := range keys {
		val, _ := obj.Get(k)
		out.Set(k, val)
	}
	return out, nil
}

func (p *PropertyNormalizer) sortStrings(v any, path string) (any, error) {
	arr, ok := v.([]any)
	if !ok {
		return nil, p.fail(path, "expected an array of strings, got %s", jsonKind(v))
	}
	strs := make([]string, len(arr))
	for i, e := range arr {
		s, ok := e.(string)
		if !ok {
			return nil, p.fail(engine.JoinIndex(path, i), "expected a string, got %s", jsonKind(e))
		}
		strs[i] = s
	}
	slices.SortStableFunc(strs, p.compare)

	out := make([]any, len(strs))
	for i, s := range strs {
		out[i] = s
	}
	return out, nil
}

func (p *PropertyNormalizer) sortRecords(v any, path string) (any, error) {
	if p.keyField == "" {
		return nil, p.fail(path, "no key field configured")
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, p.fail(path, "expected an array of objects, got %s", jsonKind(v))
	}
	type record struct {
		key string
		val any
	}
	recs := make([]record, len(arr))
	for i, e := range arr {
		obj, ok := e.(*engine.Object)
		if !ok {
			return nil, p.fail(engine.JoinIndex(path, i), "expected an object, got %s", jsonKind(e))
		}
		kv, ok := obj.Get(p.keyField)
		if !ok {
			return nil, p.fail(engine.JoinIndex(path, i), "missing key field %q", p.keyField)
		}
		ks, ok := kv.(string)
		if !ok {
			return nil, p.fail(engine.JoinPointer(engine.JoinIndex(path, i), p.keyField), "expected a string, got %s", jsonKind(kv))
		}
		recs[i] = record{key: ks, val: e}
	}
	slices.SortStableFunc(recs, func(a, b record) int { return p.compare(a.key, b.key) })

	out := make([]any, len(recs))
	for i, r := range recs {
		out[i] = r.val
	}
	return out, nil
}

// jsonKind names the JSON type of a decoded value for error messages.
func jsonKind(v any) string {
	switch v.(type) {
	case *engine.Object:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case nil:
		return "null"
	default:
		return "number"
	}
}
