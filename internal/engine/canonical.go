package engine

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"

	"github.com/cyberphone/json-canonicalization/go/src/webpki.org/jsoncanonicalizer"
)

// Canonical returns the RFC 8785 form of JSON text. Two documents that
// differ only in member order or layout have the same canonical form.
func Canonical(text string) ([]byte, error) {
	data, err := jsoncanonicalizer.Transform([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("cannot canonicalize json: %w", err)
	}
	return data, nil
}

// Equivalent reports whether a and b describe the same JSON value.
func Equivalent(a, b string) (bool, error) {
	ca, err := Canonical(a)
	if err != nil {
		return false, err
	}
	cb, err := Canonical(b)
	if err != nil {
		return false, err
	}
	return bytes.Equal(ca, cb), nil
}

// EquivalentUnordered is Equivalent, except that the arrays found at the
// given pointers are compared as multisets. Missing pointers are ignored.
func EquivalentUnordered(a, b string, pointers ...string) (bool, error) {
	if len(pointers) == 0 {
		return Equivalent(a, b)
	}
	ca, err := unorderedCanonical(a, pointers)
	if err != nil {
		return false, err
	}
	cb, err := unorderedCanonical(b, pointers)
	if err != nil {
		return false, err
	}
	return bytes.Equal(ca, cb), nil
}

func unorderedCanonical(text string, pointers []string) ([]byte, error) {
	doc, err := Decode(text)
	if err != nil {
		return nil, err
	}
	for _, p := range pointers {
		tokens, err := SplitPointer(p)
		if err != nil {
			return nil, err
		}
		if err := sortArrayAt(doc, tokens); err != nil {
			return nil, err
		}
	}
	out, err := Print(doc, DefaultFormat)
	if err != nil {
		return nil, err
	}
	return Canonical(out)
}

func sortArrayAt(v any, tokens []string) error {
	for _, tok := range tokens {
		switch c := v.(type) {
		case *Object:
			next, ok := c.Get(tok)
			if !ok {
				return nil
			}
			v = next
		case []any:
			i, err := strconv.Atoi(tok)
			if err != nil || i < 0 || i >= len(c) {
				return nil
			}
			v = c[i]
		default:
			return nil
		}
	}
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	keys := make([]string, len(arr))
	for i, el := range arr {
		text, err := Print([]any{el}, DefaultFormat)
		if err != nil {
			return err
		}
		c, err := Canonical(text)
		if err != nil {
			return err
		}
		keys[i] = string(c)
	}
	idx := make([]int, len(arr))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(x, y int) bool { return keys[idx[x]] < keys[idx[y]] })
	sorted := make([]any, len(arr))
	for i, k := range idx {
		sorted[i] = arr[k]
	}
	copy(arr, sorted)
	return nil
}
