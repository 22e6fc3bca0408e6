package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"unicode/utf8"

	j "github.com/goccy/go-json"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Object is a JSON object that remembers the order of its members.
type Object = orderedmap.OrderedMap[string, any]

// NewObject returns an empty Object.
func NewObject() *Object { return orderedmap.New[string, any]() }

// Issue codes reported by the decoder.
const (
	CodeParseError   = "parse_error"
	CodeDuplicateKey = "duplicate_key"
	CodeTooDeep      = "too_deep"
)

// IssueError is a decoding failure located by a JSON pointer.
type IssueError struct {
	Code    string
	Path    string
	Message string
	Cause   error
}

func (e *IssueError) Error() string {
	return fmt.Sprintf("%s at %s: %s", e.Code, DisplayPointer(e.Path), e.Message)
}

func (e *IssueError) Unwrap() error { return e.Cause }

// DefaultMaxDepth bounds nesting when DecodeOptions.MaxDepth is zero.
const DefaultMaxDepth = 512

// DecodeOptions controls Decode.
type DecodeOptions struct {
	MaxDepth int
}

// Decode parses JSON text into an ordered tree made of *Object, []any,
// string, json.Number, bool and nil. Duplicate object keys are rejected
// because the document could not be written back without losing a value.
func Decode(text string) (any, error) {
	return DecodeWith(text, DecodeOptions{})
}

// DecodeWith is Decode with explicit options.
func DecodeWith(text string, opt DecodeOptions) (any, error) {
	data := []byte(text)
	if !j.Valid(data) {
		var v any
		err := j.Unmarshal(data, &v)
		if err == nil {
			err = errors.New("invalid JSON text")
		}
		return nil, &IssueError{Code: CodeParseError, Message: err.Error(), Cause: err}
	}
	if !utf8.Valid(data) {
		return nil, &IssueError{Code: CodeParseError, Message: "invalid UTF-8 in input"}
	}
	if err := checkSurrogates(data); err != nil {
		return nil, &IssueError{Code: CodeParseError, Message: err.Error(), Cause: err}
	}
	if opt.MaxDepth <= 0 {
		opt.MaxDepth = DefaultMaxDepth
	}
	d := &decoder{src: NewBytes(data), maxDepth: opt.MaxDepth}
	tok, err := d.next("")
	if err != nil {
		return nil, err
	}
	return d.value(tok, "")
}

type decoder struct {
	src      TokenSource
	maxDepth int
	depth    int
}

func (d *decoder) next(path string) (Token, error) {
	tok, err := d.src.NextToken()
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return Token{}, &IssueError{Code: CodeParseError, Path: path, Message: err.Error(), Cause: err}
	}
	return tok, nil
}

func (d *decoder) value(tok Token, path string) (any, error) {
	switch tok.Kind {
	case KindBeginObject:
		return d.object(path)
	case KindBeginArray:
		return d.array(path)
	case KindString:
		return tok.String, nil
	case KindNumber:
		return json.Number(tok.Number), nil
	case KindBool:
		return tok.Bool, nil
	case KindNull:
		return nil, nil
	default:
		return nil, &IssueError{Code: CodeParseError, Path: path, Message: "unexpected token"}
	}
}

func (d *decoder) enter(path string) error {
	d.depth++
	if d.depth > d.maxDepth {
		return &IssueError{Code: CodeTooDeep, Path: path, Message: fmt.Sprintf("nesting exceeds %d levels", d.maxDepth)}
	}
	return nil
}

func (d *decoder) object(path string) (*Object, error) {
	if err := d.enter(path); err != nil {
		return nil, err
	}
	obj := NewObject()
	for {
		tok, err := d.next(path)
		if err != nil {
			return nil, err
		}
		if tok.Kind == KindEndObject {
			d.depth--
			return obj, nil
		}
		if tok.Kind != KindKey {
			return nil, &IssueError{Code: CodeParseError, Path: path, Message: "expected object key"}
		}
		child := JoinPointer(path, tok.String)
		if _, dup := obj.Get(tok.String); dup {
			return nil, &IssueError{Code: CodeDuplicateKey, Path: child, Message: fmt.Sprintf("key %q duplicated", tok.String)}
		}
		vt, err := d.next(child)
		if err != nil {
			return nil, err
		}
		v, err := d.value(vt, child)
		if err != nil {
			return nil, err
		}
		obj.Set(tok.String, v)
	}
}

func (d *decoder) array(path string) ([]any, error) {
	if err := d.enter(path); err != nil {
		return nil, err
	}
	arr := []any{}
	for i := 0; ; i++ {
		child := JoinIndex(path, i)
		tok, err := d.next(child)
		if err != nil {
			return nil, err
		}
		if tok.Kind == KindEndArray {
			d.depth--
			return arr, nil
		}
		v, err := d.value(tok, child)
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}
}

// Plain converts an ordered tree into the map[string]any form expected by
// validators and comparisons. Member order is lost.
func Plain(v any) any {
	switch t := v.(type) {
	case *Object:
		out := make(map[string]any, t.Len())
		for p := t.Oldest(); p != nil; p = p.Next() {
			out[p.Key] = Plain(p.Value)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = Plain(t[i])
		}
		return out
	default:
		return v
	}
}

// FromPlain converts decoded scalars and slices into tree values. Maps are
// rejected: their member order is already lost, so callers build *Object
// themselves from an ordered source.
func FromPlain(v any) (any, error) {
	switch t := v.(type) {
	case *Object, string, json.Number, bool, nil:
		return t, nil
	case []any:
		out := make([]any, len(t))
		for i := range t {
			c, err := FromPlain(t[i])
			if err != nil {
				return nil, err
			}
			out[i] = c
		}
		return out, nil
	case int:
		return json.Number(fmt.Sprint(t)), nil
	case int64:
		return json.Number(fmt.Sprint(t)), nil
	case uint64:
		return json.Number(fmt.Sprint(t)), nil
	case float64:
		b, err := j.Marshal(t)
		if err != nil {
			return nil, err
		}
		return json.Number(b), nil
	default:
		return nil, fmt.Errorf("unsupported value of type %T", v)
	}
}

// checkSurrogates rejects \u escapes that encode an unpaired UTF-16
// surrogate. Such strings cannot be printed back as valid UTF-8.
func checkSurrogates(data []byte) error {
	for i := 0; i < len(data); i++ {
		if data[i] != '\\' || i+1 >= len(data) {
			continue
		}
		if data[i+1] != 'u' {
			i++
			continue
		}
		r, ok := hexRune(data, i+2)
		if !ok {
			return fmt.Errorf("invalid unicode escape at byte %d", i)
		}
		switch {
		case r >= 0xDC00 && r <= 0xDFFF:
			return fmt.Errorf("lone low surrogate \\u%04x at byte %d", r, i)
		case r >= 0xD800 && r <= 0xDBFF:
			lo, ok := rune(0), false
			if i+7 < len(data) && data[i+6] == '\\' && data[i+7] == 'u' {
				lo, ok = hexRune(data, i+8)
			}
			if !ok || lo < 0xDC00 || lo > 0xDFFF {
				return fmt.Errorf("lone high surrogate \\u%04x at byte %d", r, i)
			}
			i += 11
		default:
			i += 5
		}
	}
	return nil
}

func hexRune(data []byte, at int) (rune, bool) {
	if at+4 > len(data) {
		return 0, false
	}
	n, err := strconv.ParseUint(string(data[at:at+4]), 16, 32)
	if err != nil {
		return 0, false
	}
	return rune(n), true
}
