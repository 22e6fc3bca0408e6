package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	j "github.com/goccy/go-json"
)

// Format describes how a document is laid out as text.
type Format struct {
	Indent        string // one indentation unit, spaces or tabs
	Newline       string // "\n", "\r\n" or "\r"
	FinalNewline  bool
	EscapeSlashes bool // write "/" as "\/"
	EscapeUnicode bool // write non-ASCII code points as \uXXXX
}

// DefaultFormat is used between pipeline stages and when nothing can be
// detected from the input.
var DefaultFormat = Format{Indent: "    ", Newline: "\n"}

func (f Format) withDefaults() Format {
	if f.Indent == "" {
		f.Indent = DefaultFormat.Indent
	}
	if f.Newline == "" {
		f.Newline = DefaultFormat.Newline
	}
	return f
}

// Print writes a tree as pretty-printed JSON text using f.
func Print(v any, f Format) (string, error) {
	p := &printer{f: f.withDefaults()}
	if err := p.value(v, 0); err != nil {
		return "", err
	}
	if p.f.FinalNewline {
		p.buf.WriteString(p.f.Newline)
	}
	return p.buf.String(), nil
}

type printer struct {
	f   Format
	buf bytes.Buffer
}

func (p *printer) indent(depth int) {
	p.buf.WriteString(p.f.Newline)
	p.buf.WriteString(strings.Repeat(p.f.Indent, depth))
}

func (p *printer) value(v any, depth int) error {
	switch t := v.(type) {
	case *Object:
		if t.Len() == 0 {
			p.buf.WriteString("{}")
			return nil
		}
		p.buf.WriteByte('{')
		for pair := t.Oldest(); pair != nil; pair = pair.Next() {
			p.indent(depth + 1)
			if err := p.string(pair.Key); err != nil {
				return err
			}
			p.buf.WriteString(": ")
			if err := p.value(pair.Value, depth+1); err != nil {
				return err
			}
			if pair.Next() != nil {
				p.buf.WriteByte(',')
			}
		}
		p.indent(depth)
		p.buf.WriteByte('}')
	case []any:
		if len(t) == 0 {
			p.buf.WriteString("[]")
			return nil
		}
		p.buf.WriteByte('[')
		for i, elem := range t {
			p.indent(depth + 1)
			if err := p.value(elem, depth+1); err != nil {
				return err
			}
			if i < len(t)-1 {
				p.buf.WriteByte(',')
			}
		}
		p.indent(depth)
		p.buf.WriteByte(']')
	case string:
		return p.string(t)
	case json.Number:
		p.buf.WriteString(string(t))
	case bool:
		p.buf.WriteString(strconv.FormatBool(t))
	case nil:
		p.buf.WriteString("null")
	default:
		return fmt.Errorf("cannot print value of type %T", v)
	}
	return nil
}

// string encodes s the way composer writes it: <, > and & stay raw.
func (p *printer) string(s string) error {
	var enc bytes.Buffer
	e := j.NewEncoder(&enc)
	e.SetEscapeHTML(false)
	if err := e.Encode(s); err != nil {
		return err
	}
	b := bytes.TrimSuffix(enc.Bytes(), []byte("\n"))
	if p.f.EscapeUnicode {
		b = escapeUnicode(b)
	}
	if p.f.EscapeSlashes {
		b = bytes.ReplaceAll(b, []byte("/"), []byte(`\/`))
	}
	p.buf.Write(b)
	return nil
}

const hexDigits = "0123456789abcdef"

// escapeUnicode rewrites every non-ASCII code point of an encoded JSON
// string as \uXXXX, using surrogate pairs outside the BMP.
func escapeUnicode(b []byte) []byte {
	out := make([]byte, 0, len(b))
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		b = b[size:]
		if r < utf8.RuneSelf {
			out = append(out, byte(r))
			continue
		}
		if r > 0xFFFF {
			hi, lo := utf16.EncodeRune(r)
			out = appendEscape(out, hi)
			out = appendEscape(out, lo)
			continue
		}
		out = appendEscape(out, r)
	}
	return out
}

func appendEscape(out []byte, r rune) []byte {
	return append(out, '\\', 'u',
		hexDigits[r>>12&0xF], hexDigits[r>>8&0xF], hexDigits[r>>4&0xF], hexDigits[r&0xF])
}
