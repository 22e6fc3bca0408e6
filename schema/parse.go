package schema

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/reoring/manifestnorm/internal/engine"
)

// Schema is a parsed schema document.
type Schema struct {
	URI  string
	Root *Node

	doc      any
	warnings []string

	validatorOnce sync.Once
	validatorErr  error
	mu            sync.Mutex
	compiler      *jsonschema.Compiler
	compiled      map[string]*jsonschema.Schema
}

// Warnings lists parts of the document that were skipped, such as
// references to other documents.
func (s *Schema) Warnings() []string { return append([]string(nil), s.warnings...) }

// Parse builds a Schema from raw JSON, or YAML when uri ends in .yaml or
// .yml. Any structural problem is reported as ErrInvalid.
func Parse(uri string, data []byte) (*Schema, error) {
	var (
		doc any
		err error
	)
	if isYAML(uri) {
		doc, err = decodeYAML(data)
	} else {
		doc, err = engine.Decode(string(data))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalid, uri, err)
	}
	if _, ok := doc.(*engine.Object); !ok {
		return nil, fmt.Errorf("%w: %s: document root must be an object", ErrInvalid, uri)
	}

	c := &compiler{doc: doc, nodes: map[string]*Node{}}
	root, err := c.node("", doc)
	if err == nil {
		err = c.compileDefinitions(doc.(*engine.Object))
	}
	if err == nil {
		err = c.resolveRefs()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalid, uri, err)
	}
	return &Schema{URI: uri, Root: root, doc: doc, warnings: c.warnings}, nil
}

func isYAML(uri string) bool {
	p := uri
	if u, err := url.Parse(uri); err == nil && u.Path != "" {
		p = u.Path
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

type compiler struct {
	doc      any
	nodes    map[string]*Node
	pending  []*Node
	warnings []string
}

func (c *compiler) warnf(f string, a ...any) { c.warnings = append(c.warnings, fmt.Sprintf(f, a...)) }

// node compiles the schema found at ptr. Nodes are memoized by pointer so
// recursive references terminate.
func (c *compiler) node(ptr string, raw any) (*Node, error) {
	if n, ok := c.nodes[ptr]; ok {
		return n, nil
	}
	n := newNode(ptr)
	c.nodes[ptr] = n
	switch t := raw.(type) {
	case bool:
		return n, nil
	case *engine.Object:
		return n, c.fill(n, t)
	default:
		return nil, fmt.Errorf("%s: schema must be an object or a boolean, got %s", engine.DisplayPointer(ptr), kindOf(raw))
	}
}

func (c *compiler) fill(n *Node, obj *engine.Object) error {
	at := func(kw string) string { return engine.JoinPointer(n.Pointer, kw) }

	if v, ok := obj.Get("type"); ok {
		types, err := stringList(v)
		if err != nil {
			return fmt.Errorf("%s: %w", engine.DisplayPointer(at("type")), err)
		}
		n.Types = types
	}
	if v, ok := obj.Get("properties"); ok {
		props, ok := v.(*engine.Object)
		if !ok {
			return fmt.Errorf("%s: properties must be an object", engine.DisplayPointer(at("properties")))
		}
		for p := props.Oldest(); p != nil; p = p.Next() {
			child, err := c.node(engine.JoinPointer(at("properties"), p.Key), p.Value)
			if err != nil {
				return err
			}
			n.Properties.Set(p.Key, child)
		}
	}
	if v, ok := obj.Get("patternProperties"); ok {
		props, ok := v.(*engine.Object)
		if !ok {
			return fmt.Errorf("%s: patternProperties must be an object", engine.DisplayPointer(at("patternProperties")))
		}
		for p := props.Oldest(); p != nil; p = p.Next() {
			child, err := c.node(engine.JoinPointer(at("patternProperties"), p.Key), p.Value)
			if err != nil {
				return err
			}
			re, err := regexp.Compile(p.Key)
			if err != nil {
				c.warnf("%s: pattern %q skipped: %v", engine.DisplayPointer(at("patternProperties")), p.Key, err)
				continue
			}
			n.PatternProperties = append(n.PatternProperties, PatternProperty{Pattern: re, Node: child})
		}
	}
	if v, ok := obj.Get("additionalProperties"); ok {
		if _, isBool := v.(bool); !isBool {
			child, err := c.node(at("additionalProperties"), v)
			if err != nil {
				return err
			}
			n.AdditionalProperties = child
		}
	}
	if v, ok := obj.Get("items"); ok {
		switch t := v.(type) {
		case bool:
		case []any:
			list, err := c.list(at("items"), t)
			if err != nil {
				return err
			}
			n.TupleItems = list
		default:
			child, err := c.node(at("items"), v)
			if err != nil {
				return err
			}
			n.Items = child
		}
	}
	if v, ok := obj.Get("prefixItems"); ok {
		arr, ok := v.([]any)
		if !ok {
			return fmt.Errorf("%s: prefixItems must be an array", engine.DisplayPointer(at("prefixItems")))
		}
		list, err := c.list(at("prefixItems"), arr)
		if err != nil {
			return err
		}
		n.TupleItems = list
	}
	for _, kw := range []string{"allOf", "anyOf", "oneOf"} {
		v, ok := obj.Get(kw)
		if !ok {
			continue
		}
		arr, ok := v.([]any)
		if !ok || len(arr) == 0 {
			return fmt.Errorf("%s: %s must be a non-empty array", engine.DisplayPointer(at(kw)), kw)
		}
		list, err := c.list(at(kw), arr)
		if err != nil {
			return err
		}
		switch kw {
		case "allOf":
			n.AllOf = list
		case "anyOf":
			n.AnyOf = list
		default:
			n.OneOf = list
		}
	}
	if v, ok := obj.Get("$ref"); ok {
		ref, ok := v.(string)
		if !ok {
			return fmt.Errorf("%s: $ref must be a string", engine.DisplayPointer(at("$ref")))
		}
		n.Ref = ref
		c.pending = append(c.pending, n)
	}
	return nil
}

func (c *compiler) list(ptr string, arr []any) ([]*Node, error) {
	out := make([]*Node, 0, len(arr))
	for i, raw := range arr {
		child, err := c.node(engine.JoinIndex(ptr, i), raw)
		if err != nil {
			return nil, err
		}
		out = append(out, child)
	}
	return out, nil
}

// compileDefinitions compiles definitions and $defs up front so that a
// malformed definition is reported even when nothing references it.
func (c *compiler) compileDefinitions(root *engine.Object) error {
	for _, kw := range []string{"definitions", "$defs"} {
		v, ok := root.Get(kw)
		if !ok {
			continue
		}
		defs, ok := v.(*engine.Object)
		if !ok {
			return fmt.Errorf("/%s: must be an object", kw)
		}
		for p := defs.Oldest(); p != nil; p = p.Next() {
			if _, err := c.node(engine.JoinPointer(engine.JoinPointer("", kw), p.Key), p.Value); err != nil {
				return err
			}
		}
	}
	return nil
}

func stringList(v any) ([]string, error) {
	switch t := v.(type) {
	case string:
		return []string{t}, nil
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("type entries must be strings")
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("type must be a string or an array of strings")
	}
}

// kindOf names the JSON type of a decoded value.
func kindOf(v any) string {
	switch t := v.(type) {
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
		if isInteger(t) {
			return "integer"
		}
		return "number"
	}
}
