package schema

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/reoring/manifestnorm/internal/engine"
)

// Effective returns the shape that describes value at n: references are
// followed, allOf members are merged in order, and for anyOf/oneOf the
// first branch that value satisfies is merged in. The result must not be
// mutated by callers.
func (s *Schema) Effective(n *Node, value any) *Node {
	return s.effective(n, value, 0)
}

const maxCompositionDepth = 32

func (s *Schema) effective(n *Node, value any, depth int) *Node {
	n = deref(n)
	if n == nil || depth > maxCompositionDepth {
		return n
	}
	if len(n.AllOf) == 0 && len(n.AnyOf) == 0 && len(n.OneOf) == 0 {
		return n
	}

	out := newNode(n.Pointer)
	out.merge(n)
	for _, member := range n.AllOf {
		out.merge(s.effective(member, value, depth+1))
	}
	for _, branches := range [][]*Node{n.AnyOf, n.OneOf} {
		if b := s.selectBranch(branches, value); b != nil {
			out.merge(s.effective(b, value, depth+1))
		}
	}
	return out
}

// selectBranch returns the first branch that value satisfies. Branches are
// checked with a full validator when the document compiles; otherwise only
// the declared JSON type is compared.
func (s *Schema) selectBranch(branches []*Node, value any) *Node {
	if len(branches) == 0 {
		return nil
	}
	plain := engine.Plain(value)
	for _, b := range branches {
		if s.satisfies(b, value, plain) {
			return b
		}
	}
	return nil
}

func (s *Schema) satisfies(b *Node, value, plain any) bool {
	if sch, err := s.compile(b.Pointer); err == nil {
		return sch.Validate(plain) == nil
	}
	return typeMatches(deref(b), value)
}

func typeMatches(n *Node, value any) bool {
	if n == nil {
		return false
	}
	if len(n.Types) == 0 {
		switch value.(type) {
		case *engine.Object:
			return n.Properties.Len() > 0 || len(n.PatternProperties) > 0 || n.AdditionalProperties != nil || !n.hasShape()
		case []any:
			return n.Items != nil || len(n.TupleItems) > 0 || !n.hasShape()
		default:
			return !n.hasShape()
		}
	}
	kind := kindOf(value)
	for _, t := range n.Types {
		if t == kind || (t == "number" && kind == "integer") {
			return true
		}
	}
	return false
}

func isInteger(v any) bool {
	num, ok := v.(json.Number)
	return ok && !strings.ContainsAny(string(num), ".eE")
}

// compile returns a validator for the schema location at ptr. The compiler
// only knows this document; compiling a location that references other
// documents fails, and callers fall back to type matching.
func (s *Schema) compile(ptr string) (*jsonschema.Schema, error) {
	s.validatorOnce.Do(func() {
		c := jsonschema.NewCompiler()
		s.validatorErr = c.AddResource(s.URI, engine.Plain(s.doc))
		s.compiler = c
		s.compiled = map[string]*jsonschema.Schema{}
	})
	if s.validatorErr != nil {
		return nil, s.validatorErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sch, ok := s.compiled[ptr]; ok {
		return sch, nil
	}
	sch, err := s.compiler.Compile(s.URI + "#" + fragment(ptr))
	if err != nil {
		return nil, fmt.Errorf("compile %s#%s: %w", s.URI, ptr, err)
	}
	s.compiled[ptr] = sch
	return sch, nil
}

// fragment percent-encodes a JSON pointer for use as a URI fragment.
func fragment(ptr string) string {
	return (&url.URL{Fragment: ptr}).EscapedFragment()
}
