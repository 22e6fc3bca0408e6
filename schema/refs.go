package schema

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/reoring/manifestnorm/internal/engine"
)

// resolveRefs links every local $ref to its target node. Compiling a target
// may uncover further references, so the queue is drained until empty.
func (c *compiler) resolveRefs() error {
	for len(c.pending) > 0 {
		n := c.pending[0]
		c.pending = c.pending[1:]

		if !strings.HasPrefix(n.Ref, "#") {
			c.warnf("%s: $ref %q not followed (only references within the document are supported)", engine.DisplayPointer(n.Pointer), n.Ref)
			continue
		}
		ptr, err := url.PathUnescape(n.Ref[1:])
		if err != nil {
			return fmt.Errorf("%s: $ref %q: %w", engine.DisplayPointer(n.Pointer), n.Ref, err)
		}
		raw, err := lookup(c.doc, ptr)
		if err != nil {
			return fmt.Errorf("%s: $ref %q: %w", engine.DisplayPointer(n.Pointer), n.Ref, err)
		}
		target, err := c.node(ptr, raw)
		if err != nil {
			return err
		}
		n.ref = target
	}
	return nil
}

// lookup walks a JSON pointer through a decoded document.
func lookup(doc any, ptr string) (any, error) {
	tokens, err := engine.SplitPointer(ptr)
	if err != nil {
		return nil, err
	}
	cur := doc
	for _, tok := range tokens {
		switch t := cur.(type) {
		case *engine.Object:
			v, ok := t.Get(tok)
			if !ok {
				return nil, fmt.Errorf("no member %q", tok)
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(tok)
			if err != nil || i < 0 || i >= len(t) {
				return nil, fmt.Errorf("no element %q", tok)
			}
			cur = t[i]
		default:
			return nil, fmt.Errorf("cannot descend into %s at %q", kindOf(cur), tok)
		}
	}
	return cur, nil
}

// deref follows local references. Chains that loop back on themselves
// resolve to the last distinct node.
func deref(n *Node) *Node {
	seen := map[*Node]bool{}
	for n != nil && n.ref != nil && !seen[n] {
		seen[n] = true
		n = n.ref
	}
	return n
}
