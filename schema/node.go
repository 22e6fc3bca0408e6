package schema

import (
	"regexp"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Node is one schema location, reduced to the keywords that describe how
// objects and arrays nest.
type Node struct {
	// Pointer locates the node inside its document ("" is the root).
	Pointer string
	Types   []string

	// Object
	Properties           *orderedmap.OrderedMap[string, *Node]
	PatternProperties    []PatternProperty
	AdditionalProperties *Node

	// Array
	Items      *Node
	TupleItems []*Node

	// Composition
	AllOf []*Node
	AnyOf []*Node
	OneOf []*Node

	// Ref is the raw $ref value. When it points into the same document,
	// the target replaces the node, as in draft-04.
	Ref string
	ref *Node
}

// PatternProperty is a patternProperties entry.
type PatternProperty struct {
	Pattern *regexp.Regexp
	Node    *Node
}

func newNode(ptr string) *Node {
	return &Node{Pointer: ptr, Properties: orderedmap.New[string, *Node]()}
}

// PropertyOrder returns the declared property names in document order.
func (n *Node) PropertyOrder() []string {
	if n == nil {
		return nil
	}
	keys := make([]string, 0, n.Properties.Len())
	for p := n.Properties.Oldest(); p != nil; p = p.Next() {
		keys = append(keys, p.Key)
	}
	return keys
}

// Property returns the schema of a member: the declared property, else the
// first matching pattern property, else additionalProperties.
func (n *Node) Property(name string) *Node {
	if n == nil {
		return nil
	}
	if c, ok := n.Properties.Get(name); ok {
		return c
	}
	for _, pp := range n.PatternProperties {
		if pp.Pattern.MatchString(name) {
			return pp.Node
		}
	}
	return n.AdditionalProperties
}

// Item returns the schema of the i-th array element.
func (n *Node) Item(i int) *Node {
	if n == nil {
		return nil
	}
	if i < len(n.TupleItems) {
		return n.TupleItems[i]
	}
	return n.Items
}

func (n *Node) hasShape() bool {
	return n.Properties.Len() > 0 || len(n.PatternProperties) > 0 || n.AdditionalProperties != nil ||
		n.Items != nil || len(n.TupleItems) > 0
}

// merge folds other into n. Properties already present keep their position
// and schema.
func (n *Node) merge(other *Node) {
	for p := other.Properties.Oldest(); p != nil; p = p.Next() {
		if _, ok := n.Properties.Get(p.Key); !ok {
			n.Properties.Set(p.Key, p.Value)
		}
	}
	n.PatternProperties = append(n.PatternProperties, other.PatternProperties...)
	if n.AdditionalProperties == nil {
		n.AdditionalProperties = other.AdditionalProperties
	}
	if n.Items == nil {
		n.Items = other.Items
	}
	if len(n.TupleItems) == 0 {
		n.TupleItems = other.TupleItems
	}
	if len(n.Types) == 0 {
		n.Types = other.Types
	}
}
