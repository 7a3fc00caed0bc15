// Package ir builds the coerced, reference-resolved value tree consumed by
// everything downstream of the parser: scalars are typed, mapping entries
// become an ordered object, and a registry tracks every node registered
// under an id field so references can be resolved against it.
package ir

import "encoding/json"

// Node is one value in the tagged union null | bool | number | string |
// object | array | ref. Only the fields relevant to Type are meaningful.
// id is a stable sequential identity assigned from the idSeq that built
// this node, independent of pointer identity; the resolver's cycle guard
// keys on the id of the registered node being expanded. Clone gives every
// copy a fresh id.
type Node struct {
	id int

	Type Type

	Bool    bool
	Int64   *int64
	Float64 *float64
	Str     string

	// ObjectType: Fields and Values are parallel and ordered; duplicate
	// keys from the source are already resolved last-write-wins by the
	// time a Node reaches this shape.
	Fields []string
	Values []*Node

	// ArrayType
	Items []*Node

	// RefType
	RefTarget string
}

func (n *Node) ID() int { return n.id }

type idSeq struct{ next int }

func (s *idSeq) assign() int {
	s.next++
	return s.next
}

// NewIDSeq returns a fresh identity source. Callers outside this package
// use it together with FromJSON when materialising a tree that doesn't
// need to participate in a Builder's reference-cycle bookkeeping (the
// patch package's marshal/apply/unmarshal round trip, for instance).
func NewIDSeq() *idSeq { return &idSeq{} }

func newNode(seq *idSeq, t Type) *Node {
	return &Node{id: seq.assign(), Type: t}
}

// Null returns a fresh null node.
func Null(seq *idSeq) *Node { return newNode(seq, NullType) }

func fromBool(seq *idSeq, v bool) *Node {
	n := newNode(seq, BoolType)
	n.Bool = v
	return n
}

func fromInt(seq *idSeq, v int64) *Node {
	n := newNode(seq, NumberType)
	n.Int64 = &v
	return n
}

func fromFloat(seq *idSeq, v float64) *Node {
	n := newNode(seq, NumberType)
	n.Float64 = &v
	return n
}

func fromString(seq *idSeq, v string) *Node {
	n := newNode(seq, StringType)
	n.Str = v
	return n
}

func newObject(seq *idSeq) *Node { return newNode(seq, ObjectType) }

func newArray(seq *idSeq) *Node { return newNode(seq, ArrayType) }

func newRef(seq *idSeq, target string) *Node {
	n := newNode(seq, RefType)
	n.RefTarget = target
	return n
}

// set upserts a key/value pair, implementing last-write-wins for
// duplicate keys encountered while building an object.
func (n *Node) set(key string, v *Node) {
	for i, f := range n.Fields {
		if f == key {
			n.Values[i] = v
			return
		}
	}
	n.Fields = append(n.Fields, key)
	n.Values = append(n.Values, v)
}

func (n *Node) get(key string) *Node {
	for i, f := range n.Fields {
		if f == key {
			return n.Values[i]
		}
	}
	return nil
}

// Clone deep-copies n with fresh identities, performing no reference
// expansion — copying a node that still contains an unresolved ref
// sentinel is always finite and safe.
func (n *Node) Clone(seq *idSeq) *Node {
	if n == nil {
		return nil
	}
	c := newNode(seq, n.Type)
	c.Bool = n.Bool
	c.Str = n.Str
	c.RefTarget = n.RefTarget
	if n.Int64 != nil {
		v := *n.Int64
		c.Int64 = &v
	}
	if n.Float64 != nil {
		v := *n.Float64
		c.Float64 = &v
	}
	if n.Fields != nil {
		c.Fields = append([]string(nil), n.Fields...)
		c.Values = make([]*Node, len(n.Values))
		for i, v := range n.Values {
			c.Values[i] = v.Clone(seq)
		}
	}
	if n.Items != nil {
		c.Items = make([]*Node, len(n.Items))
		for i, v := range n.Items {
			c.Items[i] = v.Clone(seq)
		}
	}
	return c
}

// CountNodes returns the number of nodes in n's subtree, n included.
// Visit calls fn on both entry and exit for every node, so only the
// entry call is counted.
func CountNodes(n *Node) int {
	count := 0
	n.Visit(func(_ *Node, isPost bool) bool {
		if !isPost {
			count++
		}
		return true
	})
	return count
}

// Visit walks n depth-first, calling fn on entry (isPost=false) and on
// exit (isPost=true) for every node, leaves included. fn returning false
// on entry skips that subtree's children (and its own exit call).
func (n *Node) Visit(fn func(node *Node, isPost bool) bool) {
	if n == nil {
		return
	}
	if !fn(n, false) {
		return
	}
	switch n.Type {
	case ObjectType:
		for _, v := range n.Values {
			v.Visit(fn)
		}
	case ArrayType:
		for _, v := range n.Items {
			v.Visit(fn)
		}
	}
	fn(n, true)
}

// MarshalJSON renders the resolved value tree as JSON, used by the patch
// package's marshal -> apply -> unmarshal round trip. A RefType node
// marshals as its sentinel form since it only survives this long when
// unresolved.
func (n *Node) MarshalJSON() ([]byte, error) {
	if n == nil {
		return []byte("null"), nil
	}
	switch n.Type {
	case NullType:
		return []byte("null"), nil
	case BoolType:
		return json.Marshal(n.Bool)
	case NumberType:
		switch {
		case n.Int64 != nil:
			return json.Marshal(*n.Int64)
		case n.Float64 != nil:
			return json.Marshal(*n.Float64)
		}
		return []byte("0"), nil
	case StringType:
		return json.Marshal(n.Str)
	case ArrayType:
		return json.Marshal(n.Items)
	case ObjectType:
		buf := []byte{'{'}
		for i, f := range n.Fields {
			if i > 0 {
				buf = append(buf, ',')
			}
			k, err := json.Marshal(f)
			if err != nil {
				return nil, err
			}
			v, err := n.Values[i].MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf = append(buf, k...)
			buf = append(buf, ':')
			buf = append(buf, v...)
		}
		buf = append(buf, '}')
		return buf, nil
	case RefType:
		return json.Marshal(map[string]string{"$ref": n.RefTarget})
	default:
		return []byte("null"), nil
	}
}

// FromJSON converts decoded JSON (as produced by json.Unmarshal into
// any) back into a Node tree, assigning fresh identities from seq. Used
// on the return leg of the patch round trip.
func FromJSON(seq *idSeq, v interface{}) *Node {
	switch vv := v.(type) {
	case nil:
		return Null(seq)
	case bool:
		return fromBool(seq, vv)
	case float64:
		if vv == float64(int64(vv)) {
			return fromInt(seq, int64(vv))
		}
		return fromFloat(seq, vv)
	case string:
		return fromString(seq, vv)
	case []interface{}:
		n := newArray(seq)
		for _, item := range vv {
			n.Items = append(n.Items, FromJSON(seq, item))
		}
		return n
	case map[string]interface{}:
		n := newObject(seq)
		for k, val := range vv {
			n.set(k, FromJSON(seq, val))
		}
		return n
	default:
		return Null(seq)
	}
}
