package ir

import (
	"fmt"
	"strconv"

	"github.com/snrraptopack/slim/debug"
	"github.com/snrraptopack/slim/parse"
)

// Result is what a Builder run produces: the resolved value tree, a
// snapshot of every id-registered object seen along the way, any
// reference that never resolved (left as its original sentinel in
// Value), and any build-time diagnostics.
type Result struct {
	Value          *Node
	Registry       map[string]*Node
	UnresolvedRefs []string
	Diagnostics    []Diagnostic
}

// Option configures a Builder at construction time.
type Option func(*Builder)

// WithStrict controls whether a duplicate mapping key is recorded as a
// warning-severity Diagnostic. Non-strict builds never record it — the
// spec treats duplicate keys as a non-error, last-write-wins outcome,
// with the diagnostic itself being strict-mode-only.
func WithStrict(v bool) Option {
	return func(b *Builder) { b.strict = v }
}

// Builder runs the three-pass AST -> IR pipeline: coerce scalars and
// assemble containers while registering id-tagged objects (pass 1),
// resolve $ref sentinels and bare array-item id strings against that
// registry with cycle safety (pass 2), then lift any mapping that is
// purely a ref wrapper to the value it wraps (pass 3).
type Builder struct {
	seq      idSeq
	registry *Registry
	strict   bool
	errs     []Diagnostic
}

// NewBuilder returns a Builder ready for a single Build call. Builders
// are not reused across documents — each carries its own identity space
// and registry.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{registry: newRegistry()}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Build converts an AST produced by the parse package into a Result.
func (b *Builder) Build(root *parse.Node) *Result {
	raw := b.astToRaw(root, nil)

	res := &resolver{seq: &b.seq, registry: b.registry, resolving: make(map[int]bool)}
	res.walkRoot(raw, nil)

	lifted := liftRefs(raw)

	diags := append(append([]Diagnostic(nil), b.errs...), res.diags...)

	if debug.Build() {
		debug.Logf("ir.Build: %d nodes, %d registered ids, %d unresolved refs, %d diagnostics\n",
			CountNodes(lifted), len(b.registry.Snapshot()), len(res.unresolved), len(diags))
	}

	return &Result{
		Value:          lifted,
		Registry:       b.registry.Snapshot(),
		UnresolvedRefs: res.unresolved,
		Diagnostics:    diags,
	}
}

// Build is the common-case entry point: parse a single AST with a fresh
// Builder and registry.
func Build(root *parse.Node, opts ...Option) *Result {
	return NewBuilder(opts...).Build(root)
}

func (b *Builder) astToRaw(n *parse.Node, path []string) *Node {
	if n == nil {
		return Null(&b.seq)
	}
	switch n.Kind {
	case parse.KindScalar:
		if n.Quoted {
			return fromString(&b.seq, n.Text)
		}
		return b.coerceScalar(n.Text)

	case parse.KindMapping:
		obj := newObject(&b.seq)
		for _, e := range n.Entries {
			v := b.astToRaw(e.Value, appendPath(path, e.Key))
			if b.strict && obj.get(e.Key) != nil {
				b.errs = append(b.errs, Diagnostic{
					Message:  fmt.Sprintf("duplicate mapping key %q", e.Key),
					Severity: parse.SeverityWarning,
					Path:     appendPath(path, e.Key),
				})
			}
			obj.set(e.Key, v)
			if e.Key == "id" && v.Type == StringType {
				// Register the object built so far — further entries still
				// mutate this same pointer, so a later lookup sees the
				// complete object even though registration happened here.
				b.registry.Register(v.Str, obj)
			}
		}
		return obj

	case parse.KindSequence:
		arr := newArray(&b.seq)
		for i, item := range n.Items {
			arr.Items = append(arr.Items, b.astToRaw(item, appendPath(path, "["+strconv.Itoa(i)+"]")))
		}
		return arr

	case parse.KindRef:
		return newRef(&b.seq, n.Target)

	case parse.KindEmpty:
		if n.Hint == parse.HintSequence {
			return newArray(&b.seq)
		}
		return newObject(&b.seq)

	default:
		return Null(&b.seq)
	}
}

// resolver carries pass-2 state: the identity seq nodes are cloned with,
// the registry refs are resolved against, and the "currently resolving"
// set that makes a self-referencing chain terminate instead of looping.
type resolver struct {
	seq        *idSeq
	registry   *Registry
	resolving  map[int]bool
	unresolved []string
	diags      []Diagnostic
}

func (r *resolver) walkRoot(n *Node, path []string) {
	switch n.Type {
	case ObjectType:
		for i, v := range n.Values {
			n.Values[i] = r.resolveObjectValue(v, appendPath(path, n.Fields[i]))
		}
	case ArrayType:
		for i, v := range n.Items {
			n.Items[i] = r.resolveArrayItem(v, appendPath(path, "["+strconv.Itoa(i)+"]"))
		}
	}
}

func (r *resolver) resolveObjectValue(v *Node, path []string) *Node {
	if v.Type == RefType {
		return r.expand(v.RefTarget, v, path)
	}
	r.walkRoot(v, path)
	return v
}

func (r *resolver) resolveArrayItem(v *Node, path []string) *Node {
	if v.Type == RefType {
		return r.expand(v.RefTarget, v, path)
	}
	if v.Type == StringType {
		if target := r.registry.Lookup(v.Str); target != nil {
			return r.expandNode(v.Str, target, v, path)
		}
	}
	r.walkRoot(v, path)
	return v
}

func (r *resolver) expand(target string, sentinel *Node, path []string) *Node {
	reg := r.registry.Lookup(target)
	if reg == nil {
		r.unresolved = append(r.unresolved, target)
		r.diags = append(r.diags, Diagnostic{
			Message:  fmt.Sprintf("unresolved reference %q", target),
			Severity: parse.SeverityWarning,
			Path:     path,
		})
		return sentinel
	}
	return r.expandNode(target, reg, sentinel, path)
}

func (r *resolver) expandNode(target string, reg, sentinel *Node, path []string) *Node {
	if r.resolving[reg.id] {
		r.unresolved = append(r.unresolved, target)
		r.diags = append(r.diags, Diagnostic{
			Message:  fmt.Sprintf("reference cycle at %q", target),
			Severity: parse.SeverityWarning,
			Path:     path,
		})
		return sentinel
	}
	r.resolving[reg.id] = true
	clone := reg.Clone(r.seq)
	r.walkRoot(clone, path)
	delete(r.resolving, reg.id)
	return clone
}

// liftRefs collapses any object whose only entry is literally "ref" down
// to that entry's (already-resolved) value, recursively and
// idempotently.
func liftRefs(n *Node) *Node {
	if n == nil {
		return n
	}
	switch n.Type {
	case ObjectType:
		for i, v := range n.Values {
			n.Values[i] = liftRefs(v)
		}
		if len(n.Fields) == 1 && n.Fields[0] == refFieldName {
			return n.Values[0]
		}
		return n
	case ArrayType:
		for i, v := range n.Items {
			n.Items[i] = liftRefs(v)
		}
		return n
	default:
		return n
	}
}

const refFieldName = "ref"
