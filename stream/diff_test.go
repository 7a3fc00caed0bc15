package stream

import (
	"testing"

	"github.com/snrraptopack/slim/ir"
	"github.com/snrraptopack/slim/parse"
	"github.com/snrraptopack/slim/token"
)

func buildIR(t *testing.T, src string) *ir.Node {
	t.Helper()
	tk := token.New()
	tk.Write([]byte(src))
	var toks []token.Token
	for {
		tok, ok := tk.Next()
		if !ok {
			break
		}
		toks = append(toks, tok)
	}
	toks = append(toks, tk.Finalize()...)
	p := parse.New()
	p.Consume(toks)
	return ir.Build(p.Root()).Value
}

func TestDiffDetectsChangedField(t *testing.T) {
	a := buildIR(t, "name: search\ncount: 1\n")
	b := buildIR(t, "name: search\ncount: 2\n")
	changes := Diff(a, b)
	if len(changes) != 1 || changes[0].Path != "count" || changes[0].Kind != Changed {
		t.Fatalf("changes = %+v", changes)
	}
}

func TestDiffDetectsAddedAndRemovedFields(t *testing.T) {
	a := buildIR(t, "name: search\n")
	b := buildIR(t, "count: 1\n")
	changes := Diff(a, b)
	if len(changes) != 2 {
		t.Fatalf("changes = %+v", changes)
	}
	var sawAdd, sawRemove bool
	for _, c := range changes {
		if c.Kind == Added && c.Path == "count" {
			sawAdd = true
		}
		if c.Kind == Removed && c.Path == "name" {
			sawRemove = true
		}
	}
	if !sawAdd || !sawRemove {
		t.Fatalf("changes = %+v", changes)
	}
}

func TestDiffNoChangesIsEmpty(t *testing.T) {
	a := buildIR(t, "a: 1\nb: two\n")
	b := buildIR(t, "a: 1\nb: two\n")
	if changes := Diff(a, b); len(changes) != 0 {
		t.Fatalf("changes = %+v", changes)
	}
}

func TestDiffRecursesIntoNestedObjects(t *testing.T) {
	a := buildIR(t, "outer:\n  inner: 1\n")
	b := buildIR(t, "outer:\n  inner: 2\n")
	changes := Diff(a, b)
	if len(changes) != 1 || changes[0].Path != "outer.inner" {
		t.Fatalf("changes = %+v", changes)
	}
}

func TestDiffArrayLengthChange(t *testing.T) {
	a := buildIR(t, "items:\n  - a\n  - b\n")
	b := buildIR(t, "items:\n  - a\n  - b\n  - c\n")
	changes := Diff(a, b)
	if len(changes) != 1 || changes[0].Path != "items[2]" || changes[0].Kind != Added {
		t.Fatalf("changes = %+v", changes)
	}
}
