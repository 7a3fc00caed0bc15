package patch

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

func objField(n *ir.Node, key string) *ir.Node {
	for i, f := range n.Fields {
		if f == key {
			return n.Values[i]
		}
	}
	return nil
}

func TestApplyReplace(t *testing.T) {
	v := buildIR(t, "name: search\ncount: 1\n")
	out, err := Apply(v, []byte(`[{"op":"replace","path":"/count","value":2}]`))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	count := objField(out, "count")
	if count == nil || count.Int64 == nil || *count.Int64 != 2 {
		t.Fatalf("count = %#v", count)
	}
	name := objField(out, "name")
	if name == nil || name.Str != "search" {
		t.Fatalf("name = %#v", name)
	}
}

func TestApplyAdd(t *testing.T) {
	v := buildIR(t, "name: search\n")
	out, err := Apply(v, []byte(`[{"op":"add","path":"/extra","value":"x"}]`))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	extra := objField(out, "extra")
	if extra == nil || extra.Str != "x" {
		t.Fatalf("extra = %#v", extra)
	}
}

func TestApplyInvalidPatchErrors(t *testing.T) {
	v := buildIR(t, "a: 1\n")
	if _, err := Apply(v, []byte(`not json`)); err == nil {
		t.Fatal("expected error for invalid patch document")
	}
}
