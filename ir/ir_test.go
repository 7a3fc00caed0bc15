package ir

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/snrraptopack/slim/parse"
	"github.com/snrraptopack/slim/token"
)

// nodeCmpOpts ignores Node's unexported identity field: build-assigned
// ids depend on the order a Builder constructs nodes in (and the
// hand-built expected trees below, which never go through a Builder at
// all, number theirs independently), but structural shape is what these
// tests care about.
var nodeCmpOpts = cmp.Options{cmpopts.IgnoreUnexported(Node{})}

func parseDoc(t *testing.T, src string) *parse.Node {
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
	return p.Root()
}

func objField(n *Node, key string) *Node {
	for i, f := range n.Fields {
		if f == key {
			return n.Values[i]
		}
	}
	return nil
}

func TestScalarCoercion(t *testing.T) {
	root := parseDoc(t, "a: null\nb: true\nc: false\nd: 22\ne: 1.5\nf: 1e3\ng: hello\nh: \"22\"\n")
	res := Build(root)
	v := res.Value
	if objField(v, "a").Type != NullType {
		t.Fatalf("a = %#v", objField(v, "a"))
	}
	if b := objField(v, "b"); b.Type != BoolType || !b.Bool {
		t.Fatalf("b = %#v", b)
	}
	if c := objField(v, "c"); c.Type != BoolType || c.Bool {
		t.Fatalf("c = %#v", c)
	}
	if d := objField(v, "d"); d.Type != NumberType || d.Int64 == nil || *d.Int64 != 22 {
		t.Fatalf("d = %#v", d)
	}
	if e := objField(v, "e"); e.Type != NumberType || e.Float64 == nil || *e.Float64 != 1.5 {
		t.Fatalf("e = %#v", e)
	}
	if f := objField(v, "f"); f.Type != NumberType || f.Float64 == nil || *f.Float64 != 1000 {
		t.Fatalf("f = %#v", f)
	}
	if g := objField(v, "g"); g.Type != StringType || g.Str != "hello" {
		t.Fatalf("g = %#v", g)
	}
	if h := objField(v, "h"); h.Type != StringType || h.Str != "22" {
		t.Fatalf("h = %#v (quoted scalar must stay a string)", h)
	}
}

func TestScientificNotationWithoutFractionDigitsCoerces(t *testing.T) {
	root := parseDoc(t, "a: 1.e3\nb: 2e5\n")
	res := Build(root)
	v := res.Value
	if a := objField(v, "a"); a.Type != NumberType || a.Float64 == nil || *a.Float64 != 1000 {
		t.Fatalf("a = %#v", a)
	}
	if b := objField(v, "b"); b.Type != NumberType || b.Float64 == nil || *b.Float64 != 200000 {
		t.Fatalf("b = %#v", b)
	}
}

func TestRefResolution(t *testing.T) {
	root := parseDoc(t, "base:\n  id: shared\n  val: 1\nuse:\n  ref: shared\n")
	res := Build(root)
	use := objField(res.Value, "use")
	if use.Type != ObjectType || objField(use, "val") == nil || objField(use, "val").Int64 == nil || *objField(use, "val").Int64 != 1 {
		t.Fatalf("use = %#v", use)
	}
	if len(res.UnresolvedRefs) != 0 {
		t.Fatalf("unresolved = %v", res.UnresolvedRefs)
	}
}

func TestUnresolvedRefLeavesSentinel(t *testing.T) {
	root := parseDoc(t, "use:\n  ref: missing\n")
	res := Build(root)
	if len(res.UnresolvedRefs) != 1 || res.UnresolvedRefs[0] != "missing" {
		t.Fatalf("unresolved = %v", res.UnresolvedRefs)
	}
	use := objField(res.Value, "use")
	if use.Type != RefType || use.RefTarget != "missing" {
		t.Fatalf("use = %#v", use)
	}
}

func TestSelfReferenceCycleTerminates(t *testing.T) {
	root := parseDoc(t, "node:\n  id: self\n  child:\n    ref: self\n")
	res := Build(root)
	node := objField(res.Value, "node")
	child := objField(node, "child")
	if child.Type != ObjectType {
		t.Fatalf("child = %#v", child)
	}
	grandchild := objField(child, "child")
	if grandchild == nil || grandchild.Type != RefType || grandchild.RefTarget != "self" {
		t.Fatalf("grandchild = %#v", grandchild)
	}
	if len(res.UnresolvedRefs) != 1 {
		t.Fatalf("unresolved = %v", res.UnresolvedRefs)
	}
}

func TestArrayBareStringResolvesAgainstRegistry(t *testing.T) {
	root := parseDoc(t, "base:\n  id: shared\n  val: 9\nitems:\n  - shared\n  - other\n")
	res := Build(root)
	items := objField(res.Value, "items")
	if items.Type != ArrayType || len(items.Items) != 2 {
		t.Fatalf("items = %#v", items)
	}
	if items.Items[0].Type != ObjectType || objField(items.Items[0], "val").Int64 == nil || *objField(items.Items[0], "val").Int64 != 9 {
		t.Fatalf("items[0] = %#v", items.Items[0])
	}
	if items.Items[1].Type != StringType || items.Items[1].Str != "other" {
		t.Fatalf("items[1] = %#v", items.Items[1])
	}
}

func TestEmptyInputYieldsEmptyObject(t *testing.T) {
	root := parseDoc(t, "")
	res := Build(root)
	if res.Value.Type != ObjectType || len(res.Value.Fields) != 0 {
		t.Fatalf("value = %#v", res.Value)
	}
}

func TestDuplicateKeyLastWins(t *testing.T) {
	root := parseDoc(t, "a: 1\na: 2\n")
	res := Build(root)
	if len(res.Value.Fields) != 1 {
		t.Fatalf("fields = %v", res.Value.Fields)
	}
	a := objField(res.Value, "a")
	if a.Int64 == nil || *a.Int64 != 2 {
		t.Fatalf("a = %#v", a)
	}
}

func TestStrictDuplicateKeyRecordsDiagnosticWithPath(t *testing.T) {
	root := parseDoc(t, "outer:\n  a: 1\n  a: 2\n")
	res := Build(root, WithStrict(true))
	var found *Diagnostic
	for i, d := range res.Diagnostics {
		if d.Severity == parse.SeverityWarning {
			found = &res.Diagnostics[i]
		}
	}
	if found == nil {
		t.Fatalf("no duplicate-key diagnostic recorded: %v", res.Diagnostics)
	}
	if len(found.Path) != 2 || found.Path[0] != "outer" || found.Path[1] != "a" {
		t.Fatalf("path = %v", found.Path)
	}
}

func TestNonStrictDuplicateKeyRecordsNoDiagnostic(t *testing.T) {
	root := parseDoc(t, "a: 1\na: 2\n")
	res := Build(root)
	if len(res.Diagnostics) != 0 {
		t.Fatalf("diagnostics = %v", res.Diagnostics)
	}
}

func TestUnresolvedRefDiagnosticCarriesPath(t *testing.T) {
	root := parseDoc(t, "use:\n  ref: missing\n")
	res := Build(root)
	if len(res.Diagnostics) != 1 {
		t.Fatalf("diagnostics = %v", res.Diagnostics)
	}
	d := res.Diagnostics[0]
	if len(d.Path) != 2 || d.Path[0] != "use" || d.Path[1] != "ref" {
		t.Fatalf("path = %v", d.Path)
	}
}

func TestBuildMatchesHandConstructedTree(t *testing.T) {
	root := parseDoc(t, "name: search\ncount: 2\ntags:\n  - x\n  - y\n")
	got := Build(root).Value

	var seq idSeq
	want := newObject(&seq)
	want.set("name", fromString(&seq, "search"))
	want.set("count", fromInt(&seq, 2))
	tags := newArray(&seq)
	tags.Items = append(tags.Items, fromString(&seq, "x"), fromString(&seq, "y"))
	want.set("tags", tags)

	if diff := cmp.Diff(want, got, nodeCmpOpts); diff != "" {
		t.Fatalf("build mismatch (-want +got):\n%s", diff)
	}
}
