package encode

import (
	"bytes"
	"strings"
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

func TestEncodePlainObject(t *testing.T) {
	v := buildIR(t, "a: 1\nb: hello\n")
	var buf bytes.Buffer
	if err := Encode(v, &buf, WithColor(false)); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `a:`) || !strings.Contains(out, "1") {
		t.Fatalf("missing field a: %q", out)
	}
	if !strings.Contains(out, `"hello"`) {
		t.Fatalf("expected quoted string value: %q", out)
	}
}

func TestEncodeEmptyObject(t *testing.T) {
	v := buildIR(t, "")
	var buf bytes.Buffer
	if err := Encode(v, &buf, WithColor(false)); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if buf.String() != "{}" {
		t.Fatalf("got %q", buf.String())
	}
}

func TestEncodeArrayAndRef(t *testing.T) {
	v := buildIR(t, "items:\n  - a\n  - b\nuse:\n  ref: missing\n")
	var buf bytes.Buffer
	if err := Encode(v, &buf, WithColor(false)); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "[") || !strings.Contains(out, "-") {
		t.Fatalf("expected array rendering: %q", out)
	}
	if !strings.Contains(out, "$ref:missing") {
		t.Fatalf("expected unresolved ref rendering: %q", out)
	}
}

func TestEncodeForcedColorDoesNotPanic(t *testing.T) {
	v := buildIR(t, "a: true\nb: null\nc: 1.5\n")
	var buf bytes.Buffer
	if err := Encode(v, &buf, WithColor(true)); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("expected non-empty colorized output")
	}
}
