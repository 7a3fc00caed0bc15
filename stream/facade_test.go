package stream

import (
	"testing"

	"github.com/snrraptopack/slim/ir"
	"github.com/snrraptopack/slim/parse"
)

func TestWritePeekEnd(t *testing.T) {
	f := New()
	f.Write([]byte("a: 1\nb: "))
	partial := f.Peek()
	if partial.Value.Type != ir.ObjectType {
		t.Fatalf("peek value = %#v", partial.Value)
	}
	f.Write([]byte("hello\n"))
	final := f.End()
	if len(final.Value.Fields) != 2 {
		t.Fatalf("fields = %v", final.Value.Fields)
	}
}

func TestPeekIdempotentBetweenWrites(t *testing.T) {
	f := New()
	f.Write([]byte("a:\n  b: 1\n"))
	r1 := f.Peek()
	r2 := f.Peek()
	if len(r1.Value.Fields) != len(r2.Value.Fields) {
		t.Fatalf("peek not idempotent: %v vs %v", r1.Value.Fields, r2.Value.Fields)
	}
}

func TestResetKeepsListeners(t *testing.T) {
	f := New()
	var fired int
	f.On(parse.EventKey, func(parse.Event) { fired++ })
	f.Write([]byte("a: 1\n"))
	f.Reset()
	f.Write([]byte("b: 2\n"))
	if fired != 2 {
		t.Fatalf("fired = %d, want 2", fired)
	}
}

func TestOnIntentReadyFiresOnceWithPayload(t *testing.T) {
	f := New()
	var gotType string
	var gotName string
	var calls int
	f.OnIntentReady(func(intentType string, payload *ir.Node) {
		calls++
		gotType = intentType
		for i, field := range payload.Fields {
			if field == "name" {
				gotName = payload.Values[i].Str
			}
		}
	})
	f.Write([]byte("intent:\n  type: tool_call\n  name: search\n"))
	f.End()
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	if gotType != "tool_call" {
		t.Fatalf("gotType = %q", gotType)
	}
	if gotName != "search" {
		t.Fatalf("gotName = %q", gotName)
	}
}

func TestValidateCleanDocumentSucceeds(t *testing.T) {
	f := New()
	f.Write([]byte("a: 1\nb: two\n"))
	f.End()
	ok, diags := f.Validate()
	if !ok || len(diags) != 0 {
		t.Fatalf("ok=%v diags=%v", ok, diags)
	}
}

func TestValidateNonStrictWarningDoesNotFail(t *testing.T) {
	f := New()
	f.Write([]byte("use:\n  ref: missing\n"))
	f.End()
	ok, diags := f.Validate()
	if !ok {
		t.Fatalf("expected ok=true for a non-strict warning, diags=%v", diags)
	}
	if len(diags) != 1 || diags[0].Severity != parse.SeverityWarning {
		t.Fatalf("diags = %v", diags)
	}
}

func TestValidateStrictPromotesWarningToError(t *testing.T) {
	f := New(WithStrict(true))
	f.Write([]byte("use:\n  ref: missing\n"))
	f.End()
	ok, diags := f.Validate()
	if ok {
		t.Fatalf("expected ok=false under strict, diags=%v", diags)
	}
	if len(diags) != 1 || diags[0].Severity != parse.SeverityError {
		t.Fatalf("diags = %v", diags)
	}
}

func TestOnIntentPartialScansBeforeReady(t *testing.T) {
	f := New()
	var calls int
	f.OnIntentPartial(func(key string, payload *ir.Node) {
		if key != "intent" {
			t.Fatalf("key = %q", key)
		}
		calls++
	}, 0)
	f.Write([]byte("intent:\n  type: "))
	f.Write([]byte("tool_call\n"))
	if calls == 0 {
		t.Fatal("expected at least one partial scan")
	}
}
