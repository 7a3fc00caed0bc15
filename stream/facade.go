// Package stream provides a thin, push-based facade over the tokenizer
// and parser: write(chunk), peek(), end(), reset(), plus intent-focused
// convenience callbacks layered on the parser's event bus.
package stream

import (
	"time"

	"github.com/snrraptopack/slim/debug"
	"github.com/snrraptopack/slim/ir"
	"github.com/snrraptopack/slim/parse"
	"github.com/snrraptopack/slim/token"
)

// Option configures a Facade at construction time.
type Option func(*Facade)

// WithIndentSize forwards to the tokenizer.
func WithIndentSize(n int) Option {
	return func(f *Facade) { f.tokOpts = append(f.tokOpts, token.WithIndentSize(n)) }
}

// WithAllowTabs forwards to the tokenizer.
func WithAllowTabs(v bool) Option {
	return func(f *Facade) { f.tokOpts = append(f.tokOpts, token.WithAllowTabs(v)) }
}

// WithPreserveComments forwards to the tokenizer.
func WithPreserveComments(v bool) Option {
	return func(f *Facade) { f.tokOpts = append(f.tokOpts, token.WithPreserveComments(v)) }
}

// WithStrict controls Validate's promotion of warning-severity
// diagnostics to error severity. It has no effect on Peek or End — per
// the spec, strict only gates the validate-only API.
func WithStrict(v bool) Option {
	return func(f *Facade) { f.strict = v }
}

// WithIntentKeys overrides the default {"intent"} key set used both by
// the parser's intent_ready detection and by OnIntentPartial's scan.
func WithIntentKeys(keys ...string) Option {
	return func(f *Facade) {
		f.parseOpts = append(f.parseOpts, parse.WithIntentKeys(keys...))
		f.intentKeys = make(map[string]bool, len(keys))
		for _, k := range keys {
			f.intentKeys[k] = true
		}
	}
}

// Facade wires a Tokenizer to a Parser, feeding every drained token
// straight through, and builds IR on demand rather than continuously.
type Facade struct {
	tok *token.Tokenizer
	p   *parse.Parser

	tokOpts    []token.Option
	parseOpts  []parse.Option
	intentKeys map[string]bool
	strict     bool

	partial *partialWatch
}

// New constructs a Facade ready for Write.
func New(opts ...Option) *Facade {
	f := &Facade{intentKeys: map[string]bool{"intent": true}}
	for _, o := range opts {
		o(f)
	}
	f.tok = token.New(f.tokOpts...)
	f.p = parse.New(f.parseOpts...)
	return f
}

// Write appends chunk to the tokenizer and drains every token it yields
// into the parser, synchronously delivering any events produced.
func (f *Facade) Write(chunk []byte) {
	if debug.Stream() {
		debug.Logf("stream.Write: %d bytes\n", len(chunk))
	}
	f.tok.Write(chunk)
	for {
		tok, ok := f.tok.Next()
		if !ok {
			break
		}
		f.p.Feed(tok)
	}
}

// Peek builds an IR snapshot of the current (possibly partial) root
// frame without finalizing the tokenizer. Safe to call repeatedly
// between writes; callers that poll frequently should throttle.
func (f *Facade) Peek() *ir.Result {
	return ir.Build(f.p.Root())
}

// End finalizes the tokenizer, drains any closing tokens (synthesized
// Dedents and Eof), and returns the final IR build.
func (f *Facade) End() *ir.Result {
	for _, tok := range f.tok.Finalize() {
		f.p.Feed(tok)
	}
	return ir.Build(f.p.Root())
}

// Reset clears tokenizer and parser state, including the
// already-emitted-intent set, in place. Registered listeners survive
// since Parser.Reset never touches its event bus.
func (f *Facade) Reset() {
	f.tok.Reset()
	f.p.Reset()
	if f.partial != nil {
		f.partial.stop()
	}
}

// On forwards to the underlying parser's event bus.
func (f *Facade) On(kind parse.EventKind, h parse.Handler) parse.Subscription {
	return f.p.On(kind, h)
}

// Off forwards to the underlying parser's event bus.
func (f *Facade) Off(kind parse.EventKind, id parse.Subscription) {
	f.p.Off(kind, id)
}

// Diagnostics returns parser-level diagnostics accumulated so far.
func (f *Facade) Diagnostics() []parse.Diagnostic {
	return f.p.Diagnostics()
}

// Diagnostic is the facade's unified diagnostic shape: a tokenizer or
// parser note carries Pos, an IR note carries Path, never both.
type Diagnostic struct {
	Message  string
	Severity parse.Severity
	Pos      token.Position
	Path     []string
	Context  string
}

// Validate runs a read-only check over the current (possibly partial)
// root — tokenizer diagnostics, parser diagnostics, and a fresh IR build
// of the root — without mutating any state, and reports whether the
// document is clean. With WithStrict set, any warning-severity
// diagnostic is promoted to error severity before ok is computed, per
// the spec's "diagnostic with severity >= warning is promoted to error
// on validate-only API" rule; Peek and End never apply this promotion.
func (f *Facade) Validate() (ok bool, diags []Diagnostic) {
	for _, d := range f.tok.Diagnostics() {
		diags = append(diags, Diagnostic{Message: d.Message, Severity: parse.Severity(d.Severity), Pos: d.Pos})
	}
	for _, d := range f.p.Diagnostics() {
		diags = append(diags, Diagnostic{Message: d.Message, Severity: d.Severity, Pos: d.Pos, Context: d.Context})
	}
	res := ir.NewBuilder(ir.WithStrict(f.strict)).Build(f.p.Root())
	for _, d := range res.Diagnostics {
		diags = append(diags, Diagnostic{Message: d.Message, Severity: d.Severity, Path: d.Path})
	}

	ok = true
	for i := range diags {
		if f.strict && diags[i].Severity == parse.SeverityWarning {
			diags[i].Severity = parse.SeverityError
		}
		if diags[i].Severity == parse.SeverityError {
			ok = false
		}
	}
	return ok, diags
}

// IntentHandler receives a newly-ready intent's discriminator and the IR
// build of its subtree.
type IntentHandler func(intentType string, payload *ir.Node)

// OnIntentReady is a convenience wrapper around the intent_ready event:
// the handler receives the matched intent's "type" discriminator and an
// IR build of just that subtree.
func (f *Facade) OnIntentReady(h IntentHandler) parse.Subscription {
	return f.p.On(parse.EventIntentReady, func(e parse.Event) {
		h(e.IntentType, ir.Build(e.Node).Value)
	})
}

// PartialHandler receives the matched intent key and the current IR
// build of that key's subtree, ahead of intent_ready firing.
type PartialHandler func(key string, payload *ir.Node)

// OnIntentPartial scans the root mapping's intent-key entries after
// every value and block_end, emitting the current (possibly incomplete)
// IR build of each matched subtree. debounce, if non-zero, coalesces a
// burst of qualifying events behind a single timer so a handler doing
// expensive work (e.g. a UI repaint) isn't invoked once per token.
func (f *Facade) OnIntentPartial(h PartialHandler, debounce time.Duration) {
	pw := &partialWatch{f: f, handler: h, debounce: debounce}
	f.partial = pw
	fire := func(parse.Event) { pw.trigger() }
	f.p.On(parse.EventValue, fire)
	f.p.On(parse.EventBlockEnd, fire)
}

// partialWatch coalesces OnIntentPartial callbacks behind a single
// *time.Timer so a burst of value/block_end events inside one write only
// produces one scan per debounce window.
type partialWatch struct {
	f        *Facade
	handler  PartialHandler
	debounce time.Duration
	timer    *time.Timer
}

func (pw *partialWatch) trigger() {
	if pw.debounce <= 0 {
		pw.scan()
		return
	}
	if pw.timer != nil {
		pw.timer.Stop()
	}
	pw.timer = time.AfterFunc(pw.debounce, pw.scan)
}

func (pw *partialWatch) stop() {
	if pw.timer != nil {
		pw.timer.Stop()
		pw.timer = nil
	}
}

func (pw *partialWatch) scan() {
	root := pw.f.p.Root()
	if root.Kind != parse.KindMapping {
		return
	}
	for _, e := range root.Entries {
		if !pw.f.intentKeys[e.Key] || e.Value == nil {
			continue
		}
		pw.handler(e.Key, ir.Build(e.Value).Value)
	}
}
