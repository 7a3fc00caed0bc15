package parse

import (
	"github.com/snrraptopack/slim/debug"
	"github.com/snrraptopack/slim/token"
)

type frameKind int

const (
	frameMapping frameKind = iota
	frameSequence
)

type pendingKey struct {
	name string
	pos  token.Position
}

// frame is one level of the parser's open-block stack. Each frame owns
// its node: the node is attached into its parent's structure at push
// time (already), so popping never requires relocating anything.
type frame struct {
	kind    frameKind
	node    *Node
	indent  int
	pending *pendingKey
	isRoot  bool
}

// Option configures a Parser at construction time.
type Option func(*Parser)

// WithIntentKeys overrides the default {"intent"} intent-key set.
func WithIntentKeys(keys ...string) Option {
	return func(p *Parser) {
		p.intentKeys = make(map[string]bool, len(keys))
		for _, k := range keys {
			p.intentKeys[k] = true
		}
	}
}

// Parser builds an AST by maintaining a stack of open frames while
// consuming a token stream one token at a time, emitting structural
// events as it goes. It never aborts on malformed input: diagnostics are
// recorded and the parser produces its best-effort tree.
type Parser struct {
	seq        idSeq
	frames     []*frame
	b          bus
	intentKeys map[string]bool
	emitted    map[int]bool
	diags      []Diagnostic

	curIndent int

	// One-token lookahead for the Indent rule: whether the pending key's
	// (or sequence item's) next token is a Dash decides whether Indent
	// creates a nested mapping or defers to Dash. Since tokens arrive one
	// at a time, this decision is deferred to the token immediately
	// following Indent rather than resolved by buffering ahead.
	awaitingIndent bool
	indentPos      token.Position
	indentLevel    int
}

// New creates a Parser with the given options applied over the default
// intent-key set {"intent"}.
func New(opts ...Option) *Parser {
	p := &Parser{intentKeys: map[string]bool{"intent": true}}
	for _, o := range opts {
		o(p)
	}
	p.Reset()
	return p
}

// Reset clears tokens, the frame stack, and the emitted-intent set while
// preserving registered event listeners.
func (p *Parser) Reset() {
	p.seq = idSeq{}
	root := newMapping(&p.seq, token.Position{Line: 1, Column: 1, Offset: 0})
	p.frames = []*frame{{kind: frameMapping, node: root, indent: 0, isRoot: true}}
	p.emitted = make(map[int]bool)
	p.diags = nil
	p.curIndent = 0
	p.awaitingIndent = false
}

// Root returns the current root AST node. Safe to call between writes;
// it is not a snapshot, it is the live (possibly partial) tree.
func (p *Parser) Root() *Node { return p.frames[0].node }

// Diagnostics returns parser-level diagnostics accumulated so far.
func (p *Parser) Diagnostics() []Diagnostic { return p.diags }

// On registers h for events of kind, returning a Subscription usable
// with Off. Registration takes effect immediately.
func (p *Parser) On(kind EventKind, h Handler) Subscription { return p.b.on(kind, h) }

// Off removes a previously registered subscription.
func (p *Parser) Off(kind EventKind, id Subscription) { p.b.off(kind, id) }

func (p *Parser) top() *frame { return p.frames[len(p.frames)-1] }

func (p *Parser) push(f *frame) { p.frames = append(p.frames, f) }

func (p *Parser) diag(sev Severity, pos token.Position, msg string) {
	p.diags = append(p.diags, Diagnostic{Message: msg, Severity: sev, Pos: pos})
}

// flushPendingAsEmpty attaches f's pending key as an Empty(Mapping) entry,
// used whenever a frame is about to be popped or superseded while its key
// never received a value.
func (p *Parser) flushPendingAsEmpty(f *frame) {
	if f.kind != frameMapping || f.pending == nil {
		return
	}
	attachEntry(&p.seq, f.node, f.pending.name, f.pending.pos, newEmpty(&p.seq, f.pending.pos, HintMapping))
	f.pending = nil
}

// popTo pops frames until the top frame's indent is at most target,
// flushing each popped frame's pending key first and emitting one
// block_end per pop. Never pops the root frame.
func (p *Parser) popTo(target int) {
	for len(p.frames) > 1 && p.top().indent > target {
		p.flushPendingAsEmpty(p.top())
		p.frames = p.frames[:len(p.frames)-1]
		p.b.emit(Event{Kind: EventBlockEnd, Depth: len(p.frames)})
	}
}

// resolveIndent finishes the one-token-lookahead decision left open by a
// prior Indent token, using next (the token about to be dispatched) to
// decide what Indent meant.
func (p *Parser) resolveIndent(next token.Token) {
	if !p.awaitingIndent {
		return
	}
	p.awaitingIndent = false
	top := p.top()
	switch top.kind {
	case frameMapping:
		if next.Kind == token.Dash {
			return // Dash itself creates the sequence frame.
		}
		if top.pending == nil {
			// No key is waiting for a nested value: this Indent just raises
			// the indent level already recorded for the frame on top, most
			// commonly a mapping implicitly opened by a dash whose second
			// and later keys sit one column deeper than its first.
			top.indent = p.indentLevel
			return
		}
		child := newMapping(&p.seq, p.indentPos)
		attachEntry(&p.seq, top.node, top.pending.name, top.pending.pos, child)
		top.pending = nil
		p.push(&frame{kind: frameMapping, node: child, indent: p.indentLevel})
	case frameSequence:
		switch next.Kind {
		case token.Dash:
			child := newSequence(&p.seq, p.indentPos)
			top.node.Items = append(top.node.Items, child)
			p.push(&frame{kind: frameSequence, node: child, indent: p.indentLevel})
		case token.Key:
			child := newMapping(&p.seq, p.indentPos)
			top.node.Items = append(top.node.Items, child)
			p.push(&frame{kind: frameMapping, node: child, indent: p.indentLevel})
		default:
			// A bare indented scalar item: no new frame, the scalar lands
			// directly in this sequence when it arrives.
		}
	}
}

// Feed dispatches a single token, mutating the frame stack and AST and
// emitting any resulting events.
func (p *Parser) Feed(tok token.Token) {
	if debug.Parser() {
		debug.Logf("parse.Feed: %s\n", tok)
	}
	p.resolveIndent(tok)

	switch tok.Kind {
	case token.Key:
		p.feedKey(tok)
	case token.Colon:
		// The Key -> Colon -> value sequencing is implicit; no action.
	case token.Scalar, token.Quoted:
		p.feedValue(tok)
	case token.Dash:
		p.feedDash(tok)
	case token.Indent:
		p.awaitingIndent = true
		p.curIndent = tok.Indent
		p.indentPos = tok.Pos
		p.indentLevel = tok.Indent
		p.b.emit(Event{Kind: EventIndent, Pos: tok.Pos, Depth: tok.Indent})
	case token.Dedent:
		p.curIndent = tok.Indent
		p.popTo(tok.Indent)
		p.b.emit(Event{Kind: EventDedent, Pos: tok.Pos, Depth: tok.Indent})
		p.checkIntents()
	case token.Newline:
		// A pending key with no value before a Dedent/Eof is flushed by
		// popTo/Eof handling directly; Newline itself needs no action.
	case token.Comment:
		p.b.emit(Event{Kind: EventLine, Pos: tok.Pos, Text: tok.Text})
	case token.Eof:
		p.popTo(0)
		p.flushPendingAsEmpty(p.top())
		p.checkIntents()
	}
}

// Consume feeds a batch of tokens in order.
func (p *Parser) Consume(toks []token.Token) {
	for _, t := range toks {
		p.Feed(t)
	}
}

func (p *Parser) feedKey(tok token.Token) {
	top := p.top()
	if top.kind == frameSequence {
		// The item's mapping frame shares its dash's line, so it carries no
		// Indent token of its own; record it one level deeper than the
		// sequence so a same-indent Dash for the next item still pops it.
		child := newMapping(&p.seq, tok.Pos)
		top.node.Items = append(top.node.Items, child)
		p.push(&frame{kind: frameMapping, node: child, indent: top.indent + 1})
		top = p.top()
	} else if top.pending != nil {
		p.flushPendingAsEmpty(top)
	}
	top.pending = &pendingKey{name: tok.Text, pos: tok.Pos}
	p.b.emit(Event{Kind: EventKey, Key: tok.Text, Pos: tok.Pos})
}

func (p *Parser) feedValue(tok token.Token) {
	quoted := tok.Kind == token.Quoted
	top := p.top()
	node := newScalar(&p.seq, tok.Pos, tok.Text, quoted)
	switch {
	case top.kind == frameMapping && top.pending != nil:
		attachEntry(&p.seq, top.node, top.pending.name, top.pending.pos, node)
		top.pending = nil
	case top.kind == frameSequence:
		top.node.Items = append(top.node.Items, node)
	default:
		p.diag(SeverityWarning, tok.Pos, "scalar with no key or sequence context")
	}
	p.b.emit(Event{Kind: EventValue, Pos: tok.Pos, Text: tok.Text, Node: node})
}

func (p *Parser) feedDash(tok token.Token) {
	p.popTo(p.curIndent) // defensive: frames should already be at curIndent.
	top := p.top()
	switch {
	case top.kind == frameMapping && top.pending != nil:
		seqNode := newSequence(&p.seq, tok.Pos)
		attachEntry(&p.seq, top.node, top.pending.name, top.pending.pos, seqNode)
		top.pending = nil
		p.push(&frame{kind: frameSequence, node: seqNode, indent: p.curIndent})
	case top.kind == frameMapping && top.isRoot && len(top.node.Entries) == 0:
		top.node.Kind = KindSequence
		top.kind = frameSequence
	case top.kind == frameSequence:
		// Next item of the same sequence; nothing new to push.
	default:
		p.diag(SeverityWarning, tok.Pos, "dash with no enclosing sequence context")
	}
	p.b.emit(Event{Kind: EventBlockStart, Pos: tok.Pos, Depth: len(p.frames)})
}

// checkIntents inspects the root mapping's intent-key entries and emits
// intent_ready for any that newly qualify. Run after every Dedent and at
// Eof so handlers only see well-formed subtrees.
func (p *Parser) checkIntents() {
	root := p.Root()
	if root.Kind != KindMapping {
		return
	}
	for _, e := range root.Entries {
		if !p.intentKeys[e.Key] || e.Value == nil {
			continue
		}
		switch e.Value.Kind {
		case KindMapping:
			p.maybeEmitIntent(e.Value)
		case KindSequence:
			for _, item := range e.Value.Items {
				if item.Kind == KindMapping {
					p.maybeEmitIntent(item)
				}
			}
		}
	}
}

func (p *Parser) maybeEmitIntent(m *Node) {
	if p.emitted[m.id] {
		return
	}
	var (
		typ   string
		found bool
	)
	for _, e := range m.Entries {
		if e.Key == "type" && e.Value != nil && e.Value.Kind == KindScalar {
			typ = e.Value.Text
			found = true
		}
	}
	if !found {
		return
	}
	p.emitted[m.id] = true
	p.b.emit(Event{Kind: EventIntentReady, Node: m, IntentType: typ})
}
