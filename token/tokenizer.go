package token

import (
	"strings"

	"github.com/snrraptopack/slim/debug"
)

// Option configures a Tokenizer at construction time.
type Option func(*config)

type config struct {
	indentSize       int
	allowTabs        bool
	preserveComments bool
}

// WithIndentSize sets the number of spaces per indent level. Default 2.
func WithIndentSize(n int) Option {
	return func(c *config) {
		if n >= 1 {
			c.indentSize = n
		}
	}
}

// WithAllowTabs controls only whether a tab used for indentation raises a
// warning diagnostic. A tab always counts as one full indent_size worth of
// columns regardless of this setting — see DESIGN.md's Open Question
// decision on tab handling.
func WithAllowTabs(v bool) Option {
	return func(c *config) { c.allowTabs = v }
}

// WithPreserveComments makes comment runs emit Comment tokens instead of
// being silently dropped.
func WithPreserveComments(v bool) Option {
	return func(c *config) { c.preserveComments = v }
}

func defaultConfig() config {
	return config{indentSize: 2, allowTabs: false, preserveComments: false}
}

// Tokenizer converts a growing, append-only character buffer into a stable
// token stream. Write is append-only and never scans; Next does all the
// work and withholds (returns ok=false) rather than guess at a token that
// more input could still change.
type Tokenizer struct {
	cfg config

	buf []byte
	cur cursor

	indentStack []int
	atLineStart bool
	finalizing  bool
	swallowNL   bool // a comment-only line was emitted; its newline is still unconsumed

	diags []Diagnostic
}

// New creates a Tokenizer with the given options applied over the defaults
// (indent_size=2, allow_tabs=false, preserve_comments=false).
func New(opts ...Option) *Tokenizer {
	t := &Tokenizer{}
	t.cfg = defaultConfig()
	for _, o := range opts {
		o(&t.cfg)
	}
	t.Reset()
	return t
}

// Reset drops the buffer and rebuilds initial state.
func (t *Tokenizer) Reset() {
	t.buf = nil
	t.cur = newCursor()
	t.indentStack = []int{0}
	t.atLineStart = true
	t.finalizing = false
	t.swallowNL = false
	t.diags = nil
}

// Write appends chunk to the buffer. Append-only: never scans contents.
func (t *Tokenizer) Write(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	if debug.Tokenizer() {
		debug.Logf("token.Write: %d bytes\n", len(chunk))
	}
	t.compact()
	t.buf = append(t.buf, chunk...)
}

// compact drops the already-consumed prefix so the buffer doesn't grow
// without bound across a long-running stream.
func (t *Tokenizer) compact() {
	if t.cur.buf == 0 {
		return
	}
	t.buf = append([]byte(nil), t.buf[t.cur.buf:]...)
	t.cur.buf = 0
}

// Diagnostics returns tokenizer-level diagnostics accumulated so far
// (tab-indentation and unterminated-quote warnings).
func (t *Tokenizer) Diagnostics() []Diagnostic {
	return t.diags
}

// Next returns the next token, or ok=false when the remaining buffer
// cannot yet produce a complete token without further input (or, once
// finalizing, when the stream is truly exhausted).
func (t *Tokenizer) Next() (Token, bool) {
	for {
		if t.swallowNL {
			if !t.consumeOptionalNewline() {
				return Token{}, false
			}
			continue
		}
		if t.atLineStart {
			tok, ok, cont := t.lineStart()
			if cont {
				continue
			}
			return tok, ok
		}
		return t.content()
	}
}

// Finalize sets the finishing flag, drains remaining tokens (now allowed
// to resolve even if partial), then returns them followed by synthetic
// Dedents closing every open indent level and a single terminal Eof.
func (t *Tokenizer) Finalize() []Token {
	t.finalizing = true
	var out []Token
	for {
		tok, ok := t.Next()
		if !ok {
			break
		}
		out = append(out, tok)
	}
	for len(t.indentStack) > 1 {
		t.indentStack = t.indentStack[:len(t.indentStack)-1]
		out = append(out, Token{Kind: Dedent, Pos: t.cur.pos, Indent: t.indentStack[len(t.indentStack)-1]})
	}
	out = append(out, Token{Kind: Eof, Pos: t.cur.pos})
	return out
}

// consumeOptionalNewline eats the newline left dangling after a
// comment-only line, without emitting a Newline token for it (blank and
// comment-only lines never perturb the parser with a Newline event).
func (t *Tokenizer) consumeOptionalNewline() bool {
	if t.cur.buf >= len(t.buf) {
		if !t.finalizing {
			return false
		}
		t.swallowNL = false
		t.atLineStart = true
		return true
	}
	b := t.buf[t.cur.buf]
	if b == '\n' {
		t.cur.advance(b)
	}
	t.swallowNL = false
	t.atLineStart = true
	return true
}

// lineStart measures leading whitespace and resolves indentation. Returns
// cont=true when the caller's Next loop should immediately re-evaluate
// state without returning to its own caller (e.g. a blank line was fully
// absorbed, or indentation matched the current level and content parsing
// should begin right away).
func (t *Tokenizer) lineStart() (Token, bool, bool) {
	i := t.cur.buf
	width := 0
	sawTab := false
	for i < len(t.buf) {
		switch t.buf[i] {
		case ' ':
			width++
			i++
		case '\t':
			width += t.cfg.indentSize
			sawTab = true
			i++
		default:
			goto measured
		}
	}
	if !t.finalizing {
		return Token{}, false, false
	}
measured:
	atEnd := i >= len(t.buf)
	var next byte
	if !atEnd {
		next = t.buf[i]
	}

	switch {
	case atEnd:
		// Only reachable while finalizing: a trailing blank/whitespace-only
		// tail with no newline. Nothing more to measure.
		t.commitThrough(i)
		return Token{}, false, false

	case next == '\n':
		// Blank line: fully absorbed, indent stack untouched.
		t.commitThrough(i + 1)
		return Token{}, true, true

	case next == '#':
		commentEnd := i
		for commentEnd < len(t.buf) && t.buf[commentEnd] != '\n' {
			commentEnd++
		}
		if commentEnd >= len(t.buf) && !t.finalizing {
			return Token{}, false, false
		}
		text := string(t.buf[i:commentEnd])
		pos := t.posAt(i)
		t.commitThrough(commentEnd)
		t.swallowNL = true
		if t.cfg.preserveComments {
			return Token{Kind: Comment, Text: text, Pos: pos}, true, false
		}
		return Token{}, true, true

	default:
		if sawTab && !t.cfg.allowTabs {
			t.diags = append(t.diags, Diagnostic{
				Message:  "tab used for indentation",
				Severity: SeverityWarning,
				Pos:      t.posAt(0),
			})
		}
		level := width / t.cfg.indentSize
		top := t.indentStack[len(t.indentStack)-1]
		switch {
		case level > top:
			t.indentStack = append(t.indentStack, level)
			pos := t.cur.pos
			t.commitThrough(i)
			t.atLineStart = false
			return Token{Kind: Indent, Pos: pos, Indent: level}, true, false
		case level < top:
			t.indentStack = t.indentStack[:len(t.indentStack)-1]
			return Token{Kind: Dedent, Pos: t.cur.pos, Indent: t.indentStack[len(t.indentStack)-1]}, true, false
		default:
			t.commitThrough(i)
			t.atLineStart = false
			return Token{}, true, true
		}
	}
}

// posAt returns the Position the buffer index buf[t.cur.buf+rel] would
// have, without committing anything.
func (t *Tokenizer) posAt(rel int) Position {
	p := t.cur.pos
	for k := 0; k < rel; k++ {
		if t.buf[t.cur.buf+k] == '\n' {
			p.Line++
			p.Column = 1
		} else {
			p.Column++
		}
		p.Offset++
	}
	return p
}

// commitThrough advances the committed cursor up to (not including) buffer
// index target.
func (t *Tokenizer) commitThrough(target int) {
	for t.cur.buf < target {
		t.cur.advance(t.buf[t.cur.buf])
	}
}

// content handles mid-line token scanning: everything other than
// indentation measurement.
func (t *Tokenizer) content() (Token, bool) {
	// Skip inline spaces/tabs quietly.
	for t.cur.buf < len(t.buf) && (t.buf[t.cur.buf] == ' ' || t.buf[t.cur.buf] == '\t') {
		t.cur.advance(t.buf[t.cur.buf])
	}
	if t.cur.buf >= len(t.buf) {
		if t.finalizing {
			return Token{}, false
		}
		return Token{}, false
	}

	b := t.buf[t.cur.buf]
	switch {
	case b == '\n':
		pos := t.cur.pos
		t.cur.advance(b)
		t.atLineStart = true
		return Token{Kind: Newline, Pos: pos}, true

	case b == '#':
		return t.scanComment()

	case b == ':':
		return t.colonToken()

	case b == '-':
		return t.scanDashOrBareword()

	case b == '"' || b == '\'':
		return t.scanQuoted(b)

	case b == '|':
		return t.scanLiteralBlock()

	case b == '{' || b == '[':
		return t.scanInlineFlow()

	default:
		return t.scanKeyOrScalar()
	}
}

func (t *Tokenizer) scanComment() (Token, bool) {
	start := t.cur.buf
	i := start
	for i < len(t.buf) && t.buf[i] != '\n' {
		i++
	}
	if i >= len(t.buf) && !t.finalizing {
		return Token{}, false
	}
	pos := t.cur.pos
	text := string(t.buf[start:i])
	t.commitThrough(i)
	if t.cfg.preserveComments {
		return Token{Kind: Comment, Text: text, Pos: pos}, true
	}
	return t.content()
}

func (t *Tokenizer) scanDashOrBareword() (Token, bool) {
	start := t.cur.buf
	if start+1 >= len(t.buf) {
		if !t.finalizing {
			return Token{}, false
		}
		// A lone '-' at end of input with nothing following: treated as
		// the start of a bareword scalar, same as scanKeyOrScalar would.
		return t.scanKeyOrScalar()
	}
	if t.buf[start+1] == ' ' {
		pos := t.cur.pos
		t.cur.advance(t.buf[start])
		t.cur.advance(t.buf[start+1])
		return Token{Kind: Dash, Pos: pos}, true
	}
	return t.scanKeyOrScalar()
}

func (t *Tokenizer) scanQuoted(q byte) (Token, bool) {
	start := t.cur.buf
	pos := t.cur.pos
	i := start + 1
	var sb strings.Builder
	for i < len(t.buf) {
		c := t.buf[i]
		switch {
		case c == q:
			text := sb.String()
			t.commitThrough(i + 1)
			return Token{Kind: Quoted, Text: text, Pos: pos}, true
		case c == '\n':
			// Unterminated on this line: stop here, do not consume the
			// newline, and record a warning diagnostic.
			t.diags = append(t.diags, Diagnostic{
				Message:  "unterminated quoted scalar",
				Severity: SeverityWarning,
				Pos:      pos,
			})
			text := sb.String()
			t.commitThrough(i)
			return Token{Kind: Quoted, Text: text, Pos: pos}, true
		case c == '\\' && i+1 < len(t.buf):
			esc := t.buf[i+1]
			switch esc {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '\\':
				sb.WriteByte('\\')
			case '"':
				sb.WriteByte('"')
			case '\'':
				sb.WriteByte('\'')
			default:
				sb.WriteByte(esc)
			}
			i += 2
		case c == '\\' && i+1 >= len(t.buf):
			if !t.finalizing {
				return Token{}, false
			}
			sb.WriteByte('\\')
			i++
		default:
			sb.WriteByte(c)
			i++
		}
	}
	if !t.finalizing {
		return Token{}, false
	}
	t.diags = append(t.diags, Diagnostic{
		Message:  "unterminated quoted scalar",
		Severity: SeverityWarning,
		Pos:      pos,
	})
	text := sb.String()
	t.commitThrough(i)
	return Token{Kind: Quoted, Text: text, Pos: pos}, true
}

// scanLiteralBlock reads a `|` block scalar: the rest of the `|` line is
// discarded, then every following line indented at least as much as the
// first non-blank content line is un-indented by that same amount and
// joined with "\n". The block ends at the first line indented less than
// that baseline, or at Eof.
func (t *Tokenizer) scanLiteralBlock() (Token, bool) {
	start := t.cur.buf
	pos := t.cur.pos
	i := start + 1
	for i < len(t.buf) && t.buf[i] != '\n' {
		i++
	}
	if i >= len(t.buf) {
		if !t.finalizing {
			return Token{}, false
		}
		t.commitThrough(i)
		return Token{Kind: Scalar, Text: "", Pos: pos}, true
	}
	i++ // consume header newline

	var lines []string
	baseline := -1
	lineStart := i
	for {
		j := lineStart
		width := 0
		for j < len(t.buf) {
			switch t.buf[j] {
			case ' ':
				width++
				j++
				continue
			case '\t':
				width += t.cfg.indentSize
				j++
				continue
			}
			break
		}
		if j >= len(t.buf) {
			if !t.finalizing {
				return Token{}, false
			}
			// Eof ends the block; this partial line is not part of it.
			break
		}
		if t.buf[j] == '\n' {
			// Blank line inside (or after) the block.
			if baseline < 0 {
				lineStart = j + 1
				continue
			}
			lines = append(lines, "")
			lineStart = j + 1
			continue
		}
		if baseline < 0 {
			if width == 0 {
				// First content line has zero indent: it belongs to the
				// enclosing structure, not this block. Yield empty string
				// without consuming it.
				break
			}
			baseline = width
		}
		if width < baseline {
			break
		}
		// Strip exactly `baseline` worth of leading whitespace, preserving
		// any extra indentation beyond it as literal content.
		stripPos := lineStart
		stripped := 0
		for stripped < baseline {
			switch t.buf[stripPos] {
			case ' ':
				stripped++
			case '\t':
				stripped += t.cfg.indentSize
			}
			stripPos++
		}
		lineEnd := j
		for lineEnd < len(t.buf) && t.buf[lineEnd] != '\n' {
			lineEnd++
		}
		if lineEnd >= len(t.buf) && !t.finalizing {
			return Token{}, false
		}
		lines = append(lines, string(t.buf[stripPos:lineEnd]))
		if lineEnd >= len(t.buf) {
			lineStart = lineEnd
			break
		}
		lineStart = lineEnd + 1
	}
	t.commitThrough(lineStart)
	// The block always ends exactly at the start of a line (the first line
	// that isn't part of it, or Eof) — restore line-start scanning so that
	// line's indentation is measured instead of parsed as mid-line content.
	t.atLineStart = true
	return Token{Kind: Scalar, Text: strings.Join(lines, "\n"), Pos: pos}, true
}

// scanInlineFlow captures a `{...}` or `[...]` span verbatim, tracking
// bracket depth only to find the end — the interior is never parsed. The
// span ends at the matching close at depth 0, or at a newline, whichever
// comes first.
func (t *Tokenizer) scanInlineFlow() (Token, bool) {
	start := t.cur.buf
	pos := t.cur.pos
	depth := 0
	i := start
	for i < len(t.buf) {
		switch t.buf[i] {
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				text := string(t.buf[start : i+1])
				t.commitThrough(i + 1)
				return Token{Kind: Scalar, Text: text, Pos: pos}, true
			}
		case '\n':
			text := string(t.buf[start:i])
			t.commitThrough(i)
			return Token{Kind: Scalar, Text: text, Pos: pos}, true
		}
		i++
	}
	if !t.finalizing {
		return Token{}, false
	}
	text := string(t.buf[start:i])
	t.commitThrough(i)
	return Token{Kind: Scalar, Text: text, Pos: pos}, true
}

// scanKeyOrScalar reads a bareword run. If it ends at a ':' immediately
// followed by space/newline/Eof, it is a Key (the colon itself is left
// unconsumed for the next call to produce as its own Colon token).
// Otherwise it is a Scalar, terminated by newline, '#', or Eof.
func (t *Tokenizer) scanKeyOrScalar() (Token, bool) {
	start := t.cur.buf
	pos := t.cur.pos
	i := start
	for i < len(t.buf) {
		c := t.buf[i]
		switch c {
		case '\n':
			text := strings.TrimRight(string(t.buf[start:i]), " \t")
			t.commitThrough(i)
			return Token{Kind: Scalar, Text: text, Pos: pos}, true
		case '#':
			text := strings.TrimRight(string(t.buf[start:i]), " \t")
			t.commitThrough(i)
			return Token{Kind: Scalar, Text: text, Pos: pos}, true
		case ':':
			if i+1 >= len(t.buf) {
				if !t.finalizing {
					return Token{}, false
				}
				text := string(t.buf[start:i])
				t.commitThrough(i)
				return Token{Kind: Key, Text: text, Pos: pos}, true
			}
			if t.buf[i+1] == ' ' || t.buf[i+1] == '\n' {
				text := string(t.buf[start:i])
				t.commitThrough(i)
				return Token{Kind: Key, Text: text, Pos: pos}, true
			}
			i++
		default:
			i++
		}
	}
	if !t.finalizing {
		return Token{}, false
	}
	text := strings.TrimRight(string(t.buf[start:i]), " \t")
	t.commitThrough(i)
	return Token{Kind: Scalar, Text: text, Pos: pos}, true
}

// colonToken consumes a `:` that scanKeyOrScalar left unconsumed, plus the
// single separating space if present. Called by content() when the
// current byte is ':'.
func (t *Tokenizer) colonToken() (Token, bool) {
	pos := t.cur.pos
	t.cur.advance(t.buf[t.cur.buf]) // ':'
	if t.cur.buf < len(t.buf) && t.buf[t.cur.buf] == ' ' {
		t.cur.advance(t.buf[t.cur.buf])
	}
	return Token{Kind: Colon, Pos: pos}, true
}
