// Package token implements the incremental tokenizer: it turns an
// append-only character buffer into a stream of Tokens with correct
// indentation semantics, withholding any token that cannot yet be proven
// complete so that streaming input never produces a premature result.
package token

import "fmt"

// Kind discriminates the ten token shapes the tokenizer can produce.
type Kind int

const (
	Key Kind = iota
	Colon
	Dash
	Scalar
	Quoted
	Indent
	Dedent
	Newline
	Comment
	Eof
)

func (k Kind) String() string {
	switch k {
	case Key:
		return "Key"
	case Colon:
		return "Colon"
	case Dash:
		return "Dash"
	case Scalar:
		return "Scalar"
	case Quoted:
		return "Quoted"
	case Indent:
		return "Indent"
	case Dedent:
		return "Dedent"
	case Newline:
		return "Newline"
	case Comment:
		return "Comment"
	case Eof:
		return "Eof"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Token is a single unit of the stream produced by Tokenizer.Next. Tokens
// are not retained beyond consumption by the parser; only their Pos and
// Text survive, copied onto AST nodes.
type Token struct {
	Kind   Kind
	Text   string
	Pos    Position
	Indent int // indent level in units of indent_size; meaningful on Indent/Dedent
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q) %s", t.Kind, t.Text, t.Pos)
}
