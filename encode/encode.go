// Package encode renders a resolved IR value as indented, optionally
// colorized text for terminal display — the facade's companion for
// showing a stabilized snapshot to a human watching a stream decode.
package encode

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/mattn/go-isatty"

	"github.com/snrraptopack/slim/ir"
)

// Option configures an Encode call.
type Option func(*config)

type config struct {
	color  bool
	forced bool
	indent string
}

// WithColor forces color on or off, overriding terminal auto-detection.
func WithColor(v bool) Option {
	return func(c *config) { c.color = v; c.forced = true }
}

// WithIndent sets the per-level indent string (default two spaces).
func WithIndent(s string) Option {
	return func(c *config) { c.indent = s }
}

// Encode writes a human-readable rendering of n to w. Color is enabled
// automatically when w is a terminal (via go-isatty), unless overridden
// by WithColor.
func Encode(n *ir.Node, w io.Writer, opts ...Option) error {
	cfg := &config{indent: "  "}
	for _, o := range opts {
		o(cfg)
	}
	if !cfg.forced {
		cfg.color = isTerminal(w)
	}
	var colors *Colors
	if cfg.color {
		colors = NewColors()
	}
	e := &encoder{w: w, cfg: cfg, colors: colors}
	return e.value(n, 0)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

type encoder struct {
	w      io.Writer
	cfg    *config
	colors *Colors
	err    error
}

func (e *encoder) color(t ir.Type, a ColorAttr, s string) string {
	if e.colors == nil {
		return s
	}
	return e.colors.Get(t, a)(s)
}

func (e *encoder) printf(format string, args ...interface{}) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}

func (e *encoder) pad(depth int) {
	for i := 0; i < depth; i++ {
		e.printf("%s", e.cfg.indent)
	}
}

func (e *encoder) value(n *ir.Node, depth int) error {
	if n == nil {
		e.printf("null")
		return e.err
	}
	switch n.Type {
	case ir.NullType:
		e.printf("%s", e.color(ir.NullType, ValueColor, "null"))
	case ir.BoolType:
		e.printf("%s", e.color(ir.BoolType, ValueColor, strconv.FormatBool(n.Bool)))
	case ir.NumberType:
		e.printf("%s", e.color(ir.NumberType, ValueColor, numberText(n)))
	case ir.StringType:
		e.printf("%s", e.color(ir.StringType, ValueColor, strconv.Quote(n.Str)))
	case ir.RefType:
		e.printf("%s", e.color(ir.RefType, RefColor, "$ref:"+n.RefTarget))
	case ir.ObjectType:
		e.object(n, depth)
	case ir.ArrayType:
		e.array(n, depth)
	}
	return e.err
}

func numberText(n *ir.Node) string {
	if n.Int64 != nil {
		return strconv.FormatInt(*n.Int64, 10)
	}
	if n.Float64 != nil {
		return strconv.FormatFloat(*n.Float64, 'g', -1, 64)
	}
	return "0"
}

func (e *encoder) object(n *ir.Node, depth int) {
	if len(n.Fields) == 0 {
		e.printf("%s", e.color(ir.ObjectType, SepColor, "{}"))
		return
	}
	e.printf("%s\n", e.color(ir.ObjectType, SepColor, "{"))
	for i, f := range n.Fields {
		e.pad(depth + 1)
		e.printf("%s%s ", e.color(ir.ObjectType, FieldColor, f), e.color(ir.ObjectType, SepColor, ":"))
		e.value(n.Values[i], depth+1)
		e.printf("\n")
	}
	e.pad(depth)
	e.printf("%s", e.color(ir.ObjectType, SepColor, "}"))
}

func (e *encoder) array(n *ir.Node, depth int) {
	if len(n.Items) == 0 {
		e.printf("%s", e.color(ir.ArrayType, SepColor, "[]"))
		return
	}
	e.printf("%s\n", e.color(ir.ArrayType, SepColor, "["))
	for _, item := range n.Items {
		e.pad(depth + 1)
		e.printf("%s ", e.color(ir.ArrayType, SepColor, "-"))
		e.value(item, depth+1)
		e.printf("\n")
	}
	e.pad(depth)
	e.printf("%s", e.color(ir.ArrayType, SepColor, "]"))
}
