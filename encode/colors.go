package encode

import (
	"github.com/fatih/color"

	"github.com/snrraptopack/slim/ir"
)

// ColorAttr distinguishes which part of a rendered node a color applies
// to: the field name, the value itself, a structural separator, or a
// ref target.
type ColorAttr int

const (
	FieldColor ColorAttr = iota
	ValueColor
	SepColor
	RefColor
)

// Colorable keys the color table by the IR type being rendered and which
// part of it is being colored.
type Colorable struct {
	Type ir.Type
	Attr ColorAttr
}

// Colors holds a lookup table of ir.Type/ColorAttr pairs to sprint
// functions, falling back to Default (identity) for anything unmapped.
type Colors struct {
	Default func(string) string
	Map     map[Colorable]func(string) string
}

// NewColors builds the default palette, grounded on the teacher's
// encode_colors.go but reduced to this module's smaller Type set.
func NewColors() *Colors {
	c := &Colors{
		Default: func(s string) string { return s },
		Map:     map[Colorable]func(string) string{},
	}

	field := color.RGB(128, 168, 196).SprintFunc()
	sep := color.RGB(255, 0, 196).SprintFunc()
	for _, t := range []ir.Type{ir.NullType, ir.BoolType, ir.NumberType, ir.StringType, ir.ObjectType, ir.ArrayType, ir.RefType} {
		c.Map[Colorable{Type: t, Attr: FieldColor}] = wrap(field)
		c.Map[Colorable{Type: t, Attr: SepColor}] = wrap(sep)
	}

	c.Map[Colorable{Type: ir.NumberType, Attr: ValueColor}] = wrap(color.RGB(128, 216, 236).SprintFunc())
	c.Map[Colorable{Type: ir.NullType, Attr: ValueColor}] = wrap(color.RGB(168, 0, 196).SprintFunc())
	c.Map[Colorable{Type: ir.BoolType, Attr: ValueColor}] = func(s string) string { return color.CyanString(s) }
	c.Map[Colorable{Type: ir.StringType, Attr: ValueColor}] = wrap(color.RGB(8, 196, 16).SprintFunc())
	c.Map[Colorable{Type: ir.RefType, Attr: RefColor}] = wrap(color.RGB(196, 96, 16).SprintFunc())

	return c
}

func wrap(f func(a ...interface{}) string) func(string) string {
	return func(s string) string { return f(s) }
}

// Get returns the sprint function for (t, a), or Default if unmapped.
func (c *Colors) Get(t ir.Type, a ColorAttr) func(string) string {
	if f := c.Map[Colorable{Type: t, Attr: a}]; f != nil {
		return f
	}
	return c.Default
}
