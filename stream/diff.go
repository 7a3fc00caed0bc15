package stream

import (
	"reflect"
	"strconv"

	diffpatch "github.com/sergi/go-diff/diffmatchpatch"

	"github.com/snrraptopack/slim/ir"
)

// ChangeKind discriminates the three shapes a field-level or
// index-level change can take.
type ChangeKind int

const (
	Added ChangeKind = iota
	Removed
	Changed
)

func (k ChangeKind) String() string {
	switch k {
	case Added:
		return "added"
	case Removed:
		return "removed"
	default:
		return "changed"
	}
}

// Change reports one field (or array index) that differs between two IR
// snapshots, e.g. two successive Peek() results during a stream decode.
type Change struct {
	Path   string
	Kind   ChangeKind
	Before *ir.Node
	After  *ir.Node
}

// Diff reports field-level additions, removals, and value changes
// between prev and next, recursing into nested objects and arrays.
// Grounded on the teacher's rune-encoded field-name alignment
// (diffmatchpatch.DiffMainRunes over field names, then recurse on
// aligned pairs) rather than a position-by-position comparison, so
// inserting or removing one field does not make every later field look
// changed. A renamed field is reported as a Removed entry for the old
// name and an Added entry for the new one.
func Diff(prev, next *ir.Node) []Change {
	var out []Change
	diffValue("", prev, next, &out)
	return out
}

func diffValue(path string, prev, next *ir.Node, out *[]Change) {
	if prev == nil && next == nil {
		return
	}
	if prev == nil {
		*out = append(*out, Change{Path: path, Kind: Added, After: next})
		return
	}
	if next == nil {
		*out = append(*out, Change{Path: path, Kind: Removed, Before: prev})
		return
	}
	if prev.Type != next.Type {
		*out = append(*out, Change{Path: path, Kind: Changed, Before: prev, After: next})
		return
	}
	switch prev.Type {
	case ir.ObjectType:
		diffObject(path, prev, next, out)
	case ir.ArrayType:
		diffArray(path, prev, next, out)
	default:
		if !leafEqual(prev, next) {
			*out = append(*out, Change{Path: path, Kind: Changed, Before: prev, After: next})
		}
	}
}

func leafEqual(a, b *ir.Node) bool {
	switch a.Type {
	case ir.NullType:
		return true
	case ir.BoolType:
		return a.Bool == b.Bool
	case ir.StringType:
		return a.Str == b.Str
	case ir.RefType:
		return a.RefTarget == b.RefTarget
	case ir.NumberType:
		return reflect.DeepEqual(a.Int64, b.Int64) && reflect.DeepEqual(a.Float64, b.Float64)
	default:
		return true
	}
}

// diffObject aligns prev/next field names with diffmatchpatch's rune-
// sequence diff (each distinct field name maps to one rune) so fields
// shared between both sides are recursed into instead of reported as a
// remove+add pair.
func diffObject(path string, prev, next *ir.Node, out *[]Change) {
	runeOf := map[string]rune{}
	nameOf := map[rune]string{}
	encode := func(fields []string) []rune {
		rs := make([]rune, len(fields))
		for i, f := range fields {
			r, ok := runeOf[f]
			if !ok {
				r = rune(len(runeOf))
				runeOf[f] = r
				nameOf[r] = f
			}
			rs[i] = r
		}
		return rs
	}
	fromRunes := encode(prev.Fields)
	toRunes := encode(next.Fields)

	dmp := diffpatch.New()
	diffs := dmp.DiffMainRunes(fromRunes, toRunes, false)

	fi, ti := 0, 0
	for _, d := range diffs {
		switch d.Type {
		case diffpatch.DiffDelete:
			for _, r := range d.Text {
				f := nameOf[r]
				*out = append(*out, Change{Path: childPath(path, f), Kind: Removed, Before: prev.Values[fi]})
				fi++
			}
		case diffpatch.DiffInsert:
			for _, r := range d.Text {
				f := nameOf[r]
				*out = append(*out, Change{Path: childPath(path, f), Kind: Added, After: next.Values[ti]})
				ti++
			}
		case diffpatch.DiffEqual:
			for _, r := range d.Text {
				f := nameOf[r]
				diffValue(childPath(path, f), prev.Values[fi], next.Values[ti], out)
				fi++
				ti++
			}
		}
	}
}

// diffArray compares items position by position; a length change
// reports the trailing added/removed items rather than aligning items by
// content, since array items in this grammar carry no stable key to
// align on the way object fields do.
func diffArray(path string, prev, next *ir.Node, out *[]Change) {
	n := len(prev.Items)
	if len(next.Items) < n {
		n = len(next.Items)
	}
	for i := 0; i < n; i++ {
		diffValue(indexPath(path, i), prev.Items[i], next.Items[i], out)
	}
	for i := n; i < len(prev.Items); i++ {
		*out = append(*out, Change{Path: indexPath(path, i), Kind: Removed, Before: prev.Items[i]})
	}
	for i := n; i < len(next.Items); i++ {
		*out = append(*out, Change{Path: indexPath(path, i), Kind: Added, After: next.Items[i]})
	}
}

func childPath(base, field string) string {
	if base == "" {
		return field
	}
	return base + "." + field
}

func indexPath(base string, i int) string {
	return base + "[" + strconv.Itoa(i) + "]"
}
