package ir

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

var (
	intPattern   = regexp.MustCompile(`^-?[0-9]+$`)
	floatPattern = regexp.MustCompile(`^-?[0-9]+\.[0-9]+$`)
	sciPattern   = regexp.MustCompile(`^-?[0-9]+\.?[0-9]*[eE][+-]?[0-9]+$`)
)

var nullWords = map[string]bool{"null": true, "Null": true, "NULL": true, "~": true}
var trueWords = map[string]bool{"true": true, "True": true, "TRUE": true}
var falseWords = map[string]bool{"false": true, "False": true, "FALSE": true}

// coerceScalar applies the fixed, total coercion order to a bare (not
// quoted) scalar's raw text, trying each shape in turn and falling back
// to the original untrimmed text as a plain string. A quoted scalar
// never reaches this function — it is always a string.
func (b *Builder) coerceScalar(raw string) *Node {
	trimmed := strings.TrimSpace(raw)

	if nullWords[trimmed] {
		return Null(&b.seq)
	}
	if trueWords[trimmed] {
		return fromBool(&b.seq, true)
	}
	if falseWords[trimmed] {
		return fromBool(&b.seq, false)
	}
	if intPattern.MatchString(trimmed) {
		if v, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
			return fromInt(&b.seq, v)
		}
	}
	if floatPattern.MatchString(trimmed) || sciPattern.MatchString(trimmed) {
		if v, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return fromFloat(&b.seq, v)
		}
	}
	if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
		var v []interface{}
		if json.Unmarshal([]byte(trimmed), &v) == nil {
			return FromJSON(&b.seq, v)
		}
	}
	if strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") {
		var v map[string]interface{}
		if json.Unmarshal([]byte(trimmed), &v) == nil {
			return FromJSON(&b.seq, v)
		}
	}
	return fromString(&b.seq, raw)
}
