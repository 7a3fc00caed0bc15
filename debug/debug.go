package debug

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

type debug struct {
	Tokenizer bool
	Parser    bool
	Build     bool
	Stream    bool
}

var d *debug

func init() {
	d = &debug{}
	d.Tokenizer = boolEnv("SLIM_DEBUG_TOKEN")
	d.Parser = boolEnv("SLIM_DEBUG_PARSE")
	d.Build = boolEnv("SLIM_DEBUG_BUILD")
	d.Stream = boolEnv("SLIM_DEBUG_STREAM")
}

func boolEnv(v string) bool {
	x := os.Getenv(v)
	if x == "" {
		return false
	}
	b, _ := strconv.ParseBool(x)
	return b
}

// Tokenizer reports whether SLIM_DEBUG_TOKEN is set.
func Tokenizer() bool { return d.Tokenizer }

// Parser reports whether SLIM_DEBUG_PARSE is set.
func Parser() bool { return d.Parser }

// Build reports whether SLIM_DEBUG_BUILD is set.
func Build() bool { return d.Build }

// Stream reports whether SLIM_DEBUG_STREAM is set.
func Stream() bool { return d.Stream }

// LogAny marshals v to JSON and writes it to stderr, falling back to
// fmt's default verb if marshaling fails.
func LogAny(v any) {
	d, err := json.Marshal(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", v)
		return
	}
	os.Stderr.Write(d)
	fmt.Fprintln(os.Stderr)
}

// Logf writes a formatted trace line to stderr.
func Logf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format, args...)
}
