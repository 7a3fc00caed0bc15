package main

import (
	"fmt"
	"io"
	"os"

	"github.com/scott-cotton/cli"

	"github.com/snrraptopack/slim/encode"
	"github.com/snrraptopack/slim/ir"
	"github.com/snrraptopack/slim/stream"
)

type rootConfig struct {
	*cli.Command

	ChunkSize    int    `cli:"name=chunk-size aliases=c desc='bytes fed per write call'"`
	NoColor      bool   `cli:"name=no-color desc='disable colorized output even on a terminal'"`
	File         string `cli:"name=file aliases=f desc='read from this path instead of stdin'"`
	Strict       bool   `cli:"name=strict desc='promote warning-severity diagnostics to errors on --validate'"`
	ValidateOnly bool   `cli:"name=validate desc='report diagnostics only, skip rendering the decoded document'"`
}

// RootCommand returns the slimstream CLI's single top-level command.
func RootCommand() *cli.Command {
	cfg := &rootConfig{}
	opts, _ := cli.StructOpts(cfg)
	return cli.NewCommandAt(&cfg.Command, "slimstream").
		WithSynopsis("slimstream [--chunk-size N] [--file path] [--validate] [--strict] - stream-decode a document").
		WithOpts(opts...).
		WithRun(cfg.run)
}

func (cfg *rootConfig) run(cc *cli.Context, args []string) error {
	args, err := cfg.Parse(cc, args)
	if err != nil {
		return err
	}

	var r io.Reader = cc.In
	if cfg.File != "" {
		f, err := os.Open(cfg.File)
		if err != nil {
			return fmt.Errorf("slimstream: %w", err)
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("slimstream: reading input: %w", err)
	}

	size := cfg.ChunkSize
	if size <= 0 {
		size = 32
	}

	f := stream.New(stream.WithStrict(cfg.Strict))
	for i := 0; i < len(data); i += size {
		end := i + size
		if end > len(data) {
			end = len(data)
		}
		f.Write(data[i:end])
		if cfg.ValidateOnly {
			continue
		}
		res := f.Peek()
		fmt.Fprintf(cc.Out, "--- chunk %d..%d ---\n", i, end)
		cfg.render(res.Value, cc.Out)
		fmt.Fprintln(cc.Out)
	}

	if cfg.ValidateOnly {
		f.End()
		ok, diags := f.Validate()
		for _, d := range diags {
			fmt.Fprintf(cc.Out, "%s: %s (at %v)\n", d.Severity, d.Message, d.Path)
		}
		if !ok {
			return fmt.Errorf("slimstream: validation failed")
		}
		fmt.Fprintln(cc.Out, "valid")
		return nil
	}

	final := f.End()
	fmt.Fprintln(cc.Out, "--- final ---")
	cfg.render(final.Value, cc.Out)
	fmt.Fprintln(cc.Out)

	for _, d := range final.Diagnostics {
		fmt.Fprintf(cc.Err, "%s: %s (at %v)\n", d.Severity, d.Message, d.Path)
	}
	if len(final.UnresolvedRefs) > 0 {
		fmt.Fprintf(cc.Err, "unresolved refs: %v\n", final.UnresolvedRefs)
	}
	return nil
}

func (cfg *rootConfig) render(v *ir.Node, w io.Writer) {
	if cfg.NoColor {
		encode.Encode(v, w, encode.WithColor(false))
		return
	}
	encode.Encode(v, w)
}
