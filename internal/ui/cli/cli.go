// Package cli is the timscompare command-line front end.
package cli

import (
	"errors"
	"flag"
	"io"
	"strings"
)

const versionString = "1.0.0"

type cliOptions struct {
	configPath string
	verbose    bool
	version    bool
	watch      bool
	format     string
	params     []string
	source     string
	segment    int
	exportDir  string
	args       []string
}

// listFlag collects repeated and comma-separated values.
type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, ",") }

func (l *listFlag) Set(value string) error {
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*l = append(*l, part)
		}
	}
	return nil
}

func parseOptions(args []string, stderr io.Writer) (cliOptions, error) {
	var (
		opts   cliOptions
		params listFlag
	)
	fs := flag.NewFlagSet("timscompare", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.configPath, "config", "", "Path to config file (default ./timscompare.toml when present)")
	fs.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&opts.version, "version", false, "Print version and exit")
	fs.BoolVar(&opts.watch, "watch", false, "Reload and print the method whenever it changes")
	fs.StringVar(&opts.format, "format", "text", "Output format: text, tsv or json")
	fs.Var(&params, "param", "Additional parameter to resolve (repeatable, comma-separated)")
	fs.StringVar(&opts.source, "source", "", "Ion source context used to re-resolve every parameter")
	fs.IntVar(&opts.segment, "segment", 0, "Print only this 1-based segment (0 prints all)")
	fs.StringVar(&opts.exportDir, "export", "", "Write the scan-geometry export of each printed segment to this directory")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}
	opts.params = params
	opts.args = fs.Args()
	return opts, nil
}

func validateOptions(opts cliOptions) error {
	if opts.version {
		return nil
	}
	if len(opts.args) == 0 {
		return errors.New("usage: timscompare [flags] <method folder or file>...")
	}
	if opts.watch && len(opts.args) != 1 {
		return errors.New("--watch takes exactly one method path")
	}
	if opts.segment < 0 {
		return errors.New("--segment must be 0 or a 1-based segment number")
	}
	return nil
}
