package main

import (
	"fmt"
	"io"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/shivank21/rlconf/internal/conf"
)

// runResolve implements the "resolve" subcommand: apply command-line
// overrides to an experiment config, resolve its interpolations, and
// print the result.
func runResolve(args []string) int {
	fs := flag.NewFlagSet("resolve", flag.ContinueOnError)
	var sets []string

	fs.StringArrayVarP(&sets, "set", "s", nil, "Override a value (key=value, repeatable)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: rlconf resolve [flags] [file]\n\n"+
			"Apply overrides to an experiment config, resolve ${section.key}\n"+
			"interpolations, and print the resolved YAML to stdout.\n\n"+
			"Reads from stdin when no file is given. Overrides are applied\n"+
			"before resolution, so a reference to an overridden key picks up\n"+
			"the new value.\n\n"+
			"Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if fs.NArg() > 1 {
		fmt.Fprintf(os.Stderr, "rlconf: resolve takes at most one file\n")
		return 2
	}

	source, name, err := readInput(fs.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "rlconf: %v\n", err)
		return 2
	}

	doc, err := conf.Parse(source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rlconf: parsing %s: %v\n", name, err)
		return 2
	}

	overrides, err := conf.ParseOverrides(sets)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rlconf: %v\n", err)
		return 2
	}

	if err := doc.Apply(overrides); err != nil {
		fmt.Fprintf(os.Stderr, "rlconf: %v\n", err)
		return 2
	}

	resolved, err := doc.Resolve()
	if err != nil {
		fmt.Fprintf(os.Stderr, "rlconf: %s: %v\n", name, err)
		return 1
	}

	out, err := resolved.Marshal()
	if err != nil {
		fmt.Fprintf(os.Stderr, "rlconf: %v\n", err)
		return 2
	}

	os.Stdout.Write(out)
	return 0
}

// readInput reads the single positional file argument, or stdin when
// there is none.
func readInput(args []string) ([]byte, string, error) {
	if len(args) == 0 {
		source, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, "", fmt.Errorf("reading stdin: %w", err)
		}
		return source, "<stdin>", nil
	}

	source, err := os.ReadFile(args[0])
	if err != nil {
		return nil, "", err
	}
	return source, args[0], nil
}
