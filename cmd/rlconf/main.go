package main

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"

	flag "github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	rlconf "github.com/shivank21/rlconf"
	"github.com/shivank21/rlconf/internal/config"
	"github.com/shivank21/rlconf/internal/discovery"
	"github.com/shivank21/rlconf/internal/engine"
	"github.com/shivank21/rlconf/internal/lint"
	"github.com/shivank21/rlconf/internal/log"
	"github.com/shivank21/rlconf/internal/output"
	"github.com/shivank21/rlconf/internal/rule"

	// Import all rule packages so their init() functions register rules.
	_ "github.com/shivank21/rlconf/internal/rules/concurrencycancellation"
	_ "github.com/shivank21/rlconf/internal/rules/duplicatekeys"
	_ "github.com/shivank21/rlconf/internal/rules/jobtimeout"
	_ "github.com/shivank21/rlconf/internal/rules/labelgating"
	_ "github.com/shivank21/rlconf/internal/rules/lifecycleorder"
	_ "github.com/shivank21/rlconf/internal/rules/strictshellmode"
	_ "github.com/shivank21/rlconf/internal/rules/unknownsection"
	_ "github.com/shivank21/rlconf/internal/rules/unresolvedinterpolation"
)

func main() {
	os.Exit(run())
}

const usageText = `Usage: rlconf <command> [flags] [files...]

Commands:
  check     Check experiment configs and workflow files
  resolve   Apply overrides and interpolations to an experiment config
  matrix    Expand workflow job matrices
  help      Show help for rules and topics
  init      Generate a default .rlconf.yml config file
  version   Print version and exit

Global flags:
  -h, --help      Show this help

Run 'rlconf <command> --help' for more information on a command.
`

func run() int {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usageText)
		return 0
	}

	first := os.Args[1]

	switch first {
	case "--help", "-h":
		fmt.Fprint(os.Stderr, usageText)
		return 0
	}

	switch first {
	case "check":
		return runCheck(os.Args[2:])
	case "resolve":
		return runResolve(os.Args[2:])
	case "matrix":
		return runMatrix(os.Args[2:])
	case "help":
		return runHelp(os.Args[2:])
	case "init":
		return runInit(os.Args[2:])
	case "version":
		printVersion()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "rlconf: unknown command %q\n\n%s", first, usageText)
		return 2
	}
}

func printVersion() {
	version := "(devel)"
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		version = info.Main.Version
	}
	fmt.Printf("rlconf %s\n", version)
}

// checkOpts carries the flags shared by the check paths.
type checkOpts struct {
	configPath  string
	format      string
	noColor     bool
	quiet       bool
	noGitignore bool
	verbose     bool
}

// runCheck implements the "check" subcommand.
func runCheck(args []string) int {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	var opts checkOpts

	fs.StringVarP(&opts.configPath, "config", "c", "", "Override config file path")
	fs.StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	fs.BoolVar(&opts.noColor, "no-color", false, "Disable ANSI colors")
	fs.BoolVarP(&opts.quiet, "quiet", "q", false, "Suppress non-error output")
	fs.BoolVar(&opts.noGitignore, "no-gitignore", false, "Disable .gitignore filtering when walking directories")
	fs.BoolVarP(&opts.verbose, "verbose", "v", false, "Log checked files to stderr")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: rlconf check [flags] [files...]\n\n"+
			"Check experiment configs and CI workflow files.\n\n"+
			"Files can be paths, directories (walked recursively for *.yaml and *.yml),\n"+
			"or glob patterns. With no file arguments, reads from stdin if piped,\n"+
			"otherwise discovers files from the config's 'files' patterns.\n\n"+
			"Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return 2
	}

	files := fs.Args()

	if len(files) == 0 {
		if isStdinPipe() {
			return checkStdin(opts)
		}
		return checkDiscovered(opts)
	}

	return checkFiles(files, opts)
}

// runInit implements the "init" subcommand: generate .rlconf.yml.
func runInit(args []string) int {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: rlconf init\n\n"+
			"Generate a default .rlconf.yml config file in the current directory.\n")
	}

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "rlconf: init takes no arguments\n")
		return 2
	}

	const configFile = ".rlconf.yml"

	if _, err := os.Stat(configFile); err == nil {
		fmt.Fprintf(os.Stderr, "rlconf: %s already exists\n", configFile)
		return 2
	}

	cfg := config.DumpDefaults()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rlconf: marshalling config: %v\n", err)
		return 2
	}

	if err := os.WriteFile(configFile, data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "rlconf: writing %s: %v\n", configFile, err)
		return 2
	}

	fmt.Fprintf(os.Stderr, "rlconf: created %s\n", configFile)
	return 0
}

// checkFiles checks the given file paths and returns the exit code.
func checkFiles(fileArgs []string, opts checkOpts) int {
	useGitignore := !opts.noGitignore
	resolveOpts := lint.ResolveOpts{UseGitignore: &useGitignore}
	files, err := lint.ResolveFilesWithOpts(fileArgs, resolveOpts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rlconf: %v\n", err)
		return 2
	}

	if len(files) == 0 {
		return 0
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rlconf: %v\n", err)
		return 2
	}

	runner := newRunner(cfg, opts)
	return report(runner.Run(files), opts)
}

// checkDiscovered checks files matching the config's discovery
// patterns. With no patterns configured there is nothing to do.
func checkDiscovered(opts checkOpts) int {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rlconf: %v\n", err)
		return 2
	}

	files, err := discovery.Discover(discovery.Options{
		Patterns:     cfg.Files,
		UseGitignore: !opts.noGitignore,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "rlconf: %v\n", err)
		return 2
	}

	if len(files) == 0 {
		return 0
	}

	runner := newRunner(cfg, opts)
	return report(runner.Run(files), opts)
}

// checkStdin reads a single document from stdin and checks it.
func checkStdin(opts checkOpts) int {
	source, err := io.ReadAll(os.Stdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rlconf: reading stdin: %v\n", err)
		return 2
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rlconf: %v\n", err)
		return 2
	}

	runner := newRunner(cfg, opts)
	return report(runner.RunSource("<stdin>", source), opts)
}

func newRunner(cfg *config.Config, opts checkOpts) *engine.Runner {
	return &engine.Runner{
		Config: cfg,
		Rules:  rule.All(),
		Log:    &log.Logger{Enabled: opts.verbose, W: os.Stderr},
	}
}

// report prints a run's errors and diagnostics and maps them to an
// exit code: 0 clean, 1 diagnostics, 2 errors only.
func report(result *engine.Result, opts checkOpts) int {
	for _, e := range result.Errors {
		fmt.Fprintf(os.Stderr, "rlconf: %v\n", e)
	}

	if len(result.Errors) > 0 && len(result.Diagnostics) == 0 {
		return 2
	}

	if !opts.quiet && len(result.Diagnostics) > 0 {
		var formatter output.Formatter
		switch opts.format {
		case "json":
			formatter = &output.JSONFormatter{}
		default:
			formatter = &output.TextFormatter{Color: !opts.noColor}
		}

		if err := formatter.Format(os.Stderr, result.Diagnostics); err != nil {
			fmt.Fprintf(os.Stderr, "rlconf: error writing output: %v\n", err)
			return 2
		}
	}

	if len(result.Diagnostics) > 0 {
		return 1
	}

	return 0
}

// isStdinPipe returns true if stdin is a pipe (not a terminal).
func isStdinPipe() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// loadConfig loads configuration by either using the specified path or
// discovering a config file from the current directory.
func loadConfig(configPath string) (*config.Config, error) {
	defaults := config.Defaults()

	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		return config.Merge(defaults, loaded), nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return config.Merge(defaults, nil), nil
	}

	discovered, err := config.Discover(cwd)
	if err != nil || discovered == "" {
		return config.Merge(defaults, nil), nil
	}

	loaded, err := config.Load(discovered)
	if err != nil {
		return nil, err
	}

	return config.Merge(defaults, loaded), nil
}

const helpUsageText = `Usage: rlconf help <topic>

Topics:
  rule [id|name]   Show rule documentation
`

// runHelp implements the "help" subcommand.
func runHelp(args []string) int {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, helpUsageText)
		return 0
	}

	switch args[0] {
	case "rule":
		return runHelpRule(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "rlconf: help: unknown topic %q\n", args[0])
		return 2
	}
}

// runHelpRule implements "help rule [id|name]".
func runHelpRule(args []string) int {
	if len(args) == 0 {
		return listAllRules()
	}
	return showRule(args[0])
}

func listAllRules() int {
	rules, err := rlconf.ListRules()
	if err != nil {
		fmt.Fprintf(os.Stderr, "rlconf: %v\n", err)
		return 2
	}

	for _, r := range rules {
		fmt.Printf("%-8s %-28s %s\n", r.ID, r.Name, r.Description)
	}
	return 0
}

func showRule(query string) int {
	content, err := rlconf.LookupRule(query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rlconf: %v\n", err)
		return 2
	}
	fmt.Print(content)
	return 0
}
