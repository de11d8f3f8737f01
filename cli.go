package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/CajjadCodes/Sophia-Phase4/codegen"
)

func showUsage() {
	fmt.Fprintf(os.Stderr, `sophiac - compiles Sophia programs to Jasmin assembly

Usage:
    sophiac <command> [arguments]

Commands:
    build <file>    Compile a program and write one .j file per class
    check <file>    Load and type-check a program
    asm <file>      Print the generated Jasmin to standard output
    help            Show this help message

Programs are read in their s-expression form, (program (class ...) ...).

Examples:
    sophiac build -o out zoo.sexp
    sophiac check zoo.sexp
    sophiac asm -class Main zoo.sexp

Use "sophiac <command> -h" for more information about a command.
`)
}

// newLogger returns the progress logger: silent unless verbose is set.
func newLogger(verbose bool) *log.Logger {
	if !verbose {
		return log.New(io.Discard, "", 0)
	}
	return log.New(os.Stderr, "sophiac: ", 0)
}

func readSource(fs *flag.FlagSet) []byte {
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Error: expected exactly one file argument\n")
		fs.Usage()
		os.Exit(1)
	}
	filename := fs.Arg(0)
	src, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file %s: %v\n", filename, err)
		os.Exit(1)
	}
	return src
}

// flagsSet returns the names of the flags given on the command line.
func flagsSet(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

func buildCommand(args []string) {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	output := fs.String("o", "", "Output directory (default: out, or output from the config)")
	entry := fs.String("entry", "", "Class that gets the static main method (default: Main)")
	configPath := fs.String("config", defaultConfigFile, "Project file")
	parallel := fs.Bool("j", false, "Generate classes in parallel")
	noRuntime := fs.Bool("no-runtime", false, "Do not write List.j and Fptr.j")
	verbose := fs.Bool("v", false, "Show verbose compilation details")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: sophiac build [-o dir] [-entry class] [-config file] [-j] [-no-runtime] [-v] <file>\n")
		fmt.Fprintf(os.Stderr, "Compile a program and write one .j file per class\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	src := readSource(fs)
	logger := newLogger(*verbose)
	set := flagsSet(fs)

	cfg, err := loadConfig(*configPath, set["config"])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if set["o"] || cfg.Output == "" {
		cfg.Output = *output
	}
	if cfg.Output == "" {
		cfg.Output = "out"
	}
	if set["entry"] {
		cfg.Entry = *entry
	}
	if set["j"] {
		cfg.Parallel = *parallel
	}
	withRuntime := cfg.writeRuntime() && !*noRuntime

	logger.Printf("compiling %s into %s", fs.Arg(0), cfg.Output)
	files, err := compileProgram(src, codegen.Options{EntryClass: cfg.Entry, Parallel: cfg.Parallel}, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Compilation failed: %v\n", err)
		os.Exit(1)
	}

	paths, err := writeOutput(cfg.Output, files, withRuntime)
	for _, path := range paths {
		logger.Printf("wrote %s", path)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generated %d classes in %s\n", len(files), cfg.Output)
}

func checkCommand(args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	verbose := fs.Bool("v", false, "Show verbose checking details")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: sophiac check [-v] <file>\n")
		fmt.Fprintf(os.Stderr, "Load and type-check a program\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	src := readSource(fs)

	if _, _, err := checkProgram(src, newLogger(*verbose)); err != nil {
		fmt.Printf("Errors in %s: %v\n", fs.Arg(0), err)
		os.Exit(1)
	}
	fmt.Printf("%s: no errors found\n", fs.Arg(0))
}

func asmCommand(args []string) {
	fs := flag.NewFlagSet("asm", flag.ExitOnError)
	class := fs.String("class", "", "Print only this class")
	entry := fs.String("entry", "", "Class that gets the static main method (default: Main)")
	verbose := fs.Bool("v", false, "Show verbose compilation details")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: sophiac asm [-class name] [-entry class] [-v] <file>\n")
		fmt.Fprintf(os.Stderr, "Print the generated Jasmin to standard output\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	src := readSource(fs)

	files, err := compileProgram(src, codegen.Options{EntryClass: *entry}, newLogger(*verbose))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Compilation failed: %v\n", err)
		os.Exit(1)
	}
	found := false
	for _, f := range files {
		if *class != "" && f.Name != *class {
			continue
		}
		found = true
		if _, err := f.WriteTo(os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	if !found {
		fmt.Fprintf(os.Stderr, "Error: no class %s in %s\n", *class, fs.Arg(0))
		os.Exit(1)
	}
}

func main() {
	if len(os.Args) < 2 {
		showUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "build":
		buildCommand(args)
	case "check":
		checkCommand(args)
	case "asm":
		asmCommand(args)
	case "help", "-h", "--help":
		showUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		showUsage()
		os.Exit(1)
	}
}
