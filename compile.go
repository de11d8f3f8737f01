package main

import (
	"fmt"
	"log"
	"os"

	"github.com/CajjadCodes/Sophia-Phase4/ast"
	"github.com/CajjadCodes/Sophia-Phase4/check"
	"github.com/CajjadCodes/Sophia-Phase4/codegen"
	"github.com/CajjadCodes/Sophia-Phase4/jasmin"
	"github.com/CajjadCodes/Sophia-Phase4/runtime"
	"github.com/CajjadCodes/Sophia-Phase4/symtab"
)

// checkProgram loads src and runs every analysis up to code generation.
func checkProgram(src []byte, logger *log.Logger) (*ast.Program, *symtab.Table, error) {
	prog, err := ast.Parse(string(src))
	if err != nil {
		return nil, nil, fmt.Errorf("parsing errors:\n%w", err)
	}
	logger.Printf("loaded %d classes", len(prog.Classes))

	table, err := symtab.Build(prog)
	if err != nil {
		return nil, nil, fmt.Errorf("symbol resolution errors:\n%w", err)
	}

	if err := check.Annotate(prog, table); err != nil {
		return nil, nil, fmt.Errorf("type checking errors:\n%w", err)
	}
	return prog, table, nil
}

// compileProgram checks src and lowers every class to Jasmin.
func compileProgram(src []byte, opts codegen.Options, logger *log.Logger) ([]*jasmin.ClassFile, error) {
	prog, table, err := checkProgram(src, logger)
	if err != nil {
		return nil, err
	}
	files, err := codegen.New(table, opts).GenerateProgram(prog)
	if err != nil {
		return nil, fmt.Errorf("code generation errors:\n%w", err)
	}
	for _, f := range files {
		logger.Printf("generated %s with %d methods", f.Name, len(f.Methods))
	}
	return files, nil
}

// writeOutput writes each class file, and the runtime classes when
// withRuntime is set, into dir. It returns the paths written.
func writeOutput(dir string, files []*jasmin.ClassFile, withRuntime bool) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	var paths []string
	for _, f := range files {
		path, err := f.WriteFile(dir)
		if err != nil {
			return paths, fmt.Errorf("write %s: %w", f.Name, err)
		}
		paths = append(paths, path)
	}
	if withRuntime {
		written, err := runtime.WriteAll(dir)
		paths = append(paths, written...)
		if err != nil {
			return paths, err
		}
	}
	return paths, nil
}
