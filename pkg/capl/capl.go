// Package capl is the compiler front door. It wires the lexer, parser,
// resolver, flattener and emitter into a single pipeline that turns CAPL
// source into flattened GeneratedPolicy records.
//
// Compilation degrades per top-level statement: a decision tree that
// produced any diagnostic contributes no records, while clean sibling
// trees in the same file still compile. Callers therefore always check
// both the records and the diagnostics.
package capl

import (
	"capl-hq/capl/pkg/capl/ast"
	"capl-hq/capl/pkg/capl/emit"
	caplerrors "capl-hq/capl/pkg/capl/errors"
	"capl-hq/capl/pkg/capl/flatten"
	"capl-hq/capl/pkg/capl/optimize"
	"capl-hq/capl/pkg/capl/parser"
	"capl-hq/capl/pkg/capl/resolver"
)

// Result is the outcome of one compilation. Policies and Diagnostics are
// not mutually exclusive: a file with one broken tree and two clean ones
// yields the clean trees' records plus the broken tree's diagnostics.
type Result struct {
	// Policies holds the flattened records in traversal order.
	Policies []*emit.GeneratedPolicy

	// Diagnostics collects every error found during compilation.
	Diagnostics *caplerrors.ErrorList

	// Program is the parsed source, useful for lint-only callers. It holds
	// only the statements that parsed cleanly.
	Program *ast.Program

	// Statements counts the top-level decision trees that parsed, and
	// Compiled how many of them produced records.
	Statements int
	Compiled   int

	// Optimized records whether the clustering pass ran.
	Optimized bool
}

// OK reports whether compilation finished without diagnostics.
func (r *Result) OK() bool {
	return !r.Diagnostics.HasErrors()
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithMaxFileSize caps the source size in bytes.
func WithMaxFileSize(limit int64) Option {
	return func(c *Compiler) { c.maxFileSize = limit }
}

// WithMaxDepth caps IF nesting.
func WithMaxDepth(depth int) Option {
	return func(c *Compiler) { c.maxDepth = depth }
}

// WithNamePrefix overrides the display-name prefix derived from the
// source path.
func WithNamePrefix(prefix string) Option {
	return func(c *Compiler) { c.namePrefix = prefix }
}

// WithOptimize enables the clustering pass that merges paths with
// identical outcomes into fewer policies.
func WithOptimize() Option {
	return func(c *Compiler) { c.optimize = true }
}

// Compiler runs the full pipeline. The zero value is not usable; call New.
type Compiler struct {
	maxFileSize int64
	maxDepth    int
	namePrefix  string
	optimize    bool
}

// New builds a Compiler with the given options applied over the parser
// defaults.
func New(opts ...Option) *Compiler {
	c := &Compiler{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CompileFile reads and compiles one source file.
func (c *Compiler) CompileFile(path string) *Result {
	program, err := c.newParser().Parse(path)
	return c.compile(program, collectDiagnostics(err, path), path)
}

// Compile compiles in-memory source. sourcePath is used for locations and
// the display-name prefix and may be empty.
func (c *Compiler) Compile(source []byte, sourcePath string) *Result {
	program, err := c.newParser().ParseBytes(source, sourcePath)
	return c.compile(program, collectDiagnostics(err, sourcePath), sourcePath)
}

// collectDiagnostics lifts a parse error into a fresh diagnostic list. The
// parser reports through *errors.ErrorList; anything else is an I/O failure.
func collectDiagnostics(err error, sourcePath string) *caplerrors.ErrorList {
	errs := caplerrors.NewErrorList()
	if err == nil {
		return errs
	}
	if el, ok := err.(*caplerrors.ErrorList); ok {
		errs.Merge(el)
		return errs
	}
	errs.AddError(caplerrors.ErrorTypeIO, err.Error(), ast.Location{File: sourcePath})
	return errs
}

func (c *Compiler) newParser() *parser.Parser {
	p := parser.NewParser()
	if c.maxFileSize > 0 {
		p.WithMaxFileSize(c.maxFileSize)
	}
	if c.maxDepth > 0 {
		p.WithMaxDepth(c.maxDepth)
	}
	return p
}

func (c *Compiler) compile(program *ast.Program, errs *caplerrors.ErrorList, sourcePath string) *Result {
	result := &Result{
		Diagnostics: errs,
		Program:     program,
	}
	if program == nil {
		return result
	}
	result.Statements = len(program.Statements)

	prefix := c.namePrefix
	if prefix == "" {
		prefix = flatten.NamePrefix(sourcePath)
	}

	table := resolver.NewSymbolTable(program, errs)
	res := resolver.NewResolver(table)

	var normalized []*flatten.NormalizedPath
	index := 0
	for _, stmt := range program.Statements {
		if err := res.ResolveStmt(stmt); err != nil {
			if el, ok := err.(*caplerrors.ErrorList); ok {
				errs.Merge(el)
			}
			continue
		}

		before := errs.Count()
		paths := flatten.Enumerate(stmt, index)

		clean := make([]*flatten.NormalizedPath, 0, len(paths))
		for _, path := range paths {
			if np := flatten.Normalize(path, errs); np != nil {
				clean = append(clean, np)
			}
		}
		if errs.Count() > before {
			continue
		}

		normalized = append(normalized, clean...)
		index += len(paths)
		result.Compiled++
	}

	if c.optimize {
		normalized = optimize.Cluster(normalized)
		result.Optimized = true
	}

	for _, np := range normalized {
		name := flatten.Name(prefix, np)
		result.Policies = append(result.Policies, emit.Emit(np, name, sourcePath))
	}

	return result
}

// CompileFile is a convenience wrapper using a default Compiler.
func CompileFile(path string) *Result {
	return New().CompileFile(path)
}

// Compile is a convenience wrapper using a default Compiler.
func Compile(source []byte, sourcePath string) *Result {
	return New().Compile(source, sourcePath)
}
