// Package chtl is the compiler's top-level façade: Compile wires the
// Unified Scanner, Lexer, Parser, Registry, Expander and Code Generator
// into the single entry point spec.md §6 describes ("Input... Output: a
// result record").
package chtl

import (
	"strings"

	"chtl.dev/chtl/internal/ast"
	"chtl.dev/chtl/internal/chtlconfig"
	"chtl.dev/chtl/internal/diag"
	"chtl.dev/chtl/internal/emit"
	"chtl.dev/chtl/internal/expand"
	"chtl.dev/chtl/internal/lexer"
	"chtl.dev/chtl/internal/module"
	"chtl.dev/chtl/internal/parser"
	"chtl.dev/chtl/internal/registry"
	"chtl.dev/chtl/internal/scanner"
)

// Result is spec.md §6's result record: the two rendered streams plus
// every diagnostic raised along the way, split by severity.
type Result struct {
	HTML     string
	CSS      string
	Warnings []diag.Diagnostic
	Errors   []diag.Diagnostic
}

// compileOptions is Compile's full option set: the Config threaded into
// every pipeline stage, plus the caller-supplied module Sources
// available for [Import] resolution (internal/module.Resolver never
// touches a filesystem itself, per spec.md §1).
type compileOptions struct {
	cfg     chtlconfig.Config
	modules map[string]*module.Source
}

// Option adjusts the options a Compile call runs with.
type Option func(*compileOptions)

// WithStrict promotes warning-by-default diagnostics (duplicate
// definitions, missing variables) to errors, per spec.md §7.
func WithStrict() Option {
	return func(o *compileOptions) { o.cfg.Strict = true }
}

// WithWideScan toggles the Unified Scanner's lenient boundary detection;
// false selects the --strict-scan CLI behavior.
func WithWideScan(wide bool) Option {
	return func(o *compileOptions) { o.cfg.WideScan = wide }
}

// WithDebug sets Config.Debug; no pipeline stage reads that field.
func WithDebug() Option {
	return func(o *compileOptions) { o.cfg.Debug = true }
}

// WithConfig replaces the baseline Config outright, for callers that
// already built one (e.g. from a loaded --config-file preset).
func WithConfig(cfg chtlconfig.Config) Option {
	return func(o *compileOptions) { o.cfg = cfg }
}

// WithModules supplies the already-loaded module Sources available for
// [Import] resolution, keyed by normalized module path
// (internal/module.NormalizePath). Without this option [Import]
// directives still parse but resolve to nothing.
func WithModules(modules map[string]*module.Source) Option {
	return func(o *compileOptions) { o.modules = modules }
}

// Compile runs the full pipeline over source, named file for diagnostic
// positions, and returns the rendered HTML/CSS plus every diagnostic.
// Compile never returns a Go error: failures are reported inside Result
// so a caller can inspect every diagnostic raised, not just the first.
func Compile(source, file string, opts ...Option) Result {
	o := &compileOptions{cfg: chtlconfig.Default()}
	for _, opt := range opts {
		opt(o)
	}

	cfg := resolveSourceConfig(source, file, o.cfg)

	sink := diag.NewSink()

	scanned, phmap := scanner.Scan(source, cfg, sink)
	// style{} bodies are CHTL the Parser reads itself (properties, @Style
	// usages, Group(name) values, nested rules), so their CSS placeholders
	// are put back before lexing; only script fragments stay opaque.
	for id := 0; id < phmap.Len(); id++ {
		if ph, _ := phmap.GetByID(id); ph.Kind == scanner.FragmentCSS {
			scanned = strings.Replace(scanned, scanner.Name(id), ph.Original, 1)
		}
	}

	toks := lexer.Tokenize(scanned, file, sink)
	p := parser.New(toks, file, cfg, sink)
	prog := p.Parse()

	reg := registry.New()
	if len(o.modules) > 0 {
		resolveImports(prog, cfg, o.modules, reg, sink, file)
	}

	ex := expand.New(reg, cfg, sink, file)
	expanded := ex.Expand(prog)

	gen := emit.New(phmap, sink, file)
	rendered := gen.Generate(expanded)

	if cfg.Strict {
		sink.Promote()
	}

	return Result{
		HTML:     rendered.HTML,
		CSS:      rendered.CSS,
		Warnings: sink.Warnings(),
		Errors:   sink.Errors(),
	}
}

// resolveSourceConfig runs a throwaway scan/lex/parse pass over source
// under base and applies any `use Name;` prologue statement and
// `[Configuration]` block it finds (SPEC_FULL §3: "applied before the
// rest of the unit is parsed") to produce the Config the real pipeline
// parses and expands with. Diagnostics from this preliminary parse are
// discarded; genuine syntax errors resurface identically on the real
// parse below.
func resolveSourceConfig(source, file string, base chtlconfig.Config) chtlconfig.Config {
	prelim := diag.NewSink()
	scanned, _ := scanner.Scan(source, base, prelim)
	toks := lexer.Tokenize(scanned, file, prelim)
	p := parser.New(toks, file, base, prelim)
	prog := p.Parse()

	cfg := base
	named := map[string]map[string]string{}
	useName := ""

	var collect func(stmts []*ast.Node)
	collect = func(stmts []*ast.Node) {
		for _, s := range stmts {
			switch s.Kind {
			case ast.KindConfigBlock:
				if use, ok := s.Options["__use__"]; ok {
					useName = use
					continue
				}
				if s.Anonymous {
					cfg = cfg.ApplyInlineOptions(s.Options)
				} else {
					named[s.ConfigName] = s.Options
				}
			case ast.KindNamespace:
				collect(s.Statements)
			}
		}
	}
	collect(prog.Statements)

	if useName != "" {
		if opts, ok := named[useName]; ok {
			cfg = cfg.ApplyInlineOptions(opts)
		}
	}
	return cfg
}

// resolveImports walks prog's [Import] directives, resolves each one
// against the caller-supplied module Sources via internal/module's
// Resolver/Cache (wildcard matching and `except` filtering included),
// and registers the matched Template/Custom definitions into reg so the
// Expander's Usage resolution can reach them exactly as it reaches a
// locally-defined one.
func resolveImports(prog *ast.Node, cfg chtlconfig.Config, available map[string]*module.Source, reg *registry.Registry, sink *diag.Sink, file string) {
	cache := module.NewCache()
	resolver := module.NewResolver(available, cache)

	var walk func(stmts []*ast.Node, ns string)
	walk = func(stmts []*ast.Node, ns string) {
		for _, s := range stmts {
			switch s.Kind {
			case ast.KindImportDirective:
				res := resolver.Resolve(s, sink, file)
				if len(res.Names) == 0 {
					continue
				}
				wanted := make(map[string]bool, len(res.Names))
				for _, n := range res.Names {
					wanted[n] = true
				}
				for _, path := range res.ModulePaths {
					src := available[path]
					if src == nil {
						continue
					}
					registerModuleExports(src, wanted, cfg, reg, sink, ns, file)
				}
			case ast.KindNamespace:
				walk(s.Statements, s.Name)
			}
		}
	}
	walk(prog.Statements, registry.GlobalNamespace)
}

// registerModuleExports parses every packed file in src and registers
// the Template/Custom definitions named in wanted into reg under ns.
func registerModuleExports(src *module.Source, wanted map[string]bool, cfg chtlconfig.Config, reg *registry.Registry, sink *diag.Sink, ns, file string) {
	for _, f := range src.Files {
		toks := lexer.Tokenize(f.Content, f.Path, sink)
		mp := parser.New(toks, f.Path, cfg, sink)
		modProg := mp.Parse()
		for _, s := range modProg.Statements {
			if s.Kind != ast.KindTemplateDef && s.Kind != ast.KindCustomDef {
				continue
			}
			if !wanted[s.Name] {
				continue
			}
			if err := reg.Register(ns, s); err != nil {
				sink.Report(diag.Diagnostic{
					Severity: diag.Warning, Code: diag.CodeCycle, Message: err.Error(),
					File: file, Line: s.Line, Column: s.Col,
				})
			}
		}
	}
}
