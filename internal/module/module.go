// Package module implements the `[Import]` resolver, the module packaging
// file format, and an insert-only module cache (spec.md §5/§6). Concrete
// file I/O is out of scope (spec.md §1): callers load module text and
// hand this package already-read content to resolve against.
//
// Grounded on original_source/include/CHTL/WildcardImport.h /
// src/CHTL/WildcardImport.cpp for wildcard + except-list resolution, and
// on original_source/chtl/include/chtl/cmod_cjmod_system.h /
// cmod_cjmod_system.cpp for the `[Info]`/`[Export]` manifest format and
// the `--FILE:`/`--ENDFILE--` packing markers.
package module

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"chtl.dev/chtl/internal/ast"
	"chtl.dev/chtl/internal/diag"
	"github.com/bmatcuk/doublestar/v4"
)

// NormalizePath treats `.`- and `/`-separated module paths as equivalent
// (spec.md §9 Open Question): on-disk and cache keys always use `/`.
func NormalizePath(path string) string {
	return strings.ReplaceAll(path, ".", "/")
}

// Export is one `[Kind] @Type name1, name2, …;` line of a module's
// `[Export]` block.
type Export struct {
	Kind  string // e.g. "Template", "Custom", "Origin"
	Type  string // e.g. "@Style", "@Element", "@Var"
	Names []string
}

// Manifest is a module's `[Info]`/`[Export]` metadata, round-trippable
// losslessly via String() (SPEC_FULL.md "CJS module metadata round-trip").
type Manifest struct {
	Name         string
	Version      string
	Description  string
	Author       string
	Dependencies []string
	Exports      []Export
}

var infoBlockRE = regexp.MustCompile(`(?s)\[Info\]\s*\{(.*?)\}`)
var infoPairRE = regexp.MustCompile(`(\w+)\s*=\s*"(.*?)"`)
var exportBlockRE = regexp.MustCompile(`(?s)\[Export\]\s*\{(.*?)\}`)
var exportLineRE = regexp.MustCompile(`\[(\w+)\]\s+(@\w+)\s+([^;]+);`)
var identRE = regexp.MustCompile(`\w+`)

// ParseManifest reads a module file's `[Info]`/`[Export]` text, grounded
// on cmod_cjmod_system.cpp's ModuleInfoParser (regex-extracted key="value"
// pairs in `[Info]`, `[Kind] @Type name, name;` lines in `[Export]`).
func ParseManifest(content string) *Manifest {
	m := &Manifest{}
	if im := infoBlockRE.FindStringSubmatch(content); im != nil {
		for _, pair := range infoPairRE.FindAllStringSubmatch(im[1], -1) {
			key, val := pair[1], pair[2]
			switch key {
			case "name":
				m.Name = val
			case "version":
				m.Version = val
			case "description":
				m.Description = val
			case "author":
				m.Author = val
			case "dependencies":
				m.Dependencies = append(m.Dependencies, val)
			}
		}
	}
	if em := exportBlockRE.FindStringSubmatch(content); em != nil {
		for _, line := range exportLineRE.FindAllStringSubmatch(em[1], -1) {
			kind, typ, itemsStr := line[1], line[2], line[3]
			names := identRE.FindAllString(itemsStr, -1)
			m.Exports = append(m.Exports, Export{Kind: kind, Type: typ, Names: names})
		}
	}
	return m
}

// String re-serializes the manifest back into the spec's block format.
func (m *Manifest) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[Info] {\n")
	fmt.Fprintf(&b, "  name = %q;\n", m.Name)
	fmt.Fprintf(&b, "  version = %q;\n", m.Version)
	fmt.Fprintf(&b, "  description = %q;\n", m.Description)
	fmt.Fprintf(&b, "  author = %q;\n", m.Author)
	for _, dep := range m.Dependencies {
		fmt.Fprintf(&b, "  dependencies = %q;\n", dep)
	}
	b.WriteString("}\n\n[Export] {\n")
	for _, exp := range m.Exports {
		fmt.Fprintf(&b, "  [%s] %s %s;\n", exp.Kind, exp.Type, strings.Join(exp.Names, ", "))
	}
	b.WriteString("}\n")
	return b.String()
}

// FileEntry is one packed file inside a module archive.
type FileEntry struct {
	Path    string
	Content string
}

// PackFiles concatenates files under `--FILE:<path>` / `--ENDFILE--`
// markers, grounded on ModulePackager::pack.
func PackFiles(files []FileEntry) string {
	var b strings.Builder
	for _, f := range files {
		fmt.Fprintf(&b, "--FILE:%s\n", f.Path)
		b.WriteString(f.Content)
		b.WriteString("\n--ENDFILE--\n")
	}
	return b.String()
}

// UnpackFiles reverses PackFiles, grounded on ModulePackager::unpack's
// delimiter scan (a trailing newline right before `--ENDFILE--` is
// trimmed, matching the packer's own trailing newline).
func UnpackFiles(packed string) []FileEntry {
	const fileDelim = "--FILE:"
	const endDelim = "--ENDFILE--"

	var out []FileEntry
	pos := 0
	for {
		start := strings.Index(packed[pos:], fileDelim)
		if start == -1 {
			break
		}
		start += pos + len(fileDelim)

		nl := strings.IndexByte(packed[start:], '\n')
		if nl == -1 {
			break
		}
		path := packed[start : start+nl]
		contentStart := start + nl + 1

		end := strings.Index(packed[contentStart:], endDelim)
		if end == -1 {
			break
		}
		content := packed[contentStart : contentStart+end]
		content = strings.TrimSuffix(content, "\n")

		out = append(out, FileEntry{Path: path, Content: content})
		pos = contentStart + end + len(endDelim)
	}
	return out
}

// Source is one resolved module unit: its manifest plus its packed
// source files. Populated by the caller (file I/O is out of scope, per
// spec.md §1); the Resolver only matches and filters against it.
type Source struct {
	Manifest *Manifest
	Files    []FileEntry
}

// cacheEntry is an insert-only module cache record with a use-count,
// mirroring the teacher's internal/tokens.Manager's mutex-guarded map
// (here applied to resolved module Sources instead of design tokens).
type cacheEntry struct {
	source *Source
	refs   int
}

// Cache is a mutex-guarded, insert-only module cache keyed by normalized
// module path (spec.md §5 Concurrency Model: bounded, released with the
// compilation unit). Once a path is inserted its Source is never
// replaced; repeated Acquire calls just bump the ref count.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
}

// NewCache creates an empty module cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*cacheEntry)}
}

// Acquire returns the cached Source for path, loading it via load on a
// cache miss. load is never called again once path is present.
func (c *Cache) Acquire(path string, load func() (*Source, error)) (*Source, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[path]; ok {
		e.refs++
		return e.source, nil
	}
	src, err := load()
	if err != nil {
		return nil, err
	}
	c.entries[path] = &cacheEntry{source: src, refs: 1}
	return src, nil
}

// Release decrements path's ref count without evicting it; the cache is
// insert-only for the lifetime of a compilation unit.
func (c *Cache) Release(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[path]; ok && e.refs > 0 {
		e.refs--
	}
}

// Refs reports path's current ref count, for tests.
func (c *Cache) Refs(path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[path]; ok {
		return e.refs
	}
	return 0
}

// Resolver matches `[Import]` directives against a fixed set of
// available module Sources (supplied by the caller, keyed by normalized
// module path) and a shared Cache.
type Resolver struct {
	available map[string]*Source
	cache     *Cache
}

// NewResolver creates a Resolver over available, a caller-supplied map
// from normalized module path to its already-loaded Source.
func NewResolver(available map[string]*Source, cache *Cache) *Resolver {
	return &Resolver{available: available, cache: cache}
}

// Resolution is the set of concrete, exported names an `[Import]`
// directive resolves to, after wildcard matching and `except` filtering.
type Resolution struct {
	ModulePaths []string
	Names       []string
}

// Resolve matches imp.ModulePath (a literal path or a `doublestar`
// wildcard, per WildcardImportParser::isWildcardPattern) against every
// available module, filters exports by imp.ImportSubject (compared with
// each export's Type only, so Template and Custom exports of that type
// both match; "*" matches everything) and removes any name in
// imp.Except.
func (r *Resolver) Resolve(imp *ast.Node, sink *diag.Sink, file string) Resolution {
	pattern := NormalizePath(imp.ModulePath)
	paths := r.matchModules(pattern)
	if len(paths) == 0 {
		sink.Report(diag.Diagnostic{
			Severity: diag.Error, Code: diag.CodeResolve,
			Message: fmt.Sprintf("no module matches import path %q", imp.ModulePath),
			File:    file, Line: imp.Line, Column: imp.Col,
		})
		return Resolution{}
	}

	except := make(map[string]bool, len(imp.Except))
	for _, n := range imp.Except {
		except[n] = true
	}

	res := Resolution{ModulePaths: paths}
	for _, p := range paths {
		src, err := r.cache.Acquire(p, func() (*Source, error) { return r.available[p], nil })
		if err != nil || src == nil {
			continue
		}
		for _, exp := range src.Manifest.Exports {
			if imp.ImportSubject != "*" && exp.Type != imp.ImportSubject {
				continue
			}
			for _, name := range exp.Names {
				if except[name] {
					continue
				}
				res.Names = append(res.Names, name)
			}
		}
	}
	return res
}

// matchModules returns every available module path whose normalized key
// matches pattern (a doublestar glob, or a literal path with no wildcard
// segments), sorted for deterministic resolution order.
func (r *Resolver) matchModules(pattern string) []string {
	var out []string
	for key := range r.available {
		if ok, _ := doublestar.Match(pattern, key); ok {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}
