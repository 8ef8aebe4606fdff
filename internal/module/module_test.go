package module_test

import (
	"testing"

	"chtl.dev/chtl/internal/ast"
	"chtl.dev/chtl/internal/diag"
	"chtl.dev/chtl/internal/module"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePathTreatsDotAndSlashAsEquivalent(t *testing.T) {
	assert.Equal(t, "my/components/buttons", module.NormalizePath("my.components.buttons"))
	assert.Equal(t, "my/components/buttons", module.NormalizePath("my/components/buttons"))
}

func TestParseManifestExtractsInfoAndExports(t *testing.T) {
	src := `
[Info] {
  name = "Chtholly";
  version = "1.0.0";
  description = "core components";
  author = "CHTL Team";
}

[Export] {
  [Template] @Style Card, Banner;
  [Custom] @Element Widget;
}
`
	m := module.ParseManifest(src)
	require.Equal(t, "Chtholly", m.Name)
	assert.Equal(t, "1.0.0", m.Version)
	assert.Equal(t, "core components", m.Description)
	assert.Equal(t, "CHTL Team", m.Author)
	require.Len(t, m.Exports, 2)
	assert.Equal(t, "Template", m.Exports[0].Kind)
	assert.Equal(t, "@Style", m.Exports[0].Type)
	assert.Equal(t, []string{"Card", "Banner"}, m.Exports[0].Names)
	assert.Equal(t, "Custom", m.Exports[1].Kind)
	assert.Equal(t, []string{"Widget"}, m.Exports[1].Names)
}

func TestManifestStringRoundTripsThroughParseManifest(t *testing.T) {
	m := &module.Manifest{
		Name: "Chtholly", Version: "1.0.0", Description: "core", Author: "team",
		Exports: []module.Export{{Kind: "Template", Type: "@Style", Names: []string{"Card"}}},
	}
	reparsed := module.ParseManifest(m.String())
	assert.Equal(t, m.Name, reparsed.Name)
	assert.Equal(t, m.Version, reparsed.Version)
	assert.Equal(t, m.Exports, reparsed.Exports)
}

func TestPackAndUnpackFilesRoundTrip(t *testing.T) {
	files := []module.FileEntry{
		{Path: "info/Chtholly.chtl", Content: "[Info] {\n  name = \"Chtholly\";\n}"},
		{Path: "src/card.chtl", Content: "[Template] @Style Card { color: blue; }"},
	}
	packed := module.PackFiles(files)
	unpacked := module.UnpackFiles(packed)
	require.Len(t, unpacked, 2)
	assert.Equal(t, files[0], unpacked[0])
	assert.Equal(t, files[1], unpacked[1])
}

func TestCacheIsInsertOnlyAndRefCounts(t *testing.T) {
	c := module.NewCache()
	calls := 0
	load := func() (*module.Source, error) {
		calls++
		return &module.Source{Manifest: &module.Manifest{Name: "X"}}, nil
	}

	s1, err := c.Acquire("my/components", load)
	require.NoError(t, err)
	s2, err := c.Acquire("my/components", load)
	require.NoError(t, err)

	assert.Same(t, s1, s2)
	assert.Equal(t, 1, calls, "load must not run again once cached")
	assert.Equal(t, 2, c.Refs("my/components"))

	c.Release("my/components")
	assert.Equal(t, 1, c.Refs("my/components"))
}

func TestResolveMatchesLiteralPathAndFiltersBySubject(t *testing.T) {
	available := map[string]*module.Source{
		"my/components": {Manifest: &module.Manifest{Exports: []module.Export{
			{Kind: "Template", Type: "@Style", Names: []string{"Card", "Banner"}},
			{Kind: "Template", Type: "@Element", Names: []string{"Layout"}},
		}}},
	}
	r := module.NewResolver(available, module.NewCache())
	sink := diag.NewSink()

	imp := &ast.Node{Kind: ast.KindImportDirective, ImportSubject: "@Style", ModulePath: "my.components"}
	res := r.Resolve(imp, sink, "t.chtl")
	require.Empty(t, sink.Errors())
	assert.Equal(t, []string{"my/components"}, res.ModulePaths)
	assert.ElementsMatch(t, []string{"Card", "Banner"}, res.Names)
}

func TestResolveWildcardMatchesMultipleModules(t *testing.T) {
	available := map[string]*module.Source{
		"my/components/card":  {Manifest: &module.Manifest{Exports: []module.Export{{Kind: "Template", Type: "@Style", Names: []string{"Card"}}}}},
		"my/components/modal": {Manifest: &module.Manifest{Exports: []module.Export{{Kind: "Template", Type: "@Style", Names: []string{"Modal"}}}}},
		"other/thing":         {Manifest: &module.Manifest{Exports: []module.Export{{Kind: "Template", Type: "@Style", Names: []string{"Nope"}}}}},
	}
	r := module.NewResolver(available, module.NewCache())
	sink := diag.NewSink()

	imp := &ast.Node{Kind: ast.KindImportDirective, ImportSubject: "*", ModulePath: "my.components.*"}
	res := r.Resolve(imp, sink, "t.chtl")
	require.Empty(t, sink.Errors())
	assert.ElementsMatch(t, []string{"my/components/card", "my/components/modal"}, res.ModulePaths)
	assert.ElementsMatch(t, []string{"Card", "Modal"}, res.Names)
}

func TestResolveExceptFiltersNamedExports(t *testing.T) {
	available := map[string]*module.Source{
		"my/components": {Manifest: &module.Manifest{Exports: []module.Export{
			{Kind: "Template", Type: "@Style", Names: []string{"Card", "Legacy", "Old"}},
		}}},
	}
	r := module.NewResolver(available, module.NewCache())
	sink := diag.NewSink()

	imp := &ast.Node{Kind: ast.KindImportDirective, ImportSubject: "@Style", ModulePath: "my.components", Except: []string{"Legacy", "Old"}}
	res := r.Resolve(imp, sink, "t.chtl")
	require.Empty(t, sink.Errors())
	assert.Equal(t, []string{"Card"}, res.Names)
}

func TestResolveUnmatchedPathReportsResolveError(t *testing.T) {
	r := module.NewResolver(map[string]*module.Source{}, module.NewCache())
	sink := diag.NewSink()

	imp := &ast.Node{Kind: ast.KindImportDirective, ImportSubject: "@Style", ModulePath: "ghost.module"}
	res := r.Resolve(imp, sink, "t.chtl")
	require.NotEmpty(t, sink.Errors())
	assert.Empty(t, res.Names)
}
