package chtlconfig_test

import (
	"os"
	"path/filepath"
	"testing"

	"chtl.dev/chtl/internal/chtlconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	c := chtlconfig.Default()

	assert.False(t, c.Strict)
	assert.True(t, c.WideScan)
	assert.True(t, c.EnableCache)
	assert.True(t, c.EnableInheritance)
	assert.False(t, c.Debug)
	assert.Empty(t, c.DisabledNameGroups)
}

func TestIsGroupDisabled(t *testing.T) {
	c := chtlconfig.Default()
	c.DisabledNameGroups = []string{"Custom"}

	assert.True(t, c.IsGroupDisabled("Custom"))
	assert.False(t, c.IsGroupDisabled("Template"))
}

func TestResolveKeywordAlias(t *testing.T) {
	c := chtlconfig.Default()
	c.CustomKeywordAliases = map[string]string{"txt": "text"}

	assert.Equal(t, "text", c.ResolveKeyword("txt"))
	assert.Equal(t, "style", c.ResolveKeyword("style"))
}

func TestLoadPresetFileApply(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chtl.yaml")
	content := []byte(`
presets:
  strict-html:
    strict: true
    wideScan: false
    disabledNameGroups: ["Custom"]
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	pf, err := chtlconfig.LoadPresetFile(path)
	require.NoError(t, err)

	merged, err := pf.Apply(chtlconfig.Default(), "strict-html")
	require.NoError(t, err)

	assert.True(t, merged.Strict)
	assert.False(t, merged.WideScan)
	assert.Equal(t, []string{"Custom"}, merged.DisabledNameGroups)
}

func TestApplyUnknownPreset(t *testing.T) {
	pf := &chtlconfig.PresetFile{Presets: map[string]chtlconfig.Preset{}}
	_, err := pf.Apply(chtlconfig.Default(), "missing")
	assert.Error(t, err)
}

func TestApplyInlineOptionsKnownKeys(t *testing.T) {
	c := chtlconfig.Default()
	merged := c.ApplyInlineOptions(map[string]string{
		"strict":             "true",
		"debug":              "true",
		"disabledNameGroups": "Custom,Origin",
		"alias.txt":          "text",
	})

	assert.True(t, merged.Strict)
	assert.True(t, merged.Debug)
	assert.False(t, c.Strict, "base Config must not be mutated")
	assert.Equal(t, []string{"Custom", "Origin"}, merged.DisabledNameGroups)
	assert.Equal(t, "text", merged.ResolveKeyword("txt"))
}

func TestApplyInlineOptionsIgnoresUnknownKeys(t *testing.T) {
	c := chtlconfig.Default()
	merged := c.ApplyInlineOptions(map[string]string{"bogus": "whatever"})
	assert.Equal(t, c, merged)
}
