package chtlconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PresetFile is the shape of a --config-file YAML document: a set of
// named configuration presets, one of which PresetFile.Apply overlays
// onto a Config (the CLI's --preset flag). A source-level `use Name;`
// selects a [Configuration] block of the same unit, never one of these
// presets. Mirrors the teacher's use of gopkg.in/yaml.v3 for structured,
// schema-like documents (internal/schema/registry.go).
type PresetFile struct {
	Presets map[string]Preset `yaml:"presets"`
}

// Preset is one named configuration override, field-for-field a subset
// of Config suitable for hand-written YAML.
type Preset struct {
	Strict             *bool             `yaml:"strict"`
	WideScan           *bool             `yaml:"wideScan"`
	EnableCache        *bool             `yaml:"enableCache"`
	EnableInheritance  *bool             `yaml:"enableInheritance"`
	DisabledNameGroups []string          `yaml:"disabledNameGroups"`
	KeywordAliases     map[string]string `yaml:"keywordAliases"`
}

// LoadPresetFile reads and parses a --config-file document.
func LoadPresetFile(path string) (*PresetFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	var pf PresetFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return &pf, nil
}

// Apply overlays a named preset onto base, returning the merged Config.
// Unknown preset names return base unchanged alongside an error.
func (pf *PresetFile) Apply(base Config, name string) (Config, error) {
	preset, ok := pf.Presets[name]
	if !ok {
		return base, fmt.Errorf("no such configuration preset: %s", name)
	}
	out := base
	if preset.Strict != nil {
		out.Strict = *preset.Strict
	}
	if preset.WideScan != nil {
		out.WideScan = *preset.WideScan
	}
	if preset.EnableCache != nil {
		out.EnableCache = *preset.EnableCache
	}
	if preset.EnableInheritance != nil {
		out.EnableInheritance = *preset.EnableInheritance
	}
	if len(preset.DisabledNameGroups) > 0 {
		out.DisabledNameGroups = preset.DisabledNameGroups
	}
	if len(preset.KeywordAliases) > 0 {
		if out.CustomKeywordAliases == nil {
			out.CustomKeywordAliases = map[string]string{}
		}
		for k, v := range preset.KeywordAliases {
			out.CustomKeywordAliases[k] = v
		}
	}
	return out, nil
}
