// Package chtlconfig defines the compiler's configuration record, a
// plain value with no global mutable state. scanner.Scan, parser.New and
// expand.New take it by value; the Lexer, Registry and Generator
// constructors take no Config. Named presets can also be loaded from a
// YAML file (PresetFile) and applied by name with PresetFile.Apply.
package chtlconfig

import "strings"

// Config is passed by value to the Scanner, Parser and Expander.
type Config struct {
	Strict    bool
	WideScan  bool
	EnableCache       bool
	EnableInheritance bool
	Debug             bool

	// DisabledNameGroups turns off whole keyword groups (e.g. "Custom")
	// for a stricter dialect, per original_source's config_system.cpp.
	DisabledNameGroups []string

	// CustomKeywordAliases lets a [Configuration] block rename a keyword,
	// e.g. mapping "text" to a project-specific alias.
	CustomKeywordAliases map[string]string
}

// Default returns the baseline configuration: lenient, wide-scan,
// caching and inheritance enabled, not debugging. Mirrors the teacher's
// lsp/types.DefaultConfig() constructor-function convention.
func Default() Config {
	return Config{
		Strict:            false,
		WideScan:          true,
		EnableCache:       true,
		EnableInheritance: true,
		Debug:             false,
	}
}

// IsGroupDisabled reports whether a [Configuration]-named keyword group
// has been turned off.
func (c Config) IsGroupDisabled(group string) bool {
	for _, g := range c.DisabledNameGroups {
		if g == group {
			return true
		}
	}
	return false
}

// ResolveKeyword returns the effective keyword for lexeme, applying any
// CustomKeywordAliases override (the alias's target resolves first).
func (c Config) ResolveKeyword(lexeme string) string {
	for alias, target := range c.CustomKeywordAliases {
		if alias == lexeme {
			return target
		}
	}
	return lexeme
}

// ApplyInlineOptions overlays a source-level [Configuration] block's raw
// key/value options (parser.go's parseConfigBlock produces a flat
// map[string]string) onto c, the way PresetFile.Apply overlays a named
// external YAML preset, but parsed from inline CHTL literal text rather
// than typed YAML fields. Unrecognized keys are ignored.
func (c Config) ApplyInlineOptions(opts map[string]string) Config {
	out := c
	for key, val := range opts {
		switch key {
		case "strict":
			out.Strict = val == "true"
		case "wideScan":
			out.WideScan = val == "true"
		case "enableCache":
			out.EnableCache = val == "true"
		case "enableInheritance":
			out.EnableInheritance = val == "true"
		case "debug":
			out.Debug = val == "true"
		case "disabledNameGroups":
			out.DisabledNameGroups = append(out.DisabledNameGroups, strings.Split(val, ",")...)
		default:
			if alias, ok := strings.CutPrefix(key, "alias."); ok {
				if out.CustomKeywordAliases == nil {
					out.CustomKeywordAliases = map[string]string{}
				}
				out.CustomKeywordAliases[alias] = val
			}
		}
	}
	return out
}
