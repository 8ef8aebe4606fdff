package scanner_test

import (
	"testing"

	"chtl.dev/chtl/internal/chtlconfig"
	"chtl.dev/chtl/internal/diag"
	"chtl.dev/chtl/internal/scanner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// S5: script passthrough — no CHTL transformation applied inside.
func TestScanScriptPassthrough(t *testing.T) {
	src := `div { script { console.log("hi"); } }`
	sink := diag.NewSink()
	out, phmap := scanner.Scan(src, chtlconfig.Default(), sink)

	require.Empty(t, sink.Errors())
	assert.Contains(t, out, "script {")
	assert.Equal(t, 1, phmap.Len())

	ph, ok := phmap.GetByID(0)
	require.True(t, ok)
	assert.Contains(t, ph.Original, `console.log("hi");`)
}

// S6: scanner CHTL-JS separation — listen{} is CHTL_JS.
func TestScanCHTLJSDetection(t *testing.T) {
	src := `script { listen { click: 1 } }`
	sink := diag.NewSink()
	_, phmap := scanner.Scan(src, chtlconfig.Default(), sink)

	require.Equal(t, 1, phmap.Len())
	ph, _ := phmap.GetByID(0)
	assert.Equal(t, scanner.FragmentCHTLJS, ph.Kind)
}

func TestScanPlainJSIsNotCHTLJS(t *testing.T) {
	src := `script { function f() { return 1; } }`
	sink := diag.NewSink()
	_, phmap := scanner.Scan(src, chtlconfig.Default(), sink)

	require.Equal(t, 1, phmap.Len())
	ph, _ := phmap.GetByID(0)
	assert.Equal(t, scanner.FragmentJS, ph.Kind)
}

func TestScanStyleBlockIsCSSFragment(t *testing.T) {
	src := `div { style { color: red; } }`
	sink := diag.NewSink()
	_, phmap := scanner.Scan(src, chtlconfig.Default(), sink)

	require.Equal(t, 1, phmap.Len())
	ph, _ := phmap.GetByID(0)
	assert.Equal(t, scanner.FragmentCSS, ph.Kind)
	assert.Equal(t, scanner.StateStyleBlock, ph.State)
}

// Testable Property 6: restoring all placeholders round-trips byte-exact.
func TestScanPlaceholderRoundTrip(t *testing.T) {
	src := `div { script { var x = 1; } text { "hi" } }`
	sink := diag.NewSink()
	out, phmap := scanner.Scan(src, chtlconfig.Default(), sink)

	restored := out
	for i := 0; i < phmap.Len(); i++ {
		ph, _ := phmap.GetByID(i)
		name := scanner.Name(i)
		restored = replaceOnce(restored, name, ph.Original)
	}
	assert.Equal(t, src, restored)
}

func replaceOnce(s, old, newStr string) string {
	idx := indexOf(s, old)
	if idx < 0 {
		return s
	}
	return s[:idx] + newStr + s[idx+len(old):]
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

func TestScanUnbalancedReportsScanError(t *testing.T) {
	src := `div { script { console.log("hi");`
	sink := diag.NewSink()
	scanner.Scan(src, chtlconfig.Default(), sink)

	require.NotEmpty(t, sink.Errors())
	assert.Equal(t, diag.CodeScan, sink.Errors()[0].Code)
}
