// Package emit is the Code Generator (spec.md §4.6): it walks the
// expanded AST and writes two streams, HTML and CSS, restoring
// scanner placeholders as it goes.
//
// Grounded on original_source/src/CHTL/Generator/Generator.cpp's
// visit-dispatch shape (one method per node kind, two stringstreams).
// The original Generator still resolves VarUsage and TemplateUsage
// nodes itself; here that work is already done by internal/expand, so
// Generate only has to render an already-concrete tree.
package emit

import (
	"fmt"
	"strings"

	"chtl.dev/chtl/internal/ast"
	"chtl.dev/chtl/internal/diag"
	"chtl.dev/chtl/internal/scanner"
)

// selfClosing is the fixed tag list from spec.md §4.6.
var selfClosing = map[string]bool{
	"br": true, "hr": true, "img": true, "input": true, "meta": true,
	"link": true, "area": true, "base": true, "col": true, "embed": true,
	"source": true, "track": true, "wbr": true,
}

// Result is the Code Generator's output: the two streams spec.md §6
// names in the External Interfaces result record.
type Result struct {
	HTML string
	CSS  string
}

// Generator walks an expanded Program node and renders HTML + CSS.
type Generator struct {
	phmap *scanner.PlaceholderMap
	sink  *diag.Sink
	file  string

	html strings.Builder
	css  strings.Builder

	indent int
	// counters keys by tag name, for the auto-generated class given to
	// every element that hoists NestedRules.
	counters map[string]int
}

// New creates a Generator. phmap may be nil if the source had no
// scanned fragments (e.g. a unit test building an AST by hand).
func New(phmap *scanner.PlaceholderMap, sink *diag.Sink, file string) *Generator {
	return &Generator{phmap: phmap, sink: sink, file: file, counters: make(map[string]int)}
}

// Generate walks prog and returns the rendered HTML and CSS streams.
func (g *Generator) Generate(prog *ast.Node) Result {
	for _, stmt := range prog.Statements {
		g.visit(stmt)
	}
	return Result{HTML: g.html.String(), CSS: g.css.String()}
}

func (g *Generator) writeIndent(b *strings.Builder) {
	b.WriteString(strings.Repeat("  ", g.indent))
}

func (g *Generator) visit(n *ast.Node) {
	if n == nil {
		return
	}
	switch n.Kind {
	case ast.KindElement:
		g.visitElement(n)
	case ast.KindText:
		g.writeIndent(&g.html)
		g.html.WriteString(escapeHTML(n.Text))
		g.html.WriteString("\n")
	case ast.KindScriptBlock:
		g.visitScript(n)
	case ast.KindOriginBlock:
		g.visitOrigin(n)
	case ast.KindStyleBlock:
		// A StyleBlock reached here is a top-level (global) style rule
		// set, not one nested in an element body — emit its
		// CssProperty/NestedRule entries straight to the CSS stream.
		g.emitGlobalStyleBlock(n)
	default:
		// TemplateDef/CustomDef/ImportDirective/ConfigBlock/Namespace
		// statements are consumed earlier in the pipeline and never
		// reach the generator; anything else is silently skipped.
	}
}

func (g *Generator) visitElement(n *ast.Node) {
	g.writeIndent(&g.html)
	fmt.Fprintf(&g.html, "<%s", n.Tag)
	for _, attr := range n.Attrs {
		fmt.Fprintf(&g.html, " %s=\"%s\"", attr.Key, escapeHTML(g.renderValue(attr.Value)))
	}

	inline := g.collectElementStyles(n)
	if inline != "" {
		fmt.Fprintf(&g.html, " style=\"%s\"", inline)
	}

	if selfClosing[n.Tag] {
		g.html.WriteString(" />\n")
		return
	}
	g.html.WriteString(">\n")

	g.indent++
	for _, child := range n.Children {
		if child.Kind == ast.KindStyleBlock {
			continue // already folded into the inline style attribute above
		}
		g.visit(child)
	}
	g.indent--

	g.writeIndent(&g.html)
	fmt.Fprintf(&g.html, "</%s>\n", n.Tag)
}

// collectElementStyles walks el's StyleBlock children (there is at most
// one after expansion, but the loop tolerates more), writing CssProperty
// entries into an inline "key: value; " string and hoisting NestedRules
// into the CSS stream under an auto-generated selector. Called after the
// tag name and attribute list are already written but before the closing
// ">", so a NestedRule's auto-generated class lands on the opening tag.
func (g *Generator) collectElementStyles(el *ast.Node) string {
	var inline strings.Builder
	selector := ""
	for _, child := range el.Children {
		if child.Kind != ast.KindStyleBlock {
			continue
		}
		for _, item := range child.Children {
			switch item.Kind {
			case ast.KindCssProperty:
				fmt.Fprintf(&inline, "%s: %s; ", item.Key, g.renderValue(item.Value))
			case ast.KindNestedRule:
				if selector == "" {
					selector = g.autoSelector(el)
				}
				g.emitNestedRule(selector, item)
			}
		}
	}
	return strings.TrimSuffix(inline.String(), " ")
}

// autoSelector assigns an auto-generated class for an element that needs
// one to host hoisted NestedRules, using the element's tag plus a
// monotonic per-tag counter (spec.md §4.6), and writes the class
// attribute directly onto the element's still-open opening tag.
func (g *Generator) autoSelector(el *ast.Node) string {
	g.counters[el.Tag]++
	class := fmt.Sprintf("%s-%d", el.Tag, g.counters[el.Tag])
	fmt.Fprintf(&g.html, " class=\"%s\"", class)
	return "." + class
}

func (g *Generator) emitNestedRule(hostSelector string, rule *ast.Node) {
	sel := rule.Selector
	if sel == "&" || sel == "" {
		sel = hostSelector
	} else if strings.HasPrefix(sel, "&") {
		sel = hostSelector + strings.TrimPrefix(sel, "&")
	}
	fmt.Fprintf(&g.css, "%s {\n", sel)
	for _, prop := range rule.Children {
		if prop.Kind == ast.KindCssProperty {
			fmt.Fprintf(&g.css, "  %s: %s;\n", prop.Key, g.renderValue(prop.Value))
		}
	}
	g.css.WriteString("}\n")
}

// emitGlobalStyleBlock renders a StyleBlock that appears outside any
// element (a global style rule set, spec.md §4.6 CSS rules).
func (g *Generator) emitGlobalStyleBlock(sb *ast.Node) {
	for _, item := range sb.Children {
		if item.Kind == ast.KindNestedRule {
			g.emitNestedRule("", item)
		}
	}
}

func (g *Generator) visitScript(n *ast.Node) {
	g.writeIndent(&g.html)
	g.html.WriteString("<script>")
	g.html.WriteString(g.restorePlaceholder(n.PlaceholderID, n.Line, n.Col))
	g.html.WriteString("</script>\n")
}

func (g *Generator) visitOrigin(n *ast.Node) {
	switch n.OriginLang {
	case "Html":
		g.writeIndent(&g.html)
		g.html.WriteString(n.OriginContent)
		g.html.WriteString("\n")
	case "Style":
		g.css.WriteString(n.OriginContent)
		g.css.WriteString("\n")
	case "JavaScript":
		g.writeIndent(&g.html)
		g.html.WriteString("<script>")
		g.html.WriteString(n.OriginContent)
		g.html.WriteString("</script>\n")
	default:
		g.writeIndent(&g.html)
		g.html.WriteString(n.OriginContent)
		g.html.WriteString("\n")
	}
}

// renderValue resolves a LiteralValue to its plain text. By the time the
// generator runs, VarUsage values have already been substituted by
// internal/expand; a VarUsageValue node reaching here is an internal
// invariant violation, reported as an EmitError rather than panicking.
func (g *Generator) renderValue(v *ast.Node) string {
	if v == nil {
		return ""
	}
	switch v.Kind {
	case ast.KindLiteralValue:
		return v.Literal
	default:
		g.sink.Report(diag.Diagnostic{
			Severity: diag.Error, Code: diag.CodeEmit,
			Message: fmt.Sprintf("unresolved value node reached the generator (kind %s)", v.Kind),
			File:    g.file, Line: v.Line, Column: v.Col,
		})
		return ""
	}
}

// restorePlaceholder looks up a scanner placeholder id and returns its
// original text. A missing id is reported with the offending id and
// rendered literally so emission continues (spec.md §4.6 Failure).
func (g *Generator) restorePlaceholder(id int, line, col int) string {
	var ph scanner.Placeholder
	var ok bool
	if g.phmap != nil {
		ph, ok = g.phmap.GetByID(id)
	}
	if !ok {
		name := scanner.Name(id)
		g.sink.Report(diag.Diagnostic{
			Severity: diag.Error, Code: diag.CodeEmit,
			Message: fmt.Sprintf("restored placeholder missing from map: %s", name),
			File:    g.file, Line: line, Column: col,
		})
		return name
	}
	return ph.Original
}

// escapeHTML implements spec.md §4.6's narrower 4-entity escaping
// (&, <, >, ") rather than Go's broader html.EscapeString set.
func escapeHTML(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
