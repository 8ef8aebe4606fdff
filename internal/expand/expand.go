// Package expand is the Expansion & Specialization Engine (spec.md
// §4.5): it replaces each Usage node with a concrete, specialized clone
// of its referenced definition. Grounded on
// original_source/CHTL/CHTLTemplate/CHTLTemplateProcessor.cpp and
// CHTL/CHTLCompiler/CHTLTemplate/CHTLTemplate.cpp for the
// inherit-then-override cascade order and the delete/insert/replace verb
// set, and on chtl/src/style/style_system.cpp for the
// duplicate-key-wins-last merge policy.
package expand

import (
	"fmt"
	"regexp"

	"chtl.dev/chtl/internal/ast"
	"chtl.dev/chtl/internal/chtlconfig"
	"chtl.dev/chtl/internal/diag"
	"chtl.dev/chtl/internal/registry"
	"github.com/mazznoer/csscolorparser"
)

// Expander walks a parsed Program, registers every definition it finds,
// and rewrites Usage nodes into their expanded, specialized form.
type Expander struct {
	reg     *registry.Registry
	cfg     chtlconfig.Config
	sink    *diag.Sink
	file    string
	origins map[string]*ast.Node
}

// New creates an Expander over reg, which may already hold definitions
// registered from imported modules.
func New(reg *registry.Registry, cfg chtlconfig.Config, sink *diag.Sink, file string) *Expander {
	return &Expander{reg: reg, cfg: cfg, sink: sink, file: file, origins: map[string]*ast.Node{}}
}

// Expand registers every TemplateDef/CustomDef/named-Origin in prog,
// then returns a new Program with every Usage replaced by its expanded
// form. Definitions, imports and configuration blocks are consumed
// rather than re-emitted; only renderable content (elements, text,
// origin content) survives into the returned tree.
func (e *Expander) Expand(prog *ast.Node) *ast.Node {
	e.collect(prog.Statements, registry.GlobalNamespace)
	out := &ast.Node{Kind: ast.KindProgram}
	out.Statements = e.expandStatements(prog.Statements, registry.GlobalNamespace)
	return out
}

func (e *Expander) report(code diag.Code, sev diag.Severity, line, col int, msg string) {
	e.sink.Report(diag.Diagnostic{Severity: sev, Code: code, Message: msg, File: e.file, Line: line, Column: col})
}

// --- collection pass ---

func (e *Expander) collect(stmts []*ast.Node, ns string) {
	for _, s := range stmts {
		switch s.Kind {
		case ast.KindTemplateDef, ast.KindCustomDef:
			if e.reg.Exists(ns, s.DefKind, s.Name) {
				e.report(diag.CodeDuplicateDef, diag.Warning, s.Line, s.Col,
					fmt.Sprintf("redefinition of %s %s %q", s.DefKind, s.Kind, s.Name))
			}
			if err := e.reg.Register(ns, s); err != nil {
				e.report(diag.CodeCycle, diag.Error, s.Line, s.Col, err.Error())
			}
		case ast.KindOriginBlock:
			if s.OriginName != "" {
				e.origins[s.OriginName] = s
			}
		case ast.KindNamespace:
			e.collect(s.Statements, s.Name)
		}
	}
}

// --- rendering-tree expansion ---

func (e *Expander) expandStatements(stmts []*ast.Node, ns string) []*ast.Node {
	var out []*ast.Node
	for _, s := range stmts {
		switch s.Kind {
		case ast.KindTemplateDef, ast.KindCustomDef, ast.KindImportDirective, ast.KindConfigBlock:
			continue // consumed by collect / the configuration and import phases
		case ast.KindNamespace:
			out = append(out, e.expandStatements(s.Statements, s.Name)...)
		case ast.KindElement:
			out = append(out, e.expandElement(s, ns))
		case ast.KindOriginUsage:
			out = append(out, e.resolveOriginUsage(s)...)
		default:
			out = append(out, s)
		}
	}
	return out
}

func (e *Expander) expandElement(el *ast.Node, ns string) *ast.Node {
	out := &ast.Node{Kind: ast.KindElement, Tag: el.Tag, Line: el.Line, Col: el.Col}
	for _, a := range el.Attrs {
		out.Attrs = append(out.Attrs, &ast.Node{
			Kind: ast.KindAttribute, Key: a.Key, Value: e.resolveValue(a.Value, ns), Line: a.Line, Col: a.Col,
		})
	}
	out.Children = e.expandElementBodyList(el.Children, ns, map[string]bool{})
	return out
}

func (e *Expander) resolveOriginUsage(u *ast.Node) []*ast.Node {
	origin, ok := e.origins[u.OriginName]
	if !ok {
		e.report(diag.CodeResolve, diag.Error, u.Line, u.Col, fmt.Sprintf("unresolved origin reference: %s", u.OriginName))
		return nil
	}
	return []*ast.Node{{
		Kind: ast.KindOriginBlock, OriginLang: origin.OriginLang, OriginName: origin.OriginName,
		OriginContent: origin.OriginContent, Line: u.Line, Col: u.Col,
	}}
}

// --- element body expansion ---

func (e *Expander) expandElementBodyList(items []*ast.Node, ns string, visiting map[string]bool) []*ast.Node {
	var out []*ast.Node
	for _, it := range items {
		switch it.Kind {
		case ast.KindElement:
			out = append(out, e.expandElement(it, ns))
		case ast.KindText:
			out = append(out, it)
		case ast.KindUsage:
			out = append(out, e.expandElementUsage(it, ns, visiting)...)
		case ast.KindStyleBlock:
			out = append(out, e.expandStyleBlock(it, ns))
		case ast.KindOriginUsage:
			out = append(out, e.resolveOriginUsage(it)...)
		default:
			out = append(out, it)
		}
	}
	return out
}

func (e *Expander) expandElementUsage(u *ast.Node, ns string, visiting map[string]bool) []*ast.Node {
	body, ok := e.resolveElementBody(ns, u.TargetName, visiting)
	if !ok {
		e.report(diag.CodeResolve, diag.Error, u.Line, u.Col, fmt.Sprintf("unresolved element reference: %s", u.TargetName))
		return nil
	}
	if u.Specialized {
		body = e.applyElementSpec(body, u.SpecBody, ns, visiting)
	}
	return body
}

func (e *Expander) resolveElementBody(ns, name string, visiting map[string]bool) ([]*ast.Node, bool) {
	vkey := "element::" + ns + "::" + name
	if visiting[vkey] {
		e.report(diag.CodeCycle, diag.Error, 0, 0, fmt.Sprintf("usage cycle detected expanding element %q", name))
		return nil, false
	}
	chain := e.reg.InheritanceChain(ns, ast.DefElement, name)
	if len(chain) == 0 {
		return nil, false
	}
	if last := chain[len(chain)-1]; last.HasParent {
		e.report(diag.CodeResolve, diag.Error, last.Line, last.Col, fmt.Sprintf("unresolved parent %s of element %s", last.ParentName, last.Name))
	}
	visiting[vkey] = true
	defer delete(visiting, vkey)

	var merged []*ast.Node
	for i := len(chain) - 1; i >= 0; i-- { // ancestor-first, self last: later entries win
		merged = append(merged, e.expandElementBodyList(chain[i].Body, ns, visiting)...)
	}
	return merged, true
}

func (e *Expander) applyElementSpec(body []*ast.Node, spec []*ast.Node, ns string, visiting map[string]bool) []*ast.Node {
	for _, s := range spec {
		switch s.Kind {
		case ast.KindSpecDelete:
			body = deleteByTag(body, s.DeleteTargets)
		case ast.KindSpecInherit:
			other, ok := e.resolveElementBody(ns, s.InheritName, visiting)
			if !ok {
				e.report(diag.CodeResolve, diag.Error, s.Line, s.Col, fmt.Sprintf("unresolved element reference: %s", s.InheritName))
				continue
			}
			body = append(append([]*ast.Node{}, other...), body...)
		case ast.KindSpecInsert:
			insertBody := e.expandElementBodyList(s.InsertBody, ns, visiting)
			body = insertAt(body, s, insertBody, elementMatch(s.InsertSelector), e.sink, e.file)
		}
	}
	return body
}

// --- style body expansion ---

func (e *Expander) expandStyleBlock(sb *ast.Node, ns string) *ast.Node {
	out := &ast.Node{Kind: ast.KindStyleBlock, Line: sb.Line, Col: sb.Col}
	out.Children = e.expandStyleBody(sb.Children, ns, map[string]bool{})
	return out
}

func (e *Expander) expandStyleBody(items []*ast.Node, ns string, visiting map[string]bool) []*ast.Node {
	var out []*ast.Node
	for _, it := range items {
		switch it.Kind {
		case ast.KindCssProperty:
			out = append(out, &ast.Node{Kind: ast.KindCssProperty, Key: it.Key, Value: e.resolveValue(it.Value, ns), Line: it.Line, Col: it.Col})
		case ast.KindNestedRule:
			nr := &ast.Node{Kind: ast.KindNestedRule, Selector: it.Selector, Line: it.Line, Col: it.Col}
			nr.Children = e.expandStyleBody(it.Children, ns, visiting)
			out = append(out, nr)
		case ast.KindUsage:
			out = append(out, e.expandStyleUsage(it, ns, visiting)...)
		default:
			out = append(out, it)
		}
	}
	return out
}

func (e *Expander) expandStyleUsage(u *ast.Node, ns string, visiting map[string]bool) []*ast.Node {
	body, ok := e.resolveStyleBody(ns, u.TargetName, visiting)
	if !ok {
		e.report(diag.CodeResolve, diag.Error, u.Line, u.Col, fmt.Sprintf("unresolved style reference: %s", u.TargetName))
		return nil
	}
	if u.Specialized {
		body = e.applyStyleSpec(body, u.SpecBody, ns, visiting)
	}
	return body
}

func (e *Expander) resolveStyleBody(ns, name string, visiting map[string]bool) ([]*ast.Node, bool) {
	vkey := "style::" + ns + "::" + name
	if visiting[vkey] {
		e.report(diag.CodeCycle, diag.Error, 0, 0, fmt.Sprintf("usage cycle detected expanding style %q", name))
		return nil, false
	}
	chain := e.reg.InheritanceChain(ns, ast.DefStyle, name)
	if len(chain) == 0 {
		return nil, false
	}
	if last := chain[len(chain)-1]; last.HasParent {
		e.report(diag.CodeResolve, diag.Error, last.Line, last.Col, fmt.Sprintf("unresolved parent %s of style %s", last.ParentName, last.Name))
	}
	visiting[vkey] = true
	defer delete(visiting, vkey)

	var merged []*ast.Node
	for i := len(chain) - 1; i >= 0; i-- { // ancestor-first, self last: later entries win (spec.md §4.5 step 2)
		merged = append(merged, e.expandStyleBody(chain[i].Body, ns, visiting)...)
	}
	return merged, true
}

func (e *Expander) applyStyleSpec(body []*ast.Node, spec []*ast.Node, ns string, visiting map[string]bool) []*ast.Node {
	for _, s := range spec {
		switch s.Kind {
		case ast.KindSpecDelete:
			body = deleteByKey(body, s.DeleteTargets)
		case ast.KindSpecInherit:
			other, ok := e.resolveStyleBody(ns, s.InheritName, visiting)
			if !ok {
				e.report(diag.CodeResolve, diag.Error, s.Line, s.Col, fmt.Sprintf("unresolved style reference: %s", s.InheritName))
				continue
			}
			body = append(append([]*ast.Node{}, other...), body...)
		case ast.KindSpecInsert:
			insertBody := e.expandStyleBody(s.InsertBody, ns, visiting)
			body = insertAt(body, s, insertBody, styleMatch(s.InsertSelector), e.sink, e.file)
		}
	}
	return body
}

// --- shared merge helpers ---

func deleteByKey(body []*ast.Node, targets []string) []*ast.Node {
	set := map[string]bool{}
	for _, t := range targets {
		set[t] = true
	}
	out := make([]*ast.Node, 0, len(body))
	for _, b := range body {
		if b.Kind == ast.KindCssProperty && set[b.Key] {
			continue
		}
		out = append(out, b)
	}
	return out
}

func deleteByTag(body []*ast.Node, targets []string) []*ast.Node {
	set := map[string]bool{}
	for _, t := range targets {
		set[t] = true
	}
	out := make([]*ast.Node, 0, len(body))
	for _, b := range body {
		if b.Kind == ast.KindElement && set[b.Tag] {
			continue
		}
		out = append(out, b)
	}
	return out
}

func styleMatch(sel string) func(*ast.Node) bool {
	return func(n *ast.Node) bool { return n.Kind == ast.KindCssProperty && n.Key == sel }
}

func elementMatch(sel string) func(*ast.Node) bool {
	return func(n *ast.Node) bool { return n.Kind == ast.KindElement && n.Tag == sel }
}

// insertAt implements the five insert positions of spec.md §4.5 step 2
// (`insert at top/bottom/before/after/replace`). before/after/replace
// match the first body entry satisfying match; an unmatched selector
// reports a SpecError and leaves body unchanged.
func insertAt(body []*ast.Node, ins *ast.Node, insertBody []*ast.Node, match func(*ast.Node) bool, sink *diag.Sink, file string) []*ast.Node {
	switch ins.InsertPos {
	case ast.PosAtTop:
		return append(append([]*ast.Node{}, insertBody...), body...)
	case ast.PosAtBottom:
		return append(append([]*ast.Node{}, body...), insertBody...)
	}

	idx := -1
	for i, b := range body {
		if match(b) {
			idx = i
			break
		}
	}
	if idx == -1 {
		sink.Report(diag.Diagnostic{
			Severity: diag.Error, Code: diag.CodeSpec,
			Message:  fmt.Sprintf("insert target %q not found", ins.InsertSelector),
			File:     file, Line: ins.Line, Column: ins.Col,
		})
		return body
	}

	switch ins.InsertPos {
	case ast.PosBefore:
		out := append([]*ast.Node{}, body[:idx]...)
		out = append(out, insertBody...)
		return append(out, body[idx:]...)
	case ast.PosAfter:
		out := append([]*ast.Node{}, body[:idx+1]...)
		out = append(out, insertBody...)
		return append(out, body[idx+1:]...)
	case ast.PosReplace:
		out := append([]*ast.Node{}, body[:idx]...)
		out = append(out, insertBody...)
		return append(out, body[idx+1:]...)
	}
	return body
}

// --- value resolution ---

// colorShaped recognizes the literal forms csscolorparser understands
// that are worth validating: hex codes and CSS color functions.
// Plain CSS literals (e.g. "20px", bare color keywords written directly
// in a CssProperty rather than through a VarUsage) never reach this
// check — only VarUsage substitutions are validated, per DESIGN.md.
var colorShaped = regexp.MustCompile(`^(#[0-9a-fA-F]{3,8}$|(rgb|rgba|hsl|hsla|hwb|lab|lch)\()`)

func (e *Expander) resolveValue(v *ast.Node, ns string) *ast.Node {
	if v == nil {
		return nil
	}
	if v.Kind != ast.KindVarUsageValue {
		return &ast.Node{Kind: ast.KindLiteralValue, Literal: v.Literal, Line: v.Line, Col: v.Col}
	}

	def, ok := e.reg.Lookup(ns, ast.DefVar, v.VarGroup)
	if !ok {
		e.report(diag.CodeResolve, diag.Error, v.Line, v.Col, fmt.Sprintf("unresolved variable group: %s", v.VarGroup))
		return &ast.Node{Kind: ast.KindLiteralValue, Literal: "", Line: v.Line, Col: v.Col}
	}
	for _, decl := range def.Body {
		if decl.Kind == ast.KindVarDecl && decl.Name == v.VarName {
			return &ast.Node{Kind: ast.KindLiteralValue, Literal: e.canonicalizeColor(decl.Literal, v.Line, v.Col), Line: v.Line, Col: v.Col}
		}
	}
	e.report(diag.CodeMissingVar, diag.Warning, v.Line, v.Col, fmt.Sprintf("%s has no variable named %q", v.VarGroup, v.VarName))
	return &ast.Node{Kind: ast.KindLiteralValue, Literal: "", Line: v.Line, Col: v.Col}
}

// canonicalizeColor validates a color-shaped literal via csscolorparser
// and returns lit unchanged either way: Testable Property 5 requires a
// resolved VarUsage to emit exactly the stored literal, so this only
// warns on a malformed value rather than re-rendering it.
func (e *Expander) canonicalizeColor(lit string, line, col int) string {
	if !colorShaped.MatchString(lit) {
		return lit
	}
	if _, err := csscolorparser.Parse(lit); err != nil {
		e.report(diag.CodeResolve, diag.Warning, line, col, fmt.Sprintf("malformed color value %q", lit))
	}
	return lit
}
