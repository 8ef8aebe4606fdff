package ast

import (
	"fmt"
	"sort"
	"strings"
)

// Print renders node as a canonical, indentation-based textual dump,
// grounded directly on original_source's Test/AstPrinter.cpp (an
// indent-tracking visitor that switches on node kind). The dump is a
// debugging view, not CHTL source: the Parser cannot read it back.
func Print(node *Node) string {
	var sb strings.Builder
	visit(&sb, node, 0)
	return sb.String()
}

func indent(sb *strings.Builder, level int) {
	sb.WriteString(strings.Repeat("  ", level))
}

func visit(sb *strings.Builder, n *Node, level int) {
	if n == nil {
		indent(sb, level)
		sb.WriteString("nil\n")
		return
	}

	switch n.Kind {
	case KindProgram:
		indent(sb, level)
		sb.WriteString("Program\n")
		for _, c := range n.Statements {
			visit(sb, c, level+1)
		}
	case KindElement:
		indent(sb, level)
		fmt.Fprintf(sb, "Element <%s>\n", n.Tag)
		for _, a := range n.Attrs {
			indent(sb, level+1)
			fmt.Fprintf(sb, "- Attr: %s = %s\n", a.Key, describeValue(a.Value))
		}
		for _, c := range n.Children {
			visit(sb, c, level+1)
		}
	case KindText:
		indent(sb, level)
		fmt.Fprintf(sb, "Text: %q\n", n.Text)
	case KindStyleBlock:
		indent(sb, level)
		sb.WriteString("StyleBlock\n")
		for _, c := range n.Children {
			visit(sb, c, level+1)
		}
	case KindCssProperty:
		indent(sb, level)
		fmt.Fprintf(sb, "Prop: %s: %s;\n", n.Key, describeValue(n.Value))
	case KindNestedRule:
		indent(sb, level)
		fmt.Fprintf(sb, "NestedRule %s\n", n.Selector)
		for _, c := range n.Children {
			visit(sb, c, level+1)
		}
	case KindScriptBlock:
		indent(sb, level)
		fmt.Fprintf(sb, "ScriptBlock #%d\n", n.PlaceholderID)
	case KindTemplateDef, KindCustomDef:
		indent(sb, level)
		label := "TemplateDef"
		if n.Kind == KindCustomDef {
			label = "CustomDef"
		}
		parent := ""
		if n.HasParent {
			parent = " inherit " + n.ParentName
		}
		fmt.Fprintf(sb, "%s @%s %s%s\n", label, n.DefKind, n.Name, parent)
		for _, c := range n.Body {
			visit(sb, c, level+1)
		}
	case KindUsage:
		indent(sb, level)
		fmt.Fprintf(sb, "Usage @%s\n", n.TargetName)
		for _, c := range n.SpecBody {
			visit(sb, c, level+1)
		}
	case KindSpecDelete:
		indent(sb, level)
		fmt.Fprintf(sb, "Delete %s\n", strings.Join(n.DeleteTargets, ", "))
	case KindSpecInsert:
		indent(sb, level)
		sel := n.InsertSelector
		if sel != "" {
			sel = " " + sel
		}
		fmt.Fprintf(sb, "Insert %s%s\n", n.InsertPos, sel)
		for _, c := range n.InsertBody {
			visit(sb, c, level+1)
		}
	case KindSpecInherit:
		indent(sb, level)
		fmt.Fprintf(sb, "Inherit %s\n", n.InheritName)
	case KindVarDecl:
		indent(sb, level)
		fmt.Fprintf(sb, "VarDecl %s = %q\n", n.Name, n.Literal)
	case KindOriginBlock:
		indent(sb, level)
		name := n.OriginName
		if name != "" {
			name = " " + name
		}
		fmt.Fprintf(sb, "Origin @%s%s\n", n.OriginLang, name)
	case KindOriginUsage:
		indent(sb, level)
		fmt.Fprintf(sb, "OriginUsage @%s %s\n", n.OriginLang, n.OriginName)
	case KindImportDirective:
		indent(sb, level)
		fmt.Fprintf(sb, "Import %s from %s\n", n.ImportSubject, n.ModulePath)
	case KindNamespace:
		indent(sb, level)
		fmt.Fprintf(sb, "Namespace %s\n", n.Name)
		for _, c := range n.Statements {
			visit(sb, c, level+1)
		}
	case KindConfigBlock:
		indent(sb, level)
		name := n.ConfigName
		if n.Anonymous {
			name = "<anonymous>"
		}
		fmt.Fprintf(sb, "Configuration %s\n", name)
		keys := make([]string, 0, len(n.Options))
		for k := range n.Options {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			indent(sb, level+1)
			fmt.Fprintf(sb, "%s = %s\n", k, n.Options[k])
		}
	default:
		indent(sb, level)
		sb.WriteString("UnknownNode\n")
	}
}

func describeValue(v *Node) string {
	if v == nil {
		return "<nil>"
	}
	if v.Kind == KindVarUsageValue {
		return fmt.Sprintf("%s(%s)", v.VarGroup, v.VarName)
	}
	return fmt.Sprintf("%q", v.Literal)
}
