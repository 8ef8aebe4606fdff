// Package ast defines the CHTL abstract syntax tree as a single
// tagged-variant Node type (spec.md §9: "replace deep virtual
// inheritance... with a single tagged-variant AST... clone, visit, and
// pattern-match over the variant discriminant"). Grounded on
// original_source's CHTLASTNode.h (one node class, a Kind enum, and a
// payload) and on the visitor shape of Test/AstPrinter.cpp.
package ast

// Kind discriminates a Node's payload.
type Kind int

const (
	KindProgram Kind = iota
	KindElement
	KindText
	KindAttribute
	KindStyleBlock
	KindCssProperty
	KindNestedRule
	KindScriptBlock
	KindTemplateDef
	KindCustomDef
	KindUsage
	KindSpecDelete
	KindSpecInsert
	KindSpecInherit
	KindVarDecl
	KindOriginBlock
	KindOriginUsage
	KindImportDirective
	KindNamespace
	KindConfigBlock
	KindLiteralValue
	KindVarUsageValue
)

func (k Kind) String() string {
	names := [...]string{
		"Program", "Element", "Text", "Attribute", "StyleBlock",
		"CssProperty", "NestedRule", "ScriptBlock", "TemplateDef",
		"CustomDef", "Usage", "SpecDelete", "SpecInsert", "SpecInherit",
		"VarDecl", "OriginBlock", "OriginUsage", "ImportDirective",
		"Namespace", "ConfigBlock", "LiteralValue", "VarUsageValue",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return "Unknown"
}

// DefKind distinguishes Style/Element/Var template-or-custom bodies.
type DefKind int

const (
	DefStyle DefKind = iota
	DefElement
	DefVar
)

func (k DefKind) String() string {
	switch k {
	case DefStyle:
		return "Style"
	case DefElement:
		return "Element"
	case DefVar:
		return "Var"
	default:
		return "Unknown"
	}
}

// UsageKind distinguishes a Usage's target: a Template or a Custom. An
// Origin re-use is a separate node kind, KindOriginUsage.
type UsageKind int

const (
	UsageTemplate UsageKind = iota
	UsageCustom
)

// InsertPosition is the target location of an `insert` specialization
// verb (spec.md §4.3 grammar, Position non-terminal).
type InsertPosition int

const (
	PosAtTop InsertPosition = iota
	PosAtBottom
	PosBefore
	PosAfter
	PosReplace
)

func (p InsertPosition) String() string {
	switch p {
	case PosAtTop:
		return "at top"
	case PosAtBottom:
		return "at bottom"
	case PosBefore:
		return "before"
	case PosAfter:
		return "after"
	case PosReplace:
		return "replace"
	default:
		return "unknown"
	}
}

// Node is the single tagged-variant AST node type. Only the fields
// relevant to Kind are populated; Clone deep-copies every reachable
// field regardless of Kind so callers never need a Kind-specific clone.
type Node struct {
	Kind Kind
	Line int
	Col  int

	// Program
	Statements []*Node

	// Element
	Tag      string
	Attrs    []*Node // KindAttribute
	Children []*Node // Element | Text | Usage | StyleBlock | ScriptBlock

	// Text
	Text string

	// Attribute
	Key   string
	Value *Node // KindLiteralValue | KindVarUsageValue

	// LiteralValue
	Literal string

	// VarUsageValue
	VarGroup string
	VarName  string

	// StyleBlock: Children holds CssProperty | Usage | NestedRule

	// CssProperty: Key, Value

	// NestedRule
	Selector string
	// Children holds nested CssProperty | Usage

	// ScriptBlock
	PlaceholderID int

	// TemplateDef / CustomDef
	DefKind    DefKind
	Name       string
	ParentName string
	HasParent  bool
	Body       []*Node // CssProperty|Usage (Style) or Element|Text|Usage (Element) or VarDecl (Var)
	Namespace  string

	// Usage
	UsageKind       UsageKind
	TargetName      string
	Specialized     bool
	SpecBody        []*Node // SpecDelete | SpecInsert | SpecInherit

	// SpecDelete
	DeleteTargets []string

	// SpecInsert
	InsertPos      InsertPosition
	InsertSelector string
	InsertBody     []*Node

	// SpecInherit
	InheritName string

	// VarDecl
	// Name, Literal

	// OriginBlock / OriginUsage
	OriginLang    string
	OriginName    string
	OriginContent string

	// ImportDirective
	ImportSubject string // definition kind name, "Origin", "*" or a concrete name
	ModulePath    string
	Alias         string
	Except        []string

	// Namespace
	// Name, Body reused as Statements

	// ConfigBlock
	ConfigName string
	Anonymous  bool
	Options    map[string]string
}

// Clone deep-copies a Node and everything it reaches. Required because
// the Expansion Engine must never mutate a Registry-held definition
// (spec.md §3 Lifecycle and ownership).
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	c.Statements = cloneSlice(n.Statements)
	c.Attrs = cloneSlice(n.Attrs)
	c.Children = cloneSlice(n.Children)
	c.Value = n.Value.Clone()
	c.Body = cloneSlice(n.Body)
	c.SpecBody = cloneSlice(n.SpecBody)
	c.InsertBody = cloneSlice(n.InsertBody)
	if n.DeleteTargets != nil {
		c.DeleteTargets = append([]string(nil), n.DeleteTargets...)
	}
	if n.Except != nil {
		c.Except = append([]string(nil), n.Except...)
	}
	if n.Options != nil {
		c.Options = make(map[string]string, len(n.Options))
		for k, v := range n.Options {
			c.Options[k] = v
		}
	}
	return &c
}

func cloneSlice(nodes []*Node) []*Node {
	if nodes == nil {
		return nil
	}
	out := make([]*Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}
