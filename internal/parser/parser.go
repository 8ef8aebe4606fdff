// Package parser builds the CHTL AST (spec.md §4.3) from a token
// stream, using one-token lookahead to disambiguate attributes from
// nested elements. Grounded on original_source's
// src/CHTL/Parser/Parser.cpp (recursive descent, per-construct parse
// functions dispatched on the current token) with error-recovery
// synchronization added per spec.md §4.3.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"chtl.dev/chtl/internal/ast"
	"chtl.dev/chtl/internal/chtlconfig"
	"chtl.dev/chtl/internal/diag"
	"chtl.dev/chtl/internal/token"
)

// Parser consumes a token slice and produces an *ast.Node Program.
type Parser struct {
	toks []token.Token
	pos  int
	file string
	cfg  chtlconfig.Config
	sink *diag.Sink
}

// New creates a Parser over a complete token stream (including the
// trailing EOF token produced by the lexer).
func New(toks []token.Token, file string, cfg chtlconfig.Config, sink *diag.Sink) *Parser {
	return &Parser{toks: toks, file: file, cfg: cfg, sink: sink}
}

// Parse runs the Parser to completion and returns a Program node. Parse
// errors are recoverable: each is reported to the Sink and the parser
// resynchronizes (spec.md §4.3 Error recovery) rather than aborting.
func (p *Parser) Parse() *ast.Node {
	prog := &ast.Node{Kind: ast.KindProgram}
	for !p.atEnd() {
		stmt := p.parseStatement()
		if stmt != nil {
			prog.Statements = append(prog.Statements, stmt)
		}
	}
	return prog
}

// --- token stream helpers ---

func (p *Parser) cur() token.Token {
	if p.pos >= len(p.toks) {
		return token.Token{Kind: token.EOF}
	}
	return p.toks[p.pos]
}

func (p *Parser) peekAt(off int) token.Token {
	idx := p.pos + off
	if idx >= len(p.toks) {
		return token.Token{Kind: token.EOF}
	}
	return p.toks[idx]
}

func (p *Parser) atEnd() bool {
	return p.cur().Kind == token.EOF
}

func (p *Parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *Parser) check(k token.Kind) bool {
	return p.cur().Kind == k
}

func (p *Parser) checkLexeme(lexeme string) bool {
	return p.cur().Lexeme == lexeme && (p.cur().Kind == token.Keyword || p.cur().Kind == token.Identifier)
}

// checkKeyword reports whether the current token denotes canonical,
// resolving a [Configuration] CustomKeywordAliases rename first (spec.md
// §9 / SPEC_FULL §3): an aliased lexeme (e.g. "txt" for "text") is
// lexed as a plain Identifier, never tagged Keyword, so this checks
// Identifier and UnquotedLiteral tokens too, not just Keyword ones.
func (p *Parser) checkKeyword(canonical string) bool {
	t := p.cur()
	if t.Kind != token.Keyword && t.Kind != token.Identifier && t.Kind != token.UnquotedLiteral {
		return false
	}
	return p.cfg.ResolveKeyword(t.Lexeme) == canonical
}

func (p *Parser) match(k token.Kind) (token.Token, bool) {
	if p.check(k) {
		return p.advance(), true
	}
	return token.Token{}, false
}

func (p *Parser) expect(k token.Kind, context string) token.Token {
	if p.check(k) {
		return p.advance()
	}
	tok := p.cur()
	p.errorf(tok, "expected %s %s, found %q", k, context, tok.Lexeme)
	return tok
}

func (p *Parser) errorf(tok token.Token, format string, args ...any) {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	p.sink.Report(diag.Diagnostic{
		Severity: diag.Error,
		Code:     diag.CodeParse,
		Message:  msg,
		File:     p.file,
		Line:     tok.Line,
		Column:   tok.Column,
	})
}

// --- synchronization (spec.md §4.3 Error recovery) ---

var syncKeywords = map[string]bool{
	"Template": true, "Custom": true, "Import": true, "Origin": true,
	"Namespace": true, "Configuration": true, "use": true,
}

func (p *Parser) synchronize() {
	for !p.atEnd() {
		t := p.cur()
		if t.Kind == token.Semicolon || t.Kind == token.RBrace {
			p.advance()
			return
		}
		if t.Kind == token.LBracket {
			return
		}
		if t.Kind == token.Keyword && syncKeywords[t.Lexeme] {
			return
		}
		p.advance()
	}
}

// --- statements ---

func (p *Parser) parseStatement() *ast.Node {
	t := p.cur()
	switch {
	case t.Kind == token.LBracket:
		return p.parseBracketStatement()
	case p.checkKeyword("use"):
		return p.parseUseStatement()
	case p.checkKeyword("text"):
		return p.parseTextBlock()
	case t.Kind == token.Identifier:
		return p.parseElement()
	default:
		p.errorf(t, "unexpected token %q at top level", t.Lexeme)
		p.synchronize()
		return nil
	}
}

func (p *Parser) parseBracketStatement() *ast.Node {
	p.expect(token.LBracket, "to start a bracketed block")
	kw := p.cur()
	p.advance()
	p.expect(token.RBracket, "to close a bracketed block header")

	if p.cfg.IsGroupDisabled(kw.Lexeme) {
		p.errorf(kw, "keyword group [%s] is disabled by the active configuration", kw.Lexeme)
		p.synchronize()
		return nil
	}

	switch kw.Lexeme {
	case "Template":
		return p.parseDefinition(ast.KindTemplateDef)
	case "Custom":
		return p.parseDefinition(ast.KindCustomDef)
	case "Origin":
		return p.parseOriginBlock()
	case "Import":
		return p.parseImportDirective()
	case "Namespace":
		return p.parseNamespace()
	case "Configuration":
		return p.parseConfigBlock()
	default:
		p.errorf(kw, "unknown bracketed block [%s]", kw.Lexeme)
		p.synchronize()
		return nil
	}
}

func (p *Parser) parseUseStatement() *ast.Node {
	useTok := p.advance() // 'use'
	name := p.cur().Lexeme
	p.advance()
	p.match(token.Semicolon)
	return &ast.Node{
		Kind: ast.KindConfigBlock,
		Line: useTok.Line, Col: useTok.Column,
		ConfigName: name,
		Options:    map[string]string{"__use__": name},
	}
}

// --- elements, attributes, text ---

func (p *Parser) parseElement() *ast.Node {
	tagTok := p.expect(token.Identifier, "as an element tag name")
	el := &ast.Node{Kind: ast.KindElement, Tag: tagTok.Lexeme, Line: tagTok.Line, Col: tagTok.Column}
	p.expect(token.LBrace, "to open an element body")

	for !p.check(token.RBrace) && !p.atEnd() {
		child := p.parseElementBodyItem(el)
		if child == nil {
			continue
		}
		if child.Kind == ast.KindAttribute {
			el.Attrs = append(el.Attrs, child)
		} else {
			el.Children = append(el.Children, child)
		}
	}
	p.expect(token.RBrace, "to close an element body")
	return el
}

// parseElementBodyItem implements spec.md §4.3's one-token lookahead
// disambiguation: identifier + '{' is a nested element, identifier +
// (':' | '=') is an attribute, a bare identifier followed by ';' is an
// error.
func (p *Parser) parseElementBodyItem(parent *ast.Node) *ast.Node {
	t := p.cur()
	switch {
	case p.checkKeyword("text"):
		if p.peekAt(1).Kind == token.LBrace {
			return p.parseTextBlock()
		}
		if p.peekAt(1).Kind == token.Colon || p.peekAt(1).Kind == token.Equals {
			return p.parseAttribute()
		}
		p.errorf(t, "unexpected token after 'text' keyword")
		p.synchronize()
		return nil
	case p.checkKeyword("style"):
		return p.parseStyleBlock()
	case p.checkKeyword("script"):
		return p.parseScriptBlock()
	case t.Kind == token.Identifier:
		switch p.peekAt(1).Kind {
		case token.LBrace:
			return p.parseElement()
		case token.Colon, token.Equals:
			return p.parseAttribute()
		case token.Semicolon:
			p.errorf(t, "bare identifier %q is not a valid statement", t.Lexeme)
			p.synchronize()
			return nil
		default:
			p.errorf(p.peekAt(1), "expected '{', ':' or '=' after identifier %q", t.Lexeme)
			p.synchronize()
			return nil
		}
	case t.Kind == token.At:
		return p.parseUsage()
	default:
		p.errorf(t, "unexpected token %q in element body", t.Lexeme)
		p.synchronize()
		return nil
	}
}

func (p *Parser) parseAttribute() *ast.Node {
	keyTok := p.cur()
	p.advance()
	if !p.check(token.Colon) && !p.check(token.Equals) {
		p.errorf(p.cur(), "expected ':' or '=' after attribute key %q", keyTok.Lexeme)
	} else {
		p.advance()
	}
	val := p.parseValue()
	p.expect(token.Semicolon, "to terminate an attribute")
	return &ast.Node{Kind: ast.KindAttribute, Key: keyTok.Lexeme, Value: val, Line: keyTok.Line, Col: keyTok.Column}
}

// parseValue parses Literal | VarUsage (spec.md §4.3 grammar).
func (p *Parser) parseValue() *ast.Node {
	t := p.cur()
	if t.Kind == token.Identifier && p.peekAt(1).Kind == token.LParen {
		group := t.Lexeme
		p.advance()
		p.advance() // '('
		nameTok := p.cur()
		p.advance()
		p.expect(token.RParen, "to close a variable usage")
		return &ast.Node{Kind: ast.KindVarUsageValue, VarGroup: group, VarName: nameTok.Lexeme, Line: t.Line, Col: t.Column}
	}
	lit := p.parseLiteralText()
	return &ast.Node{Kind: ast.KindLiteralValue, Literal: lit, Line: t.Line, Col: t.Column}
}

func (p *Parser) parseLiteralText() string {
	t := p.cur()
	if t.Kind == token.String || t.Kind == token.UnquotedLiteral || t.Kind == token.Identifier || t.Kind == token.Keyword {
		p.advance()
		return t.Lexeme
	}
	p.errorf(t, "expected a value, found %q", t.Lexeme)
	return ""
}

func (p *Parser) parseTextBlock() *ast.Node {
	textTok := p.advance() // 'text'
	p.expect(token.LBrace, "to open a text block")
	content := ""
	if p.check(token.String) || p.check(token.UnquotedLiteral) {
		content = p.advance().Lexeme
	}
	p.expect(token.RBrace, "to close a text block")
	return &ast.Node{Kind: ast.KindText, Text: content, Line: textTok.Line, Col: textTok.Column}
}

// --- style / script ---

func (p *Parser) parseStyleBlock() *ast.Node {
	styleTok := p.advance() // 'style'
	sb := &ast.Node{Kind: ast.KindStyleBlock, Line: styleTok.Line, Col: styleTok.Column}
	p.expect(token.LBrace, "to open a style block")

	for !p.check(token.RBrace) && !p.atEnd() {
		item := p.parseStyleBodyItem()
		if item != nil {
			sb.Children = append(sb.Children, item)
		}
	}
	p.expect(token.RBrace, "to close a style block")
	return sb
}

func (p *Parser) parseStyleBodyItem() *ast.Node {
	t := p.cur()
	switch {
	case t.Kind == token.At:
		return p.parseUsage()
	case (t.Kind == token.Identifier || t.Kind == token.UnquotedLiteral) && p.peekAt(1).Kind == token.LBrace:
		return p.parseNestedRule()
	case t.Kind == token.Identifier || t.Kind == token.Keyword:
		return p.parseCssProperty()
	default:
		p.errorf(t, "unexpected token %q in style block", t.Lexeme)
		p.synchronize()
		return nil
	}
}

func (p *Parser) parseCssProperty() *ast.Node {
	keyTok := p.advance()
	p.expect(token.Colon, "after a CSS property key")
	val := p.parseValue()
	p.expect(token.Semicolon, "to terminate a CSS property")
	return &ast.Node{Kind: ast.KindCssProperty, Key: keyTok.Lexeme, Value: val, Line: keyTok.Line, Col: keyTok.Column}
}

func (p *Parser) parseNestedRule() *ast.Node {
	selTok := p.advance()
	rule := &ast.Node{Kind: ast.KindNestedRule, Selector: selTok.Lexeme, Line: selTok.Line, Col: selTok.Column}
	p.expect(token.LBrace, "to open a nested rule")
	for !p.check(token.RBrace) && !p.atEnd() {
		item := p.parseStyleBodyItem()
		if item != nil {
			rule.Children = append(rule.Children, item)
		}
	}
	p.expect(token.RBrace, "to close a nested rule")
	return rule
}

func (p *Parser) parseScriptBlock() *ast.Node {
	scriptTok := p.advance() // 'script'
	p.expect(token.LBrace, "to open a script block")
	id := -1
	if p.check(token.Identifier) && strings.HasPrefix(p.cur().Lexeme, "__CHTL_PH_") {
		id = parsePlaceholderID(p.cur().Lexeme)
		p.advance()
	}
	p.expect(token.RBrace, "to close a script block")
	return &ast.Node{Kind: ast.KindScriptBlock, PlaceholderID: id, Line: scriptTok.Line, Col: scriptTok.Column}
}

func parsePlaceholderID(lexeme string) int {
	trimmed := strings.TrimSuffix(strings.TrimPrefix(lexeme, "__CHTL_PH_"), "__")
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return -1
	}
	return n
}

// --- definitions ---

func (p *Parser) parseDefKind() (ast.DefKind, bool) {
	if !p.check(token.At) {
		p.errorf(p.cur(), "expected '@Style', '@Element' or '@Var' after definition header")
		return 0, false
	}
	p.advance()
	t := p.cur()
	p.advance()
	switch t.Lexeme {
	case "Style":
		return ast.DefStyle, true
	case "Element":
		return ast.DefElement, true
	case "Var":
		return ast.DefVar, true
	default:
		p.errorf(t, "unknown definition kind @%s", t.Lexeme)
		return 0, false
	}
}

func (p *Parser) parseDefinition(kind ast.Kind) *ast.Node {
	defKind, ok := p.parseDefKind()
	nameTok := p.expect(token.Identifier, "as a definition name")
	def := &ast.Node{Kind: kind, DefKind: defKind, Name: nameTok.Lexeme, Line: nameTok.Line, Col: nameTok.Column}
	if !ok {
		p.synchronize()
		return def
	}

	if p.checkLexeme("inherit") {
		p.advance()
		parentTok := p.expect(token.Identifier, "as an inherited definition name")
		def.HasParent = true
		def.ParentName = parentTok.Lexeme
	}

	p.expect(token.LBrace, "to open a definition body")
	for !p.check(token.RBrace) && !p.atEnd() {
		var item *ast.Node
		switch defKind {
		case ast.DefStyle:
			item = p.parseStyleBodyItem()
		case ast.DefElement:
			item = p.parseElementBodyItem(def)
		case ast.DefVar:
			item = p.parseVarDecl()
		}
		if item != nil {
			def.Body = append(def.Body, item)
		}
	}
	p.expect(token.RBrace, "to close a definition body")
	return def
}

func (p *Parser) parseVarDecl() *ast.Node {
	nameTok := p.expect(token.Identifier, "as a variable name")
	p.expect(token.Colon, "after a variable name")
	litTok := p.cur()
	lit := p.parseLiteralText()
	p.expect(token.Semicolon, "to terminate a variable declaration")
	return &ast.Node{Kind: ast.KindVarDecl, Name: nameTok.Lexeme, Literal: lit, Line: litTok.Line, Col: litTok.Column}
}

// --- usages + specialization ---

func (p *Parser) parseUsage() *ast.Node {
	atTok := p.advance() // '@'
	kindTok := p.cur()
	p.advance()
	var defKind ast.DefKind
	switch kindTok.Lexeme {
	case "Style":
		defKind = ast.DefStyle
	case "Element":
		defKind = ast.DefElement
	case "Var":
		defKind = ast.DefVar
	case "Html", "JavaScript":
		return p.parseOriginOrUsageFallback(atTok, kindTok)
	default:
		p.errorf(kindTok, "unknown usage kind @%s", kindTok.Lexeme)
	}

	nameTok := p.expect(token.Identifier, "as a usage target name")
	u := &ast.Node{Kind: ast.KindUsage, DefKind: defKind, TargetName: nameTok.Lexeme, Line: atTok.Line, Col: atTok.Column}

	if p.check(token.Semicolon) {
		p.advance()
		return u
	}
	if p.check(token.LBrace) {
		u.Specialized = true
		p.advance()
		for !p.check(token.RBrace) && !p.atEnd() {
			entry := p.parseSpecEntry()
			if entry != nil {
				u.SpecBody = append(u.SpecBody, entry)
			}
		}
		p.expect(token.RBrace, "to close a specialization body")
		return u
	}
	p.errorf(p.cur(), "expected ';' or '{' after usage of %s", nameTok.Lexeme)
	return u
}

// parseOriginOrUsageFallback handles `@Html Name;` as a re-use of a
// named [Origin] block (a SUPPLEMENTED feature: original_source's
// origin_embed.cpp supports named origins re-used like templates).
func (p *Parser) parseOriginOrUsageFallback(atTok, kindTok token.Token) *ast.Node {
	nameTok := p.cur()
	p.advance()
	p.match(token.Semicolon)
	return &ast.Node{
		Kind: ast.KindOriginUsage, OriginLang: kindTok.Lexeme, OriginName: nameTok.Lexeme,
		Line: atTok.Line, Col: atTok.Column,
	}
}

func (p *Parser) parseSpecEntry() *ast.Node {
	t := p.cur()
	switch {
	case t.Kind == token.Keyword && t.Lexeme == "delete":
		return p.parseSpecDelete()
	case t.Kind == token.Keyword && t.Lexeme == "insert":
		return p.parseSpecInsert()
	case t.Kind == token.Keyword && t.Lexeme == "inherit":
		return p.parseSpecInherit()
	default:
		p.errorf(t, "unexpected token %q in specialization body", t.Lexeme)
		p.synchronize()
		return nil
	}
}

func (p *Parser) parseSpecDelete() *ast.Node {
	delTok := p.advance()
	d := &ast.Node{Kind: ast.KindSpecDelete, Line: delTok.Line, Col: delTok.Column}
	for {
		idTok := p.cur()
		if idTok.Kind != token.Identifier && idTok.Kind != token.Keyword {
			p.errorf(idTok, "expected an identifier in delete list")
			break
		}
		p.advance()
		d.DeleteTargets = append(d.DeleteTargets, idTok.Lexeme)
		if _, ok := p.match(token.Comma); !ok {
			break
		}
	}
	p.expect(token.Semicolon, "to terminate a delete entry")
	return d
}

func (p *Parser) parseSpecInsert() *ast.Node {
	insTok := p.advance()
	ins := &ast.Node{Kind: ast.KindSpecInsert, Line: insTok.Line, Col: insTok.Column}

	switch {
	case p.checkLexeme("at"):
		p.advance()
		if p.checkLexeme("top") {
			p.advance()
			ins.InsertPos = ast.PosAtTop
		} else if p.checkLexeme("bottom") {
			p.advance()
			ins.InsertPos = ast.PosAtBottom
		} else {
			p.errorf(p.cur(), "expected 'top' or 'bottom' after 'at'")
		}
	case p.checkLexeme("before"):
		p.advance()
		ins.InsertPos = ast.PosBefore
		ins.InsertSelector = p.parseSelectorToken()
	case p.checkLexeme("after"):
		p.advance()
		ins.InsertPos = ast.PosAfter
		ins.InsertSelector = p.parseSelectorToken()
	case p.checkLexeme("replace"):
		p.advance()
		ins.InsertPos = ast.PosReplace
		ins.InsertSelector = p.parseSelectorToken()
	default:
		p.errorf(p.cur(), "expected an insert position (at/before/after/replace)")
	}

	p.expect(token.LBrace, "to open an insert body")
	for !p.check(token.RBrace) && !p.atEnd() {
		// Insert bodies can carry either CSS properties or elements,
		// depending on whether this usage is a style or element
		// specialization; try CSS first, fall back to element body items.
		var item *ast.Node
		if (p.check(token.Identifier) || p.check(token.Keyword)) && p.peekAt(1).Kind == token.Colon {
			item = p.parseCssProperty()
		} else {
			item = p.parseElementBodyItem(nil)
		}
		if item != nil {
			ins.InsertBody = append(ins.InsertBody, item)
		}
	}
	p.expect(token.RBrace, "to close an insert body")
	return ins
}

func (p *Parser) parseSelectorToken() string {
	t := p.cur()
	if t.Kind == token.Identifier || t.Kind == token.String || t.Kind == token.UnquotedLiteral || t.Kind == token.Keyword {
		p.advance()
		return t.Lexeme
	}
	p.errorf(t, "expected a selector after insert position")
	return ""
}

func (p *Parser) parseSpecInherit() *ast.Node {
	inhTok := p.advance()
	nameTok := p.expect(token.Identifier, "as an inherited definition name")
	p.expect(token.Semicolon, "to terminate an inherit entry")
	return &ast.Node{Kind: ast.KindSpecInherit, InheritName: nameTok.Lexeme, Line: inhTok.Line, Col: inhTok.Column}
}

// --- origin ---

func (p *Parser) parseOriginBlock() *ast.Node {
	p.expect(token.At, "before an origin language tag")
	langTok := p.cur()
	p.advance()

	name := ""
	if p.check(token.Identifier) {
		name = p.advance().Lexeme
	}

	p.expect(token.LBrace, "to open an origin block")
	content := p.captureRawUntilMatchingBrace()
	return &ast.Node{Kind: ast.KindOriginBlock, OriginLang: langTok.Lexeme, OriginName: name, OriginContent: content, Line: langTok.Line, Col: langTok.Column}
}

// captureRawUntilMatchingBrace reconstitutes the lexemes of every token
// up to (not including) the matching '}', joined with single spaces.
// Origin content is verbatim in the source grammar; token-level
// reconstruction is the only representation the Parser has once the
// Lexer has already tokenized it (the Unified Scanner does not wall off
// [Origin] bodies the way it walls off style/script, since spec.md §4.1
// rule 2 lists [Origin] headers as CHTL-priority, not as a foreign-code
// boundary).
func (p *Parser) captureRawUntilMatchingBrace() string {
	depth := 1
	var parts []string
	for !p.atEnd() {
		t := p.cur()
		if t.Kind == token.LBrace {
			depth++
		} else if t.Kind == token.RBrace {
			depth--
			if depth == 0 {
				p.advance()
				break
			}
		}
		parts = append(parts, t.Lexeme)
		p.advance()
	}
	return strings.Join(parts, " ")
}

// --- import / namespace / configuration ---

func (p *Parser) parseImportDirective() *ast.Node {
	subjectTok := p.cur()
	subject := subjectTok.Lexeme
	if subjectTok.Kind == token.At {
		p.advance()
		subject = "@" + p.cur().Lexeme
		p.advance()
	} else {
		p.advance()
	}

	imp := &ast.Node{Kind: ast.KindImportDirective, ImportSubject: subject, Line: subjectTok.Line, Col: subjectTok.Column}

	if p.checkLexeme("from") {
		p.advance()
	}
	imp.ModulePath = p.parseModulePath()

	if p.checkLexeme("as") {
		p.advance()
		imp.Alias = p.advance().Lexeme
	}
	if p.checkLexeme("except") {
		p.advance()
		for {
			t := p.cur()
			if t.Kind != token.Identifier && t.Kind != token.UnquotedLiteral {
				break
			}
			p.advance()
			imp.Except = append(imp.Except, t.Lexeme)
			if _, ok := p.match(token.Comma); !ok {
				break
			}
		}
	}
	p.expect(token.Semicolon, "to terminate an import directive")
	return imp
}

// parseModulePath accepts dot- or slash-separated module path segments
// as equivalent at the grammar layer (spec.md §9 Open Question); the
// resolver normalizes both to '/' (internal/module.NormalizePath). A
// quoted path is taken verbatim; an unquoted one lexes as an identifier
// (the first path segment) optionally followed directly by an unquoted
// literal carrying the remaining "."- or "/"-joined segments, since '.'
// and '/' are neither whitespace nor punctuation and so never split a
// run on their own.
func (p *Parser) parseModulePath() string {
	t := p.cur()
	if t.Kind == token.String {
		p.advance()
		return t.Lexeme
	}
	var sb strings.Builder
	if t.Kind == token.Identifier || t.Kind == token.UnquotedLiteral {
		p.advance()
		sb.WriteString(t.Lexeme)
	} else {
		p.errorf(t, "expected a module path")
		return ""
	}
	if p.check(token.UnquotedLiteral) {
		sb.WriteString(p.advance().Lexeme)
	}
	return sb.String()
}

func (p *Parser) parseNamespace() *ast.Node {
	nameTok := p.expect(token.Identifier, "as a namespace name")
	ns := &ast.Node{Kind: ast.KindNamespace, Name: nameTok.Lexeme, Line: nameTok.Line, Col: nameTok.Column}
	p.expect(token.LBrace, "to open a namespace block")
	for !p.check(token.RBrace) && !p.atEnd() {
		stmt := p.parseStatement()
		if stmt != nil {
			ns.Statements = append(ns.Statements, stmt)
		}
	}
	p.expect(token.RBrace, "to close a namespace block")
	return ns
}

func (p *Parser) parseConfigBlock() *ast.Node {
	name := ""
	anon := true
	if p.check(token.At) {
		p.advance()
		p.advance() // 'Config' tag, not semantically required
	}
	if p.check(token.Identifier) {
		name = p.advance().Lexeme
		anon = false
	}
	cfgTok := p.expect(token.LBrace, "to open a configuration block")
	cfg := &ast.Node{Kind: ast.KindConfigBlock, ConfigName: name, Anonymous: anon, Options: map[string]string{}, Line: cfgTok.Line, Col: cfgTok.Column}
	for !p.check(token.RBrace) && !p.atEnd() {
		keyTok := p.cur()
		if keyTok.Kind != token.Identifier && keyTok.Kind != token.Keyword {
			p.errorf(keyTok, "expected a configuration option key")
			p.synchronize()
			continue
		}
		p.advance()
		if !p.check(token.Equals) && !p.check(token.Colon) {
			p.errorf(p.cur(), "expected '=' after configuration option key %q", keyTok.Lexeme)
			p.synchronize()
			continue
		}
		p.advance()
		val := p.parseLiteralText()
		p.expect(token.Semicolon, "to terminate a configuration option")
		cfg.Options[keyTok.Lexeme] = val
	}
	p.expect(token.RBrace, "to close a configuration block")
	return cfg
}
