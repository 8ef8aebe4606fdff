// Package lexer tokenizes placeholder-carrying CHTL text (spec.md §4.2).
// Grounded on original_source/src/CHTL/Lexer/Lexer.cpp: a manual
// rune-at-a-time scan with no external tokenizer library — a hand lexer
// is definitionally not a wrapped dependency.
package lexer

import (
	"strings"
	"unicode"

	"chtl.dev/chtl/internal/diag"
	"chtl.dev/chtl/internal/token"
)

// Lexer turns source text into a Token stream.
type Lexer struct {
	src    string
	file   string
	pos    int
	line   int
	column int
	sink   *diag.Sink
}

// New creates a Lexer over source, attributing diagnostics to file.
func New(source, file string, sink *diag.Sink) *Lexer {
	return &Lexer{src: source, file: file, line: 1, column: 1, sink: sink}
}

// Tokenize runs the Lexer to completion, always terminating with an EOF
// token (spec.md §4.2 contract).
func Tokenize(source, file string, sink *diag.Sink) []token.Token {
	l := New(source, file, sink)
	return l.All()
}

// All lexes every token, including a trailing EOF.
func (l *Lexer) All() []token.Token {
	var toks []token.Token
	for {
		tok := l.Next()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			return toks
		}
	}
}

func (l *Lexer) peek() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekAt(off int) byte {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

func (l *Lexer) advance() byte {
	c := l.src[l.pos]
	l.pos++
	if c == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return c
}

// Next scans and returns the next Token, skipping whitespace and
// comments first.
func (l *Lexer) Next() token.Token {
	l.skipWhitespaceAndComments()

	if l.pos >= len(l.src) {
		return token.Token{Kind: token.EOF, Line: l.line, Column: l.column}
	}

	startLine, startCol := l.line, l.column
	c := l.peek()

	if c == '"' || c == '\'' {
		return l.lexString(startLine, startCol)
	}

	if kind, ok := token.Punctuation[rune(c)]; ok {
		l.advance()
		return token.Token{Kind: kind, Lexeme: string(c), Line: startLine, Column: startCol}
	}

	if isIdentStart(c) {
		return l.lexIdentifier(startLine, startCol)
	}

	return l.lexUnquotedLiteral(startLine, startCol)
}

func (l *Lexer) skipWhitespaceAndComments() {
	for l.pos < len(l.src) {
		c := l.peek()
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			l.advance()
		case c == '/' && l.peekAt(1) == '/':
			for l.pos < len(l.src) && l.peek() != '\n' {
				l.advance()
			}
		case c == '/' && l.peekAt(1) == '*':
			line, col := l.line, l.column
			l.advance()
			l.advance()
			closed := false
			for l.pos < len(l.src) {
				if l.peek() == '*' && l.peekAt(1) == '/' {
					l.advance()
					l.advance()
					closed = true
					break
				}
				l.advance()
			}
			if !closed {
				l.report(diag.NewLexError(l.file, line, col, "unterminated block comment"))
				return
			}
		default:
			return
		}
	}
}

func (l *Lexer) lexString(startLine, startCol int) token.Token {
	quote := l.advance()
	var sb strings.Builder
	for {
		if l.pos >= len(l.src) {
			l.report(diag.NewLexError(l.file, startLine, startCol, "unterminated string literal"))
			return token.Token{Kind: token.String, Lexeme: sb.String(), Line: startLine, Column: startCol}
		}
		c := l.peek()
		if c == '\\' {
			l.advance()
			if l.pos >= len(l.src) {
				l.report(diag.NewLexError(l.file, startLine, startCol, "unterminated escape sequence"))
				break
			}
			esc := l.advance()
			switch esc {
			case quote, '\\':
				sb.WriteByte(esc)
			default:
				sb.WriteByte('\\')
				sb.WriteByte(esc)
			}
			continue
		}
		if c == quote {
			l.advance()
			break
		}
		sb.WriteByte(l.advance())
	}
	return token.Token{Kind: token.String, Lexeme: sb.String(), Line: startLine, Column: startCol}
}

func isIdentStart(c byte) bool {
	return c == '_' || unicode.IsLetter(rune(c))
}

func isIdentCont(c byte) bool {
	return c == '_' || c == '-' || unicode.IsLetter(rune(c)) || unicode.IsDigit(rune(c))
}

func (l *Lexer) lexIdentifier(startLine, startCol int) token.Token {
	start := l.pos
	for l.pos < len(l.src) && isIdentCont(l.peek()) {
		l.advance()
	}
	lexeme := l.src[start:l.pos]
	kind := token.Identifier
	if token.IsKeyword(lexeme) {
		kind = token.Keyword
	}
	return token.Token{Kind: kind, Lexeme: lexeme, Line: startLine, Column: startCol}
}

// isDelimiter reports whether c terminates an unquoted literal run:
// whitespace or the punctuation set (spec.md §3).
func isDelimiter(c byte) bool {
	if c == ' ' || c == '\t' || c == '\r' || c == '\n' {
		return true
	}
	_, isPunct := token.Punctuation[rune(c)]
	return isPunct
}

func (l *Lexer) lexUnquotedLiteral(startLine, startCol int) token.Token {
	start := l.pos
	for l.pos < len(l.src) && !isDelimiter(l.peek()) {
		l.advance()
	}
	if l.pos == start {
		// Defensive: a byte that is neither punctuation, whitespace, quote,
		// nor an identifier start (e.g. stray control byte). Consume it as
		// a one-byte unquoted literal so the lexer always makes progress.
		l.advance()
	}
	lexeme := l.src[start:l.pos]
	return token.Token{Kind: token.UnquotedLiteral, Lexeme: lexeme, Line: startLine, Column: startCol}
}

func (l *Lexer) report(err error) {
	if l.sink == nil {
		return
	}
	var line, col int
	var msg string
	switch e := err.(type) {
	case *diag.LexError:
		line, col, msg = e.Line, e.Column, e.Reason
	}
	l.sink.Report(diag.Diagnostic{
		Severity: diag.Error,
		Code:     diag.CodeLex,
		Message:  msg,
		File:     l.file,
		Line:     line,
		Column:   col,
	})
}
