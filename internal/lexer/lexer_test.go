package lexer_test

import (
	"testing"

	"chtl.dev/chtl/internal/diag"
	"chtl.dev/chtl/internal/lexer"
	"chtl.dev/chtl/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestTokenizeMinimalElement(t *testing.T) {
	sink := diag.NewSink()
	toks := lexer.Tokenize(`div { id = "x"; }`, "t.chtl", sink)

	require.Empty(t, sink.Errors())
	assert.Equal(t, []token.Kind{
		token.Identifier, token.LBrace, token.Identifier, token.Equals,
		token.String, token.Semicolon, token.RBrace, token.EOF,
	}, kinds(toks))
	assert.Equal(t, "x", toks[4].Lexeme)
}

func TestTokenizeKeywords(t *testing.T) {
	sink := diag.NewSink()
	toks := lexer.Tokenize(`[Template] @Style Foo inherit Bar {}`, "t.chtl", sink)

	require.Empty(t, sink.Errors())
	assert.Equal(t, token.Keyword, toks[1].Kind)
	assert.Equal(t, "Template", toks[1].Lexeme)
	assert.Equal(t, token.At, toks[3].Kind)
	assert.Equal(t, token.Keyword, toks[4].Kind, "Style is in the fixed keyword table; the parser, not the lexer, disambiguates @Style usage from a definition header")
}

func TestTokenizeUnquotedLiteral(t *testing.T) {
	sink := diag.NewSink()
	toks := lexer.Tokenize(`color: #00aaff;`, "t.chtl", sink)

	require.Empty(t, sink.Errors())
	assert.Equal(t, token.UnquotedLiteral, toks[2].Kind)
	assert.Equal(t, "#00aaff", toks[2].Lexeme)
}

func TestTokenizeStringEscapes(t *testing.T) {
	sink := diag.NewSink()
	toks := lexer.Tokenize(`text { "say \"hi\" \\ done" }`, "t.chtl", sink)

	require.Empty(t, sink.Errors())
	assert.Equal(t, `say "hi" \ done`, toks[2].Lexeme)
}

func TestTokenizeUnterminatedStringReportsLexError(t *testing.T) {
	sink := diag.NewSink()
	lexer.Tokenize(`text { "never closes`, "t.chtl", sink)

	require.NotEmpty(t, sink.Errors())
	assert.Equal(t, diag.CodeLex, sink.Errors()[0].Code)
}

func TestTokenizeSkipsComments(t *testing.T) {
	sink := diag.NewSink()
	toks := lexer.Tokenize("// comment\ndiv {/* block */}", "t.chtl", sink)

	require.Empty(t, sink.Errors())
	assert.Equal(t, []token.Kind{token.Identifier, token.LBrace, token.RBrace, token.EOF}, kinds(toks))
}

func TestTokenizePlaceholderIdentifier(t *testing.T) {
	sink := diag.NewSink()
	toks := lexer.Tokenize(`script { __CHTL_PH_0__ }`, "t.chtl", sink)

	require.Empty(t, sink.Errors())
	assert.Equal(t, token.Identifier, toks[2].Kind)
	assert.Equal(t, "__CHTL_PH_0__", toks[2].Lexeme)
}

// Testable Property 1 (lex round-trip subset, no comments, well-formed
// strings): concatenating token lexemes with a single space reproduces
// a string that re-tokenizes to the same kind sequence.
func TestLexRoundTripSubset(t *testing.T) {
	src := `div { id = "x" ; }`
	sink := diag.NewSink()
	toks := lexer.Tokenize(src, "t.chtl", sink)
	require.Empty(t, sink.Errors())

	rebuilt := ""
	for _, tk := range toks {
		if tk.Kind == token.EOF {
			continue
		}
		lexeme := tk.Lexeme
		if tk.Kind == token.String {
			lexeme = `"` + lexeme + `"`
		}
		rebuilt += lexeme + " "
	}

	sink2 := diag.NewSink()
	toks2 := lexer.Tokenize(rebuilt, "t.chtl", sink2)
	require.Empty(t, sink2.Errors())
	assert.Equal(t, kinds(toks), kinds(toks2))
}
