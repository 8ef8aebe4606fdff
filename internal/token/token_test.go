package token_test

import (
	"testing"

	"chtl.dev/chtl/internal/token"
	"github.com/stretchr/testify/assert"
)

func TestIsKeyword(t *testing.T) {
	t.Run("known keywords", func(t *testing.T) {
		for _, kw := range []string{"text", "style", "script", "Template", "Custom", "inherit", "except", "use"} {
			assert.True(t, token.IsKeyword(kw), "%s should be a keyword", kw)
		}
	})

	t.Run("non-keywords", func(t *testing.T) {
		assert.False(t, token.IsKeyword("div"))
		assert.False(t, token.IsKeyword("color"))
		assert.False(t, token.IsKeyword(""))
	})
}

func TestPunctuationTable(t *testing.T) {
	assert.Equal(t, token.LBrace, token.Punctuation['{'])
	assert.Equal(t, token.At, token.Punctuation['@'])
	_, ok := token.Punctuation['x']
	assert.False(t, ok)
}
