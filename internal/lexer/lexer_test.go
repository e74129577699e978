package lexer

import (
	"testing"

	"github.com/nginx/njs-go/internal/atom"
	"github.com/stretchr/testify/require"
)

func tokens(src string) []Token {
	l := New("test.js", src, 1, atom.New())
	var out []Token
	for {
		tok := l.NextToken()
		out = append(out, tok)
		if tok.Type == EOF {
			return out
		}
	}
}

func TestIdentifiersAndKeywords(t *testing.T) {
	toks := tokens("var x = foo;")
	require.Equal(t, Keyword, toks[0].Type)
	require.Equal(t, "var", toks[0].Text)
	require.Equal(t, Ident, toks[1].Type)
	require.Equal(t, "x", toks[1].Text)
}

func TestNumberLiterals(t *testing.T) {
	toks := tokens("42 3.14 0x2a 0b101 1e3")
	for i, want := range []string{"42", "3.14", "0x2a", "0b101", "1e3"} {
		require.Equal(t, Number, toks[i].Type)
		require.Equal(t, want, toks[i].Text)
	}
}

func TestStringLiteralPreservesEscapesVerbatim(t *testing.T) {
	toks := tokens(`"a\nb"`)
	require.Equal(t, String, toks[0].Type)
	require.Equal(t, `a\nb`, toks[0].Text)
}

func TestUnescapeString(t *testing.T) {
	require.Equal(t, "a\nb", UnescapeString(`a\nb`))
	require.Equal(t, "*", UnescapeString(`\x2a`))
	require.Equal(t, "*", UnescapeString(`*`))
	require.Equal(t, "\U0001F600", UnescapeString(`😀`))
}

func TestDivisionVsRegexDisambiguation(t *testing.T) {
	l := New("t.js", "a / b", 1, atom.New())
	l.NextToken() // a
	tok := l.NextToken()
	require.Equal(t, Punct, tok.Type)
	require.Equal(t, "/", tok.Text)
}

func TestRegexLiteralAPI(t *testing.T) {
	l := New("t.js", "/ab[c\\]]+/gi", 1, atom.New())
	tok := l.RegexLiteral()
	require.Equal(t, Regex, tok.Type)
	require.Equal(t, "/ab[c\\]]+/gi", tok.Text)
}

func TestLineCounting(t *testing.T) {
	toks := tokens("a\nb\nc")
	require.Equal(t, 1, toks[0].Line)
	require.Equal(t, 2, toks[1].Line)
	require.Equal(t, 3, toks[2].Line)
}

func TestPeekChaining(t *testing.T) {
	l := New("t.js", "a b c", 1, atom.New())
	require.Equal(t, "a", l.PeekToken(0).Text)
	require.Equal(t, "b", l.PeekToken(1).Text)
	require.Equal(t, "c", l.PeekToken(2).Text)
	l.ConsumeToken(2)
	require.Equal(t, "c", l.NextToken().Text)
}
