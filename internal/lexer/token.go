// Package lexer turns source bytes into a token stream (spec §4.1).
package lexer

// Type identifies a token's lexical class.
type Type int

const (
	EOF Type = iota
	LineEnd
	Ident
	Keyword
	Number
	String
	TemplateString // a whole template literal, backtick to backtick, as one token
	Regex
	Punct
	Illegal
)

func (t Type) String() string {
	switch t {
	case EOF:
		return "EOF"
	case LineEnd:
		return "LineEnd"
	case Ident:
		return "Ident"
	case Keyword:
		return "Keyword"
	case Number:
		return "Number"
	case String:
		return "String"
	case TemplateString:
		return "TemplateString"
	case Regex:
		return "Regex"
	case Punct:
		return "Punct"
	case Illegal:
		return "Illegal"
	default:
		return "?"
	}
}

// Keywords recognized by the engine (spec §6.3).
var Keywords = map[string]bool{
	"var": true, "let": true, "const": true, "function": true,
	"async": true, "await": true, "if": true, "else": true, "for": true,
	"while": true, "do": true, "break": true, "continue": true,
	"return": true, "try": true, "catch": true, "finally": true,
	"throw": true, "switch": true, "case": true, "default": true,
	"new": true, "delete": true, "typeof": true, "void": true, "in": true,
	"of": true, "instanceof": true, "this": true, "super": true,
	"class": true, "extends": true, "yield": true, "import": true,
	"export": true, "from": true, "null": true, "true": true,
	"false": true, "undefined": true,
}

// Token is one lexical unit (spec §4.1).
type Token struct {
	Type    Type
	Text    string // verbatim source text (escapes unresolved for strings)
	Line    int
	UniqueID uint32 // interned atom ID for Ident/Keyword tokens
	Pos      int    // byte offset Text started at, used by RetokenizeAsRegex
}
