package parser

import (
	"strings"

	"github.com/nginx/njs-go/internal/ast"
	"github.com/nginx/njs-go/internal/lexer"
)

// templatePart is one chunk of a template literal: either a cooked
// string segment or a `${...}` interpolation's raw source.
type templatePart struct {
	isExpr bool
	text   string // cooked string, or raw expression source
}

// splitTemplateParts splits a template literal's raw body (the text
// between the outer backticks, as handed back whole by the lexer) into
// alternating string/expression parts, tracking brace depth so nested
// object literals and blocks inside an interpolation don't prematurely
// close it.
func splitTemplateParts(raw string) []templatePart {
	var parts []templatePart
	var buf strings.Builder
	i := 0
	for i < len(raw) {
		c := raw[i]
		if c == '\\' && i+1 < len(raw) {
			buf.WriteByte(c)
			buf.WriteByte(raw[i+1])
			i += 2
			continue
		}
		if c == '$' && i+1 < len(raw) && raw[i+1] == '{' {
			parts = append(parts, templatePart{isExpr: false, text: buf.String()})
			buf.Reset()
			i += 2
			depth := 1
			start := i
			for i < len(raw) && depth > 0 {
				switch raw[i] {
				case '{':
					depth++
				case '}':
					depth--
					if depth == 0 {
						continue
					}
				}
				i++
			}
			parts = append(parts, templatePart{isExpr: true, text: raw[start:i]})
			i++ // consume closing }
			continue
		}
		buf.WriteByte(c)
		i++
	}
	parts = append(parts, templatePart{isExpr: false, text: buf.String()})
	return parts
}

func (p *Parser) parseSubExpression(src string, line int) *ast.Node {
	sub := &Parser{
		lex:   lexer.New(p.file, src, line, p.atoms),
		scope: p.scope,
		atoms: p.atoms,
		file:  p.file,
	}
	return sub.parseExpression()
}

func (p *Parser) parseTemplateLiteral() *ast.Node {
	t := p.peek(0)
	line := t.Line
	p.next()

	n := ast.New(ast.KTemplateLit, line)
	for _, part := range splitTemplateParts(t.Text) {
		if part.isExpr {
			n.List = append(n.List, p.parseSubExpression(part.text, line))
		} else {
			s := ast.New(ast.KStringLit, line)
			s.Str = lexer.UnescapeString(part.text)
			n.List = append(n.List, s)
		}
	}
	return n
}

// parseTaggedTemplate lowers `tag\`...\`` to a call of tag with a
// strings-array-like first argument (the cooked, unescaped chunks; no
// raw strings are kept) followed by
// the interpolated expressions, matching how the runtime exposes tagged
// templates as an ordinary function call.
func (p *Parser) parseTaggedTemplate(tag *ast.Node) *ast.Node {
	t := p.peek(0)
	line := t.Line
	p.next()

	parts := splitTemplateParts(t.Text)

	strs := ast.New(ast.KArrayLit, line)
	var exprs []*ast.Node
	for _, part := range parts {
		if part.isExpr {
			exprs = append(exprs, p.parseSubExpression(part.text, line))
		} else {
			s := ast.New(ast.KStringLit, line)
			s.Str = lexer.UnescapeString(part.text)
			strs.List = append(strs.List, s)
		}
	}

	call := ast.New(ast.KCall, line)
	call.Left = tag
	call.Op = "tagged"
	call.List = append([]*ast.Node{strs}, exprs...)
	return call
}

// tryParseArrowFunction attempts to parse an arrow function head
// starting at the current position. Arrow heads are ambiguous with a
// parenthesized expression or a bare identifier until the `=>` token is
// seen, so this speculatively scans ahead using the lexer's queue
// (which PeekToken/ConsumeToken expose) and only commits once `=>` is
// confirmed; nothing is consumed otherwise.
func (p *Parser) tryParseArrowFunction() (*ast.Node, bool) {
	line := p.peek(0).Line

	if p.peek(0).Type == lexer.Ident && p.peekIsPunct(1, "=>") {
		name := p.next().Text
		p.next() // =>
		return p.finishArrow(line, []string{name}, false), true
	}

	if !p.peekIsPunct(0, "(") {
		return nil, false
	}

	depth := 0
	ahead := 0
	for {
		tt := p.peek(ahead)
		if tt.Type == lexer.EOF {
			return nil, false
		}
		if tt.Type == lexer.Punct {
			if tt.Text == "(" {
				depth++
			} else if tt.Text == ")" {
				depth--
				if depth == 0 {
					ahead++
					break
				}
			}
		}
		ahead++
	}
	if !p.peekIsPunct(ahead, "=>") {
		return nil, false
	}

	p.next() // (
	var params []string
	rest := false
	for !p.peekIsPunct(0, ")") {
		if p.acceptPunct("...") {
			rest = true
			params = append(params, p.expectIdent())
			break
		}
		params = append(params, p.expectIdent())
		if p.acceptPunct("=") {
			p.parseAssignment() // default value, not tracked separately
		}
		if !p.acceptPunct(",") {
			break
		}
	}
	p.expectPunct(")")
	p.expectPunct("=>")
	return p.finishArrow(line, params, rest), true
}

func (p *Parser) finishArrow(line int, params []string, rest bool) *ast.Node {
	outer := p.scope
	fnScope := ast.NewScope(outer, ast.ScopeFunction)
	p.scope = fnScope
	for _, prm := range params {
		fnScope.Declare(prm, "param")
	}

	var body []*ast.Node
	if p.peekIsPunct(0, "{") {
		p.next()
		for !p.peekIsPunct(0, "}") {
			body = append(body, p.parseStatement())
		}
		p.expectPunct("}")
	} else {
		r := ast.New(ast.KReturn, line)
		r.Left = p.parseAssignment()
		body = []*ast.Node{r}
	}
	p.scope = outer

	n := ast.New(ast.KFunctionExpr, line)
	n.Func = &ast.FunctionInfo{
		Params:  params,
		Rest:    rest,
		Body:    body,
		Scope:   fnScope,
		Line:    line,
		IsArrow: true,
	}
	return n
}
