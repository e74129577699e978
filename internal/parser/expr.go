package parser

import (
	"strconv"
	"strings"

	"github.com/nginx/njs-go/internal/ast"
	"github.com/nginx/njs-go/internal/lexer"
)

// parseExpression parses a comma-separated expression sequence.
func (p *Parser) parseExpression() *ast.Node {
	return p.parseExpressionIn(true)
}

// parseExpressionNoIn parses an expression where a bare top-level `in`
// token must not be consumed as the relational operator, so `for (x in
// obj)` can tell its head apart from a relational expression.
func (p *Parser) parseExpressionNoIn() *ast.Node {
	return p.parseExpressionIn(false)
}

func (p *Parser) parseExpressionIn(allowIn bool) *ast.Node {
	first := p.parseAssignmentIn(allowIn)
	if !p.peekIsPunct(0, ",") {
		return first
	}
	line := first.Line
	n := ast.New(ast.KSequence, line)
	n.List = append(n.List, first)
	for p.acceptPunct(",") {
		n.List = append(n.List, p.parseAssignmentIn(allowIn))
	}
	return n
}

var assignOps = map[string]bool{
	"=": true, "+=": true, "-=": true, "*=": true, "/=": true, "%=": true,
	"&=": true, "|=": true, "^=": true, "<<=": true, ">>=": true, ">>>=": true,
	"**=": true,
}

func (p *Parser) parseAssignment() *ast.Node { return p.parseAssignmentIn(true) }

func (p *Parser) parseAssignmentIn(allowIn bool) *ast.Node {
	if n, ok := p.tryParseArrowFunction(); ok {
		return n
	}

	left := p.parseConditionalIn(allowIn)
	t := p.peek(0)
	if t.Type == lexer.Punct && assignOps[t.Text] {
		p.next()
		n := ast.New(ast.KAssign, left.Line)
		n.Op = t.Text
		n.Left = left
		n.Right = p.parseAssignmentIn(allowIn)
		return n
	}
	return left
}

func (p *Parser) parseConditionalIn(allowIn bool) *ast.Node {
	cond := p.parseNullishIn(allowIn)
	if p.acceptPunct("?") {
		n := ast.New(ast.KConditional, cond.Line)
		n.Left = cond
		n.Right = p.parseAssignment()
		p.expectPunct(":")
		n.Third = p.parseAssignmentIn(allowIn)
		return n
	}
	return cond
}

func (p *Parser) parseNullishIn(allowIn bool) *ast.Node {
	left := p.parseLogicalOrIn(allowIn)
	for p.peekIsPunct(0, "??") {
		p.next()
		n := ast.New(ast.KLogical, left.Line)
		n.Op = "??"
		n.Left = left
		n.Right = p.parseLogicalOrIn(allowIn)
		left = n
	}
	return left
}

func (p *Parser) parseLogicalOrIn(allowIn bool) *ast.Node {
	left := p.parseLogicalAndIn(allowIn)
	for p.peekIsPunct(0, "||") {
		p.next()
		n := ast.New(ast.KLogical, left.Line)
		n.Op = "||"
		n.Left = left
		n.Right = p.parseLogicalAndIn(allowIn)
		left = n
	}
	return left
}

func (p *Parser) parseLogicalAndIn(allowIn bool) *ast.Node {
	left := p.parseBitOrIn(allowIn)
	for p.peekIsPunct(0, "&&") {
		p.next()
		n := ast.New(ast.KLogical, left.Line)
		n.Op = "&&"
		n.Left = left
		n.Right = p.parseBitOrIn(allowIn)
		left = n
	}
	return left
}

func (p *Parser) parseBitOrIn(allowIn bool) *ast.Node {
	return p.parseBinaryLevelIn(allowIn, []string{"|"}, (*Parser).parseBitXorIn)
}
func (p *Parser) parseBitXorIn(allowIn bool) *ast.Node {
	return p.parseBinaryLevelIn(allowIn, []string{"^"}, (*Parser).parseBitAndIn)
}
func (p *Parser) parseBitAndIn(allowIn bool) *ast.Node {
	return p.parseBinaryLevelIn(allowIn, []string{"&"}, (*Parser).parseEqualityIn)
}
func (p *Parser) parseEqualityIn(allowIn bool) *ast.Node {
	return p.parseBinaryLevelIn(allowIn, []string{"==", "!=", "===", "!=="}, (*Parser).parseRelationalIn)
}

func (p *Parser) parseRelationalIn(allowIn bool) *ast.Node {
	ops := []string{"<", ">", "<=", ">=", "instanceof"}
	left := p.parseShiftIn(allowIn)
	for {
		t := p.peek(0)
		isIn := allowIn && t.Type == lexer.Keyword && t.Text == "in"
		isOp := (t.Type == lexer.Punct && containsStr(ops, t.Text)) ||
			(t.Type == lexer.Keyword && t.Text == "instanceof")
		if !isIn && !isOp {
			break
		}
		p.next()
		n := ast.New(ast.KBinary, left.Line)
		n.Op = t.Text
		n.Left = left
		n.Right = p.parseShiftIn(allowIn)
		left = n
	}
	return left
}

func (p *Parser) parseShiftIn(allowIn bool) *ast.Node {
	return p.parseBinaryLevelIn(allowIn, []string{"<<", ">>", ">>>"}, (*Parser).parseAdditiveIn)
}
func (p *Parser) parseAdditiveIn(allowIn bool) *ast.Node {
	return p.parseBinaryLevelIn(allowIn, []string{"+", "-"}, (*Parser).parseMultiplicativeIn)
}
func (p *Parser) parseMultiplicativeIn(allowIn bool) *ast.Node {
	return p.parseBinaryLevelIn(allowIn, []string{"*", "/", "%"}, (*Parser).parseExponentIn)
}

func (p *Parser) parseExponentIn(allowIn bool) *ast.Node {
	left := p.parseUnary()
	if p.peekIsPunct(0, "**") {
		p.next()
		n := ast.New(ast.KBinary, left.Line)
		n.Op = "**"
		n.Left = left
		n.Right = p.parseExponentIn(allowIn) // right-associative
		return n
	}
	return left
}

// parseBinaryLevelIn is the common shape of the left-associative binary
// precedence levels: parse one operand at the next tighter level, then
// fold in as many same-level operators as appear.
func (p *Parser) parseBinaryLevelIn(allowIn bool, ops []string, next func(*Parser, bool) *ast.Node) *ast.Node {
	left := next(p, allowIn)
	for {
		t := p.peek(0)
		if t.Type != lexer.Punct || !containsStr(ops, t.Text) {
			break
		}
		p.next()
		n := ast.New(ast.KBinary, left.Line)
		n.Op = t.Text
		n.Left = left
		n.Right = next(p, allowIn)
		left = n
	}
	return left
}

func containsStr(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

var unaryOps = map[string]bool{
	"+": true, "-": true, "~": true, "!": true,
}

func (p *Parser) parseUnary() *ast.Node {
	t := p.peek(0)
	if t.Type == lexer.Punct && unaryOps[t.Text] {
		p.next()
		n := ast.New(ast.KUnary, t.Line)
		n.Op = t.Text
		n.Left = p.parseUnary()
		return n
	}
	if t.Type == lexer.Punct && (t.Text == "++" || t.Text == "--") {
		p.next()
		n := ast.New(ast.KUpdate, t.Line)
		n.Op = t.Text
		n.Prefix = true
		n.Left = p.parseUnary()
		return n
	}
	if t.Type == lexer.Keyword {
		switch t.Text {
		case "typeof":
			p.next()
			n := ast.New(ast.KTypeof, t.Line)
			n.Left = p.parseUnary()
			return n
		case "void":
			p.next()
			n := ast.New(ast.KVoid, t.Line)
			n.Left = p.parseUnary()
			return n
		case "delete":
			p.next()
			n := ast.New(ast.KDelete, t.Line)
			n.Left = p.parseUnary()
			return n
		case "await":
			p.next()
			n := ast.New(ast.KUnary, t.Line)
			n.Op = "await"
			n.Left = p.parseUnary()
			return n
		}
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() *ast.Node {
	n := p.parseCallNew()
	t := p.peek(0)
	if t.Type == lexer.Punct && (t.Text == "++" || t.Text == "--") && t.Line == n.Line {
		p.next()
		u := ast.New(ast.KUpdate, n.Line)
		u.Op = t.Text
		u.Prefix = false
		u.Left = n
		return u
	}
	return n
}

func (p *Parser) parseCallNew() *ast.Node {
	if p.peekIsKeyword(0, "new") {
		line := p.peek(0).Line
		p.next()
		callee := p.parseMemberOnly(p.parsePrimary())
		n := ast.New(ast.KNew, line)
		n.Left = callee
		if p.peekIsPunct(0, "(") {
			n.List = p.parseArguments()
		}
		return p.parseCallTail(n)
	}
	n := p.parsePrimary()
	n = p.parseCallTail(n)
	return n
}

// parseMemberOnly consumes member-access chains (no calls), used for the
// callee of `new` so that `new Foo.Bar(x)` binds Bar as the constructor.
func (p *Parser) parseMemberOnly(n *ast.Node) *ast.Node {
	for {
		switch {
		case p.peekIsPunct(0, "."):
			p.next()
			name := p.expectIdent()
			m := ast.New(ast.KMember, n.Line)
			m.Left = n
			m.Name = name
			n = m
		case p.peekIsPunct(0, "["):
			p.next()
			idx := p.parseExpression()
			p.expectPunct("]")
			m := ast.New(ast.KMember, n.Line)
			m.Left = n
			m.Right = idx
			m.Computed = true
			n = m
		default:
			return n
		}
	}
}

func (p *Parser) parseCallTail(n *ast.Node) *ast.Node {
	for {
		switch {
		case p.peekIsPunct(0, "."):
			p.next()
			name := p.expectIdent()
			m := ast.New(ast.KMember, n.Line)
			m.Left = n
			m.Name = name
			n = m
		case p.peekIsPunct(0, "?."):
			p.next()
			if p.peekIsPunct(0, "(") {
				c := ast.New(ast.KCall, n.Line)
				c.Left = n
				c.List = p.parseArguments()
				c.Op = "?."
				n = c
				continue
			}
			name := p.expectIdent()
			m := ast.New(ast.KMember, n.Line)
			m.Left = n
			m.Name = name
			m.Op = "?."
			n = m
		case p.peekIsPunct(0, "["):
			p.next()
			idx := p.parseExpression()
			p.expectPunct("]")
			m := ast.New(ast.KMember, n.Line)
			m.Left = n
			m.Right = idx
			m.Computed = true
			n = m
		case p.peekIsPunct(0, "("):
			c := ast.New(ast.KCall, n.Line)
			c.Left = n
			c.List = p.parseArguments()
			n = c
		case p.peek(0).Type == lexer.TemplateString || p.peekIsPunct(0, "`"):
			n = p.parseTaggedTemplate(n)
		default:
			return n
		}
	}
}

func (p *Parser) parseArguments() []*ast.Node {
	p.expectPunct("(")
	var args []*ast.Node
	for !p.peekIsPunct(0, ")") {
		if p.acceptPunct("...") {
			sp := ast.New(ast.KSpread, p.peek(0).Line)
			sp.Left = p.parseAssignment()
			args = append(args, sp)
		} else {
			args = append(args, p.parseAssignment())
		}
		if !p.acceptPunct(",") {
			break
		}
	}
	p.expectPunct(")")
	return args
}

func (p *Parser) parsePrimary() *ast.Node {
	if p.peekIsPunct(0, "/") || p.peekIsPunct(0, "/=") {
		// A primary expression is grammatically expected here, so a
		// leading "/" starts a regex literal rather than the division
		// punctuator scan() assumed (spec §4.1 "Disambiguation of /").
		p.lex.RetokenizeAsRegex()
	}
	t := p.peek(0)
	switch t.Type {
	case lexer.Number:
		p.next()
		n := ast.New(ast.KNumberLit, t.Line)
		n.Num = parseNumberLiteral(t.Text)
		return n
	case lexer.String:
		p.next()
		n := ast.New(ast.KStringLit, t.Line)
		n.Str = lexer.UnescapeString(t.Text)
		return n
	case lexer.Ident:
		p.next()
		n := ast.New(ast.KIdentifier, t.Line)
		n.Name = t.Text
		n.Scope = p.scope
		return n
	case lexer.Keyword:
		switch t.Text {
		case "this":
			p.next()
			return ast.New(ast.KThis, t.Line)
		case "true", "false":
			p.next()
			n := ast.New(ast.KBooleanLit, t.Line)
			n.Bool = t.Text == "true"
			return n
		case "null":
			p.next()
			return ast.New(ast.KNullLit, t.Line)
		case "undefined":
			p.next()
			return ast.New(ast.KUndefinedLit, t.Line)
		case "function":
			return p.parseFunctionLiteral(t.Line, true)
		case "new":
			return p.parseCallNew()
		}
	case lexer.Punct:
		switch t.Text {
		case "(":
			p.next()
			n := p.parseExpression()
			p.expectPunct(")")
			return n
		case "[":
			return p.parseArrayLiteral()
		case "{":
			return p.parseObjectLiteral()
		case "`":
			return p.parseTemplateLiteral()
		}
	case lexer.TemplateString:
		return p.parseTemplateLiteral()
	case lexer.Regex:
		p.next()
		return p.parseRegexLiteral(t)
	}
	p.fail("unexpected token %q", t.Text)
	return nil
}

// parseRegexLiteral splits a Regex token's verbatim text (the leading
// and trailing "/" plus trailing flag letters, per lexer.RegexLiteral)
// into the pattern body and flags KRegexLit carries separately.
func (p *Parser) parseRegexLiteral(t lexer.Token) *ast.Node {
	text := t.Text
	end := strings.LastIndexByte(text, '/')
	if len(text) < 2 || end <= 0 {
		p.fail("malformed regex literal %q", text)
	}
	n := ast.New(ast.KRegexLit, t.Line)
	n.Str = text[1:end]
	n.Flags = text[end+1:]
	return n
}

func parseNumberLiteral(text string) float64 {
	if len(text) > 1 && text[0] == '0' {
		switch text[1] {
		case 'x', 'X':
			if v, err := strconv.ParseUint(text[2:], 16, 64); err == nil {
				return float64(v)
			}
		case 'o', 'O':
			if v, err := strconv.ParseUint(text[2:], 8, 64); err == nil {
				return float64(v)
			}
		case 'b', 'B':
			if v, err := strconv.ParseUint(text[2:], 2, 64); err == nil {
				return float64(v)
			}
		}
	}
	v, _ := strconv.ParseFloat(text, 64)
	return v
}

func (p *Parser) parseArrayLiteral() *ast.Node {
	line := p.peek(0).Line
	p.expectPunct("[")
	n := ast.New(ast.KArrayLit, line)
	for !p.peekIsPunct(0, "]") {
		if p.peekIsPunct(0, ",") {
			p.next()
			n.List = append(n.List, nil) // elision
			continue
		}
		if p.acceptPunct("...") {
			sp := ast.New(ast.KSpread, p.peek(0).Line)
			sp.Left = p.parseAssignment()
			n.List = append(n.List, sp)
		} else {
			n.List = append(n.List, p.parseAssignment())
		}
		if !p.acceptPunct(",") {
			break
		}
	}
	p.expectPunct("]")
	return n
}

func (p *Parser) parseObjectLiteral() *ast.Node {
	line := p.peek(0).Line
	p.expectPunct("{")
	n := ast.New(ast.KObjectLit, line)
	for !p.peekIsPunct(0, "}") {
		n.List = append(n.List, p.parseObjectProperty())
		if !p.acceptPunct(",") {
			break
		}
	}
	p.expectPunct("}")
	return n
}

func (p *Parser) parseObjectProperty() *ast.Node {
	line := p.peek(0).Line

	if p.acceptPunct("...") {
		sp := ast.New(ast.KSpread, line)
		sp.Left = p.parseAssignment()
		return sp
	}

	mode := "init"
	if (p.peekIsKeyword(0, "get") || (p.peek(0).Type == lexer.Ident && p.peek(0).Text == "get")) &&
		!p.peekIsPunct(1, ":") && !p.peekIsPunct(1, "(") && !p.peekIsPunct(1, ",") && !p.peekIsPunct(1, "}") {
		mode = "getter"
		p.next()
	} else if (p.peekIsKeyword(0, "set") || (p.peek(0).Type == lexer.Ident && p.peek(0).Text == "set")) &&
		!p.peekIsPunct(1, ":") && !p.peekIsPunct(1, "(") && !p.peekIsPunct(1, ",") && !p.peekIsPunct(1, "}") {
		mode = "setter"
		p.next()
	}

	n := ast.New(ast.KPropertyInit, line)
	n.Op = mode

	computed := false
	var keyName string
	var keyExpr *ast.Node
	if p.acceptPunct("[") {
		computed = true
		keyExpr = p.parseAssignment()
		p.expectPunct("]")
	} else {
		kt := p.next()
		switch kt.Type {
		case lexer.String:
			keyName = lexer.UnescapeString(kt.Text)
		case lexer.Number:
			keyName = kt.Text
		default:
			keyName = kt.Text
		}
		if keyName == "__proto__" && mode == "init" {
			n.Op = "proto"
		}
	}
	n.Computed = computed
	n.Name = keyName
	n.Right = keyExpr // computed key expression, nil otherwise

	switch mode {
	case "getter", "setter":
		n.Left = p.parseMethodBody(line)
		return n
	}

	if p.peekIsPunct(0, "(") {
		// shorthand method: key(args) { ... }
		fn := p.parseMethodBody(line)
		n.Left = fn
		n.Op = "init"
		return n
	}

	if p.acceptPunct(":") {
		n.Left = p.parseAssignment()
		return n
	}

	// shorthand { x } === { x: x }
	id := ast.New(ast.KIdentifier, line)
	id.Name = keyName
	id.Scope = p.scope
	n.Left = id
	return n
}

// parseMethodBody parses `(params) { body }` as an anonymous function
// literal, used for object-literal method shorthand.
func (p *Parser) parseMethodBody(line int) *ast.Node {
	outer := p.scope
	fnScope := ast.NewScope(outer, ast.ScopeFunction)
	p.scope = fnScope

	p.expectPunct("(")
	var params []string
	rest := false
	for !p.peekIsPunct(0, ")") {
		if p.acceptPunct("...") {
			rest = true
			params = append(params, p.expectIdent())
			break
		}
		params = append(params, p.expectIdent())
		if !p.acceptPunct(",") {
			break
		}
	}
	p.expectPunct(")")
	for _, prm := range params {
		fnScope.Declare(prm, "param")
	}

	p.expectPunct("{")
	var body []*ast.Node
	for !p.peekIsPunct(0, "}") {
		body = append(body, p.parseStatement())
	}
	p.expectPunct("}")
	p.scope = outer

	n := ast.New(ast.KFunctionExpr, line)
	n.Func = &ast.FunctionInfo{
		Params:   params,
		Rest:     rest,
		Body:     body,
		Scope:    fnScope,
		Line:     line,
		IsMethod: true,
	}
	return n
}
