package parser

import (
	"github.com/nginx/njs-go/internal/ast"
	"github.com/nginx/njs-go/internal/lexer"
)

func (p *Parser) parseStatement() *ast.Node {
	line := p.peek(0).Line

	switch {
	case p.peekIsKeyword(0, "var"), p.peekIsKeyword(0, "let"), p.peekIsKeyword(0, "const"):
		n := p.parseVarDecl()
		p.consumeSemicolon()
		return n
	case p.peekIsKeyword(0, "function"):
		return p.parseFunctionDecl()
	case p.peekIsPunct(0, "{"):
		return p.parseBlock()
	case p.peekIsKeyword(0, "if"):
		return p.parseIf()
	case p.peekIsKeyword(0, "while"):
		return p.parseWhile()
	case p.peekIsKeyword(0, "do"):
		return p.parseDoWhile()
	case p.peekIsKeyword(0, "for"):
		return p.parseFor()
	case p.peekIsKeyword(0, "return"):
		return p.parseReturn(line)
	case p.peekIsKeyword(0, "break"):
		p.next()
		p.consumeSemicolon()
		return ast.New(ast.KBreak, line)
	case p.peekIsKeyword(0, "continue"):
		p.next()
		p.consumeSemicolon()
		return ast.New(ast.KContinue, line)
	case p.peekIsKeyword(0, "throw"):
		p.next()
		n := ast.New(ast.KThrow, line)
		n.Left = p.parseExpression()
		p.consumeSemicolon()
		return n
	case p.peekIsKeyword(0, "try"):
		return p.parseTry()
	case p.peekIsPunct(0, ";"):
		p.next()
		return ast.New(ast.KEmpty, line)
	default:
		n := ast.New(ast.KExprStmt, line)
		n.Left = p.parseExpression()
		p.consumeSemicolon()
		return n
	}
}

func (p *Parser) parseBlock() *ast.Node {
	line := p.peek(0).Line
	p.expectPunct("{")
	n := ast.New(ast.KBlock, line)
	outer := p.scope
	p.scope = ast.NewScope(outer, ast.ScopeBlock)
	n.Scope = p.scope
	for !p.peekIsPunct(0, "}") {
		n.List = append(n.List, p.parseStatement())
	}
	p.expectPunct("}")
	p.scope = outer
	return n
}

func (p *Parser) parseVarDecl() *ast.Node {
	line := p.peek(0).Line
	kw := p.next().Text // var/let/const
	n := ast.New(ast.KVarDecl, line)
	n.Op = kw
	for {
		name := p.expectIdent()
		variable := p.scope.Declare(name, kw)
		bind := ast.New(ast.KVarIn, line)
		bind.Name = name
		bind.SlotIndex = variable.SlotIndex
		bind.Scope = p.scope
		if p.acceptPunct("=") {
			bind.Right = p.parseAssignment()
		}
		n.List = append(n.List, bind)
		if !p.acceptPunct(",") {
			break
		}
	}
	return n
}

func (p *Parser) parseFunctionDecl() *ast.Node {
	line := p.peek(0).Line
	fn := p.parseFunctionLiteral(line, false)
	decl := ast.New(ast.KFunctionDecl, line)
	decl.Func = fn.Func
	decl.Name = fn.Func.Name
	p.scope.Declare(fn.Func.Name, "function")
	return decl
}

func (p *Parser) parseFunctionLiteral(line int, anonymousOK bool) *ast.Node {
	p.next() // 'function'
	name := ""
	if p.peek(0).Type == lexer.Ident {
		name = p.expectIdent()
	} else if !anonymousOK {
		p.fail("expected function name")
	}

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
		Name:   name,
		Params: params,
		Rest:   rest,
		Body:   body,
		Scope:  fnScope,
		Line:   line,
	}
	return n
}

func (p *Parser) parseIf() *ast.Node {
	line := p.peek(0).Line
	p.next()
	p.expectPunct("(")
	cond := p.parseExpression()
	p.expectPunct(")")
	then := p.parseStatement()
	n := ast.New(ast.KIf, line)
	n.Left = cond
	n.Right = then
	if p.acceptKeyword("else") {
		n.Third = p.parseStatement()
	}
	return n
}

func (p *Parser) parseWhile() *ast.Node {
	line := p.peek(0).Line
	p.next()
	p.expectPunct("(")
	cond := p.parseExpression()
	p.expectPunct(")")
	body := p.parseStatement()
	n := ast.New(ast.KWhile, line)
	n.Left = cond
	n.Right = body
	return n
}

func (p *Parser) parseDoWhile() *ast.Node {
	line := p.peek(0).Line
	p.next()
	body := p.parseStatement()
	if !p.acceptKeyword("while") {
		p.fail("expected 'while' after do-block")
	}
	p.expectPunct("(")
	cond := p.parseExpression()
	p.expectPunct(")")
	p.consumeSemicolon()
	n := ast.New(ast.KDoWhile, line)
	n.Left = cond
	n.Right = body
	return n
}

func (p *Parser) parseFor() *ast.Node {
	line := p.peek(0).Line
	p.next()
	p.expectPunct("(")

	outer := p.scope
	p.scope = ast.NewScope(outer, ast.ScopeBlock)

	var init *ast.Node
	if !p.peekIsPunct(0, ";") {
		if p.peekIsKeyword(0, "var") || p.peekIsKeyword(0, "let") || p.peekIsKeyword(0, "const") {
			init = p.parseVarDeclNoSemi()
		} else {
			init = p.parseExpressionNoIn()
		}
	}

	if p.peekIsKeyword(0, "in") || p.peekIsKeyword(0, "of") {
		isOf := p.peekIsKeyword(0, "of")
		p.next()
		right := p.parseAssignment()
		p.expectPunct(")")
		body := p.parseStatement()
		kind := ast.KForIn
		if isOf {
			kind = ast.KForOf
		}
		n := ast.New(kind, line)
		n.Left = init
		n.Right = right
		n.Third = body
		n.Scope = p.scope
		p.scope = outer
		return n
	}

	p.expectPunct(";")
	var cond *ast.Node
	if !p.peekIsPunct(0, ";") {
		cond = p.parseExpression()
	}
	p.expectPunct(";")
	var update *ast.Node
	if !p.peekIsPunct(0, ")") {
		update = p.parseExpression()
	}
	p.expectPunct(")")
	body := p.parseStatement()

	n := ast.New(ast.KFor, line)
	n.List = []*ast.Node{init, cond, update}
	n.Left = body
	n.Scope = p.scope
	p.scope = outer
	return n
}

func (p *Parser) parseVarDeclNoSemi() *ast.Node {
	return p.parseVarDecl()
}

func (p *Parser) parseReturn(line int) *ast.Node {
	p.next()
	n := ast.New(ast.KReturn, line)
	if !p.peekIsPunct(0, ";") && !p.peekIsPunct(0, "}") && p.peekType(0) != lexer.EOF {
		if p.peek(0).Line == line {
			n.Left = p.parseExpression()
		}
	}
	p.consumeSemicolon()
	return n
}

func (p *Parser) parseTry() *ast.Node {
	line := p.peek(0).Line
	p.next()
	n := ast.New(ast.KTry, line)
	n.Left = p.parseBlock() // try block

	if p.acceptKeyword("catch") {
		catchNode := ast.New(ast.KBlock, p.peek(0).Line)
		outer := p.scope
		p.scope = ast.NewScope(outer, ast.ScopeBlock)
		catchNode.Scope = p.scope
		if p.acceptPunct("(") {
			name := p.expectIdent()
			v := p.scope.Declare(name, "catch")
			catchNode.Name = name
			catchNode.SlotIndex = v.SlotIndex
			p.expectPunct(")")
		}
		body := p.parseBlock()
		catchNode.List = body.List
		p.scope = outer
		n.Right = catchNode
	}

	if p.acceptKeyword("finally") {
		n.Third = p.parseBlock()
	}
	return n
}
