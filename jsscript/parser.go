package jsscript

import "fmt"

// parser is a hand-written recursive-descent parser over the token
// stream from lex, built in the same shape as cssselect's own
// parser (pos-indexed slice of tokens, peek/advance/expect helpers).
// Anything outside the supported grammar — class declarations, tagged
// template literals, malformed expressions — returns a *ParseError.
// Labels on break/continue are not checked against enclosing loops.
type parser struct {
	toks []token
	pos  int
	src  string
}

// Parse compiles source into a Program, or returns a *ParseError
// describing the first unsupported or malformed construct.
func Parse(source string) (*Program, error) {
	toks, err := lex(source)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks, src: source}
	prog := &Program{}
	for p.peek().kind != tokEOF {
		st, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		prog.Body = append(prog.Body, st)
	}
	return prog, nil
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) peekAt(off int) token {
	if p.pos+off >= len(p.toks) {
		return token{kind: tokEOF}
	}
	return p.toks[p.pos+off]
}

func (p *parser) advance() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) is(k tokKind) bool { return p.peek().kind == k }

func (p *parser) isKeyword(word string) bool {
	t := p.peek()
	return t.kind == tokKeyword && t.text == word
}

func (p *parser) errf(format string, args ...any) error {
	t := p.peek()
	return &ParseError{Line: t.line, Col: t.col, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) expect(k tokKind, desc string) (token, error) {
	if !p.is(k) {
		return token{}, p.errf("expected %s", desc)
	}
	return p.advance(), nil
}

func (p *parser) expectKeyword(word string) error {
	if !p.isKeyword(word) {
		return p.errf("expected %q", word)
	}
	p.advance()
	return nil
}

// consumeSemi implements a minimal automatic-semicolon-insertion: an
// explicit ';' is consumed; otherwise a line break, '}', or EOF before
// the next token is accepted silently, matching how real JS programs
// are written without requiring every statement to be ';'-terminated.
func (p *parser) consumeSemi() error {
	if p.is(tokSemicolon) {
		p.advance()
		return nil
	}
	if p.is(tokRBrace) || p.is(tokEOF) || p.peek().nlBefore {
		return nil
	}
	return p.errf("expected ';'")
}

// --- statements ---

func (p *parser) parseStmt() (Stmt, error) {
	t := p.peek()
	if t.kind == tokSemicolon {
		p.advance()
		return &EmptyStmt{}, nil
	}
	if t.kind == tokLBrace {
		return p.parseBlock()
	}
	if t.kind == tokKeyword {
		switch t.text {
		case "var", "let", "const":
			p.advance()
			d, err := p.parseVarDeclRest(t.text)
			if err != nil {
				return nil, err
			}
			return d, p.consumeSemi()
		case "function":
			return p.parseFuncDecl(false)
		case "async":
			if p.peekAt(1).kind == tokKeyword && p.peekAt(1).text == "function" {
				p.advance()
				return p.parseFuncDecl(true)
			}
		case "if":
			return p.parseIf()
		case "while":
			return p.parseWhile()
		case "do":
			return p.parseDoWhile()
		case "for":
			return p.parseFor()
		case "break":
			p.advance()
			label := ""
			if p.is(tokIdent) && !p.peek().nlBefore {
				label = p.advance().text
			}
			return &BreakStmt{Label: label}, p.consumeSemi()
		case "continue":
			p.advance()
			label := ""
			if p.is(tokIdent) && !p.peek().nlBefore {
				label = p.advance().text
			}
			return &ContinueStmt{Label: label}, p.consumeSemi()
		case "return":
			p.advance()
			if p.is(tokSemicolon) || p.is(tokRBrace) || p.is(tokEOF) || p.peek().nlBefore {
				return &ReturnStmt{}, p.consumeSemi()
			}
			v, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			return &ReturnStmt{Value: v}, p.consumeSemi()
		case "throw":
			p.advance()
			v, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			return &ThrowStmt{Value: v}, p.consumeSemi()
		case "try":
			return p.parseTry()
		case "class":
			return nil, p.errf("class declarations are not supported")
		}
	}
	if t.kind == tokIdent && p.peekAt(1).kind == tokColon {
		label := p.advance().text
		p.advance() // ':'
		body, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		return &LabeledStmt{Label: label, Body: body}, nil
	}
	x, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &ExprStmt{X: x}, p.consumeSemi()
}

func (p *parser) parseBlock() (*BlockStmt, error) {
	if _, err := p.expect(tokLBrace, "'{'"); err != nil {
		return nil, err
	}
	b := &BlockStmt{}
	for !p.is(tokRBrace) {
		if p.is(tokEOF) {
			return nil, p.errf("unterminated block")
		}
		st, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		b.Body = append(b.Body, st)
	}
	p.advance()
	return b, nil
}

func (p *parser) parseVarDeclRest(kind string) (*VarDecl, error) {
	d := &VarDecl{Kind: kind}
	for {
		target, err := p.parseBindingTarget()
		if err != nil {
			return nil, err
		}
		var init Expr
		if p.is(tokAssign) {
			p.advance()
			init, err = p.parseAssign()
			if err != nil {
				return nil, err
			}
		}
		d.Decls = append(d.Decls, VarDeclarator{Target: target, Init: init})
		if p.is(tokComma) {
			p.advance()
			continue
		}
		break
	}
	return d, nil
}

// parseBindingTarget parses an identifier or a destructuring pattern
// (array/object literal syntax reinterpreted as a binding pattern).
func (p *parser) parseBindingTarget() (Expr, error) {
	switch p.peek().kind {
	case tokIdent:
		return &Ident{Name: p.advance().text}, nil
	case tokLBracket:
		return p.parseArrayLiteralOrPattern()
	case tokLBrace:
		return p.parseObjectLiteralOrPattern()
	}
	return nil, p.errf("expected a binding target")
}

func (p *parser) parseIf() (Stmt, error) {
	p.advance()
	if _, err := p.expect(tokLParen, "'('"); err != nil {
		return nil, err
	}
	test, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokRParen, "')'"); err != nil {
		return nil, err
	}
	cons, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	st := &IfStmt{Test: test, Cons: cons}
	if p.isKeyword("else") {
		p.advance()
		alt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		st.Alt = alt
	}
	return st, nil
}

func (p *parser) parseWhile() (Stmt, error) {
	p.advance()
	if _, err := p.expect(tokLParen, "'('"); err != nil {
		return nil, err
	}
	test, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokRParen, "')'"); err != nil {
		return nil, err
	}
	body, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	return &WhileStmt{Test: test, Body: body}, nil
}

func (p *parser) parseDoWhile() (Stmt, error) {
	p.advance()
	body, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("while"); err != nil {
		return nil, err
	}
	if _, err := p.expect(tokLParen, "'('"); err != nil {
		return nil, err
	}
	test, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokRParen, "')'"); err != nil {
		return nil, err
	}
	_ = p.consumeSemi()
	return &DoWhileStmt{Body: body, Test: test}, nil
}

func (p *parser) parseFor() (Stmt, error) {
	p.advance()
	if _, err := p.expect(tokLParen, "'('"); err != nil {
		return nil, err
	}

	declKind := ""
	if p.isKeyword("var") || p.isKeyword("let") || p.isKeyword("const") {
		declKind = p.advance().text
	}

	if p.is(tokSemicolon) {
		return p.parseForClassic(nil, declKind)
	}

	if declKind != "" {
		target, err := p.parseBindingTarget()
		if err != nil {
			return nil, err
		}
		if p.isKeyword("in") || p.isKeyword("of") {
			kind := p.advance().text
			obj, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(tokRParen, "')'"); err != nil {
				return nil, err
			}
			body, err := p.parseStmt()
			if err != nil {
				return nil, err
			}
			return &ForInStmt{Kind: kind, DeclKind: declKind, Target: target, Object: obj, Body: body}, nil
		}
		var init Expr
		if p.is(tokAssign) {
			p.advance()
			init, err = p.parseAssign()
			if err != nil {
				return nil, err
			}
		}
		decl := &VarDecl{Kind: declKind, Decls: []VarDeclarator{{Target: target, Init: init}}}
		for p.is(tokComma) {
			p.advance()
			t2, err := p.parseBindingTarget()
			if err != nil {
				return nil, err
			}
			var i2 Expr
			if p.is(tokAssign) {
				p.advance()
				i2, err = p.parseAssign()
				if err != nil {
					return nil, err
				}
			}
			decl.Decls = append(decl.Decls, VarDeclarator{Target: t2, Init: i2})
		}
		return p.parseForClassic(decl, declKind)
	}

	// no declaration keyword: either a bare expression init, or `for (x in/of obj)`.
	startPos := p.pos
	lhs, err := p.parseAssign()
	if err != nil {
		return nil, err
	}
	if p.isKeyword("in") || p.isKeyword("of") {
		kind := p.advance().text
		obj, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
		body, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		return &ForInStmt{Kind: kind, Target: lhs, Object: obj, Body: body}, nil
	}
	p.pos = startPos
	initExpr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return p.parseForClassic(&ExprStmt{X: initExpr}, "")
}

func (p *parser) parseForClassic(init Stmt, _ string) (Stmt, error) {
	if _, err := p.expect(tokSemicolon, "';'"); err != nil {
		return nil, err
	}
	var test Expr
	if !p.is(tokSemicolon) {
		var err error
		test, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(tokSemicolon, "';'"); err != nil {
		return nil, err
	}
	var update Expr
	if !p.is(tokRParen) {
		var err error
		update, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(tokRParen, "')'"); err != nil {
		return nil, err
	}
	body, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	return &ForStmt{Init: init, Test: test, Update: update, Body: body}, nil
}

func (p *parser) parseTry() (Stmt, error) {
	p.advance()
	block, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	st := &TryStmt{Block: block}
	if p.isKeyword("catch") {
		p.advance()
		cc := &CatchClause{}
		if p.is(tokLParen) {
			p.advance()
			target, err := p.parseBindingTarget()
			if err != nil {
				return nil, err
			}
			cc.Param = target
			if _, err := p.expect(tokRParen, "')'"); err != nil {
				return nil, err
			}
		}
		body, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		cc.Body = body
		st.Catch = cc
	}
	if p.isKeyword("finally") {
		p.advance()
		fb, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		st.Finally = fb
	}
	if st.Catch == nil && st.Finally == nil {
		return nil, p.errf("try requires a catch or finally clause")
	}
	return st, nil
}

func (p *parser) parseFuncDecl(isAsync bool) (Stmt, error) {
	p.advance() // 'function'
	isGen := false
	if p.is(tokStar) {
		p.advance()
		isGen = true
	}
	nameTok, err := p.expect(tokIdent, "a function name")
	if err != nil {
		return nil, err
	}
	fn, err := p.parseFuncRest(nameTok.text, false, isAsync, isGen)
	if err != nil {
		return nil, err
	}
	return &FuncDecl{Name: nameTok.text, Fn: fn}, nil
}

// parseFuncRest parses the parameter list and body shared by function
// declarations, function expressions, and methods (name already consumed).
func (p *parser) parseFuncRest(name string, isArrow, isAsync, isGen bool) (*FuncLit, error) {
	params, err := p.parseParamList()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &FuncLit{Name: name, Params: params, Body: body, IsAsync: isAsync, IsGenerator: isGen, IsArrow: isArrow}, nil
}

func (p *parser) parseParamList() ([]Param, error) {
	if _, err := p.expect(tokLParen, "'('"); err != nil {
		return nil, err
	}
	var params []Param
	for !p.is(tokRParen) {
		var prm Param
		if p.is(tokDotDotDot) {
			p.advance()
			prm.Rest = true
		}
		target, err := p.parseBindingTarget()
		if err != nil {
			return nil, err
		}
		prm.Target = target
		if p.is(tokAssign) {
			p.advance()
			def, err := p.parseAssign()
			if err != nil {
				return nil, err
			}
			prm.Default = def
		}
		params = append(params, prm)
		if p.is(tokComma) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(tokRParen, "')'"); err != nil {
		return nil, err
	}
	return params, nil
}

// --- expressions ---
//
// The precedence climb below mirrors cssselect's parser style — one
// named function per grammar level rather than an operator-precedence
// table — walking from the comma operator down to primary expressions.

// parseExpression parses a comma-separated sequence expression.
func (p *parser) parseExpression() (Expr, error) {
	first, err := p.parseAssign()
	if err != nil {
		return nil, err
	}
	if !p.is(tokComma) {
		return first, nil
	}
	seq := &SeqExpr{Exprs: []Expr{first}}
	for p.is(tokComma) {
		p.advance()
		e, err := p.parseAssign()
		if err != nil {
			return nil, err
		}
		seq.Exprs = append(seq.Exprs, e)
	}
	return seq, nil
}

var assignOps = map[tokKind]string{
	tokAssign:                 "=",
	tokPlusAssign:             "+=",
	tokMinusAssign:            "-=",
	tokStarAssign:             "*=",
	tokSlashAssign:            "/=",
	tokPercentAssign:          "%=",
	tokStarStarAssign:         "**=",
	tokShlAssign:              "<<=",
	tokShrAssign:              ">>=",
	tokUShrAssign:             ">>>=",
	tokAndAssign:              "&=",
	tokOrAssign:               "|=",
	tokXorAssign:              "^=",
	tokAndAndAssign:           "&&=",
	tokOrOrAssign:             "||=",
	tokQuestionQuestionAssign: "??=",
}

func (p *parser) parseAssign() (Expr, error) {
	if fn, ok, err := p.tryParseArrow(); err != nil {
		return nil, err
	} else if ok {
		return fn, nil
	}

	left, err := p.parseConditional()
	if err != nil {
		return nil, err
	}
	if op, ok := assignOps[p.peek().kind]; ok {
		p.advance()
		right, err := p.parseAssign()
		if err != nil {
			return nil, err
		}
		return &AssignExpr{Op: op, Target: toPattern(left), Value: right}, nil
	}
	return left, nil
}

// toPattern returns e unchanged for every target: an ArrayLit/ObjectLit
// on the left of an assignment is treated as a destructuring pattern by
// the evaluator's assignTo, not rewritten here.
func toPattern(e Expr) Expr { return e }

func (p *parser) parseConditional() (Expr, error) {
	test, err := p.parseNullish()
	if err != nil {
		return nil, err
	}
	if !p.is(tokQuestion) {
		return test, nil
	}
	p.advance()
	cons, err := p.parseAssign()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokColon, "':'"); err != nil {
		return nil, err
	}
	alt, err := p.parseAssign()
	if err != nil {
		return nil, err
	}
	return &CondExpr{Test: test, Cons: cons, Alt: alt}, nil
}

func (p *parser) parseNullish() (Expr, error) {
	left, err := p.parseLogicalOr()
	if err != nil {
		return nil, err
	}
	for p.is(tokQuestionQuestion) {
		p.advance()
		right, err := p.parseLogicalOr()
		if err != nil {
			return nil, err
		}
		left = &LogicalExpr{Op: "??", L: left, R: right}
	}
	return left, nil
}

func (p *parser) parseLogicalOr() (Expr, error) {
	left, err := p.parseLogicalAnd()
	if err != nil {
		return nil, err
	}
	for p.is(tokOrOr) {
		p.advance()
		right, err := p.parseLogicalAnd()
		if err != nil {
			return nil, err
		}
		left = &LogicalExpr{Op: "||", L: left, R: right}
	}
	return left, nil
}

func (p *parser) parseLogicalAnd() (Expr, error) {
	left, err := p.parseBitOr()
	if err != nil {
		return nil, err
	}
	for p.is(tokAndAnd) {
		p.advance()
		right, err := p.parseBitOr()
		if err != nil {
			return nil, err
		}
		left = &LogicalExpr{Op: "&&", L: left, R: right}
	}
	return left, nil
}

func (p *parser) parseBitOr() (Expr, error) {
	left, err := p.parseBitXor()
	if err != nil {
		return nil, err
	}
	for p.is(tokPipe) {
		p.advance()
		right, err := p.parseBitXor()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: "|", L: left, R: right}
	}
	return left, nil
}

func (p *parser) parseBitXor() (Expr, error) {
	left, err := p.parseBitAnd()
	if err != nil {
		return nil, err
	}
	for p.is(tokCaret) {
		p.advance()
		right, err := p.parseBitAnd()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: "^", L: left, R: right}
	}
	return left, nil
}

func (p *parser) parseBitAnd() (Expr, error) {
	left, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.is(tokAmp) {
		p.advance()
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: "&", L: left, R: right}
	}
	return left, nil
}

var equalityOps = map[tokKind]string{
	tokEq: "==", tokNotEq: "!=", tokStrictEq: "===", tokStrictNotEq: "!==",
}

func (p *parser) parseEquality() (Expr, error) {
	left, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := equalityOps[p.peek().kind]
		if !ok {
			return left, nil
		}
		p.advance()
		right, err := p.parseRelational()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, L: left, R: right}
	}
}

var relationalOps = map[tokKind]string{
	tokLt: "<", tokGt: ">", tokLtEq: "<=", tokGtEq: ">=",
}

func (p *parser) parseRelational() (Expr, error) {
	left, err := p.parseShift()
	if err != nil {
		return nil, err
	}
	for {
		if op, ok := relationalOps[p.peek().kind]; ok {
			p.advance()
			right, err := p.parseShift()
			if err != nil {
				return nil, err
			}
			left = &BinaryExpr{Op: op, L: left, R: right}
			continue
		}
		if p.isKeyword("instanceof") || p.isKeyword("in") {
			op := p.advance().text
			right, err := p.parseShift()
			if err != nil {
				return nil, err
			}
			left = &BinaryExpr{Op: op, L: left, R: right}
			continue
		}
		return left, nil
	}
}

var shiftOps = map[tokKind]string{
	tokShl: "<<", tokShr: ">>", tokUShr: ">>>",
}

func (p *parser) parseShift() (Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := shiftOps[p.peek().kind]
		if !ok {
			return left, nil
		}
		p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, L: left, R: right}
	}
}

func (p *parser) parseAdditive() (Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.is(tokPlus) || p.is(tokMinus) {
		op := "+"
		if p.is(tokMinus) {
			op = "-"
		}
		p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, L: left, R: right}
	}
	return left, nil
}

func (p *parser) parseMultiplicative() (Expr, error) {
	left, err := p.parseExponent()
	if err != nil {
		return nil, err
	}
	for p.is(tokStar) || p.is(tokSlash) || p.is(tokPercent) {
		var op string
		switch p.peek().kind {
		case tokStar:
			op = "*"
		case tokSlash:
			op = "/"
		default:
			op = "%"
		}
		p.advance()
		right, err := p.parseExponent()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, L: left, R: right}
	}
	return left, nil
}

func (p *parser) parseExponent() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if p.is(tokStarStar) {
		p.advance()
		right, err := p.parseExponent() // right-associative
		if err != nil {
			return nil, err
		}
		return &BinaryExpr{Op: "**", L: left, R: right}, nil
	}
	return left, nil
}

var unaryOps = map[tokKind]string{
	tokPlus: "+", tokMinus: "-", tokNot: "!", tokTilde: "~",
}

func (p *parser) parseUnary() (Expr, error) {
	if op, ok := unaryOps[p.peek().kind]; ok {
		p.advance()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: op, X: x}, nil
	}
	if p.isKeyword("typeof") || p.isKeyword("void") || p.isKeyword("delete") {
		op := p.advance().text
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: op, X: x}, nil
	}
	if p.isKeyword("await") {
		p.advance()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &AwaitExpr{X: x}, nil
	}
	if p.isKeyword("yield") {
		p.advance()
		y := &YieldExpr{}
		delegate := false
		if p.is(tokStar) {
			p.advance()
			delegate = true
		}
		y.Delegate = delegate
		if !p.is(tokSemicolon) && !p.is(tokRParen) && !p.is(tokRBrace) && !p.is(tokRBracket) &&
			!p.is(tokComma) && !p.is(tokEOF) && !p.peek().nlBefore {
			x, err := p.parseAssign()
			if err != nil {
				return nil, err
			}
			y.X = x
		}
		return y, nil
	}
	if p.is(tokPlusPlus) || p.is(tokMinusMinus) {
		op := "++"
		if p.is(tokMinusMinus) {
			op = "--"
		}
		p.advance()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UpdateExpr{Op: op, X: x, Prefix: true}, nil
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() (Expr, error) {
	x, err := p.parseCallChain()
	if err != nil {
		return nil, err
	}
	if (p.is(tokPlusPlus) || p.is(tokMinusMinus)) && !p.peek().nlBefore {
		op := "++"
		if p.is(tokMinusMinus) {
			op = "--"
		}
		p.advance()
		return &UpdateExpr{Op: op, X: x, Prefix: false}, nil
	}
	return x, nil
}

// parseCallChain parses a primary expression followed by any run of
// member accesses, calls, and `new` — e.g. `new Foo().bar[0].baz()`.
func (p *parser) parseCallChain() (Expr, error) {
	var x Expr
	var err error
	if p.isKeyword("new") {
		x, err = p.parseNewExpr()
	} else {
		x, err = p.parsePrimary()
	}
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.is(tokDot):
			p.advance()
			name, err := p.expect(tokIdent, "a property name")
			if err != nil {
				if p.peek().kind == tokKeyword {
					name = p.advance()
				} else {
					return nil, err
				}
			}
			x = &MemberExpr{Obj: x, Prop: &Ident{Name: name.text}}
		case p.is(tokQuestionDot):
			p.advance()
			if p.is(tokLParen) {
				args, err := p.parseArgs()
				if err != nil {
					return nil, err
				}
				x = &CallExpr{Callee: x, Args: args, Optional: true}
				continue
			}
			if p.is(tokLBracket) {
				p.advance()
				prop, err := p.parseExpression()
				if err != nil {
					return nil, err
				}
				if _, err := p.expect(tokRBracket, "']'"); err != nil {
					return nil, err
				}
				x = &MemberExpr{Obj: x, Prop: prop, Computed: true, Optional: true}
				continue
			}
			name, err := p.expect(tokIdent, "a property name")
			if err != nil {
				return nil, err
			}
			x = &MemberExpr{Obj: x, Prop: &Ident{Name: name.text}, Optional: true}
		case p.is(tokLBracket):
			p.advance()
			prop, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(tokRBracket, "']'"); err != nil {
				return nil, err
			}
			x = &MemberExpr{Obj: x, Prop: prop, Computed: true}
		case p.is(tokLParen):
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			x = &CallExpr{Callee: x, Args: args}
		case p.is(tokTemplate):
			// tagged templates are not supported; surface as a parse error
			// rather than silently dropping the tag.
			return nil, p.errf("tagged template literals are not supported")
		default:
			return x, nil
		}
	}
}

func (p *parser) parseNewExpr() (Expr, error) {
	p.advance() // 'new'
	if p.is(tokDot) {
		return nil, p.errf("new.target is not supported")
	}
	var callee Expr
	var err error
	if p.isKeyword("new") {
		callee, err = p.parseNewExpr()
	} else {
		callee, err = p.parsePrimary()
	}
	if err != nil {
		return nil, err
	}
	for {
		if p.is(tokDot) {
			p.advance()
			name, err := p.expect(tokIdent, "a property name")
			if err != nil {
				return nil, err
			}
			callee = &MemberExpr{Obj: callee, Prop: &Ident{Name: name.text}}
			continue
		}
		if p.is(tokLBracket) {
			p.advance()
			prop, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(tokRBracket, "']'"); err != nil {
				return nil, err
			}
			callee = &MemberExpr{Obj: callee, Prop: prop, Computed: true}
			continue
		}
		break
	}
	var args []Expr
	if p.is(tokLParen) {
		args, err = p.parseArgs()
		if err != nil {
			return nil, err
		}
	}
	return &NewExpr{Callee: callee, Args: args}, nil
}

func (p *parser) parseArgs() ([]Expr, error) {
	if _, err := p.expect(tokLParen, "'('"); err != nil {
		return nil, err
	}
	var args []Expr
	for !p.is(tokRParen) {
		if p.is(tokDotDotDot) {
			p.advance()
			x, err := p.parseAssign()
			if err != nil {
				return nil, err
			}
			args = append(args, &SpreadExpr{X: x})
		} else {
			x, err := p.parseAssign()
			if err != nil {
				return nil, err
			}
			args = append(args, x)
		}
		if p.is(tokComma) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(tokRParen, "')'"); err != nil {
		return nil, err
	}
	return args, nil
}

// --- arrow functions ---

// tryParseArrow attempts to parse an arrow function starting at the
// current position, backtracking cleanly if the tokens don't form one.
// Arrow functions are the one place this grammar needs lookahead beyond
// a single token, since `(` begins both a parenthesized expression and
// an arrow parameter list.
func (p *parser) tryParseArrow() (Expr, bool, error) {
	start := p.pos
	isAsync := false
	if p.isKeyword("async") {
		nxt := p.peekAt(1)
		if (nxt.kind == tokIdent && p.peekAt(2).kind == tokArrow) || (nxt.kind == tokLParen && !nxt.nlBefore) {
			isAsync = true
			p.advance()
		}
	}

	if p.is(tokIdent) && p.peekAt(1).kind == tokArrow {
		name := p.advance().text
		p.advance() // '=>'
		fn, err := p.parseArrowBody([]Param{{Target: &Ident{Name: name}}}, isAsync)
		if err != nil {
			return nil, false, err
		}
		return fn, true, nil
	}

	if p.is(tokLParen) {
		saved := p.pos
		params, perr := p.parseParamList()
		ok := perr == nil
		if ok && p.is(tokArrow) {
			p.advance()
			fn, err := p.parseArrowBody(params, isAsync)
			if err != nil {
				return nil, false, err
			}
			return fn, true, nil
		}
		p.pos = saved
	}

	p.pos = start
	return nil, false, nil
}

func (p *parser) parseArrowBody(params []Param, isAsync bool) (*FuncLit, error) {
	fn := &FuncLit{Params: params, IsArrow: true, IsAsync: isAsync}
	if p.is(tokLBrace) {
		body, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		fn.Body = body
		return fn, nil
	}
	x, err := p.parseAssign()
	if err != nil {
		return nil, err
	}
	fn.Body = &ExprStmt{X: x}
	fn.ExprBody = true
	return fn, nil
}

// --- primary expressions ---

func (p *parser) parsePrimary() (Expr, error) {
	t := p.peek()
	switch t.kind {
	case tokNumber:
		p.advance()
		return &NumberLit{Value: t.num}, nil
	case tokBigInt:
		p.advance()
		return &BigIntLit{Text: t.text}, nil
	case tokString:
		p.advance()
		return &StringLit{Value: t.text}, nil
	case tokTemplate:
		p.advance()
		quasis, exprTexts := decodeTemplateParts(t.text)
		lit := &TemplateLit{Quasis: quasis}
		for _, et := range exprTexts {
			sub, err := Parse("(" + et + ")")
			if err != nil {
				return nil, err
			}
			if len(sub.Body) != 1 {
				return nil, p.errf("invalid template expression")
			}
			es, ok := sub.Body[0].(*ExprStmt)
			if !ok {
				return nil, p.errf("invalid template expression")
			}
			lit.Exprs = append(lit.Exprs, es.X)
		}
		return lit, nil
	case tokRegex:
		p.advance()
		pat, flags := t.text, ""
		for i := 0; i < len(t.text); i++ {
			if t.text[i] == 0 {
				pat, flags = t.text[:i], t.text[i+1:]
				break
			}
		}
		return &RegexLit{Pattern: pat, Flags: flags}, nil
	case tokIdent:
		p.advance()
		return &Ident{Name: t.text}, nil
	case tokLParen:
		p.advance()
		x, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
		return x, nil
	case tokLBracket:
		return p.parseArrayLiteralOrPattern()
	case tokLBrace:
		return p.parseObjectLiteralOrPattern()
	}
	if t.kind == tokKeyword {
		switch t.text {
		case "this":
			p.advance()
			return &ThisExpr{}, nil
		case "null", "undefined":
			p.advance()
			if t.text == "null" {
				return &NullLit{}, nil
			}
			return &Ident{Name: "undefined"}, nil
		case "true", "false":
			p.advance()
			return &BoolLit{Value: t.text == "true"}, nil
		case "function":
			p.advance()
			isGen := false
			if p.is(tokStar) {
				p.advance()
				isGen = true
			}
			name := ""
			if p.is(tokIdent) {
				name = p.advance().text
			}
			return p.parseFuncRest(name, false, false, isGen)
		case "async":
			if p.peekAt(1).kind == tokKeyword && p.peekAt(1).text == "function" {
				p.advance()
				p.advance()
				isGen := false
				if p.is(tokStar) {
					p.advance()
					isGen = true
				}
				name := ""
				if p.is(tokIdent) {
					name = p.advance().text
				}
				return p.parseFuncRest(name, false, true, isGen)
			}
		case "get", "set", "of", "static":
			// contextual keywords used as plain identifiers outside declarations.
			p.advance()
			return &Ident{Name: t.text}, nil
		}
	}
	return nil, p.errf("unexpected token")
}

func decodeTemplateParts(s string) (quasis, exprs []string) {
	pos := 0
	readInt := func() int {
		start := pos
		for pos < len(s) && s[pos] != 0 {
			pos++
		}
		n := 0
		fmt.Sscanf(s[start:pos], "%d", &n)
		pos++ // skip NUL
		return n
	}
	readStr := func() string {
		n := readInt()
		v := s[pos : pos+n]
		pos += n
		return v
	}
	nq := readInt()
	for i := 0; i < nq; i++ {
		quasis = append(quasis, readStr())
	}
	ne := readInt()
	for i := 0; i < ne; i++ {
		exprs = append(exprs, readStr())
	}
	return
}

// --- array/object literals, reused as destructuring patterns ---

func (p *parser) parseArrayLiteralOrPattern() (Expr, error) {
	if _, err := p.expect(tokLBracket, "'['"); err != nil {
		return nil, err
	}
	lit := &ArrayLit{}
	for !p.is(tokRBracket) {
		if p.is(tokComma) {
			p.advance()
			lit.Elements = append(lit.Elements, nil)
			continue
		}
		if p.is(tokDotDotDot) {
			p.advance()
			x, err := p.parseAssign()
			if err != nil {
				return nil, err
			}
			lit.Elements = append(lit.Elements, &SpreadExpr{X: x})
		} else {
			x, err := p.parseAssign()
			if err != nil {
				return nil, err
			}
			lit.Elements = append(lit.Elements, x)
		}
		if p.is(tokComma) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(tokRBracket, "']'"); err != nil {
		return nil, err
	}
	return lit, nil
}

func (p *parser) parseObjectLiteralOrPattern() (Expr, error) {
	if _, err := p.expect(tokLBrace, "'{'"); err != nil {
		return nil, err
	}
	lit := &ObjectLit{}
	for !p.is(tokRBrace) {
		if p.is(tokDotDotDot) {
			p.advance()
			x, err := p.parseAssign()
			if err != nil {
				return nil, err
			}
			lit.Props = append(lit.Props, ObjectProp{Spread: true, Value: x})
			if p.is(tokComma) {
				p.advance()
				continue
			}
			break
		}

		accessor := ""
		if (p.isKeyword("get") || p.isKeyword("set")) && !isPropTerminator(p.peekAt(1)) {
			accessor = p.advance().text
		}

		computed := false
		var key Expr
		if p.is(tokLBracket) {
			computed = true
			p.advance()
			k, err := p.parseAssign()
			if err != nil {
				return nil, err
			}
			key = k
			if _, err := p.expect(tokRBracket, "']'"); err != nil {
				return nil, err
			}
		} else if p.is(tokString) {
			key = &StringLit{Value: p.advance().text}
		} else if p.is(tokNumber) {
			key = &StringLit{Value: formatNumberKey(p.advance().num)}
		} else if p.is(tokIdent) || p.is(tokKeyword) {
			key = &Ident{Name: p.advance().text}
		} else {
			return nil, p.errf("expected a property key")
		}

		prop := ObjectProp{Key: key, Computed: computed, Kind: "init"}

		if accessor != "" {
			fn, err := p.parseFuncRest("", false, false, false)
			if err != nil {
				return nil, err
			}
			prop.Kind = accessor
			prop.Value = fn
		} else if p.is(tokLParen) {
			fn, err := p.parseFuncRest("", false, false, false)
			if err != nil {
				return nil, err
			}
			prop.Value = fn
		} else if p.is(tokColon) {
			p.advance()
			v, err := p.parseAssign()
			if err != nil {
				return nil, err
			}
			prop.Value = v
		} else {
			id, ok := key.(*Ident)
			if !ok {
				return nil, p.errf("expected ':' after property key")
			}
			prop.Shorthand = true
			var v Expr = &Ident{Name: id.Name}
			if p.is(tokAssign) {
				p.advance()
				def, err := p.parseAssign()
				if err != nil {
					return nil, err
				}
				v = &AssignExpr{Op: "=", Target: &Ident{Name: id.Name}, Value: def}
			}
			prop.Value = v
		}

		lit.Props = append(lit.Props, prop)
		if p.is(tokComma) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(tokRBrace, "'}'"); err != nil {
		return nil, err
	}
	return lit, nil
}

func isPropTerminator(t token) bool {
	switch t.kind {
	case tokColon, tokComma, tokRBrace, tokLParen:
		return true
	}
	return false
}

func formatNumberKey(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%g", v)
}
