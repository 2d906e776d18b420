package cssselect

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseSelectorList parses a comma-separated group of complex selectors.
// It returns *SyntaxError for malformed input and *UnsupportedSelectorError
// for syntactically valid selectors outside the supported grammar subset;
// neither is ever swallowed into a zero-match result.
func ParseSelectorList(s string) (*SelectorList, error) {
	p := &parser{raw: s, runes: []rune(s), toks: tokenize(s)}
	list, err := p.parseSelectorList(tokEOF, false)
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokEOF {
		return nil, &SyntaxError{Selector: s, Reason: "unexpected trailing input"}
	}
	return list, nil
}

type parser struct {
	raw   string
	runes []rune
	toks  []token
	pos   int
}

func (p *parser) peek() token {
	if p.pos >= len(p.toks) {
		return token{kind: tokEOF}
	}
	return p.toks[p.pos]
}

func (p *parser) advance() token {
	t := p.peek()
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) skipWhitespace() {
	for p.peek().kind == tokWhitespace {
		p.advance()
	}
}

func (p *parser) syntaxErr(reason string) error {
	return &SyntaxError{Selector: p.raw, Reason: reason}
}

func (p *parser) unsupportedErr(reason string) error {
	return &UnsupportedSelectorError{Selector: p.raw, Reason: reason}
}

// parseSelectorList parses selectors separated by commas, stopping when
// it hits stopAt (tokEOF for the top level, tokRParen inside a
// functional pseudo-class argument). relative allows each complex
// selector to open with a bare combinator glyph (":has()" arguments
// only); every other caller passes false.
func (p *parser) parseSelectorList(stopAt tokKind, relative bool) (*SelectorList, error) {
	list := &SelectorList{}
	for {
		p.skipWhitespace()
		cs, err := p.parseComplexSelector(relative)
		if err != nil {
			return nil, err
		}
		list.Selectors = append(list.Selectors, cs)
		p.skipWhitespace()
		if p.peek().kind == tokComma {
			p.advance()
			continue
		}
		break
	}
	if stopAt != tokEOF && p.peek().kind != stopAt {
		return nil, p.syntaxErr("expected closing parenthesis")
	}
	return list, nil
}

func (p *parser) parseComplexSelector(relative bool) (*ComplexSelector, error) {
	var leading *Combinator
	if relative {
		p.skipWhitespace()
		var comb Combinator
		found := true
		switch p.peek().kind {
		case tokGT:
			comb = CombinatorChild
		case tokPlus:
			comb = CombinatorAdjacentSibling
		case tokTilde:
			comb = CombinatorGeneralSibling
		default:
			found = false
		}
		if found {
			p.advance()
			p.skipWhitespace()
			leading = &comb
		}
	}
	first, err := p.parseCompound()
	if err != nil {
		return nil, err
	}
	cs := &ComplexSelector{Compounds: []*CompoundSelector{first}, LeadingCombinator: leading}
	for {
		comb, more, err := p.parseCombinator()
		if err != nil {
			return nil, err
		}
		if !more {
			break
		}
		next, err := p.parseCompound()
		if err != nil {
			return nil, err
		}
		cs.Compounds = append(cs.Compounds, next)
		cs.Combinators = append(cs.Combinators, comb)
	}
	return cs, nil
}

func startsCompound(t token) bool {
	switch t.kind {
	case tokIdent, tokStar, tokHash, tokDot, tokColon, tokLBracket:
		return true
	}
	return false
}

// parseCombinator consumes whitespace and an optional explicit
// combinator glyph between two compounds, reporting whether another
// compound follows.
func (p *parser) parseCombinator() (Combinator, bool, error) {
	hadSpace := false
	for p.peek().kind == tokWhitespace {
		p.advance()
		hadSpace = true
	}
	switch p.peek().kind {
	case tokGT:
		p.advance()
		p.skipWhitespace()
		if !startsCompound(p.peek()) {
			return 0, false, p.syntaxErr("expected a selector after '>'")
		}
		return CombinatorChild, true, nil
	case tokPlus:
		p.advance()
		p.skipWhitespace()
		if !startsCompound(p.peek()) {
			return 0, false, p.syntaxErr("expected a selector after '+'")
		}
		return CombinatorAdjacentSibling, true, nil
	case tokTilde:
		p.advance()
		p.skipWhitespace()
		if !startsCompound(p.peek()) {
			return 0, false, p.syntaxErr("expected a selector after '~'")
		}
		return CombinatorGeneralSibling, true, nil
	default:
		if hadSpace && startsCompound(p.peek()) {
			return CombinatorDescendant, true, nil
		}
		return 0, false, nil
	}
}

func (p *parser) parseCompound() (*CompoundSelector, error) {
	comp := &CompoundSelector{}
	any := false
loop:
	for {
		t := p.peek()
		switch t.kind {
		case tokStar:
			p.advance()
			comp.Universal = true
			any = true
		case tokIdent:
			p.advance()
			if comp.Type != nil {
				return nil, p.syntaxErr("unexpected second type selector")
			}
			comp.Type = &TypeSelector{LocalName: strings.ToLower(t.text)}
			any = true
		case tokHash:
			p.advance()
			if t.text == "" {
				return nil, p.syntaxErr("empty id selector")
			}
			comp.ID = t.text
			any = true
		case tokDot:
			p.advance()
			nt := p.advance()
			if nt.kind != tokIdent {
				return nil, p.syntaxErr("expected a class name after '.'")
			}
			comp.Classes = append(comp.Classes, nt.text)
			any = true
		case tokLBracket:
			attr, err := p.parseAttribute()
			if err != nil {
				return nil, err
			}
			comp.Attrs = append(comp.Attrs, attr)
			any = true
		case tokColon:
			pc, err := p.parsePseudoClass()
			if err != nil {
				return nil, err
			}
			comp.PseudoClasses = append(comp.PseudoClasses, pc)
			any = true
		default:
			break loop
		}
	}
	if !any {
		return nil, p.syntaxErr("expected a selector")
	}
	return comp, nil
}

func (p *parser) parseAttribute() (*AttributeMatcher, error) {
	p.advance() // '['
	p.skipWhitespace()
	name := p.advance()
	if name.kind != tokIdent {
		return nil, p.syntaxErr("expected an attribute name")
	}
	m := &AttributeMatcher{Name: strings.ToLower(name.text)}
	p.skipWhitespace()

	t := p.peek()
	switch {
	case t.kind == tokRBracket:
		m.Op = AttrExists
	case t.kind == tokEquals:
		p.advance()
		m.Op = AttrEquals
	case t.kind == tokOp && t.text == "~=":
		p.advance()
		m.Op = AttrIncludes
	case t.kind == tokOp && t.text == "|=":
		p.advance()
		m.Op = AttrDashMatch
	case t.kind == tokOp && t.text == "^=":
		p.advance()
		m.Op = AttrPrefix
	case t.kind == tokOp && t.text == "$=":
		p.advance()
		m.Op = AttrSuffix
	case t.kind == tokStar:
		p.advance()
		if p.peek().kind != tokEquals {
			return nil, p.unsupportedErr("'*' in an attribute selector must be followed by '='")
		}
		p.advance()
		m.Op = AttrSubstring
	default:
		return nil, p.unsupportedErr(fmt.Sprintf("unsupported attribute operator near %q", t.text))
	}

	if m.Op != AttrExists {
		p.skipWhitespace()
		v := p.advance()
		switch v.kind {
		case tokString, tokIdent:
			m.Value = v.text
		default:
			return nil, p.syntaxErr("expected an attribute value")
		}
	}

	p.skipWhitespace()
	if p.peek().kind == tokIdent && (p.peek().text == "i" || p.peek().text == "I") {
		m.CaseInsensitive = true
		p.advance()
		p.skipWhitespace()
	} else if p.peek().kind == tokIdent && (p.peek().text == "s" || p.peek().text == "S") {
		p.advance()
		p.skipWhitespace()
	}

	if p.peek().kind != tokRBracket {
		return nil, p.syntaxErr("expected ']'")
	}
	p.advance()
	return m, nil
}

func (p *parser) parsePseudoClass() (*PseudoClassSelector, error) {
	p.advance() // ':'
	if p.peek().kind == tokColon {
		return nil, p.unsupportedErr("pseudo-elements are not supported")
	}
	nameTok := p.advance()
	if nameTok.kind != tokIdent {
		return nil, p.syntaxErr("expected a pseudo-class name after ':'")
	}
	name := strings.ToLower(nameTok.text)

	if p.peek().kind != tokLParen {
		if !supportedSimplePseudoClasses[name] {
			return nil, p.unsupportedErr(fmt.Sprintf("unsupported pseudo-class ':%s'", name))
		}
		return &PseudoClassSelector{Name: name}, nil
	}

	if !supportedFunctionalPseudoClasses[name] {
		return nil, p.unsupportedErr(fmt.Sprintf("unsupported pseudo-class ':%s()'", name))
	}
	p.advance() // '('

	pc := &PseudoClassSelector{Name: name}
	switch name {
	case "not", "is", "where", "has":
		p.skipWhitespace()
		list, err := p.parseSelectorList(tokRParen, name == "has")
		if err != nil {
			return nil, err
		}
		pc.Nested = list.Selectors
	default: // nth-child, nth-last-child, nth-of-type, nth-last-of-type
		start := p.pos
		for p.peek().kind != tokRParen && p.peek().kind != tokEOF {
			p.advance()
		}
		raw := rawBetween(p.runes, p.toks, start, p.pos)
		anb, err := parseAnPlusB(strings.TrimSpace(raw))
		if err != nil {
			return nil, p.unsupportedErr(err.Error())
		}
		pc.AnB = anb
	}

	if p.peek().kind != tokRParen {
		return nil, p.syntaxErr("expected ')'")
	}
	p.advance()
	return pc, nil
}

// parseAnPlusB parses the An+B micro-syntax: "odd", "even", "<b>",
// "<a>n", "<a>n+<b>", "<a>n-<b>", "-n+<b>", "n+<b>", etc. (spaces
// inside the expression are removed before parsing).
func parseAnPlusB(s string) (*AnPlusB, error) {
	s = strings.ToLower(strings.ReplaceAll(s, " ", ""))
	switch s {
	case "odd":
		return &AnPlusB{A: 2, B: 1}, nil
	case "even":
		return &AnPlusB{A: 2, B: 0}, nil
	case "":
		return nil, fmt.Errorf("empty An+B expression")
	}

	nIdx := strings.IndexByte(s, 'n')
	if nIdx < 0 {
		b, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("invalid An+B expression %q", s)
		}
		return &AnPlusB{A: 0, B: b}, nil
	}

	aPart := s[:nIdx]
	var a int
	switch aPart {
	case "", "+":
		a = 1
	case "-":
		a = -1
	default:
		v, err := strconv.Atoi(aPart)
		if err != nil {
			return nil, fmt.Errorf("invalid An+B expression %q", s)
		}
		a = v
	}

	rest := s[nIdx+1:]
	b := 0
	if rest != "" {
		if !(strings.HasPrefix(rest, "+") || strings.HasPrefix(rest, "-")) {
			return nil, fmt.Errorf("invalid An+B expression %q", s)
		}
		v, err := strconv.Atoi(rest)
		if err != nil {
			return nil, fmt.Errorf("invalid An+B expression %q", s)
		}
		b = v
	}
	return &AnPlusB{A: a, B: b}, nil
}
