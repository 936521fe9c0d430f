package xpath

import (
	xmlerrors "github.com/jacoelho/xmlkit/errors"
)

var axisNames = map[string]bool{
	"child": true, "descendant": true, "descendant-or-self": true,
	"self": true, "parent": true, "ancestor": true, "ancestor-or-self": true,
	"following-sibling": true, "preceding-sibling": true,
	"attribute": true, "namespace": true,
}

type parser struct {
	lex  *lexer
	cur  token
	prev token
}

// Compile parses an XPath 1.0 expression string into an Expression
// tree, per spec.md §4.8.
func Compile(expr string) (*Expression, error) {
	p := &parser{lex: newLexer(expr)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.cur.kind != tEOF {
		return nil, xmlerrors.NewNotWellFormed(xmlerrors.UnexpectedToken, xmlerrors.Position{}, "unexpected trailing input in XPath expression %q", expr)
	}
	return &Expression{root: e, src: expr}, nil
}

func (p *parser) advance() error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	p.prev = p.cur
	p.cur = t
	return nil
}

func (p *parser) expect(k tokKind, what string) error {
	if p.cur.kind != k {
		return xmlerrors.NewNotWellFormed(xmlerrors.UnexpectedToken, xmlerrors.Position{}, "expected %s in XPath expression", what)
	}
	return p.advance()
}

// parseExpr == OrExpr, the grammar's top-level Expr production.
func (p *parser) parseExpr() (Expr, error) { return p.parseOr() }

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.cur.kind == tName && p.cur.text == "or" {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: "or", L: left, R: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.cur.kind == tName && p.cur.text == "and" {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: "and", L: left, R: right}
	}
	return left, nil
}

func (p *parser) parseEquality() (Expr, error) {
	left, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	for p.cur.kind == tEq || p.cur.kind == tNe {
		op := "="
		if p.cur.kind == tNe {
			op = "!="
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseRelational()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, L: left, R: right}
	}
	return left, nil
}

func (p *parser) parseRelational() (Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for {
		var op string
		switch p.cur.kind {
		case tLt:
			op = "<"
		case tLe:
			op = "<="
		case tGt:
			op = ">"
		case tGe:
			op = ">="
		default:
			return left, nil
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
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
	for p.cur.kind == tPlus || p.cur.kind == tMinus {
		op := "+"
		if p.cur.kind == tMinus {
			op = "-"
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, L: left, R: right}
	}
	return left, nil
}

func (p *parser) parseMultiplicative() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		var op string
		switch {
		case p.cur.kind == tStar:
			op = "*"
		case p.cur.kind == tName && p.cur.text == "div":
			op = "div"
		case p.cur.kind == tName && p.cur.text == "mod":
			op = "mod"
		default:
			return left, nil
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, L: left, R: right}
	}
}

func (p *parser) parseUnary() (Expr, error) {
	if p.cur.kind == tMinus {
		if err := p.advance(); err != nil {
			return nil, err
		}
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{X: x}, nil
	}
	return p.parseUnion()
}

func (p *parser) parseUnion() (Expr, error) {
	left, err := p.parsePath()
	if err != nil {
		return nil, err
	}
	if p.cur.kind != tPipe {
		return left, nil
	}
	parts := []Expr{left}
	for p.cur.kind == tPipe {
		if err := p.advance(); err != nil {
			return nil, err
		}
		next, err := p.parsePath()
		if err != nil {
			return nil, err
		}
		parts = append(parts, next)
	}
	return &UnionExpr{Parts: parts}, nil
}

// parsePath handles PathExpr: either a LocationPath, or a FilterExpr
// optionally followed by "/"/"//" and a relative location path.
func (p *parser) parsePath() (Expr, error) {
	if p.startsLocationPath() {
		return p.parseLocationPath()
	}
	primary, err := p.parsePrimaryWithPredicates()
	if err != nil {
		return nil, err
	}
	if p.cur.kind == tSlash || p.cur.kind == tSlashSlash {
		sep := "/"
		if p.cur.kind == tSlashSlash {
			sep = "//"
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		steps, err := p.parseStepSequence()
		if err != nil {
			return nil, err
		}
		return &PathExpr{Base: primary, Sep: sep, RestIsPath: true, Rest: steps}, nil
	}
	return primary, nil
}

func (p *parser) startsLocationPath() bool {
	switch p.cur.kind {
	case tSlash, tSlashSlash, tAt, tDot, tDotDot, tStar:
		return true
	case tName:
		// A name followed by '(' is a function call, unless it is a
		// node-type test.
		switch p.cur.text {
		case "node", "text", "comment", "processing-instruction":
			return true
		}
		savedLex := *p.lex
		savedCur, savedPrev := p.cur, p.prev
		err := p.advance()
		isCall := err == nil && p.cur.kind == tLParen
		*p.lex = savedLex
		p.cur, p.prev = savedCur, savedPrev
		return !isCall
	}
	return false
}

func (p *parser) parseLocationPath() (Expr, error) {
	lp := &LocationPath{}
	if p.cur.kind == tSlash || p.cur.kind == tSlashSlash {
		lp.Absolute = true
		if p.cur.kind == tSlashSlash {
			lp.FirstIsDOS = true
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		if !p.startsStep() {
			return lp, nil // bare "/"
		}
	}
	steps, err := p.parseStepSequence()
	if err != nil {
		return nil, err
	}
	lp.Steps = steps
	return lp, nil
}

func (p *parser) startsStep() bool {
	switch p.cur.kind {
	case tAt, tDot, tDotDot, tStar, tName:
		return true
	}
	return false
}

func (p *parser) parseStepSequence() ([]*Step, error) {
	var steps []*Step
	first, err := p.parseStep()
	if err != nil {
		return nil, err
	}
	steps = append(steps, first)
	for p.cur.kind == tSlash || p.cur.kind == tSlashSlash {
		if p.cur.kind == tSlashSlash {
			steps = append(steps, &Step{Axis: "descendant-or-self", Test: NodeTest{kind: testNode}})
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		next, err := p.parseStep()
		if err != nil {
			return nil, err
		}
		steps = append(steps, next)
	}
	return steps, nil
}

func (p *parser) parseStep() (*Step, error) {
	if p.cur.kind == tDot {
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &Step{Axis: "self", Test: NodeTest{kind: testNode}}, nil
	}
	if p.cur.kind == tDotDot {
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &Step{Axis: "parent", Test: NodeTest{kind: testNode}}, nil
	}
	axis := "child"
	if p.cur.kind == tAt {
		axis = "attribute"
		if err := p.advance(); err != nil {
			return nil, err
		}
	} else if p.cur.kind == tName && axisNames[p.cur.text] {
		savedLex := *p.lex
		savedCur, savedPrev := p.cur, p.prev
		axisName := p.cur.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.cur.kind == tColonColon {
			axis = axisName
			if err := p.advance(); err != nil {
				return nil, err
			}
		} else {
			*p.lex = savedLex
			p.cur, p.prev = savedCur, savedPrev
		}
	}
	test, err := p.parseNodeTest()
	if err != nil {
		return nil, err
	}
	var preds []Expr
	for p.cur.kind == tLBracket {
		if err := p.advance(); err != nil {
			return nil, err
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tRBracket, "']'"); err != nil {
			return nil, err
		}
		preds = append(preds, e)
	}
	return &Step{Axis: axis, Test: test, Preds: preds}, nil
}

func (p *parser) parseNodeTest() (NodeTest, error) {
	if p.cur.kind == tStar {
		if err := p.advance(); err != nil {
			return NodeTest{}, err
		}
		return NodeTest{kind: testStar}, nil
	}
	if p.cur.kind != tName {
		return NodeTest{}, xmlerrors.NewNotWellFormed(xmlerrors.UnexpectedToken, xmlerrors.Position{}, "expected a node test in XPath expression")
	}
	name := p.cur.text
	if err := p.advance(); err != nil {
		return NodeTest{}, err
	}
	if p.cur.kind == tLParen {
		return p.parseNodeTypeTest(name)
	}
	if idx := indexByte(name, ':'); idx >= 0 {
		prefix, local := name[:idx], name[idx+1:]
		if local == "" && p.cur.kind == tStar {
			if err := p.advance(); err != nil {
				return NodeTest{}, err
			}
			return NodeTest{kind: testPrefixStar, prefix: prefix}, nil
		}
		return NodeTest{kind: testName, prefix: prefix, name: local}, nil
	}
	return NodeTest{kind: testName, name: name}, nil
}

func (p *parser) parseNodeTypeTest(name string) (NodeTest, error) {
	if err := p.advance(); err != nil { // consume '('
		return NodeTest{}, err
	}
	switch name {
	case "node":
		if err := p.expect(tRParen, "')'"); err != nil {
			return NodeTest{}, err
		}
		return NodeTest{kind: testNode}, nil
	case "text":
		if err := p.expect(tRParen, "')'"); err != nil {
			return NodeTest{}, err
		}
		return NodeTest{kind: testText}, nil
	case "comment":
		if err := p.expect(tRParen, "')'"); err != nil {
			return NodeTest{}, err
		}
		return NodeTest{kind: testComment}, nil
	case "processing-instruction":
		nt := NodeTest{kind: testPI}
		if p.cur.kind == tString {
			nt.piTarget = p.cur.text
			nt.hasPI = true
			if err := p.advance(); err != nil {
				return NodeTest{}, err
			}
		}
		if err := p.expect(tRParen, "')'"); err != nil {
			return NodeTest{}, err
		}
		return nt, nil
	default:
		return NodeTest{}, xmlerrors.NewNotWellFormed(xmlerrors.UnexpectedToken, xmlerrors.Position{}, "unknown node type test %q", name)
	}
}

// parsePrimaryWithPredicates parses a PrimaryExpr followed by zero or
// more predicates (the FilterExpr production).
func (p *parser) parsePrimaryWithPredicates() (Expr, error) {
	primary, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if p.cur.kind != tLBracket {
		return primary, nil
	}
	var preds []Expr
	for p.cur.kind == tLBracket {
		if err := p.advance(); err != nil {
			return nil, err
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tRBracket, "']'"); err != nil {
			return nil, err
		}
		preds = append(preds, e)
	}
	return &FilterExprNode{Primary: primary, Preds: preds}, nil
}

func (p *parser) parsePrimary() (Expr, error) {
	switch p.cur.kind {
	case tDollar:
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.cur.kind != tName {
			return nil, xmlerrors.NewNotWellFormed(xmlerrors.UnexpectedToken, xmlerrors.Position{}, "expected a variable name after '$'")
		}
		name := p.cur.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &VarRef{Name: name}, nil
	case tLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tRParen, "')'"); err != nil {
			return nil, err
		}
		return e, nil
	case tString:
		s := p.cur.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &StringLit{Val: s}, nil
	case tNumber:
		n := p.cur.num
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &NumberLit{Val: n}, nil
	case tName:
		return p.parseFunctionCall()
	}
	return nil, xmlerrors.NewNotWellFormed(xmlerrors.UnexpectedToken, xmlerrors.Position{}, "unexpected token in XPath expression")
}

func (p *parser) parseFunctionCall() (Expr, error) {
	name := p.cur.text
	if err := p.advance(); err != nil {
		return nil, err
	}
	if err := p.expect(tLParen, "'(' after function name"); err != nil {
		return nil, err
	}
	var args []Expr
	if p.cur.kind != tRParen {
		for {
			a, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, a)
			if p.cur.kind != tComma {
				break
			}
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
	}
	if err := p.expect(tRParen, "')'"); err != nil {
		return nil, err
	}
	return &FuncCall{Name: name, Args: args}, nil
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}
