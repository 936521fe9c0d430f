package xpath

import (
	xmlerrors "github.com/jacoelho/xmlkit/errors"
)

type tokKind int

const (
	tEOF tokKind = iota
	tSlash
	tSlashSlash
	tLParen
	tRParen
	tLBracket
	tRBracket
	tDot
	tDotDot
	tAt
	tComma
	tColonColon
	tPipe
	tPlus
	tMinus
	tStar
	tEq
	tNe
	tLt
	tLe
	tGt
	tGe
	tDollar
	tName   // NCName or QName (may contain ':')
	tString
	tNumber
)

type token struct {
	kind tokKind
	text string
	num  float64
}

// lexer tokenizes an XPath 1.0 expression. It does not decide whether
// a '*' or an NCName equal to "and"/"or"/"mod"/"div" is an operator:
// '*' is always a tStar token and those names are always tName tokens;
// the parser tells the two uses apart by grammar position.
type lexer struct {
	src      []rune
	pos      int
	lastKind tokKind
	haveLast bool
}

func newLexer(expr string) *lexer {
	return &lexer{src: []rune(expr)}
}

func (l *lexer) operandExpected() bool {
	if !l.haveLast {
		return true
	}
	switch l.lastKind {
	case tAt, tColonColon, tLParen, tLBracket, tComma,
		tSlash, tSlashSlash, tPipe, tPlus, tMinus, tStar,
		tEq, tNe, tLt, tLe, tGt, tGe:
		return true
	}
	return false
}

func (l *lexer) peekRune() (rune, bool) {
	if l.pos >= len(l.src) {
		return 0, false
	}
	return l.src[l.pos], true
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) && isXPathSpace(byte(l.src[l.pos])) {
		l.pos++
	}
}

func (l *lexer) next() (token, error) {
	l.skipSpace()
	if l.pos >= len(l.src) {
		return l.emit(token{kind: tEOF}), nil
	}
	r := l.src[l.pos]
	switch r {
	case '/':
		l.pos++
		if l.peek('/') {
			l.pos++
			return l.emit(token{kind: tSlashSlash}), nil
		}
		return l.emit(token{kind: tSlash}), nil
	case '(':
		l.pos++
		return l.emit(token{kind: tLParen}), nil
	case ')':
		l.pos++
		return l.emit(token{kind: tRParen}), nil
	case '[':
		l.pos++
		return l.emit(token{kind: tLBracket}), nil
	case ']':
		l.pos++
		return l.emit(token{kind: tRBracket}), nil
	case '@':
		l.pos++
		return l.emit(token{kind: tAt}), nil
	case ',':
		l.pos++
		return l.emit(token{kind: tComma}), nil
	case '|':
		l.pos++
		return l.emit(token{kind: tPipe}), nil
	case '+':
		l.pos++
		return l.emit(token{kind: tPlus}), nil
	case '-':
		l.pos++
		return l.emit(token{kind: tMinus}), nil
	case '=':
		l.pos++
		return l.emit(token{kind: tEq}), nil
	case '$':
		l.pos++
		return l.emit(token{kind: tDollar}), nil
	case '!':
		l.pos++
		if l.peek('=') {
			l.pos++
			return l.emit(token{kind: tNe}), nil
		}
		return token{}, xmlerrors.NewNotWellFormed(xmlerrors.UnexpectedToken, xmlerrors.Position{}, "expected '!=' in XPath expression")
	case '<':
		l.pos++
		if l.peek('=') {
			l.pos++
			return l.emit(token{kind: tLe}), nil
		}
		return l.emit(token{kind: tLt}), nil
	case '>':
		l.pos++
		if l.peek('=') {
			l.pos++
			return l.emit(token{kind: tGe}), nil
		}
		return l.emit(token{kind: tGt}), nil
	case ':':
		l.pos++
		if l.peek(':') {
			l.pos++
			return l.emit(token{kind: tColonColon}), nil
		}
		return token{}, xmlerrors.NewNotWellFormed(xmlerrors.UnexpectedToken, xmlerrors.Position{}, "unexpected ':' in XPath expression")
	case '.':
		l.pos++
		if l.peek('.') {
			l.pos++
			return l.emit(token{kind: tDotDot}), nil
		}
		if nr, ok := l.peekRune(); ok && isDigit(nr) {
			return l.emit(l.lexNumberFrom(".")), nil
		}
		return l.emit(token{kind: tDot}), nil
	case '*':
		l.pos++
		if l.operandExpectedBefore() {
			return l.emit(token{kind: tStar, text: "*"}), nil
		}
		return l.emit(token{kind: tStar}), nil
	case '\'', '"':
		return l.emit(l.lexString(r)), nil
	}
	if isDigit(r) {
		return l.emit(l.lexNumberFrom("")), nil
	}
	if isNameStart(r) {
		return l.emit(l.lexName()), nil
	}
	return token{}, xmlerrors.NewNotWellFormed(xmlerrors.UnexpectedToken, xmlerrors.Position{}, "unexpected character %q in XPath expression", string(r))
}

// operandExpectedBefore captures whether operand-context held before
// this token was consumed (used for '*' disambiguation, called after
// advancing past the rune but before emit() updates lastKind).
func (l *lexer) operandExpectedBefore() bool {
	return l.operandExpected()
}

func (l *lexer) emit(t token) token {
	l.lastKind = t.kind
	l.haveLast = true
	return t
}

func (l *lexer) peek(want rune) bool {
	r, ok := l.peekRune()
	return ok && r == want
}

func (l *lexer) lexString(quote rune) token {
	l.pos++ // opening quote
	start := l.pos
	for l.pos < len(l.src) && l.src[l.pos] != quote {
		l.pos++
	}
	s := string(l.src[start:l.pos])
	if l.pos < len(l.src) {
		l.pos++ // closing quote
	}
	return token{kind: tString, text: s}
}

func (l *lexer) lexNumberFrom(prefix string) token {
	start := l.pos
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.pos++
	}
	if l.pos < len(l.src) && l.src[l.pos] == '.' {
		l.pos++
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
	}
	lit := prefix + string(l.src[start:l.pos])
	return token{kind: tNumber, num: parseFloatOrZero(lit)}
}

func parseFloatOrZero(s string) float64 {
	var neg bool
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}
	var whole, frac float64
	var fracDiv float64 = 1
	seenDot := false
	for _, r := range s {
		if r == '.' {
			seenDot = true
			continue
		}
		d := float64(r - '0')
		if !seenDot {
			whole = whole*10 + d
		} else {
			fracDiv *= 10
			frac = frac*10 + d
		}
	}
	v := whole + frac/fracDiv
	if neg {
		v = -v
	}
	return v
}

// lexName reads an NCName or QName (NCName ':' NCName, or NCName ':*'
// handled by the parser noticing a following '*'). Operator names
// (and/or/div/mod) come back as ordinary tName tokens.
func (l *lexer) lexName() token {
	start := l.pos
	l.pos++
	for l.pos < len(l.src) && isNameChar(l.src[l.pos]) {
		l.pos++
	}
	if l.pos < len(l.src) && l.src[l.pos] == ':' && l.pos+1 < len(l.src) && l.src[l.pos+1] != ':' {
		l.pos++
		for l.pos < len(l.src) && isNameChar(l.src[l.pos]) {
			l.pos++
		}
	}
	return token{kind: tName, text: string(l.src[start:l.pos])}
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isNameStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r > 0x7F
}

func isNameChar(r rune) bool {
	return isNameStart(r) || isDigit(r) || r == '-' || r == '.'
}
