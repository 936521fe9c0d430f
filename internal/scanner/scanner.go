package scanner

import (
	"io"
	"strings"

	xmlerrors "github.com/jacoelho/xmlkit/errors"
	"github.com/jacoelho/xmlkit/internal/charclass"
	"github.com/jacoelho/xmlkit/internal/source"
)

// Scanner turns the code-point stream from a source.Stack into markup
// and content tokens. It holds no state beyond a one-token pushback
// slot; mode selection (markup vs. content) is driven entirely by the
// caller, matching the grammar context in spec.md §4.2.
type Scanner struct {
	src    *source.Stack
	unread *Token
}

// New returns a Scanner reading from src.
func New(src *source.Stack) *Scanner {
	return &Scanner{src: src}
}

// UnreadToken pushes tok back so the next NextMarkupToken or
// NextContentToken call returns it again. Only one token of lookahead
// is supported.
func (s *Scanner) UnreadToken(tok Token) {
	s.unread = &tok
}

func (s *Scanner) pos() xmlerrors.Position {
	return s.src.Position()
}

func (s *Scanner) read() (rune, error) {
	return s.src.Next()
}

func (s *Scanner) unreadRune(r rune) {
	s.src.Retract(r)
}

func (s *Scanner) eof(err error) bool {
	return err == io.EOF
}

// NextMarkupToken scans one token in markup context: prolog, DOCTYPE
// internal subset, tag headers, and declarations.
func (s *Scanner) NextMarkupToken() (Token, error) {
	if s.unread != nil {
		t := *s.unread
		s.unread = nil
		return t, nil
	}
	pos := s.pos()
	r, err := s.read()
	if s.eof(err) {
		return Token{Kind: KindEOF, Pos: pos}, nil
	}
	if err != nil {
		return Token{}, err
	}

	switch {
	case charclass.IsSpace(r):
		s.unreadRune(r)
		return s.scanSpace(pos)
	case r == '<':
		return s.scanMarkupLT(pos)
	case r == '%':
		next, err := s.read()
		if err == nil {
			s.unreadRune(next)
		}
		if err != nil || !charclass.IsNameStartChar(next) {
			// A '%' not followed by a name, as in "<!ENTITY % name", is punctuation.
			return Token{Kind: KindPunct, Rune: r, Pos: pos}, nil
		}
		return s.scanPEReference(pos)
	case r == '\'' || r == '"':
		return s.scanString(pos, r)
	case charclass.IsNameStartChar(r):
		s.unreadRune(r)
		return s.scanNameOrNMToken(pos)
	case charclass.IsNameChar(r):
		s.unreadRune(r)
		return s.scanNameOrNMToken(pos)
	default:
		return Token{Kind: KindPunct, Rune: r, Pos: pos}, nil
	}
}

func (s *Scanner) scanSpace(pos xmlerrors.Position) (Token, error) {
	var b strings.Builder
	for {
		r, err := s.read()
		if s.eof(err) {
			break
		}
		if err != nil {
			return Token{}, err
		}
		if !charclass.IsSpace(r) {
			s.unreadRune(r)
			break
		}
		b.WriteRune(r)
	}
	return Token{Kind: KindSpace, Text: b.String(), Pos: pos}, nil
}

func (s *Scanner) scanMarkupLT(pos xmlerrors.Position) (Token, error) {
	r, err := s.read()
	if s.eof(err) {
		return Token{}, xmlerrors.NewNotWellFormed(xmlerrors.UnexpectedEOF, pos, "unexpected end of input after '<'")
	}
	if err != nil {
		return Token{}, err
	}
	switch r {
	case '/':
		return Token{Kind: KindETag, Pos: pos}, nil
	case '?':
		return s.scanPI(pos)
	case '!':
		return s.scanBang(pos)
	default:
		s.unreadRune(r)
		return Token{Kind: KindSTag, Pos: pos}, nil
	}
}

func (s *Scanner) scanBang(pos xmlerrors.Position) (Token, error) {
	r, err := s.read()
	if err != nil {
		return Token{}, wrapEOF(err, pos)
	}
	switch {
	case r == '-':
		r2, err := s.read()
		if err != nil || r2 != '-' {
			return Token{}, xmlerrors.NewNotWellFormed(xmlerrors.UnexpectedToken, pos, "expected '--' to start a comment")
		}
		return s.scanComment(pos)
	case r == '[':
		return Token{Kind: KindIncludeIgnore, Pos: pos}, nil
	case charclass.IsNameStartChar(r):
		s.unreadRune(r)
		name, err := s.readNameRunes()
		if err != nil {
			return Token{}, err
		}
		switch name {
		case "DOCTYPE":
			return Token{Kind: KindDocType, Pos: pos}, nil
		case "ELEMENT":
			return Token{Kind: KindElementDecl, Pos: pos}, nil
		case "ATTLIST":
			return Token{Kind: KindAttListDecl, Pos: pos}, nil
		case "ENTITY":
			return Token{Kind: KindEntityDecl, Pos: pos}, nil
		case "NOTATION":
			return Token{Kind: KindNotationDecl, Pos: pos}, nil
		default:
			return Token{}, xmlerrors.NewNotWellFormed(xmlerrors.UnexpectedToken, pos, "unknown markup declaration %q", name)
		}
	default:
		return Token{}, xmlerrors.NewNotWellFormed(xmlerrors.UnexpectedToken, pos, "unexpected character after '<!'")
	}
}

func (s *Scanner) scanComment(pos xmlerrors.Position) (Token, error) {
	var b strings.Builder
	for {
		r, err := s.read()
		if err != nil {
			return Token{}, wrapEOF(err, pos)
		}
		if r == '-' {
			r2, err := s.read()
			if err != nil {
				return Token{}, wrapEOF(err, pos)
			}
			if r2 == '-' {
				r3, err := s.read()
				if err != nil {
					return Token{}, wrapEOF(err, pos)
				}
				if r3 == '>' {
					return Token{Kind: KindComment, Text: b.String(), Pos: pos}, nil
				}
				return Token{}, xmlerrors.NewNotWellFormed(xmlerrors.UnexpectedToken, s.pos(), "'--' is not allowed inside a comment")
			}
			b.WriteRune(r)
			s.unreadRune(r2)
			continue
		}
		b.WriteRune(r)
	}
}

func (s *Scanner) scanPI(pos xmlerrors.Position) (Token, error) {
	target, err := s.readNameRunes()
	if err != nil {
		return Token{}, err
	}
	if isXMLReserved(target) && !strings.EqualFold(target, "xml") {
		return Token{}, xmlerrors.NewNotWellFormed(xmlerrors.UnexpectedToken, pos, "PI target %q matches the reserved (X|x)(M|m)(L|l) pattern", target)
	}
	var b strings.Builder
	sawSpace := false
	for {
		r, err := s.read()
		if err != nil {
			return Token{}, wrapEOF(err, pos)
		}
		if r == '?' {
			r2, err := s.read()
			if err != nil {
				return Token{}, wrapEOF(err, pos)
			}
			if r2 == '>' {
				break
			}
			b.WriteRune(r)
			s.unreadRune(r2)
			continue
		}
		if !sawSpace && charclass.IsSpace(r) {
			sawSpace = true
			continue
		}
		sawSpace = true
		b.WriteRune(r)
	}
	if strings.EqualFold(target, "xml") {
		return Token{Kind: KindXMLDecl, Target: target, Text: b.String(), Pos: pos}, nil
	}
	return Token{Kind: KindPI, Target: target, Text: b.String(), Pos: pos}, nil
}

func isXMLReserved(name string) bool {
	if len(name) != 3 {
		return false
	}
	return eqByteFold(name[0], 'x') && eqByteFold(name[1], 'm') && eqByteFold(name[2], 'l')
}

func eqByteFold(b byte, lower byte) bool {
	if b >= 'A' && b <= 'Z' {
		b += 'a' - 'A'
	}
	return b == lower
}

func (s *Scanner) scanPEReference(pos xmlerrors.Position) (Token, error) {
	name, err := s.readNameRunes()
	if err != nil {
		return Token{}, err
	}
	r, err := s.read()
	if err != nil || r != ';' {
		return Token{}, xmlerrors.NewNotWellFormed(xmlerrors.UnexpectedToken, s.pos(), "parameter-entity reference %%%s is missing its terminating ';'", name)
	}
	return Token{Kind: KindPEReference, Text: name, Pos: pos}, nil
}

func (s *Scanner) scanString(pos xmlerrors.Position, quote rune) (Token, error) {
	var b strings.Builder
	for {
		r, err := s.read()
		if err != nil {
			return Token{}, wrapEOF(err, pos)
		}
		if r == quote {
			return Token{Kind: KindString, Text: b.String(), Quote: quote, Pos: pos}, nil
		}
		b.WriteRune(r)
	}
}

// PEResolver looks up a parameter entity's declared replacement text
// by name, for EntityValue-literal expansion at declaration time
// (spec.md §4.3); ok is false when the name is undeclared.
type PEResolver func(name string) (value string, ok bool)

// NextEntityValueToken is like NextMarkupToken, except a quoted
// literal is scanned as an EntityValue: parameter-entity references
// (%name;) found inside it are recognized and expanded against
// resolve as they are scanned, recursively expanding any further
// %name; in the substituted text. General-entity references (&name;)
// and character references are left untouched in the returned text —
// those resolve lazily when the entity is itself referenced.
func (s *Scanner) NextEntityValueToken(resolve PEResolver) (Token, error) {
	if s.unread != nil {
		t := *s.unread
		s.unread = nil
		return t, nil
	}
	pos := s.pos()
	r, err := s.read()
	if s.eof(err) {
		return Token{Kind: KindEOF, Pos: pos}, nil
	}
	if err != nil {
		return Token{}, err
	}
	if r == '\'' || r == '"' {
		return s.scanEntityValueString(pos, r, resolve)
	}
	s.unreadRune(r)
	return s.NextMarkupToken()
}

func (s *Scanner) scanEntityValueString(pos xmlerrors.Position, quote rune, resolve PEResolver) (Token, error) {
	var b strings.Builder
	for {
		r, err := s.read()
		if err != nil {
			return Token{}, wrapEOF(err, pos)
		}
		if r == quote {
			return Token{Kind: KindString, Text: b.String(), Quote: quote, Pos: pos}, nil
		}
		if r != '%' {
			b.WriteRune(r)
			continue
		}
		name, err := s.readNameRunes()
		if err != nil {
			return Token{}, err
		}
		semi, err := s.read()
		if err != nil || semi != ';' {
			return Token{}, xmlerrors.NewNotWellFormed(xmlerrors.UnexpectedToken, s.pos(), "parameter-entity reference %%%s; is missing its terminating ';'", name)
		}
		repl, ok := resolve(name)
		if !ok {
			return Token{}, xmlerrors.NewNotWellFormed(xmlerrors.UndefinedParameterEntity, pos, "parameter entity %%%s; is not declared", name)
		}
		expanded, err := expandPEString(repl, resolve, 1)
		if err != nil {
			return Token{}, err
		}
		b.WriteString(expanded)
	}
}

// expandPEString recursively expands %name; parameter-entity
// references inside s, for the replacement text of a parameter entity
// referenced from within another EntityValue literal.
func expandPEString(s string, resolve PEResolver, depth int) (string, error) {
	if depth > 20 {
		return "", xmlerrors.NewNotWellFormed(xmlerrors.EntityRecursion, xmlerrors.Position{}, "parameter entity expansion exceeds the configured depth limit")
	}
	runes := []rune(s)
	var b strings.Builder
	for i := 0; i < len(runes); i++ {
		if runes[i] != '%' {
			b.WriteRune(runes[i])
			continue
		}
		j := i + 1
		for j < len(runes) && runes[j] != ';' {
			j++
		}
		if j >= len(runes) {
			b.WriteRune(runes[i])
			continue
		}
		name := string(runes[i+1 : j])
		repl, ok := resolve(name)
		if !ok {
			return "", xmlerrors.NewNotWellFormed(xmlerrors.UndefinedParameterEntity, xmlerrors.Position{}, "parameter entity %%%s; is not declared", name)
		}
		expanded, err := expandPEString(repl, resolve, depth+1)
		if err != nil {
			return "", err
		}
		b.WriteString(expanded)
		i = j
	}
	return b.String(), nil
}

func (s *Scanner) scanNameOrNMToken(pos xmlerrors.Position) (Token, error) {
	first, err := s.read()
	if err != nil {
		return Token{}, wrapEOF(err, pos)
	}
	isName := charclass.IsNameStartChar(first)
	var b strings.Builder
	b.WriteRune(first)
	for {
		r, err := s.read()
		if s.eof(err) {
			break
		}
		if err != nil {
			return Token{}, err
		}
		if !charclass.IsNameChar(r) {
			s.unreadRune(r)
			break
		}
		b.WriteRune(r)
	}
	if isName {
		return Token{Kind: KindName, Text: b.String(), Pos: pos}, nil
	}
	return Token{Kind: KindNMToken, Text: b.String(), Pos: pos}, nil
}

// readNameRunes reads a bare Name production without wrapping it in a
// Token, for use inside larger constructs (PI targets, PE references,
// declaration keywords).
func (s *Scanner) readNameRunes() (string, error) {
	pos := s.pos()
	r, err := s.read()
	if err != nil {
		return "", wrapEOF(err, pos)
	}
	if !charclass.IsNameStartChar(r) {
		return "", xmlerrors.NewNotWellFormed(xmlerrors.UnexpectedToken, pos, "expected a name")
	}
	var b strings.Builder
	b.WriteRune(r)
	for {
		r, err := s.read()
		if s.eof(err) {
			break
		}
		if err != nil {
			return "", err
		}
		if !charclass.IsNameChar(r) {
			s.unreadRune(r)
			break
		}
		b.WriteRune(r)
	}
	return b.String(), nil
}

func wrapEOF(err error, pos xmlerrors.Position) error {
	if err == io.EOF {
		return xmlerrors.NewNotWellFormed(xmlerrors.UnexpectedEOF, pos, "unexpected end of input")
	}
	return err
}

// NextContentToken scans one token in element-content context: text
// runs, child tags, references, comments, PIs, and CDATA sections.
func (s *Scanner) NextContentToken() (Token, error) {
	if s.unread != nil {
		t := *s.unread
		s.unread = nil
		return t, nil
	}
	pos := s.pos()
	r, err := s.read()
	if s.eof(err) {
		return Token{Kind: KindEOF, Pos: pos}, nil
	}
	if err != nil {
		return Token{}, err
	}

	switch r {
	case '<':
		return s.scanContentLT(pos)
	case '&':
		return s.scanReferenceOrCharRef(pos)
	default:
		s.unreadRune(r)
		return s.scanContentRun(pos)
	}
}

func (s *Scanner) scanContentLT(pos xmlerrors.Position) (Token, error) {
	r, err := s.read()
	if err != nil {
		return Token{}, wrapEOF(err, pos)
	}
	switch r {
	case '/':
		return Token{Kind: KindETag, Pos: pos}, nil
	case '?':
		return s.scanPI(pos)
	case '!':
		r2, err := s.read()
		if err != nil {
			return Token{}, wrapEOF(err, pos)
		}
		if r2 == '-' {
			r3, err := s.read()
			if err != nil || r3 != '-' {
				return Token{}, xmlerrors.NewNotWellFormed(xmlerrors.UnexpectedToken, pos, "expected '--' to start a comment")
			}
			return s.scanComment(pos)
		}
		if r2 == '[' {
			return s.scanCDATA(pos)
		}
		return Token{}, xmlerrors.NewNotWellFormed(xmlerrors.UnexpectedToken, pos, "unexpected character after '<!' in content")
	default:
		s.unreadRune(r)
		return Token{Kind: KindSTag, Pos: pos}, nil
	}
}

func (s *Scanner) scanCDATA(pos xmlerrors.Position) (Token, error) {
	const want = "CDATA["
	for _, wantRune := range want {
		r, err := s.read()
		if err != nil || r != wantRune {
			return Token{}, xmlerrors.NewNotWellFormed(xmlerrors.UnexpectedToken, pos, "expected CDATA section header")
		}
	}
	var b strings.Builder
	for {
		r, err := s.read()
		if err != nil {
			return Token{}, wrapEOF(err, pos)
		}
		if r == ']' {
			r2, err := s.read()
			if err != nil {
				b.WriteRune(r)
				return Token{}, wrapEOF(err, pos)
			}
			if r2 == ']' {
				r3, err := s.read()
				if err == nil && r3 == '>' {
					return Token{Kind: KindCDSect, Text: b.String(), Pos: pos}, nil
				}
				b.WriteRune(r)
				b.WriteRune(r2)
				if err == nil {
					s.unreadRune(r3)
				}
				continue
			}
			b.WriteRune(r)
			s.unreadRune(r2)
			continue
		}
		b.WriteRune(r)
	}
}

func (s *Scanner) scanReferenceOrCharRef(pos xmlerrors.Position) (Token, error) {
	r, err := s.read()
	if err != nil {
		return Token{}, wrapEOF(err, pos)
	}
	if r == '#' {
		cp, err := s.readCharRefDigits()
		if err != nil {
			return Token{}, err
		}
		return Token{Kind: KindContent, Text: string(cp), Pos: pos}, nil
	}
	s.unreadRune(r)
	name, err := s.readNameRunes()
	if err != nil {
		return Token{}, err
	}
	semi, err := s.read()
	if err != nil || semi != ';' {
		return Token{}, xmlerrors.NewNotWellFormed(xmlerrors.UnexpectedToken, pos, "entity reference &%s is missing its terminating ';'", name)
	}
	return Token{Kind: KindReference, Text: name, Pos: pos}, nil
}

// readCharRefDigits reads the digits of a numeric character reference
// (decimal or hex, "&#...;"/"&#x...;" with the "&#" already consumed)
// up to and including the terminating ';', and returns the decoded
// code point.
func (s *Scanner) readCharRefDigits() (rune, error) {
	pos := s.pos()
	r, err := s.read()
	if err != nil {
		return 0, wrapEOF(err, pos)
	}
	hex := false
	var digits strings.Builder
	if r == 'x' {
		hex = true
	} else {
		digits.WriteRune(r)
	}
	for {
		r, err := s.read()
		if err != nil {
			return 0, wrapEOF(err, pos)
		}
		if r == ';' {
			break
		}
		digits.WriteRune(r)
	}
	base := 10
	if hex {
		base = 16
	}
	var cp int64
	for _, d := range digits.String() {
		v, ok := digitValue(d, base)
		if !ok {
			return 0, xmlerrors.NewNotWellFormed(xmlerrors.UnexpectedToken, pos, "invalid character reference digit %q", d)
		}
		cp = cp*int64(base) + int64(v)
		if cp > 0x10FFFF {
			return 0, xmlerrors.NewNotWellFormed(xmlerrors.DisallowedChar, pos, "character reference out of Unicode range")
		}
	}
	rn := rune(cp)
	if charclass.IsDisallowed(rn) || !charclass.IsChar(rn) {
		return 0, xmlerrors.NewNotWellFormed(xmlerrors.DisallowedChar, pos, "character reference U+%04X is not a legal XML character", rn)
	}
	return rn, nil
}

func digitValue(d rune, base int) (int, bool) {
	var v int
	switch {
	case d >= '0' && d <= '9':
		v = int(d - '0')
	case d >= 'a' && d <= 'f':
		v = int(d-'a') + 10
	case d >= 'A' && d <= 'F':
		v = int(d-'A') + 10
	default:
		return 0, false
	}
	if v >= base {
		return 0, false
	}
	return v, true
}

// scanContentRun accumulates plain character data up to the next '<'
// or '&', rejecting a bare "]]>" per the XML well-formedness rule that
// reserves that sequence for CDATA section terminators.
func (s *Scanner) scanContentRun(pos xmlerrors.Position) (Token, error) {
	var b strings.Builder
	for {
		r, err := s.read()
		if s.eof(err) {
			break
		}
		if err != nil {
			return Token{}, err
		}
		if r == '<' || r == '&' {
			s.unreadRune(r)
			break
		}
		if r == ']' {
			if s.peekSequence("]>") {
				return Token{}, xmlerrors.NewNotWellFormed(xmlerrors.UnexpectedToken, s.pos(), "']]>' is not allowed in character data outside a CDATA section")
			}
		}
		b.WriteRune(r)
	}
	return Token{Kind: KindContent, Text: b.String(), Pos: pos}, nil
}

// peekSequence reports whether the upcoming runes match want exactly,
// consuming them if so and restoring the stream (via retract) if not.
func (s *Scanner) peekSequence(want string) bool {
	var consumed []rune
	for _, wr := range want {
		r, err := s.read()
		if err != nil {
			for i := len(consumed) - 1; i >= 0; i-- {
				s.unreadRune(consumed[i])
			}
			return false
		}
		consumed = append(consumed, r)
		if r != wr {
			for i := len(consumed) - 1; i >= 0; i-- {
				s.unreadRune(consumed[i])
			}
			return false
		}
	}
	return true
}
