package parser

import (
	xmlerrors "github.com/jacoelho/xmlkit/errors"
	"github.com/jacoelho/xmlkit/internal/dtd"
	"github.com/jacoelho/xmlkit/internal/scanner"
)

// parseElementDecl parses "<!ELEMENT Name contentspec>". The
// KindElementDecl token has already been consumed.
func (p *parser) parseElementDecl(externally bool) error {
	if err := p.expectSpace(); err != nil {
		return err
	}
	nameTok, err := p.expectKind(scanner.KindName)
	if err != nil {
		return err
	}
	if err := p.expectSpace(); err != nil {
		return err
	}

	decl := &dtd.ElementDecl{Name: nameTok.Text}
	tok, err := p.sc.NextMarkupToken()
	if err != nil {
		return err
	}
	switch {
	case tok.Kind == scanner.KindName && tok.Text == "EMPTY":
		decl.Content = dtd.ContentEmpty
	case tok.Kind == scanner.KindName && tok.Text == "ANY":
		decl.Content = dtd.ContentAny
	case tok.Kind == scanner.KindPunct && tok.Rune == '(':
		mixed, particle, err := p.parseContentSpec(externally)
		if err != nil {
			return err
		}
		if mixed != nil {
			decl.Content = dtd.ContentMixed
			decl.Mixed = mixed
		} else {
			decl.Content = dtd.ContentChildren
			decl.Particle = particle
		}
	default:
		return wrapf(tok.Pos, "expected EMPTY, ANY, or a content-model group")
	}
	p.skipSpace()
	if _, err := p.expectPunct('>'); err != nil {
		return err
	}
	p.dtd.DeclareElement(decl)
	return nil
}

// parseContentSpec parses the group following "<!ELEMENT Name (",
// where the opening '(' has already been consumed. It returns either
// a non-nil mixed-content name list or a non-nil children particle
// tree, never both.
func (p *parser) parseContentSpec(externally bool) ([]string, *dtd.Particle, error) {
	p.skipSpace()
	tok, err := p.sc.NextMarkupToken()
	if err != nil {
		return nil, nil, err
	}
	if tok.Kind == scanner.KindPunct && tok.Rune == '#' {
		kw, err := p.expectKind(scanner.KindName)
		if err != nil {
			return nil, nil, err
		}
		if kw.Text != "PCDATA" {
			return nil, nil, wrapf(kw.Pos, "expected #PCDATA")
		}
		return p.parseMixedContent(externally)
	}
	p.sc.UnreadToken(tok)
	particle, err := p.parseChoiceOrSeq(externally)
	if err != nil {
		return nil, nil, err
	}
	return nil, particle, nil
}

// parseMixedContent parses "#PCDATA (| Name)* )" or "#PCDATA)" with
// the leading "#PCDATA" keyword already consumed.
func (p *parser) parseMixedContent(externally bool) ([]string, *dtd.Particle, error) {
	var names []string
	for {
		tok, err := p.sc.NextMarkupToken()
		if err != nil {
			return nil, nil, err
		}
		if consumed, err := p.peReferenceInDeclaration(tok, externally); err != nil {
			return nil, nil, err
		} else if consumed {
			continue
		}
		switch {
		case tok.Kind == scanner.KindPunct && tok.Rune == ')':
			if names == nil {
				names = []string{}
			}
			return names, nil, nil
		case tok.Kind == scanner.KindPunct && tok.Rune == '|':
			n, err := p.expectKind(scanner.KindName)
			if err != nil {
				return nil, nil, err
			}
			names = append(names, n.Text)
		default:
			return nil, nil, wrapf(tok.Pos, "expected '|' or ')' in mixed content")
		}
	}
}

// parseChoiceOrSeq parses a parenthesized content particle group
// (the opening '(' already consumed) followed by an optional
// occurrence suffix, recursively for nested groups.
func (p *parser) parseChoiceOrSeq(externally bool) (*dtd.Particle, error) {
	var children []*dtd.Particle
	kind := dtd.ParticleSeq
	sawSeparator := false
	first := true
	for {
		p.skipSpace()
		child, err := p.parseParticle(externally)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
		p.skipSpace()
		tok, err := p.sc.NextMarkupToken()
		if err != nil {
			return nil, err
		}
		if consumed, err := p.peReferenceInDeclaration(tok, externally); err != nil {
			return nil, err
		} else if consumed {
			continue
		}
		switch {
		case tok.Kind == scanner.KindPunct && tok.Rune == ')':
			particle := &dtd.Particle{Kind: kind, Children: children, Min: 1, Max: 1}
			p.applyOccurrence(particle)
			return particle, nil
		case tok.Kind == scanner.KindPunct && (tok.Rune == ',' || tok.Rune == '|'):
			thisKind := dtd.ParticleSeq
			if tok.Rune == '|' {
				thisKind = dtd.ParticleChoice
			}
			if !first && sawSeparator && thisKind != kind {
				return nil, wrapf(tok.Pos, "cannot mix ',' and '|' within one content-model group")
			}
			kind = thisKind
			sawSeparator = true
			first = false
		default:
			return nil, wrapf(tok.Pos, "expected ',', '|', or ')' in content model")
		}
	}
}

// parseParticle parses one content particle: either a Name leaf or a
// nested parenthesized group, each with an optional occurrence suffix.
func (p *parser) parseParticle(externally bool) (*dtd.Particle, error) {
	tok, err := p.sc.NextMarkupToken()
	if err != nil {
		return nil, err
	}
	if consumed, err := p.peReferenceInDeclaration(tok, externally); err != nil {
		return nil, err
	} else if consumed {
		return p.parseParticle(externally)
	}
	if tok.Kind == scanner.KindPunct && tok.Rune == '(' {
		return p.parseChoiceOrSeq(externally)
	}
	if tok.Kind != scanner.KindName {
		return nil, wrapf(tok.Pos, "expected an element name or '(' in content model")
	}
	leaf := &dtd.Particle{Kind: dtd.ParticleName, Name: tok.Text, Min: 1, Max: 1}
	p.applyOccurrence(leaf)
	return leaf, nil
}

// applyOccurrence consumes an optional trailing '?' / '*' / '+' and
// sets the particle's Min/Max accordingly.
func (p *parser) applyOccurrence(particle *dtd.Particle) {
	tok, err := p.sc.NextMarkupToken()
	if err != nil {
		return
	}
	if tok.Kind != scanner.KindPunct {
		p.sc.UnreadToken(tok)
		return
	}
	switch tok.Rune {
	case '?':
		particle.Min, particle.Max = 0, 1
	case '*':
		particle.Min, particle.Max = 0, -1
	case '+':
		particle.Min, particle.Max = 1, -1
	default:
		p.sc.UnreadToken(tok)
	}
}

// parseAttlistDecl parses "<!ATTLIST Name AttDef* >".
func (p *parser) parseAttlistDecl(externally bool) error {
	if err := p.expectSpace(); err != nil {
		return err
	}
	elemName, err := p.expectKind(scanner.KindName)
	if err != nil {
		return err
	}
	for {
		tok, err := p.sc.NextMarkupToken()
		if err != nil {
			return err
		}
		if consumed, err := p.peReferenceInDeclaration(tok, externally); err != nil {
			return err
		} else if consumed {
			continue
		}
		if tok.Kind == scanner.KindPunct && tok.Rune == '>' {
			return nil
		}
		if tok.Kind != scanner.KindSpace {
			return wrapf(tok.Pos, "expected whitespace or '>' in ATTLIST")
		}
		peek, err := p.sc.NextMarkupToken()
		if err != nil {
			return err
		}
		if consumed, err := p.peReferenceInDeclaration(peek, externally); err != nil {
			return err
		} else if consumed {
			continue
		}
		if peek.Kind == scanner.KindPunct && peek.Rune == '>' {
			return nil
		}
		if peek.Kind != scanner.KindName {
			return wrapf(peek.Pos, "expected an attribute name")
		}
		attDecl, err := p.parseAttDef(elemName.Text, peek.Text, externally)
		if err != nil {
			return err
		}
		attDecl.ExternallyDefined = externally
		p.dtd.DeclareAttribute(attDecl)
	}
}

func (p *parser) parseAttDef(elem, name string, externally bool) (*dtd.AttDecl, error) {
	if err := p.expectSpace(); err != nil {
		return nil, err
	}
	decl := &dtd.AttDecl{Element: elem, Name: name}
	tok, err := p.sc.NextMarkupToken()
	if err != nil {
		return nil, err
	}
	switch {
	case tok.Kind == scanner.KindName:
		switch tok.Text {
		case "CDATA":
			decl.Type = dtd.AttrCDATA
		case "ID":
			decl.Type = dtd.AttrID
		case "IDREF":
			decl.Type = dtd.AttrIDREF
		case "IDREFS":
			decl.Type = dtd.AttrIDREFS
		case "ENTITY":
			decl.Type = dtd.AttrENTITY
		case "ENTITIES":
			decl.Type = dtd.AttrENTITIES
		case "NMTOKEN":
			decl.Type = dtd.AttrNMTOKEN
		case "NMTOKENS":
			decl.Type = dtd.AttrNMTOKENS
		case "NOTATION":
			decl.Type = dtd.AttrNOTATION
			if err := p.expectSpace(); err != nil {
				return nil, err
			}
			vals, err := p.parseEnumeration(externally)
			if err != nil {
				return nil, err
			}
			decl.Enumeration = vals
		default:
			return nil, wrapf(tok.Pos, "unknown attribute type %q", tok.Text)
		}
	case tok.Kind == scanner.KindPunct && tok.Rune == '(':
		decl.Type = dtd.AttrEnumeration
		vals, err := p.parseEnumerationValues(externally)
		if err != nil {
			return nil, err
		}
		decl.Enumeration = vals
	default:
		return nil, wrapf(tok.Pos, "expected an attribute type")
	}

	if err := p.expectSpace(); err != nil {
		return nil, err
	}
	return decl, p.parseDefaultDecl(decl)
}

func (p *parser) parseEnumeration(externally bool) ([]string, error) {
	if _, err := p.expectPunct('('); err != nil {
		return nil, err
	}
	return p.parseEnumerationValues(externally)
}

// parseEnumerationValues parses "Name (| Name)* )" with the opening
// '(' already consumed, for both NOTATION and plain enumeration types
// (the latter uses Nmtoken rather than Name but the scanner already
// accepts either as the same lexeme shape here).
func (p *parser) parseEnumerationValues(externally bool) ([]string, error) {
	var vals []string
	for {
		p.skipSpace()
		tok, err := p.sc.NextMarkupToken()
		if err != nil {
			return nil, err
		}
		if consumed, err := p.peReferenceInDeclaration(tok, externally); err != nil {
			return nil, err
		} else if consumed {
			continue
		}
		if tok.Kind != scanner.KindName && tok.Kind != scanner.KindNMToken {
			return nil, wrapf(tok.Pos, "expected a name in enumeration")
		}
		vals = append(vals, tok.Text)
		p.skipSpace()
		sep, err := p.sc.NextMarkupToken()
		if err != nil {
			return nil, err
		}
		if consumed, err := p.peReferenceInDeclaration(sep, externally); err != nil {
			return nil, err
		} else if consumed {
			continue
		}
		if sep.Kind == scanner.KindPunct && sep.Rune == ')' {
			return vals, nil
		}
		if sep.Kind != scanner.KindPunct || sep.Rune != '|' {
			return nil, wrapf(sep.Pos, "expected '|' or ')' in enumeration")
		}
	}
}

func (p *parser) parseDefaultDecl(decl *dtd.AttDecl) error {
	tok, err := p.sc.NextMarkupToken()
	if err != nil {
		return err
	}
	if tok.Kind == scanner.KindPunct && tok.Rune == '#' {
		kw, err := p.expectKind(scanner.KindName)
		if err != nil {
			return err
		}
		switch kw.Text {
		case "REQUIRED":
			decl.Default = dtd.DefaultRequired
			return nil
		case "IMPLIED":
			decl.Default = dtd.DefaultImplied
			return nil
		case "FIXED":
			decl.Default = dtd.DefaultFixed
			if err := p.expectSpace(); err != nil {
				return err
			}
			val, err := p.expectKind(scanner.KindString)
			if err != nil {
				return err
			}
			decl.DefaultValue = val.Text
			return nil
		default:
			return wrapf(kw.Pos, "expected REQUIRED, IMPLIED, or FIXED")
		}
	}
	if tok.Kind == scanner.KindString {
		decl.Default = dtd.DefaultValue
		decl.DefaultValue = tok.Text
		return nil
	}
	return wrapf(tok.Pos, "expected a default-value declaration")
}

// parseNotationDecl parses "<!NOTATION Name (PUBLIC|SYSTEM) ... >".
func (p *parser) parseNotationDecl() error {
	if err := p.expectSpace(); err != nil {
		return err
	}
	nameTok, err := p.expectKind(scanner.KindName)
	if err != nil {
		return err
	}
	if err := p.expectSpace(); err != nil {
		return err
	}
	extID, ok, err := p.tryParseExternalID()
	if err != nil {
		return err
	}
	if !ok {
		return xmlerrors.NewNotWellFormed(xmlerrors.BadSystemLiteral, nameTok.Pos, "NOTATION declaration requires a PUBLIC or SYSTEM identifier")
	}
	p.skipSpace()
	if _, err := p.expectPunct('>'); err != nil {
		return err
	}
	p.dtd.Notations[nameTok.Text] = &dtd.NotationDecl{Name: nameTok.Text, ExternalID: extID}
	return nil
}
