package parser

import (
	"strings"

	xmlerrors "github.com/jacoelho/xmlkit/errors"
	"github.com/jacoelho/xmlkit/internal/domtree"
	"github.com/jacoelho/xmlkit/internal/dtd"
	"github.com/jacoelho/xmlkit/internal/nsscope"
	"github.com/jacoelho/xmlkit/internal/scanner"
)

// isXMLIDAttr reports whether prefix:name is the reserved xml:id
// attribute, which spec.md §3 Invariant 4 requires to be treated as an
// ID regardless of any DTD declaration.
func isXMLIDAttr(prefix, name string) bool {
	return prefix == nsscope.XMLPrefix && name == "id"
}

type rawAttr struct {
	prefix, name, value string
	pos                 xmlerrors.Position
}

// parseElement parses one element, including its descendants, after
// the scanner's "<" has already been consumed. stagPos is the "<"
// token's position; the body does not use it. The proper-nesting
// check (spec.md §4.7) compares source nesting ids: the frame active
// when the start tag opened must still be the active frame when the
// matching end tag closes.
func (p *parser) parseElement(parent domtree.ID, stagPos xmlerrors.Position) error {
	nameTok, err := p.expectKind(scanner.KindName)
	if err != nil {
		return err
	}
	prefix, local := splitQName(nameTok.Text)
	nestingID := p.src.CurrentNestingID()

	attrs, selfClose, err := p.parseAttributes()
	if err != nil {
		return err
	}

	p.ns.Push()
	for _, a := range attrs {
		if a.prefix == "" && a.name == "xmlns" {
			p.ns.Declare("", a.value)
		} else if a.prefix == "xmlns" {
			p.ns.Declare(a.name, a.value)
		}
	}

	elemURI := ""
	if prefix != "" {
		uri, ok := p.ns.Resolve(prefix)
		if !ok {
			return xmlerrors.NewNotWellFormed(xmlerrors.UnexpectedToken, nameTok.Pos, "namespace prefix %q is not bound", prefix)
		}
		elemURI = uri
	} else {
		elemURI = p.ns.DefaultURI()
	}

	elemID := p.tree.AddElement(parent, prefix, local)
	p.tree.Node(elemID).URI = elemURI
	qname := nameTok.Text

	if err := p.applyAttributes(elemID, qname, attrs, nameTok.Pos); err != nil {
		p.ns.Pop()
		return err
	}

	if selfClose {
		if err := p.checkEmptyContentModel(qname, nameTok.Pos); err != nil {
			p.ns.Pop()
			return err
		}
		p.ns.Pop()
		return nil
	}

	if err := p.parseContent(elemID, qname, nameTok.Pos); err != nil {
		p.ns.Pop()
		return err
	}

	if p.src.CurrentNestingID() != nestingID {
		p.ns.Pop()
		return xmlerrors.NewNotWellFormed(xmlerrors.ImproperNesting, nameTok.Pos,
			"element %q is not properly nested within a single entity", qname)
	}
	p.ns.Pop()
	return nil
}

func splitQName(s string) (prefix, local string) {
	if i := strings.IndexByte(s, ':'); i >= 0 {
		return s[:i], s[i+1:]
	}
	return "", s
}

// parseAttributes reads the remainder of a start tag after the
// element name: zero or more "Name=Value" pairs, then either "/>" or
// ">".
func (p *parser) parseAttributes() ([]rawAttr, bool, error) {
	var attrs []rawAttr
	for {
		tok, err := p.sc.NextMarkupToken()
		if err != nil {
			return nil, false, err
		}
		switch tok.Kind {
		case scanner.KindSpace:
			continue
		case scanner.KindName:
			prefix, local := splitQName(tok.Text)
			if err := p.skipEquals(); err != nil {
				return nil, false, err
			}
			val, err := p.expectKind(scanner.KindString)
			if err != nil {
				return nil, false, err
			}
			for _, existing := range attrs {
				if existing.prefix == prefix && existing.name == local {
					return nil, false, xmlerrors.NewNotWellFormed(xmlerrors.DuplicateAttribute, tok.Pos, "attribute %q repeated on the same element", tok.Text)
				}
			}
			attrs = append(attrs, rawAttr{prefix: prefix, name: local, value: val.Text, pos: tok.Pos})
		case scanner.KindPunct:
			switch tok.Rune {
			case '/':
				if _, err := p.expectPunct('>'); err != nil {
					return nil, false, err
				}
				return attrs, true, nil
			case '>':
				return attrs, false, nil
			default:
				return nil, false, wrapf(tok.Pos, "unexpected %q in start tag", string(tok.Rune))
			}
		default:
			return nil, false, wrapf(tok.Pos, "unexpected token in start tag")
		}
	}
}

func (p *parser) skipEquals() error {
	p.skipSpace()
	if _, err := p.expectPunct('='); err != nil {
		return err
	}
	p.skipSpace()
	return nil
}

// applyAttributes normalizes each explicit attribute per the element's
// ATTLIST declarations, fills in declared defaults for attributes the
// tag omitted, enforces FIXED/REQUIRED/enumeration constraints, and
// records ID/IDREF bookkeeping.
func (p *parser) applyAttributes(elemID domtree.ID, qname string, attrs []rawAttr, elemPos xmlerrors.Position) error {
	seen := map[string]bool{}
	for _, a := range attrs {
		if a.prefix == "" && a.name == "xmlns" {
			p.tree.AddNamespace(elemID, "", a.value)
			continue
		}
		if a.prefix == "xmlns" {
			p.tree.AddNamespace(elemID, a.name, a.value)
			continue
		}

		full := a.prefix
		if full != "" {
			full += ":"
		}
		full += a.name
		seen[full] = true

		attrType := dtd.AttrCDATA
		if decl, ok := p.dtd.Attribute(qname, full); ok {
			attrType = decl.Type
		}
		value, err := p.normalizeAttrValue(a.value, a.pos, attrType)
		if err != nil {
			return err
		}
		if decl, ok := p.dtd.Attribute(qname, full); ok {
			if decl.Default == dtd.DefaultFixed && value != decl.DefaultValue {
				if err := p.reportInvalid(xmlerrors.NewInvalid(xmlerrors.AttributeValueMismatch, a.pos,
					"attribute %q must equal its FIXED default %q", full, decl.DefaultValue)); err != nil {
					return err
				}
			}
			if err := p.checkAttrSemantics(decl, value, a.pos); err != nil {
				return err
			}
		} else if len(p.dtd.AttlistFor(qname)) > 0 {
			if err := p.reportInvalid(xmlerrors.NewInvalid(xmlerrors.UndeclaredAttribute, a.pos,
				"attribute %q is not declared for element %q", full, qname)); err != nil {
				return err
			}
		}
		isID := attrType == dtd.AttrID
		if isXMLIDAttr(a.prefix, a.name) {
			isID = true
			if attrType != dtd.AttrID {
				if err := p.registerID(value, a.pos); err != nil {
					return err
				}
			}
		}
		p.tree.AddAttribute(elemID, a.prefix, a.name, value, isID)
	}

	for _, decl := range p.dtd.AttlistFor(qname) {
		full := decl.Name
		if seen[full] {
			continue
		}
		switch decl.Default {
		case dtd.DefaultRequired:
			if err := p.reportInvalid(xmlerrors.NewInvalid(xmlerrors.UndeclaredAttribute, elemPos,
				"required attribute %q is missing on element %q", full, qname)); err != nil {
				return err
			}
		case dtd.DefaultFixed, dtd.DefaultValue:
			prefix, local := splitQName(full)
			if err := p.checkAttrSemantics(decl, decl.DefaultValue, elemPos); err != nil {
				return err
			}
			isID := decl.Type == dtd.AttrID
			if isXMLIDAttr(prefix, local) {
				isID = true
				if decl.Type != dtd.AttrID {
					if err := p.registerID(decl.DefaultValue, elemPos); err != nil {
						return err
					}
				}
			}
			p.tree.AddAttribute(elemID, prefix, local, decl.DefaultValue, isID)
			if decl.ExternallyDefined && p.standalone {
				if err := p.reportInvalid(xmlerrors.NewInvalid(xmlerrors.StandaloneViolation, elemPos,
					"standalone document relies on an externally defined default for %q", full)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// registerID records value as an ID, failing with DuplicateID if it
// was already used elsewhere in the document.
func (p *parser) registerID(value string, pos xmlerrors.Position) error {
	if _, dup := p.ids[value]; dup {
		return xmlerrors.NewNotWellFormed(xmlerrors.DuplicateID, pos, "ID value %q is used more than once", value)
	}
	p.ids[value] = pos
	return nil
}

// checkAttrSemantics enforces ID uniqueness/registration, IDREF(S)
// target collection, and NOTATION/enumeration membership.
func (p *parser) checkAttrSemantics(decl *dtd.AttDecl, value string, pos xmlerrors.Position) error {
	switch decl.Type {
	case dtd.AttrID:
		if err := p.registerID(value, pos); err != nil {
			return err
		}
	case dtd.AttrIDREF:
		p.idrefs = append(p.idrefs, idrefUse{value: value, pos: pos})
	case dtd.AttrIDREFS:
		for _, v := range strings.Fields(value) {
			p.idrefs = append(p.idrefs, idrefUse{value: v, pos: pos})
		}
	case dtd.AttrNOTATION, dtd.AttrEnumeration:
		ok := false
		for _, allowed := range decl.Enumeration {
			if allowed == value {
				ok = true
				break
			}
		}
		if !ok {
			return p.reportInvalid(xmlerrors.NewInvalid(xmlerrors.AttributeValueMismatch, pos,
				"value %q is not one of the declared enumeration values for %q", value, decl.Name))
		}
	}
	return nil
}

func (p *parser) checkEmptyContentModel(qname string, pos xmlerrors.Position) error {
	v := p.dtd.Validator(qname)
	if v == nil || v.Done() {
		return nil
	}
	return p.reportInvalid(xmlerrors.NewInvalid(xmlerrors.UnexpectedElement, pos,
		"element %q cannot be empty under its declared content model", qname))
}

// parseContent parses an element's children until its matching end
// tag, validating against the DTD content model if one is declared.
func (p *parser) parseContent(elemID domtree.ID, qname string, stagPos xmlerrors.Position) error {
	validator := p.dtd.Validator(qname)

	for {
		tok, err := p.sc.NextContentToken()
		if err != nil {
			return err
		}
		if tok.Kind == scanner.KindReference {
			// A predefined entity's replacement is character data, not
			// markup to rescan, so "&amp;" yields a literal '&'.
			if repl, ok := predefinedEntities[tok.Text]; ok {
				tok = scanner.Token{Kind: scanner.KindContent, Text: repl, Pos: tok.Pos}
			}
		}
		switch tok.Kind {
		case scanner.KindEOF:
			return xmlerrors.NewNotWellFormed(xmlerrors.UnexpectedEOF, tok.Pos, "element %q is never closed", qname)
		case scanner.KindContent:
			if validator != nil && !validator.AllowCharData() && strings.TrimSpace(tok.Text) != "" {
				if err := p.reportInvalid(xmlerrors.NewInvalid(xmlerrors.UnexpectedElement, tok.Pos,
					"character data is not allowed directly in element %q", qname)); err != nil {
					return err
				}
			}
			p.tree.AddText(elemID, tok.Text)
		case scanner.KindCDSect:
			if validator != nil && !validator.AllowCharData() {
				if err := p.reportInvalid(xmlerrors.NewInvalid(xmlerrors.UnexpectedElement, tok.Pos,
					"CDATA is not allowed directly in element %q", qname)); err != nil {
					return err
				}
			}
			if p.opts.PreserveCDATA {
				p.tree.AddCDATA(elemID, tok.Text)
			} else {
				p.tree.AddText(elemID, tok.Text)
			}
		case scanner.KindReference:
			if err := p.expandGeneralEntityInContent(tok); err != nil {
				return err
			}
		case scanner.KindComment:
			p.tree.AddComment(elemID, tok.Text)
		case scanner.KindPI:
			p.tree.AddPI(elemID, tok.Target, tok.Text)
		case scanner.KindSTag:
			childTok, err := p.sc.NextMarkupToken()
			if err != nil {
				return err
			}
			childName, _ := splitQName(peekNameText(childTok))
			if validator != nil {
				if !validator.Accept(childName) {
					if err := p.reportInvalid(xmlerrors.NewInvalid(xmlerrors.UnexpectedElement, childTok.Pos,
						"element %q is not allowed here inside %q", childName, qname)); err != nil {
						return err
					}
				}
			}
			p.sc.UnreadToken(childTok)
			if err := p.parseElement(elemID, tok.Pos); err != nil {
				return err
			}
		case scanner.KindETag:
			nameTok, err := p.expectKind(scanner.KindName)
			if err != nil {
				return err
			}
			if nameTok.Text != qname {
				return xmlerrors.NewNotWellFormed(xmlerrors.UnexpectedToken, nameTok.Pos,
					"end tag %q does not match start tag %q", nameTok.Text, qname)
			}
			p.skipSpace()
			if _, err := p.expectPunct('>'); err != nil {
				return err
			}
			if validator != nil && !validator.Done() {
				if err := p.reportInvalid(xmlerrors.NewInvalid(xmlerrors.UnexpectedElement, nameTok.Pos,
					"element %q ends before its content model is satisfied", qname)); err != nil {
					return err
				}
			}
			return nil
		default:
			return wrapf(tok.Pos, "unexpected token in element content")
		}
	}
}

func peekNameText(tok scanner.Token) string {
	return tok.Text
}
