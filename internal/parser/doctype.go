package parser

import (
	xmlerrors "github.com/jacoelho/xmlkit/errors"
	"github.com/jacoelho/xmlkit/internal/dtd"
	"github.com/jacoelho/xmlkit/internal/scanner"
)

// parseDoctype parses "<!DOCTYPE Name (ExternalID)? ('[' intSubset ']')? '>'".
// The KindDocType token itself has already been consumed by the
// caller; pos is its position.
func (p *parser) parseDoctype(pos xmlerrors.Position) error {
	if err := p.expectSpace(); err != nil {
		return err
	}
	nameTok, err := p.expectKind(scanner.KindName)
	if err != nil {
		return err
	}
	_ = nameTok // the document element name; not cross-checked against the root tag here

	p.skipSpace()
	extID, hasExt, err := p.tryParseExternalID()
	if err != nil {
		return err
	}
	p.skipSpace()

	tok, err := p.sc.NextMarkupToken()
	if err != nil {
		return err
	}
	if tok.Kind == scanner.KindPunct && tok.Rune == '[' {
		if err := p.parseInternalSubset(false); err != nil {
			return err
		}
		if _, err := p.expectPunct(']'); err != nil {
			return err
		}
		p.skipSpace()
		if _, err := p.expectPunct('>'); err != nil {
			return err
		}
	} else if tok.Kind == scanner.KindPunct && tok.Rune == '>' {
		// no internal subset
	} else {
		return wrapf(tok.Pos, "expected '[' or '>' to end the DOCTYPE declaration")
	}

	if hasExt {
		if p.opts.Resolver != nil {
			if err := p.loadExternalSubset(extID); err != nil {
				return err
			}
		} else {
			p.externalSubsetUnread = true
		}
	}
	return nil
}

// loadExternalSubset pushes the external subset's bytes onto the
// source stack and parses it as a sequence of markup declarations,
// marking every declaration found there as ExternallyDefined.
func (p *parser) loadExternalSubset(extID dtd.ExternalID) error {
	r, closer, baseDir, err := p.opts.Resolver.Resolve(extID.Public, extID.System, p.src.CurrentBaseDir())
	if err != nil {
		return err
	}
	if err := p.src.PushBytes("", baseDir, r, closer); err != nil {
		return err
	}
	return p.parseInternalSubset(true)
}

// parseInternalSubset parses the sequence of markupdecl | PEReference |
// space productions that make up a DTD subset. externally marks every
// declaration parsed here as loaded from the external subset.
func (p *parser) parseInternalSubset(externally bool) error {
	for {
		tok, err := p.sc.NextMarkupToken()
		if err != nil {
			return err
		}
		switch tok.Kind {
		case scanner.KindSpace:
			continue
		case scanner.KindPEReference:
			if err := p.expandParameterEntity(tok); err != nil {
				return err
			}
			continue
		case scanner.KindElementDecl:
			if err := p.parseElementDecl(externally); err != nil {
				return err
			}
		case scanner.KindAttListDecl:
			if err := p.parseAttlistDecl(externally); err != nil {
				return err
			}
		case scanner.KindEntityDecl:
			if err := p.parseEntityDecl(externally); err != nil {
				return err
			}
		case scanner.KindNotationDecl:
			if err := p.parseNotationDecl(); err != nil {
				return err
			}
		case scanner.KindComment:
			continue
		case scanner.KindPI:
			continue
		case scanner.KindIncludeIgnore:
			if err := p.parseConditionalSection(externally); err != nil {
				return err
			}
		default:
			p.sc.UnreadToken(tok)
			return nil
		}
	}
}

// parseConditionalSection parses "INCLUDE[...]]>" or "IGNORE[...]]>"
// in the external subset (spec.md's conditional-section support).
// Only the external subset may contain one; internal-subset callers
// still accept the syntax rather than erroring, matching how real
// parsers tolerate a PE-expanded conditional section.
func (p *parser) parseConditionalSection(externally bool) error {
	kw, err := p.expectKind(scanner.KindName)
	if err != nil {
		return err
	}
	p.skipSpace()
	if _, err := p.expectPunct('['); err != nil {
		return err
	}
	switch kw.Text {
	case "INCLUDE":
		if err := p.parseInternalSubset(externally); err != nil {
			return err
		}
		for _, r := range "]]>" {
			if _, err := p.expectPunct(r); err != nil {
				return err
			}
		}
	case "IGNORE":
		if err := p.skipIgnoredSection(); err != nil {
			return err
		}
	default:
		return wrapf(kw.Pos, "expected INCLUDE or IGNORE, got %q", kw.Text)
	}
	return nil
}

// skipIgnoredSection discards tokens up to the matching "]]>",
// tracking nested conditional sections.
func (p *parser) skipIgnoredSection() error {
	depth := 1
	brackets := 0 // consecutive ']' seen just before the current token
	for depth > 0 {
		tok, err := p.sc.NextMarkupToken()
		if err != nil {
			return err
		}
		switch {
		case tok.Kind == scanner.KindIncludeIgnore:
			depth++
		case tok.Kind == scanner.KindPunct && tok.Rune == ']':
			brackets++
			continue
		case tok.Kind == scanner.KindPunct && tok.Rune == '>' && brackets >= 2:
			depth--
		case tok.Kind == scanner.KindEOF:
			return wrapf(tok.Pos, "unterminated IGNORE section")
		}
		brackets = 0
	}
	return nil
}

// peReferenceInDeclaration reports whether tok is a parameter-entity
// reference appearing inside a declaration's own token stream (an
// AttlistDecl's AttDef list, a content model, an enumeration). Per
// spec.md §4.3, a PE reference may appear there only when the
// enclosing declaration is being parsed from the external subset; one
// found there while parsing the internal subset fails PEContext. PE
// references between declarations (parseInternalSubset's own loop)
// are unrestricted and handled separately.
func (p *parser) peReferenceInDeclaration(tok scanner.Token, externally bool) (bool, error) {
	if tok.Kind != scanner.KindPEReference {
		return false, nil
	}
	if !externally {
		return false, xmlerrors.NewNotWellFormed(xmlerrors.PEContext, tok.Pos,
			"parameter entity reference %%%s; cannot appear within a declaration's tokens in the internal subset", tok.Text)
	}
	if err := p.expandParameterEntity(tok); err != nil {
		return false, err
	}
	return true, nil
}

func (p *parser) expandParameterEntity(tok scanner.Token) error {
	ent, ok := p.dtd.ParamEntities[tok.Text]
	if !ok {
		return xmlerrors.NewNotWellFormed(xmlerrors.UndefinedParameterEntity, tok.Pos, "parameter entity %%%s is not declared", tok.Text)
	}
	if p.src.ContainsEntity("%" + tok.Text) {
		return xmlerrors.NewNotWellFormed(xmlerrors.EntityRecursion, tok.Pos, "parameter entity %%%s is recursive", tok.Text)
	}
	if p.src.Depth() >= p.opts.maxDepth() {
		return xmlerrors.NewNotWellFormed(xmlerrors.EntityRecursion, tok.Pos, "entity expansion exceeds the configured depth limit")
	}
	p.src.PushText("%"+tok.Text, p.src.CurrentBaseDir(), " "+ent.Value+" ")
	return nil
}
