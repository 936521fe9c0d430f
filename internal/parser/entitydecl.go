package parser

import (
	"github.com/jacoelho/xmlkit/internal/dtd"
	"github.com/jacoelho/xmlkit/internal/scanner"
)

// parseEntityDecl parses "<!ENTITY Name EntityDef>" and
// "<!ENTITY % Name PEDef>".
func (p *parser) parseEntityDecl(externally bool) error {
	if err := p.expectSpace(); err != nil {
		return err
	}
	tok, err := p.sc.NextMarkupToken()
	if err != nil {
		return err
	}
	isParam := false
	if tok.Kind == scanner.KindPunct && tok.Rune == '%' {
		isParam = true
		if err := p.expectSpace(); err != nil {
			return err
		}
		tok, err = p.sc.NextMarkupToken()
		if err != nil {
			return err
		}
	}
	if tok.Kind != scanner.KindName {
		return wrapf(tok.Pos, "expected an entity name")
	}
	name := tok.Text
	if err := p.expectSpace(); err != nil {
		return err
	}

	decl := &dtd.EntityDecl{Name: name, IsParameter: isParam, ExternallyDefined: externally}
	valTok, err := p.sc.NextEntityValueToken(p.resolveParamEntityForDecl)
	if err != nil {
		return err
	}
	switch {
	case valTok.Kind == scanner.KindString:
		decl.Value = valTok.Text
	case valTok.Kind == scanner.KindName && (valTok.Text == "SYSTEM" || valTok.Text == "PUBLIC"):
		p.sc.UnreadToken(valTok)
		extID, _, err := p.tryParseExternalID()
		if err != nil {
			return err
		}
		decl.ExternalID = extID
		p.skipSpace()
		if !isParam {
			ndTok, err := p.sc.NextMarkupToken()
			if err != nil {
				return err
			}
			if ndTok.Kind == scanner.KindName && ndTok.Text == "NDATA" {
				if err := p.expectSpace(); err != nil {
					return err
				}
				nd, err := p.expectKind(scanner.KindName)
				if err != nil {
					return err
				}
				decl.NDATA = nd.Text
			} else {
				p.sc.UnreadToken(ndTok)
			}
		}
	default:
		return wrapf(valTok.Pos, "expected an entity value or external identifier")
	}

	p.skipSpace()
	if _, err := p.expectPunct('>'); err != nil {
		return err
	}

	table := p.dtd.GeneralEntities
	if isParam {
		table = p.dtd.ParamEntities
	}
	if _, exists := table[name]; !exists {
		table[name] = decl
	}
	return nil
}

// resolveParamEntityForDecl looks up a parameter entity's replacement
// text for expansion inside another EntityValue literal at
// declaration time (spec.md §4.3). General-entity references are not
// resolved here — those are resolved lazily when the entity is itself
// referenced; see entities.go.
func (p *parser) resolveParamEntityForDecl(name string) (string, bool) {
	ent, ok := p.dtd.ParamEntities[name]
	if !ok {
		return "", false
	}
	return ent.Value, true
}
