package parser

import (
	"github.com/jacoelho/xmlkit/internal/dtd"
	"github.com/jacoelho/xmlkit/internal/scanner"
)

func (p *parser) expectKind(k scanner.Kind) (scanner.Token, error) {
	tok, err := p.sc.NextMarkupToken()
	if err != nil {
		return scanner.Token{}, err
	}
	if tok.Kind != k {
		return scanner.Token{}, wrapf(tok.Pos, "expected %v, got %v", k, tok.Kind)
	}
	return tok, nil
}

func (p *parser) expectPunct(r rune) (scanner.Token, error) {
	tok, err := p.sc.NextMarkupToken()
	if err != nil {
		return scanner.Token{}, err
	}
	if tok.Kind != scanner.KindPunct || tok.Rune != r {
		return scanner.Token{}, wrapf(tok.Pos, "expected %q", string(r))
	}
	return tok, nil
}

func (p *parser) expectSpace() error {
	tok, err := p.sc.NextMarkupToken()
	if err != nil {
		return err
	}
	if tok.Kind != scanner.KindSpace {
		return wrapf(tok.Pos, "expected whitespace")
	}
	return nil
}

// skipSpace consumes zero or more KindSpace tokens.
func (p *parser) skipSpace() {
	for {
		tok, err := p.sc.NextMarkupToken()
		if err != nil || tok.Kind != scanner.KindSpace {
			if err == nil {
				p.sc.UnreadToken(tok)
			}
			return
		}
	}
}

// tryParseExternalID parses an optional "SYSTEM SystemLiteral" or
// "PUBLIC PubidLiteral SystemLiteral" clause.
func (p *parser) tryParseExternalID() (dtd.ExternalID, bool, error) {
	tok, err := p.sc.NextMarkupToken()
	if err != nil {
		return dtd.ExternalID{}, false, err
	}
	if tok.Kind != scanner.KindName || (tok.Text != "SYSTEM" && tok.Text != "PUBLIC") {
		p.sc.UnreadToken(tok)
		return dtd.ExternalID{}, false, nil
	}
	if err := p.expectSpace(); err != nil {
		return dtd.ExternalID{}, false, err
	}
	var id dtd.ExternalID
	id.IsSet = true
	if tok.Text == "PUBLIC" {
		pub, err := p.expectKind(scanner.KindString)
		if err != nil {
			return dtd.ExternalID{}, false, err
		}
		id.Public = pub.Text
		if err := p.expectSpace(); err != nil {
			return dtd.ExternalID{}, false, err
		}
	}
	sys, err := p.expectKind(scanner.KindString)
	if err != nil {
		return dtd.ExternalID{}, false, err
	}
	id.System = sys.Text
	return id, true, nil
}
