package parser

import (
	"strings"

	xmlerrors "github.com/jacoelho/xmlkit/errors"
	"github.com/jacoelho/xmlkit/internal/scanner"
	"github.com/jacoelho/xmlkit/internal/source"
)

// parseXMLDecl consumes an optional leading "<?xml ...?>" declaration.
// The scanner already recognizes the exact PI target "xml" (any case
// variant) as a KindXMLDecl token instead of a generic PI.
func (p *parser) parseXMLDecl() error {
	tok, err := p.sc.NextMarkupToken()
	if err != nil {
		return err
	}
	if tok.Kind != scanner.KindXMLDecl {
		p.sc.UnreadToken(tok)
		return nil
	}
	attrs, err := parsePseudoAttrs(tok.Text)
	if err != nil {
		return xmlerrors.NewNotWellFormed(xmlerrors.UnexpectedToken, tok.Pos, "malformed XML declaration: %v", err)
	}
	if version, ok := attrs["version"]; ok && !strings.HasPrefix(version, "1.") {
		return xmlerrors.NewNotWellFormed(xmlerrors.UnexpectedToken, tok.Pos, "unsupported XML version %q", version)
	}
	if enc, ok := attrs["encoding"]; ok {
		if !source.DeclaredEncodingMatches(p.src.CurrentDecoderEncoding(), enc) {
			if err := p.reportInvalid(xmlerrors.NewInvalid(xmlerrors.EncodingMismatch, tok.Pos,
				"declared encoding %q does not match the sniffed input encoding", enc)); err != nil {
				return err
			}
		}
	}
	if sa, ok := attrs["standalone"]; ok {
		p.standalone = sa == "yes"
		p.dtd.Standalone = p.standalone
	}
	return nil
}

// parsePseudoAttrs parses the "name=\"value\"" pairs inside an XML or
// text declaration's PI data.
func parsePseudoAttrs(text string) (map[string]string, error) {
	out := map[string]string{}
	i := 0
	n := len(text)
	for i < n {
		for i < n && isPseudoSpace(text[i]) {
			i++
		}
		if i >= n {
			break
		}
		start := i
		for i < n && text[i] != '=' && !isPseudoSpace(text[i]) {
			i++
		}
		name := text[start:i]
		for i < n && isPseudoSpace(text[i]) {
			i++
		}
		if i >= n || text[i] != '=' {
			return nil, xmlerrors.NewNotWellFormed(xmlerrors.UnexpectedToken, xmlerrors.Position{}, "expected '=' after %q", name)
		}
		i++
		for i < n && isPseudoSpace(text[i]) {
			i++
		}
		if i >= n || (text[i] != '"' && text[i] != '\'') {
			return nil, xmlerrors.NewNotWellFormed(xmlerrors.UnexpectedToken, xmlerrors.Position{}, "expected quoted value for %q", name)
		}
		quote := text[i]
		i++
		vstart := i
		for i < n && text[i] != quote {
			i++
		}
		if i >= n {
			return nil, xmlerrors.NewNotWellFormed(xmlerrors.UnexpectedEOF, xmlerrors.Position{}, "unterminated value for %q", name)
		}
		out[name] = text[vstart:i]
		i++
	}
	return out, nil
}

func isPseudoSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}
