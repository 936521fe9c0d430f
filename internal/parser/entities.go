package parser

import (
	xmlerrors "github.com/jacoelho/xmlkit/errors"
	"github.com/jacoelho/xmlkit/internal/scanner"
)

// predefinedEntities are the five entities XML 1.0 defines without a
// declaration.
var predefinedEntities = map[string]string{
	"amp":  "&",
	"lt":   "<",
	"gt":   ">",
	"apos": "'",
	"quot": "\"",
}

// undefinedEntity reports a general entity name with no matching
// declaration. Per spec.md §8's boundary rule, that is always fatal
// when validating or when the document is standalone, but when the
// document is non-standalone and its external subset exists but was
// never read (no EntityResolver configured), the entity might be
// declared there: such a reference is delivered as a non-fatal
// Invalid instead of an unconditional NotWellFormed.
func (p *parser) undefinedEntity(pos xmlerrors.Position, format string, args ...any) error {
	if p.externalSubsetUnread && !p.standalone {
		return p.reportInvalid(xmlerrors.NewInvalid(xmlerrors.UndefinedEntity, pos, format, args...))
	}
	return xmlerrors.NewNotWellFormed(xmlerrors.UndefinedEntity, pos, format, args...)
}

// expandGeneralEntityInContent pushes a general entity's replacement
// text (or external stream) onto the source stack so the scanner's
// next tokens come from it transparently, per spec.md §4.3.
func (p *parser) expandGeneralEntityInContent(tok scanner.Token) error {
	if repl, ok := predefinedEntities[tok.Text]; ok {
		p.src.PushText(tok.Text, p.src.CurrentBaseDir(), repl)
		return nil
	}
	ent, ok := p.dtd.GeneralEntities[tok.Text]
	if !ok {
		return p.undefinedEntity(tok.Pos, "entity &%s; is not declared", tok.Text)
	}
	if ent.NDATA != "" {
		return xmlerrors.NewNotWellFormed(xmlerrors.UndefinedEntity, tok.Pos, "entity &%s; is unparsed and cannot appear in content", tok.Text)
	}
	if p.src.ContainsEntity(tok.Text) {
		return xmlerrors.NewNotWellFormed(xmlerrors.EntityRecursion, tok.Pos, "entity &%s; is recursive", tok.Text)
	}
	if p.src.Depth() >= p.opts.maxDepth() {
		return xmlerrors.NewNotWellFormed(xmlerrors.EntityRecursion, tok.Pos, "entity expansion exceeds the configured depth limit")
	}
	if ent.ExternalID.IsSet {
		if p.opts.Resolver == nil {
			return xmlerrors.NewNotWellFormed(xmlerrors.UndefinedEntity, tok.Pos, "entity &%s; is external but no entity resolver is configured", tok.Text)
		}
		r, closer, baseDir, err := p.opts.Resolver.Resolve(ent.ExternalID.Public, ent.ExternalID.System, p.src.CurrentBaseDir())
		if err != nil {
			return err
		}
		return p.src.PushBytes(tok.Text, baseDir, r, closer)
	}
	p.src.PushText(tok.Text, p.src.CurrentBaseDir(), ent.Value)
	return nil
}

// resolveEntityTextForAttribute returns the replacement text for a
// general entity referenced inside an attribute value. External
// general entities are forbidden there (XML 1.0 well-formedness
// constraint WFC: No External Entity References).
func (p *parser) resolveEntityTextForAttribute(name string, pos xmlerrors.Position) (string, error) {
	if repl, ok := predefinedEntities[name]; ok {
		return repl, nil
	}
	ent, ok := p.dtd.GeneralEntities[name]
	if !ok {
		return "", p.undefinedEntity(pos, "entity &%s; is not declared", name)
	}
	if ent.ExternalID.IsSet {
		return "", xmlerrors.NewNotWellFormed(xmlerrors.UndefinedEntity, pos, "entity &%s; is external and cannot appear in an attribute value", name)
	}
	return ent.Value, nil
}
