package parser

import (
	"strings"

	xmlerrors "github.com/jacoelho/xmlkit/errors"
	"github.com/jacoelho/xmlkit/internal/dtd"
)

// nchar is one normalized attribute-value code point, with a marker
// recording whether it is a collapsible space (spec.md §4.6 rule 1:
// literal whitespace and whitespace contributed by entity expansion)
// or a protected one (rule 2: a space produced by an explicit numeric
// character reference like "&#32;", which the author asked for
// verbatim and which must survive the non-CDATA collapse pass).
type nchar struct {
	r         rune
	protected bool
}

// normalizeAttrValue implements spec.md §4.6's two-pass attribute
// value normalization: pass 1 replaces character/entity references and
// literal whitespace; pass 2, skipped for CDATA attributes, collapses
// runs of collapsible spaces and trims the ends.
func (p *parser) normalizeAttrValue(raw string, pos xmlerrors.Position, attrType dtd.AttrType) (string, error) {
	chars, err := p.expandAttrText(raw, pos, 0)
	if err != nil {
		return "", err
	}
	if attrType == dtd.AttrCDATA {
		var b strings.Builder
		for _, c := range chars {
			b.WriteRune(c.r)
		}
		return b.String(), nil
	}
	return collapseSpaces(chars), nil
}

func (p *parser) expandAttrText(raw string, pos xmlerrors.Position, depth int) ([]nchar, error) {
	if depth > p.opts.maxDepth() {
		return nil, xmlerrors.NewNotWellFormed(xmlerrors.EntityRecursion, pos, "attribute-value entity expansion exceeds the configured depth limit")
	}
	var out []nchar
	runes := []rune(raw)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch r {
		case '<':
			return nil, xmlerrors.NewNotWellFormed(xmlerrors.UnexpectedToken, pos, "attribute values cannot contain a literal '<'")
		case '\t', '\n':
			out = append(out, nchar{r: ' ', protected: false})
		case '&':
			j := i + 1
			for j < len(runes) && runes[j] != ';' {
				j++
			}
			if j >= len(runes) {
				return nil, xmlerrors.NewNotWellFormed(xmlerrors.UnexpectedEOF, pos, "unterminated reference in attribute value")
			}
			ref := string(runes[i+1 : j])
			i = j
			if strings.HasPrefix(ref, "#") {
				cp, err := decodeNumericRef(ref[1:])
				if err != nil {
					return nil, xmlerrors.NewNotWellFormed(xmlerrors.UnexpectedToken, pos, "invalid character reference &%s;", ref)
				}
				out = append(out, nchar{r: cp, protected: cp == ' ' || cp == '\t' || cp == '\n' || cp == '\r'})
				continue
			}
			if repl, ok := predefinedEntities[ref]; ok {
				// Predefined replacements are literal characters, not rescanned.
				for _, c := range repl {
					out = append(out, nchar{r: c})
				}
				continue
			}
			text, err := p.resolveEntityTextForAttribute(ref, pos)
			if err != nil {
				return nil, err
			}
			inner, err := p.expandAttrText(text, pos, depth+1)
			if err != nil {
				return nil, err
			}
			out = append(out, inner...)
		default:
			out = append(out, nchar{r: r})
		}
	}
	return out, nil
}

func decodeNumericRef(digits string) (rune, error) {
	base := 10
	if strings.HasPrefix(digits, "x") {
		base = 16
		digits = digits[1:]
	}
	var v int64
	for _, d := range digits {
		var dv int64
		switch {
		case d >= '0' && d <= '9':
			dv = int64(d - '0')
		case base == 16 && d >= 'a' && d <= 'f':
			dv = int64(d-'a') + 10
		case base == 16 && d >= 'A' && d <= 'F':
			dv = int64(d-'A') + 10
		default:
			return 0, xmlerrors.NewNotWellFormed(xmlerrors.UnexpectedToken, xmlerrors.Position{}, "bad character reference digit")
		}
		v = v*int64(base) + dv
	}
	return rune(v), nil
}

// collapseSpaces implements pass 2 of spec.md §4.6: runs of
// collapsible spaces become one space, and leading/trailing
// collapsible spaces are trimmed. Protected spaces (from an explicit
// "&#32;"-style reference) are never merged away.
func collapseSpaces(chars []nchar) string {
	var b strings.Builder
	inRun := false
	// Trim leading collapsible spaces.
	start := 0
	for start < len(chars) && chars[start].r == ' ' && !chars[start].protected {
		start++
	}
	end := len(chars)
	for end > start && chars[end-1].r == ' ' && !chars[end-1].protected {
		end--
	}
	for _, c := range chars[start:end] {
		if c.r == ' ' && !c.protected {
			if inRun {
				continue
			}
			inRun = true
			b.WriteRune(' ')
			continue
		}
		inRun = false
		b.WriteRune(c.r)
	}
	return b.String()
}
