// Package charclass implements the XML 1.0 character classes used by the
// scanner and parser: Char, NameStartChar, NameChar, whitespace, and the
// PubidChar set used for public identifiers.
package charclass

import "unicode"

// IsChar reports whether r is a legal XML 1.0 character. U+FFFE, U+FFFF,
// and the surrogate range are excluded, as are C0 controls other than
// TAB, LF, and CR; other non-characters (such as U+FDD0) are accepted.
func IsChar(r rune) bool {
	switch {
	case r == 0x9 || r == 0xA || r == 0xD:
		return true
	case r >= 0x20 && r <= 0xD7FF:
		return true
	case r >= 0xE000 && r <= 0xFFFD:
		return true
	case r >= 0x10000 && r <= 0x10FFFF:
		return true
	default:
		return false
	}
}

// IsDisallowed reports whether r is explicitly disallowed content (the
// BMP non-characters U+FFFE/U+FFFF), distinct from merely falling
// outside the Char production.
func IsDisallowed(r rune) bool {
	return r == 0xFFFE || r == 0xFFFF
}

// IsSpace reports whether r is XML whitespace: TAB, LF, CR, or space.
func IsSpace(r rune) bool {
	switch r {
	case 0x20, 0x9, 0xD, 0xA:
		return true
	default:
		return false
	}
}

var nameStartRanges = []*unicode.RangeTable{
	{R16: []unicode.Range16{
		{0x003A, 0x003A, 1},
		{0x0041, 0x005A, 1},
		{0x005F, 0x005F, 1},
		{0x0061, 0x007A, 1},
		{0x00C0, 0x00D6, 1},
		{0x00D8, 0x00F6, 1},
		{0x00F8, 0x02FF, 1},
		{0x0370, 0x037D, 1},
		{0x037F, 0x1FFF, 1},
		{0x200C, 0x200D, 1},
		{0x2070, 0x218F, 1},
		{0x2C00, 0x2FEF, 1},
		{0x3001, 0xD7FF, 1},
		{0xF900, 0xFDCF, 1},
		{0xFDF0, 0xFFFD, 1},
	},
		R32: []unicode.Range32{
			{0x10000, 0xEFFFF, 1},
		}},
}

var nameExtraRanges = []*unicode.RangeTable{
	{R16: []unicode.Range16{
		{0x002D, 0x002E, 1}, // '-' and '.'
		{0x0030, 0x0039, 1}, // digits
		{0x00B7, 0x00B7, 1},
		{0x0300, 0x036F, 1},
		{0x203F, 0x2040, 1},
	}},
}

// IsNameStartChar reports whether r may begin an XML Name.
func IsNameStartChar(r rune) bool {
	return unicode.Is(nameStartRanges[0], r)
}

// IsNameChar reports whether r may appear in an XML Name after the first
// character.
func IsNameChar(r rune) bool {
	return IsNameStartChar(r) || unicode.Is(nameExtraRanges[0], r)
}

// IsPubidChar reports whether r belongs to the PubidChar production used
// in external identifiers' public identifier literals.
func IsPubidChar(r rune) bool {
	switch r {
	case 0x20, 0xD, 0xA, '-', '\'', '(', ')', '+', ',', '.', '/', ':', '=', '?', ';', '!', '*', '#', '@', '$', '_', '%':
		return true
	}
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	}
	return false
}

// IsEncNameChar reports whether r may appear in an EncName (the value of
// an XML/text declaration's encoding pseudo-attribute), after the first
// alphabetic character.
func IsEncNameChar(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '.' || r == '_' || r == '-':
		return true
	}
	return false
}
