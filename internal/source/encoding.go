package source

import "bytes"

// Encoding identifies one of the byte encodings spec.md §4.1 requires
// the data-source stack to detect before the first read.
type Encoding int

const (
	// EncUTF8 covers both UTF-8 and the ASCII subset of it; nothing
	// distinguishes them at the byte-sniffing stage.
	EncUTF8 Encoding = iota
	EncISO88591
	EncUTF16LE
	EncUTF16BE
)

func (e Encoding) String() string {
	switch e {
	case EncUTF8:
		return "UTF-8"
	case EncISO88591:
		return "ISO-8859-1"
	case EncUTF16LE:
		return "UTF-16LE"
	case EncUTF16BE:
		return "UTF-16BE"
	default:
		return "unknown"
	}
}

// Sniff inspects the first bytes of a stream and reports the detected
// encoding plus the number of leading BOM bytes to discard: a UTF-8 or
// UTF-16 BOM, or the UTF-16 form of the "<?" signature without a BOM.
// Anything else is reported as UTF-8; Sniff never reports ISO-8859-1.
func Sniff(peek []byte) (enc Encoding, bomLen int) {
	switch {
	case bytes.HasPrefix(peek, []byte{0xEF, 0xBB, 0xBF}):
		return EncUTF8, 3
	case bytes.HasPrefix(peek, []byte{0xFE, 0xFF}):
		return EncUTF16BE, 2
	case bytes.HasPrefix(peek, []byte{0xFF, 0xFE}):
		return EncUTF16LE, 2
	case bytes.HasPrefix(peek, []byte{0x00, '<', 0x00, '?'}):
		return EncUTF16BE, 0
	case bytes.HasPrefix(peek, []byte{'<', 0x00, '?', 0x00}):
		return EncUTF16LE, 0
	default:
		return EncUTF8, 0
	}
}

// DeclaredEncodingMatches reports whether a label from an XML/text
// declaration's encoding pseudo-attribute is consistent with the
// sniffed byte encoding, for the EncodingMismatch check in spec.md §4.3.
func DeclaredEncodingMatches(enc Encoding, label string) bool {
	switch enc {
	case EncUTF16LE, EncUTF16BE:
		return hasFold(label, "utf-16") || hasFold(label, "utf16")
	case EncISO88591:
		return hasFold(label, "iso-8859-1") || hasFold(label, "latin1") || hasFold(label, "latin-1")
	default:
		return true // input sniffed as UTF-8 accepts any declared label
	}
}

func hasFold(s, sub string) bool {
	return len(s) >= len(sub) && foldContains(s, sub)
}

func foldContains(s, sub string) bool {
	ls, lsub := []rune(s), []rune(sub)
	for i := 0; i+len(lsub) <= len(ls); i++ {
		match := true
		for j, r := range lsub {
			a, b := toLower(ls[i+j]), toLower(r)
			if a != b {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func toLower(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}
