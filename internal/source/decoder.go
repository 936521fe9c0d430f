package source

import (
	"bufio"
	"io"
	"unicode/utf16"
	"unicode/utf8"

	xmlerrors "github.com/jacoelho/xmlkit/errors"
)

// runeDecoder produces one Unicode scalar value per call, decoded
// from the underlying byte encoding.
type runeDecoder interface {
	next() (rune, error)
}

func newRuneDecoder(enc Encoding, r io.Reader) runeDecoder {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	switch enc {
	case EncISO88591:
		return &latin1Decoder{br: br}
	case EncUTF16LE:
		return &utf16Decoder{br: br, bigEndian: false}
	case EncUTF16BE:
		return &utf16Decoder{br: br, bigEndian: true}
	default:
		return &utf8Decoder{br: br}
	}
}

// utf8Decoder decodes well-formed UTF-8 (and its ASCII subset),
// reporting IllEncoded on any malformed sequence.
type utf8Decoder struct {
	br *bufio.Reader
}

func (d *utf8Decoder) next() (rune, error) {
	r, size, err := d.br.ReadRune()
	if err != nil {
		return 0, err
	}
	if r == utf8.RuneError && size == 1 {
		return 0, xmlerrors.NewNotWellFormed(xmlerrors.IllEncoded, xmlerrors.Position{}, "invalid UTF-8 byte sequence")
	}
	return r, nil
}

// latin1Decoder decodes ISO-8859-1: every byte value maps directly to
// the identical Unicode code point.
type latin1Decoder struct {
	br *bufio.Reader
}

func (d *latin1Decoder) next() (rune, error) {
	b, err := d.br.ReadByte()
	if err != nil {
		return 0, err
	}
	return rune(b), nil
}

// utf16Decoder decodes UTF-16 (LE or BE), validating surrogate pairing
// by hand so an unpaired surrogate reports SurrogateSplit distinctly
// from a merely truncated stream.
type utf16Decoder struct {
	br        *bufio.Reader
	bigEndian bool
}

func (d *utf16Decoder) readUnit() (uint16, error) {
	b0, err := d.br.ReadByte()
	if err != nil {
		return 0, err
	}
	b1, err := d.br.ReadByte()
	if err != nil {
		if err == io.EOF {
			return 0, io.ErrUnexpectedEOF
		}
		return 0, err
	}
	if d.bigEndian {
		return uint16(b0)<<8 | uint16(b1), nil
	}
	return uint16(b1)<<8 | uint16(b0), nil
}

func (d *utf16Decoder) next() (rune, error) {
	unit1, err := d.readUnit()
	if err != nil {
		return 0, err
	}
	r1 := rune(unit1)
	if !utf16.IsSurrogate(r1) {
		return r1, nil
	}
	unit2, err := d.readUnit()
	if err != nil {
		return 0, xmlerrors.NewNotWellFormed(xmlerrors.SurrogateSplit, xmlerrors.Position{}, "truncated surrogate pair")
	}
	dec := utf16.DecodeRune(r1, rune(unit2))
	if dec == utf8.RuneError {
		return 0, xmlerrors.NewNotWellFormed(xmlerrors.SurrogateSplit, xmlerrors.Position{}, "unpaired UTF-16 surrogate")
	}
	return dec, nil
}
