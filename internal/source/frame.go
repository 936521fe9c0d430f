package source

import (
	"io"

	xmlerrors "github.com/jacoelho/xmlkit/errors"
	"github.com/jacoelho/xmlkit/internal/charclass"
)

// frame is one stackable character producer. Expanding an entity
// reference pushes a new frame whose text is the entity's replacement;
// end-of-input on a pushed frame pops it (spec.md §4.1).
type frame struct {
	dec         runeDecoder
	closer      io.Closer
	name        string // entity name, if this frame is an entity expansion
	baseDir     string
	pushback    []positioned
	nestingID   int
	line, col   int
	autoDiscard bool    // parameter-entity frames pop automatically on EOF (all frames do; kept for diagnostics)
	encoding    Encoding
}

type positioned struct {
	r    rune
	line int
	col  int
}

func newFrame(dec runeDecoder, closer io.Closer, name, baseDir string, nestingID int, autoDiscard bool, enc Encoding) *frame {
	return &frame{
		dec:         dec,
		closer:      closer,
		name:        name,
		baseDir:     baseDir,
		nestingID:   nestingID,
		line:        1,
		col:         1,
		autoDiscard: autoDiscard,
		encoding:    enc,
	}
}

// rawNext reads one validated, newline-normalized code point from the
// decoder, without touching the pushback buffer or advancing position.
func (f *frame) rawNext() (rune, error) {
	r, err := f.dec.next()
	if err != nil {
		return 0, err
	}
	if r == '\r' {
		nr, err := f.dec.next()
		if err != nil && err != io.EOF {
			return 0, err
		}
		if err == nil && nr != '\n' {
			if verr := f.validate(nr, f.line, f.col); verr != nil {
				return 0, verr
			}
			f.pushback = append(f.pushback, positioned{r: nr, line: f.line, col: f.col})
		}
		r = '\n'
	}
	if err := f.validate(r, f.line, f.col); err != nil {
		return 0, err
	}
	return r, nil
}

// next returns the next code point from this frame only.
func (f *frame) next() (rune, error) {
	if n := len(f.pushback); n > 0 {
		p := f.pushback[n-1]
		f.pushback = f.pushback[:n-1]
		f.line, f.col = p.line, p.col
		f.advance(p.r)
		return p.r, nil
	}
	r, err := f.rawNext()
	if err != nil {
		return 0, err
	}
	f.advance(r)
	return r, nil
}

// retract pushes a previously returned code point back onto this
// frame, undoing the line/column advance.
func (f *frame) retract(r rune) {
	if r == '\n' {
		f.line--
		f.col = 1
	} else if f.col > 1 {
		f.col--
	}
	f.pushback = append(f.pushback, positioned{r: r, line: f.line, col: f.col})
}

func (f *frame) advance(r rune) {
	if r == '\n' {
		f.line++
		f.col = 1
	} else {
		f.col++
	}
}

func (f *frame) validate(r rune, line, col int) error {
	if charclass.IsDisallowed(r) {
		return xmlerrors.NewNotWellFormed(xmlerrors.DisallowedChar, xmlerrors.Position{Line: line, Column: col},
			"character U+%04X is disallowed", r)
	}
	if !charclass.IsChar(r) {
		return xmlerrors.NewNotWellFormed(xmlerrors.DisallowedChar, xmlerrors.Position{Line: line, Column: col},
			"character U+%04X is not legal in XML content", r)
	}
	return nil
}

func (f *frame) close() {
	if f.closer != nil {
		_ = f.closer.Close()
	}
}
