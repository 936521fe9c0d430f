// Package source implements the data-source stack described in
// spec.md §4.1 and §9: a stack of character-producing frames with
// encoding detection, line tracking, and entity-recursion detection.
package source

import (
	"bufio"
	"io"

	xmlerrors "github.com/jacoelho/xmlkit/errors"
)

// Stack is a stack of data-source frames. The outer (first-pushed)
// frame never pops; expanding an entity pushes a frame that is popped
// automatically at its own end-of-input.
type Stack struct {
	frames        []*frame
	nextNestingID int
}

// NewStack returns an empty data-source stack.
func NewStack() *Stack {
	return &Stack{}
}

// PushBytes sniffs the encoding of r and pushes a new frame decoding
// it. name is the entity name for recursion detection, empty for the
// document entity and for the DTD external subset. closer, if not
// nil, is closed when the frame pops (owned external-entity streams).
func (s *Stack) PushBytes(name, baseDir string, r io.Reader, closer io.Closer) error {
	br := bufio.NewReader(r)
	peek, _ := br.Peek(4)
	enc, bomLen := Sniff(peek)
	if bomLen > 0 {
		if _, err := br.Discard(bomLen); err != nil {
			return err
		}
	}
	dec := newRuneDecoder(enc, br)
	f := newFrame(dec, closer, name, baseDir, s.newNestingID(), true, enc)
	s.frames = append(s.frames, f)
	return nil
}

// PushText pushes a frame over in-memory UTF-8 text, such as a general
// or parameter entity's already-resolved replacement text. Per
// spec.md §4.3, parameter-entity replacements are wrapped with one
// leading and one trailing space before being pushed; callers do that
// wrapping before calling PushText.
func (s *Stack) PushText(name, baseDir, text string) {
	dec := &utf8Decoder{br: bufio.NewReader(newStringReader(text))}
	f := newFrame(dec, nil, name, baseDir, s.newNestingID(), true, EncUTF8)
	s.frames = append(s.frames, f)
}

func newStringReader(s string) io.Reader {
	return &stringReader{s: s}
}

type stringReader struct {
	s string
	i int
}

func (r *stringReader) Read(p []byte) (int, error) {
	if r.i >= len(r.s) {
		return 0, io.EOF
	}
	n := copy(p, r.s[r.i:])
	r.i += n
	return n, nil
}

func (s *Stack) newNestingID() int {
	s.nextNestingID++
	return s.nextNestingID
}

// Pop discards the current top frame, closing its owned stream.
func (s *Stack) Pop() {
	n := len(s.frames)
	if n == 0 {
		return
	}
	top := s.frames[n-1]
	top.close()
	s.frames = s.frames[:n-1]
}

// Next reads the next code point, transparently popping exhausted
// frames. The outermost frame's EOF is returned as io.EOF without
// popping, so repeated calls keep reporting EOF.
func (s *Stack) Next() (rune, error) {
	for {
		n := len(s.frames)
		if n == 0 {
			return 0, io.EOF
		}
		top := s.frames[n-1]
		r, err := top.next()
		if err == nil {
			return r, nil
		}
		if err != io.EOF {
			return 0, err
		}
		if n == 1 {
			return 0, io.EOF
		}
		s.Pop()
	}
}

// Retract pushes a code point back onto the current top frame.
func (s *Stack) Retract(r rune) {
	if n := len(s.frames); n > 0 {
		s.frames[n-1].retract(r)
	}
}

// Depth reports the number of frames currently on the stack.
func (s *Stack) Depth() int {
	return len(s.frames)
}

// CurrentLine reports the current top frame's line number.
func (s *Stack) CurrentLine() int {
	if n := len(s.frames); n > 0 {
		return s.frames[n-1].line
	}
	return 0
}

// CurrentColumn reports the current top frame's column number.
func (s *Stack) CurrentColumn() int {
	if n := len(s.frames); n > 0 {
		return s.frames[n-1].col
	}
	return 0
}

// Position returns the current top frame's position.
func (s *Stack) Position() xmlerrors.Position {
	return xmlerrors.Position{Line: s.CurrentLine(), Column: s.CurrentColumn()}
}

// CurrentBaseDir reports the current top frame's base directory, used
// to resolve external identifiers relative to their including source.
func (s *Stack) CurrentBaseDir() string {
	if n := len(s.frames); n > 0 {
		return s.frames[n-1].baseDir
	}
	return ""
}

// CurrentNestingID reports the current top frame's nesting id, used by
// the proper-nesting validator (spec.md §4.7).
func (s *Stack) CurrentNestingID() int {
	if n := len(s.frames); n > 0 {
		return s.frames[n-1].nestingID
	}
	return 0
}

// CurrentDecoderEncoding reports the byte encoding the current top
// frame was sniffed as, for the XML/text declaration's EncodingMismatch
// check.
func (s *Stack) CurrentDecoderEncoding() Encoding {
	if n := len(s.frames); n > 0 {
		return s.frames[n-1].encoding
	}
	return EncUTF8
}

// ContainsEntity walks the stack looking for a frame tagged with the
// given entity name, detecting recursive entity expansion.
func (s *Stack) ContainsEntity(name string) bool {
	for _, f := range s.frames {
		if f.name != "" && f.name == name {
			return true
		}
	}
	return false
}

// CurrentEntityName reports the entity name of the current top frame,
// or "" if it is not an entity expansion.
func (s *Stack) CurrentEntityName() string {
	if n := len(s.frames); n > 0 {
		return s.frames[n-1].name
	}
	return ""
}

// Close pops and closes every frame in reverse order of push.
func (s *Stack) Close() {
	for len(s.frames) > 0 {
		s.Pop()
	}
}
