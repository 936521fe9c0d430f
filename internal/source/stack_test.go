package source

import (
	"io"
	"strings"
	"testing"
)

func drain(t *testing.T, s *Stack) string {
	t.Helper()
	var b strings.Builder
	for {
		r, err := s.Next()
		if err == io.EOF {
			return b.String()
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		b.WriteRune(r)
	}
}

func TestStackPushBytesUTF8(t *testing.T) {
	s := NewStack()
	if err := s.PushBytes("", "", strings.NewReader("<r>hi</r>"), nil); err != nil {
		t.Fatal(err)
	}
	if got := drain(t, s); got != "<r>hi</r>" {
		t.Errorf("got %q", got)
	}
}

func TestStackNewlineNormalization(t *testing.T) {
	s := NewStack()
	if err := s.PushBytes("", "", strings.NewReader("a\r\nb\rc\nd"), nil); err != nil {
		t.Fatal(err)
	}
	if got := drain(t, s); got != "a\nb\nc\nd" {
		t.Errorf("got %q", got)
	}
}

func TestStackEntityPushPop(t *testing.T) {
	s := NewStack()
	if err := s.PushBytes("", "", strings.NewReader("AB"), nil); err != nil {
		t.Fatal(err)
	}
	s.PushText("e", "", "12")
	if !s.ContainsEntity("e") {
		t.Fatal("expected entity frame on stack")
	}
	if got := drain(t, s); got != "12AB" {
		t.Errorf("got %q", got)
	}
	if s.Depth() != 1 {
		t.Errorf("depth = %d, want 1 (outer frame never pops on EOF)", s.Depth())
	}
}

func TestStackRetract(t *testing.T) {
	s := NewStack()
	if err := s.PushBytes("", "", strings.NewReader("xy"), nil); err != nil {
		t.Fatal(err)
	}
	r, _ := s.Next()
	if r != 'x' {
		t.Fatalf("got %q", r)
	}
	s.Retract(r)
	if got := drain(t, s); got != "xy" {
		t.Errorf("got %q after retract", got)
	}
}

func TestSniffUTF16BOM(t *testing.T) {
	enc, n := Sniff([]byte{0xFF, 0xFE, 'a', 0})
	if enc != EncUTF16LE || n != 2 {
		t.Errorf("got %v,%d", enc, n)
	}
}

func TestSniffSignatureNoBOM(t *testing.T) {
	enc, n := Sniff([]byte{0x00, '<', 0x00, '?'})
	if enc != EncUTF16BE || n != 0 {
		t.Errorf("got %v,%d", enc, n)
	}
}
