package scanner

import (
	"strings"
	"testing"

	"github.com/jacoelho/xmlkit/internal/source"
)

func newScanner(t *testing.T, text string) *Scanner {
	t.Helper()
	s := source.NewStack()
	if err := s.PushBytes("", "", strings.NewReader(text), nil); err != nil {
		t.Fatal(err)
	}
	return New(s)
}

func TestScanMarkupXMLDecl(t *testing.T) {
	sc := newScanner(t, `<?xml version="1.0" encoding="UTF-8"?>`)
	tok, err := sc.NextMarkupToken()
	if err != nil {
		t.Fatal(err)
	}
	if tok.Kind != KindXMLDecl {
		t.Fatalf("kind = %v, want XMLDecl", tok.Kind)
	}
	if !strings.Contains(tok.Text, "version") {
		t.Errorf("text = %q", tok.Text)
	}
}

func TestScanMarkupDoctypeAndDecls(t *testing.T) {
	sc := newScanner(t, `<!DOCTYPE <!ELEMENT <!ATTLIST <!ENTITY <!NOTATION`)
	want := []Kind{KindDocType, KindSpace, KindElementDecl, KindSpace, KindAttListDecl, KindSpace, KindEntityDecl, KindSpace, KindNotationDecl}
	for i, k := range want {
		tok, err := sc.NextMarkupToken()
		if err != nil {
			t.Fatalf("token %d: %v", i, err)
		}
		if tok.Kind != k {
			t.Fatalf("token %d: kind = %v, want %v", i, tok.Kind, k)
		}
	}
}

func TestScanMarkupSTagETagName(t *testing.T) {
	sc := newScanner(t, `<root></root>`)
	tok, _ := sc.NextMarkupToken()
	if tok.Kind != KindSTag {
		t.Fatalf("kind = %v", tok.Kind)
	}
	name, _ := sc.NextMarkupToken()
	if name.Kind != KindName || name.Text != "root" {
		t.Fatalf("got %+v", name)
	}
	gt, _ := sc.NextMarkupToken()
	if gt.Kind != KindPunct || gt.Rune != '>' {
		t.Fatalf("got %+v", gt)
	}
	etag, _ := sc.NextMarkupToken()
	if etag.Kind != KindETag {
		t.Fatalf("got %+v", etag)
	}
	name2, _ := sc.NextMarkupToken()
	if name2.Kind != KindName || name2.Text != "root" {
		t.Fatalf("got %+v", name2)
	}
}

func TestScanMarkupStringAndPunct(t *testing.T) {
	sc := newScanner(t, `id="x" (a|b)`)
	tok, _ := sc.NextMarkupToken()
	if tok.Kind != KindName || tok.Text != "id" {
		t.Fatalf("got %+v", tok)
	}
	eq, _ := sc.NextMarkupToken()
	if eq.Kind != KindPunct || eq.Rune != '=' {
		t.Fatalf("got %+v", eq)
	}
	str, _ := sc.NextMarkupToken()
	if str.Kind != KindString || str.Text != "x" || str.Quote != '"' {
		t.Fatalf("got %+v", str)
	}
}

func TestScanMarkupPEReference(t *testing.T) {
	sc := newScanner(t, `%foo;`)
	tok, err := sc.NextMarkupToken()
	if err != nil {
		t.Fatal(err)
	}
	if tok.Kind != KindPEReference || tok.Text != "foo" {
		t.Fatalf("got %+v", tok)
	}
}

func TestScanMarkupComment(t *testing.T) {
	sc := newScanner(t, `<!-- hi there -->`)
	tok, err := sc.NextMarkupToken()
	if err != nil {
		t.Fatal(err)
	}
	if tok.Kind != KindComment || tok.Text != " hi there " {
		t.Fatalf("got %+v", tok)
	}
}

func TestScanMarkupUnterminatedCommentDashes(t *testing.T) {
	sc := newScanner(t, `<!-- a -- b -->`)
	if _, err := sc.NextMarkupToken(); err == nil {
		t.Fatal("expected error for '--' inside comment")
	}
}

func TestScanContentTextAndEntity(t *testing.T) {
	sc := newScanner(t, `hello &amp; world<br/>`)
	tok, err := sc.NextContentToken()
	if err != nil {
		t.Fatal(err)
	}
	if tok.Kind != KindContent || tok.Text != "hello " {
		t.Fatalf("got %+v", tok)
	}
	ref, err := sc.NextContentToken()
	if err != nil {
		t.Fatal(err)
	}
	if ref.Kind != KindReference || ref.Text != "amp" {
		t.Fatalf("got %+v", ref)
	}
	rest, err := sc.NextContentToken()
	if err != nil {
		t.Fatal(err)
	}
	if rest.Kind != KindContent || rest.Text != " world" {
		t.Fatalf("got %+v", rest)
	}
	stag, err := sc.NextContentToken()
	if err != nil {
		t.Fatal(err)
	}
	if stag.Kind != KindSTag {
		t.Fatalf("got %+v", stag)
	}
}

func TestScanContentCharRef(t *testing.T) {
	sc := newScanner(t, `&#65;&#x42;`)
	tok, err := sc.NextContentToken()
	if err != nil {
		t.Fatal(err)
	}
	if tok.Kind != KindContent || tok.Text != "A" {
		t.Fatalf("got %+v", tok)
	}
	tok2, err := sc.NextContentToken()
	if err != nil {
		t.Fatal(err)
	}
	if tok2.Kind != KindContent || tok2.Text != "B" {
		t.Fatalf("got %+v", tok2)
	}
}

func TestScanContentCDATA(t *testing.T) {
	sc := newScanner(t, `<![CDATA[a]]b]]>`)
	tok, err := sc.NextContentToken()
	if err != nil {
		t.Fatal(err)
	}
	if tok.Kind != KindCDSect || tok.Text != "a]]b" {
		t.Fatalf("got %+v", tok)
	}
}

func TestScanContentRejectsBareSectionClose(t *testing.T) {
	sc := newScanner(t, `a]]>b`)
	if _, err := sc.NextContentToken(); err == nil {
		t.Fatal("expected error for bare ']]>' in content")
	}
}

func TestScanContentComment(t *testing.T) {
	sc := newScanner(t, `<!--c-->`)
	tok, err := sc.NextContentToken()
	if err != nil {
		t.Fatal(err)
	}
	if tok.Kind != KindComment || tok.Text != "c" {
		t.Fatalf("got %+v", tok)
	}
}

func TestScanContentPI(t *testing.T) {
	sc := newScanner(t, `<?target data here?>`)
	tok, err := sc.NextContentToken()
	if err != nil {
		t.Fatal(err)
	}
	if tok.Kind != KindPI || tok.Target != "target" || tok.Text != "data here" {
		t.Fatalf("got %+v", tok)
	}
}

func TestScanUnreadToken(t *testing.T) {
	sc := newScanner(t, `<root/>`)
	first, _ := sc.NextMarkupToken()
	sc.UnreadToken(first)
	second, _ := sc.NextMarkupToken()
	if second.Kind != first.Kind {
		t.Fatalf("got %+v, want %+v", second, first)
	}
}

func TestScanEOF(t *testing.T) {
	sc := newScanner(t, ``)
	tok, err := sc.NextMarkupToken()
	if err != nil {
		t.Fatal(err)
	}
	if tok.Kind != KindEOF {
		t.Fatalf("got %+v", tok)
	}
}

func TestScanEntityValueExpandsParameterEntity(t *testing.T) {
	sc := newScanner(t, `"x %p; y"`)
	resolve := func(name string) (string, bool) {
		if name == "p" {
			return "foo", true
		}
		return "", false
	}
	tok, err := sc.NextEntityValueToken(resolve)
	if err != nil {
		t.Fatal(err)
	}
	if tok.Kind != KindString || tok.Text != "x foo y" {
		t.Fatalf("got %+v, want text %q", tok, "x foo y")
	}
}

func TestScanEntityValueExpandsNestedParameterEntity(t *testing.T) {
	sc := newScanner(t, `"%outer;"`)
	resolve := func(name string) (string, bool) {
		switch name {
		case "outer":
			return "a %inner; b", true
		case "inner":
			return "mid", true
		}
		return "", false
	}
	tok, err := sc.NextEntityValueToken(resolve)
	if err != nil {
		t.Fatal(err)
	}
	if tok.Text != "a mid b" {
		t.Fatalf("text = %q, want %q", tok.Text, "a mid b")
	}
}

func TestScanEntityValueUndeclaredParameterEntity(t *testing.T) {
	sc := newScanner(t, `"%missing;"`)
	resolve := func(name string) (string, bool) { return "", false }
	if _, err := sc.NextEntityValueToken(resolve); err == nil {
		t.Fatal("expected an error for an undeclared parameter entity")
	}
}

func TestScanEntityValueLeavesGeneralReferenceLiteral(t *testing.T) {
	sc := newScanner(t, `"&amp; stays literal"`)
	resolve := func(name string) (string, bool) { return "", false }
	tok, err := sc.NextEntityValueToken(resolve)
	if err != nil {
		t.Fatal(err)
	}
	if tok.Text != "&amp; stays literal" {
		t.Fatalf("text = %q", tok.Text)
	}
}
