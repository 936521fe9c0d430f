package xmlkit_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jacoelho/xmlkit"
)

func TestParseFindAndWriteRoundTrip(t *testing.T) {
	doc, warnings, err := xmlkit.ParseString(`<r a="1"><x>hi</x><x>bye</x></r>`, xmlkit.NewParseOptions())
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	if warnings.Len() != 0 {
		t.Fatalf("Len() = %d warnings, want 0: %v", warnings.Len(), warnings.Err())
	}

	nodes, err := doc.Find("/r/x")
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("Find() returned %d nodes, want 2", len(nodes))
	}

	out, err := doc.WriteString(xmlkit.NewWriterOptions().WithCollapseEmptyElements(true))
	if err != nil {
		t.Fatalf("WriteString() error = %v", err)
	}
	if !strings.Contains(out, `<r a="1">`) {
		t.Errorf("WriteString() = %q, missing root attribute", out)
	}
}

func TestDocumentEqualStructural(t *testing.T) {
	a, _, err := xmlkit.ParseString(`<r><a/><b/></r>`, xmlkit.NewParseOptions())
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	b, _, err := xmlkit.ParseString(`<r><a/><b/></r>`, xmlkit.NewParseOptions())
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	c, _, err := xmlkit.ParseString(`<r><a/><c/></r>`, xmlkit.NewParseOptions())
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}

	if !a.Equal(b) {
		t.Error("Equal() = false for identical documents, want true")
	}
	if a.Equal(c) {
		t.Error("Equal() = true for structurally different documents, want false")
	}
}

func TestFindFirstAndMatches(t *testing.T) {
	doc, _, err := xmlkit.ParseString(`<r><a flag="1"/><a flag="0"/></r>`, xmlkit.NewParseOptions())
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}

	node, ok, err := doc.FindFirst(`//a[@flag='1']`)
	if err != nil {
		t.Fatalf("FindFirst() error = %v", err)
	}
	if !ok {
		t.Fatal("FindFirst() ok = false, want true")
	}

	matched, err := doc.Matches(`@flag='1'`, node)
	if err != nil {
		t.Fatalf("Matches() error = %v", err)
	}
	if !matched {
		t.Error("Matches() = false, want true")
	}
}

func TestParseInvalidUndeclaredAttributeCollectsWarning(t *testing.T) {
	doc := `<!DOCTYPE r [<!ELEMENT r EMPTY><!ATTLIST r known CDATA #IMPLIED>]><r unknown="x"/>`
	_, warnings, err := xmlkit.ParseString(doc, xmlkit.NewParseOptions())
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	if warnings.Len() == 0 {
		t.Fatal("Len() = 0, want at least one undeclared-attribute warning")
	}
}

func TestDocumentDiffReportsFirstMismatch(t *testing.T) {
	a, _, err := xmlkit.ParseString(`<r><a/></r>`, xmlkit.NewParseOptions())
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	b, _, err := xmlkit.ParseString(`<r><b/></r>`, xmlkit.NewParseOptions())
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	aName, _, _ := a.FindFirst("/r/*")
	bName, _, _ := b.FindFirst("/r/*")
	if diff := cmp.Diff(a.QName(aName), b.QName(bName)); diff == "" {
		t.Error("cmp.Diff() = \"\", want a reported difference between child element names")
	}
}
