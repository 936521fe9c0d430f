package writer_test

import (
	"strings"
	"testing"

	"github.com/jacoelho/xmlkit/internal/parser"
	"github.com/jacoelho/xmlkit/internal/source"
	"github.com/jacoelho/xmlkit/internal/writer"
)

func parseDoc(t *testing.T, doc string, opts parser.Options) *parser.Result {
	t.Helper()
	src := source.NewStack()
	if err := src.PushBytes("", "", strings.NewReader(doc), nil); err != nil {
		t.Fatalf("PushBytes() error = %v", err)
	}
	res, err := parser.Parse(src, opts)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return res
}

func TestWriteRoundTripsElementsAttributesAndText(t *testing.T) {
	res := parseDoc(t, `<r a="1"><b>hi</b></r>`, parser.Options{})

	var sb strings.Builder
	if err := writer.Write(&sb, res.Tree, nil, writer.Options{}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got := sb.String()
	for _, want := range []string{`<r a="1">`, `<b>hi</b>`, `</r>`} {
		if !strings.Contains(got, want) {
			t.Errorf("Write() output %q missing %q", got, want)
		}
	}
}

func TestWriteCollapseEmptyElements(t *testing.T) {
	res := parseDoc(t, `<r><empty></empty></r>`, parser.Options{})

	var sb strings.Builder
	opts := writer.Options{CollapseEmptyElements: true}
	if err := writer.Write(&sb, res.Tree, nil, opts); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if !strings.Contains(sb.String(), "<empty/>") {
		t.Errorf("Write() output %q, want self-closed <empty/>", sb.String())
	}
}

func TestWriteNoCommentSuppression(t *testing.T) {
	res := parseDoc(t, `<r><!--note--><a/></r>`, parser.Options{})

	var sb strings.Builder
	if err := writer.Write(&sb, res.Tree, nil, writer.Options{NoComment: true}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if strings.Contains(sb.String(), "note") {
		t.Errorf("Write() output %q, want comment suppressed", sb.String())
	}
}

func TestWritePreservesNamespaceDeclarations(t *testing.T) {
	res := parseDoc(t, `<r xmlns:p="urn:x"><p:a/></r>`, parser.Options{})

	var sb strings.Builder
	if err := writer.Write(&sb, res.Tree, nil, writer.Options{}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	got := sb.String()
	if !strings.Contains(got, `xmlns:p="urn:x"`) {
		t.Errorf("Write() output %q missing namespace declaration", got)
	}
	if !strings.Contains(got, "<p:a") {
		t.Errorf("Write() output %q missing prefixed element", got)
	}
}

func TestWriteTrimCollapsesWhitespaceText(t *testing.T) {
	res := parseDoc(t, "<r><a>  \n  </a></r>", parser.Options{})

	var sb strings.Builder
	if err := writer.Write(&sb, res.Tree, nil, writer.Options{Trim: true, CollapseEmptyElements: true}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if !strings.Contains(sb.String(), "<a/>") {
		t.Errorf("Write() output %q, want whitespace-only text trimmed away", sb.String())
	}
}

func TestWriteEscapesAttributeAndTextSpecials(t *testing.T) {
	res := parseDoc(t, `<r a="&quot;&amp;&lt;&gt;"><b>&amp;&lt;&gt;</b></r>`, parser.Options{})

	var sb strings.Builder
	if err := writer.Write(&sb, res.Tree, nil, writer.Options{}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	got := sb.String()
	if !strings.Contains(got, `&quot;&amp;&lt;&gt;`) {
		t.Errorf("Write() attribute escaping wrong: %q", got)
	}
	if !strings.Contains(got, `&amp;&lt;&gt;`) {
		t.Errorf("Write() text escaping wrong: %q", got)
	}
}

func TestWriteUnsupportedEncodingRejected(t *testing.T) {
	res := parseDoc(t, `<r/>`, parser.Options{})

	var sb strings.Builder
	err := writer.Write(&sb, res.Tree, nil, writer.Options{Encoding: "EBCDIC"})
	if err == nil {
		t.Fatal("Write() err = nil, want error for unsupported encoding")
	}
}

func TestWriteCDATASectionPreserved(t *testing.T) {
	res := parseDoc(t, `<r><![CDATA[<raw>]]></r>`, parser.Options{PreserveCDATA: true})

	var sb strings.Builder
	if err := writer.Write(&sb, res.Tree, nil, writer.Options{}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if !strings.Contains(sb.String(), "<![CDATA[<raw>]]>") {
		t.Errorf("Write() output %q, want CDATA section preserved", sb.String())
	}
}
