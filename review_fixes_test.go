package xmlkit_test

import (
	"errors"
	"strings"
	"testing"

	xmlerrors "github.com/jacoelho/xmlkit/errors"
	"github.com/jacoelho/xmlkit/internal/domtree"
	"github.com/jacoelho/xmlkit/internal/nsscope"

	"github.com/jacoelho/xmlkit"
)

func TestParseEntityValueExpandsParameterEntityAtDeclaration(t *testing.T) {
	doc := `<!DOCTYPE r [<!ENTITY % p "foo"><!ENTITY e "x %p; y"><!ELEMENT r (#PCDATA)>]><r>&e;</r>`
	parsed, _, err := xmlkit.ParseString(doc, xmlkit.NewParseOptions())
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	out, err := parsed.WriteString(xmlkit.NewWriterOptions().WithNoDoctype(true))
	if err != nil {
		t.Fatalf("WriteString() error = %v", err)
	}
	if !strings.Contains(out, "x foo y") {
		t.Fatalf("output = %q, want entity value's %%p; expanded to %q at declaration time", out, "x foo y")
	}
}

func TestParseUnresolvedIDRefIsWarningByDefault(t *testing.T) {
	doc := `<!DOCTYPE r [<!ELEMENT r EMPTY><!ATTLIST r ref IDREF #REQUIRED>]><r ref="missing"/>`
	_, warnings, err := xmlkit.ParseString(doc, xmlkit.NewParseOptions())
	if err != nil {
		t.Fatalf("ParseString() error = %v, want nil (non-validating should not fail)", err)
	}
	if warnings.Len() == 0 {
		t.Fatal("warnings.Len() = 0, want at least one unresolved-IDREF warning")
	}
}

func TestParseUnresolvedIDRefFailsWhenValidating(t *testing.T) {
	doc := `<!DOCTYPE r [<!ELEMENT r EMPTY><!ATTLIST r ref IDREF #REQUIRED>]><r ref="missing"/>`
	_, _, err := xmlkit.ParseString(doc, xmlkit.NewParseOptions().WithValidating(true))
	if err == nil {
		t.Fatal("ParseString() error = nil, want UnresolvedIDRef failure under WithValidating(true)")
	}
	var invalid *xmlerrors.Invalid
	if errors.As(err, &invalid) {
		if invalid.Code != xmlerrors.UnresolvedIDRef {
			t.Fatalf("Code = %v, want %v", invalid.Code, xmlerrors.UnresolvedIDRef)
		}
	}
}

func TestParseXMLIDAttributeIsIDWithoutDTD(t *testing.T) {
	doc := `<r xml:id="a"><c xml:id="a"/></r>`
	_, _, err := xmlkit.ParseString(doc, xmlkit.NewParseOptions())
	if err == nil {
		t.Fatal("ParseString() error = nil, want a duplicate-ID failure for repeated xml:id values with no DTD")
	}
	var nwf *xmlerrors.NotWellFormed
	if errors.As(err, &nwf) && nwf.Code != xmlerrors.DuplicateID {
		t.Fatalf("Code = %v, want %v", nwf.Code, xmlerrors.DuplicateID)
	}
}

func TestDomtreeXMLIDAttributeFlaggedIsID(t *testing.T) {
	tr := domtree.New()
	root := tr.AddElement(tr.Root(), "", "r")
	attrID := tr.AddAttribute(root, nsscope.XMLPrefix, "id", "a", true)
	if !tr.Node(attrID).IsID {
		t.Fatal("IsID = false, want true for an xml:id attribute")
	}
}

func TestParseUndefinedEntityIsWarningWhenExternalSubsetUnread(t *testing.T) {
	doc := `<!DOCTYPE r SYSTEM "unreachable.dtd" [<!ELEMENT r (#PCDATA)>]><r>&maybeExternal;</r>`
	_, warnings, err := xmlkit.ParseString(doc, xmlkit.NewParseOptions())
	if err != nil {
		t.Fatalf("ParseString() error = %v, want nil: the entity might be declared in the unread external subset", err)
	}
	if warnings.Len() == 0 {
		t.Fatal("warnings.Len() = 0, want at least one undefined-entity warning")
	}
}

func TestParseUndefinedEntityFailsWithNoExternalSubset(t *testing.T) {
	doc := `<!DOCTYPE r [<!ELEMENT r (#PCDATA)>]><r>&neverDeclared;</r>`
	_, _, err := xmlkit.ParseString(doc, xmlkit.NewParseOptions())
	if err == nil {
		t.Fatal("ParseString() error = nil, want UndefinedEntity failure: no external subset could declare it")
	}
	var nwf *xmlerrors.NotWellFormed
	if errors.As(err, &nwf) && nwf.Code != xmlerrors.UndefinedEntity {
		t.Fatalf("Code = %v, want %v", nwf.Code, xmlerrors.UndefinedEntity)
	}
}

func TestParsePEReferenceInInternalSubsetDeclarationFailsPEContext(t *testing.T) {
	doc := `<!DOCTYPE r [<!ENTITY % attrs "a CDATA #IMPLIED"><!ELEMENT r EMPTY><!ATTLIST r %attrs;>]><r/>`
	_, _, err := xmlkit.ParseString(doc, xmlkit.NewParseOptions())
	if err == nil {
		peRef := "%pe;"
		t.Fatal("ParseString() error = nil, want PEContext failure for a " + peRef + " inside an ATTLIST's tokens in the internal subset")
	}
	var nwf *xmlerrors.NotWellFormed
	if errors.As(err, &nwf) && nwf.Code != xmlerrors.PEContext {
		t.Fatalf("Code = %v, want %v", nwf.Code, xmlerrors.PEContext)
	}
}
