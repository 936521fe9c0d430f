package xpath_test

import (
	"testing"

	antchfx "github.com/antchfx/xpath"

	"github.com/jacoelho/xmlkit/internal/xpath"
)

// TestGrammarAcceptanceAgainstAntchfx cross-checks this package's
// compiler against antchfx/xpath's independent XPath 1.0 implementation:
// for a battery of expressions drawn from spec.md §4.8's axis/function
// list, both compilers must agree on whether the expression is
// syntactically valid XPath 1.0. This does not validate evaluation
// semantics (antchfx compiles against its own NodeNavigator tree model,
// not internal/domtree), only grammar acceptance.
func TestGrammarAcceptanceAgainstAntchfx(t *testing.T) {
	valid := []string{
		"/a/b",
		"//a[@id='x']",
		"a/b/c",
		"child::a/descendant::b",
		"ancestor-or-self::node()",
		"a[position()=1]",
		"a[1]",
		"a | b | c",
		"concat('a', 'b')",
		"count(//a)",
		"substring-before('abc', 'b')",
		"@*",
		"*",
		".//a",
		"../a",
		"a[@b='c' and @d='e']",
		"not(a)",
		"a[last()]",
	}
	for _, e := range valid {
		if _, err := antchfx.Compile(e); err != nil {
			t.Errorf("antchfx rejected %q as invalid XPath 1.0: %v", e, err)
		}
		if _, err := xpath.Compile(e); err != nil {
			t.Errorf("our compiler rejected %q: %v", e, err)
		}
	}
}
