package xpath_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jacoelho/xmlkit/internal/parser"
	"github.com/jacoelho/xmlkit/internal/source"
	"github.com/jacoelho/xmlkit/internal/xpath"
)

func parseDoc(t *testing.T, doc string) *parser.Result {
	t.Helper()
	src := source.NewStack()
	require.NoError(t, src.PushBytes("", "", strings.NewReader(doc), nil))
	res, err := parser.Parse(src, parser.Options{})
	require.NoError(t, err)
	return res
}

func TestSelectChildAndAttributePredicate(t *testing.T) {
	res := parseDoc(t, `<?xml version="1.0"?><r><a id="x"/><b ref="x"/></r>`)
	expr, err := xpath.Compile("//a[@id='x']")
	require.NoError(t, err)
	ids, err := expr.Select(xpath.NewContext(res.Tree, res.Tree.Root()))
	require.NoError(t, err)
	require.Len(t, ids, 1)
	require.Equal(t, "a", res.Tree.QName(ids[0]))
}

func TestSelectDescendantAndPosition(t *testing.T) {
	res := parseDoc(t, `<r><x>1</x><x>2</x><x>3</x></r>`)
	expr, err := xpath.Compile("/r/x[2]")
	require.NoError(t, err)
	ids, err := expr.Select(xpath.NewContext(res.Tree, res.Tree.Root()))
	require.NoError(t, err)
	require.Len(t, ids, 1)

	v, err := expr.Evaluate(xpath.NewContext(res.Tree, res.Tree.Root()))
	require.NoError(t, err)
	require.Equal(t, xpath.KindNodeSet, v.Kind())
}

func TestFunctionsStringsAndNumbers(t *testing.T) {
	res := parseDoc(t, `<r a="1"><b>hello world</b></r>`)
	cases := []struct {
		expr string
		want string
	}{
		{"concat('a', 'b', 'c')", "abc"},
		{"substring('hello world', 1, 5)", "hello"},
		{"substring-after('hello world', 'hello ')", "world"},
		{"translate('hello', 'el', 'ip')", "hippo"},
		{"normalize-space('  a   b  ')", "a b"},
	}
	for _, c := range cases {
		expr, err := xpath.Compile(c.expr)
		require.NoError(t, err, c.expr)
		v, err := expr.Evaluate(xpath.NewContext(res.Tree, res.Tree.Root()))
		require.NoError(t, err, c.expr)
		require.Equal(t, c.want, v.AsString(res.Tree), c.expr)
	}
}

func TestCountAndBoolean(t *testing.T) {
	res := parseDoc(t, `<r><x/><x/><x/></r>`)
	expr, err := xpath.Compile("count(/r/x)")
	require.NoError(t, err)
	v, err := expr.Evaluate(xpath.NewContext(res.Tree, res.Tree.Root()))
	require.NoError(t, err)
	require.Equal(t, float64(3), v.AsNumber(res.Tree))

	exists, err := xpath.Compile("boolean(/r/x)")
	require.NoError(t, err)
	v2, err := exists.Evaluate(xpath.NewContext(res.Tree, res.Tree.Root()))
	require.NoError(t, err)
	require.True(t, v2.AsBoolean())
}

func TestAncestorAndParentAxes(t *testing.T) {
	res := parseDoc(t, `<r><a><b/></a></r>`)
	expr, err := xpath.Compile("//b/ancestor::a")
	require.NoError(t, err)
	ids, err := expr.Select(xpath.NewContext(res.Tree, res.Tree.Root()))
	require.NoError(t, err)
	require.Len(t, ids, 1)
	require.Equal(t, "a", res.Tree.QName(ids[0]))
}

func TestUnionOfPaths(t *testing.T) {
	res := parseDoc(t, `<r><a/><b/><c/></r>`)
	expr, err := xpath.Compile("/r/a | /r/c")
	require.NoError(t, err)
	ids, err := expr.Select(xpath.NewContext(res.Tree, res.Tree.Root()))
	require.NoError(t, err)
	require.Len(t, ids, 2)
}

func TestMatches(t *testing.T) {
	res := parseDoc(t, `<r><a flag="1"/></r>`)
	expr, err := xpath.Compile("@flag = '1'")
	require.NoError(t, err)
	node, err := xpath.Compile("//a")
	require.NoError(t, err)
	ids, err := node.Select(xpath.NewContext(res.Tree, res.Tree.Root()))
	require.NoError(t, err)
	require.Len(t, ids, 1)
	ok, err := expr.Matches(res.Tree, ids[0])
	require.NoError(t, err)
	require.True(t, ok)
}
