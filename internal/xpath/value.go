// Package xpath implements the XPath 1.0 compiler and evaluator
// described in spec.md §4.8: a hand-written recursive-descent compiler
// producing an expression tree, and a pure (non-mutating) evaluator
// walking internal/domtree.Tree. Node-sets are deduplicated and
// returned in document order, approximated by the arena's allocation
// order (domtree.ID increases monotonically in parse order, including
// attribute and namespace nodes allocated immediately after their
// owning element and before its children).
package xpath

import (
	"sort"
	"strconv"

	"github.com/jacoelho/xmlkit/internal/domtree"
)

// Kind identifies which of the four XPath 1.0 types a Value holds.
type Kind int

const (
	KindNodeSet Kind = iota
	KindNumber
	KindString
	KindBoolean
)

// Value is the tagged union XPath 1.0 evaluation produces:
// {node-set, number, string, boolean}. The public Context exposes only
// number/string typed variables (spec.md §6); Value retains the full
// union internally since function semantics depend on it (spec.md §9).
type Value struct {
	kind  Kind
	nodes []domtree.ID
	num   float64
	str   string
	boolv bool
}

func NodeSet(ids []domtree.ID) Value { return Value{kind: KindNodeSet, nodes: dedupSorted(ids)} }
func Number(n float64) Value         { return Value{kind: KindNumber, num: n} }
func String(s string) Value          { return Value{kind: KindString, str: s} }
func Boolean(b bool) Value           { return Value{kind: KindBoolean, boolv: b} }

func (v Value) Kind() Kind          { return v.kind }
func (v Value) Nodes() []domtree.ID { return v.nodes }

func dedupSorted(ids []domtree.ID) []domtree.ID {
	seen := make(map[domtree.ID]struct{}, len(ids))
	out := make([]domtree.ID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// AsBoolean converts v per the XPath 1.0 boolean() coercion rules.
func (v Value) AsBoolean() bool {
	switch v.kind {
	case KindNodeSet:
		return len(v.nodes) > 0
	case KindNumber:
		return v.num != 0 && !isNaN(v.num)
	case KindString:
		return v.str != ""
	case KindBoolean:
		return v.boolv
	}
	return false
}

// AsNumber converts v per the XPath 1.0 number() coercion rules.
func (v Value) AsNumber(t *domtree.Tree) float64 {
	switch v.kind {
	case KindNumber:
		return v.num
	case KindBoolean:
		if v.boolv {
			return 1
		}
		return 0
	case KindString:
		return stringToNumber(v.str)
	case KindNodeSet:
		return stringToNumber(v.AsString(t))
	}
	return nan()
}

// AsString converts v per the XPath 1.0 string() coercion rules.
func (v Value) AsString(t *domtree.Tree) string {
	switch v.kind {
	case KindString:
		return v.str
	case KindBoolean:
		if v.boolv {
			return "true"
		}
		return "false"
	case KindNumber:
		return numberToString(v.num)
	case KindNodeSet:
		if len(v.nodes) == 0 {
			return ""
		}
		return stringValue(t, v.nodes[0])
	}
	return ""
}

func stringToNumber(s string) float64 {
	trimmed := trimSpace(s)
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return nan()
	}
	return f
}

func numberToString(n float64) string {
	if isNaN(n) {
		return "NaN"
	}
	if n == 0 {
		return "0"
	}
	if isInf(n) {
		if n > 0 {
			return "Infinity"
		}
		return "-Infinity"
	}
	if n == float64(int64(n)) {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

func trimSpace(s string) string {
	start, end := 0, len(s)
	for start < end && isXPathSpace(s[start]) {
		start++
	}
	for end > start && isXPathSpace(s[end-1]) {
		end--
	}
	return s[start:end]
}

func isXPathSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// stringValue implements the XPath 1.0 string-value of a node: the
// element/document/root: concatenation of all descendant text;
// attribute/namespace/PI/comment: their own text payload.
func stringValue(t *domtree.Tree, id domtree.ID) string {
	n := t.Node(id)
	switch n.Kind {
	case domtree.KindAttribute, domtree.KindNamespace, domtree.KindComment, domtree.KindPI, domtree.KindText, domtree.KindCDATA:
		return n.Text
	default:
		var b []byte
		collectText(t, id, &b)
		return string(b)
	}
}

func collectText(t *domtree.Tree, id domtree.ID, out *[]byte) {
	n := t.Node(id)
	switch n.Kind {
	case domtree.KindText, domtree.KindCDATA:
		*out = append(*out, n.Text...)
		return
	}
	for _, c := range t.Children(id) {
		collectText(t, c, out)
	}
}
