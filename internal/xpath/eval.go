package xpath

import (
	xmlerrors "github.com/jacoelho/xmlkit/errors"
	"github.com/jacoelho/xmlkit/internal/domtree"
)

// Context holds the evaluation context for an XPath expression: the
// context node, its position and the size of the context node-set, and
// a set of named variables (spec.md §4.8/§6: the context exposes typed
// set/get for {number, string} at the public boundary, but internally
// a variable may be bound to any of the four XPath types).
type Context struct {
	Tree     *domtree.Tree
	Node     domtree.ID
	Position int
	Size     int
	Vars     map[string]Value
}

// NewContext returns a single-node evaluation context.
func NewContext(t *domtree.Tree, node domtree.ID) *Context {
	return &Context{Tree: t, Node: node, Position: 1, Size: 1, Vars: map[string]Value{}}
}

// SetNumber binds a number-typed variable.
func (c *Context) SetNumber(name string, v float64) { c.Vars[name] = Number(v) }

// SetString binds a string-typed variable.
func (c *Context) SetString(name string, v string) { c.Vars[name] = String(v) }

// Evaluate runs expr against ctx and returns its typed result.
func (expr *Expression) Evaluate(ctx *Context) (Value, error) {
	return eval(expr.root, ctx)
}

// Select evaluates expr and returns its result node-set in document
// order; non-node-set results yield an error, matching the "evaluate
// as a node-set" contract of spec.md §6's find/matches surface.
func (expr *Expression) Select(ctx *Context) ([]domtree.ID, error) {
	v, err := eval(expr.root, ctx)
	if err != nil {
		return nil, err
	}
	if v.kind != KindNodeSet {
		return nil, xmlerrors.NewNotWellFormed(xmlerrors.UnexpectedToken, xmlerrors.Position{}, "XPath expression %q does not evaluate to a node-set", expr.src)
	}
	return v.nodes, nil
}

// Matches reports whether node satisfies expr evaluated as a boolean
// (non-empty node-set, or a true boolean/non-zero number/non-empty
// string), per spec.md §6's Xpath.matches.
func (expr *Expression) Matches(t *domtree.Tree, node domtree.ID) (bool, error) {
	v, err := eval(expr.root, NewContext(t, node))
	if err != nil {
		return false, err
	}
	return v.AsBoolean(), nil
}

func eval(e Expr, ctx *Context) (Value, error) {
	switch n := e.(type) {
	case *NumberLit:
		return Number(n.Val), nil
	case *StringLit:
		return String(n.Val), nil
	case *VarRef:
		if v, ok := ctx.Vars[n.Name]; ok {
			return v, nil
		}
		return Value{}, xmlerrors.NewNotWellFormed(xmlerrors.UnexpectedToken, xmlerrors.Position{}, "undefined XPath variable $%s", n.Name)
	case *UnaryExpr:
		x, err := eval(n.X, ctx)
		if err != nil {
			return Value{}, err
		}
		return Number(-x.AsNumber(ctx.Tree)), nil
	case *BinaryExpr:
		return evalBinary(n, ctx)
	case *FuncCall:
		return callFunction(n, ctx)
	case *UnionExpr:
		return evalUnion(n, ctx)
	case *LocationPath:
		ids, err := evalLocationPath(n, ctx)
		if err != nil {
			return Value{}, err
		}
		return NodeSet(ids), nil
	case *PathExpr:
		return evalPathExpr(n, ctx)
	case *FilterExprNode:
		return evalFilterExpr(n, ctx)
	}
	return Value{}, xmlerrors.NewNotWellFormed(xmlerrors.UnexpectedToken, xmlerrors.Position{}, "unsupported XPath expression node")
}

func evalUnion(n *UnionExpr, ctx *Context) (Value, error) {
	var all []domtree.ID
	for _, part := range n.Parts {
		v, err := eval(part, ctx)
		if err != nil {
			return Value{}, err
		}
		if v.kind != KindNodeSet {
			return Value{}, xmlerrors.NewNotWellFormed(xmlerrors.UnexpectedToken, xmlerrors.Position{}, "union operator requires node-set operands")
		}
		all = append(all, v.nodes...)
	}
	return NodeSet(all), nil
}

func evalFilterExpr(n *FilterExprNode, ctx *Context) (Value, error) {
	base, err := eval(n.Primary, ctx)
	if err != nil {
		return Value{}, err
	}
	if len(n.Preds) == 0 {
		return base, nil
	}
	if base.kind != KindNodeSet {
		return Value{}, xmlerrors.NewNotWellFormed(xmlerrors.UnexpectedToken, xmlerrors.Position{}, "predicate applied to a non-node-set value")
	}
	ids := base.nodes
	for _, pred := range n.Preds {
		ids, err = filterByPredicate(ids, pred, ctx, false)
		if err != nil {
			return Value{}, err
		}
	}
	return NodeSet(ids), nil
}

func evalPathExpr(n *PathExpr, ctx *Context) (Value, error) {
	base, err := eval(n.Base, ctx)
	if err != nil {
		return Value{}, err
	}
	if base.kind != KindNodeSet {
		return Value{}, xmlerrors.NewNotWellFormed(xmlerrors.UnexpectedToken, xmlerrors.Position{}, "path operator applied to a non-node-set value")
	}
	steps := n.Rest
	if n.Sep == "//" {
		steps = append([]*Step{{Axis: "descendant-or-self", Test: NodeTest{kind: testNode}}}, steps...)
	}
	ids := base.nodes
	for _, step := range steps {
		ids, err = evalStep(ids, step, ctx)
		if err != nil {
			return Value{}, err
		}
	}
	return NodeSet(ids), nil
}

func evalLocationPath(n *LocationPath, ctx *Context) ([]domtree.ID, error) {
	var ids []domtree.ID
	if n.Absolute {
		ids = []domtree.ID{ctx.Tree.Root()}
		if n.FirstIsDOS {
			steps := append([]*Step{{Axis: "descendant-or-self", Test: NodeTest{kind: testNode}}}, n.Steps...)
			return evalStepsFrom(ids, steps, ctx)
		}
	} else {
		ids = []domtree.ID{ctx.Node}
	}
	return evalStepsFrom(ids, n.Steps, ctx)
}

func evalStepsFrom(start []domtree.ID, steps []*Step, ctx *Context) ([]domtree.ID, error) {
	ids := start
	var err error
	for _, step := range steps {
		ids, err = evalStep(ids, step, ctx)
		if err != nil {
			return nil, err
		}
	}
	return ids, nil
}

func evalStep(from []domtree.ID, step *Step, ctx *Context) ([]domtree.ID, error) {
	var result []domtree.ID
	for _, id := range from {
		result = append(result, axisNodes(ctx.Tree, id, step.Axis, step.Test)...)
	}
	result = dedupSorted(result)
	var err error
	for _, pred := range step.Preds {
		result, err = filterByPredicate(result, pred, ctx, isReverseAxis(step.Axis))
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

func isReverseAxis(axis string) bool {
	return axis == "ancestor" || axis == "ancestor-or-self" || axis == "preceding-sibling" || axis == "parent"
}

// filterByPredicate evaluates pred once per candidate, with position()
// numbered according to the axis's natural order (reversed for reverse
// axes, per XPath 1.0 §2.4), and keeps candidates for which the
// predicate is true — a bare number N is shorthand for position()=N.
func filterByPredicate(ids []domtree.ID, pred Expr, ctx *Context, reverse bool) ([]domtree.ID, error) {
	ordered := ids
	if reverse {
		ordered = make([]domtree.ID, len(ids))
		for i, id := range ids {
			ordered[len(ids)-1-i] = id
		}
	}
	size := len(ordered)
	keep := make([]bool, size)
	for i, id := range ordered {
		sub := &Context{Tree: ctx.Tree, Node: id, Position: i + 1, Size: size, Vars: ctx.Vars}
		v, err := eval(pred, sub)
		if err != nil {
			return nil, err
		}
		if v.kind == KindNumber {
			keep[i] = int(v.num) == i+1
		} else {
			keep[i] = v.AsBoolean()
		}
	}
	var out []domtree.ID
	for i, id := range ordered {
		if keep[i] {
			out = append(out, id)
		}
	}
	if reverse {
		rev := make([]domtree.ID, len(out))
		for i, id := range out {
			rev[len(out)-1-i] = id
		}
		return rev, nil
	}
	return out, nil
}

func evalBinary(n *BinaryExpr, ctx *Context) (Value, error) {
	switch n.Op {
	case "and":
		l, err := eval(n.L, ctx)
		if err != nil {
			return Value{}, err
		}
		if !l.AsBoolean() {
			return Boolean(false), nil
		}
		r, err := eval(n.R, ctx)
		if err != nil {
			return Value{}, err
		}
		return Boolean(r.AsBoolean()), nil
	case "or":
		l, err := eval(n.L, ctx)
		if err != nil {
			return Value{}, err
		}
		if l.AsBoolean() {
			return Boolean(true), nil
		}
		r, err := eval(n.R, ctx)
		if err != nil {
			return Value{}, err
		}
		return Boolean(r.AsBoolean()), nil
	}
	l, err := eval(n.L, ctx)
	if err != nil {
		return Value{}, err
	}
	r, err := eval(n.R, ctx)
	if err != nil {
		return Value{}, err
	}
	switch n.Op {
	case "=", "!=":
		return Boolean(compareEquality(ctx.Tree, l, r, n.Op == "=")), nil
	case "<", "<=", ">", ">=":
		return Boolean(compareRelational(ctx.Tree, l, r, n.Op)), nil
	case "+":
		return Number(l.AsNumber(ctx.Tree) + r.AsNumber(ctx.Tree)), nil
	case "-":
		return Number(l.AsNumber(ctx.Tree) - r.AsNumber(ctx.Tree)), nil
	case "*":
		return Number(l.AsNumber(ctx.Tree) * r.AsNumber(ctx.Tree)), nil
	case "div":
		return Number(l.AsNumber(ctx.Tree) / r.AsNumber(ctx.Tree)), nil
	case "mod":
		lv, rv := l.AsNumber(ctx.Tree), r.AsNumber(ctx.Tree)
		return Number(xmod(lv, rv)), nil
	}
	return Value{}, xmlerrors.NewNotWellFormed(xmlerrors.UnexpectedToken, xmlerrors.Position{}, "unsupported operator %q", n.Op)
}

func xmod(a, b float64) float64 {
	if b == 0 {
		return nan()
	}
	m := a - b*float64(int64(a/b))
	return m
}

// compareEquality implements the XPath 1.0 "=" and "!=" coercion
// rules: if either side is a node-set, compare against each node's
// string-value; otherwise compare as the type of the non-node-set
// operand (boolean > number > string precedence per the spec).
func compareEquality(t *domtree.Tree, l, r Value, wantEqual bool) bool {
	if l.kind == KindNodeSet || r.kind == KindNodeSet {
		eq := nodeSetEquality(t, l, r)
		if wantEqual {
			return eq
		}
		return !eq
	}
	var eq bool
	switch {
	case l.kind == KindBoolean || r.kind == KindBoolean:
		eq = l.AsBoolean() == r.AsBoolean()
	case l.kind == KindNumber || r.kind == KindNumber:
		eq = l.AsNumber(t) == r.AsNumber(t)
	default:
		eq = l.AsString(t) == r.AsString(t)
	}
	if wantEqual {
		return eq
	}
	return !eq
}

func nodeSetEquality(t *domtree.Tree, l, r Value) bool {
	if l.kind == KindNodeSet && r.kind == KindNodeSet {
		for _, a := range l.nodes {
			as := stringValue(t, a)
			for _, b := range r.nodes {
				if as == stringValue(t, b) {
					return true
				}
			}
		}
		return false
	}
	ns, other := l, r
	if other.kind == KindNodeSet {
		ns, other = r, l
	}
	for _, id := range ns.nodes {
		sv := stringValue(t, id)
		switch other.kind {
		case KindNumber:
			if stringToNumber(sv) == other.num {
				return true
			}
		case KindBoolean:
			if (sv != "") == other.boolv {
				return true
			}
		default:
			if sv == other.str {
				return true
			}
		}
	}
	return false
}

func compareRelational(t *domtree.Tree, l, r Value, op string) bool {
	lv, rv := l.AsNumber(t), r.AsNumber(t)
	switch op {
	case "<":
		return lv < rv
	case "<=":
		return lv <= rv
	case ">":
		return lv > rv
	case ">=":
		return lv >= rv
	}
	return false
}
