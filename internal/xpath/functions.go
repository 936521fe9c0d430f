package xpath

import (
	"strings"

	xmlerrors "github.com/jacoelho/xmlkit/errors"
	"github.com/jacoelho/xmlkit/internal/domtree"
)

func callFunction(f *FuncCall, ctx *Context) (Value, error) {
	switch f.Name {
	case "last":
		return Number(float64(ctx.Size)), nil
	case "position":
		return Number(float64(ctx.Position)), nil
	case "count":
		ns, err := argNodeSet(f, ctx, 0)
		if err != nil {
			return Value{}, err
		}
		return Number(float64(len(ns))), nil
	case "name", "local-name", "namespace-uri":
		return evalNameFunc(f, ctx)
	case "string":
		if len(f.Args) == 0 {
			return String(stringValue(ctx.Tree, ctx.Node)), nil
		}
		v, err := eval(f.Args[0], ctx)
		if err != nil {
			return Value{}, err
		}
		return String(v.AsString(ctx.Tree)), nil
	case "concat":
		var b strings.Builder
		for _, a := range f.Args {
			v, err := eval(a, ctx)
			if err != nil {
				return Value{}, err
			}
			b.WriteString(v.AsString(ctx.Tree))
		}
		return String(b.String()), nil
	case "starts-with":
		a, b, err := twoStrings(f, ctx)
		if err != nil {
			return Value{}, err
		}
		return Boolean(strings.HasPrefix(a, b)), nil
	case "contains":
		a, b, err := twoStrings(f, ctx)
		if err != nil {
			return Value{}, err
		}
		return Boolean(strings.Contains(a, b)), nil
	case "substring-before":
		a, b, err := twoStrings(f, ctx)
		if err != nil {
			return Value{}, err
		}
		if i := strings.Index(a, b); i >= 0 {
			return String(a[:i]), nil
		}
		return String(""), nil
	case "substring-after":
		a, b, err := twoStrings(f, ctx)
		if err != nil {
			return Value{}, err
		}
		if i := strings.Index(a, b); i >= 0 {
			return String(a[i+len(b):]), nil
		}
		return String(""), nil
	case "substring":
		return evalSubstring(f, ctx)
	case "string-length":
		s, err := oneStringOrContext(f, ctx)
		if err != nil {
			return Value{}, err
		}
		return Number(float64(len([]rune(s)))), nil
	case "normalize-space":
		s, err := oneStringOrContext(f, ctx)
		if err != nil {
			return Value{}, err
		}
		return String(normalizeSpace(s)), nil
	case "translate":
		return evalTranslate(f, ctx)
	case "number":
		if len(f.Args) == 0 {
			return Number(stringToNumber(stringValue(ctx.Tree, ctx.Node))), nil
		}
		v, err := eval(f.Args[0], ctx)
		if err != nil {
			return Value{}, err
		}
		return Number(v.AsNumber(ctx.Tree)), nil
	case "sum":
		ns, err := argNodeSet(f, ctx, 0)
		if err != nil {
			return Value{}, err
		}
		total := 0.0
		for _, id := range ns {
			total += stringToNumber(stringValue(ctx.Tree, id))
		}
		return Number(total), nil
	case "boolean":
		v, err := arg1(f, ctx)
		if err != nil {
			return Value{}, err
		}
		return Boolean(v.AsBoolean()), nil
	case "not":
		v, err := arg1(f, ctx)
		if err != nil {
			return Value{}, err
		}
		return Boolean(!v.AsBoolean()), nil
	case "true":
		return Boolean(true), nil
	case "false":
		return Boolean(false), nil
	case "lang":
		return evalLang(f, ctx)
	}
	return Value{}, xmlerrors.NewNotWellFormed(xmlerrors.UnexpectedToken, xmlerrors.Position{}, "unknown XPath function %q", f.Name)
}

func arg1(f *FuncCall, ctx *Context) (Value, error) {
	if len(f.Args) != 1 {
		return Value{}, xmlerrors.NewNotWellFormed(xmlerrors.UnexpectedToken, xmlerrors.Position{}, "%s() takes exactly one argument", f.Name)
	}
	return eval(f.Args[0], ctx)
}

func argNodeSet(f *FuncCall, ctx *Context, idx int) ([]domtree.ID, error) {
	if idx >= len(f.Args) {
		return nil, xmlerrors.NewNotWellFormed(xmlerrors.UnexpectedToken, xmlerrors.Position{}, "%s() requires a node-set argument", f.Name)
	}
	v, err := eval(f.Args[idx], ctx)
	if err != nil {
		return nil, err
	}
	if v.kind != KindNodeSet {
		return nil, xmlerrors.NewNotWellFormed(xmlerrors.UnexpectedToken, xmlerrors.Position{}, "%s() requires a node-set argument", f.Name)
	}
	return v.nodes, nil
}

func twoStrings(f *FuncCall, ctx *Context) (string, string, error) {
	if len(f.Args) != 2 {
		return "", "", xmlerrors.NewNotWellFormed(xmlerrors.UnexpectedToken, xmlerrors.Position{}, "%s() takes exactly two arguments", f.Name)
	}
	a, err := eval(f.Args[0], ctx)
	if err != nil {
		return "", "", err
	}
	b, err := eval(f.Args[1], ctx)
	if err != nil {
		return "", "", err
	}
	return a.AsString(ctx.Tree), b.AsString(ctx.Tree), nil
}

func oneStringOrContext(f *FuncCall, ctx *Context) (string, error) {
	if len(f.Args) == 0 {
		return stringValue(ctx.Tree, ctx.Node), nil
	}
	v, err := eval(f.Args[0], ctx)
	if err != nil {
		return "", err
	}
	return v.AsString(ctx.Tree), nil
}

func normalizeSpace(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}

func evalSubstring(f *FuncCall, ctx *Context) (Value, error) {
	if len(f.Args) < 2 || len(f.Args) > 3 {
		return Value{}, xmlerrors.NewNotWellFormed(xmlerrors.UnexpectedToken, xmlerrors.Position{}, "substring() takes two or three arguments")
	}
	sv, err := eval(f.Args[0], ctx)
	if err != nil {
		return Value{}, err
	}
	s := []rune(sv.AsString(ctx.Tree))
	startV, err := eval(f.Args[1], ctx)
	if err != nil {
		return Value{}, err
	}
	start := round(startV.AsNumber(ctx.Tree))
	length := float64(len(s)) + 1 - start
	if len(f.Args) == 3 {
		lenV, err := eval(f.Args[2], ctx)
		if err != nil {
			return Value{}, err
		}
		length = round(lenV.AsNumber(ctx.Tree))
	}
	begin := start
	end := start + length
	if begin < 1 {
		begin = 1
	}
	if end > float64(len(s))+1 {
		end = float64(len(s)) + 1
	}
	if isNaN(begin) || isNaN(end) || end <= begin {
		return String(""), nil
	}
	bi, ei := int(begin)-1, int(end)-1
	if bi < 0 {
		bi = 0
	}
	if ei > len(s) {
		ei = len(s)
	}
	if bi >= ei || bi >= len(s) {
		return String(""), nil
	}
	return String(string(s[bi:ei])), nil
}

func round(f float64) float64 {
	if isNaN(f) || isInf(f) {
		return f
	}
	if f >= 0 {
		return float64(int64(f + 0.5))
	}
	return -float64(int64(-f + 0.5))
}

func evalTranslate(f *FuncCall, ctx *Context) (Value, error) {
	if len(f.Args) != 3 {
		return Value{}, xmlerrors.NewNotWellFormed(xmlerrors.UnexpectedToken, xmlerrors.Position{}, "translate() takes exactly three arguments")
	}
	sv, err := eval(f.Args[0], ctx)
	if err != nil {
		return Value{}, err
	}
	fromV, err := eval(f.Args[1], ctx)
	if err != nil {
		return Value{}, err
	}
	toV, err := eval(f.Args[2], ctx)
	if err != nil {
		return Value{}, err
	}
	s := sv.AsString(ctx.Tree)
	from := []rune(fromV.AsString(ctx.Tree))
	to := []rune(toV.AsString(ctx.Tree))
	var b strings.Builder
	for _, r := range s {
		idx := -1
		for i, fr := range from {
			if fr == r {
				idx = i
				break
			}
		}
		if idx < 0 {
			b.WriteRune(r)
			continue
		}
		if idx < len(to) {
			b.WriteRune(to[idx])
		}
	}
	return String(b.String()), nil
}

// evalNameFunc implements name()/local-name()/namespace-uri(), each
// defaulting to the context node and, for a node-set argument, using
// its first node in document order.
func evalNameFunc(f *FuncCall, ctx *Context) (Value, error) {
	id := ctx.Node
	if len(f.Args) > 0 {
		ns, err := argNodeSet(f, ctx, 0)
		if err != nil {
			return Value{}, err
		}
		if len(ns) == 0 {
			return String(""), nil
		}
		id = ns[0]
	}
	n := ctx.Tree.Node(id)
	switch f.Name {
	case "local-name":
		return String(n.Name), nil
	case "namespace-uri":
		return String(n.URI), nil
	default:
		return String(ctx.Tree.QName(id)), nil
	}
}

// evalLang implements lang(): true if the context node's nearest
// xml:lang ancestor attribute value matches or is a sub-language of
// the argument, per XML 1.0 §2.12.
func evalLang(f *FuncCall, ctx *Context) (Value, error) {
	v, err := arg1(f, ctx)
	if err != nil {
		return Value{}, err
	}
	want := strings.ToLower(v.AsString(ctx.Tree))
	for id := ctx.Node; ; {
		if a, ok := ctx.Tree.Attribute(id, "xml", "lang"); ok {
			got := strings.ToLower(ctx.Tree.Node(a).Text)
			return Boolean(got == want || strings.HasPrefix(got, want+"-")), nil
		}
		if id == ctx.Tree.Root() {
			break
		}
		id = ctx.Tree.Parent(id)
	}
	return Boolean(false), nil
}
