package xpath

import "github.com/jacoelho/xmlkit/internal/domtree"

// axisNodes returns the nodes reachable from id along axis that
// satisfy test, per the axes spec.md §4.8 lists.
func axisNodes(t *domtree.Tree, id domtree.ID, axis string, test NodeTest) []domtree.ID {
	switch axis {
	case "self":
		return matchOne(t, id, test, principalKind(axis))
	case "child":
		return matchAll(t, t.Children(id), test, principalKind(axis))
	case "descendant":
		var out []domtree.ID
		collectDescendants(t, id, test, &out)
		return out
	case "descendant-or-self":
		out := matchOne(t, id, test, principalKind(axis))
		collectDescendants(t, id, test, &out)
		return out
	case "parent":
		if id == t.Root() {
			return nil
		}
		return matchOne(t, t.Parent(id), test, principalKind(axis))
	case "ancestor":
		var out []domtree.ID
		for cur := id; cur != t.Root(); {
			cur = t.Parent(cur)
			out = append(out, matchOne(t, cur, test, principalKind(axis))...)
		}
		return out
	case "ancestor-or-self":
		out := matchOne(t, id, test, principalKind(axis))
		for cur := id; cur != t.Root(); {
			cur = t.Parent(cur)
			out = append(out, matchOne(t, cur, test, principalKind(axis))...)
		}
		return out
	case "following-sibling":
		return siblingMatches(t, id, test, true)
	case "preceding-sibling":
		return siblingMatches(t, id, test, false)
	case "attribute":
		return matchAll(t, t.Node(id).Attrs, test, domtree.KindAttribute)
	case "namespace":
		return matchAll(t, t.Node(id).NSs, test, domtree.KindNamespace)
	}
	return nil
}

// principalKind is the node kind an axis's node test matches against
// when the test is the wildcard "*": element for all element-bearing
// axes, attribute/namespace for those two axes.
func principalKind(axis string) domtree.Kind {
	switch axis {
	case "attribute":
		return domtree.KindAttribute
	case "namespace":
		return domtree.KindNamespace
	default:
		return domtree.KindElement
	}
}

func collectDescendants(t *domtree.Tree, id domtree.ID, test NodeTest, out *[]domtree.ID) {
	for _, c := range t.Children(id) {
		*out = append(*out, matchOne(t, c, test, domtree.KindElement)...)
		collectDescendants(t, c, test, out)
	}
}

func siblingMatches(t *domtree.Tree, id domtree.ID, test NodeTest, following bool) []domtree.ID {
	if id == t.Root() {
		return nil
	}
	parent := t.Parent(id)
	siblings := t.Children(parent)
	idx := -1
	for i, s := range siblings {
		if s == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	var candidates []domtree.ID
	if following {
		candidates = siblings[idx+1:]
	} else {
		candidates = siblings[:idx]
	}
	return matchAll(t, candidates, test, domtree.KindElement)
}

func matchAll(t *domtree.Tree, ids []domtree.ID, test NodeTest, principal domtree.Kind) []domtree.ID {
	var out []domtree.ID
	for _, id := range ids {
		out = append(out, matchOne(t, id, test, principal)...)
	}
	return out
}

func matchOne(t *domtree.Tree, id domtree.ID, test NodeTest, principal domtree.Kind) []domtree.ID {
	if matchesTest(t, id, test, principal) {
		return []domtree.ID{id}
	}
	return nil
}

func matchesTest(t *domtree.Tree, id domtree.ID, test NodeTest, principal domtree.Kind) bool {
	n := t.Node(id)
	switch test.kind {
	case testNode:
		return true
	case testText:
		return n.Kind == domtree.KindText || n.Kind == domtree.KindCDATA
	case testComment:
		return n.Kind == domtree.KindComment
	case testPI:
		if n.Kind != domtree.KindPI {
			return false
		}
		if test.hasPI {
			return n.Target == test.piTarget
		}
		return true
	case testStar:
		return n.Kind == principal
	case testPrefixStar:
		return n.Kind == principal && n.Prefix == test.prefix
	case testName:
		return n.Kind == principal && n.Prefix == test.prefix && n.Name == test.name
	}
	return false
}
