package domtree

import "strings"

// Equal reports whether a and b are structurally identical: same node
// kinds, names, namespace URIs, attribute sets, and text content, in
// document order. Text content is compared literally.
func Equal(a *Tree, aID ID, b *Tree, bID ID) bool {
	return equal(a, aID, b, bID, false)
}

// EqualIgnoringSpace is like Equal but treats two text nodes as equal
// when their content differs only in leading/trailing whitespace and
// run-length of internal whitespace, collapsed via strings.Fields. It
// exists for round-trip tests where a writer's indentation is allowed
// to reflow insignificant whitespace (spec.md §9 Open Question).
func EqualIgnoringSpace(a *Tree, aID ID, b *Tree, bID ID) bool {
	return equal(a, aID, b, bID, true)
}

func equal(a *Tree, aID ID, b *Tree, bID ID, collapseSpace bool) bool {
	na, nb := a.Node(aID), b.Node(bID)
	if na.Kind != nb.Kind {
		return false
	}
	switch na.Kind {
	case KindElement:
		if na.Prefix != nb.Prefix || na.Name != nb.Name || na.URI != nb.URI {
			return false
		}
		if !equalAttrs(a, na, b, nb) {
			return false
		}
	case KindText, KindCDATA:
		if collapseSpace {
			if strings.Join(strings.Fields(na.Text), " ") != strings.Join(strings.Fields(nb.Text), " ") {
				return false
			}
		} else if na.Text != nb.Text {
			return false
		}
	case KindComment:
		if na.Text != nb.Text {
			return false
		}
	case KindPI:
		if na.Target != nb.Target || na.Text != nb.Text {
			return false
		}
	}
	if len(na.Children) != len(nb.Children) {
		return false
	}
	for i := range na.Children {
		if !equal(a, na.Children[i], b, nb.Children[i], collapseSpace) {
			return false
		}
	}
	return true
}

func equalAttrs(a *Tree, na *Node, b *Tree, nb *Node) bool {
	if len(na.Attrs) != len(nb.Attrs) {
		return false
	}
	for _, aid := range na.Attrs {
		an := a.Node(aid)
		found := false
		for _, bid := range nb.Attrs {
			bn := b.Node(bid)
			if bn.Prefix == an.Prefix && bn.Name == an.Name && bn.Text == an.Text {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
