package domtree

import "testing"

func TestBuildAndWalk(t *testing.T) {
	tr := New()
	root := tr.AddElement(tr.Root(), "", "doc")
	tr.AddAttribute(root, "", "id", "1", false)
	tr.AddNamespace(root, "ns", "urn:example")
	child := tr.AddElement(root, "ns", "item")
	tr.AddText(child, "hello")
	tr.AddText(child, " world")

	if got := tr.QName(child); got != "ns:item" {
		t.Fatalf("QName = %q", got)
	}
	if len(tr.Children(root)) != 1 {
		t.Fatalf("children = %d", len(tr.Children(root)))
	}
	textID := tr.Children(child)[0]
	if tr.Node(textID).Text != "hello world" {
		t.Fatalf("merged text = %q", tr.Node(textID).Text)
	}
	if id, ok := tr.Attribute(root, "", "id"); !ok || tr.Node(id).Text != "1" {
		t.Fatalf("attribute lookup failed")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	tr := New()
	root := tr.AddElement(tr.Root(), "", "doc")
	tr.AddText(root, "a")

	clone := tr.Clone()
	clone.AddText(root, "b")

	if len(tr.Children(root)) != 1 {
		t.Fatalf("original tree mutated by clone: %d children", len(tr.Children(root)))
	}
}

func TestEqual(t *testing.T) {
	build := func(text string) (*Tree, ID) {
		tr := New()
		root := tr.AddElement(tr.Root(), "", "doc")
		tr.AddAttribute(root, "", "a", "1", false)
		tr.AddText(root, text)
		return tr, root
	}
	a, aRoot := build("x")
	b, bRoot := build("x")
	if !Equal(a, aRoot, b, bRoot) {
		t.Fatal("expected equal trees to compare equal")
	}

	c, cRoot := build("  x  ")
	if Equal(a, aRoot, c, cRoot) {
		t.Fatal("expected literal Equal to reject whitespace difference")
	}
	if !EqualIgnoringSpace(a, aRoot, c, cRoot) {
		t.Fatal("expected EqualIgnoringSpace to accept whitespace difference")
	}
}

func TestCDATADoesNotMergeWithText(t *testing.T) {
	tr := New()
	root := tr.AddElement(tr.Root(), "", "doc")
	tr.AddText(root, "a")
	tr.AddCDATA(root, "b")
	tr.AddText(root, "c")
	if len(tr.Children(root)) != 3 {
		t.Fatalf("children = %d, want 3 (CDATA boundary must not merge)", len(tr.Children(root)))
	}
}
