// Package domtree implements the parsed-document node arena described
// in spec.md §3: an integer-indexed node store (no pointer cycles)
// with tagged-union node kinds for the document root, elements, text,
// CDATA, comments, processing instructions, attributes, and namespace
// declarations. It is shared by internal/parser (which builds trees)
// and internal/xpath (which walks them read-only).
package domtree

// Kind identifies what a Node represents.
type Kind int

const (
	KindDocument Kind = iota
	KindElement
	KindText
	KindCDATA
	KindComment
	KindPI
	KindAttribute
	KindNamespace
)

func (k Kind) String() string {
	switch k {
	case KindDocument:
		return "Document"
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	case KindCDATA:
		return "CDATA"
	case KindComment:
		return "Comment"
	case KindPI:
		return "PI"
	case KindAttribute:
		return "Attribute"
	case KindNamespace:
		return "Namespace"
	default:
		return "?"
	}
}

// ID identifies a node within a Tree. ID 0 is the document root.
type ID int

// Node is one entry in the arena. Attributes and namespace
// declarations are owned by an element but are not part of its child
// list; Children walks only element/text/CDATA/comment/PI content.
type Node struct {
	Kind Kind

	Parent   ID
	Children []ID

	// Element / PI name, or attribute/namespace local form.
	Name   string
	Prefix string
	URI    string // resolved namespace URI, "" if none

	// Attribute/namespace-decl owner and payload.
	Owner ID
	Attrs []ID // element-only: attribute node ids, declaration order
	NSs   []ID // element-only: namespace-decl node ids, declaration order

	// Text payload: character data, comment body, CDATA content,
	// attribute/namespace value, or PI data.
	Text string

	// PI target (Name holds the same value for elements/attributes).
	Target string

	// IsID marks an Attribute node whose value must be unique across
	// the document: set when the attribute's declared DTD type is ID,
	// or when the attribute is named xml:id, independent of any DTD
	// (spec.md §3 Invariant 4).
	IsID bool
}

// Tree is a complete parsed document.
type Tree struct {
	nodes []Node
	root  ID
}

// New returns an empty tree with its document root allocated.
func New() *Tree {
	t := &Tree{}
	t.nodes = append(t.nodes, Node{Kind: KindDocument})
	t.root = ID(len(t.nodes) - 1)
	return t
}

// Root returns the document root id.
func (t *Tree) Root() ID { return t.root }

// Node returns the node stored at id.
func (t *Tree) Node(id ID) *Node { return &t.nodes[id] }

func (t *Tree) alloc(n Node) ID {
	t.nodes = append(t.nodes, n)
	return ID(len(t.nodes) - 1)
}

// AddElement appends a new element child under parent and returns its id.
func (t *Tree) AddElement(parent ID, prefix, name string) ID {
	id := t.alloc(Node{Kind: KindElement, Parent: parent, Prefix: prefix, Name: name})
	t.appendChild(parent, id)
	return id
}

// AddText appends a text child under parent, merging with a preceding
// text sibling if one exists (matching the natural result of a
// character-data-token-at-a-time scanner).
func (t *Tree) AddText(parent ID, text string) ID {
	if kids := t.nodes[parent].Children; len(kids) > 0 {
		last := kids[len(kids)-1]
		if t.nodes[last].Kind == KindText {
			t.nodes[last].Text += text
			return last
		}
	}
	id := t.alloc(Node{Kind: KindText, Parent: parent, Text: text})
	t.appendChild(parent, id)
	return id
}

// AddCDATA appends a CDATA section child. Unlike AddText it never
// merges with a neighboring text node: CDATA section boundaries are
// preserved so the writer can round-trip them.
func (t *Tree) AddCDATA(parent ID, text string) ID {
	id := t.alloc(Node{Kind: KindCDATA, Parent: parent, Text: text})
	t.appendChild(parent, id)
	return id
}

// AddComment appends a comment child.
func (t *Tree) AddComment(parent ID, text string) ID {
	id := t.alloc(Node{Kind: KindComment, Parent: parent, Text: text})
	t.appendChild(parent, id)
	return id
}

// AddPI appends a processing-instruction child.
func (t *Tree) AddPI(parent ID, target, data string) ID {
	id := t.alloc(Node{Kind: KindPI, Parent: parent, Target: target, Text: data})
	t.appendChild(parent, id)
	return id
}

func (t *Tree) appendChild(parent, child ID) {
	t.nodes[parent].Children = append(t.nodes[parent].Children, child)
}

// AddAttribute attaches an attribute to an element, in declaration
// order, and returns its id. isID marks the attribute's value as
// required to be unique across the document (spec.md §3 Invariant 4).
func (t *Tree) AddAttribute(elem ID, prefix, name, value string, isID bool) ID {
	id := t.alloc(Node{Kind: KindAttribute, Owner: elem, Prefix: prefix, Name: name, Text: value, IsID: isID})
	t.nodes[elem].Attrs = append(t.nodes[elem].Attrs, id)
	return id
}

// AddNamespace attaches a namespace declaration to an element. prefix
// is "" for a default-namespace declaration (xmlns="...").
func (t *Tree) AddNamespace(elem ID, prefix, uri string) ID {
	id := t.alloc(Node{Kind: KindNamespace, Owner: elem, Prefix: prefix, Text: uri})
	t.nodes[elem].NSs = append(t.nodes[elem].NSs, id)
	return id
}

// Attribute looks up an element's attribute by fully-qualified
// prefix:name (prefix "" for an unprefixed attribute).
func (t *Tree) Attribute(elem ID, prefix, name string) (ID, bool) {
	for _, a := range t.nodes[elem].Attrs {
		n := &t.nodes[a]
		if n.Prefix == prefix && n.Name == name {
			return a, true
		}
	}
	return 0, false
}

// Children returns the content-model children of id (elements, text,
// CDATA, comments, PIs) — not attributes or namespace declarations.
func (t *Tree) Children(id ID) []ID { return t.nodes[id].Children }

// Parent returns id's parent, or the zero ID if id is the root.
func (t *Tree) Parent(id ID) ID { return t.nodes[id].Parent }

// QName renders a node's qualified name as it appeared in the source
// (prefix:local, or local if unprefixed).
func (t *Tree) QName(id ID) string {
	n := &t.nodes[id]
	if n.Prefix == "" {
		return n.Name
	}
	return n.Prefix + ":" + n.Name
}

// Clone deep-copies the tree.
func (t *Tree) Clone() *Tree {
	nodes := make([]Node, len(t.nodes))
	for i, n := range t.nodes {
		nodes[i] = n
		nodes[i].Children = append([]ID(nil), n.Children...)
		nodes[i].Attrs = append([]ID(nil), n.Attrs...)
		nodes[i].NSs = append([]ID(nil), n.NSs...)
	}
	return &Tree{nodes: nodes, root: t.root}
}

// Len reports the number of allocated nodes, including the root.
func (t *Tree) Len() int { return len(t.nodes) }
