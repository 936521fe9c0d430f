// Package xmlkit is a validating XML 1.0 toolkit: a data-source stack
// with encoding detection and entity splicing, a two-mode scanner, a
// recursive-descent DTD-validating parser, a DOM, an XPath 1.0
// evaluator, and a configurable writer. See spec.md for the full
// component design.
package xmlkit

import (
	"io"
	"strings"

	"github.com/hashicorp/go-uuid"

	xmlerrors "github.com/jacoelho/xmlkit/errors"
	"github.com/jacoelho/xmlkit/internal/domtree"
	"github.com/jacoelho/xmlkit/internal/dtd"
	"github.com/jacoelho/xmlkit/internal/parser"
	"github.com/jacoelho/xmlkit/internal/source"
	"github.com/jacoelho/xmlkit/internal/writer"
	"github.com/jacoelho/xmlkit/internal/xpath"
)

// Node identifies a position in a parsed Document's tree: an element,
// text run, CDATA section, comment, processing instruction, attribute,
// or namespace declaration.
type Node = domtree.ID

// Document wraps a parsed DOM with the convenience operations spec.md
// §6 lists: read (already done by the time Parse returns), write,
// root(), find/find_first via XPath, and equality.
type Document struct {
	tree *domtree.Tree
	dtd  *parser.Result
}

// Parse reads and parses an entire XML document from r under opts.
// Non-fatal Invalid reports (when WithValidating(false), the default)
// are collected into the returned Warnings rather than aborting the
// parse.
func Parse(r io.Reader, opts ParseOptions) (*Document, *xmlerrors.Warnings, error) {
	correlationID, err := uuid.GenerateUUID()
	if err != nil {
		correlationID = ""
	} else if len(correlationID) > 8 {
		correlationID = correlationID[:8]
	}

	var warnings xmlerrors.Warnings
	internalOpts := opts.toInternal(correlationID)
	internalOpts.ReportInvalid = func(e *xmlerrors.Invalid) {
		warnings.Add(e)
	}

	src := source.NewStack()
	if err := src.PushBytes("", "", r, nil); err != nil {
		return nil, nil, err
	}
	defer src.Close()

	res, err := parser.Parse(src, internalOpts)
	if err != nil {
		return nil, nil, err
	}
	return &Document{tree: res.Tree, dtd: res}, &warnings, nil
}

// ParseString parses an in-memory XML document.
func ParseString(s string, opts ParseOptions) (*Document, *xmlerrors.Warnings, error) {
	return Parse(strings.NewReader(s), opts)
}

// Root returns the document's root pseudo-node. Its children are the
// root element plus any top-level comments/PIs.
func (d *Document) Root() Node {
	return d.tree.Root()
}

// Write serializes the document per opts.
func (d *Document) Write(w io.Writer, opts WriterOptions) error {
	doctypeName := ""
	if d.dtd != nil && hasDeclarations(d.dtd) {
		if root, ok := d.rootElement(); ok {
			doctypeName = d.tree.QName(root)
		}
	}
	return writer.Write(w, d.tree, dtdOrNil(d.dtd), opts.toInternal(doctypeName))
}

// WriteString serializes the document to a string per opts.
func (d *Document) WriteString(opts WriterOptions) (string, error) {
	var sb strings.Builder
	if err := d.Write(&sb, opts); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (d *Document) rootElement() (Node, bool) {
	for _, id := range d.tree.Children(d.tree.Root()) {
		if d.tree.Node(id).Kind == domtree.KindElement {
			return id, true
		}
	}
	return 0, false
}

func dtdOrNil(res *parser.Result) *dtd.DTD {
	if res == nil || res.DTD == nil {
		return nil
	}
	return res.DTD
}

func hasDeclarations(res *parser.Result) bool {
	if res == nil || res.DTD == nil {
		return false
	}
	return len(res.DTD.Elements) > 0 || len(res.DTD.Attributes) > 0
}

// Find evaluates an XPath 1.0 expression against the document root and
// returns the matching nodes in document order.
func (d *Document) Find(expr string) ([]Node, error) {
	compiled, err := xpath.Compile(expr)
	if err != nil {
		return nil, err
	}
	return compiled.Select(xpath.NewContext(d.tree, d.tree.Root()))
}

// FindFirst evaluates expr and returns its first matching node, or
// false if nothing matched.
func (d *Document) FindFirst(expr string) (Node, bool, error) {
	nodes, err := d.Find(expr)
	if err != nil {
		return 0, false, err
	}
	if len(nodes) == 0 {
		return 0, false, nil
	}
	return nodes[0], true, nil
}

// Matches reports whether node satisfies the compiled boolean/node-set
// predicate expr evaluates to.
func (d *Document) Matches(expr string, node Node) (bool, error) {
	compiled, err := xpath.Compile(expr)
	if err != nil {
		return false, err
	}
	return compiled.Matches(d.tree, node)
}

// QName returns a node's qualified name as it appeared in the source.
func (d *Document) QName(n Node) string {
	return d.tree.QName(n)
}

// Equal reports whether two documents have structurally equal DOMs,
// ignoring node-arena identity. Text content is compared literally;
// use EqualIgnoringSpace for writer round-trip comparisons where
// indentation may have reflowed insignificant whitespace.
func (d *Document) Equal(other *Document) bool {
	if d == nil || other == nil {
		return d == other
	}
	return domtree.Equal(d.tree, d.tree.Root(), other.tree, other.tree.Root())
}

// EqualIgnoringSpace is like Equal but treats text nodes as equal when
// they differ only in whitespace run-length (spec.md §9 Open
// Question).
func (d *Document) EqualIgnoringSpace(other *Document) bool {
	if d == nil || other == nil {
		return d == other
	}
	return domtree.EqualIgnoringSpace(d.tree, d.tree.Root(), other.tree, other.tree.Root())
}
